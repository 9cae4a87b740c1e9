package models

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

// ClientStatus represents the lifecycle status of a client
type ClientStatus string

const (
	ClientStatusActive   ClientStatus = "active"
	ClientStatusInactive ClientStatus = "inactive"
	ClientStatusPaused   ClientStatus = "paused"
)

// Client represents a person the trainer works with.
// Status changes never touch the client's packages.
type Client struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	TrainerID string       `gorm:"type:varchar(128);index" json:"trainer_id"`
	FirstName string       `gorm:"type:varchar(255)" json:"first_name"`
	LastName  string       `gorm:"type:varchar(255)" json:"last_name"`
	Email     string       `gorm:"type:varchar(255)" json:"email"`
	Phone     string       `gorm:"type:varchar(50)" json:"phone"`
	Status    ClientStatus `gorm:"type:varchar(20);default:'active'" json:"status"`
	Notes     string       `gorm:"type:text" json:"notes"`

	// Set when the client was created by converting a lead
	ConvertedFromLeadID *uint `gorm:"index" json:"converted_from_lead_id,omitempty"`

	// Relationships
	Packages []ClientPackage `gorm:"foreignKey:ClientID" json:"packages,omitempty"`
	Sessions []Session       `gorm:"foreignKey:ClientID" json:"sessions,omitempty"`
	Payments []Payment       `gorm:"foreignKey:ClientID" json:"payments,omitempty"`
}

// FullName joins the name parts for display and notifications
func (c Client) FullName() string {
	return strings.TrimSpace(c.FirstName + " " + c.LastName)
}
