package models

import (
	"time"

	"gorm.io/gorm"
)

// LeadStatus represents the pipeline status of a lead.
// Converted and lost are terminal.
type LeadStatus string

const (
	LeadStatusActive    LeadStatus = "active"
	LeadStatusContacted LeadStatus = "contacted"
	LeadStatusQualified LeadStatus = "qualified"
	LeadStatusConverted LeadStatus = "converted"
	LeadStatusLost      LeadStatus = "lost"
	LeadStatusCold      LeadStatus = "cold"
)

// LeadSource represents where a lead came from
type LeadSource string

const (
	LeadSourceReferral    LeadSource = "referral"
	LeadSourceSocialMedia LeadSource = "social_media"
	LeadSourceWebsite     LeadSource = "website"
	LeadSourceWalkIn      LeadSource = "walk_in"
	LeadSourceAdvertising LeadSource = "advertising"
	LeadSourceOther       LeadSource = "other"
)

// Lead is a prospective client in the pipeline. Conversion creates a
// Client (and optionally a package purchase) and stamps
// ConvertedToClientID in the same transaction.
type Lead struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	TrainerID    string     `gorm:"type:varchar(128);index" json:"trainer_id"`
	FirstName    string     `gorm:"type:varchar(255)" json:"first_name"`
	LastName     string     `gorm:"type:varchar(255)" json:"last_name"`
	Email        string     `gorm:"type:varchar(255)" json:"email"`
	Phone        string     `gorm:"type:varchar(50)" json:"phone"`
	Source       LeadSource `gorm:"type:varchar(50);default:'website'" json:"source"`
	Status       LeadStatus `gorm:"type:varchar(20);default:'active'" json:"status"`
	FollowUpDate *time.Time `gorm:"index" json:"follow_up_date,omitempty"`
	Notes        string     `gorm:"type:text" json:"notes"`

	ConvertedToClientID *uint `gorm:"index" json:"converted_to_client_id,omitempty"`
}
