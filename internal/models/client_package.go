package models

import (
	"time"

	"gorm.io/gorm"
)

// ClientPackageStatus represents the status of a purchased package
type ClientPackageStatus string

const (
	ClientPackageStatusActive    ClientPackageStatus = "active"
	ClientPackageStatusExpired   ClientPackageStatus = "expired"
	ClientPackageStatusSuspended ClientPackageStatus = "suspended"
)

// ClientPackage is a purchased instance of a Package, tracking the
// client's remaining session credits.
// Invariant: 0 <= sessions_remaining <= sessions_total.
// SessionsRemaining is only ever mutated through the entitlement
// service's credit adjustment, which bumps Version on every write.
type ClientPackage struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	TrainerID         string              `gorm:"type:varchar(128);index" json:"trainer_id"`
	ClientID          uint                `gorm:"index" json:"client_id"`
	PackageID         uint                `gorm:"index" json:"package_id"`
	SessionsRemaining int                 `json:"sessions_remaining"`
	SessionsTotal     int                 `json:"sessions_total"`
	PurchaseDate      time.Time           `json:"purchase_date"`
	ExpiryDate        time.Time           `json:"expiry_date"`
	AmountPaid        float64             `gorm:"type:decimal(15,2)" json:"amount_paid"`
	Status            ClientPackageStatus `gorm:"type:varchar(20);default:'active'" json:"status"`

	// Optimistic concurrency token, compared on every conditional update
	Version uint `gorm:"default:1" json:"version"`

	// Relationships
	Client   Client   `gorm:"foreignKey:ClientID" json:"client,omitempty"`
	Package  Package  `gorm:"foreignKey:PackageID" json:"package,omitempty"`
	Sessions []Session `gorm:"foreignKey:ClientPackageID" json:"sessions,omitempty"`
}

// IsExhausted reports whether no credits are left
func (cp ClientPackage) IsExhausted() bool {
	return cp.SessionsRemaining <= 0
}

// IsExpired reports whether the expiry date has passed at the given time
func (cp ClientPackage) IsExpired(now time.Time) bool {
	return now.After(cp.ExpiryDate)
}

// CreditAdjustment is the append-only record of a single credit
// mutation on a client package. The unique token makes replayed
// adjustments no-ops instead of double counts.
type CreditAdjustment struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`

	ClientPackageID uint   `gorm:"index" json:"client_package_id"`
	Delta           int    `json:"delta"`
	Token           string `gorm:"type:varchar(100);uniqueIndex" json:"token"`
}
