package models

import (
	"time"

	"gorm.io/gorm"
)

// Package is the immutable template a client package is purchased from.
// Deactivating a package blocks new assignments but leaves existing
// client packages untouched.
type Package struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	TrainerID    string  `gorm:"type:varchar(128);index" json:"trainer_id"`
	Name         string  `gorm:"type:varchar(255)" json:"name"`
	Description  string  `gorm:"type:text" json:"description"`
	Price        float64 `gorm:"type:decimal(15,2)" json:"price"`
	SessionCount int     `json:"session_count"`
	DurationDays int     `json:"duration_days"`
	IsActive     bool    `gorm:"default:true" json:"is_active"`

	// Relationships
	ClientPackages []ClientPackage `gorm:"foreignKey:PackageID" json:"client_packages,omitempty"`
}
