package models

import (
	"time"

	"gorm.io/gorm"
)

// TrainerProfile stores the trainer's own settings. The trainer UID
// comes from the auth provider and is never generated locally.
type TrainerProfile struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	TrainerUID   string `gorm:"type:varchar(128);uniqueIndex" json:"trainer_uid"`
	Name         string `gorm:"type:varchar(255)" json:"name"`
	Email        string `gorm:"type:varchar(255)" json:"email"`
	Phone        string `gorm:"type:varchar(50)" json:"phone"`
	BusinessName string `gorm:"type:varchar(255)" json:"business_name"`
	Currency     string `gorm:"type:varchar(10);default:'USD'" json:"currency"`
}
