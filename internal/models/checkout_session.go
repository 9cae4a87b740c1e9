package models

import (
	"encoding/json"
	"time"

	"gorm.io/gorm"
)

// CheckoutSession tracks one online checkout attempt for a package
// purchase at the payment gateway. At most one active session exists
// per pending payment; it is deactivated when the gateway reports a
// terminal status.
type CheckoutSession struct {
	ID               uint            `gorm:"primaryKey" json:"id"`
	TrainerID        string          `gorm:"type:varchar(128);index" json:"trainer_id"`
	ClientID         uint            `gorm:"index" json:"client_id"`
	PackageID        uint            `gorm:"index" json:"package_id"`
	PaymentID        uint            `gorm:"index" json:"payment_id"`
	OrderID          string          `gorm:"type:varchar(100);index" json:"order_id"`
	IsActive         bool            `gorm:"default:true" json:"is_active"`
	RequestMetadata  json.RawMessage `gorm:"type:jsonb" json:"request_metadata"`
	ResponseMetadata json.RawMessage `gorm:"type:jsonb" json:"response_metadata"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
	DeletedAt        gorm.DeletedAt  `gorm:"index" json:"deleted_at,omitempty"`
}
