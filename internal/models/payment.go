package models

import (
	"time"

	"gorm.io/gorm"
)

// PaymentStatus represents the status of a recorded payment
type PaymentStatus string

const (
	PaymentStatusCompleted PaymentStatus = "completed"
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusFailed    PaymentStatus = "failed"
	PaymentStatusRefunded  PaymentStatus = "refunded"
)

// ValidPaymentStatus reports whether s is a known status value
func ValidPaymentStatus(s PaymentStatus) bool {
	switch s {
	case PaymentStatusCompleted, PaymentStatusPending, PaymentStatusFailed, PaymentStatusRefunded:
		return true
	}
	return false
}

// PaymentMethod represents how the payment was collected
type PaymentMethod string

const (
	PaymentMethodCash         PaymentMethod = "cash"
	PaymentMethodCard         PaymentMethod = "card"
	PaymentMethodBankTransfer PaymentMethod = "bank_transfer"
	PaymentMethodOnline       PaymentMethod = "online"
)

// Payment records a single payment attempt or outcome, optionally tied
// to a package purchase or a single session. Refunding a payment does
// not restore or revoke package credits.
type Payment struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	TrainerID   string        `gorm:"type:varchar(128);index" json:"trainer_id"`
	ClientID    uint          `gorm:"index" json:"client_id"`
	Amount      float64       `gorm:"type:decimal(15,2)" json:"amount"`
	Currency    string        `gorm:"type:varchar(10);default:'USD'" json:"currency"`
	Method      PaymentMethod `gorm:"type:varchar(50)" json:"method"`
	Status      PaymentStatus `gorm:"type:varchar(20);default:'completed'" json:"status"`
	PaymentDate time.Time     `json:"payment_date"`

	ClientPackageID *uint `gorm:"index" json:"client_package_id,omitempty"`
	SessionID       *uint `gorm:"index" json:"session_id,omitempty"`

	// Relationships
	Client        Client         `gorm:"foreignKey:ClientID" json:"client,omitempty"`
	ClientPackage *ClientPackage `gorm:"foreignKey:ClientPackageID" json:"client_package,omitempty"`
}
