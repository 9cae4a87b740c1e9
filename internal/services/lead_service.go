package services

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"coachdesk_app_echo/internal/models"
)

// LeadService turns leads into clients. The whole conversion runs in
// one transaction: client, optional package purchase, optional payment
// and the lead stamp commit together or not at all.
type LeadService struct {
	db *gorm.DB
}

func NewLeadService(db *gorm.DB) *LeadService {
	return &LeadService{db: db}
}

// ConvertOptions selects what the conversion creates besides the client
type ConvertOptions struct {
	PackageID     *uint                `json:"package_id,omitempty"`
	AmountPaid    *float64             `json:"amount_paid,omitempty"`
	PaymentMethod models.PaymentMethod `json:"payment_method,omitempty"`
	PaymentStatus models.PaymentStatus `json:"payment_status,omitempty"`
}

// ConversionResult holds everything the conversion created
type ConversionResult struct {
	Client        models.Client         `json:"client"`
	ClientPackage *models.ClientPackage `json:"client_package,omitempty"`
	Payment       *models.Payment       `json:"payment,omitempty"`
	Lead          models.Lead           `json:"lead"`
}

// Convert creates a client from the lead's contact fields, optionally
// purchases a package (with a payment record when the payment status is
// completed), and marks the lead converted. The lead stamp is
// conditional on the lead not being converted yet, so a racing convert
// loses with ErrConflict and every step rolls back.
func (s *LeadService) Convert(ctx context.Context, trainerID string, leadID uint, opts ConvertOptions) (*ConversionResult, error) {
	result := &ConversionResult{}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var lead models.Lead
		if err := tx.Where("trainer_id = ?", trainerID).First(&lead, leadID).Error; err != nil {
			return mapStoreError(err)
		}
		if lead.Status == models.LeadStatusConverted {
			return ErrLeadAlreadyConverted
		}

		notes := "Converted from lead."
		if lead.Notes != "" {
			notes = fmt.Sprintf("Converted from lead. Original notes: %s", lead.Notes)
		}
		client := models.Client{
			TrainerID:           trainerID,
			FirstName:           lead.FirstName,
			LastName:            lead.LastName,
			Email:               lead.Email,
			Phone:               lead.Phone,
			Status:              models.ClientStatusActive,
			Notes:               notes,
			ConvertedFromLeadID: &lead.ID,
		}
		if err := tx.Create(&client).Error; err != nil {
			return mapStoreError(err)
		}

		if opts.PackageID != nil {
			var pkg models.Package
			if err := tx.Where("trainer_id = ?", trainerID).First(&pkg, *opts.PackageID).Error; err != nil {
				return mapStoreError(err)
			}

			amount := pkg.Price
			if opts.AmountPaid != nil {
				amount = *opts.AmountPaid
			}

			cp, err := createEntitlement(tx, trainerID, client.ID, pkg, amount, time.Now())
			if err != nil {
				return err
			}
			result.ClientPackage = cp

			paymentStatus := opts.PaymentStatus
			if paymentStatus == "" {
				paymentStatus = models.PaymentStatusCompleted
			}
			if paymentStatus == models.PaymentStatusCompleted {
				method := opts.PaymentMethod
				if method == "" {
					method = models.PaymentMethodCash
				}
				payment, err := recordPayment(tx, trainerID, RecordPaymentInput{
					ClientID:        client.ID,
					Amount:          amount,
					Method:          method,
					Status:          paymentStatus,
					PaymentDate:     time.Now(),
					ClientPackageID: &cp.ID,
				})
				if err != nil {
					return err
				}
				result.Payment = payment
			}
		}

		// Conditional stamp: a concurrent convert that already flipped the
		// status makes this a zero-row update and rolls everything back.
		res := tx.Model(&models.Lead{}).
			Where("id = ? AND status <> ?", lead.ID, models.LeadStatusConverted).
			Updates(map[string]interface{}{
				"status":                 models.LeadStatusConverted,
				"converted_to_client_id": client.ID,
			})
		if res.Error != nil {
			return mapStoreError(res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrConflict
		}

		lead.Status = models.LeadStatusConverted
		lead.ConvertedToClientID = &client.ID
		result.Client = client
		result.Lead = lead
		return nil
	})
	if err != nil {
		return nil, mapStoreError(err)
	}
	return result, nil
}
