package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/midtrans/midtrans-go"
	"github.com/midtrans/midtrans-go/snap"
	"gorm.io/gorm"

	"coachdesk_app_echo/internal/models"
)

// PaymentService records payments and runs online package checkouts
// through the gateway. Recording is purely additive except when a
// package purchase rides along, which joins the same transaction.
type PaymentService struct {
	db             *gorm.DB
	midtransClient *MidtransService
}

func NewPaymentService(db *gorm.DB, midtransClient *MidtransService) *PaymentService {
	return &PaymentService{
		db:             db,
		midtransClient: midtransClient,
	}
}

// RecordPaymentInput carries the fields for recording a payment.
// PackageID (the template) triggers a package purchase for the client
// when the payment is completed; ClientPackageID links to an already
// existing purchase.
type RecordPaymentInput struct {
	ClientID        uint                 `json:"client_id"`
	Amount          float64              `json:"amount"`
	Currency        string               `json:"currency"`
	Method          models.PaymentMethod `json:"method"`
	Status          models.PaymentStatus `json:"status"`
	PaymentDate     time.Time            `json:"payment_date"`
	PackageID       *uint                `json:"package_id,omitempty"`
	ClientPackageID *uint                `json:"client_package_id,omitempty"`
	SessionID       *uint                `json:"session_id,omitempty"`
}

// Record stores a payment. When a package template is given and the
// payment is completed, the package purchase is created in the same
// transaction and the payment linked to it.
func (s *PaymentService) Record(ctx context.Context, trainerID string, input RecordPaymentInput) (*models.Payment, error) {
	var payment *models.Payment
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		p, err := recordPayment(tx, trainerID, input)
		if err != nil {
			return err
		}
		payment = p

		if input.PackageID != nil && p.Status == models.PaymentStatusCompleted {
			var pkg models.Package
			if err := tx.Where("trainer_id = ?", trainerID).First(&pkg, *input.PackageID).Error; err != nil {
				return mapStoreError(err)
			}
			cp, err := createEntitlement(tx, trainerID, input.ClientID, pkg, p.Amount, p.PaymentDate)
			if err != nil {
				return err
			}
			if err := tx.Model(p).Update("client_package_id", cp.ID).Error; err != nil {
				return mapStoreError(err)
			}
			p.ClientPackageID = &cp.ID
		}
		return nil
	})
	if err != nil {
		return nil, mapStoreError(err)
	}
	return payment, nil
}

// recordPayment inserts the payment row inside the caller's
// transaction. Shared with lead conversion.
func recordPayment(tx *gorm.DB, trainerID string, input RecordPaymentInput) (*models.Payment, error) {
	if input.Amount <= 0 {
		return nil, ErrInvalidAmount
	}
	if input.Status != "" && !models.ValidPaymentStatus(input.Status) {
		return nil, ErrInvalidStatus
	}

	var client models.Client
	if err := tx.Where("trainer_id = ?", trainerID).First(&client, input.ClientID).Error; err != nil {
		return nil, mapStoreError(err)
	}

	payment := models.Payment{
		TrainerID:       trainerID,
		ClientID:        input.ClientID,
		Amount:          input.Amount,
		Currency:        input.Currency,
		Method:          input.Method,
		Status:          input.Status,
		PaymentDate:     input.PaymentDate,
		ClientPackageID: input.ClientPackageID,
		SessionID:       input.SessionID,
	}
	if payment.Currency == "" {
		payment.Currency = "USD"
	}
	if payment.Status == "" {
		payment.Status = models.PaymentStatusCompleted
	}
	if payment.PaymentDate.IsZero() {
		payment.PaymentDate = time.Now()
	}
	if err := tx.Create(&payment).Error; err != nil {
		return nil, mapStoreError(err)
	}
	return &payment, nil
}

// UpdateStatus moves a payment freely among the status values. No
// entitlement side effects: refunding does not revoke credits.
func (s *PaymentService) UpdateStatus(ctx context.Context, trainerID string, paymentID uint, newStatus models.PaymentStatus) (*models.Payment, error) {
	if !models.ValidPaymentStatus(newStatus) {
		return nil, ErrInvalidStatus
	}

	var payment models.Payment
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("trainer_id = ?", trainerID).First(&payment, paymentID).Error; err != nil {
			return mapStoreError(err)
		}
		if err := tx.Model(&payment).Update("status", newStatus).Error; err != nil {
			return mapStoreError(err)
		}
		payment.Status = newStatus
		return nil
	})
	if err != nil {
		return nil, mapStoreError(err)
	}
	return &payment, nil
}

// List returns the trainer's payments, newest first
func (s *PaymentService) List(ctx context.Context, trainerID string, clientID uint) ([]models.Payment, error) {
	query := s.db.WithContext(ctx).
		Preload("Client").
		Where("trainer_id = ?", trainerID)
	if clientID > 0 {
		query = query.Where("client_id = ?", clientID)
	}

	var payments []models.Payment
	if err := query.Order("payment_date desc").Find(&payments).Error; err != nil {
		return nil, mapStoreError(err)
	}
	return payments, nil
}

// CheckoutResult holds what the gateway returned for a checkout attempt
type CheckoutResult struct {
	OrderID     string `json:"order_id"`
	Token       string `json:"token"`
	RedirectURL string `json:"redirect_url"`
	IsExisting  bool   `json:"is_existing"`
}

// InitiateCheckout starts or resumes an online checkout for a package
// purchase. An existing pending checkout is reused unless forceNew
// cancels it at the gateway first.
func (s *PaymentService) InitiateCheckout(ctx context.Context, trainerID string, clientID, packageID uint, callbackURL string, forceNew bool) (*CheckoutResult, error) {
	db := s.db.WithContext(ctx)

	var client models.Client
	if err := db.Where("trainer_id = ?", trainerID).First(&client, clientID).Error; err != nil {
		return nil, mapStoreError(err)
	}
	var pkg models.Package
	if err := db.Where("trainer_id = ?", trainerID).First(&pkg, packageID).Error; err != nil {
		return nil, mapStoreError(err)
	}
	if !pkg.IsActive {
		return nil, ErrPackageInactive
	}

	// Reuse or retire an existing active checkout for this pair
	var existing models.CheckoutSession
	err := db.Where("client_id = ? AND package_id = ? AND is_active = ?", clientID, packageID, true).
		Order("created_at desc").
		First(&existing).Error
	if err != nil && err != gorm.ErrRecordNotFound {
		return nil, mapStoreError(err)
	}

	if err == nil {
		statusResp, checkErr := s.midtransClient.CheckTransaction(existing.OrderID)
		if checkErr == nil {
			switch statusResp.TransactionStatus {
			case "settlement", "capture":
				return nil, ErrCheckoutAlreadyPaid
			case "deny", "expire", "cancel", "failure":
				db.Model(&existing).Update("is_active", false)
			default: // pending
				if forceNew {
					s.midtransClient.CancelTransaction(existing.OrderID)
					db.Model(&existing).Update("is_active", false)
				} else {
					var midtransResp snap.Response
					if unmarshalErr := json.Unmarshal(existing.ResponseMetadata, &midtransResp); unmarshalErr == nil {
						return &CheckoutResult{
							OrderID:     existing.OrderID,
							Token:       midtransResp.Token,
							RedirectURL: midtransResp.RedirectURL,
							IsExisting:  true,
						}, nil
					}
					// Broken metadata, retire and start fresh
					db.Model(&existing).Update("is_active", false)
				}
			}
		} else {
			db.Model(&existing).Update("is_active", false)
		}
	}

	orderID := fmt.Sprintf("pkg-%d-client-%d-%s", packageID, clientID, uuid.New().String()[:8])
	grossAmount := int64(pkg.Price)

	req := &snap.Request{
		TransactionDetails: midtrans.TransactionDetails{
			OrderID:  orderID,
			GrossAmt: grossAmount,
		},
		CustomerDetail: &midtrans.CustomerDetails{
			FName: client.FullName(),
			Email: client.Email,
		},
		Items: &[]midtrans.ItemDetails{
			{
				ID:    fmt.Sprintf("package-%d", pkg.ID),
				Name:  pkg.Name,
				Price: grossAmount,
				Qty:   1,
			},
		},
		Callbacks: &snap.Callbacks{
			Finish: callbackURL,
		},
	}

	resp, err := s.midtransClient.CreateTransaction(orderID, grossAmount, req)
	if err != nil {
		return nil, err
	}

	reqBytes, _ := json.Marshal(req)
	respBytes, _ := json.Marshal(resp)

	err = db.Transaction(func(tx *gorm.DB) error {
		payment, err := recordPayment(tx, trainerID, RecordPaymentInput{
			ClientID:    clientID,
			Amount:      pkg.Price,
			Method:      models.PaymentMethodOnline,
			Status:      models.PaymentStatusPending,
			PaymentDate: time.Now(),
		})
		if err != nil {
			return err
		}

		session := models.CheckoutSession{
			TrainerID:        trainerID,
			ClientID:         clientID,
			PackageID:        packageID,
			PaymentID:        payment.ID,
			OrderID:          orderID,
			IsActive:         true,
			RequestMetadata:  reqBytes,
			ResponseMetadata: respBytes,
		}
		return mapStoreError(tx.Create(&session).Error)
	})
	if err != nil {
		return nil, mapStoreError(err)
	}

	return &CheckoutResult{
		OrderID:     orderID,
		Token:       resp.Token,
		RedirectURL: resp.RedirectURL,
	}, nil
}

// HandleNotification settles a checkout from a gateway callback. A
// settled checkout completes the payment and creates the package
// purchase in one transaction; terminal failures mark the payment
// failed. Replayed notifications for a retired checkout are no-ops.
func (s *PaymentService) HandleNotification(ctx context.Context, orderID, transactionStatus, fraudStatus string) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var session models.CheckoutSession
		err := tx.Where("order_id = ?", orderID).First(&session).Error
		if err != nil {
			return mapStoreError(err)
		}
		if !session.IsActive {
			// Already resolved by an earlier notification
			return nil
		}

		var payment models.Payment
		if err := tx.First(&payment, session.PaymentID).Error; err != nil {
			return mapStoreError(err)
		}

		settled := transactionStatus == "settlement" ||
			(transactionStatus == "capture" && fraudStatus != "deny")

		switch {
		case settled:
			var pkg models.Package
			if err := tx.First(&pkg, session.PackageID).Error; err != nil {
				return mapStoreError(err)
			}
			cp, err := createEntitlement(tx, session.TrainerID, session.ClientID, pkg, payment.Amount, time.Now())
			if err != nil {
				return err
			}
			updates := map[string]interface{}{
				"status":            models.PaymentStatusCompleted,
				"client_package_id": cp.ID,
			}
			if err := tx.Model(&payment).Updates(updates).Error; err != nil {
				return mapStoreError(err)
			}
		case transactionStatus == "deny" || transactionStatus == "expire" ||
			transactionStatus == "cancel" || transactionStatus == "failure":
			if err := tx.Model(&payment).Update("status", models.PaymentStatusFailed).Error; err != nil {
				return mapStoreError(err)
			}
		default:
			// Still pending at the gateway, keep the checkout open
			return nil
		}

		return mapStoreError(tx.Model(&session).Update("is_active", false).Error)
	})
	return mapStoreError(err)
}
