package services

import (
	"context"
	"time"

	"gorm.io/gorm"

	"coachdesk_app_echo/internal/models"
)

// EntitlementService owns every mutation of client package credits.
// Credit writes are conditional on the package row version; a stale
// writer gets ErrConflict instead of silently merging.
type EntitlementService struct {
	db *gorm.DB
}

func NewEntitlementService(db *gorm.DB) *EntitlementService {
	return &EntitlementService{db: db}
}

// EntitlementView is a client package plus the derived flags read paths need
type EntitlementView struct {
	models.ClientPackage
	IsExpired   bool `json:"is_expired"`
	IsExhausted bool `json:"is_exhausted"`
}

func newEntitlementView(cp models.ClientPackage, now time.Time) EntitlementView {
	return EntitlementView{
		ClientPackage: cp,
		IsExpired:     cp.IsExpired(now),
		IsExhausted:   cp.IsExhausted(),
	}
}

// Get returns one client package with derived expiry/exhaustion flags
func (s *EntitlementService) Get(ctx context.Context, trainerID string, id uint) (*EntitlementView, error) {
	var cp models.ClientPackage
	err := s.db.WithContext(ctx).
		Preload("Package").
		Where("trainer_id = ?", trainerID).
		First(&cp, id).Error
	if err != nil {
		return nil, mapStoreError(err)
	}
	view := newEntitlementView(cp, time.Now())
	return &view, nil
}

// ListForClient returns all packages purchased by one client, newest first.
// Reads are lock-free and may trail a concurrent writer.
func (s *EntitlementService) ListForClient(ctx context.Context, trainerID string, clientID uint) ([]EntitlementView, error) {
	var cps []models.ClientPackage
	err := s.db.WithContext(ctx).
		Preload("Package").
		Where("trainer_id = ? AND client_id = ?", trainerID, clientID).
		Order("purchase_date desc").
		Find(&cps).Error
	if err != nil {
		return nil, mapStoreError(err)
	}

	now := time.Now()
	views := make([]EntitlementView, 0, len(cps))
	for _, cp := range cps {
		views = append(views, newEntitlementView(cp, now))
	}
	return views, nil
}

// Create purchases a package for a client as its own transaction
func (s *EntitlementService) Create(ctx context.Context, trainerID string, clientID, packageID uint, amountPaid float64, purchaseDate time.Time) (*models.ClientPackage, error) {
	var created *models.ClientPackage
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var pkg models.Package
		if err := tx.Where("trainer_id = ?", trainerID).First(&pkg, packageID).Error; err != nil {
			return mapStoreError(err)
		}
		cp, err := createEntitlement(tx, trainerID, clientID, pkg, amountPaid, purchaseDate)
		if err != nil {
			return err
		}
		created = cp
		return nil
	})
	if err != nil {
		return nil, mapStoreError(err)
	}
	return created, nil
}

// AdjustCredits applies a delta to the remaining sessions of a package
// under the token idempotency guarantee: replaying the same token is a
// no-op, not a double count.
func (s *EntitlementService) AdjustCredits(ctx context.Context, trainerID string, entitlementID uint, delta int, token string) (*models.ClientPackage, error) {
	var adjusted models.ClientPackage
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("trainer_id = ?", trainerID).First(&adjusted, entitlementID).Error; err != nil {
			return mapStoreError(err)
		}
		return adjustCredits(tx, &adjusted, delta, token)
	})
	if err != nil {
		return nil, mapStoreError(err)
	}
	return &adjusted, nil
}

// createEntitlement inserts a new client package inside the caller's
// transaction. Shared with lead conversion and payment recording so the
// purchase joins their transactional boundary.
func createEntitlement(tx *gorm.DB, trainerID string, clientID uint, pkg models.Package, amountPaid float64, purchaseDate time.Time) (*models.ClientPackage, error) {
	if !pkg.IsActive {
		return nil, ErrPackageInactive
	}

	var client models.Client
	if err := tx.Where("trainer_id = ?", trainerID).First(&client, clientID).Error; err != nil {
		return nil, mapStoreError(err)
	}

	// One active purchase of a given package per client
	var existing int64
	err := tx.Model(&models.ClientPackage{}).
		Where("client_id = ? AND package_id = ? AND status = ?", clientID, pkg.ID, models.ClientPackageStatusActive).
		Count(&existing).Error
	if err != nil {
		return nil, mapStoreError(err)
	}
	if existing > 0 {
		return nil, ErrDuplicateActiveEntitlement
	}

	cp := models.ClientPackage{
		TrainerID:         trainerID,
		ClientID:          clientID,
		PackageID:         pkg.ID,
		SessionsRemaining: pkg.SessionCount,
		SessionsTotal:     pkg.SessionCount,
		PurchaseDate:      purchaseDate,
		ExpiryDate:        purchaseDate.AddDate(0, 0, pkg.DurationDays),
		AmountPaid:        amountPaid,
		Status:            models.ClientPackageStatusActive,
		Version:           1,
	}
	if err := tx.Create(&cp).Error; err != nil {
		return nil, mapStoreError(err)
	}
	return &cp, nil
}

// adjustCredits mutates sessions_remaining inside the caller's
// transaction. The write is conditional on the version the caller
// loaded; zero rows affected means a concurrent writer won and the
// caller gets ErrConflict. The adjustment token is recorded in the same
// transaction, so a replay of the token is detected before any write.
func adjustCredits(tx *gorm.DB, cp *models.ClientPackage, delta int, token string) error {
	var applied int64
	err := tx.Model(&models.CreditAdjustment{}).
		Where("token = ?", token).
		Count(&applied).Error
	if err != nil {
		return mapStoreError(err)
	}
	if applied > 0 {
		// Token already applied, nothing to do
		return nil
	}

	newRemaining := cp.SessionsRemaining + delta
	if newRemaining < 0 {
		return ErrInsufficientCredits
	}
	if newRemaining > cp.SessionsTotal {
		return ErrOverCap
	}

	res := tx.Model(&models.ClientPackage{}).
		Where("id = ? AND version = ?", cp.ID, cp.Version).
		Updates(map[string]interface{}{
			"sessions_remaining": newRemaining,
			"version":            cp.Version + 1,
		})
	if res.Error != nil {
		return mapStoreError(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrConflict
	}

	adjustment := models.CreditAdjustment{
		ClientPackageID: cp.ID,
		Delta:           delta,
		Token:           token,
	}
	if err := tx.Create(&adjustment).Error; err != nil {
		return mapStoreError(err)
	}

	cp.SessionsRemaining = newRemaining
	cp.Version++
	return nil
}
