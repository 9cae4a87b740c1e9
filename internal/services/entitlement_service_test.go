package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"gorm.io/gorm"

	"coachdesk_app_echo/internal/models"
)

func TestCreateEntitlement(t *testing.T) {
	db := newTestDB(t)
	svc := NewEntitlementService(db)
	client := seedClient(t, db)
	pkg := seedPackage(t, db, 10, 90)

	purchase := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	cp, err := svc.Create(context.Background(), testTrainer, client.ID, pkg.ID, 450, purchase)
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	if cp.SessionsRemaining != 10 || cp.SessionsTotal != 10 {
		t.Errorf("credits = %d/%d, want 10/10", cp.SessionsRemaining, cp.SessionsTotal)
	}
	if cp.AmountPaid != 450 {
		t.Errorf("amount paid = %v, want 450", cp.AmountPaid)
	}
	wantExpiry := purchase.AddDate(0, 0, 90)
	if !cp.ExpiryDate.Equal(wantExpiry) {
		t.Errorf("expiry = %v, want %v", cp.ExpiryDate, wantExpiry)
	}
	if cp.Status != models.ClientPackageStatusActive {
		t.Errorf("status = %s, want active", cp.Status)
	}
	if cp.Version != 1 {
		t.Errorf("version = %d, want 1", cp.Version)
	}
}

func TestCreateEntitlementInactivePackage(t *testing.T) {
	db := newTestDB(t)
	svc := NewEntitlementService(db)
	client := seedClient(t, db)
	pkg := seedPackage(t, db, 10, 90)
	if err := db.Model(&pkg).Update("is_active", false).Error; err != nil {
		t.Fatal(err)
	}

	_, err := svc.Create(context.Background(), testTrainer, client.ID, pkg.ID, 500, time.Now())
	if !errors.Is(err, ErrPackageInactive) {
		t.Fatalf("error = %v, want ErrPackageInactive", err)
	}
}

func TestCreateEntitlementDuplicateActive(t *testing.T) {
	db := newTestDB(t)
	svc := NewEntitlementService(db)
	client := seedClient(t, db)
	pkg := seedPackage(t, db, 10, 90)
	seedEntitlement(t, db, client.ID, pkg)

	_, err := svc.Create(context.Background(), testTrainer, client.ID, pkg.ID, 500, time.Now())
	if !errors.Is(err, ErrDuplicateActiveEntitlement) {
		t.Fatalf("error = %v, want ErrDuplicateActiveEntitlement", err)
	}
}

func TestAdjustCreditsBounds(t *testing.T) {
	db := newTestDB(t)
	svc := NewEntitlementService(db)
	client := seedClient(t, db)
	pkg := seedPackage(t, db, 2, 90)
	cp := seedEntitlement(t, db, client.ID, pkg)
	ctx := context.Background()

	// Draining below zero is rejected, not clamped
	_, err := svc.AdjustCredits(ctx, testTrainer, cp.ID, -3, "tok-under")
	if !errors.Is(err, ErrInsufficientCredits) {
		t.Fatalf("error = %v, want ErrInsufficientCredits", err)
	}

	// Exceeding the total is rejected
	_, err = svc.AdjustCredits(ctx, testTrainer, cp.ID, +1, "tok-over")
	if !errors.Is(err, ErrOverCap) {
		t.Fatalf("error = %v, want ErrOverCap", err)
	}

	// Either rejection leaves the row untouched
	got := reloadEntitlement(t, db, cp.ID)
	if got.SessionsRemaining != 2 || got.Version != 1 {
		t.Errorf("after rejected adjustments: remaining=%d version=%d, want 2/1", got.SessionsRemaining, got.Version)
	}
}

func TestAdjustCreditsTokenIdempotency(t *testing.T) {
	db := newTestDB(t)
	svc := NewEntitlementService(db)
	client := seedClient(t, db)
	pkg := seedPackage(t, db, 5, 90)
	cp := seedEntitlement(t, db, client.ID, pkg)
	ctx := context.Background()

	first, err := svc.AdjustCredits(ctx, testTrainer, cp.ID, -1, "tok-once")
	if err != nil {
		t.Fatalf("first adjustment failed: %v", err)
	}
	if first.SessionsRemaining != 4 {
		t.Errorf("remaining after first = %d, want 4", first.SessionsRemaining)
	}

	// Same token again is a no-op, not a second decrement
	second, err := svc.AdjustCredits(ctx, testTrainer, cp.ID, -1, "tok-once")
	if err != nil {
		t.Fatalf("replayed adjustment failed: %v", err)
	}
	if second.SessionsRemaining != 4 {
		t.Errorf("remaining after replay = %d, want 4", second.SessionsRemaining)
	}

	// A fresh token applies normally
	third, err := svc.AdjustCredits(ctx, testTrainer, cp.ID, -1, "tok-twice")
	if err != nil {
		t.Fatalf("fresh adjustment failed: %v", err)
	}
	if third.SessionsRemaining != 3 {
		t.Errorf("remaining after fresh token = %d, want 3", third.SessionsRemaining)
	}
}

func TestAdjustCreditsStaleVersionConflicts(t *testing.T) {
	db := newTestDB(t)
	client := seedClient(t, db)
	pkg := seedPackage(t, db, 5, 90)
	cp := seedEntitlement(t, db, client.ID, pkg)

	stale := cp
	// Another writer bumps the version out from under the stale copy
	if err := db.Model(&models.ClientPackage{}).Where("id = ?", cp.ID).
		Update("version", cp.Version+1).Error; err != nil {
		t.Fatal(err)
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		return adjustCredits(tx, &stale, -1, "tok-stale")
	})
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("error = %v, want ErrConflict", err)
	}

	got := reloadEntitlement(t, db, cp.ID)
	if got.SessionsRemaining != 5 {
		t.Errorf("remaining = %d, want 5 (no partial write)", got.SessionsRemaining)
	}
}

func TestEntitlementViewFlags(t *testing.T) {
	db := newTestDB(t)
	svc := NewEntitlementService(db)
	client := seedClient(t, db)
	pkg := seedPackage(t, db, 1, 30)
	cp := seedEntitlement(t, db, client.ID, pkg)
	ctx := context.Background()

	if _, err := svc.AdjustCredits(ctx, testTrainer, cp.ID, -1, "tok-drain"); err != nil {
		t.Fatalf("drain failed: %v", err)
	}

	view, err := svc.Get(ctx, testTrainer, cp.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !view.IsExhausted {
		t.Error("view should report exhausted after draining the last credit")
	}
	if view.IsExpired {
		t.Error("view should not report expired inside the window")
	}

	if err := db.Model(&models.ClientPackage{}).Where("id = ?", cp.ID).
		Update("expiry_date", time.Now().Add(-time.Hour)).Error; err != nil {
		t.Fatal(err)
	}
	view, err = svc.Get(ctx, testTrainer, cp.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !view.IsExpired {
		t.Error("view should report expired after the expiry date passes")
	}
}

func TestEntitlementTrainerScoping(t *testing.T) {
	db := newTestDB(t)
	svc := NewEntitlementService(db)
	client := seedClient(t, db)
	pkg := seedPackage(t, db, 5, 90)
	cp := seedEntitlement(t, db, client.ID, pkg)

	_, err := svc.Get(context.Background(), "some-other-trainer", cp.ID)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("error = %v, want ErrNotFound for foreign trainer", err)
	}
}
