package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"coachdesk_app_echo/internal/models"
)

func TestConvertLeadBare(t *testing.T) {
	db := newTestDB(t)
	svc := NewLeadService(db)
	lead := seedLead(t, db, models.LeadStatusQualified)

	result, err := svc.Convert(context.Background(), testTrainer, lead.ID, ConvertOptions{})
	if err != nil {
		t.Fatalf("convert failed: %v", err)
	}

	if result.Client.FirstName != lead.FirstName || result.Client.Email != lead.Email {
		t.Errorf("client contact fields not copied from lead: %+v", result.Client)
	}
	if result.Client.ConvertedFromLeadID == nil || *result.Client.ConvertedFromLeadID != lead.ID {
		t.Error("client should point back at the source lead")
	}
	if !strings.Contains(result.Client.Notes, lead.Notes) {
		t.Errorf("client notes should carry the lead notes, got %q", result.Client.Notes)
	}
	if result.Lead.Status != models.LeadStatusConverted {
		t.Errorf("lead status = %s, want converted", result.Lead.Status)
	}
	if result.Lead.ConvertedToClientID == nil || *result.Lead.ConvertedToClientID != result.Client.ID {
		t.Error("lead should point at the created client")
	}
	if result.ClientPackage != nil || result.Payment != nil {
		t.Error("bare conversion should not create a package or payment")
	}
}

func TestConvertLeadWithPackageAndPayment(t *testing.T) {
	db := newTestDB(t)
	svc := NewLeadService(db)
	lead := seedLead(t, db, models.LeadStatusQualified)
	pkg := seedPackage(t, db, 10, 90)

	result, err := svc.Convert(context.Background(), testTrainer, lead.ID, ConvertOptions{
		PackageID: &pkg.ID,
	})
	if err != nil {
		t.Fatalf("convert failed: %v", err)
	}

	if result.ClientPackage == nil {
		t.Fatal("conversion with a package should create the purchase")
	}
	if result.ClientPackage.SessionsRemaining != 10 {
		t.Errorf("remaining = %d, want 10", result.ClientPackage.SessionsRemaining)
	}
	if result.Payment == nil {
		t.Fatal("completed purchase should create a payment")
	}
	if result.Payment.Amount != pkg.Price {
		t.Errorf("payment amount = %v, want package price %v", result.Payment.Amount, pkg.Price)
	}
	if result.Payment.Method != models.PaymentMethodCash {
		t.Errorf("payment method = %s, want default cash", result.Payment.Method)
	}
	if result.Payment.ClientPackageID == nil || *result.Payment.ClientPackageID != result.ClientPackage.ID {
		t.Error("payment should link to the created purchase")
	}
}

func TestConvertLeadPendingPaymentSkipsLedger(t *testing.T) {
	db := newTestDB(t)
	svc := NewLeadService(db)
	lead := seedLead(t, db, models.LeadStatusActive)
	pkg := seedPackage(t, db, 10, 90)

	result, err := svc.Convert(context.Background(), testTrainer, lead.ID, ConvertOptions{
		PackageID:     &pkg.ID,
		PaymentStatus: models.PaymentStatusPending,
	})
	if err != nil {
		t.Fatalf("convert failed: %v", err)
	}
	if result.ClientPackage == nil {
		t.Fatal("purchase should still be created")
	}
	if result.Payment != nil {
		t.Error("pending payment status should not write a ledger row")
	}
}

func TestConvertLeadAlreadyConverted(t *testing.T) {
	db := newTestDB(t)
	svc := NewLeadService(db)
	lead := seedLead(t, db, models.LeadStatusConverted)

	_, err := svc.Convert(context.Background(), testTrainer, lead.ID, ConvertOptions{})
	if !errors.Is(err, ErrLeadAlreadyConverted) {
		t.Fatalf("error = %v, want ErrLeadAlreadyConverted", err)
	}

	var clients int64
	if err := db.Model(&models.Client{}).Count(&clients).Error; err != nil {
		t.Fatal(err)
	}
	if clients != 0 {
		t.Error("failed conversion must not leave a client behind")
	}
}

func TestConvertLeadAtomicRollback(t *testing.T) {
	db := newTestDB(t)
	svc := NewLeadService(db)
	lead := seedLead(t, db, models.LeadStatusQualified)
	pkg := seedPackage(t, db, 10, 90)
	if err := db.Model(&pkg).Update("is_active", false).Error; err != nil {
		t.Fatal(err)
	}

	// The deactivated package makes the purchase step fail after the
	// client insert; everything must roll back
	_, err := svc.Convert(context.Background(), testTrainer, lead.ID, ConvertOptions{
		PackageID: &pkg.ID,
	})
	if !errors.Is(err, ErrPackageInactive) {
		t.Fatalf("error = %v, want ErrPackageInactive", err)
	}

	var clients int64
	if err := db.Model(&models.Client{}).Count(&clients).Error; err != nil {
		t.Fatal(err)
	}
	if clients != 0 {
		t.Error("client insert should have rolled back")
	}

	var got models.Lead
	if err := db.First(&got, lead.ID).Error; err != nil {
		t.Fatal(err)
	}
	if got.Status != models.LeadStatusQualified {
		t.Errorf("lead status = %s, want unchanged qualified", got.Status)
	}
	if got.ConvertedToClientID != nil {
		t.Error("lead should not reference a client after rollback")
	}
}

func TestConvertLeadForeignTrainer(t *testing.T) {
	db := newTestDB(t)
	svc := NewLeadService(db)
	lead := seedLead(t, db, models.LeadStatusActive)

	_, err := svc.Convert(context.Background(), "some-other-trainer", lead.ID, ConvertOptions{})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("error = %v, want ErrNotFound", err)
	}
}
