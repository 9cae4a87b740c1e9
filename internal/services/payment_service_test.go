package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"coachdesk_app_echo/internal/models"
)

func TestRecordPaymentValidation(t *testing.T) {
	db := newTestDB(t)
	svc := NewPaymentService(db, nil)
	client := seedClient(t, db)
	ctx := context.Background()

	for _, amount := range []float64{0, -25} {
		_, err := svc.Record(ctx, testTrainer, RecordPaymentInput{
			ClientID: client.ID,
			Amount:   amount,
			Method:   models.PaymentMethodCash,
		})
		if !errors.Is(err, ErrInvalidAmount) {
			t.Errorf("amount %v: error = %v, want ErrInvalidAmount", amount, err)
		}
	}

	_, err := svc.Record(ctx, testTrainer, RecordPaymentInput{
		ClientID: client.ID,
		Amount:   100,
		Status:   "voided",
	})
	if !errors.Is(err, ErrInvalidStatus) {
		t.Fatalf("error = %v, want ErrInvalidStatus", err)
	}

	var count int64
	if err := db.Model(&models.Payment{}).Count(&count).Error; err != nil {
		t.Fatal(err)
	}
	if count != 0 {
		t.Error("rejected payments must not be stored")
	}
}

func TestRecordPaymentDefaults(t *testing.T) {
	db := newTestDB(t)
	svc := NewPaymentService(db, nil)
	client := seedClient(t, db)

	payment, err := svc.Record(context.Background(), testTrainer, RecordPaymentInput{
		ClientID: client.ID,
		Amount:   75,
		Method:   models.PaymentMethodCard,
	})
	if err != nil {
		t.Fatalf("record failed: %v", err)
	}
	if payment.Status != models.PaymentStatusCompleted {
		t.Errorf("status = %s, want default completed", payment.Status)
	}
	if payment.Currency != "USD" {
		t.Errorf("currency = %s, want default USD", payment.Currency)
	}
	if payment.PaymentDate.IsZero() {
		t.Error("payment date should default to now")
	}
}

func TestRecordPaymentWithPackagePurchase(t *testing.T) {
	db := newTestDB(t)
	svc := NewPaymentService(db, nil)
	client := seedClient(t, db)
	pkg := seedPackage(t, db, 8, 60)

	payment, err := svc.Record(context.Background(), testTrainer, RecordPaymentInput{
		ClientID:  client.ID,
		Amount:    400,
		Method:    models.PaymentMethodBankTransfer,
		PackageID: &pkg.ID,
	})
	if err != nil {
		t.Fatalf("record failed: %v", err)
	}
	if payment.ClientPackageID == nil {
		t.Fatal("payment should link to the purchase it created")
	}

	cp := reloadEntitlement(t, db, *payment.ClientPackageID)
	if cp.ClientID != client.ID || cp.SessionsRemaining != 8 {
		t.Errorf("purchase = client %d with %d credits, want client %d with 8", cp.ClientID, cp.SessionsRemaining, client.ID)
	}
	if cp.AmountPaid != 400 {
		t.Errorf("purchase amount = %v, want the payment amount 400", cp.AmountPaid)
	}
}

func TestRecordPaymentPackageRollback(t *testing.T) {
	db := newTestDB(t)
	svc := NewPaymentService(db, nil)
	client := seedClient(t, db)
	pkg := seedPackage(t, db, 8, 60)
	seedEntitlement(t, db, client.ID, pkg)

	// The duplicate active purchase fails the entitlement step; the
	// payment row must roll back with it
	_, err := svc.Record(context.Background(), testTrainer, RecordPaymentInput{
		ClientID:  client.ID,
		Amount:    400,
		Method:    models.PaymentMethodCash,
		PackageID: &pkg.ID,
	})
	if !errors.Is(err, ErrDuplicateActiveEntitlement) {
		t.Fatalf("error = %v, want ErrDuplicateActiveEntitlement", err)
	}

	var payments int64
	if err := db.Model(&models.Payment{}).Count(&payments).Error; err != nil {
		t.Fatal(err)
	}
	if payments != 0 {
		t.Error("payment should have rolled back with the failed purchase")
	}
}

func TestRefundDoesNotTouchCredits(t *testing.T) {
	db := newTestDB(t)
	svc := NewPaymentService(db, nil)
	sessions := NewSessionService(db)
	client := seedClient(t, db)
	pkg := seedPackage(t, db, 5, 90)
	ctx := context.Background()

	payment, err := svc.Record(ctx, testTrainer, RecordPaymentInput{
		ClientID:  client.ID,
		Amount:    500,
		Method:    models.PaymentMethodCard,
		PackageID: &pkg.ID,
	})
	if err != nil {
		t.Fatalf("record failed: %v", err)
	}

	session := seedSession(t, db, client.ID, payment.ClientPackageID)
	if _, err := sessions.Transition(ctx, testTrainer, session.ID, models.SessionStatusCompleted); err != nil {
		t.Fatalf("complete failed: %v", err)
	}

	refunded, err := svc.UpdateStatus(ctx, testTrainer, payment.ID, models.PaymentStatusRefunded)
	if err != nil {
		t.Fatalf("refund failed: %v", err)
	}
	if refunded.Status != models.PaymentStatusRefunded {
		t.Errorf("status = %s, want refunded", refunded.Status)
	}

	// Credits are untouched by the refund
	cp := reloadEntitlement(t, db, *payment.ClientPackageID)
	if cp.SessionsRemaining != 4 {
		t.Errorf("remaining after refund = %d, want 4", cp.SessionsRemaining)
	}
	if cp.Status != models.ClientPackageStatusActive {
		t.Errorf("purchase status after refund = %s, want active", cp.Status)
	}
}

func TestPaymentListScopedAndOrdered(t *testing.T) {
	db := newTestDB(t)
	svc := NewPaymentService(db, nil)
	client := seedClient(t, db)
	ctx := context.Background()

	older := time.Now().Add(-48 * time.Hour)
	for i, date := range []time.Time{older, time.Now()} {
		_, err := svc.Record(ctx, testTrainer, RecordPaymentInput{
			ClientID:    client.ID,
			Amount:      float64(100 * (i + 1)),
			Method:      models.PaymentMethodCash,
			PaymentDate: date,
		})
		if err != nil {
			t.Fatalf("record %d failed: %v", i, err)
		}
	}

	payments, err := svc.List(ctx, testTrainer, client.ID)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(payments) != 2 {
		t.Fatalf("got %d payments, want 2", len(payments))
	}
	if !payments[0].PaymentDate.After(payments[1].PaymentDate) {
		t.Error("payments should be ordered newest first")
	}

	foreign, err := svc.List(ctx, "some-other-trainer", 0)
	if err != nil {
		t.Fatalf("foreign list failed: %v", err)
	}
	if len(foreign) != 0 {
		t.Error("another trainer must not see these payments")
	}
}
