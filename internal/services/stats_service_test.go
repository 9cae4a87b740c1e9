package services

import (
	"context"
	"testing"
	"time"

	"coachdesk_app_echo/internal/models"
)

func TestDashboardStatsWithoutCache(t *testing.T) {
	db := newTestDB(t)
	svc := NewStatsService(db, nil)
	client := seedClient(t, db)
	ctx := context.Background()

	// Two leads, one converted, one still open
	seedLead(t, db, models.LeadStatusActive)
	seedLead(t, db, models.LeadStatusConverted)

	// One session this week, pinned to now so the test holds on any weekday
	thisWeek := models.Session{
		TrainerID:       testTrainer,
		ClientID:        client.ID,
		ScheduledAt:     time.Now(),
		DurationMinutes: 60,
		Status:          models.SessionStatusScheduled,
		Version:         1,
	}
	if err := db.Create(&thisWeek).Error; err != nil {
		t.Fatal(err)
	}

	// Revenue: one completed payment this month, one refunded
	payments := NewPaymentService(db, nil)
	if _, err := payments.Record(ctx, testTrainer, RecordPaymentInput{
		ClientID: client.ID,
		Amount:   300,
		Method:   models.PaymentMethodCash,
	}); err != nil {
		t.Fatal(err)
	}
	refunded, err := payments.Record(ctx, testTrainer, RecordPaymentInput{
		ClientID: client.ID,
		Amount:   100,
		Method:   models.PaymentMethodCard,
	})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := payments.UpdateStatus(ctx, testTrainer, refunded.ID, models.PaymentStatusRefunded); err != nil {
		t.Fatal(err)
	}

	stats, err := svc.Dashboard(ctx, testTrainer)
	if err != nil {
		t.Fatalf("dashboard failed: %v", err)
	}

	if stats.ActiveClients != 1 {
		t.Errorf("active clients = %d, want 1", stats.ActiveClients)
	}
	if stats.SessionsThisWeek != 1 {
		t.Errorf("sessions this week = %d, want 1", stats.SessionsThisWeek)
	}
	if stats.RevenueThisMonth != 300 {
		t.Errorf("revenue = %v, want 300 (refunded excluded)", stats.RevenueThisMonth)
	}
	if stats.OpenLeads != 1 {
		t.Errorf("open leads = %d, want 1", stats.OpenLeads)
	}
	if stats.LeadConversionRate != 0.5 {
		t.Errorf("conversion rate = %v, want 0.5", stats.LeadConversionRate)
	}
}

func TestDashboardStatsEmpty(t *testing.T) {
	db := newTestDB(t)
	svc := NewStatsService(db, nil)

	stats, err := svc.Dashboard(context.Background(), testTrainer)
	if err != nil {
		t.Fatalf("dashboard failed: %v", err)
	}
	if stats != (DashboardStats{}) {
		t.Errorf("stats for empty trainer = %+v, want zero values", stats)
	}

	// Zero leads must not divide by zero
	if stats.LeadConversionRate != 0 {
		t.Errorf("conversion rate = %v, want 0", stats.LeadConversionRate)
	}
}

func TestDashboardStatsWeekWindow(t *testing.T) {
	db := newTestDB(t)
	svc := NewStatsService(db, nil)
	client := seedClient(t, db)

	// A session far outside this week is not counted
	old := models.Session{
		TrainerID:       testTrainer,
		ClientID:        client.ID,
		ScheduledAt:     time.Now().AddDate(0, 0, -30),
		DurationMinutes: 60,
		Status:          models.SessionStatusCompleted,
		Version:         1,
	}
	if err := db.Create(&old).Error; err != nil {
		t.Fatal(err)
	}

	stats, err := svc.Dashboard(context.Background(), testTrainer)
	if err != nil {
		t.Fatalf("dashboard failed: %v", err)
	}
	if stats.SessionsThisWeek != 0 {
		t.Errorf("sessions this week = %d, want 0", stats.SessionsThisWeek)
	}
}
