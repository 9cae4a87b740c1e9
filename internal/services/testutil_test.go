package services

import (
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"coachdesk_app_echo/internal/models"
)

const testTrainer = "trainer-test-uid"

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	if err := AutoMigrate(db); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}
	return db
}

func seedClient(t *testing.T, db *gorm.DB) models.Client {
	t.Helper()

	client := models.Client{
		TrainerID: testTrainer,
		FirstName: "Alex",
		LastName:  "Rivera",
		Email:     "alex@example.com",
		Status:    models.ClientStatusActive,
	}
	if err := db.Create(&client).Error; err != nil {
		t.Fatalf("failed to seed client: %v", err)
	}
	return client
}

func seedPackage(t *testing.T, db *gorm.DB, sessionCount, durationDays int) models.Package {
	t.Helper()

	pkg := models.Package{
		TrainerID:    testTrainer,
		Name:         "10 Session Pack",
		Price:        500,
		SessionCount: sessionCount,
		DurationDays: durationDays,
		IsActive:     true,
	}
	if err := db.Create(&pkg).Error; err != nil {
		t.Fatalf("failed to seed package: %v", err)
	}
	return pkg
}

func seedEntitlement(t *testing.T, db *gorm.DB, clientID uint, pkg models.Package) models.ClientPackage {
	t.Helper()

	now := time.Now()
	cp := models.ClientPackage{
		TrainerID:         testTrainer,
		ClientID:          clientID,
		PackageID:         pkg.ID,
		SessionsRemaining: pkg.SessionCount,
		SessionsTotal:     pkg.SessionCount,
		PurchaseDate:      now,
		ExpiryDate:        now.AddDate(0, 0, pkg.DurationDays),
		AmountPaid:        pkg.Price,
		Status:            models.ClientPackageStatusActive,
		Version:           1,
	}
	if err := db.Create(&cp).Error; err != nil {
		t.Fatalf("failed to seed client package: %v", err)
	}
	return cp
}

func seedSession(t *testing.T, db *gorm.DB, clientID uint, clientPackageID *uint) models.Session {
	t.Helper()

	session := models.Session{
		TrainerID:       testTrainer,
		ClientID:        clientID,
		ClientPackageID: clientPackageID,
		ScheduledAt:     time.Now().Add(24 * time.Hour),
		DurationMinutes: 60,
		Status:          models.SessionStatusScheduled,
		Version:         1,
	}
	if err := db.Create(&session).Error; err != nil {
		t.Fatalf("failed to seed session: %v", err)
	}
	return session
}

func seedLead(t *testing.T, db *gorm.DB, status models.LeadStatus) models.Lead {
	t.Helper()

	lead := models.Lead{
		TrainerID: testTrainer,
		FirstName: "Jordan",
		LastName:  "Lee",
		Email:     "jordan@example.com",
		Phone:     "555-0101",
		Source:    models.LeadSourceReferral,
		Status:    status,
		Notes:     "met at the gym open day",
	}
	if err := db.Create(&lead).Error; err != nil {
		t.Fatalf("failed to seed lead: %v", err)
	}
	return lead
}

func reloadEntitlement(t *testing.T, db *gorm.DB, id uint) models.ClientPackage {
	t.Helper()

	var cp models.ClientPackage
	if err := db.First(&cp, id).Error; err != nil {
		t.Fatalf("failed to reload client package: %v", err)
	}
	return cp
}
