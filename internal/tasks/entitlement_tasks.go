package tasks

import (
	"context"
	"log"
	"time"

	"gorm.io/gorm"

	"coachdesk_app_echo/internal/models"
)

// ExpireEntitlementsTaskDef encapsulates the package expiry sweep. It
// runs on a recurrence and flips active client packages whose expiry
// date has passed to expired, so the status column stays authoritative
// for scheduling checks.
type ExpireEntitlementsTaskDef struct{}

// TaskID returns the unique identifier for this task
func (t *ExpireEntitlementsTaskDef) TaskID() string {
	return "entitlement_expiry_sweep"
}

// CreateTask builds the recurring sweep record
func (t *ExpireEntitlementsTaskDef) CreateTask(due time.Time, recurringInterval string) (*models.ScheduledTask, error) {
	return BuildScheduledTask(t.TaskID(), map[string]interface{}{}, due, &recurringInterval, models.ScheduledTaskTypeRecurring, 3)
}

// HandleExecution marks expired packages. The version bump keeps the
// optimistic lock coherent for writers holding a pre-sweep copy.
func (t *ExpireEntitlementsTaskDef) HandleExecution(ctx context.Context, db *gorm.DB, task models.ScheduledTask) (map[string]interface{}, error) {
	now := time.Now()

	res := db.WithContext(ctx).Model(&models.ClientPackage{}).
		Where("status = ? AND expiry_date < ?", models.ClientPackageStatusActive, now).
		Updates(map[string]interface{}{
			"status":  models.ClientPackageStatusExpired,
			"version": gorm.Expr("version + 1"),
		})
	if res.Error != nil {
		return nil, res.Error
	}

	if res.RowsAffected > 0 {
		log.Printf("[Task: entitlement_expiry_sweep] Expired %d client packages", res.RowsAffected)
	}

	return map[string]interface{}{
		"status":  "success",
		"expired": res.RowsAffected,
	}, nil
}

// ExpireEntitlementsTask is the singleton instance of ExpireEntitlementsTaskDef
var ExpireEntitlementsTask = &ExpireEntitlementsTaskDef{}
