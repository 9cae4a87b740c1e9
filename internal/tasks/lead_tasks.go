package tasks

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"gorm.io/gorm"

	"coachdesk_app_echo/internal/models"
	"coachdesk_app_echo/internal/services"
)

// LeadFollowUpTaskDef encapsulates the follow-up reminder digest. Each
// run emails every trainer a list of their leads whose follow-up date
// has arrived.
type LeadFollowUpTaskDef struct{}

// TaskID returns the unique identifier for this task
func (t *LeadFollowUpTaskDef) TaskID() string {
	return "lead_followup_reminder"
}

// CreateTask builds the recurring reminder record
func (t *LeadFollowUpTaskDef) CreateTask(due time.Time, recurringInterval string) (*models.ScheduledTask, error) {
	return BuildScheduledTask(t.TaskID(), map[string]interface{}{}, due, &recurringInterval, models.ScheduledTaskTypeRecurring, 3)
}

// HandleExecution sends the digests. A trainer without a profile email
// is skipped, not failed, so one unconfigured account cannot wedge the
// whole run.
func (t *LeadFollowUpTaskDef) HandleExecution(ctx context.Context, db *gorm.DB, task models.ScheduledTask) (map[string]interface{}, error) {
	emailService := services.NewEmailService()
	if !emailService.Configured() {
		log.Printf("[Task: lead_followup_reminder] SMTP not configured, skipping run")
		return map[string]interface{}{"status": "skipped", "reason": "smtp not configured"}, nil
	}

	var leads []models.Lead
	err := db.WithContext(ctx).
		Where("follow_up_date IS NOT NULL AND follow_up_date <= ?", time.Now()).
		Where("status NOT IN ?", []models.LeadStatus{models.LeadStatusConverted, models.LeadStatusLost}).
		Order("trainer_id, follow_up_date").
		Find(&leads).Error
	if err != nil {
		return nil, err
	}

	byTrainer := make(map[string][]models.Lead)
	for _, lead := range leads {
		byTrainer[lead.TrainerID] = append(byTrainer[lead.TrainerID], lead)
	}

	sent := 0
	skipped := 0
	var failures []string
	for trainerUID, due := range byTrainer {
		var profile models.TrainerProfile
		err := db.WithContext(ctx).Where("trainer_uid = ?", trainerUID).First(&profile).Error
		if err != nil || profile.Email == "" {
			log.Printf("[Task: lead_followup_reminder] No email on file for trainer %s, skipping", trainerUID)
			skipped++
			continue
		}

		var b strings.Builder
		fmt.Fprintf(&b, "You have %d lead(s) due for follow-up:\n\n", len(due))
		for _, lead := range due {
			fmt.Fprintf(&b, "- %s %s", lead.FirstName, lead.LastName)
			if lead.Phone != "" {
				fmt.Fprintf(&b, " (%s)", lead.Phone)
			}
			if lead.FollowUpDate != nil {
				fmt.Fprintf(&b, " — due %s", lead.FollowUpDate.Format("Jan 2"))
			}
			b.WriteString("\n")
		}

		subject := fmt.Sprintf("%d leads need a follow-up", len(due))
		if err := emailService.SendEmail([]string{profile.Email}, subject, b.String()); err != nil {
			log.Printf("[Task: lead_followup_reminder] Failed to email trainer %s: %v", trainerUID, err)
			failures = append(failures, trainerUID)
			continue
		}
		sent++
	}

	result := map[string]interface{}{
		"status":  "success",
		"leads":   len(leads),
		"sent":    sent,
		"skipped": skipped,
	}
	if len(failures) > 0 {
		result["failed_trainers"] = failures
		return result, fmt.Errorf("failed to deliver %d digest(s)", len(failures))
	}
	return result, nil
}

// LeadFollowUpTask is the singleton instance of LeadFollowUpTaskDef
var LeadFollowUpTask = &LeadFollowUpTaskDef{}
