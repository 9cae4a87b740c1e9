package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"coachdesk_app_echo/internal/models"
)

// SessionService runs the session status state machine. Every
// transition that crosses the completed boundary adjusts the linked
// package's credits in the same transaction as the status write, so a
// failed credit adjustment leaves the status untouched.
type SessionService struct {
	db *gorm.DB
}

func NewSessionService(db *gorm.DB) *SessionService {
	return &SessionService{db: db}
}

// CreateSessionInput carries the fields for scheduling a new session
type CreateSessionInput struct {
	ClientID        uint      `json:"client_id"`
	ClientPackageID *uint     `json:"client_package_id,omitempty"`
	ScheduledAt     time.Time `json:"scheduled_at"`
	DurationMinutes int       `json:"duration_minutes"`
	WorkoutPlan     string    `json:"workout_plan"`
	Notes           string    `json:"notes"`
}

// Create schedules a session. Linking a client package requires it to
// be active with credits left, but no credit is consumed until the
// session is completed.
func (s *SessionService) Create(ctx context.Context, trainerID string, input CreateSessionInput) (*models.Session, error) {
	if input.ClientID == 0 {
		return nil, &ValidationError{Field: "client_id", Message: "required"}
	}
	if input.ScheduledAt.IsZero() {
		return nil, &ValidationError{Field: "scheduled_at", Message: "required"}
	}
	if input.DurationMinutes <= 0 {
		return nil, &ValidationError{Field: "duration_minutes", Message: "must be positive"}
	}

	var created models.Session
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var client models.Client
		if err := tx.Where("trainer_id = ?", trainerID).First(&client, input.ClientID).Error; err != nil {
			return mapStoreError(err)
		}

		if input.ClientPackageID != nil {
			var cp models.ClientPackage
			if err := tx.Where("trainer_id = ?", trainerID).First(&cp, *input.ClientPackageID).Error; err != nil {
				return mapStoreError(err)
			}
			if cp.ClientID != input.ClientID {
				return &ValidationError{Field: "client_package_id", Message: "package belongs to a different client"}
			}
			if cp.Status != models.ClientPackageStatusActive {
				return ErrPackageNotUsable
			}
			if cp.IsExhausted() {
				return ErrNoCreditsRemaining
			}
			if cp.IsExpired(time.Now()) {
				return ErrPackageExpired
			}
		}

		created = models.Session{
			TrainerID:       trainerID,
			ClientID:        input.ClientID,
			ClientPackageID: input.ClientPackageID,
			ScheduledAt:     input.ScheduledAt,
			DurationMinutes: input.DurationMinutes,
			Status:          models.SessionStatusScheduled,
			WorkoutPlan:     input.WorkoutPlan,
			Notes:           input.Notes,
			Version:         1,
		}
		return mapStoreError(tx.Create(&created).Error)
	})
	if err != nil {
		return nil, mapStoreError(err)
	}
	return &created, nil
}

// Transition moves a session to a new status. Entering completed
// consumes one credit of the linked package; leaving completed restores
// it. Status write and credit adjustment commit or roll back together.
func (s *SessionService) Transition(ctx context.Context, trainerID string, sessionID uint, newStatus models.SessionStatus) (*models.Session, error) {
	if !models.ValidSessionStatus(newStatus) {
		return nil, ErrInvalidStatus
	}

	var sess models.Session
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("trainer_id = ?", trainerID).First(&sess, sessionID).Error; err != nil {
			return mapStoreError(err)
		}
		return s.applyTransition(tx, &sess, newStatus)
	})
	if err != nil {
		return nil, mapStoreError(err)
	}
	return &sess, nil
}

// applyTransition performs the status CAS and credit adjustment against
// the session state the caller loaded. A concurrent writer that bumped
// the version in between makes the CAS miss and the whole transaction
// fails with ErrConflict.
func (s *SessionService) applyTransition(tx *gorm.DB, sess *models.Session, newStatus models.SessionStatus) error {
	if !models.CanTransition(sess.Status, newStatus) {
		return ErrInvalidTransition
	}

	enteringCompleted := newStatus == models.SessionStatusCompleted && sess.Status != models.SessionStatusCompleted
	leavingCompleted := sess.Status == models.SessionStatusCompleted && newStatus != models.SessionStatusCompleted

	res := tx.Model(&models.Session{}).
		Where("id = ? AND version = ?", sess.ID, sess.Version).
		Updates(map[string]interface{}{
			"status":  newStatus,
			"version": sess.Version + 1,
		})
	if res.Error != nil {
		return mapStoreError(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrConflict
	}

	if sess.ClientPackageID != nil && (enteringCompleted || leavingCompleted) {
		var cp models.ClientPackage
		if err := tx.First(&cp, *sess.ClientPackageID).Error; err != nil {
			return mapStoreError(err)
		}

		if enteringCompleted {
			if cp.Status != models.ClientPackageStatusActive {
				return ErrPackageNotUsable
			}
			// Time guard for the window between the expiry date passing
			// and the next sweep flipping the status
			if cp.IsExpired(time.Now()) {
				return ErrPackageExpired
			}
			if cp.IsExhausted() {
				return ErrNoCreditsRemaining
			}
			// Token embeds the session version the caller acted on, so a
			// double-submit replays as a no-op while a later re-complete
			// (after a revert bumped the version) adjusts again.
			token := fmt.Sprintf("session-%d-complete-v%d", sess.ID, sess.Version)
			if err := adjustCredits(tx, &cp, -1, token); err != nil {
				if errors.Is(err, ErrInsufficientCredits) {
					return ErrNoCreditsRemaining
				}
				return err
			}
		} else {
			token := fmt.Sprintf("session-%d-revert-v%d", sess.ID, sess.Version)
			if err := adjustCredits(tx, &cp, +1, token); err != nil {
				return err
			}
		}
	}

	sess.Status = newStatus
	sess.Version++
	return nil
}

// UpdateSessionInput carries the reschedulable fields of a session
type UpdateSessionInput struct {
	ScheduledAt     *time.Time `json:"scheduled_at,omitempty"`
	DurationMinutes *int       `json:"duration_minutes,omitempty"`
	WorkoutPlan     *string    `json:"workout_plan,omitempty"`
	Notes           *string    `json:"notes,omitempty"`
}

// Update edits schedule details without touching status or credits
func (s *SessionService) Update(ctx context.Context, trainerID string, sessionID uint, input UpdateSessionInput) (*models.Session, error) {
	var sess models.Session
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("trainer_id = ?", trainerID).First(&sess, sessionID).Error; err != nil {
			return mapStoreError(err)
		}

		updates := map[string]interface{}{"version": sess.Version + 1}
		if input.ScheduledAt != nil {
			updates["scheduled_at"] = *input.ScheduledAt
			sess.ScheduledAt = *input.ScheduledAt
		}
		if input.DurationMinutes != nil {
			if *input.DurationMinutes <= 0 {
				return &ValidationError{Field: "duration_minutes", Message: "must be positive"}
			}
			updates["duration_minutes"] = *input.DurationMinutes
			sess.DurationMinutes = *input.DurationMinutes
		}
		if input.WorkoutPlan != nil {
			updates["workout_plan"] = *input.WorkoutPlan
			sess.WorkoutPlan = *input.WorkoutPlan
		}
		if input.Notes != nil {
			updates["notes"] = *input.Notes
			sess.Notes = *input.Notes
		}

		res := tx.Model(&models.Session{}).
			Where("id = ? AND version = ?", sess.ID, sess.Version).
			Updates(updates)
		if res.Error != nil {
			return mapStoreError(res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrConflict
		}
		sess.Version++
		return nil
	})
	if err != nil {
		return nil, mapStoreError(err)
	}
	return &sess, nil
}

// Delete removes a session. A completed session with a linked package
// gets its credit restored in the same transaction as the removal.
func (s *SessionService) Delete(ctx context.Context, trainerID string, sessionID uint) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var sess models.Session
		if err := tx.Where("trainer_id = ?", trainerID).First(&sess, sessionID).Error; err != nil {
			return mapStoreError(err)
		}

		if sess.Status == models.SessionStatusCompleted && sess.ClientPackageID != nil {
			var cp models.ClientPackage
			if err := tx.First(&cp, *sess.ClientPackageID).Error; err != nil {
				return mapStoreError(err)
			}
			token := fmt.Sprintf("session-%d-delete-v%d", sess.ID, sess.Version)
			if err := adjustCredits(tx, &cp, +1, token); err != nil {
				return err
			}
		}

		res := tx.Where("id = ? AND version = ?", sess.ID, sess.Version).
			Delete(&models.Session{})
		if res.Error != nil {
			return mapStoreError(res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrConflict
		}
		return nil
	})
	return mapStoreError(err)
}

// ListFilter narrows the session listing
type ListFilter struct {
	ClientID uint
	Status   models.SessionStatus
	From     time.Time
	To       time.Time
}

// List returns sessions for the trainer, soonest first. Lock-free read.
func (s *SessionService) List(ctx context.Context, trainerID string, filter ListFilter) ([]models.Session, error) {
	query := s.db.WithContext(ctx).
		Preload("Client").
		Preload("ClientPackage").
		Where("trainer_id = ?", trainerID)

	if filter.ClientID > 0 {
		query = query.Where("client_id = ?", filter.ClientID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if !filter.From.IsZero() {
		query = query.Where("scheduled_at >= ?", filter.From)
	}
	if !filter.To.IsZero() {
		query = query.Where("scheduled_at < ?", filter.To)
	}

	var sessions []models.Session
	if err := query.Order("scheduled_at asc").Find(&sessions).Error; err != nil {
		return nil, mapStoreError(err)
	}
	return sessions, nil
}
