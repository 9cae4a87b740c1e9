package models

import (
	"time"

	"gorm.io/gorm"
)

// SessionStatus represents the status of a training session
type SessionStatus string

const (
	SessionStatusScheduled SessionStatus = "scheduled"
	SessionStatusCompleted SessionStatus = "completed"
	SessionStatusCancelled SessionStatus = "cancelled"
)

// sessionTransitions lists the allowed status moves. Completed and
// cancelled sessions can only go back to scheduled (revert/reschedule).
var sessionTransitions = map[SessionStatus][]SessionStatus{
	SessionStatusScheduled: {SessionStatusCompleted, SessionStatusCancelled},
	SessionStatusCompleted: {SessionStatusScheduled},
	SessionStatusCancelled: {SessionStatusScheduled},
}

// ValidSessionStatus reports whether s is a known status value
func ValidSessionStatus(s SessionStatus) bool {
	switch s {
	case SessionStatusScheduled, SessionStatusCompleted, SessionStatusCancelled:
		return true
	}
	return false
}

// CanTransition reports whether a session may move from one status to another
func CanTransition(from, to SessionStatus) bool {
	for _, allowed := range sessionTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// Session is a single training appointment, optionally drawing on a
// client package. A credit is consumed when the session enters
// completed and restored when it leaves completed; both writes happen
// in the same transaction as the status change.
type Session struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	TrainerID       string        `gorm:"type:varchar(128);index" json:"trainer_id"`
	ClientID        uint          `gorm:"index" json:"client_id"`
	ClientPackageID *uint         `gorm:"index" json:"client_package_id,omitempty"`
	ScheduledAt     time.Time     `gorm:"index" json:"scheduled_at"`
	DurationMinutes int           `json:"duration_minutes"`
	Status          SessionStatus `gorm:"type:varchar(20);default:'scheduled'" json:"status"`
	WorkoutPlan     string        `gorm:"type:text" json:"workout_plan"`
	Notes           string        `gorm:"type:text" json:"notes"`

	// Optimistic concurrency token, compared on every conditional update
	Version uint `gorm:"default:1" json:"version"`

	// Relationships
	Client        Client         `gorm:"foreignKey:ClientID" json:"client,omitempty"`
	ClientPackage *ClientPackage `gorm:"foreignKey:ClientPackageID" json:"client_package,omitempty"`
}
