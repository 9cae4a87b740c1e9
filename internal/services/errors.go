package services

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// Sentinel errors returned by the service layer. Handlers map these to
// HTTP status codes; services never format user-facing messages.
var (
	ErrNotFound         = errors.New("requested record not found")
	ErrConflict         = errors.New("lost a concurrent update, re-read and retry")
	ErrTimeout          = errors.New("operation timed out")
	ErrStoreUnavailable = errors.New("store unavailable")

	// Payment rules
	ErrInvalidAmount = errors.New("payment amount must be greater than zero")
	ErrInvalidStatus = errors.New("unknown status value")

	// Credit rules. Violations are surfaced verbatim, never clamped.
	ErrInsufficientCredits        = errors.New("adjustment would drop sessions remaining below zero")
	ErrOverCap                    = errors.New("adjustment would exceed sessions total")
	ErrNoCreditsRemaining         = errors.New("package has no remaining sessions")
	ErrDuplicateActiveEntitlement = errors.New("client already has an active purchase of this package")
	ErrPackageNotUsable           = errors.New("client package is not active")
	ErrPackageExpired             = errors.New("client package has expired")
	ErrPackageInactive            = errors.New("package is deactivated and cannot be assigned")

	// Lifecycle rules
	ErrInvalidTransition    = errors.New("status transition not permitted from current state")
	ErrLeadAlreadyConverted = errors.New("lead has already been converted")
	ErrCheckoutAlreadyPaid  = errors.New("checkout has already been paid")
)

// ValidationError reports a bad input field. Callers fix and resubmit,
// these are never retried automatically.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Message)
}

// mapStoreError translates store and context failures into the service
// error taxonomy. Business-rule sentinels pass through untouched.
func mapStoreError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, context.DeadlineExceeded):
		return ErrTimeout
	case errors.Is(err, context.Canceled):
		return err
	case isServiceError(err):
		return err
	default:
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
}

func isServiceError(err error) bool {
	for _, sentinel := range []error{
		ErrNotFound, ErrConflict, ErrTimeout,
		ErrInvalidAmount, ErrInvalidStatus,
		ErrInsufficientCredits, ErrOverCap, ErrNoCreditsRemaining,
		ErrDuplicateActiveEntitlement, ErrPackageNotUsable, ErrPackageExpired,
		ErrPackageInactive, ErrInvalidTransition, ErrLeadAlreadyConverted,
		ErrCheckoutAlreadyPaid,
	} {
		if errors.Is(err, sentinel) {
			return true
		}
	}
	var ve *ValidationError
	return errors.As(err, &ve)
}
