package workflow

import (
	"errors"
	"fmt"
	"time"

	"github.com/esg-reporting-api/internal/models"
)

var (
	// ErrTerminalState is returned for any action on a validated or
	// rejected saisie. A repeated "validate" after the state has already
	// advanced fails here; that is the idempotence guard for retries.
	ErrTerminalState = errors.New("saisie is in a terminal state")

	// ErrNotAuthorized is returned when the acting role lacks standing for
	// the requested action given the current status.
	ErrNotAuthorized = errors.New("role not authorized for this action")
)

// Apply executes one validation action on a copy of the saisie and returns
// the advanced copy. The input is never mutated, so a failed transition
// leaves the caller's view untouched.
//
// Reject is absolute: from pending or partially_validated it moves straight
// to rejected, regardless of the double-validation flag, and stamps no
// validation fields. Validate follows the path length fixed at creation:
// one step when RequireDoubleValidation is false, two steps otherwise.
func Apply(s models.Saisie, actorID string, role models.Role, action models.ValidationAction, now time.Time) (models.Saisie, error) {
	if s.Status.Terminal() {
		return s, fmt.Errorf("cannot %s saisie %s in status %s: %w", action, s.ID, s.Status, ErrTerminalState)
	}
	if !CanAct(role, s.Status) {
		return s, fmt.Errorf("role %s cannot act on saisie in status %s: %w", role, s.Status, ErrNotAuthorized)
	}

	switch action {
	case models.ActionReject:
		s.Status = models.StatusRejected
		return s, nil

	case models.ActionValidate:
		if !s.RequireDoubleValidation {
			s.Status = models.StatusValidated
			s.FinalValidationBy = &actorID
			s.FinalValidationAt = &now
			return s, nil
		}
		switch s.Status {
		case models.StatusPending:
			s.Status = models.StatusPartiallyValidated
			s.FirstValidationBy = &actorID
			s.FirstValidationAt = &now
		case models.StatusPartiallyValidated:
			s.Status = models.StatusValidated
			s.FinalValidationBy = &actorID
			s.FinalValidationAt = &now
		}
		return s, nil

	default:
		return s, fmt.Errorf("unknown validation action %q", action)
	}
}
