package workflow_test

import (
	"errors"
	"testing"
	"time"

	"github.com/esg-reporting-api/internal/models"
	"github.com/esg-reporting-api/internal/workflow"
)

func newSaisie(double bool) models.Saisie {
	return models.Saisie{
		ID:                      "saisie-1",
		SiteID:                  "site-1",
		Month:                   3,
		Year:                    2024,
		Status:                  models.StatusPending,
		RequireDoubleValidation: double,
	}
}

func TestApply_SingleValidationPath(t *testing.T) {
	now := time.Now()
	s := newSaisie(false)

	validated, err := workflow.Apply(s, "validator-1", models.RoleUser, models.ActionValidate, now)
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if validated.Status != models.StatusValidated {
		t.Errorf("Expected status validated, got %s", validated.Status)
	}
	if validated.FinalValidationBy == nil || *validated.FinalValidationBy != "validator-1" {
		t.Error("FinalValidationBy should be stamped with the acting user")
	}
	if validated.FinalValidationAt == nil || !validated.FinalValidationAt.Equal(now) {
		t.Error("FinalValidationAt should be stamped")
	}
	if validated.FirstValidationBy != nil {
		t.Error("Single validation must not stamp the first-validation fields")
	}

	// Second validate on the advanced state fails with TerminalState
	_, err = workflow.Apply(validated, "validator-1", models.RoleUser, models.ActionValidate, now)
	if !errors.Is(err, workflow.ErrTerminalState) {
		t.Errorf("Expected ErrTerminalState, got %v", err)
	}
}

func TestApply_DoubleValidationPath(t *testing.T) {
	now := time.Now()
	s := newSaisie(true)

	// First step: superuser validates pending -> partially_validated
	partial, err := workflow.Apply(s, "super-1", models.RoleSuperuser, models.ActionValidate, now)
	if err != nil {
		t.Fatalf("First validation failed: %v", err)
	}
	if partial.Status != models.StatusPartiallyValidated {
		t.Errorf("Expected partially_validated, got %s", partial.Status)
	}
	if partial.FirstValidationBy == nil || *partial.FirstValidationBy != "super-1" {
		t.Error("FirstValidationBy should be stamped")
	}
	if partial.FinalValidationBy != nil {
		t.Error("First step must not stamp final-validation fields")
	}

	// Second step: admin validates partially_validated -> validated
	later := now.Add(time.Hour)
	final, err := workflow.Apply(partial, "admin-1", models.RoleAdmin, models.ActionValidate, later)
	if err != nil {
		t.Fatalf("Final validation failed: %v", err)
	}
	if final.Status != models.StatusValidated {
		t.Errorf("Expected validated, got %s", final.Status)
	}
	if final.FinalValidationBy == nil || *final.FinalValidationBy != "admin-1" {
		t.Error("FinalValidationBy should be stamped")
	}
	if final.FirstValidationBy == nil || *final.FirstValidationBy != "super-1" {
		t.Error("First-validation stamp must be preserved through the final step")
	}
}

func TestApply_UserCannotPerformSecondStep(t *testing.T) {
	now := time.Now()
	s := newSaisie(true)
	s.Status = models.StatusPartiallyValidated

	_, err := workflow.Apply(s, "user-1", models.RoleUser, models.ActionValidate, now)
	if !errors.Is(err, workflow.ErrNotAuthorized) {
		t.Errorf("Expected ErrNotAuthorized, got %v", err)
	}
}

func TestApply_AgentNeverAuthorized(t *testing.T) {
	now := time.Now()
	s := newSaisie(false)

	_, err := workflow.Apply(s, "agent-1", models.RoleAgent, models.ActionValidate, now)
	if !errors.Is(err, workflow.ErrNotAuthorized) {
		t.Errorf("Expected ErrNotAuthorized, got %v", err)
	}
	if s.Status != models.StatusPending {
		t.Errorf("Saisie must be unchanged after a denied action, got %s", s.Status)
	}
}

func TestApply_RejectIsAbsolute(t *testing.T) {
	now := time.Now()

	// From pending, double validation required: straight to rejected
	s := newSaisie(true)
	rejected, err := workflow.Apply(s, "admin-1", models.RoleAdmin, models.ActionReject, now)
	if err != nil {
		t.Fatalf("Reject failed: %v", err)
	}
	if rejected.Status != models.StatusRejected {
		t.Errorf("Expected rejected, got %s", rejected.Status)
	}
	if rejected.FirstValidationBy != nil || rejected.FinalValidationBy != nil {
		t.Error("Reject must not stamp validation fields")
	}

	// From partially_validated: rejected directly, not back to pending
	s = newSaisie(true)
	s.Status = models.StatusPartiallyValidated
	rejected, err = workflow.Apply(s, "user-1", models.RoleSuperuser, models.ActionReject, now)
	if err != nil {
		t.Fatalf("Reject from partially_validated failed: %v", err)
	}
	if rejected.Status != models.StatusRejected {
		t.Errorf("Expected rejected, got %s", rejected.Status)
	}
}

func TestApply_TerminalStatesAreFinal(t *testing.T) {
	now := time.Now()
	for _, status := range []models.SaisieStatus{models.StatusValidated, models.StatusRejected} {
		for _, action := range []models.ValidationAction{models.ActionValidate, models.ActionReject} {
			s := newSaisie(false)
			s.Status = status
			out, err := workflow.Apply(s, "admin-1", models.RoleAdmin, action, now)
			if !errors.Is(err, workflow.ErrTerminalState) {
				t.Errorf("Apply(%s, %s): expected ErrTerminalState, got %v", status, action, err)
			}
			if out.Status != status {
				t.Errorf("Apply(%s, %s): status changed to %s", status, action, out.Status)
			}
		}
	}
}

func TestApply_DoubleValidationRequiresExactlyTwoSteps(t *testing.T) {
	now := time.Now()
	s := newSaisie(true)

	first, err := workflow.Apply(s, "v1", models.RoleSuperuser, models.ActionValidate, now)
	if err != nil {
		t.Fatalf("step 1: %v", err)
	}
	if first.Status == models.StatusValidated {
		t.Fatal("one validate must not finalize a double-validation saisie")
	}

	second, err := workflow.Apply(first, "v2", models.RoleSuperuser, models.ActionValidate, now)
	if err != nil {
		t.Fatalf("step 2: %v", err)
	}
	if second.Status != models.StatusValidated {
		t.Errorf("two validates should finalize, got %s", second.Status)
	}

	_, err = workflow.Apply(second, "v3", models.RoleSuperuser, models.ActionValidate, now)
	if !errors.Is(err, workflow.ErrTerminalState) {
		t.Errorf("third validate should fail terminal, got %v", err)
	}
}

func TestApply_UnknownAction(t *testing.T) {
	_, err := workflow.Apply(newSaisie(false), "u1", models.RoleAdmin, models.ValidationAction("approve"), time.Now())
	if err == nil {
		t.Error("unknown action should fail")
	}
}
