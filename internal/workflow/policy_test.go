package workflow_test

import (
	"testing"

	"github.com/esg-reporting-api/internal/models"
	"github.com/esg-reporting-api/internal/workflow"
)

func TestCanAct_AuthorizationTable(t *testing.T) {
	cases := []struct {
		role   models.Role
		status models.SaisieStatus
		want   bool
	}{
		{models.RoleAdmin, models.StatusPending, true},
		{models.RoleAdmin, models.StatusPartiallyValidated, true},
		{models.RoleSuperuser, models.StatusPending, true},
		{models.RoleSuperuser, models.StatusPartiallyValidated, true},
		{models.RoleUser, models.StatusPending, true},
		{models.RoleUser, models.StatusPartiallyValidated, false},
		{models.RoleAgent, models.StatusPending, false},
		{models.RoleAgent, models.StatusPartiallyValidated, false},
		// Terminal states are never actionable, for any role
		{models.RoleAdmin, models.StatusValidated, false},
		{models.RoleAdmin, models.StatusRejected, false},
		{models.RoleSuperuser, models.StatusValidated, false},
		{models.RoleUser, models.StatusRejected, false},
	}

	for _, c := range cases {
		got := workflow.CanAct(c.role, c.status)
		if got != c.want {
			t.Errorf("CanAct(%s, %s) = %v, want %v", c.role, c.status, got, c.want)
		}
	}
}

func TestCanAct_UnknownRole(t *testing.T) {
	if workflow.CanAct(models.Role("manager"), models.StatusPending) {
		t.Error("unknown role should never have standing")
	}
	if workflow.CanAct(models.Role(""), models.StatusPending) {
		t.Error("empty role should never have standing")
	}
}
