// Package workflow implements the saisie validation state machine and the
// role authorization policy that gates its transitions. It is pure logic:
// no persistence, no transport.
package workflow

import (
	"github.com/esg-reporting-api/internal/models"
)

// actionableStatuses is the role × status authorization table. A role may
// perform validate/reject on a saisie only while its status is listed here.
// Unknown roles have no entry and therefore no standing.
var actionableStatuses = map[models.Role][]models.SaisieStatus{
	models.RoleAdmin:     {models.StatusPending, models.StatusPartiallyValidated},
	models.RoleSuperuser: {models.StatusPending, models.StatusPartiallyValidated},
	models.RoleUser:      {models.StatusPending},
	models.RoleAgent:     {},
}

// CanAct reports whether a role has standing to validate or reject a saisie
// in the given status. The API layer uses it to pre-filter available actions
// so disabled controls and server rejections stay consistent.
func CanAct(role models.Role, status models.SaisieStatus) bool {
	for _, s := range actionableStatuses[role] {
		if s == status {
			return true
		}
	}
	return false
}
