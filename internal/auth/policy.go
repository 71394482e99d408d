package auth

import (
	"slices"

	"github.com/BuzzLyutic/task-workflow/internal/model"
	"github.com/BuzzLyutic/task-workflow/internal/workflow"
)

var _ workflow.Capabilities = RolePolicy{}

// RolePolicy grants the elevated capability to actors holding any of the
// configured roles.
type RolePolicy struct {
	elevated []string
}

func NewRolePolicy(elevatedRoles []string) RolePolicy {
	return RolePolicy{elevated: normalizeRoles(elevatedRoles)}
}

func (p RolePolicy) Allows(actor model.Actor, capability model.Capability) bool {
	if !actor.Known() {
		return false
	}
	switch capability {
	case model.CapabilityElevated:
		for _, role := range normalizeRoles(actor.Roles) {
			if slices.Contains(p.elevated, role) {
				return true
			}
		}
	}
	return false
}
