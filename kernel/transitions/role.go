package transitions

import (
	"fmt"

	"github.com/fthyco/simorg/domain/org"
	"github.com/fthyco/simorg/pkg/kernelerrors"
)

// AddRole validates id format and uniqueness, substitutes a default
// responsibility when none are given (documented behavior, applied before
// validation — spec §4.3), and activates the role.
func AddRole(state org.OrgState, p AddRolePayload) (org.OrgState, org.TransitionResult, *kernelerrors.KernelError) {
	if !org.ValidRoleID(p.ID) {
		return state, org.TransitionResult{}, kernelerrors.New(kernelerrors.BadRoleID, "payload.id", "role id must be lowercase alphanumeric plus underscore")
	}
	if state.Roles.Has(p.ID) {
		return state, org.TransitionResult{}, kernelerrors.New(kernelerrors.BadRoleID, "payload.id", "already_exists")
	}

	responsibilities := p.Responsibilities
	if len(responsibilities) == 0 {
		responsibilities = []string{fmt.Sprintf("%s_default", p.ID)}
	}

	next := state.Clone()
	next.Roles.Put(org.Role{
		ID:               p.ID,
		Name:             p.Name,
		Purpose:          p.Purpose,
		Responsibilities: responsibilities,
		Active:           true,
		ScaleStage:       org.StageSeed,
	})

	result := org.TransitionResult{
		EventType: "add_role",
		Reason:    "role added",
	}
	return next, result, nil
}

// RemoveRole deletes the role and cascades: every dependency touching it is
// removed in the same atomic transition (spec §4.3, §3 Relationships).
func RemoveRole(state org.OrgState, p RemoveRolePayload) (org.OrgState, org.TransitionResult, *kernelerrors.KernelError) {
	if !state.Roles.Has(p.RoleID) {
		return state, org.TransitionResult{}, kernelerrors.New(kernelerrors.UnknownRole, "payload.role_id", "role does not exist")
	}

	next := state.Clone()
	next.Roles.Delete(p.RoleID)

	kept := next.Dependencies[:0:0]
	for _, d := range next.Dependencies {
		if d.FromRoleID == p.RoleID || d.ToRoleID == p.RoleID {
			continue
		}
		kept = append(kept, d)
	}
	next.Dependencies = kept

	result := org.TransitionResult{
		EventType:   "remove_role",
		Deactivated: []string{p.RoleID},
		Reason:      "role removed with cascading dependency cleanup",
	}
	return next, result, nil
}
