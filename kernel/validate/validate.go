// Package validate is the pure invariant checker run after every transition
// (spec §4.2). A failure here is fatal for that event: the engine discards
// the candidate state and never touches the log.
package validate

import (
	"sort"

	"github.com/fthyco/simorg/domain/org"
	"github.com/fthyco/simorg/pkg/fixedpoint"
	"github.com/fthyco/simorg/pkg/kernelerrors"
)

// Validate runs every sub-invariant from spec §3/§4.2 over state, in a fixed
// order so the first violation found is deterministic across hosts.
func Validate(state org.OrgState) *kernelerrors.KernelError {
	if state.Constants == nil {
		return kernelerrors.New(kernelerrors.ConstantsUnset, "constants", "domain constants have not been initialized")
	}

	if err := validateRoles(state); err != nil {
		return err
	}
	if err := validateDependencies(state); err != nil {
		return err
	}
	if err := validateConstraints(state); err != nil {
		return err
	}
	if state.StructuralDebt < 0 {
		return kernelerrors.New(kernelerrors.OutOfRangeFixedPoint, "structural_debt", "structural debt must never be negative")
	}
	return nil
}

func validateRoles(state org.OrgState) *kernelerrors.KernelError {
	produced := make(map[string]bool)
	for _, r := range state.Roles.All() {
		if !r.Active {
			continue
		}
		for _, out := range r.ProducedOutputs {
			produced[out] = true
		}
	}

	for _, id := range state.Roles.CanonicalOrder() {
		r, _ := state.Roles.Get(id)
		if !org.ValidRoleID(r.ID) {
			return kernelerrors.New(kernelerrors.BadRoleID, "roles["+id+"].id", "role id must be lowercase alphanumeric plus underscore")
		}
		if !r.Active {
			continue
		}
		if len(r.Responsibilities) == 0 {
			return kernelerrors.New(kernelerrors.EmptyResponsibilities, "roles["+id+"].responsibilities", "active role must have at least one responsibility")
		}
		if r.Isolated {
			continue
		}
		for _, in := range r.RequiredInputs {
			if !produced[in] {
				return kernelerrors.New(kernelerrors.OrphanedInput, "roles["+id+"].required_inputs", "required input \""+in+"\" is not produced by any active role")
			}
		}
	}
	return nil
}

func validateDependencies(state org.OrgState) *kernelerrors.KernelError {
	for _, d := range state.Dependencies {
		if !state.Roles.Has(d.FromRoleID) {
			return kernelerrors.New(kernelerrors.DanglingDependency, "from_role_id", "dependency references unknown role \""+d.FromRoleID+"\"")
		}
		if !state.Roles.Has(d.ToRoleID) {
			return kernelerrors.New(kernelerrors.DanglingDependency, "to_role_id", "dependency references unknown role \""+d.ToRoleID+"\"")
		}
	}
	if hasCriticalCycle(state) {
		return kernelerrors.New(kernelerrors.CriticalCycle, "dependencies", "critical-edge subgraph contains a cycle")
	}
	return nil
}

// hasCriticalCycle runs a DFS over the critical-edge subgraph only, visiting
// roles in canonical order for deterministic error location (spec §4.3).
func hasCriticalCycle(state org.OrgState) bool {
	adj := make(map[string][]string)
	for _, d := range state.Dependencies {
		if d.Critical {
			adj[d.FromRoleID] = append(adj[d.FromRoleID], d.ToRoleID)
		}
	}
	for _, froms := range adj {
		// keep successor order canonical regardless of insertion order
		sort.Strings(froms)
	}

	const (
		white = 0
		gray  = 1
		black = 2
	)
	color := make(map[string]int)

	var visit func(string) bool
	visit = func(u string) bool {
		color[u] = gray
		for _, v := range adj[u] {
			switch color[v] {
			case gray:
				return true
			case white:
				if visit(v) {
					return true
				}
			}
		}
		color[u] = black
		return false
	}

	for _, id := range state.Roles.CanonicalOrder() {
		if color[id] == white {
			if visit(id) {
				return true
			}
		}
	}
	return false
}

func validateConstraints(state org.OrgState) *kernelerrors.KernelError {
	c := state.Constraints
	for _, v := range []int64{c.Capital, c.Talent, c.Time, c.PoliticalCost} {
		if v < 0 || v > fixedpoint.SaturationCap {
			return kernelerrors.New(kernelerrors.OutOfRangeFixedPoint, "constraints", "constraint component out of [0, saturation cap] range")
		}
	}
	return nil
}
