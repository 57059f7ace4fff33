package transitions

import (
	"fmt"
	"sort"

	"github.com/fthyco/simorg/domain/org"
	"github.com/fthyco/simorg/kernel/graph"
	"github.com/fthyco/simorg/pkg/kernelerrors"
)

// differentiationCost is the capital and talent cost of a split. Fixed by
// kernel version identity rather than configurable, since spec §4.3 only
// says "constraint vector allows it (capital>=cost AND talent>=cost)"
// without naming a cost source; this kernel ties it to the differentiation
// threshold itself, so larger organizations pay more to keep splitting.
func differentiationCost(state org.OrgState) int64 {
	return state.Constants.DifferentiationThreshold
}

// DifferentiateRole splits a role once its active dependency fan-in meets
// the threshold and the constraint vector can afford it. Below the
// threshold the event is a no-op skip, not an error (spec §4.3).
func DifferentiateRole(state org.OrgState, p DifferentiateRolePayload) (org.OrgState, org.TransitionResult, *kernelerrors.KernelError) {
	role, ok := state.Roles.Get(p.RoleID)
	if !ok || !role.Active {
		return state, org.TransitionResult{}, kernelerrors.New(kernelerrors.UnknownRole, "payload.role_id", "role does not exist or is inactive")
	}

	fanIn := graph.FanIn(state, p.RoleID)
	threshold := state.Constants.DifferentiationThreshold

	if fanIn < threshold {
		result := org.TransitionResult{
			EventType:               "differentiate_role",
			DifferentiationSkipped:  true,
			Reason:                  "fan-in below differentiation threshold",
			CumulativeDebt:          state.StructuralDebt,
		}
		return state, result, nil
	}

	cost := differentiationCost(state)
	if !state.Constraints.CanAfford(cost, cost) {
		secondary := fanIn - threshold
		next := state.Clone()
		next.StructuralDebt += secondary
		result := org.TransitionResult{
			EventType:                 "differentiate_role",
			SuppressedDifferentiation: true,
			SecondaryDebt:             secondary,
			Reason:                    "differentiation triggered but suppressed by insufficient capital/talent",
			CumulativeDebt:            next.StructuralDebt,
		}
		return next, result, nil
	}

	// A role with a single responsibility has nothing to split: either side
	// of the split would be left with none, which violates
	// EmptyResponsibilities on the surviving role. Treat it the same as an
	// affordability suppression rather than producing an invalid state.
	if len(role.Responsibilities) < 2 {
		secondary := fanIn - threshold
		next := state.Clone()
		next.StructuralDebt += secondary
		result := org.TransitionResult{
			EventType:                 "differentiate_role",
			SuppressedDifferentiation: true,
			SecondaryDebt:             secondary,
			Reason:                    "differentiation triggered but suppressed: role has only one responsibility to split",
			CumulativeDebt:            next.StructuralDebt,
		}
		return next, result, nil
	}

	next := state.Clone()
	newConstraints, _ := next.Constraints.ApplyDelta(-cost, -cost, 0, 0)
	next.Constraints = newConstraints

	lower, upper := splitResponsibilities(role.Responsibilities)
	childID := fmt.Sprintf("%s_d%d", role.ID, countExistingChildren(next.Roles, role.ID)+1)

	original := role.Clone()
	original.Responsibilities = lower
	next.Roles.Put(original)

	child := role.Clone()
	child.ID = childID
	child.Responsibilities = upper
	next.Roles.Put(child)

	repointDependenciesRoundRobin(&next, role.ID, childID)

	result := org.TransitionResult{
		EventType:               "differentiate_role",
		DifferentiationExecuted: true,
		Reason:                  "role differentiated",
		CumulativeDebt:          next.StructuralDebt,
	}
	return next, result, nil
}

// splitResponsibilities splits a lexicographically sorted copy of
// responsibilities in half: lower half stays with the original, upper half
// moves to the new role (spec §4.3). Callers only reach this with at least
// two responsibilities; DifferentiateRole suppresses the split otherwise.
func splitResponsibilities(resp []string) (lower, upper []string) {
	sorted := append([]string(nil), resp...)
	sort.Strings(sorted)
	mid := (len(sorted) + 1) / 2
	lower = append([]string(nil), sorted[:mid]...)
	upper = append([]string(nil), sorted[mid:]...)
	return lower, upper
}

func countExistingChildren(roles *org.RoleSet, baseID string) int {
	n := 0
	prefix := baseID + "_d"
	for _, id := range roles.InsertionOrder() {
		if len(id) > len(prefix) && id[:len(prefix)] == prefix {
			n++
		}
	}
	return n
}

// repointDependenciesRoundRobin re-points dependencies whose to_role_id is
// originalID alternately between originalID and childID, visiting the
// dependencies in canonical order for determinism (spec §4.3).
func repointDependenciesRoundRobin(state *org.OrgState, originalID, childID string) {
	state.SortDependencies()
	targets := []string{originalID, childID}
	i := 0
	for idx := range state.Dependencies {
		if state.Dependencies[idx].ToRoleID == originalID {
			state.Dependencies[idx].ToRoleID = targets[i%2]
			i++
		}
	}
	state.SortDependencies()
}
