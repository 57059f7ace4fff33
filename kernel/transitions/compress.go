package transitions

import (
	"sort"

	"github.com/fthyco/simorg/domain/org"
	"github.com/fthyco/simorg/pkg/kernelerrors"
)

// CompressRoles merges source into target: union of responsibilities,
// required_inputs, produced_outputs (stable ordering); source is
// deactivated; dependencies are rewritten to point at target with
// duplicates collapsed. Limited by compression_limit (spec §4.3).
func CompressRoles(state org.OrgState, p CompressRolesPayload) (org.OrgState, org.TransitionResult, *kernelerrors.KernelError) {
	source, ok := state.Roles.Get(p.SourceRoleID)
	if !ok || !source.Active {
		return state, org.TransitionResult{}, kernelerrors.New(kernelerrors.UnknownRole, "payload.source_role_id", "role does not exist or is inactive")
	}
	target, ok := state.Roles.Get(p.TargetRoleID)
	if !ok || !target.Active {
		return state, org.TransitionResult{}, kernelerrors.New(kernelerrors.UnknownRole, "payload.target_role_id", "role does not exist or is inactive")
	}
	if source.ID == target.ID {
		return state, org.TransitionResult{}, kernelerrors.New(kernelerrors.UnknownRole, "payload.target_role_id", "source and target must differ")
	}

	if state.CompressionCount >= state.Constants.CompressionLimit {
		return state, org.TransitionResult{}, kernelerrors.New(kernelerrors.CompressionLimit, "payload", "compression limit reached for this session")
	}

	next := state.Clone()

	merged := target.Clone()
	merged.Responsibilities = unionSorted(target.Responsibilities, source.Responsibilities)
	merged.RequiredInputs = unionSorted(target.RequiredInputs, source.RequiredInputs)
	merged.ProducedOutputs = unionSorted(target.ProducedOutputs, source.ProducedOutputs)
	next.Roles.Put(merged)

	deactivatedSource := source.Clone()
	deactivatedSource.Active = false
	next.Roles.Put(deactivatedSource)
	next.CompressionCount++

	rewritten := make([]org.Dependency, 0, len(next.Dependencies))
	seen := make(map[[3]string]bool)
	for _, d := range next.Dependencies {
		if d.FromRoleID == source.ID {
			d.FromRoleID = target.ID
		}
		if d.ToRoleID == source.ID {
			d.ToRoleID = target.ID
		}
		if d.FromRoleID == d.ToRoleID {
			continue
		}
		key := d.Key()
		if seen[key] {
			continue
		}
		seen[key] = true
		rewritten = append(rewritten, d)
	}
	next.Dependencies = rewritten
	next.SortDependencies()

	result := org.TransitionResult{
		EventType:           "compress_roles",
		CompressionExecuted: true,
		Deactivated:         []string{source.ID},
		Reason:              "roles compressed",
		CumulativeDebt:      next.StructuralDebt,
	}
	return next, result, nil
}

func unionSorted(a, b []string) []string {
	set := make(map[string]bool)
	for _, v := range a {
		set[v] = true
	}
	for _, v := range b {
		set[v] = true
	}
	out := make([]string, 0, len(set))
	for v := range set {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
