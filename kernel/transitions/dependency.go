package transitions

import (
	"sort"

	"github.com/fthyco/simorg/domain/org"
	"github.com/fthyco/simorg/pkg/kernelerrors"
)

// AddDependency rejects self-loops, duplicates, and critical edges that
// would close a cycle over the critical-edge subgraph (spec §4.3). Cycle
// detection is a depth-first reachability search from the new edge's target
// back to its source, following successors in lexicographic order.
func AddDependency(state org.OrgState, p AddDependencyPayload) (org.OrgState, org.TransitionResult, *kernelerrors.KernelError) {
	if !state.Roles.Has(p.FromRoleID) {
		return state, org.TransitionResult{}, kernelerrors.New(kernelerrors.DanglingDependency, "from_role_id", "role does not exist")
	}
	if !state.Roles.Has(p.ToRoleID) {
		return state, org.TransitionResult{}, kernelerrors.New(kernelerrors.DanglingDependency, "to_role_id", "role does not exist")
	}
	if p.FromRoleID == p.ToRoleID {
		return state, org.TransitionResult{}, kernelerrors.New(kernelerrors.DanglingDependency, "to_role_id", "dependency must not be a self-loop")
	}

	depType := org.DependencyType(p.DepType)
	candidate := org.Dependency{FromRoleID: p.FromRoleID, ToRoleID: p.ToRoleID, DependencyType: depType, Critical: p.Critical}
	if state.DependencyExists(candidate.Key()) {
		return state, org.TransitionResult{}, kernelerrors.New(kernelerrors.DanglingDependency, "dependency", "duplicate (from,to,type) dependency")
	}

	if p.Critical && wouldCloseCycle(state.Dependencies, p.FromRoleID, p.ToRoleID) {
		return state, org.TransitionResult{}, kernelerrors.New(kernelerrors.CriticalCycle, "dependency", "critical edge would close a cycle")
	}

	next := state.Clone()
	next.Dependencies = append(next.Dependencies, candidate)
	next.SortDependencies()

	result := org.TransitionResult{
		EventType: "add_dependency",
		Reason:    "dependency added",
	}
	return next, result, nil
}

// wouldCloseCycle reports whether adding critical edge (from->to) to the
// existing critical-edge subgraph creates a cycle, i.e. whether "to" can
// already reach "from".
func wouldCloseCycle(deps []org.Dependency, from, to string) bool {
	adj := make(map[string][]string)
	for _, d := range deps {
		if d.Critical {
			adj[d.FromRoleID] = append(adj[d.FromRoleID], d.ToRoleID)
		}
	}
	for k := range adj {
		sort.Strings(adj[k])
	}

	visited := make(map[string]bool)
	var reaches func(u, target string) bool
	reaches = func(u, target string) bool {
		if u == target {
			return true
		}
		if visited[u] {
			return false
		}
		visited[u] = true
		for _, v := range adj[u] {
			if reaches(v, target) {
				return true
			}
		}
		return false
	}
	return reaches(to, from)
}
