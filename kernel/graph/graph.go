// Package graph computes the structural diagnostics of spec §4.5: overall
// density, isolated roles, per-role ego density, fan-in, and weakly
// connected components, as read-only views used by projections and shock
// injection. Critical-cycle detection is not in this package; it lives in
// kernel/validate and kernel/transitions.
package graph

import (
	"sort"

	"github.com/fthyco/simorg/domain/org"
	"github.com/fthyco/simorg/pkg/fixedpoint"
)

// Density returns edges*Scale/(n*(n-1)) for n>=2 active roles, else 0.
func Density(state org.OrgState) int64 {
	active := state.Roles.ActiveIDs()
	n := int64(len(active))
	if n < 2 {
		return 0
	}
	potential := n * (n - 1)
	edges := int64(len(state.Dependencies))
	return fixedpoint.Ratio(edges, potential)
}

// IsolatedRoles returns active roles with zero in- and zero out-degree, in
// canonical order.
func IsolatedRoles(state org.OrgState) []string {
	degree := make(map[string]int)
	for _, d := range state.Dependencies {
		degree[d.FromRoleID]++
		degree[d.ToRoleID]++
	}
	var out []string
	for _, id := range state.Roles.ActiveIDs() {
		if degree[id] == 0 {
			out = append(out, id)
		}
	}
	return out
}

// EgoDensity computes the density of role's 1-hop ego subgraph: the role
// plus every role it has an edge with, and every edge among them.
func EgoDensity(state org.OrgState, roleID string) int64 {
	members := map[string]bool{roleID: true}
	for _, d := range state.Dependencies {
		if d.FromRoleID == roleID {
			members[d.ToRoleID] = true
		}
		if d.ToRoleID == roleID {
			members[d.FromRoleID] = true
		}
	}

	n := int64(len(members))
	if n < 2 {
		return 0
	}

	var edges int64
	for _, d := range state.Dependencies {
		if members[d.FromRoleID] && members[d.ToRoleID] {
			edges++
		}
	}
	return fixedpoint.Ratio(edges, n*(n-1))
}

// GovernanceEdgeCount returns the number of governance-typed dependencies.
func GovernanceEdgeCount(state org.OrgState) int {
	var n int
	for _, d := range state.Dependencies {
		if d.DependencyType == org.DependencyGovernance {
			n++
		}
	}
	return n
}

// FanIn returns the number of active dependencies whose to_role_id is
// roleID (differentiate_role's trigger condition, spec §4.3).
func FanIn(state org.OrgState, roleID string) int64 {
	var n int64
	for _, d := range state.Dependencies {
		if d.ToRoleID == roleID {
			n++
		}
	}
	return n
}

// WeakComponents returns the weakly-connected components of the undirected
// projection of the dependency graph over active roles, each component's
// role ids in canonical order, and the components themselves ordered by
// their lexicographically smallest member (spec §4.6 step 1).
func WeakComponents(state org.OrgState) [][]string {
	adj := make(map[string]map[string]bool)
	ensure := func(id string) {
		if adj[id] == nil {
			adj[id] = make(map[string]bool)
		}
	}
	for _, id := range state.Roles.ActiveIDs() {
		ensure(id)
	}
	for _, d := range state.Dependencies {
		if adj[d.FromRoleID] == nil || adj[d.ToRoleID] == nil {
			continue
		}
		adj[d.FromRoleID][d.ToRoleID] = true
		adj[d.ToRoleID][d.FromRoleID] = true
	}

	visited := make(map[string]bool)
	var components [][]string
	for _, start := range state.Roles.ActiveIDs() {
		if visited[start] {
			continue
		}
		var comp []string
		stack := []string{start}
		visited[start] = true
		for len(stack) > 0 {
			u := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			comp = append(comp, u)
			var neighbors []string
			for v := range adj[u] {
				neighbors = append(neighbors, v)
			}
			sort.Strings(neighbors)
			for _, v := range neighbors {
				if !visited[v] {
					visited[v] = true
					stack = append(stack, v)
				}
			}
		}
		sort.Strings(comp)
		components = append(components, comp)
	}
	sort.Slice(components, func(i, j int) bool { return components[i][0] < components[j][0] })
	return components
}
