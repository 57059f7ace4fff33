// Package cluster computes the deterministic structural clustering of
// spec §4.6: weakly-connected components, recursive greedy-modularity
// bipartition, a refinement pass, and sha256-derived cluster ids. No
// randomness and no semantic input ever reach this package; every
// iteration order here is lexicographic on role id or on cluster id.
package cluster

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"

	"github.com/fthyco/simorg/domain/org"
	"github.com/fthyco/simorg/kernel/graph"
	"github.com/fthyco/simorg/pkg/fixedpoint"
)

// SplitMin is the component-size floor above which bipartition runs; spec
// §4.6 step 2 names the condition ("size > SPLIT_MIN") without fixing the
// constant. This kernel version fixes it at 4: below that a component is
// already small enough that splitting it produces clusters too thin to
// carry a meaningful density signal.
const SplitMin = 4

// RefinementEpsilon is the minimum fixed-point density improvement a move
// must clear during bipartition and refinement to be taken (spec §4.6
// steps 2-3 name "epsilon" without a value).
const RefinementEpsilon int64 = 1

// RefinementStepCap bounds the refinement pass so a pathological
// oscillation cannot loop forever; spec §4.6 step 3 allows either
// convergence or a step cap.
const RefinementStepCap = 25

// Edge is an inter-cluster edge in the projection output.
type Edge struct {
	FromRoleID     string             `json:"from_role_id"`
	ToRoleID       string             `json:"to_role_id"`
	DependencyType org.DependencyType `json:"dependency_type"`
}

// Projection is the output shape of spec §4.6 step 5.
type Projection struct {
	Clusters          map[string][]string `json:"clusters"`
	RoleToCluster     map[string]string   `json:"role_to_cluster"`
	InterClusterEdges []Edge              `json:"inter_cluster_edges"`
	ClusterDensity    map[string]int64    `json:"cluster_density"`
	BoundaryHeat      int64               `json:"boundary_heat"`
	ClusterHash       string              `json:"cluster_hash"`
}

type adjacency map[string]map[string]bool

// Compute clusters the active-role dependency graph of state.
func Compute(state org.OrgState) Projection {
	adj := buildAdjacency(state)
	components := graph.WeakComponents(state)

	var clusters [][]string
	for _, comp := range components {
		clusters = append(clusters, bipartitionRecursive(comp, adj)...)
	}

	clusters = refine(clusters, adj)

	return buildProjection(state, clusters)
}

func buildAdjacency(state org.OrgState) adjacency {
	adj := make(adjacency)
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
	return adj
}

// bipartitionRecursive splits comp by greedy modularity while its size
// exceeds SplitMin, recursing into each half (spec §4.6 step 2).
func bipartitionRecursive(comp []string, adj adjacency) [][]string {
	if len(comp) <= SplitMin {
		return [][]string{append([]string(nil), comp...)}
	}
	a, b := bipartitionOnce(comp, adj)
	if len(a) == 0 || len(b) == 0 {
		return [][]string{append([]string(nil), comp...)}
	}
	var out [][]string
	out = append(out, bipartitionRecursive(a, adj)...)
	out = append(out, bipartitionRecursive(b, adj)...)
	return out
}

// bipartitionOnce splits comp into two halves (canonical-order initial
// split) then greedily moves boundary roles to whichever side most
// increases combined within-cluster density, stopping when no move clears
// RefinementEpsilon (spec §4.6 step 2).
func bipartitionOnce(comp []string, adj adjacency) (a, b []string) {
	sorted := append([]string(nil), comp...)
	sort.Strings(sorted)
	mid := len(sorted) / 2
	side := make(map[string]int, len(sorted))
	for i, id := range sorted {
		if i < mid {
			side[id] = 0
		} else {
			side[id] = 1
		}
	}

	for {
		candidates := boundaryRoles(sorted, side, adj)
		bestGain := int64(0)
		bestRole := ""
		for _, r := range candidates {
			gain := moveGain(sorted, side, adj, r)
			if gain > bestGain {
				bestGain = gain
				bestRole = r
			}
		}
		if bestRole == "" || bestGain <= RefinementEpsilon {
			break
		}
		side[bestRole] = 1 - side[bestRole]
	}

	for _, id := range sorted {
		if side[id] == 0 {
			a = append(a, id)
		} else {
			b = append(b, id)
		}
	}
	return a, b
}

// boundaryRoles returns, in canonical order, every role with at least one
// neighbor on the other side.
func boundaryRoles(sorted []string, side map[string]int, adj adjacency) []string {
	var out []string
	for _, id := range sorted {
		for n := range adj[id] {
			if side[n] != side[id] {
				out = append(out, id)
				break
			}
		}
	}
	return out
}

// moveGain is the change in combined within-side density from flipping
// role's side, positive when the flip is an improvement.
func moveGain(sorted []string, side map[string]int, adj adjacency, role string) int64 {
	before := combinedDensity(sorted, side, adj)
	side[role] = 1 - side[role]
	after := combinedDensity(sorted, side, adj)
	side[role] = 1 - side[role]
	return after - before
}

func combinedDensity(sorted []string, side map[string]int, adj adjacency) int64 {
	var a, b []string
	for _, id := range sorted {
		if side[id] == 0 {
			a = append(a, id)
		} else {
			b = append(b, id)
		}
	}
	return subsetDensity(a, adj) + subsetDensity(b, adj)
}

func subsetDensity(members []string, adj adjacency) int64 {
	n := int64(len(members))
	if n < 2 {
		return 0
	}
	set := make(map[string]bool, len(members))
	for _, m := range members {
		set[m] = true
	}
	var edges int64
	for _, m := range members {
		for n2 := range adj[m] {
			if set[n2] {
				edges++
			}
		}
	}
	edges /= 2
	return fixedpoint.Ratio(edges, n*(n-1))
}

// refine runs the greedy reassignment pass of spec §4.6 step 3: each role,
// visited in canonical order, moves to whichever neighboring cluster most
// increases combined density of its source and destination clusters.
func refine(clusters [][]string, adj adjacency) [][]string {
	clusterOf := make(map[string]int)
	for ci, c := range clusters {
		for _, id := range c {
			clusterOf[id] = ci
		}
	}
	var roleOrder []string
	for id := range clusterOf {
		roleOrder = append(roleOrder, id)
	}
	sort.Strings(roleOrder)

	for step := 0; step < RefinementStepCap; step++ {
		changed := false
		for _, role := range roleOrder {
			cur := clusterOf[role]
			neighborClusters := make(map[int]bool)
			for n := range adj[role] {
				neighborClusters[clusterOf[n]] = true
			}
			delete(neighborClusters, cur)

			var neighborList []int
			for ci := range neighborClusters {
				neighborList = append(neighborList, ci)
			}
			sort.Slice(neighborList, func(i, j int) bool { return clusterKey(clusters[neighborList[i]]) < clusterKey(clusters[neighborList[j]]) })

			bestGain := int64(0)
			bestTarget := -1
			for _, target := range neighborList {
				before := clusterPairDensity(clusters, cur, target, adj)
				candidateGain := clusterPairDensity(clustersAfterMove(clusters, cur, target, role), cur, target, adj) - before
				if candidateGain > bestGain {
					bestGain = candidateGain
					bestTarget = target
				}
			}
			if bestTarget >= 0 && bestGain > RefinementEpsilon {
				clusters = clustersAfterMove(clusters, cur, bestTarget, role)
				clusterOf[role] = bestTarget
				changed = true
			}
		}
		if !changed {
			break
		}
	}
	return clusters
}

func clustersAfterMove(clusters [][]string, from, to int, role string) [][]string {
	out := make([][]string, len(clusters))
	for i, c := range clusters {
		out[i] = append([]string(nil), c...)
	}
	var kept []string
	for _, id := range out[from] {
		if id != role {
			kept = append(kept, id)
		}
	}
	out[from] = kept
	out[to] = append(out[to], role)
	sort.Strings(out[to])
	return out
}

func clusterPairDensity(clusters [][]string, a, b int, adj adjacency) int64 {
	if a == b {
		return subsetDensity(clusters[a], adj)
	}
	return subsetDensity(clusters[a], adj) + subsetDensity(clusters[b], adj)
}

func clusterKey(members []string) string {
	sorted := append([]string(nil), members...)
	sort.Strings(sorted)
	return strings.Join(sorted, "|")
}

// ClusterID is sha256(sorted(role_ids) join '|') hex-encoded (spec §4.6
// step 4).
func ClusterID(members []string) string {
	sum := sha256.Sum256([]byte(clusterKey(members)))
	return hex.EncodeToString(sum[:])
}

func buildProjection(state org.OrgState, clusters [][]string) Projection {
	// Drop empty clusters left over from refinement moves.
	var nonEmpty [][]string
	for _, c := range clusters {
		if len(c) > 0 {
			nonEmpty = append(nonEmpty, append([]string(nil), c...))
		}
	}
	for _, c := range nonEmpty {
		sort.Strings(c)
	}
	sort.Slice(nonEmpty, func(i, j int) bool { return clusterKey(nonEmpty[i]) < clusterKey(nonEmpty[j]) })

	adj := buildAdjacency(state)
	clusterIDs := make(map[string]string, len(nonEmpty))
	roleToCluster := make(map[string]string)
	density := make(map[string]int64, len(nonEmpty))
	clustersOut := make(map[string][]string, len(nonEmpty))
	for _, c := range nonEmpty {
		id := ClusterID(c)
		clusterIDs[clusterKey(c)] = id
		clustersOut[id] = c
		density[id] = subsetDensity(c, adj)
		for _, role := range c {
			roleToCluster[role] = id
		}
	}

	var interEdges []Edge
	var totalEdges, crossEdges int64
	for _, d := range state.Dependencies {
		fromCluster, okF := roleToCluster[d.FromRoleID]
		toCluster, okT := roleToCluster[d.ToRoleID]
		if !okF || !okT {
			continue
		}
		totalEdges++
		if fromCluster != toCluster {
			crossEdges++
			interEdges = append(interEdges, Edge{FromRoleID: d.FromRoleID, ToRoleID: d.ToRoleID, DependencyType: d.DependencyType})
		}
	}
	sort.Slice(interEdges, func(i, j int) bool {
		if interEdges[i].FromRoleID != interEdges[j].FromRoleID {
			return interEdges[i].FromRoleID < interEdges[j].FromRoleID
		}
		return interEdges[i].ToRoleID < interEdges[j].ToRoleID
	})

	var boundaryHeat int64
	if totalEdges > 0 {
		boundaryHeat = fixedpoint.Ratio(crossEdges, totalEdges)
	}

	var clusterIDOrder []string
	for id := range clustersOut {
		clusterIDOrder = append(clusterIDOrder, id)
	}
	sort.Strings(clusterIDOrder)
	hashInput := strings.Join(clusterIDOrder, ",")
	sum := sha256.Sum256([]byte(hashInput))

	return Projection{
		Clusters:          clustersOut,
		RoleToCluster:     roleToCluster,
		InterClusterEdges: interEdges,
		ClusterDensity:    density,
		BoundaryHeat:       boundaryHeat,
		ClusterHash:       hex.EncodeToString(sum[:]),
	}
}
