// Package drift compares declared organizational structure against the
// structural clusters the kernel actually computed (spec §4.8). It reads
// the clustering and a declarations source; it never mutates either.
package drift

import (
	"sort"

	"github.com/fthyco/simorg/domain/org"
	"github.com/fthyco/simorg/kernel/cluster"
	"github.com/fthyco/simorg/kernel/semantic"
	"github.com/fthyco/simorg/pkg/fixedpoint"
)

// HiddenCouplingThreshold is the minimum edge count between two
// declared-separate roles in the same structural cluster before the pair is
// reported as a hidden coupling (spec §4.8 names the threshold "K" without
// fixing it; this kernel version fixes K at 2, since a single edge between
// two such roles is ordinary collaboration, not a structural leak).
const HiddenCouplingThreshold = 2

// Declarations is the external, read-only source of declared department
// assignments (role_id -> department name).
type Declarations interface {
	DeclaredDepartment(roleID string) (department string, ok bool)
}

// MapDeclarations is the in-memory Declarations used by tests and callers
// that already hold the full mapping.
type MapDeclarations map[string]string

// DeclaredDepartment implements Declarations.
func (m MapDeclarations) DeclaredDepartment(roleID string) (string, bool) {
	d, ok := m[roleID]
	return d, ok
}

// RoleEntry is one role's declared/structural/classification comparison.
type RoleEntry struct {
	RoleID             string `json:"role_id"`
	DeclaredDepartment string `json:"declared_department"`
	StructuralCluster  string `json:"structural_cluster"`
	SemanticLabel      string `json:"semantic_label"`
	Misassigned        bool   `json:"misassigned"`
}

// HiddenCoupling is a pair of declared-separate roles whose structural
// cluster shares at least HiddenCouplingThreshold edges between them.
type HiddenCoupling struct {
	RoleA      string `json:"role_a"`
	RoleB      string `json:"role_b"`
	ClusterID  string `json:"cluster_id"`
	EdgeCount  int64  `json:"edge_count"`
}

// Report is the output of spec §4.8.
type Report struct {
	DivergenceRatio    int64            `json:"divergence_ratio"`
	PhantomDepartments []string         `json:"phantom_departments"`
	HiddenCouplings    []HiddenCoupling `json:"hidden_couplings"`
	Roles              []RoleEntry      `json:"roles"`
}

// Compute builds a drift report from state, its structural clustering, a
// semantic labeling, and a declarations source.
func Compute(state org.OrgState, proj cluster.Projection, labels map[string]semantic.Label, decl Declarations) Report {
	active := state.Roles.ActiveIDs()

	declaredMembers := make(map[string][]string)
	var roles []RoleEntry
	var misassigned int64
	for _, roleID := range active {
		department, hasDeclared := decl.DeclaredDepartment(roleID)
		clusterID := proj.RoleToCluster[roleID]
		label := ""
		if l, ok := labels[clusterID]; ok {
			label = l.SemanticLabel
		}
		isMisassigned := hasDeclared && department != label
		if isMisassigned {
			misassigned++
		}
		roles = append(roles, RoleEntry{
			RoleID:             roleID,
			DeclaredDepartment: department,
			StructuralCluster:  clusterID,
			SemanticLabel:      label,
			Misassigned:        isMisassigned,
		})
		if hasDeclared {
			declaredMembers[department] = append(declaredMembers[department], roleID)
		}
	}

	total := int64(len(active))
	var ratio int64
	if total > 0 {
		ratio = fixedpoint.Ratio(misassigned, total)
	}

	var departments []string
	for d := range declaredMembers {
		departments = append(departments, d)
	}
	sort.Strings(departments)

	var phantoms []string
	for _, d := range departments {
		hasStructuralSupport := false
		for _, roleID := range declaredMembers[d] {
			if label, ok := labels[proj.RoleToCluster[roleID]]; ok && label.SemanticLabel == d {
				hasStructuralSupport = true
				break
			}
		}
		if !hasStructuralSupport {
			phantoms = append(phantoms, d)
		}
	}

	couplings := hiddenCouplings(state, proj, decl)

	return Report{
		DivergenceRatio:    ratio,
		PhantomDepartments: phantoms,
		HiddenCouplings:    couplings,
		Roles:              roles,
	}
}

// hiddenCouplings finds declared-separate role pairs that share a
// structural cluster with at least HiddenCouplingThreshold edges between
// them, visiting dependencies in their canonical (from,to,type) order.
func hiddenCouplings(state org.OrgState, proj cluster.Projection, decl Declarations) []HiddenCoupling {
	type pairKey struct{ a, b, cluster string }
	counts := make(map[pairKey]int64)

	for _, d := range state.Dependencies {
		depA, okA := decl.DeclaredDepartment(d.FromRoleID)
		depB, okB := decl.DeclaredDepartment(d.ToRoleID)
		if !okA || !okB || depA == depB {
			continue
		}
		clusterA := proj.RoleToCluster[d.FromRoleID]
		clusterB := proj.RoleToCluster[d.ToRoleID]
		if clusterA == "" || clusterA != clusterB {
			continue
		}
		a, b := d.FromRoleID, d.ToRoleID
		if a > b {
			a, b = b, a
		}
		counts[pairKey{a, b, clusterA}]++
	}

	var keys []pairKey
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].a != keys[j].a {
			return keys[i].a < keys[j].a
		}
		return keys[i].b < keys[j].b
	})

	var out []HiddenCoupling
	for _, k := range keys {
		if counts[k] >= HiddenCouplingThreshold {
			out = append(out, HiddenCoupling{RoleA: k.a, RoleB: k.b, ClusterID: k.cluster, EdgeCount: counts[k]})
		}
	}
	return out
}
