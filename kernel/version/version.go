// Package version pins the constants that are part of the kernel's
// identity but are not carried in any single event: values the spec left
// as an Open Question, fixed here once and for all, because changing them
// changes every golden hash downstream. httpapi serves this struct at
// /version so a determinism mismatch can be triaged against "did the kernel
// version change" before "did the event stream change"; snapshots do not
// carry it.
package version

import (
	"github.com/fthyco/simorg/domain/org"
	"github.com/fthyco/simorg/kernel/cluster"
	"github.com/fthyco/simorg/kernel/engine"
)

// Info is the kernel's fixed identity: the schema version every event must
// carry, the two fixed-point constants the spec left unspecified (shock
// density weight default, clustering refinement epsilon), and the
// clusterer's split minimum.
type Info struct {
	SchemaVersion      int   `json:"schema_version"`
	ShockDensityWeight int64 `json:"shock_density_weight_default"`
	ClusterEpsilon     int64 `json:"cluster_refinement_epsilon"`
	ClusterSplitMin    int   `json:"cluster_split_min"`
}

// Current is the single kernel version this build implements.
var Current = Info{
	SchemaVersion:      engine.CurrentSchemaVersion,
	ShockDensityWeight: org.DefaultShockDensityWeight,
	ClusterEpsilon:     cluster.RefinementEpsilon,
	ClusterSplitMin:    cluster.SplitMin,
}
