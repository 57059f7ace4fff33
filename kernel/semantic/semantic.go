// Package semantic labels structural clusters against an external,
// read-only classification source. It never mutates state or the
// clustering it is handed (spec §4.7).
package semantic

import (
	"sort"

	"github.com/fthyco/simorg/kernel/cluster"
	"github.com/fthyco/simorg/pkg/fixedpoint"
)

// Unclassified is the label assigned to a cluster whose members all lack a
// classification.
const Unclassified = "Unclassified"

// ClassificationDB maps role ids to a declared semantic tag. Implementors
// must be safe for concurrent reads; the kernel never writes through it.
type ClassificationDB interface {
	Classify(roleID string) (tag string, ok bool)
}

// MapClassificationDB is the in-memory ClassificationDB used by tests and
// by callers that already hold the full mapping.
type MapClassificationDB map[string]string

// Classify implements ClassificationDB.
func (m MapClassificationDB) Classify(roleID string) (string, bool) {
	tag, ok := m[roleID]
	return tag, ok
}

// Label is the semantic projection of one structural cluster.
type Label struct {
	ClusterID     string `json:"cluster_id"`
	SemanticLabel string `json:"semantic_label"`
	Confidence    int64  `json:"confidence"`
	TotalMembers  int64  `json:"total_members"`
	DominantCount int64  `json:"dominant_count"`
}

// Project labels every cluster in proj by majority vote over db, tie-broken
// lexicographically by tag (spec §4.7).
func Project(proj cluster.Projection, db ClassificationDB) map[string]Label {
	out := make(map[string]Label, len(proj.Clusters))

	var clusterIDs []string
	for id := range proj.Clusters {
		clusterIDs = append(clusterIDs, id)
	}
	sort.Strings(clusterIDs)

	for _, id := range clusterIDs {
		members := proj.Clusters[id]
		counts := make(map[string]int64)
		for _, roleID := range members {
			tag, ok := db.Classify(roleID)
			if !ok || tag == "" {
				continue
			}
			counts[tag]++
		}

		label := Unclassified
		var dominant int64
		var tags []string
		for tag := range counts {
			tags = append(tags, tag)
		}
		sort.Strings(tags)
		for _, tag := range tags {
			if counts[tag] > dominant {
				dominant = counts[tag]
				label = tag
			}
		}

		total := int64(len(members))
		var confidence int64
		if total > 0 && dominant > 0 {
			confidence = fixedpoint.Ratio(dominant, total)
		}

		out[id] = Label{
			ClusterID:     id,
			SemanticLabel: label,
			Confidence:    confidence,
			TotalMembers:  total,
			DominantCount: dominant,
		}
	}
	return out
}
