package semantic

import (
	"testing"

	"github.com/fthyco/simorg/kernel/cluster"
	"github.com/fthyco/simorg/pkg/fixedpoint"
)

func TestProjectMajorityVote(t *testing.T) {
	proj := cluster.Projection{
		Clusters: map[string][]string{
			"c1": {"a", "b", "c"},
		},
	}
	db := MapClassificationDB{
		"a": "engineering",
		"b": "engineering",
		"c": "sales",
	}
	labels := Project(proj, db)
	got := labels["c1"]
	if got.SemanticLabel != "engineering" {
		t.Fatalf("expected engineering, got %s", got.SemanticLabel)
	}
	want := fixedpoint.Ratio(2, 3)
	if got.Confidence != want {
		t.Fatalf("expected confidence %d, got %d", want, got.Confidence)
	}
}

func TestProjectTieBreaksLexicographically(t *testing.T) {
	proj := cluster.Projection{
		Clusters: map[string][]string{
			"c1": {"a", "b"},
		},
	}
	db := MapClassificationDB{
		"a": "sales",
		"b": "engineering",
	}
	labels := Project(proj, db)
	if labels["c1"].SemanticLabel != "engineering" {
		t.Fatalf("expected lexicographically first tag on a tie, got %s", labels["c1"].SemanticLabel)
	}
}

func TestProjectUnclassifiedWhenNoneTagged(t *testing.T) {
	proj := cluster.Projection{
		Clusters: map[string][]string{
			"c1": {"a", "b"},
		},
	}
	labels := Project(proj, MapClassificationDB{})
	got := labels["c1"]
	if got.SemanticLabel != Unclassified {
		t.Fatalf("expected %s, got %s", Unclassified, got.SemanticLabel)
	}
	if got.Confidence != 0 {
		t.Fatalf("expected zero confidence, got %d", got.Confidence)
	}
}
