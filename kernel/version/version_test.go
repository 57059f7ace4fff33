package version

import "testing"

func TestCurrentMatchesEngineSchema(t *testing.T) {
	if Current.SchemaVersion != 1 {
		t.Fatalf("expected schema version 1, got %d", Current.SchemaVersion)
	}
	if Current.ShockDensityWeight != 5000 {
		t.Fatalf("expected shock density weight 5000, got %d", Current.ShockDensityWeight)
	}
	if Current.ClusterEpsilon != 1 {
		t.Fatalf("expected cluster epsilon 1, got %d", Current.ClusterEpsilon)
	}
}
