package graph

import (
	"testing"

	"github.com/fthyco/simorg/domain/org"
)

func threeRoleState() org.OrgState {
	s := org.NewOrgState()
	s.Constants = &org.DomainConstants{Scale: 10000}
	for _, id := range []string{"a", "b", "c"} {
		s.Roles.Put(org.Role{ID: id, Active: true, Responsibilities: []string{"x"}})
	}
	return s
}

func TestDensityBelowTwoRoles(t *testing.T) {
	s := org.NewOrgState()
	s.Constants = &org.DomainConstants{}
	s.Roles.Put(org.Role{ID: "solo", Active: true, Responsibilities: []string{"x"}})
	if got := Density(s); got != 0 {
		t.Fatalf("expected 0 density for n<2, got %d", got)
	}
}

func TestDensityComputation(t *testing.T) {
	s := threeRoleState()
	s.Dependencies = []org.Dependency{{FromRoleID: "a", ToRoleID: "b", DependencyType: org.DependencyOperational}}
	// n=3 -> potential = 6, edges = 1 -> 10000/6 = 1666
	if got := Density(s); got != 1666 {
		t.Fatalf("expected 1666, got %d", got)
	}
}

func TestIsolatedRoles(t *testing.T) {
	s := threeRoleState()
	s.Dependencies = []org.Dependency{{FromRoleID: "a", ToRoleID: "b", DependencyType: org.DependencyOperational}}
	iso := IsolatedRoles(s)
	if len(iso) != 1 || iso[0] != "c" {
		t.Fatalf("expected [c], got %v", iso)
	}
}

func TestFanIn(t *testing.T) {
	s := threeRoleState()
	s.Dependencies = []org.Dependency{
		{FromRoleID: "a", ToRoleID: "c", DependencyType: org.DependencyOperational},
		{FromRoleID: "b", ToRoleID: "c", DependencyType: org.DependencyOperational},
	}
	if got := FanIn(s, "c"); got != 2 {
		t.Fatalf("expected fan-in 2, got %d", got)
	}
}

func TestWeakComponents(t *testing.T) {
	s := threeRoleState()
	s.Dependencies = []org.Dependency{{FromRoleID: "a", ToRoleID: "b", DependencyType: org.DependencyOperational}}
	comps := WeakComponents(s)
	if len(comps) != 2 {
		t.Fatalf("expected 2 components, got %d: %v", len(comps), comps)
	}
}
