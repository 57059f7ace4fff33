package validate

import (
	"testing"

	"github.com/fthyco/simorg/domain/org"
	"github.com/fthyco/simorg/pkg/kernelerrors"
)

func baseState() org.OrgState {
	s := org.NewOrgState()
	s.Constants = &org.DomainConstants{Scale: 10000}
	return s
}

func TestValidateConstantsUnset(t *testing.T) {
	s := org.NewOrgState()
	err := Validate(s)
	if err == nil || err.Code != kernelerrors.ConstantsUnset {
		t.Fatalf("expected ConstantsUnset, got %v", err)
	}
}

func TestValidateEmptyResponsibilities(t *testing.T) {
	s := baseState()
	s.Roles.Put(org.Role{ID: "eng", Active: true})
	err := Validate(s)
	if err == nil || err.Code != kernelerrors.EmptyResponsibilities {
		t.Fatalf("expected EmptyResponsibilities, got %v", err)
	}
}

func TestValidateOrphanedInput(t *testing.T) {
	s := baseState()
	s.Roles.Put(org.Role{ID: "eng", Active: true, Responsibilities: []string{"ship"}, RequiredInputs: []string{"budget"}})
	err := Validate(s)
	if err == nil || err.Code != kernelerrors.OrphanedInput {
		t.Fatalf("expected OrphanedInput, got %v", err)
	}
}

func TestValidateOrphanedInputSkippedWhenIsolated(t *testing.T) {
	s := baseState()
	s.Roles.Put(org.Role{ID: "eng", Active: true, Responsibilities: []string{"ship"}, RequiredInputs: []string{"budget"}, Isolated: true})
	if err := Validate(s); err != nil {
		t.Fatalf("expected no error for isolated role, got %v", err)
	}
}

func TestValidateDanglingDependency(t *testing.T) {
	s := baseState()
	s.Roles.Put(org.Role{ID: "a", Active: true, Responsibilities: []string{"x"}})
	s.Dependencies = []org.Dependency{{FromRoleID: "a", ToRoleID: "ghost", DependencyType: org.DependencyOperational}}
	err := Validate(s)
	if err == nil || err.Code != kernelerrors.DanglingDependency {
		t.Fatalf("expected DanglingDependency, got %v", err)
	}
}

func TestValidateCriticalCycle(t *testing.T) {
	s := baseState()
	for _, id := range []string{"a", "b", "c"} {
		s.Roles.Put(org.Role{ID: id, Active: true, Responsibilities: []string{"x"}})
	}
	s.Dependencies = []org.Dependency{
		{FromRoleID: "a", ToRoleID: "b", Critical: true, DependencyType: org.DependencyGovernance},
		{FromRoleID: "b", ToRoleID: "c", Critical: true, DependencyType: org.DependencyGovernance},
		{FromRoleID: "c", ToRoleID: "a", Critical: true, DependencyType: org.DependencyGovernance},
	}
	err := Validate(s)
	if err == nil || err.Code != kernelerrors.CriticalCycle {
		t.Fatalf("expected CriticalCycle, got %v", err)
	}
}

func TestValidateNonCriticalCycleAllowed(t *testing.T) {
	s := baseState()
	for _, id := range []string{"a", "b"} {
		s.Roles.Put(org.Role{ID: id, Active: true, Responsibilities: []string{"x"}})
	}
	s.Dependencies = []org.Dependency{
		{FromRoleID: "a", ToRoleID: "b", Critical: false, DependencyType: org.DependencyGovernance},
		{FromRoleID: "b", ToRoleID: "a", Critical: false, DependencyType: org.DependencyGovernance},
	}
	if err := Validate(s); err != nil {
		t.Fatalf("expected non-critical cycle to be allowed, got %v", err)
	}
}

func TestValidateOK(t *testing.T) {
	s := baseState()
	if err := Validate(s); err != nil {
		t.Fatalf("expected valid empty state, got %v", err)
	}
}
