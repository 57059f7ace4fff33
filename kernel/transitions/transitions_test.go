package transitions

import (
	"testing"

	"github.com/fthyco/simorg/domain/org"
	"github.com/fthyco/simorg/pkg/kernelerrors"
)

func initializedState(t *testing.T) org.OrgState {
	t.Helper()
	state := org.NewOrgState()
	next, _, err := InitializeConstants(state, InitializeConstantsPayload{
		Capital:                  10000,
		Talent:                   10000,
		Time:                     10000,
		PoliticalCost:            10000,
		DifferentiationThreshold: 3,
		CompressionLimit:         2,
	})
	if err != nil {
		t.Fatalf("initialize: %v", err)
	}
	return next
}

func mustAddRole(t *testing.T, state org.OrgState, id string) org.OrgState {
	t.Helper()
	next, _, err := AddRole(state, AddRolePayload{ID: id, Name: id, Purpose: "p"})
	if err != nil {
		t.Fatalf("add role %s: %v", id, err)
	}
	return next
}

func TestInitializeConstantsDefaults(t *testing.T) {
	state := org.NewOrgState()
	next, _, err := InitializeConstants(state, InitializeConstantsPayload{Capital: 1, Talent: 1, Time: 1, PoliticalCost: 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if next.Constants.ShockBaseMultiplier != 0 {
		t.Fatalf("expected default shock base multiplier 0, got %d", next.Constants.ShockBaseMultiplier)
	}
	if next.Constants.ShockDensityWeight != org.DefaultShockDensityWeight {
		t.Fatalf("expected default shock density weight %d, got %d", org.DefaultShockDensityWeight, next.Constants.ShockDensityWeight)
	}
}

func TestAddRoleDefaultsResponsibilities(t *testing.T) {
	state := initializedState(t)
	next, _, err := AddRole(state, AddRolePayload{ID: "ops", Name: "Ops", Purpose: "run things"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	role, ok := next.Roles.Get("ops")
	if !ok {
		t.Fatal("role not found")
	}
	if len(role.Responsibilities) != 1 || role.Responsibilities[0] != "ops_default" {
		t.Fatalf("expected default responsibility, got %v", role.Responsibilities)
	}
}

func TestAddRoleRejectsBadID(t *testing.T) {
	state := initializedState(t)
	_, _, err := AddRole(state, AddRolePayload{ID: "Bad-ID", Name: "x", Purpose: "y"})
	if err == nil || err.Code != kernelerrors.BadRoleID {
		t.Fatalf("expected BadRoleID, got %v", err)
	}
}

func TestAddRoleRejectsDuplicate(t *testing.T) {
	state := initializedState(t)
	state = mustAddRole(t, state, "ops")
	_, _, err := AddRole(state, AddRolePayload{ID: "ops", Name: "x", Purpose: "y"})
	if err == nil || err.Code != kernelerrors.BadRoleID {
		t.Fatalf("expected BadRoleID for duplicate, got %v", err)
	}
}

func TestRemoveRoleCascadesDependencies(t *testing.T) {
	state := initializedState(t)
	state = mustAddRole(t, state, "a")
	state = mustAddRole(t, state, "b")
	state, _, err := AddDependency(state, AddDependencyPayload{FromRoleID: "a", ToRoleID: "b", DepType: "operational"})
	if err != nil {
		t.Fatalf("add dependency: %v", err)
	}
	next, result, err := RemoveRole(state, RemoveRolePayload{RoleID: "a"})
	if err != nil {
		t.Fatalf("remove role: %v", err)
	}
	if len(next.Dependencies) != 0 {
		t.Fatalf("expected dependencies cascaded away, got %v", next.Dependencies)
	}
	if len(result.Deactivated) != 1 || result.Deactivated[0] != "a" {
		t.Fatalf("expected deactivated=[a], got %v", result.Deactivated)
	}
}

func TestRemoveRoleUnknown(t *testing.T) {
	state := initializedState(t)
	_, _, err := RemoveRole(state, RemoveRolePayload{RoleID: "ghost"})
	if err == nil || err.Code != kernelerrors.UnknownRole {
		t.Fatalf("expected UnknownRole, got %v", err)
	}
}

func TestAddDependencyRejectsSelfLoop(t *testing.T) {
	state := initializedState(t)
	state = mustAddRole(t, state, "a")
	_, _, err := AddDependency(state, AddDependencyPayload{FromRoleID: "a", ToRoleID: "a", DepType: "operational"})
	if err == nil || err.Code != kernelerrors.DanglingDependency {
		t.Fatalf("expected DanglingDependency for self-loop, got %v", err)
	}
}

func TestAddDependencyRejectsDuplicate(t *testing.T) {
	state := initializedState(t)
	state = mustAddRole(t, state, "a")
	state = mustAddRole(t, state, "b")
	state, _, err := AddDependency(state, AddDependencyPayload{FromRoleID: "a", ToRoleID: "b", DepType: "operational"})
	if err != nil {
		t.Fatalf("first add dependency: %v", err)
	}
	_, _, err = AddDependency(state, AddDependencyPayload{FromRoleID: "a", ToRoleID: "b", DepType: "operational"})
	if err == nil || err.Code != kernelerrors.DanglingDependency {
		t.Fatalf("expected DanglingDependency for duplicate, got %v", err)
	}
}

func TestAddDependencyRejectsCriticalCycle(t *testing.T) {
	state := initializedState(t)
	state = mustAddRole(t, state, "a")
	state = mustAddRole(t, state, "b")
	state = mustAddRole(t, state, "c")
	state, _, err := AddDependency(state, AddDependencyPayload{FromRoleID: "a", ToRoleID: "b", DepType: "operational", Critical: true})
	if err != nil {
		t.Fatalf("a->b: %v", err)
	}
	state, _, err = AddDependency(state, AddDependencyPayload{FromRoleID: "b", ToRoleID: "c", DepType: "operational", Critical: true})
	if err != nil {
		t.Fatalf("b->c: %v", err)
	}
	_, _, err = AddDependency(state, AddDependencyPayload{FromRoleID: "c", ToRoleID: "a", DepType: "operational", Critical: true})
	if err == nil || err.Code != kernelerrors.CriticalCycle {
		t.Fatalf("expected CriticalCycle, got %v", err)
	}
}

func TestAddDependencyAllowsNonCriticalCycle(t *testing.T) {
	state := initializedState(t)
	state = mustAddRole(t, state, "a")
	state = mustAddRole(t, state, "b")
	state, _, err := AddDependency(state, AddDependencyPayload{FromRoleID: "a", ToRoleID: "b", DepType: "operational", Critical: true})
	if err != nil {
		t.Fatalf("a->b: %v", err)
	}
	_, _, err = AddDependency(state, AddDependencyPayload{FromRoleID: "b", ToRoleID: "a", DepType: "operational", Critical: false})
	if err != nil {
		t.Fatalf("expected non-critical cycle to be allowed, got %v", err)
	}
}

func TestApplyConstraintChangeSaturates(t *testing.T) {
	state := initializedState(t)
	hugeNeg := int64(-1 << 40)
	next, result, err := ApplyConstraintChange(state, ApplyConstraintChangePayload{CapitalDelta: &hugeNeg})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if next.Constraints.Capital != 0 {
		t.Fatalf("expected capital saturated to 0, got %d", next.Constraints.Capital)
	}
	if result.SecondaryDebt != 1 {
		t.Fatalf("expected secondary debt 1 on saturation, got %d", result.SecondaryDebt)
	}
}

func TestInjectShockUnknownRole(t *testing.T) {
	state := initializedState(t)
	_, _, err := InjectShock(state, InjectShockPayload{TargetRoleID: "ghost", Magnitude: 1})
	if err == nil || err.Code != kernelerrors.UnknownRole {
		t.Fatalf("expected UnknownRole, got %v", err)
	}
}

func TestInjectShockRejectsOutOfRangeMagnitude(t *testing.T) {
	state := initializedState(t)
	state = mustAddRole(t, state, "a")
	_, _, err := InjectShock(state, InjectShockPayload{TargetRoleID: "a", Magnitude: 11})
	if err == nil || err.Code != kernelerrors.OutOfRangeFixedPoint {
		t.Fatalf("expected OutOfRangeFixedPoint, got %v", err)
	}
}

func TestInjectShockAccumulatesDebt(t *testing.T) {
	state := initializedState(t)
	state = mustAddRole(t, state, "a")
	state = mustAddRole(t, state, "b")
	state, _, err := AddDependency(state, AddDependencyPayload{FromRoleID: "a", ToRoleID: "b", DepType: "operational"})
	if err != nil {
		t.Fatalf("add dependency: %v", err)
	}
	next, result, err := InjectShock(state, InjectShockPayload{TargetRoleID: "a", Magnitude: 4})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.PrimaryDebt <= 0 {
		t.Fatalf("expected positive primary debt, got %d", result.PrimaryDebt)
	}
	if next.StructuralDebt != result.PrimaryDebt {
		t.Fatalf("expected structural debt %d to equal primary debt, got %d", next.StructuralDebt, result.PrimaryDebt)
	}
}

func TestDifferentiateRoleSkipsBelowThreshold(t *testing.T) {
	state := initializedState(t)
	state = mustAddRole(t, state, "a")
	next, result, err := DifferentiateRole(state, DifferentiateRolePayload{RoleID: "a"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.DifferentiationSkipped {
		t.Fatal("expected differentiation skipped below threshold")
	}
	if _, ok := next.Roles.Get("a_d1"); ok {
		t.Fatal("did not expect a child role to be created")
	}
}

func TestDifferentiateRoleExecutes(t *testing.T) {
	state := initializedState(t)
	next, _, err := AddRole(state, AddRolePayload{ID: "hub", Name: "hub", Purpose: "p", Responsibilities: []string{"r1", "r2"}})
	if err != nil {
		t.Fatalf("add hub: %v", err)
	}
	state = next
	for _, id := range []string{"a", "b", "c"} {
		state = mustAddRole(t, state, id)
		var err *kernelerrors.KernelError
		state, _, err = AddDependency(state, AddDependencyPayload{FromRoleID: id, ToRoleID: "hub", DepType: "operational"})
		if err != nil {
			t.Fatalf("dependency %s->hub: %v", id, err)
		}
	}
	next, result, err := DifferentiateRole(state, DifferentiateRolePayload{RoleID: "hub"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.DifferentiationExecuted {
		t.Fatalf("expected differentiation executed, got %+v", result)
	}
	if _, ok := next.Roles.Get("hub_d1"); !ok {
		t.Fatal("expected child role hub_d1 to exist")
	}
}

func TestDifferentiateRoleSuppressedWithSingleResponsibility(t *testing.T) {
	state := initializedState(t)
	state = mustAddRole(t, state, "hub")
	for _, id := range []string{"a", "b", "c"} {
		state = mustAddRole(t, state, id)
		var err *kernelerrors.KernelError
		state, _, err = AddDependency(state, AddDependencyPayload{FromRoleID: id, ToRoleID: "hub", DepType: "operational"})
		if err != nil {
			t.Fatalf("dependency %s->hub: %v", id, err)
		}
	}
	next, result, err := DifferentiateRole(state, DifferentiateRolePayload{RoleID: "hub"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.SuppressedDifferentiation {
		t.Fatalf("expected suppressed differentiation, got %+v", result)
	}
	hub, ok := next.Roles.Get("hub")
	if !ok {
		t.Fatal("expected hub role to still exist")
	}
	if !hub.Active {
		t.Fatal("expected hub to remain active")
	}
	if len(hub.Responsibilities) == 0 {
		t.Fatal("expected hub to keep its sole responsibility, not be left empty")
	}
	if _, ok := next.Roles.Get("hub_d1"); ok {
		t.Fatal("did not expect a child role to be created")
	}
}

func TestCompressRolesMergesAndDeactivates(t *testing.T) {
	state := initializedState(t)
	next, _, err := AddRole(state, AddRolePayload{ID: "src", Name: "s", Purpose: "p", Responsibilities: []string{"x"}})
	if err != nil {
		t.Fatalf("add src: %v", err)
	}
	next, _, err = AddRole(next, AddRolePayload{ID: "dst", Name: "d", Purpose: "q", Responsibilities: []string{"y"}})
	if err != nil {
		t.Fatalf("add dst: %v", err)
	}
	next, result, err := CompressRoles(next, CompressRolesPayload{SourceRoleID: "src", TargetRoleID: "dst"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.CompressionExecuted {
		t.Fatal("expected compression executed")
	}
	src, _ := next.Roles.Get("src")
	if src.Active {
		t.Fatal("expected source role deactivated")
	}
	dst, _ := next.Roles.Get("dst")
	if len(dst.Responsibilities) != 2 {
		t.Fatalf("expected merged responsibilities, got %v", dst.Responsibilities)
	}
}

func TestCompressRolesRespectsLimit(t *testing.T) {
	state := initializedState(t)
	state, _, _ = AddRole(state, AddRolePayload{ID: "a", Name: "a", Purpose: "p"})
	state, _, _ = AddRole(state, AddRolePayload{ID: "b", Name: "b", Purpose: "p"})
	state, _, _ = AddRole(state, AddRolePayload{ID: "c", Name: "c", Purpose: "p"})
	state, _, _ = AddRole(state, AddRolePayload{ID: "d", Name: "d", Purpose: "p"})
	state, _, _ = AddRole(state, AddRolePayload{ID: "target", Name: "t", Purpose: "p"})

	state, _, err := CompressRoles(state, CompressRolesPayload{SourceRoleID: "a", TargetRoleID: "target"})
	if err != nil {
		t.Fatalf("first compression: %v", err)
	}
	state, _, err = CompressRoles(state, CompressRolesPayload{SourceRoleID: "b", TargetRoleID: "target"})
	if err != nil {
		t.Fatalf("second compression: %v", err)
	}
	_, _, err = CompressRoles(state, CompressRolesPayload{SourceRoleID: "c", TargetRoleID: "target"})
	if err == nil || err.Code != kernelerrors.CompressionLimit {
		t.Fatalf("expected CompressionLimit on third compression, got %v", err)
	}
}
