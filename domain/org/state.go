package org

import "sort"

// OrgState is the full value-semantics kernel state. Transitions never
// mutate a state in place; they build and return a new OrgState (spec §3
// Ownership, design notes "cascading removal... single atomic transition").
type OrgState struct {
	Constants       *DomainConstants
	Roles           *RoleSet
	Dependencies    []Dependency
	Constraints     ConstraintVector
	StructuralDebt  int64
	EventCount      int64
	PrevStateHash   string

	// CompressionCount is the number of compress_roles events applied so
	// far, checked against Constants.CompressionLimit (spec §4.3). It is
	// ordinary state, not derived from scanning roles for a marker.
	CompressionCount int64
}

// NewOrgState returns the zero state before any event has been applied.
func NewOrgState() OrgState {
	return OrgState{Roles: NewRoleSet()}
}

// Clone deep-copies the state, including the dependency slice and role set,
// so a transition's caller never observes a half-mutated prior state.
func (s OrgState) Clone() OrgState {
	out := s
	if s.Constants != nil {
		c := *s.Constants
		out.Constants = &c
	}
	out.Roles = s.Roles.Clone()
	out.Dependencies = append([]Dependency(nil), s.Dependencies...)
	return out
}

// SortDependencies reorders Dependencies into canonical order in place:
// (from_role_id, to_role_id, dependency_type), per spec §4.1.
func (s *OrgState) SortDependencies() {
	sort.Slice(s.Dependencies, func(i, j int) bool {
		return s.Dependencies[i].Less(s.Dependencies[j])
	})
}

// DependencyExists reports whether (from,to,depType) is already present.
func (s OrgState) DependencyExists(key [3]string) bool {
	for _, d := range s.Dependencies {
		if d.Key() == key {
			return true
		}
	}
	return false
}

// TransitionResult is the read-only outcome attached to an applied event,
// per spec §3.
type TransitionResult struct {
	EventType               string `json:"event_type"`
	PrimaryDebt             int64  `json:"primary_debt"`
	SecondaryDebt           int64  `json:"secondary_debt"`
	TargetDensity           int64  `json:"target_density"`
	SuppressedDifferentiation bool `json:"suppressed_differentiation"`
	DifferentiationExecuted bool   `json:"differentiation_executed"`
	DifferentiationSkipped  bool   `json:"differentiation_skipped"`
	CompressionExecuted     bool   `json:"compression_executed"`
	Deactivated             []string `json:"deactivated,omitempty"`
	Reason                  string `json:"reason"`
	CumulativeDebt          int64  `json:"cumulative_debt"`
}

// Snapshot is an advisory, point-in-time export of state; never injected
// into replay (spec §3).
type Snapshot struct {
	Sequence      int64  `json:"sequence"`
	CanonicalJSON []byte `json:"canonical_json"`
	StateHash     string `json:"state_hash"`
	CreatedAt     string `json:"created_at"`
}
