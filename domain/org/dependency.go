package org

// DependencyType is the edge kind between two roles.
type DependencyType string

const (
	DependencyOperational  DependencyType = "operational"
	DependencyInformational DependencyType = "informational"
	DependencyGovernance   DependencyType = "governance"
)

// Dependency is a directed edge; a weak reference by role id (spec §3
// Relationships).
type Dependency struct {
	FromRoleID     string         `json:"from_role_id"`
	ToRoleID       string         `json:"to_role_id"`
	DependencyType DependencyType `json:"dependency_type"`
	Critical       bool           `json:"critical"`
}

// Key identifies a dependency for duplicate detection: (from,to,type).
func (d Dependency) Key() [3]string {
	return [3]string{d.FromRoleID, d.ToRoleID, string(d.DependencyType)}
}

// Less implements the canonical dependency ordering from spec §4.1:
// (from_role_id, to_role_id, dependency_type).
func (d Dependency) Less(o Dependency) bool {
	if d.FromRoleID != o.FromRoleID {
		return d.FromRoleID < o.FromRoleID
	}
	if d.ToRoleID != o.ToRoleID {
		return d.ToRoleID < o.ToRoleID
	}
	return d.DependencyType < o.DependencyType
}
