package org

import "sort"

// RoleSet is an insertion-ordered map of Role keyed by id. Go maps have
// undefined iteration order, so every place the kernel needs "all roles" in
// a stable order goes through this type instead of a bare map — per the
// design notes' "map-based state with insertion-order iteration" rule.
type RoleSet struct {
	order []string
	byID  map[string]Role
}

// NewRoleSet returns an empty RoleSet.
func NewRoleSet() *RoleSet {
	return &RoleSet{byID: make(map[string]Role)}
}

// Clone deep-copies the set, including insertion order.
func (s *RoleSet) Clone() *RoleSet {
	out := NewRoleSet()
	out.order = append([]string(nil), s.order...)
	for id, r := range s.byID {
		out.byID[id] = r.Clone()
	}
	return out
}

// Get returns the role and whether it exists.
func (s *RoleSet) Get(id string) (Role, bool) {
	r, ok := s.byID[id]
	return r, ok
}

// Has reports whether id is present (active or not).
func (s *RoleSet) Has(id string) bool {
	_, ok := s.byID[id]
	return ok
}

// Put inserts or replaces a role. New ids are appended to the insertion
// order; replacing an existing id preserves its original position.
func (s *RoleSet) Put(r Role) {
	if _, exists := s.byID[r.ID]; !exists {
		s.order = append(s.order, r.ID)
	}
	s.byID[r.ID] = r
}

// Delete removes a role entirely (used only by remove_role, never by
// deactivation via compress_roles, which keeps the row with Active=false).
func (s *RoleSet) Delete(id string) {
	if _, exists := s.byID[id]; !exists {
		return
	}
	delete(s.byID, id)
	for i, existing := range s.order {
		if existing == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}

// InsertionOrder returns role ids in the order they were first inserted.
func (s *RoleSet) InsertionOrder() []string {
	return append([]string(nil), s.order...)
}

// CanonicalOrder returns role ids in lexicographic order — the order every
// deterministic algorithm (cycle detection, clustering, round-robin
// re-pointing) must iterate in, per spec §4.3 and §4.6.
func (s *RoleSet) CanonicalOrder() []string {
	ids := append([]string(nil), s.order...)
	sort.Strings(ids)
	return ids
}

// Len returns the number of roles (active and inactive).
func (s *RoleSet) Len() int { return len(s.order) }

// ActiveIDs returns active role ids in canonical (lexicographic) order.
func (s *RoleSet) ActiveIDs() []string {
	var out []string
	for _, id := range s.CanonicalOrder() {
		if r := s.byID[id]; r.Active {
			out = append(out, id)
		}
	}
	return out
}

// All returns every role in canonical order (used by the serializer).
func (s *RoleSet) All() []Role {
	out := make([]Role, 0, len(s.order))
	for _, id := range s.CanonicalOrder() {
		out = append(out, s.byID[id])
	}
	return out
}
