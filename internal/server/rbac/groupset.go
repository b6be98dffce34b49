// Package rbac decides whether a user may pass a group-gated endpoint.
package rbac

import "sort"

// GroupSet is a set of group names.
type GroupSet map[string]struct{}

// NewGroupSet builds a set from names, dropping duplicates and empty names.
func NewGroupSet(names ...string) GroupSet {
	s := make(GroupSet, len(names))
	for _, n := range names {
		if n != "" {
			s[n] = struct{}{}
		}
	}
	return s
}

func (s GroupSet) Has(name string) bool {
	_, ok := s[name]
	return ok
}

// Intersect returns the names present in both sets.
func (s GroupSet) Intersect(other GroupSet) GroupSet {
	small, large := s, other
	if len(small) > len(large) {
		small, large = large, small
	}
	out := make(GroupSet)
	for n := range small {
		if large.Has(n) {
			out[n] = struct{}{}
		}
	}
	return out
}

// Union returns a new set holding the names of both sets.
func (s GroupSet) Union(other GroupSet) GroupSet {
	out := make(GroupSet, len(s)+len(other))
	for n := range s {
		out[n] = struct{}{}
	}
	for n := range other {
		out[n] = struct{}{}
	}
	return out
}

// Names returns the members in sorted order.
func (s GroupSet) Names() []string {
	names := make([]string, 0, len(s))
	for n := range s {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
