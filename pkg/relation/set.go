package relation

import (
	"slices"

	"github.com/umafamily/affinity/pkg/types"
)

// Set is a deduplicated membership set with constant time lookups.
// The zero value and the nil pointer are both valid empty sets.
type Set struct {
	members map[types.EntityID]struct{}
}

// NewSet returns a set holding ids.
func NewSet(ids ...types.EntityID) *Set {
	s := &Set{members: make(map[types.EntityID]struct{}, len(ids))}
	for _, id := range ids {
		s.Add(id)
	}
	return s
}

// Add inserts id. Adding an existing member is a no-op.
func (s *Set) Add(id types.EntityID) {
	if s.members == nil {
		s.members = make(map[types.EntityID]struct{})
	}
	s.members[id] = struct{}{}
}

// Contains reports whether id is a member.
func (s *Set) Contains(id types.EntityID) bool {
	if s == nil {
		return false
	}
	_, ok := s.members[id]
	return ok
}

func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	return len(s.members)
}

// Values returns the members in ascending order.
func (s *Set) Values() []types.EntityID {
	if s == nil {
		return nil
	}
	values := make([]types.EntityID, 0, len(s.members))
	for id := range s.members {
		values = append(values, id)
	}
	slices.Sort(values)
	return values
}

// Equal reports whether s and other hold the same members.
func (s *Set) Equal(other *Set) bool {
	if s.Len() != other.Len() {
		return false
	}
	if s == nil {
		return true
	}
	for id := range s.members {
		if !other.Contains(id) {
			return false
		}
	}
	return true
}
