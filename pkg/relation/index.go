// Package relation builds the relation type to member set index consulted by
// every scoring call.
package relation

import (
	"slices"

	affinityerrors "github.com/umafamily/affinity/pkg/errors"
	"github.com/umafamily/affinity/pkg/types"
)

// Index maps a relation type to the characters that belong to it. It is built
// once and is safe for concurrent reads.
type Index struct {
	groups map[types.RelationType]*Set
}

type Option func(*buildOptions)

type buildOptions struct {
	known map[types.RelationType]struct{}
}

// WithKnownRelationTypes makes Build reject any group record whose relation
// type is not one of types. Callers usually pass the types declared by the
// relation rules.
func WithKnownRelationTypes(relationTypes ...types.RelationType) Option {
	return func(o *buildOptions) {
		if o.known == nil {
			o.known = make(map[types.RelationType]struct{}, len(relationTypes))
		}
		for _, t := range relationTypes {
			o.known[t] = struct{}{}
		}
	}
}

// Build indexes groups. A record with an empty relation type, a zero entity id
// or, when WithKnownRelationTypes is given, an undeclared relation type fails
// the whole build with an error wrapping errors.ErrDataIntegrity.
func Build(groups []types.RelationGroup, opts ...Option) (*Index, error) {
	var o buildOptions
	for _, opt := range opts {
		opt(&o)
	}

	idx := &Index{groups: make(map[types.RelationType]*Set)}
	for i, g := range groups {
		if g.RelationType == "" {
			return nil, affinityerrors.DataIntegrityf("relation group record %d: missing relation type", i)
		}
		if g.EntityID == 0 {
			return nil, affinityerrors.DataIntegrityf("relation group record %d (%s): missing entity id", i, g.RelationType)
		}
		if o.known != nil {
			if _, ok := o.known[g.RelationType]; !ok {
				return nil, affinityerrors.DataIntegrityf("relation group record %d: unknown relation type %q", i, g.RelationType)
			}
		}

		set, ok := idx.groups[g.RelationType]
		if !ok {
			set = NewSet()
			idx.groups[g.RelationType] = set
		}
		set.Add(g.EntityID)
	}

	return idx, nil
}

// RelationTypesOf returns the distinct relation types referenced by rules.
func RelationTypesOf(rules []types.RelationRule) []types.RelationType {
	out := make([]types.RelationType, 0, len(rules))
	seen := make(map[types.RelationType]struct{}, len(rules))
	for _, r := range rules {
		if _, ok := seen[r.RelationType]; ok {
			continue
		}
		seen[r.RelationType] = struct{}{}
		out = append(out, r.RelationType)
	}
	return out
}

// Members returns the set for relationType, or nil when nobody belongs to it.
func (i *Index) Members(relationType types.RelationType) *Set {
	if i == nil {
		return nil
	}
	return i.groups[relationType]
}

// RelationTypes returns the indexed relation types in ascending order.
func (i *Index) RelationTypes() []types.RelationType {
	if i == nil {
		return nil
	}
	out := make([]types.RelationType, 0, len(i.groups))
	for t := range i.groups {
		out = append(out, t)
	}
	slices.Sort(out)
	return out
}

// Len returns the number of indexed relation types.
func (i *Index) Len() int {
	if i == nil {
		return 0
	}
	return len(i.groups)
}

// Equal reports whether both indexes hold the same membership sets,
// independently of insertion order.
func (i *Index) Equal(other *Index) bool {
	if i.Len() != other.Len() {
		return false
	}
	for _, t := range i.RelationTypes() {
		if !i.Members(t).Equal(other.Members(t)) {
			return false
		}
	}
	return true
}
