package storage

import (
	"cmp"
	"slices"
	"strconv"

	"github.com/cespare/xxhash/v2"

	"github.com/umafamily/affinity/pkg/types"
)

// Fingerprint returns a stable hash of the records of d. Characters are
// hashed in record order, since that order breaks pair score ties. The order
// of rules and group records does not change the result.
func (d *Dataset) Fingerprint() uint64 {
	rules := slices.SortedFunc(slices.Values(d.Rules), func(a, b types.RelationRule) int {
		return cmp.Or(cmp.Compare(a.RelationType, b.RelationType), cmp.Compare(a.Points, b.Points))
	})
	groups := slices.SortedFunc(slices.Values(DedupeGroups(d.Groups)), func(a, b types.RelationGroup) int {
		return cmp.Or(cmp.Compare(a.RelationType, b.RelationType), cmp.Compare(a.EntityID, b.EntityID))
	})

	h := xxhash.New()
	// Digest writes never fail.
	write := func(fields ...string) {
		for _, f := range fields {
			_, _ = h.WriteString(f)
			_, _ = h.Write([]byte{0})
		}
	}

	write("entities")
	for _, e := range d.Entities {
		write(e.ID.String(), e.Name)
	}
	write("rules")
	for _, r := range rules {
		write(string(r.RelationType), strconv.Itoa(r.Points))
	}
	write("groups")
	for _, g := range groups {
		write(string(g.RelationType), g.EntityID.String())
	}
	return h.Sum64()
}
