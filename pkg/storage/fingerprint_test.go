package storage_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/umafamily/affinity/pkg/storage"
	"github.com/umafamily/affinity/pkg/types"
)

func TestFingerprint(t *testing.T) {
	base := &storage.Dataset{
		Entities: []types.Entity{{ID: 1001, Name: "Special Week"}, {ID: 1002, Name: "Silence Suzuka"}},
		Rules:    []types.RelationRule{{RelationType: "1", Points: 5}, {RelationType: "2", Points: 3}},
		Groups:   []types.RelationGroup{{RelationType: "1", EntityID: 1001}, {RelationType: "1", EntityID: 1002}},
	}

	t.Run("rule_and_group_order_do_not_matter", func(t *testing.T) {
		reordered := &storage.Dataset{
			Entities: base.Entities,
			Rules:    []types.RelationRule{{RelationType: "2", Points: 3}, {RelationType: "1", Points: 5}},
			Groups: []types.RelationGroup{
				{RelationType: "1", EntityID: 1002},
				{RelationType: "1", EntityID: 1001},
				{RelationType: "1", EntityID: 1002},
			},
		}
		require.Equal(t, base.Fingerprint(), reordered.Fingerprint())
	})

	t.Run("character_order_matters", func(t *testing.T) {
		reordered := &storage.Dataset{
			Entities: []types.Entity{{ID: 1002, Name: "Silence Suzuka"}, {ID: 1001, Name: "Special Week"}},
			Rules:    base.Rules,
			Groups:   base.Groups,
		}
		require.NotEqual(t, base.Fingerprint(), reordered.Fingerprint())
	})

	t.Run("content_matters", func(t *testing.T) {
		renamed := &storage.Dataset{
			Entities: []types.Entity{{ID: 1001, Name: "Special Week"}, {ID: 1002, Name: "Tokai Teio"}},
			Rules:    base.Rules,
			Groups:   base.Groups,
		}
		require.NotEqual(t, base.Fingerprint(), renamed.Fingerprint())

		repointed := &storage.Dataset{
			Entities: base.Entities,
			Rules:    []types.RelationRule{{RelationType: "1", Points: 5}, {RelationType: "2", Points: 4}},
			Groups:   base.Groups,
		}
		require.NotEqual(t, base.Fingerprint(), repointed.Fingerprint())
	})

	t.Run("field_boundaries", func(t *testing.T) {
		a := &storage.Dataset{Rules: []types.RelationRule{{RelationType: "1", Points: 23}}}
		b := &storage.Dataset{Rules: []types.RelationRule{{RelationType: "12", Points: 3}}}
		require.NotEqual(t, a.Fingerprint(), b.Fingerprint())
	})
}
