package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/umafamily/affinity/pkg/storage"
	"github.com/umafamily/affinity/pkg/types"
)

func testDataset() *storage.Dataset {
	return &storage.Dataset{
		Entities: []types.Entity{{ID: 1, Name: "Special Week"}, {ID: 2, Name: "Silence Suzuka"}, {ID: 3, Name: "Tokai Teio"}},
		Rules:    []types.RelationRule{{RelationType: "101", Points: 10}},
		Groups:   []types.RelationGroup{{RelationType: "101", EntityID: 1}, {RelationType: "101", EntityID: 2}},
	}
}

func TestMemoryBackend(t *testing.T) {
	ctx := context.Background()

	t.Run("empty", func(t *testing.T) {
		ds := New()
		entities, err := ds.ReadEntities(ctx)
		require.NoError(t, err)
		require.Empty(t, entities)
	})

	t.Run("seeded", func(t *testing.T) {
		ds := New(WithDataset(testDataset()))
		d, err := storage.Load(ctx, ds)
		require.NoError(t, err)
		require.Equal(t, testDataset(), d)
	})

	t.Run("owned_roster_filters_entities", func(t *testing.T) {
		ds := New(WithDataset(testDataset()))
		require.NoError(t, ds.SetOwned(ctx, []types.EntityID{3, 1}))

		entities, err := ds.ReadEntities(ctx)
		require.NoError(t, err)
		require.Equal(t, []types.Entity{{ID: 1, Name: "Special Week"}, {ID: 3, Name: "Tokai Teio"}}, entities)

		require.NoError(t, ds.SetOwned(ctx, nil))
		entities, err = ds.ReadEntities(ctx)
		require.NoError(t, err)
		require.Len(t, entities, 3)
	})

	t.Run("write_replaces_dataset", func(t *testing.T) {
		ds := New(WithDataset(testDataset()))
		require.NoError(t, ds.WriteDataset(ctx, &storage.Dataset{
			Entities: []types.Entity{{ID: 9, Name: "Oguri Cap"}},
		}))

		entities, err := ds.ReadEntities(ctx)
		require.NoError(t, err)
		require.Equal(t, []types.Entity{{ID: 9, Name: "Oguri Cap"}}, entities)

		rules, err := ds.ReadRelationRules(ctx)
		require.NoError(t, err)
		require.Empty(t, rules)
	})

	t.Run("returns_copies", func(t *testing.T) {
		ds := New(WithDataset(testDataset()))
		entities, err := ds.ReadEntities(ctx)
		require.NoError(t, err)
		entities[0].Name = "changed"

		again, err := ds.ReadEntities(ctx)
		require.NoError(t, err)
		require.Equal(t, "Special Week", again[0].Name)
	})
}
