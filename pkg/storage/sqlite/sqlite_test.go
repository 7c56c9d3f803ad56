package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/umafamily/affinity/pkg/relation"
	"github.com/umafamily/affinity/pkg/search"
	"github.com/umafamily/affinity/pkg/storage"
	"github.com/umafamily/affinity/pkg/storage/jsonfile"
	"github.com/umafamily/affinity/pkg/storage/sqlcommon"
	"github.com/umafamily/affinity/pkg/types"
)

func newTestDatastore(t *testing.T) *sqlcommon.Datastore {
	t.Helper()

	uri := "file:" + filepath.Join(t.TempDir(), "affinity.db")
	err := NewMigrationProvider().RunMigrations(context.Background(), storage.MigrationConfig{
		Engine: engine,
		URI:    uri,
	})
	require.NoError(t, err)

	ds, err := New(uri, sqlcommon.NewConfig())
	require.NoError(t, err)
	t.Cleanup(ds.Close)
	return ds
}

func testDataset() *storage.Dataset {
	return &storage.Dataset{
		Entities: []types.Entity{
			{ID: 1003, Name: "Tokai Teio"},
			{ID: 1001, Name: "Special Week"},
			{ID: 1002, Name: "Silence Suzuka"},
		},
		Rules: []types.RelationRule{
			{RelationType: "200", Points: 3},
			{RelationType: "100", Points: 10},
		},
		Groups: []types.RelationGroup{
			{RelationType: "100", EntityID: 1001},
			{RelationType: "100", EntityID: 1002},
			{RelationType: "100", EntityID: 1001},
			{RelationType: "200", EntityID: 1003},
		},
	}
}

func TestSQLiteDatastore(t *testing.T) {
	ctx := context.Background()
	ds := newTestDatastore(t)

	t.Run("empty", func(t *testing.T) {
		d, err := storage.Load(ctx, ds)
		require.NoError(t, err)
		require.Empty(t, d.Entities)
		require.Empty(t, d.Rules)
		require.Empty(t, d.Groups)
	})

	t.Run("write_and_load", func(t *testing.T) {
		require.NoError(t, ds.WriteDataset(ctx, testDataset()))

		d, err := storage.Load(ctx, ds)
		require.NoError(t, err)
		require.Equal(t, testDataset().Entities, d.Entities)
		require.Equal(t, testDataset().Rules, d.Rules)
		require.Equal(t, []types.RelationGroup{
			{RelationType: "100", EntityID: 1001},
			{RelationType: "100", EntityID: 1002},
			{RelationType: "200", EntityID: 1003},
		}, d.Groups)
	})

	t.Run("owned_roster", func(t *testing.T) {
		require.NoError(t, ds.SetOwned(ctx, []types.EntityID{1003, 1001, 9999}))

		entities, err := ds.ReadEntities(ctx)
		require.NoError(t, err)
		require.Equal(t, []types.Entity{{ID: 1003, Name: "Tokai Teio"}, {ID: 1001, Name: "Special Week"}}, entities)
	})

	t.Run("rewrite_keeps_owned", func(t *testing.T) {
		require.NoError(t, ds.WriteDataset(ctx, testDataset()))

		entities, err := ds.ReadEntities(ctx)
		require.NoError(t, err)
		require.Len(t, entities, 2)
	})

	t.Run("clear_roster", func(t *testing.T) {
		require.NoError(t, ds.SetOwned(ctx, nil))

		entities, err := ds.ReadEntities(ctx)
		require.NoError(t, err)
		require.Len(t, entities, 3)
	})
}

func TestSearchResultSurvivesRoundTrip(t *testing.T) {
	ctx := context.Background()

	// Every pair scores 0, so the kept families depend on character order only.
	want := &storage.Dataset{
		Entities: []types.Entity{
			{ID: 1, Name: "focal"},
			{ID: 5, Name: "e"},
			{ID: 4, Name: "d"},
			{ID: 3, Name: "c"},
			{ID: 2, Name: "b"},
		},
		Rules: []types.RelationRule{{RelationType: "unused", Points: 10}},
	}

	jsonDir := t.TempDir()
	jsonDS, err := jsonfile.New(jsonDir)
	require.NoError(t, err)
	require.NoError(t, jsonDS.WriteDataset(ctx, want))
	fromJSON, err := storage.Load(ctx, jsonDS)
	require.NoError(t, err)

	sqliteDS := newTestDatastore(t)
	require.NoError(t, sqliteDS.WriteDataset(ctx, fromJSON))
	fromSQLite, err := storage.Load(ctx, sqliteDS)
	require.NoError(t, err)

	require.Equal(t, want.Entities, fromJSON.Entities)
	require.Equal(t, want.Entities, fromSQLite.Entities)
	require.Equal(t, want.Fingerprint(), fromSQLite.Fingerprint())

	run := func(d *storage.Dataset) []types.Assignment {
		index, err := relation.Build(d.Groups, relation.WithKnownRelationTypes(relation.RelationTypesOf(d.Rules)...))
		require.NoError(t, err)
		results, err := search.New(search.WithWorkers(1), search.WithTopK(1)).Search(ctx, search.Input{
			Entities: d.Entities,
			Rules:    d.Rules,
			Index:    index,
			Focal:    1,
		})
		require.NoError(t, err)
		return results
	}

	expected := run(want)
	require.Equal(t, []types.Assignment{{O: 5, Z: 4, J: 3, K: 4, X: 5, Y: 3}}, expected)
	require.Equal(t, expected, run(fromJSON))
	require.Equal(t, expected, run(fromSQLite))
}

func TestMigrationVersion(t *testing.T) {
	ctx := context.Background()
	uri := "file:" + filepath.Join(t.TempDir(), "affinity.db")
	provider := NewMigrationProvider()
	cfg := storage.MigrationConfig{Engine: engine, URI: uri}

	require.Equal(t, engine, provider.GetSupportedEngine())
	require.NoError(t, provider.RunMigrations(ctx, cfg))

	version, err := provider.GetCurrentVersion(ctx, cfg)
	require.NoError(t, err)
	require.Equal(t, int64(1), version)

	// Running again is a no-op.
	require.NoError(t, provider.RunMigrations(ctx, cfg))
}

func TestPrepareDSN(t *testing.T) {
	tests := []struct {
		name string
		uri  string
		want string
	}{
		{
			name: "defaults",
			uri:  "file:affinity.db",
			want: "file:affinity.db?_pragma=journal_mode%28WAL%29&_pragma=busy_timeout%28100%29&_txlock=immediate",
		},
		{
			name: "keeps_explicit_values",
			uri:  "file:affinity.db?_pragma=journal_mode(DELETE)&_pragma=busy_timeout(500)&_txlock=deferred",
			want: "file:affinity.db?_pragma=journal_mode%28DELETE%29&_pragma=busy_timeout%28500%29&_txlock=deferred",
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got, err := PrepareDSN(test.uri)
			require.NoError(t, err)
			require.Equal(t, test.want, got)
		})
	}

	t.Run("invalid_query", func(t *testing.T) {
		_, err := PrepareDSN("file:affinity.db?%zz")
		require.Error(t, err)
	})
}

func TestBusyRetry(t *testing.T) {
	calls := 0
	boom := errors.New("boom")
	err := busyRetry(func() error {
		calls++
		return boom
	})
	require.ErrorIs(t, err, boom)
	require.Equal(t, 1, calls)

	calls = 0
	require.NoError(t, busyRetry(func() error {
		calls++
		return nil
	}))
	require.Equal(t, 1, calls)
}
