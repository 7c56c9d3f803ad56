package importer

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/umafamily/affinity/cmd"
	"github.com/umafamily/affinity/cmd/util"
	"github.com/umafamily/affinity/pkg/config"
	"github.com/umafamily/affinity/pkg/logger"
	"github.com/umafamily/affinity/pkg/storage"
	"github.com/umafamily/affinity/pkg/storage/jsonfile"
	"github.com/umafamily/affinity/pkg/storage/migrate"
	"github.com/umafamily/affinity/pkg/storage/sqlcommon"
	"github.com/umafamily/affinity/pkg/storage/sqlite"
	"github.com/umafamily/affinity/pkg/types"
)

func writeSource(t *testing.T, withOwned bool) string {
	t.Helper()
	files := map[string]string{
		jsonfile.AvailableFile:      `[{"chara_id": 1001, "en_name": "Special Week"}, {"chara_id": 1002, "en_name": "Silence Suzuka"}, {"chara_id": 1003, "en_name": "Tokai Teio"}]`,
		jsonfile.RelationTypesFile:  `[{"relation_type": 1, "relation_point": 5}, {"relation_type": 2, "relation_point": 2}]`,
		jsonfile.RelationGroupsFile: `[{"relation_type": 1, "chara_id": 1001}, {"relation_type": 1, "chara_id": 1002}, {"relation_type": 2, "chara_id": 1003}]`,
	}
	if withOwned {
		files[jsonfile.OwnedFile] = `[{"char_id": 1001, "en_name": "Special Week"}, {"char_id": 1003, "en_name": "Tokai Teio"}]`
	}

	dir := t.TempDir()
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600))
	}
	return dir
}

func execute(t *testing.T, args ...string) error {
	t.Helper()
	root := cmd.NewRootCommand()
	root.AddCommand(NewImportCommand())
	root.SetArgs(append([]string{"import", "--log-level", "none"}, args...))
	return root.Execute()
}

func migratedSQLite(t *testing.T) string {
	t.Helper()
	uri := "file:" + filepath.Join(t.TempDir(), "affinity.db")
	require.NoError(t, migrate.RunMigrations(context.Background(), migrate.MigrationConfig{Engine: "sqlite", URI: uri}))
	return uri
}

func TestImportCommandIntoSQLite(t *testing.T) {
	util.PrepareTempConfigDir(t)
	ctx := context.Background()
	uri := migratedSQLite(t)

	require.NoError(t, execute(t, "--from", writeSource(t, true), "--datastore-engine", "sqlite", "--datastore-uri", uri))

	ds, err := sqlite.New(uri, sqlcommon.NewConfig())
	require.NoError(t, err)
	defer ds.Close()

	d, err := storage.Load(ctx, ds)
	require.NoError(t, err)
	require.Equal(t, []types.Entity{{ID: 1001, Name: "Special Week"}, {ID: 1003, Name: "Tokai Teio"}}, d.Entities)
	require.Equal(t, []types.RelationRule{{RelationType: "1", Points: 5}, {RelationType: "2", Points: 2}}, d.Rules)
	require.Len(t, d.Groups, 3)
}

func TestImportCommandSkipOwned(t *testing.T) {
	util.PrepareTempConfigDir(t)
	uri := migratedSQLite(t)

	require.NoError(t, execute(t, "--from", writeSource(t, true), "--skip-owned", "--datastore-engine", "sqlite", "--datastore-uri", uri))

	ds, err := sqlite.New(uri, sqlcommon.NewConfig())
	require.NoError(t, err)
	defer ds.Close()

	entities, err := ds.ReadEntities(context.Background())
	require.NoError(t, err)
	require.Len(t, entities, 3)
}

func TestImportCommandIntoJSONDirectory(t *testing.T) {
	util.PrepareTempConfigDir(t)
	target := t.TempDir()

	require.NoError(t, execute(t, "--from", writeSource(t, false), "--datastore-uri", target))

	ds, err := jsonfile.New(target)
	require.NoError(t, err)
	d, err := storage.Load(context.Background(), ds)
	require.NoError(t, err)
	require.Len(t, d.Entities, 3)

	_, err = ds.ReadOwned(context.Background())
	require.ErrorIs(t, err, storage.ErrNotFound)
}

func TestImportCommandErrors(t *testing.T) {
	util.PrepareTempConfigDir(t)

	t.Run("missing_from", func(t *testing.T) {
		require.ErrorContains(t, execute(t), `required flag(s) "from" not set`)
	})

	t.Run("invalid_source", func(t *testing.T) {
		source := writeSource(t, false)
		require.NoError(t, os.WriteFile(filepath.Join(source, jsonfile.RelationGroupsFile), []byte(`{"not": "a list"}`), 0o600))
		err := execute(t, "--from", source, "--datastore-uri", t.TempDir())
		require.ErrorContains(t, err, "load "+source)
	})

	t.Run("unmigrated_sqlite", func(t *testing.T) {
		uri := "file:" + filepath.Join(t.TempDir(), "empty.db")
		err := execute(t, "--from", writeSource(t, false), "--datastore-engine", "sqlite", "--datastore-uri", uri)
		require.ErrorContains(t, err, "write dataset")
	})
}

func TestImportUnchangedRecordsAreNotRewritten(t *testing.T) {
	util.PrepareTempConfigDir(t)
	source := writeSource(t, false)
	target := t.TempDir()

	require.NoError(t, execute(t, "--from", source, "--datastore-uri", target))
	path := filepath.Join(target, jsonfile.AvailableFile)
	before, err := os.Stat(path)
	require.NoError(t, err)

	observed, logs := logger.NewObserverLogger("info")
	require.NoError(t, Import(context.Background(), source, config.DatastoreConfig{Engine: "json", URI: target}, true, observed))
	require.Equal(t, 1, logs.FilterMessage("records unchanged, skipping write").Len())

	after, err := os.Stat(path)
	require.NoError(t, err)
	require.Equal(t, before.ModTime(), after.ModTime())
}

func TestImportReorderedCharactersAreRewritten(t *testing.T) {
	util.PrepareTempConfigDir(t)
	source := writeSource(t, false)
	target := t.TempDir()
	require.NoError(t, execute(t, "--from", source, "--datastore-uri", target))

	reordered := `[{"chara_id": 1003, "en_name": "Tokai Teio"}, {"chara_id": 1002, "en_name": "Silence Suzuka"}, {"chara_id": 1001, "en_name": "Special Week"}]`
	require.NoError(t, os.WriteFile(filepath.Join(source, jsonfile.AvailableFile), []byte(reordered), 0o600))

	observed, logs := logger.NewObserverLogger("info")
	require.NoError(t, Import(context.Background(), source, config.DatastoreConfig{Engine: "json", URI: target}, true, observed))
	require.Equal(t, 1, logs.FilterMessage("imported records").Len())

	ds, err := jsonfile.New(target)
	require.NoError(t, err)
	entities, err := ds.ReadEntities(context.Background())
	require.NoError(t, err)
	require.Equal(t, []types.EntityID{1003, 1002, 1001}, types.EntityIDs(entities))
}
