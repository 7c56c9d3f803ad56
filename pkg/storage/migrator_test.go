package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

type stubMigrationProvider struct {
	engine string
}

func (s *stubMigrationProvider) GetSupportedEngine() string {
	return s.engine
}

func (s *stubMigrationProvider) RunMigrations(context.Context, MigrationConfig) error {
	return nil
}

func (s *stubMigrationProvider) GetCurrentVersion(context.Context, MigrationConfig) (int64, error) {
	return 1, nil
}

func TestMigratorRegistry(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		registry := NewMigratorRegistry()
		require.Empty(t, registry.GetSupportedEngines())

		_, ok := registry.GetProvider("sqlite")
		require.False(t, ok)
	})

	t.Run("register_and_get", func(t *testing.T) {
		registry := NewMigratorRegistry()
		provider := &stubMigrationProvider{engine: "sqlite"}
		registry.RegisterProvider("sqlite", provider)

		got, ok := registry.GetProvider("sqlite")
		require.True(t, ok)
		require.Same(t, provider, got)
	})

	t.Run("engines_are_sorted", func(t *testing.T) {
		registry := NewMigratorRegistry()
		registry.RegisterProvider("sqlite", &stubMigrationProvider{engine: "sqlite"})
		registry.RegisterProvider("mysql", &stubMigrationProvider{engine: "mysql"})
		registry.RegisterProvider("postgres", &stubMigrationProvider{engine: "postgres"})

		require.Equal(t, []string{"mysql", "postgres", "sqlite"}, registry.GetSupportedEngines())
	})

	t.Run("override", func(t *testing.T) {
		registry := NewMigratorRegistry()
		first := &stubMigrationProvider{engine: "sqlite"}
		second := &stubMigrationProvider{engine: "sqlite"}
		registry.RegisterProvider("sqlite", first)
		registry.RegisterProvider("sqlite", second)

		got, ok := registry.GetProvider("sqlite")
		require.True(t, ok)
		require.Same(t, second, got)
	})
}
