// Package util provides common utilities for spf13/cobra CLI utilities
// that can be used for various commands within this project.
package util

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"

	"github.com/umafamily/affinity/pkg/config"
)

// MustBindPFlag attempts to bind a specific key to a pflag (as used by cobra) and panics
// if the binding fails with a non-nil error.
func MustBindPFlag(key string, flag *pflag.Flag) {
	if err := viper.BindPFlag(key, flag); err != nil {
		panic("failed to bind pflag: " + err.Error())
	}
}

func MustBindEnv(input ...string) {
	if err := viper.BindEnv(input...); err != nil {
		panic("failed to bind env key: " + err.Error())
	}
}

// ReadConfig returns the configuration based on the values provided in the 'config.yaml' file,
// the environment and the bound flags. The 'config.yaml' file is loaded from '/etc/affinity',
// '$HOME/.affinity', or the current working directory. If no configuration file is present,
// the default values are returned.
func ReadConfig() (*config.Config, error) {
	cfg := config.DefaultConfig()

	viper.SetTypeByDefaultValue(true)
	err := viper.ReadInConfig()
	if err != nil {
		if !errors.As(err, &viper.ConfigFileNotFoundError{}) {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
	}

	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return cfg, nil
}

// AddDatastoreFlags registers the datastore flags on flags.
func AddDatastoreFlags(flags *pflag.FlagSet) {
	defaultConfig := config.DefaultConfig()

	flags.String("datastore-engine", defaultConfig.Datastore.Engine, fmt.Sprintf("the datastore engine the records are read from, one of %v", config.Engines))
	flags.String("datastore-uri", defaultConfig.Datastore.URI, "the directory or http(s) base URL for 'json', the connection uri for the SQL engines")
	flags.Int("datastore-max-open-conns", defaultConfig.Datastore.MaxOpenConns, "the maximum number of open connections to the datastore")
	flags.Int("datastore-max-idle-conns", defaultConfig.Datastore.MaxIdleConns, "the maximum number of connections to the datastore in the idle connection pool")
	flags.Duration("datastore-conn-max-idle-time", defaultConfig.Datastore.ConnMaxIdleTime, "the maximum amount of time a connection to the datastore may be idle")
	flags.Duration("datastore-conn-max-lifetime", defaultConfig.Datastore.ConnMaxLifetime, "the maximum amount of time a connection to the datastore may be reused")
	flags.Duration("datastore-conn-timeout", defaultConfig.Datastore.ConnTimeout, "how long to wait for the datastore to accept connections")
	flags.Bool("datastore-metrics-enabled", defaultConfig.Datastore.Metrics.Enabled, "enable/disable sql metrics for the datastore")
}

// BindDatastoreFlags binds the flags of AddDatastoreFlags to their config keys.
func BindDatastoreFlags(flags *pflag.FlagSet) {
	MustBindPFlag("datastore.engine", flags.Lookup("datastore-engine"))
	MustBindEnv("datastore.engine", "AFFINITY_DATASTORE_ENGINE")

	MustBindPFlag("datastore.uri", flags.Lookup("datastore-uri"))
	MustBindEnv("datastore.uri", "AFFINITY_DATASTORE_URI")

	MustBindPFlag("datastore.maxOpenConns", flags.Lookup("datastore-max-open-conns"))
	MustBindEnv("datastore.maxOpenConns", "AFFINITY_DATASTORE_MAX_OPEN_CONNS", "AFFINITY_DATASTORE_MAXOPENCONNS")

	MustBindPFlag("datastore.maxIdleConns", flags.Lookup("datastore-max-idle-conns"))
	MustBindEnv("datastore.maxIdleConns", "AFFINITY_DATASTORE_MAX_IDLE_CONNS", "AFFINITY_DATASTORE_MAXIDLECONNS")

	MustBindPFlag("datastore.connMaxIdleTime", flags.Lookup("datastore-conn-max-idle-time"))
	MustBindEnv("datastore.connMaxIdleTime", "AFFINITY_DATASTORE_CONN_MAX_IDLE_TIME", "AFFINITY_DATASTORE_CONNMAXIDLETIME")

	MustBindPFlag("datastore.connMaxLifetime", flags.Lookup("datastore-conn-max-lifetime"))
	MustBindEnv("datastore.connMaxLifetime", "AFFINITY_DATASTORE_CONN_MAX_LIFETIME", "AFFINITY_DATASTORE_CONNMAXLIFETIME")

	MustBindPFlag("datastore.connTimeout", flags.Lookup("datastore-conn-timeout"))
	MustBindEnv("datastore.connTimeout", "AFFINITY_DATASTORE_CONN_TIMEOUT", "AFFINITY_DATASTORE_CONNTIMEOUT")

	MustBindPFlag("datastore.metrics.enabled", flags.Lookup("datastore-metrics-enabled"))
	MustBindEnv("datastore.metrics.enabled", "AFFINITY_DATASTORE_METRICS_ENABLED")
}

// AddLogFlags registers the logging flags on flags.
func AddLogFlags(flags *pflag.FlagSet) {
	defaultConfig := config.DefaultConfig()

	flags.String("log-format", defaultConfig.Log.Format, "the log format to output logs in")
	flags.String("log-level", defaultConfig.Log.Level, "the log level to use")
}

// BindLogFlags binds the flags of AddLogFlags to their config keys.
func BindLogFlags(flags *pflag.FlagSet) {
	MustBindPFlag("log.format", flags.Lookup("log-format"))
	MustBindEnv("log.format", "AFFINITY_LOG_FORMAT")

	MustBindPFlag("log.level", flags.Lookup("log-level"))
	MustBindEnv("log.level", "AFFINITY_LOG_LEVEL")
}

// PrepareTempConfigDir resets viper and points $HOME at an empty temporary
// config directory. Call it before building the root command.
func PrepareTempConfigDir(t *testing.T) string {
	viper.Reset()

	_, err := os.Stat("/etc/affinity/config.yaml")
	require.ErrorIs(t, err, os.ErrNotExist, "Config file at /etc/affinity/config.yaml would disturb test result.")

	homedir := t.TempDir()
	t.Setenv("HOME", homedir)

	confdir := filepath.Join(homedir, ".affinity")
	require.NoError(t, os.Mkdir(confdir, 0750))

	return confdir
}

func PrepareTempConfigFile(t *testing.T, config string) {
	confdir := PrepareTempConfigDir(t)
	confFile, err := os.Create(filepath.Join(confdir, "config.yaml"))
	require.NoError(t, err)
	_, err = confFile.WriteString(config)
	require.NoError(t, err)
	require.NoError(t, confFile.Close())
}
