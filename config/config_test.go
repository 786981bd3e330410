package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	require.NoError(t, err)

	require.Equal(t, "recall.sqlite", cfg.DatabaseFile)
	require.Equal(t, "localhost:7654", cfg.ListenAddr)
	require.Equal(t, "http://localhost:7654", cfg.ServerUrl)
	require.Equal(t, "default", cfg.DefaultUser)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "recall.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"database_file": "elsewhere.sqlite",
		"default_user": "alice"
	}`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	require.Equal(t, "elsewhere.sqlite", cfg.DatabaseFile)
	require.Equal(t, "alice", cfg.DefaultUser)

	// unset keys keep their defaults
	require.Equal(t, "localhost:7654", cfg.ListenAddr)
}

func TestLoadBadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "recall.json")
	require.NoError(t, os.WriteFile(path, []byte(`{not json`), 0o644))

	_, err := Load(path)
	require.Error(t, err)
}

func TestEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "recall.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"database_file": "from-file.sqlite"}`), 0o644))

	t.Setenv("RECALL_DB", "from-env.sqlite")
	t.Setenv("RECALL_SERVER", "http://remote:7654")

	cfg, err := Load(path)
	require.NoError(t, err)

	require.Equal(t, "from-env.sqlite", cfg.DatabaseFile)
	require.Equal(t, "http://remote:7654", cfg.ServerUrl)
}

func TestWatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "recall.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"database_file": "one.sqlite"}`), 0o644))

	changes := make(chan *Config, 1)
	require.NoError(t, Watch(t.Context(), path, func(cfg *Config) {
		select {
		case changes <- cfg:
		default:
		}
	}))

	require.NoError(t, os.WriteFile(path, []byte(`{"database_file": "two.sqlite"}`), 0o644))

	select {
	case cfg := <-changes:
		require.Equal(t, "two.sqlite", cfg.DatabaseFile)
	case <-time.After(5 * time.Second):
		t.Fatal("no config change seen")
	}
}
