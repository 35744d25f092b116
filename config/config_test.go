package config_test

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mycophonic/raop/config"
)

func TestLoadReadsEnvironment(t *testing.T) {
	t.Setenv("RAOP_CONTROL_PORT", "6001")
	t.Setenv("RAOP_DATA_PORT", "6002")
	t.Setenv("RAOP_SESSION_ID", "sess-42")
	t.Setenv("RAOP_MIRRORING", "true")
	t.Setenv("RAOP_DUMP_PATH", "/tmp/raop-dump")

	cfg := config.Load()

	require.Equal(t, 6001, cfg.ControlPort)
	require.Equal(t, 6002, cfg.DataPort)
	require.Equal(t, "sess-42", cfg.SessionID)
	require.True(t, cfg.IsMirroring)
	require.Equal(t, "/tmp/raop-dump", cfg.DumpPath)
}

func TestLoadDefaultsWhenUnset(t *testing.T) {
	t.Setenv("RAOP_CONTROL_PORT", "")
	t.Setenv("RAOP_MIRRORING", "")

	cfg := config.Load()

	require.Equal(t, 0, cfg.ControlPort)
	require.False(t, cfg.IsMirroring)
}

func TestLoadEnvFileSeedsEnvironment(t *testing.T) {
	t.Cleanup(func() {
		os.Unsetenv("RAOP_SESSION_ID")
		os.Unsetenv("RAOP_MIRRORING")
	})

	dir := t.TempDir()
	path := dir + "/session.env"

	contents := "RAOP_SESSION_ID=\"from-file\"\n# a comment\nRAOP_MIRRORING=yes\n"
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))
	require.NoError(t, config.LoadEnvFile(path))

	cfg := config.Load()
	require.Equal(t, "from-file", cfg.SessionID)
	require.True(t, cfg.IsMirroring)
}

func TestLoadEnvFileMissingIsNotAnError(t *testing.T) {
	require.NoError(t, config.LoadEnvFile("/nonexistent/path.env"))
}
