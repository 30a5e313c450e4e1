package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDotEnvMissingFile(t *testing.T) {
	err := LoadDotEnv(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)
}

func TestLoadDotEnvDoesNotOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("INTERMISSION_SECONDS=30\nHIVE_TEST_ONLY=from-file\n"), 0o644))
	t.Setenv("INTERMISSION_SECONDS", "20")

	require.NoError(t, LoadDotEnv(path))
	t.Cleanup(func() { _ = os.Unsetenv("HIVE_TEST_ONLY") })

	assert.Equal(t, "20", os.Getenv("INTERMISSION_SECONDS"))
	assert.Equal(t, "from-file", os.Getenv("HIVE_TEST_ONLY"))
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("INTERMISSION_SECONDS", "20")
	t.Setenv("LEAVE_GRACE_MS", "500")
	t.Setenv("STREAK_DECAY_SECONDS", "0.25")
	t.Setenv("DEFAULT_MAX_PLAYERS", "-4")
	t.Setenv("PICK_WORD_ATTEMPTS", "lots")
	t.Setenv("DATABASE_URL", "postgres://hive@localhost/hive")

	cfg := Load()
	assert.Equal(t, 20*time.Second, cfg.Intermission())
	assert.Equal(t, 500*time.Millisecond, cfg.LeaveGrace())
	assert.InDelta(t, 0.25, cfg.StreakDecaySeconds, 1e-9)
	assert.Equal(t, Default().DefaultMaxPlayers, cfg.DefaultMaxPlayers)
	assert.Equal(t, Default().PickWordAttempts, cfg.PickWordAttempts)
	assert.Equal(t, "postgres://hive@localhost/hive", cfg.DatabaseURL)
}
