package cli

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rewards/internal/log"
)

func TestLoadEnvFile(t *testing.T) {
	assert.NoError(t, LoadEnvFile(filepath.Join(t.TempDir(), "missing.env")))

	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("REWARDS_CLI_TEST=from-file\n"), 0o600))
	t.Setenv("REWARDS_CLI_TEST", "")
	require.NoError(t, os.Unsetenv("REWARDS_CLI_TEST"))

	require.NoError(t, LoadEnvFile(path))
	assert.Equal(t, "from-file", os.Getenv("REWARDS_CLI_TEST"))
}

func TestLoadConfig(t *testing.T) {
	t.Setenv("PORT", "8080")
	t.Setenv("DATA_BACKEND", "memory")
	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "memory", cfg.DataBackend)

	t.Setenv("DATA_BACKEND", "sheets")
	_, err = LoadConfig()
	assert.ErrorContains(t, err, "invalid data backend")
}

func TestSetupLogger(t *testing.T) {
	logger := SetupLogger("debug", "json")
	assert.Equal(t, log.ComponentApp, logger.Component())
	assert.True(t, logger.Enabled(context.Background(), log.ParseLevel("debug")))
}

func TestSignalContextCancel(t *testing.T) {
	ctx, cancel := SignalContext(context.Background(), log.Discard())
	cancel()
	select {
	case <-ctx.Done():
	case <-time.After(time.Second):
		t.Fatal("context not cancelled")
	}
}

func TestShutdownRunsEveryStep(t *testing.T) {
	var ran []string
	err := Shutdown(log.Discard(), time.Second,
		func(context.Context) error { ran = append(ran, "a"); return errors.New("a failed") },
		nil,
		func(ctx context.Context) error {
			ran = append(ran, "b")
			_, ok := ctx.Deadline()
			assert.True(t, ok)
			return nil
		},
	)
	assert.EqualError(t, err, "a failed")
	assert.Equal(t, []string{"a", "b"}, ran)
}
