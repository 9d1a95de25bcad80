package cli

import (
	"context"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSetupLogger(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	logger := SetupLogger("debug")
	require.True(t, logger.Enabled(context.Background(), slog.LevelDebug))
	require.True(t, slog.Default().Enabled(context.Background(), slog.LevelDebug))

	logger = SetupLogger("error")
	require.False(t, logger.Enabled(context.Background(), slog.LevelWarn))
}

func TestInitSQLite(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	repo := InitSQLite(SetupLogger("error"), filepath.Join(t.TempDir(), "fintrack.db"))
	t.Cleanup(func() { _ = repo.Close() })
	require.NoError(t, repo.Ping(context.Background()))
}
