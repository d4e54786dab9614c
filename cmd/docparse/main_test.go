package main

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSetupLogger_Levels(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	require.True(t, setupLogger(envLocal).Enabled(ctx, slog.LevelDebug))
	require.True(t, setupLogger(envDev).Enabled(ctx, slog.LevelDebug))

	require.False(t, setupLogger(envProd).Enabled(ctx, slog.LevelDebug))
	require.True(t, setupLogger(envProd).Enabled(ctx, slog.LevelInfo))

	// Неизвестное окружение трактуется как local.
	require.True(t, setupLogger("staging").Enabled(ctx, slog.LevelDebug))
}
