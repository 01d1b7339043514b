package toolchain

import (
	"context"
	"runtime"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestBuildCapturesExitStatus runs real processes to verify status and
// output capture. Skipped on Windows where the helper commands differ.
func TestBuildCapturesExitStatus(t *testing.T) {
	t.Parallel()

	if runtime.GOOS == "windows" {
		t.Skip("relies on POSIX shell semantics")
	}

	ctx := context.Background()

	// "true" ignores arguments and exits zero.
	ok := NewPlatformIO("true", "")

	result, err := ok.Build(ctx, "esp32-release")
	require.NoError(t, err)
	require.True(t, result.Succeeded())

	// "false" ignores arguments and exits non-zero.
	failing := NewPlatformIO("false", "")

	result, err = failing.Build(ctx, "esp32-release")
	require.NoError(t, err)
	require.False(t, result.Succeeded())
	require.NotZero(t, result.ExitCode)
}

// TestBuildMissingCommand returns an error when the toolchain cannot start.
func TestBuildMissingCommand(t *testing.T) {
	t.Parallel()

	runner := NewPlatformIO("definitely-not-a-real-toolchain", "")

	_, err := runner.Build(context.Background(), "esp32-release")
	require.Error(t, err)
	require.Contains(t, err.Error(), "esp32-release")
}
