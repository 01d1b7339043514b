package release

import (
	"context"
	"errors"
	"os"
	"strings"

	"github.com/mitchellh/go-ps"

	"github.com/oshokin/fw-release/internal/logger"
)

const (
	// markerFilename marks a release run in progress inside the release root.
	markerFilename = ".fw-release.lock"

	// processName is the executable base name of this tool.
	processName = "fw-release"
)

// isReleaseRunningNow checks whether another fw-release run owns the release
// root. A marker left behind by a crashed run is detected through the
// process table and removed.
func isReleaseRunningNow(ctx context.Context, markerPath string) bool {
	_, err := os.Stat(markerPath)
	if errors.Is(err, os.ErrNotExist) {
		return false
	}

	if err != nil {
		logger.Infof(ctx, "Unable to read run marker: %v", err)
		return false
	}

	if anotherInstanceRunning(ctx) {
		return true
	}

	logger.Info(ctx, "Found a stale run marker with no live process, removing it")

	if err = os.Remove(markerPath); err != nil {
		// Could not recover, assume the other run is alive.
		return true
	}

	return false
}

// anotherInstanceRunning scans the process table for a second fw-release process.
func anotherInstanceRunning(ctx context.Context) bool {
	processes, err := ps.Processes()
	if err != nil {
		logger.Infof(ctx, "Unable to list processes: %v", err)
		// Without the process list the marker has to be trusted.
		return true
	}

	thisProcessID := os.Getpid()

	for _, process := range processes {
		if process.Pid() == thisProcessID {
			continue
		}

		executable := strings.TrimSuffix(process.Executable(), ".exe")
		if executable == processName {
			return true
		}
	}

	return false
}

// createMarker writes the run marker file.
func createMarker(path string) error {
	marker, err := os.Create(path)
	if err != nil {
		return err
	}

	return marker.Close()
}
