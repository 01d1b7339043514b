package toolchain

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
)

// Result captures the outcome of one external build invocation.
type Result struct {
	// ExitCode is the build process exit status.
	ExitCode int
	// Stdout is the captured standard output.
	Stdout string
	// Stderr is the captured standard error.
	Stderr string
}

// Succeeded reports whether the build exited cleanly.
func (r *Result) Succeeded() bool {
	return r.ExitCode == 0
}

// Runner triggers the external toolchain for one build target. The exit
// status is the sole success signal; diagnostic output is captured for the
// caller to surface.
type Runner interface {
	Build(ctx context.Context, target string) (*Result, error)
}

// PlatformIO runs `<command> run -e <target>` in the project directory,
// the reference toolchain for the ESP32 device family.
type PlatformIO struct {
	// Command is the toolchain executable, normally "pio".
	Command string
	// ProjectDir is the working directory of the invocation, "" for cwd.
	ProjectDir string
}

// NewPlatformIO creates a runner for the given command and project directory.
func NewPlatformIO(command, projectDir string) *PlatformIO {
	return &PlatformIO{
		Command:    command,
		ProjectDir: projectDir,
	}
}

// Build invokes the toolchain for the target and blocks until it finishes.
// A non-zero exit status is not an error here: the Result carries it and the
// orchestrator decides how to proceed. An error is returned only when the
// process could not be run at all.
func (p *PlatformIO) Build(ctx context.Context, target string) (*Result, error) {
	var stdout, stderr bytes.Buffer

	cmd := exec.CommandContext(ctx, p.Command, "run", "-e", target)
	cmd.Dir = p.ProjectDir
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()

	result := &Result{
		Stdout: stdout.String(),
		Stderr: stderr.String(),
	}

	var exitErr *exec.ExitError

	switch {
	case err == nil:
	case errors.As(err, &exitErr):
		result.ExitCode = exitErr.ExitCode()
	default:
		return nil, fmt.Errorf("run %s for target %s: %w", p.Command, target, err)
	}

	return result, nil
}
