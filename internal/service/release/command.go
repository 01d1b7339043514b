package release

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/oshokin/fw-release/internal/buildinfo"
	"github.com/oshokin/fw-release/internal/compose"
	"github.com/oshokin/fw-release/internal/config"
	domain "github.com/oshokin/fw-release/internal/domain/release"
	"github.com/oshokin/fw-release/internal/logger"
	"github.com/oshokin/fw-release/internal/repository/manifest"
	"github.com/oshokin/fw-release/internal/toolchain"
)

// Options contains inputs for the release entry point.
type Options struct {
	// ConfigPath is an optional path to the settings YAML (defaults to fw-release-settings.yaml).
	ConfigPath string
	// Version is the firmware version string supplied on the command line.
	Version string
	// FullImage controls whether composite flash images are produced per target.
	FullImage bool
}

var (
	// ErrNoSuccessfulBuilds indicates that every configured target failed to
	// build; the release is aborted without writing a manifest or notes.
	ErrNoSuccessfulBuilds = errors.New("no target built successfully")

	// errReleaseInProgress indicates another fw-release run owns the release root.
	errReleaseInProgress = errors.New("another release run is in progress")
)

const (
	manifestFilename = "manifest.json"

	// dirPermissions is used for release directories.
	dirPermissions = 0o755
)

// runner holds the state of a single release execution.
// It is unexported—callers should use Run, which encapsulates setup and validation.
type runner struct {
	// cfg holds directories, targets and the flash layout.
	cfg *config.Config
	// full controls composite image generation.
	full bool
	// tc invokes the external build per target.
	tc toolchain.Runner
	// rel accumulates successful targets and recorded artifacts.
	rel *domain.Release
	// releaseDir is <release_root>/v<version>, created once builds succeed.
	releaseDir string
	// markerPath guards against concurrent runs over the same release root.
	markerPath string
}

// Run executes the release workflow.
func Run(ctx context.Context, opts *Options) error {
	// Set context with logger name for tracking.
	ctx = logger.WithName(ctx, "fw-release")

	// Version validation happens before anything touches the filesystem.
	version, err := domain.ParseVersion(opts.Version)
	if err != nil {
		return err
	}

	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}

	tc := toolchain.NewPlatformIO(cfg.ToolchainCommand, "")

	r, err := newRunner(ctx, cfg, version, opts.FullImage, tc)
	if err != nil {
		return fmt.Errorf("initialize release: %w", err)
	}

	defer r.cleanup(ctx)

	if err = r.Run(ctx); err != nil {
		return fmt.Errorf("release failed: %w", err)
	}

	logger.InfoKV(ctx, "Release completed successfully",
		"version", version.String(), "directory", r.releaseDir)

	return nil
}

// newRunner prepares a release execution and takes the single-instance marker.
func newRunner(
	ctx context.Context,
	cfg *config.Config,
	version domain.Version,
	full bool,
	tc toolchain.Runner,
) (*runner, error) {
	if err := os.MkdirAll(cfg.ReleaseRoot, dirPermissions); err != nil {
		return nil, fmt.Errorf("create release root %s: %w", cfg.ReleaseRoot, err)
	}

	markerPath := filepath.Join(cfg.ReleaseRoot, markerFilename)
	if isReleaseRunningNow(ctx, markerPath) {
		return nil, errReleaseInProgress
	}

	if err := createMarker(markerPath); err != nil {
		return nil, fmt.Errorf("create run marker: %w", err)
	}

	return &runner{
		cfg:        cfg,
		full:       full,
		tc:         tc,
		rel:        domain.New(version),
		markerPath: markerPath,
	}, nil
}

// Run drives the whole workflow: build info record, per-target builds,
// artifact recording and image composition, manifest and release notes.
func (r *runner) Run(ctx context.Context) error {
	if err := r.writeBuildInfo(ctx); err != nil {
		return err
	}

	r.buildTargets(ctx)

	if len(r.rel.Targets) == 0 {
		return ErrNoSuccessfulBuilds
	}

	if err := r.createReleaseDirectory(); err != nil {
		return err
	}

	for _, target := range r.rel.Targets {
		r.processTarget(ctx, target)
	}

	if err := r.writeManifest(ctx); err != nil {
		return err
	}

	if err := r.writeReleaseNotes(ctx); err != nil {
		return err
	}

	r.logSummary(ctx)

	return nil
}

// writeBuildInfo emits the generated configuration record consumed by the
// build step: version, timestamp, build number, VCS identity.
func (r *runner) writeBuildInfo(ctx context.Context) error {
	info := buildinfo.Collect(".", r.rel.Version.String(), r.rel.CreatedAt)

	if err := info.WriteFile(r.cfg.BuildInfoFile); err != nil {
		return err
	}

	logger.InfoKV(ctx, "Wrote build info record",
		"path", r.cfg.BuildInfoFile, "commit", info.Commit, "dirty", info.Dirty)

	return nil
}

// buildTargets invokes the toolchain once per configured target, in order.
// A failing target is logged with its diagnostic output and skipped; the
// remaining targets are still attempted.
func (r *runner) buildTargets(ctx context.Context) {
	for _, target := range r.cfg.Targets {
		if ctx.Err() != nil {
			logger.WarnKV(ctx, "Release interrupted, remaining targets skipped", "target", target)
			return
		}

		logger.InfoKV(ctx, "Building target", "target", target)

		result, err := r.tc.Build(ctx, target)
		if err != nil {
			logger.ErrorKV(ctx, "Could not invoke toolchain", "target", target, "error", err)
			continue
		}

		if !result.Succeeded() {
			logger.ErrorKV(ctx, "Build failed", "target", target, "exit_code", result.ExitCode)
			surfaceBuildOutput(ctx, result)

			continue
		}

		logger.InfoKV(ctx, "Build succeeded", "target", target)
		r.rel.AddTarget(target)
	}
}

// surfaceBuildOutput forwards the captured toolchain output so the failure
// is diagnosable without re-running the build.
func surfaceBuildOutput(ctx context.Context, result *toolchain.Result) {
	if result.Stdout != "" {
		logger.Errorf(ctx, "Toolchain stdout:\n%s", result.Stdout)
	}

	if result.Stderr != "" {
		logger.Errorf(ctx, "Toolchain stderr:\n%s", result.Stderr)
	}
}

// createReleaseDirectory creates <release_root>/v<version>.
func (r *runner) createReleaseDirectory() error {
	r.releaseDir = filepath.Join(r.cfg.ReleaseRoot, "v"+r.rel.Version.String())

	if err := os.MkdirAll(r.releaseDir, dirPermissions); err != nil {
		return fmt.Errorf("create release directory %s: %w", r.releaseDir, err)
	}

	return nil
}

// processTarget records the target's individual artifacts and, when enabled
// and complete, its composite flash image. Errors are isolated per artifact:
// one broken file never blocks the rest of the target or its siblings.
func (r *runner) processTarget(ctx context.Context, target string) {
	buildDir := filepath.Join(r.cfg.BuildRoot, target)
	allFragmentsPresent := true

	for _, fragment := range r.cfg.Layout {
		source := filepath.Join(buildDir, fragment.File)

		if _, err := os.Stat(source); errors.Is(err, os.ErrNotExist) {
			logger.WarnKV(ctx, "Fragment missing, skipping",
				"target", target, "fragment", fragment.Name, "path", source)

			allFragmentsPresent = false

			continue
		} else if err != nil {
			logger.ErrorKV(ctx, "Cannot stat fragment",
				"target", target, "fragment", fragment.Name, "error", err)

			allFragmentsPresent = false

			continue
		}

		destName := r.artifactFilename(fragment.Name, target)
		if err := r.recordArtifact(ctx, target, fragment.Name, source, destName); err != nil {
			logger.ErrorKV(ctx, "Artifact recording failed, artifact abandoned",
				"target", target, "fragment", fragment.Name, "error", err)
		}
	}

	if !r.full {
		return
	}

	if !allFragmentsPresent {
		logger.WarnKV(ctx, "Cannot create full image, fragments are missing", "target", target)
		return
	}

	r.composeFullImage(ctx, target, buildDir)
}

// composeFullImage assembles the composite flash image for a target and
// records it like any other artifact. Layout errors are fatal for this
// target's image only.
func (r *runner) composeFullImage(ctx context.Context, target, buildDir string) {
	fragments := make([]compose.Fragment, 0, len(r.cfg.Layout))
	for _, fragment := range r.cfg.Layout {
		fragments = append(fragments, compose.Fragment{
			Name:   fragment.Name,
			Offset: fragment.Offset,
			Path:   filepath.Join(buildDir, fragment.File),
		})
	}

	destName := r.fullImageFilename(target)
	destination := filepath.Join(r.releaseDir, destName)

	if err := compose.WriteImage(destination, fragments); err != nil {
		logger.ErrorKV(ctx, "Full image composition failed",
			"target", target, "error", err)

		return
	}

	if err := r.recordExisting(ctx, target, "full", destination); err != nil {
		logger.ErrorKV(ctx, "Full image recording failed, artifact abandoned",
			"target", target, "error", err)
	}
}

// writeManifest persists the release manifest next to the artifacts.
func (r *runner) writeManifest(ctx context.Context) error {
	m := manifest.FromRelease(r.cfg.ProjectName, r.rel, r.cfg.PrimaryFragment)
	repo := manifest.NewFileRepository(filepath.Join(r.releaseDir, manifestFilename))

	if err := repo.Save(ctx, m); err != nil {
		return err
	}

	logger.InfoKV(ctx, "Wrote release manifest", "path", manifestFilename, "targets", len(m.Builds))

	return nil
}

// logSummary lists everything the release directory now contains.
func (r *runner) logSummary(ctx context.Context) {
	entries, err := os.ReadDir(r.releaseDir)
	if err != nil {
		logger.WarnKV(ctx, "Cannot read release directory for summary", "error", err)
		return
	}

	logger.InfoKV(ctx, "Release summary",
		"version", r.rel.Version.String(),
		"directory", r.releaseDir,
		"targets", r.rel.Targets,
		"files", len(entries))

	for _, entry := range entries {
		info, err := entry.Info()
		if err != nil {
			continue
		}

		logger.InfoKV(ctx, "Release file", "name", entry.Name(), "size", info.Size())
	}
}

// artifactFilename renders "<fragment>_<target>_v<version>.bin".
func (r *runner) artifactFilename(fragment, target string) string {
	return fmt.Sprintf("%s_%s_v%s.bin", fragment, target, r.rel.Version.String())
}

// fullImageFilename renders "<primary>_<target>_v<version>_full.bin".
func (r *runner) fullImageFilename(target string) string {
	return fmt.Sprintf("%s_%s_v%s_full.bin", r.cfg.PrimaryFragment, target, r.rel.Version.String())
}

// cleanup releases the single-instance marker.
func (r *runner) cleanup(ctx context.Context) {
	if r == nil || r.markerPath == "" {
		return
	}

	if err := os.Remove(r.markerPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		logger.WarnKV(ctx, "Cannot remove run marker", "path", r.markerPath, "error", err)
	}
}
