package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Fragment describes one binary placed into the composite flash image.
type Fragment struct {
	// Name is the logical fragment name used in release file names (e.g. "firmware").
	Name string `yaml:"name"`
	// File is the file name the toolchain deposits under <build_root>/<target>/.
	File string `yaml:"file"`
	// Offset is the absolute byte offset of the fragment inside the composite image.
	Offset int64 `yaml:"offset"`
}

// Config holds all inputs of a release run. Everything is explicit:
// there is no ambient build environment consulted at runtime.
type Config struct {
	// ProjectName is the human-readable firmware name written into the manifest.
	ProjectName string `yaml:"project_name"`
	// BuildRoot is the directory where the toolchain deposits per-target build output.
	BuildRoot string `yaml:"build_root"`
	// ReleaseRoot is the directory under which versioned release directories are created.
	ReleaseRoot string `yaml:"release_root"`
	// ToolchainCommand is the external build command invoked once per target.
	ToolchainCommand string `yaml:"toolchain"`
	// Targets is the ordered list of hardware targets to build.
	Targets []string `yaml:"targets"`
	// Layout lists the fragments of the composite image with their flash offsets.
	Layout []Fragment `yaml:"layout"`
	// PrimaryFragment names the fragment that represents the main firmware;
	// only targets that produced it end up in the manifest.
	PrimaryFragment string `yaml:"primary_fragment"`
	// BuildInfoFile is where the generated build info record consumed by the
	// build step is written.
	BuildInfoFile string `yaml:"build_info_file"`
}

const (
	// DefaultConfigFilename is the default filename for release settings.
	DefaultConfigFilename = "fw-release-settings.yaml"

	// DefaultFilePermissions is the default file permission for config files.
	DefaultFilePermissions = 0o600

	// Environment variables overriding directory settings, convenient in CI.
	buildRootEnv   = "FW_RELEASE_BUILD_ROOT"
	releaseRootEnv = "FW_RELEASE_ROOT"
)

var (
	// errConfigIsNotSet is returned when a nil configuration is provided.
	errConfigIsNotSet = errors.New("configuration is not set")
	// errNoTargets is returned when no build targets are configured.
	errNoTargets = errors.New("at least one build target must be configured")
	// errDuplicateTarget is returned when a target is listed twice.
	errDuplicateTarget = errors.New("duplicate build target")
	// errNoLayout is returned when the flash layout has no fragments.
	errNoLayout = errors.New("flash layout must contain at least one fragment")
	// errBadFragment is returned for fragments with missing fields or negative offsets.
	errBadFragment = errors.New("invalid fragment")
	// errDuplicateFragment is returned when two fragments share a name.
	errDuplicateFragment = errors.New("duplicate fragment name")
	// errNoPrimaryFragment is returned when PrimaryFragment is absent from the layout.
	errNoPrimaryFragment = errors.New("primary fragment is not part of the layout")
)

// Default returns the reference configuration for the ESP32 device family.
// The offsets are the canonical ESP32 flash layout; a different device
// family supplies its own values through the settings file.
func Default() *Config {
	return &Config{
		ProjectName:      "Walkie-Talkie Firmware",
		BuildRoot:        filepath.Join(".pio", "build"),
		ReleaseRoot:      "releases",
		ToolchainCommand: "pio",
		Targets:          []string{"esp32-release", "esp32s3"},
		Layout: []Fragment{
			{Name: "bootloader", File: "bootloader.bin", Offset: 0x1000},
			{Name: "partitions", File: "partitions.bin", Offset: 0x8000},
			{Name: "firmware", File: "firmware.bin", Offset: 0x10000},
		},
		PrimaryFragment: "firmware",
		BuildInfoFile:   "build_info.yaml",
	}
}

// Load reads configuration from the provided path and validates essential fields.
// A missing file is not an error: the defaults for the ESP32 family are used,
// so the tool works out of the box inside a PlatformIO project.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultConfigFilename
	}

	cfg := Default()

	contents, err := os.ReadFile(filepath.Clean(path))
	switch {
	case err == nil:
		if err = yaml.Unmarshal(contents, cfg); err != nil {
			return nil, fmt.Errorf("unmarshal settings: %w", err)
		}
	case errors.Is(err, os.ErrNotExist):
		// Defaults stay in effect.
	default:
		return nil, fmt.Errorf("read settings: %w", err)
	}

	applyEnvironmentOverrides(cfg)

	if err = Validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Save writes the configuration to the provided path.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if path == "" {
		path = DefaultConfigFilename
	}

	if err := Validate(cfg); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	// Restrict permissions.
	if err := os.WriteFile(filepath.Clean(path), data, DefaultFilePermissions); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}

	return nil
}

// Validate checks the provided settings for required fields and fills in defaults.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	fillDefaults(cfg)

	if len(cfg.Targets) == 0 {
		return errNoTargets
	}

	seenTargets := make(map[string]struct{}, len(cfg.Targets))

	for _, target := range cfg.Targets {
		if target == "" {
			return fmt.Errorf("%w: empty target name", errNoTargets)
		}

		if _, ok := seenTargets[target]; ok {
			return fmt.Errorf("%w: %s", errDuplicateTarget, target)
		}

		seenTargets[target] = struct{}{}
	}

	if len(cfg.Layout) == 0 {
		return errNoLayout
	}

	seenFragments := make(map[string]struct{}, len(cfg.Layout))

	for _, fragment := range cfg.Layout {
		if fragment.Name == "" || fragment.File == "" {
			return fmt.Errorf("%w: name and file are required", errBadFragment)
		}

		if fragment.Offset < 0 {
			return fmt.Errorf("%w: %s has negative offset %d", errBadFragment, fragment.Name, fragment.Offset)
		}

		if _, ok := seenFragments[fragment.Name]; ok {
			return fmt.Errorf("%w: %s", errDuplicateFragment, fragment.Name)
		}

		seenFragments[fragment.Name] = struct{}{}
	}

	if _, ok := seenFragments[cfg.PrimaryFragment]; !ok {
		return fmt.Errorf("%w: %s", errNoPrimaryFragment, cfg.PrimaryFragment)
	}

	return nil
}

// fillDefaults replaces empty scalar fields with their reference values.
// List fields are left alone: an explicitly empty list is a configuration
// mistake Validate should surface, not silently repair.
func fillDefaults(cfg *Config) {
	defaults := Default()

	if cfg.ProjectName == "" {
		cfg.ProjectName = defaults.ProjectName
	}

	if cfg.BuildRoot == "" {
		cfg.BuildRoot = defaults.BuildRoot
	}

	if cfg.ReleaseRoot == "" {
		cfg.ReleaseRoot = defaults.ReleaseRoot
	}

	if cfg.ToolchainCommand == "" {
		cfg.ToolchainCommand = defaults.ToolchainCommand
	}

	if cfg.PrimaryFragment == "" {
		cfg.PrimaryFragment = defaults.PrimaryFragment
	}

	if cfg.BuildInfoFile == "" {
		cfg.BuildInfoFile = defaults.BuildInfoFile
	}
}

// applyEnvironmentOverrides lets CI redirect directories without editing the settings file.
func applyEnvironmentOverrides(cfg *Config) {
	if v := os.Getenv(buildRootEnv); v != "" {
		cfg.BuildRoot = v
	}

	if v := os.Getenv(releaseRootEnv); v != "" {
		cfg.ReleaseRoot = v
	}
}
