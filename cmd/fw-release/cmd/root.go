package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oshokin/fw-release/internal/config"
	"github.com/oshokin/fw-release/internal/logger"
	"github.com/oshokin/fw-release/internal/service/release"
	"github.com/oshokin/fw-release/internal/version"
)

var (
	// configPath to the configuration YAML file.
	configPath string
	// fullImage controls composite flash image generation.
	fullImage bool
	// logLevel selects the minimum log level.
	logLevel string

	// rootCmd represents the base command for creating a firmware release.
	rootCmd = &cobra.Command{
		Use:   "fw-release [version]",
		Short: "Package firmware builds into a verifiable release bundle.",
		Long: `Builds every configured hardware target, collects the produced binaries
into a versioned release directory and makes the result verifiable.

Per target the release contains the renamed firmware, bootloader and
partition table binaries, a composite flash image assembled at the
configured offsets, and a .sha256 sidecar per file. The whole release is
described by manifest.json (for update distribution) and RELEASE_NOTES.md.

The version argument must be three dot-separated numbers (e.g. 1.2.3).
A target that fails to build is skipped; the release is aborted only when
every target fails.`,
		Args: cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			if level, ok := logger.ParseLogLevel(logLevel); ok {
				logger.SetLevel(level)
			}

			options := &release.Options{
				ConfigPath: configPath,
				Version:    args[0],
				FullImage:  fullImage,
			}

			return release.Run(ctx, options)
		},
	}
)

// Execute runs the fw-release CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	// Setup command flags with consistent naming and descriptions.
	rootCmd.Flags().StringVarP(&configPath, "config", "c", config.DefaultConfigFilename, "path to configuration file")
	rootCmd.Flags().BoolVar(&fullImage, "full", true, "compose a full flash image per target")
	rootCmd.Flags().StringVar(&logLevel, "log-level", "info", "minimum log level (debug, info, warn, error, fatal)")
}
