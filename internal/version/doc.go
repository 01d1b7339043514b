// Package version exposes build metadata of the fw-release binary itself
// (distinct from the firmware version being packaged). The values are
// injected via ldflags at build time.
package version
