// Package release orchestrates a firmware release: it validates the version,
// emits the generated build info record, drives the external toolchain once
// per target, records the produced artifacts with digests and sidecar files,
// composes the full flash image per target, and finalizes the release with a
// manifest and release notes.
//
// Per-target failures are isolated; only an invalid version or a run where
// every target failed aborts the release as a whole.
package release
