// Package manifest builds and persists the machine-readable release
// document enumerating every target's primary firmware artifact with size
// and digests. The JSON output is deterministic for identical input, which
// makes releases diffable and reproducible except for the timestamp.
package manifest
