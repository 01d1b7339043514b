// Package checksum computes MD5 and SHA-256 digests over byte streams of
// arbitrary size without buffering the full content in memory. Both digests
// are produced in a single pass and returned as lowercase hex strings, the
// form published in the release manifest and .sha256 sidecar files.
package checksum
