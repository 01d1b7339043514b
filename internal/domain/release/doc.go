// Package release contains core domain types of the release workflow.
//
// It defines Version (the strict x.y.z firmware version), Artifact (a
// produced file with size and digests) and Release (the accumulating
// outcome of one invocation).
package release
