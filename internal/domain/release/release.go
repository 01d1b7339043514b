package release

import (
	"time"

	"github.com/google/uuid"
)

// Artifact is one produced release file together with its integrity data.
// Artifacts are created once after a successful copy or compose step and
// never mutated afterwards.
type Artifact struct {
	// Target is the hardware target the artifact was built for.
	Target string
	// Fragment is the logical fragment name ("firmware", "bootloader", ...)
	// or "full" for the composite image.
	Fragment string
	// Filename is the versioned file name inside the release directory.
	Filename string
	// Size is the artifact size in bytes.
	Size int64
	// MD5 is the lowercase hex MD5 digest of the file.
	MD5 string
	// SHA256 is the lowercase hex SHA-256 digest of the file.
	SHA256 string
}

// Release accumulates the outcome of one release invocation: which targets
// built successfully and which artifacts each of them produced.
type Release struct {
	// Version is the firmware version being released.
	Version Version
	// BuildID uniquely identifies this release invocation.
	BuildID uuid.UUID
	// CreatedAt is when the release run started.
	CreatedAt time.Time
	// Targets lists successfully built targets in configured order.
	Targets []string
	// Artifacts maps a target to the artifacts recorded for it.
	Artifacts map[string][]Artifact
}

// New creates an empty release for the provided version.
func New(version Version) *Release {
	return &Release{
		Version:   version,
		BuildID:   uuid.New(),
		CreatedAt: time.Now(),
		Artifacts: make(map[string][]Artifact),
	}
}

// AddTarget records a successfully built target, preserving insertion order.
func (r *Release) AddTarget(target string) {
	r.Targets = append(r.Targets, target)
}

// AddArtifact attaches a recorded artifact to its target.
func (r *Release) AddArtifact(artifact Artifact) {
	r.Artifacts[artifact.Target] = append(r.Artifacts[artifact.Target], artifact)
}

// ArtifactsFor returns the artifacts recorded for a target, in recording order.
func (r *Release) ArtifactsFor(target string) []Artifact {
	return r.Artifacts[target]
}

// FindArtifact returns the artifact of the given fragment for a target,
// or false when the target never produced it.
func (r *Release) FindArtifact(target, fragment string) (Artifact, bool) {
	for _, artifact := range r.Artifacts[target] {
		if artifact.Fragment == fragment {
			return artifact, true
		}
	}

	return Artifact{}, false
}
