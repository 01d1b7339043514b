package manifest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	domain "github.com/oshokin/fw-release/internal/domain/release"
)

// Build describes the primary firmware artifact of one target.
type Build struct {
	// File is the artifact file name inside the release directory.
	File string `json:"file"`
	// Size is the artifact size in bytes.
	Size int64 `json:"size"`
	// SHA256 is the lowercase hex SHA-256 digest.
	SHA256 string `json:"sha256"`
	// MD5 is the lowercase hex MD5 digest.
	MD5 string `json:"md5"`
}

// Manifest is the machine-readable release document consumed by update
// distribution. Field order is fixed by the struct, map keys are sorted by
// the encoder, so identical input yields byte-identical output.
type Manifest struct {
	// Name is the human-readable firmware name.
	Name string `json:"name"`
	// Version is the release version in x.y.z form.
	Version string `json:"version"`
	// BuildID identifies the release invocation that produced the manifest.
	BuildID string `json:"build_id"`
	// ReleaseDate is the release creation timestamp.
	ReleaseDate time.Time `json:"release_date"`
	// Builds maps target names to their primary firmware artifact.
	Builds map[string]Build `json:"builds"`
}

// FromRelease assembles the manifest from a finished release. Only targets
// that recorded the primary fragment are included.
func FromRelease(name string, rel *domain.Release, primaryFragment string) *Manifest {
	m := &Manifest{
		Name:        name,
		Version:     rel.Version.String(),
		BuildID:     rel.BuildID.String(),
		ReleaseDate: rel.CreatedAt,
		Builds:      make(map[string]Build, len(rel.Targets)),
	}

	for _, target := range rel.Targets {
		artifact, ok := rel.FindArtifact(target, primaryFragment)
		if !ok {
			continue
		}

		m.Builds[target] = Build{
			File:   artifact.Filename,
			Size:   artifact.Size,
			SHA256: artifact.SHA256,
			MD5:    artifact.MD5,
		}
	}

	return m
}

// Repository defines persistence operations for the release manifest.
type Repository interface {
	Load(ctx context.Context) (*Manifest, error)
	Save(ctx context.Context, m *Manifest) error
}

// FileRepository persists the manifest to a JSON file on disk.
type FileRepository struct {
	// path is the filesystem location of the manifest file.
	path string
	// mu protects concurrent access to the manifest file.
	mu sync.Mutex
}

// ErrNotFound is returned when the manifest file does not exist yet.
var ErrNotFound = errors.New("manifest not found")

const filePermissions = 0o644

// NewFileRepository creates a repository that reads/writes JSON at the provided path.
func NewFileRepository(path string) *FileRepository {
	return &FileRepository{
		path: filepath.Clean(path),
	}
}

// Load reads the manifest from disk.
func (r *FileRepository) Load(_ context.Context) (*Manifest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	contents, err := os.ReadFile(r.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotFound
		}

		return nil, fmt.Errorf("read manifest file: %w", err)
	}

	var m Manifest
	if err = json.Unmarshal(contents, &m); err != nil {
		return nil, fmt.Errorf("decode manifest file: %w", err)
	}

	return &m, nil
}

// Save writes the manifest to disk as indented JSON.
func (r *FileRepository) Save(_ context.Context, m *Manifest) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("encode manifest: %w", err)
	}

	data = append(data, '\n')

	if err = os.WriteFile(r.path, data, filePermissions); err != nil {
		return fmt.Errorf("write manifest file: %w", err)
	}

	return nil
}
