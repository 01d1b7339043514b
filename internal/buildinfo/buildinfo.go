package buildinfo

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	git "github.com/go-git/go-git/v5"
	"gopkg.in/yaml.v3"
)

const (
	// buildNumberEnv is consulted for a CI-assigned build counter.
	buildNumberEnv = "BUILD_NUMBER"

	// shortHashLength matches the abbreviated commit form used in release logs.
	shortHashLength = 7

	// filePermissions for the generated record.
	filePermissions = 0o644
)

// Info is the generated configuration record consumed by the build step.
// It replaces in-place patching of a version header: the build reads this
// file instead of having its sources rewritten.
type Info struct {
	// Version is the firmware release version.
	Version string `yaml:"version"`
	// BuildTime is the UTC timestamp of the release invocation.
	BuildTime time.Time `yaml:"build_time"`
	// BuildNumber is the CI build counter, "0" when unset.
	BuildNumber string `yaml:"build_number"`
	// Commit is the abbreviated VCS commit, empty outside a repository.
	Commit string `yaml:"commit,omitempty"`
	// Branch is the checked-out VCS branch, empty outside a repository.
	Branch string `yaml:"branch,omitempty"`
	// Dirty reports uncommitted changes in the working tree.
	Dirty bool `yaml:"dirty,omitempty"`
}

// Collect assembles the record for a release invocation. VCS identity is
// best-effort: building from an exported tarball simply leaves those fields
// empty.
func Collect(dir, version string, now time.Time) *Info {
	info := &Info{
		Version:     version,
		BuildTime:   now.UTC(),
		BuildNumber: "0",
	}

	if number := os.Getenv(buildNumberEnv); number != "" {
		info.BuildNumber = number
	}

	collectVCS(dir, info)

	return info
}

// WriteFile persists the record as YAML at the provided path.
func (i *Info) WriteFile(path string) error {
	data, err := yaml.Marshal(i)
	if err != nil {
		return fmt.Errorf("marshal build info: %w", err)
	}

	if err = os.WriteFile(filepath.Clean(path), data, filePermissions); err != nil {
		return fmt.Errorf("write build info %s: %w", path, err)
	}

	return nil
}

// collectVCS fills commit, branch and dirty state from the enclosing git
// repository, if any.
func collectVCS(dir string, info *Info) {
	repo, err := git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return
	}

	head, err := repo.Head()
	if err != nil {
		return
	}

	hash := head.Hash().String()
	if len(hash) > shortHashLength {
		hash = hash[:shortHashLength]
	}

	info.Commit = hash
	info.Branch = head.Name().Short()

	worktree, err := repo.Worktree()
	if err != nil {
		return
	}

	status, err := worktree.Status()
	if err != nil {
		return
	}

	info.Dirty = !status.IsClean()
}
