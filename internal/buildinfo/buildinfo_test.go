package buildinfo

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

// TestCollectOutsideRepository leaves VCS fields empty and still records
// version and timestamp.
func TestCollectOutsideRepository(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	info := Collect(t.TempDir(), "1.2.3", now)

	require.Equal(t, "1.2.3", info.Version)
	require.Equal(t, now, info.BuildTime)
	require.Equal(t, "0", info.BuildNumber)
	require.Empty(t, info.Commit)
	require.Empty(t, info.Branch)
	require.False(t, info.Dirty)
}

// TestCollectInsideRepository picks up commit, branch and dirty state.
func TestCollectInsideRepository(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	repo, err := git.PlainInit(dir, false)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "main.c"), []byte("int main(void){}\n"), 0o644))

	worktree, err := repo.Worktree()
	require.NoError(t, err)

	_, err = worktree.Add("main.c")
	require.NoError(t, err)

	_, err = worktree.Commit("initial", &git.CommitOptions{
		Author: &object.Signature{Name: "dev", Email: "dev@example.com", When: time.Now()},
	})
	require.NoError(t, err)

	info := Collect(dir, "1.2.3", time.Now())
	require.Len(t, info.Commit, 7)
	require.NotEmpty(t, info.Branch)
	require.False(t, info.Dirty)

	// Modify the tracked file, the record must report a dirty tree.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "main.c"), []byte("int main(void){return 1;}\n"), 0o644))

	info = Collect(dir, "1.2.3", time.Now())
	require.True(t, info.Dirty)
}

// TestWriteFile round-trips the record through YAML.
func TestWriteFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "build_info.yaml")
	info := Collect(t.TempDir(), "2.0.1", time.Now())

	require.NoError(t, info.WriteFile(path))

	contents, err := os.ReadFile(path)
	require.NoError(t, err)

	var loaded Info

	require.NoError(t, yaml.Unmarshal(contents, &loaded))
	require.Equal(t, "2.0.1", loaded.Version)
}

// TestBuildNumberFromEnvironment honors the CI counter.
func TestBuildNumberFromEnvironment(t *testing.T) {
	t.Setenv(buildNumberEnv, "42")

	info := Collect(t.TempDir(), "1.0.0", time.Now())
	require.Equal(t, "42", info.BuildNumber)
}
