package release

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// TestReleaseAccumulation checks target ordering and artifact lookup.
func TestReleaseAccumulation(t *testing.T) {
	t.Parallel()

	rel := New(Version{Major: 1, Minor: 2, Patch: 3})
	require.NotEqual(t, "00000000-0000-0000-0000-000000000000", rel.BuildID.String())
	require.Empty(t, rel.Targets)

	rel.AddTarget("esp32-release")
	rel.AddTarget("esp32s3")
	require.Equal(t, []string{"esp32-release", "esp32s3"}, rel.Targets)

	rel.AddArtifact(Artifact{Target: "esp32-release", Fragment: "firmware", Filename: "firmware_esp32-release_v1.2.3.bin"})
	rel.AddArtifact(Artifact{Target: "esp32-release", Fragment: "bootloader", Filename: "bootloader_esp32-release_v1.2.3.bin"})

	require.Len(t, rel.ArtifactsFor("esp32-release"), 2)
	require.Empty(t, rel.ArtifactsFor("esp32s3"))

	artifact, ok := rel.FindArtifact("esp32-release", "firmware")
	require.True(t, ok)
	require.Equal(t, "firmware_esp32-release_v1.2.3.bin", artifact.Filename)

	_, ok = rel.FindArtifact("esp32s3", "firmware")
	require.False(t, ok)
}
