package release

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// TestParseVersion covers accepted and rejected version string shapes.
func TestParseVersion(t *testing.T) {
	t.Parallel()

	valid := map[string]Version{
		"1.2.3":    {Major: 1, Minor: 2, Patch: 3},
		"0.0.0":    {Major: 0, Minor: 0, Patch: 0},
		"10.20.30": {Major: 10, Minor: 20, Patch: 30},
		"1.02.3":   {Major: 1, Minor: 2, Patch: 3},
	}
	for s, want := range valid {
		got, err := ParseVersion(s)
		require.NoError(t, err, s)
		require.Equal(t, want, got, s)
	}

	invalid := []string{
		"",
		"1",
		"1.2",
		"1.2.3.4",
		"1.2.x",
		"a.b.c",
		"v1.2.3",
		"1.2.3-beta",
		"1.+2.3",
		"1.-2.3",
		" 1.2.3",
		"1.2.3 ",
		"1..3",
	}
	for _, s := range invalid {
		_, err := ParseVersion(s)
		require.ErrorIs(t, err, ErrInvalidVersion, s)
	}
}

// TestVersionString verifies the canonical rendering.
func TestVersionString(t *testing.T) {
	t.Parallel()

	v, err := ParseVersion("1.2.3")
	require.NoError(t, err)
	require.Equal(t, "1.2.3", v.String())
}
