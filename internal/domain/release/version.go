package release

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidVersion is returned when a version string is not exactly three
// dot-separated non-negative integers.
var ErrInvalidVersion = errors.New("invalid version format, expected x.y.z")

// versionComponents is the required number of dot-separated version parts.
const versionComponents = 3

// Version is the immutable three-component firmware release version.
type Version struct {
	// Major is the first version component.
	Major int
	// Minor is the second version component.
	Minor int
	// Patch is the third version component.
	Patch int
}

// ParseVersion parses a version string of the exact form "major.minor.patch".
// Anything else (missing or extra components, non-numeric or negative parts,
// surrounding garbage) is rejected with ErrInvalidVersion. Validation happens
// before any filesystem side effect, so a typo costs nothing.
func ParseVersion(s string) (Version, error) {
	parts := strings.Split(s, ".")
	if len(parts) != versionComponents {
		return Version{}, fmt.Errorf("%w: %q", ErrInvalidVersion, s)
	}

	numbers := make([]int, 0, versionComponents)

	for _, part := range parts {
		// Atoi would tolerate a sign prefix, the version contract does not.
		if part == "" || part[0] == '+' || part[0] == '-' {
			return Version{}, fmt.Errorf("%w: %q", ErrInvalidVersion, s)
		}

		number, err := strconv.Atoi(part)
		if err != nil {
			return Version{}, fmt.Errorf("%w: %q", ErrInvalidVersion, s)
		}

		numbers = append(numbers, number)
	}

	return Version{Major: numbers[0], Minor: numbers[1], Patch: numbers[2]}, nil
}

// String renders the version in "major.minor.patch" form.
func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}
