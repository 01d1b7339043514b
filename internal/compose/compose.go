package compose

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
)

// Fragment is one binary placed into the composite image at an absolute offset.
type Fragment struct {
	// Name is the logical fragment name, used in error messages.
	Name string
	// Offset is the absolute byte offset inside the image.
	Offset int64
	// Path is the source file on disk.
	Path string
}

// MissingFragmentError reports a fragment whose source file does not exist.
// The compositor refuses to produce a partial image in that case.
type MissingFragmentError struct {
	// Name is the logical fragment name.
	Name string
	// Path is the absent source file.
	Path string
}

func (e *MissingFragmentError) Error() string {
	return fmt.Sprintf("fragment %s: source file %s does not exist", e.Name, e.Path)
}

// OverlapError reports two fragments claiming intersecting byte ranges.
// The layout is a configuration error; no output is written.
type OverlapError struct {
	// First is the lower-offset fragment of the colliding pair.
	First placement
	// Second is the fragment whose range intersects First.
	Second placement
}

func (e *OverlapError) Error() string {
	return fmt.Sprintf("fragment %s [0x%x, 0x%x) overlaps fragment %s [0x%x, 0x%x)",
		e.First.Name, e.First.Offset, e.First.end(),
		e.Second.Name, e.Second.Offset, e.Second.end())
}

// placement is a fragment with its measured length.
type placement struct {
	Fragment

	// Length is the actual source file size in bytes.
	Length int64
}

func (p placement) end() int64 {
	return p.Offset + p.Length
}

// errDuplicateOffset guards against two fragments configured at the same offset.
var errDuplicateOffset = errors.New("two fragments share the same offset")

// WriteImage assembles the fragments into a single image file at destination.
// Regions not covered by any fragment read as zero bytes. The layout is
// verified against the actual fragment sizes before anything is written, so
// a bad layout never leaves a corrupt image behind.
func WriteImage(destination string, fragments []Fragment) error {
	placements, err := plan(fragments)
	if err != nil {
		return err
	}

	out, err := os.Create(filepath.Clean(destination))
	if err != nil {
		return fmt.Errorf("create image %s: %w", destination, err)
	}

	for _, p := range placements {
		if err = writeFragment(out, p); err != nil {
			_ = out.Close()
			_ = os.Remove(destination)

			return err
		}
	}

	if err = out.Close(); err != nil {
		return fmt.Errorf("close image %s: %w", destination, err)
	}

	return nil
}

// plan measures all fragments and validates the layout. It returns the
// placements sorted by ascending offset.
func plan(fragments []Fragment) ([]placement, error) {
	placements := make([]placement, 0, len(fragments))

	for _, fragment := range fragments {
		info, err := os.Stat(fragment.Path)
		if errors.Is(err, os.ErrNotExist) {
			return nil, &MissingFragmentError{Name: fragment.Name, Path: fragment.Path}
		} else if err != nil {
			return nil, fmt.Errorf("stat fragment %s (%s): %w", fragment.Name, fragment.Path, err)
		}

		placements = append(placements, placement{Fragment: fragment, Length: info.Size()})
	}

	sort.Slice(placements, func(i, j int) bool {
		return placements[i].Offset < placements[j].Offset
	})

	for i := 1; i < len(placements); i++ {
		previous, current := placements[i-1], placements[i]

		if previous.Offset == current.Offset {
			return nil, fmt.Errorf("%w: %s and %s at 0x%x",
				errDuplicateOffset, previous.Name, current.Name, current.Offset)
		}

		// Zero-length fragments occupy no bytes and cannot collide.
		if previous.end() > current.Offset && previous.Length > 0 {
			return nil, &OverlapError{First: previous, Second: current}
		}
	}

	return placements, nil
}

// writeFragment seeks to the placement offset and streams the source file.
// Seeking past the current end zero-fills the gap.
func writeFragment(out *os.File, p placement) error {
	src, err := os.Open(filepath.Clean(p.Path))
	if err != nil {
		return fmt.Errorf("open fragment %s (%s): %w", p.Name, p.Path, err)
	}

	defer func() {
		_ = src.Close()
	}()

	if _, err = out.Seek(p.Offset, io.SeekStart); err != nil {
		return fmt.Errorf("seek to 0x%x for fragment %s: %w", p.Offset, p.Name, err)
	}

	if _, err = io.Copy(out, src); err != nil {
		return fmt.Errorf("write fragment %s: %w", p.Name, err)
	}

	return nil
}
