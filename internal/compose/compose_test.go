package compose

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// writeFragmentFile creates a source file filled with the given byte.
func writeFragmentFile(t *testing.T, dir, name string, fill byte, size int) string {
	t.Helper()

	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, bytes.Repeat([]byte{fill}, size), 0o600))

	return path
}

// TestWriteImageLayout verifies fragment placement, zero gaps and total length.
func TestWriteImageLayout(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	fragments := []Fragment{
		{Name: "bootloader", Offset: 0x1000, Path: writeFragmentFile(t, dir, "bootloader.bin", 0xAA, 100)},
		{Name: "partitions", Offset: 0x8000, Path: writeFragmentFile(t, dir, "partitions.bin", 0xBB, 0x300)},
		{Name: "firmware", Offset: 0x10000, Path: writeFragmentFile(t, dir, "firmware.bin", 0xCC, 0x2500)},
	}
	destination := filepath.Join(dir, "full.bin")

	require.NoError(t, WriteImage(destination, fragments))

	image, err := os.ReadFile(destination)
	require.NoError(t, err)
	require.Len(t, image, 0x10000+0x2500)

	require.Equal(t, bytes.Repeat([]byte{0x00}, 0x1000), image[:0x1000])
	require.Equal(t, bytes.Repeat([]byte{0xAA}, 100), image[0x1000:0x1000+100])
	require.Equal(t, bytes.Repeat([]byte{0x00}, 0x8000-0x1000-100), image[0x1000+100:0x8000])
	require.Equal(t, bytes.Repeat([]byte{0xBB}, 0x300), image[0x8000:0x8000+0x300])
	require.Equal(t, bytes.Repeat([]byte{0xCC}, 0x2500), image[0x10000:])
}

// TestWriteImageUnsortedInput confirms placement is driven by offsets, not input order.
func TestWriteImageUnsortedInput(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	fragments := []Fragment{
		{Name: "firmware", Offset: 0x200, Path: writeFragmentFile(t, dir, "firmware.bin", 0xCC, 8)},
		{Name: "bootloader", Offset: 0x10, Path: writeFragmentFile(t, dir, "bootloader.bin", 0xAA, 8)},
	}
	destination := filepath.Join(dir, "full.bin")

	require.NoError(t, WriteImage(destination, fragments))

	image, err := os.ReadFile(destination)
	require.NoError(t, err)
	require.Len(t, image, 0x200+8)
	require.Equal(t, bytes.Repeat([]byte{0xAA}, 8), image[0x10:0x18])
	require.Equal(t, bytes.Repeat([]byte{0xCC}, 8), image[0x200:])
}

// TestWriteImageOverlapRejected ensures overlapping ranges produce an
// OverlapError and no output file.
func TestWriteImageOverlapRejected(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	fragments := []Fragment{
		{Name: "bootloader", Offset: 0x1000, Path: writeFragmentFile(t, dir, "bootloader.bin", 0xAA, 0x200)},
		{Name: "partitions", Offset: 0x1100, Path: writeFragmentFile(t, dir, "partitions.bin", 0xBB, 0x100)},
	}
	destination := filepath.Join(dir, "full.bin")

	err := WriteImage(destination, fragments)

	var overlap *OverlapError

	require.ErrorAs(t, err, &overlap)
	require.Equal(t, "bootloader", overlap.First.Name)
	require.Equal(t, "partitions", overlap.Second.Name)

	_, err = os.Stat(destination)
	require.ErrorIs(t, err, os.ErrNotExist)
}

// TestWriteImageDuplicateOffsetRejected covers two fragments at the same offset.
func TestWriteImageDuplicateOffsetRejected(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	fragments := []Fragment{
		{Name: "a", Offset: 0x1000, Path: writeFragmentFile(t, dir, "a.bin", 0xAA, 4)},
		{Name: "b", Offset: 0x1000, Path: writeFragmentFile(t, dir, "b.bin", 0xBB, 4)},
	}

	err := WriteImage(filepath.Join(dir, "full.bin"), fragments)
	require.ErrorIs(t, err, errDuplicateOffset)
}

// TestWriteImageMissingFragment ensures an absent source yields
// MissingFragmentError and no output file.
func TestWriteImageMissingFragment(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	fragments := []Fragment{
		{Name: "bootloader", Offset: 0x1000, Path: writeFragmentFile(t, dir, "bootloader.bin", 0xAA, 4)},
		{Name: "firmware", Offset: 0x10000, Path: filepath.Join(dir, "firmware.bin")},
	}
	destination := filepath.Join(dir, "full.bin")

	err := WriteImage(destination, fragments)

	var missing *MissingFragmentError

	require.ErrorAs(t, err, &missing)
	require.Equal(t, "firmware", missing.Name)

	_, err = os.Stat(destination)
	require.ErrorIs(t, err, os.ErrNotExist)
}

// TestWriteImageAdjacentFragments allows ranges that touch without intersecting.
func TestWriteImageAdjacentFragments(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	fragments := []Fragment{
		{Name: "a", Offset: 0x0, Path: writeFragmentFile(t, dir, "a.bin", 0xAA, 0x10)},
		{Name: "b", Offset: 0x10, Path: writeFragmentFile(t, dir, "b.bin", 0xBB, 0x10)},
	}
	destination := filepath.Join(dir, "full.bin")

	require.NoError(t, WriteImage(destination, fragments))

	image, err := os.ReadFile(destination)
	require.NoError(t, err)
	require.Len(t, image, 0x20)
}
