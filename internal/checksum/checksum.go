package checksum

import (
	"crypto/md5" //nolint:gosec // MD5 is part of the published manifest contract, not a security boundary.
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// chunkSize is how many bytes are read per iteration. Firmware images can be
// several megabytes, a full flash image tens of megabytes; they are never
// buffered whole.
const chunkSize = 8 * 1024

// Sums carries both digests of one byte stream as lowercase hex strings.
type Sums struct {
	// MD5 is the lowercase hex MD5 digest.
	MD5 string
	// SHA256 is the lowercase hex SHA-256 digest.
	SHA256 string
}

// Reader digests the stream in fixed-size chunks, feeding both hash
// accumulators per chunk. The result is identical to hashing the whole
// content in one pass.
func Reader(r io.Reader) (Sums, error) {
	var (
		md5Hash    = md5.New() //nolint:gosec // See package note on MD5.
		sha256Hash = sha256.New()
		buffer     = make([]byte, chunkSize)
	)

	if _, err := io.CopyBuffer(io.MultiWriter(md5Hash, sha256Hash), r, buffer); err != nil {
		return Sums{}, fmt.Errorf("digest stream: %w", err)
	}

	return Sums{
		MD5:    hex.EncodeToString(md5Hash.Sum(nil)),
		SHA256: hex.EncodeToString(sha256Hash.Sum(nil)),
	}, nil
}

// File digests the file at the provided path.
func File(path string) (Sums, error) {
	file, err := os.Open(filepath.Clean(path))
	if err != nil {
		return Sums{}, fmt.Errorf("open %s: %w", path, err)
	}

	// Best-effort close, the file is read-only.
	defer func() {
		_ = file.Close()
	}()

	sums, err := Reader(file)
	if err != nil {
		return Sums{}, fmt.Errorf("digest %s: %w", path, err)
	}

	return sums, nil
}
