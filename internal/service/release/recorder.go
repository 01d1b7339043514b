package release

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/oshokin/fw-release/internal/checksum"
	domain "github.com/oshokin/fw-release/internal/domain/release"
	"github.com/oshokin/fw-release/internal/logger"
)

const (
	// artifactPermissions is used for copied binaries and sidecar files.
	artifactPermissions = 0o644

	// sidecarExtension is appended to the artifact base name.
	sidecarExtension = ".sha256"

	// shaPreviewLength is how much of the digest the log shows.
	shaPreviewLength = 16
)

// recordArtifact copies the source file into the release directory under
// destName, then digests and records it. Each artifact is independent of
// its siblings.
func (r *runner) recordArtifact(ctx context.Context, target, fragment, source, destName string) error {
	destination := filepath.Join(r.releaseDir, destName)

	if err := copyFile(source, destination); err != nil {
		return err
	}

	return r.recordExisting(ctx, target, fragment, destination)
}

// recordExisting digests a file already inside the release directory,
// writes its .sha256 sidecar and attaches the Artifact to the release.
func (r *runner) recordExisting(ctx context.Context, target, fragment, destination string) error {
	sums, err := checksum.File(destination)
	if err != nil {
		return err
	}

	info, err := os.Stat(destination)
	if err != nil {
		return fmt.Errorf("stat %s: %w", destination, err)
	}

	destName := filepath.Base(destination)

	if err = writeSidecar(destination, destName, sums.SHA256); err != nil {
		return err
	}

	r.rel.AddArtifact(domain.Artifact{
		Target:   target,
		Fragment: fragment,
		Filename: destName,
		Size:     info.Size(),
		MD5:      sums.MD5,
		SHA256:   sums.SHA256,
	})

	logger.InfoKV(ctx, "Recorded artifact",
		"target", target,
		"file", destName,
		"size", info.Size(),
		"sha256", sums.SHA256[:shaPreviewLength]+"...")

	return nil
}

// writeSidecar writes "<sha256>  <filename>\n" next to the artifact, in the
// format sha256sum -c accepts.
func writeSidecar(destination, destName, sha string) error {
	sidecarPath := strings.TrimSuffix(destination, filepath.Ext(destination)) + sidecarExtension
	content := fmt.Sprintf("%s  %s\n", sha, destName)

	if err := os.WriteFile(sidecarPath, []byte(content), artifactPermissions); err != nil {
		return fmt.Errorf("write sidecar %s: %w", sidecarPath, err)
	}

	return nil
}

// copyFile streams source to destination, creating or truncating it.
func copyFile(source, destination string) error {
	in, err := os.Open(filepath.Clean(source))
	if err != nil {
		return fmt.Errorf("open %s: %w", source, err)
	}

	defer func() {
		_ = in.Close()
	}()

	out, err := os.OpenFile(filepath.Clean(destination), os.O_WRONLY|os.O_CREATE|os.O_TRUNC, artifactPermissions)
	if err != nil {
		return fmt.Errorf("create %s: %w", destination, err)
	}

	if _, err = io.Copy(out, in); err != nil {
		_ = out.Close()

		return fmt.Errorf("copy %s to %s: %w", source, destination, err)
	}

	if err = out.Close(); err != nil {
		return fmt.Errorf("close %s: %w", destination, err)
	}

	return nil
}
