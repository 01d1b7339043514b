package release

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"text/template"

	"github.com/oshokin/fw-release/internal/config"
	domain "github.com/oshokin/fw-release/internal/domain/release"
	"github.com/oshokin/fw-release/internal/logger"
)

const notesFilename = "RELEASE_NOTES.md"

// notesTemplate renders the human-readable release document. It carries the
// complete fact set a release consumer needs: version, files per target,
// flash offsets and verification instructions.
const notesTemplate = `# {{.ProjectName}} v{{.Version}}

## Release Date

{{.Date}}

## Files

| Target | File | Size (bytes) | SHA-256 |
|--------|------|--------------|---------|
{{- range .Targets}}
{{- $target := .Name}}
{{- range .Artifacts}}
| {{$target}} | {{.Filename}} | {{.Size}} | {{.SHA256}} |
{{- end}}
{{- end}}

## Flash Layout

| Fragment | Offset |
|----------|--------|
{{- range .Layout}}
| {{.Name}} | {{printf "0x%x" .Offset}} |
{{- end}}

## Flashing

Firmware only (application partition):

` + "```" + `bash
esptool.py --chip esp32 --baud 921600 \
    write_flash -z {{printf "0x%x" .PrimaryOffset}} {{.PrimaryFragment}}_<target>_v{{.Version}}.bin
` + "```" + `

Full image (whole flash, offset zero):

` + "```" + `bash
esptool.py --chip esp32 --baud 921600 \
    write_flash -z 0x0 {{.PrimaryFragment}}_<target>_v{{.Version}}_full.bin
` + "```" + `

## Verification

Each binary has a corresponding .sha256 file for integrity verification:

` + "```" + `bash
sha256sum -c <file>.sha256
` + "```" + `
`

// notesTarget groups a target with its recorded artifacts for rendering.
type notesTarget struct {
	Name      string
	Artifacts []domain.Artifact
}

// notesData is the fact set the release notes are rendered from.
type notesData struct {
	ProjectName     string
	Version         string
	Date            string
	Targets         []notesTarget
	Layout          []config.Fragment
	PrimaryFragment string
	PrimaryOffset   int64
}

// writeReleaseNotes renders RELEASE_NOTES.md into the release directory.
func (r *runner) writeReleaseNotes(ctx context.Context) error {
	tmpl, err := template.New("notes").Parse(notesTemplate)
	if err != nil {
		return fmt.Errorf("parse release notes template: %w", err)
	}

	data := notesData{
		ProjectName:     r.cfg.ProjectName,
		Version:         r.rel.Version.String(),
		Date:            r.rel.CreatedAt.UTC().Format("2006-01-02 15:04:05"),
		Layout:          r.cfg.Layout,
		PrimaryFragment: r.cfg.PrimaryFragment,
	}

	for _, fragment := range r.cfg.Layout {
		if fragment.Name == r.cfg.PrimaryFragment {
			data.PrimaryOffset = fragment.Offset
		}
	}

	for _, target := range r.rel.Targets {
		data.Targets = append(data.Targets, notesTarget{
			Name:      target,
			Artifacts: r.rel.ArtifactsFor(target),
		})
	}

	path := filepath.Join(r.releaseDir, notesFilename)

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}

	if err = tmpl.Execute(file, data); err != nil {
		_ = file.Close()

		return fmt.Errorf("render release notes: %w", err)
	}

	if err = file.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}

	logger.InfoKV(ctx, "Wrote release notes", "path", notesFilename)

	return nil
}
