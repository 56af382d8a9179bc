package extras

import (
	"fmt"
	"path/filepath"

	"github.com/tstromberg/realartifact/pkg/exifgen"
)

// Exporter writes EXIF-annotated copies into the extras folder under BaseDir.
type Exporter struct {
	BaseDir string
}

// Export locates the extras folder, picks the next free sequence name, and
// writes jpegBytes there with payload embedded. It returns the written path.
func (e *Exporter) Export(jpegBytes []byte, payload []byte) (string, error) {
	dir, err := Locate(e.BaseDir)
	if err != nil {
		return "", fmt.Errorf("locate: %w", err)
	}

	name, err := NextFilename(dir)
	if err != nil {
		return "", fmt.Errorf("next filename: %w", err)
	}

	p := filepath.Join(dir, name)
	if err := exifgen.WriteAnnotatedCopy(jpegBytes, payload, p); err != nil {
		return "", fmt.Errorf("write %s: %w", p, err)
	}
	return p, nil
}
