package artifact

import (
	"fmt"
	"image"

	"github.com/tstromberg/realartifact/pkg/exifgen"
	"k8s.io/klog/v2"
)

// Exporter writes an EXIF-annotated copy of an encoded image somewhere durable.
type Exporter interface {
	Export(jpegBytes []byte, payload []byte) (string, error)
}

// Process is the host entry point: it degrades img and, when p.EnableExif is
// set, hands the encoded result and the settings' EXIF payload to exp.
//
// Degradation failures are returned. Export failures are logged and stored in
// Result.ExportErr; they never discard the degraded image.
func Process(img image.Image, p Params, s exifgen.Settings, exp Exporter, opts ...Option) (*Result, error) {
	res, err := Degrade(img, p, opts...)
	if err != nil {
		klog.Errorf("realartifact: error processing: %v", err)
		return nil, err
	}

	if !p.EnableExif {
		return res, nil
	}

	res.ExportPath, res.ExportErr = export(res.JPEG, s, exp)
	if res.ExportErr != nil {
		klog.Errorf("realartifact: error exif: %v", res.ExportErr)
	}
	return res, nil
}

func export(jpegBytes []byte, s exifgen.Settings, exp Exporter) (string, error) {
	if exp == nil {
		return "", fmt.Errorf("no exporter configured")
	}

	payload, err := exifgen.BuildPayload(s)
	if err != nil {
		return "", fmt.Errorf("build payload: %w", err)
	}

	return exp.Export(jpegBytes, payload)
}
