package exifgen

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	jpegstructure "github.com/dsoprea/go-jpeg-image-structure/v2"
	"k8s.io/klog/v2"
)

// ErrNotJPEG is returned when the input does not start with a JPEG SOI marker.
var ErrNotJPEG = errors.New("not a jpeg")

var soi = []byte{0xff, 0xd8}

// Embed returns a copy of the JPEG with payload stored as its EXIF segment,
// replacing any EXIF segment already present.
func Embed(jpegBytes []byte, payload []byte) ([]byte, error) {
	if !bytes.HasPrefix(jpegBytes, soi) {
		return nil, ErrNotJPEG
	}

	rootIb, err := builderFromPayload(payload)
	if err != nil {
		return nil, fmt.Errorf("payload: %w", err)
	}

	mc, err := jpegstructure.NewJpegMediaParser().ParseBytes(jpegBytes)
	if err != nil {
		return nil, fmt.Errorf("parse jpeg: %w", err)
	}

	sl, ok := mc.(*jpegstructure.SegmentList)
	if !ok {
		return nil, fmt.Errorf("unexpected media context %T", mc)
	}

	if err := sl.SetExif(rootIb); err != nil {
		return nil, fmt.Errorf("set exif: %w", err)
	}

	var b bytes.Buffer
	if err := sl.Write(&b); err != nil {
		return nil, fmt.Errorf("write jpeg: %w", err)
	}
	return b.Bytes(), nil
}

// WriteAnnotatedCopy writes jpegBytes to path with payload embedded.
// The destination directory must already exist.
func WriteAnnotatedCopy(jpegBytes []byte, payload []byte, path string) error {
	bs, err := Embed(jpegBytes, payload)
	if err != nil {
		return fmt.Errorf("embed: %w", err)
	}

	if err := os.WriteFile(path, bs, 0o644); err != nil {
		return fmt.Errorf("write file: %w", err)
	}

	klog.Infof("realartifact: exif image saved: %s (%d bytes)", path, len(bs))
	return nil
}
