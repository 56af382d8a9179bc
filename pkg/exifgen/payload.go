package exifgen

import (
	"bytes"
	"fmt"

	exif "github.com/dsoprea/go-exif/v3"
	exifcommon "github.com/dsoprea/go-exif/v3/common"
)

// exifPrefix starts the body of a JPEG APP1 EXIF segment.
var exifPrefix = []byte("Exif\x00\x00")

const exifIfdPath = "IFD/Exif"

func newTagging() (*exifcommon.IfdMapping, *exif.TagIndex, error) {
	im, err := exifcommon.NewIfdMappingWithStandard()
	if err != nil {
		return nil, nil, fmt.Errorf("ifd mapping: %w", err)
	}

	ti := exif.NewTagIndex()
	if err := exif.LoadStandardTags(ti); err != nil {
		return nil, nil, fmt.Errorf("load standard tags: %w", err)
	}
	return im, ti, nil
}

func exifValue(v any) any {
	switch val := v.(type) {
	case Rational:
		return []exifcommon.Rational{{Numerator: val.Numerator, Denominator: val.Denominator}}
	case uint16:
		return []uint16{val}
	default:
		return v
	}
}

// builder returns a root IFD builder holding the settings in its Exif sub-IFD.
func (s Settings) builder() (*exif.IfdBuilder, error) {
	es, err := s.entries()
	if err != nil {
		return nil, err
	}

	im, ti, err := newTagging()
	if err != nil {
		return nil, err
	}

	rootIb := exif.NewIfdBuilder(im, ti, exifcommon.IfdStandardIfdIdentity, exifcommon.EncodeDefaultByteOrder)
	exifIb, err := exif.GetOrCreateIbFromRootIb(rootIb, exifIfdPath)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", exifIfdPath, err)
	}

	for _, e := range es {
		if err := exifIb.AddStandardWithName(e.name, exifValue(e.value)); err != nil {
			return nil, fmt.Errorf("add %s: %w", e.name, err)
		}
	}
	return rootIb, nil
}

// BuildPayload encodes the settings as an APP1 EXIF body: the "Exif\0\0"
// prefix followed by a TIFF structure with the tags in the Exif sub-IFD.
func BuildPayload(s Settings) ([]byte, error) {
	rootIb, err := s.builder()
	if err != nil {
		return nil, err
	}

	tiff, err := exif.NewIfdByteEncoder().EncodeToExif(rootIb)
	if err != nil {
		return nil, fmt.Errorf("encode: %w", err)
	}

	var b bytes.Buffer
	b.Grow(len(exifPrefix) + len(tiff))
	b.Write(exifPrefix)
	b.Write(tiff)
	return b.Bytes(), nil
}

// builderFromPayload reverses BuildPayload into an IFD builder chain.
func builderFromPayload(payload []byte) (*exif.IfdBuilder, error) {
	tiff := bytes.TrimPrefix(payload, exifPrefix)

	im, ti, err := newTagging()
	if err != nil {
		return nil, err
	}

	_, index, err := exif.Collect(im, ti, tiff)
	if err != nil {
		return nil, fmt.Errorf("collect: %w", err)
	}
	return exif.NewIfdBuilderFromExistingChain(index.RootIfd), nil
}
