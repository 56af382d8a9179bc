package exifgen

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/rwcarlsen/goexif/exif"
	"github.com/rwcarlsen/goexif/tiff"
)

// goexif knows LensMake and LensModel but not these Exif 2.3 tags.
const (
	cameraOwnerName  exif.FieldName = "CameraOwnerName"
	bodySerialNumber exif.FieldName = "BodySerialNumber"
	lensSerialNumber exif.FieldName = "LensSerialNumber"
)

var serialFields = map[uint16]exif.FieldName{
	0xa430: cameraOwnerName,
	0xa431: bodySerialNumber,
	0xa435: lensSerialNumber,
}

// serialParser loads the owner and serial tags from the Exif sub-IFD.
type serialParser struct{}

func (serialParser) Parse(x *exif.Exif) error {
	tag, err := x.Get(exif.ExifIFDPointer)
	if err != nil {
		return nil
	}
	offset, err := tag.Int64(0)
	if err != nil {
		return nil
	}

	r := bytes.NewReader(x.Raw)
	if _, err := r.Seek(offset, io.SeekStart); err != nil {
		return nil
	}
	d, _, err := tiff.DecodeDir(r, x.Tiff.Order)
	if err != nil {
		return nil
	}
	x.LoadTags(d, serialFields, false)
	return nil
}

func init() {
	exif.RegisterParsers(serialParser{})
}

// DecodePayload decodes a payload produced by BuildPayload.
func DecodePayload(payload []byte) (Settings, error) {
	return Read(bytes.NewReader(payload))
}

// Read decodes the synthesized fields from a JPEG file, a raw TIFF block, or
// an APP1 payload. Tags that are absent are left empty.
func Read(r io.Reader) (Settings, error) {
	x, err := exif.Decode(r)
	if err != nil && (x == nil || exif.IsCriticalError(err)) {
		return Settings{}, fmt.Errorf("decode: %w", err)
	}

	var s Settings
	var errs []error
	str := func(name exif.FieldName, dst *string) {
		tag, err := x.Get(name)
		if err != nil {
			return
		}
		v, err := tag.StringVal()
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
			return
		}
		*dst = v
	}
	rat := func(name exif.FieldName, dst *string) {
		tag, err := x.Get(name)
		if err != nil {
			return
		}
		n, d, err := tag.Rat2(0)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
			return
		}
		*dst = fmt.Sprintf("%d,%d", n, d)
	}

	str(exif.LensMake, &s.LensMake)
	str(exif.LensModel, &s.LensModel)
	str(cameraOwnerName, &s.CameraOwnerName)
	str(bodySerialNumber, &s.BodySerialNumber)
	str(lensSerialNumber, &s.LensSerialNumber)
	rat(exif.FocalLength, &s.FocalLength)
	rat(exif.FNumber, &s.FNumber)
	rat(exif.ExposureTime, &s.ExposureTime)

	if tag, err := x.Get(exif.ISOSpeedRatings); err == nil {
		iso, err := tag.Int(0)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", exif.ISOSpeedRatings, err))
		} else {
			s.ISOSpeedRatings = strconv.Itoa(iso)
		}
	}

	return s, errors.Join(errs...)
}
