package exifgen

import (
	"errors"
	"fmt"
	"math"

	"github.com/barasher/go-exiftool"
	"k8s.io/klog/v2"
)

// ErrNoExiftool is returned by Verify when the exiftool binary cannot be started.
var ErrNoExiftool = errors.New("exiftool unavailable")

// Verify reads path back through exiftool and compares it against want.
// It is an independent check of what BuildPayload and Embed produced.
func Verify(path string, want Settings) error {
	et, err := exiftool.NewExiftool(exiftool.NoPrintConversion())
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNoExiftool, err)
	}
	defer et.Close()

	fis := et.ExtractMetadata(path)
	if len(fis) == 0 {
		return fmt.Errorf("no metadata returned for %q", path)
	}
	fi := fis[0]
	if fi.Err != nil {
		return fmt.Errorf("extract fail for %q: %w", path, fi.Err)
	}

	for k, v := range fi.Fields {
		klog.V(2).Infof("%q=%v", k, v)
	}

	var errs []error
	text := func(key string, want string) {
		got, err := fi.GetString(key)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", key, err))
			return
		}
		if got != want {
			errs = append(errs, fmt.Errorf("%s: got %q, want %q", key, got, want))
		}
	}
	ratio := func(key string, field string, s string) {
		r, err := ParseRational(field, s)
		if err != nil {
			errs = append(errs, err)
			return
		}
		got, err := fi.GetFloat(key)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", key, err))
			return
		}
		want := float64(r.Numerator) / float64(r.Denominator)
		if math.Abs(got-want) > 1e-6*math.Max(1, want) {
			errs = append(errs, fmt.Errorf("%s: got %v, want %v", key, got, want))
		}
	}

	// exiftool's names for 0xa430 and 0xa431 differ from the EXIF 2.3 names.
	text("LensMake", want.LensMake)
	text("LensModel", want.LensModel)
	text("OwnerName", want.CameraOwnerName)
	text("SerialNumber", want.BodySerialNumber)
	text("LensSerialNumber", want.LensSerialNumber)
	ratio("FocalLength", "FocalLength", want.FocalLength)
	ratio("FNumber", "FNumber", want.FNumber)
	ratio("ExposureTime", "ExposureTime", want.ExposureTime)

	iso, err := ParseISO(want.ISOSpeedRatings)
	if err != nil {
		errs = append(errs, err)
	} else if got, err := fi.GetInt("ISO"); err != nil {
		errs = append(errs, fmt.Errorf("ISO: %w", err))
	} else if got != int64(iso) {
		errs = append(errs, fmt.Errorf("ISO: got %d, want %d", got, iso))
	}

	return errors.Join(errs...)
}
