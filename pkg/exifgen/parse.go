package exifgen

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Rational is an EXIF RATIONAL value.
type Rational struct {
	Numerator   uint32
	Denominator uint32
}

func (r Rational) String() string {
	return fmt.Sprintf("%d,%d", r.Numerator, r.Denominator)
}

// ParseError describes a settings field that could not be parsed.
type ParseError struct {
	Field string
	Value string
	Err   error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s %q: %v", e.Field, e.Value, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

var (
	errRationalForm = errors.New(`want "numerator,denominator"`)
	errZeroDenom    = errors.New("zero denominator")
)

// ParseRational parses "numerator,denominator" into a Rational.
func ParseRational(field, s string) (Rational, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return Rational{}, &ParseError{Field: field, Value: s, Err: errRationalForm}
	}

	n, err := strconv.ParseUint(strings.TrimSpace(parts[0]), 10, 32)
	if err != nil {
		return Rational{}, &ParseError{Field: field, Value: s, Err: err}
	}

	d, err := strconv.ParseUint(strings.TrimSpace(parts[1]), 10, 32)
	if err != nil {
		return Rational{}, &ParseError{Field: field, Value: s, Err: err}
	}
	if d == 0 {
		return Rational{}, &ParseError{Field: field, Value: s, Err: errZeroDenom}
	}

	return Rational{Numerator: uint32(n), Denominator: uint32(d)}, nil
}

// ParseISO parses an ISO speed, which EXIF stores as a SHORT.
func ParseISO(s string) (uint16, error) {
	v, err := strconv.ParseUint(strings.TrimSpace(s), 10, 16)
	if err != nil {
		return 0, &ParseError{Field: "ISOSpeedRatings", Value: s, Err: err}
	}
	return uint16(v), nil
}

// entry is one encoded tag of the Exif sub-IFD.
type entry struct {
	name  string
	value any
}

// entries returns the settings as typed tag values in ascending tag ID order.
func (s Settings) entries() ([]entry, error) {
	exposure, err := ParseRational("ExposureTime", s.ExposureTime)
	if err != nil {
		return nil, err
	}
	fnum, err := ParseRational("FNumber", s.FNumber)
	if err != nil {
		return nil, err
	}
	iso, err := ParseISO(s.ISOSpeedRatings)
	if err != nil {
		return nil, err
	}
	focal, err := ParseRational("FocalLength", s.FocalLength)
	if err != nil {
		return nil, err
	}

	return []entry{
		{"ExposureTime", exposure},
		{"FNumber", fnum},
		{"ISOSpeedRatings", iso},
		{"FocalLength", focal},
		{"CameraOwnerName", s.CameraOwnerName},
		{"BodySerialNumber", s.BodySerialNumber},
		{"LensMake", s.LensMake},
		{"LensModel", s.LensModel},
		{"LensSerialNumber", s.LensSerialNumber},
	}, nil
}
