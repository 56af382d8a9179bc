// Package exifgen synthesizes camera EXIF metadata and attaches it to JPEG files.
package exifgen

import (
	"fmt"
	"io"
	"math/rand/v2"
	"os"

	"gopkg.in/yaml.v3"
)

// Settings is the human-editable form of the synthesized metadata.
// Rationals are written as "numerator,denominator".
type Settings struct {
	LensMake         string `yaml:"lens_make"`
	LensModel        string `yaml:"lens_model"`
	CameraOwnerName  string `yaml:"camera_owner_name"`
	BodySerialNumber string `yaml:"body_serial_number"`
	LensSerialNumber string `yaml:"lens_serial_number"`
	FocalLength      string `yaml:"focal_length"`
	FNumber          string `yaml:"f_number"`
	ExposureTime     string `yaml:"exposure_time"`
	ISOSpeedRatings  string `yaml:"iso_speed_ratings"`
}

// FieldNames are the EXIF tag names of each Settings field, in display order.
var FieldNames = []string{
	"LensMake",
	"LensModel",
	"CameraOwnerName",
	"BodySerialNumber",
	"LensSerialNumber",
	"FocalLength",
	"FNumber",
	"ExposureTime",
	"ISOSpeedRatings",
}

// Values returns the fields in display order, for binding to form inputs.
func (s Settings) Values() []string {
	return []string{
		s.LensMake,
		s.LensModel,
		s.CameraOwnerName,
		s.BodySerialNumber,
		s.LensSerialNumber,
		s.FocalLength,
		s.FNumber,
		s.ExposureTime,
		s.ISOSpeedRatings,
	}
}

// FromValues is the inverse of Settings.Values.
func FromValues(vs []string) (Settings, error) {
	if len(vs) != len(FieldNames) {
		return Settings{}, fmt.Errorf("got %d values, want %d", len(vs), len(FieldNames))
	}
	return Settings{
		LensMake:         vs[0],
		LensModel:        vs[1],
		CameraOwnerName:  vs[2],
		BodySerialNumber: vs[3],
		LensSerialNumber: vs[4],
		FocalLength:      vs[5],
		FNumber:          vs[6],
		ExposureTime:     vs[7],
		ISOSpeedRatings:  vs[8],
	}, nil
}

// Default returns the stock lens and owner with freshly drawn numeric fields.
func Default(rng *rand.Rand) Settings {
	s := randomNumbers(source(rng))
	s.LensMake = "Canon"
	s.LensModel = "EF 24-70mm f/2.8L II USM"
	s.CameraOwnerName = "Melissa"
	return s
}

// LoadSettings reads settings from a YAML file. Missing fields stay empty.
func LoadSettings(path string) (Settings, error) {
	var s Settings
	bs, err := os.ReadFile(path)
	if err != nil {
		return s, fmt.Errorf("read: %w", err)
	}
	if err := yaml.Unmarshal(bs, &s); err != nil {
		return s, fmt.Errorf("unmarshal %s: %w", path, err)
	}
	return s, nil
}

// WriteYAML writes the settings in the format read by LoadSettings.
func (s Settings) WriteYAML(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(s); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return enc.Close()
}
