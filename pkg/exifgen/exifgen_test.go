package exifgen

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"math/rand/v2"
	"os"
	"os/exec"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed))
}

func sampleSettings() Settings {
	return Settings{
		LensMake:         "Voigtländer",
		LensModel:        "Nokton 40mm f/1.2 Aspherical",
		CameraOwnerName:  "Isabel",
		BodySerialNumber: "4523421",
		LensSerialNumber: "9876543",
		FocalLength:      "35,1",
		FNumber:          "28,10",
		ExposureTime:     "125,1000",
		ISOSpeedRatings:  "3200",
	}
}

func testJPEG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 32, 24))
	for y := 0; y < 24; y++ {
		for x := 0; x < 32; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 8), G: uint8(y * 10), B: 128, A: 255})
		}
	}
	var b bytes.Buffer
	require.NoError(t, jpeg.Encode(&b, img, &jpeg.Options{Quality: 80}))
	return b.Bytes()
}

func inRange(t *testing.T, s string, lo, hi int) {
	t.Helper()
	n, err := strconv.Atoi(s)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, n, lo)
	assert.LessOrEqual(t, n, hi)
}

func TestRandomizeKeepsCatalogPairs(t *testing.T) {
	rng := testRand(1)
	cat := Catalog()
	for i := 0; i < 2000; i++ {
		s := Randomize(rng)
		assert.Contains(t, cat, Lens{Make: s.LensMake, Model: s.LensModel})
		assert.Contains(t, Owners(), s.CameraOwnerName)
	}
}

func TestRandomizeRanges(t *testing.T) {
	rng := testRand(2)
	for i := 0; i < 2000; i++ {
		s := Randomize(rng)
		inRange(t, s.BodySerialNumber, 1000000, 9999999)
		inRange(t, s.LensSerialNumber, 1000000, 9999999)
		inRange(t, s.ISOSpeedRatings, 100, 6400)

		fl, err := ParseRational("FocalLength", s.FocalLength)
		require.NoError(t, err)
		assert.EqualValues(t, 1, fl.Denominator)
		assert.True(t, fl.Numerator >= 24 && fl.Numerator <= 70, "focal length %v", fl)

		fn, err := ParseRational("FNumber", s.FNumber)
		require.NoError(t, err)
		assert.EqualValues(t, 10, fn.Denominator)
		assert.True(t, fn.Numerator >= 28 && fn.Numerator <= 56, "f-number %v", fn)

		et, err := ParseRational("ExposureTime", s.ExposureTime)
		require.NoError(t, err)
		assert.EqualValues(t, 1000, et.Denominator)
		assert.True(t, et.Numerator >= 1 && et.Numerator <= 1000, "exposure %v", et)
	}
}

func TestRandomizeNilRand(t *testing.T) {
	s := Randomize(nil)
	assert.NotEmpty(t, s.LensMake)
	_, err := BuildPayload(s)
	assert.NoError(t, err)
}

func TestCatalogSize(t *testing.T) {
	assert.Len(t, Catalog(), 20)
	assert.Len(t, Owners(), 10)
}

func TestDefault(t *testing.T) {
	s := Default(testRand(3))
	assert.Equal(t, "Canon", s.LensMake)
	assert.Equal(t, "EF 24-70mm f/2.8L II USM", s.LensModel)
	assert.Equal(t, "Melissa", s.CameraOwnerName)
	inRange(t, s.BodySerialNumber, 1000000, 9999999)
}

func TestValues(t *testing.T) {
	s := sampleSettings()
	vs := s.Values()
	require.Len(t, vs, len(FieldNames))
	assert.Equal(t, "Voigtländer", vs[0])
	assert.Equal(t, "3200", vs[8])

	got, err := FromValues(vs)
	require.NoError(t, err)
	assert.Equal(t, s, got)

	_, err = FromValues(vs[:3])
	assert.Error(t, err)
}

func TestParseRational(t *testing.T) {
	tests := []struct {
		in      string
		want    Rational
		wantErr bool
	}{
		{in: "24,1", want: Rational{24, 1}},
		{in: " 28 , 10 ", want: Rational{28, 10}},
		{in: "1,1000", want: Rational{1, 1000}},
		{in: "abc", wantErr: true},
		{in: "abc,1", wantErr: true},
		{in: "1,abc", wantErr: true},
		{in: "1,0", wantErr: true},
		{in: "-1,2", wantErr: true},
		{in: "1,2,3", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			got, err := ParseRational("FocalLength", tc.in)
			if !tc.wantErr {
				require.NoError(t, err)
				assert.Equal(t, tc.want, got)
				assert.Equal(t, strings.ReplaceAll(tc.in, " ", ""), got.String())
				return
			}
			var pe *ParseError
			require.True(t, errors.As(err, &pe), "got %v", err)
			assert.Equal(t, "FocalLength", pe.Field)
			assert.Equal(t, tc.in, pe.Value)
		})
	}
}

func TestParseISO(t *testing.T) {
	iso, err := ParseISO("6400")
	require.NoError(t, err)
	assert.EqualValues(t, 6400, iso)

	for _, bad := range []string{"", "fast", "70000", "-100"} {
		_, err := ParseISO(bad)
		var pe *ParseError
		assert.True(t, errors.As(err, &pe), "%q: got %v", bad, err)
	}
}

func TestBuildPayloadRoundTrip(t *testing.T) {
	for _, s := range []Settings{sampleSettings(), Default(testRand(4)), Randomize(testRand(5))} {
		payload, err := BuildPayload(s)
		require.NoError(t, err)
		assert.True(t, bytes.HasPrefix(payload, []byte("Exif\x00\x00")))

		got, err := DecodePayload(payload)
		require.NoError(t, err)
		assert.Equal(t, s, got)
	}
}

func TestBuildPayloadMalformed(t *testing.T) {
	tests := []struct {
		field  string
		mutate func(*Settings)
	}{
		{"FocalLength", func(s *Settings) { s.FocalLength = "abc" }},
		{"FNumber", func(s *Settings) { s.FNumber = "2.8" }},
		{"ExposureTime", func(s *Settings) { s.ExposureTime = "1/250" }},
		{"ISOSpeedRatings", func(s *Settings) { s.ISOSpeedRatings = "auto" }},
	}

	for _, tc := range tests {
		t.Run(tc.field, func(t *testing.T) {
			s := sampleSettings()
			tc.mutate(&s)
			payload, err := BuildPayload(s)
			assert.Nil(t, payload)
			var pe *ParseError
			require.True(t, errors.As(err, &pe), "got %v", err)
			assert.Equal(t, tc.field, pe.Field)
		})
	}
}

func TestEmbed(t *testing.T) {
	s := sampleSettings()
	payload, err := BuildPayload(s)
	require.NoError(t, err)

	src := testJPEG(t)
	out, err := Embed(src, payload)
	require.NoError(t, err)

	got, err := Read(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, s, got)

	img, err := jpeg.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 32, 24), img.Bounds())

	// Embedding again replaces the segment rather than stacking a second one.
	s2 := Randomize(testRand(6))
	payload2, err := BuildPayload(s2)
	require.NoError(t, err)
	out2, err := Embed(out, payload2)
	require.NoError(t, err)
	got2, err := Read(bytes.NewReader(out2))
	require.NoError(t, err)
	assert.Equal(t, s2, got2)
}

func TestEmbedRejectsGarbage(t *testing.T) {
	payload, err := BuildPayload(sampleSettings())
	require.NoError(t, err)

	_, err = Embed([]byte("not a jpeg"), payload)
	assert.ErrorIs(t, err, ErrNotJPEG)

	_, err = Embed(testJPEG(t), []byte("Exif\x00\x00garbage"))
	assert.Error(t, err)
}

func TestReadWithoutExif(t *testing.T) {
	_, err := Read(bytes.NewReader(testJPEG(t)))
	assert.Error(t, err)
}

func TestWriteAnnotatedCopy(t *testing.T) {
	s := sampleSettings()
	payload, err := BuildPayload(s)
	require.NoError(t, err)

	dir := t.TempDir()
	p := filepath.Join(dir, "00000_exif.jpg")
	require.NoError(t, WriteAnnotatedCopy(testJPEG(t), payload, p))

	f, err := os.Open(p)
	require.NoError(t, err)
	defer f.Close()

	got, err := Read(f)
	require.NoError(t, err)
	assert.Equal(t, s, got)
}

func TestWriteAnnotatedCopyMissingDir(t *testing.T) {
	payload, err := BuildPayload(sampleSettings())
	require.NoError(t, err)

	p := filepath.Join(t.TempDir(), "missing", "00000_exif.jpg")
	assert.Error(t, WriteAnnotatedCopy(testJPEG(t), payload, p))
}

func TestSettingsYAML(t *testing.T) {
	s := sampleSettings()
	p := filepath.Join(t.TempDir(), "settings.yaml")

	var b bytes.Buffer
	require.NoError(t, s.WriteYAML(&b))
	assert.Contains(t, b.String(), "lens_make: Voigtländer")
	require.NoError(t, os.WriteFile(p, b.Bytes(), 0o644))

	got, err := LoadSettings(p)
	require.NoError(t, err)
	assert.Equal(t, s, got)
}

func TestLoadSettingsUnquotedNumbers(t *testing.T) {
	p := filepath.Join(t.TempDir(), "settings.yaml")
	doc := "lens_make: Nikon\nbody_serial_number: 1234567\niso_speed_ratings: 800\nfocal_length: \"50,1\"\n"
	require.NoError(t, os.WriteFile(p, []byte(doc), 0o644))

	got, err := LoadSettings(p)
	require.NoError(t, err)
	assert.Equal(t, "Nikon", got.LensMake)
	assert.Equal(t, "1234567", got.BodySerialNumber)
	assert.Equal(t, "800", got.ISOSpeedRatings)
	assert.Equal(t, "50,1", got.FocalLength)
	assert.Empty(t, got.LensModel)
}

func TestLoadSettingsErrors(t *testing.T) {
	_, err := LoadSettings(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)

	p := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(p, []byte("lens_make: [unterminated"), 0o644))
	_, err = LoadSettings(p)
	assert.Error(t, err)
}

func TestFieldNamesMatchTags(t *testing.T) {
	es, err := sampleSettings().entries()
	require.NoError(t, err)

	var names []string
	for _, e := range es {
		names = append(names, e.name)
	}
	want := slices.Clone(FieldNames)
	slices.Sort(want)
	slices.Sort(names)
	assert.Equal(t, want, names)
}

func TestVerify(t *testing.T) {
	if _, err := exec.LookPath("exiftool"); err != nil {
		t.Skip("exiftool not installed")
	}

	s := sampleSettings()
	payload, err := BuildPayload(s)
	require.NoError(t, err)

	p := filepath.Join(t.TempDir(), "00000_exif.jpg")
	require.NoError(t, WriteAnnotatedCopy(testJPEG(t), payload, p))
	assert.NoError(t, Verify(p, s))

	other := s
	other.CameraOwnerName = "Bob"
	assert.Error(t, Verify(p, other))
}
