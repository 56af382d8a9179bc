package exifgen

import (
	"fmt"
	"math/rand/v2"
	"strconv"
)

// Lens is a lens maker and one of its models.
type Lens struct {
	Make  string
	Model string
}

var lenses = []Lens{
	{"Canon", "EF 24-70mm f/2.8L II USM"},
	{"Nikon", "AF-S NIKKOR 50mm f/1.8G"},
	{"Sony", "FE 24-70mm f/2.8 GM"},
	{"Sigma", "35mm f/1.4 DG HSM Art"},
	{"Tamron", "SP 70-200mm f/2.8 Di VC USD G2"},
	{"Leica", "Summilux-M 35mm f/1.4 ASPH"},
	{"Fujifilm", "XF 16-55mm f/2.8 R LM WR"},
	{"Panasonic", "Lumix S Pro 50mm f/1.4"},
	{"Zeiss", "Otus 55mm f/1.4"},
	{"Olympus", "M.Zuiko Digital ED 12-40mm f/2.8 PRO"},
	{"Pentax", "HD DA 20-40mm f/2.8-4 Limited DC WR"},
	{"Samsung", "NX 16-50mm f/2-2.8 S ED OIS"},
	{"Tokina", "AT-X 11-20mm f/2.8 PRO DX"},
	{"Voigtländer", "Nokton 40mm f/1.2 Aspherical"},
	{"Yongnuo", "YN 50mm f/1.8 II"},
	{"Hasselblad", "XCD 45mm f/3.5"},
	{"Rokinon", "SP 14mm f/2.4"},
	{"Samyang", "AF 85mm f/1.4 EF"},
	{"Tokina", "Opera 16-28mm f/2.8 FF"},
	{"Zeiss", "Batis 85mm f/1.8"},
}

var owners = []string{
	"Alice",
	"Bob",
	"Catherine",
	"David",
	"Elena",
	"Frank",
	"Grace",
	"Melissa",
	"Isabel",
	"Jack",
}

// Catalog returns a copy of the lens catalog Randomize draws from.
func Catalog() []Lens {
	return append([]Lens(nil), lenses...)
}

// Owners returns a copy of the owner names Randomize draws from.
func Owners() []string {
	return append([]string(nil), owners...)
}

// Randomize returns a complete, internally consistent set of settings.
// The lens make and model are always drawn together as one catalog entry.
// A nil rng draws from a freshly seeded source.
func Randomize(rng *rand.Rand) Settings {
	rng = source(rng)
	l := lenses[rng.IntN(len(lenses))]
	s := randomNumbers(rng)
	s.LensMake = l.Make
	s.LensModel = l.Model
	s.CameraOwnerName = owners[rng.IntN(len(owners))]
	return s
}

func source(rng *rand.Rand) *rand.Rand {
	if rng != nil {
		return rng
	}
	return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
}

// between returns a uniform integer in [lo, hi].
func between(rng *rand.Rand, lo, hi int) int {
	return lo + rng.IntN(hi-lo+1)
}

func randomNumbers(rng *rand.Rand) Settings {
	return Settings{
		BodySerialNumber: strconv.Itoa(between(rng, 1000000, 9999999)),
		LensSerialNumber: strconv.Itoa(between(rng, 1000000, 9999999)),
		FocalLength:      fmt.Sprintf("%d,1", between(rng, 24, 70)),
		FNumber:          fmt.Sprintf("%d,10", between(rng, 28, 56)),
		ExposureTime:     fmt.Sprintf("%d,1000", between(rng, 1, 1000)),
		ISOSpeedRatings:  strconv.Itoa(between(rng, 100, 6400)),
	}
}
