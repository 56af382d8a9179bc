package artifact

import (
	"image"
	"image/draw"
	"math"
	"math/rand/v2"
)

// BoostedFraction is the share of pixel positions that get the stronger noise.
const BoostedFraction = 0.05

// Flatten returns an opaque RGBA copy of img. Alpha is discarded, not
// blended: each pixel keeps its un-premultiplied color.
func Flatten(img image.Image) *image.RGBA {
	b := img.Bounds()
	n := image.NewNRGBA(b)
	draw.Draw(n, b, img, b.Min, draw.Src)
	for i := 3; i < len(n.Pix); i += 4 {
		n.Pix[i] = 0xff
	}
	// With alpha at 255, premultiplied and straight values coincide.
	return &image.RGBA{Pix: n.Pix, Stride: n.Stride, Rect: n.Rect}
}

// boostMask marks roughly BoostedFraction of n positions for boosted noise.
func boostMask(n int, rng *rand.Rand) []bool {
	m := make([]bool, n)
	for i := range m {
		m[i] = rng.Float64() > 1-BoostedFraction
	}
	return m
}

// AddRealisticNoise adds Gaussian grain with standard deviation 255*level to
// every channel. A random mask of about 5% of positions, shared by all three
// channels of a pixel, gets a second component with twice that deviation,
// imitating hot pixels. Results are clamped to [0, 255] and rounded.
func AddRealisticNoise(img image.Image, level float64, rng *rand.Rand) *image.RGBA {
	dst := Flatten(img)
	b := dst.Bounds()
	w, h := b.Dx(), b.Dy()

	sigma := 255 * level
	mask := boostMask(w*h, rng)

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := y*dst.Stride + x*4
			boosted := mask[y*w+x]
			for c := 0; c < 3; c++ {
				n := rng.NormFloat64() * sigma
				if boosted {
					n += rng.NormFloat64() * sigma * 2
				}
				v := math.Max(0, math.Min(255, float64(dst.Pix[i+c])+n))
				dst.Pix[i+c] = uint8(math.Round(v))
			}
		}
	}
	return dst
}
