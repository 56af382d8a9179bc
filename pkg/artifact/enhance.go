package artifact

import (
	"image"
	"image/color"
	"math"

	"github.com/anthonynsimon/bild/adjust"
)

// luma is the ITU-R 601-2 grey value of an opaque pixel, in fixed point.
func luma(r, g, b uint8) uint8 {
	return uint8((uint32(r)*19595 + uint32(g)*38470 + uint32(b)*7471 + 0x8000) >> 16)
}

// meanLuma is the average grey value of img, rounded.
func meanLuma(img *image.RGBA) float64 {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w == 0 || h == 0 {
		return 0
	}

	var sum uint64
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := y*img.Stride + x*4
			sum += uint64(luma(img.Pix[i], img.Pix[i+1], img.Pix[i+2]))
		}
	}
	return math.Round(float64(sum) / float64(w*h))
}

// mix moves v away from (f > 1) or toward (f < 1) grey, clamped to [0, 255].
func mix(grey float64, v uint8, f float64) uint8 {
	return uint8(math.Round(math.Max(0, math.Min(255, grey+f*(float64(v)-grey)))))
}

// Contrast scales each channel's distance from the image's mean grey by f.
// A flat image is unchanged for any f.
func Contrast(img *image.RGBA, f float64) *image.RGBA {
	mean := meanLuma(img)
	return adjust.Apply(img, func(c color.RGBA) color.RGBA {
		return color.RGBA{R: mix(mean, c.R, f), G: mix(mean, c.G, f), B: mix(mean, c.B, f), A: c.A}
	})
}

// Color scales each pixel's distance from its own grey value by f: 0 gives
// greyscale, 1 leaves the pixel unchanged.
func Color(img *image.RGBA, f float64) *image.RGBA {
	return adjust.Apply(img, func(c color.RGBA) color.RGBA {
		grey := float64(luma(c.R, c.G, c.B))
		return color.RGBA{R: mix(grey, c.R, f), G: mix(grey, c.G, f), B: mix(grey, c.B, f), A: c.A}
	})
}
