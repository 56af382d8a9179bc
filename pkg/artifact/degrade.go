package artifact

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/jpeg"

	"github.com/anthonynsimon/bild/adjust"
	"github.com/anthonynsimon/bild/clone"
	"github.com/anthonynsimon/bild/imgio"
	"github.com/corona10/goimagehash"
	"k8s.io/klog/v2"
)

// ErrNilImage is returned when there is no image to degrade.
var ErrNilImage = errors.New("nil image")

// Degrade applies brightness, color and contrast jitter, sensor noise, and a
// lossy JPEG round trip to img. The returned image has img's dimensions.
// Failures are returned as *StageError naming the step that broke.
func Degrade(img image.Image, p Params, opts ...Option) (res *Result, err error) {
	if err := p.Validate(); err != nil {
		return nil, &StageError{Stage: "params", Err: err}
	}
	if img == nil {
		return nil, &StageError{Stage: "flatten", Err: ErrNilImage}
	}

	o := newOptions(opts)
	f := RandomFactors(o.rng)
	if o.factors != nil {
		f = *o.factors
	}

	stage := "flatten"
	defer func() {
		if r := recover(); r != nil {
			res = nil
			err = &StageError{Stage: stage, Err: fmt.Errorf("panic: %v", r)}
		}
	}()

	src := Flatten(img)
	klog.V(1).Infof("realartifact: degrading %v: brightness=%.3f color=%.3f contrast=%.3f noise=%.2f quality=%d",
		src.Bounds(), f.Brightness, f.Color, f.Contrast, p.NoiseLevel, p.JPEGQuality)

	stage = "brightness"
	out := adjust.Brightness(src, f.Brightness-1)

	stage = "color"
	out = Color(out, f.Color)

	stage = "contrast"
	out = Contrast(out, f.Contrast)

	stage = "noise"
	out = AddRealisticNoise(out, p.NoiseLevel, o.rng)

	stage = "encode"
	var buf bytes.Buffer
	if err := imgio.JPEGEncoder(p.JPEGQuality)(&buf, out); err != nil {
		return nil, &StageError{Stage: stage, Err: err}
	}

	stage = "decode"
	decoded, err := jpeg.Decode(bytes.NewReader(buf.Bytes()))
	if err != nil {
		return nil, &StageError{Stage: stage, Err: err}
	}
	final := clone.AsRGBA(decoded)

	return &Result{
		Image:    final,
		JPEG:     buf.Bytes(),
		Factors:  f,
		Distance: distance(src, final),
	}, nil
}

// distance is the perceptual distance between two images, or -1 if either
// cannot be hashed.
func distance(a, b image.Image) (d int) {
	defer func() {
		if r := recover(); r != nil {
			d = -1
		}
	}()

	ha, err := goimagehash.DifferenceHash(a)
	if err != nil {
		return -1
	}
	hb, err := goimagehash.DifferenceHash(b)
	if err != nil {
		return -1
	}
	d, err = ha.Distance(hb)
	if err != nil {
		return -1
	}
	return d
}
