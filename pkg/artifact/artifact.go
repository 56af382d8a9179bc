// Package artifact degrades finished images so they resemble poor-quality photographs.
package artifact

import (
	"errors"
	"fmt"
	"image"
	"math"
	"math/rand/v2"
)

// Defaults match the stock slider positions of the host UI.
const (
	DefaultNoiseLevel  = 0.03
	DefaultJPEGQuality = 50
)

// Params are the per-invocation degradation settings.
type Params struct {
	// NoiseLevel is the noise standard deviation as a fraction of 255, in [0, 1].
	NoiseLevel float64
	// JPEGQuality is the re-encode quality, 0 (worst) to 100 (best).
	JPEGQuality int
	// EnableExif writes an EXIF-annotated copy to the extras folder.
	EnableExif bool
}

// DefaultParams returns the stock settings with EXIF export disabled.
func DefaultParams() Params {
	return Params{NoiseLevel: DefaultNoiseLevel, JPEGQuality: DefaultJPEGQuality}
}

// ErrInvalidParams is wrapped by Params.Validate failures.
var ErrInvalidParams = errors.New("invalid parameters")

// Validate reports whether p is within the supported ranges.
func (p Params) Validate() error {
	if math.IsNaN(p.NoiseLevel) || p.NoiseLevel < 0 || p.NoiseLevel > 1 {
		return fmt.Errorf("%w: noise level %v not in [0,1]", ErrInvalidParams, p.NoiseLevel)
	}
	if p.JPEGQuality < 0 || p.JPEGQuality > 100 {
		return fmt.Errorf("%w: jpeg quality %d not in [0,100]", ErrInvalidParams, p.JPEGQuality)
	}
	return nil
}

// Factors are the brightness, color and contrast multipliers applied by Degrade.
type Factors struct {
	Brightness float64
	Color      float64
	Contrast   float64
}

// Identity leaves brightness, color and contrast unchanged.
var Identity = Factors{Brightness: 1, Color: 1, Contrast: 1}

// Jitter bounds: each factor is drawn uniformly from [MinFactor, MaxFactor).
const (
	MinFactor = 0.9
	MaxFactor = 1.1
)

// RandomFactors draws three independent factors.
func RandomFactors(rng *rand.Rand) Factors {
	draw := func() float64 { return MinFactor + (MaxFactor-MinFactor)*rng.Float64() }
	return Factors{Brightness: draw(), Color: draw(), Contrast: draw()}
}

// StageError records which pipeline stage failed.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// Result is the outcome of a successful Degrade or Process call.
type Result struct {
	// Image is the degraded, opaque image.
	Image *image.RGBA
	// JPEG holds the encoded bytes Image was decoded from.
	JPEG []byte
	// Factors are the jitter multipliers that were applied.
	Factors Factors
	// Distance is the dHash Hamming distance between input and output, or -1.
	Distance int

	// ExportPath is the annotated copy written by Process, if any.
	ExportPath string
	// ExportErr is why the annotated copy could not be written.
	ExportErr error
}

// Option configures Degrade and Process.
type Option func(*options)

type options struct {
	rng     *rand.Rand
	factors *Factors
}

// WithRand sets the random source used for jitter and noise.
func WithRand(rng *rand.Rand) Option {
	return func(o *options) { o.rng = rng }
}

// WithFactors pins the brightness, color and contrast multipliers.
func WithFactors(f Factors) Option {
	return func(o *options) { o.factors = &f }
}

func newOptions(opts []Option) *options {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	if o.rng == nil {
		o.rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return o
}
