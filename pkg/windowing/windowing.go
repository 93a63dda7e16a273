// Package windowing renders decoded images to 8-bit RGBA under a
// radiographic window (center/width).
//
// Rendering is a pure function of the image and the window: the source image
// is never modified and every call allocates a new output, so the same image
// can be re-rendered concurrently with different windows.
package windowing

import (
	"fmt"
	"image"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"dicomview/internal/models"
)

const (
	// DefaultSampleLimit caps the samples used to estimate a default window
	DefaultSampleLimit = 10000

	// DefaultWidthFactor scales the sampled value range into a default width.
	// Values below 1 trade dynamic range for contrast.
	DefaultWidthFactor = 0.8

	// minRange keeps the normalization finite when the window width is zero
	minRange = 1e-6
)

// Window is a center/width pair in rescaled units
type Window struct {
	Center float64 `yaml:"center"`
	Width  float64 `yaml:"width"`
}

// Bounds returns the values mapped to black and white
func (w Window) Bounds() (lo, hi float64) {
	return w.Center - w.Width/2, w.Center + w.Width/2
}

func (w Window) String() string {
	return fmt.Sprintf("C%g/W%g", w.Center, w.Width)
}

// Options tune default window estimation
type Options struct {
	// SampleLimit is the maximum number of samples inspected
	SampleLimit int

	// WidthFactor multiplies the sampled max-min range
	WidthFactor float64
}

// DefaultOptions returns the standard estimation settings
func DefaultOptions() Options {
	return Options{
		SampleLimit: DefaultSampleLimit,
		WidthFactor: DefaultWidthFactor,
	}
}

// Engine renders images. The zero value is not usable; use NewEngine.
type Engine struct {
	opts Options
}

// NewEngine creates an engine, replacing non-positive options with defaults
func NewEngine(opts Options) *Engine {
	if opts.SampleLimit <= 0 {
		opts.SampleLimit = DefaultSampleLimit
	}
	if opts.WidthFactor <= 0 {
		opts.WidthFactor = DefaultWidthFactor
	}
	return &Engine{opts: opts}
}

var defaultEngine = NewEngine(DefaultOptions())

// Render renders img with the default engine
func Render(img *models.DicomImageData, center, width *float64) (*models.RenderedImage, error) {
	return defaultEngine.Render(img, center, width)
}

// EstimateWindow derives a window from a uniform subsample of at most
// SampleLimit rescaled values: the center is their mean and the width is
// WidthFactor times their range.
func (e *Engine) EstimateWindow(img *models.DicomImageData) Window {
	n := img.PixelData.Len()
	if n == 0 {
		return Window{}
	}

	stride := (n + e.opts.SampleLimit - 1) / e.opts.SampleLimit
	values := make([]float64, 0, (n+stride-1)/stride)
	for i := 0; i < n; i += stride {
		values = append(values, img.Rescaled(i))
	}

	return Window{
		Center: stat.Mean(values, nil),
		Width:  e.opts.WidthFactor * (floats.Max(values) - floats.Min(values)),
	}
}

// ResolveWindow picks the effective window. Each of center and width is taken
// from the caller when given, else from the image, else from the estimate.
// Values that are not finite count as absent. Negative widths are treated as zero.
func (e *Engine) ResolveWindow(img *models.DicomImageData, center, width *float64) Window {
	c := firstOf(center, img.WindowCenter)
	w := firstOf(width, img.WindowWidth)

	var win Window
	if c == nil || w == nil {
		win = e.EstimateWindow(img)
	}
	if c != nil {
		win.Center = *c
	}
	if w != nil {
		win.Width = *w
	}
	if win.Width < 0 {
		win.Width = 0
	}
	return win
}

func firstOf(values ...*float64) *float64 {
	for _, v := range values {
		if v != nil && !math.IsNaN(*v) && !math.IsInf(*v, 0) {
			return v
		}
	}
	return nil
}

// Render maps every sample of img through the rescale and the resolved
// window to an opaque gray RGBA pixel.
//
// Samples at or below center-width/2 become 0 and samples at or above
// center+width/2 become 255. With a zero width both bounds equal the center,
// so samples <= center render 0 and samples > center render 255.
// MONOCHROME1 images are inverted after normalization.
func (e *Engine) Render(img *models.DicomImageData, center, width *float64) (*models.RenderedImage, error) {
	if img == nil || img.PixelData == nil {
		return nil, fmt.Errorf("render: no image data")
	}
	n := img.Width * img.Height
	if n <= 0 || img.PixelData.Len() != n {
		return nil, fmt.Errorf("render: %d samples for a %dx%d image", img.PixelData.Len(), img.Width, img.Height)
	}

	win := e.ResolveWindow(img, center, width)
	lo, hi := win.Bounds()
	span := math.Max(hi-lo, minRange)
	invert := img.Inverted()

	out := image.NewRGBA(image.Rect(0, 0, img.Width, img.Height))
	for i := 0; i < n; i++ {
		v := normalize(img.Rescaled(i), lo, hi, span)
		if invert {
			v = 255 - v
		}
		p := out.Pix[i*4 : i*4+4 : i*4+4]
		p[0], p[1], p[2], p[3] = v, v, v, 255
	}

	return &models.RenderedImage{
		Image:        out,
		WindowCenter: win.Center,
		WindowWidth:  win.Width,
	}, nil
}

func normalize(v, lo, hi, span float64) uint8 {
	switch {
	case v <= lo:
		return 0
	case v >= hi:
		return 255
	default:
		return uint8(math.Round((v - lo) / span * 255))
	}
}
