// Package visualization renders series slices for display and exports them.
package visualization

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"dicomview/internal/models"
	"dicomview/pkg/series"
	"dicomview/pkg/windowing"
)

var (
	// ErrStale is returned by Render when a newer request has already been published
	ErrStale = errors.New("render superseded by a newer request")

	// ErrIndexOutOfRange is returned when a slice index is outside the series
	ErrIndexOutOfRange = errors.New("slice index out of range")
)

// Frame is a published rendering of one slice
type Frame struct {
	// Index is the position of the slice in the ordered series
	Index int

	// Seq is the request sequence number that produced the frame
	Seq uint64

	Image *models.RenderedImage
}

// Viewer holds an ordered series and renders its current slice on demand.
// Each Render call is stamped with a sequence number; when renders overlap,
// only results newer than the last published frame are kept.
type Viewer struct {
	slices []*models.DicomImageData
	engine *windowing.Engine

	seq atomic.Uint64

	mu     sync.Mutex
	index  int
	latest *Frame

	volumeOnce sync.Once
	volume     *models.Volume
	volumeErr  error
}

// NewViewer creates a viewer over an ordered series. A nil engine uses the
// default windowing options.
func NewViewer(slices []*models.DicomImageData, engine *windowing.Engine) *Viewer {
	if engine == nil {
		engine = windowing.NewEngine(windowing.DefaultOptions())
	}
	return &Viewer{
		slices: slices,
		engine: engine,
	}
}

// Len returns the number of slices in the series
func (v *Viewer) Len() int {
	return len(v.slices)
}

// Slice returns the decoded slice at index i
func (v *Viewer) Slice(i int) (*models.DicomImageData, error) {
	if i < 0 || i >= len(v.slices) {
		return nil, fmt.Errorf("%w: %d not in [0, %d)", ErrIndexOutOfRange, i, len(v.slices))
	}
	return v.slices[i], nil
}

// SetIndex selects the slice rendered by subsequent Render calls
func (v *Viewer) SetIndex(i int) error {
	if _, err := v.Slice(i); err != nil {
		return err
	}
	v.mu.Lock()
	v.index = i
	v.mu.Unlock()
	return nil
}

// Index returns the currently selected slice
func (v *Viewer) Index() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.index
}

// Render renders the current slice with the given window overrides. Nil
// overrides fall back to the slice's own window, then to an estimate.
// It returns ErrStale when a newer request published first.
func (v *Viewer) Render(ctx context.Context, center, width *float64) (*Frame, error) {
	seq := v.seq.Add(1)
	idx := v.Index()

	img, err := v.Slice(idx)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	rendered, err := v.engine.Render(img, center, width)
	if err != nil {
		return nil, fmt.Errorf("failed to render slice %d: %w", idx, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	frame := &Frame{Index: idx, Seq: seq, Image: rendered}

	v.mu.Lock()
	defer v.mu.Unlock()
	if v.latest != nil && v.latest.Seq > seq {
		return nil, ErrStale
	}
	v.latest = frame
	return frame, nil
}

// Latest returns the most recently published frame, or nil before the first render
func (v *Viewer) Latest() *Frame {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.latest
}

// RenderSeries renders every slice with the same window overrides using up to
// workers goroutines. The result is in series order.
func (v *Viewer) RenderSeries(ctx context.Context, center, width *float64, workers int) ([]*models.RenderedImage, error) {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	out := make([]*models.RenderedImage, len(v.slices))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, img := range v.slices {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			rendered, err := v.engine.Render(img, center, width)
			if err != nil {
				return fmt.Errorf("failed to render slice %d: %w", i, err)
			}
			out[i] = rendered
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// Volume returns the series stacked into a volume of rescaled values.
// The volume is built on first use.
func (v *Viewer) Volume() (*models.Volume, error) {
	v.volumeOnce.Do(func() {
		v.volume, v.volumeErr = series.BuildVolume(v.slices)
	})
	return v.volume, v.volumeErr
}
