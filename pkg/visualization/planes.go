package visualization

import (
	"errors"
	"fmt"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"dicomview/internal/models"
)

// ErrPlaneNotImplemented is returned for reformatted planes, which are not rendered
var ErrPlaneNotImplemented = errors.New("plane reconstruction not implemented")

// Plane names a viewing orientation through the volume
type Plane int

const (
	// PlaneAxial is the acquired XY plane, one image per slice
	PlaneAxial Plane = iota
	// PlaneCoronal is the XZ plane
	PlaneCoronal
	// PlaneSagittal is the YZ plane
	PlaneSagittal
)

func (p Plane) String() string {
	switch p {
	case PlaneAxial:
		return "axial"
	case PlaneCoronal:
		return "coronal"
	case PlaneSagittal:
		return "sagittal"
	default:
		return fmt.Sprintf("Plane(%d)", int(p))
	}
}

// ParsePlane accepts a plane name or its normal axis (z, y, x)
func ParsePlane(s string) (Plane, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "axial", "z":
		return PlaneAxial, nil
	case "coronal", "y":
		return PlaneCoronal, nil
	case "sagittal", "x":
		return PlaneSagittal, nil
	default:
		return 0, fmt.Errorf("invalid plane: %s (must be axial, coronal or sagittal)", s)
	}
}

// ExtractPlane renders the image at position along the given plane.
// Only axial planes are available; the others return ErrPlaneNotImplemented.
func (v *Viewer) ExtractPlane(plane Plane, position int, center, width *float64) (*models.RenderedImage, error) {
	switch plane {
	case PlaneAxial:
	case PlaneCoronal, PlaneSagittal:
		return nil, fmt.Errorf("%s: %w", plane, ErrPlaneNotImplemented)
	default:
		return nil, fmt.Errorf("invalid plane %d", int(plane))
	}

	img, err := v.Slice(position)
	if err != nil {
		return nil, err
	}
	return v.engine.Render(img, center, width)
}

// Region is a box of voxels in volume coordinates
type Region struct {
	X, Y, Z             int
	SizeX, SizeY, SizeZ int
}

// ExtractRegion copies a subregion of the series volume in rescaled units.
// The result is laid out like the volume: x fastest, then y, then z.
func (v *Viewer) ExtractRegion(r Region) ([]float64, error) {
	vol, err := v.Volume()
	if err != nil {
		return nil, err
	}

	if r.X < 0 || r.Y < 0 || r.Z < 0 {
		return nil, fmt.Errorf("start coordinates must be non-negative")
	}
	if r.SizeX <= 0 || r.SizeY <= 0 || r.SizeZ <= 0 {
		return nil, fmt.Errorf("size dimensions must be positive")
	}
	if r.X+r.SizeX > vol.Width || r.Y+r.SizeY > vol.Height || r.Z+r.SizeZ > vol.Depth {
		return nil, fmt.Errorf("region extends beyond volume boundaries")
	}

	region := make([]float64, 0, r.SizeX*r.SizeY*r.SizeZ)
	for z := r.Z; z < r.Z+r.SizeZ; z++ {
		for y := r.Y; y < r.Y+r.SizeY; y++ {
			row := vol.Index(r.X, y, z)
			region = append(region, vol.Data[row:row+r.SizeX]...)
		}
	}
	return region, nil
}

// RegionStats summarizes the rescaled values of a region
type RegionStats struct {
	Count  int
	Mean   float64
	StdDev float64
	Min    float64
	Max    float64
}

// MeasureRegion extracts a region and computes its statistics
func (v *Viewer) MeasureRegion(r Region) (RegionStats, error) {
	values, err := v.ExtractRegion(r)
	if err != nil {
		return RegionStats{}, err
	}

	stats := RegionStats{
		Count: len(values),
		Min:   floats.Min(values),
		Max:   floats.Max(values),
	}
	if len(values) > 1 {
		stats.Mean, stats.StdDev = stat.MeanStdDev(values, nil)
	} else {
		stats.Mean = values[0]
	}
	return stats, nil
}
