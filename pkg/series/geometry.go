package series

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"
	"gonum.org/v1/gonum/stat"

	"dicomview/internal/models"
)

// Normal returns the unit normal of the image plane given the row and column
// direction cosines of Image Orientation (Patient)
func Normal(orientation [6]float64) r3.Vec {
	row := r3.Vec{X: orientation[0], Y: orientation[1], Z: orientation[2]}
	col := r3.Vec{X: orientation[3], Y: orientation[4], Z: orientation[5]}
	n := r3.Cross(row, col)
	if r3.Norm(n) == 0 {
		return r3.Vec{Z: 1}
	}
	return r3.Unit(n)
}

// Position returns the location of a slice along its own normal, falling back
// to the slice location tag. The second result is false when neither is known.
func Position(img *models.DicomImageData) (float64, bool) {
	if img.ImagePositionPatient != nil {
		p := img.ImagePositionPatient
		pos := r3.Vec{X: p[0], Y: p[1], Z: p[2]}
		if img.ImageOrientationPatient != nil {
			return r3.Dot(Normal(*img.ImageOrientationPatient), pos), true
		}
		return pos.Z, true
	}
	if img.SliceLocation != nil {
		return *img.SliceLocation, true
	}
	return 0, false
}

// Spacing returns the mean distance between consecutive slices of an ordered
// series, or 0 when fewer than two slices have a known position
func Spacing(sorted []*models.DicomImageData) float64 {
	var gaps []float64
	prev, havePrev := 0.0, false
	for _, img := range sorted {
		pos, ok := Position(img)
		if !ok {
			continue
		}
		if havePrev {
			gaps = append(gaps, math.Abs(pos-prev))
		}
		prev, havePrev = pos, true
	}
	if len(gaps) == 0 {
		return 0
	}
	return stat.Mean(gaps, nil)
}

// Affine returns the 4x4 matrix mapping homogeneous pixel coordinates
// (column, row, 0, 1) to patient coordinates in mm. It needs the image
// position and orientation; missing pixel spacing counts as 1mm.
func Affine(img *models.DicomImageData) (*mat.Dense, error) {
	if img.ImagePositionPatient == nil || img.ImageOrientationPatient == nil {
		return nil, fmt.Errorf("image position and orientation are required")
	}

	p, o := img.ImagePositionPatient, img.ImageOrientationPatient
	rowSpacing, colSpacing := 1.0, 1.0
	if img.PixelSpacing != nil {
		rowSpacing, colSpacing = img.PixelSpacing[0], img.PixelSpacing[1]
	}

	// Moving along a row steps by the column spacing and vice versa
	return mat.NewDense(4, 4, []float64{
		o[0] * colSpacing, o[3] * rowSpacing, 0, p[0],
		o[1] * colSpacing, o[4] * rowSpacing, 0, p[1],
		o[2] * colSpacing, o[5] * rowSpacing, 0, p[2],
		0, 0, 0, 1,
	}), nil
}

// PixelToPatient maps a pixel location to patient coordinates in mm
func PixelToPatient(img *models.DicomImageData, column, row float64) (r3.Vec, error) {
	m, err := Affine(img)
	if err != nil {
		return r3.Vec{}, err
	}

	var out mat.VecDense
	out.MulVec(m, mat.NewVecDense(4, []float64{column, row, 0, 1}))
	return r3.Vec{X: out.AtVec(0), Y: out.AtVec(1), Z: out.AtVec(2)}, nil
}
