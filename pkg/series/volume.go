package series

import (
	"fmt"

	"dicomview/internal/models"
)

// BuildVolume stacks an ordered series into a volume of rescaled values.
// All slices must share the first slice's dimensions. Voxel sizes come from
// the first slice's pixel spacing and the series spacing, defaulting to 1mm.
func BuildVolume(sorted []*models.DicomImageData) (*models.Volume, error) {
	if len(sorted) == 0 {
		return nil, fmt.Errorf("no slices to stack")
	}

	first := sorted[0]
	width, height := first.Width, first.Height
	size := width * height

	vol := &models.Volume{
		Data:   make([]float64, size*len(sorted)),
		Width:  width,
		Height: height,
		Depth:  len(sorted),
	}

	for z, img := range sorted {
		if img.Width != width || img.Height != height {
			return nil, fmt.Errorf("slice %d is %dx%d, expected %dx%d", z, img.Width, img.Height, width, height)
		}
		plane := vol.Data[z*size : (z+1)*size]
		for i := range plane {
			plane[i] = img.Rescaled(i)
		}
	}

	vol.VoxelSize.X, vol.VoxelSize.Y, vol.VoxelSize.Z = 1, 1, 1
	if first.PixelSpacing != nil {
		// Pixel spacing is (row spacing, column spacing)
		vol.VoxelSize.Y, vol.VoxelSize.X = first.PixelSpacing[0], first.PixelSpacing[1]
	}
	if gap := Spacing(sorted); gap > 0 {
		vol.VoxelSize.Z = gap
	}

	return vol, nil
}
