// Package decoder is the single entry point that turns an arbitrary byte
// buffer into a DicomImageData.
package decoder

import (
	"dicomview/internal/models"
	"dicomview/pkg/dicom"
	"dicomview/pkg/raster"
)

// Format is the result of classifying a buffer
type Format int

const (
	// FormatDICOM is a buffer with the Part 10 signature
	FormatDICOM Format = iota

	// FormatRaster is anything else, handed to the raster decoder
	FormatRaster
)

func (f Format) String() string {
	if f == FormatDICOM {
		return "dicom"
	}
	return "raster"
}

// Classify decides which decoder owns data. Only the signature at offset 128
// is consulted; a file named .dcm without it is still a raster candidate.
func Classify(data []byte) Format {
	if dicom.IsDICOM(data) {
		return FormatDICOM
	}
	return FormatRaster
}

// Decode classifies data and runs the matching decoder. Errors are always
// *models.DecodeError; a buffer that is neither DICOM nor a decodable raster
// image fails with an InvalidImage kind.
func Decode(data []byte) (*models.DicomImageData, error) {
	switch Classify(data) {
	case FormatDICOM:
		return dicom.Decode(data)
	default:
		return raster.Decode(data)
	}
}
