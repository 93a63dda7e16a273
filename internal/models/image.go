package models

import (
	"image"
)

// Photometric interpretations understood by the renderer
const (
	// Monochrome1 displays the minimum sample value as white
	Monochrome1 = "MONOCHROME1"

	// Monochrome2 displays the minimum sample value as black
	Monochrome2 = "MONOCHROME2"
)

// Samples gives read-only numeric access to a decoded pixel buffer.
// The concrete type is chosen once at decode time from bits allocated and
// pixel representation; everything downstream goes through this interface.
type Samples interface {
	// Len returns the number of samples in the buffer
	Len() int

	// At returns sample i as a float64
	At(i int) float64
}

// U8Samples holds 8-bit unsigned samples
type U8Samples []uint8

func (s U8Samples) Len() int         { return len(s) }
func (s U8Samples) At(i int) float64 { return float64(s[i]) }

// U16Samples holds 16-bit unsigned samples
type U16Samples []uint16

func (s U16Samples) Len() int         { return len(s) }
func (s U16Samples) At(i int) float64 { return float64(s[i]) }

// I16Samples holds 16-bit two's-complement samples
type I16Samples []int16

func (s I16Samples) Len() int         { return len(s) }
func (s I16Samples) At(i int) float64 { return float64(s[i]) }

// DicomImageData is a single decoded image with the metadata needed to
// display it and to order it within a series. It is produced once per decoded
// buffer and is never modified afterwards.
type DicomImageData struct {
	// PixelData owns its buffer; it never aliases the decoded byte buffer
	PixelData Samples

	// Width and Height are the pixel grid dimensions (columns and rows)
	Width  int
	Height int

	BitsAllocated       int
	BitsStored          int
	HighBit             int
	PixelRepresentation int
	SamplesPerPixel     int

	// PhotometricInterpretation is MONOCHROME2 unless the source says otherwise
	PhotometricInterpretation string

	// WindowCenter and WindowWidth are nil when the source carries no window
	WindowCenter *float64
	WindowWidth  *float64

	// RescaleSlope and RescaleIntercept default to 1 and 0
	RescaleSlope     float64
	RescaleIntercept float64

	// Ordering and geometry metadata, nil when absent from the source
	InstanceNumber          *int
	SliceLocation           *float64
	ImagePositionPatient    *[3]float64
	ImageOrientationPatient *[6]float64

	// PixelSpacing is the row and column spacing in mm
	PixelSpacing *[2]float64

	// Display-only strings
	PatientName       string
	StudyDescription  string
	SeriesDescription string

	// SourceFormat names the decoder that produced the record ("dicom", "png", ...)
	SourceFormat string
}

// Rescaled returns sample i after the linear modality rescale
func (d *DicomImageData) Rescaled(i int) float64 {
	return d.PixelData.At(i)*d.RescaleSlope + d.RescaleIntercept
}

// Inverted reports whether the photometric interpretation maps low values to white
func (d *DicomImageData) Inverted() bool {
	return d.PhotometricInterpretation == Monochrome1
}

// RenderedImage is an opaque grayscale-as-RGBA rendering of a DicomImageData.
// A new value is produced for every window change; it is never edited in place.
type RenderedImage struct {
	// Image has the same width and height as its source
	Image *image.RGBA

	// WindowCenter and WindowWidth are the effective window used for the render
	WindowCenter float64
	WindowWidth  float64
}

// Width returns the pixel width of the rendering
func (r *RenderedImage) Width() int {
	return r.Image.Bounds().Dx()
}

// Height returns the pixel height of the rendering
func (r *RenderedImage) Height() int {
	return r.Image.Bounds().Dy()
}

// Volume is a stack of equally sized slices in rescaled units
type Volume struct {
	// Data is the 3D volume data as a 1D array in row-major order
	Data []float64

	// Width is the width of the volume in voxels
	Width int

	// Height is the height of the volume in voxels
	Height int

	// Depth is the number of slices
	Depth int

	// VoxelSize is the physical size of each voxel in mm
	VoxelSize struct {
		X, Y, Z float64
	}
}

// Index returns the offset of voxel (x, y, z) in Data
func (v *Volume) Index(x, y, z int) int {
	return z*v.Width*v.Height + y*v.Width + x
}
