// Package raster decodes conventional image files (PNG, JPEG, GIF, BMP, TIFF,
// WebP) into the same DicomImageData shape as the DICOM reader, so the rest
// of the pipeline never distinguishes between the two.
package raster

import (
	"bytes"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"dicomview/internal/models"
)

// Decode decodes data with the registered image codecs and converts it to a
// single-channel 8-bit image. The result carries no window or rescale
// metadata, so rendering estimates a window from the pixels.
func Decode(data []byte) (*models.DicomImageData, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, models.WrapDecodeError(models.KindInvalidImage, err, "raster decode failed")
	}

	bounds := img.Bounds()
	if bounds.Empty() {
		return nil, models.NewDecodeError(models.KindInvalidImage, "%s image has no pixels", format)
	}

	gray := ToGray(img)
	width, height := bounds.Dx(), bounds.Dy()
	pixels := make(models.U8Samples, width*height)
	for y := 0; y < height; y++ {
		copy(pixels[y*width:(y+1)*width], gray.Pix[y*gray.Stride:y*gray.Stride+width])
	}

	return &models.DicomImageData{
		PixelData:                 pixels,
		Width:                     width,
		Height:                    height,
		BitsAllocated:             8,
		BitsStored:                8,
		HighBit:                   7,
		PixelRepresentation:       0,
		SamplesPerPixel:           1,
		PhotometricInterpretation: models.Monochrome2,
		RescaleSlope:              1,
		RescaleIntercept:          0,
		SourceFormat:              format,
	}, nil
}

// ToGray converts any image to an 8-bit luminance image anchored at the origin
func ToGray(img image.Image) *image.Gray {
	bounds := img.Bounds()
	gray := image.NewGray(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(gray, gray.Bounds(), img, bounds.Min, draw.Src)
	return gray
}
