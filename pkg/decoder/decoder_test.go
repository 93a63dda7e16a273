package decoder

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"testing"

	"dicomview/internal/models"
	"dicomview/pkg/dicom/dicomtest"
	"dicomview/pkg/windowing"
)

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("Failed to encode PNG: %v", err)
	}
	return buf.Bytes()
}

// TestClassify verifies routing by signature only
func TestClassify(t *testing.T) {
	dcm := dicomtest.New().Image(1, 1, 8, 0, []byte{1}).Build()
	pngData := encodePNG(t, image.NewGray(image.Rect(0, 0, 1, 1)))

	if got := Classify(dcm); got != FormatDICOM {
		t.Errorf("Expected dicom, got %s", got)
	}
	if got := Classify(pngData); got != FormatRaster {
		t.Errorf("Expected raster, got %s", got)
	}
}

// TestDecodeRoutes verifies both decoders are reachable through Decode
func TestDecodeRoutes(t *testing.T) {
	dcm := dicomtest.New().Image(2, 2, 16, 0, make([]byte, 8)).Build()
	img, err := Decode(dcm)
	if err != nil {
		t.Fatalf("Decode of DICOM failed: %v", err)
	}
	if img.SourceFormat != "dicom" || img.BitsAllocated != 16 {
		t.Errorf("Unexpected DICOM decode: format %q, bits %d", img.SourceFormat, img.BitsAllocated)
	}

	gray := image.NewGray(image.Rect(0, 0, 3, 2))
	gray.SetGray(2, 1, color.Gray{Y: 200})
	img, err = Decode(encodePNG(t, gray))
	if err != nil {
		t.Fatalf("Decode of PNG failed: %v", err)
	}
	if img.SourceFormat != "png" || img.Width != 3 || img.Height != 2 {
		t.Errorf("Unexpected PNG decode: format %q, %dx%d", img.SourceFormat, img.Width, img.Height)
	}
	if img.PixelData.At(5) != 200 {
		t.Errorf("Expected last pixel 200, got %v", img.PixelData.At(5))
	}
}

// TestDecodeErrorsAreTyped verifies that failures on both paths are DecodeErrors
func TestDecodeErrorsAreTyped(t *testing.T) {
	_, err := Decode([]byte("not an image"))
	if !errors.Is(err, models.ErrInvalidImage) {
		t.Errorf("Expected invalid image, got %v", err)
	}

	_, err = Decode(dicomtest.New().Image(2, 2, 8, 0, nil).Build())
	var de *models.DecodeError
	if !errors.As(err, &de) {
		t.Fatalf("Expected *models.DecodeError, got %T", err)
	}
	if de.Kind != models.KindMalformed {
		t.Errorf("Expected malformed kind, got %s", de.Kind)
	}
}

// TestFallbackRenderEquivalence verifies that a raster image rendered with a
// full-range window reproduces its intensities
func TestFallbackRenderEquivalence(t *testing.T) {
	src := image.NewGray(image.Rect(0, 0, 16, 16))
	for i := range src.Pix {
		src.Pix[i] = uint8(i)
	}

	img, err := Decode(encodePNG(t, src))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}

	center, width := 127.5, 255.0
	rendered, err := windowing.Render(img, &center, &width)
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	for i, want := range src.Pix {
		if got := rendered.Image.Pix[i*4]; got != want {
			t.Fatalf("Pixel %d: expected %d, got %d", i, want, got)
		}
	}

	// The estimated window keeps the gradient ordered
	estimated, err := windowing.Render(img, nil, nil)
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	for i := 1; i < len(src.Pix); i++ {
		if estimated.Image.Pix[i*4] < estimated.Image.Pix[(i-1)*4] {
			t.Fatalf("Expected non-decreasing output at pixel %d", i)
		}
	}
}
