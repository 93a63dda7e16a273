package windowing

import (
	"math"
	"testing"

	"dicomview/internal/models"
)

func ptr(v float64) *float64 { return &v }

// ramp builds a single-row 16-bit image holding 0..n-1
func ramp(n int) *models.DicomImageData {
	samples := make(models.U16Samples, n)
	for i := range samples {
		samples[i] = uint16(i)
	}
	return &models.DicomImageData{
		PixelData:                 samples,
		Width:                     n,
		Height:                    1,
		BitsAllocated:             16,
		PhotometricInterpretation: models.Monochrome2,
		RescaleSlope:              1,
	}
}

// gray returns the red channel of pixel i, checking it is an opaque gray
func gray(t *testing.T, r *models.RenderedImage, i int) uint8 {
	t.Helper()
	p := r.Image.Pix[i*4 : i*4+4]
	if p[0] != p[1] || p[1] != p[2] || p[3] != 255 {
		t.Fatalf("Pixel %d is not opaque gray: %v", i, p)
	}
	return p[0]
}

// TestRenderExplicitWindow verifies normalization against a known window
func TestRenderExplicitWindow(t *testing.T) {
	img := ramp(11)

	// Window 0..10 maps sample i to round(i/10*255)
	r, err := Render(img, ptr(5), ptr(10))
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}

	if r.Width() != 11 || r.Height() != 1 {
		t.Errorf("Expected 11x1 output, got %dx%d", r.Width(), r.Height())
	}
	if r.WindowCenter != 5 || r.WindowWidth != 10 {
		t.Errorf("Expected effective window 5/10, got %v/%v", r.WindowCenter, r.WindowWidth)
	}

	for i := 0; i <= 10; i++ {
		want := uint8(math.Round(float64(i) / 10 * 255))
		if got := gray(t, r, i); got != want {
			t.Errorf("Sample %d expected %d, got %d", i, want, got)
		}
	}
}

// TestRenderSaturation verifies clamping outside the window
func TestRenderSaturation(t *testing.T) {
	img := ramp(100)

	r, err := Render(img, ptr(50), ptr(20))
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}

	for i := 0; i <= 40; i++ {
		if got := gray(t, r, i); got != 0 {
			t.Errorf("Sample %d below window expected 0, got %d", i, got)
		}
	}
	for i := 60; i < 100; i++ {
		if got := gray(t, r, i); got != 255 {
			t.Errorf("Sample %d above window expected 255, got %d", i, got)
		}
	}
}

// TestRenderWiderWindowLowersContrast verifies that widening the window
// around a fixed center never increases the output step per input step
func TestRenderWiderWindowLowersContrast(t *testing.T) {
	img := ramp(1000)

	narrow, err := Render(img, ptr(500), ptr(200))
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	wide, err := Render(img, ptr(500), ptr(800))
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}

	for i := 400; i+10 <= 600; i += 10 {
		narrowStep := int(gray(t, narrow, i+10)) - int(gray(t, narrow, i))
		wideStep := int(gray(t, wide, i+10)) - int(gray(t, wide, i))
		if wideStep > narrowStep {
			t.Errorf("At %d wide window step %d exceeds narrow step %d", i, wideStep, narrowStep)
		}
	}

	// Output range over the same inputs is compressed by the wider window
	narrowRange := int(gray(t, narrow, 590)) - int(gray(t, narrow, 410))
	wideRange := int(gray(t, wide, 590)) - int(gray(t, wide, 410))
	if wideRange >= narrowRange {
		t.Errorf("Expected wide range %d to be below narrow range %d", wideRange, narrowRange)
	}
}

// TestRenderPhotometricInversion verifies MONOCHROME1 is the complement of MONOCHROME2
func TestRenderPhotometricInversion(t *testing.T) {
	mono2 := ramp(300)
	mono1 := *mono2
	mono1.PhotometricInterpretation = models.Monochrome1

	r2, err := Render(mono2, ptr(150), ptr(250))
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	r1, err := Render(&mono1, ptr(150), ptr(250))
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}

	for i := 0; i < 300; i++ {
		if a, b := gray(t, r1, i), gray(t, r2, i); a != 255-b {
			t.Errorf("Sample %d: MONOCHROME1 %d is not 255-%d", i, a, b)
		}
	}
}

// TestRenderZeroWidth verifies the degenerate window saturates around the center
func TestRenderZeroWidth(t *testing.T) {
	img := ramp(10)

	r, err := Render(img, ptr(5), ptr(0))
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}

	for i := 0; i < 10; i++ {
		want := uint8(0)
		if i > 5 {
			want = 255
		}
		if got := gray(t, r, i); got != want {
			t.Errorf("Sample %d expected %d, got %d", i, want, got)
		}
	}

	// A constant image with an estimated window also has zero width
	flat := &models.DicomImageData{
		PixelData:    models.U8Samples{7, 7, 7, 7},
		Width:        2,
		Height:       2,
		RescaleSlope: 1,
	}
	r, err = Render(flat, nil, nil)
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if r.WindowWidth != 0 || r.WindowCenter != 7 {
		t.Errorf("Expected estimated window 7/0, got %v/%v", r.WindowCenter, r.WindowWidth)
	}
	for i := 0; i < 4; i++ {
		if got := gray(t, r, i); got != 0 {
			t.Errorf("Flat sample %d expected 0, got %d", i, got)
		}
	}
}

// TestRenderRescale verifies slope and intercept apply before windowing
func TestRenderRescale(t *testing.T) {
	img := &models.DicomImageData{
		PixelData:        models.I16Samples{1024, 974, 1074},
		Width:            3,
		Height:           1,
		RescaleSlope:     1,
		RescaleIntercept: -1024,
	}

	r, err := Render(img, ptr(0), ptr(100))
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}

	want := []uint8{128, 0, 255}
	for i, w := range want {
		if got := gray(t, r, i); got != w {
			t.Errorf("Sample %d expected %d, got %d", i, w, got)
		}
	}
}

// TestEstimateWindow verifies mean/range estimation and subsampling
func TestEstimateWindow(t *testing.T) {
	img := &models.DicomImageData{
		PixelData:    models.U8Samples{0, 100, 200, 100},
		Width:        4,
		Height:       1,
		RescaleSlope: 1,
	}

	win := NewEngine(DefaultOptions()).EstimateWindow(img)
	if win.Center != 100 {
		t.Errorf("Expected center 100, got %v", win.Center)
	}
	if math.Abs(win.Width-160) > 1e-9 {
		t.Errorf("Expected width 160, got %v", win.Width)
	}

	// With a limit of 2 only samples 0 and 2 are inspected
	limited := NewEngine(Options{SampleLimit: 2, WidthFactor: 0.8}).EstimateWindow(img)
	if limited.Center != 100 || math.Abs(limited.Width-160) > 1e-9 {
		t.Errorf("Expected limited estimate 100/160, got %v", limited)
	}

	skewed := &models.DicomImageData{
		PixelData:    models.U8Samples{0, 250, 20, 250},
		Width:        4,
		Height:       1,
		RescaleSlope: 1,
	}
	limited = NewEngine(Options{SampleLimit: 2}).EstimateWindow(skewed)
	if limited.Center != 10 || math.Abs(limited.Width-16) > 1e-9 {
		t.Errorf("Expected subsampled estimate 10/16, got %v", limited)
	}
}

// TestResolveWindow verifies caller, image and estimate precedence per field
func TestResolveWindow(t *testing.T) {
	img := &models.DicomImageData{
		PixelData:    models.U8Samples{0, 100, 200, 100},
		Width:        4,
		Height:       1,
		RescaleSlope: 1,
		WindowCenter: ptr(40),
		WindowWidth:  ptr(400),
	}
	e := NewEngine(DefaultOptions())

	if got := e.ResolveWindow(img, nil, nil); got != (Window{Center: 40, Width: 400}) {
		t.Errorf("Expected image window, got %v", got)
	}
	if got := e.ResolveWindow(img, ptr(-600), ptr(1500)); got != (Window{Center: -600, Width: 1500}) {
		t.Errorf("Expected caller window, got %v", got)
	}
	if got := e.ResolveWindow(img, ptr(10), nil); got != (Window{Center: 10, Width: 400}) {
		t.Errorf("Expected caller center with image width, got %v", got)
	}

	img.WindowWidth = nil
	got := e.ResolveWindow(img, nil, nil)
	if got.Center != 40 || math.Abs(got.Width-160) > 1e-9 {
		t.Errorf("Expected image center with estimated width, got %v", got)
	}

	if got := e.ResolveWindow(img, nil, ptr(-5)); got.Width != 0 {
		t.Errorf("Expected negative width to clamp to 0, got %v", got.Width)
	}
}

// TestResolveWindowNonFinite verifies that non-finite values fall back
func TestResolveWindowNonFinite(t *testing.T) {
	e := NewEngine(DefaultOptions())
	img := ramp(4)
	estimate := e.EstimateWindow(img)

	if got := e.ResolveWindow(img, ptr(2), ptr(math.Inf(1))); got != (Window{Center: 2, Width: estimate.Width}) {
		t.Errorf("Expected estimated width for +Inf, got %v", got)
	}
	if got := e.ResolveWindow(img, ptr(math.NaN()), ptr(4)); got != (Window{Center: estimate.Center, Width: 4}) {
		t.Errorf("Expected estimated center for NaN, got %v", got)
	}

	img.WindowCenter = ptr(1)
	if got := e.ResolveWindow(img, ptr(math.Inf(-1)), ptr(4)); got != (Window{Center: 1, Width: 4}) {
		t.Errorf("Expected image center for -Inf, got %v", got)
	}
	img.WindowCenter = nil

	// Renders match the estimate-backed render pixel for pixel
	want, err := e.Render(img, ptr(2), nil)
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	got, err := e.Render(img, ptr(2), ptr(math.Inf(1)))
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	for i := 0; i < 4; i++ {
		if gray(t, got, i) != gray(t, want, i) {
			t.Errorf("Pixel %d: expected %d, got %d", i, gray(t, want, i), gray(t, got, i))
		}
	}
	if math.IsInf(got.WindowWidth, 0) || math.IsNaN(got.WindowCenter) {
		t.Errorf("Expected a finite effective window, got %v/%v", got.WindowCenter, got.WindowWidth)
	}
}

// TestRenderDoesNotMutate verifies repeated renders leave the source untouched
func TestRenderDoesNotMutate(t *testing.T) {
	img := ramp(50)
	before := append(models.U16Samples{}, img.PixelData.(models.U16Samples)...)

	first, err := Render(img, ptr(10), ptr(20))
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	snapshot := append([]uint8{}, first.Image.Pix...)

	second, err := Render(img, ptr(40), ptr(5))
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if second.Image == first.Image {
		t.Fatal("Expected a new output image per render")
	}

	for i, v := range img.PixelData.(models.U16Samples) {
		if v != before[i] {
			t.Fatalf("Sample %d changed from %d to %d", i, before[i], v)
		}
	}
	for i, v := range first.Image.Pix {
		if v != snapshot[i] {
			t.Fatalf("First render changed at byte %d", i)
		}
	}
}

// TestRenderRejectsBadInput verifies validation of the sample buffer
func TestRenderRejectsBadInput(t *testing.T) {
	if _, err := Render(nil, nil, nil); err == nil {
		t.Error("Expected error for nil image")
	}

	img := ramp(4)
	img.Height = 2
	if _, err := Render(img, nil, nil); err == nil {
		t.Error("Expected error for sample count mismatch")
	}
}

// TestPresets verifies lookup by name
func TestPresets(t *testing.T) {
	p := DefaultPresets()

	w, err := p.Lookup(" lung ")
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	if w != (Window{Center: -600, Width: 1500}) {
		t.Errorf("Unexpected lung window %v", w)
	}

	if _, err := p.Lookup("liver"); err == nil {
		t.Error("Expected error for unknown preset")
	}

	names := p.Names()
	if len(names) != 4 || names[0] != "BONE" {
		t.Errorf("Unexpected preset names %v", names)
	}
}
