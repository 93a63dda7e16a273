package visualization

import (
	"context"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/draw"
)

// SaveOptions controls how rendered slices are written
type SaveOptions struct {
	// Format is "png" or "jpeg"
	Format string

	// Quality is the JPEG quality, 1 to 100
	Quality int
}

// Ext returns the file extension for the output format
func (o SaveOptions) Ext() string {
	if o.isJPEG() {
		return ".jpg"
	}
	return ".png"
}

func (o SaveOptions) isJPEG() bool {
	f := strings.ToLower(o.Format)
	return f == "jpeg" || f == "jpg"
}

// SaveSlice writes an image to filename in the requested format
func SaveSlice(img image.Image, filename string, opts SaveOptions) error {
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	switch f := strings.ToLower(opts.Format); {
	case opts.isJPEG():
		quality := opts.Quality
		if quality <= 0 || quality > 100 {
			quality = jpeg.DefaultQuality
		}
		err = jpeg.Encode(file, img, &jpeg.Options{Quality: quality})
	case f == "" || f == "png":
		err = png.Encode(file, img)
	default:
		return fmt.Errorf("unsupported output format: %s", opts.Format)
	}
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", filename, err)
	}
	return file.Close()
}

// SaveSeries renders every slice and writes slice_NNN files into outputDir.
// It returns the written paths in series order.
func (v *Viewer) SaveSeries(ctx context.Context, outputDir string, center, width *float64, workers int, opts SaveOptions) ([]string, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, err
	}

	rendered, err := v.RenderSeries(ctx, center, width, workers)
	if err != nil {
		return nil, err
	}

	paths := make([]string, len(rendered))
	for i, r := range rendered {
		paths[i] = filepath.Join(outputDir, fmt.Sprintf("slice_%03d%s", i, opts.Ext()))
		if err := SaveSlice(r.Image, paths[i], opts); err != nil {
			return nil, err
		}
	}
	return paths, nil
}

// Thumbnail scales img so that its longer side is at most maxSize pixels,
// preserving the aspect ratio. Smaller images are never enlarged.
func Thumbnail(img image.Image, maxSize int) *image.RGBA {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if maxSize > 0 && (w > maxSize || h > maxSize) {
		if w >= h {
			h = max(1, h*maxSize/w)
			w = maxSize
		} else {
			w = max(1, w*maxSize/h)
			h = maxSize
		}
	}

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}
