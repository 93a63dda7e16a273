package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"image"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"dicomview/internal/models"
	"dicomview/pkg/config"
	"dicomview/pkg/decoder"
	"dicomview/pkg/dicom"
	"dicomview/pkg/series"
	"dicomview/pkg/visualization"
	"dicomview/pkg/windowing"
)

// optionalFloat is a float flag that records whether it was set
type optionalFloat struct {
	value *float64
}

func (f *optionalFloat) String() string {
	if f.value == nil {
		return ""
	}
	return strconv.FormatFloat(*f.value, 'g', -1, 64)
}

func (f *optionalFloat) Set(s string) error {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return err
	}
	f.value = &v
	return nil
}

func main() {
	var center, width optionalFloat

	// Parse command line arguments
	input := flag.String("input", "", "DICOM or image file, or a directory holding a series")
	configPath := flag.String("config", "config.yaml", "Configuration file")
	flag.Var(&center, "center", "Window center (overrides the image and preset)")
	flag.Var(&width, "width", "Window width (overrides the image and preset)")
	preset := flag.String("preset", "", "Named window preset from the configuration")
	outputDir := flag.String("output", "rendered_slices", "Directory to save rendered slices")
	inspect := flag.Bool("inspect", false, "Print metadata and the element dump instead of rendering")
	verbose := flag.Bool("verbose", false, "Enable debug logging")
	writeConfig := flag.Bool("write-config", false, "Write the default configuration to -config and exit")
	planeName := flag.String("plane", "", "Render a single plane (axial, coronal, sagittal or z, y, x) instead of the series")
	index := flag.Int("index", 0, "Slice position for -plane")
	thumbnail := flag.Int("thumbnail", 0, "Scale the -plane output so its longer side is at most this many pixels")
	flag.Parse()

	zerolog.TimeFieldFormat = time.RFC3339
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).
		With().
		Timestamp().
		Logger().
		Level(zerolog.InfoLevel)

	if *writeConfig {
		if err := config.CreateDefaultConfigFile(*configPath); err != nil {
			logger.Fatal().Err(err).Msg("failed to write configuration")
		}
		fmt.Printf("Default configuration written to %s\n", *configPath)
		return
	}

	// Validate inputs
	if *input == "" {
		flag.Usage()
		os.Exit(1)
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load configuration")
	}
	if *verbose || cfg.Output.Verbose {
		logger = logger.Level(zerolog.DebugLevel)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	slices, err := load(ctx, *input, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Str("input", *input).Msg("failed to load input")
	}

	if *inspect {
		if err := printInspection(*input, slices); err != nil {
			logger.Fatal().Err(err).Msg("inspection failed")
		}
		return
	}

	// Explicit center/width take precedence over the preset, field by field
	c, w := center.value, width.value
	if *preset != "" {
		win, err := cfg.Windowing.Presets.Lookup(*preset)
		if err != nil {
			logger.Fatal().Err(err).Msg("invalid preset")
		}
		if c == nil {
			c = &win.Center
		}
		if w == nil {
			w = &win.Width
		}
	}

	engine := windowing.NewEngine(cfg.WindowingOptions())
	viewer := visualization.NewViewer(slices, engine)

	if *planeName != "" {
		plane, err := visualization.ParsePlane(*planeName)
		if err != nil {
			logger.Fatal().Err(err).Msg("invalid plane")
		}
		path, err := savePlane(viewer, plane, *index, c, w, *thumbnail, *outputDir, cfg.SaveOptions())
		if errors.Is(err, visualization.ErrPlaneNotImplemented) {
			logger.Fatal().Str("plane", plane.String()).Msg("only axial planes can be rendered")
		}
		if err != nil {
			logger.Fatal().Err(err).Str("plane", plane.String()).Int("index", *index).Msg("failed to render plane")
		}
		fmt.Printf("Rendered %s plane %d to %s\n", plane, *index, path)
		return
	}

	startTime := time.Now()
	paths, err := viewer.SaveSeries(ctx, *outputDir, c, w, cfg.Decode.Workers, cfg.SaveOptions())
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to render series")
	}

	logger.Info().
		Int("slices", len(paths)).
		Str("window", engine.ResolveWindow(slices[0], c, w).String()).
		Dur("elapsed", time.Since(startTime)).
		Msg("rendering completed")
	fmt.Printf("Rendered %d slices to %s\n", len(paths), *outputDir)
}

// savePlane renders one plane, optionally downscaled, into outputDir
func savePlane(viewer *visualization.Viewer, plane visualization.Plane, index int, center, width *float64,
	thumbnail int, outputDir string, opts visualization.SaveOptions) (string, error) {
	rendered, err := viewer.ExtractPlane(plane, index, center, width)
	if err != nil {
		return "", err
	}

	var img image.Image = rendered.Image
	if thumbnail > 0 {
		img = visualization.Thumbnail(img, thumbnail)
	}

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return "", err
	}
	path := filepath.Join(outputDir, fmt.Sprintf("%s_%03d%s", plane, index, opts.Ext()))
	if err := visualization.SaveSlice(img, path, opts); err != nil {
		return "", err
	}
	return path, nil
}

// load decodes a single file or every file of a directory into an ordered series
func load(ctx context.Context, input string, cfg *config.Config, logger zerolog.Logger) ([]*models.DicomImageData, error) {
	info, err := os.Stat(input)
	if err != nil {
		return nil, err
	}

	loader := series.NewLoader(cfg.LoaderParams(), logger)
	if info.IsDir() {
		return loader.LoadDir(ctx, input)
	}
	return loader.LoadFiles(ctx, []string{input})
}

func printInspection(input string, slices []*models.DicomImageData) error {
	for i, img := range slices {
		fmt.Printf("Slice %d\n", i)
		fmt.Printf("=======================================\n")
		printMetadata(img)
		fmt.Println()
	}

	info, err := os.Stat(input)
	if err != nil || info.IsDir() {
		return err
	}

	data, err := os.ReadFile(input)
	if err != nil {
		return err
	}
	if decoder.Classify(data) != decoder.FormatDICOM {
		return nil
	}

	elements, syntax, err := dicom.Dump(data)
	if err != nil {
		return err
	}
	fmt.Printf("Transfer syntax: %s\n", syntax)
	for _, el := range elements {
		fmt.Println(el)
	}
	return nil
}

func printMetadata(img *models.DicomImageData) {
	fmt.Printf("Source format: %s\n", img.SourceFormat)
	fmt.Printf("Dimensions: %dx%d\n", img.Width, img.Height)
	fmt.Printf("Bits allocated/stored/high: %d/%d/%d\n", img.BitsAllocated, img.BitsStored, img.HighBit)
	fmt.Printf("Pixel representation: %d\n", img.PixelRepresentation)
	fmt.Printf("Photometric interpretation: %s\n", img.PhotometricInterpretation)
	fmt.Printf("Rescale: slope %g intercept %g\n", img.RescaleSlope, img.RescaleIntercept)
	if img.WindowCenter != nil && img.WindowWidth != nil {
		fmt.Printf("Window: %s\n", windowing.Window{Center: *img.WindowCenter, Width: *img.WindowWidth})
	}
	if img.InstanceNumber != nil {
		fmt.Printf("Instance number: %d\n", *img.InstanceNumber)
	}
	if img.SliceLocation != nil {
		fmt.Printf("Slice location: %g\n", *img.SliceLocation)
	}
	if pos, ok := series.Position(img); ok {
		fmt.Printf("Position along normal: %g\n", pos)
	}
	if origin, err := series.PixelToPatient(img, 0, 0); err == nil {
		far, _ := series.PixelToPatient(img, float64(img.Width-1), float64(img.Height-1))
		fmt.Printf("First pixel at: (%.2f, %.2f, %.2f) mm\n", origin.X, origin.Y, origin.Z)
		fmt.Printf("Last pixel at: (%.2f, %.2f, %.2f) mm\n", far.X, far.Y, far.Z)
	}
	if img.PixelSpacing != nil {
		fmt.Printf("Pixel spacing: %g x %g mm\n", img.PixelSpacing[0], img.PixelSpacing[1])
	}
	if img.PatientName != "" {
		fmt.Printf("Patient: %s\n", img.PatientName)
	}
	if img.StudyDescription != "" {
		fmt.Printf("Study: %s\n", img.StudyDescription)
	}
	if img.SeriesDescription != "" {
		fmt.Printf("Series: %s\n", img.SeriesDescription)
	}
}
