package series

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"dicomview/internal/models"
	"dicomview/pkg/decoder"
)

// Params holds the loader configuration
type Params struct {
	// Workers bounds how many files are read and decoded at once.
	// Zero or negative means one worker per CPU.
	Workers int

	// Extensions restricts directory listings to files with these suffixes.
	// Empty means every regular file. Extensions only filter the listing;
	// the format of each file is still decided by its content.
	Extensions []string

	// SkipInvalid drops files that fail to decode instead of failing the load
	SkipInvalid bool
}

// Loader reads a series from disk and decodes its slices in parallel.
// Each slice is decoded independently into its own result slot, so no
// locking is needed between workers.
type Loader struct {
	params *Params
	logger zerolog.Logger
	decode func([]byte) (*models.DicomImageData, error)
}

// NewLoader creates a loader. Pass zerolog.Nop() to disable logging.
func NewLoader(params *Params, logger zerolog.Logger) *Loader {
	if params == nil {
		params = &Params{}
	}
	return &Loader{
		params: params,
		logger: logger,
		decode: decoder.Decode,
	}
}

// LoadDir loads every matching file in dir and returns the ordered series
func (l *Loader) LoadDir(ctx context.Context, dir string) ([]*models.DicomImageData, error) {
	files, err := l.listFiles(dir)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no files found in %s", dir)
	}
	return l.LoadFiles(ctx, files)
}

// LoadFiles loads the given files and returns the ordered series
func (l *Loader) LoadFiles(ctx context.Context, paths []string) ([]*models.DicomImageData, error) {
	return l.load(ctx, len(paths), func(i int) (string, []byte, error) {
		data, err := os.ReadFile(paths[i])
		return paths[i], data, err
	})
}

// DecodeAll decodes in-memory buffers and returns the ordered series
func (l *Loader) DecodeAll(ctx context.Context, buffers [][]byte) ([]*models.DicomImageData, error) {
	return l.load(ctx, len(buffers), func(i int) (string, []byte, error) {
		return fmt.Sprintf("buffer %d", i), buffers[i], nil
	})
}

func (l *Loader) workers() int {
	if l.params.Workers > 0 {
		return l.params.Workers
	}
	return runtime.NumCPU()
}

func (l *Loader) load(ctx context.Context, n int, source func(i int) (string, []byte, error)) ([]*models.DicomImageData, error) {
	start := time.Now()
	results := make([]*models.DicomImageData, n)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(l.workers())

	for i := 0; i < n; i++ {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			name, data, err := source(i)
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", name, err)
			}

			img, err := l.decode(data)
			if err != nil {
				if l.params.SkipInvalid {
					l.logger.Warn().Str("file", name).Err(err).Msg("skipping undecodable slice")
					return nil
				}
				return fmt.Errorf("failed to decode %s: %w", name, err)
			}

			l.logger.Debug().
				Str("file", name).
				Str("format", img.SourceFormat).
				Int("width", img.Width).
				Int("height", img.Height).
				Msg("slice decoded")
			results[i] = img
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	loaded := make([]*models.DicomImageData, 0, n)
	for _, img := range results {
		if img != nil {
			loaded = append(loaded, img)
		}
	}
	if len(loaded) == 0 {
		return nil, fmt.Errorf("none of %d inputs could be decoded", n)
	}

	sorted := Sort(loaded)
	l.logger.Info().
		Int("slices", len(sorted)).
		Int("skipped", n-len(loaded)).
		Dur("elapsed", time.Since(start)).
		Msg("series loaded")
	return sorted, nil
}

// listFiles returns the regular, non-hidden files of dir in natural order so
// that slices with no ordering metadata keep their file sequence
func (l *Loader) listFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var names []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") {
			continue
		}
		if !l.matchesExtension(name) {
			continue
		}
		names = append(names, name)
	}

	sort.SliceStable(names, func(i, j int) bool {
		numI, numJ := extractNumber(names[i]), extractNumber(names[j])
		if numI != numJ {
			return numI < numJ
		}
		return names[i] < names[j]
	})

	paths := make([]string, len(names))
	for i, name := range names {
		paths[i] = filepath.Join(dir, name)
	}
	return paths, nil
}

func (l *Loader) matchesExtension(name string) bool {
	if len(l.params.Extensions) == 0 {
		return true
	}
	ext := strings.ToLower(filepath.Ext(name))
	for _, want := range l.params.Extensions {
		if ext == strings.ToLower(want) {
			return true
		}
	}
	return false
}

// extractNumber returns the last run of digits in a filename, or -1
func extractNumber(filename string) int {
	base := filepath.Base(filename)
	end := -1
	for i := len(base) - 1; i >= 0; i-- {
		if base[i] >= '0' && base[i] <= '9' {
			end = i
			break
		}
	}
	if end < 0 {
		return -1
	}
	start := end
	for start > 0 && base[start-1] >= '0' && base[start-1] <= '9' {
		start--
	}
	num, err := strconv.Atoi(base[start : end+1])
	if err != nil {
		return -1
	}
	return num
}
