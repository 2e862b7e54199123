package eegview

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/simonhull/eegview/internal/registry"
)

// Loader resolves a file's extension to a loading strategy, runs it, and
// normalizes the result.
//
// A Loader is safe for concurrent use once its registry is frozen.
//
//	loader := eegview.NewLoader(eegview.DefaultRegistry())
//	rec, err := loader.Load("sub-01_task-rest_eeg.edf")
//	if err != nil {
//		return err
//	}
//	fmt.Println(rec.ChannelNames())
type Loader struct {
	reg  *registry.Registry
	opts *loadOptions
}

// NewLoader returns a Loader backed by reg.
func NewLoader(reg *registry.Registry, opts ...Option) *Loader {
	options := defaultOptions()
	for _, opt := range opts {
		opt(options)
	}
	return &Loader{reg: reg, opts: options}
}

// SupportedExtensions returns the registered extensions in registration
// order.
func (l *Loader) SupportedExtensions() []string {
	return l.reg.Extensions()
}

// Load reads the recording at path.
//
// The extension is checked before the file system is touched, so an
// unsupported path fails with *UnsupportedFormatError even when it does not
// exist. A recognized extension on a missing path fails with
// *FileNotFoundError. Any loader failure is reported as *LoadFailedError;
// for extensions with a fallback loader the error carries both causes.
//
// Unless WithoutNormalize is given, only EEG, EOG, ECG, EMG and Misc
// channels are kept.
func (l *Loader) Load(path string) (Recording, error) {
	ext := registry.NormalizeExt(filepath.Ext(path))
	entry, ok := l.reg.Lookup(ext)
	if !ok {
		return nil, &UnsupportedFormatError{
			Path:      path,
			Ext:       ext,
			Supported: l.reg.Extensions(),
		}
	}

	if _, err := l.opts.stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, &FileNotFoundError{Path: path, Ext: ext}
		}
		return nil, fmt.Errorf("stat file: %w", err)
	}

	logger := l.opts.logger.With("path", path)
	start := time.Now()
	logger.Debug("loading", "strategy", entry.Primary.Name())

	rec, err := entry.Primary.Load(path, true)
	if err != nil {
		failed := &LoadFailedError{
			Path:        path,
			Ext:         ext,
			Primary:     err,
			PrimaryName: entry.Primary.Name(),
		}
		if entry.Fallback == nil {
			return nil, failed
		}

		logger.Debug("primary loader failed, trying fallback",
			"strategy", entry.Fallback.Name(), "error", err)
		rec, err = entry.Fallback.Load(path, true)
		if err != nil {
			failed.Fallback = err
			failed.FallbackName = entry.Fallback.Name()
			return nil, failed
		}
	}

	if !l.opts.skipNormalize {
		rec = Normalize(rec)
	}
	for _, w := range rec.Info().Warnings {
		logger.Warn("recording loaded with warnings", "warning", w.String())
	}
	logger.Debug("loaded",
		"kind", rec.Kind(),
		"channels", len(rec.Channels()),
		"elapsed", time.Since(start))
	return rec, nil
}

// LoadContext is Load with a cancellation check before any work starts.
// Loading itself is not interruptible.
func (l *Loader) LoadContext(ctx context.Context, path string) (Recording, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return l.Load(path)
}

// LoadMany loads several recordings concurrently.
//
// Files are loaded using up to runtime.NumCPU() goroutines and results are
// returned in input order. If any load fails, the first error is returned
// and no recordings.
func (l *Loader) LoadMany(ctx context.Context, paths ...string) ([]Recording, error) {
	if len(paths) == 0 {
		return nil, nil
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())

	results := make([]Recording, len(paths))
	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			rec, err := l.LoadContext(ctx, path)
			if err != nil {
				return err
			}
			results[i] = rec
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// Load reads path with a Loader over DefaultRegistry.
func Load(path string, opts ...Option) (Recording, error) {
	return NewLoader(DefaultRegistry(), opts...).Load(path)
}

// discardLogger is the default: the loader is silent unless a logger is
// supplied.
func discardLogger() *log.Logger {
	return log.New(io.Discard)
}
