// Package modelstore loads the configured model artifacts from a directory
// into a registry.
package modelstore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/okian/scorecast/internal/adapters/artifact"
	"github.com/okian/scorecast/internal/registry"
	"github.com/okian/scorecast/pkg/logger"
	"github.com/okian/scorecast/pkg/metrics"
)

// Loader reads one artifact per family from dir.
type Loader struct {
	dir         string
	concurrency int
	families    []registry.Family
	decoder     *artifact.Decoder
	logger      logger.Logger
}

// NewLoader returns a loader for the artifacts in dir.
func NewLoader(dir string, opts ...Option) *Loader {
	l := &Loader{
		dir:      dir,
		families: registry.Families,
		decoder:  artifact.NewDecoder(),
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.logger == nil {
		l.logger = logger.Named("modelstore")
	}
	return l
}

// Load decodes every family's artifact. Missing or undecodable artifacts are
// logged and skipped; only cancellation of ctx fails the load.
func (l *Loader) Load(ctx context.Context) (*registry.Registry, error) {
	registry.RegisterShims(l.decoder)

	b := registry.NewBuilder(l.families)
	g, gctx := errgroup.WithContext(ctx)
	if l.concurrency > 0 {
		g.SetLimit(l.concurrency)
	}

	for _, f := range l.families {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			m, reason, err := l.loadOne(f)
			if err != nil {
				metrics.RecordModelLoadFailure(f.Name, reason)
				l.logger.Warn(gctx, "skipping model",
					logger.String("model", f.Name),
					logger.String("file", f.File),
					logger.Error(err),
				)
				return nil
			}
			if err := b.Add(f.Name, m); err != nil {
				return fmt.Errorf("add %s: %w", f.Name, err)
			}
			l.logger.Info(gctx, "loaded model",
				logger.String("model", f.Name),
				logger.String("file", f.File),
				logger.String("kind", artifact.Describe(m).Kind),
			)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	reg := b.Build()
	metrics.UpdateModelsLoaded(reg.Len())
	l.logger.Info(ctx, "model registry ready",
		logger.Int("loaded", reg.Len()),
		logger.Int("configured", len(l.families)),
		logger.Any("models", reg.Names()),
	)
	return reg, nil
}

// Path returns where the artifact for f is read from.
func (l *Loader) Path(f registry.Family) string {
	return filepath.Join(l.dir, f.File)
}

func (l *Loader) loadOne(f registry.Family) (any, string, error) {
	start := time.Now()
	path := l.Path(f)

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return nil, reasonMissing, fmt.Errorf("%w: %s", ErrNotFound, path)
	case err != nil:
		return nil, reasonRead, fmt.Errorf("%w: %v", ErrRead, err)
	}

	m, err := l.decoder.Decode(data)
	if err != nil {
		return nil, reasonDecode, fmt.Errorf("%w: %s: %w", ErrDecode, f.File, err)
	}
	metrics.RecordModelLoadLatency(f.Name, float64(time.Since(start).Microseconds())/1000)
	return m, "", nil
}
