// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/okian/scorecast/internal/adapters/artifact"
	"github.com/okian/scorecast/internal/adapters/modelstore"
	"github.com/okian/scorecast/internal/domain/features"
	"github.com/okian/scorecast/internal/domain/model"
	"github.com/okian/scorecast/internal/registry"
	"github.com/okian/scorecast/pkg/logger"
	"github.com/okian/scorecast/pkg/metrics"
)

// Default service configuration.
const (
	defaultModelsDir       = "./models"
	defaultLoadConcurrency = 5
	defaultPredictTimeout  = 2 * time.Second
)

// Loader builds the model registry at startup.
type Loader interface {
	Load(ctx context.Context) (*registry.Registry, error)
}

// Deriver computes the feature record for a match state.
type Deriver func(features.MatchState) (features.Record, error)

// ModelInfo describes one loaded model.
type ModelInfo struct {
	Name string `json:"name"`
	artifact.Description
}

// Service implements the API dependencies for the prediction service.
type Service struct {
	mu sync.RWMutex

	// Core components
	registry *registry.Registry
	loader   Loader
	derive   Deriver

	// Configuration
	modelsDir       string
	loadConcurrency int
	predictTimeout  time.Duration

	// State
	started   bool
	startedAt time.Time

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithModelsDir sets the directory artifacts are loaded from.
func WithModelsDir(dir string) Option {
	return func(s *Service) {
		if dir != "" {
			s.modelsDir = dir
		}
	}
}

// WithLoadConcurrency bounds concurrent artifact decoding at startup.
func WithLoadConcurrency(n int) Option {
	return func(s *Service) {
		if n >= 0 {
			s.loadConcurrency = n
		}
	}
}

// WithPredictTimeout bounds each model's predict call.
func WithPredictTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.predictTimeout = d
		}
	}
}

// WithLoader replaces the filesystem loader.
func WithLoader(l Loader) Option {
	return func(s *Service) {
		if l != nil {
			s.loader = l
		}
	}
}

// WithRegistry serves a prebuilt registry instead of loading one.
func WithRegistry(r *registry.Registry) Option {
	return func(s *Service) {
		if r != nil {
			s.loader = staticLoader{r}
		}
	}
}

// WithDeriver replaces feature derivation.
func WithDeriver(d Deriver) Option {
	return func(s *Service) {
		if d != nil {
			s.derive = d
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(logger logger.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

type staticLoader struct{ r *registry.Registry }

func (l staticLoader) Load(context.Context) (*registry.Registry, error) { return l.r, nil }

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		modelsDir:       defaultModelsDir,
		loadConcurrency: defaultLoadConcurrency,
		predictTimeout:  defaultPredictTimeout,
		derive:          features.Derive,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start loads the model registry. It must complete before requests are served.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	if s.logger == nil {
		s.logger = logger.Named("service")
	}

	s.logger.Info(ctx, "starting prediction service...",
		logger.String("modelsDir", s.modelsDir),
		logger.Int("loadConcurrency", s.loadConcurrency),
		logger.String("predictTimeout", s.predictTimeout.String()),
	)

	loader := s.loader
	if loader == nil {
		loader = modelstore.NewLoader(s.modelsDir,
			modelstore.WithConcurrency(s.loadConcurrency),
			modelstore.WithLogger(s.logger.Named("modelstore")),
		)
	}
	reg, err := loader.Load(ctx)
	if err != nil {
		return fmt.Errorf("load models: %w", err)
	}
	if reg == nil {
		reg = registry.Empty()
	}
	if reg.Len() == 0 {
		s.logger.Warn(ctx, "no models loaded; predictions will be empty")
	}

	s.registry = reg
	s.started = true
	s.startedAt = time.Now()
	s.logger.Info(ctx, "prediction service started", logger.Int("models", reg.Len()))

	return nil
}

// Stop marks the service stopped. Loaded models are kept until exit.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	s.started = false
	s.logger.Info(context.Background(), "prediction service stopped")
}

func (s *Service) snapshot() (*registry.Registry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.registry, s.started
}

// Predict validates st, derives its features and runs every loaded model.
// A model failure is reported in its slot; only validation and derivation
// failures are returned as errors.
func (s *Service) Predict(ctx context.Context, st features.MatchState) (Response, error) {
	reg, started := s.snapshot()
	if !started {
		return Response{}, ErrNotStarted
	}
	if err := features.Validate(st); err != nil {
		return Response{}, err
	}

	rec, err := s.deriveSafe(st)
	if err != nil {
		return Response{}, err
	}

	start := time.Now()
	entries := reg.Entries()
	slots := make([]any, len(entries))

	var wg sync.WaitGroup
	for i, e := range entries {
		wg.Add(1)
		go func() {
			defer wg.Done()
			slots[i] = s.predictOne(ctx, e, rec)
		}()
	}
	wg.Wait()
	metrics.RecordFanoutLatency(msSince(start))

	preds := NewPredictionResult()
	for i, e := range entries {
		preds.Set(e.Name, slots[i])
	}

	return Response{
		Status:      StatusSuccess,
		Predictions: preds,
		Metadata:    rec.Summarize(),
	}, nil
}

func (s *Service) deriveSafe(st features.MatchState) (rec features.Record, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrDerivation, r)
		}
	}()
	rec, err = s.derive(st)
	if err != nil && !errors.Is(err, ErrDerivation) {
		err = fmt.Errorf("%w: %w", ErrDerivation, err)
	}
	return rec, err
}

type outcome struct {
	values []float64
	err    error
}

// predictOne returns a float64 on success and an error string otherwise.
func (s *Service) predictOne(ctx context.Context, e registry.Entry, rec features.Record) any {
	start := time.Now()

	p, ok := e.Model.(model.Predictor)
	if !ok {
		metrics.RecordPrediction(e.Name, metrics.OutcomeNoPredict, 0)
		return NoPredictMessage
	}

	cctx, cancel := context.WithTimeout(ctx, s.predictTimeout)
	defer cancel()

	done := make(chan outcome, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- outcome{err: fmt.Errorf("%v", r)}
			}
		}()
		v, err := p.Predict(cctx, []features.Record{rec})
		done <- outcome{values: v, err: err}
	}()

	var out outcome
	select {
	case out = <-done:
	case <-cctx.Done():
		if errors.Is(cctx.Err(), context.DeadlineExceeded) {
			metrics.RecordPrediction(e.Name, metrics.OutcomeTimeout, msSince(start))
			s.logger.Warn(ctx, "model timed out", logger.String("model", e.Name))
			return fmt.Sprintf("Error: prediction timed out after %s", s.predictTimeout)
		}
		out = outcome{err: cctx.Err()}
	}

	if out.err == nil {
		switch {
		case len(out.values) == 0:
			out.err = model.ErrEmptyBatch
		case math.IsNaN(out.values[0]) || math.IsInf(out.values[0], 0):
			out.err = fmt.Errorf("non-finite prediction %v", out.values[0])
		}
	}
	if out.err != nil {
		metrics.RecordPrediction(e.Name, metrics.OutcomeError, msSince(start))
		s.logger.Warn(ctx, "model prediction failed", logger.String("model", e.Name), logger.Error(out.err))
		return "Error: " + out.err.Error()
	}

	metrics.RecordPrediction(e.Name, metrics.OutcomeSuccess, msSince(start))
	return out.values[0]
}

// Models describes the loaded models in registry order.
func (s *Service) Models() []ModelInfo {
	reg, _ := s.snapshot()
	entries := reg.Entries()
	out := make([]ModelInfo, 0, len(entries))
	for _, e := range entries {
		out = append(out, ModelInfo{Name: e.Name, Description: artifact.Describe(e.Model)})
	}
	return out
}

// ModelCount returns the number of loaded models.
func (s *Service) ModelCount() int {
	reg, _ := s.snapshot()
	return reg.Len()
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]interface{}{
		"started":          s.started,
		"modelsDir":        s.modelsDir,
		"loadConcurrency":  s.loadConcurrency,
		"predictTimeoutMs": s.predictTimeout.Milliseconds(),
		"modelsConfigured": len(registry.Families),
	}

	if s.started {
		stats["modelsLoaded"] = s.registry.Len()
		stats["models"] = s.registry.Names()
		stats["uptimeSeconds"] = int64(time.Since(s.startedAt).Seconds())
		metrics.UpdateModelsLoaded(s.registry.Len())
	}

	return stats
}

func msSince(t time.Time) float64 {
	return float64(time.Since(t).Microseconds()) / 1000
}
