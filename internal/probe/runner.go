package probe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/okian/scorecast/internal/domain/features"
	"github.com/okian/scorecast/pkg/logger"
)

const (
	directoryPermission = 0o750
	reportPermission    = 0o600
	percentage          = 100
)

// Run executes a complete probe: health check, generation, concurrent
// submission with per-response verification, then an optional report.
func Run(ctx context.Context, cfg *Config) (*Stats, error) {
	log := logger.Named("probe")
	seed := cfg.Seed
	if seed == 0 {
		seed = rand.Uint64()
	}
	stats := &Stats{
		RunID:     uuid.NewString(),
		Seed:      seed,
		Models:    make(map[string]*ModelStats),
		StartTime: time.Now(),
	}

	log.Info(ctx, "starting scorecast probe",
		logger.String("runID", stats.RunID),
		logger.String("baseURL", cfg.BaseURL),
		logger.Int("requests", cfg.Requests),
		logger.Int("workers", cfg.Workers),
		logger.String("timeout", cfg.Timeout.String()),
		logger.Any("seed", seed))

	client := NewClient(cfg.BaseURL, cfg.Timeout)

	loaded, err := client.Health(ctx)
	if err != nil {
		return stats, fmt.Errorf("service health check failed: %w", err)
	}
	stats.ModelsLoaded = loaded
	log.Info(ctx, "service is healthy", logger.Int("modelsLoaded", loaded))

	states := NewGenerator(seed).Batch(cfg.Requests)
	stats.Generated = len(states)

	if err := submit(ctx, cfg, client, states, stats); err != nil {
		return stats, fmt.Errorf("submission failed: %w", err)
	}

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)

	if cfg.OutputFile != "" {
		if err := saveReport(cfg.OutputFile, stats); err != nil {
			log.Warn(ctx, "failed to save report", logger.Error(err))
		} else {
			log.Info(ctx, "report saved", logger.String("filename", cfg.OutputFile))
		}
	}

	displayFinalStats(ctx, stats)

	if stats.MetadataMismatch > 0 {
		return stats, fmt.Errorf("%w: %d responses", ErrMismatch, stats.MetadataMismatch)
	}
	return stats, nil
}

func submit(ctx context.Context, cfg *Config, client *Client, states []MatchState, stats *Stats) error {
	log := logger.Named("probe")
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	if cfg.Workers > 0 {
		g.SetLimit(cfg.Workers)
	}

	for i, st := range states {
		g.Go(func() error {
			if gctx.Err() != nil {
				return gctx.Err()
			}
			resp, err := client.Predict(gctx, stats.RunID, st)

			mu.Lock()
			defer mu.Unlock()
			stats.Submitted++
			if err != nil {
				stats.Failed++
				if errors.Is(err, ErrUnreachable) && gctx.Err() != nil {
					return gctx.Err()
				}
				log.Warn(gctx, "prediction request failed", logger.Int("index", i), logger.Error(err))
				return nil
			}
			stats.Succeeded++
			if err := verify(st, resp); err != nil {
				stats.MetadataMismatch++
				log.Warn(gctx, "metadata mismatch", logger.Int("index", i), logger.Error(err))
			}
			tally(stats, resp)
			if cfg.Verbose {
				log.Info(gctx, "prediction received",
					logger.Int("index", i),
					logger.String("battingTeam", st.BattingTeam),
					logger.Float64("overs", st.Overs),
					logger.Any("predictions", resp.Predictions))
			}
			return nil
		})
	}
	return g.Wait()
}

// verify recomputes the metadata locally and compares it to the response.
func verify(st MatchState, resp PredictResponse) error {
	rec, err := features.Derive(st.domain())
	if err != nil {
		return err
	}
	want := rec.Summarize()
	if math.Abs(want.CRR-resp.Metadata.CRR) > 1e-9 || want.BallsRemaining != resp.Metadata.BallsRemaining {
		return fmt.Errorf("%w: want crr=%v balls=%d, got crr=%v balls=%d",
			ErrMismatch, want.CRR, want.BallsRemaining, resp.Metadata.CRR, resp.Metadata.BallsRemaining)
	}
	return nil
}

// tally folds one response into per-model counters. Numbers count as
// predictions; strings are the service's per-model error messages.
func tally(stats *Stats, resp PredictResponse) {
	for name, v := range resp.Predictions {
		ms, ok := stats.Models[name]
		if !ok {
			ms = &ModelStats{Min: math.Inf(1), Max: math.Inf(-1)}
			stats.Models[name] = ms
		}
		f, ok := v.(float64)
		if !ok {
			ms.Errors++
			continue
		}
		ms.Numeric++
		ms.Sum += f
		ms.Min = math.Min(ms.Min, f)
		ms.Max = math.Max(ms.Max, f)
	}
}

func saveReport(filename string, stats *Stats) error {
	if dir := filepath.Dir(filename); dir != "." {
		if err := os.MkdirAll(dir, directoryPermission); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}
	data, err := json.MarshalIndent(reportView(stats), "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}
	return os.WriteFile(filename, data, reportPermission)
}

// reportView replaces infinite bounds of models that never returned a
// number, which encoding/json refuses to write.
func reportView(stats *Stats) *Stats {
	out := *stats
	out.Models = make(map[string]*ModelStats, len(stats.Models))
	for name, ms := range stats.Models {
		c := *ms
		if c.Numeric == 0 {
			c.Min, c.Max = 0, 0
		}
		out.Models[name] = &c
	}
	return &out
}

func displayFinalStats(ctx context.Context, stats *Stats) {
	var successRate, perSecond float64
	if stats.Submitted > 0 {
		successRate = float64(stats.Succeeded) / float64(stats.Submitted) * percentage
	}
	if stats.Duration > 0 {
		perSecond = float64(stats.Submitted) / stats.Duration.Seconds()
	}

	log := logger.Named("probe")
	for name, ms := range stats.Models {
		fields := []logger.Field{
			logger.String("model", name),
			logger.Int("numeric", ms.Numeric),
			logger.Int("errors", ms.Errors),
		}
		if ms.Numeric > 0 {
			fields = append(fields,
				logger.Float64("mean", ms.Sum/float64(ms.Numeric)),
				logger.Float64("min", ms.Min),
				logger.Float64("max", ms.Max))
		}
		log.Info(ctx, "model summary", fields...)
	}
	log.Info(ctx, "final statistics",
		logger.String("runID", stats.RunID),
		logger.Int("generated", stats.Generated),
		logger.Int("submitted", stats.Submitted),
		logger.Int("succeeded", stats.Succeeded),
		logger.Int("failed", stats.Failed),
		logger.Int("metadataMismatch", stats.MetadataMismatch),
		logger.String("duration", stats.Duration.String()),
		logger.Float64("successRate", successRate),
		logger.Float64("requestsPerSecond", perSecond))
}
