package model

import (
	"context"
	"fmt"

	"github.com/okian/scorecast/internal/domain/features"
)

// Scaler standardizes each expanded column as (x - mean) / scale.
type Scaler struct {
	Mean  []float64 `json:"mean"`
	Scale []float64 `json:"scale"`
}

// Linear is a regularized linear regressor such as Lasso.
type Linear struct {
	Schema
	Scaler       *Scaler   `json:"scaler,omitempty"`
	Intercept    float64   `json:"intercept"`
	Coefficients []float64 `json:"coefficients"`
}

// Validate checks coefficient and scaler dimensions.
func (l *Linear) Validate() error {
	if err := l.Schema.Validate(); err != nil {
		return err
	}
	width := l.Width()
	if len(l.Coefficients) != width {
		return fmt.Errorf("%w: %d coefficients for %d columns", ErrInvalidModel, len(l.Coefficients), width)
	}
	if l.Scaler == nil {
		return nil
	}
	if len(l.Scaler.Mean) != width || len(l.Scaler.Scale) != width {
		return fmt.Errorf("%w: scaler dimensions do not match %d columns", ErrInvalidModel, width)
	}
	for i, s := range l.Scaler.Scale {
		if s == 0 {
			return fmt.Errorf("%w: scaler has zero scale at column %d", ErrInvalidModel, i)
		}
	}
	return nil
}

// Predict implements Predictor.
func (l *Linear) Predict(ctx context.Context, rows []features.Record) ([]float64, error) {
	xs, err := l.matrix(ctx, rows)
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(xs))
	for i, x := range xs {
		y := l.Intercept
		for j, v := range x {
			if l.Scaler != nil {
				v = (v - l.Scaler.Mean[j]) / l.Scaler.Scale[j]
			}
			y += l.Coefficients[j] * v
		}
		out[i] = y
	}
	return out, nil
}
