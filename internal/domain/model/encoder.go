package model

import (
	"context"

	"github.com/okian/scorecast/internal/domain/features"
)

// OneHotEncoder is a standalone preprocessing step. It transforms records
// but cannot predict.
type OneHotEncoder struct {
	Schema
}

// Validate checks the encoder definition.
func (e *OneHotEncoder) Validate() error {
	return e.Schema.Validate()
}

// Transform encodes rows into indicator vectors.
func (e *OneHotEncoder) Transform(ctx context.Context, rows []features.Record) ([][]float64, error) {
	return e.matrix(ctx, rows)
}
