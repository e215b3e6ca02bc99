// Package model contains the predictors that score a derived feature record.
package model

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/okian/scorecast/internal/domain/features"
)

// Sentinel errors.
var (
	ErrInvalidModel   = errors.New("invalid model")
	ErrSchemaMismatch = errors.New("feature names mismatch")
	ErrColumnType     = errors.New("unexpected column type")
	ErrEmptyBatch     = errors.New("empty batch")
)

// Predictor turns a batch of feature records into one value per record.
type Predictor interface {
	Predict(ctx context.Context, rows []features.Record) ([]float64, error)
}

// Transformer turns a batch of feature records into numeric vectors.
type Transformer interface {
	Transform(ctx context.Context, rows []features.Record) ([][]float64, error)
}

// Schema describes the input columns a model was trained on and how
// categorical columns are expanded into indicator columns.
type Schema struct {
	FeatureNames []string            `json:"feature_names"`
	Categories   map[string][]string `json:"categories,omitempty"`
}

// Features returns the input column names.
func (s Schema) Features() []string { return s.FeatureNames }

// Columns returns the expanded column names, one per vector slot.
func (s Schema) Columns() []string {
	cols := make([]string, 0, len(s.FeatureNames))
	for _, name := range s.FeatureNames {
		cats, ok := s.Categories[name]
		if !ok {
			cols = append(cols, name)
			continue
		}
		for _, c := range cats {
			cols = append(cols, name+"_"+c)
		}
	}
	return cols
}

// Width returns the vector length produced by the schema.
func (s Schema) Width() int {
	n := 0
	for _, name := range s.FeatureNames {
		if cats, ok := s.Categories[name]; ok {
			n += len(cats)
			continue
		}
		n++
	}
	return n
}

// Validate checks the schema is well formed.
func (s Schema) Validate() error {
	if len(s.FeatureNames) == 0 {
		return fmt.Errorf("%w: no feature names", ErrInvalidModel)
	}
	seen := make(map[string]struct{}, len(s.FeatureNames))
	for _, name := range s.FeatureNames {
		if _, dup := seen[name]; dup {
			return fmt.Errorf("%w: duplicate feature %q", ErrInvalidModel, name)
		}
		seen[name] = struct{}{}
	}
	for name, cats := range s.Categories {
		if _, ok := seen[name]; !ok {
			return fmt.Errorf("%w: categories for unknown feature %q", ErrInvalidModel, name)
		}
		if len(cats) == 0 {
			return fmt.Errorf("%w: feature %q has no categories", ErrInvalidModel, name)
		}
	}
	return nil
}

// conform reports whether the schema matches the record layout.
func (s Schema) conform() error {
	if slices.Equal(s.FeatureNames, features.Columns) {
		return nil
	}
	return fmt.Errorf("%w: model expects [%s], record has [%s]", ErrSchemaMismatch,
		strings.Join(s.FeatureNames, " "), strings.Join(features.Columns, " "))
}

// vector encodes one record. Unknown categories encode as all zeros.
func (s Schema) vector(r features.Record) ([]float64, error) {
	out := make([]float64, 0, s.Width())
	for _, name := range s.FeatureNames {
		if cats, ok := s.Categories[name]; ok {
			v, ok := r.Categorical(name)
			if !ok {
				return nil, fmt.Errorf("%w: column %q is not categorical", ErrColumnType, name)
			}
			for _, c := range cats {
				if c == v {
					out = append(out, 1)
				} else {
					out = append(out, 0)
				}
			}
			continue
		}
		v, ok := r.Numeric(name)
		if !ok {
			if str, isCat := r.Categorical(name); isCat {
				return nil, fmt.Errorf("%w: could not convert string to float: %q", ErrColumnType, str)
			}
			return nil, fmt.Errorf("%w: unknown column %q", ErrColumnType, name)
		}
		out = append(out, v)
	}
	return out, nil
}

// matrix checks the schema and encodes every row.
func (s Schema) matrix(ctx context.Context, rows []features.Record) ([][]float64, error) {
	if len(rows) == 0 {
		return nil, ErrEmptyBatch
	}
	if err := s.conform(); err != nil {
		return nil, err
	}
	out := make([][]float64, len(rows))
	for i, r := range rows {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		v, err := s.vector(r)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}
