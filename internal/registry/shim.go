package registry

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/okian/scorecast/internal/adapters/artifact"
	"github.com/okian/scorecast/internal/domain/features"
	"github.com/okian/scorecast/internal/domain/model"
)

// CatBoostClass is the class reference written into exported CatBoost
// artifacts by the training code.
const CatBoostClass = "utils.models.CatBoostModel"

// CatBoostModel wraps the booster exported by the training code. It can
// only forward predictions to the wrapped model.
type CatBoostModel struct {
	model model.Predictor
}

// Predict forwards to the wrapped model.
func (c *CatBoostModel) Predict(ctx context.Context, rows []features.Record) ([]float64, error) {
	return c.model.Predict(ctx, rows)
}

// Class implements artifact.Wrapper.
func (c *CatBoostModel) Class() string { return CatBoostClass }

// Unwrap implements artifact.Wrapper.
func (c *CatBoostModel) Unwrap() any { return c.model }

func decodeCatBoost(d *artifact.Decoder, state json.RawMessage) (any, error) {
	var st struct {
		Model json.RawMessage `json:"model"`
	}
	dec := json.NewDecoder(bytes.NewReader(state))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&st); err != nil {
		return nil, fmt.Errorf("%w: %v", artifact.ErrInvalidState, err)
	}
	inner, err := d.DecodeNested(st.Model)
	if err != nil {
		return nil, err
	}
	p, ok := inner.(model.Predictor)
	if !ok {
		return nil, fmt.Errorf("%w: wrapped %T cannot predict", artifact.ErrInvalidState, inner)
	}
	return &CatBoostModel{model: p}, nil
}

// RegisterShims makes the wrapper classes referenced by exported artifacts
// resolvable. It must run before any artifact is decoded.
func RegisterShims(d *artifact.Decoder) {
	d.RegisterType(CatBoostClass, decodeCatBoost)
}
