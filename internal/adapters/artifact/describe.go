package artifact

import (
	"fmt"

	"github.com/okian/scorecast/internal/domain/model"
)

// Wrapper is implemented by decoded objects that delegate to an inner one.
type Wrapper interface {
	Class() string
	Unwrap() any
}

// Description summarizes a decoded object.
type Description struct {
	Kind        string       `json:"kind"`
	Class       string       `json:"class,omitempty"`
	Predicts    bool         `json:"predicts"`
	Features    []string     `json:"feature_names,omitempty"`
	Columns     []string     `json:"columns,omitempty"`
	Aggregation string       `json:"aggregation,omitempty"`
	Trees       int          `json:"trees,omitempty"`
	Scaled      bool         `json:"scaled,omitempty"`
	Inner       *Description `json:"inner,omitempty"`
}

// Describe reports what v is without running it.
func Describe(v any) Description {
	_, predicts := v.(model.Predictor)
	d := Description{Predicts: predicts}

	switch m := v.(type) {
	case *model.TreeEnsemble:
		d.Kind = KindTreeEnsemble
		d.Features, d.Columns = m.Features(), m.Columns()
		d.Aggregation = m.Aggregation
		d.Trees = len(m.Trees)
	case *model.Linear:
		d.Kind = KindLinear
		d.Features, d.Columns = m.Features(), m.Columns()
		d.Scaled = m.Scaler != nil
	case *model.OneHotEncoder:
		d.Kind = KindEncoder
		d.Features, d.Columns = m.Features(), m.Columns()
	case Wrapper:
		d.Kind = KindObject
		d.Class = m.Class()
		inner := Describe(m.Unwrap())
		d.Inner = &inner
		d.Features = inner.Features
	default:
		d.Kind = fmt.Sprintf("%T", v)
	}
	return d
}
