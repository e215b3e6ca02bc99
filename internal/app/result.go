package service

import (
	"github.com/emirpasic/gods/maps/linkedhashmap"

	"github.com/okian/scorecast/internal/domain/features"
)

// Response status reported on every successful prediction.
const StatusSuccess = "success"

// NoPredictMessage is reported for a registry entry that cannot predict.
const NoPredictMessage = "Model object has no predict method"

// Response is the body returned by Predict.
type Response struct {
	Status      string            `json:"status"`
	Predictions *PredictionResult `json:"predictions"`
	Metadata    features.Metadata `json:"metadata"`
}

// PredictionResult maps model names to a float64 prediction or an error
// string. Keys keep registry order, including when encoded as JSON.
type PredictionResult struct {
	m *linkedhashmap.Map
}

// NewPredictionResult returns an empty result.
func NewPredictionResult() *PredictionResult {
	return &PredictionResult{m: linkedhashmap.New()}
}

// Set stores the value for name.
func (p *PredictionResult) Set(name string, v any) {
	p.m.Put(name, v)
}

// Get returns the value stored for name.
func (p *PredictionResult) Get(name string) (any, bool) {
	return p.m.Get(name)
}

// Len returns the number of models reported.
func (p *PredictionResult) Len() int {
	return p.m.Size()
}

// Names returns the reported model names in order.
func (p *PredictionResult) Names() []string {
	out := make([]string, 0, p.m.Size())
	for _, k := range p.m.Keys() {
		out = append(out, k.(string))
	}
	return out
}

// MarshalJSON encodes the result as an object in insertion order.
func (p *PredictionResult) MarshalJSON() ([]byte, error) {
	if p == nil || p.m == nil {
		return []byte("{}"), nil
	}
	return p.m.ToJSON()
}
