package model

import (
	"context"
	"fmt"

	"github.com/okian/scorecast/internal/domain/features"
)

// Tree aggregation modes.
const (
	AggregationMean = "mean" // bagged ensembles such as random forests
	AggregationSum  = "sum"  // gradient boosted ensembles
)

// Node is one split or leaf. Children always come after their parent.
type Node struct {
	Feature   int     `json:"feature"`
	Threshold float64 `json:"threshold"`
	Left      int     `json:"left"`
	Right     int     `json:"right"`
	Leaf      bool    `json:"leaf"`
	Value     float64 `json:"value"`
}

// Tree is a flat array of nodes rooted at index 0.
type Tree struct {
	Nodes []Node `json:"nodes"`
}

// TreeEnsemble scores a record with a set of regression trees.
type TreeEnsemble struct {
	Schema
	Aggregation  string  `json:"aggregation"`
	BaseScore    float64 `json:"base_score"`
	LearningRate float64 `json:"learning_rate"`
	Trees        []Tree  `json:"trees"`
}

// Validate checks the ensemble definition so evaluation cannot index out
// of range or loop.
func (t *TreeEnsemble) Validate() error {
	if err := t.Schema.Validate(); err != nil {
		return err
	}
	switch t.Aggregation {
	case AggregationMean, AggregationSum:
	default:
		return fmt.Errorf("%w: unknown aggregation %q", ErrInvalidModel, t.Aggregation)
	}
	if len(t.Trees) == 0 {
		return fmt.Errorf("%w: ensemble has no trees", ErrInvalidModel)
	}
	width := t.Width()
	for ti, tree := range t.Trees {
		if len(tree.Nodes) == 0 {
			return fmt.Errorf("%w: tree %d is empty", ErrInvalidModel, ti)
		}
		for ni, n := range tree.Nodes {
			if n.Leaf {
				continue
			}
			if n.Feature < 0 || n.Feature >= width {
				return fmt.Errorf("%w: tree %d node %d splits on column %d of %d", ErrInvalidModel, ti, ni, n.Feature, width)
			}
			if n.Left <= ni || n.Right <= ni || n.Left >= len(tree.Nodes) || n.Right >= len(tree.Nodes) {
				return fmt.Errorf("%w: tree %d node %d has invalid children", ErrInvalidModel, ti, ni)
			}
		}
	}
	return nil
}

// Predict implements Predictor.
func (t *TreeEnsemble) Predict(ctx context.Context, rows []features.Record) ([]float64, error) {
	xs, err := t.matrix(ctx, rows)
	if err != nil {
		return nil, err
	}
	lr := t.LearningRate
	if lr == 0 {
		lr = 1
	}
	out := make([]float64, len(xs))
	for i, x := range xs {
		var sum float64
		for _, tree := range t.Trees {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			sum += tree.eval(x)
		}
		if t.Aggregation == AggregationMean {
			out[i] = t.BaseScore + sum/float64(len(t.Trees))
		} else {
			out[i] = t.BaseScore + lr*sum
		}
	}
	return out, nil
}

func (tr Tree) eval(x []float64) float64 {
	i := 0
	for !tr.Nodes[i].Leaf {
		n := tr.Nodes[i]
		if x[n.Feature] <= n.Threshold {
			i = n.Left
		} else {
			i = n.Right
		}
	}
	return tr.Nodes[i].Value
}
