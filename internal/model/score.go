package model

import (
	"math"
	"sort"
)

// decisionThreshold converts a probability into the boolean verdict.
const decisionThreshold = 0.5

// Score computes sigmoid(bias + Σ weight·value) over the features present
// in the vector. Weighted features missing from the vector are skipped, not
// zero-filled. Summation follows the artifact's feature order (falling back
// to sorted weight names) so repeated scoring of an unchanged vector is
// bit-identical.
func Score(v map[string]float64, p *Parameters) float64 {
	z := p.Bias
	for _, name := range p.scoringOrder() {
		w, ok := p.Weights[name]
		if !ok {
			continue
		}
		val, ok := v[name]
		if !ok {
			continue
		}
		z += w * val
	}
	return sigmoid(z)
}

// IsAgent applies the decision threshold to a probability.
func IsAgent(probability float64) bool {
	return probability >= decisionThreshold
}

func (p *Parameters) scoringOrder() []string {
	if len(p.FeatureOrder) > 0 {
		return p.FeatureOrder
	}
	names := make([]string, 0, len(p.Weights))
	for name := range p.Weights {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func sigmoid(z float64) float64 {
	return 1 / (1 + math.Exp(-z))
}
