// Package model holds the trained classifier artifact: a table of linear
// weights with a preprocessing spec. The values are supplied externally and
// treated as immutable; nothing in this package trains or mutates them.
package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
)

// ErrNoModel is returned when a detection cycle runs without parameters.
var ErrNoModel = errors.New("model parameters not loaded")

// NumericStats standardizes one numeric feature.
type NumericStats struct {
	Mean float64 `json:"mean"`
	Std  float64 `json:"std"`
}

// PreprocessingSpec classifies each feature name as numeric, categorical
// (with its fixed category list) or boolean.
type PreprocessingSpec struct {
	NumericFeatures     map[string]NumericStats `json:"numeric_features"`
	CategoricalFeatures map[string][]string     `json:"categorical_features"`
	BooleanFeatures     []string                `json:"boolean_features"`
}

// Parameters is the versioned model artifact.
type Parameters struct {
	Weights       map[string]float64 `json:"weights"`
	Bias          float64            `json:"bias"`
	FeatureOrder  []string           `json:"feature_order"`
	Preprocessing PreprocessingSpec  `json:"preprocessing"`
}

// Load reads and validates a parameters artifact from a JSON file.
func Load(path string) (*Parameters, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read model parameters: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a parameters artifact.
func Parse(data []byte) (*Parameters, error) {
	var p Parameters
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("decode model parameters: %w", err)
	}
	if len(p.Weights) == 0 {
		return nil, errors.New("model parameters carry no weights")
	}
	return &p, nil
}

// CanonicalName normalizes a feature name to its canonical case form so the
// extractor namespace and the trained weight table agree on keys.
func CanonicalName(name string) string {
	return strings.ToLower(name)
}

// IsBoolean reports whether the spec classifies the feature as boolean.
func (s PreprocessingSpec) IsBoolean(name string) bool {
	for _, b := range s.BooleanFeatures {
		if CanonicalName(b) == name {
			return true
		}
	}
	return false
}
