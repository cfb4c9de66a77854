package model

import "fmt"

// Preprocess normalizes a raw feature vector against the parameter table.
// Numeric features are standardized, booleans map to 1/0, categoricals
// expand into one indicator per known category (all zero for an unknown
// observed value). Unclassified features pass through when they are
// number-like; string features without a categorical spec contribute
// nothing to the numeric vector.
func Preprocess(features map[string]any, p *Parameters) map[string]float64 {
	out := make(map[string]float64, len(features))

	for name, raw := range features {
		name = CanonicalName(name)

		if stats, ok := p.Preprocessing.NumericFeatures[name]; ok {
			v, ok := toFloat(raw)
			if !ok {
				continue
			}
			if stats.Std == 0 {
				out[name] = 0
			} else {
				out[name] = (v - stats.Mean) / stats.Std
			}
			continue
		}

		if categories, ok := p.Preprocessing.CategoricalFeatures[name]; ok {
			observed := fmt.Sprintf("%v", raw)
			for _, cat := range categories {
				indicator := name + "_" + CanonicalName(cat)
				if CanonicalName(observed) == CanonicalName(cat) {
					out[indicator] = 1
				} else {
					out[indicator] = 0
				}
			}
			continue
		}

		if p.Preprocessing.IsBoolean(name) {
			if b, ok := raw.(bool); ok && b {
				out[name] = 1
			} else {
				out[name] = 0
			}
			continue
		}

		// Unclassified: pass through unchanged when representable.
		if v, ok := toFloat(raw); ok {
			out[name] = v
		}
	}
	return out
}

func toFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int:
		return float64(x), true
	case int64:
		return float64(x), true
	case bool:
		if x {
			return 1, true
		}
		return 0, true
	default:
		return 0, false
	}
}
