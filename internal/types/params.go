package types

// Params is a structured parameter binding passed to a strategy on every
// evaluation. Strategies read values through the typed getters; the engine
// never rewrites strategy source to inject parameters.
type Params map[string]any

// Clone returns a shallow copy of the parameter set.
func (p Params) Clone() Params {
	clone := make(Params, len(p))
	for k, v := range p {
		clone[k] = v
	}

	return clone
}

// Merge returns a copy of p with every entry of overrides applied on top.
func (p Params) Merge(overrides Params) Params {
	merged := p.Clone()
	for k, v := range overrides {
		merged[k] = v
	}

	return merged
}

// Float reads a numeric parameter, accepting any Go numeric type that YAML
// or a parameter space generator may have produced.
func (p Params) Float(key string, fallback float64) float64 {
	v, ok := p[key]
	if !ok {
		return fallback
	}

	switch n := v.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int:
		return float64(n)
	case int64:
		return float64(n)
	default:
		return fallback
	}
}

// Int reads a numeric parameter truncated to an int.
func (p Params) Int(key string, fallback int) int {
	v, ok := p[key]
	if !ok {
		return fallback
	}

	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	case float32:
		return int(n)
	default:
		return fallback
	}
}

// Bool reads a boolean parameter.
func (p Params) Bool(key string, fallback bool) bool {
	if v, ok := p[key].(bool); ok {
		return v
	}

	return fallback
}

// String reads a string parameter.
func (p Params) String(key string, fallback string) string {
	if v, ok := p[key].(string); ok {
		return v
	}

	return fallback
}
