package checkapi

import (
	"fmt"
	"strconv"
)

// Params holds rule parameters for discovery and check functions. Values
// come straight from YAML, so numbers may be int or float64.
type Params map[string]any

// Merge returns a copy of p with the keys of over applied on top.
func (p Params) Merge(over Params) Params {
	merged := make(Params, len(p)+len(over))
	for k, v := range p {
		merged[k] = v
	}
	for k, v := range over {
		merged[k] = v
	}
	return merged
}

func (p Params) Bool(key string) bool {
	switch v := p[key].(type) {
	case bool:
		return v
	case string:
		b, _ := strconv.ParseBool(v)
		return b
	case int:
		return v != 0
	case float64:
		return v != 0
	default:
		return false
	}
}

func (p Params) String(key, def string) string {
	switch v := p[key].(type) {
	case string:
		return v
	case nil:
		return def
	default:
		return fmt.Sprint(v)
	}
}

// Float returns a numeric parameter and whether it was present.
func (p Params) Float(key string) (float64, bool) {
	switch v := p[key].(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case string:
		f, err := strconv.ParseFloat(v, 64)
		return f, err == nil
	default:
		return 0, false
	}
}

// Strings returns a list parameter. Scalar values are wrapped.
func (p Params) Strings(key string) []string {
	switch v := p[key].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, e := range v {
			out = append(out, fmt.Sprint(e))
		}
		return out
	case nil:
		return nil
	default:
		return []string{fmt.Sprint(v)}
	}
}

// Levels reads a warn/crit pair stored either as a two element list or as a
// map with warn and crit keys.
func (p Params) Levels(key string) (*Levels, bool) {
	switch v := p[key].(type) {
	case *Levels:
		return v, v != nil
	case Levels:
		return &v, true
	case []float64:
		if len(v) != 2 {
			return nil, false
		}
		return &Levels{Warn: v[0], Crit: v[1]}, true
	case []any:
		if len(v) != 2 {
			return nil, false
		}
		return levelsFrom(Params{"warn": v[0], "crit": v[1]})
	case map[string]any:
		return levelsFrom(Params(v))
	case Params:
		return levelsFrom(v)
	default:
		return nil, false
	}
}

func levelsFrom(pair Params) (*Levels, bool) {
	warn, okW := pair.Float("warn")
	crit, okC := pair.Float("crit")
	if !okW || !okC {
		return nil, false
	}
	return &Levels{Warn: warn, Crit: crit}, true
}
