package graphing

import "math"

const (
	PerfometerLinear      = "linear"
	PerfometerLogarithmic = "logarithmic"
)

// Perfometer is the small gauge shown next to a service. Linear perfometers
// sum their segments relative to Total; logarithmic ones put HalfValue at the
// middle and move by 10% per factor of Exponent.
type Perfometer struct {
	Type      string   `json:"type"`
	Segments  []string `json:"segments,omitempty"`
	Total     float64  `json:"total,omitempty"`
	Metric    string   `json:"metric,omitempty"`
	HalfValue float64  `json:"half_value,omitempty"`
	Exponent  float64  `json:"exponent,omitempty"`
}

var perfometers = []Perfometer{
	{Type: PerfometerLinear, Segments: []string{"satisfaction"}, Total: 100},
	{Type: PerfometerLogarithmic, Metric: "unifi_uptime", HalfValue: 2592000, Exponent: 2},
}

func Perfometers() []Perfometer {
	return append([]Perfometer(nil), perfometers...)
}

// Metrics returns the metrics the perfometer needs.
func (p Perfometer) Metrics() []string {
	if p.Type == PerfometerLogarithmic {
		return []string{p.Metric}
	}
	return p.Segments
}

// Fill returns the gauge fill in percent for the given metric values, and
// false when a required metric is missing.
func (p Perfometer) Fill(values map[string]float64) (float64, bool) {
	switch p.Type {
	case PerfometerLinear:
		if p.Total <= 0 {
			return 0, false
		}
		var sum float64
		for _, s := range p.Segments {
			v, ok := values[s]
			if !ok {
				return 0, false
			}
			sum += v
		}
		return clamp(sum / p.Total * 100), true

	case PerfometerLogarithmic:
		v, ok := values[p.Metric]
		if !ok {
			return 0, false
		}
		if v <= 0 || p.HalfValue <= 0 || p.Exponent <= 1 {
			return 0, true
		}
		return clamp(50 + 10*math.Log(v/p.HalfValue)/math.Log(p.Exponent)), true
	}
	return 0, false
}

// Select returns the first perfometer whose metrics are all present.
func Select(values map[string]float64) (Perfometer, bool) {
	for _, p := range perfometers {
		if _, ok := p.Fill(values); ok {
			return p, true
		}
	}
	return Perfometer{}, false
}

func clamp(v float64) float64 {
	return math.Max(0, math.Min(100, v))
}
