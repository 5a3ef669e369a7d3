package graphing

import "unifimon/internal/checkapi"

// Translation renames a check metric and optionally scales its value.
type Translation struct {
	Name  string  `json:"name"`
	Scale float64 `json:"scale,omitempty"`
}

var interfaceTranslation = map[string]Translation{
	"in":       {Name: "if_in_octets"},
	"out":      {Name: "if_out_octets"},
	"indisc":   {Name: "if_in_discards"},
	"outdisc":  {Name: "if_out_discards"},
	"inerr":    {Name: "if_in_errors"},
	"outerr":   {Name: "if_out_errors"},
	"inucast":  {Name: "if_in_unicast"},
	"outucast": {Name: "if_out_unicast"},
	"inmcast":  {Name: "if_in_mcast"},
	"outmcast": {Name: "if_out_mcast"},
	"inbcast":  {Name: "if_in_bcast"},
	"outbcast": {Name: "if_out_bcast"},
}

// checkMetrics maps check plugin names to their metric translations.
var checkMetrics = map[string]map[string]Translation{
	"unifi_network_ports_if": interfaceTranslation,
}

// Translations returns the metric translations of a check plugin.
func Translations(plugin string) map[string]Translation {
	return checkMetrics[plugin]
}

// Translate applies the translation of plugin to m. Levels and boundaries
// are scaled along with the value.
func Translate(plugin string, m checkapi.Metric) checkapi.Metric {
	tr, ok := checkMetrics[plugin][m.Name]
	if !ok {
		return m
	}
	m.Name = tr.Name
	if tr.Scale == 0 || tr.Scale == 1 {
		return m
	}
	m.Value *= tr.Scale
	m.Levels = m.Levels.Scale(tr.Scale)
	if m.Boundaries != nil {
		b := *m.Boundaries
		if b.Min != nil {
			b.Min = checkapi.Float(*b.Min * tr.Scale)
		}
		if b.Max != nil {
			b.Max = checkapi.Float(*b.Max * tr.Scale)
		}
		m.Boundaries = &b
	}
	return m
}
