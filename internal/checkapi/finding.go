// internal/checkapi/finding.go
package checkapi

import (
	"fmt"
	"strconv"
	"strings"
)

// Finding is one element emitted by a check function: a Result or a Metric.
type Finding interface {
	finding()
}

// Result is a state together with a human readable text.
//
// Summary texts always show up in the service output. Notice texts only show
// up there when the state is not OK, otherwise they go to the long output.
type Result struct {
	State   State  `json:"state"`
	Summary string `json:"summary,omitempty"`
	Notice  string `json:"notice,omitempty"`
	Details string `json:"details,omitempty"`
}

func (Result) finding() {}

// Text returns the text shown in the service summary, or "" when the result
// belongs to the long output only.
func (r Result) Text() string {
	if r.Summary != "" {
		return r.Summary
	}
	if r.State != OK {
		return r.Notice
	}
	return ""
}

// Detail returns the text shown in the long output.
func (r Result) Detail() string {
	switch {
	case r.Details != "":
		return r.Details
	case r.Summary != "":
		return r.Summary
	default:
		return r.Notice
	}
}

type Levels struct {
	Warn float64 `json:"warn"`
	Crit float64 `json:"crit"`
}

type Boundaries struct {
	Min *float64 `json:"min,omitempty"`
	Max *float64 `json:"max,omitempty"`
}

// Metric is a named measurement for time series storage.
type Metric struct {
	Name       string      `json:"name"`
	Value      float64     `json:"value"`
	Levels     *Levels     `json:"levels,omitempty"`
	Boundaries *Boundaries `json:"boundaries,omitempty"`
}

func (Metric) finding() {}

// PerfData renders the metric in the name=value;warn;crit;min;max notation.
func (m Metric) PerfData() string {
	fields := []string{formatFloat(m.Value), "", "", "", ""}
	if m.Levels != nil {
		fields[1] = formatFloat(m.Levels.Warn)
		fields[2] = formatFloat(m.Levels.Crit)
	}
	if m.Boundaries != nil {
		if m.Boundaries.Min != nil {
			fields[3] = formatFloat(*m.Boundaries.Min)
		}
		if m.Boundaries.Max != nil {
			fields[4] = formatFloat(*m.Boundaries.Max)
		}
	}
	return fmt.Sprintf("%s=%s", m.Name, strings.TrimRight(strings.Join(fields, ";"), ";"))
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Float is a helper for the optional boundary fields.
func Float(v float64) *float64 {
	return &v
}

// Service is a discovered service: the item plus the parameters the
// discovery wants to hand over to the check.
type Service struct {
	Item       string `json:"item"`
	Parameters Params `json:"parameters,omitempty"`
}

// InventoryRow is one element emitted by an inventory function: Attributes
// or a TableRow.
type InventoryRow interface {
	inventoryRow()
	NodePath() []string
}

// Attributes are key/value pairs attached to a node of the inventory tree.
type Attributes struct {
	Path                []string       `json:"path"`
	InventoryAttributes map[string]any `json:"inventory_attributes"`
}

func (Attributes) inventoryRow() {}

func (a Attributes) NodePath() []string { return a.Path }

// TableRow is a row of a table attached to a node of the inventory tree.
// KeyColumns identify the row.
type TableRow struct {
	Path             []string       `json:"path"`
	KeyColumns       map[string]any `json:"key_columns"`
	InventoryColumns map[string]any `json:"inventory_columns"`
}

func (TableRow) inventoryRow() {}

func (t TableRow) NodePath() []string { return t.Path }

// Results filters the Result findings out of a finding list.
func Results(findings []Finding) []Result {
	var results []Result
	for _, f := range findings {
		if r, ok := f.(Result); ok {
			results = append(results, r)
		}
	}
	return results
}

// Metrics filters the Metric findings out of a finding list.
func Metrics(findings []Finding) []Metric {
	var metrics []Metric
	for _, f := range findings {
		if m, ok := f.(Metric); ok {
			metrics = append(metrics, m)
		}
	}
	return metrics
}
