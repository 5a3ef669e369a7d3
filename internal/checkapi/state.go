// internal/checkapi/state.go
package checkapi

import "strings"

// State is the monitoring state of a result. The numeric values are the
// classic plugin exit codes.
type State int

const (
	OK      State = 0
	Warn    State = 1
	Crit    State = 2
	Unknown State = 3
)

func (s State) String() string {
	switch s {
	case OK:
		return "OK"
	case Warn:
		return "WARN"
	case Crit:
		return "CRIT"
	default:
		return "UNKNOWN"
	}
}

// Marker is the short suffix appended to non-OK texts in a summary.
func (s State) Marker() string {
	switch s {
	case Warn:
		return "(!)"
	case Crit:
		return "(!!)"
	case Unknown:
		return "(?)"
	default:
		return ""
	}
}

// Label is the lower-case name used for metric labels and API payloads.
func (s State) Label() string {
	return strings.ToLower(s.String())
}

func (s State) severity() int {
	switch s {
	case OK:
		return 0
	case Warn:
		return 1
	case Unknown:
		return 2
	default:
		return 3
	}
}

// Worst returns the most severe of the given states. CRIT outranks UNKNOWN,
// which outranks WARN. No states yields OK.
func Worst(states ...State) State {
	worst := OK
	for _, s := range states {
		if s.severity() > worst.severity() {
			worst = s
		}
	}
	return worst
}
