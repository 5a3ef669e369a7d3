package interfaces

import (
	"fmt"
	"strings"
	"time"

	"unifimon/internal/checkapi"
	"unifimon/internal/section"
)

// CheckDefaults are used when no "if" rules apply. Error levels are in
// percent of all packets.
var CheckDefaults = checkapi.Params{
	"errors": checkapi.Levels{Warn: 0.01, Crit: 0.1},
}

// CheckMultiple checks the interface item out of ifaces. Counter rates are
// computed against the values stored in store during the previous run.
func CheckMultiple(item string, params checkapi.Params, ifaces []Interface, store checkapi.ValueStore, now time.Time) ([]checkapi.Finding, error) {
	iface, ok := Find(item, ifaces)
	if !ok {
		return nil, fmt.Errorf("%w: interface %s", checkapi.ErrItemNotFound, item)
	}
	params = CheckDefaults.Merge(params)
	attr := iface.Attributes

	var findings []checkapi.Finding
	if attr.Alias != "" && attr.Alias != item {
		findings = append(findings, checkapi.Result{State: checkapi.OK, Summary: fmt.Sprintf("[%s]", attr.Alias)})
	}
	findings = append(findings, checkOperStatus(attr, params), checkSpeed(attr, params))

	r, err := computeRates(attr.Index, iface.Counters, store, now)
	if err != nil {
		return nil, err
	}
	if r == nil {
		return append(findings, checkapi.Result{State: checkapi.OK, Summary: "Initializing counters"}), nil
	}

	trafficLevels, _ := params.Levels("traffic")
	errorLevels, _ := params.Levels("errors")
	discardLevels, _ := params.Levels("discards")

	for _, dir := range []string{"in", "out"} {
		findings = append(findings, checkBandwidth(dir, r[dir], attr.Speed, trafficLevels)...)
	}
	for _, dir := range []string{"in", "out"} {
		findings = append(findings, checkErrors(dir, r, errorLevels)...)
	}
	for _, dir := range []string{"in", "out"} {
		findings = append(findings, checkDiscards(dir, r[dir+"disc"], discardLevels)...)
	}
	return append(findings, packetFindings(r)...), nil
}

// Find returns the interface item refers to. The item may be the (padded)
// index, the description, the alias, or "<name> <index>" for duplicates.
func Find(item string, ifaces []Interface) (Interface, bool) {
	for _, iface := range ifaces {
		if matches(item, iface.Attributes) {
			return iface, true
		}
	}
	return Interface{}, false
}

func matches(item string, attr Attributes) bool {
	if item == attr.Alias || item == attr.Descr {
		return true
	}
	if n := section.SafeInt(item, -1); n >= 0 && n == section.SafeInt(attr.Index, 0) {
		return true
	}
	if i := strings.LastIndex(item, " "); i > 0 {
		name, idx := item[:i], item[i+1:]
		return (name == attr.Alias || name == attr.Descr) && section.SafeInt(idx, -1) == section.SafeInt(attr.Index, 0)
	}
	return false
}

func checkOperStatus(attr Attributes, params checkapi.Params) checkapi.Result {
	expected := params.Strings("state")
	if len(expected) == 0 {
		expected = params.Strings("discovered_oper_status")
	}
	state := checkapi.OK
	if len(expected) > 0 && !toSet(expected)[attr.OperStatus] {
		state = checkapi.Crit
	}
	return checkapi.Result{
		State:   state,
		Summary: fmt.Sprintf("(%s)", attr.OperStatusName()),
		Details: fmt.Sprintf("Operational state: %s", attr.OperStatusName()),
	}
}

func checkSpeed(attr Attributes, params checkapi.Params) checkapi.Result {
	expected, ok := params.Float("speed")
	if !ok {
		expected, ok = params.Float("discovered_speed")
	}
	if attr.Speed == 0 {
		return checkapi.Result{State: checkapi.OK, Summary: "Speed: unknown"}
	}
	if ok && expected > 0 && int64(expected) != attr.Speed {
		return checkapi.Result{
			State:   checkapi.Warn,
			Summary: fmt.Sprintf("Speed: %s (expected: %s)", RenderSpeed(float64(attr.Speed)), RenderSpeed(expected)),
		}
	}
	return checkapi.Result{State: checkapi.OK, Summary: fmt.Sprintf("Speed: %s", RenderSpeed(float64(attr.Speed)))}
}

var directionLabels = map[string]string{"in": "In", "out": "Out"}

// checkBandwidth reports the octet rate of a direction. Traffic levels are
// percentages of the link speed.
func checkBandwidth(dir string, bytesPerSec float64, speed int64, levels *checkapi.Levels) []checkapi.Finding {
	label := directionLabels[dir]
	metric := checkapi.Metric{Name: dir, Value: bytesPerSec, Boundaries: &checkapi.Boundaries{Min: checkapi.Float(0)}}
	summary := fmt.Sprintf("%s: %s", label, RenderBytesRate(bytesPerSec))
	state := checkapi.OK

	if speed > 0 {
		linkBytes := float64(speed) / 8
		metric.Boundaries.Max = checkapi.Float(linkBytes)
		summary += fmt.Sprintf(" (%.1f%%)", bytesPerSec/linkBytes*100)
		if levels != nil {
			metric.Levels = levels.Scale(linkBytes / 100)
			state = checkapi.CheckLevels(bytesPerSec, metric.Levels)
		}
	}
	return []checkapi.Finding{checkapi.Result{State: state, Summary: summary}, metric}
}

// checkErrors relates the error rate to all packets of a direction.
func checkErrors(dir string, r rates, levels *checkapi.Levels) []checkapi.Finding {
	errs := r[dir+"err"]
	total := errs + r[dir+"ucast"] + r[dir+"mcast"] + r[dir+"bcast"]
	var percent float64
	if total > 0 {
		percent = errs / total * 100
	}
	return []checkapi.Finding{
		checkapi.Result{
			State:  checkapi.CheckLevels(percent, levels),
			Notice: fmt.Sprintf("Errors %s: %s%%", dir, formatRate(percent)),
		},
		checkapi.Metric{Name: dir + "err", Value: errs},
	}
}

func checkDiscards(dir string, perSec float64, levels *checkapi.Levels) []checkapi.Finding {
	return []checkapi.Finding{
		checkapi.Result{
			State:  checkapi.CheckLevels(perSec, levels),
			Notice: fmt.Sprintf("Discards %s: %s packets/s", dir, formatRate(perSec)),
		},
		checkapi.Metric{Name: dir + "disc", Value: perSec, Levels: levels},
	}
}

var packetKinds = []struct{ suffix, label string }{
	{"ucast", "Unicast"},
	{"mcast", "Multicast"},
	{"bcast", "Broadcast"},
}

func packetFindings(r rates) []checkapi.Finding {
	var findings []checkapi.Finding
	for _, kind := range packetKinds {
		for _, dir := range []string{"in", "out"} {
			name := dir + kind.suffix
			findings = append(findings,
				checkapi.Result{State: checkapi.OK, Notice: fmt.Sprintf("%s %s: %s packets/s", kind.label, dir, formatRate(r[name]))},
				checkapi.Metric{Name: name, Value: r[name]},
			)
		}
	}
	return findings
}
