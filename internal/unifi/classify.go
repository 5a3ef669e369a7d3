// Package unifi turns the sections written by the UniFi controller agent into
// services, findings and inventory. All functions here are pure: they read
// the parsed section and return what they found.
package unifi

import (
	"fmt"
	"strings"

	"unifimon/internal/checkapi"
	"unifimon/internal/section"
)

// ExpectBool compares the integer flag val against expected and returns OK
// on a match, fail otherwise.
func ExpectBool(val string, expected bool, fail checkapi.State) checkapi.State {
	if (section.SafeInt(val, 0) != 0) == expected {
		return checkapi.OK
	}
	return fail
}

// ExpectNumber compares val against expected and returns OK on a match, fail
// otherwise.
func ExpectNumber(val string, expected int, fail checkapi.State) checkapi.State {
	if section.SafeInt(val, 0) == expected {
		return checkapi.OK
	}
	return fail
}

// StatusToState maps the controller's subsystem status words.
func StatusToState(status string) checkapi.State {
	switch strings.ToLower(status) {
	case "ok":
		return checkapi.OK
	case "warning":
		return checkapi.Warn
	case "error":
		return checkapi.Crit
	default:
		return checkapi.Unknown
	}
}

var deviceStates = map[string]string{
	"0": "disconnected",
	"1": "connected",
	"2": "pending",
}

// DeviceStateName returns the name of a raw device connection state, or
// "unknown".
func DeviceStateName(state string) string {
	if name, ok := deviceStates[state]; ok {
		return name
	}
	return "unknown"
}

// DeviceStateSeverity: connected is OK, pending WARN, everything else CRIT.
func DeviceStateSeverity(state string) checkapi.State {
	switch state {
	case "1":
		return checkapi.OK
	case "2":
		return checkapi.Warn
	default:
		return checkapi.Crit
	}
}

func ok(summary string) checkapi.Result {
	return checkapi.Result{State: checkapi.OK, Summary: summary}
}

func metric(name string, value float64) checkapi.Metric {
	return checkapi.Metric{Name: name, Value: value}
}

// intMetric emits a field coerced with SafeInt.
func intMetric(name string, rec section.Record, key string) checkapi.Metric {
	return metric(name, float64(rec.Int(key, 0)))
}

// satisfaction clamps the score to >= 0.
func satisfaction(v int) checkapi.Metric {
	return metric("satisfaction", float64(max(0, v)))
}

func notFound(kind, item string) error {
	return fmt.Errorf("%w: %s %s", checkapi.ErrItemNotFound, kind, item)
}

// withoutEmpty drops attributes whose value is an empty string.
func withoutEmpty(attrs map[string]any) map[string]any {
	for k, v := range attrs {
		if s, isString := v.(string); isString && s == "" {
			delete(attrs, k)
		}
	}
	return attrs
}
