package interfaces

import (
	"fmt"
	"time"

	"unifimon/internal/checkapi"
)

// rates holds per second values keyed by metric name.
type rates map[string]float64

// computeRates stores the current counters and returns the rates against the
// previous values. It returns nil when any counter was seen for the first
// time or went backwards; the next run then starts from the stored values.
func computeRates(index string, c Counters, store checkapi.ValueStore, now time.Time) (rates, error) {
	r := make(rates)
	initializing := false

	for _, nc := range c.named() {
		key := fmt.Sprintf("if.%s.%s", index, nc.name)
		prev, found := store.GetValue(key)
		if err := store.SetValue(key, checkapi.Counter{Timestamp: now, Value: float64(nc.value)}); err != nil {
			return nil, fmt.Errorf("failed to store counter %s: %w", key, err)
		}

		elapsed := now.Sub(prev.Timestamp).Seconds()
		delta := float64(nc.value) - prev.Value
		if !found || elapsed <= 0 || delta < 0 {
			initializing = true
			continue
		}
		r[nc.name] = delta / elapsed
	}

	if initializing {
		return nil, nil
	}
	return r, nil
}
