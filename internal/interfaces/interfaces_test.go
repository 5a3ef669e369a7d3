package interfaces

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"unifimon/internal/checkapi"
)

func makeIfaces(n int) []Interface {
	ifaces := make([]Interface, 0, n)
	for i := 1; i <= n; i++ {
		ifaces = append(ifaces, Interface{Attributes: Attributes{
			Index:      fmt.Sprint(i),
			Descr:      fmt.Sprintf("Port %d", i),
			Alias:      fmt.Sprintf("Port %d", i),
			Type:       "6",
			Speed:      1_000_000_000,
			OperStatus: "1",
		}})
	}
	return ifaces
}

func items(services []checkapi.Service) []string {
	out := make([]string, 0, len(services))
	for _, s := range services {
		out = append(out, s.Item)
	}
	return out
}

func metricByName(findings []checkapi.Finding, name string) (checkapi.Metric, bool) {
	for _, m := range checkapi.Metrics(findings) {
		if m.Name == name {
			return m, true
		}
	}
	return checkapi.Metric{}, false
}

func TestDiscoverPadsPortNumbers(t *testing.T) {
	services := Discover(nil, makeIfaces(12))
	require.Len(t, services, 12)
	assert.Equal(t, "01", services[0].Item)
	assert.Equal(t, "12", services[11].Item)

	services = Discover(checkapi.Params{"pad_portnumbers": false}, makeIfaces(12))
	assert.Equal(t, "1", services[0].Item)

	services = Discover(nil, makeIfaces(3))
	assert.Equal(t, []string{"1", "2", "3"}, items(services))
}

func TestDiscoverFiltersByStateAndType(t *testing.T) {
	ifaces := makeIfaces(3)
	ifaces[1].Attributes.OperStatus = "2"
	ifaces[2].Attributes.Type = "24"

	assert.Equal(t, []string{"1"}, items(Discover(nil, ifaces)))
	assert.Equal(t, []string{"1", "2"}, items(Discover(checkapi.Params{"portstates": []any{"1", "2"}}, ifaces)))
}

func TestDiscoverItemAppearance(t *testing.T) {
	ifaces := makeIfaces(2)
	ifaces[1].Attributes.Alias = "Port 1"

	assert.Equal(t, []string{"Port 1", "Port 2"}, items(Discover(checkapi.Params{"item_appearance": "descr"}, ifaces)))
	assert.Equal(t, []string{"Port 1 1", "Port 1 2"}, items(Discover(checkapi.Params{"item_appearance": "alias"}, ifaces)))
}

func TestDiscoverRecordsStateAndSpeed(t *testing.T) {
	services := Discover(nil, makeIfaces(1))
	require.Len(t, services, 1)
	assert.Equal(t, []string{"1"}, services[0].Parameters.Strings("discovered_oper_status"))
	speed, ok := services[0].Parameters.Float("discovered_speed")
	require.True(t, ok)
	assert.Equal(t, 1e9, speed)
}

func TestFindMatchesPaddedIndexAndAlias(t *testing.T) {
	ifaces := makeIfaces(12)

	iface, ok := Find("01", ifaces)
	require.True(t, ok)
	assert.Equal(t, "1", iface.Attributes.Index)

	iface, ok = Find("Port 7", ifaces)
	require.True(t, ok)
	assert.Equal(t, "7", iface.Attributes.Index)

	_, ok = Find("99", ifaces)
	assert.False(t, ok)
}

func TestCheckMultipleItemNotFound(t *testing.T) {
	_, err := CheckMultiple("42", nil, makeIfaces(2), NewMemoryStore(), time.Now())
	require.ErrorIs(t, err, checkapi.ErrItemNotFound)
}

func TestCheckMultipleCounterRates(t *testing.T) {
	store := NewMemoryStore()
	t0 := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	ifaces := makeIfaces(1)
	ifaces[0].Counters = Counters{InOctets: 1000, OutOctets: 5000}

	findings, err := CheckMultiple("1", nil, ifaces, store, t0)
	require.NoError(t, err)
	assert.Contains(t, checkapi.Results(findings), checkapi.Result{State: checkapi.OK, Summary: "Initializing counters"})
	assert.Empty(t, checkapi.Metrics(findings))

	ifaces[0].Counters = Counters{InOctets: 101000, OutOctets: 5000, InUcast: 990, InErr: 10}
	findings, err = CheckMultiple("1", nil, ifaces, store, t0.Add(10*time.Second))
	require.NoError(t, err)

	in, ok := metricByName(findings, "in")
	require.True(t, ok)
	assert.Equal(t, 10000.0, in.Value)
	require.NotNil(t, in.Boundaries.Max)
	assert.Equal(t, 125_000_000.0, *in.Boundaries.Max)

	out, ok := metricByName(findings, "out")
	require.True(t, ok)
	assert.Equal(t, 0.0, out.Value)

	inerr, ok := metricByName(findings, "inerr")
	require.True(t, ok)
	assert.Equal(t, 1.0, inerr.Value)

	var worst []checkapi.State
	for _, r := range checkapi.Results(findings) {
		worst = append(worst, r.State)
		if r.Notice == "Errors in: 1.00%" {
			assert.Equal(t, checkapi.Crit, r.State)
		}
	}
	assert.Equal(t, checkapi.Crit, checkapi.Worst(worst...))

	for _, name := range []string{"in", "out", "inerr", "outerr", "indisc", "outdisc", "inucast", "outucast", "inmcast", "outmcast", "inbcast", "outbcast"} {
		_, ok := metricByName(findings, name)
		assert.True(t, ok, "metric %s", name)
	}
}

func TestCheckMultipleCounterWrapResets(t *testing.T) {
	store := NewMemoryStore()
	t0 := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	ifaces := makeIfaces(1)
	ifaces[0].Counters = Counters{InOctets: 5000}

	_, err := CheckMultiple("1", nil, ifaces, store, t0)
	require.NoError(t, err)

	ifaces[0].Counters = Counters{InOctets: 10}
	findings, err := CheckMultiple("1", nil, ifaces, store, t0.Add(time.Minute))
	require.NoError(t, err)
	assert.Contains(t, checkapi.Results(findings), checkapi.Result{State: checkapi.OK, Summary: "Initializing counters"})

	ifaces[0].Counters = Counters{InOctets: 610}
	findings, err = CheckMultiple("1", nil, ifaces, store, t0.Add(2*time.Minute))
	require.NoError(t, err)
	in, ok := metricByName(findings, "in")
	require.True(t, ok)
	assert.Equal(t, 10.0, in.Value)
}

func TestCheckMultipleStateAndSpeed(t *testing.T) {
	ifaces := makeIfaces(1)
	ifaces[0].Attributes.OperStatus = "2"
	ifaces[0].Attributes.Speed = 100_000_000

	params := checkapi.Params{"discovered_oper_status": []string{"1"}, "discovered_speed": int64(1_000_000_000)}
	findings, err := CheckMultiple("1", params, ifaces, NewMemoryStore(), time.Now())
	require.NoError(t, err)

	results := checkapi.Results(findings)
	assert.Contains(t, results, checkapi.Result{State: checkapi.Crit, Summary: "(down)", Details: "Operational state: down"})
	assert.Contains(t, results, checkapi.Result{State: checkapi.Warn, Summary: "Speed: 100 MBit/s (expected: 1 GBit/s)"})

	findings, err = CheckMultiple("1", params.Merge(checkapi.Params{"state": []any{"2"}}), ifaces, NewMemoryStore(), time.Now())
	require.NoError(t, err)
	assert.Contains(t, checkapi.Results(findings), checkapi.Result{State: checkapi.OK, Summary: "(down)", Details: "Operational state: down"})
}

func TestCheckMultipleTrafficLevels(t *testing.T) {
	store := NewMemoryStore()
	t0 := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	ifaces := makeIfaces(1)
	ifaces[0].Attributes.Speed = 8000 // 1000 bytes/s

	_, err := CheckMultiple("1", nil, ifaces, store, t0)
	require.NoError(t, err)

	ifaces[0].Counters.InOctets = 9000 // 900 bytes/s over 10s
	params := checkapi.Params{"traffic": []any{80, 95}}
	findings, err := CheckMultiple("1", params, ifaces, store, t0.Add(10*time.Second))
	require.NoError(t, err)

	assert.Contains(t, checkapi.Results(findings), checkapi.Result{State: checkapi.Warn, Summary: "In: 900.00 B/s (90.0%)"})
	in, ok := metricByName(findings, "in")
	require.True(t, ok)
	assert.Equal(t, &checkapi.Levels{Warn: 800, Crit: 950}, in.Levels)
}

func TestRender(t *testing.T) {
	assert.Equal(t, "1 GBit/s", RenderSpeed(1e9))
	assert.Equal(t, "2.5 GBit/s", RenderSpeed(2.5e9))
	assert.Equal(t, "100 MBit/s", RenderSpeed(1e8))
	assert.Equal(t, "1.25 MB/s", RenderBytesRate(1_250_000))
	assert.Equal(t, "12.00 B/s", RenderBytesRate(12))
}
