package unifi

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"unifimon/internal/checkapi"
	"unifimon/internal/section"
)

func portRows(n int) [][]string {
	var rows [][]string
	for i := 1; i <= n; i++ {
		id := fmt.Sprint(i)
		rows = append(rows,
			[]string{id, "port_idx", id},
			[]string{id, "name", "Port " + id},
			[]string{id, "speed", "1000"},
			[]string{id, "oper_status", "1"},
			[]string{id, "admin_status", "1"},
			[]string{id, "satisfaction", "100"},
			[]string{id, "rx_bytes", "38499976384"},
		)
	}
	return rows
}

func TestNewPort(t *testing.T) {
	rec := section.Record{
		"port_idx":     "10",
		"name":         "Port 10",
		"speed":        "1000",
		"oper_status":  "1",
		"admin_status": "1",
		"jumbo":        "1",
		"satisfaction": "100",
		"poe_enable":   "1",
		"poe_power":    "4.52",
		"poe_voltage":  "53.10",
		"poe_current":  "",
		"rx_bytes":     "38499976384",
		"tx_errors":    "x",
		"portconf":     "ALL",
	}
	p := NewPort(rec)

	assert.Equal(t, "10", p.Attributes.Index)
	assert.Equal(t, "Port 10", p.Attributes.Alias)
	assert.Equal(t, "6", p.Attributes.Type)
	assert.Equal(t, int64(1_000_000_000), p.Attributes.Speed)
	assert.Equal(t, int64(38499976384), p.Counters.InOctets)
	assert.Equal(t, int64(0), p.Counters.OutErr)
	assert.True(t, p.Jumbo)
	assert.True(t, p.PoEEnable)
	assert.Equal(t, 4.52, p.PoEPower)
	assert.Equal(t, 0.0, p.PoECurrent)
	assert.Equal(t, 100, p.Satisfaction)
	assert.Equal(t, "ALL", p.Portconf)
}

func TestPortSatisfactionOnlyWhenUp(t *testing.T) {
	tests := []struct {
		oper, raw string
		want      int
	}{
		{"1", "95", 95},
		{"2", "95", 0},
		{"", "95", 0},
		{"1", "", 0},
	}
	for _, tt := range tests {
		p := NewPort(section.Record{"port_idx": "1", "oper_status": tt.oper, "satisfaction": tt.raw})
		assert.Equal(t, tt.want, p.Satisfaction, "oper=%q raw=%q", tt.oper, tt.raw)
	}
}

func TestPortDiscoveryPadding(t *testing.T) {
	items := runDiscovery(t, PortsPlugin, nil, portRows(12))
	require.Len(t, items, 12)
	assert.Equal(t, "01", items[0])
	assert.Equal(t, "10", items[9])

	items = runDiscovery(t, PortsPlugin, checkapi.Params{"item_appearance": "alias"}, portRows(2))
	assert.Equal(t, []string{"Port 1", "Port 2"}, items)
}

func TestPortCheck(t *testing.T) {
	rows := append(portRows(12),
		[]string{"1", "portconf", "LAN"},
		[]string{"1", "poe_enable", "1"},
		[]string{"1", "poe_power", "4.5"},
		[]string{"1", "poe_voltage", "53"},
		[]string{"1", "ip", "10.0.0.2"},
		[]string{"2", "oper_status", "2"},
	)

	for _, item := range []string{"01", "1", "Port 1"} {
		findings, err := runCheck(t, PortsPlugin, item, nil, rows)
		require.NoError(t, err, item)

		s := summaries(findings)
		assert.Contains(t, s, "Initializing counters")
		assert.Contains(t, s, "Speed: 1 GBit/s")
		assert.Contains(t, s, "Network: LAN")
		assert.Contains(t, s, "PoE: 4.5W")
		assert.Contains(t, s, "IP: 10.0.0.2")
		assert.Equal(t, 100.0, metricValue(t, findings, "satisfaction"))
		assert.Equal(t, 4.5, metricValue(t, findings, "poe_power"))
		assert.Equal(t, 53.0, metricValue(t, findings, "poe_voltage"))
	}

	findings, err := runCheck(t, PortsPlugin, "02", nil, rows)
	require.NoError(t, err)
	assert.Equal(t, 0.0, metricValue(t, findings, "satisfaction"), "port is down")
	assert.NotContains(t, summaries(findings), "Network: LAN")

	_, err = runCheck(t, PortsPlugin, "Port 42", nil, rows)
	assert.ErrorIs(t, err, checkapi.ErrItemNotFound)
}
