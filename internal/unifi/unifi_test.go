package unifi

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"unifimon/internal/checkapi"
	"unifimon/internal/interfaces"
	"unifimon/internal/section"
)

var testNow = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func runCheck(t *testing.T, plugin, item string, params checkapi.Params, rows [][]string) ([]checkapi.Finding, error) {
	t.Helper()
	reg := NewRegistry()
	p, ok := reg.Check(plugin)
	require.True(t, ok, "plugin %s", plugin)
	sec := reg.Parse(p.SectionName(), rows)
	env := checkapi.Env{Host: "test", Now: testNow, Values: interfaces.NewMemoryStore()}
	return p.Check(env, item, params, sec)
}

func runDiscovery(t *testing.T, plugin string, params checkapi.Params, rows [][]string) []string {
	t.Helper()
	reg := NewRegistry()
	p, ok := reg.Check(plugin)
	require.True(t, ok, "plugin %s", plugin)
	var items []string
	for _, s := range p.Discover(p.DiscoveryDefaults.Merge(params), reg.Parse(p.SectionName(), rows)) {
		items = append(items, s.Item)
	}
	return items
}

func metricValue(t *testing.T, findings []checkapi.Finding, name string) float64 {
	t.Helper()
	for _, m := range checkapi.Metrics(findings) {
		if m.Name == name {
			return m.Value
		}
	}
	t.Fatalf("metric %s not found", name)
	return 0
}

func summaries(findings []checkapi.Finding) []string {
	var out []string
	for _, r := range checkapi.Results(findings) {
		if r.Summary != "" {
			out = append(out, r.Summary)
		}
	}
	return out
}

func worst(findings []checkapi.Finding) checkapi.State {
	var states []checkapi.State
	for _, r := range checkapi.Results(findings) {
		states = append(states, r.State)
	}
	return checkapi.Worst(states...)
}

func TestRegisterTwiceFails(t *testing.T) {
	reg := checkapi.NewRegistry()
	require.NoError(t, Register(reg))
	assert.ErrorIs(t, Register(reg), checkapi.ErrDuplicateSection)

	assert.Len(t, reg.Checks(), 7)
	assert.Len(t, reg.InventoryPlugins(), 4)
}

func TestController(t *testing.T) {
	rows := [][]string{
		{"controller_version", "7.0.25"},
		{"update_available", "1"},
		{"cloudkey_version", "2.1.11"},
		{"cloudkey_update_available", ""},
	}
	assert.Equal(t, []string{"Unifi Controller", "Cloudkey"}, runDiscovery(t, SectionController, nil, rows))
	assert.Equal(t, []string{"Unifi Controller"}, runDiscovery(t, SectionController, nil, rows[:2]))

	findings, err := runCheck(t, SectionController, "Unifi Controller", nil, rows)
	require.NoError(t, err)
	assert.Equal(t, []checkapi.Finding{
		checkapi.Result{State: checkapi.OK, Summary: "Version: 7.0.25"},
		checkapi.Result{State: checkapi.Warn, Notice: "Update available"},
	}, findings)

	findings, err = runCheck(t, SectionController, "Cloudkey", nil, rows)
	require.NoError(t, err)
	assert.Equal(t, checkapi.OK, worst(findings), "empty update flag is no update")

	_, err = runCheck(t, SectionController, "Dream Machine", nil, rows)
	assert.ErrorIs(t, err, checkapi.ErrItemNotFound)
}

func siteRows(alarms string) [][]string {
	return [][]string{
		{"default", "desc", "Default"},
		{"default", "satisfaction", "-1"},
		{"default", "num_new_alarms", alarms},
		{"default", "lan_status", "ok"},
		{"default", "lan_num_sw", "2"},
		{"default", "lan_num_adopted", "3"},
		{"default", "lan_num_user", "12"},
		{"default", "wlan_status", "unknown"},
		{"default", "wan_status", "unknown"},
		{"default", "www_status", "error"},
		{"default", "vpn_status", "unknown"},
		{"lab", "desc", "Lab"},
	}
}

func TestSiteAlarms(t *testing.T) {
	tests := []struct {
		alarms string
		ignore bool
		want   checkapi.State
	}{
		{"0", false, checkapi.OK},
		{"0", true, checkapi.OK},
		{"3", false, checkapi.Warn},
		{"3", true, checkapi.OK},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s/%v", tt.alarms, tt.ignore), func(t *testing.T) {
			findings, err := runCheck(t, SectionSites, "Default", checkapi.Params{"ignore_alarms": tt.ignore}, siteRows(tt.alarms))
			require.NoError(t, err)
			results := checkapi.Results(findings)
			last := results[len(results)-1]
			assert.Equal(t, fmt.Sprintf("%s new Alarm", tt.alarms), last.Notice)
			assert.Equal(t, tt.want, last.State)
		})
	}
}

func TestSiteSubsystems(t *testing.T) {
	assert.Equal(t, []string{"Default", "Lab"}, runDiscovery(t, SectionSites, nil, siteRows("0")))

	findings, err := runCheck(t, SectionSites, "Default", nil, siteRows("0"))
	require.NoError(t, err)

	assert.Equal(t, []string{"LAN: 2/3 Switch (ok)", "WWW Status: error"}, summaries(findings))
	assert.Equal(t, checkapi.Crit, worst(findings))
	assert.Equal(t, 0.0, metricValue(t, findings, "satisfaction"))
	assert.Equal(t, 12.0, metricValue(t, findings, "lan_user_sta"))
	assert.Equal(t, 3.0, metricValue(t, findings, "lan_total_sw"))
	for _, m := range checkapi.Metrics(findings) {
		assert.NotContains(t, m.Name, "wlan", "wlan status unknown suppresses wlan metrics")
	}

	_, err = runCheck(t, SectionSites, "Office", nil, siteRows("0"))
	assert.ErrorIs(t, err, checkapi.ErrItemNotFound)
}

func deviceRows(extra ...[]string) [][]string {
	rows := [][]string{
		{"name", "usw-office"},
		{"type", "usw"},
		{"state", "1"},
		{"version", "6.5.59"},
		{"upgradable", "0"},
		{"user_num_sta", "7"},
		{"satisfaction", "-5"},
		{"model", "US24P250"},
		{"serial", ""},
		{"mac", "fc:ec:da:00:00:01"},
	}
	return append(rows, extra...)
}

func TestDeviceDiscovery(t *testing.T) {
	assert.Equal(t,
		[]string{"Device Status", "Unifi Device", "Active-User", "Satisfaction"},
		runDiscovery(t, SectionDevice, nil, deviceRows()))

	ap := deviceRows([]string{"type", "uap"}, []string{"general_temperature", "48"},
		[]string{"uplink_device", "usw-office"}, []string{"speedtest_status", "Idle"})
	assert.Equal(t,
		[]string{"Device Status", "Unifi Device", "Active-User", "Temperature", "Uplink", "Speedtest"},
		runDiscovery(t, SectionDevice, nil, ap))
}

func TestDeviceStatus(t *testing.T) {
	tests := []struct {
		state string
		want  checkapi.Result
	}{
		{"1", checkapi.Result{State: checkapi.OK, Summary: "Status: connected"}},
		{"2", checkapi.Result{State: checkapi.Warn, Summary: "Status: pending"}},
		{"0", checkapi.Result{State: checkapi.Crit, Summary: "Status: disconnected"}},
		{"11", checkapi.Result{State: checkapi.Crit, Summary: "Status: unknown"}},
	}
	for _, tt := range tests {
		findings, err := runCheck(t, SectionDevice, "Device Status", nil, deviceRows([]string{"state", tt.state}))
		require.NoError(t, err)
		assert.Equal(t, []checkapi.Finding{tt.want}, findings, "state %s", tt.state)
	}
}

func TestDeviceChecks(t *testing.T) {
	findings, err := runCheck(t, SectionDevice, "Unifi Device", nil, deviceRows([]string{"upgradable", ""}))
	require.NoError(t, err)
	assert.Equal(t, checkapi.OK, worst(findings))

	findings, err = runCheck(t, SectionDevice, "Unifi Device", nil, deviceRows([]string{"upgradable", "1"}))
	require.NoError(t, err)
	assert.Equal(t, checkapi.Warn, worst(findings))

	findings, err = runCheck(t, SectionDevice, "Active-User", nil, deviceRows())
	require.NoError(t, err)
	assert.Equal(t, []string{"7"}, summaries(findings), "no guest line without guest count")
	assert.Equal(t, 7.0, metricValue(t, findings, "user_sta"))
	assert.Equal(t, 0.0, metricValue(t, findings, "guest_sta"))

	findings, err = runCheck(t, SectionDevice, "Active-User", nil, deviceRows([]string{"guest_num_sta", "0"}))
	require.NoError(t, err)
	assert.Equal(t, []string{"7", "Guest: 0"}, summaries(findings))

	findings, err = runCheck(t, SectionDevice, "Satisfaction", nil, deviceRows())
	require.NoError(t, err)
	assert.Equal(t, []string{"-5%"}, summaries(findings))
	assert.Equal(t, 0.0, metricValue(t, findings, "satisfaction"))

	findings, err = runCheck(t, SectionDevice, "Temperature", nil,
		deviceRows([]string{"general_temperature", "48.5"}, []string{"fan_level", "20"}))
	require.NoError(t, err)
	assert.Equal(t, []string{"48.5 °C", "Fan: 20%"}, summaries(findings))
	assert.Equal(t, 48.5, metricValue(t, findings, "temp"))

	findings, err = runCheck(t, SectionDevice, "Uplink", nil,
		deviceRows([]string{"uplink_device", "usw-core"}, []string{"uplink_remote_port", "24"}, []string{"uplink_up", "0"}))
	require.NoError(t, err)
	assert.Equal(t, []checkapi.Finding{checkapi.Result{State: checkapi.Warn, Summary: "Device usw-core Port: 24"}}, findings)

	_, err = runCheck(t, SectionDevice, "Fan", nil, deviceRows())
	assert.ErrorIs(t, err, checkapi.ErrItemNotFound)
}

func TestSpeedtest(t *testing.T) {
	rows := deviceRows(
		[]string{"speedtest_status", "Idle"},
		[]string{"speedtest_ping", "12"},
		[]string{"speedtest_download", "100"},
		[]string{"speedtest_upload", "40.5"},
		[]string{"speedtest_time", "1717243200"},
	)
	findings, err := runCheck(t, SectionDevice, "Speedtest", nil, rows)
	require.NoError(t, err)

	last := time.Unix(1717243200, 0).Format(DateTimeLayout)
	assert.Equal(t, []string{"Ping: 12 ms", "Down: 100 Mbit/s", "Up: 40.5 Mbit/s", "Last: " + last}, summaries(findings))
	assert.Equal(t, 12.0, metricValue(t, findings, "rtt"))
	assert.Equal(t, 100.0*1_048_576, metricValue(t, findings, "if_in_bps"))
	assert.Equal(t, 40.5*1_048_576, metricValue(t, findings, "if_out_bps"))
}

func TestConversionsDiffer(t *testing.T) {
	assert.Equal(t, 1_000_000, SpeedMultiplier)
	assert.Equal(t, 1_048_576, SpeedtestMultiplier)

	port := NewPort(section.Record{"port_idx": "1", "speed": "1000"})
	assert.Equal(t, int64(1000*1_000_000), port.Attributes.Speed)
}

func radioRows() [][]string {
	return [][]string{
		{"wifi0", "radio", "ng"},
		{"wifi0", "channel", "6"},
		{"wifi0", "satisfaction", "-1"},
		{"wifi0", "num_sta", "4"},
		{"wifi0", "user_num_sta", "3"},
		{"wifi0", "guest_num_sta", "1"},
		{"wifi0", "rx_bytes", "1024"},
		{"wifi1", "radio", "na"},
		{"wifi1", "channel", "36"},
		{"wifi1", "satisfaction", "98"},
	}
}

func TestRadios(t *testing.T) {
	assert.Equal(t, []string{"2.4Ghz", "5Ghz"}, runDiscovery(t, SectionNetworkRadios, nil, radioRows()))

	findings, err := runCheck(t, SectionNetworkRadios, "2.4Ghz", nil, radioRows())
	require.NoError(t, err)
	assert.Equal(t, []string{"Channel: 6", "Satisfaction: -1", "User: 4", "Guest: 1"}, summaries(findings))
	assert.Equal(t, 0.0, metricValue(t, findings, "satisfaction"))
	assert.Equal(t, 1024.0, metricValue(t, findings, "read_data"))
	assert.Equal(t, 3.0, metricValue(t, findings, "wlan_user_sta"))

	_, err = runCheck(t, SectionNetworkRadios, "6Ghz", nil, radioRows())
	assert.ErrorIs(t, err, checkapi.ErrItemNotFound)
	_, err = runCheck(t, SectionNetworkRadios, "5Ghz", nil, radioRows()[:7])
	assert.ErrorIs(t, err, checkapi.ErrItemNotFound)
}

func TestSSIDSatisfaction(t *testing.T) {
	tests := []struct {
		ng, na string
		want   int
	}{
		{"40", "70", 40},
		{"70", "40", 40},
		{"-10", "70", 0},
		{"", "70", 0},
		{"100", "100", 100},
	}
	for _, tt := range tests {
		rec := section.Record{"ng_satisfaction": tt.ng, "na_satisfaction": tt.na}
		assert.Equal(t, tt.want, SSIDSatisfaction(rec), "ng=%s na=%s", tt.ng, tt.na)
	}
}

func TestSSIDs(t *testing.T) {
	rows := [][]string{
		{"Office", "ng_channel", "6"},
		{"Office", "na_channel", "0"},
		{"Office", "ng_satisfaction", "40"},
		{"Office", "na_satisfaction", "70"},
		{"Office", "ng_num_sta", "3"},
		{"Office", "na_num_sta", "2"},
		{"Office", "na_is_guest", "1"},
		{"Office", "na_avg_client_signal", "-61"},
		{"Guest", "ng_channel", "11"},
	}
	assert.Equal(t, []string{"Guest", "Office"}, runDiscovery(t, SectionNetworkSSIDs, nil, rows))

	findings, err := runCheck(t, SectionNetworkSSIDs, "Office", nil, rows)
	require.NoError(t, err)
	assert.Equal(t, []string{"Channels: 6", "Guest", "Satisfaction: 40", "User: 5"}, summaries(findings))
	assert.Equal(t, 40.0, metricValue(t, findings, "satisfaction"))
	assert.Equal(t, 3.0, metricValue(t, findings, "wlan_24Ghz_num_user"))
	assert.Equal(t, 2.0, metricValue(t, findings, "wlan_5Ghz_num_user"))
	assert.Equal(t, -61.0, metricValue(t, findings, "na_avg_client_signal"))

	findings, err = runCheck(t, SectionNetworkSSIDs, "Guest", nil, rows)
	require.NoError(t, err)
	assert.Equal(t, []string{"Channels: 11", "Satisfaction: 0"}, summaries(findings))

	_, err = runCheck(t, SectionNetworkSSIDs, "IoT", nil, rows)
	assert.ErrorIs(t, err, checkapi.ErrItemNotFound)
}

func TestSSIDList(t *testing.T) {
	rows := [][]string{
		{"Office", "channels", "6,36"},
		{"Office", "num_sta", "14"},
		{"Office", "ng_num_sta", "5"},
		{"Office", "na_num_sta", "9"},
	}
	assert.Equal(t, []string{"Office"}, runDiscovery(t, SectionSSIDList, nil, rows))

	findings, err := runCheck(t, SectionSSIDList, "Office", nil, rows)
	require.NoError(t, err)
	assert.Equal(t, []string{"Channels: 6,36", "User: 14"}, summaries(findings))
	assert.Equal(t, 9.0, metricValue(t, findings, "wlan_5Ghz_num_user"))

	_, err = runCheck(t, SectionSSIDList, "Lab", nil, rows)
	assert.ErrorIs(t, err, checkapi.ErrItemNotFound)
}
