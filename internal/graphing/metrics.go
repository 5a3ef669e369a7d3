// Package graphing holds the presentation metadata of the UniFi metrics:
// titles, units and colors, combined graphs, perfometers and the metric
// renames applied to the interface check.
package graphing

// MetricInfo describes how a single metric is displayed. Colors are either
// color ring references like "16/a" or hex codes.
type MetricInfo struct {
	Title string `json:"title"`
	Unit  string `json:"unit"`
	Color string `json:"color"`
}

var metricInfo = map[string]MetricInfo{
	"satisfaction": {Title: "Satisfaction", Unit: "%", Color: "16/a"},
	"poe_current":  {Title: "PoE Current", Unit: "a", Color: "16/a"},
	"poe_voltage":  {Title: "PoE Voltage", Unit: "v", Color: "12/a"},
	"poe_power":    {Title: "PoE Power", Unit: "w", Color: "16/a"},

	"user_sta":       {Title: "User", Unit: "", Color: "13/b"},
	"guest_sta":      {Title: "Guest", Unit: "", Color: "13/a"},
	"lan_user_sta":   {Title: "LAN User", Unit: "count", Color: "13/b"},
	"lan_guest_sta":  {Title: "LAN Guest", Unit: "count", Color: "13/a"},
	"wlan_user_sta":  {Title: "WLAN User", Unit: "count", Color: "13/b"},
	"wlan_guest_sta": {Title: "WLAN Guest", Unit: "count", Color: "13/a"},
	"wlan_iot_sta":   {Title: "WLAN IoT Devices", Unit: "count", Color: "14/a"},

	"wlan_24Ghz_num_user": {Title: "User 2.4Ghz", Unit: "count", Color: "13/b"},
	"wlan_5Ghz_num_user":  {Title: "User 5Ghz", Unit: "count", Color: "13/a"},

	"wlan_if_in_octets":  {Title: "Input Octets", Unit: "bytes/s", Color: "#00e060"},
	"wlan_if_out_octets": {Title: "Output Octets", Unit: "bytes/s", Color: "#00e060"},

	"na_avg_client_signal": {Title: "Average Signal 5Ghz", Unit: "db", Color: "14/a"},
	"ng_avg_client_signal": {Title: "Average Signal 2.4Ghz", Unit: "db", Color: "#80f000"},

	"unifi_uptime": {Title: "Uptime", Unit: "s", Color: "#80f000"},
}

// Lookup returns the display metadata of a metric.
func Lookup(name string) (MetricInfo, bool) {
	info, ok := metricInfo[name]
	return info, ok
}

// Metrics returns all metric metadata keyed by metric name.
func Metrics() map[string]MetricInfo {
	out := make(map[string]MetricInfo, len(metricInfo))
	for k, v := range metricInfo {
		out[k] = v
	}
	return out
}
