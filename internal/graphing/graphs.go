package graphing

import "sort"

// Line styles of graph metrics.
const (
	Area     = "area"
	Stack    = "stack"
	Line     = "line"
	NegArea  = "-area"
	NegStack = "-stack"
)

// GraphMetric is one curve of a graph. Expression is a metric name or an
// RPN expression such as "wlan_if_in_octets,8,*@bits/s".
type GraphMetric struct {
	Expression string `json:"expression"`
	Style      string `json:"style"`
	Title      string `json:"title,omitempty"`
}

// Scalar is a horizontal line, usually a warn or crit level.
type Scalar struct {
	Expression string `json:"expression"`
	Title      string `json:"title"`
}

type Range struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

type GraphInfo struct {
	Title   string        `json:"title"`
	Metrics []GraphMetric `json:"metrics"`
	Scalars []Scalar      `json:"scalars,omitempty"`
	Range   *Range        `json:"range,omitempty"`
}

var graphInfo = map[string]GraphInfo{
	"user_sta_combined": {
		Title: "User",
		Metrics: []GraphMetric{
			{Expression: "user_sta", Style: Area},
			{Expression: "guest_sta", Style: Stack},
		},
	},
	"lan_user_sta_combined": {
		Title: "LAN-User",
		Metrics: []GraphMetric{
			{Expression: "lan_user_sta", Style: Area},
			{Expression: "lan_guest_sta", Style: Stack},
		},
	},
	"wlan_user_sta_combined": {
		Title: "WLAN-User",
		Metrics: []GraphMetric{
			{Expression: "wlan_user_sta", Style: Area},
			{Expression: "wlan_guest_sta", Style: Stack},
			{Expression: "wlan_iot_sta", Style: Stack},
		},
	},
	"wlan_user_band_combined": {
		Title: "WLAN User",
		Metrics: []GraphMetric{
			{Expression: "wlan_24Ghz_num_user", Style: Area},
			{Expression: "wlan_5Ghz_num_user", Style: Stack},
		},
	},
	"wlan_bandwidth_translated": {
		Title: "Bandwidth WLAN",
		Metrics: []GraphMetric{
			{Expression: "wlan_if_in_octets,8,*@bits/s", Style: Area, Title: "Input bandwidth"},
			{Expression: "wlan_if_out_octets,8,*@bits/s", Style: NegArea, Title: "Output bandwidth"},
		},
		Scalars: []Scalar{
			{Expression: "if_in_octets:warn", Title: "Warning (In)"},
			{Expression: "if_in_octets:crit", Title: "Critical (In)"},
			{Expression: "if_out_octets:warn,-1,*", Title: "Warning (Out)"},
			{Expression: "if_out_octets:crit,-1,*", Title: "Critical (Out)"},
		},
	},
	"avg_client_signal_combined": {
		Title: "Average Client Signal",
		Metrics: []GraphMetric{
			{Expression: "na_avg_client_signal", Style: Line},
			{Expression: "ng_avg_client_signal", Style: Line},
		},
		Range: &Range{Min: -100, Max: 0},
	},
}

// Graph returns a graph definition by name.
func Graph(name string) (GraphInfo, bool) {
	g, ok := graphInfo[name]
	return g, ok
}

// GraphNames returns the names of all graphs, sorted.
func GraphNames() []string {
	names := make([]string, 0, len(graphInfo))
	for name := range graphInfo {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Graphs returns the graphs whose metrics are all among available. The
// metric name of an expression is everything before the first ',' or '@'.
func Graphs(available []string) map[string]GraphInfo {
	have := make(map[string]bool, len(available))
	for _, m := range available {
		have[m] = true
	}
	out := make(map[string]GraphInfo)
	for name, g := range graphInfo {
		complete := true
		for _, m := range g.Metrics {
			if !have[baseMetric(m.Expression)] {
				complete = false
				break
			}
		}
		if complete {
			out[name] = g
		}
	}
	return out
}

func baseMetric(expr string) string {
	for i, c := range expr {
		if c == ',' || c == '@' || c == ':' {
			return expr[:i]
		}
	}
	return expr
}
