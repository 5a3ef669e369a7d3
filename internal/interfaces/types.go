// Package interfaces evaluates network interfaces the classic way: discovery
// by port state and type, then state, speed, bandwidth, packet, error and
// discard checks computed as rates from counters kept between runs.
package interfaces

// Attributes describe the link layer of an interface.
type Attributes struct {
	Index       string `json:"index"`
	Descr       string `json:"descr"`
	Alias       string `json:"alias"`
	Type        string `json:"type"`
	Speed       int64  `json:"speed"` // bits/s
	OperStatus  string `json:"oper_status"`
	AdminStatus string `json:"admin_status"`
}

var operStatusNames = map[string]string{
	"1": "up",
	"2": "down",
	"3": "testing",
	"4": "unknown",
	"5": "dormant",
	"6": "not present",
	"7": "lower layer down",
}

// OperStatusName maps the numeric IF-MIB operational status to its name.
func OperStatusName(status string) string {
	if name, ok := operStatusNames[status]; ok {
		return name
	}
	return status
}

func (a Attributes) OperStatusName() string {
	return OperStatusName(a.OperStatus)
}

// Counters are the raw, monotonically growing interface counters.
type Counters struct {
	InOctets  int64 `json:"in_octets"`
	InUcast   int64 `json:"in_ucast"`
	InMcast   int64 `json:"in_mcast"`
	InBcast   int64 `json:"in_bcast"`
	InDisc    int64 `json:"in_disc"`
	InErr     int64 `json:"in_err"`
	OutOctets int64 `json:"out_octets"`
	OutUcast  int64 `json:"out_ucast"`
	OutMcast  int64 `json:"out_mcast"`
	OutBcast  int64 `json:"out_bcast"`
	OutDisc   int64 `json:"out_disc"`
	OutErr    int64 `json:"out_err"`
}

// named returns the counters with the metric names they are reported under.
func (c Counters) named() []namedCounter {
	return []namedCounter{
		{"in", c.InOctets},
		{"inucast", c.InUcast},
		{"inmcast", c.InMcast},
		{"inbcast", c.InBcast},
		{"indisc", c.InDisc},
		{"inerr", c.InErr},
		{"out", c.OutOctets},
		{"outucast", c.OutUcast},
		{"outmcast", c.OutMcast},
		{"outbcast", c.OutBcast},
		{"outdisc", c.OutDisc},
		{"outerr", c.OutErr},
	}
}

type namedCounter struct {
	name  string
	value int64
}

type Interface struct {
	Attributes Attributes `json:"attributes"`
	Counters   Counters   `json:"counters"`
}
