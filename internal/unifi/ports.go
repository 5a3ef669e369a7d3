package unifi

import (
	"fmt"
	"sort"
	"strconv"

	"unifimon/internal/checkapi"
	"unifimon/internal/interfaces"
	"unifimon/internal/section"
)

// SpeedMultiplier converts port link speeds (Mbit/s) to bits/s.
const SpeedMultiplier = 1_000_000

const (
	operStatusUp        = "1"
	operStatusAvailable = "2"
	ethernetPortType    = "6"
)

// Port is a switch port as reported by the controller: the generic interface
// plus the UniFi specific extensions.
type Port struct {
	interfaces.Interface

	Jumbo        bool
	Satisfaction int
	PoEEnable    bool
	PoEMode      string
	PoEGood      bool
	PoECurrent   float64
	PoEVoltage   float64
	PoEPower     float64
	PoEClass     string
	Dot1xMode    string
	Dot1xStatus  string
	IPAddress    string
	Portconf     string
}

// NewPort builds the port descriptor from one port record.
func NewPort(rec section.Record) Port {
	operStatus := rec.Get("oper_status")

	p := Port{
		Interface: interfaces.Interface{
			Attributes: interfaces.Attributes{
				Index:       rec.Get("port_idx"),
				Descr:       rec.Get("name"),
				Alias:       rec.Get("name"),
				Type:        ethernetPortType,
				Speed:       int64(rec.Int("speed", 0)) * SpeedMultiplier,
				OperStatus:  operStatus,
				AdminStatus: rec.Get("admin_status"),
			},
			Counters: interfaces.Counters{
				InOctets:  counter(rec, "rx_bytes"),
				InUcast:   counter(rec, "rx_packets"),
				InMcast:   counter(rec, "rx_multicast"),
				InBcast:   counter(rec, "rx_broadcast"),
				InDisc:    counter(rec, "rx_dropped"),
				InErr:     counter(rec, "rx_errors"),
				OutOctets: counter(rec, "tx_bytes"),
				OutUcast:  counter(rec, "tx_packets"),
				OutMcast:  counter(rec, "tx_multicast"),
				OutBcast:  counter(rec, "tx_broadcast"),
				OutDisc:   counter(rec, "tx_dropped"),
				OutErr:    counter(rec, "tx_errors"),
			},
		},
		Jumbo:       rec.Get("jumbo") == "1",
		PoEEnable:   rec.Get("poe_enable") == "1",
		PoEMode:     rec.Get("poe_mode"),
		PoEGood:     rec.Get("poe_good") == "1",
		PoECurrent:  rec.Float("poe_current", 0),
		PoEVoltage:  rec.Float("poe_voltage", 0),
		PoEPower:    rec.Float("poe_power", 0),
		PoEClass:    rec.Get("poe_class"),
		Dot1xMode:   rec.Get("dot1x_mode"),
		Dot1xStatus: rec.Get("dot1x_status"),
		IPAddress:   rec.Get("ip"),
		Portconf:    rec.Get("portconf"),
	}
	// satisfaction of a port that is not up is meaningless
	if rec.Has("satisfaction") && operStatus == operStatusUp {
		p.Satisfaction = rec.Int("satisfaction", 0)
	}
	return p
}

// counters can exceed the int range on 32 bit platforms
func counter(rec section.Record, key string) int64 {
	v, err := strconv.ParseInt(rec.Get(key), 10, 64)
	if err != nil {
		return 0
	}
	return v
}

// ConvertPorts builds the port descriptors of a section, ordered by index.
func ConvertPorts(sec section.Table) []Port {
	ports := make([]Port, 0, len(sec))
	for _, id := range sortedByPortIndex(sec) {
		ports = append(ports, NewPort(sec.Get(id)))
	}
	return ports
}

func portInterfaces(ports []Port) []interfaces.Interface {
	ifaces := make([]interfaces.Interface, 0, len(ports))
	for _, p := range ports {
		ifaces = append(ifaces, p.Interface)
	}
	return ifaces
}

// findPort matches the item against the numeric index or the alias, since
// discovery may have used either.
func findPort(item string, ports []Port) (Port, bool) {
	for _, p := range ports {
		if section.SafeInt(item, -1) == section.SafeInt(p.Attributes.Index, 0) || item == p.Attributes.Alias {
			return p, true
		}
	}
	return Port{}, false
}

func discoverPorts(params checkapi.Params, sec section.Table) []checkapi.Service {
	return interfaces.Discover(params, portInterfaces(ConvertPorts(sec)))
}

func checkPort(env checkapi.Env, item string, params checkapi.Params, sec section.Table) ([]checkapi.Finding, error) {
	ports := ConvertPorts(sec)

	store := env.Values
	if store == nil {
		store = interfaces.NewMemoryStore()
	}
	findings, err := interfaces.CheckMultiple(item, params, portInterfaces(ports), store, env.Now)
	if err != nil {
		return nil, err
	}

	port, found := findPort(item, ports)
	if !found {
		return findings, nil
	}
	if port.Portconf != "" {
		findings = append(findings, ok(fmt.Sprintf("Network: %s", port.Portconf)))
	}
	findings = append(findings, satisfaction(port.Satisfaction))
	if port.PoEEnable {
		findings = append(findings,
			ok(fmt.Sprintf("PoE: %sW", strconv.FormatFloat(port.PoEPower, 'f', -1, 64))),
			metric("poe_power", port.PoEPower),
			metric("poe_voltage", port.PoEVoltage),
		)
	}
	if port.IPAddress != "" {
		findings = append(findings, ok(fmt.Sprintf("IP: %s", port.IPAddress)))
	}
	return findings, nil
}

func inventoryPorts(sec section.Table) []checkapi.InventoryRow {
	var rows []checkapi.InventoryRow
	total, available := 0, 0

	for _, id := range sortedByPortIndex(sec) {
		rec := sec.Get(id)
		isAvailable := rec.Get("oper_status") == operStatusAvailable
		total++
		if isAvailable {
			available++
		}
		rows = append(rows, checkapi.TableRow{
			Path:       []string{"networking", "interfaces"},
			KeyColumns: map[string]any{"index": rec.Int("port_idx", 0)},
			InventoryColumns: withoutEmpty(map[string]any{
				"description":  rec.Get("name"),
				"alias":        rec.Get("name"),
				"speed":        int64(rec.Int("speed", 0)) * SpeedMultiplier,
				"oper_status":  rec.Int("oper_status", 0),
				"admin_status": rec.Int("admin_status", 0),
				"available":    isAvailable,
				"vlans":        rec.Get("portconf"),
				"port_type":    6,
			}),
		})
	}

	rows = append(rows, checkapi.Attributes{
		Path: []string{"networking"},
		InventoryAttributes: map[string]any{
			"available_ethernet_ports": available,
			"total_ethernet_ports":     total,
			"total_interfaces":         total,
		},
	})
	return rows
}

func sortedByPortIndex(sec section.Table) []string {
	ids := sec.IDs()
	sort.SliceStable(ids, func(i, j int) bool {
		return sec.Get(ids[i]).Int("port_idx", 0) < sec.Get(ids[j]).Int("port_idx", 0)
	})
	return ids
}
