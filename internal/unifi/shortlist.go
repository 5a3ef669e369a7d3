package unifi

import (
	"unifimon/internal/checkapi"
	"unifimon/internal/section"
)

// inventoryDeviceShortlist lists every device the controller manages under
// hardware/networkdevices, keyed by device name.
func inventoryDeviceShortlist(sec section.Table) []checkapi.InventoryRow {
	var rows []checkapi.InventoryRow
	for _, name := range sec.IDs() {
		dev := sec.Get(name)
		model := dev.Get("model_name")
		if model == "" {
			model = dev.Get("model")
		}
		rows = append(rows, checkapi.TableRow{
			Path:       []string{"hardware", "networkdevices"},
			KeyColumns: map[string]any{"_name": name},
			InventoryColumns: withoutEmpty(map[string]any{
				"serial":     dev.Get("serial"),
				"_state":     DeviceStateName(dev.Get("state")),
				"vendor":     vendor,
				"model":      model,
				"version":    dev.Get("version"),
				"ip_address": dev.Get("ip"),
				"mac":        dev.Get("mac"),
			}),
		})
	}
	return rows
}
