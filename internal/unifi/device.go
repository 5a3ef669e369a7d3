package unifi

import (
	"fmt"
	"time"

	"unifimon/internal/checkapi"
	"unifimon/internal/section"
)

// SpeedtestMultiplier converts the speed test throughput (Mbit/s) to bits/s.
// It intentionally differs from SpeedMultiplier.
const SpeedtestMultiplier = 1024 * 1024

const (
	itemDeviceStatus = "Device Status"
	itemUnifiDevice  = "Unifi Device"
	itemActiveUser   = "Active-User"
	itemSatisfaction = "Satisfaction"
	itemTemperature  = "Temperature"
	itemSpeedtest    = "Speedtest"
	itemUplink       = "Uplink"
)

// DateTimeLayout renders the time of the last speed test.
const DateTimeLayout = "Jan 02 2006 15:04:05"

func discoverDevice(_ checkapi.Params, sec section.Record) []checkapi.Service {
	services := []checkapi.Service{
		{Item: itemDeviceStatus},
		{Item: itemUnifiDevice},
		{Item: itemActiveUser},
	}
	// access points report satisfaction per radio and SSID
	if sec.Get("type") != "uap" {
		services = append(services, checkapi.Service{Item: itemSatisfaction})
	}
	if sec.Has("general_temperature") {
		services = append(services, checkapi.Service{Item: itemTemperature})
	}
	if sec.Has("uplink_device") {
		services = append(services, checkapi.Service{Item: itemUplink})
	}
	if sec.Has("speedtest_status") {
		services = append(services, checkapi.Service{Item: itemSpeedtest})
	}
	return services
}

func checkDevice(_ checkapi.Env, item string, _ checkapi.Params, sec section.Record) ([]checkapi.Finding, error) {
	switch item {
	case itemDeviceStatus:
		state := sec.Get("state")
		return []checkapi.Finding{checkapi.Result{
			State:   DeviceStateSeverity(state),
			Summary: fmt.Sprintf("Status: %s", DeviceStateName(state)),
		}}, nil

	case itemUnifiDevice:
		findings := []checkapi.Finding{ok(fmt.Sprintf("Version: %s", sec.Get("version")))}
		if sec.Int("upgradable", 0) > 0 {
			findings = append(findings, checkapi.Result{State: checkapi.Warn, Notice: "Update available"})
		}
		return findings, nil

	case itemActiveUser:
		users := sec.Int("user_num_sta", 0)
		findings := []checkapi.Finding{ok(fmt.Sprint(users))}
		if sec.Int("guest_num_sta", -1) > -1 {
			findings = append(findings, ok(fmt.Sprintf("Guest: %s", sec.Get("guest_num_sta"))))
		}
		return append(findings,
			metric("user_sta", float64(users)),
			intMetric("guest_sta", sec, "guest_num_sta"),
		), nil

	case itemSatisfaction:
		return []checkapi.Finding{
			ok(fmt.Sprintf("%s%%", sec.Get("satisfaction"))),
			satisfaction(sec.Int("satisfaction", 0)),
		}, nil

	case itemTemperature:
		findings := []checkapi.Finding{
			metric("temp", sec.Float("general_temperature", 0)),
			ok(fmt.Sprintf("%s °C", sec.Get("general_temperature"))),
		}
		if sec.Has("fan_level") {
			findings = append(findings, ok(fmt.Sprintf("Fan: %s%%", sec.Get("fan_level"))))
		}
		return findings, nil

	case itemSpeedtest:
		last := time.Unix(int64(sec.Float("speedtest_time", 0)), 0)
		return []checkapi.Finding{
			ok(fmt.Sprintf("Ping: %s ms", sec.Get("speedtest_ping"))),
			ok(fmt.Sprintf("Down: %s Mbit/s", sec.Get("speedtest_download"))),
			ok(fmt.Sprintf("Up: %s Mbit/s", sec.Get("speedtest_upload"))),
			ok(fmt.Sprintf("Last: %s", last.Format(DateTimeLayout))),
			metric("rtt", sec.Float("speedtest_ping", 0)),
			metric("if_in_bps", sec.Float("speedtest_download", 0)*SpeedtestMultiplier),
			metric("if_out_bps", sec.Float("speedtest_upload", 0)*SpeedtestMultiplier),
		}, nil

	case itemUplink:
		return []checkapi.Finding{checkapi.Result{
			State:   ExpectBool(sec.Get("uplink_up"), true, checkapi.Warn),
			Summary: fmt.Sprintf("Device %s Port: %s", sec.Get("uplink_device"), sec.Get("uplink_remote_port")),
		}}, nil
	}
	return nil, notFound("device service", item)
}

func inventoryDevice(sec section.Record) []checkapi.InventoryRow {
	var rows []checkapi.InventoryRow
	rows = append(rows, attributes([]string{"software", "os"}, map[string]any{
		"version": sec.Get("version"),
	})...)
	rows = append(rows, attributes([]string{"software", "configuration", "snmp_info"}, map[string]any{
		"name":     sec.Get("name"),
		"contact":  sec.Get("snmp_contact"),
		"location": sec.Get("snmp_location"),
	})...)
	rows = append(rows, attributes([]string{"hardware", "system"}, map[string]any{
		"vendor":    vendor,
		"model":     sec.Get("model"),
		"board_rev": sec.Get("board_rev"),
		"serial":    sec.Get("serial"),
		"mac":       sec.Get("mac"),
	})...)
	return rows
}

const vendor = "ubiquiti"
