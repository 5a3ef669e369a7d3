package unifi

import (
	"fmt"

	"unifimon/internal/checkapi"
	"unifimon/internal/section"
)

const statusUnknown = "unknown"

func discoverSites(_ checkapi.Params, sec section.Table) []checkapi.Service {
	var services []checkapi.Service
	for _, site := range sec.Records() {
		services = append(services, checkapi.Service{Item: site.Get("desc")})
	}
	return services
}

// checkSite reports the subsystems the controller knows about and the number
// of new alarms. With ignore_alarms set, alarms never change the state.
func checkSite(_ checkapi.Env, item string, params checkapi.Params, sec section.Table) ([]checkapi.Finding, error) {
	site, found := sec.Find(func(r section.Record) bool { return r.Get("desc") == item })
	if !found {
		return nil, notFound("site", item)
	}

	findings := []checkapi.Finding{satisfaction(site.Int("satisfaction", 0))}

	if status := site.Get("lan_status"); status != statusUnknown {
		findings = append(findings,
			intMetric("lan_user_sta", site, "lan_num_user"),
			intMetric("lan_guest_sta", site, "lan_num_guest"),
			intMetric("if_in_octets", site, "lan_rx_bytes_r"),
			intMetric("if_out_octets", site, "lan_tx_bytes_r"),
			intMetric("lan_active_sw", site, "lan_num_sw"),
			intMetric("lan_total_sw", site, "lan_num_adopted"),
			checkapi.Result{
				State:   StatusToState(status),
				Summary: fmt.Sprintf("LAN: %s/%s Switch (%s)", site.Get("lan_num_sw"), site.Get("lan_num_adopted"), status),
			},
		)
	}

	if status := site.Get("wlan_status"); status != statusUnknown {
		findings = append(findings,
			intMetric("wlan_user_sta", site, "wlan_num_user"),
			intMetric("wlan_guest_sta", site, "wlan_num_guest"),
			intMetric("wlan_iot_sta", site, "wlan_num_iot"),
			intMetric("wlan_if_in_octets", site, "wlan_rx_bytes_r"),
			intMetric("wlan_if_out_octets", site, "wlan_tx_bytes_r"),
			intMetric("wlan_active_ap", site, "wlan_num_ap"),
			intMetric("wlan_total_ap", site, "wlan_num_adopted"),
			checkapi.Result{
				State:   StatusToState(status),
				Summary: fmt.Sprintf("WLAN: %s/%s AP (%s)", site.Get("wlan_num_ap"), site.Get("wlan_num_adopted"), status),
			},
		)
	}

	if status := site.Get("wan_status"); status != statusUnknown {
		findings = append(findings, checkapi.Result{State: StatusToState(status), Summary: fmt.Sprintf("WAN Status: %s", status)})
	}
	if status := site.Get("www_status"); status != statusUnknown {
		findings = append(findings, checkapi.Result{State: StatusToState(status), Summary: fmt.Sprintf("WWW Status: %s", status)})
	}
	if status := site.Get("vpn_status"); status != statusUnknown {
		findings = append(findings, checkapi.Result{State: StatusToState(status), Notice: fmt.Sprintf("VPN Status: %s", status)})
	}

	alarmState := ExpectNumber(site.Get("num_new_alarms"), 0, checkapi.Warn)
	if params.Bool("ignore_alarms") {
		alarmState = checkapi.OK
	}
	findings = append(findings, checkapi.Result{
		State:  alarmState,
		Notice: fmt.Sprintf("%s new Alarm", site.Get("num_new_alarms")),
	})
	return findings, nil
}
