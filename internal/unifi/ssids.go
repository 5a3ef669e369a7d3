package unifi

import (
	"fmt"
	"strings"

	"unifimon/internal/checkapi"
	"unifimon/internal/section"
)

func discoverSSIDs(_ checkapi.Params, sec section.Table) []checkapi.Service {
	services := make([]checkapi.Service, 0, len(sec))
	for _, name := range sec.IDs() {
		services = append(services, checkapi.Service{Item: name})
	}
	return services
}

// SSIDSatisfaction is the worse of both bands, never below zero.
func SSIDSatisfaction(ssid section.Record) int {
	return max(0, min(ssid.Int("ng_satisfaction", 0), ssid.Int("na_satisfaction", 0)))
}

func checkSSID(_ checkapi.Env, item string, _ checkapi.Params, sec section.Table) ([]checkapi.Finding, error) {
	ssid, found := sec.Lookup(item)
	if !found {
		return nil, notFound("SSID", item)
	}

	var channels []string
	for _, ch := range []string{ssid.Get("ng_channel"), ssid.Get("na_channel")} {
		if section.SafeInt(ch, 0) > 0 {
			channels = append(channels, ch)
		}
	}
	findings := []checkapi.Finding{ok(fmt.Sprintf("Channels: %s", strings.Join(channels, ",")))}

	if ssid.Int("ng_is_guest", 0)+ssid.Int("na_is_guest", 0) > 0 {
		findings = append(findings, ok("Guest"))
	}
	sat := SSIDSatisfaction(ssid)
	findings = append(findings, ok(fmt.Sprintf("Satisfaction: %d", sat)))
	if users := ssid.Int("na_num_sta", 0) + ssid.Int("ng_num_sta", 0); users > 0 {
		findings = append(findings, ok(fmt.Sprintf("User: %d", users)))
	}

	findings = append(findings, satisfaction(sat))
	return append(findings, bandMetrics(ssid)...), nil
}

// bandMetrics are the per band client metrics shared by both SSID checks.
func bandMetrics(ssid section.Record) []checkapi.Finding {
	return []checkapi.Finding{
		intMetric("wlan_24Ghz_num_user", ssid, "ng_num_sta"),
		intMetric("wlan_5Ghz_num_user", ssid, "na_num_sta"),
		intMetric("na_avg_client_signal", ssid, "na_avg_client_signal"),
		intMetric("ng_avg_client_signal", ssid, "ng_avg_client_signal"),
		intMetric("na_tcp_packet_loss", ssid, "na_tcp_packet_loss"),
		intMetric("ng_tcp_packet_loss", ssid, "ng_tcp_packet_loss"),
		intMetric("na_wifi_retries", ssid, "na_wifi_retries"),
		intMetric("ng_wifi_retries", ssid, "ng_wifi_retries"),
		intMetric("na_wifi_latency", ssid, "na_wifi_latency"),
		intMetric("ng_wifi_latency", ssid, "ng_wifi_latency"),
	}
}
