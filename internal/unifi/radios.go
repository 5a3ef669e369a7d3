package unifi

import (
	"fmt"

	"unifimon/internal/checkapi"
	"unifimon/internal/section"
)

// radio band codes as reported by the controller, by service item
var radioBands = []struct{ item, code string }{
	{"2.4Ghz", "ng"},
	{"5Ghz", "na"},
}

func radioCode(item string) (string, bool) {
	for _, b := range radioBands {
		if b.item == item {
			return b.code, true
		}
	}
	return "", false
}

func discoverRadios(_ checkapi.Params, sec section.Table) []checkapi.Service {
	var services []checkapi.Service
	seen := make(map[string]bool)
	for _, radio := range sec.Records() {
		for _, b := range radioBands {
			if radio.Get("radio") == b.code && !seen[b.item] {
				seen[b.item] = true
				services = append(services, checkapi.Service{Item: b.item})
			}
		}
	}
	return services
}

func checkRadio(_ checkapi.Env, item string, _ checkapi.Params, sec section.Table) ([]checkapi.Finding, error) {
	code, known := radioCode(item)
	if !known {
		return nil, notFound("radio", item)
	}
	radio, found := sec.Find(func(r section.Record) bool { return r.Get("radio") == code })
	if !found {
		return nil, notFound("radio", item)
	}

	return []checkapi.Finding{
		intMetric("read_data", radio, "rx_bytes"),
		intMetric("write_data", radio, "tx_bytes"),
		satisfaction(radio.Int("satisfaction", 0)),
		intMetric("wlan_user_sta", radio, "user_num_sta"),
		intMetric("wlan_guest_sta", radio, "guest_num_sta"),
		intMetric("wlan_iot_sta", radio, "iot_num_sta"),
		ok(fmt.Sprintf("Channel: %s", radio.Get("channel"))),
		ok(fmt.Sprintf("Satisfaction: %s", radio.Get("satisfaction"))),
		ok(fmt.Sprintf("User: %s", radio.Get("num_sta"))),
		ok(fmt.Sprintf("Guest: %s", radio.Get("guest_num_sta"))),
	}, nil
}
