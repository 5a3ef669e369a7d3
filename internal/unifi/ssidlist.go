package unifi

import (
	"fmt"

	"unifimon/internal/checkapi"
	"unifimon/internal/section"
)

// The controller wide SSID list aggregates all access points.

func checkSSIDList(_ checkapi.Env, item string, _ checkapi.Params, sec section.Table) ([]checkapi.Finding, error) {
	ssid, found := sec.Lookup(item)
	if !found {
		return nil, notFound("SSID", item)
	}
	findings := []checkapi.Finding{
		ok(fmt.Sprintf("Channels: %s", ssid.Get("channels"))),
		ok(fmt.Sprintf("User: %s", ssid.Get("num_sta"))),
	}
	return append(findings, bandMetrics(ssid)...), nil
}
