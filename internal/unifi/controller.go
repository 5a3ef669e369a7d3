package unifi

import (
	"fmt"

	"unifimon/internal/checkapi"
	"unifimon/internal/section"
)

const (
	itemController = "Unifi Controller"
	itemCloudkey   = "Cloudkey"
)

func discoverController(_ checkapi.Params, sec section.Record) []checkapi.Service {
	services := []checkapi.Service{{Item: itemController}}
	if sec.Has("cloudkey_version") {
		services = append(services, checkapi.Service{Item: itemCloudkey})
	}
	return services
}

func checkController(_ checkapi.Env, item string, _ checkapi.Params, sec section.Record) ([]checkapi.Finding, error) {
	var version, update string
	switch item {
	case itemController:
		version, update = "controller_version", "update_available"
	case itemCloudkey:
		version, update = "cloudkey_version", "cloudkey_update_available"
	default:
		return nil, notFound("controller", item)
	}

	findings := []checkapi.Finding{ok(fmt.Sprintf("Version: %s", sec.Get(version)))}
	if sec.Int(update, 0) > 0 {
		findings = append(findings, checkapi.Result{State: checkapi.Warn, Notice: "Update available"})
	}
	return findings, nil
}

func inventoryController(sec section.Record) []checkapi.InventoryRow {
	return attributes([]string{"software", "os"}, map[string]any{
		"controller_version": sec.Get("controller_version"),
	})
}

// attributes emits the non-empty attributes at path, or nothing.
func attributes(path []string, attrs map[string]any) []checkapi.InventoryRow {
	attrs = withoutEmpty(attrs)
	if len(attrs) == 0 {
		return nil
	}
	return []checkapi.InventoryRow{checkapi.Attributes{Path: path, InventoryAttributes: attrs}}
}
