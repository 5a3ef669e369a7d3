package unifi

import (
	"fmt"

	"unifimon/internal/checkapi"
	"unifimon/internal/interfaces"
	"unifimon/internal/section"
)

// Section names written by the agent.
const (
	SectionController      = "unifi_controller"
	SectionSites           = "unifi_sites"
	SectionDeviceShortlist = "unifi_device_shortlist"
	SectionDevice          = "unifi_device"
	SectionNetworkPorts    = "unifi_network_ports"
	SectionNetworkRadios   = "unifi_network_radios"
	SectionNetworkSSIDs    = "unifi_network_ssids"
	SectionSSIDList        = "unifi_ssid_list"
)

// PortsPlugin is the name of the interface check on switch ports.
const PortsPlugin = "unifi_network_ports_if"

func parseRecord(rows [][]string) any { return section.ParseRecord(rows) }

func parseTable(rows [][]string) any { return section.ParseTable(rows) }

var sections = []checkapi.SectionPlugin{
	{Name: SectionController, Parse: parseRecord},
	{Name: SectionSites, Parse: parseTable},
	{Name: SectionDeviceShortlist, Parse: parseTable},
	{Name: SectionDevice, Parse: parseRecord},
	{Name: SectionNetworkPorts, Parse: parseTable},
	{Name: SectionNetworkRadios, Parse: parseTable},
	{Name: SectionNetworkSSIDs, Parse: parseTable},
	{Name: SectionSSIDList, Parse: parseTable},
}

var checks = []checkapi.CheckPlugin{
	{
		Name:        SectionController,
		ServiceName: "%s",
		Discover:    checkapi.DiscoverWith(discoverController),
		Check:       checkapi.CheckWith(checkController),
	},
	{
		Name:          SectionSites,
		ServiceName:   "Site %s",
		Discover:      checkapi.DiscoverWith(discoverSites),
		CheckRuleset:  "unifi_sites",
		CheckDefaults: checkapi.Params{},
		Check:         checkapi.CheckWith(checkSite),
	},
	{
		Name:        SectionDevice,
		ServiceName: "%s",
		Discover:    checkapi.DiscoverWith(discoverDevice),
		Check:       checkapi.CheckWith(checkDevice),
	},
	{
		Name:              PortsPlugin,
		Section:           SectionNetworkPorts,
		ServiceName:       "Interface %s",
		DiscoveryRuleset:  "inventory_if_rules",
		DiscoveryDefaults: interfaces.DiscoveryDefaults,
		Discover:          checkapi.DiscoverWith(discoverPorts),
		CheckRuleset:      "if",
		CheckDefaults:     interfaces.CheckDefaults,
		Check:             checkapi.CheckWith(checkPort),
	},
	{
		Name:        SectionNetworkRadios,
		ServiceName: "Radio %s",
		Discover:    checkapi.DiscoverWith(discoverRadios),
		Check:       checkapi.CheckWith(checkRadio),
	},
	{
		Name:        SectionNetworkSSIDs,
		ServiceName: "SSID: %s",
		Discover:    checkapi.DiscoverWith(discoverSSIDs),
		Check:       checkapi.CheckWith(checkSSID),
	},
	{
		Name:        SectionSSIDList,
		ServiceName: "SSID: %s",
		Discover:    checkapi.DiscoverWith(discoverSSIDs),
		Check:       checkapi.CheckWith(checkSSIDList),
	},
}

var inventories = []checkapi.InventoryPlugin{
	{Name: SectionController, Inventory: checkapi.InventoryWith(inventoryController)},
	{Name: SectionDeviceShortlist, Inventory: checkapi.InventoryWith(inventoryDeviceShortlist)},
	{Name: SectionDevice, Inventory: checkapi.InventoryWith(inventoryDevice)},
	{Name: SectionNetworkPorts, Inventory: checkapi.InventoryWith(inventoryPorts)},
}

// Register adds all UniFi sections and plugins to reg.
func Register(reg *checkapi.Registry) error {
	for _, s := range sections {
		if err := reg.RegisterSection(s); err != nil {
			return fmt.Errorf("unifi: %w", err)
		}
	}
	for _, c := range checks {
		if err := reg.RegisterCheck(c); err != nil {
			return fmt.Errorf("unifi: %w", err)
		}
	}
	for _, i := range inventories {
		if err := reg.RegisterInventory(i); err != nil {
			return fmt.Errorf("unifi: %w", err)
		}
	}
	return nil
}

// NewRegistry returns a registry with the UniFi plugins registered.
func NewRegistry() *checkapi.Registry {
	reg := checkapi.NewRegistry()
	if err := Register(reg); err != nil {
		panic(err)
	}
	return reg
}
