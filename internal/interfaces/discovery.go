package interfaces

import (
	"fmt"
	"strconv"

	"unifimon/internal/checkapi"
	"unifimon/internal/section"
)

// Item appearances selectable in the discovery rule.
const (
	AppearanceIndex = "index"
	AppearanceDescr = "descr"
	AppearanceAlias = "alias"
)

// DiscoveryDefaults are used when no inventory_if_rules apply.
var DiscoveryDefaults = checkapi.Params{
	"portstates":      []string{"1"},
	"porttypes":       []string{"6"},
	"item_appearance": AppearanceIndex,
	"pad_portnumbers": true,
}

// Discover yields one service per interface whose oper status and type are
// selected by params. The discovered state and speed are recorded in the
// service parameters so the check can later compare against them.
func Discover(params checkapi.Params, ifaces []Interface) []checkapi.Service {
	params = DiscoveryDefaults.Merge(params)
	states := toSet(params.Strings("portstates"))
	types := toSet(params.Strings("porttypes"))
	appearance := params.String("item_appearance", AppearanceIndex)

	width := 0
	if params.Bool("pad_portnumbers") {
		width = padWidth(ifaces)
	}

	seen := make(map[string]int)
	for _, iface := range ifaces {
		seen[itemName(iface.Attributes, appearance, width)]++
	}

	var services []checkapi.Service
	for _, iface := range ifaces {
		attr := iface.Attributes
		if !states[attr.OperStatus] || !types[attr.Type] {
			continue
		}
		item := itemName(attr, appearance, width)
		if seen[item] > 1 && appearance != AppearanceIndex {
			item = fmt.Sprintf("%s %s", item, padIndex(attr.Index, width))
		}
		services = append(services, checkapi.Service{
			Item: item,
			Parameters: checkapi.Params{
				"discovered_oper_status": []string{attr.OperStatus},
				"discovered_speed":       attr.Speed,
			},
		})
	}
	return services
}

func itemName(attr Attributes, appearance string, width int) string {
	switch appearance {
	case AppearanceDescr:
		if attr.Descr != "" {
			return attr.Descr
		}
	case AppearanceAlias:
		if attr.Alias != "" {
			return attr.Alias
		}
	}
	return padIndex(attr.Index, width)
}

// padWidth is the number of digits of the largest index when there are ten
// or more interfaces, else 0.
func padWidth(ifaces []Interface) int {
	if len(ifaces) < 10 {
		return 0
	}
	largest := len(ifaces)
	for _, iface := range ifaces {
		if n := section.SafeInt(iface.Attributes.Index, 0); n > largest {
			largest = n
		}
	}
	return len(strconv.Itoa(largest))
}

func padIndex(index string, width int) string {
	n, err := strconv.Atoi(index)
	if err != nil || width == 0 {
		return index
	}
	return fmt.Sprintf("%0*d", width, n)
}

func toSet(values []string) map[string]bool {
	set := make(map[string]bool, len(values))
	for _, v := range values {
		set[v] = true
	}
	return set
}
