// internal/checkapi/registry.go
package checkapi

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Counter is a value remembered between two check runs.
type Counter struct {
	Timestamp time.Time `json:"timestamp"`
	Value     float64   `json:"value"`
}

// ValueStore keeps counters across check runs for one host.
type ValueStore interface {
	GetValue(key string) (Counter, bool)
	SetValue(key string, c Counter) error
}

// Env is what the runtime hands to a check besides item, params and section.
// Most checks ignore it; counter based checks need the clock and the store.
type Env struct {
	Host   string
	Now    time.Time
	Values ValueStore
}

type ParseFunc func(rows [][]string) any

type DiscoveryFunc func(params Params, section any) []Service

type CheckFunc func(env Env, item string, params Params, section any) ([]Finding, error)

type InventoryFunc func(section any) []InventoryRow

// SectionPlugin turns the raw rows of an agent section into a parsed section.
type SectionPlugin struct {
	Name  string
	Parse ParseFunc
}

// CheckPlugin bundles discovery and check for one kind of service.
type CheckPlugin struct {
	Name string
	// Section defaults to Name.
	Section     string
	ServiceName string

	DiscoveryRuleset  string
	DiscoveryDefaults Params
	Discover          DiscoveryFunc

	CheckRuleset  string
	CheckDefaults Params
	Check         CheckFunc
}

func (p *CheckPlugin) SectionName() string {
	if p.Section != "" {
		return p.Section
	}
	return p.Name
}

// Description renders the service description for an item.
func (p *CheckPlugin) Description(item string) string {
	if strings.Contains(p.ServiceName, "%s") {
		return fmt.Sprintf(p.ServiceName, item)
	}
	return p.ServiceName
}

type InventoryPlugin struct {
	Name string
	// Section defaults to Name.
	Section   string
	Inventory InventoryFunc
}

func (p *InventoryPlugin) SectionName() string {
	if p.Section != "" {
		return p.Section
	}
	return p.Name
}

// Registry holds all section, check and inventory plugins known to the runtime.
type Registry struct {
	sections  map[string]*SectionPlugin
	checks    map[string]*CheckPlugin
	inventory map[string]*InventoryPlugin
}

func NewRegistry() *Registry {
	return &Registry{
		sections:  make(map[string]*SectionPlugin),
		checks:    make(map[string]*CheckPlugin),
		inventory: make(map[string]*InventoryPlugin),
	}
}

func (r *Registry) RegisterSection(p SectionPlugin) error {
	if _, exists := r.sections[p.Name]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateSection, p.Name)
	}
	r.sections[p.Name] = &p
	return nil
}

func (r *Registry) RegisterCheck(p CheckPlugin) error {
	if _, exists := r.checks[p.Name]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicatePlugin, p.Name)
	}
	r.checks[p.Name] = &p
	return nil
}

func (r *Registry) RegisterInventory(p InventoryPlugin) error {
	if _, exists := r.inventory[p.Name]; exists {
		return fmt.Errorf("%w: inventory %s", ErrDuplicatePlugin, p.Name)
	}
	r.inventory[p.Name] = &p
	return nil
}

// Parse runs the section's parse function. Sections without a registered
// parser are passed through as raw rows.
func (r *Registry) Parse(name string, rows [][]string) any {
	if sp, ok := r.sections[name]; ok && sp.Parse != nil {
		return sp.Parse(rows)
	}
	return rows
}

func (r *Registry) Check(name string) (*CheckPlugin, bool) {
	p, ok := r.checks[name]
	return p, ok
}

// Checks returns the check plugins sorted by name.
func (r *Registry) Checks() []*CheckPlugin {
	out := make([]*CheckPlugin, 0, len(r.checks))
	for _, p := range r.checks {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// InventoryPlugins returns the inventory plugins sorted by name.
func (r *Registry) InventoryPlugins() []*InventoryPlugin {
	out := make([]*InventoryPlugin, 0, len(r.inventory))
	for _, p := range r.inventory {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// DiscoverWith adapts a typed discovery function. A section of another type
// discovers nothing.
func DiscoverWith[S any](fn func(params Params, section S) []Service) DiscoveryFunc {
	return func(params Params, section any) []Service {
		s, ok := section.(S)
		if !ok {
			return nil
		}
		return fn(params, s)
	}
}

// CheckWith adapts a typed check function.
func CheckWith[S any](fn func(env Env, item string, params Params, section S) ([]Finding, error)) CheckFunc {
	return func(env Env, item string, params Params, section any) ([]Finding, error) {
		s, ok := section.(S)
		if !ok {
			return nil, fmt.Errorf("%w: %T", ErrSectionType, section)
		}
		return fn(env, item, params, s)
	}
}

// InventoryWith adapts a typed inventory function.
func InventoryWith[S any](fn func(section S) []InventoryRow) InventoryFunc {
	return func(section any) []InventoryRow {
		s, ok := section.(S)
		if !ok {
			return nil
		}
		return fn(s)
	}
}
