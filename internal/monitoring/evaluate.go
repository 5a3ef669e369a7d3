// internal/monitoring/evaluate.go
package monitoring

import (
	"errors"
	"strings"
	"time"

	"unifimon/internal/agent"
	"unifimon/internal/checkapi"
	"unifimon/internal/config"
	"unifimon/internal/database"
	"unifimon/internal/graphing"
	"unifimon/internal/inventory"
)

const (
	outputItemNotFound = "Item not found in monitoring data"
	outputNoData       = "Check plugin received no monitoring data"
	outputNoResult     = "Check plugin did not return any result"
	outputAllOK        = "Everything looks OK"
)

// Sections are the parsed agent sections of one host, keyed by name.
type Sections map[string]any

// ParseSections runs the registered parse functions over the sections of
// host in out.
func ParseSections(reg *checkapi.Registry, out *agent.Output, host string) Sections {
	sections := make(Sections)
	for _, name := range out.Sections(host) {
		rows, _ := out.Rows(host, name)
		sections[name] = reg.Parse(name, rows)
	}
	return sections
}

// Discover runs every check plugin whose section is present. Services are
// returned in plugin order; a description already taken by an earlier
// plugin is skipped.
func Discover(reg *checkapi.Registry, sections Sections, rules config.Rules, now time.Time) []database.Service {
	var services []database.Service
	seen := make(map[string]bool)

	for _, p := range reg.Checks() {
		sec, ok := sections[p.SectionName()]
		if !ok || p.Discover == nil {
			continue
		}
		params := p.DiscoveryDefaults.Merge(rules.Params(p.DiscoveryRuleset))
		for _, svc := range p.Discover(params, sec) {
			desc := p.Description(svc.Item)
			if seen[desc] {
				continue
			}
			seen[desc] = true
			services = append(services, database.Service{
				ID:           database.ServiceID(p.Name, svc.Item),
				Plugin:       p.Name,
				Item:         svc.Item,
				Description:  desc,
				Parameters:   svc.Parameters,
				DiscoveredAt: now,
			})
		}
	}
	return services
}

// CheckResult is the aggregated outcome of one service check.
type CheckResult struct {
	State      checkapi.State
	Output     string
	LongOutput string
	PerfData   string
	Metrics    []checkapi.Metric
	Duration   time.Duration
}

// CheckService evaluates svc against the parsed sections. Errors of the
// check function are turned into UNKNOWN results.
func CheckService(reg *checkapi.Registry, svc database.Service, sections Sections, rules config.Rules, env checkapi.Env) CheckResult {
	start := time.Now()
	res := checkService(reg, svc, sections, rules, env)
	res.Duration = time.Since(start)
	return res
}

func checkService(reg *checkapi.Registry, svc database.Service, sections Sections, rules config.Rules, env checkapi.Env) CheckResult {
	p, ok := reg.Check(svc.Plugin)
	if !ok {
		return CheckResult{State: checkapi.Unknown, Output: "Unknown check plugin " + svc.Plugin}
	}
	sec, ok := sections[p.SectionName()]
	if !ok {
		return CheckResult{State: checkapi.Unknown, Output: outputNoData}
	}

	params := p.CheckDefaults.Merge(svc.Parameters).Merge(rules.Params(p.CheckRuleset))
	findings, err := p.Check(env, svc.Item, params, sec)
	switch {
	case errors.Is(err, checkapi.ErrItemNotFound):
		return CheckResult{State: checkapi.Unknown, Output: outputItemNotFound}
	case err != nil:
		return CheckResult{State: checkapi.Unknown, Output: "Check failed: " + err.Error()}
	}
	return Aggregate(p.Name, findings)
}

// Aggregate folds findings into a single result. The state is the worst
// result state; summary texts are joined with ", " and marked with the state
// marker when not OK. Metrics are translated for the plugin.
func Aggregate(plugin string, findings []checkapi.Finding) CheckResult {
	results := checkapi.Results(findings)
	if len(results) == 0 {
		return CheckResult{State: checkapi.Unknown, Output: outputNoResult}
	}

	var res CheckResult
	var summary, details []string
	for _, r := range results {
		res.State = checkapi.Worst(res.State, r.State)
		if text := r.Text(); text != "" {
			summary = append(summary, text+r.State.Marker())
		}
		if detail := r.Detail(); detail != "" {
			details = append(details, detail+r.State.Marker())
		}
	}

	res.Output = strings.Join(summary, ", ")
	if res.Output == "" {
		res.Output = outputAllOK
	}
	res.LongOutput = strings.Join(details, "\n")

	perf := make([]string, 0, len(findings))
	for _, m := range checkapi.Metrics(findings) {
		m = graphing.Translate(plugin, m)
		res.Metrics = append(res.Metrics, m)
		perf = append(perf, m.PerfData())
	}
	res.PerfData = strings.Join(perf, " ")
	return res
}

// BuildInventory runs every inventory plugin whose section is present.
func BuildInventory(reg *checkapi.Registry, sections Sections) *inventory.Tree {
	tree := inventory.New()
	for _, p := range reg.InventoryPlugins() {
		sec, ok := sections[p.SectionName()]
		if !ok {
			continue
		}
		tree.Add(p.Inventory(sec)...)
	}
	return tree
}
