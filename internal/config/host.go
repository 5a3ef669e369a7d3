// internal/config/host.go
package config

import (
	"fmt"
	"strconv"
	"time"

	"unifimon/internal/agent"
	"unifimon/internal/checkapi"
)

// Piggyback modes of the datasource.
const (
	PiggybackName = "name"
	PiggybackIP   = "ip"
	PiggybackNone = "none"
)

type HostConfig struct {
	ID      string            `yaml:"id"`
	Name    string            `yaml:"name"`
	Address string            `yaml:"address"`
	Enabled *bool             `yaml:"enabled"`
	Labels  map[string]string `yaml:"labels"`

	// AgentOutput is a file holding the agent output of the host. It is
	// read when no agent command is configured.
	AgentOutput string            `yaml:"agent_output"`
	Agent       AgentConfig       `yaml:"agent"`
	Datasource  *DatasourceConfig `yaml:"datasource"`

	Interval time.Duration `yaml:"interval"`
	Rules    Rules         `yaml:"rules"`
}

type AgentConfig struct {
	Command []string      `yaml:"command"`
	Timeout time.Duration `yaml:"timeout"`
}

// DatasourceConfig holds the controller access parameters handed to the
// agent command.
type DatasourceConfig struct {
	User       string `yaml:"user"`
	Password   string `yaml:"password"`
	Site       string `yaml:"site"`
	Port       int    `yaml:"port"`
	IgnoreCert bool   `yaml:"ignore_cert"`
	Piggyback  string `yaml:"piggyback"`
}

// Rules maps a ruleset name (unifi_sites, inventory_if_rules, if) to the
// parameters configured for the host.
type Rules map[string]checkapi.Params

// Params returns the parameters of ruleset, nil when none are configured.
func (r Rules) Params(ruleset string) checkapi.Params {
	if r == nil || ruleset == "" {
		return nil
	}
	return r[ruleset]
}

// Key is the id the host is stored under.
func (h *HostConfig) Key() string {
	if h.ID != "" {
		return h.ID
	}
	return h.Name
}

func (h *HostConfig) IsEnabled() bool {
	return h.Enabled == nil || *h.Enabled
}

// Source builds the agent source of the host. The datasource arguments are
// appended to the agent command.
func (h *HostConfig) Source(defaultTimeout time.Duration) agent.Source {
	src := agent.Source{Path: h.AgentOutput, Timeout: h.Agent.Timeout}
	if src.Timeout == 0 {
		src.Timeout = defaultTimeout
	}
	if len(h.Agent.Command) > 0 {
		src.Command = append([]string(nil), h.Agent.Command...)
		if h.Datasource != nil {
			src.Command = append(src.Command, h.Datasource.AgentArgs(h.target())...)
		}
	}
	return src
}

func (h *HostConfig) target() string {
	if h.Address != "" {
		return h.Address
	}
	return h.Name
}

func (h *HostConfig) setDefaults() {
	if h.ID == "" {
		h.ID = h.Name
	}
	if h.Datasource != nil {
		h.Datasource.setDefaults()
	}
}

func (h *HostConfig) validate() error {
	if h.Name == "" {
		return fmt.Errorf("host without name")
	}
	if h.AgentOutput == "" && len(h.Agent.Command) == 0 {
		return fmt.Errorf("host %s: either agent_output or agent.command is required", h.Name)
	}
	if h.Interval < 0 {
		return fmt.Errorf("host %s: interval must not be negative", h.Name)
	}
	if h.Datasource != nil {
		if err := h.Datasource.validate(); err != nil {
			return fmt.Errorf("host %s: %w", h.Name, err)
		}
	}
	return nil
}

// Normalize applies the datasource defaults and validates the result.
func (d *DatasourceConfig) Normalize() error {
	d.setDefaults()
	return d.validate()
}

func (d *DatasourceConfig) setDefaults() {
	if d.Site == "" {
		d.Site = "default"
	}
	if d.Port == 0 {
		d.Port = 443
	}
	if d.Piggyback == "" {
		d.Piggyback = PiggybackName
	}
}

func (d *DatasourceConfig) validate() error {
	if d.User == "" {
		return fmt.Errorf("datasource.user is required")
	}
	if d.Password == "" {
		return fmt.Errorf("datasource.password is required")
	}
	if d.Port < 1 || d.Port > 65535 {
		return fmt.Errorf("datasource.port %d out of range", d.Port)
	}
	switch d.Piggyback {
	case PiggybackName, PiggybackIP, PiggybackNone:
	default:
		return fmt.Errorf("datasource.piggyback must be name, ip or none, got %q", d.Piggyback)
	}
	return nil
}

// AgentArgs renders the argument vector of the agent command for the
// controller at address.
func (d *DatasourceConfig) AgentArgs(address string) []string {
	args := []string{
		"--user", d.User,
		"--password", d.Password,
		"--site", d.Site,
		"--port", strconv.Itoa(d.Port),
	}
	if d.IgnoreCert {
		args = append(args, "--ignore-cert")
	}
	args = append(args, "--piggyback", d.Piggyback, address)
	return args
}
