// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Database   DatabaseConfig   `yaml:"database"`
	Prometheus PrometheusConfig `yaml:"prometheus"`
	Monitoring MonitoringConfig `yaml:"monitoring"`
	Logging    LoggingConfig    `yaml:"logging"`
	Hosts      []HostConfig     `yaml:"hosts"`
	Include    IncludeConfig    `yaml:"include"`
}

type IncludeConfig struct {
	Directory string `yaml:"directory"`
	Pattern   string `yaml:"pattern"`
	Enabled   bool   `yaml:"enabled"`
}

type ServerConfig struct {
	Port         string        `yaml:"port"`
	Workers      int           `yaml:"workers"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

type DatabaseConfig struct {
	Type             string        `yaml:"type"`
	Path             string        `yaml:"path"`
	CleanupInterval  time.Duration `yaml:"cleanup_interval"`
	StatusRetention  time.Duration `yaml:"status_retention"`
	CounterRetention time.Duration `yaml:"counter_retention"`
	CompactInterval  time.Duration `yaml:"compact_interval"`
}

type PrometheusConfig struct {
	Enabled     bool   `yaml:"enabled"`
	MetricsPath string `yaml:"metrics_path"`
}

type MonitoringConfig struct {
	DefaultInterval   time.Duration `yaml:"default_interval"`
	Timeout           time.Duration `yaml:"timeout"`
	DiscoveryInterval time.Duration `yaml:"discovery_interval"`
	InventoryInterval time.Duration `yaml:"inventory_interval"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load reads filename, overlays the include directory when enabled and
// returns the validated configuration.
func Load(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", filename, err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", filename, err)
	}

	if cfg.Include.Enabled && cfg.Include.Directory != "" {
		files, err := includeFiles(filepath.Dir(filename), cfg.Include)
		if err != nil {
			return nil, err
		}
		for _, file := range files {
			if err := cfg.overlay(file); err != nil {
				return nil, fmt.Errorf("include %s: %w", file, err)
			}
		}
	}
	if err := cfg.finish(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Parse decodes a configuration document and applies defaults and
// validation. Includes are not resolved.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.finish(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) finish() error {
	c.setDefaults()
	if err := c.validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// includeFiles lists the include directory in file name order. The
// default pattern picks up .yml files as well.
func includeFiles(baseDir string, inc IncludeConfig) ([]string, error) {
	dir := inc.Directory
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(baseDir, dir)
	}
	if fi, err := os.Stat(dir); err != nil || !fi.IsDir() {
		return nil, fmt.Errorf("include directory %s is not readable", dir)
	}

	patterns := []string{inc.Pattern}
	if inc.Pattern == "" || inc.Pattern == "*.yaml" {
		patterns = []string{"*.yaml", "*.yml"}
	}
	var files []string
	for _, pattern := range patterns {
		matches, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			return nil, fmt.Errorf("include pattern %q: %w", pattern, err)
		}
		files = append(files, matches...)
	}
	sort.Slice(files, func(i, j int) bool {
		return filepath.Base(files[i]) < filepath.Base(files[j])
	})
	return files, nil
}

// overlay decodes an include file on top of c. Keys present in the file
// replace the current values; hosts go through mergeHosts.
func (c *Config) overlay(filename string) error {
	data, err := os.ReadFile(filename)
	if err != nil {
		return err
	}
	doc := struct {
		Server     *ServerConfig     `yaml:"server"`
		Database   *DatabaseConfig   `yaml:"database"`
		Prometheus *PrometheusConfig `yaml:"prometheus"`
		Monitoring *MonitoringConfig `yaml:"monitoring"`
		Logging    *LoggingConfig    `yaml:"logging"`
		Hosts      []HostConfig      `yaml:"hosts"`
	}{
		Server:     &c.Server,
		Database:   &c.Database,
		Prometheus: &c.Prometheus,
		Monitoring: &c.Monitoring,
		Logging:    &c.Logging,
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return err
	}
	c.mergeHosts(doc.Hosts)
	return nil
}

// mergeHosts appends new hosts. A host entry that only carries an id and
// rules adds those rules to the existing host of that id.
func (c *Config) mergeHosts(hosts []HostConfig) {
	for _, h := range hosts {
		cur, ok := c.Host(h.Key())
		switch {
		case !ok:
			c.Hosts = append(c.Hosts, h)
		case !h.rulesOnly():
			*cur = h
		default:
			if cur.Rules == nil {
				cur.Rules = make(Rules, len(h.Rules))
			}
			for ruleset, params := range h.Rules {
				cur.Rules[ruleset] = cur.Rules.Params(ruleset).Merge(params)
			}
		}
	}
}

func (h *HostConfig) rulesOnly() bool {
	return len(h.Rules) > 0 && h.Address == "" && h.AgentOutput == "" &&
		len(h.Agent.Command) == 0 && h.Datasource == nil && h.Enabled == nil &&
		h.Interval == 0 && len(h.Labels) == 0
}

func orDefault[T comparable](field *T, value T) {
	var zero T
	if *field == zero {
		*field = value
	}
}

func (c *Config) setDefaults() {
	orDefault(&c.Server.Port, ":8000")
	orDefault(&c.Server.Workers, 3)

	orDefault(&c.Database.Type, "boltdb")
	orDefault(&c.Database.Path, "./data/unifimon.db")
	orDefault(&c.Database.CleanupInterval, time.Hour)
	orDefault(&c.Database.StatusRetention, 24*time.Hour)
	orDefault(&c.Database.CounterRetention, 7*24*time.Hour)

	orDefault(&c.Include.Pattern, "*.yaml")

	orDefault(&c.Monitoring.DefaultInterval, time.Minute)
	orDefault(&c.Monitoring.Timeout, 30*time.Second)
	orDefault(&c.Monitoring.DiscoveryInterval, 2*time.Hour)
	orDefault(&c.Monitoring.InventoryInterval, 24*time.Hour)

	orDefault(&c.Prometheus.MetricsPath, "/metrics")
	orDefault(&c.Logging.Level, "info")
	orDefault(&c.Logging.Format, "text")

	for i := range c.Hosts {
		c.Hosts[i].setDefaults()
	}
}

func (c *Config) validate() error {
	switch {
	case c.Server.Workers < 1:
		return fmt.Errorf("server.workers is %d, need at least 1", c.Server.Workers)
	case c.Database.Type != "boltdb":
		return fmt.Errorf("database.type %q not supported, use boltdb", c.Database.Type)
	case c.Monitoring.DefaultInterval <= 0, c.Monitoring.Timeout <= 0:
		return fmt.Errorf("monitoring intervals and timeout must be positive")
	case !strings.HasPrefix(c.Prometheus.MetricsPath, "/"):
		return fmt.Errorf("prometheus.metrics_path %q is not absolute", c.Prometheus.MetricsPath)
	case c.Logging.Format != "text" && c.Logging.Format != "json":
		return fmt.Errorf("logging.format %q, want text or json", c.Logging.Format)
	}

	if c.Include.Enabled {
		if c.Include.Directory == "" {
			return fmt.Errorf("include.enabled needs include.directory")
		}
		if !validGlob(c.Include.Pattern) {
			return fmt.Errorf("include.pattern %q is not a file glob", c.Include.Pattern)
		}
	}

	seen := make(map[string]bool, len(c.Hosts))
	for _, host := range c.Hosts {
		if err := host.validate(); err != nil {
			return err
		}
		if seen[host.Key()] {
			return fmt.Errorf("duplicate host ID: %s", host.Key())
		}
		seen[host.Key()] = true
	}
	return nil
}

// Host returns the configured host with the given id or name.
func (c *Config) Host(id string) (*HostConfig, bool) {
	for i := range c.Hosts {
		if c.Hosts[i].Key() == id || c.Hosts[i].Name == id {
			return &c.Hosts[i], true
		}
	}
	return nil, false
}

func validGlob(pattern string) bool {
	if strings.ContainsAny(pattern, "/\\") {
		return false
	}
	_, err := filepath.Match(pattern, "x.yaml")
	return err == nil
}
