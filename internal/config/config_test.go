package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const mainConfig = `
server:
  port: ":9000"
database:
  path: /tmp/unifimon.db
monitoring:
  default_interval: 2m
hosts:
  - name: unifi.example.net
    address: 192.0.2.10
    agent:
      command: ["/usr/lib/unifimon/agent_unifi_controller"]
    datasource:
      user: monitor
      password: secret
      ignore_cert: true
    rules:
      unifi_sites:
        ignore_alarms: true
      if:
        errors: [1, 5]
include:
  enabled: true
  directory: conf.d
`

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestLoadWithIncludes(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "unifimon.yaml"), mainConfig)
	writeFile(t, filepath.Join(dir, "conf.d", "10-lab.yaml"), `
hosts:
  - name: lab-controller
    agent_output: /var/lib/unifimon/lab.txt
logging:
  level: debug
`)
	writeFile(t, filepath.Join(dir, "conf.d", "20-rules.yml"), `
hosts:
  - id: unifi.example.net
    rules:
      inventory_if_rules:
        item_appearance: alias
`)

	cfg, err := Load(filepath.Join(dir, "unifimon.yaml"))
	require.NoError(t, err)

	assert.Equal(t, ":9000", cfg.Server.Port)
	assert.Equal(t, 3, cfg.Server.Workers)
	assert.Equal(t, 2*time.Minute, cfg.Monitoring.DefaultInterval)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "text", cfg.Logging.Format)
	require.Len(t, cfg.Hosts, 2)

	host, ok := cfg.Host("unifi.example.net")
	require.True(t, ok)
	assert.True(t, host.IsEnabled())
	assert.True(t, host.Rules.Params("unifi_sites").Bool("ignore_alarms"))
	assert.Equal(t, "alias", host.Rules.Params("inventory_if_rules").String("item_appearance", ""))
	levels, ok := host.Rules.Params("if").Levels("errors")
	require.True(t, ok)
	assert.Equal(t, 5.0, levels.Crit)

	require.NotNil(t, host.Datasource)
	assert.Equal(t, "default", host.Datasource.Site)
	assert.Equal(t, 443, host.Datasource.Port)
	assert.Equal(t, PiggybackName, host.Datasource.Piggyback)

	lab, ok := cfg.Host("lab-controller")
	require.True(t, ok)
	assert.Equal(t, "lab-controller", lab.ID)
	assert.Nil(t, lab.Rules.Params("if"))
}

func TestAgentArgs(t *testing.T) {
	tests := []struct {
		name string
		ds   DatasourceConfig
		want []string
	}{
		{
			name: "defaults",
			ds:   DatasourceConfig{User: "u", Password: "p"},
			want: []string{"--user", "u", "--password", "p", "--site", "default", "--port", "443", "--piggyback", "name", "192.0.2.1"},
		},
		{
			name: "ignore cert and ip piggyback",
			ds:   DatasourceConfig{User: "u", Password: "p", Site: "branch", Port: 8443, IgnoreCert: true, Piggyback: PiggybackIP},
			want: []string{"--user", "u", "--password", "p", "--site", "branch", "--port", "8443", "--ignore-cert", "--piggyback", "ip", "192.0.2.1"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ds := tt.ds
			ds.setDefaults()
			require.NoError(t, ds.validate())
			assert.Equal(t, tt.want, ds.AgentArgs("192.0.2.1"))
		})
	}
}

func TestHostSource(t *testing.T) {
	host := HostConfig{
		Name:       "ctrl",
		Agent:      AgentConfig{Command: []string{"agent_unifi"}},
		Datasource: &DatasourceConfig{User: "u", Password: "p", Piggyback: PiggybackNone},
	}
	host.setDefaults()

	src := host.Source(10 * time.Second)
	assert.Equal(t, 10*time.Second, src.Timeout)
	assert.Equal(t, "agent_unifi", src.Command[0])
	assert.Equal(t, "ctrl", src.Command[len(src.Command)-1])
	assert.Contains(t, src.Command, "none")

	file := HostConfig{Name: "f", AgentOutput: "/tmp/f.txt", Agent: AgentConfig{Timeout: time.Second}}
	src = file.Source(10 * time.Second)
	assert.Empty(t, src.Command)
	assert.Equal(t, "/tmp/f.txt", src.Path)
	assert.Equal(t, time.Second, src.Timeout)
}

func TestParseValidation(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{"no source", "hosts:\n  - name: a\n", "either agent_output or agent.command"},
		{"duplicate", "hosts:\n  - name: a\n    agent_output: x\n  - name: a\n    agent_output: y\n", "duplicate host ID"},
		{"bad piggyback", "hosts:\n  - name: a\n    agent_output: x\n    datasource: {user: u, password: p, piggyback: mac}\n", "piggyback"},
		{"missing password", "hosts:\n  - name: a\n    agent_output: x\n    datasource: {user: u}\n", "password"},
		{"bad port", "hosts:\n  - name: a\n    agent_output: x\n    datasource: {user: u, password: p, port: 70000}\n", "out of range"},
		{"bad format", "logging:\n  format: xml\n", "logging.format"},
		{"bad database", "database:\n  type: sqlite\n", "boltdb"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestParseDisabledHost(t *testing.T) {
	cfg, err := Parse([]byte("hosts:\n  - name: a\n    agent_output: x\n    enabled: false\n"))
	require.NoError(t, err)
	assert.False(t, cfg.Hosts[0].IsEnabled())
	assert.Equal(t, "/metrics", cfg.Prometheus.MetricsPath)
	assert.Equal(t, 24*time.Hour, cfg.Database.StatusRetention)
}
