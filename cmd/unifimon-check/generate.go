package main

import (
	"bytes"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"unifimon/internal/config"
)

// generatedHost mirrors config.HostConfig, leaving out unset fields.
type generatedHost struct {
	ID         string                   `yaml:"id,omitempty"`
	Name       string                   `yaml:"name"`
	Address    string                   `yaml:"address,omitempty"`
	Labels     map[string]string        `yaml:"labels,omitempty"`
	Agent      config.AgentConfig       `yaml:"agent"`
	Datasource *config.DatasourceConfig `yaml:"datasource"`
	Interval   time.Duration            `yaml:"interval,omitempty"`
}

type generatedConfig struct {
	Hosts []generatedHost `yaml:"hosts"`
}

func newConfigCmd() *cobra.Command {
	var (
		host   generatedHost
		ds     config.DatasourceConfig
		agent  string
		output string
		labels []string
	)
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Generate a host configuration for a UniFi controller",
		Long: `Generate a host configuration for a UniFi controller. The result can
be dropped into a directory listed under include in the main config.

  unifimon-check config --name unifi-ctrl --address 192.0.2.1 \
      --user monitor --password secret --agent /usr/lib/unifimon/agent_unifi_controller`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			host.Agent.Command = strings.Fields(agent)
			host.Datasource = &ds
			if len(labels) > 0 {
				host.Labels = make(map[string]string, len(labels))
				for _, l := range labels {
					k, v, ok := strings.Cut(l, "=")
					if !ok {
						return fmt.Errorf("invalid label %q, want key=value", l)
					}
					host.Labels[k] = v
				}
			}

			data, err := yaml.Marshal(generatedConfig{Hosts: []generatedHost{host}})
			if err != nil {
				return fmt.Errorf("failed to marshal YAML: %w", err)
			}
			// the generated document has to load like any other config
			if _, err := config.Parse(data); err != nil {
				return err
			}

			header := fmt.Sprintf("# UniFi controller %s\n# Generated by unifimon-check on %s\n\n",
				host.Name, time.Now().Format("2006-01-02 15:04:05"))
			data = append([]byte(header), data...)

			if output == "-" {
				_, err := bytes.NewReader(data).WriteTo(cmd.OutOrStdout())
				return err
			}
			if err := os.WriteFile(output, data, 0644); err != nil {
				return fmt.Errorf("failed to write file: %w", err)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %s\n", output)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&host.Name, "name", "", "host name of the controller")
	f.StringVar(&host.ID, "id", "", "host id (default: the name)")
	f.StringVar(&host.Address, "address", "", "controller address (default: the name)")
	f.DurationVar(&host.Interval, "interval", 0, "check interval (default: monitoring.default_interval)")
	f.StringSliceVar(&labels, "label", nil, "host label key=value, repeatable")
	f.StringVar(&agent, "agent", "agent_unifi_controller", "special agent command")
	f.DurationVar(&host.Agent.Timeout, "agent-timeout", 0, "agent timeout")
	f.StringVar(&ds.User, "user", "", "controller user")
	f.StringVar(&ds.Password, "password", "", "controller password")
	f.StringVar(&ds.Site, "site", "default", "controller site")
	f.IntVar(&ds.Port, "port", 443, "controller port")
	f.BoolVar(&ds.IgnoreCert, "ignore-cert", false, "skip TLS certificate verification")
	f.StringVar(&ds.Piggyback, "piggyback", config.PiggybackName, "piggyback host naming: name, ip or none")
	f.StringVarP(&output, "output", "o", "-", "output file, - for stdout")
	cmd.MarkFlagRequired("name")
	cmd.MarkFlagRequired("user")
	cmd.MarkFlagRequired("password")
	return cmd
}

func newAgentArgsCmd() *cobra.Command {
	var ds config.DatasourceConfig
	cmd := &cobra.Command{
		Use:   "agent-args <address>",
		Short: "Print the arguments handed to the special agent",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := ds.Normalize(); err != nil {
				return err
			}
			for _, arg := range ds.AgentArgs(args[0]) {
				fmt.Fprintln(cmd.OutOrStdout(), arg)
			}
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&ds.User, "user", "", "controller user")
	f.StringVar(&ds.Password, "password", "", "controller password")
	f.StringVar(&ds.Site, "site", "", "controller site")
	f.IntVar(&ds.Port, "port", 0, "controller port")
	f.BoolVar(&ds.IgnoreCert, "ignore-cert", false, "skip TLS certificate verification")
	f.StringVar(&ds.Piggyback, "piggyback", "", "piggyback host naming: name, ip or none")
	return cmd
}
