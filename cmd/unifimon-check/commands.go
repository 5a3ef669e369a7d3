package main

import (
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"unifimon/internal/checkapi"
	"unifimon/internal/database"
	"unifimon/internal/interfaces"
	"unifimon/internal/monitoring"
	"unifimon/internal/unifi"
)

// exitCode is the worst state of the last check command.
var exitCode int

func newHostsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hosts",
		Short: "List the piggyback hosts found in the agent output",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := readOutput(cmd.Context(), cmd.InOrStdin())
			if err != nil {
				return err
			}
			for _, h := range out.Hosts() {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", h, strings.Join(out.Sections(h), ","))
			}
			return nil
		},
	}
}

func newDiscoverCmd() *cobra.Command {
	var asYAML bool
	cmd := &cobra.Command{
		Use:   "discover",
		Short: "Show the services discovered in the agent output",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sections, err := loadSections(cmd)
			if err != nil {
				return err
			}
			rules, err := loadRules()
			if err != nil {
				return err
			}

			services := monitoring.Discover(unifi.NewRegistry(), sections, rules, time.Now())
			if asYAML {
				return writeYAML(cmd.OutOrStdout(), services)
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "PLUGIN\tITEM\tDESCRIPTION")
			for _, svc := range services {
				fmt.Fprintf(w, "%s\t%s\t%s\n", svc.Plugin, svc.Item, svc.Description)
			}
			return w.Flush()
		},
	}
	cmd.Flags().BoolVar(&asYAML, "yaml", false, "YAML output")
	return cmd
}

type checkOutput struct {
	Service  string `yaml:"service"`
	State    string `yaml:"state"`
	Output   string `yaml:"output"`
	Long     string `yaml:"long_output,omitempty"`
	PerfData string `yaml:"perf_data,omitempty"`
}

func newCheckCmd() *cobra.Command {
	var (
		asYAML  bool
		stateDB string
		service string
	)
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Discover and check every service of the host",
		Long: `Discover and check every service of the host. The exit code is
the worst service state (0 OK, 1 WARN, 2 CRIT, 3 UNKNOWN).

Rates need two runs: pass --state-db to keep counters between calls.

  unifimon-check check -f ctrl.txt
  unifimon-check check -f ctrl.txt -H usw-office --state-db /tmp/unifi.db`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sections, err := loadSections(cmd)
			if err != nil {
				return err
			}
			rules, err := loadRules()
			if err != nil {
				return err
			}

			env := checkapi.Env{Host: hostName, Now: time.Now(), Values: interfaces.NewMemoryStore()}
			if stateDB != "" {
				store, err := database.NewBoltStore(stateDB)
				if err != nil {
					return err
				}
				defer store.Close()
				env.Values = store.Counters(hostName)
			}

			reg := unifi.NewRegistry()
			var results []checkOutput
			worst := checkapi.OK
			for _, svc := range monitoring.Discover(reg, sections, rules, env.Now) {
				if service != "" && svc.Description != service {
					continue
				}
				res := monitoring.CheckService(reg, svc, sections, rules, env)
				worst = checkapi.Worst(worst, res.State)
				results = append(results, checkOutput{
					Service:  svc.Description,
					State:    res.State.String(),
					Output:   res.Output,
					Long:     res.LongOutput,
					PerfData: res.PerfData,
				})
			}
			if service != "" && len(results) == 0 {
				return fmt.Errorf("service %q not found", service)
			}
			exitCode = int(worst)

			if asYAML {
				return writeYAML(cmd.OutOrStdout(), results)
			}
			for _, r := range results {
				line := fmt.Sprintf("%-7s %s - %s", r.State, r.Service, r.Output)
				if r.PerfData != "" {
					line += " | " + r.PerfData
				}
				fmt.Fprintln(cmd.OutOrStdout(), line)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asYAML, "yaml", false, "YAML output")
	cmd.Flags().StringVar(&stateDB, "state-db", "", "BoltDB file keeping counters between runs")
	cmd.Flags().StringVarP(&service, "service", "s", "", "only check the service with this description")
	return cmd
}

func newInventoryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inventory",
		Short: "Print the inventory tree of the host",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sections, err := loadSections(cmd)
			if err != nil {
				return err
			}
			tree := monitoring.BuildInventory(unifi.NewRegistry(), sections)
			if tree.Empty() {
				return fmt.Errorf("no inventory data for host %q", hostName)
			}
			return writeYAML(cmd.OutOrStdout(), tree)
		},
	}
}
