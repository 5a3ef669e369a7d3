// unifimon-check evaluates a single UniFi agent output without the daemon.
//
// Usage:
//
//	unifimon-check hosts -f output.txt          List the hosts in the output
//	unifimon-check discover -f output.txt       Show discovered services
//	unifimon-check check -f output.txt          Run every discovered service
//	unifimon-check inventory -f output.txt      Print the inventory tree
//	unifimon-check config --name ctrl ...       Generate a host configuration
//	unifimon-check agent-args 192.0.2.1 ...     Print the special agent arguments
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"unifimon/internal/agent"
	"unifimon/internal/config"
	"unifimon/internal/monitoring"
	"unifimon/internal/unifi"
	"unifimon/internal/web"
)

var (
	outputFile string
	hostName   string
	rulesFile  string
	verbose    bool
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(3)
	}
	os.Exit(exitCode)
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:               "unifimon-check",
		Short:             "Evaluate UniFi controller agent output",
		SilenceUsage:      true,
		SilenceErrors:     true,
		CompletionOptions: cobra.CompletionOptions{HiddenDefaultCmd: true},
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			logrus.SetOutput(cmd.ErrOrStderr())
			if verbose {
				logrus.SetLevel(logrus.DebugLevel)
			} else {
				logrus.SetLevel(logrus.WarnLevel)
			}
			return nil
		},
	}

	root.PersistentFlags().StringVarP(&outputFile, "file", "f", "-", "agent output file, - for stdin")
	root.PersistentFlags().StringVarP(&hostName, "host", "H", "", "piggyback host to evaluate (default: the controller itself)")
	root.PersistentFlags().StringVarP(&rulesFile, "rules", "r", "", "YAML file with rule parameters per ruleset")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	root.AddCommand(
		newHostsCmd(),
		newDiscoverCmd(),
		newCheckCmd(),
		newInventoryCmd(),
		newConfigCmd(),
		newAgentArgsCmd(),
		newVersionCmd(),
	)
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "unifimon-check %s (%s)\n", web.Version, web.GitCommit)
		},
	}
}

// readOutput loads the agent output named by --file.
func readOutput(ctx context.Context, stdin io.Reader) (*agent.Output, error) {
	if outputFile == "-" {
		return agent.Split(stdin)
	}
	return agent.Fetch(ctx, agent.Source{Path: outputFile, Timeout: 30 * time.Second})
}

func loadRules() (config.Rules, error) {
	if rulesFile == "" {
		return nil, nil
	}
	data, err := os.ReadFile(rulesFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read rules: %w", err)
	}
	var rules config.Rules
	if err := yaml.Unmarshal(data, &rules); err != nil {
		return nil, fmt.Errorf("failed to parse rules: %w", err)
	}
	return rules, nil
}

// loadSections reads the agent output and parses the sections of --host.
func loadSections(cmd *cobra.Command) (monitoring.Sections, error) {
	out, err := readOutput(cmd.Context(), cmd.InOrStdin())
	if err != nil {
		return nil, err
	}
	sections := monitoring.ParseSections(unifi.NewRegistry(), out, hostName)
	if len(sections) == 0 {
		return nil, fmt.Errorf("no sections for host %q", hostName)
	}
	return sections, nil
}

func writeYAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}
