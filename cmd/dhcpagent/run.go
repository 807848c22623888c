package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/veesix-networks/dhcpagent/internal/agent"
	"github.com/veesix-networks/dhcpagent/pkg/config"
	"github.com/veesix-networks/dhcpagent/pkg/logger"
	"github.com/veesix-networks/dhcpagent/pkg/version"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the agent in the foreground",
	Long: `Run the agent in the foreground until SIGINT or SIGTERM.

SIGHUP re-reads the configuration file and applies its interface records.
With agent.watch enabled, changes to the file are applied as well. A
configuration that does not compile is rejected and the running one kept.

Examples:
  dhcpagent run
  dhcpagent run -c /etc/dhcpagent/dhcpagent.yaml`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAgent(cmd.Context())
	},
}

func runAgent(ctx context.Context) error {
	cfg, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	agent.ConfigureLogging(cfg)
	mainLog := logger.Get(logger.Main)
	mainLog.Info("Starting dhcpagent", "version", version.Version, "config", configFile)

	a, err := agent.New(configFile, cfg)
	if err != nil {
		return err
	}
	if err := a.Init(ctx); err != nil {
		a.Close()
		return fmt.Errorf("apply interface configuration: %w", err)
	}
	return a.Run(ctx)
}
