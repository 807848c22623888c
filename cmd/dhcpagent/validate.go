package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/veesix-networks/dhcpagent/pkg/config"
	"github.com/veesix-networks/dhcpagent/pkg/configmgr"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a configuration file",
	Long: `Validate a configuration file without applying it.

Every interface record is compiled and every problem is listed, not only
the first one.

Examples:
  dhcpagent validate -c dhcpagent.yaml`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return validate(cmd)
	},
}

func validate(cmd *cobra.Command) error {
	out := cmd.OutOrStdout()

	cfg, err := config.Load(configFile)
	if err != nil {
		fmt.Fprintf(out, "INVALID: %v\n", err)
		return err
	}

	compiled, err := configmgr.Compile(cfg.Records())
	if err != nil {
		problems := configmgr.Problems(err)
		fmt.Fprintf(out, "INVALID: %d problem(s)\n", len(problems))
		for _, p := range problems {
			fmt.Fprintf(out, "  %s\n", p.String())
		}
		return err
	}

	relays, snoops := 0, 0
	for _, ic := range compiled {
		switch ic.Mode.(type) {
		case configmgr.RelayMode:
			relays++
		case configmgr.SnoopMode:
			snoops++
		}
	}
	fmt.Fprintf(out, "VALID: %d interface(s), %d relay, %d snoop\n", len(compiled), relays, snoops)
	return nil
}
