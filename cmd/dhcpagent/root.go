package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/veesix-networks/dhcpagent/pkg/version"
)

var configFile string

var rootCmd = &cobra.Command{
	Use:   "dhcpagent",
	Short: "DHCP relay and snooping agent with Option 82 insertion",
	Long: `dhcpagent relays DHCP requests from bridge interfaces to a DHCP server, or
snoops them on a bridge and forwards them to a trusted port. Every request
leaves with relay agent information (option 82) identifying the access port,
and per-interface rules can delete or add options in either direction.`,
	Version:       version.Full(),
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() error {
	err := rootCmd.ExecuteContext(context.Background())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	return err
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "/etc/dhcpagent/dhcpagent.yaml",
		"config file path")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(decodeCmd)
}
