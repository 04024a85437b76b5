package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/lvh-project/lvh/pkg/defaults"
	"github.com/lvh-project/lvh/pkg/harness"
	"github.com/lvh-project/lvh/pkg/host"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the allocated VMs and their control-plane state",
	Run: func(cmd *cobra.Command, args []string) {
		if configFile != "" {
			os.Setenv(defaults.DefaultConfigEnv, configFile)
		}
		tc := harness.NewTestContext()
		ctx := context.Background()
		for _, vm := range tc.VMs() {
			state, err := tc.Controller().State(ctx, vm)
			if err != nil {
				state = host.StateUnknown
			}
			line := fmt.Sprintf("%-12s %-20s %-10s", vm.Role, vm.Name, state)
			ip, port := vm.SSHAddr()
			line += fmt.Sprintf(" %s:%d", ip, port)
			switch state {
			case host.StateRunning:
				color.Green(line)
			case host.StateOff:
				color.Red(line)
			default:
				color.Yellow(line)
			}
		}
	},
}

func statusInit() {
	statusCmd.Flags().StringVarP(&configFile, "config", "c", "", "path to harness config file")
}
