package cmd

import (
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	rootCmd   = &cobra.Command{Use: "lvh"}
	verbosity string
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&verbosity, "verbosity", "v", "info", "Log level (debug, info, warn, error, fatal, panic)")
	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		level, err := log.ParseLevel(verbosity)
		if err != nil {
			log.Fatal(err)
		}
		log.SetLevel(level)
	}
	rootCmd.AddCommand(testCmd)
	testInit()
	rootCmd.AddCommand(statusCmd)
	statusInit()
	rootCmd.AddCommand(configCmd)
	configInit()
	rootCmd.AddCommand(reportCmd)
	reportInit()
}

// Execute primary function for cobra
func Execute() {
	_ = rootCmd.Execute()
}
