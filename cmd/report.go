package cmd

import (
	"fmt"

	"github.com/dustin/go-humanize"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/lvh-project/lvh/pkg/report"
	"github.com/lvh-project/lvh/pkg/utils"
)

var reportCase string

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Dump performance records from the result database",
	Run: func(cmd *cobra.Command, args []string) {
		if _, err := utils.LoadConfigFile(utils.GetConfig(configFile)); err != nil {
			log.Fatal(err)
		}
		vars, err := utils.InitVars()
		if err != nil {
			log.Fatal(err)
		}
		db, err := report.Open(vars.ResultsDB)
		if err != nil {
			log.Fatal(err)
		}
		defer db.Close()

		records, err := db.ListPerf(reportCase)
		if err != nil {
			log.Fatal(err)
		}
		for _, r := range records {
			fmt.Printf("%-25s %-20s %12.3f %-8s %s\n",
				r.TestCase, r.Metric, r.Value, r.Unit, humanize.Time(r.Timestamp))
		}
	},
}

func reportInit() {
	reportCmd.Flags().StringVar(&reportCase, "case", "", "only records of this test case")
	reportCmd.Flags().StringVarP(&configFile, "config", "c", "", "path to harness config file")
}
