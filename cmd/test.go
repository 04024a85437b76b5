package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fatih/color"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/lvh-project/lvh/pkg/defaults"
	"github.com/lvh-project/lvh/pkg/report"
	"github.com/lvh-project/lvh/pkg/result"
	"github.com/lvh-project/lvh/pkg/tests"
	"github.com/lvh-project/lvh/pkg/utils"
)

var (
	testTimeout string
	testArgs    string
	configFile  string
)

var testCmd = &cobra.Command{
	Use:   "test <suite binary> [test flags]",
	Short: "Run a compiled test suite against the configured VMs",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if configFile != "" {
			os.Setenv(defaults.DefaultConfigEnv, configFile)
		}
		suite := filepath.Base(args[0])
		summary := result.NewSummary(suite)

		start := time.Now()
		err := tests.RunTest(args[0], args[1:], testArgs, testTimeout, verbosity)
		elapsed := time.Since(start)

		// a panicking or unstartable suite is an infrastructure abort,
		// not a check failure
		verdict := tests.SuiteVerdict(err)
		record := result.Record{Name: suite, Verdict: verdict, Duration: elapsed}
		if err != nil {
			record.Message = err.Error()
		}
		summary.Add(record)
		writeReport(suite, summary)

		if err != nil {
			color.Red("%-10s %s", verdict, suite)
			log.Fatal(err)
		}
		color.Green("%-10s %s", result.Pass, suite)
	},
}

// writeReport drops a junit file for the run into the configured report
// directory; a failure to write is logged, not fatal, the verdict already
// went to the console.
func writeReport(suite string, summary *result.Summary) {
	if _, err := utils.LoadConfigFile(utils.GetConfig(configFile)); err != nil {
		log.Errorf("LoadConfigFile: %s", err)
		return
	}
	vars, err := utils.InitVars()
	if err != nil {
		log.Errorf("utils.InitVars: %s", err)
		return
	}
	if err := os.MkdirAll(vars.ReportDir, 0755); err != nil {
		log.Errorf("cannot create report directory %s: %s", vars.ReportDir, err)
		return
	}
	name := fmt.Sprintf("%s-%s.xml", strings.TrimSuffix(suite, ".test"),
		time.Now().Format("20060102-150405"))
	path := filepath.Join(vars.ReportDir, name)
	if err := report.WriteJUnit(path, summary); err != nil {
		log.Error(err)
		return
	}
	log.Infof("junit report: %s", path)
}

func testInit() {
	testCmd.Flags().StringVarP(&testTimeout, "timeout", "t", "", "panic test suite after this duration")
	testCmd.Flags().StringVarP(&testArgs, "args", "a", "", "additional flags for the suite binary")
	testCmd.Flags().StringVarP(&configFile, "config", "c", "", "path to harness config file")
}
