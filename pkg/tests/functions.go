// Package tests runs compiled suite binaries: the runner CLI and every
// suite's TestMain go through here.
package tests

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/lvh-project/lvh/pkg/defaults"
	"github.com/lvh-project/lvh/pkg/result"
	"github.com/lvh-project/lvh/pkg/utils"
)

var configFlag = flag.String("config", "", "path to the harness config file")

//TestArgsParse parses the standard suite flags and exports the config
//location for the context the suite builds next.
func TestArgsParse() {
	if !flag.Parsed() {
		flag.Parse()
	}
	if *configFlag != "" {
		os.Setenv(defaults.DefaultConfigEnv, *configFlag)
	}
}

//SuiteVerdict maps the runner outcome to a case verdict. A clean exit is
//PASS and exit code 1 is the ordinary test failure; anything else (a
//panicking test binary exits with 2, a signalled one with -1, a binary that
//could not start has no exit code at all) is an infrastructure abort.
func SuiteVerdict(err error) result.Verdict {
	if err == nil {
		return result.Pass
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && exitErr.ExitCode() == 1 {
		return result.Fail
	}
	return result.Aborted
}

//RunTest -- single suite runner.
func RunTest(testApp string, args []string, testArgs string, testTimeout string, verbosity string) error {
	if testApp == "" {
		return fmt.Errorf("no test binary specified")
	}
	log.Debug("testApp: ", testApp)

	path, err := exec.LookPath(testApp)
	if err != nil {
		resolved := utils.ResolveAbsPath(testApp)
		if _, statErr := os.Stat(resolved); statErr != nil {
			return fmt.Errorf("test binary %s not found: %w", testApp, statErr)
		}
		path = resolved
	}
	log.Debug("testProg: ", path)

	if testTimeout != "" {
		args = append(args, "-test.timeout", testTimeout)
	}
	if verbosity != "info" {
		args = append(args, "-test.v")
	}

	done := make(chan bool, 1)
	go func() {
		ticker := time.NewTicker(defaults.DefaultRepeatTimeout * defaults.DefaultRepeatCount)
		defer ticker.Stop()
		for {
			select {
			case tickTime := <-ticker.C:
				//we need to log periodically to avoid stopping of ci/cd system
				log.Infof("Test is running: %s", tickTime.Format(time.RFC3339))
			case <-done:
				return
			}
		}
	}()
	defer close(done)

	resultArgs := append(args, strings.Fields(testArgs)...)
	log.Debugf("Test: %s %s", path, strings.Join(resultArgs, " "))
	tst := exec.Command(path, resultArgs...)
	tst.Stdout = os.Stdout
	tst.Stderr = os.Stderr
	if err := tst.Run(); err != nil {
		return fmt.Errorf("suite %s failed: %w", testApp, err)
	}
	return nil
}
