package guest

import (
	"context"
	"fmt"
	"os"
	"path"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/lvh-project/lvh/pkg/defaults"
	"github.com/lvh-project/lvh/pkg/params"
	"github.com/lvh-project/lvh/pkg/result"
)

// ScriptRun describes one guest-side workload invocation.
type ScriptRun struct {
	// Script is the local path of the shell script to upload and run.
	Script string
	// Params are rendered into the constants file next to the script.
	Params params.Params
	// WorkDir is the guest directory the workload runs in.
	WorkDir string
	// Timeout bounds the state-file poll.
	Timeout time.Duration
	// Interval overrides the default poll interval when non-zero.
	Interval time.Duration
	// LogDir, when set, receives the execution and summary logs fetched
	// from the guest after the run.
	LogDir string
}

// RunTestScript uploads the script and its constants file, starts it in the
// background, polls the state marker and maps the terminal state to a
// verdict. Setup failures surface as errors (the case is aborted);
// workload outcomes surface as verdicts.
func (c *Client) RunTestScript(ctx context.Context, run ScriptRun) (result.Verdict, string, error) {
	if run.WorkDir == "" {
		run.WorkDir = defaults.DefaultGuestHomeDir
	}
	if run.Timeout == 0 {
		run.Timeout = defaults.DefaultTestTimeout
	}

	scriptName := path.Base(run.Script)
	remoteScript := run.WorkDir + "/" + scriptName
	if err := c.CopyTo(run.Script, remoteScript); err != nil {
		return result.Aborted, "", err
	}

	if len(run.Params) > 0 {
		constants, err := stageConstants(run.Params)
		if err != nil {
			return result.Aborted, "", err
		}
		defer os.Remove(constants)
		if err := c.CopyTo(constants, run.WorkDir+"/"+defaults.DefaultConstantsFile); err != nil {
			return result.Aborted, "", err
		}
	}

	if _, err := c.Run(ctx, prepCommand(run.WorkDir, scriptName)); err != nil {
		return result.Aborted, "", err
	}

	if _, err := c.Run(ctx, launchCommand(run.WorkDir, scriptName)); err != nil {
		return result.Aborted, "", err
	}

	state, err := WaitForState(ctx, c, run.WorkDir, run.Interval, run.Timeout)
	if err != nil {
		return result.Aborted, "", err
	}

	if run.LogDir != "" {
		c.fetchLogs(ctx, run.WorkDir, run.LogDir)
	}

	verdict, message := result.FromGuestState(state)
	return verdict, message, nil
}

// prepCommand clears every artifact a previous case may have left in the
// working directory (state marker, summary and execution logs) and makes
// the freshly uploaded script runnable.
func prepCommand(workDir, scriptName string) string {
	return fmt.Sprintf("cd %s && rm -f %s %s %s && chmod +x %s && dos2unix %s 2>/dev/null; true",
		workDir, defaults.DefaultStateFile, defaults.DefaultSummaryLog, defaults.DefaultExecutionLog,
		scriptName, scriptName)
}

// launchCommand detaches the workload from the session. nohup has to wrap
// the script invocation itself; applied to the cd builtin it fails and the
// script never starts.
func launchCommand(workDir, scriptName string) string {
	return fmt.Sprintf("cd %s && nohup bash %s > %s 2>&1 < /dev/null &",
		workDir, scriptName, defaults.DefaultExecutionLog)
}

// fetchLogs downloads the standard workload logs; a missing log is not an
// error, some scripts only write one of them.
func (c *Client) fetchLogs(ctx context.Context, workDir, logDir string) {
	for _, name := range []string{defaults.DefaultExecutionLog, defaults.DefaultSummaryLog} {
		if _, err := c.CopyFrom(ctx, workDir+"/"+name, logDir); err != nil {
			log.Debugf("fetch %s: %s", name, err)
		}
	}
}

func stageConstants(p params.Params) (string, error) {
	f, err := os.CreateTemp("", defaults.DefaultConstantsFile)
	if err != nil {
		return "", fmt.Errorf("cannot stage constants file: %w", err)
	}
	if _, err := f.WriteString(p.Render()); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", err
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", err
	}
	return f.Name(), nil
}
