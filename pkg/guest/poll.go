package guest

import (
	"context"
	"fmt"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/lvh-project/lvh/pkg/defaults"
)

// WaitForState polls the state marker that every guest-side workload keeps
// in its working directory, sleeping interval between reads, until a
// terminal sentinel appears or the budget elapses. Read errors are
// tolerated: the guest may still be booting or mid-reboot.
//
// The returned string is the last observed state. On timeout that is
// whatever was seen last (typically TestRunning), which the result mapping
// treats as an abort; the loop itself never hangs past timeout.
func WaitForState(ctx context.Context, r Runner, workDir string, interval, timeout time.Duration) (string, error) {
	if interval <= 0 {
		interval = defaults.DefaultPollInterval
	}
	stateFile := workDir + "/" + defaults.DefaultStateFile
	start := time.Now()
	lastState := ""
	for {
		out, err := r.Run(ctx, fmt.Sprintf("cat %s 2>/dev/null", stateFile))
		if err != nil {
			log.Debugf("state poll: %s", err)
		} else {
			state := strings.TrimSpace(out)
			if state != lastState {
				log.Infof("guest state changed to: %s", state)
				lastState = state
			}
			switch state {
			case defaults.StateCompleted, defaults.StateFailed, defaults.StateAborted:
				return state, nil
			}
		}

		if time.Since(start) > timeout {
			return lastState, nil
		}
		select {
		case <-ctx.Done():
			return lastState, ctx.Err()
		case <-time.After(interval):
		}
	}
}

// WaitForMatch polls command output until matcher returns true for it, with
// the same budget discipline as WaitForState. It returns the matched output
// or an error on exhaustion.
func WaitForMatch(ctx context.Context, r Runner, command string, matcher func(string) bool, interval, timeout time.Duration) (string, error) {
	if interval <= 0 {
		interval = defaults.DefaultPollInterval
	}
	start := time.Now()
	for {
		out, err := r.Run(ctx, command)
		if err == nil && matcher(out) {
			return out, nil
		}
		if err != nil {
			log.Debugf("poll %q: %s", command, err)
		}
		if time.Since(start) > timeout {
			return "", fmt.Errorf("timeout waiting for %q to match", command)
		}
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(interval):
		}
	}
}
