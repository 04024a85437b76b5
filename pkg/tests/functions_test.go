package tests

import (
	"fmt"
	"os/exec"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lvh-project/lvh/pkg/result"
)

// exitError produces a real *exec.ExitError with the wanted code, wrapped
// the way RunTest wraps it.
func exitError(t *testing.T, code int) error {
	t.Helper()
	err := exec.Command("/bin/sh", "-c", fmt.Sprintf("exit %d", code)).Run()
	require.Error(t, err)
	return fmt.Errorf("suite failed: %w", err)
}

func TestSuiteVerdict(t *testing.T) {
	assert.Equal(t, result.Pass, SuiteVerdict(nil))

	// exit 1 is a plain test failure
	assert.Equal(t, result.Fail, SuiteVerdict(exitError(t, 1)))

	// a panicking test binary exits with 2, which is not a check failure
	assert.Equal(t, result.Aborted, SuiteVerdict(exitError(t, 2)))

	// a binary that never started carries no exit code
	assert.Equal(t, result.Aborted, SuiteVerdict(fmt.Errorf("test binary not found")))
}
