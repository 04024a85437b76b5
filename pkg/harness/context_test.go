package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetDriverMode(t *testing.T) {
	modeType, target, err := GetDriverMode("hyperv://hv-host-01")
	require.NoError(t, err)
	assert.Equal(t, "hyperv", modeType)
	assert.Equal(t, "hv-host-01", target)

	modeType, target, err = GetDriverMode("fake")
	require.NoError(t, err)
	assert.Equal(t, "fake", modeType)
	assert.Empty(t, target)

	modeType, _, err = GetDriverMode("azure://")
	require.NoError(t, err)
	assert.Equal(t, "azure", modeType)
}
