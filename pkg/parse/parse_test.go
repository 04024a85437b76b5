package parse

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const iperfTail = `[ ID] Interval           Transfer     Bitrate
[  5]   0.00-60.00  sec  32.9 GBytes  4.71 Gbits/sec                  receiver
`

func TestFloat(t *testing.T) {
	re := regexp.MustCompile(`([0-9.]+) Gbits/sec`)
	v, err := Float(re, iperfTail)
	require.NoError(t, err)
	assert.InDelta(t, 4.71, v, 1e-9)

	_, err = Float(re, "no throughput line here")
	assert.Error(t, err)
}

func TestInt(t *testing.T) {
	re := regexp.MustCompile(`MemFree:\s+(\d+) kB`)
	v, err := Int(re, "MemTotal: 2097152 kB\nMemFree:  1048576 kB\n")
	require.NoError(t, err)
	assert.Equal(t, int64(1048576), v)
}

func TestCSVRows(t *testing.T) {
	rows, err := CSVRows("tool, rx_gbps, latency_us\niperf3, 4.71, 85\nntttcp, 5.02, 91\n")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "4.71", rows[0]["rx_gbps"])
	assert.Equal(t, "ntttcp", rows[1]["tool"])

	_, err = CSVRows("tool, rx_gbps\n")
	assert.Error(t, err, "header without data rows")

	_, err = CSVRows("a,b\n1\n")
	assert.Error(t, err, "ragged row")
}

func TestThresholdBoundaries(t *testing.T) {
	// a post value exactly equal to the minimum threshold passes
	assert.True(t, MeetsMin(4.0, 4.0))
	assert.True(t, MeetsMin(4.1, 4.0))
	assert.False(t, MeetsMin(3.999, 4.0))

	assert.True(t, WithinMax(100, 100))
	assert.False(t, WithinMax(100.001, 100))

	// before/after snapshot needs at least delta of growth; exactly delta passes
	assert.True(t, Grew(1024, 1536, 512))
	assert.False(t, Grew(1024, 1535, 512))
}

func TestCallTraces(t *testing.T) {
	dmesg := `[    1.0] systemd[1]: Started udev.
[  100.2] Call Trace:
[  100.3]  dump_stack+0x6d/0x8b
[  200.0] rcu_sched self-detected stall on CPU`
	hits := CallTraces(dmesg)
	require.Len(t, hits, 2)
	assert.Contains(t, hits[0], "Call Trace")

	assert.Empty(t, CallTraces("[ 1.0] clean boot\n"))
}
