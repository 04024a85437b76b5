package report

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lvh-project/lvh/pkg/result"
)

func sampleSummary() *result.Summary {
	s := result.NewSummary("NET-PERF-01")
	s.Addf("ping", result.Pass, "")
	s.Addf("iperf", result.Fail, "throughput 3.9 below 4.0")
	s.Addf("vxlan", result.Skipped, "kernel too old")
	s.Addf("teardown", result.Aborted, "ssh lost")
	return s
}

func TestToTestsuite(t *testing.T) {
	ts := ToTestsuite(sampleSummary())
	assert.Equal(t, "NET-PERF-01", ts.Name)
	assert.Equal(t, 4, ts.Tests)
	assert.Equal(t, 1, ts.Failures)
	assert.Equal(t, 1, ts.Errors)
	assert.Equal(t, 1, ts.Skipped)
	require.Len(t, ts.Testcases, 4)
	require.NotNil(t, ts.Testcases[1].Failure)
	assert.Contains(t, ts.Testcases[1].Failure.Message, "3.9")
	assert.Nil(t, ts.Testcases[0].Failure)
}

func TestWriteJUnit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "junit.xml")
	require.NoError(t, WriteJUnit(path, sampleSummary()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "<testsuites")
	assert.Contains(t, string(data), `name="NET-PERF-01"`)
	assert.Contains(t, string(data), "failures=")
}

func TestSQLiteRoundTrip(t *testing.T) {
	db, err := Open(filepath.Join(t.TempDir(), "results.db"))
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, db.InsertPerf(PerfRecord{
		TestCase: "NET-PERF-01",
		Metric:   "rx_throughput",
		Value:    4.71,
		Unit:     "Gbps",
		Guest:    "ubuntu-22.04",
		Host:     "hv-host-01",
	}))
	require.NoError(t, db.InsertPerf(PerfRecord{
		TestCase: "STOR-PERF-02",
		Metric:   "iops",
		Value:    118000,
		Unit:     "iops",
	}))

	records, err := db.ListPerf("NET-PERF-01")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "rx_throughput", records[0].Metric)
	assert.InDelta(t, 4.71, records[0].Value, 1e-9)
	assert.False(t, records[0].Timestamp.IsZero())

	all, err := db.ListPerf("")
	require.NoError(t, err)
	assert.Len(t, all, 2)
}
