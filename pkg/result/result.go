// Package result defines the closed set of test verdicts and the reduction
// of per-step records into the final status reported to the framework.
package result

import (
	"fmt"
	"strings"
	"time"

	"github.com/lvh-project/lvh/pkg/defaults"
)

// Verdict is the outcome of a single test step or a whole case.
type Verdict string

const (
	Pass    Verdict = "PASS"
	Fail    Verdict = "FAIL"
	Aborted Verdict = "ABORTED"
	Skipped Verdict = "SKIPPED"
)

// FromGuestState maps the sentinel read from the guest state file to a
// verdict. The mapping is total: unknown content aborts the case.
// A guest still in TestRunning when the poll budget elapsed aborts the case
// with a warning attached to the returned message.
func FromGuestState(state string) (Verdict, string) {
	switch strings.TrimSpace(state) {
	case defaults.StateCompleted:
		return Pass, ""
	case defaults.StateFailed:
		return Fail, "guest reported TestFailed"
	case defaults.StateAborted:
		return Aborted, "guest reported TestAborted"
	case defaults.StateRunning:
		return Aborted, "guest workload still running when the timeout elapsed"
	default:
		return Aborted, fmt.Sprintf("unexpected guest state %q", strings.TrimSpace(state))
	}
}

// Record is the outcome of one step of a test case.
type Record struct {
	Name     string
	Verdict  Verdict
	Message  string
	Duration time.Duration
}

// Summary accumulates per-step records for one test case.
type Summary struct {
	Case    string
	records []Record
}

// NewSummary creates an empty summary for the named case.
func NewSummary(testCase string) *Summary {
	return &Summary{Case: testCase}
}

// Add appends a step record.
func (s *Summary) Add(r Record) {
	s.records = append(s.records, r)
}

// Addf records a step outcome with a formatted message.
func (s *Summary) Addf(name string, v Verdict, format string, args ...interface{}) {
	s.Add(Record{Name: name, Verdict: v, Message: fmt.Sprintf(format, args...)})
}

// Records returns the accumulated step records.
func (s *Summary) Records() []Record {
	return s.records
}

// Verdict reduces the accumulated records to the final case status.
// Precedence is FAIL over ABORTED over PASS over SKIPPED; a summary with no
// records means no result was ever assigned and the case is ABORTED.
func (s *Summary) Verdict() Verdict {
	if len(s.records) == 0 {
		return Aborted
	}
	final := Skipped
	for _, r := range s.records {
		switch r.Verdict {
		case Fail:
			return Fail
		case Aborted:
			final = Aborted
		case Pass:
			if final != Aborted {
				final = Pass
			}
		}
	}
	return final
}

// String renders the summary in the per-step form kept in the run log.
func (s *Summary) String() string {
	var b strings.Builder
	for _, r := range s.records {
		fmt.Fprintf(&b, "%-10s %s", r.Verdict, r.Name)
		if r.Message != "" {
			fmt.Fprintf(&b, ": %s", r.Message)
		}
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "%-10s %s\n", s.Verdict(), s.Case)
	return b.String()
}
