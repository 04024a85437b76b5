// Package report turns accumulated summaries into the artifacts the outer
// framework consumes: a junit XML file per run and the optional SQL sink
// for performance numbers.
package report

import (
	"encoding/xml"
	"fmt"
	"os"

	"github.com/jstemmer/go-junit-report/v2/junit"

	"github.com/lvh-project/lvh/pkg/result"
)

// ToTestsuite converts one case summary into a junit testsuite: failed
// steps map to failures, aborted steps to errors, skipped steps are counted
// as skipped.
func ToTestsuite(s *result.Summary) junit.Testsuite {
	ts := junit.Testsuite{Name: s.Case}
	for _, r := range s.Records() {
		tc := junit.Testcase{
			Classname: s.Case,
			Name:      r.Name,
			Time:      fmt.Sprintf("%.3f", r.Duration.Seconds()),
		}
		switch r.Verdict {
		case result.Fail:
			tc.Failure = &junit.Result{Message: r.Message}
			ts.Failures++
		case result.Aborted:
			tc.Error = &junit.Result{Message: r.Message}
			ts.Errors++
		case result.Skipped:
			tc.Skipped = &junit.Result{Message: r.Message}
			ts.Skipped++
		}
		ts.Tests++
		ts.Testcases = append(ts.Testcases, tc)
	}
	return ts
}

// WriteJUnit writes the summaries of one run as a junit XML report.
func WriteJUnit(path string, summaries ...*result.Summary) error {
	var suites junit.Testsuites
	for _, s := range summaries {
		ts := ToTestsuite(s)
		suites.Tests += ts.Tests
		suites.Failures += ts.Failures
		suites.Errors += ts.Errors
		suites.Suites = append(suites.Suites, ts)
	}

	data, err := xml.MarshalIndent(suites, "", "\t")
	if err != nil {
		return fmt.Errorf("cannot marshal junit report: %w", err)
	}
	data = append([]byte(xml.Header), data...)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("cannot write junit report %s: %w", path, err)
	}
	return nil
}
