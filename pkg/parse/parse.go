// Package parse scrapes the log and result files guest workloads leave
// behind: regex field extraction, CSV result rows and the threshold
// comparisons that turn numbers into verdicts.
package parse

import (
	"encoding/csv"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Float extracts the first capture group of re from text as a float.
func Float(re *regexp.Regexp, text string) (float64, error) {
	match := re.FindStringSubmatch(text)
	if len(match) < 2 {
		return 0, fmt.Errorf("pattern %q not found in output", re.String())
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(match[1]), 64)
	if err != nil {
		return 0, fmt.Errorf("pattern %q matched non-numeric %q: %w", re.String(), match[1], err)
	}
	return f, nil
}

// Int extracts the first capture group of re from text as an integer.
func Int(re *regexp.Regexp, text string) (int64, error) {
	f, err := Float(re, text)
	if err != nil {
		return 0, err
	}
	return int64(f), nil
}

// CSVRows decodes a headered CSV result file into one map per data row.
func CSVRows(text string) ([]map[string]string, error) {
	r := csv.NewReader(strings.NewReader(strings.TrimSpace(text)))
	r.TrimLeadingSpace = true
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("cannot parse csv results: %w", err)
	}
	if len(records) < 2 {
		return nil, fmt.Errorf("csv results have no data rows")
	}
	header := records[0]
	rows := make([]map[string]string, 0, len(records)-1)
	for _, record := range records[1:] {
		if len(record) != len(header) {
			return nil, fmt.Errorf("csv row has %d fields, header has %d", len(record), len(header))
		}
		row := map[string]string{}
		for i, name := range header {
			row[strings.TrimSpace(name)] = strings.TrimSpace(record[i])
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// MeetsMin reports whether value satisfies a minimum threshold. A value
// exactly equal to the threshold passes; the check fails exactly when the
// post-condition comparison fails.
func MeetsMin(value, threshold float64) bool {
	return value >= threshold
}

// WithinMax reports whether value stays at or under a maximum threshold.
func WithinMax(value, threshold float64) bool {
	return value <= threshold
}

// Grew reports whether after improved over before by at least delta.
// Used for before/after snapshots such as memory demand under stress.
func Grew(before, after, delta float64) bool {
	return after-before >= delta
}

// CallTraces returns the lines of a dmesg dump that carry kernel call
// traces, the standard post-test health scrape.
func CallTraces(dmesg string) []string {
	var hits []string
	for _, line := range strings.Split(dmesg, "\n") {
		if strings.Contains(line, "Call Trace") || strings.Contains(line, "rcu_sched self-detected stall") {
			hits = append(hits, strings.TrimSpace(line))
		}
	}
	return hits
}
