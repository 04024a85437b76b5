// Package params resolves the semicolon-delimited test parameter strings
// that test definitions hand to every case, e.g.
// "TC_COVERED=KVP-02;sshFailTimeout=600;stressMB=2048".
package params

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Params is a flat mapping of string keys to string values. Keys are
// case-insensitive; no nesting is supported.
type Params map[string]string

// Parse splits a semicolon-delimited key=value line into Params.
// Empty segments are skipped, values may contain '='.
func Parse(line string) Params {
	p := Params{}
	for _, segment := range strings.Split(line, ";") {
		segment = strings.TrimSpace(segment)
		if segment == "" {
			continue
		}
		split := strings.SplitN(segment, "=", 2)
		if len(split) != 2 {
			continue
		}
		key := strings.ToLower(strings.TrimSpace(split[0]))
		if key == "" {
			continue
		}
		p[key] = strings.TrimSpace(split[1])
	}
	return p
}

// Has reports whether the key was provided, regardless of its value.
func (p Params) Has(key string) bool {
	_, ok := p[strings.ToLower(key)]
	return ok
}

// String returns the value for key or def if the key is absent.
func (p Params) String(key, def string) string {
	if v, ok := p[strings.ToLower(key)]; ok {
		return v
	}
	return def
}

// Int parses the value for key as a decimal integer.
func (p Params) Int(key string) (int, error) {
	v, ok := p[strings.ToLower(key)]
	if !ok {
		return 0, fmt.Errorf("parameter %s is not set", key)
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("parameter %s=%q is not an integer: %w", key, v, err)
	}
	return n, nil
}

// IntDefault is Int with a fallback for absent or malformed values.
func (p Params) IntDefault(key string, def int) int {
	n, err := p.Int(key)
	if err != nil {
		return def
	}
	return n
}

// Float parses the value for key as a float.
func (p Params) Float(key string) (float64, error) {
	v, ok := p[strings.ToLower(key)]
	if !ok {
		return 0, fmt.Errorf("parameter %s is not set", key)
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("parameter %s=%q is not a number: %w", key, v, err)
	}
	return f, nil
}

// Bool reports the value for key as a boolean. "yes", "true" and "1" are
// true, anything else including an absent key is false.
func (p Params) Bool(key string) bool {
	switch strings.ToLower(p.String(key, "")) {
	case "yes", "true", "1":
		return true
	}
	return false
}

// Duration parses the value for key as seconds.
func (p Params) Duration(key string) (time.Duration, error) {
	secs, err := p.Int(key)
	if err != nil {
		return 0, err
	}
	return time.Duration(secs) * time.Second, nil
}

// Require returns an error naming every mandatory key that is missing.
func (p Params) Require(keys ...string) error {
	var missing []string
	for _, key := range keys {
		if !p.Has(key) {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("mandatory test parameters missing: %s", strings.Join(missing, ", "))
	}
	return nil
}

// Render serializes Params into the body of the constants file sourced by
// guest-side scripts, one key=value per line in stable order.
func (p Params) Render() string {
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var b strings.Builder
	for _, k := range keys {
		b.WriteString(k)
		b.WriteString("=")
		b.WriteString(p[k])
		b.WriteString("\n")
	}
	return b.String()
}
