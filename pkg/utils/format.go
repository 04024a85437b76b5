package utils

import (
	"fmt"
	"time"
)

// AddTimestamp wraps string with time
func AddTimestamp(inp string) string {
	return fmt.Sprintf("time: %s out: %s", time.Now().Format(time.RFC3339Nano), inp)
}

// AddTimestampf works like AddTimestamp for a format string
func AddTimestampf(format string, args ...interface{}) string {
	return AddTimestamp(fmt.Sprintf(format, args...))
}
