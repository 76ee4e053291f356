package redis

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	// KeyPrefixReport is the prefix for stored reports
	KeyPrefixReport = "bmc:report:"
	// KeyReports is the sorted set of report keys scored by generation time
	KeyReports = "bmc:reports"
)

// ReportKey returns the Redis key for a report generated at t
func ReportKey(t time.Time) string {
	return KeyPrefixReport + strconv.FormatInt(t.UnixNano(), 10)
}

// ReportsKey returns the key of the report index
func ReportsKey() string {
	return KeyReports
}

// ReportTime extracts the generation time from a report key
func ReportTime(key string) (time.Time, error) {
	raw, ok := strings.CutPrefix(key, KeyPrefixReport)
	if !ok || raw == "" {
		return time.Time{}, fmt.Errorf("invalid report key: %s", key)
	}
	ns, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid report key %s: %w", key, err)
	}
	return time.Unix(0, ns).UTC(), nil
}
