// Package isotime formats timestamps as fixed-width ISO 8601 UTC strings.
// The width is constant (millisecond precision, trailing zeros kept, always
// "Z"), so lexicographic comparison of two stamps is also chronological
// comparison. The draft store and case cache rely on this when ordering
// entries by their serialized UpdatedAt values.
package isotime

import "time"

// Layout is the fixed-width ISO 8601 layout used for all persisted timestamps.
const Layout = "2006-01-02T15:04:05.000Z"

// Now returns the current time formatted with Layout.
func Now() string {
	return Format(time.Now())
}

// Format renders t in UTC with Layout.
func Format(t time.Time) string {
	return t.UTC().Format(Layout)
}

// Parse reads a stamp produced by Format. It also accepts plain RFC 3339 so
// stamps written by older clients remain readable.
func Parse(s string) (time.Time, error) {
	t, err := time.Parse(Layout, s)
	if err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}

// Before reports whether stamp a is chronologically earlier than b. For
// stamps produced by Format this is a plain string comparison; malformed
// stamps sort first so they age out ahead of valid ones.
func Before(a, b string) bool {
	return a < b
}
