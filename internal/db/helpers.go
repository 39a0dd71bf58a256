package db

import "time"

// nilIfZeroTime converts a zero time.Time to nil for nullable timestamp
// columns, so zero values become SQL NULL instead of 0001-01-01.
func nilIfZeroTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t
}

// nilIfEmpty converts an empty string to nil for nullable text columns.
func nilIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// derefTime converts a nullable scan target back to a zero-value time.
func derefTime(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return *t
}

// derefString converts a nullable scan target back to an empty string.
func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
