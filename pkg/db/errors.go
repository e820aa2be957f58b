package db

import "strings"

// IsUniqueViolation reports whether the provided error references a unique
// constraint failure. Both the sqlite and postgres drivers surface the
// constraint through the error text.
func IsUniqueViolation(err error, constraintName string) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	if constraintName != "" && strings.Contains(msg, constraintName) {
		return true
	}
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key value")
}
