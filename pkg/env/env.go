package env

import "os"

// Get reads an environment variable, falling back when it is unset or empty.
func Get(key, fallback string) string {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	return val
}
