// Package validators contains validators found throughout the application
// that have been abstracted away from the main code
package validators

import "strings"

// NormalizeEmail trims and case-folds an email address. Every lookup and
// every insert goes through it so uniqueness is case-insensitive.
func NormalizeEmail(e string) string {
	return strings.ToLower(strings.TrimSpace(e))
}
