// Package contact normalizes contact details before they are compared or stored.
package contact

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// NormalizeEmail trims and lowercases an email address.
func NormalizeEmail(email string) string {
	// Casers keep state and must not be shared between goroutines.
	return cases.Lower(language.Und).String(norm.NFC.String(strings.TrimSpace(email)))
}

// NormalizePhone drops every character that is not an ASCII digit,
// so "(555) 123-4567" and "555.123.4567" compare equal.
func NormalizePhone(phone string) string {
	return strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, phone)
}

// NormalizeName trims surrounding whitespace and composes the name to NFC.
func NormalizeName(name string) string {
	return norm.NFC.String(strings.TrimSpace(name))
}
