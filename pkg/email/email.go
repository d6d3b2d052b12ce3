// Package email holds address validation and the name-derivation rule used
// when accounts are created without explicit names.
package email

import (
	"regexp"
	"strings"
	"unicode"
)

var addressRe = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// IsValidAddress reports whether s looks like a deliverable email address.
// Intentionally loose; the mail relay is the final arbiter.
func IsValidAddress(s string) bool {
	return len(s) <= 254 && addressRe.MatchString(s)
}

// DeriveNameFromEmail turns the local part of an address into a (first, last)
// pair. "ravi.kumar@x" becomes ("Ravi", "Kumar"); a single-word local part
// gets "User" as the last name, and an empty one yields ("User", "User").
func DeriveNameFromEmail(email string) (string, string) {
	local, _, _ := strings.Cut(email, "@")
	if local == "" {
		local = email
	}

	words := splitLocalPart(local)
	switch len(words) {
	case 0:
		return "User", "User"
	case 1:
		return title(words[0]), "User"
	default:
		return title(words[0]), title(words[len(words)-1])
	}
}

func splitLocalPart(local string) []string {
	return strings.FieldsFunc(local, func(r rune) bool {
		switch r {
		case '.', '_', '-', '+':
			return true
		}
		return false
	})
}

func title(word string) string {
	if word == "" {
		return word
	}
	r := []rune(word)
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}
