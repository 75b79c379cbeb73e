package contacts

import (
	"regexp"
	"strings"
)

// Minimal address shape: one @, no whitespace, a dot in the domain.
// Deliberately not RFC 5322; exotic addresses that fail here are an
// accepted false negative for this tool.
var emailShape = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// The starter sheet ships with this placeholder address. Blocking it and
// the reserved test domains prevents accidental sends when the operator
// forgets to replace the example rows.
const placeholderAddress = "exemplo@dominio.com"

var blockedDomainSuffixes = []string{"@example.com", "@test.com"}

// ValidEmail reports whether the address is eligible to receive mail:
// syntactically plausible and not a placeholder or test-domain address.
// Pure function, no I/O.
func ValidEmail(email string) bool {
	email = strings.TrimSpace(email)
	if email == "" {
		return false
	}
	if !emailShape.MatchString(email) {
		return false
	}
	lower := strings.ToLower(email)
	if lower == placeholderAddress {
		return false
	}
	for _, suffix := range blockedDomainSuffixes {
		if strings.HasSuffix(lower, suffix) {
			return false
		}
	}
	return true
}
