package core

import (
	"strings"
	"unicode"
)

// NormalizePhone strips non-digits and formats a Kazakhstan number into the
// canonical +7XXXXXXXXXX form:
//
//	11 digits starting with 7  → "+" prefix
//	10 digits                  → "+7" prefix
//	11 digits starting with 87 → leading 8 replaced with +7
//
// Anything else is passed through digits-only. Fewer than 10 digits is rejected.
func NormalizePhone(raw string) (string, error) {
	var b strings.Builder
	for _, r := range raw {
		if unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	digits := b.String()

	if len(digits) < 10 {
		return "", &InvalidInputError{Field: "phone", Reason: "must contain at least 10 digits"}
	}

	switch {
	case len(digits) == 11 && strings.HasPrefix(digits, "7"):
		return "+" + digits, nil
	case len(digits) == 10:
		return "+7" + digits, nil
	case len(digits) == 11 && strings.HasPrefix(digits, "87"):
		return "+7" + digits[1:], nil
	default:
		return digits, nil
	}
}

// ValidateCustomerName requires at least two characters after trimming.
func ValidateCustomerName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if len([]rune(name)) < 2 {
		return "", &InvalidInputError{Field: "customer_name", Reason: "must be at least 2 characters"}
	}
	return name, nil
}
