// Package phone normalises client phone numbers.
package phone

import (
	"strings"

	"github.com/nyaruka/phonenumbers"
)

// The agency works with French clients; numbers without a country prefix
// are read as French.
const defaultRegion = "FR"

// NormalizeE164 formats a phone number to E.164. If parsing fails, it returns the trimmed input.
func NormalizeE164(input string) string {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return trimmed
	}

	number, err := phonenumbers.Parse(trimmed, defaultRegion)
	if err != nil || !phonenumbers.IsValidNumber(number) {
		return trimmed
	}

	return phonenumbers.Format(number, phonenumbers.E164)
}

// IsValid reports whether input parses as a valid number. Empty input is valid
// since the phone field is optional.
func IsValid(input string) bool {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return true
	}
	number, err := phonenumbers.Parse(trimmed, defaultRegion)
	return err == nil && phonenumbers.IsValidNumber(number)
}
