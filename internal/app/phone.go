package app

import "strings"

// DefaultCountryCode is the calling code used for local numbers (Sri Lanka).
const DefaultCountryCode = "+94"

// FormatPhoneNumber converts a local phone number into international form.
// A leading trunk prefix 0 is replaced by the country code, numbers already starting
// with + are returned unchanged, and anything else gets the country code prepended.
func FormatPhoneNumber(phoneNumber, countryCode string) string {
	if countryCode == "" {
		countryCode = DefaultCountryCode
	}
	switch {
	case strings.HasPrefix(phoneNumber, "0"):
		return countryCode + phoneNumber[1:]
	case strings.HasPrefix(phoneNumber, "+"):
		return phoneNumber
	default:
		return countryCode + phoneNumber
	}
}
