package sanitizer

import (
	"strings"

	"github.com/nyaruka/phonenumbers"
)

// DefaultRegions are tried, in order, for numbers written without a
// country code.
var DefaultRegions = []string{"PT", "ES"}

// NormalizePhone returns phone in E.164 form, or "" when it cannot be a
// phone number in any of the given regions (DefaultRegions when none).
func NormalizePhone(phone string, regions ...string) string {
	phone = strings.TrimSpace(phone)

	if phone == "" {
		return ""
	}
	if len(regions) == 0 {
		regions = DefaultRegions
	}

	for _, region := range regions {
		parsedNumber, err := phonenumbers.Parse(phone, strings.ToUpper(region))
		if err != nil || !phonenumbers.IsPossibleNumber(parsedNumber) {
			continue
		}
		return phonenumbers.Format(parsedNumber, phonenumbers.E164)
	}
	return ""
}

// MaskPhone keeps the country prefix and the last three digits.
func MaskPhone(phone string) string {
	if len(phone) <= 7 {
		return strings.Repeat("*", len(phone))
	}
	return phone[:4] + strings.Repeat("*", len(phone)-7) + phone[len(phone)-3:]
}
