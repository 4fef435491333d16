package locale

import (
	"strings"

	"github.com/nyaruka/phonenumbers"
)

// InferCountryCode returns the ISO region of an E.164 phone number, or ""
// when the number cannot be attributed to a region.
func InferCountryCode(phone string) string {
	normalized := strings.TrimSpace(phone)
	if !strings.HasPrefix(normalized, "+") {
		return ""
	}

	num, err := phonenumbers.Parse(normalized, "")
	if err != nil {
		return ""
	}

	region := phonenumbers.GetRegionCodeForNumber(num)
	if region == "ZZ" {
		return ""
	}
	return region
}

// InferCountryFromPhone returns the known Country of phone, or nil.
func InferCountryFromPhone(phone string) *Country {
	country, ok := Countries[InferCountryCode(phone)]
	if !ok {
		return nil
	}
	return &country
}

func InferTimezoneFromPhone(phone string) string {
	if country := InferCountryFromPhone(phone); country != nil {
		return country.DefaultTimezone
	}
	return DefaultTimezone
}
