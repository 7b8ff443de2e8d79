package auth

import (
	"github.com/nyaruka/phonenumbers"
)

// DefaultPhoneRegion is used for numbers written without a country code
const DefaultPhoneRegion = "VN"

// IsPossiblePhone reports whether value parses as a possible number,
// local numbers are read in DefaultPhoneRegion.
func IsPossiblePhone(value string) bool {
	num, err := phonenumbers.Parse(value, DefaultPhoneRegion)
	if err != nil {
		return false
	}
	return phonenumbers.IsPossibleNumber(num)
}
