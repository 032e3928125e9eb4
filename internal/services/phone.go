package services

import (
	"fmt"
	"strings"
)

// PhoneLength is the number of digits in a normalized phone.
const PhoneLength = 11

var phoneNoise = strings.NewReplacer(" ", "", "-", "", "(", "", ")", "", "\t", "")

// NormalizePhone converts a phone as typed or shared by a user into the
// canonical 11-digit form starting with 8. "+7XXXXXXXXXX" and "7XXXXXXXXXX"
// both become "8XXXXXXXXXX". After a "+" the first digit is replaced
// unchecked, so "+1XXXXXXXXXX" is accepted the same way.
func NormalizePhone(raw string) (string, error) {
	phone := phoneNoise.Replace(strings.TrimSpace(raw))

	switch {
	case strings.HasPrefix(phone, "+"):
		if len(phone) < 2 {
			return "", fmt.Errorf("%w: %q", ErrInvalidFormat, raw)
		}
		phone = "8" + phone[2:]
	case strings.HasPrefix(phone, "7"):
		phone = "8" + phone[1:]
	}

	if len(phone) != PhoneLength || phone[0] != '8' {
		return "", fmt.Errorf("%w: %q", ErrInvalidFormat, raw)
	}
	for _, r := range phone {
		if r < '0' || r > '9' {
			return "", fmt.Errorf("%w: %q", ErrInvalidFormat, raw)
		}
	}
	return phone, nil
}
