package credential

import "unicode"

// CheckPassword enforces the strength policy: at least 8 characters with
// one uppercase letter, one lowercase letter, one digit, and one character
// that is neither letter nor digit. All four classes are mandatory.
func CheckPassword(password string) error {
	runes := []rune(password)
	if len(runes) < 8 {
		return ErrWeakPassword
	}
	var upper, lower, digit, special bool
	for _, r := range runes {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		default:
			special = true
		}
	}
	if !upper || !lower || !digit || !special {
		return ErrWeakPassword
	}
	return nil
}
