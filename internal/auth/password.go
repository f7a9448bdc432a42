package auth

import (
	"fmt"
	"strings"
	"unicode"
)

// passwordSymbols is the punctuation set accepted for the symbol rule.
const passwordSymbols = `!@#$%^&*()-_=+[]{};:'",.<>/?\|~` + "`"

// minPasswordLength is the minimum accepted password length.
const minPasswordLength = 8

// WeakPasswordError reports the first complexity rule a password failed.
type WeakPasswordError struct {
	Rule string
}

func (e *WeakPasswordError) Error() string {
	return fmt.Sprintf("weak password: %s", e.Rule)
}

// CheckPassword validates password complexity before hashing.
// Rules are checked in a fixed order and the first unmet rule is
// reported: length, uppercase, lowercase, digit, symbol.
func CheckPassword(password string) error {
	if len(password) < minPasswordLength {
		return &WeakPasswordError{Rule: fmt.Sprintf("must be at least %d characters", minPasswordLength)}
	}

	var hasUpper, hasLower, hasDigit, hasSymbol bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		case strings.ContainsRune(passwordSymbols, r):
			hasSymbol = true
		}
	}

	switch {
	case !hasUpper:
		return &WeakPasswordError{Rule: "must contain an uppercase letter"}
	case !hasLower:
		return &WeakPasswordError{Rule: "must contain a lowercase letter"}
	case !hasDigit:
		return &WeakPasswordError{Rule: "must contain a digit"}
	case !hasSymbol:
		return &WeakPasswordError{Rule: "must contain a symbol"}
	}

	return nil
}
