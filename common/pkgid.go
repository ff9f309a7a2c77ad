package common

import (
	"fmt"
	"strings"
	"unicode"
)

// NormalizePackageID normalizes and validates a package identifier used as a
// mapping key in implementor fragments.
//
// Identifiers follow common package registry naming: ASCII letters, digits,
// '_' and '-', starting with a letter or digit.
func NormalizePackageID(in string) (string, error) {
	s := strings.TrimSpace(in)
	if s == "" {
		return "", fmt.Errorf("package identifier is empty")
	}

	// Be forgiving about stray whitespace inside the name.
	s = strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)

	for i := 0; i < len(s); i++ {
		c := s[i]
		isDigit := c >= '0' && c <= '9'
		isAlpha := c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z'
		if i == 0 && !isDigit && !isAlpha {
			return "", fmt.Errorf("package identifier must start with a letter or digit, got %q", c)
		}
		if !isDigit && !isAlpha && c != '_' && c != '-' {
			return "", fmt.Errorf("package identifier must be alphanumeric with '_' or '-', got %q", c)
		}
	}

	return s, nil
}
