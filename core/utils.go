package core

import (
	"math/rand"
	"strings"
)

// CleanString trims all leading and trailing whitespace in `s` and optionally lowers it.
func CleanString(s string, lower ...bool) string {
	s = strings.TrimSpace(s)
	if len(lower) > 0 && lower[0] {
		return strings.ToLower(s)
	}
	return s
}

// RandomCode returns a code of `n` characters drawn from `alphabet`.
// Used for family join codes, daily pickup codes and invite codes; these are
// short-lived shared secrets, not cryptographic material.
func RandomCode(alphabet string, n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = alphabet[rand.Intn(len(alphabet))]
	}
	return string(b)
}

// RandomDigits returns a numeric code of `n` digits with no leading zero.
func RandomDigits(n int) string {
	const digits = "0123456789"
	b := make([]byte, n)
	b[0] = digits[1+rand.Intn(9)]
	for i := 1; i < n; i++ {
		b[i] = digits[rand.Intn(len(digits))]
	}
	return string(b)
}
