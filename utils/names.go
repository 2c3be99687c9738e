// Package utils provides utility functions for the application.
package utils

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// forbiddenNameRunes are characters that can never appear in an account name.
const forbiddenNameRunes = "#<>[]|{}/@:"

// NormalizeAccountName canonicalizes a user-supplied account name: underscores
// become spaces, surrounding whitespace is trimmed, runs of spaces collapse to
// one, and the first rune is upper-cased.
func NormalizeAccountName(name string) string {
	name = strings.ReplaceAll(name, "_", " ")
	name = strings.Join(strings.Fields(name), " ")
	if name == "" {
		return ""
	}
	r, size := utf8.DecodeRuneInString(name)
	if r == utf8.RuneError && size <= 1 {
		return ""
	}
	return string(unicode.ToUpper(r)) + name[size:]
}

// IsValidAccountName reports whether a canonicalized name is usable as an
// account name.
func IsValidAccountName(name string) bool {
	if name == "" || len(name) > MaxAccountNameLength {
		return false
	}
	if !utf8.ValidString(name) {
		return false
	}
	if strings.ContainsAny(name, forbiddenNameRunes) {
		return false
	}
	for _, r := range name {
		if unicode.IsControl(r) {
			return false
		}
	}
	return true
}
