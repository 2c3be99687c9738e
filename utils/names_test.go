package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeAccountName(t *testing.T) {
	t.Run("UnderscoresBecomeSpaces", func(t *testing.T) {
		assert.Equal(t, "Some User", NormalizeAccountName("Some_User"))
	})

	t.Run("WhitespaceCollapses", func(t *testing.T) {
		assert.Equal(t, "Some User", NormalizeAccountName("  Some    User  "))
		assert.Equal(t, "Some User", NormalizeAccountName("_Some__User_"))
	})

	t.Run("FirstRuneUppercased", func(t *testing.T) {
		assert.Equal(t, "Some user", NormalizeAccountName("some user"))
		assert.Equal(t, "Ésra", NormalizeAccountName("ésra"))
	})

	t.Run("AlreadyCanonical", func(t *testing.T) {
		assert.Equal(t, "Some User", NormalizeAccountName("Some User"))
	})

	t.Run("EmptyAndBlank", func(t *testing.T) {
		assert.Equal(t, "", NormalizeAccountName(""))
		assert.Equal(t, "", NormalizeAccountName("   "))
		assert.Equal(t, "", NormalizeAccountName("___"))
	})
}

func TestIsValidAccountName(t *testing.T) {
	t.Run("AcceptsOrdinaryNames", func(t *testing.T) {
		assert.True(t, IsValidAccountName("Some User"))
		assert.True(t, IsValidAccountName("Ésra"))
		assert.True(t, IsValidAccountName("User123"))
	})

	t.Run("RejectsEmpty", func(t *testing.T) {
		assert.False(t, IsValidAccountName(""))
	})

	t.Run("RejectsForbiddenRunes", func(t *testing.T) {
		for _, name := range []string{"Some#User", "A<b", "A>b", "A[b]", "A|b", "A{b}", "A/b", "A@b", "A:b"} {
			assert.False(t, IsValidAccountName(name), name)
		}
	})

	t.Run("RejectsControlRunes", func(t *testing.T) {
		assert.False(t, IsValidAccountName("Some\tUser"))
		assert.False(t, IsValidAccountName("Some\x00User"))
	})

	t.Run("RejectsOverlongNames", func(t *testing.T) {
		assert.False(t, IsValidAccountName(strings.Repeat("a", MaxAccountNameLength+1)))
		assert.True(t, IsValidAccountName(strings.Repeat("a", MaxAccountNameLength)))
	})

	t.Run("RejectsInvalidUTF8", func(t *testing.T) {
		assert.False(t, IsValidAccountName(string([]byte{0xff, 0xfe})))
	})
}
