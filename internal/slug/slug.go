// Package slug derives URL-safe organization identifiers from display names.
package slug

import (
	"crypto/rand"
	"encoding/hex"
	"regexp"
	"strings"
)

const (
	fallback   = "org"
	suffixSize = 6
)

var (
	nonAlnumRun = regexp.MustCompile(`[^a-z0-9]+`)
	nonAlnum    = regexp.MustCompile(`[^a-z0-9]`)

	// Slug must be lowercase alphanumeric and hyphens only, 2–64 chars.
	validSlug = regexp.MustCompile(`^[a-z0-9][a-z0-9-]{1,63}$`)
)

// Create lowercases name, collapses every run of characters outside [a-z0-9] into a
// single hyphen and trims hyphens at both ends. Names without any alphanumeric
// character yield "org".
func Create(name string) string {
	s := nonAlnumRun.ReplaceAllString(strings.ToLower(name), "-")
	s = strings.Trim(s, "-")
	if s == "" {
		return fallback
	}
	return s
}

// Suffix returns the last six characters of entropy restricted to [a-z0-9]. When nothing
// survives it returns six random hex characters instead.
func Suffix(entropy string) string {
	r := []rune(entropy)
	if len(r) > suffixSize {
		r = r[len(r)-suffixSize:]
	}
	s := nonAlnum.ReplaceAllString(strings.ToLower(string(r)), "")
	if s == "" {
		return randomHex()
	}
	return s
}

// Default is the slug for an organization auto-created at sign-up.
func Default(displayName, userID string) string {
	return Create(displayName) + "-" + Suffix(userID)
}

// Valid reports whether s is acceptable as an explicitly chosen slug.
func Valid(s string) bool {
	return validSlug.MatchString(s)
}

func randomHex() string {
	b := make([]byte, suffixSize/2)
	if _, err := rand.Read(b); err != nil {
		panic("slug: crypto/rand unavailable: " + err.Error())
	}
	return hex.EncodeToString(b)
}
