package util

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Trunc truncates the input string to a specific length.
// It is UTF8-safe, but does not care for HTML.
func Trunc(s string, maxRunes int) string {
	s = strings.TrimSpace(s)
	var runes = 0
	for i := range s {
		runes++
		if runes == maxRunes {
			return strings.TrimSpace(s[:i]) + "…"
		}
	}
	return s
}

// Slugify lowercases s, strips diacritics and replaces everything except letters and digits by single dashes.
func Slugify(s string) string {
	var b strings.Builder
	var dash bool
	for _, r := range norm.NFKD.String(strings.ToLower(s)) {
		switch {
		case unicode.Is(unicode.Mn, r):
			// combining mark
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			if dash && b.Len() > 0 {
				b.WriteByte('-')
			}
			dash = false
			b.WriteRune(r)
		default:
			dash = true
		}
	}
	return b.String()
}

// SlugPath slugifies each segment of a URL path and returns it with a leading and a trailing slash.
// The root path and the empty string become "/".
func SlugPath(path string) string {
	var segments []string
	for _, segment := range strings.Split(path, "/") {
		if slug := Slugify(segment); slug != "" {
			segments = append(segments, slug)
		}
	}
	if len(segments) == 0 {
		return "/"
	}
	return "/" + strings.Join(segments, "/") + "/"
}
