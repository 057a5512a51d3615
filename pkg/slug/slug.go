// Copyright (c) 2026 Al Furqan. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package slug generates ASCII URL slugs from arbitrary Unicode strings.
//
// Theme names are often transliterated ("Ṣabr", "Tawḥīd"); diacritics are
// folded so they become "sabr" and "tawhid". Names written entirely in a
// non-Latin script produce an empty slug and callers must supply a fallback.
package slug

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	// nonAlphanumeric matches any sequence of non-alphanumeric, non-hyphen characters.
	nonAlphanumeric = regexp.MustCompile(`[^a-z0-9-]+`)
	// multiHyphen collapses multiple consecutive hyphens into one.
	multiHyphen = regexp.MustCompile(`-{2,}`)
)

// From converts an arbitrary Unicode string into a URL-safe ASCII slug.
//
//  1. NFD-normalize and strip combining marks (ḥ → h).
//  2. Lowercase.
//  3. Replace everything outside [a-z0-9] with hyphens.
//  4. Collapse and trim hyphens.
func From(s string) string {
	t := transform.Chain(norm.NFD, transform.RemoveFunc(isMn), norm.NFC)
	result, _, _ := transform.String(t, s)

	result = strings.ToLower(result)
	result = nonAlphanumeric.ReplaceAllString(result, "-")
	result = multiHyphen.ReplaceAllString(result, "-")

	return strings.Trim(result, "-")
}

// FromOr is [From] with a fallback for inputs that leave nothing behind.
func FromOr(s, fallback string) string {
	if result := From(s); result != "" {
		return result
	}
	return fallback
}

func isMn(r rune) bool {
	return unicode.Is(unicode.Mn, r)
}
