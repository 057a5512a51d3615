// Copyright (c) 2026 Al Furqan. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package content defines the contribution kinds users can submit and the
// validation rules for each payload.
//
// The moderation engine treats payloads as opaque JSON; everything that
// depends on the shape of a note, a theme or a gloss lives here.
package content

import (
	"encoding/json"
	"slices"
	"strings"

	"github.com/taibuivan/alfurqan/internal/platform/apperr"
)

// Kind tags the concrete entity a contribution represents.
type Kind string

const (
	KindNote      Kind = "note"
	KindTafsir    Kind = "tafsir"
	KindTheme     Kind = "theme"
	KindThemeLink Kind = "theme_link"
	KindRootNote  Kind = "root_note"
	KindWordGloss Kind = "word_gloss"
)

// Kinds lists every supported kind.
var Kinds = []Kind{KindNote, KindTafsir, KindTheme, KindThemeLink, KindRootNote, KindWordGloss}

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	for _, known := range Kinds {
		if k == known {
			return true
		}
	}
	return false
}

func (k Kind) String() string { return string(k) }

// ParseKind resolves a URL segment into a [Kind]. Unknown kinds are reported
// as NotFound because they name a collection that does not exist.
func ParseKind(s string) (Kind, error) {
	k := Kind(s)
	if !k.Valid() {
		return "", apperr.NotFound("Content type")
	}
	return k, nil
}

// textFields names the free-text payload fields of each kind.
var textFields = map[Kind][]string{
	KindNote:      {"text"},
	KindTafsir:    {"text"},
	KindTheme:     {"name", "description"},
	KindThemeLink: {"notes"},
	KindRootNote:  {"root_word", "description"},
	KindWordGloss: {"word", "ur_meaning", "en_meaning"},
}

// TextFields returns the payload fields that free-text search matches on.
// An empty kind returns the fields of every kind.
func TextFields(k Kind) []string {
	if k != "" {
		return slices.Clone(textFields[k])
	}
	var fields []string
	for _, kind := range Kinds {
		for _, field := range textFields[kind] {
			if !slices.Contains(fields, field) {
				fields = append(fields, field)
			}
		}
	}
	return fields
}

// MatchText reports whether any free-text field of payload contains needle,
// ignoring case. Keys, numbers and identifiers never match.
func MatchText(kind Kind, payload []byte, needle string) bool {
	var values map[string]any
	if err := json.Unmarshal(payload, &values); err != nil {
		return false
	}
	needle = strings.ToLower(needle)
	for _, field := range textFields[kind] {
		if text, ok := values[field].(string); ok && strings.Contains(strings.ToLower(text), needle) {
			return true
		}
	}
	return false
}
