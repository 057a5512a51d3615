// Copyright (c) 2026 Al Furqan. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package content

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"unicode"

	"github.com/taibuivan/alfurqan/internal/platform/validate"
	"github.com/taibuivan/alfurqan/pkg/slug"
	"github.com/taibuivan/alfurqan/pkg/uuid"
)

// Field limits.
const (
	MaxTextLen        = 10000
	MaxThemeNameLen   = 200
	MaxRootWordLen    = 32
	MaxGlossWordLen   = 64
	MaxMeaningLen     = 500
	MaxDescriptionLen = 10000
)

// Payload is the kind-specific body of a contribution.
type Payload interface {
	Kind() Kind
	// Validate returns a VALIDATION_ERROR describing every failing field.
	Validate() error
}

// Note is a personal reflection on a single ayah.
type Note struct {
	Surah int    `json:"surah"`
	Ayah  int    `json:"ayah"`
	Text  string `json:"text"`
}

// Tafsir is an exegetical contribution on a single ayah.
type Tafsir struct {
	Surah int    `json:"surah"`
	Ayah  int    `json:"ayah"`
	Text  string `json:"text"`
}

// Theme is a node in the thematic index. Themes may nest under a parent theme.
type Theme struct {
	Name        string  `json:"name"`
	Slug        string  `json:"slug"`
	ParentID    *string `json:"parent_id,omitempty"`
	Description string  `json:"description,omitempty"`
}

// ThemeLink attaches an ayah to a theme.
type ThemeLink struct {
	ThemeID string `json:"theme_id"`
	Surah   int    `json:"surah"`
	Ayah    int    `json:"ayah"`
	Notes   string `json:"notes,omitempty"`
}

// RootNote annotates a triliteral (or quadriliteral) Arabic root.
type RootNote struct {
	RootWord    string `json:"root_word"`
	Description string `json:"description"`
}

// WordGloss gives the Urdu and English meaning of a Quranic word.
type WordGloss struct {
	Word      string `json:"word"`
	UrMeaning string `json:"ur_meaning,omitempty"`
	EnMeaning string `json:"en_meaning,omitempty"`
}

func (Note) Kind() Kind      { return KindNote }
func (Tafsir) Kind() Kind    { return KindTafsir }
func (Theme) Kind() Kind     { return KindTheme }
func (ThemeLink) Kind() Kind { return KindThemeLink }
func (RootNote) Kind() Kind  { return KindRootNote }
func (WordGloss) Kind() Kind { return KindWordGloss }

// # Validation

func (n Note) Validate() error {
	v := &validate.Validator{}
	verseRef(v, n.Surah, n.Ayah)
	v.Required("text", n.Text).MaxLen("text", n.Text, MaxTextLen)
	return v.Err()
}

func (t Tafsir) Validate() error {
	v := &validate.Validator{}
	verseRef(v, t.Surah, t.Ayah)
	v.Required("text", t.Text).MaxLen("text", t.Text, MaxTextLen)
	return v.Err()
}

func (t Theme) Validate() error {
	v := &validate.Validator{}
	v.Required("name", t.Name).MaxLen("name", t.Name, MaxThemeNameLen)
	v.Slug("slug", t.Slug)
	if t.ParentID != nil {
		v.UUID("parent_id", *t.ParentID)
	}
	v.MaxLen("description", t.Description, MaxDescriptionLen)
	return v.Err()
}

func (l ThemeLink) Validate() error {
	v := &validate.Validator{}
	v.Required("theme_id", l.ThemeID)
	if l.ThemeID != "" {
		v.UUID("theme_id", l.ThemeID)
	}
	verseRef(v, l.Surah, l.Ayah)
	v.MaxLen("notes", l.Notes, MaxTextLen)
	return v.Err()
}

func (r RootNote) Validate() error {
	v := &validate.Validator{}
	v.Required("root_word", r.RootWord).
		MaxLen("root_word", r.RootWord, MaxRootWordLen).
		Script("root_word", r.RootWord, unicode.Arabic, "Arabic")
	v.Required("description", r.Description).MaxLen("description", r.Description, MaxDescriptionLen)
	return v.Err()
}

func (g WordGloss) Validate() error {
	v := &validate.Validator{}
	v.Required("word", g.Word).
		MaxLen("word", g.Word, MaxGlossWordLen).
		Script("word", g.Word, unicode.Arabic, "Arabic")
	v.MaxLen("ur_meaning", g.UrMeaning, MaxMeaningLen).
		MaxLen("en_meaning", g.EnMeaning, MaxMeaningLen).
		Custom("en_meaning", strings.TrimSpace(g.UrMeaning) == "" && strings.TrimSpace(g.EnMeaning) == "",
			"At least one meaning is required")
	return v.Err()
}

// verseRef checks surah and ayah separately so each gets its own field error.
func verseRef(v *validate.Validator, surah, ayah int) {
	v.Range("surah", surah, 1, SurahCount)
	v.Range("ayah", ayah, 1, MaxAyah)
	if count := VerseCount(surah); count > 0 && ayah >= 1 && ayah <= MaxAyah {
		v.Custom("ayah", ayah > count, fmt.Sprintf("Surah %d has %d ayat", surah, count))
	}
}

// # Decoding

// Decode parses raw into the payload type registered for kind, normalises it
// and validates it. Unknown JSON fields are rejected.
func Decode(kind Kind, raw []byte) (Payload, error) {
	var payload Payload
	var err error

	switch kind {
	case KindNote:
		payload, err = decodeInto[Note](raw)
	case KindTafsir:
		payload, err = decodeInto[Tafsir](raw)
	case KindTheme:
		var theme Theme
		theme, err = decodeInto[Theme](raw)
		payload = normalizeTheme(theme)
	case KindThemeLink:
		payload, err = decodeInto[ThemeLink](raw)
	case KindRootNote:
		var root RootNote
		root, err = decodeInto[RootNote](raw)
		root.RootWord = strings.TrimSpace(root.RootWord)
		payload = root
	case KindWordGloss:
		var gloss WordGloss
		gloss, err = decodeInto[WordGloss](raw)
		gloss.Word = strings.TrimSpace(gloss.Word)
		payload = gloss
	default:
		return nil, validate.FieldError("content_type", fmt.Sprintf("Unsupported content type %q", kind))
	}

	if err != nil {
		return nil, err
	}
	if err := payload.Validate(); err != nil {
		return nil, err
	}
	return payload, nil
}

// Canonical decodes, validates and re-encodes raw so that stored payloads
// always carry normalised fields (e.g. a derived theme slug).
func Canonical(kind Kind, raw []byte) (json.RawMessage, Payload, error) {
	payload, err := Decode(kind, raw)
	if err != nil {
		return nil, nil, err
	}
	encoded, err := json.Marshal(payload)
	if err != nil {
		return nil, nil, fmt.Errorf("content: encode %s: %w", kind, err)
	}
	return encoded, payload, nil
}

func decodeInto[T any](raw []byte) (T, error) {
	var target T
	decoder := json.NewDecoder(bytes.NewReader(raw))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&target); err != nil {
		return target, validate.FieldError("payload", "Malformed payload: "+err.Error())
	}
	return target, nil
}

func normalizeTheme(theme Theme) Theme {
	theme.Name = strings.TrimSpace(theme.Name)
	if theme.Slug == "" {
		id := uuid.New()
		theme.Slug = slug.FromOr(theme.Name, "theme-"+id[len(id)-12:])
	}
	if theme.ParentID != nil && *theme.ParentID == "" {
		theme.ParentID = nil
	}
	return theme
}
