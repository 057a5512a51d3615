// Copyright (c) 2026 Al Furqan. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package validate_test

import (
	"testing"
	"unicode"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/alfurqan/internal/platform/apperr"
	"github.com/taibuivan/alfurqan/internal/platform/validate"
)

/*
TestValidator_Required tests the mandatory field validation logic.
*/
func TestValidator_Required(t *testing.T) {
	tests := []struct {
		name     string
		value    string
		hasError bool
	}{
		{"valid_string", "Al-Fatiha", false},
		{"empty_string", "", true},
		{"whitespace_only", "   ", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := &validate.Validator{}
			v.Required("text", tt.value)

			if !tt.hasError {
				assert.False(t, v.HasErrors())
				assert.Nil(t, v.Err())
				return
			}

			ae := apperr.As(v.Err())
			require.NotNil(t, ae)
			assert.Equal(t, apperr.CodeValidation, ae.Code)
			assert.Equal(t, "text", ae.Details[0].Field)
		})
	}
}

/*
TestValidator_Chain verifies that every failing rule is collected.
*/
func TestValidator_Chain(t *testing.T) {
	v := &validate.Validator{}
	v.Range("surah", 115, 1, 114).
		Range("ayah", 0, 1, 286).
		MaxLen("text", "short", 10)

	ae := apperr.As(v.Err())
	require.NotNil(t, ae)
	require.Len(t, ae.Details, 2)
	assert.Equal(t, "surah", ae.Details[0].Field)
	assert.Equal(t, "ayah", ae.Details[1].Field)
}

func TestValidator_MaxLenCountsRunes(t *testing.T) {
	v := &validate.Validator{}
	v.MaxLen("root_word", "كتب", 3)
	assert.False(t, v.HasErrors())
}

func TestValidator_Script(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		isValid bool
	}{
		{"plain_root", "كتب", true},
		{"vocalised", "كَتَبَ", true},
		{"spaced", "ك ت ب", true},
		{"latin", "ktb", false},
		{"mixed", "كتb", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := &validate.Validator{}
			v.Script("root_word", tt.value, unicode.Arabic, "Arabic")
			assert.Equal(t, !tt.isValid, v.HasErrors())
		})
	}
}

func TestValidator_EmailAndUsername(t *testing.T) {
	v := &validate.Validator{}
	v.Email("email", "scholar@example.com").Username("username", "abu_bakr.1")
	assert.False(t, v.HasErrors())

	v = &validate.Validator{}
	v.Email("email", "invalid-email").Username("username", "no spaces")
	ae := apperr.As(v.Err())
	require.NotNil(t, ae)
	assert.Len(t, ae.Details, 2)
}

func TestValidator_OneOf(t *testing.T) {
	v := &validate.Validator{}
	v.OneOf("decision", "approved", "approved", "rejected")
	assert.False(t, v.HasErrors())

	v.OneOf("decision", "pending", "approved", "rejected")
	assert.True(t, v.HasErrors())
}
