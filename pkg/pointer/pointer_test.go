// Copyright (c) 2026 Al Furqan. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package pointer_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/taibuivan/alfurqan/pkg/pointer"
)

func TestPointer(t *testing.T) {
	p := pointer.To("ulama")
	assert.Equal(t, "ulama", *p)
	assert.Equal(t, "ulama", pointer.Val(p))

	var missing *string
	assert.Equal(t, "", pointer.Val(missing))
	assert.Equal(t, "private", pointer.Fallback(missing, "private"))
}
