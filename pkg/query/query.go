// Copyright (c) 2026 Al Furqan. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package query parses list-shaped values out of query strings and
// comma-separated settings.
package query

import (
	"strconv"
	"strings"
)

// IntSlice parses repeated query values into integers. Invalid entries are skipped.
func IntSlice(vals []string) []int {
	var res []int
	for _, v := range vals {
		if i, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			res = append(res, i)
		}
	}
	return res
}

// StringSlice splits a comma-separated value into trimmed, non-empty parts.
// It returns nil when nothing remains.
func StringSlice(val string) []string {
	if val == "" {
		return nil
	}
	var res []string
	for v := range strings.SplitSeq(val, ",") {
		if clean := strings.TrimSpace(v); clean != "" {
			res = append(res, clean)
		}
	}
	return res
}
