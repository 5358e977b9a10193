// Folio - Semantic Book Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/folio

package recommend

import (
	"strconv"
	"strings"
	"unicode/utf8"
)

// minTermRunes is the shortest preference term that is kept.
const minTermRunes = 3

// BuildQuery trims each preference, drops terms shorter than three
// characters and joins the rest with single spaces, preserving order.
func BuildQuery(preferences []string) (string, error) {
	kept := make([]string, 0, len(preferences))
	for _, p := range preferences {
		p = strings.TrimSpace(p)
		if utf8.RuneCountInString(p) < minTermRunes {
			continue
		}
		kept = append(kept, p)
	}
	if len(kept) == 0 {
		return "", ErrEmptyPreferences
	}
	return strings.Join(kept, " "), nil
}

func cacheKey(query string, k int) string {
	return strconv.Itoa(k) + "|" + query
}
