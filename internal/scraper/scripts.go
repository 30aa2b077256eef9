package scraper

import (
	"strconv"
	"strings"
)

// jsString quotes a Go string for safe embedding in a scripted query.
func jsString(s string) string {
	return strconv.Quote(s)
}

// jsSelectorList renders candidate selectors as a JS array literal of
// document.querySelector results, preserving candidate order.
func jsSelectorList(candidates []string) string {
	parts := make([]string, 0, len(candidates))
	for _, sel := range candidates {
		parts = append(parts, "document.querySelector("+jsString(sel)+")")
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
