// Package strings holds small text helpers shared by the output code.
package strings

import (
	"strings"
)

// DefaultCellMaxLen is the widest value shown in a table cell.
const DefaultCellMaxLen = 48

// minCellLen leaves room for one character and the ellipsis.
const minCellLen = 4

// Cell flattens s to one line and shortens it to maxLen runes, ending with
// "..." when something was cut. A maxLen of zero or less disables the
// limit but still flattens.
func Cell(s string, maxLen int) string {
	s = strings.Join(strings.Fields(s), " ")
	if maxLen <= 0 {
		return s
	}
	maxLen = max(maxLen, minCellLen)

	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen-3]) + "..."
}
