// Package util holds text layout helpers for terminal output.
package util

import (
	"strings"
	"unicode/utf8"
)

const ellipsis = "…"

// TruncateRunes shortens s to at most n runes and marks the cut with an ellipsis.
func TruncateRunes(s string, n int) string {
	if n < 0 {
		n = 0
	}
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n]) + ellipsis
}

// WrapToWidth reflows each line of s so no output line exceeds width runes.
// Words wider than width are cut into width-sized pieces. Blank lines are
// kept; width <= 0 returns s unchanged.
func WrapToWidth(s string, width int) string {
	if width <= 0 {
		return s
	}
	var lines []string
	for _, para := range strings.Split(s, "\n") {
		lines = append(lines, wrapLine(para, width)...)
	}
	return strings.Join(lines, "\n")
}

func wrapLine(line string, width int) []string {
	words := strings.Fields(line)
	if len(words) == 0 {
		return []string{""}
	}

	var (
		lines []string
		buf   []string
		used  int
	)
	flush := func() {
		if len(buf) > 0 {
			lines = append(lines, strings.Join(buf, " "))
			buf, used = buf[:0], 0
		}
	}
	for _, w := range words {
		n := utf8.RuneCountInString(w)
		need := n
		if len(buf) > 0 {
			need++
		}
		if used+need <= width {
			buf = append(buf, w)
			used += need
			continue
		}
		flush()
		if n <= width {
			buf, used = append(buf, w), n
			continue
		}
		lines = append(lines, chunkRunes(w, width)...)
	}
	flush()
	return lines
}

// chunkRunes splits w into consecutive pieces of size runes; the last may be shorter.
func chunkRunes(w string, size int) []string {
	r := []rune(w)
	pieces := make([]string, 0, (len(r)+size-1)/size)
	for len(r) > size {
		pieces = append(pieces, string(r[:size]))
		r = r[size:]
	}
	return append(pieces, string(r))
}

// Clamp limits v to [lo, hi].
func Clamp(v, lo, hi int) int {
	return max(lo, min(v, hi))
}
