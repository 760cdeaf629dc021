// Package textutil holds small string helpers shared by the summarizer and
// the mock provider.
package textutil

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Ellipsis is the placeholder appended to shortened text.
const Ellipsis = "..."

// Collapse trims the text and folds every whitespace run into one space.
func Collapse(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

// Shorten collapses whitespace and, if the result is longer than width
// runes, keeps as many leading chunks as fit together with placeholder.
// Chunks are words, split after hyphens inside words ("well-" "known") and
// around "--" dashes. A chunk longer than width is cut to fill the line.
// When nothing fits, the placeholder alone is returned.
func Shorten(text string, width int, placeholder string) string {
	collapsed := Collapse(text)
	if utf8.RuneCountInString(collapsed) <= width {
		return collapsed
	}

	chunks := splitChunks(collapsed)
	var (
		line []string
		used int
		next int
	)
	for next < len(chunks) && used+runeLen(chunks[next]) <= width {
		line = append(line, chunks[next])
		used += runeLen(chunks[next])
		next++
	}
	if next < len(chunks) && runeLen(chunks[next]) > width {
		space := width - used
		if width < 1 {
			space = 1
		}
		head := cutLong(chunks[next], space)
		line = append(line, head)
		used += runeLen(head)
	}

	reserve := utf8.RuneCountInString(placeholder)
	for len(line) > 0 {
		last := line[len(line)-1]
		if strings.TrimSpace(last) != "" && used+reserve <= width {
			return strings.Join(line, "") + placeholder
		}
		used -= runeLen(last)
		line = line[:len(line)-1]
	}
	return strings.TrimLeft(placeholder, " ")
}

func runeLen(s string) int { return utf8.RuneCountInString(s) }

// cutLong returns the prefix of chunk that fills space runes, ending after
// the last hyphen in that span when there is one.
func cutLong(chunk string, space int) string {
	r := []rune(chunk)
	if space >= len(r) {
		return chunk
	}
	end := space
	for i := space - 1; i > 0; i-- {
		if r[i] != '-' {
			continue
		}
		for _, c := range r[:i] {
			if c != '-' {
				end = i + 1
				break
			}
		}
		break
	}
	return string(r[:end])
}

// splitChunks splits single-spaced text into words and the spaces between
// them, breaking words further at hyphens and dashes.
func splitChunks(text string) []string {
	var chunks []string
	for i, word := range strings.Split(text, " ") {
		if i > 0 {
			chunks = append(chunks, " ")
		}
		chunks = append(chunks, splitWord([]rune(word))...)
	}
	return chunks
}

func isWord(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsNumber(r)
}

func isLetter(r rune) bool { return isWord(r) && !unicode.IsDigit(r) }

func isWordPunct(r rune) bool { return isWord(r) || strings.ContainsRune(`!"'&.,?`, r) }

// splitWord breaks after a hyphen that joins two letters with at least two
// letters (or "x-y") before it, and separates runs of two or more dashes
// that sit between a word and a word character.
func splitWord(w []rune) []string {
	at := func(i int) rune {
		if i < 0 || i >= len(w) {
			return 0
		}
		return w[i]
	}
	// dashRun reports where a run of two or more dashes starting at i ends,
	// when a word character follows it.
	dashRun := func(i int) (int, bool) {
		if at(i) != '-' || at(i+1) != '-' {
			return 0, false
		}
		j := i
		for j < len(w) && w[j] == '-' {
			j++
		}
		return j, j < len(w) && isWord(w[j])
	}
	hyphenBreak := func(h int) bool {
		if at(h) != '-' {
			return false
		}
		before := (isLetter(at(h-2)) && isLetter(at(h-1))) ||
			(isLetter(at(h-3)) && at(h-2) == '-' && isLetter(at(h-1)))
		after := isLetter(at(h+1)) &&
			(isLetter(at(h+2)) || (at(h+2) == '-' && isLetter(at(h+3))))
		return before && after
	}

	var out []string
	for start := 0; start < len(w); {
		if start > 0 && isWordPunct(w[start-1]) {
			if end, ok := dashRun(start); ok {
				out = append(out, string(w[start:end]))
				start = end
				continue
			}
		}

		end := len(w)
		for h := start + 1; h < len(w); h++ {
			if hyphenBreak(h) {
				end = h + 1
				break
			}
			if _, ok := dashRun(h); ok && isWordPunct(w[h-1]) {
				end = h
				break
			}
		}
		out = append(out, string(w[start:end]))
		start = end
	}
	return out
}
