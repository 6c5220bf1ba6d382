package parser

import (
	"strings"
)

// RawLine is one line of source text split into its indentation and content.
type RawLine struct {
	// Num is the 0-based line number, used for diagnostics.
	Num int

	// Depth is the number of leading whitespace characters. Tabs and spaces
	// each count as one column; no fixed indent width is assumed.
	Depth int

	// Content is the line with indentation and the line terminator stripped.
	Content string
}

// ClassifyLine splits a raw line into depth and content.
func ClassifyLine(num int, raw string) RawLine {
	raw = strings.TrimRight(raw, "\r\n")
	depth := 0
	for depth < len(raw) && (raw[depth] == ' ' || raw[depth] == '\t') {
		depth++
	}
	return RawLine{
		Num:     num,
		Depth:   depth,
		Content: raw[depth:],
	}
}

// SplitLines classifies every line of text. A trailing newline does not
// produce an extra empty line.
func SplitLines(text string) []RawLine {
	if text == "" {
		return nil
	}
	raw := strings.Split(text, "\n")
	if raw[len(raw)-1] == "" {
		raw = raw[:len(raw)-1]
	}

	lines := make([]RawLine, len(raw))
	for i, r := range raw {
		lines[i] = ClassifyLine(i, r)
	}
	return lines
}

// IsBlank reports whether the line has no content.
func (l RawLine) IsBlank() bool {
	return strings.TrimSpace(l.Content) == ""
}

// Head returns the token that immediately follows the first opening
// parenthesis on the line, e.g. "layers" for "(layers".
func (l RawLine) Head() (string, bool) {
	i := strings.IndexByte(l.Content, '(')
	if i < 0 {
		return "", false
	}
	head := headAt(l.Content, i)
	return head, head != ""
}

// HasMarker reports whether the line opens a block named name.
func (l RawLine) HasMarker(name string) bool {
	return l.markerIndex(name) >= 0
}

// markerIndex returns the offset of the parenthesis opening block name, or -1.
// Parentheses inside quoted strings are ignored; a backslash inside a
// quoted string escapes the next byte.
func (l RawLine) markerIndex(name string) int {
	if name == "" || !isIdentStart(name[0]) {
		return -1
	}
	inQuote := false
	for i := 0; i < len(l.Content); i++ {
		switch l.Content[i] {
		case '\\':
			if inQuote {
				i++
			}
		case '"':
			inQuote = !inQuote
		case '(':
			if !inQuote && headAt(l.Content, i) == name {
				return i
			}
		}
	}
	return -1
}

// Quoted returns the text between the first pair of double quotes.
func (l RawLine) Quoted() (string, bool) {
	start := strings.IndexByte(l.Content, '"')
	if start < 0 {
		return "", false
	}
	end := strings.IndexByte(l.Content[start+1:], '"')
	if end < 0 {
		return "", false
	}
	return l.Content[start+1 : start+1+end], true
}

// closesAt reports whether the list opened at offset from is closed on the
// same line.
func (l RawLine) closesAt(from int) bool {
	depth := 0
	inQuote := false
	for i := from; i < len(l.Content); i++ {
		switch c := l.Content[i]; {
		case c == '\\' && inQuote:
			i++
		case c == '"':
			inQuote = !inQuote
		case inQuote:
		case c == '(':
			depth++
		case c == ')':
			depth--
			if depth == 0 {
				return true
			}
		}
	}
	return false
}

func headAt(s string, paren int) string {
	start := paren + 1
	end := start
	for end < len(s) && !isHeadTerminator(s[end]) {
		end++
	}
	return s[start:end]
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isHeadTerminator(c byte) bool {
	switch c {
	case ' ', '\t', '(', ')', '"':
		return true
	}
	return false
}
