package kicad

import (
	"fmt"
	"strings"

	"github.com/randalmurphal/pcbkit/parser"
)

// Node is an s-expression: either an atom or a list.
type Node struct {
	// Atom is the symbol or string value. Empty for lists.
	Atom string

	// List holds the children of a list node. Nil for atoms.
	List []*Node

	// Line is the 0-based source line where the node starts.
	Line int
}

// IsList reports whether n is a list.
func (n *Node) IsList() bool {
	return n.List != nil
}

// Head returns the first atom of a list, e.g. "layer" for (layer "F.Cu").
func (n *Node) Head() string {
	if len(n.List) == 0 || n.List[0].IsList() {
		return ""
	}
	return n.List[0].Atom
}

// String renders the node back as an s-expression.
func (n *Node) String() string {
	if !n.IsList() {
		if n.Atom == "" || strings.ContainsAny(n.Atom, " \t()\"") {
			return `"` + atomEscaper.Replace(n.Atom) + `"`
		}
		return n.Atom
	}
	parts := make([]string, len(n.List))
	for i, child := range n.List {
		parts[i] = child.String()
	}
	return "(" + strings.Join(parts, " ") + ")"
}

type tokenKind byte

const (
	tokenOpen tokenKind = iota
	tokenClose
	tokenAtom
)

type token struct {
	kind tokenKind
	text string
	line int
}

// lex splits lines into parentheses and atoms. Quoted atoms lose their quotes.
func lex(op string, lines []parser.RawLine) ([]token, error) {
	var tokens []token
	for _, line := range lines {
		s := line.Content
		for i := 0; i < len(s); {
			switch c := s[i]; {
			case c == ' ' || c == '\t':
				i++
			case c == '(':
				tokens = append(tokens, token{kind: tokenOpen, line: line.Num})
				i++
			case c == ')':
				tokens = append(tokens, token{kind: tokenClose, line: line.Num})
				i++
			case c == '"':
				text, n, ok := unquote(s[i:])
				if !ok {
					return nil, &parser.Error{Op: op, Line: line.Num, Err: parser.ErrMalformedEntry,
						Expected: "closing quote", Found: s[i:]}
				}
				tokens = append(tokens, token{kind: tokenAtom, text: text, line: line.Num})
				i += n
			default:
				start := i
				for i < len(s) && !strings.ContainsRune(" \t()\"", rune(s[i])) {
					i++
				}
				tokens = append(tokens, token{kind: tokenAtom, text: s[start:i], line: line.Num})
			}
		}
	}
	return tokens, nil
}

// unquote reads the quoted string at the start of s. A backslash escapes the
// next byte, so \" and \\ stand for a quote and a backslash. It returns the
// unescaped text and the number of bytes consumed.
func unquote(s string) (string, int, bool) {
	var b strings.Builder
	for i := 1; i < len(s); i++ {
		switch c := s[i]; c {
		case '\\':
			if i+1 < len(s) {
				i++
				b.WriteByte(s[i])
			}
		case '"':
			return b.String(), i + 1, true
		default:
			b.WriteByte(c)
		}
	}
	return "", 0, false
}

var atomEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`)

// parseNodes reads every top-level expression from lines.
func parseNodes(op string, lines []parser.RawLine) ([]*Node, error) {
	tokens, err := lex(op, lines)
	if err != nil {
		return nil, err
	}

	var (
		top   []*Node
		stack []*Node
	)
	for _, tok := range tokens {
		switch tok.kind {
		case tokenOpen:
			stack = append(stack, &Node{List: []*Node{}, Line: tok.line})
		case tokenClose:
			if len(stack) == 0 {
				return nil, &parser.Error{Op: op, Line: tok.line, Err: parser.ErrMalformedEntry,
					Found: ")", Expected: "matching '('"}
			}
			done := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if len(stack) == 0 {
				top = append(top, done)
			} else {
				parent := stack[len(stack)-1]
				parent.List = append(parent.List, done)
			}
		case tokenAtom:
			atom := &Node{Atom: tok.text, Line: tok.line}
			if len(stack) == 0 {
				top = append(top, atom)
			} else {
				parent := stack[len(stack)-1]
				parent.List = append(parent.List, atom)
			}
		}
	}
	if len(stack) > 0 {
		open := stack[len(stack)-1]
		return nil, &parser.Error{Op: op, Line: open.Line, Err: parser.ErrUnexpectedEOF,
			Expected: fmt.Sprintf("')' closing (%s", open.Head())}
	}
	return top, nil
}
