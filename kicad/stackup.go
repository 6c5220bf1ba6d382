// Package kicad turns sections of a KiCad board file into the flat text
// formats read by package parser.
package kicad

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/randalmurphal/pcbkit/parser"
)

const (
	// StackupSection is the board block holding the physical stackup.
	StackupSection = "stackup"

	// SublayerToken separates the sublayers of a dielectric layer entry.
	SublayerToken = "addsublayer"

	opExportStackup = "export stackup"
)

// StackupExporter renders the stackup block of a board as a flat stackup
// export: one sentinel line per layer followed by its attribute line, and
// one continuation line per dielectric sublayer with keys prefixed
// "sublayerN.".
type StackupExporter struct {
	parser *parser.Parser
}

// NewStackupExporter creates an exporter that locates blocks with p and
// writes p's first sentinel. A nil p uses the default parser.
func NewStackupExporter(p *parser.Parser) *StackupExporter {
	if p == nil {
		p = parser.NewParser()
	}
	return &StackupExporter{parser: p}
}

// ExportStackup exports the stackup block of board with the default parser.
func ExportStackup(board string) (string, error) {
	return NewStackupExporter(nil).Export(board)
}

// Export returns the flat stackup text for board. Entries of the stackup
// block that are not layers (copper_finish, edge_plating, ...) are skipped.
func (e *StackupExporter) Export(board string) (string, error) {
	block, err := e.parser.ExtractBlock(board, StackupSection)
	if err != nil {
		return "", err
	}
	nodes, err := parseNodes(opExportStackup, block.Lines)
	if err != nil {
		return "", err
	}

	sentinel := e.parser.Sentinels()[0]
	var b strings.Builder
	layers := 0
	for _, n := range nodes {
		if !n.IsList() || n.Head() != "layer" {
			slog.Debug("skipping stackup property", slog.String("entry", n.String()))
			continue
		}
		if err := writeLayer(&b, sentinel, n); err != nil {
			return "", err
		}
		layers++
	}

	if layers == 0 {
		return "", &parser.Error{Op: opExportStackup, Line: block.Marker.Num, Err: parser.ErrEmptyBlock,
			Expected: "(layer entries"}
	}
	return b.String(), nil
}

func writeLayer(b *strings.Builder, sentinel string, n *Node) error {
	if len(n.List) < 2 || n.List[1].IsList() {
		return &parser.Error{Op: opExportStackup, Line: n.Line, Err: parser.ErrMalformedEntry,
			Expected: "layer name", Found: n.String()}
	}
	name := n.List[1].Atom
	if strings.Contains(name, `"`) {
		return quoteInValue(n.Line, name)
	}
	b.WriteString(sentinel)
	b.WriteByte(' ')
	b.WriteString(parser.QuoteToken(name))
	b.WriteByte('\n')

	var (
		line   []string
		prefix string
		sub    int
		attrs  int
	)
	flush := func() {
		if len(line) == 0 {
			return
		}
		b.WriteString(strings.Join(line, " "))
		b.WriteByte('\n')
		line = line[:0]
	}

	for _, child := range n.List[2:] {
		if !child.IsList() {
			if child.Atom == SublayerToken {
				flush()
				sub++
				prefix = fmt.Sprintf("sublayer%d.", sub)
				continue
			}
			if strings.Contains(child.Atom, `"`) {
				return quoteInValue(child.Line, child.Atom)
			}
			// Bare flags carry no value of their own.
			line = append(line, parser.QuoteToken(prefix+child.Atom), "yes")
			attrs++
			continue
		}

		key := child.Head()
		if key == "" {
			return &parser.Error{Op: opExportStackup, Line: child.Line, Err: parser.ErrMalformedEntry,
				Expected: "attribute name", Found: child.String()}
		}
		values := make([]string, 0, len(child.List)-1)
		for _, v := range child.List[1:] {
			if v.IsList() {
				values = append(values, v.String())
			} else {
				values = append(values, v.Atom)
			}
		}
		value := strings.Join(values, " ")
		if strings.Contains(key, `"`) || strings.Contains(value, `"`) {
			return quoteInValue(child.Line, child.String())
		}
		line = append(line, parser.QuoteToken(prefix+key), parser.QuoteToken(value))
		attrs++
	}
	flush()

	if attrs == 0 {
		return &parser.Error{Op: opExportStackup, Line: n.Line, Err: parser.ErrMalformedEntry,
			Expected: "layer attributes", Found: n.String()}
	}
	return nil
}

// quoteInValue reports text the flat stackup format cannot carry.
func quoteInValue(line int, found string) error {
	return &parser.Error{Op: opExportStackup, Line: line, Err: parser.ErrMalformedEntry,
		Expected: "text without double quotes", Found: found}
}
