// Package parser extracts structured data from KiCad text exports.
//
// Core types:
//   - RawLine: One source line split into indentation depth and content
//   - Block: An indentation-scoped region opened by a "(name" marker
//   - StackupRecord: The ordered attributes of one physical layer
//   - Parser: Extracts layer lists and stackup tables
//
// The parser never reads files. Callers pass the text and receive either a
// result or an *Error naming the offending line:
//
//	p := parser.NewParser()
//	layers, err := p.ExtractLayers(boardText)
//	if errors.Is(err, parser.ErrEmptyBlock) {
//	    // the board declares a layers block with no entries
//	}
//
//	records, err := p.ParseStackup(stackupText)
//	for _, rec := range records {
//	    thickness, _ := rec.Get("thickness")
//	    fmt.Println(rec.Label, thickness)
//	}
//
// Convenience functions:
//
//	layers, err := parser.ExtractLayers(boardText)
//	records, err := parser.ParseStackup(stackupText)
//	text := parser.FormatStackup(records)
package parser
