// Package pcbkit extracts structured data from KiCad projects.
//
// pcbkit reads the two plain-text sources a board report needs: the layer
// list declared in a .kicad_pcb file and the physical stackup, either from
// a flat stackup export or from the board's own stackup block. Each
// subpackage can be used on its own:
//
//   - parser: layer-list extraction and the stackup record parser
//   - kicad: exports a board's stackup block in the flat stackup format
//   - report: finds projects, builds board documents, encodes JSON/YAML
//   - config: TOML/YAML/environment configuration
//   - watch: re-runs a build when project files change
//
// # Quick Start
//
// Layer list:
//
//	import "github.com/randalmurphal/pcbkit/parser"
//	layers, err := parser.ExtractLayers(boardText)
//
// Physical stackup:
//
//	records, err := parser.ParseStackup(exportText)
//	for _, rec := range records {
//		thickness, _ := rec.Get("thickness")
//	}
//
// Whole project:
//
//	import "github.com/randalmurphal/pcbkit/report"
//	b := report.NewBuilder(config.DefaultConfig(), nil)
//	board, err := b.Build(ctx, "hardware/amp")
//
// # Design Philosophy
//
//   - Parsers are pure functions of their input text
//   - Errors carry the line and the offending content
//   - Unknown stackup attributes are kept, in order, as strings
//   - Sensible defaults with full configurability
package pcbkit
