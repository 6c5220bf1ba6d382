package kicad

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/randalmurphal/pcbkit/parser"
)

const fourLayerBoard = `(kicad_pcb (version 20221018) (generator pcbnew)
	(layers
		(0 "F.Cu" signal)
		(1 "In1.Cu" signal)
		(31 "B.Cu" signal)
	)
	(setup
		(stackup
			(layer "F.SilkS" (type "Top Silk Screen"))
			(layer "F.Mask" (type "Top Solder Mask") (thickness 0.01))
			(layer "F.Cu" (type "copper") (thickness 0.035))
			(layer "dielectric 1"
				(type "prepreg")
				(thickness 0.1)
				(material "FR4")
				(epsilon_r 4.5)
				(loss_tangent 0.02)
				addsublayer
				(thickness 0.2 locked)
				(material "FR4 High Tg")
			)
			(layer "In1.Cu" (type "copper") (thickness 0.035))
			(layer "B.Cu" (type "copper") (thickness 0.035))
			(copper_finish "None")
			(dielectric_constraints no)
		)
		(pad_to_mask_clearance 0)
	)
)
`

func TestStackupExporter_Export(t *testing.T) {
	text, err := NewStackupExporter(nil).Export(fourLayerBoard)

	require.NoError(t, err)
	assert.Equal(t, `layer F.SilkS
type "Top Silk Screen"
layer F.Mask
type "Top Solder Mask" thickness 0.01
layer F.Cu
type copper thickness 0.035
layer "dielectric 1"
type prepreg thickness 0.1 material FR4 epsilon_r 4.5 loss_tangent 0.02
sublayer1.thickness "0.2 locked" sublayer1.material "FR4 High Tg"
layer In1.Cu
type copper thickness 0.035
layer B.Cu
type copper thickness 0.035
`, text)
}

func TestStackupExporter_FeedsParser(t *testing.T) {
	p := parser.NewParser()
	text, err := NewStackupExporter(p).Export(fourLayerBoard)
	require.NoError(t, err)

	records, err := p.ParseStackup(text)

	require.NoError(t, err)
	require.Len(t, records, 6)
	assert.Equal(t, "F.SilkS", records[0].Label)
	assert.Equal(t, "dielectric 1", records[3].Label)
	assert.Equal(t, []string{
		"type", "thickness", "material", "epsilon_r", "loss_tangent",
		"sublayer1.thickness", "sublayer1.material",
	}, records[3].Keys())
	material, _ := records[3].Get("sublayer1.material")
	assert.Equal(t, "FR4 High Tg", material)
	assert.Equal(t, "B.Cu", records[5].Label)
}

func TestExportStackup_Default(t *testing.T) {
	text, err := ExportStackup(fourLayerBoard)
	require.NoError(t, err)

	want, err := NewStackupExporter(nil).Export(fourLayerBoard)
	require.NoError(t, err)
	assert.Equal(t, want, text)
}

func TestStackupExporter_CustomSentinel(t *testing.T) {
	p := parser.NewParser(parser.WithSentinels("row"))
	board := "(stackup\n  (layer \"F.Cu\" (type \"copper\"))\n)\n"

	text, err := NewStackupExporter(p).Export(board)

	require.NoError(t, err)
	assert.Equal(t, "row F.Cu\ntype copper\n", text)
}

func TestStackupExporter_Errors(t *testing.T) {
	tests := []struct {
		name     string
		board    string
		wantErr  error
		wantLine int
	}{
		{
			name:     "no stackup block",
			board:    "(kicad_pcb\n  (setup\n  )\n)\n",
			wantErr:  parser.ErrSectionNotFound,
			wantLine: 4,
		},
		{
			name:     "only board properties",
			board:    "(stackup\n  (copper_finish \"None\")\n)\n",
			wantErr:  parser.ErrEmptyBlock,
			wantLine: 0,
		},
		{
			name:     "layer without name",
			board:    "(stackup\n  (layer (type \"copper\"))\n)\n",
			wantErr:  parser.ErrMalformedEntry,
			wantLine: 1,
		},
		{
			name:     "layer without attributes",
			board:    "(stackup\n  (layer \"F.Cu\")\n)\n",
			wantErr:  parser.ErrMalformedEntry,
			wantLine: 1,
		},
		{
			name:     "unbalanced entry",
			board:    "(stackup\n  (layer \"F.Cu\"\n    (type \"copper\")\n",
			wantErr:  parser.ErrUnexpectedEOF,
			wantLine: 1,
		},
		{
			name:     "stray close",
			board:    "(stackup\n  (layer \"F.Cu\" (type \"copper\")))\n)\n",
			wantErr:  parser.ErrMalformedEntry,
			wantLine: 1,
		},
		{
			name:     "escaped quote in value",
			board:    "(stackup\n  (layer \"F.Cu\" (type \"copper\"))\n  (layer \"dielectric 1\"\n    (material \"FR4 \\\"HTg\\\"\"))\n)\n",
			wantErr:  parser.ErrMalformedEntry,
			wantLine: 3,
		},
		{
			name:     "escaped quote in layer name",
			board:    "(stackup\n  (layer \"F.\\\"Cu\" (type \"copper\"))\n)\n",
			wantErr:  parser.ErrMalformedEntry,
			wantLine: 1,
		},
		{
			name:     "unterminated string",
			board:    "(stackup\n  (layer \"F.Cu (type copper))\n)\n",
			wantErr:  parser.ErrMalformedEntry,
			wantLine: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewStackupExporter(nil).Export(tt.board)

			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
			var perr *parser.Error
			require.ErrorAs(t, err, &perr)
			assert.Equal(t, tt.wantLine, perr.Line)
		})
	}
}

func TestNode_String(t *testing.T) {
	nodes, err := parseNodes("test", parser.SplitLines(`(layer "dielectric 1" (type core) (color ""))`))

	require.NoError(t, err)
	require.Len(t, nodes, 1)
	assert.Equal(t, `(layer "dielectric 1" (type core) (color ""))`, nodes[0].String())
	assert.Equal(t, "layer", nodes[0].Head())
	assert.True(t, nodes[0].IsList())
	assert.False(t, nodes[0].List[1].IsList())
}

func TestParseNodes_EscapedQuotes(t *testing.T) {
	nodes, err := parseNodes("test", parser.SplitLines(`(material "FR4 \"HTg\"") (path "C:\\pcb")`))

	require.NoError(t, err)
	require.Len(t, nodes, 2)
	assert.Equal(t, `FR4 "HTg"`, nodes[0].List[1].Atom)
	assert.Equal(t, `C:\pcb`, nodes[1].List[1].Atom)
	assert.Equal(t, `(material "FR4 \"HTg\"")`, nodes[0].String())
}

func TestParseNodes_EscapedQuoteDoesNotCloseString(t *testing.T) {
	_, err := parseNodes("test", parser.SplitLines(`(material "FR4 \")`))

	assert.ErrorIs(t, err, parser.ErrMalformedEntry)
}
