package parser

import (
	"bytes"
	"errors"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// Parser Creation Tests
// =============================================================================

func TestNewParser(t *testing.T) {
	p := NewParser()

	require.NotNil(t, p)
	assert.Equal(t, DefaultLayersSection, p.LayersSection())
	assert.Equal(t, []string{DefaultSentinel}, p.Sentinels())
}

func TestNewParser_Options(t *testing.T) {
	p := NewParser(
		WithLayersSection("stackup"),
		WithSentinels("", "layer", "row"),
		WithStackupIndent("    "),
	)

	assert.Equal(t, "stackup", p.LayersSection())
	assert.Equal(t, []string{"layer", "row"}, p.Sentinels())
	assert.Equal(t, "    ", p.stackupIndent)
}

func TestNewParser_EmptyOptionsKeepDefaults(t *testing.T) {
	p := NewParser(WithLayersSection(""), WithSentinels())

	assert.Equal(t, DefaultLayersSection, p.LayersSection())
	assert.Equal(t, []string{DefaultSentinel}, p.Sentinels())
}

func TestParser_SentinelsIsCopy(t *testing.T) {
	p := NewParser()
	s := p.Sentinels()
	s[0] = "mutated"

	assert.Equal(t, []string{DefaultSentinel}, p.Sentinels())
}

// =============================================================================
// Layer Extraction Tests
// =============================================================================

func TestExtractLayers_ScenarioA(t *testing.T) {
	input := "(layers\n  (0 \"F.Cu\" signal)\n  (1 \"B.Cu\" signal)\n)\n(other_section\n  (2 \"In1.Cu\" signal)\n)\n"

	layers, err := ExtractLayers(input)

	require.NoError(t, err)
	assert.Equal(t, []string{"F.Cu", "B.Cu"}, layers)
}

func TestExtractLayers_KiCadBoard(t *testing.T) {
	input := `(kicad_pcb (version 20221018) (generator pcbnew)

	(general
		(thickness 1.6)
	)

	(paper "A4")
	(layers
		(0 "F.Cu" signal)
		(31 "B.Cu" signal)
		(34 "B.Paste" user)
		(36 "B.SilkS" user "B.Silkscreen")
		(37 "F.SilkS" user "F.Silkscreen")
		(38 "B.Mask" user)
		(39 "F.Mask" user)
		(44 "Edge.Cuts" user)
	)

	(setup
		(pad_to_mask_clearance 0)
	)
)
`
	layers, err := ExtractLayers(input)

	require.NoError(t, err)
	assert.Equal(t, []string{
		"F.Cu", "B.Cu", "B.Paste", "B.SilkS", "F.SilkS", "B.Mask", "F.Mask", "Edge.Cuts",
	}, layers)
}

func TestExtractLayers_EndOfInputClosesBlock(t *testing.T) {
	input := "\t(layers\n\t\t(0 \"F.Cu\" signal)\n\t\t(31 \"B.Cu\" signal)"

	layers, err := ExtractLayers(input)

	require.NoError(t, err)
	assert.Equal(t, []string{"F.Cu", "B.Cu"}, layers)
}

func TestExtractLayers_SiblingBlockNotConsumed(t *testing.T) {
	input := "  (layers\n    (0 \"F.Cu\" signal)\n  (setup\n    (aux \"B.Cu\")\n  )\n"

	layers, err := ExtractLayers(input)

	require.NoError(t, err)
	assert.Equal(t, []string{"F.Cu"}, layers)
}

func TestExtractLayers_DedentLineNeverIncluded(t *testing.T) {
	// The dedenting line carries a quoted string but belongs to the parent scope.
	input := "  (layers\n    (0 \"F.Cu\" signal)\n  (31 \"B.Cu\" signal)\n"

	layers, err := ExtractLayers(input)

	require.NoError(t, err)
	assert.Equal(t, []string{"F.Cu"}, layers)
}

func TestExtractLayers_IndentWidthNotFixed(t *testing.T) {
	input := "(layers\n (0 \"F.Cu\" signal)\n        (31 \"B.Cu\" signal)\n)\n"

	layers, err := ExtractLayers(input)

	require.NoError(t, err)
	assert.Equal(t, []string{"F.Cu", "B.Cu"}, layers)
}

func TestExtractLayers_BlankLineEndsBlock(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{
			name:  "empty line",
			input: "(layers\n  (0 \"F.Cu\" signal)\n\n  (31 \"B.Cu\" signal)\n)\n",
			want:  []string{"F.Cu"},
		},
		{
			name:  "whitespace only line",
			input: "(layers\n  (0 \"F.Cu\" signal)\n   \n  (31 \"B.Cu\" signal)\n)\n",
			want:  []string{"F.Cu"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			layers, err := ExtractLayers(tt.input)

			require.NoError(t, err)
			assert.Equal(t, tt.want, layers)
		})
	}
}

func TestExtractLayers_BlankLineAfterMarker(t *testing.T) {
	input := "(layers\n\n  (0 \"F.Cu\" signal)\n)\n"

	_, err := ExtractLayers(input)

	assert.ErrorIs(t, err, ErrEmptyBlock)
}

func TestExtractLayers_FirstBlockWins(t *testing.T) {
	input := "(layers\n  (0 \"F.Cu\" signal)\n)\n(layers\n  (31 \"B.Cu\" signal)\n)\n"

	layers, err := ExtractLayers(input)

	require.NoError(t, err)
	assert.Equal(t, []string{"F.Cu"}, layers)
}

func TestExtractLayers_CustomSection(t *testing.T) {
	input := "(copper_layers\n  (0 \"F.Cu\")\n)\n"

	layers, err := NewParser(WithLayersSection("copper_layers")).ExtractLayers(input)

	require.NoError(t, err)
	assert.Equal(t, []string{"F.Cu"}, layers)
}

func TestExtractLayers_DuplicatesKeptAndLogged(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	input := "(layers\n  (0 \"F.Cu\" signal)\n  (1 \"F.Cu\" signal)\n  (31 \"B.Cu\" signal)\n)\n"

	layers, err := NewParser(WithLogger(logger)).ExtractLayers(input)

	require.NoError(t, err)
	assert.Equal(t, []string{"F.Cu", "F.Cu", "B.Cu"}, layers)
	assert.Contains(t, buf.String(), "duplicate layer name")
	assert.Contains(t, buf.String(), "layer=F.Cu")
	assert.Contains(t, buf.String(), "line=3")
	assert.Contains(t, buf.String(), "first_line=2")
}

func TestExtractLayers_Errors(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantErr  error
		wantLine int
	}{
		{
			name:     "scenario B: immediate dedent",
			input:    "(layers\n)\n(other\n)\n",
			wantErr:  ErrEmptyBlock,
			wantLine: 0,
		},
		{
			name:     "marker at end of input",
			input:    "(general)\n  (layers",
			wantErr:  ErrEmptyBlock,
			wantLine: 1,
		},
		{
			name:     "closed on the marker line",
			input:    "(layers)\n  (0 \"F.Cu\" signal)\n",
			wantErr:  ErrEmptyBlock,
			wantLine: 0,
		},
		{
			name:     "section absent",
			input:    "(kicad_pcb\n  (general)\n)\n",
			wantErr:  ErrSectionNotFound,
			wantLine: 3,
		},
		{
			name:     "empty input",
			input:    "",
			wantErr:  ErrSectionNotFound,
			wantLine: 0,
		},
		{
			name:     "entry without quoted name",
			input:    "(layers\n  (0 \"F.Cu\" signal)\n  (31 B.Cu signal)\n)\n",
			wantErr:  ErrMalformedEntry,
			wantLine: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			layers, err := ExtractLayers(tt.input)

			require.Error(t, err)
			assert.Nil(t, layers)
			assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)

			var perr *Error
			require.True(t, errors.As(err, &perr))
			assert.Equal(t, tt.wantLine, perr.Line)
			assert.Equal(t, opExtractLayers, perr.Op)
		})
	}
}

func TestExtractLayers_ConcurrentUse(t *testing.T) {
	p := NewParser()
	inputs := []string{
		"(layers\n  (0 \"F.Cu\" signal)\n)\n",
		"(layers\n  (0 \"F.Cu\" signal)\n  (31 \"B.Cu\" signal)\n)\n",
	}

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			input := inputs[i%len(inputs)]
			layers, err := p.ExtractLayers(input)
			assert.NoError(t, err)
			assert.Len(t, layers, i%len(inputs)+1)
		}(i)
	}
	wg.Wait()
}

// =============================================================================
// Block Extraction Tests
// =============================================================================

func TestExtractBlock(t *testing.T) {
	input := "(kicad_pcb\n\t(setup\n\t\t(stackup\n\t\t\t(layer \"F.Cu\"\n\t\t\t\t(type \"copper\")\n\t\t\t)\n\t\t)\n\t)\n)\n"

	block, err := NewParser().ExtractBlock(input, "stackup")

	require.NoError(t, err)
	assert.Equal(t, "stackup", block.Name)
	assert.Equal(t, 2, block.Marker.Num)
	assert.Equal(t, 2, block.Marker.Depth)
	require.Len(t, block.Lines, 3)
	assert.Equal(t, "(layer \"F.Cu\"", block.Lines[0].Content)
	assert.Equal(t, ")", block.Lines[2].Content)
}

func TestExtractBlock_NotFound(t *testing.T) {
	_, err := NewParser().ExtractBlock("(kicad_pcb\n)\n", "stackup")

	assert.ErrorIs(t, err, ErrSectionNotFound)
	assert.Contains(t, err.Error(), "extract block")
}
