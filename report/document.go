// Package report builds board documents from KiCad projects. It reads the
// project files, runs the parsers and encodes the result. Any parse error
// halts the build; a document is never emitted with a missing section.
package report

import (
	"github.com/invopop/jsonschema"
	"gopkg.in/yaml.v3"

	"github.com/randalmurphal/pcbkit/parser"
)

// Document is the top-level output of a report run.
type Document struct {
	Boards []*Board `json:"boards" yaml:"boards" jsonschema:"description=One entry per KiCad project"`
}

// Board is everything extracted from one KiCad project.
type Board struct {
	// Name is the KiCad project name.
	Name string `json:"name" yaml:"name" jsonschema:"description=KiCad project name"`

	// BoardFile is the path of the parsed .kicad_pcb file.
	BoardFile string `json:"board_file" yaml:"board_file"`

	// Layers are the declared layers in board order.
	Layers []string `json:"layers" yaml:"layers" jsonschema:"description=Declared layers in board stacking order"`

	// RenderLayers are the declared layers worth rendering, in report order.
	RenderLayers []string `json:"render_layers" yaml:"render_layers"`

	// StackupSource is the stackup export file, or "board" when the stackup
	// came from the board's own stackup block. Empty when the board has none.
	StackupSource string `json:"stackup_source,omitempty" yaml:"stackup_source,omitempty"`

	// Stackup lists the physical layers top to bottom.
	Stackup []StackupLayer `json:"stackup,omitempty" yaml:"stackup,omitempty"`
}

// StackupLayer is one physical layer of the stackup.
type StackupLayer struct {
	Label      string     `json:"label,omitempty" yaml:"label,omitempty" jsonschema:"description=Value of the layer sentinel line"`
	Attributes Attributes `json:"attributes" yaml:"attributes"`
}

// Attributes encodes a stackup record as a mapping that keeps key order.
type Attributes struct {
	record parser.StackupRecord
}

// NewStackupLayers converts parsed records into document layers.
func NewStackupLayers(records []parser.StackupRecord) []StackupLayer {
	layers := make([]StackupLayer, len(records))
	for i, rec := range records {
		layers[i] = StackupLayer{Label: rec.Label, Attributes: Attributes{record: rec}}
	}
	return layers
}

// Record returns the underlying stackup record.
func (a Attributes) Record() parser.StackupRecord {
	return a.record
}

// MarshalJSON implements json.Marshaler.
func (a Attributes) MarshalJSON() ([]byte, error) {
	return a.record.MarshalJSON()
}

// MarshalYAML implements yaml.Marshaler.
func (a Attributes) MarshalYAML() (any, error) {
	node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for _, pair := range a.record.Pairs() {
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: pair.Key},
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: pair.Value},
		)
	}
	return node, nil
}

// JSONSchema describes Attributes as a string-valued object.
func (Attributes) JSONSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type:                 "object",
		Description:          "Layer attributes in export order. Values are unparsed strings.",
		AdditionalProperties: &jsonschema.Schema{Type: "string"},
	}
}
