package parser

import (
	"log/slog"
)

// ExtractLayers returns the layer names declared in the layers block, in
// file order. Duplicate names are kept and logged as a warning.
func (p *Parser) ExtractLayers(text string) ([]string, error) {
	block, err := scanBlock(opExtractLayers, SplitLines(text), p.layersSection)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(block.Lines))
	firstSeen := make(map[string]int, len(block.Lines))
	for _, line := range block.Lines {
		name, ok := line.Quoted()
		if !ok {
			return nil, newError(opExtractLayers, line.Num, ErrMalformedEntry, "quoted layer name", line.Content)
		}
		if first, dup := firstSeen[name]; dup {
			p.log().Warn("duplicate layer name",
				slog.String("layer", name),
				slog.Int("line", line.Num+1),
				slog.Int("first_line", first+1))
		} else {
			firstSeen[name] = line.Num
		}
		names = append(names, name)
	}

	if len(names) == 0 {
		return nil, newError(opExtractLayers, block.Marker.Num, ErrEmptyBlock, "layer entries", block.Marker.Content)
	}
	return names, nil
}
