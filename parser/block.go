package parser

// Block is an indentation-scoped region opened by a block marker.
type Block struct {
	// Name is the identifier that followed the opening parenthesis.
	Name string

	// Marker is the line that opened the block. Its Depth is the baseline.
	Marker RawLine

	// Lines are the lines nested deeper than the baseline, in file order.
	Lines []RawLine
}

type blockState byte

const (
	seekingBlock blockState = iota
	insideBlock
)

// ExtractBlock returns the first block named name. The block ends at the
// first blank line or line indented no deeper than the marker, which is not
// part of the block, or at end of input.
func (p *Parser) ExtractBlock(text, name string) (*Block, error) {
	return scanBlock(opExtractBlock, SplitLines(text), name)
}

func scanBlock(op string, lines []RawLine, name string) (*Block, error) {
	state := seekingBlock
	var block *Block

	for _, line := range lines {
		switch state {
		case seekingBlock:
			at := line.markerIndex(name)
			if at < 0 {
				continue
			}
			block = &Block{Name: name, Marker: line}
			if line.closesAt(at) {
				return block, nil
			}
			state = insideBlock

		case insideBlock:
			// A blank line carries no indentation and closes the block.
			if line.IsBlank() || line.Depth <= block.Marker.Depth {
				return block, nil
			}
			block.Lines = append(block.Lines, line)
		}
	}

	if state == seekingBlock {
		return nil, newError(op, len(lines), ErrSectionNotFound, "("+name, "end of input")
	}
	// End of input closes the block.
	return block, nil
}
