package parser

import (
	"log/slog"
)

const (
	// DefaultLayersSection is the block that declares board layers.
	DefaultLayersSection = "layers"

	// DefaultSentinel is the keyword that starts a new stackup layer.
	DefaultSentinel = "layer"
)

const (
	opExtractBlock  = "extract block"
	opExtractLayers = "extract layers"
	opParseStackup  = "parse stackup"
)

// Parser extracts layer lists and stackup tables from KiCad text.
// A Parser is immutable once built and safe for concurrent use.
type Parser struct {
	// layersSection is the block name ExtractLayers looks for.
	layersSection string

	// sentinels are the first tokens that start a new stackup record.
	// The first entry is used when formatting.
	sentinels []string

	// stackupIndent is the fixed prefix stripped from every stackup line.
	stackupIndent string

	// logger receives data-quality warnings. Nil means slog.Default().
	logger *slog.Logger
}

// Option configures a Parser.
type Option func(*Parser)

// WithLayersSection sets the block name holding the layer declarations.
func WithLayersSection(name string) Option {
	return func(p *Parser) {
		if name != "" {
			p.layersSection = name
		}
	}
}

// WithSentinels sets the keywords that start a new stackup record.
// Empty keywords are ignored; an empty list keeps the default.
func WithSentinels(sentinels ...string) Option {
	return func(p *Parser) {
		kept := make([]string, 0, len(sentinels))
		for _, s := range sentinels {
			if s != "" {
				kept = append(kept, s)
			}
		}
		if len(kept) > 0 {
			p.sentinels = kept
		}
	}
}

// WithStackupIndent sets the fixed leading prefix stripped from stackup lines.
func WithStackupIndent(prefix string) Option {
	return func(p *Parser) {
		p.stackupIndent = prefix
	}
}

// WithLogger sets the logger used for data-quality warnings.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Parser) {
		p.logger = logger
	}
}

// NewParser creates a parser with the default KiCad vocabulary.
func NewParser(opts ...Option) *Parser {
	p := &Parser{
		layersSection: DefaultLayersSection,
		sentinels:     []string{DefaultSentinel},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// LayersSection returns the block name used by ExtractLayers.
func (p *Parser) LayersSection() string {
	return p.layersSection
}

// Sentinels returns a copy of the stackup sentinel keywords.
func (p *Parser) Sentinels() []string {
	return append([]string(nil), p.sentinels...)
}

func (p *Parser) log() *slog.Logger {
	if p.logger != nil {
		return p.logger
	}
	return slog.Default()
}

func (p *Parser) isSentinel(token string) bool {
	for _, s := range p.sentinels {
		if token == s {
			return true
		}
	}
	return false
}

// ExtractLayers is a convenience function using the default parser.
func ExtractLayers(text string) ([]string, error) {
	return NewParser().ExtractLayers(text)
}

// ParseStackup is a convenience function using the default parser.
func ParseStackup(text string) ([]StackupRecord, error) {
	return NewParser().ParseStackup(text)
}

// FormatStackup is a convenience function using the default parser.
func FormatStackup(records []StackupRecord) string {
	return NewParser().FormatStackup(records)
}
