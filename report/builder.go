package report

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"golang.org/x/sync/errgroup"

	"github.com/randalmurphal/pcbkit/config"
	"github.com/randalmurphal/pcbkit/kicad"
	"github.com/randalmurphal/pcbkit/parser"
)

// StackupFromBoard marks a stackup taken from the board's stackup block.
const StackupFromBoard = "board"

// Builder reads KiCad projects and runs the parsers over them.
// A Builder is safe for concurrent use.
type Builder struct {
	cfg      config.Config
	parser   *parser.Parser
	exporter *kicad.StackupExporter
	logger   *slog.Logger
}

// NewBuilder creates a builder from cfg. A nil logger uses slog.Default().
func NewBuilder(cfg config.Config, logger *slog.Logger) *Builder {
	if logger == nil {
		logger = slog.Default()
	}
	opts := append(cfg.ParserOptions(), parser.WithLogger(logger))
	p := parser.NewParser(opts...)
	return &Builder{
		cfg:      cfg,
		parser:   p,
		exporter: kicad.NewStackupExporter(p),
		logger:   logger,
	}
}

// Parser returns the parser the builder is configured with.
func (b *Builder) Parser() *parser.Parser {
	return b.parser
}

// Build extracts the board document of the project in dir.
func (b *Builder) Build(ctx context.Context, dir string) (*Board, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	project, err := FindProject(dir)
	if err != nil {
		return nil, err
	}
	return b.BuildProject(ctx, project)
}

// BuildProject extracts the board document of project.
func (b *Builder) BuildProject(ctx context.Context, project Project) (*Board, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	boardPath := project.BoardPath()
	data, err := os.ReadFile(boardPath)
	if err != nil {
		return nil, fmt.Errorf("read board: %w", err)
	}
	boardText := string(data)

	layers, err := b.parser.ExtractLayers(boardText)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", boardPath, err)
	}
	render, err := SelectRenderLayers(layers, b.cfg.RenderLayers)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", boardPath, err)
	}

	board := &Board{
		Name:         project.Name,
		BoardFile:    boardPath,
		Layers:       layers,
		RenderLayers: render,
	}

	source, text, err := b.stackupText(project, boardText)
	if err != nil {
		return nil, err
	}
	if source != "" {
		records, err := b.parser.ParseStackup(text)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", source, err)
		}
		board.StackupSource = source
		board.Stackup = NewStackupLayers(records)
	}

	b.logger.Info("built board",
		slog.String("project", project.Name),
		slog.Int("layers", len(board.Layers)),
		slog.Int("render_layers", len(board.RenderLayers)),
		slog.Int("stackup_layers", len(board.Stackup)))
	return board, nil
}

// stackupText returns the stackup export and where it came from. An export
// file beside the board wins over the board's own stackup block. Both
// missing yields an empty source.
func (b *Builder) stackupText(project Project, boardText string) (string, string, error) {
	path := project.StackupPath()
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		return path, string(data), nil
	case !errors.Is(err, os.ErrNotExist):
		return "", "", fmt.Errorf("read stackup: %w", err)
	}

	text, err := b.exporter.Export(boardText)
	if errors.Is(err, parser.ErrSectionNotFound) {
		b.logger.Info("board has no physical stackup", slog.String("project", project.Name))
		return "", "", nil
	}
	if err != nil {
		return "", "", fmt.Errorf("%s: %w", project.BoardPath(), err)
	}
	return StackupFromBoard, text, nil
}

// BuildAll builds every project directory concurrently, at most
// cfg.Workers at a time. Boards are returned in dirs order. The first
// failure cancels the remaining builds and is returned.
func (b *Builder) BuildAll(ctx context.Context, dirs []string) (*Document, error) {
	boards := make([]*Board, len(dirs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(b.cfg.Workers, 1))
	for i, dir := range dirs {
		g.Go(func() error {
			board, err := b.Build(gctx, dir)
			if err != nil {
				return fmt.Errorf("build %s: %w", dir, err)
			}
			boards[i] = board
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &Document{Boards: boards}, nil
}
