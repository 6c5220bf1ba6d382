package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/randalmurphal/pcbkit/kicad"
	"github.com/randalmurphal/pcbkit/report"
	"github.com/randalmurphal/pcbkit/watch"
)

func (c *cli) layersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "layers <board.kicad_pcb>",
		Short: "Print the declared layers of a board",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := readFile(args[0])
			if err != nil {
				return err
			}
			layers, err := c.parser().ExtractLayers(text)
			if err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
			}
			return report.Encode(cmd.OutOrStdout(), layers, c.cfg.Format)
		},
	}
}

func (c *cli) stackupCmd() *cobra.Command {
	var (
		fromBoard bool
		flat      bool
	)
	cmd := &cobra.Command{
		Use:   "stackup <file>",
		Short: "Parse a physical stackup export",
		Long: `Parse a flat stackup export and print its records.

With --board the file is a .kicad_pcb and its stackup block is exported
first. With --flat the records are printed back in the export format.

Examples:
  pcbkit stackup amp.stackup
  pcbkit stackup --board amp.kicad_pcb --format yaml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := readFile(args[0])
			if err != nil {
				return err
			}
			p := c.parser()
			if fromBoard {
				if text, err = kicad.NewStackupExporter(p).Export(text); err != nil {
					return fmt.Errorf("%s: %w", args[0], err)
				}
			}
			records, err := p.ParseStackup(text)
			if err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
			}
			if flat {
				_, err := io.WriteString(cmd.OutOrStdout(), p.FormatStackup(records))
				return err
			}
			return report.Encode(cmd.OutOrStdout(), report.NewStackupLayers(records), c.cfg.Format)
		},
	}
	cmd.Flags().BoolVar(&fromBoard, "board", false, "read the stackup block of a board file")
	cmd.Flags().BoolVar(&flat, "flat", false, "print records in the flat export format")
	return cmd
}

func (c *cli) reportCmd() *cobra.Command {
	var watchFiles bool
	cmd := &cobra.Command{
		Use:   "report <project-dir>...",
		Short: "Build the board document of KiCad projects",
		Long: `Build the board document of each project directory and print them
as one document. Projects are parsed concurrently; the first failure
aborts the run.

With --watch a single project is rebuilt whenever its board or
stackup file changes, until interrupted.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b := report.NewBuilder(c.cfg, c.logger)
			if !watchFiles {
				doc, err := b.BuildAll(cmd.Context(), args)
				if err != nil {
					return err
				}
				return report.Encode(cmd.OutOrStdout(), doc, c.cfg.Format)
			}

			if len(args) != 1 {
				return fmt.Errorf("--watch takes exactly one project dir, got %d", len(args))
			}
			return c.watchProject(cmd.Context(), cmd.OutOrStdout(), b, args[0])
		},
	}
	cmd.Flags().BoolVarP(&watchFiles, "watch", "w", false, "rebuild when the project files change")
	return cmd
}

func (c *cli) watchProject(ctx context.Context, w io.Writer, b *report.Builder, dir string) error {
	project, err := report.FindProject(dir)
	if err != nil {
		return err
	}

	watcher := watch.New(
		[]string{project.BoardPath(), project.StackupPath()},
		c.cfg.WatchDebounce,
		watch.WithLogger(c.logger),
	)
	c.logger.Info("watching project",
		slog.String("project", project.Name),
		slog.Any("paths", watcher.Paths()))

	err = watcher.Run(ctx, func(ctx context.Context) error {
		board, err := b.BuildProject(ctx, project)
		if err != nil {
			return err
		}
		return report.Encode(w, &report.Document{Boards: []*report.Board{board}}, c.cfg.Format)
	})
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		c.logger.Info("stopped watching", slog.String("project", project.Name))
		return nil
	}
	return err
}

func (c *cli) schemaCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Print the JSON Schema of the report document",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			data, err := report.Schema()
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return err
		},
	}
}

func readFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	return string(data), nil
}
