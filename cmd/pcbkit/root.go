package main

import (
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/randalmurphal/pcbkit/config"
	"github.com/randalmurphal/pcbkit/parser"
)

// cli holds the state shared by every command of one invocation.
type cli struct {
	outW io.Writer
	errW io.Writer

	configPath string
	format     string
	logLevel   string
	logFormat  string

	cfg    config.Config
	logger *slog.Logger
}

func newRootCmd(outW, errW io.Writer) *cobra.Command {
	c := &cli{outW: outW, errW: errW}

	root := &cobra.Command{
		Use:   "pcbkit",
		Short: "Extract layers and physical stackups from KiCad projects",
		Long: `pcbkit reads KiCad board files and stackup exports and prints
their layer lists and physical stackups as JSON or YAML.

Configuration is read from --config (TOML or YAML), then PCBKIT_*
environment variables, then flags.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: c.setup,
	}
	root.SetOut(outW)
	root.SetErr(errW)

	flags := root.PersistentFlags()
	flags.StringVar(&c.configPath, "config", "", "config file (.toml, .yaml)")
	flags.StringVarP(&c.format, "format", "f", "", "output format: json or yaml")
	flags.StringVar(&c.logLevel, "log-level", "", "log level: debug, info, warn, error")
	flags.StringVar(&c.logFormat, "log-format", "", "log format: text or json")

	root.AddCommand(
		c.layersCmd(),
		c.stackupCmd(),
		c.reportCmd(),
		c.schemaCmd(),
	)
	return root
}

// setup loads the config, applies flag overrides and builds the logger.
func (c *cli) setup(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return err
	}
	flags := cmd.Flags()
	if flags.Changed("format") {
		cfg.Format = c.format
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = c.logLevel
	}
	if flags.Changed("log-format") {
		cfg.LogFormat = c.logFormat
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	c.cfg = cfg
	c.logger = newLogger(cfg.LogLevel, cfg.LogFormat, c.errW)
	c.logger.Debug("config loaded",
		slog.String("path", c.configPath),
		slog.String("format", cfg.Format),
		slog.Int("workers", cfg.Workers))
	return nil
}

func (c *cli) parser() *parser.Parser {
	return parser.NewParser(append(c.cfg.ParserOptions(), parser.WithLogger(c.logger))...)
}
