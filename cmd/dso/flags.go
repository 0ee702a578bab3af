package main

import (
	"context"
	"errors"
	"io"
	"os"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/samcharles93/dsotools/internal/logger"
)

var (
	logLevel   string
	logFormat  string
	debug      bool
	configFile string

	// cfg is loaded once by setup before any subcommand runs.
	cfg Config
)

var errNoInput = errors.New("--input (or a DSO path argument) is required")

func loggingFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "log-level",
			Usage:       "log level (debug, info, warn, error)",
			Value:       "info",
			Destination: &logLevel,
		},
		&cli.StringFlag{
			Name:        "log-format",
			Usage:       "log format (pretty, json, text)",
			Value:       "pretty",
			Destination: &logFormat,
		},
		&cli.BoolFlag{
			Name:        "debug",
			Usage:       "enable debug logging (shorthand for --log-level=debug)",
			Destination: &debug,
		},
	}
}

func configFlag() cli.Flag {
	return &cli.StringFlag{
		Name:        "config",
		Usage:       "path to config file (default ~/.config/dsotools/config.yaml, or $" + envConfigPath + ")",
		Destination: &configFile,
	}
}

func inputFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "input",
		Aliases: []string{"i"},
		Usage:   "path to .dso file",
	}
}

// inputPath returns --input, falling back to the first positional argument.
func inputPath(cmd *cli.Command) (string, error) {
	if p := strings.TrimSpace(cmd.String("input")); p != "" {
		return p, nil
	}
	if p := strings.TrimSpace(cmd.Args().First()); p != "" {
		return p, nil
	}
	return "", errNoInput
}

// setup loads the config file and installs the logger on the context.
func setup(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	cfg = LoadConfig(configPath(configFile))
	applyLoggingConfig(cmd, cfg)

	level := logLevel
	if debug {
		level = "debug"
	}
	log, err := logger.ForFormat(errWriter(cmd), logFormat, level)
	if err != nil {
		return ctx, err
	}
	return logger.WithContext(ctx, log), nil
}

func outWriter(cmd *cli.Command) io.Writer {
	if w := cmd.Root().Writer; w != nil {
		return w
	}
	return os.Stdout
}

func errWriter(cmd *cli.Command) io.Writer {
	if w := cmd.Root().ErrWriter; w != nil {
		return w
	}
	return os.Stderr
}
