package main

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/samcharles93/dsotools/internal/dsostore"
	"github.com/samcharles93/dsotools/internal/logger"
	"github.com/samcharles93/dsotools/internal/patchset"
)

func stringsCmd() *cli.Command {
	var format string

	return &cli.Command{
		Name:      "strings",
		Usage:     "Dump the global string table in a form that can be edited and used as a patch",
		ArgsUsage: "[file.dso]",
		Flags: []cli.Flag{
			inputFlag(),
			&cli.StringFlag{
				Name:        "format",
				Aliases:     []string{"f"},
				Usage:       "output format (json, yaml, toml)",
				Value:       "json",
				Destination: &format,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			log := logger.FromContext(ctx)

			in, err := inputPath(cmd)
			if err != nil {
				return err
			}
			f, err := patchset.ParseFormat(format)
			if err != nil {
				return err
			}
			c, err := dsostore.Open(in)
			if err != nil {
				return err
			}
			log.Debug("decoded", "path", in, "strings", len(c.GlobalStrings))
			return patchset.Write(outWriter(cmd), c.GlobalStrings, f)
		},
	}
}
