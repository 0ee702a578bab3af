package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/samcharles93/dsotools/internal/dsostore"
	"github.com/samcharles93/dsotools/internal/logger"
	"github.com/samcharles93/dsotools/internal/patchset"
)

func patchCmd() *cli.Command {
	var (
		patchPath string
		outPath   string
		backup    bool
	)

	return &cli.Command{
		Name:      "patch",
		Usage:     "Replace global strings from a JSON or YAML patch file and rewrite the DSO",
		ArgsUsage: "[file.dso]",
		Flags: []cli.Flag{
			inputFlag(),
			&cli.StringFlag{
				Name:        "patch",
				Aliases:     []string{"p"},
				Usage:       "patch file mapping string index to replacement text (.json, .yaml, .toml)",
				Destination: &patchPath,
				Required:    true,
			},
			&cli.StringFlag{
				Name:        "output",
				Aliases:     []string{"o"},
				Usage:       "write the patched DSO here instead of replacing the input",
				Destination: &outPath,
			},
			&cli.BoolFlag{
				Name:        "backup",
				Usage:       "keep the replaced file as <output>" + dsostore.BackupSuffix,
				Destination: &backup,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			log := logger.FromContext(ctx)
			applyPatchConfig(cmd, cfg, &backup)

			in, err := inputPath(cmd)
			if err != nil {
				return err
			}
			out := strings.TrimSpace(outPath)
			if out == "" {
				out = in
			}

			patches, err := patchset.Load(patchPath)
			if err != nil {
				return fmt.Errorf("load patch: %w", err)
			}
			c, err := dsostore.Open(in)
			if err != nil {
				return err
			}
			res, err := c.PatchGlobalStrings(patches)
			if err != nil {
				return fmt.Errorf("patch %s: %w", in, err)
			}
			if err := dsostore.Write(out, c, dsostore.WriteOptions{Backup: backup}); err != nil {
				return fmt.Errorf("write %s: %w", out, err)
			}

			log.Info("patched",
				"path", out,
				"strings", res.Strings,
				"operands", res.Operands,
				"references", res.References,
				"backup", backup,
			)
			return nil
		},
	}
}
