package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/samcharles93/dsotools/internal/version"
	"github.com/samcharles93/dsotools/pkg/dso"
)

func versionCmd() *cli.Command {
	return &cli.Command{
		Name:  "version",
		Usage: "Print version information",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			info := version.Resolve(dso.Version)
			w := outWriter(cmd)
			_, _ = fmt.Fprintf(w, "version:     %s\n", info.Version)
			if info.Commit != "" {
				_, _ = fmt.Fprintf(w, "commit:      %s\n", info.Commit)
			}
			if info.BuildTime != "" {
				_, _ = fmt.Fprintf(w, "build time:  %s\n", info.BuildTime)
			}
			_, _ = fmt.Fprintf(w, "go:          %s\n", info.GoVersion)
			_, _ = fmt.Fprintf(w, "dso version: %d\n", info.Format)
			return nil
		},
	}
}
