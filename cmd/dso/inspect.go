package main

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	json "github.com/goccy/go-json"
	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"

	"github.com/samcharles93/dsotools/internal/dsostore"
	"github.com/samcharles93/dsotools/internal/logger"
	"github.com/samcharles93/dsotools/pkg/dso"
)

type inspectReport struct {
	Path     string            `json:"path" yaml:"path"`
	Summary  dso.Summary       `json:"summary" yaml:"summary"`
	Operands []dso.OperandSite `json:"operands,omitempty" yaml:"operands,omitempty"`
}

func inspectCmd() *cli.Command {
	var (
		showOperands bool
		format       string
	)

	return &cli.Command{
		Name:      "inspect",
		Usage:     "Summarise a DSO file and list its string operands",
		ArgsUsage: "[file.dso]",
		Flags: []cli.Flag{
			inputFlag(),
			&cli.BoolFlag{Name: "operands", Usage: "list every inline global string operand", Destination: &showOperands},
			&cli.StringFlag{
				Name:        "format",
				Aliases:     []string{"f"},
				Usage:       "output format (text, json, yaml)",
				Value:       "text",
				Destination: &format,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			log := logger.FromContext(ctx)

			in, err := inputPath(cmd)
			if err != nil {
				return err
			}
			c, err := dsostore.Open(in)
			if err != nil {
				return err
			}
			report := inspectReport{Path: in, Summary: c.Summary()}
			if showOperands {
				report.Operands = c.StringOperands()
			}
			log.Debug("decoded", "path", in, "strings", report.Summary.GlobalStrings, "operands", report.Summary.StringOperands)

			w := outWriter(cmd)
			switch format {
			case "text", "":
				return writeInspectText(w, report, showOperands)
			case "json":
				enc := json.NewEncoder(w)
				enc.SetIndent("", "  ")
				return enc.Encode(report)
			case "yaml", "yml":
				enc := yaml.NewEncoder(w)
				enc.SetIndent(2)
				if err := enc.Encode(report); err != nil {
					return err
				}
				return enc.Close()
			default:
				return fmt.Errorf("unknown format %q (want text, json or yaml)", format)
			}
		},
	}
}

func writeInspectText(w io.Writer, r inspectReport, showOperands bool) error {
	s := r.Summary
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(tw, "file:\t%s\n", r.Path)
	_, _ = fmt.Fprintf(tw, "version:\t%d\n", s.Version)
	_, _ = fmt.Fprintf(tw, "global strings:\t%d (%d bytes)\n", s.GlobalStrings, s.GlobalStringBytes)
	_, _ = fmt.Fprintf(tw, "function strings:\t%d (%d bytes)\n", s.FunctionStrings, s.FunctionStringBytes)
	_, _ = fmt.Fprintf(tw, "floats:\t%d global, %d function\n", s.GlobalFloats, s.FunctionFloats)
	_, _ = fmt.Fprintf(tw, "instructions:\t%d (%d wide)\n", s.Instructions, s.WideInstructions)
	_, _ = fmt.Fprintf(tw, "line breaks:\t%d\n", s.LineBreakPairs)
	_, _ = fmt.Fprintf(tw, "string operands:\t%d\n", s.StringOperands)
	_, _ = fmt.Fprintf(tw, "string references:\t%d\n", s.StringReferences)
	_, _ = fmt.Fprintf(tw, "encoded size:\t%d\n", s.EncodedSize)
	if err := tw.Flush(); err != nil {
		return err
	}
	if !showOperands {
		return nil
	}

	_, _ = fmt.Fprintln(w)
	tw = tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "POS\tOPCODE\tOFFSET\tINDEX\tTEXT")
	for _, op := range r.Operands {
		index := strconv.Itoa(op.Index)
		if !op.Resolved {
			index = "-"
		}
		_, _ = fmt.Fprintf(tw, "%d\t%s\t%d\t%s\t%s\n", op.Position, op.Mnemonic, op.Offset, index, strconv.Quote(op.Text))
	}
	return tw.Flush()
}
