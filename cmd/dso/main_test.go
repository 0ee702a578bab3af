package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/samcharles93/dsotools/internal/dsostore"
	"github.com/samcharles93/dsotools/pkg/dso"
)

// runApp runs the CLI with a config path that does not exist, so the user's
// own config never leaks into tests. Commands share package-level flag
// variables, so these tests do not run in parallel.
func runApp(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	app := newApp()
	app.Writer = &out
	app.ErrWriter = &errOut
	argv := append([]string{"dso", "--config", filepath.Join(t.TempDir(), "none.yaml")}, args...)
	err := app.Run(context.Background(), argv)
	return out.String(), err
}

func writeReferenceDSO(t *testing.T) string {
	t.Helper()
	c := dso.New()
	c.GlobalStrings = dso.NewStringTable("", "second", "third", "")
	c.Code = dso.CodeStream{Instructions: []dso.Instruction{
		dso.Short(byte(dso.OpAssert)), dso.Short(0x08),
		dso.Short(byte(dso.OpLoadImmedStr)), dso.Short(0x01),
		dso.Short(0x00),
	}}
	c.StringReferences = []dso.StringReference{{Offset: 8, Occurrences: []uint32{4}}}
	path := filepath.Join(t.TempDir(), "main.cs.dso")
	if err := dsostore.Write(path, c, dsostore.WriteOptions{}); err != nil {
		t.Fatalf("write dso: %v", err)
	}
	return path
}

func TestStringsCommand(t *testing.T) {
	path := writeReferenceDSO(t)

	out, err := runApp(t, "strings", "--input", path)
	if err != nil {
		t.Fatalf("strings: %v", err)
	}
	want := "{\n    \"0\": \"\",\n    \"1\": \"second\",\n    \"2\": \"third\",\n    \"3\": \"\"\n}\n"
	if out != want {
		t.Fatalf("strings output:\ngot  %q\nwant %q", out, want)
	}

	out, err = runApp(t, "strings", "--format", "yaml", path)
	if err != nil {
		t.Fatalf("strings yaml: %v", err)
	}
	if !strings.Contains(out, `"1": second`) {
		t.Fatalf("unexpected yaml output: %q", out)
	}
}

func TestPatchCommandInPlace(t *testing.T) {
	path := writeReferenceDSO(t)
	patchPath := filepath.Join(t.TempDir(), "patch.json")
	if err := os.WriteFile(patchPath, []byte(`{"1": "foo"}`), 0o644); err != nil {
		t.Fatalf("write patch: %v", err)
	}

	if _, err := runApp(t, "--log-level", "error", "patch", "--patch", patchPath, "--backup", path); err != nil {
		t.Fatalf("patch: %v", err)
	}

	c, err := dsostore.Open(path)
	if err != nil {
		t.Fatalf("open patched: %v", err)
	}
	if got := strings.Join(c.GlobalStrings.Strings(), "|"); got != "|foo|third|" {
		t.Fatalf("strings: got %q", got)
	}
	want := []uint32{0x54, 0x05, 0x46, 0x01, 0x00}
	got := c.Code.Normalized()
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("code: got %v want %v", got, want)
		}
	}
	if c.StringReferences[0].Offset != 5 {
		t.Fatalf("reference offset: got %d want 5", c.StringReferences[0].Offset)
	}
	if _, err := os.Stat(path + dsostore.BackupSuffix); err != nil {
		t.Fatalf("expected backup: %v", err)
	}
}

func TestPatchCommandOutputAndErrors(t *testing.T) {
	path := writeReferenceDSO(t)
	before, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	dir := t.TempDir()

	yamlPatch := filepath.Join(dir, "patch.yaml")
	if err := os.WriteFile(yamlPatch, []byte("2: \"third, longer\"\n"), 0o644); err != nil {
		t.Fatalf("write patch: %v", err)
	}
	out := filepath.Join(dir, "out.dso")
	if _, err := runApp(t, "--log-level", "error", "patch", "-i", path, "-p", yamlPatch, "-o", out); err != nil {
		t.Fatalf("patch: %v", err)
	}
	after, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read input: %v", err)
	}
	if !bytes.Equal(before, after) {
		t.Fatalf("input changed when --output was given")
	}
	c, err := dsostore.Open(out)
	if err != nil {
		t.Fatalf("open output: %v", err)
	}
	if c.GlobalStrings.Strings()[2] != "third, longer" {
		t.Fatalf("output strings: got %q", c.GlobalStrings.Strings())
	}

	badPatch := filepath.Join(dir, "bad.json")
	if err := os.WriteFile(badPatch, []byte(`{"7": "x"}`), 0o644); err != nil {
		t.Fatalf("write patch: %v", err)
	}
	_, err = runApp(t, "--log-level", "error", "patch", "-p", badPatch, path)
	if !errors.Is(err, dso.ErrPatchIndex) {
		t.Fatalf("patch: got %v want ErrPatchIndex", err)
	}
	after, _ = os.ReadFile(path)
	if !bytes.Equal(before, after) {
		t.Fatalf("input changed after failed patch")
	}
}

func TestInspectCommand(t *testing.T) {
	path := writeReferenceDSO(t)

	out, err := runApp(t, "inspect", "--operands", path)
	if err != nil {
		t.Fatalf("inspect: %v", err)
	}
	for _, want := range []string{"global strings:", "OP_ASSERT", "OP_LOADIMMED_STR", `"third"`} {
		if !strings.Contains(out, want) {
			t.Fatalf("inspect output missing %q:\n%s", want, out)
		}
	}

	out, err = runApp(t, "inspect", "--format", "json", "--operands", path)
	if err != nil {
		t.Fatalf("inspect json: %v", err)
	}
	var report inspectReport
	if err := json.Unmarshal([]byte(out), &report); err != nil {
		t.Fatalf("decode report: %v\n%s", err, out)
	}
	if report.Summary.GlobalStrings != 4 || len(report.Operands) != 2 {
		t.Fatalf("unexpected report: %+v", report)
	}

	out, err = runApp(t, "inspect", "--format", "yaml", "--operands", path)
	if err != nil {
		t.Fatalf("inspect yaml: %v", err)
	}
	for _, want := range []string{"opcode: OP_ASSERT", "opcode: OP_LOADIMMED_STR", "text: third"} {
		if !strings.Contains(out, want) {
			t.Fatalf("yaml output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "mnemonic:") {
		t.Fatalf("yaml output should name the mnemonic opcode:\n%s", out)
	}

	if _, err := runApp(t, "inspect", "--format", "xml", path); err == nil {
		t.Fatalf("expected error for unknown format")
	}
}

func TestMissingInput(t *testing.T) {
	if _, err := runApp(t, "strings"); !errors.Is(err, errNoInput) {
		t.Fatalf("strings: got %v want errNoInput", err)
	}
	_, err := runApp(t, "inspect", filepath.Join(t.TempDir(), "missing.dso"))
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("inspect missing file: got %v", err)
	}
}

func TestVersionCommand(t *testing.T) {
	out, err := runApp(t, "version")
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	if !strings.Contains(out, "dso version: 43") {
		t.Fatalf("unexpected version output: %q", out)
	}
}

func TestBadLogFormat(t *testing.T) {
	if _, err := runApp(t, "--log-format", "xml", "version"); err == nil {
		t.Fatalf("expected error for unknown log format")
	}
}
