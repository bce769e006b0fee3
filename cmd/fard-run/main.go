// Command fard-run executes one bundle directory and writes its witness
// to stdout.
//
// Stable ABI:
//
//	fard-run run <bundle-dir>
//	fard-run run --show-program-identity <bundle-dir>
//	fard-run run --help
//
// Exit codes: 0 (success), 2 (parse/check/eval/usage), 10 (internal/IO).
//
// Grounded on the Rust prototype's abirunner::run_bundle_to_stdout (load
// a bundle, run it, emit the witness) and fardc::modgraph::ModuleGraph
// (a debug pretty-printer for the program identity), reworked onto
// internal/bundledir, internal/eval, and internal/witness, in the
// teacher's CLI idiom (hand-rolled argv parsing, io.Writer diagnostics,
// the same usage/exit-code shape as cmd/fard-canon).
package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fard-lang/fard/internal/bundledir"
	"github.com/fard-lang/fard/internal/check"
	"github.com/fard-lang/fard/internal/digest"
	"github.com/fard-lang/fard/internal/eval"
	"github.com/fard-lang/fard/internal/ferr"
	"github.com/fard-lang/fard/internal/parser"
	"github.com/fard-lang/fard/internal/printer"
	"github.com/fard-lang/fard/internal/value"
	"github.com/fard-lang/fard/internal/witness"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		_ = writeUsage(stderr)
		return ferr.CLIUsage.ExitCode()
	}
	if args[0] == "--help" || args[0] == "-h" {
		_ = writeUsage(stdout)
		return 0
	}
	if args[0] != "run" {
		_ = writef(stderr, "error: unknown command %q\n", args[0])
		_ = writeUsage(stderr)
		return ferr.CLIUsage.ExitCode()
	}
	rest := args[1:]
	showIdentity := false
	var positional []string
	for _, a := range rest {
		if a == "--show-program-identity" {
			showIdentity = true
			continue
		}
		positional = append(positional, a)
	}
	if len(positional) != 1 {
		_ = writef(stderr, "error: expected exactly one bundle directory argument\n")
		return ferr.CLIUsage.ExitCode()
	}

	b, err := bundledir.Load(positional[0])
	if err != nil {
		return writeClassifiedError(stderr, err)
	}
	mod, err := parser.Parse(b.Source)
	if err != nil {
		return writeClassifiedError(stderr, err)
	}
	if err := check.Check(mod); err != nil {
		return writeClassifiedError(stderr, err)
	}

	sourceCID := digest.CID(printer.Print(mod))
	program := witness.ProgramIdentity{
		Entry: b.EntryFunc,
		Mods:  []witness.ModEntry{{Name: mod.Name, Source: sourceCID}},
	}

	if showIdentity {
		_ = writef(stdout, "%s\n", value.Encode(programIdentityDebugValue(program)))
		return 0
	}

	var args2 []value.V
	if len(b.Input) > 0 {
		args2 = []value.V{value.Bytes(b.Input)}
	}

	result, imports, effects, err := eval.Run(mod, b.EntryFunc, args2, b.Facts)
	if err != nil {
		return writeClassifiedError(stderr, err)
	}

	w := witness.Witness{
		Program:  program,
		InputCID: bundledir.InputCID(b.Input),
		Imports:  imports,
		Effects:  effects,
		Result:   result,
	}
	wv := w.Value()
	if _, err := fmt.Fprintf(stdout, "%s\n", value.Encode(wv)); err != nil {
		return writeClassifiedError(stderr, err)
	}
	_ = writef(stderr, "run_id: %s\n", digest.VDIG(wv))
	return 0
}

func programIdentityDebugValue(p witness.ProgramIdentity) value.V {
	mods := make([]value.V, len(p.Mods))
	for i, m := range p.Mods {
		mods[i] = value.MustRecord(
			value.Field{Name: "name", Value: value.Text(m.Name)},
			value.Field{Name: "source", Value: value.Text(m.Source)},
		)
	}
	return value.MustRecord(
		value.Field{Name: "kind", Value: value.Text("fard/program/v0.1")},
		value.Field{Name: "entry", Value: value.Text(p.Entry)},
		value.Field{Name: "mods", Value: value.List(mods...)},
	)
}

func writeClassifiedError(stderr io.Writer, err error) int {
	if fe, ok := err.(*ferr.Error); ok {
		_ = writef(stderr, "error: %v\n", fe)
		return fe.Class.ExitCode()
	}
	_ = writef(stderr, "error: %v\n", err)
	return ferr.InternalIO.ExitCode()
}

func writeUsage(w io.Writer) error {
	lines := []string{
		"usage: fard-run run [--show-program-identity] <bundle-dir>",
		"",
		"bundle-dir must contain source.fard, and may contain facts.json and input.bin",
	}
	return writef(w, "%s\n", strings.Join(lines, "\n"))
}

func writef(w io.Writer, format string, args ...any) error {
	_, err := fmt.Fprintf(w, format, args...)
	return err
}
