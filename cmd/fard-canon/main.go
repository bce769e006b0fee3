// Command fard-canon parses, checks, and canonically prints FARD source,
// and reports the resulting program's source_cid.
//
// Stable ABI:
//
//	fard-canon print [file|-]
//	fard-canon verify [file|-]
//	fard-canon --help
//	fard-canon --version
//
// Exit codes: 0 (success), 2 (parse/check/non-canonical/usage), 10 (internal/IO).
//
// Adapted from the teacher's cmd/jcs-canon canonicalize/verify pair: the
// same argv shape and exit-code discipline, re-targeted from RFC 8785
// JSON canonicalization onto FARD source printing (internal/printer)
// and effect-containment checking (internal/check).
package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fard-lang/fard/internal/check"
	"github.com/fard-lang/fard/internal/digest"
	"github.com/fard-lang/fard/internal/ferr"
	"github.com/fard-lang/fard/internal/parser"
	"github.com/fard-lang/fard/internal/printer"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	if len(args) == 1 {
		switch args[0] {
		case "--help", "-h":
			_ = writeUsage(stdout)
			return 0
		case "--version":
			_ = writef(stdout, "fard-canon (fard-lang)\n")
			return 0
		}
	}
	if len(args) == 0 {
		_ = writeUsage(stderr)
		return ferr.CLIUsage.ExitCode()
	}

	switch args[0] {
	case "print":
		return cmdPrint(args[1:], stdin, stdout, stderr)
	case "verify":
		return cmdVerify(args[1:], stdin, stdout, stderr)
	default:
		_ = writef(stderr, "unknown command: %s\n", args[0])
		_ = writeUsage(stderr)
		return ferr.CLIUsage.ExitCode()
	}
}

func cmdPrint(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	positional, code, ok := ensureSingleInput(args, stderr)
	if !ok {
		return code
	}
	src, err := readInput(positional, stdin)
	if err != nil {
		return writeClassifiedError(stderr, err)
	}
	mod, err := parser.Parse(src)
	if err != nil {
		return writeClassifiedError(stderr, err)
	}
	if err := check.Check(mod); err != nil {
		return writeClassifiedError(stderr, err)
	}
	printed := printer.Print(mod)
	if _, err := stdout.Write(printed); err != nil {
		return writeClassifiedError(stderr, err)
	}
	_ = writef(stderr, "source_cid: %s\n", digest.CID(printed))
	return 0
}

// cmdVerify reports success only if src, parsed and re-printed, already
// equals src byte for byte — i.e. src is already in canonical form.
func cmdVerify(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	positional, code, ok := ensureSingleInput(args, stderr)
	if !ok {
		return code
	}
	src, err := readInput(positional, stdin)
	if err != nil {
		return writeClassifiedError(stderr, err)
	}
	mod, err := parser.Parse(src)
	if err != nil {
		return writeClassifiedError(stderr, err)
	}
	if err := check.Check(mod); err != nil {
		return writeClassifiedError(stderr, err)
	}
	printed := printer.Print(mod)
	if string(printed) != string(src) {
		_ = writef(stderr, "not canonical\n")
		return ferr.CLIUsage.ExitCode()
	}
	_ = writef(stdout, "canonical\n")
	return 0
}

func ensureSingleInput(args []string, stderr io.Writer) ([]string, int, bool) {
	if len(args) > 1 {
		_ = writef(stderr, "error: expected at most one input argument\n")
		return nil, ferr.CLIUsage.ExitCode(), false
	}
	return args, 0, true
}

func readInput(positional []string, stdin io.Reader) ([]byte, error) {
	if len(positional) == 0 || positional[0] == "-" {
		return io.ReadAll(stdin)
	}
	return os.ReadFile(positional[0])
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
		"usage: fard-canon <command> [file|-]",
		"",
		"commands:",
		"  print   parse, check, and print a program's canonical source",
		"  verify  report whether source is already in canonical form",
	}
	return writef(w, "%s\n", strings.Join(lines, "\n"))
}

func writef(w io.Writer, format string, args ...any) error {
	_, err := fmt.Fprintf(w, format, args...)
	return err
}
