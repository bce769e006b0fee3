// Command fard-gate runs the repository's required verification gates in
// order: vet, unit tests, race tests. Adapted from the teacher's
// cmd/jcs-gate; FARD carries no release-gating replay matrix (see
// SPEC_FULL.md §10.6) and no RFC 8785 differential conformance suite (see
// SPEC_FULL.md §10.1), so both of the teacher's extra gate stages are
// dropped rather than adapted.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
)

type gateStep struct {
	label string
	args  []string
}

type commandRunner interface {
	Run(ctx context.Context, name string, args []string, stdout, stderr io.Writer) error
}

type realRunner struct{}

var requiredGateSteps = []gateStep{
	{label: "go vet", args: []string{"vet", "./..."}},
	{label: "unit tests", args: []string{"test", "./...", "-count=1", "-timeout=20m"}},
	{label: "race tests", args: []string{"test", "./...", "-race", "-count=1", "-timeout=25m"}},
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr, realRunner{}))
}

func run(args []string, stdout, stderr io.Writer, runner commandRunner) int {
	if len(args) > 0 {
		switch args[0] {
		case "--help", "-h":
			_ = writeUsage(stdout)
			return 0
		default:
			_ = writef(stderr, "error: unknown argument %q\n", args[0])
			_ = writeUsage(stderr)
			return 2
		}
	}

	ctx := context.Background()
	for i, step := range requiredGateSteps {
		_ = writef(stdout, "[%d/%d] %s\n", i+1, len(requiredGateSteps), step.label)
		if err := runner.Run(ctx, "go", step.args, stdout, stderr); err != nil {
			_ = writef(stderr, "gate failed: %s: %v\n", step.label, err)
			return 1
		}
	}
	_ = writeLine(stdout, "all gates passed")
	return 0
}

func (realRunner) Run(ctx context.Context, name string, args []string, stdout, stderr io.Writer) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s %v: %w", name, args, err)
	}
	return nil
}

func writeUsage(w io.Writer) error {
	if err := writeLine(w, "usage: go run ./cmd/fard-gate [--help]"); err != nil {
		return err
	}
	return writeLine(w, "runs: vet, unit tests, race tests")
}

func writeLine(w io.Writer, msg string) error {
	return writef(w, "%s\n", msg)
}

func writef(w io.Writer, format string, args ...any) error {
	if _, err := fmt.Fprintf(w, format, args...); err != nil {
		return fmt.Errorf("write stream: %w", err)
	}
	return nil
}
