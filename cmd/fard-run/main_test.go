package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeFixtureBundle(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	src := "module main\npub fn main(): Unit { unit }\n"
	if err := os.WriteFile(filepath.Join(dir, "source.fard"), []byte(src), 0o644); err != nil {
		t.Fatalf("write source: %v", err)
	}
	return dir
}

func TestRunEmitsWitnessForEmptyMainBundle(t *testing.T) {
	dir := writeFixtureBundle(t)
	var stdout, stderr bytes.Buffer
	code := run([]string{"run", dir}, &stdout, &stderr)
	if code != 0 {
		t.Fatalf("exit code = %d, want 0; stderr: %s", code, stderr.String())
	}
	if !strings.Contains(stdout.String(), `["kind",{"t":"text","v":"fard/witness/v0.1"}]`) {
		t.Fatalf("stdout = %q, want a witness record", stdout.String())
	}
	if !strings.HasPrefix(stderr.String(), "run_id: sha256:") {
		t.Fatalf("stderr = %q, want a run_id: sha256:... line", stderr.String())
	}
}

func TestRunShowProgramIdentity(t *testing.T) {
	dir := writeFixtureBundle(t)
	var stdout, stderr bytes.Buffer
	code := run([]string{"run", "--show-program-identity", dir}, &stdout, &stderr)
	if code != 0 {
		t.Fatalf("exit code = %d, want 0; stderr: %s", code, stderr.String())
	}
	if !strings.Contains(stdout.String(), `["kind",{"t":"text","v":"fard/program/v0.1"}]`) {
		t.Fatalf("stdout = %q, want a program identity record", stdout.String())
	}
}

func TestRunRejectsMissingBundleArgument(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := run([]string{"run"}, &stdout, &stderr)
	if code == 0 {
		t.Fatalf("exit code = 0, want non-zero when no bundle directory is given")
	}
}

func TestRunRejectsUnknownBundleDirectory(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := run([]string{"run", filepath.Join(t.TempDir(), "does-not-exist")}, &stdout, &stderr)
	if code == 0 {
		t.Fatalf("exit code = 0, want non-zero for a missing bundle directory")
	}
}

func TestRunHelp(t *testing.T) {
	var stdout, stderr bytes.Buffer
	if code := run([]string{"--help"}, &stdout, &stderr); code != 0 {
		t.Fatalf("--help exit code = %d, want 0", code)
	}
	if !strings.Contains(stdout.String(), "fard-run") {
		t.Fatalf("--help output = %q, want it to mention fard-run", stdout.String())
	}
}
