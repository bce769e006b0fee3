// Package witness_test exercises Witness.Value as an external test
// package so it can drive the full bundle pipeline (internal/bundledir,
// internal/parser, internal/check, internal/printer, internal/digest,
// internal/eval) without an import cycle back into internal/witness.
package witness_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fard-lang/fard/internal/bundledir"
	"github.com/fard-lang/fard/internal/check"
	"github.com/fard-lang/fard/internal/digest"
	"github.com/fard-lang/fard/internal/eval"
	"github.com/fard-lang/fard/internal/parser"
	"github.com/fard-lang/fard/internal/printer"
	"github.com/fard-lang/fard/internal/value"
	"github.com/fard-lang/fard/internal/witness"
)

// TestValue_FrozenVector reproduces the reference witness byte string for
// the empty_main fixture bundle by actually driving it through the full
// pipeline the CLI uses — load, parse, check, print, hash, evaluate,
// assemble — rather than injecting the expected source_cid by hand. The
// expected bytes are given verbatim in the specification and kept on disk
// at testdata/vectors/empty_main_witness.json.
func TestValue_FrozenVector(t *testing.T) {
	b, err := bundledir.Load(filepath.Join("..", "..", "testdata", "bundles", "empty_main"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	mod, err := parser.Parse(b.Source)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if err := check.Check(mod); err != nil {
		t.Fatalf("Check: %v", err)
	}
	sourceCID := digest.CID(printer.Print(mod))

	var args []value.V
	if len(b.Input) > 0 {
		args = []value.V{value.Bytes(b.Input)}
	}
	result, imports, effects, err := eval.Run(mod, b.EntryFunc, args, b.Facts)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	w := witness.Witness{
		Program: witness.ProgramIdentity{
			Entry: b.EntryFunc,
			Mods:  []witness.ModEntry{{Name: mod.Name, Source: sourceCID}},
		},
		InputCID: bundledir.InputCID(b.Input),
		Imports:  imports,
		Effects:  effects,
		Result:   result,
	}

	wantBytes, err := os.ReadFile(filepath.Join("..", "..", "testdata", "vectors", "empty_main_witness.json"))
	if err != nil {
		t.Fatalf("read frozen vector: %v", err)
	}
	want := strings.TrimRight(string(wantBytes), "\n")

	got := string(value.Encode(w.Value()))
	if got != want {
		t.Fatalf("witness encoding mismatch:\n got: %s\nwant: %s", got, want)
	}
}

func TestReduceSat(t *testing.T) {
	if got := witness.ReduceSat(value.Unit()); !value.Equal(got, value.Unit()) {
		t.Fatalf("ReduceSat(Unit) = %v, want Unit", got)
	}
	in := value.Text("hello")
	got := witness.ReduceSat(in)
	s, ok := got.TextOf()
	if !ok {
		t.Fatalf("ReduceSat(non-unit) did not return a Text value: %v", got)
	}
	if s == "hello" {
		t.Fatalf("ReduceSat must not re-embed the raw value, got %q", s)
	}
	if s[:7] != "sha256:" {
		t.Fatalf("ReduceSat(non-unit) = %q, want a sha256: CID", s)
	}
}

func TestEffectImportSortOrder(t *testing.T) {
	w := witness.Witness{
		Program:  witness.ProgramIdentity{Entry: "main", Mods: []witness.ModEntry{{Name: "main", Source: "sha256:00"}}},
		InputCID: "sha256:01",
		Effects: []witness.EffectEvent{
			{Kind: "zzz", Req: value.Unit(), Sat: value.Unit()},
			{Kind: "aaa", Req: value.Unit(), Sat: value.Unit()},
		},
		Imports: []witness.ImportUse{
			{Kind: "std/z", Req: value.Unit(), Sat: value.Unit()},
			{Kind: "std/a", Req: value.Unit(), Sat: value.Unit()},
		},
		Result: value.Unit(),
	}
	v := w.Value()
	effects, _ := mustGetList(t, v, "effects")
	if k := mustKind(t, effects[0]); k != "aaa" {
		t.Fatalf("effects[0].kind = %q, want sorted first (\"aaa\")", k)
	}
	imports, _ := mustGetList(t, v, "imports")
	if k := mustKind(t, imports[0]); k != "std/a" {
		t.Fatalf("imports[0].kind = %q, want sorted first (\"std/a\")", k)
	}
}

func mustGetList(t *testing.T, v value.V, field string) ([]value.V, bool) {
	t.Helper()
	fv, ok := v.Get(field)
	if !ok {
		t.Fatalf("missing field %q", field)
	}
	items, ok := fv.ListOf()
	if !ok {
		t.Fatalf("field %q is not a list", field)
	}
	return items, true
}

func mustKind(t *testing.T, rec value.V) string {
	t.Helper()
	kv, ok := rec.Get("kind")
	if !ok {
		t.Fatalf("record missing kind field")
	}
	s, ok := kv.TextOf()
	if !ok {
		t.Fatalf("kind field is not text")
	}
	return s
}
