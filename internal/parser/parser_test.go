package parser_test

import (
	"testing"

	"github.com/fard-lang/fard/internal/ast"
	"github.com/fard-lang/fard/internal/parser"
)

func TestParseModuleHeaderHasNoBraces(t *testing.T) {
	src := `module a.b.c
pub fn main(): Unit { unit }
`
	mod, err := parser.Parse([]byte(src))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if mod.Name != "a.b.c" {
		t.Fatalf("Name = %q, want %q", mod.Name, "a.b.c")
	}
	if len(mod.Funcs) != 1 || mod.Funcs[0].Name != "main" {
		t.Fatalf("Funcs = %+v", mod.Funcs)
	}
}

func TestParseFunctionsKeepSourceOrder(t *testing.T) {
	src := `module m
pub fn zeta(): Unit { unit }
pub fn alpha(): Unit { unit }
`
	mod, err := parser.Parse([]byte(src))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(mod.Funcs) != 2 || mod.Funcs[0].Name != "zeta" || mod.Funcs[1].Name != "alpha" {
		t.Fatalf("Funcs = %+v, want source order [zeta, alpha]", mod.Funcs)
	}
}

func TestParsePlusPlusDesugarsToTextConcat(t *testing.T) {
	src := `module m
pub fn main(): Value { "a" ++ "b" }
`
	mod, err := parser.Parse([]byte(src))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	call, ok := mod.Funcs[0].Body.Tail.(ast.Call)
	if !ok || call.Func.Name != "text_concat" {
		t.Fatalf("tail = %+v, want a text_concat call", mod.Funcs[0].Body.Tail)
	}
}

func TestParseImportStatement(t *testing.T) {
	src := `module m
pub fn main(): Value { import("std/greeting") as g; g }
`
	mod, err := parser.Parse([]byte(src))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	stmts := mod.Funcs[0].Body.Stmts
	if len(stmts) != 1 {
		t.Fatalf("Stmts = %+v, want exactly one import statement", stmts)
	}
	imp, ok := stmts[0].(ast.ImportStmt)
	if !ok {
		t.Fatalf("Stmts[0] = %T, want ast.ImportStmt", stmts[0])
	}
	if imp.Path != "std/greeting" || imp.Alias != "g" {
		t.Fatalf("ImportStmt = %+v, want Path=std/greeting Alias=g", imp)
	}
}

func TestParseTruncatedRecordLikeBlockDoesNotPanic(t *testing.T) {
	// Regression: looksLikeRecordLit used to index one token past EOF on
	// input ending right after `{ident`.
	_, _ = parser.Parse([]byte(`module m
pub fn main(): Unit { x`))
}
