package check_test

import (
	"testing"

	"github.com/fard-lang/fard/internal/check"
	"github.com/fard-lang/fard/internal/ferr"
	"github.com/fard-lang/fard/internal/parser"
)

func TestCheckRejectsEffectWithoutUsesClause(t *testing.T) {
	src := `module m
effect greet(name: Text): Text;
pub fn main(): Value { greet("world") }
`
	mod, err := parser.Parse([]byte(src))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	err = check.Check(mod)
	if err == nil {
		t.Fatalf("expected ERROR_EFFECT_NOT_ALLOWED, got nil")
	}
	fe, ok := err.(*ferr.Error)
	if !ok || fe.Class != ferr.ErrorEffectNotAllowed {
		t.Fatalf("err = %v, want class ErrorEffectNotAllowed", err)
	}
}

func TestCheckAcceptsEffectWithUsesClause(t *testing.T) {
	src := `module m
effect greet(name: Text): Text;
pub fn main(): Value uses [greet] { greet("world") }
`
	mod, err := parser.Parse([]byte(src))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if err := check.Check(mod); err != nil {
		t.Fatalf("Check: %v", err)
	}
}

func TestCheckIgnoresImportStatements(t *testing.T) {
	// import(...) as x; has no sub-expression to check and never needs a
	// `uses` clause; its fact resolution is an evaluator-time concern.
	src := `module m
pub fn main(): Value { import("std/greeting") as g; g }
`
	mod, err := parser.Parse([]byte(src))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if err := check.Check(mod); err != nil {
		t.Fatalf("Check: %v", err)
	}
}
