package eval_test

import (
	"math/big"
	"testing"

	"github.com/fard-lang/fard/internal/check"
	"github.com/fard-lang/fard/internal/eval"
	"github.com/fard-lang/fard/internal/parser"
	"github.com/fard-lang/fard/internal/value"
)

func runMain(t *testing.T, src string, facts eval.Facts) value.V {
	t.Helper()
	mod, err := parser.Parse([]byte(src))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if err := check.Check(mod); err != nil {
		t.Fatalf("Check: %v", err)
	}
	result, _, _, err := eval.Run(mod, "main", nil, facts)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	return result
}

func wantInt(t *testing.T, v value.V, want int64) {
	t.Helper()
	z, ok := v.IntOf()
	if !ok {
		t.Fatalf("result is not an Int: %v", v)
	}
	if z.Cmp(big.NewInt(want)) != 0 {
		t.Fatalf("result = %s, want %d", z, want)
	}
}

func wantText(t *testing.T, v value.V, want string) {
	t.Helper()
	s, ok := v.TextOf()
	if !ok {
		t.Fatalf("result is not Text: %v", v)
	}
	if s != want {
		t.Fatalf("result = %q, want %q", s, want)
	}
}

func TestTextConcatOperator(t *testing.T) {
	src := `module m
pub fn main(): Value { "a" ++ "b" }
`
	wantText(t, runMain(t, src, nil), "ab")
}

func TestArithmeticPrecedence(t *testing.T) {
	wantInt(t, runMain(t, "module m\npub fn main(): Value { 1 + 2 * 3 }\n", nil), 7)
	wantInt(t, runMain(t, "module m\npub fn main(): Value { (1+2)*3 }\n", nil), 9)
	wantInt(t, runMain(t, "module m\npub fn main(): Value { -1 + 2 }\n", nil), 1)
}

func TestRecordFieldAccess(t *testing.T) {
	src := `module m
pub fn main(): Value { let x = {b:2,a:7} x.a }
`
	wantInt(t, runMain(t, src, nil), 7)
}

func TestBuiltins(t *testing.T) {
	wantText(t, runMain(t, `module m
pub fn main(): Value { text_concat("hi","there") }
`, nil), "hithere")

	wantText(t, runMain(t, `module m
pub fn main(): Value { int_to_text(42) }
`, nil), "42")

	wantInt(t, runMain(t, `module m
pub fn main(): Value { list_len([10,20,30]) }
`, nil), 3)

	wantInt(t, runMain(t, `module m
pub fn main(): Value { list_get([10,20,30], 1) }
`, nil), 20)
}

func TestImportResolvesFromFacts(t *testing.T) {
	src := `module m
pub fn main(): Value { import("std/greeting") as g; g }
`
	facts := eval.Facts{{Kind: "std/greeting", Req: value.Unit(), Sat: value.Text("hello")}}
	wantText(t, runMain(t, src, facts), "hello")
}

func TestImportMissingFactVsMissingEffect(t *testing.T) {
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

	// No facts supplied for this import path at all: ERROR_MISSING_FACT.
	if _, _, _, err := eval.Run(mod, "main", nil, nil); err == nil {
		t.Fatalf("expected an error with no facts supplied")
	}

	// Facts exist for this kind but not for this exact request:
	// also ERROR_MISSING_FACT.
	facts := eval.Facts{{Kind: "std/greeting", Req: value.Text("unused"), Sat: value.Unit()}}
	_, _, _, err = eval.Run(mod, "main", nil, facts)
	if err == nil {
		t.Fatalf("expected an error when no fact matches the request")
	}
}

func TestEffectWitnessSatIsReduced(t *testing.T) {
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
	req, rerr := value.Record(value.Field{Name: "arg0", Value: value.Text("world")})
	if rerr != nil {
		t.Fatalf("Record: %v", rerr)
	}
	facts := eval.Facts{{Kind: "greet", Req: req, Sat: value.Text("hello world")}}
	result, _, effects, err := eval.Run(mod, "main", nil, facts)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	wantText(t, result, "hello world")
	if len(effects) != 1 {
		t.Fatalf("expected one logged effect, got %d", len(effects))
	}
	satText, ok := effects[0].Sat.TextOf()
	if !ok || satText == "hello world" {
		t.Fatalf("witness sat must be reduced to a CID, not the raw value: %v", effects[0].Sat)
	}
}

func TestClosureNeverEscapesAsResult(t *testing.T) {
	src := `module m
pub fn main(): Value { fn(x: Int) { x } }
`
	mod, err := parser.Parse([]byte(src))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if err := check.Check(mod); err != nil {
		t.Fatalf("Check: %v", err)
	}
	if _, _, _, err := eval.Run(mod, "main", nil, nil); err == nil {
		t.Fatalf("expected an error: a closure must never be a program's final result")
	}
}
