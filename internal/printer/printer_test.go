package printer_test

import (
	"testing"

	"github.com/fard-lang/fard/internal/check"
	"github.com/fard-lang/fard/internal/parser"
	"github.com/fard-lang/fard/internal/printer"
)

func mustPrint(t *testing.T, src string) []byte {
	t.Helper()
	mod, err := parser.Parse([]byte(src))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if err := check.Check(mod); err != nil {
		t.Fatalf("Check: %v", err)
	}
	return printer.Print(mod)
}

func TestPrintIsIdempotent(t *testing.T) {
	src := `module m
pub fn zeta(): Value { "a" ++ "b" }
pub fn alpha(): Value { let x = {b: 2, a: 7} x.a }
`
	once := mustPrint(t, src)
	mod2, err := parser.Parse(once)
	if err != nil {
		t.Fatalf("re-Parse printed output: %v", err)
	}
	twice := printer.Print(mod2)
	if string(once) != string(twice) {
		t.Fatalf("Print is not idempotent:\nonce:  %s\ntwice: %s", once, twice)
	}
}

func TestPrintDropsModuleHeaderVisibilityAndResultType(t *testing.T) {
	out := string(mustPrint(t, "module a.b\npub fn main(): Unit { unit }\n"))
	if out != "fn main() { unit }" {
		t.Fatalf("printed output = %q, want the minimal canonical form with no module header, visibility, or result type", out)
	}
}

func TestPrintPreservesFunctionSourceOrder(t *testing.T) {
	src := `module m
pub fn zeta(): Unit { unit }
pub fn alpha(): Unit { unit }
`
	out := string(mustPrint(t, src))
	zi := indexOf(out, "fn zeta")
	ai := indexOf(out, "fn alpha")
	if zi < 0 || ai < 0 || zi > ai {
		t.Fatalf("printed functions are not in source order: %s", out)
	}
}

func TestPrintRecordFieldsSortedByName(t *testing.T) {
	src := `module m
pub fn main(): Value { {b: 2, a: 7} }
`
	out := string(mustPrint(t, src))
	ai := indexOf(out, "a: 7")
	bi := indexOf(out, "b: 2")
	if ai < 0 || bi < 0 || ai > bi {
		t.Fatalf("record fields not printed in sorted order: %s", out)
	}
}

func TestPrintRoundTripsImportStatement(t *testing.T) {
	src := `module m
pub fn main(): Value { import("std/greeting") as g; g }
`
	out := string(mustPrint(t, src))
	if indexOf(out, `import("std/greeting") as g;`) < 0 {
		t.Fatalf("printed output does not contain the import statement: %s", out)
	}
}

func indexOf(s, substr string) int {
	for i := 0; i+len(substr) <= len(s); i++ {
		if s[i:i+len(substr)] == substr {
			return i
		}
	}
	return -1
}
