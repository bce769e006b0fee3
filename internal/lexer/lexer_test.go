package lexer_test

import (
	"testing"

	"github.com/fard-lang/fard/internal/lexer"
)

func kinds(t *testing.T, src string) []lexer.Kind {
	t.Helper()
	toks, err := lexer.Lex([]byte(src))
	if err != nil {
		t.Fatalf("Lex(%q): %v", src, err)
	}
	out := make([]lexer.Kind, len(toks))
	for i, tok := range toks {
		out[i] = tok.Kind
	}
	return out
}

func TestPlusPlusTokenizesDistinctFromPlus(t *testing.T) {
	toks, err := lexer.Lex([]byte(`"a" ++ "b"`))
	if err != nil {
		t.Fatalf("Lex: %v", err)
	}
	if len(toks) < 3 || toks[1].Kind != lexer.PlusPlus {
		t.Fatalf("expected a PlusPlus token, got %+v", toks)
	}

	single, err := lexer.Lex([]byte(`1 + 2`))
	if err != nil {
		t.Fatalf("Lex: %v", err)
	}
	if single[1].Kind != lexer.Plus {
		t.Fatalf("expected a Plus token for single '+', got %+v", single[1])
	}
}

func TestModuleAndImportKeywords(t *testing.T) {
	toks, err := lexer.Lex([]byte(`module import as`))
	if err != nil {
		t.Fatalf("Lex: %v", err)
	}
	for i, want := range []string{"module", "import", "as"} {
		if toks[i].Kind != lexer.Keyword || toks[i].Text != want {
			t.Fatalf("token %d = %+v, want keyword %q", i, toks[i], want)
		}
	}
}

func TestBytesLiteralRejectsUppercaseHex(t *testing.T) {
	if _, err := lexer.Lex([]byte(`hex:FF`)); err == nil {
		t.Fatalf("expected an error for uppercase hex digits")
	}
}

func TestBytesLiteralRejectsOddDigitCount(t *testing.T) {
	if _, err := lexer.Lex([]byte(`hex:f`)); err == nil {
		t.Fatalf("expected an error for an odd number of hex digits")
	}
}
