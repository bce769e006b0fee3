package value

import (
	"math/big"
	"testing"

	"github.com/fard-lang/fard/internal/ferr"
)

func TestEncodeAnchors(t *testing.T) {
	cases := []struct {
		name string
		v    V
		want string
	}{
		{"unit", Unit(), `{"t":"unit"}`},
		{"bool-true", Bool(true), `{"t":"bool","v":true}`},
		{"bool-false", Bool(false), `{"t":"bool","v":false}`},
		{"int-7", IntFromInt64(7), `{"t":"int","v":"7"}`},
		{"int-neg1", IntFromInt64(-1), `{"t":"int","v":"-1"}`},
		{"bytes-hello", Bytes([]byte("hello")), `{"t":"bytes","v":"68656c6c6f"}`},
		{"text-ab", Text("ab"), `{"t":"text","v":"ab"}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := string(Encode(tc.v))
			if got != tc.want {
				t.Fatalf("Encode(%s) = %s, want %s", tc.name, got, tc.want)
			}
		})
	}
}

func TestEncodeRecordSortsFields(t *testing.T) {
	rec, err := Record(
		Field{Name: "b", Value: IntFromInt64(2)},
		Field{Name: "a", Value: IntFromInt64(1)},
	)
	if err != nil {
		t.Fatalf("Record: %v", err)
	}
	want := `{"t":"record","v":[["a",{"t":"int","v":"1"}],["b",{"t":"int","v":"2"}]]}`
	if got := string(Encode(rec)); got != want {
		t.Fatalf("Encode(record) = %s, want %s", got, want)
	}
}

func TestEncodeMapSortsByKeyEncoding(t *testing.T) {
	m, err := Map(
		Pair{Key: Text("b"), Value: IntFromInt64(2)},
		Pair{Key: Text("a"), Value: IntFromInt64(1)},
	)
	if err != nil {
		t.Fatalf("Map: %v", err)
	}
	want := `{"t":"map","v":[[{"t":"text","v":"a"},{"t":"int","v":"1"}],[{"t":"text","v":"b"},{"t":"int","v":"2"}]]}`
	if got := string(Encode(m)); got != want {
		t.Fatalf("Encode(map) = %s, want %s", got, want)
	}
}

func TestRoundTripEncodeDecode(t *testing.T) {
	rec, _ := Record(Field{Name: "a", Value: IntFromInt64(1)}, Field{Name: "b", Value: Text("x")})
	m, _ := Map(Pair{Key: IntFromInt64(1), Value: Bool(true)}, Pair{Key: IntFromInt64(2), Value: Bool(false)})
	values := []V{
		Unit(),
		Bool(true),
		Bool(false),
		IntFromInt64(0),
		IntFromInt64(-12345),
		Text("hello \"world\"\n\t"),
		Bytes([]byte{0xDE, 0xAD, 0xBE, 0xEF}),
		List(IntFromInt64(1), IntFromInt64(2), IntFromInt64(3)),
		rec,
		m,
	}
	for i, v := range values {
		enc := Encode(v)
		got, err := Decode(enc)
		if err != nil {
			t.Fatalf("case %d: Decode(Encode(v)) failed: %v", i, err)
		}
		if !Equal(got, v) {
			t.Fatalf("case %d: round trip mismatch: got %s want %s", i, Encode(got), enc)
		}
		if reenc := Encode(got); string(reenc) != string(enc) {
			t.Fatalf("case %d: re-encode mismatch: got %s want %s", i, reenc, enc)
		}
	}
}

func TestDecodeRejectsNonCanonicalOrder(t *testing.T) {
	_, err := Decode([]byte(`{"t":"map","v":[[{"t":"text","v":"b"},{"t":"int","v":"2"}],[{"t":"text","v":"a"},{"t":"int","v":"1"}]]}`))
	if err == nil {
		t.Fatal("expected error for non-canonical map order")
	}
}

func TestDecodeRejectsDuplicateMapKey(t *testing.T) {
	_, err := Decode([]byte(`{"t":"map","v":[[{"t":"text","v":"a"},{"t":"int","v":"1"}],[{"t":"text","v":"a"},{"t":"int","v":"2"}]]}`))
	var fe *ferr.Error
	if err == nil {
		t.Fatal("expected error for duplicate map key")
	}
	if !asFerr(err, &fe) || fe.Class != ferr.DecodeDupKey {
		t.Fatalf("expected DECODE_DUP_KEY, got %v", err)
	}
}

func TestDecodeRejectsUppercaseHex(t *testing.T) {
	_, err := Decode([]byte(`{"t":"bytes","v":"FF"}`))
	var fe *ferr.Error
	if err == nil || !asFerr(err, &fe) || fe.Class != ferr.DecodeBadHex {
		t.Fatalf("expected DECODE_BAD_HEX, got %v", err)
	}
}

func TestDecodeRejectsBadInts(t *testing.T) {
	bad := []string{`-0`, `00`, `01`, `+1`, ` 1`}
	for _, raw := range bad {
		_, err := Decode([]byte(`{"t":"int","v":"` + raw + `"}`))
		var fe *ferr.Error
		if err == nil || !asFerr(err, &fe) || fe.Class != ferr.DecodeBadInt {
			t.Fatalf("raw=%q: expected DECODE_BAD_INT, got %v", raw, err)
		}
	}
}

func TestDecodeUnknownTag(t *testing.T) {
	_, err := Decode([]byte(`{"t":"nope"}`))
	var fe *ferr.Error
	if err == nil || !asFerr(err, &fe) || fe.Class != ferr.DecodeUnknownT {
		t.Fatalf("expected DECODE_UNKNOWN_T, got %v", err)
	}
}

func asFerr(err error, target **ferr.Error) bool {
	fe, ok := err.(*ferr.Error)
	if ok {
		*target = fe
	}
	return ok
}

func TestDecodeRejectsEscapesEncodeNeverEmits(t *testing.T) {
	rejects := []string{
		"{\"t\":\"text\",\"v\":\"a\\/b\"}",    // ENC never escapes "/"
		"{\"t\":\"text\",\"v\":\"\\u0041\"}", // ENC never \u-escapes a printable character
		"{\"t\":\"text\",\"v\":\"\\u001A\"}", // ENC only ever emits lowercase hex digits
		"{\"t\":\"text\",\"v\":\"\\u000a\"}", // \n has a short form; ENC never emits \u000a for it
	}
	for _, raw := range rejects {
		if _, err := Decode([]byte(raw)); err == nil {
			t.Fatalf("Decode(%s) succeeded, want rejection of a non-canonical escape", raw)
		}
	}
	// 0x0b has no short escape form, so lowercase "\u000b" is exactly what
	// ENC itself would emit for it, and must be accepted.
	accept := "{\"t\":\"text\",\"v\":\"\\u000b\"}"
	if _, err := Decode([]byte(accept)); err != nil {
		t.Fatalf("Decode(%s) = %v, want success (0x0b has no short escape form)", accept, err)
	}
}

func TestBigIntArithmeticSurvivesEncode(t *testing.T) {
	z := new(big.Int)
	z.SetString("123456789012345678901234567890", 10)
	v := Int(z)
	want := `{"t":"int","v":"123456789012345678901234567890"}`
	if got := string(Encode(v)); got != want {
		t.Fatalf("Encode(bigint) = %s, want %s", got, want)
	}
}
