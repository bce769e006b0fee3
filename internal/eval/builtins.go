package eval

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"math/big"
	"strings"
	"unicode/utf8"

	"github.com/fard-lang/fard/internal/ferr"
	"github.com/fard-lang/fard/internal/value"
)

// builtin is one entry of the evaluator's closed builtin vocabulary
// (spec §4.7): a fixed arity and an implementation over value.V.
type builtin struct {
	arity int
	fn    func(args []value.V) (value.V, error)
}

var builtins map[string]builtin

func init() {
	builtins = map[string]builtin{
		"add":                {2, builtinAdd},
		"sub":                {2, builtinSub},
		"mul":                {2, builtinMul},
		"div":                {2, builtinDiv},
		"rem":                {2, builtinRem},
		"neg":                {1, builtinNeg},
		"cmp.eq":             {2, builtinCmpEq},
		"cmp.lt":             {2, builtinCmpLt},
		"cmp.le":             {2, builtinCmpLe},
		"cmp.gt":             {2, builtinCmpGt},
		"cmp.ge":             {2, builtinCmpGe},
		"bool.and":           {2, builtinBoolAnd},
		"bool.or":            {2, builtinBoolOr},
		"bool.not":           {1, builtinBoolNot},
		"text_concat":        {2, builtinTextConcat},
		"text_len":           {1, builtinTextLen},
		"int_to_text":        {1, builtinIntToText},
		"list_len":           {1, builtinListLen},
		"list_get":           {2, builtinListGet},
		"bytes_from_text":    {1, builtinBytesFromText},
		"bytes_eq":           {2, builtinBytesEq},
		"base64url_encode":   {1, builtinBase64URLEncode},
		"base64url_decode":   {1, builtinBase64URLDecode},
		"json_parse":         {1, builtinJSONParse},
		"json_emit":          {1, builtinJSONEmit},
	}
}

func typeErr(msg string) error {
	return ferr.New(ferr.ErrorEvalType, -1, msg)
}

func wantInt(v value.V) (*big.Int, error) {
	z, ok := v.IntOf()
	if !ok {
		return nil, typeErr("expected Int argument")
	}
	return z, nil
}

func wantText(v value.V) (string, error) {
	s, ok := v.TextOf()
	if !ok {
		return "", typeErr("expected Text argument")
	}
	return s, nil
}

func wantBytes(v value.V) ([]byte, error) {
	b, ok := v.BytesOf()
	if !ok {
		return nil, typeErr("expected Bytes argument")
	}
	return b, nil
}

func wantBool(v value.V) (bool, error) {
	b, ok := v.BoolOf()
	if !ok {
		return false, typeErr("expected Bool argument")
	}
	return b, nil
}

func wantList(v value.V) ([]value.V, error) {
	l, ok := v.ListOf()
	if !ok {
		return nil, typeErr("expected List argument")
	}
	return l, nil
}

func builtinAdd(a []value.V) (value.V, error) {
	x, err := wantInt(a[0])
	if err != nil {
		return value.V{}, err
	}
	y, err := wantInt(a[1])
	if err != nil {
		return value.V{}, err
	}
	return value.Int(new(big.Int).Add(x, y)), nil
}

func builtinSub(a []value.V) (value.V, error) {
	x, err := wantInt(a[0])
	if err != nil {
		return value.V{}, err
	}
	y, err := wantInt(a[1])
	if err != nil {
		return value.V{}, err
	}
	return value.Int(new(big.Int).Sub(x, y)), nil
}

func builtinMul(a []value.V) (value.V, error) {
	x, err := wantInt(a[0])
	if err != nil {
		return value.V{}, err
	}
	y, err := wantInt(a[1])
	if err != nil {
		return value.V{}, err
	}
	return value.Int(new(big.Int).Mul(x, y)), nil
}

func builtinDiv(a []value.V) (value.V, error) {
	x, err := wantInt(a[0])
	if err != nil {
		return value.V{}, err
	}
	y, err := wantInt(a[1])
	if err != nil {
		return value.V{}, err
	}
	if y.Sign() == 0 {
		return value.V{}, ferr.New(ferr.ErrorEvalDiv0, -1, "division by zero")
	}
	q := new(big.Int)
	q.Quo(x, y)
	return value.Int(q), nil
}

func builtinRem(a []value.V) (value.V, error) {
	x, err := wantInt(a[0])
	if err != nil {
		return value.V{}, err
	}
	y, err := wantInt(a[1])
	if err != nil {
		return value.V{}, err
	}
	if y.Sign() == 0 {
		return value.V{}, ferr.New(ferr.ErrorEvalDiv0, -1, "division by zero")
	}
	r := new(big.Int)
	r.Rem(x, y)
	return value.Int(r), nil
}

func builtinNeg(a []value.V) (value.V, error) {
	x, err := wantInt(a[0])
	if err != nil {
		return value.V{}, err
	}
	return value.Int(new(big.Int).Neg(x)), nil
}

func builtinCmpEq(a []value.V) (value.V, error) {
	return value.Bool(value.Equal(a[0], a[1])), nil
}

func builtinCmpLt(a []value.V) (value.V, error) {
	x, y, err := bothInts(a)
	if err != nil {
		return value.V{}, err
	}
	return value.Bool(x.Cmp(y) < 0), nil
}

func builtinCmpLe(a []value.V) (value.V, error) {
	x, y, err := bothInts(a)
	if err != nil {
		return value.V{}, err
	}
	return value.Bool(x.Cmp(y) <= 0), nil
}

func builtinCmpGt(a []value.V) (value.V, error) {
	x, y, err := bothInts(a)
	if err != nil {
		return value.V{}, err
	}
	return value.Bool(x.Cmp(y) > 0), nil
}

func builtinCmpGe(a []value.V) (value.V, error) {
	x, y, err := bothInts(a)
	if err != nil {
		return value.V{}, err
	}
	return value.Bool(x.Cmp(y) >= 0), nil
}

func bothInts(a []value.V) (*big.Int, *big.Int, error) {
	x, err := wantInt(a[0])
	if err != nil {
		return nil, nil, err
	}
	y, err := wantInt(a[1])
	if err != nil {
		return nil, nil, err
	}
	return x, y, nil
}

func builtinBoolAnd(a []value.V) (value.V, error) {
	x, err := wantBool(a[0])
	if err != nil {
		return value.V{}, err
	}
	y, err := wantBool(a[1])
	if err != nil {
		return value.V{}, err
	}
	return value.Bool(x && y), nil
}

func builtinBoolOr(a []value.V) (value.V, error) {
	x, err := wantBool(a[0])
	if err != nil {
		return value.V{}, err
	}
	y, err := wantBool(a[1])
	if err != nil {
		return value.V{}, err
	}
	return value.Bool(x || y), nil
}

func builtinBoolNot(a []value.V) (value.V, error) {
	x, err := wantBool(a[0])
	if err != nil {
		return value.V{}, err
	}
	return value.Bool(!x), nil
}

func builtinTextConcat(a []value.V) (value.V, error) {
	x, err := wantText(a[0])
	if err != nil {
		return value.V{}, err
	}
	y, err := wantText(a[1])
	if err != nil {
		return value.V{}, err
	}
	return value.Text(x + y), nil
}

func builtinTextLen(a []value.V) (value.V, error) {
	x, err := wantText(a[0])
	if err != nil {
		return value.V{}, err
	}
	return value.IntFromInt64(int64(utf8.RuneCountInString(x))), nil
}

func builtinIntToText(a []value.V) (value.V, error) {
	x, err := wantInt(a[0])
	if err != nil {
		return value.V{}, err
	}
	return value.Text(x.String()), nil
}

func builtinListLen(a []value.V) (value.V, error) {
	l, err := wantList(a[0])
	if err != nil {
		return value.V{}, err
	}
	return value.IntFromInt64(int64(len(l))), nil
}

func builtinListGet(a []value.V) (value.V, error) {
	l, err := wantList(a[0])
	if err != nil {
		return value.V{}, err
	}
	idx, err := wantInt(a[1])
	if err != nil {
		return value.V{}, err
	}
	if !idx.IsInt64() {
		return value.V{}, ferr.New(ferr.ErrorEvalIndex, -1, "list index out of range")
	}
	i := idx.Int64()
	if i < 0 || i >= int64(len(l)) {
		return value.V{}, ferr.New(ferr.ErrorEvalIndex, -1, "list index out of range")
	}
	return l[i], nil
}

func builtinBytesFromText(a []value.V) (value.V, error) {
	s, err := wantText(a[0])
	if err != nil {
		return value.V{}, err
	}
	return value.Bytes([]byte(s)), nil
}

func builtinBytesEq(a []value.V) (value.V, error) {
	x, err := wantBytes(a[0])
	if err != nil {
		return value.V{}, err
	}
	y, err := wantBytes(a[1])
	if err != nil {
		return value.V{}, err
	}
	if len(x) != len(y) {
		return value.Bool(false), nil
	}
	for i := range x {
		if x[i] != y[i] {
			return value.Bool(false), nil
		}
	}
	return value.Bool(true), nil
}

func builtinBase64URLEncode(a []value.V) (value.V, error) {
	b, err := wantBytes(a[0])
	if err != nil {
		return value.V{}, err
	}
	return value.Text(base64.RawURLEncoding.EncodeToString(b)), nil
}

func builtinBase64URLDecode(a []value.V) (value.V, error) {
	s, err := wantText(a[0])
	if err != nil {
		return value.V{}, err
	}
	b, decErr := base64.RawURLEncoding.DecodeString(s)
	if decErr != nil {
		return value.V{}, typeErr("invalid base64url text")
	}
	return value.Bytes(b), nil
}

// ParseJSONValue bridges plain JSON text into a value.V using the same
// mapping as the json_parse builtin; exported so internal/bundledir can
// load effect-fact manifests without duplicating the conversion.
func ParseJSONValue(raw []byte) (value.V, error) {
	var v any
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&v); err != nil {
		return value.V{}, ferr.Wrap(ferr.ErrorJSON, -1, "invalid JSON text", err)
	}
	return fromJSONAny(v)
}

// builtinJSONParse bridges plain JSON text (not FARD's own ENC grammar)
// into a value.V: null -> Unit, bool -> Bool, integral number -> Int,
// string -> Text, array -> List, object -> Record (sorted by field name
// by value.Record itself). Non-integral numbers have no representation
// in V's exact-decimal Int and are rejected.
func builtinJSONParse(a []value.V) (value.V, error) {
	s, err := wantText(a[0])
	if err != nil {
		return value.V{}, err
	}
	var raw any
	dec := json.NewDecoder(strings.NewReader(s))
	dec.UseNumber()
	if jerr := dec.Decode(&raw); jerr != nil {
		return value.V{}, ferr.Wrap(ferr.ErrorJSON, -1, "invalid JSON text", jerr)
	}
	return fromJSONAny(raw)
}

func fromJSONAny(raw any) (value.V, error) {
	switch t := raw.(type) {
	case nil:
		return value.Unit(), nil
	case bool:
		return value.Bool(t), nil
	case json.Number:
		z, ok := new(big.Int).SetString(t.String(), 10)
		if !ok {
			return value.V{}, ferr.New(ferr.ErrorJSON, -1, "non-integral JSON number has no Int representation")
		}
		return value.Int(z), nil
	case string:
		return value.Text(t), nil
	case []any:
		items := make([]value.V, len(t))
		for i, e := range t {
			v, err := fromJSONAny(e)
			if err != nil {
				return value.V{}, err
			}
			items[i] = v
		}
		return value.List(items...), nil
	case map[string]any:
		fields := make([]value.Field, 0, len(t))
		for k, e := range t {
			v, err := fromJSONAny(e)
			if err != nil {
				return value.V{}, err
			}
			fields = append(fields, value.Field{Name: k, Value: v})
		}
		return value.Record(fields...)
	default:
		return value.V{}, ferr.New(ferr.ErrorJSON, -1, "unsupported JSON shape")
	}
}

// builtinJSONEmit is the inverse of builtinJSONParse; Bytes and Map have
// no plain-JSON representation and are rejected.
func builtinJSONEmit(a []value.V) (value.V, error) {
	raw, err := toJSONAny(a[0])
	if err != nil {
		return value.V{}, err
	}
	b, jerr := json.Marshal(raw)
	if jerr != nil {
		return value.V{}, ferr.Wrap(ferr.ErrorJSON, -1, "failed to emit JSON", jerr)
	}
	return value.Text(string(b)), nil
}

func toJSONAny(v value.V) (any, error) {
	switch v.Kind {
	case value.KindUnit:
		return nil, nil
	case value.KindBool:
		b, _ := v.BoolOf()
		return b, nil
	case value.KindInt:
		z, _ := v.IntOf()
		return json.Number(z.String()), nil
	case value.KindText:
		s, _ := v.TextOf()
		return s, nil
	case value.KindList:
		l, _ := v.ListOf()
		out := make([]any, len(l))
		for i, e := range l {
			o, err := toJSONAny(e)
			if err != nil {
				return nil, err
			}
			out[i] = o
		}
		return out, nil
	case value.KindRecord:
		rec, _ := v.RecordOf()
		out := make(map[string]any, len(rec))
		for _, f := range rec {
			o, err := toJSONAny(f.Value)
			if err != nil {
				return nil, err
			}
			out[f.Name] = o
		}
		return out, nil
	default:
		return nil, ferr.New(ferr.ErrorJSON, -1, "value has no plain-JSON representation")
	}
}
