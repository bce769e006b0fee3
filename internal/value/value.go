// Package value defines V, the closed canonical value universe of the FARD
// value core (spec §3.1): Unit, Bool, Int, Text, Bytes, List, Record, Map.
//
// V is acyclic by construction and carries no mutation; every constructor
// either returns a well-formed canonical value or a descriptive error from
// internal/ferr. Encoding to and decoding from the canonical byte grammar
// (Encode/Decode, in this same package) also lives here rather than in a
// separate package: Map's constructor must sort its entries by Encode(key)
// at construction time, so Encode cannot live downstream of value without
// an import cycle.
package value

import (
	"math/big"
	"sort"

	"github.com/fard-lang/fard/internal/ferr"
)

// Kind identifies which variant of the closed sum a V holds.
type Kind int

const (
	KindUnit Kind = iota
	KindBool
	KindInt
	KindText
	KindBytes
	KindList
	KindRecord
	KindMap
)

func (k Kind) String() string {
	switch k {
	case KindUnit:
		return "unit"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindText:
		return "text"
	case KindBytes:
		return "bytes"
	case KindList:
		return "list"
	case KindRecord:
		return "record"
	case KindMap:
		return "map"
	default:
		return "unknown"
	}
}

// Field is one Record entry: a field name paired with its value.
type Field struct {
	Name  string
	Value V
}

// Pair is one Map entry: a key value paired with its mapped value.
type Pair struct {
	Key   V
	Value V
}

// V is the closed, tagged, acyclic value universe. Exactly one of the
// payload fields is meaningful, selected by Kind. V is a value type:
// callers must never mutate List/Record/Map slices shared across copies.
type V struct {
	Kind Kind

	boolVal  bool
	intVal   *big.Int
	textVal  string
	bytesVal []byte
	listVal  []V
	recVal   []Field
	mapVal   []Pair
}

// Unit returns the single Unit value.
func Unit() V { return V{Kind: KindUnit} }

// Bool returns a Bool value.
func Bool(b bool) V { return V{Kind: KindBool, boolVal: b} }

// BoolOf reports b and whether v is a Bool.
func (v V) BoolOf() (bool, bool) {
	if v.Kind != KindBool {
		return false, false
	}
	return v.boolVal, true
}

// Int returns an Int value from an arbitrary-precision integer. The
// *big.Int is copied so the caller may keep mutating their own.
func Int(z *big.Int) V {
	return V{Kind: KindInt, intVal: new(big.Int).Set(z)}
}

// IntFromInt64 returns an Int value from an int64.
func IntFromInt64(n int64) V {
	return V{Kind: KindInt, intVal: big.NewInt(n)}
}

// IntOf returns the underlying *big.Int (never nil when ok) and whether v
// is an Int. The returned pointer must not be mutated by the caller.
func (v V) IntOf() (*big.Int, bool) {
	if v.Kind != KindInt {
		return nil, false
	}
	return v.intVal, true
}

// Text returns a Text value. s must be a valid sequence of Unicode scalar
// values (no surrogate halves); Go strings over well-formed UTF-8 already
// satisfy this.
func Text(s string) V { return V{Kind: KindText, textVal: s} }

// TextOf returns the underlying string and whether v is Text.
func (v V) TextOf() (string, bool) {
	if v.Kind != KindText {
		return "", false
	}
	return v.textVal, true
}

// Bytes returns a Bytes value. The slice is copied.
func Bytes(b []byte) V {
	cp := make([]byte, len(b))
	copy(cp, b)
	return V{Kind: KindBytes, bytesVal: cp}
}

// BytesOf returns the underlying bytes (a fresh copy) and whether v is Bytes.
func (v V) BytesOf() ([]byte, bool) {
	if v.Kind != KindBytes {
		return nil, false
	}
	cp := make([]byte, len(v.bytesVal))
	copy(cp, v.bytesVal)
	return cp, true
}

// List returns a List value over items, in order. The slice is copied.
func List(items ...V) V {
	cp := make([]V, len(items))
	copy(cp, items)
	return V{Kind: KindList, listVal: cp}
}

// ListOf returns the underlying elements (a fresh copy) and whether v is a List.
func (v V) ListOf() ([]V, bool) {
	if v.Kind != KindList {
		return nil, false
	}
	cp := make([]V, len(v.listVal))
	copy(cp, v.listVal)
	return cp, true
}

// Record builds a Record value, sorting fields by name in UTF-8 byte order
// (spec §3.1). It is an error ("INTERNAL_ERROR"-class, since a well-formed
// frontend/evaluator never produces it) for two fields to share a name.
func Record(fields ...Field) (V, error) {
	cp := make([]Field, len(fields))
	copy(cp, fields)
	sort.SliceStable(cp, func(i, j int) bool { return cp[i].Name < cp[j].Name })
	for i := 1; i < len(cp); i++ {
		if cp[i].Name == cp[i-1].Name {
			return V{}, ferr.New(ferr.InternalError, -1, "duplicate record field name "+quoteName(cp[i].Name))
		}
	}
	return V{Kind: KindRecord, recVal: cp}, nil
}

// MustRecord is Record but panics on error; for constructing literal
// constant records (e.g. witness shape builders) where duplication is a
// programming bug, not reachable input.
func MustRecord(fields ...Field) V {
	v, err := Record(fields...)
	if err != nil {
		panic(err)
	}
	return v
}

// RecordOf returns the underlying fields (sorted, a fresh copy) and whether
// v is a Record.
func (v V) RecordOf() ([]Field, bool) {
	if v.Kind != KindRecord {
		return nil, false
	}
	cp := make([]Field, len(v.recVal))
	copy(cp, v.recVal)
	return cp, true
}

// Get returns the value of field name in a Record, and whether it is present.
func (v V) Get(name string) (V, bool) {
	if v.Kind != KindRecord {
		return V{}, false
	}
	i := sort.Search(len(v.recVal), func(i int) bool { return v.recVal[i].Name >= name })
	if i < len(v.recVal) && v.recVal[i].Name == name {
		return v.recVal[i].Value, true
	}
	return V{}, false
}

func quoteName(s string) string {
	return "\"" + s + "\""
}

func dupMapKeyError() *ferr.Error {
	return ferr.New(ferr.InternalError, -1, "duplicate map key")
}
