package value

import (
	"sort"
)

// Encode produces the canonical byte sequence for v (spec §4.1, ENC). The
// grammar is a fixed, tagged JSON-shaped form: no insignificant whitespace,
// keys in the literal fixed order ("t" before "v"; entry key before entry
// value), Record fields sorted by UTF-8 byte order of name, Map entries
// sorted by Encode(key) byte order.
//
// Encode never fails: every V constructed through this package's
// constructors (Record, the Map family below, and the scalar
// constructors) is already well-formed, and Decode is the only path that
// can reject ill-formed input before it becomes a V.
func Encode(v V) []byte {
	return appendEncoded(nil, v)
}

func appendEncoded(buf []byte, v V) []byte {
	switch v.Kind {
	case KindUnit:
		return append(buf, `{"t":"unit"}`...)
	case KindBool:
		if v.boolVal {
			return append(buf, `{"t":"bool","v":true}`...)
		}
		return append(buf, `{"t":"bool","v":false}`...)
	case KindInt:
		buf = append(buf, `{"t":"int","v":"`...)
		buf = append(buf, v.intVal.String()...)
		return append(buf, `"}`...)
	case KindText:
		buf = append(buf, `{"t":"text","v":`...)
		buf = appendEncodedString(buf, v.textVal)
		return append(buf, '}')
	case KindBytes:
		buf = append(buf, `{"t":"bytes","v":"`...)
		buf = appendLowerHex(buf, v.bytesVal)
		return append(buf, `"}`...)
	case KindList:
		buf = append(buf, `{"t":"list","v":[`...)
		for i, e := range v.listVal {
			if i > 0 {
				buf = append(buf, ',')
			}
			buf = appendEncoded(buf, e)
		}
		return append(buf, ']', '}')
	case KindRecord:
		buf = append(buf, `{"t":"record","v":[`...)
		for i, f := range v.recVal {
			if i > 0 {
				buf = append(buf, ',')
			}
			buf = append(buf, '[')
			buf = appendEncodedString(buf, f.Name)
			buf = append(buf, ',')
			buf = appendEncoded(buf, f.Value)
			buf = append(buf, ']')
		}
		return append(buf, ']', '}')
	case KindMap:
		buf = append(buf, `{"t":"map","v":[`...)
		for i, p := range v.mapVal {
			if i > 0 {
				buf = append(buf, ',')
			}
			buf = append(buf, '[')
			buf = appendEncoded(buf, p.Key)
			buf = append(buf, ',')
			buf = appendEncoded(buf, p.Value)
			buf = append(buf, ']')
		}
		return append(buf, ']', '}')
	default:
		panic("value: Encode: unknown kind " + v.Kind.String())
	}
}

const lowerHexDigits = "0123456789abcdef"

func appendLowerHex(buf []byte, b []byte) []byte {
	for _, c := range b {
		buf = append(buf, lowerHexDigits[c>>4], lowerHexDigits[c&0x0F])
	}
	return buf
}

// appendEncodedString applies the strict JCS-style escaping rules of
// spec §4.1: control-character escapes for \b \t \n \f \r, \u00xx
// lowercase for other controls, " and \ escaped, everything else raw
// UTF-8, no \/ and no surrogate-pair splitting of BMP characters (Go
// strings are already UTF-8 scalar sequences, so there is nothing to
// split).
func appendEncodedString(buf []byte, s string) []byte {
	buf = append(buf, '"')
	for i := 0; i < len(s); i++ {
		b := s[i]
		switch b {
		case '"':
			buf = append(buf, '\\', '"')
		case '\\':
			buf = append(buf, '\\', '\\')
		case '\b':
			buf = append(buf, '\\', 'b')
		case '\t':
			buf = append(buf, '\\', 't')
		case '\n':
			buf = append(buf, '\\', 'n')
		case '\f':
			buf = append(buf, '\\', 'f')
		case '\r':
			buf = append(buf, '\\', 'r')
		default:
			if b < 0x20 {
				buf = append(buf, '\\', 'u', '0', '0', lowerHexDigits[b>>4], lowerHexDigits[b&0x0F])
			} else {
				buf = append(buf, b)
			}
		}
	}
	return append(buf, '"')
}

// Equal reports whether a and b are the same canonical value, by Encode
// equality (spec §4.7: equality is by ENC equality and is total across V).
func Equal(a, b V) bool {
	ea, eb := Encode(a), Encode(b)
	if len(ea) != len(eb) {
		return false
	}
	for i := range ea {
		if ea[i] != eb[i] {
			return false
		}
	}
	return true
}

// Less reports whether Encode(a) sorts strictly before Encode(b) in byte
// order; used to order Map entries by their key encoding.
func Less(a, b V) bool {
	ea, eb := Encode(a), Encode(b)
	n := len(ea)
	if len(eb) < n {
		n = len(eb)
	}
	for i := 0; i < n; i++ {
		if ea[i] != eb[i] {
			return ea[i] < eb[i]
		}
	}
	return len(ea) < len(eb)
}

// Map builds a Map value, sorting entries by Encode(key) ascending (spec
// §3.1) and rejecting duplicate keys by Encode equality.
func Map(pairs ...Pair) (V, error) {
	cp := make([]Pair, len(pairs))
	copy(cp, pairs)
	sort.SliceStable(cp, func(i, j int) bool { return Less(cp[i].Key, cp[j].Key) })
	for i := 1; i < len(cp); i++ {
		if Equal(cp[i].Key, cp[i-1].Key) {
			return V{}, dupMapKeyError()
		}
	}
	return V{Kind: KindMap, mapVal: cp}, nil
}

// MapOf returns the underlying entries (sorted, a fresh copy) and whether v
// is a Map.
func (v V) MapOf() ([]Pair, bool) {
	if v.Kind != KindMap {
		return nil, false
	}
	cp := make([]Pair, len(v.mapVal))
	copy(cp, v.mapVal)
	return cp, true
}

// MapGet returns the value mapped to key in a Map, by Encode(key) equality.
func (v V) MapGet(key V) (V, bool) {
	if v.Kind != KindMap {
		return V{}, false
	}
	ek := Encode(key)
	i := sort.Search(len(v.mapVal), func(i int) bool {
		ei := Encode(v.mapVal[i].Key)
		return compareBytes(ei, ek) >= 0
	})
	if i < len(v.mapVal) && compareBytes(Encode(v.mapVal[i].Key), ek) == 0 {
		return v.mapVal[i].Value, true
	}
	return V{}, false
}

func compareBytes(a, b []byte) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			if a[i] < b[i] {
				return -1
			}
			return 1
		}
	}
	switch {
	case len(a) < len(b):
		return -1
	case len(a) > len(b):
		return 1
	default:
		return 0
	}
}
