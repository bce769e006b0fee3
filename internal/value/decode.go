package value

import (
	"math/big"
	"unicode/utf8"

	"github.com/fard-lang/fard/internal/ferr"
)

// Decode parses the canonical byte grammar of spec §4.1 (DEC) into a V,
// rejecting any deviation from the fixed grammar: unknown "t" tags,
// wrong/missing/extra object keys or key order, non-canonical Int or hex
// payloads, duplicate Record/Map keys, and Record/Map entries out of
// sorted order. There is no insignificant whitespace anywhere in the
// grammar; any byte that is not part of the fixed literal structure is
// rejected.
func Decode(data []byte) (V, error) {
	d := &decoder{data: data}
	v, err := d.value()
	if err != nil {
		return V{}, err
	}
	if d.pos != len(d.data) {
		return V{}, d.errf(ferr.ErrorJSON, "trailing bytes after value")
	}
	return v, nil
}

type decoder struct {
	data []byte
	pos  int
}

func (d *decoder) errf(class ferr.Class, msg string) *ferr.Error {
	return ferr.New(class, d.pos, msg)
}

func (d *decoder) expectLiteral(lit string) error {
	if d.pos+len(lit) > len(d.data) || string(d.data[d.pos:d.pos+len(lit)]) != lit {
		return d.errf(ferr.ErrorJSON, "expected "+quoteName(lit))
	}
	d.pos += len(lit)
	return nil
}

func (d *decoder) value() (V, error) {
	if err := d.expectLiteral(`{"t":"`); err != nil {
		return V{}, err
	}
	tagStart := d.pos
	for d.pos < len(d.data) && isLowerAlpha(d.data[d.pos]) {
		d.pos++
	}
	tag := string(d.data[tagStart:d.pos])
	if err := d.expectLiteral(`"`); err != nil {
		return V{}, err
	}

	switch tag {
	case "unit":
		return d.finishUnit()
	case "bool":
		return d.finishBool()
	case "int":
		return d.finishInt()
	case "text":
		return d.finishText()
	case "bytes":
		return d.finishBytes()
	case "list":
		return d.finishList()
	case "record":
		return d.finishRecord()
	case "map":
		return d.finishMap()
	default:
		return V{}, d.errf(ferr.DecodeUnknownT, "unknown value tag "+quoteName(tag))
	}
}

func isLowerAlpha(b byte) bool { return b >= 'a' && b <= 'z' }

func (d *decoder) finishUnit() (V, error) {
	if err := d.expectLiteral("}"); err != nil {
		return V{}, err
	}
	return Unit(), nil
}

func (d *decoder) finishBool() (V, error) {
	if err := d.expectLiteral(`,"v":`); err != nil {
		return V{}, err
	}
	switch {
	case d.hasPrefix("true}"):
		d.pos += len("true}")
		return Bool(true), nil
	case d.hasPrefix("false}"):
		d.pos += len("false}")
		return Bool(false), nil
	default:
		return V{}, d.errf(ferr.DecodeBadKeys, "bool value must be true or false")
	}
}

func (d *decoder) hasPrefix(s string) bool {
	return d.pos+len(s) <= len(d.data) && string(d.data[d.pos:d.pos+len(s)]) == s
}

func (d *decoder) finishInt() (V, error) {
	if err := d.expectLiteral(`,"v":"`); err != nil {
		return V{}, err
	}
	start := d.pos
	for d.pos < len(d.data) && d.data[d.pos] != '"' {
		d.pos++
	}
	if d.pos >= len(d.data) {
		return V{}, d.errf(ferr.ErrorJSON, "unterminated int literal")
	}
	raw := string(d.data[start:d.pos])
	d.pos++ // closing quote
	if err := d.expectLiteral("}"); err != nil {
		return V{}, err
	}
	z, ok := validateCanonicalInt(raw)
	if !ok {
		return V{}, ferr.New(ferr.DecodeBadInt, start, "int payload "+quoteName(raw)+" fails canonical grammar")
	}
	return Int(z), nil
}

// validateCanonicalInt enforces ^-?(0|[1-9][0-9]*)$ with "-0" illegal.
func validateCanonicalInt(raw string) (*big.Int, bool) {
	if raw == "" {
		return nil, false
	}
	i := 0
	if raw[0] == '-' {
		i = 1
	}
	if i >= len(raw) {
		return nil, false
	}
	if raw[i] == '0' {
		if i+1 != len(raw) {
			return nil, false // leading zero
		}
		if i == 1 {
			return nil, false // "-0"
		}
	} else {
		if raw[i] < '1' || raw[i] > '9' {
			return nil, false
		}
		for j := i + 1; j < len(raw); j++ {
			if raw[j] < '0' || raw[j] > '9' {
				return nil, false
			}
		}
	}
	z, ok := new(big.Int).SetString(raw, 10)
	if !ok {
		return nil, false
	}
	return z, true
}

func (d *decoder) finishText() (V, error) {
	if err := d.expectLiteral(`,"v":`); err != nil {
		return V{}, err
	}
	s, err := d.jsonString()
	if err != nil {
		return V{}, err
	}
	if err := d.expectLiteral("}"); err != nil {
		return V{}, err
	}
	return Text(s), nil
}

func (d *decoder) finishBytes() (V, error) {
	if err := d.expectLiteral(`,"v":"`); err != nil {
		return V{}, err
	}
	start := d.pos
	for d.pos < len(d.data) && d.data[d.pos] != '"' {
		d.pos++
	}
	if d.pos >= len(d.data) {
		return V{}, d.errf(ferr.ErrorJSON, "unterminated bytes literal")
	}
	hexStr := string(d.data[start:d.pos])
	d.pos++
	if err := d.expectLiteral("}"); err != nil {
		return V{}, err
	}
	b, ok := decodeLowerHex(hexStr)
	if !ok {
		return V{}, ferr.New(ferr.DecodeBadHex, start, "bytes payload is not even-length lowercase hex")
	}
	return Bytes(b), nil
}

func decodeLowerHex(s string) ([]byte, bool) {
	if len(s)%2 != 0 {
		return nil, false
	}
	out := make([]byte, len(s)/2)
	for i := 0; i < len(out); i++ {
		hi, ok1 := hexNibble(s[2*i])
		lo, ok2 := hexNibble(s[2*i+1])
		if !ok1 || !ok2 {
			return nil, false
		}
		out[i] = hi<<4 | lo
	}
	return out, true
}

func hexNibble(b byte) (byte, bool) {
	switch {
	case b >= '0' && b <= '9':
		return b - '0', true
	case b >= 'a' && b <= 'f':
		return b - 'a' + 10, true
	default:
		return 0, false
	}
}

func (d *decoder) finishList() (V, error) {
	if err := d.expectLiteral(`,"v":[`); err != nil {
		return V{}, err
	}
	var elems []V
	if d.hasPrefix("]") {
		d.pos++
	} else {
		for {
			v, err := d.value()
			if err != nil {
				return V{}, err
			}
			elems = append(elems, v)
			if d.hasPrefix(",") {
				d.pos++
				continue
			}
			if err := d.expectLiteral("]"); err != nil {
				return V{}, err
			}
			break
		}
	}
	if err := d.expectLiteral("}"); err != nil {
		return V{}, err
	}
	return V{Kind: KindList, listVal: elems}, nil
}

func (d *decoder) finishRecord() (V, error) {
	if err := d.expectLiteral(`,"v":[`); err != nil {
		return V{}, err
	}
	var fields []Field
	if d.hasPrefix("]") {
		d.pos++
	} else {
		for {
			if err := d.expectLiteral("["); err != nil {
				return V{}, err
			}
			nameStart := d.pos
			name, err := d.jsonString()
			if err != nil {
				return V{}, err
			}
			if err := d.expectLiteral(","); err != nil {
				return V{}, err
			}
			val, err := d.value()
			if err != nil {
				return V{}, err
			}
			if err := d.expectLiteral("]"); err != nil {
				return V{}, err
			}
			if len(fields) > 0 {
				prev := fields[len(fields)-1].Name
				if name == prev {
					return V{}, ferr.New(ferr.DecodeDupKey, nameStart, "duplicate record field "+quoteName(name))
				}
				if name < prev {
					return V{}, ferr.New(ferr.ErrorJSON, nameStart, "record fields not in canonical order")
				}
			}
			fields = append(fields, Field{Name: name, Value: val})
			if d.hasPrefix(",") {
				d.pos++
				continue
			}
			if err := d.expectLiteral("]"); err != nil {
				return V{}, err
			}
			break
		}
	}
	if err := d.expectLiteral("}"); err != nil {
		return V{}, err
	}
	return V{Kind: KindRecord, recVal: fields}, nil
}

func (d *decoder) finishMap() (V, error) {
	if err := d.expectLiteral(`,"v":[`); err != nil {
		return V{}, err
	}
	var pairs []Pair
	var prevEnc []byte
	if d.hasPrefix("]") {
		d.pos++
	} else {
		for {
			entryStart := d.pos
			if err := d.expectLiteral("["); err != nil {
				return V{}, err
			}
			key, err := d.value()
			if err != nil {
				return V{}, err
			}
			if err := d.expectLiteral(","); err != nil {
				return V{}, err
			}
			val, err := d.value()
			if err != nil {
				return V{}, err
			}
			if err := d.expectLiteral("]"); err != nil {
				return V{}, err
			}
			keyEnc := Encode(key)
			if prevEnc != nil {
				cmp := compareBytes(keyEnc, prevEnc)
				if cmp == 0 {
					return V{}, ferr.New(ferr.DecodeDupKey, entryStart, "duplicate map key")
				}
				if cmp < 0 {
					return V{}, ferr.New(ferr.ErrorJSON, entryStart, "map entries not in canonical order")
				}
			}
			prevEnc = keyEnc
			pairs = append(pairs, Pair{Key: key, Value: val})
			if d.hasPrefix(",") {
				d.pos++
				continue
			}
			if err := d.expectLiteral("]"); err != nil {
				return V{}, err
			}
			break
		}
	}
	if err := d.expectLiteral("}"); err != nil {
		return V{}, err
	}
	return V{Kind: KindMap, mapVal: pairs}, nil
}

// jsonString parses a double-quoted JSON string starting at the current
// position (which must be '"'), decoding only the escapes Encode emits,
// and rejects lone surrogates and invalid UTF-8.
func (d *decoder) jsonString() (string, error) {
	if err := d.expectLiteral(`"`); err != nil {
		return "", err
	}
	var buf []byte
	for {
		if d.pos >= len(d.data) {
			return "", d.errf(ferr.ErrorJSON, "unterminated string")
		}
		b := d.data[d.pos]
		if b == '"' {
			d.pos++
			s := string(buf)
			if !utf8.ValidString(s) {
				return "", d.errf(ferr.ErrorJSON, "string is not valid UTF-8")
			}
			for _, r := range s {
				if r >= 0xD800 && r <= 0xDFFF {
					return "", d.errf(ferr.ErrorJSON, "string contains a surrogate code point")
				}
			}
			return s, nil
		}
		if b < 0x20 {
			return "", d.errf(ferr.ErrorJSON, "unescaped control byte in string")
		}
		if b != '\\' {
			size := utf8SeqLen(b)
			if d.pos+size > len(d.data) {
				return "", d.errf(ferr.ErrorJSON, "truncated UTF-8 sequence in string")
			}
			buf = append(buf, d.data[d.pos:d.pos+size]...)
			d.pos += size
			continue
		}
		d.pos++
		if d.pos >= len(d.data) {
			return "", d.errf(ferr.ErrorJSON, "unterminated escape sequence")
		}
		esc := d.data[d.pos]
		d.pos++
		switch esc {
		case '"':
			buf = append(buf, '"')
		case '\\':
			buf = append(buf, '\\')
		case 'b':
			buf = append(buf, '\b')
		case 't':
			buf = append(buf, '\t')
		case 'n':
			buf = append(buf, '\n')
		case 'f':
			buf = append(buf, '\f')
		case 'r':
			buf = append(buf, '\r')
		case 'u':
			r, err := d.readHex4()
			if err != nil {
				return "", err
			}
			var tmp [4]byte
			n := utf8.EncodeRune(tmp[:], r)
			buf = append(buf, tmp[:n]...)
		default:
			// "/" is valid unescaped JSON and so never appears as an
			// encoder-emitted "\/" escape; rejecting it here (along with
			// every other escape ENC never produces) keeps DEC the strict
			// inverse of ENC rather than a general JSON string decoder.
			return "", d.errf(ferr.ErrorJSON, "invalid escape character")
		}
	}
}

// readHex4 parses a "\u00XX" control-byte escape: exactly four lowercase
// hex digits, and — since the encoder only ever emits \u00XX for the
// control bytes below 0x20 that have no short escape form (§4.1) — the
// decoded rune must land in that same narrow set, or be rejected as an
// escape ENC would never produce.
func (d *decoder) readHex4() (rune, error) {
	if d.pos+4 > len(d.data) {
		return 0, d.errf(ferr.ErrorJSON, "incomplete unicode escape")
	}
	var val rune
	for i := 0; i < 4; i++ {
		c := d.data[d.pos+i]
		n, ok := hexNibble(c)
		if !ok {
			return 0, d.errf(ferr.ErrorJSON, "invalid hex digit in unicode escape")
		}
		val = val<<4 | rune(n)
	}
	d.pos += 4
	if !isCanonicalUEscapeRune(val) {
		return 0, d.errf(ferr.ErrorJSON, "\\u escape does not denote a canonical control byte")
	}
	return val, nil
}

// isCanonicalUEscapeRune reports whether r is one of the control bytes
// the encoder represents as "\u00XX": below 0x20, and not one of the five
// bytes that have their own short escape (\b \t \n \f \r).
func isCanonicalUEscapeRune(r rune) bool {
	if r < 0 || r >= 0x20 {
		return false
	}
	switch r {
	case 0x08, 0x09, 0x0A, 0x0C, 0x0D:
		return false
	default:
		return true
	}
}

func utf8SeqLen(b byte) int {
	switch {
	case b < 0x80:
		return 1
	case b < 0xE0:
		return 2
	case b < 0xF0:
		return 3
	default:
		return 4
	}
}
