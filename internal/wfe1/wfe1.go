// Package wfe1 implements the "witness file envelope v1" on-disk
// transport for a FARD witness: the canonical ENC(Witness) bytes plus a
// single trailing LF, written atomically via temp-file-then-rename.
//
// WFE1 = ENC(witness.Witness.Value()) || 0x0A
//
// This is a direct structural adaptation of the teacher's gjcs1 package:
// the same envelope shape, the same file-level constraints checked
// before any value parsing, and the same atomic-write discipline — but
// re-verified against internal/value's ENC/DEC instead of RFC 8785 JCS,
// since FARD's wire grammar is not JCS (see internal/digest and
// internal/value for the grammar itself).
package wfe1

import (
	"fmt"
	"os"
	"path/filepath"
	"unicode/utf8"

	"github.com/fard-lang/fard/internal/value"
)

// EnvelopeError indicates a file-level constraint violation detected
// before any value decoding is attempted.
type EnvelopeError struct{ Msg string }

func (e *EnvelopeError) Error() string { return fmt.Sprintf("wfe1: envelope: %s", e.Msg) }

// CanonError indicates the file decoded to a value but its bytes are not
// that value's canonical encoding.
type CanonError struct{ Msg string }

func (e *CanonError) Error() string { return fmt.Sprintf("wfe1: non-canonical: %s", e.Msg) }

// Envelope wraps canonical ENC bytes with a single trailing LF.
func Envelope(encBody []byte) []byte {
	out := make([]byte, len(encBody)+1)
	copy(out, encBody)
	out[len(encBody)] = 0x0A
	return out
}

// Verify checks that data is a conforming WFE1 file: correct envelope
// shape, and a body that decodes to a value whose own canonical
// encoding is byte-identical to the body.
func Verify(data []byte) error {
	body, err := checkEnvelope(data)
	if err != nil {
		return err
	}
	v, err := value.Decode(body)
	if err != nil {
		return fmt.Errorf("wfe1: decode body: %w", err)
	}
	canonical := value.Encode(v)
	if !bytesEqual(body, canonical) {
		return &CanonError{Msg: "ENC body bytes differ from canonical re-encoding"}
	}
	return nil
}

func checkEnvelope(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, &EnvelopeError{Msg: "file is empty"}
	}
	if data[len(data)-1] != 0x0A {
		return nil, &EnvelopeError{Msg: "missing trailing LF"}
	}
	if len(data) >= 2 && data[len(data)-2] == 0x0A {
		return nil, &EnvelopeError{Msg: "multiple trailing LFs"}
	}
	body := data[:len(data)-1]
	if len(body) == 0 {
		return nil, &EnvelopeError{Msg: "empty ENC body (file contains only LF)"}
	}
	for i, b := range data {
		if b == 0x0D {
			return nil, &EnvelopeError{Msg: fmt.Sprintf("CR byte (0x0D) at offset %d", i)}
		}
	}
	for i, b := range body {
		if b == 0x0A {
			return nil, &EnvelopeError{Msg: fmt.Sprintf("LF byte inside ENC body at offset %d", i)}
		}
	}
	if !utf8.Valid(body) {
		return nil, &EnvelopeError{Msg: "invalid UTF-8 in ENC body"}
	}
	return body, nil
}

// WriteAtomic writes WFE1 bytes to path via temp file + rename, cleaning
// up the temp file on any failure.
func WriteAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".wfe1-*.tmp")
	if err != nil {
		return fmt.Errorf("wfe1: create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	success := false
	defer func() {
		if !success {
			_ = tmp.Close()
			_ = os.Remove(tmpPath)
		}
	}()
	if _, err := tmp.Write(data); err != nil {
		return fmt.Errorf("wfe1: write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("wfe1: sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("wfe1: close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("wfe1: rename temp to final: %w", err)
	}
	success = true
	syncDir(dir)
	return nil
}

func syncDir(dir string) {
	d, err := os.Open(dir)
	if err != nil {
		return
	}
	defer d.Close()
	_ = d.Sync()
}

// WriteWitness canonically encodes v and writes it as a WFE1 file.
func WriteWitness(path string, v value.V) error {
	return WriteAtomic(path, Envelope(value.Encode(v)))
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
