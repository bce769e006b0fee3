// Package bundledir loads a FARD bundle directory: the program source,
// its effect-fact manifest, and its input bytes. The manifest decode
// uses encoding/json only — struct tags carry no yaml: form, matching the
// teacher's own config loader, whose yaml: tags are present but never
// wired to a YAML decoder anywhere in its own go.mod (see SPEC_FULL.md
// §9 for the full rationale).
package bundledir

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/fard-lang/fard/internal/digest"
	"github.com/fard-lang/fard/internal/eval"
	"github.com/fard-lang/fard/internal/ferr"
	"github.com/fard-lang/fard/internal/value"
)

const (
	sourceFileName   = "source.fard"
	factsFileName    = "facts.json"
	inputFileName    = "input.bin"
	entryFuncDefault = "main"
)

// factJSON is one effect-fact manifest entry as it appears on disk: a
// plain-JSON request/result pair bridged into value.V by
// eval.ParseJSONValue, the same bridge the json_parse builtin uses.
type factJSON struct {
	Kind string          `json:"kind"`
	Req  json.RawMessage `json:"req"`
	Sat  json.RawMessage `json:"sat"`
}

type manifestJSON struct {
	EntryFunc string     `json:"entry_func"`
	Facts     []factJSON `json:"facts"`
}

// Bundle is a loaded bundle directory: its source text, its declared
// entry function, its effect facts, and its input bytes.
type Bundle struct {
	Source    []byte
	EntryFunc string
	Facts     eval.Facts
	Input     []byte
}

// Load reads dir/source.fard, dir/facts.json (optional), and
// dir/input.bin (optional) into a Bundle.
func Load(dir string) (*Bundle, error) {
	source, err := os.ReadFile(filepath.Join(dir, sourceFileName))
	if err != nil {
		return nil, ferr.Wrap(ferr.InternalIO, -1, "read bundle source", err)
	}

	b := &Bundle{Source: source, EntryFunc: entryFuncDefault}

	manifestPath := filepath.Join(dir, factsFileName)
	if data, err := os.ReadFile(manifestPath); err == nil {
		facts, entry, perr := parseManifest(data)
		if perr != nil {
			return nil, perr
		}
		b.Facts = facts
		if entry != "" {
			b.EntryFunc = entry
		}
	} else if !os.IsNotExist(err) {
		return nil, ferr.Wrap(ferr.InternalIO, -1, "read bundle facts manifest", err)
	}

	inputPath := filepath.Join(dir, inputFileName)
	if data, err := os.ReadFile(inputPath); err == nil {
		b.Input = data
	} else if !os.IsNotExist(err) {
		return nil, ferr.Wrap(ferr.InternalIO, -1, "read bundle input", err)
	}

	return b, nil
}

func parseManifest(data []byte) (eval.Facts, string, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	var m manifestJSON
	if err := dec.Decode(&m); err != nil {
		return nil, "", ferr.Wrap(ferr.ErrorJSON, -1, "decode facts manifest", err)
	}
	if err := ensureSingleJSONDocument(dec); err != nil {
		return nil, "", ferr.Wrap(ferr.ErrorJSON, -1, "decode facts manifest", err)
	}
	facts := make(eval.Facts, len(m.Facts))
	for i, f := range m.Facts {
		req, err := eval.ParseJSONValue(f.Req)
		if err != nil {
			return nil, "", ferr.Wrap(ferr.ErrorJSON, -1, fmt.Sprintf("fact %d: req", i), err)
		}
		sat, err := eval.ParseJSONValue(f.Sat)
		if err != nil {
			return nil, "", ferr.Wrap(ferr.ErrorJSON, -1, fmt.Sprintf("fact %d: sat", i), err)
		}
		facts[i] = eval.Fact{Kind: f.Kind, Req: req, Sat: sat}
	}
	return facts, m.EntryFunc, nil
}

// ensureSingleJSONDocument rejects trailing, non-whitespace content after
// the decoded document — the same strictness the teacher's matrix/profile
// loaders apply to their own JSON documents.
func ensureSingleJSONDocument(dec *json.Decoder) error {
	var extra json.RawMessage
	if err := dec.Decode(&extra); err != io.EOF {
		if err == nil {
			return fmt.Errorf("unexpected trailing content after JSON document")
		}
		return err
	}
	return nil
}

// InputCID is a convenience for computing the content id of the bundle's
// raw input bytes. A bundle with no input.bin file carries no input value
// at all, so it hashes as Unit rather than as a zero-length Bytes value
// (those are distinct encodings, hence distinct CIDs).
func InputCID(input []byte) string {
	if len(input) == 0 {
		return digest.VDIG(value.Unit())
	}
	return digest.VDIG(value.Bytes(input))
}
