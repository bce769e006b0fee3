// Package witness assembles the content-addressed record produced by one
// program run: the program identity that was executed, the input it was
// given, its sorted imports and effects, its trace reference, and its
// final value (spec §3.3). The whole thing is itself a value.V, so
// VDIG(Witness) is the run's RunID: two runs that agree on every
// observable detail are, by construction, the same RunID.
//
// The shapes and literal "kind" tags here (fard/witness/v0.1,
// fard/program/v0.1, fard/trace/v0.1) are copied verbatim from spec §3.3
// and verified against the frozen reference vector of spec §6; the
// effect/import sort key is grounded on the Rust prototype's
// witnesscore::effects::effect_key_bytes (UTF8(kind) || 0x00 || ENC(req)).
package witness

import (
	"github.com/fard-lang/fard/internal/digest"
	"github.com/fard-lang/fard/internal/value"
)

const (
	witnessKind = "fard/witness/v0.1"
	programKind = "fard/program/v0.1"
	traceKind   = "fard/trace/v0.1"
)

// ModEntry identifies one module contributing to a program: its dotted
// name and the content id of its canonically printed source.
type ModEntry struct {
	Name   string
	Source string
}

// ProgramIdentity names the entry module of a run and every module that
// contributed to it (today always a single module — spec's Non-goals
// exclude cross-module linkage — but the shape leaves room for it).
type ProgramIdentity struct {
	Entry string
	Mods  []ModEntry
}

// EffectEvent is one observed effect call: the effect's name, the
// request value it was called with, and a content-identity summary of
// the value it was satisfied by (Unit if that value is itself Unit,
// otherwise text(CID) — spec §4.7 — the full satisfying value is never
// re-embedded in the witness).
type EffectEvent struct {
	Kind string
	Req  value.V
	Sat  value.V
}

// ImportUse is one resolved `import(path) as alias` binding (spec §4.7,
// §9 Open Question): shaped identically to EffectEvent since both share
// a sort key and a fact-manifest lookup, with Req always Unit (imports
// carry no call arguments in the surface syntax).
type ImportUse struct {
	Kind string
	Req  value.V
	Sat  value.V
}

// sortKey is K = UTF8(kind) || 0x00 || ENC(req) (spec §4.8), used to
// order a run's effect and import lists independent of evaluation order.
func sortKey(kind string, req value.V) []byte {
	k := make([]byte, 0, len(kind)+1+32)
	k = append(k, kind...)
	k = append(k, 0x00)
	k = append(k, value.Encode(req)...)
	return k
}

func (e EffectEvent) sortKey() []byte { return sortKey(e.Kind, e.Req) }
func (i ImportUse) sortKey() []byte   { return sortKey(i.Kind, i.Req) }

// ReduceSat renders a handler/fact result as the witness's Unit-or-CID
// summary form (spec §4.7: `"sat": Unit | text(CID)`).
func ReduceSat(v value.V) value.V {
	if value.Equal(v, value.Unit()) {
		return value.Unit()
	}
	return value.Text(digest.VDIG(v))
}

// Witness is the full record of one run.
type Witness struct {
	Program  ProgramIdentity
	InputCID string
	Imports  []ImportUse
	Effects  []EffectEvent
	Result   value.V
}

func modEntryValue(m ModEntry) value.V {
	return value.MustRecord(
		value.Field{Name: "name", Value: value.Text(m.Name)},
		value.Field{Name: "source", Value: value.Text(m.Source)},
	)
}

func programIdentityValue(p ProgramIdentity) value.V {
	mods := make([]ModEntry, len(p.Mods))
	copy(mods, p.Mods)
	sortModEntries(mods)
	vals := make([]value.V, len(mods))
	for i, m := range mods {
		vals[i] = modEntryValue(m)
	}
	return value.MustRecord(
		value.Field{Name: "kind", Value: value.Text(programKind)},
		value.Field{Name: "entry", Value: value.Text(p.Entry)},
		value.Field{Name: "mods", Value: value.List(vals...)},
	)
}

func effectEventValue(e EffectEvent) value.V {
	return value.MustRecord(
		value.Field{Name: "kind", Value: value.Text(e.Kind)},
		value.Field{Name: "req", Value: e.Req},
		value.Field{Name: "sat", Value: e.Sat},
	)
}

func importUseValue(i ImportUse) value.V {
	return value.MustRecord(
		value.Field{Name: "kind", Value: value.Text(i.Kind)},
		value.Field{Name: "req", Value: i.Req},
		value.Field{Name: "sat", Value: i.Sat},
	)
}

// Value renders w as a canonical value.V. This run implements no
// separate execution-trace artifact (spec §3.3's Trace is an optional
// external blob reference outside this core's scope), so Trace.cid is
// always Unit.
func (w Witness) Value() value.V {
	effects := make([]EffectEvent, len(w.Effects))
	copy(effects, w.Effects)
	sortEffectEvents(effects)
	effectVals := make([]value.V, len(effects))
	for i, e := range effects {
		effectVals[i] = effectEventValue(e)
	}

	imports := make([]ImportUse, len(w.Imports))
	copy(imports, w.Imports)
	sortImportUses(imports)
	importVals := make([]value.V, len(imports))
	for i, im := range imports {
		importVals[i] = importUseValue(im)
	}

	trace := value.MustRecord(
		value.Field{Name: "kind", Value: value.Text(traceKind)},
		value.Field{Name: "cid", Value: value.Unit()},
	)

	return value.MustRecord(
		value.Field{Name: "kind", Value: value.Text(witnessKind)},
		value.Field{Name: "program", Value: programIdentityValue(w.Program)},
		value.Field{Name: "input", Value: value.Text(w.InputCID)},
		value.Field{Name: "imports", Value: value.List(importVals...)},
		value.Field{Name: "effects", Value: value.List(effectVals...)},
		value.Field{Name: "result", Value: w.Result},
		value.Field{Name: "trace", Value: trace},
	)
}

func sortModEntries(mods []ModEntry) {
	// insertion sort: module lists are small, and this keeps entries with
	// equal names (never legal, but harmless) in original relative order.
	for i := 1; i < len(mods); i++ {
		for j := i; j > 0 && mods[j].Name < mods[j-1].Name; j-- {
			mods[j], mods[j-1] = mods[j-1], mods[j]
		}
	}
}

func sortEffectEvents(events []EffectEvent) {
	for i := 1; i < len(events); i++ {
		for j := i; j > 0 && lessKey(events[j].sortKey(), events[j-1].sortKey()); j-- {
			events[j], events[j-1] = events[j-1], events[j]
		}
	}
}

func sortImportUses(uses []ImportUse) {
	for i := 1; i < len(uses); i++ {
		for j := i; j > 0 && lessKey(uses[j].sortKey(), uses[j-1].sortKey()); j-- {
			uses[j], uses[j-1] = uses[j-1], uses[j]
		}
	}
}

func lessKey(a, b []byte) bool {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return len(a) < len(b)
}
