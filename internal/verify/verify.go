// Package verify implements a cross-run determinism check: execute the
// same bundle N times and confirm every run produces the identical
// RunID and byte-identical ENC(Witness).
//
// This is the one property the teacher's offline/replay.ValidateEvidenceBundle
// exists to police across a whole node/distro/kernel matrix ("canonical
// digest drift at node %s replay %d"); FARD has no release-gate matrix
// (spec's Non-goals exclude that orchestration layer — see SPEC_FULL.md
// §10.6), so this package keeps only the comparison at its core: rerun,
// compare, report the first run whose digest disagrees with the first.
package verify

import (
	"fmt"

	"github.com/fard-lang/fard/internal/ast"
	"github.com/fard-lang/fard/internal/digest"
	"github.com/fard-lang/fard/internal/eval"
	"github.com/fard-lang/fard/internal/ferr"
	"github.com/fard-lang/fard/internal/value"
	"github.com/fard-lang/fard/internal/witness"
)

// CrossRunReport is the outcome of replaying one bundle N times.
type CrossRunReport struct {
	Runs       int
	RunID      string
	WitnessEnc []byte
}

// CrossRun evaluates mod's entry function n times against the same facts
// and input, and verifies every run's witness digest agrees with the
// first. n must be at least 1.
func CrossRun(mod *ast.Module, program witness.ProgramIdentity, entryFunc, inputCID string, args []value.V, facts eval.Facts, n int) (*CrossRunReport, error) {
	if n < 1 {
		return nil, ferr.New(ferr.InternalError, -1, "CrossRun requires at least one run")
	}
	var baseline *CrossRunReport
	for i := 0; i < n; i++ {
		result, imports, effects, err := eval.Run(mod, entryFunc, args, facts)
		if err != nil {
			return nil, err
		}
		w := witness.Witness{Program: program, InputCID: inputCID, Imports: imports, Effects: effects, Result: result}
		wv := w.Value()
		enc := value.Encode(wv)
		runID := digest.VDIG(wv)
		if baseline == nil {
			baseline = &CrossRunReport{Runs: 1, RunID: runID, WitnessEnc: enc}
			continue
		}
		baseline.Runs++
		if runID != baseline.RunID {
			return nil, ferr.New(ferr.InternalError, -1,
				fmt.Sprintf("run %d produced RunID %s, want %s (cross-run digest drift)", i+1, runID, baseline.RunID))
		}
		if string(enc) != string(baseline.WitnessEnc) {
			return nil, ferr.New(ferr.InternalError, -1,
				fmt.Sprintf("run %d produced a different witness encoding despite matching RunID", i+1))
		}
	}
	return baseline, nil
}
