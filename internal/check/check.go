// Package check implements the static effect-containment pass of spec
// §4.5: a function may only invoke an effect named in its own `uses`
// clause. Everything else the spec defers to runtime — unresolved
// identifiers, unknown record fields, arity and type mismatches — is
// deliberately left unchecked here and surfaces later as an
// internal/eval error instead.
package check

import (
	"fmt"

	"github.com/fard-lang/fard/internal/ast"
	"github.com/fard-lang/fard/internal/ferr"
)

// Check walks every function body in mod and reports the first effect
// invocation not covered by the enclosing function's `uses` clause.
// Lambdas inherit the effect permissions of the function they are
// written inside, since they are not independently declared and cannot
// carry their own `uses` clause.
func Check(mod *ast.Module) error {
	effectNames := make(map[string]bool, len(mod.Effects))
	for _, e := range mod.Effects {
		effectNames[e.Name] = true
	}
	for _, f := range mod.Funcs {
		uses := make(map[string]bool, len(f.Uses))
		for _, u := range f.Uses {
			uses[u] = true
		}
		if err := checkBlock(f.Body, effectNames, uses, f.Name); err != nil {
			return err
		}
	}
	return nil
}

func checkBlock(b ast.Block, effects, uses map[string]bool, fn string) error {
	for _, s := range b.Stmts {
		if l, ok := s.(ast.LetStmt); ok {
			if err := checkExpr(l.Expr, effects, uses, fn); err != nil {
				return err
			}
		}
		// ImportStmt has no sub-expression to check; its fact resolution
		// is an evaluator-time concern (ERROR_MISSING_FACT/ERROR_MISSING_EFFECT).
	}
	if b.Tail != nil {
		return checkExpr(b.Tail, effects, uses, fn)
	}
	return nil
}

func checkExpr(e ast.Expr, effects, uses map[string]bool, fn string) error {
	switch n := e.(type) {
	case ast.Call:
		if effects[n.Func.Name] && !uses[n.Func.Name] {
			return ferr.New(ferr.ErrorEffectNotAllowed, -1,
				fmt.Sprintf("function %q invokes effect %q without a matching uses clause", fn, n.Func.Name))
		}
		for _, a := range n.Args {
			if err := checkExpr(a, effects, uses, fn); err != nil {
				return err
			}
		}
	case ast.FieldAccess:
		return checkExpr(n.Recv, effects, uses, fn)
	case ast.If:
		if err := checkExpr(n.Cond, effects, uses, fn); err != nil {
			return err
		}
		if err := checkExpr(n.Then, effects, uses, fn); err != nil {
			return err
		}
		return checkExpr(n.Else, effects, uses, fn)
	case ast.Match:
		if err := checkExpr(n.Scrutinee, effects, uses, fn); err != nil {
			return err
		}
		for _, arm := range n.Arms {
			if err := checkPattern(arm.Pattern, effects, uses, fn); err != nil {
				return err
			}
			if err := checkExpr(arm.Body, effects, uses, fn); err != nil {
				return err
			}
		}
	case ast.Lambda:
		return checkExpr(n.Body, effects, uses, fn)
	case ast.BlockExpr:
		return checkBlock(n.Block, effects, uses, fn)
	case ast.Try:
		return checkExpr(n.Inner, effects, uses, fn)
	case ast.ListLit:
		for _, el := range n.Elems {
			if err := checkExpr(el, effects, uses, fn); err != nil {
				return err
			}
		}
	case ast.RecordLit:
		for _, f := range n.Fields {
			if err := checkExpr(f.Expr, effects, uses, fn); err != nil {
				return err
			}
		}
	}
	return nil
}

func checkPattern(pat ast.Pattern, effects, uses map[string]bool, fn string) error {
	switch p := pat.(type) {
	case ast.LiteralPattern:
		return checkExpr(p.Value, effects, uses, fn)
	case ast.ShapePattern:
		for _, f := range p.Fields {
			if err := checkPattern(f.Pattern, effects, uses, fn); err != nil {
				return err
			}
		}
	}
	return nil
}
