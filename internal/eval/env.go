// Package eval is the depth-bounded tree-walking evaluator for FARD
// programs (spec §4.7): it executes an already checked internal/ast.Module
// against a set of import facts, accumulating an effect trace as it goes.
package eval

import (
	"github.com/fard-lang/fard/internal/ast"
	"github.com/fard-lang/fard/internal/value"
)

// Val is a runtime value: either a plain value.V, or a closure capturing
// a lambda's parameters, body, and defining environment. Closures never
// appear inside a value.V — they exist only transiently during
// evaluation and must be fully applied (to a function call) before the
// program can produce its result or its witness trace.
type Val struct {
	Closure *Closure
	Scalar  value.V
}

// Closure is a lambda value: its parameter list, its body expression, and
// the environment active where the lambda expression was evaluated.
type Closure struct {
	Params []ast.Param
	Body   ast.Expr
	Env    *Env
}

func scalar(v value.V) Val { return Val{Scalar: v} }

func (v Val) isClosure() bool { return v.Closure != nil }

// Env is a linked lexical scope: local bindings plus a pointer to the
// enclosing scope.
type Env struct {
	vars   map[string]Val
	parent *Env
}

func newEnv(parent *Env) *Env {
	return &Env{vars: make(map[string]Val), parent: parent}
}

func (e *Env) lookup(name string) (Val, bool) {
	for cur := e; cur != nil; cur = cur.parent {
		if v, ok := cur.vars[name]; ok {
			return v, true
		}
	}
	return Val{}, false
}

func (e *Env) bind(name string, v Val) {
	e.vars[name] = v
}
