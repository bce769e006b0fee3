package eval

import (
	"fmt"
	"math/big"

	"github.com/fard-lang/fard/internal/ast"
	"github.com/fard-lang/fard/internal/ferr"
	"github.com/fard-lang/fard/internal/value"
	"github.com/fard-lang/fard/internal/witness"
)

// MaxDepth bounds recursive call depth (spec §4.7); exceeding it is
// ERROR_EVAL_DEPTH rather than a Go stack overflow.
const MaxDepth = 1000

// State carries everything shared across one evaluation of a module: its
// function table, its effect declarations, the facts it may consult, the
// call-depth counter, and the imports/effects logs accumulated so far.
type State struct {
	mod     *ast.Module
	funcs   map[string]*ast.FuncDecl
	effects map[string]bool
	facts   Facts
	depth   int
	imports []witness.ImportUse
	trace   []witness.EffectEvent
}

// Run evaluates entryFunc in mod with args, against facts, and returns its
// result value together with the imports and effects logs it produced.
func Run(mod *ast.Module, entryFunc string, args []value.V, facts Facts) (value.V, []witness.ImportUse, []witness.EffectEvent, error) {
	st := &State{
		mod:     mod,
		funcs:   make(map[string]*ast.FuncDecl, len(mod.Funcs)),
		effects: make(map[string]bool, len(mod.Effects)),
		facts:   facts,
	}
	for i := range mod.Funcs {
		st.funcs[mod.Funcs[i].Name] = &mod.Funcs[i]
	}
	for _, e := range mod.Effects {
		st.effects[e.Name] = true
	}
	argVals := make([]Val, len(args))
	for i, a := range args {
		argVals[i] = scalar(a)
	}
	result, err := st.callFunction(entryFunc, argVals)
	if err != nil {
		return value.V{}, nil, nil, err
	}
	if result.isClosure() {
		return value.V{}, nil, nil, ferr.New(ferr.ErrorEvalType, -1, "program result must be a value, not a function")
	}
	return result.Scalar, st.imports, st.trace, nil
}

// tryReturn is the internal control-flow signal a `?` expression raises
// to unwind straight to the enclosing function call when its "err" field
// is not Unit (spec §4.4/§4.7).
type tryReturn struct{ value value.V }

func (tryReturn) Error() string { return "fard: try-return (internal control flow)" }

func (st *State) callFunction(name string, args []Val) (Val, error) {
	st.depth++
	defer func() { st.depth-- }()
	if st.depth > MaxDepth {
		return Val{}, ferr.New(ferr.ErrorEvalDepth, -1, "maximum call depth exceeded")
	}

	if fd, ok := st.funcs[name]; ok {
		if len(args) != len(fd.Params) {
			return Val{}, ferr.New(ferr.ErrorEvalArity, -1,
				fmt.Sprintf("function %q expects %d argument(s), got %d", name, len(fd.Params), len(args)))
		}
		env := newEnv(nil)
		for i, p := range fd.Params {
			env.bind(p.Name, args[i])
		}
		result, err := st.evalBlock(fd.Body, env)
		if tr, ok := err.(tryReturn); ok {
			return scalar(tr.value), nil
		}
		return result, err
	}

	if b, ok := builtins[name]; ok {
		if len(args) != b.arity {
			return Val{}, ferr.New(ferr.ErrorEvalArity, -1,
				fmt.Sprintf("builtin %q expects %d argument(s), got %d", name, b.arity, len(args)))
		}
		scalars := make([]value.V, len(args))
		for i, a := range args {
			if a.isClosure() {
				return Val{}, ferr.New(ferr.ErrorEvalType, -1, "builtin arguments must be values, not functions")
			}
			scalars[i] = a.Scalar
		}
		out, err := b.fn(scalars)
		if err != nil {
			return Val{}, err
		}
		return scalar(out), nil
	}

	if st.effects[name] {
		return st.invokeEffect(name, args)
	}

	return Val{}, ferr.New(ferr.ErrorEvalUnknown, -1, fmt.Sprintf("unknown function, builtin, or effect %q", name))
}

// invokeEffect builds the request value from args, consults the bundle's
// fact manifest, and logs the resulting EffectEvent. A request for an
// effect that was never declared as a module effect never reaches here
// (callFunction would already have reported ERROR_EVAL_UNKNOWN), so the
// only runtime distinction left is: the fact manifest has no entry for
// this exact request (ERROR_MISSING_FACT) versus no facts at all were
// ever supplied for this effect kind (ERROR_MISSING_EFFECT) — the latter
// takes lower precedence, i.e. is only reported when the former cannot
// apply, since a present-but-incomplete manifest is the common case a
// replay actually needs to diagnose precisely.
func (st *State) invokeEffect(name string, args []Val) (Val, error) {
	reqFields := make([]value.Field, len(args))
	for i, a := range args {
		if a.isClosure() {
			return Val{}, ferr.New(ferr.ErrorEvalType, -1, "effect arguments must be values, not functions")
		}
		reqFields[i] = value.Field{Name: fmt.Sprintf("arg%d", i), Value: a.Scalar}
	}
	req, err := value.Record(reqFields...)
	if err != nil {
		return Val{}, err
	}
	sat, ok := st.facts.Lookup(name, req)
	if !ok {
		if st.factsHasKind(name) {
			return Val{}, ferr.New(ferr.ErrorMissingFact, -1, fmt.Sprintf("no fact satisfies effect %q for this request", name))
		}
		return Val{}, ferr.New(ferr.ErrorMissingEffect, -1, fmt.Sprintf("no facts supplied for effect %q", name))
	}
	st.trace = append(st.trace, witness.EffectEvent{Kind: name, Req: req, Sat: witness.ReduceSat(sat)})
	return scalar(sat), nil
}

func (st *State) factsHasKind(kind string) bool {
	for _, f := range st.facts {
		if f.Kind == kind {
			return true
		}
	}
	return false
}

// resolveImport looks up the fact manifest for an `import(path) as alias`
// statement (spec §4.7, §9 Open Question): the import path plays the role
// of an effect kind with an always-Unit request. An import with no
// matching fact is always ERROR_MISSING_FACT, whether or not the manifest
// has other facts of that kind.
func (st *State) resolveImport(path string) (value.V, error) {
	req := value.Unit()
	sat, ok := st.facts.Lookup(path, req)
	if !ok {
		return value.V{}, ferr.New(ferr.ErrorMissingFact, -1, fmt.Sprintf("no fact satisfies import %q", path))
	}
	st.imports = append(st.imports, witness.ImportUse{Kind: path, Req: req, Sat: witness.ReduceSat(sat)})
	return sat, nil
}

func (st *State) evalBlock(b ast.Block, env *Env) (Val, error) {
	child := newEnv(env)
	for _, s := range b.Stmts {
		switch stmt := s.(type) {
		case ast.LetStmt:
			v, err := st.evalExpr(stmt.Expr, child)
			if err != nil {
				return Val{}, err
			}
			child.bind(stmt.Name, v)
		case ast.ImportStmt:
			v, err := st.resolveImport(stmt.Path)
			if err != nil {
				return Val{}, err
			}
			child.bind(stmt.Alias, scalar(v))
		}
	}
	if b.Tail == nil {
		return scalar(value.Unit()), nil
	}
	return st.evalExpr(b.Tail, child)
}

func (st *State) evalExpr(e ast.Expr, env *Env) (Val, error) {
	switch n := e.(type) {
	case ast.UnitLit:
		return scalar(value.Unit()), nil
	case ast.BoolLit:
		return scalar(value.Bool(n.Value)), nil
	case ast.IntLit:
		z, ok := new(big.Int).SetString(n.Raw, 10)
		if !ok || (len(n.Raw) > 1 && n.Raw[0] == '0') {
			return Val{}, ferr.New(ferr.ErrorEvalType, -1, fmt.Sprintf("malformed integer literal %q", n.Raw))
		}
		return scalar(value.Int(z)), nil
	case ast.TextLit:
		return scalar(value.Text(n.Value)), nil
	case ast.BytesLit:
		b, err := decodeHex(n.Hex)
		if err != nil {
			return Val{}, err
		}
		return scalar(value.Bytes(b)), nil
	case ast.ListLit:
		items := make([]value.V, len(n.Elems))
		for i, el := range n.Elems {
			v, err := st.evalExpr(el, env)
			if err != nil {
				return Val{}, err
			}
			if v.isClosure() {
				return Val{}, ferr.New(ferr.ErrorEvalType, -1, "list elements must be values, not functions")
			}
			items[i] = v.Scalar
		}
		return scalar(value.List(items...)), nil
	case ast.RecordLit:
		fields := make([]value.Field, len(n.Fields))
		for i, f := range n.Fields {
			v, err := st.evalExpr(f.Expr, env)
			if err != nil {
				return Val{}, err
			}
			if v.isClosure() {
				return Val{}, ferr.New(ferr.ErrorEvalType, -1, "record fields must be values, not functions")
			}
			fields[i] = value.Field{Name: f.Name, Value: v.Scalar}
		}
		rec, err := value.Record(fields...)
		if err != nil {
			return Val{}, err
		}
		return scalar(rec), nil
	case ast.Ident:
		if v, ok := env.lookup(n.Name); ok {
			return v, nil
		}
		return Val{}, ferr.New(ferr.ErrorEvalUnknown, -1, fmt.Sprintf("unresolved identifier %q", n.Name))
	case ast.FieldAccess:
		recv, err := st.evalExpr(n.Recv, env)
		if err != nil {
			return Val{}, err
		}
		if recv.isClosure() {
			return Val{}, ferr.New(ferr.ErrorEvalType, -1, "field access on a function value")
		}
		field, ok := recv.Scalar.Get(n.Field)
		if !ok {
			return Val{}, ferr.New(ferr.ErrorEvalUnknown, -1, fmt.Sprintf("no field %q", n.Field))
		}
		return scalar(field), nil
	case ast.Call:
		return st.evalCall(n, env)
	case ast.If:
		cond, err := st.evalExpr(n.Cond, env)
		if err != nil {
			return Val{}, err
		}
		if cond.isClosure() {
			return Val{}, ferr.New(ferr.ErrorEvalType, -1, "if condition must be Bool")
		}
		b, ok := cond.Scalar.BoolOf()
		if !ok {
			return Val{}, ferr.New(ferr.ErrorEvalType, -1, "if condition must be Bool")
		}
		if b {
			return st.evalExpr(n.Then, env)
		}
		return st.evalExpr(n.Else, env)
	case ast.Match:
		return st.evalMatch(n, env)
	case ast.Lambda:
		return Val{Closure: &Closure{Params: n.Params, Body: n.Body, Env: env}}, nil
	case ast.BlockExpr:
		return st.evalBlock(n.Block, env)
	case ast.Try:
		inner, err := st.evalExpr(n.Inner, env)
		if err != nil {
			return Val{}, err
		}
		if inner.isClosure() {
			return Val{}, ferr.New(ferr.ErrorEvalType, -1, "'?' operand must be a value")
		}
		okv, hasOk := inner.Scalar.Get("ok")
		errv, hasErr := inner.Scalar.Get("err")
		if !hasOk || !hasErr {
			return Val{}, ferr.New(ferr.ErrorEvalType, -1, "'?' operand must be record([(\"ok\",V),(\"err\",V)])")
		}
		if !value.Equal(errv, value.Unit()) {
			return Val{}, tryReturn{value: inner.Scalar}
		}
		return scalar(okv), nil
	default:
		return Val{}, ferr.New(ferr.ErrorEvalUnknown, -1, "unknown expression node")
	}
}

// evalCall evaluates a call's arguments left to right (spec §4.7: eager,
// left-to-right evaluation) and dispatches to a bound closure, a
// module-level function, a builtin, or an effect.
func (st *State) evalCall(n ast.Call, env *Env) (Val, error) {
	args := make([]Val, len(n.Args))
	for i, a := range n.Args {
		v, err := st.evalExpr(a, env)
		if err != nil {
			return Val{}, err
		}
		args[i] = v
	}
	if v, ok := env.lookup(n.Func.Name); ok && v.isClosure() {
		return st.applyClosure(v.Closure, args)
	}
	return st.callFunction(n.Func.Name, args)
}

func (st *State) applyClosure(c *Closure, args []Val) (Val, error) {
	st.depth++
	defer func() { st.depth-- }()
	if st.depth > MaxDepth {
		return Val{}, ferr.New(ferr.ErrorEvalDepth, -1, "maximum call depth exceeded")
	}
	if len(args) != len(c.Params) {
		return Val{}, ferr.New(ferr.ErrorEvalArity, -1,
			fmt.Sprintf("lambda expects %d argument(s), got %d", len(c.Params), len(args)))
	}
	env := newEnv(c.Env)
	for i, p := range c.Params {
		env.bind(p.Name, args[i])
	}
	return st.evalExpr(c.Body, env)
}

func (st *State) evalMatch(n ast.Match, env *Env) (Val, error) {
	scrutinee, err := st.evalExpr(n.Scrutinee, env)
	if err != nil {
		return Val{}, err
	}
	if scrutinee.isClosure() {
		return Val{}, ferr.New(ferr.ErrorEvalType, -1, "match scrutinee must be a value")
	}
	for _, arm := range n.Arms {
		child := newEnv(env)
		ok, err := st.matchPattern(arm.Pattern, scrutinee.Scalar, child)
		if err != nil {
			return Val{}, err
		}
		if ok {
			return st.evalExpr(arm.Body, child)
		}
	}
	return Val{}, ferr.New(ferr.ErrorEvalMatch, -1, "no match arm matched the scrutinee")
}

func (st *State) matchPattern(pat ast.Pattern, v value.V, env *Env) (bool, error) {
	switch p := pat.(type) {
	case ast.WildcardPattern:
		return true, nil
	case ast.IdentPattern:
		env.bind(p.Name, scalar(v))
		return true, nil
	case ast.LiteralPattern:
		lit, err := st.evalExpr(p.Value, env)
		if err != nil {
			return false, err
		}
		if lit.isClosure() {
			return false, ferr.New(ferr.ErrorEvalType, -1, "pattern literal must be a value")
		}
		return value.Equal(lit.Scalar, v), nil
	case ast.ShapePattern:
		if v.Kind != value.KindRecord {
			return false, nil
		}
		for _, f := range p.Fields {
			fv, ok := v.Get(f.Name)
			if !ok {
				return false, nil
			}
			matched, err := st.matchPattern(f.Pattern, fv, env)
			if err != nil {
				return false, err
			}
			if !matched {
				return false, nil
			}
		}
		return true, nil
	default:
		return false, ferr.New(ferr.ErrorEvalUnknown, -1, "unknown pattern node")
	}
}

func decodeHex(hexDigits string) ([]byte, error) {
	if len(hexDigits)%2 != 0 {
		return nil, ferr.New(ferr.ErrorEvalType, -1, "bytes literal must have an even number of hex digits")
	}
	out := make([]byte, len(hexDigits)/2)
	for i := 0; i < len(out); i++ {
		hi, ok1 := hexNibble(hexDigits[2*i])
		lo, ok2 := hexNibble(hexDigits[2*i+1])
		if !ok1 || !ok2 {
			return nil, ferr.New(ferr.ErrorEvalType, -1, "invalid hex digit in bytes literal")
		}
		out[i] = hi<<4 | lo
	}
	return out, nil
}

func hexNibble(c byte) (byte, bool) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', true
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, true
	default:
		return 0, false
	}
}
