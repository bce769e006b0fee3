// Package ast defines the syntax tree for the FARD source language
// (spec §3.2): modules, effect declarations, function declarations, and
// the small expression language they contain. The tree produced by
// internal/parser is already desugared — binary/unary operators, method
// calls, and pipelines are rewritten to Call nodes during parsing, per
// spec §4.4 — so downstream packages (internal/check, internal/printer,
// internal/eval) only ever see the forms defined here.
package ast

// Module is a single compilation unit: a dotted name, effect
// declarations, and function declarations in source order.
type Module struct {
	Name    string
	Effects []EffectDecl
	Funcs   []FuncDecl
}

// EffectDecl declares the name, parameter list, and result type of one
// effect a module may invoke.
type EffectDecl struct {
	Name   string
	Params []Param
	Result TypeRef
}

// Param is a function or effect parameter: a name and a declared type.
type Param struct {
	Name string
	Type TypeRef
}

// TypeRef is a declared type name. FARD's surface language does not check
// types structurally (spec §4.5: unknown field access and type mismatches
// are deferred to runtime); TypeRef exists so declarations parse. The
// printer re-emits parameter types as written and omits result types.
type TypeRef struct {
	Name string
}

// FuncDecl is one function declaration: visibility, name, parameters,
// declared result type, the effects it may invoke, and its body.
type FuncDecl struct {
	Pub    bool
	Name   string
	Params []Param
	Result TypeRef
	Uses   []string
	Body   Block
}

// Block is an ordered sequence of statements (let-bindings and import
// bindings, interleaved in source order) followed by an optional tail
// expression. A nil Tail means the block's value is Unit.
type Block struct {
	Stmts []Stmt
	Tail  Expr
}

// Stmt is one block statement: LetStmt or ImportStmt.
type Stmt interface {
	stmtNode()
}

// LetStmt binds name to the value of Expr for the remainder of the
// enclosing block.
type LetStmt struct {
	Name string
	Expr Expr
}

// ImportStmt is `import("std/x") as x;` (spec §4.7): it binds Alias to
// whatever fact the run's manifest supplies for the import Path. A
// reference to a missing import fact is ERROR_MISSING_FACT.
type ImportStmt struct {
	Path  string
	Alias string
}

func (LetStmt) stmtNode()    {}
func (ImportStmt) stmtNode() {}

// Expr is any expression node. The concrete types below are the closed
// set the parser produces.
type Expr interface {
	exprNode()
}

// UnitLit is the literal `unit`.
type UnitLit struct{}

// BoolLit is a literal `true` or `false`.
type BoolLit struct{ Value bool }

// IntLit carries an integer literal exactly as it appeared in source,
// kept as a string through canonicalization (spec §4.3) so the printer
// can re-emit it byte-for-byte and the evaluator can feed it straight to
// the canonical Int grammar.
type IntLit struct{ Raw string }

// TextLit is a string literal, already escape-decoded.
type TextLit struct{ Value string }

// BytesLit is a `hex:...` bytes literal; Hex holds the literal's hex
// digits (lowercase, even length, validated by the lexer).
type BytesLit struct{ Hex string }

// ListLit is a `[e1, e2, ...]` list literal.
type ListLit struct{ Elems []Expr }

// RecordFieldExpr is one `name: expr` entry in a record literal, in
// source order; internal/printer and internal/eval are responsible for
// sorting by field name where the spec requires it.
type RecordFieldExpr struct {
	Name string
	Expr Expr
}

// RecordLit is a `{f1: e1, f2: e2, ...}` record literal.
type RecordLit struct{ Fields []RecordFieldExpr }

// Ident is a reference to a local binding, a parameter, or a
// module-level function.
type Ident struct{ Name string }

// FieldAccess is `recv.field`.
type FieldAccess struct {
	Recv  Expr
	Field string
}

// Call is a function call, free (`f(args)`) or the result of desugaring a
// method call, binary operator, unary minus, or pipeline (spec §4.4).
// Func is always an Ident naming a local binding that holds a closure, a
// module-level function, an effect, or a builtin.
type Call struct {
	Func Ident
	Args []Expr
}

// If is `if cond { then } else { else }`.
type If struct {
	Cond Expr
	Then Expr
	Else Expr
}

// MatchArm is one `pattern => expr` arm of a match expression.
type MatchArm struct {
	Pattern Pattern
	Body    Expr
}

// Match is `match scrutinee { arm1; arm2; ... }`, tried top-down.
type Match struct {
	Scrutinee Expr
	Arms      []MatchArm
}

// Lambda is an inline function literal; its body closes over the
// environment active where the lambda expression is evaluated (spec
// §4.7: evaluator values are V augmented with Closure(params, body,
// captured_env)).
type Lambda struct {
	Params []Param
	Body   Expr
}

// BlockExpr is a block used in expression position.
type BlockExpr struct{ Block Block }

// Try is the postfix `expr?` short-circuit form (spec §4.4). Scrutinee
// must evaluate to a two-field record shaped record([("ok",V),("err",V)]);
// if "err" is not Unit the enclosing function returns that record
// immediately, otherwise the Try expression's value is the "ok" field.
type Try struct{ Inner Expr }

func (UnitLit) exprNode()     {}
func (BoolLit) exprNode()     {}
func (IntLit) exprNode()      {}
func (TextLit) exprNode()     {}
func (BytesLit) exprNode()    {}
func (ListLit) exprNode()     {}
func (RecordLit) exprNode()   {}
func (Ident) exprNode()       {}
func (FieldAccess) exprNode() {}
func (Call) exprNode()        {}
func (If) exprNode()          {}
func (Match) exprNode()       {}
func (Lambda) exprNode()      {}
func (BlockExpr) exprNode()   {}
func (Try) exprNode()         {}

// Pattern is a match-arm pattern: literal, identifier, wildcard, or
// record shape (spec §4.7).
type Pattern interface {
	patternNode()
}

// LiteralPattern matches when the scrutinee is Encode-equal to Value.
type LiteralPattern struct{ Value Expr }

// IdentPattern always matches and binds Name to the scrutinee.
type IdentPattern struct{ Name string }

// WildcardPattern always matches and binds nothing.
type WildcardPattern struct{}

// ShapeField is one `name: pattern` entry of a ShapePattern.
type ShapeField struct {
	Name    string
	Pattern Pattern
}

// ShapePattern matches a Record containing at least the named fields,
// each matching its sub-pattern; remaining fields are ignored.
type ShapePattern struct{ Fields []ShapeField }

func (LiteralPattern) patternNode()  {}
func (IdentPattern) patternNode()    {}
func (WildcardPattern) patternNode() {}
func (ShapePattern) patternNode()    {}
