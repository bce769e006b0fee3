// Package parser builds an internal/ast tree from a internal/lexer token
// stream (spec §4.4). It is a recursive-descent parser with a
// precedence-climbing expression core; binary operators, unary minus,
// method calls, pipelines, and the postfix `?` form are all desugared to
// plain ast.Call / ast.Try nodes as they are parsed, so nothing downstream
// of this package ever sees operator syntax again.
package parser

import (
	"fmt"

	"github.com/fard-lang/fard/internal/ast"
	"github.com/fard-lang/fard/internal/ferr"
	"github.com/fard-lang/fard/internal/lexer"
)

// Parse tokenizes and parses src into a Module.
func Parse(src []byte) (*ast.Module, error) {
	toks, err := lexer.Lex(src)
	if err != nil {
		return nil, err
	}
	p := &parser{toks: toks}
	return p.parseModule()
}

type parser struct {
	toks []lexer.Token
	pos  int
}

func (p *parser) cur() lexer.Token  { return p.toks[p.pos] }
func (p *parser) offset() int       { return p.cur().Offset }
func (p *parser) at(k lexer.Kind) bool {
	return p.cur().Kind == k
}
func (p *parser) atKeyword(w string) bool {
	return p.cur().IsKeyword(w)
}
func (p *parser) advance() lexer.Token {
	t := p.cur()
	if p.pos < len(p.toks)-1 {
		p.pos++
	}
	return t
}

func (p *parser) errf(format string, args ...any) error {
	return ferr.New(ferr.ErrorParse, p.offset(), fmt.Sprintf(format, args...))
}

func (p *parser) expect(k lexer.Kind, what string) (lexer.Token, error) {
	if !p.at(k) {
		return lexer.Token{}, p.errf("expected %s", what)
	}
	return p.advance(), nil
}

func (p *parser) expectKeyword(w string) error {
	if !p.atKeyword(w) {
		return p.errf("expected keyword %q", w)
	}
	p.advance()
	return nil
}

func (p *parser) expectIdent() (string, error) {
	if !p.at(lexer.Ident) {
		return "", p.errf("expected identifier")
	}
	return p.advance().Text, nil
}

// parseModule parses an optional `module a.b.c` header followed directly
// by effect and function declarations (spec §3.2/§4.6: the module header
// carries no enclosing braces — the declaration sequence runs to end of
// file). The header itself is source sugar with no effect downstream of
// parsing (internal/printer's canonical form never re-emits it — see its
// package doc), so a source file may omit it entirely; a module with no
// header defaults to the name "main".
func (p *parser) parseModule() (*ast.Module, error) {
	name := "main"
	if p.atKeyword("module") {
		p.advance()
		n, err := p.parseDottedName()
		if err != nil {
			return nil, err
		}
		name = n
	}
	mod := &ast.Module{Name: name}
	for !p.at(lexer.EOF) {
		if p.atKeyword("effect") {
			ed, err := p.parseEffectDecl()
			if err != nil {
				return nil, err
			}
			mod.Effects = append(mod.Effects, *ed)
			continue
		}
		fd, err := p.parseFuncDecl()
		if err != nil {
			return nil, err
		}
		mod.Funcs = append(mod.Funcs, *fd)
	}
	return mod, nil
}

func (p *parser) parseDottedName() (string, error) {
	first, err := p.expectIdent()
	if err != nil {
		return "", err
	}
	name := first
	for p.at(lexer.Dot) {
		p.advance()
		part, err := p.expectIdent()
		if err != nil {
			return "", err
		}
		name += "." + part
	}
	return name, nil
}

func (p *parser) parseEffectDecl() (*ast.EffectDecl, error) {
	p.advance() // 'effect'
	name, err := p.expectIdent()
	if err != nil {
		return nil, err
	}
	params, err := p.parseParamList()
	if err != nil {
		return nil, err
	}
	result, err := p.parseResultType()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.Semicolon, "';'"); err != nil {
		return nil, err
	}
	return &ast.EffectDecl{Name: name, Params: params, Result: result}, nil
}

func (p *parser) parseFuncDecl() (*ast.FuncDecl, error) {
	pub := false
	if p.atKeyword("pub") {
		pub = true
		p.advance()
	}
	if err := p.expectKeyword("fn"); err != nil {
		return nil, err
	}
	name, err := p.expectIdent()
	if err != nil {
		return nil, err
	}
	params, err := p.parseParamList()
	if err != nil {
		return nil, err
	}
	result, err := p.parseResultType()
	if err != nil {
		return nil, err
	}
	var uses []string
	if p.atKeyword("uses") {
		p.advance()
		if _, err := p.expect(lexer.LBracket, "'['"); err != nil {
			return nil, err
		}
		for !p.at(lexer.RBracket) {
			if len(uses) > 0 {
				if _, err := p.expect(lexer.Comma, "','"); err != nil {
					return nil, err
				}
			}
			u, err := p.expectIdent()
			if err != nil {
				return nil, err
			}
			uses = append(uses, u)
		}
		if _, err := p.expect(lexer.RBracket, "']'"); err != nil {
			return nil, err
		}
	}
	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	return &ast.FuncDecl{Pub: pub, Name: name, Params: params, Result: result, Uses: uses, Body: *body}, nil
}

func (p *parser) parseParamList() ([]ast.Param, error) {
	if _, err := p.expect(lexer.LParen, "'('"); err != nil {
		return nil, err
	}
	var params []ast.Param
	for !p.at(lexer.RParen) {
		if len(params) > 0 {
			if _, err := p.expect(lexer.Comma, "','"); err != nil {
				return nil, err
			}
		}
		pname, err := p.expectIdent()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(lexer.Colon, "':'"); err != nil {
			return nil, err
		}
		tname, err := p.expectIdent()
		if err != nil {
			return nil, err
		}
		params = append(params, ast.Param{Name: pname, Type: ast.TypeRef{Name: tname}})
	}
	if _, err := p.expect(lexer.RParen, "')'"); err != nil {
		return nil, err
	}
	return params, nil
}

// parseResultType parses an optional `: Type` annotation on a function or
// effect declaration. The annotation is never structurally checked (spec
// §4.5) and never re-emitted by the canonical printer, so it may be
// omitted; a declaration with no annotation defaults to TypeRef{"Value"}.
func (p *parser) parseResultType() (ast.TypeRef, error) {
	if !p.at(lexer.Colon) {
		return ast.TypeRef{Name: "Value"}, nil
	}
	p.advance()
	name, err := p.expectIdent()
	if err != nil {
		return ast.TypeRef{}, err
	}
	return ast.TypeRef{Name: name}, nil
}

// parseBlock parses `{ let a = e; import("p") as b; tailExpr }`. The ';'
// after a let binding may be omitted (`{ let a = e tailExpr }`).
func (p *parser) parseBlock() (*ast.Block, error) {
	if _, err := p.expect(lexer.LBrace, "'{'"); err != nil {
		return nil, err
	}
	block := &ast.Block{}
	for {
		if p.atKeyword("let") {
			p.advance()
			name, err := p.expectIdent()
			if err != nil {
				return nil, err
			}
			if _, err := p.expect(lexer.Assign, "'='"); err != nil {
				return nil, err
			}
			e, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			if p.at(lexer.Semicolon) {
				p.advance()
			}
			block.Stmts = append(block.Stmts, ast.LetStmt{Name: name, Expr: e})
			continue
		}
		if p.atKeyword("import") {
			p.advance()
			if _, err := p.expect(lexer.LParen, "'('"); err != nil {
				return nil, err
			}
			pathTok, err := p.expect(lexer.Text, "import path string")
			if err != nil {
				return nil, err
			}
			if _, err := p.expect(lexer.RParen, "')'"); err != nil {
				return nil, err
			}
			if err := p.expectKeyword("as"); err != nil {
				return nil, err
			}
			alias, err := p.expectIdent()
			if err != nil {
				return nil, err
			}
			if _, err := p.expect(lexer.Semicolon, "';'"); err != nil {
				return nil, err
			}
			block.Stmts = append(block.Stmts, ast.ImportStmt{Path: pathTok.Text, Alias: alias})
			continue
		}
		if p.at(lexer.RBrace) {
			p.advance()
			return block, nil
		}
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		block.Tail = e
		if _, err := p.expect(lexer.RBrace, "'}'"); err != nil {
			return nil, err
		}
		return block, nil
	}
}

// Expression grammar, lowest to highest precedence:
//
//	pipeline   := orExpr ( '|>' orExpr )*
//	orExpr     := andExpr ( '||' andExpr )*
//	andExpr    := eqExpr ( '&&' eqExpr )*
//	eqExpr     := relExpr ( ('=='|'!=') relExpr )*
//	relExpr    := addExpr ( ('<'|'<='|'>'|'>=') addExpr )*
//	addExpr    := mulExpr ( ('+'|'-'|'++') mulExpr )*
//	mulExpr    := unary ( ('*'|'/'|'%') unary )*
//	unary      := ('-'|'!') unary | postfix
//	postfix    := primary ( '.' ident ('(' args ')')? | '(' args ')' | '?' )*
func (p *parser) parseExpr() (ast.Expr, error) {
	return p.parsePipeline()
}

func (p *parser) parsePipeline() (ast.Expr, error) {
	left, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	for p.at(lexer.PipeArrow) {
		p.advance()
		rhs, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		left, err = pipeInto(left, rhs)
		if err != nil {
			return nil, err
		}
	}
	return left, nil
}

// pipeInto rewrites `left |> rhs` to a call on rhs with left prepended to
// its argument list: rhs must be an Ident (bare function reference) or a
// Call (whose arguments left is prepended to).
func pipeInto(left, rhs ast.Expr) (ast.Expr, error) {
	switch r := rhs.(type) {
	case ast.Ident:
		return ast.Call{Func: r, Args: []ast.Expr{left}}, nil
	case ast.Call:
		return ast.Call{Func: r.Func, Args: append([]ast.Expr{left}, r.Args...)}, nil
	default:
		return nil, ferr.New(ferr.ErrorParse, -1, "pipeline target must be a function name or call")
	}
}

func (p *parser) parseOr() (ast.Expr, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.at(lexer.OrOr) {
		p.advance()
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = ast.Call{Func: ast.Ident{Name: "bool.or"}, Args: []ast.Expr{left, right}}
	}
	return left, nil
}

func (p *parser) parseAnd() (ast.Expr, error) {
	left, err := p.parseEquality()
	if err != nil {
		return nil, err
	}
	for p.at(lexer.AndAnd) {
		p.advance()
		right, err := p.parseEquality()
		if err != nil {
			return nil, err
		}
		left = ast.Call{Func: ast.Ident{Name: "bool.and"}, Args: []ast.Expr{left, right}}
	}
	return left, nil
}

func (p *parser) parseEquality() (ast.Expr, error) {
	left, err := p.parseRelational()
	if err != nil {
		return nil, err
	}
	for p.at(lexer.EqEq) || p.at(lexer.NotEq) {
		isNe := p.at(lexer.NotEq)
		p.advance()
		right, err := p.parseRelational()
		if err != nil {
			return nil, err
		}
		eq := ast.Call{Func: ast.Ident{Name: "cmp.eq"}, Args: []ast.Expr{left, right}}
		if isNe {
			left = ast.Call{Func: ast.Ident{Name: "bool.not"}, Args: []ast.Expr{eq}}
		} else {
			left = eq
		}
	}
	return left, nil
}

var relBuiltin = map[lexer.Kind]string{
	lexer.Lt: "cmp.lt", lexer.Le: "cmp.le", lexer.Gt: "cmp.gt", lexer.Ge: "cmp.ge",
}

func (p *parser) parseRelational() (ast.Expr, error) {
	left, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}
	for {
		name, ok := relBuiltin[p.cur().Kind]
		if !ok {
			return left, nil
		}
		p.advance()
		right, err := p.parseAdditive()
		if err != nil {
			return nil, err
		}
		left = ast.Call{Func: ast.Ident{Name: name}, Args: []ast.Expr{left, right}}
	}
}

func (p *parser) parseAdditive() (ast.Expr, error) {
	left, err := p.parseMultiplicative()
	if err != nil {
		return nil, err
	}
	for p.at(lexer.Plus) || p.at(lexer.Minus) || p.at(lexer.PlusPlus) {
		var name string
		switch {
		case p.at(lexer.Minus):
			name = "sub"
		case p.at(lexer.PlusPlus):
			name = "text_concat"
		default:
			name = "add"
		}
		p.advance()
		right, err := p.parseMultiplicative()
		if err != nil {
			return nil, err
		}
		left = ast.Call{Func: ast.Ident{Name: name}, Args: []ast.Expr{left, right}}
	}
	return left, nil
}

var mulBuiltin = map[lexer.Kind]string{
	lexer.Star: "mul", lexer.Slash: "div", lexer.Percent: "rem",
}

func (p *parser) parseMultiplicative() (ast.Expr, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for {
		name, ok := mulBuiltin[p.cur().Kind]
		if !ok {
			return left, nil
		}
		p.advance()
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = ast.Call{Func: ast.Ident{Name: name}, Args: []ast.Expr{left, right}}
	}
}

func (p *parser) parseUnary() (ast.Expr, error) {
	if p.at(lexer.Minus) {
		p.advance()
		inner, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return ast.Call{Func: ast.Ident{Name: "neg"}, Args: []ast.Expr{inner}}, nil
	}
	if p.at(lexer.Bang) {
		p.advance()
		inner, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return ast.Call{Func: ast.Ident{Name: "bool.not"}, Args: []ast.Expr{inner}}, nil
	}
	return p.parsePostfix()
}

func (p *parser) parsePostfix() (ast.Expr, error) {
	e, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	for {
		switch {
		case p.at(lexer.Dot):
			p.advance()
			field, err := p.expectIdent()
			if err != nil {
				return nil, err
			}
			if p.at(lexer.LParen) {
				args, err := p.parseArgs()
				if err != nil {
					return nil, err
				}
				e = ast.Call{Func: ast.Ident{Name: field}, Args: append([]ast.Expr{e}, args...)}
			} else {
				e = ast.FieldAccess{Recv: e, Field: field}
			}
		case p.at(lexer.LParen):
			ident, ok := e.(ast.Ident)
			if !ok {
				return nil, p.errf("call target must be a function name")
			}
			args, err := p.parseArgs()
			if err != nil {
				return nil, err
			}
			e = ast.Call{Func: ident, Args: args}
		case p.at(lexer.Question):
			p.advance()
			e = ast.Try{Inner: e}
		default:
			return e, nil
		}
	}
}

func (p *parser) parseArgs() ([]ast.Expr, error) {
	if _, err := p.expect(lexer.LParen, "'('"); err != nil {
		return nil, err
	}
	var args []ast.Expr
	for !p.at(lexer.RParen) {
		if len(args) > 0 {
			if _, err := p.expect(lexer.Comma, "','"); err != nil {
				return nil, err
			}
		}
		a, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		args = append(args, a)
	}
	if _, err := p.expect(lexer.RParen, "')'"); err != nil {
		return nil, err
	}
	return args, nil
}

func (p *parser) parsePrimary() (ast.Expr, error) {
	t := p.cur()
	switch {
	case t.IsKeyword("unit"):
		p.advance()
		return ast.UnitLit{}, nil
	case t.IsKeyword("true"):
		p.advance()
		return ast.BoolLit{Value: true}, nil
	case t.IsKeyword("false"):
		p.advance()
		return ast.BoolLit{Value: false}, nil
	case t.IsKeyword("if"):
		return p.parseIf()
	case t.IsKeyword("match"):
		return p.parseMatch()
	case t.IsKeyword("fn"):
		return p.parseLambda()
	case t.Kind == lexer.Int:
		p.advance()
		return ast.IntLit{Raw: t.Text}, nil
	case t.Kind == lexer.Text:
		p.advance()
		return ast.TextLit{Value: t.Text}, nil
	case t.Kind == lexer.Bytes:
		p.advance()
		return ast.BytesLit{Hex: t.Text}, nil
	case t.Kind == lexer.Ident:
		p.advance()
		return ast.Ident{Name: t.Text}, nil
	case t.Kind == lexer.LBracket:
		return p.parseListLit()
	case t.Kind == lexer.LBrace:
		return p.parseRecordOrBlock()
	case t.Kind == lexer.LParen:
		p.advance()
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(lexer.RParen, "')'"); err != nil {
			return nil, err
		}
		return e, nil
	default:
		return nil, p.errf("unexpected token in expression")
	}
}

func (p *parser) parseIf() (ast.Expr, error) {
	p.advance() // 'if'
	cond, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	thenBlock, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	if err := p.expectKeyword("else"); err != nil {
		return nil, err
	}
	elseBlock, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	return ast.If{Cond: cond, Then: ast.BlockExpr{Block: *thenBlock}, Else: ast.BlockExpr{Block: *elseBlock}}, nil
}

func (p *parser) parseMatch() (ast.Expr, error) {
	p.advance() // 'match'
	scrutinee, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.LBrace, "'{'"); err != nil {
		return nil, err
	}
	var arms []ast.MatchArm
	for !p.at(lexer.RBrace) {
		pat, err := p.parsePattern()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(lexer.FatArrow, "'=>'"); err != nil {
			return nil, err
		}
		body, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(lexer.Semicolon, "';'"); err != nil {
			return nil, err
		}
		arms = append(arms, ast.MatchArm{Pattern: pat, Body: body})
	}
	p.advance() // '}'
	return ast.Match{Scrutinee: scrutinee, Arms: arms}, nil
}

func (p *parser) parsePattern() (ast.Pattern, error) {
	t := p.cur()
	switch {
	case t.Kind == lexer.Ident && t.Text == "_":
		p.advance()
		return ast.WildcardPattern{}, nil
	case t.Kind == lexer.Ident:
		p.advance()
		return ast.IdentPattern{Name: t.Text}, nil
	case t.Kind == lexer.LBrace:
		return p.parseShapePattern()
	default:
		e, err := p.parsePrimary()
		if err != nil {
			return nil, err
		}
		return ast.LiteralPattern{Value: e}, nil
	}
}

func (p *parser) parseShapePattern() (ast.Pattern, error) {
	p.advance() // '{'
	var fields []ast.ShapeField
	for !p.at(lexer.RBrace) {
		if len(fields) > 0 {
			if _, err := p.expect(lexer.Comma, "','"); err != nil {
				return nil, err
			}
		}
		name, err := p.expectIdent()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(lexer.Colon, "':'"); err != nil {
			return nil, err
		}
		sub, err := p.parsePattern()
		if err != nil {
			return nil, err
		}
		fields = append(fields, ast.ShapeField{Name: name, Pattern: sub})
	}
	if _, err := p.expect(lexer.RBrace, "'}'"); err != nil {
		return nil, err
	}
	return ast.ShapePattern{Fields: fields}, nil
}

func (p *parser) parseLambda() (ast.Expr, error) {
	p.advance() // 'fn'
	params, err := p.parseParamList()
	if err != nil {
		return nil, err
	}
	body, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	return ast.Lambda{Params: params, Body: body}, nil
}

func (p *parser) parseListLit() (ast.Expr, error) {
	p.advance() // '['
	var elems []ast.Expr
	for !p.at(lexer.RBracket) {
		if len(elems) > 0 {
			if _, err := p.expect(lexer.Comma, "','"); err != nil {
				return nil, err
			}
		}
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		elems = append(elems, e)
	}
	if _, err := p.expect(lexer.RBracket, "']'"); err != nil {
		return nil, err
	}
	return ast.ListLit{Elems: elems}, nil
}

// parseRecordOrBlock disambiguates `{ field: expr, ... }` (a record
// literal) from `{ let x = ...; tail }` (a block expression) by looking
// ahead for an identifier immediately followed by ':'; an empty body `{}`
// is a block.
func (p *parser) parseRecordOrBlock() (ast.Expr, error) {
	if p.looksLikeRecordLit() {
		return p.parseRecordLit()
	}
	block, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	return ast.BlockExpr{Block: *block}, nil
}

func (p *parser) looksLikeRecordLit() bool {
	if p.toks[p.pos].Kind != lexer.LBrace {
		return false
	}
	next := p.toks[p.pos+1]
	if next.Kind == lexer.RBrace {
		return false // `{}` is the empty block (Unit)
	}
	if next.Kind != lexer.Ident {
		return false
	}
	if p.pos+2 >= len(p.toks) {
		return false
	}
	after := p.toks[p.pos+2]
	return after.Kind == lexer.Colon
}

func (p *parser) parseRecordLit() (ast.Expr, error) {
	p.advance() // '{'
	var fields []ast.RecordFieldExpr
	for !p.at(lexer.RBrace) {
		if len(fields) > 0 {
			if _, err := p.expect(lexer.Comma, "','"); err != nil {
				return nil, err
			}
		}
		name, err := p.expectIdent()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(lexer.Colon, "':'"); err != nil {
			return nil, err
		}
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		fields = append(fields, ast.RecordFieldExpr{Name: name, Expr: e})
	}
	if _, err := p.expect(lexer.RBrace, "'}'"); err != nil {
		return nil, err
	}
	return ast.RecordLit{Fields: fields}, nil
}
