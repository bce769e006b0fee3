// Package printer renders an already-parsed internal/ast.Module back to
// source text in one fixed, deterministic layout (spec §4.6). Because
// internal/parser desugars every operator, method call, and pipeline to
// a plain Call before the tree ever reaches this package, Print is
// idempotent by construction: Print(Parse(Print(m))) always reproduces
// Print(m) byte for byte, since re-parsing the printed Call syntax
// desugars to the same tree the printer started from. The one exception
// is a builtin with a dotted name (cmp.eq, bool.not, ...), which would
// re-parse as a method call; those are printed back as the parenthesized
// operator they were desugared from. The printed bytes
// are what internal/digest hashes to produce a program's source_cid.
//
// The canonical form omits a module's dotted name, a function's
// visibility, and a function or effect's declared result type: none of
// the three carries any semantic weight downstream of the parser (no
// module linkage, no enforced visibility, no structural type checking —
// spec §4.5/Non-goals), so none of the three is allowed to perturb
// source_cid. The frozen single-function anchor of spec §6 is exactly
// `fn main() { unit }`, matching the original prototype's canon.rs,
// which never represented any of the three to begin with.
package printer

import (
	"sort"
	"strings"

	"github.com/fard-lang/fard/internal/ast"
)

// Print renders mod to its canonical source form: effects sorted by
// name, then functions in source order, joined by "\n" with no leading
// or trailing whitespace.
func Print(mod *ast.Module) []byte {
	effects := append([]ast.EffectDecl(nil), mod.Effects...)
	sort.SliceStable(effects, func(i, j int) bool { return effects[i].Name < effects[j].Name })
	var parts []string
	for _, e := range effects {
		parts = append(parts, printEffect(e))
	}
	for _, f := range mod.Funcs {
		parts = append(parts, printFunc(f))
	}
	return []byte(strings.Join(parts, "\n"))
}

func printEffect(e ast.EffectDecl) string {
	var sb strings.Builder
	sb.WriteString("effect ")
	sb.WriteString(e.Name)
	printParams(&sb, e.Params)
	sb.WriteString(";")
	return sb.String()
}

func printParams(sb *strings.Builder, params []ast.Param) {
	sb.WriteString("(")
	for i, p := range params {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(p.Name)
		sb.WriteString(": ")
		sb.WriteString(p.Type.Name)
	}
	sb.WriteString(")")
}

func printFunc(f ast.FuncDecl) string {
	var sb strings.Builder
	sb.WriteString("fn ")
	sb.WriteString(f.Name)
	printParams(&sb, f.Params)
	if len(f.Uses) > 0 {
		uses := append([]string(nil), f.Uses...)
		sort.Strings(uses)
		sb.WriteString(" uses [")
		sb.WriteString(strings.Join(uses, ", "))
		sb.WriteString("]")
	}
	sb.WriteString(" ")
	printBlock(&sb, f.Body)
	return sb.String()
}

func printBlock(sb *strings.Builder, b ast.Block) {
	sb.WriteString("{ ")
	for _, s := range b.Stmts {
		switch st := s.(type) {
		case ast.LetStmt:
			sb.WriteString("let ")
			sb.WriteString(st.Name)
			sb.WriteString(" = ")
			printExpr(sb, st.Expr)
			sb.WriteString("; ")
		case ast.ImportStmt:
			sb.WriteString("import(")
			sb.WriteString(quoteText(st.Path))
			sb.WriteString(") as ")
			sb.WriteString(st.Alias)
			sb.WriteString("; ")
		}
	}
	if b.Tail != nil {
		printExpr(sb, b.Tail)
		sb.WriteString(" ")
	}
	sb.WriteString("}")
}

func printExpr(sb *strings.Builder, e ast.Expr) {
	switch n := e.(type) {
	case ast.UnitLit:
		sb.WriteString("unit")
	case ast.BoolLit:
		if n.Value {
			sb.WriteString("true")
		} else {
			sb.WriteString("false")
		}
	case ast.IntLit:
		sb.WriteString(n.Raw)
	case ast.TextLit:
		sb.WriteString(quoteText(n.Value))
	case ast.BytesLit:
		sb.WriteString("hex:")
		sb.WriteString(n.Hex)
	case ast.ListLit:
		sb.WriteString("[")
		for i, el := range n.Elems {
			if i > 0 {
				sb.WriteString(", ")
			}
			printExpr(sb, el)
		}
		sb.WriteString("]")
	case ast.RecordLit:
		fields := append([]ast.RecordFieldExpr(nil), n.Fields...)
		sort.SliceStable(fields, func(i, j int) bool { return fields[i].Name < fields[j].Name })
		sb.WriteString("{")
		for i, f := range fields {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(f.Name)
			sb.WriteString(": ")
			printExpr(sb, f.Expr)
		}
		sb.WriteString("}")
	case ast.Ident:
		sb.WriteString(n.Name)
	case ast.FieldAccess:
		printExpr(sb, n.Recv)
		sb.WriteString(".")
		sb.WriteString(n.Field)
	case ast.Call:
		// A dotted builtin name would re-parse as a method call, so the
		// comparison and boolean builtins print in their operator form.
		if op, ok := map[string]string{"cmp.eq": "==", "cmp.lt": "<", "cmp.le": "<=", "cmp.gt": ">", "cmp.ge": ">=", "bool.and": "&&", "bool.or": "||"}[n.Func.Name]; ok && len(n.Args) == 2 {
			sb.WriteString("(")
			printExpr(sb, n.Args[0])
			sb.WriteString(" " + op + " ")
			printExpr(sb, n.Args[1])
			sb.WriteString(")")
			break
		}
		if n.Func.Name == "bool.not" && len(n.Args) == 1 {
			sb.WriteString("!(")
			printExpr(sb, n.Args[0])
			sb.WriteString(")")
			break
		}
		sb.WriteString(n.Func.Name)
		sb.WriteString("(")
		for i, a := range n.Args {
			if i > 0 {
				sb.WriteString(", ")
			}
			printExpr(sb, a)
		}
		sb.WriteString(")")
	case ast.If:
		sb.WriteString("if ")
		printExpr(sb, n.Cond)
		sb.WriteString(" ")
		printExpr(sb, n.Then)
		sb.WriteString(" else ")
		printExpr(sb, n.Else)
	case ast.Match:
		sb.WriteString("match ")
		printExpr(sb, n.Scrutinee)
		sb.WriteString(" { ")
		for _, arm := range n.Arms {
			printPattern(sb, arm.Pattern)
			sb.WriteString(" => ")
			printExpr(sb, arm.Body)
			sb.WriteString("; ")
		}
		sb.WriteString("}")
	case ast.Lambda:
		sb.WriteString("fn")
		printParams(sb, n.Params)
		sb.WriteString(" ")
		printExpr(sb, n.Body)
	case ast.BlockExpr:
		printBlock(sb, n.Block)
	case ast.Try:
		printExpr(sb, n.Inner)
		sb.WriteString("?")
	}
}

func printPattern(sb *strings.Builder, pat ast.Pattern) {
	switch p := pat.(type) {
	case ast.LiteralPattern:
		printExpr(sb, p.Value)
	case ast.IdentPattern:
		sb.WriteString(p.Name)
	case ast.WildcardPattern:
		sb.WriteString("_")
	case ast.ShapePattern:
		fields := append([]ast.ShapeField(nil), p.Fields...)
		sort.SliceStable(fields, func(i, j int) bool { return fields[i].Name < fields[j].Name })
		sb.WriteString("{")
		for i, f := range fields {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(f.Name)
			sb.WriteString(": ")
			printPattern(sb, f.Pattern)
		}
		sb.WriteString("}")
	}
}

func quoteText(s string) string {
	var sb strings.Builder
	sb.WriteByte('"')
	for i := 0; i < len(s); i++ {
		b := s[i]
		switch b {
		case '"':
			sb.WriteString(`\"`)
		case '\\':
			sb.WriteString(`\\`)
		case '\n':
			sb.WriteString(`\n`)
		case '\t':
			sb.WriteString(`\t`)
		case '\r':
			sb.WriteString(`\r`)
		case '\b':
			sb.WriteString(`\b`)
		case '\f':
			sb.WriteString(`\f`)
		default:
			if b < 0x20 {
				sb.WriteString(`\u00`)
				sb.WriteByte("0123456789abcdef"[b>>4])
				sb.WriteByte("0123456789abcdef"[b&0x0f])
			} else {
				sb.WriteByte(b)
			}
		}
	}
	sb.WriteByte('"')
	return sb.String()
}
