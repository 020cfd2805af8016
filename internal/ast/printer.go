package ast

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/DrTomLLC/T-Programming-Language/internal/lexer"
)

// Print renders the tree back to parseable source text. Sub-expressions are
// parenthesized explicitly, so re-parsing the output yields a structurally
// equal tree (spans aside).
func Print(t *Tree) string {
	p := &printer{tree: t}
	for i, id := range t.Items {
		if i > 0 {
			p.buf.WriteString("\n")
		}
		p.item(id)
	}
	return p.buf.String()
}

type printer struct {
	tree   *Tree
	buf    strings.Builder
	indent int
}

func (p *printer) writef(format string, args ...any) {
	fmt.Fprintf(&p.buf, format, args...)
}

func (p *printer) line() {
	p.buf.WriteString("\n")
	p.buf.WriteString(strings.Repeat("    ", p.indent))
}

func (p *printer) item(id ItemID) {
	it := p.tree.Item(id)
	switch it.Kind {
	case ItemFn:
		p.writef("fn %s", it.Name.Name)
		p.typeParams(it.TypeParams)
		p.buf.WriteString("(")
		for i, param := range it.Params {
			if i > 0 {
				p.buf.WriteString(", ")
			}
			p.writef("%s: ", param.Name.Name)
			p.typeExpr(param.Type)
		}
		p.buf.WriteString(")")
		if it.Result.IsValid() {
			p.buf.WriteString(" -> ")
			p.typeExpr(it.Result)
		}
		p.buf.WriteString(" ")
		p.block(it.Body)
		p.buf.WriteString("\n")

	case ItemStruct:
		p.writef("struct %s", it.Name.Name)
		p.typeParams(it.TypeParams)
		p.buf.WriteString(" {")
		p.indent++
		for _, f := range it.Fields {
			p.line()
			p.writef("%s: ", f.Name.Name)
			p.typeExpr(f.Type)
			p.buf.WriteString(",")
		}
		p.indent--
		p.line()
		p.buf.WriteString("}\n")

	case ItemEnum:
		p.writef("enum %s", it.Name.Name)
		p.typeParams(it.TypeParams)
		p.buf.WriteString(" {")
		p.indent++
		for _, v := range it.Variants {
			p.line()
			p.buf.WriteString(v.Name.Name)
			if len(v.Payload) > 0 {
				p.buf.WriteString("(")
				for i, ty := range v.Payload {
					if i > 0 {
						p.buf.WriteString(", ")
					}
					p.typeExpr(ty)
				}
				p.buf.WriteString(")")
			}
			p.buf.WriteString(",")
		}
		p.indent--
		p.line()
		p.buf.WriteString("}\n")

	case ItemConst:
		p.writef("const %s", it.Name.Name)
		if it.Type.IsValid() {
			p.buf.WriteString(": ")
			p.typeExpr(it.Type)
		}
		p.buf.WriteString(" = ")
		p.expr(it.Value)
		p.buf.WriteString(";\n")

	case ItemUse:
		p.buf.WriteString("use ")
		for i, seg := range it.Path {
			if i > 0 {
				p.buf.WriteString("::")
			}
			p.buf.WriteString(seg.Name)
		}
		if it.Alias.IsValid() {
			p.writef(" as %s", it.Alias.Name)
		}
		p.buf.WriteString(";\n")
	}
}

func (p *printer) typeParams(params []Ident) {
	if len(params) == 0 {
		return
	}
	p.buf.WriteString("[")
	for i, tp := range params {
		if i > 0 {
			p.buf.WriteString(", ")
		}
		p.buf.WriteString(tp.Name)
	}
	p.buf.WriteString("]")
}

func (p *printer) stmt(id StmtID) {
	s := p.tree.Stmt(id)
	switch s.Kind {
	case StmtLet:
		p.buf.WriteString("let ")
		if s.Mutable {
			p.buf.WriteString("mut ")
		}
		p.buf.WriteString(s.Name.Name)
		if s.Type.IsValid() {
			p.buf.WriteString(": ")
			p.typeExpr(s.Type)
		}
		p.buf.WriteString(" = ")
		p.expr(s.Value)
		p.buf.WriteString(";")
	case StmtExpr:
		p.expr(s.Value)
		p.buf.WriteString(";")
	case StmtWhile:
		p.buf.WriteString("while ")
		p.expr(s.Cond)
		p.buf.WriteString(" ")
		p.block(s.Body)
	case StmtFor:
		p.writef("for %s in ", s.Name.Name)
		p.expr(s.From)
		p.buf.WriteString("..")
		p.expr(s.To)
		p.buf.WriteString(" ")
		p.block(s.Body)
	case StmtReturn:
		p.buf.WriteString("return")
		if s.Value.IsValid() {
			p.buf.WriteString(" ")
			p.expr(s.Value)
		}
		p.buf.WriteString(";")
	case StmtBreak:
		p.buf.WriteString("break;")
	case StmtContinue:
		p.buf.WriteString("continue;")
	}
}

// block prints an ExprBlock with braces and indentation.
func (p *printer) block(id ExprID) {
	e := p.tree.Expr(id)
	if e.Kind != ExprBlock {
		p.expr(id)
		return
	}
	if len(e.Stmts) == 0 && !e.Tail.IsValid() {
		p.buf.WriteString("{}")
		return
	}
	p.buf.WriteString("{")
	p.indent++
	for _, sid := range e.Stmts {
		p.line()
		p.stmt(sid)
	}
	if e.Tail.IsValid() {
		p.line()
		p.expr(e.Tail)
	}
	p.indent--
	p.line()
	p.buf.WriteString("}")
}

func (p *printer) expr(id ExprID) {
	e := p.tree.Expr(id)
	switch e.Kind {
	case ExprIdent:
		p.buf.WriteString(e.Name.Name)
	case ExprInt, ExprFloat, ExprBool:
		p.buf.WriteString(e.Text)
	case ExprString:
		p.buf.WriteString(strconv.Quote(e.Text))
	case ExprChar:
		for _, r := range e.Text {
			p.buf.WriteString(strconv.QuoteRune(r))
			break
		}
	case ExprUnary:
		p.buf.WriteString("(")
		p.buf.WriteString(string(e.Op))
		p.expr(e.X)
		p.buf.WriteString(")")
	case ExprBinary:
		p.buf.WriteString("(")
		p.expr(e.X)
		p.writef(" %s ", string(e.Op))
		p.expr(e.Y)
		p.buf.WriteString(")")
	case ExprAssign:
		p.buf.WriteString("(")
		p.expr(e.X)
		p.buf.WriteString(" = ")
		p.expr(e.Y)
		p.buf.WriteString(")")
	case ExprCall:
		p.expr(e.X)
		p.buf.WriteString("(")
		for i, arg := range e.List {
			if i > 0 {
				p.buf.WriteString(", ")
			}
			p.expr(arg)
		}
		p.buf.WriteString(")")
	case ExprIndex:
		p.expr(e.X)
		p.buf.WriteString("[")
		p.expr(e.Y)
		p.buf.WriteString("]")
	case ExprField:
		p.expr(e.X)
		p.writef(".%s", e.Name.Name)
	case ExprPath:
		p.writef("%s::%s", e.Qual.Name, e.Name.Name)
	case ExprStructLit:
		p.writef("%s { ", e.Name.Name)
		for i, f := range e.Fields {
			if i > 0 {
				p.buf.WriteString(", ")
			}
			p.writef("%s: ", f.Name.Name)
			p.expr(f.Value)
		}
		p.buf.WriteString(" }")
	case ExprArray:
		p.buf.WriteString("[")
		for i, el := range e.List {
			if i > 0 {
				p.buf.WriteString(", ")
			}
			p.expr(el)
		}
		p.buf.WriteString("]")
	case ExprTuple:
		p.buf.WriteString("(")
		for i, el := range e.List {
			if i > 0 {
				p.buf.WriteString(", ")
			}
			p.expr(el)
		}
		p.buf.WriteString(")")
	case ExprIf:
		p.buf.WriteString("if ")
		p.expr(e.X)
		p.buf.WriteString(" ")
		p.block(e.Y)
		if e.Else.IsValid() {
			p.buf.WriteString(" else ")
			if p.tree.Expr(e.Else).Kind == ExprIf {
				p.expr(e.Else)
			} else {
				p.block(e.Else)
			}
		}
	case ExprMatch:
		p.buf.WriteString("match ")
		p.expr(e.X)
		p.buf.WriteString(" {")
		p.indent++
		for _, arm := range e.Arms {
			p.line()
			p.pattern(arm.Pat)
			if arm.Guard.IsValid() {
				p.buf.WriteString(" if ")
				p.expr(arm.Guard)
			}
			p.buf.WriteString(" => ")
			p.expr(arm.Body)
			p.buf.WriteString(",")
		}
		p.indent--
		p.line()
		p.buf.WriteString("}")
	case ExprBlock:
		p.block(id)
	case ExprError:
		// Recovery placeholder; nothing sensible to print.
	}
}

func (p *printer) pattern(id PatID) {
	pat := p.tree.Pat(id)
	switch pat.Kind {
	case PatWildcard:
		p.buf.WriteString("_")
	case PatBinding:
		p.buf.WriteString(pat.Name.Name)
	case PatLiteral:
		switch pat.Tok {
		case lexer.STRING:
			p.buf.WriteString(strconv.Quote(pat.Text))
		case lexer.CHAR:
			for _, r := range pat.Text {
				p.buf.WriteString(strconv.QuoteRune(r))
				break
			}
		default:
			p.buf.WriteString(pat.Text)
		}
	case PatVariant:
		if pat.Qual.IsValid() {
			p.writef("%s::", pat.Qual.Name)
		}
		p.buf.WriteString(pat.Name.Name)
		if len(pat.Elems) > 0 {
			p.buf.WriteString("(")
			for i, el := range pat.Elems {
				if i > 0 {
					p.buf.WriteString(", ")
				}
				p.pattern(el)
			}
			p.buf.WriteString(")")
		}
	case PatTuple:
		p.buf.WriteString("(")
		for i, el := range pat.Elems {
			if i > 0 {
				p.buf.WriteString(", ")
			}
			p.pattern(el)
		}
		p.buf.WriteString(")")
	}
}

func (p *printer) typeExpr(id TypeID) {
	ty := p.tree.Type(id)
	switch ty.Kind {
	case TypeName:
		p.buf.WriteString(ty.Name.Name)
		if len(ty.Args) > 0 {
			p.buf.WriteString("[")
			for i, arg := range ty.Args {
				if i > 0 {
					p.buf.WriteString(", ")
				}
				p.typeExpr(arg)
			}
			p.buf.WriteString("]")
		}
	case TypeFn:
		p.buf.WriteString("fn(")
		for i, arg := range ty.Args {
			if i > 0 {
				p.buf.WriteString(", ")
			}
			p.typeExpr(arg)
		}
		p.buf.WriteString(")")
		if ty.Elem.IsValid() {
			p.buf.WriteString(" -> ")
			p.typeExpr(ty.Elem)
		}
	case TypeArray:
		p.buf.WriteString("[")
		p.typeExpr(ty.Elem)
		p.buf.WriteString("]")
	case TypeTuple:
		p.buf.WriteString("(")
		for i, arg := range ty.Args {
			if i > 0 {
				p.buf.WriteString(", ")
			}
			p.typeExpr(arg)
		}
		p.buf.WriteString(")")
	}
}
