package tir

import (
	"strconv"
	"strings"

	"github.com/DrTomLLC/T-Programming-Language/internal/ast"
	"github.com/DrTomLLC/T-Programming-Language/internal/lexer"
	"github.com/DrTomLLC/T-Programming-Language/internal/sema"
	"github.com/DrTomLLC/T-Programming-Language/internal/types"
)

// lowerExpr flattens an expression into the current block, returning the SSA
// value holding its result. Every sub-expression gets a fresh value id.
func (l *Lowerer) lowerExpr(id ast.ExprID) ValueID {
	e := l.tree.Expr(id)
	t := l.typeOf(id)

	switch e.Kind {
	case ast.ExprIdent:
		return l.lowerIdent(id, e)

	case ast.ExprInt:
		return l.emit(&Instr{Op: OpConst, Type: t, Value: parseIntText(e.Text)})

	case ast.ExprFloat:
		f, _ := strconv.ParseFloat(strings.ReplaceAll(e.Text, "_", ""), 64)
		return l.emit(&Instr{Op: OpConst, Type: t, Value: f})

	case ast.ExprString:
		return l.emit(&Instr{Op: OpConst, Type: t, Value: e.Text})

	case ast.ExprChar:
		return l.emit(&Instr{Op: OpConst, Type: t, Value: firstRune(e.Text)})

	case ast.ExprBool:
		return l.emit(&Instr{Op: OpConst, Type: t, Value: e.Text == "true"})

	case ast.ExprUnary:
		x := l.lowerExpr(e.X)
		op := OpNeg
		if e.Op == lexer.BANG {
			op = OpNot
		}
		return l.emit(&Instr{Op: op, Type: t, Args: []ValueID{x}})

	case ast.ExprBinary:
		if e.Op == lexer.AND || e.Op == lexer.OR {
			return l.lowerLogical(e)
		}
		x := l.lowerExpr(e.X)
		y := l.lowerExpr(e.Y)
		return l.emit(&Instr{Op: binaryOpcode(e.Op), Type: t, Args: []ValueID{x, y}})

	case ast.ExprAssign:
		val := l.lowerExpr(e.Y)
		l.assignTo(e.X, val)
		return l.unitConst()

	case ast.ExprCall:
		return l.lowerCall(id, e)

	case ast.ExprIndex:
		x := l.lowerExpr(e.X)
		i := l.lowerExpr(e.Y)
		return l.emit(&Instr{Op: OpIndex, Type: t, Args: []ValueID{x, i}})

	case ast.ExprField:
		return l.lowerField(e, t)

	case ast.ExprPath:
		return l.lowerPath(e, t)

	case ast.ExprStructLit:
		names := make([]string, 0, len(e.Fields))
		args := make([]ValueID, 0, len(e.Fields))
		for _, f := range e.Fields {
			names = append(names, f.Name.Name)
			args = append(args, l.lowerExpr(f.Value))
		}
		return l.emit(&Instr{Op: OpMakeStruct, Type: t, Struct: e.Name.Name, Fields: names, Args: args})

	case ast.ExprArray:
		args := make([]ValueID, 0, len(e.List))
		for _, el := range e.List {
			args = append(args, l.lowerExpr(el))
		}
		return l.emit(&Instr{Op: OpMakeArray, Type: t, Args: args})

	case ast.ExprTuple:
		if len(e.List) == 0 {
			return l.unitConst()
		}
		args := make([]ValueID, 0, len(e.List))
		for _, el := range e.List {
			args = append(args, l.lowerExpr(el))
		}
		return l.emit(&Instr{Op: OpMakeTuple, Type: t, Args: args})

	case ast.ExprIf:
		return l.lowerIf(id, e)

	case ast.ExprMatch:
		return l.lowerMatch(id, e)

	case ast.ExprBlock:
		return l.lowerBlockExpr(id)

	default:
		// Recovery placeholder; earlier stages already reported it.
		return l.emit(&Instr{Op: OpConst, Type: types.TypeError})
	}
}

func (l *Lowerer) unitConst() ValueID {
	return l.emit(&Instr{Op: OpConst, Type: types.TypeUnit})
}

func (l *Lowerer) lowerIdent(id ast.ExprID, e *ast.Expr) ValueID {
	sym, ok := l.res.ExprSyms[id]
	if !ok {
		return l.emit(&Instr{Op: OpConst, Type: types.TypeError})
	}
	switch l.res.Symbol(sym).Kind {
	case sema.SymConst:
		return l.emit(&Instr{Op: OpGlobal, Type: l.typeOf(id), Global: e.Name.Name})
	case sema.SymFn:
		return l.emit(&Instr{Op: OpFuncRef, Type: l.typeOf(id), Callee: e.Name.Name})
	default:
		return l.readVar(sym)
	}
}

func (l *Lowerer) lowerField(e *ast.Expr, t types.Type) ValueID {
	x := l.lowerExpr(e.X)
	if _, ok := l.typeOf(e.X).(*types.Tuple); ok {
		idx, _ := strconv.Atoi(e.Name.Name)
		return l.emit(&Instr{Op: OpTupleGet, Type: t, Index: idx, Args: []ValueID{x}})
	}
	return l.emit(&Instr{Op: OpGetField, Type: t, Field: e.Name.Name, Args: []ValueID{x}})
}

// lowerPath lowers Enum::Variant. A unit variant constructs the enum value
// directly; a payload variant referenced without a call is a function value.
func (l *Lowerer) lowerPath(e *ast.Expr, t types.Type) ValueID {
	if enum, ok := t.(*types.Enum); ok {
		return l.emit(&Instr{
			Op:      OpMakeEnum,
			Type:    t,
			Enum:    enum.Name,
			Variant: e.Name.Name,
			Tag:     variantTag(enum, e.Name.Name),
		})
	}
	return l.emit(&Instr{Op: OpFuncRef, Type: t, Callee: e.Qual.Name + "::" + e.Name.Name})
}

func (l *Lowerer) lowerCall(id ast.ExprID, e *ast.Expr) ValueID {
	t := l.typeOf(id)
	callee := l.tree.Expr(e.X)

	// Enum::Variant(args) constructs the enum value in place.
	if callee.Kind == ast.ExprPath {
		if enum, ok := t.(*types.Enum); ok {
			args := make([]ValueID, 0, len(e.List))
			for _, a := range e.List {
				args = append(args, l.lowerExpr(a))
			}
			return l.emit(&Instr{
				Op:      OpMakeEnum,
				Type:    t,
				Enum:    enum.Name,
				Variant: callee.Name.Name,
				Tag:     variantTag(enum, callee.Name.Name),
				Args:    args,
			})
		}
	}

	// A named function call is direct.
	if callee.Kind == ast.ExprIdent {
		if sym, ok := l.res.ExprSyms[e.X]; ok && l.res.Symbol(sym).Kind == sema.SymFn {
			args := make([]ValueID, 0, len(e.List))
			for _, a := range e.List {
				args = append(args, l.lowerExpr(a))
			}
			return l.emit(&Instr{Op: OpCall, Type: t, Callee: callee.Name.Name, Args: args})
		}
	}

	cv := l.lowerExpr(e.X)
	args := make([]ValueID, 0, len(e.List)+1)
	args = append(args, cv)
	for _, a := range e.List {
		args = append(args, l.lowerExpr(a))
	}
	return l.emit(&Instr{Op: OpCallIndirect, Type: t, Args: args})
}

// lowerLogical lowers && and || with short-circuit control flow: the right
// operand only evaluates when the left does not settle the result.
func (l *Lowerer) lowerLogical(e *ast.Expr) ValueID {
	isAnd := e.Op == lexer.AND
	x := l.lowerExpr(e.X)

	label := "or"
	if isAnd {
		label = "and"
	}
	rhs := l.newBlock(label + ".rhs")
	exit := l.newBlock(label + ".end")

	sources := map[BlockID]ValueID{}
	short := l.emit(&Instr{Op: OpConst, Type: types.TypeBool, Value: !isAnd})
	sources[l.cur] = short
	if isAnd {
		l.setBranch(x, rhs, exit)
	} else {
		l.setBranch(x, exit, rhs)
	}

	l.cur = rhs
	y := l.lowerExpr(e.Y)
	if !l.terminated() {
		sources[l.cur] = y
		l.setJump(exit)
	}

	l.cur = exit
	return l.exprMerge(exit, types.TypeBool, sources)
}

// lowerIf lowers a conditional to a branch between a then and an else block
// that reconverge at an exit block; the exit merge carries the branch values.
func (l *Lowerer) lowerIf(id ast.ExprID, e *ast.Expr) ValueID {
	cond := l.lowerExpr(e.X)

	then := l.newBlock("then")
	if !e.Else.IsValid() {
		exit := l.newBlock("endif")
		l.setBranch(cond, then, exit)

		l.cur = then
		l.lowerBlockExpr(e.Y)
		l.setJump(exit)

		l.cur = exit
		return l.unitConst()
	}

	els := l.newBlock("else")
	exit := l.newBlock("endif")
	l.setBranch(cond, then, els)
	sources := map[BlockID]ValueID{}

	l.cur = then
	tv := l.lowerBlockExpr(e.Y)
	if !l.terminated() {
		sources[l.cur] = tv
		l.setJump(exit)
	}

	l.cur = els
	ev := l.lowerExpr(e.Else) // a block, or a chained if
	if !l.terminated() {
		sources[l.cur] = ev
		l.setJump(exit)
	}

	l.cur = exit
	return l.exprMerge(exit, l.typeOf(id), sources)
}

// lowerBlockExpr lowers a block body and returns the tail expression's value,
// or unit. Returns NoValue when the block exits through a terminator.
func (l *Lowerer) lowerBlockExpr(id ast.ExprID) ValueID {
	block := l.tree.Expr(id)
	for _, stmtID := range block.Stmts {
		l.lowerStmt(stmtID)
	}
	if block.Tail.IsValid() {
		return l.lowerExpr(block.Tail)
	}
	if l.terminated() {
		return NoValue
	}
	return l.unitConst()
}

// assignTo stores a value through an assignment target. Field and index
// targets rebuild the enclosing aggregate and rebind its base variable.
func (l *Lowerer) assignTo(targetID ast.ExprID, val ValueID) {
	te := l.tree.Expr(targetID)
	switch te.Kind {
	case ast.ExprIdent:
		if sym, ok := l.res.ExprSyms[targetID]; ok {
			l.writeVar(sym, val)
		}

	case ast.ExprField:
		base := l.lowerExpr(te.X)
		bt := l.typeOf(te.X)
		if _, ok := bt.(*types.Tuple); ok {
			idx, _ := strconv.Atoi(te.Name.Name)
			nv := l.emit(&Instr{Op: OpTupleSet, Type: bt, Index: idx, Args: []ValueID{base, val}})
			l.assignTo(te.X, nv)
			return
		}
		nv := l.emit(&Instr{Op: OpSetField, Type: bt, Field: te.Name.Name, Args: []ValueID{base, val}})
		l.assignTo(te.X, nv)

	case ast.ExprIndex:
		base := l.lowerExpr(te.X)
		idx := l.lowerExpr(te.Y)
		nv := l.emit(&Instr{Op: OpSetIndex, Type: l.typeOf(te.X), Args: []ValueID{base, idx, val}})
		l.assignTo(te.X, nv)
	}
}

// foldConst evaluates a constant initializer to a literal value.
func (l *Lowerer) foldConst(id ast.ExprID) (any, bool) {
	e := l.tree.Expr(id)
	switch e.Kind {
	case ast.ExprInt:
		return parseIntText(e.Text), true
	case ast.ExprFloat:
		f, _ := strconv.ParseFloat(strings.ReplaceAll(e.Text, "_", ""), 64)
		return f, true
	case ast.ExprString:
		return e.Text, true
	case ast.ExprChar:
		return firstRune(e.Text), true
	case ast.ExprBool:
		return e.Text == "true", true
	case ast.ExprUnary:
		if e.Op != lexer.MINUS {
			return nil, false
		}
		v, ok := l.foldConst(e.X)
		if !ok {
			return nil, false
		}
		switch n := v.(type) {
		case int64:
			return -n, true
		case float64:
			return -n, true
		}
		return nil, false
	default:
		return nil, false
	}
}

func parseIntText(text string) int64 {
	n, _ := strconv.ParseInt(strings.ReplaceAll(text, "_", ""), 0, 64)
	return n
}

func firstRune(s string) rune {
	for _, r := range s {
		return r
	}
	return 0
}

func binaryOpcode(op lexer.TokenType) Opcode {
	switch op {
	case lexer.PLUS:
		return OpAdd
	case lexer.MINUS:
		return OpSub
	case lexer.ASTERISK:
		return OpMul
	case lexer.SLASH:
		return OpDiv
	case lexer.PERCENT:
		return OpRem
	case lexer.EQ:
		return OpEq
	case lexer.NOT_EQ:
		return OpNe
	case lexer.LT:
		return OpLt
	case lexer.LE:
		return OpLe
	case lexer.GT:
		return OpGt
	case lexer.GE:
		return OpGe
	}
	return OpInvalid
}

func variantTag(enum *types.Enum, name string) int {
	for i := range enum.Variants {
		if enum.Variants[i].Name == name {
			return i
		}
	}
	return -1
}
