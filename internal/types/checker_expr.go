package types

import (
	"strconv"
	"strings"

	"github.com/DrTomLLC/T-Programming-Language/internal/ast"
	"github.com/DrTomLLC/T-Programming-Language/internal/diag"
	"github.com/DrTomLLC/T-Programming-Language/internal/lexer"
)

// checkExpr infers the expression's type, records it, and returns it. An
// expression that cannot be typed yields the error type and exactly one
// diagnostic (or none, when an earlier stage already reported it).
func (c *Checker) checkExpr(exprID ast.ExprID) Type {
	t := c.inferExpr(exprID)
	c.info.ExprTypes[exprID] = t
	return t
}

func (c *Checker) inferExpr(exprID ast.ExprID) Type {
	expr := c.tree.Expr(exprID)

	switch expr.Kind {
	case ast.ExprIdent:
		sym, ok := c.res.ExprSyms[exprID]
		if !ok {
			return TypeError
		}
		if t, ok := c.info.SymTypes[sym]; ok {
			return t
		}
		return TypeError

	case ast.ExprInt:
		c.checkIntLiteral(expr)
		return c.uni.FreshDefault(TypeI32)

	case ast.ExprFloat:
		return TypeF64

	case ast.ExprString:
		return TypeStr

	case ast.ExprChar:
		return TypeChar

	case ast.ExprBool:
		return TypeBool

	case ast.ExprUnary:
		return c.checkUnary(expr)

	case ast.ExprBinary:
		return c.checkBinary(expr)

	case ast.ExprAssign:
		return c.checkAssign(expr)

	case ast.ExprCall:
		return c.checkCall(exprID, expr)

	case ast.ExprIndex:
		return c.checkIndex(expr)

	case ast.ExprField:
		return c.checkField(expr)

	case ast.ExprPath:
		return c.checkPath(exprID, expr)

	case ast.ExprStructLit:
		return c.checkStructLit(exprID, expr)

	case ast.ExprArray:
		elem := Type(c.uni.Fresh())
		for _, el := range expr.List {
			et := c.checkExpr(el)
			c.constrain(Constraint{
				Left: elem, Right: et,
				LeftSpan:  expr.Span,
				RightSpan: c.tree.Expr(el).Span,
				Reason:    "array elements must share one type",
			})
		}
		return &Array{Elem: elem}

	case ast.ExprTuple:
		if len(expr.List) == 0 {
			return TypeUnit
		}
		tup := &Tuple{Elems: make([]Type, len(expr.List))}
		for i, el := range expr.List {
			tup.Elems[i] = c.checkExpr(el)
		}
		return tup

	case ast.ExprIf:
		return c.checkIf(expr)

	case ast.ExprMatch:
		return c.checkMatch(exprID, expr)

	case ast.ExprBlock:
		return c.checkBlock(exprID)

	case ast.ExprError:
		return TypeError
	}

	return TypeError
}

func (c *Checker) checkIntLiteral(expr *ast.Expr) {
	text := strings.ReplaceAll(expr.Text, "_", "")
	if _, err := strconv.ParseInt(text, 0, 64); err != nil {
		c.errorf(diag.CodeTypeMismatch, expr.Span, "integer literal '%s' is out of range", expr.Text)
	}
}

func (c *Checker) checkUnary(expr *ast.Expr) Type {
	operand := c.checkExpr(expr.X)
	span := c.tree.Expr(expr.X).Span

	switch expr.Op {
	case lexer.MINUS:
		c.requireNumeric(operand, span, "-")
		return operand
	case lexer.BANG:
		c.requireBool(operand, span, "operator '!' requires a bool operand")
		return TypeBool
	}
	return TypeError
}

func (c *Checker) checkBinary(expr *ast.Expr) Type {
	lt := c.checkExpr(expr.X)
	rt := c.checkExpr(expr.Y)
	lspan := c.tree.Expr(expr.X).Span
	rspan := c.tree.Expr(expr.Y).Span

	same := func(reason string) bool {
		return c.constrain(Constraint{
			Left: lt, Right: rt,
			LeftSpan: lspan, RightSpan: rspan,
			Reason: reason,
		})
	}

	switch expr.Op {
	case lexer.PLUS, lexer.MINUS, lexer.ASTERISK, lexer.SLASH, lexer.PERCENT:
		if same("arithmetic operands must have the same type") {
			c.requireNumeric(lt, lspan, string(expr.Op))
		}
		return lt

	case lexer.LT, lexer.LE, lexer.GT, lexer.GE:
		if same("comparison operands must have the same type") {
			c.requireNumeric(lt, lspan, string(expr.Op))
		}
		return TypeBool

	case lexer.EQ, lexer.NOT_EQ:
		same("equality operands must have the same type")
		return TypeBool

	case lexer.AND, lexer.OR:
		c.requireBool(lt, lspan, "logical operands must be bool")
		c.requireBool(rt, rspan, "logical operands must be bool")
		return TypeBool
	}
	return TypeError
}

func (c *Checker) checkAssign(expr *ast.Expr) Type {
	target := c.checkExpr(expr.X)
	value := c.checkExpr(expr.Y)

	c.constrain(Constraint{
		Left: target, Right: value,
		LeftSpan:  c.tree.Expr(expr.X).Span,
		RightSpan: c.tree.Expr(expr.Y).Span,
		Reason:    "assigned value must match the target's type",
	})
	return TypeUnit
}

func (c *Checker) checkCall(exprID ast.ExprID, expr *ast.Expr) Type {
	callee := c.checkExpr(expr.X)

	switch fn := c.uni.Resolve(callee).(type) {
	case *Function:
		fn = c.instantiateFn(fn)
		if len(expr.List) != len(fn.Params) {
			c.errorf(diag.CodeTypeArityMismatch, expr.Span,
				"this call expects %d arguments, found %d", len(fn.Params), len(expr.List))
			return TypeError
		}
		for i, argID := range expr.List {
			at := c.checkExpr(argID)
			c.constrain(Constraint{
				Left: fn.Params[i], Right: at,
				LeftSpan:  c.tree.Expr(expr.X).Span,
				RightSpan: c.tree.Expr(argID).Span,
				Reason:    "argument must match the parameter type",
			})
		}
		return fn.Return

	case *Var:
		if fn.Numeric {
			// A numeric literal can never resolve to a function.
			for _, argID := range expr.List {
				c.checkExpr(argID)
			}
			c.errorf(diag.CodeTypeMismatch, c.tree.Expr(expr.X).Span,
				"'%s' is not callable", c.uni.Apply(callee))
			return TypeError
		}
		// Callee type is still unknown; constrain it to a function shape
		// derived from the arguments.
		want := &Function{Return: c.uni.Fresh()}
		for _, argID := range expr.List {
			want.Params = append(want.Params, c.checkExpr(argID))
		}
		c.constrain(Constraint{
			Left: want, Right: callee,
			LeftSpan:  expr.Span,
			RightSpan: c.tree.Expr(expr.X).Span,
			Reason:    "called value must be a function",
		})
		return want.Return

	case *ErrorType:
		for _, argID := range expr.List {
			c.checkExpr(argID)
		}
		return TypeError

	default:
		for _, argID := range expr.List {
			c.checkExpr(argID)
		}
		c.errorf(diag.CodeTypeMismatch, c.tree.Expr(expr.X).Span,
			"'%s' is not callable", c.uni.Apply(callee))
		return TypeError
	}
}

func (c *Checker) checkIndex(expr *ast.Expr) Type {
	target := c.checkExpr(expr.X)
	index := c.checkExpr(expr.Y)

	elem := Type(c.uni.Fresh())
	c.constrain(Constraint{
		Left: &Array{Elem: elem}, Right: target,
		LeftSpan:  expr.Span,
		RightSpan: c.tree.Expr(expr.X).Span,
		Reason:    "indexing requires an array",
	})
	c.constrain(Constraint{
		Left: TypeI32, Right: index,
		LeftSpan:  expr.Span,
		RightSpan: c.tree.Expr(expr.Y).Span,
		Reason:    "array index must be i32",
	})
	return elem
}

func (c *Checker) checkField(expr *ast.Expr) Type {
	target := c.checkExpr(expr.X)
	span := expr.Name.Span

	switch t := c.uni.Resolve(target).(type) {
	case *Struct:
		if ft, ok := t.FieldType(expr.Name.Name); ok {
			return ft
		}
		c.errorf(diag.CodeTypeMismatch, span, "struct '%s' has no field '%s'", t.Name, expr.Name.Name)
		return TypeError

	case *Tuple:
		idx, err := strconv.Atoi(expr.Name.Name)
		if err != nil || idx < 0 || idx >= len(t.Elems) {
			c.errorf(diag.CodeTypeMismatch, span, "tuple '%s' has no element '%s'", t, expr.Name.Name)
			return TypeError
		}
		return t.Elems[idx]

	case *ErrorType:
		return TypeError

	default:
		c.errorf(diag.CodeTypeMismatch, span, "type '%s' has no fields", c.uni.Apply(target))
		return TypeError
	}
}

// checkPath types "Enum::Variant": a unit variant is a value of the enum; a
// payload variant is a constructor function.
func (c *Checker) checkPath(exprID ast.ExprID, expr *ast.Expr) Type {
	sym, ok := c.res.ExprSyms[exprID]
	if !ok {
		return TypeError
	}

	tmpl := c.enums[c.res.Symbol(sym).Item]
	inst := c.instantiateEnum(tmpl, nil, expr.Span)
	enum, ok := inst.(*Enum)
	if !ok {
		return TypeError
	}

	variant, ok := enum.Variant(expr.Name.Name)
	if !ok {
		return TypeError
	}
	if len(variant.Payload) == 0 {
		return enum
	}
	return &Function{Params: variant.Payload, Return: enum}
}

func (c *Checker) checkStructLit(exprID ast.ExprID, expr *ast.Expr) Type {
	sym, ok := c.res.ExprSyms[exprID]
	if !ok {
		for _, f := range expr.Fields {
			c.checkExpr(f.Value)
		}
		return TypeError
	}

	tmpl := c.structs[c.res.Symbol(sym).Item]
	inst := c.instantiateStruct(tmpl, nil, expr.Span)
	st, ok := inst.(*Struct)
	if !ok {
		return TypeError
	}

	seen := make(map[string]bool, len(expr.Fields))
	for _, f := range expr.Fields {
		vt := c.checkExpr(f.Value)
		ft, ok := st.FieldType(f.Name.Name)
		if !ok {
			c.errorf(diag.CodeTypeMismatch, f.Name.Span,
				"struct '%s' has no field '%s'", st.Name, f.Name.Name)
			continue
		}
		if seen[f.Name.Name] {
			c.errorf(diag.CodeTypeMismatch, f.Name.Span,
				"field '%s' is initialized twice", f.Name.Name)
			continue
		}
		seen[f.Name.Name] = true
		c.constrain(Constraint{
			Left: ft, Right: vt,
			LeftSpan:  f.Name.Span,
			RightSpan: c.tree.Expr(f.Value).Span,
			Reason:    "field initializer must match the field's type",
		})
	}

	for _, f := range st.Fields {
		if !seen[f.Name] {
			c.errorf(diag.CodeTypeMismatch, expr.Span,
				"missing field '%s' in literal of '%s'", f.Name, st.Name)
		}
	}

	return st
}

func (c *Checker) checkIf(expr *ast.Expr) Type {
	cond := c.checkExpr(expr.X)
	c.requireBool(cond, c.tree.Expr(expr.X).Span, "if condition must be bool")

	thenType := c.checkExpr(expr.Y)

	if !expr.Else.IsValid() {
		// Without an else the then-branch value is discarded; the whole
		// expression is unit.
		return TypeUnit
	}

	elseType := c.checkExpr(expr.Else)
	c.constrain(Constraint{
		Left: thenType, Right: elseType,
		LeftSpan:  c.tree.Expr(expr.Y).Span,
		RightSpan: c.tree.Expr(expr.Else).Span,
		Reason:    "if and else branches must produce the same type",
	})
	return thenType
}

func (c *Checker) checkMatch(exprID ast.ExprID, expr *ast.Expr) Type {
	scrutinee := c.checkExpr(expr.X)

	result := Type(c.uni.Fresh())
	for _, arm := range expr.Arms {
		c.checkPattern(arm.Pat, scrutinee)
		if arm.Guard.IsValid() {
			gt := c.checkExpr(arm.Guard)
			c.requireBool(gt, c.tree.Expr(arm.Guard).Span, "match guard must be bool")
		}
		bt := c.checkExpr(arm.Body)
		c.constrain(Constraint{
			Left: result, Right: bt,
			LeftSpan:  expr.Span,
			RightSpan: c.tree.Expr(arm.Body).Span,
			Reason:    "all match arms must produce the same type",
		})
	}

	c.checkExhaustive(expr, scrutinee)
	return result
}

// checkPattern types a pattern against the value it destructures and assigns
// binding symbols their types.
func (c *Checker) checkPattern(patID ast.PatID, scrutinee Type) {
	pat := c.tree.Pat(patID)

	switch pat.Kind {
	case ast.PatWildcard:

	case ast.PatBinding:
		if sym, ok := c.patSyms[patID]; ok {
			c.info.SymTypes[sym] = scrutinee
		}

	case ast.PatLiteral:
		var lit Type
		switch pat.Tok {
		case lexer.INT:
			lit = c.uni.FreshDefault(TypeI32)
		case lexer.FLOAT:
			lit = TypeF64
		case lexer.STRING:
			lit = TypeStr
		case lexer.CHAR:
			lit = TypeChar
		case lexer.TRUE, lexer.FALSE:
			lit = TypeBool
		default:
			lit = TypeError
		}
		c.constrain(Constraint{
			Left: scrutinee, Right: lit,
			LeftSpan:  pat.Span,
			RightSpan: pat.Span,
			Reason:    "literal pattern must match the scrutinee's type",
		})

	case ast.PatVariant:
		c.checkVariantPattern(patID, pat, scrutinee)

	case ast.PatTuple:
		want := &Tuple{Elems: make([]Type, len(pat.Elems))}
		for i := range want.Elems {
			want.Elems[i] = c.uni.Fresh()
		}
		if !c.constrain(Constraint{
			Left: want, Right: scrutinee,
			LeftSpan:  pat.Span,
			RightSpan: pat.Span,
			Reason:    "tuple pattern must match the scrutinee's type",
		}) {
			return
		}
		for i, el := range pat.Elems {
			c.checkPattern(el, want.Elems[i])
		}
	}
}

func (c *Checker) checkVariantPattern(patID ast.PatID, pat *ast.Pattern, scrutinee Type) {
	enum, ok := c.uni.Resolve(scrutinee).(*Enum)
	if !ok {
		if _, poisoned := c.uni.Resolve(scrutinee).(*ErrorType); !poisoned {
			c.errorf(diag.CodeTypeMismatch, pat.Span,
				"variant pattern cannot match a value of type '%s'", c.uni.Apply(scrutinee))
		}
		c.poisonBindings(patID)
		return
	}

	// Qualified patterns were already bound to their enum; make sure it is
	// the scrutinee's enum.
	if sym, qualified := c.res.PatSyms[patID]; qualified && pat.Qual.IsValid() {
		if c.res.Symbol(sym).Name != enum.Name {
			c.errorf(diag.CodeTypeMismatch, pat.Qual.Span,
				"pattern of enum '%s' cannot match a value of type '%s'", c.res.Symbol(sym).Name, enum)
			c.poisonBindings(patID)
			return
		}
	}

	variant, ok := enum.Variant(pat.Name.Name)
	if !ok {
		c.errorf(diag.CodeTypeMismatch, pat.Name.Span,
			"enum '%s' has no variant '%s'", enum.Name, pat.Name.Name)
		c.poisonBindings(patID)
		return
	}

	if len(pat.Elems) != len(variant.Payload) {
		c.errorf(diag.CodeTypeArityMismatch, pat.Span,
			"variant '%s' has %d payload values, pattern binds %d",
			variant.Name, len(variant.Payload), len(pat.Elems))
		c.poisonBindings(patID)
		return
	}

	for i, el := range pat.Elems {
		c.checkPattern(el, variant.Payload[i])
	}
}

// poisonBindings types every binding under a broken pattern as the error
// type so later uses stay quiet.
func (c *Checker) poisonBindings(patID ast.PatID) {
	pat := c.tree.Pat(patID)
	if sym, ok := c.patSyms[patID]; ok && pat.Kind == ast.PatBinding {
		c.info.SymTypes[sym] = TypeError
	}
	for _, el := range pat.Elems {
		c.poisonBindings(el)
	}
}
