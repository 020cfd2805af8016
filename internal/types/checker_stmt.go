package types

import (
	"github.com/DrTomLLC/T-Programming-Language/internal/ast"
)

// checkBlock types every statement and returns the block's value: the tail
// expression's type, or unit.
func (c *Checker) checkBlock(blockID ast.ExprID) Type {
	block := c.tree.Expr(blockID)

	for _, stmtID := range block.Stmts {
		c.checkStmt(stmtID)
	}

	result := Type(TypeUnit)
	if block.Tail.IsValid() {
		result = c.checkExpr(block.Tail)
	}

	c.info.ExprTypes[blockID] = result
	return result
}

func (c *Checker) checkStmt(stmtID ast.StmtID) {
	stmt := c.tree.Stmt(stmtID)

	switch stmt.Kind {
	case ast.StmtLet:
		vt := c.checkExpr(stmt.Value)
		bound := vt
		if stmt.Type.IsValid() {
			at := c.resolveTypeExpr(stmt.Type)
			c.constrain(Constraint{
				Left: at, Right: vt,
				LeftSpan:  c.tree.Type(stmt.Type).Span,
				RightSpan: c.tree.Expr(stmt.Value).Span,
				Reason:    "initializer must match the binding's annotation",
			})
			bound = at
		}
		if sym, ok := c.stmtSyms[stmtID]; ok {
			c.info.SymTypes[sym] = bound
		}

	case ast.StmtExpr:
		c.checkExpr(stmt.Value)

	case ast.StmtReturn:
		vt := Type(TypeUnit)
		span := stmt.Span
		if stmt.Value.IsValid() {
			vt = c.checkExpr(stmt.Value)
			span = c.tree.Expr(stmt.Value).Span
		}
		c.constrain(Constraint{
			Left: c.fnRet, Right: vt,
			LeftSpan:  c.fnRetSpan,
			RightSpan: span,
			Reason:    "return value must match the declared return type",
		})

	case ast.StmtWhile:
		cond := c.checkExpr(stmt.Cond)
		c.requireBool(cond, c.tree.Expr(stmt.Cond).Span, "loop condition must be bool")
		c.checkBlock(stmt.Body)

	case ast.StmtFor:
		from := c.checkExpr(stmt.From)
		to := c.checkExpr(stmt.To)
		c.constrain(Constraint{
			Left: from, Right: to,
			LeftSpan:  c.tree.Expr(stmt.From).Span,
			RightSpan: c.tree.Expr(stmt.To).Span,
			Reason:    "range bounds must have the same type",
		})
		c.requireNumeric(from, c.tree.Expr(stmt.From).Span, "..")
		if sym, ok := c.stmtSyms[stmtID]; ok {
			c.info.SymTypes[sym] = from
		}
		c.checkBlock(stmt.Body)

	case ast.StmtBreak, ast.StmtContinue:
		// Loop placement is validated during lowering.
	}
}
