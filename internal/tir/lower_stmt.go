package tir

import (
	"github.com/DrTomLLC/T-Programming-Language/internal/ast"
	"github.com/DrTomLLC/T-Programming-Language/internal/diag"
	"github.com/DrTomLLC/T-Programming-Language/internal/types"
)

func (l *Lowerer) lowerStmt(stmtID ast.StmtID) {
	stmt := l.tree.Stmt(stmtID)

	switch stmt.Kind {
	case ast.StmtLet:
		val := l.lowerExpr(stmt.Value)
		if sym, ok := l.stmtSyms[stmtID]; ok {
			l.writeVar(sym, val)
		}

	case ast.StmtExpr:
		l.lowerExpr(stmt.Value)

	case ast.StmtReturn:
		val := NoValue
		if stmt.Value.IsValid() {
			val = l.lowerExpr(stmt.Value)
		}
		l.setReturn(val)

	case ast.StmtWhile:
		l.lowerWhile(stmt)

	case ast.StmtFor:
		l.lowerFor(stmtID, stmt)

	case ast.StmtBreak:
		if len(l.loops) == 0 {
			l.errorf(diag.CodeLowerInvalidJump, stmt.Span, "break outside of a loop")
			return
		}
		l.setJump(l.loops[len(l.loops)-1].breakTo)

	case ast.StmtContinue:
		if len(l.loops) == 0 {
			l.errorf(diag.CodeLowerInvalidJump, stmt.Span, "continue outside of a loop")
			return
		}
		l.setJump(l.loops[len(l.loops)-1].continueTo)
	}
}

// lowerWhile builds the header/body/exit triple with the condition in the
// header. Loop-carried variables get their merges in the header during pass
// two, once the back edge exists.
func (l *Lowerer) lowerWhile(stmt *ast.Stmt) {
	header := l.newBlock("while.head")
	l.setJump(header)

	l.cur = header
	cond := l.lowerExpr(stmt.Cond)
	body := l.newBlock("while.body")
	exit := l.newBlock("while.end")
	l.setBranch(cond, body, exit)

	l.loops = append(l.loops, loopFrame{continueTo: header, breakTo: exit})
	l.cur = body
	l.lowerBlockExpr(stmt.Body)
	l.setJump(header)
	l.loops = l.loops[:len(l.loops)-1]

	l.cur = exit
}

// lowerFor lowers a range loop: the bounds evaluate once before the header,
// the header compares the loop variable against the upper bound, and a step
// block advances it on the back edge.
func (l *Lowerer) lowerFor(stmtID ast.StmtID, stmt *ast.Stmt) {
	from := l.lowerExpr(stmt.From)
	to := l.lowerExpr(stmt.To)

	sym, hasSym := l.stmtSyms[stmtID]
	if hasSym {
		l.writeVar(sym, from)
	}
	elemType := l.typeOf(stmt.From)

	header := l.newBlock("for.head")
	l.setJump(header)

	l.cur = header
	var iv ValueID
	if hasSym {
		iv = l.readVar(sym)
	} else {
		iv = from
	}
	cond := l.emit(&Instr{Op: OpLt, Type: types.TypeBool, Args: []ValueID{iv, to}})
	body := l.newBlock("for.body")
	step := l.newBlock("for.step")
	exit := l.newBlock("for.end")
	l.setBranch(cond, body, exit)

	l.loops = append(l.loops, loopFrame{continueTo: step, breakTo: exit})
	l.cur = body
	l.lowerBlockExpr(stmt.Body)
	l.setJump(step)
	l.loops = l.loops[:len(l.loops)-1]

	l.cur = step
	if hasSym {
		cv := l.readVar(sym)
		one := l.emit(&Instr{Op: OpConst, Type: elemType, Value: int64(1)})
		next := l.emit(&Instr{Op: OpAdd, Type: elemType, Args: []ValueID{cv, one}})
		l.writeVar(sym, next)
	}
	l.setJump(header)

	l.cur = exit
}
