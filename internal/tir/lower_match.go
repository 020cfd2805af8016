package tir

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/DrTomLLC/T-Programming-Language/internal/ast"
	"github.com/DrTomLLC/T-Programming-Language/internal/lexer"
	"github.com/DrTomLLC/T-Programming-Language/internal/types"
)

// lowerMatch desugars a match into a chain of tag comparisons feeding per-arm
// blocks; arm values reconverge in a merge at the exit block. A dense tag
// space folds into the same chain because the terminator set is fixed to
// jump, branch, and return.
func (l *Lowerer) lowerMatch(id ast.ExprID, e *ast.Expr) ValueID {
	scrut := l.lowerExpr(e.X)
	st := l.typeOf(e.X)

	exit := l.newBlock("match.end")
	sources := map[BlockID]ValueID{}

	// The trap for a failed chain. Exhaustiveness checking makes it
	// unreachable; it exists so every test has somewhere to fail to.
	failB := BlockID(0)
	haveFail := false
	fail := func() BlockID {
		if !haveFail {
			failB = l.newBlock("match.fail")
			l.fn.Blocks[failB].Term = Terminator{Kind: TermReturn}
			haveFail = true
		}
		return failB
	}

	for i, arm := range e.Arms {
		armB := l.newBlock(fmt.Sprintf("match.arm%d", i))

		// Where this arm's test goes when it does not match.
		var next BlockID
		haveNext := false
		miss := func() BlockID {
			if !haveNext {
				if i < len(e.Arms)-1 {
					next = l.newBlock(fmt.Sprintf("match.test%d", i+1))
				} else {
					next = fail()
				}
				haveNext = true
			}
			return next
		}

		l.lowerPatternTest(scrut, st, arm.Pat, armB, miss)

		l.cur = armB
		l.lowerPatternBind(scrut, st, arm.Pat)
		if arm.Guard.IsValid() {
			g := l.lowerExpr(arm.Guard)
			bodyB := l.newBlock(fmt.Sprintf("match.arm%d.body", i))
			l.setBranch(g, bodyB, miss())
			l.cur = bodyB
		}

		v := l.lowerExpr(arm.Body)
		if !l.terminated() {
			sources[l.cur] = v
			l.setJump(exit)
		}

		if i < len(e.Arms)-1 {
			l.cur = miss() // next arm's test position
		}
	}

	l.cur = exit
	return l.exprMerge(exit, l.typeOf(id), sources)
}

// lowerPatternTest emits the runtime check that the subject matches the
// pattern, terminating the current block with a jump to ok or a branch
// between ok and miss().
func (l *Lowerer) lowerPatternTest(subject ValueID, st types.Type, patID ast.PatID, ok BlockID, miss func() BlockID) {
	pat := l.tree.Pat(patID)

	switch pat.Kind {
	case ast.PatWildcard, ast.PatBinding:
		l.setJump(ok)

	case ast.PatLiteral:
		pv := l.emit(&Instr{Op: OpConst, Type: st, Value: literalValue(pat)})
		c := l.emit(&Instr{Op: OpEq, Type: types.TypeBool, Args: []ValueID{subject, pv}})
		l.setBranch(c, ok, miss())

	case ast.PatVariant:
		l.lowerVariantTest(subject, st, pat, ok, miss)

	case ast.PatTuple:
		tt, isTuple := st.(*types.Tuple)
		elemType := func(j int) types.Type {
			if isTuple && j < len(tt.Elems) {
				return tt.Elems[j]
			}
			return types.TypeError
		}
		load := func(j int, t types.Type) ValueID {
			return l.emit(&Instr{Op: OpTupleGet, Type: t, Index: j, Args: []ValueID{subject}})
		}
		l.lowerElemTests(pat.Elems, elemType, load, ok, miss)

	default:
		l.setJump(ok)
	}
}

func (l *Lowerer) lowerVariantTest(subject ValueID, st types.Type, pat *ast.Pattern, ok BlockID, miss func() BlockID) {
	enum, isEnum := st.(*types.Enum)
	if !isEnum {
		l.fail(InvalidControlFlow, "variant pattern '%s' against non-enum type %s", pat.Name.Name, st)
		l.setJump(ok)
		return
	}
	tag := variantTag(enum, pat.Name.Name)

	tv := l.emit(&Instr{Op: OpEnumTag, Type: types.TypeI32, Args: []ValueID{subject}})
	kv := l.emit(&Instr{Op: OpConst, Type: types.TypeI32, Value: int64(tag)})
	c := l.emit(&Instr{Op: OpEq, Type: types.TypeBool, Args: []ValueID{tv, kv}})

	if allIrrefutable(l.tree, pat.Elems) {
		l.setBranch(c, ok, miss())
		return
	}

	// The payload needs its own checks; they only run once the tag matched.
	payloadB := l.newBlock("match.payload")
	l.setBranch(c, payloadB, miss())
	l.cur = payloadB

	var payload []types.Type
	if v, found := enum.Variant(pat.Name.Name); found {
		payload = v.Payload
	}
	elemType := func(j int) types.Type {
		if j < len(payload) {
			return payload[j]
		}
		return types.TypeError
	}
	load := func(j int, t types.Type) ValueID {
		return l.emit(&Instr{Op: OpEnumPayload, Type: t, Tag: tag, Index: j, Args: []ValueID{subject}})
	}
	l.lowerElemTests(pat.Elems, elemType, load, ok, miss)
}

// lowerElemTests chains the refutable element checks of a compound pattern:
// each check that passes falls through to the next, the last one reaches ok.
func (l *Lowerer) lowerElemTests(elems []ast.PatID, elemType func(int) types.Type, load func(int, types.Type) ValueID, ok BlockID, miss func() BlockID) {
	last := -1
	for j, el := range elems {
		if !irrefutable(l.tree, el) {
			last = j
		}
	}
	if last < 0 {
		l.setJump(ok)
		return
	}

	for j, el := range elems {
		if irrefutable(l.tree, el) {
			continue
		}
		t := elemType(j)
		ev := load(j, t)
		stepOk := ok
		if j != last {
			stepOk = l.newBlock("match.elem")
		}
		l.lowerPatternTest(ev, t, el, stepOk, miss)
		l.cur = stepOk
	}
}

// lowerPatternBind extracts and binds the pattern's variables in the arm
// block, after the test chain has committed to this arm.
func (l *Lowerer) lowerPatternBind(subject ValueID, st types.Type, patID ast.PatID) {
	pat := l.tree.Pat(patID)

	switch pat.Kind {
	case ast.PatBinding:
		if sym, ok := l.patSyms[patID]; ok {
			l.writeVar(sym, subject)
		}

	case ast.PatVariant:
		enum, isEnum := st.(*types.Enum)
		if !isEnum {
			return
		}
		tag := variantTag(enum, pat.Name.Name)
		var payload []types.Type
		if v, found := enum.Variant(pat.Name.Name); found {
			payload = v.Payload
		}
		for j, el := range pat.Elems {
			t := types.Type(types.TypeError)
			if j < len(payload) {
				t = payload[j]
			}
			ev := l.emit(&Instr{Op: OpEnumPayload, Type: t, Tag: tag, Index: j, Args: []ValueID{subject}})
			l.lowerPatternBind(ev, t, el)
		}

	case ast.PatTuple:
		tt, isTuple := st.(*types.Tuple)
		for j, el := range pat.Elems {
			t := types.Type(types.TypeError)
			if isTuple && j < len(tt.Elems) {
				t = tt.Elems[j]
			}
			ev := l.emit(&Instr{Op: OpTupleGet, Type: t, Index: j, Args: []ValueID{subject}})
			l.lowerPatternBind(ev, t, el)
		}
	}
}

func irrefutable(tree *ast.Tree, patID ast.PatID) bool {
	pat := tree.Pat(patID)
	switch pat.Kind {
	case ast.PatWildcard, ast.PatBinding:
		return true
	case ast.PatTuple:
		return allIrrefutable(tree, pat.Elems)
	default:
		return false
	}
}

func allIrrefutable(tree *ast.Tree, elems []ast.PatID) bool {
	for _, el := range elems {
		if !irrefutable(tree, el) {
			return false
		}
	}
	return true
}

func literalValue(pat *ast.Pattern) any {
	switch pat.Tok {
	case lexer.INT:
		return parseIntText(pat.Text)
	case lexer.FLOAT:
		f, _ := strconv.ParseFloat(strings.ReplaceAll(pat.Text, "_", ""), 64)
		return f
	case lexer.STRING:
		return pat.Text
	case lexer.CHAR:
		return firstRune(pat.Text)
	case lexer.TRUE:
		return true
	case lexer.FALSE:
		return false
	}
	return nil
}
