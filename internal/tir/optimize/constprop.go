// Package optimize holds cleanup passes over lowered TIR. They preserve SSA
// form; Validate accepts their output whenever it accepted their input.
package optimize

import (
	"github.com/DrTomLLC/T-Programming-Language/internal/tir"
)

// lattice positions for sparse constant propagation.
type latticeValue int

const (
	bottom latticeValue = iota // not yet analyzed
	constant
	top // varies at runtime
)

type constInfo struct {
	lattice latticeValue
	value   any // valid only at constant
}

// PropagateConstants folds instructions whose operands are all known
// constants and rewrites branches on a constant condition into jumps. The
// unreachable arm is left for dead-code elimination.
func PropagateConstants(m *tir.Module) {
	for _, fn := range m.Functions {
		propagateFunction(fn)
	}
}

func propagateFunction(fn *tir.Function) {
	lattice := make(map[tir.ValueID]*constInfo, fn.NumValues())
	get := func(v tir.ValueID) *constInfo {
		if info, ok := lattice[v]; ok {
			return info
		}
		return &constInfo{lattice: bottom}
	}
	set := func(v tir.ValueID, info *constInfo) bool {
		cur, ok := lattice[v]
		if ok && cur.lattice == info.lattice && cur.value == info.value {
			return false
		}
		lattice[v] = info
		return true
	}

	for _, p := range fn.Params {
		lattice[p.Value] = &constInfo{lattice: top}
	}

	changed := true
	for changed {
		changed = false
		for _, b := range fn.Blocks {
			for _, in := range b.Instrs {
				if set(in.Result, evaluate(in, get)) {
					changed = true
				}
			}
		}
	}

	// Rewrite folded instructions into constants in place. Results keep
	// their IDs, so no use sites change.
	for _, b := range fn.Blocks {
		for _, in := range b.Instrs {
			if in.Op == tir.OpConst || in.Op == tir.OpMerge {
				continue
			}
			if info := get(in.Result); info.lattice == constant {
				in.Op = tir.OpConst
				in.Value = info.value
				in.Args = nil
			}
		}
		if b.Term.Kind == tir.TermBranch {
			if info := get(b.Term.Cond); info.lattice == constant {
				target := b.Term.Else
				if taken, ok := info.value.(bool); ok && taken {
					target = b.Term.Then
				}
				b.Term = tir.Terminator{Kind: tir.TermJump, To: target}
			}
		}
	}
}

// evaluate computes the lattice position of one instruction's result.
func evaluate(in *tir.Instr, get func(tir.ValueID) *constInfo) *constInfo {
	switch in.Op {
	case tir.OpConst:
		return &constInfo{lattice: constant, value: in.Value}

	case tir.OpAdd, tir.OpSub, tir.OpMul, tir.OpDiv, tir.OpRem,
		tir.OpEq, tir.OpNe, tir.OpLt, tir.OpLe, tir.OpGt, tir.OpGe:
		l, r := get(in.Args[0]), get(in.Args[1])
		if l.lattice == top || r.lattice == top {
			return &constInfo{lattice: top}
		}
		if l.lattice == constant && r.lattice == constant {
			return foldBinary(in.Op, l.value, r.value)
		}
		return &constInfo{lattice: bottom}

	case tir.OpNot:
		x := get(in.Args[0])
		if b, ok := x.value.(bool); x.lattice == constant && ok {
			return &constInfo{lattice: constant, value: !b}
		}
		return &constInfo{lattice: x.lattice}

	case tir.OpNeg:
		x := get(in.Args[0])
		if x.lattice == constant {
			switch v := x.value.(type) {
			case int64:
				return &constInfo{lattice: constant, value: -v}
			case float64:
				return &constInfo{lattice: constant, value: -v}
			}
		}
		return &constInfo{lattice: x.lattice}

	case tir.OpMerge:
		return mergeIncoming(in, get)

	default:
		// Calls, loads, and constructors produce runtime values.
		return &constInfo{lattice: top}
	}
}

// mergeIncoming joins the operands of a merge: any disagreement or any
// runtime operand forces the result to vary.
func mergeIncoming(in *tir.Instr, get func(tir.ValueID) *constInfo) *constInfo {
	merged := &constInfo{lattice: bottom}
	for _, inc := range in.Incoming {
		x := get(inc.Value)
		switch {
		case x.lattice == top:
			return &constInfo{lattice: top}
		case x.lattice == bottom:
			continue
		case merged.lattice == bottom:
			merged = x
		case merged.value != x.value:
			return &constInfo{lattice: top}
		}
	}
	return merged
}

func foldBinary(op tir.Opcode, l, r any) *constInfo {
	li, lInt := l.(int64)
	ri, rInt := r.(int64)
	if lInt && rInt {
		switch op {
		case tir.OpAdd:
			return &constInfo{lattice: constant, value: li + ri}
		case tir.OpSub:
			return &constInfo{lattice: constant, value: li - ri}
		case tir.OpMul:
			return &constInfo{lattice: constant, value: li * ri}
		case tir.OpDiv:
			if ri == 0 {
				return &constInfo{lattice: top}
			}
			return &constInfo{lattice: constant, value: li / ri}
		case tir.OpRem:
			if ri == 0 {
				return &constInfo{lattice: top}
			}
			return &constInfo{lattice: constant, value: li % ri}
		case tir.OpEq:
			return &constInfo{lattice: constant, value: li == ri}
		case tir.OpNe:
			return &constInfo{lattice: constant, value: li != ri}
		case tir.OpLt:
			return &constInfo{lattice: constant, value: li < ri}
		case tir.OpLe:
			return &constInfo{lattice: constant, value: li <= ri}
		case tir.OpGt:
			return &constInfo{lattice: constant, value: li > ri}
		case tir.OpGe:
			return &constInfo{lattice: constant, value: li >= ri}
		}
	}

	lb, lBool := l.(bool)
	rb, rBool := r.(bool)
	if lBool && rBool {
		switch op {
		case tir.OpEq:
			return &constInfo{lattice: constant, value: lb == rb}
		case tir.OpNe:
			return &constInfo{lattice: constant, value: lb != rb}
		}
	}

	return &constInfo{lattice: top}
}
