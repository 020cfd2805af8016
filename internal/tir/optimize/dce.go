package optimize

import (
	"github.com/DrTomLLC/T-Programming-Language/internal/tir"
)

// EliminateDeadCode drops unreachable blocks and unused values from every
// function. Calls are kept for their effects even when the result is unused.
// Merges whose edges died collapse to their surviving operand.
func EliminateDeadCode(m *tir.Module) {
	for _, fn := range m.Functions {
		dceFunction(fn)
	}
}

// Run applies the standard pass order: fold constants first so the folded
// branches expose unreachable blocks, then sweep.
func Run(m *tir.Module) {
	PropagateConstants(m)
	EliminateDeadCode(m)
}

func dceFunction(fn *tir.Function) {
	reachable := markReachable(fn)

	// Predecessor edges that survive among reachable blocks.
	preds := make([][]tir.BlockID, len(fn.Blocks))
	for _, b := range fn.Blocks {
		if !reachable[b.ID] {
			continue
		}
		for _, succ := range b.Term.Successors() {
			preds[succ] = append(preds[succ], b.ID)
		}
	}

	// Prune merge operands whose edge no longer exists. A merge left with a
	// single operand is a copy; forward it and drop the instruction.
	replace := make(map[tir.ValueID]tir.ValueID)
	removed := make(map[*tir.Instr]bool)
	for _, b := range fn.Blocks {
		if !reachable[b.ID] {
			continue
		}
		for _, in := range b.Instrs {
			if in.Op != tir.OpMerge {
				continue
			}
			kept := in.Incoming[:0]
			for _, inc := range in.Incoming {
				if isEdge(preds[b.ID], inc.Pred) {
					kept = append(kept, inc)
				}
			}
			in.Incoming = kept
			if len(kept) == 1 {
				replace[in.Result] = kept[0].Value
				removed[in] = true
			}
		}
	}

	follow := func(v tir.ValueID) tir.ValueID {
		for {
			next, ok := replace[v]
			if !ok {
				return v
			}
			v = next
		}
	}
	for _, b := range fn.Blocks {
		if !reachable[b.ID] {
			continue
		}
		for _, in := range b.Instrs {
			for i, a := range in.Args {
				in.Args[i] = follow(a)
			}
			for i, inc := range in.Incoming {
				in.Incoming[i].Value = follow(inc.Value)
			}
		}
		if b.Term.Cond.IsValid() {
			b.Term.Cond = follow(b.Term.Cond)
		}
		if b.Term.Kind == tir.TermReturn && b.Term.Value.IsValid() {
			b.Term.Value = follow(b.Term.Value)
		}
	}

	live := markLive(fn, reachable, removed)

	// Rebuild with reachable blocks only, renumbering in place.
	remap := make([]tir.BlockID, len(fn.Blocks))
	var blocks []*tir.BasicBlock
	for _, b := range fn.Blocks {
		if reachable[b.ID] {
			remap[b.ID] = tir.BlockID(len(blocks))
			blocks = append(blocks, b)
		}
	}
	for _, b := range blocks {
		b.ID = remap[b.ID]

		kept := b.Instrs[:0]
		for _, in := range b.Instrs {
			if removed[in] {
				continue
			}
			if !live[in.Result] && in.Op != tir.OpCall && in.Op != tir.OpCallIndirect {
				continue
			}
			for i, inc := range in.Incoming {
				in.Incoming[i].Pred = remap[inc.Pred]
			}
			kept = append(kept, in)
		}
		b.Instrs = kept

		switch b.Term.Kind {
		case tir.TermJump:
			b.Term.To = remap[b.Term.To]
		case tir.TermBranch:
			b.Term.Then = remap[b.Term.Then]
			b.Term.Else = remap[b.Term.Else]
		}
	}
	fn.Blocks = blocks
	fn.Entry = remap[fn.Entry]
}

func markReachable(fn *tir.Function) []bool {
	reachable := make([]bool, len(fn.Blocks))
	worklist := []tir.BlockID{fn.Entry}
	for len(worklist) > 0 {
		id := worklist[0]
		worklist = worklist[1:]
		if reachable[id] {
			continue
		}
		reachable[id] = true
		worklist = append(worklist, fn.Blocks[id].Term.Successors()...)
	}
	return reachable
}

// markLive computes the transitive closure of values feeding terminators and
// calls.
func markLive(fn *tir.Function, reachable []bool, removed map[*tir.Instr]bool) map[tir.ValueID]bool {
	defOf := make(map[tir.ValueID]*tir.Instr)
	for _, b := range fn.Blocks {
		if !reachable[b.ID] {
			continue
		}
		for _, in := range b.Instrs {
			if !removed[in] {
				defOf[in.Result] = in
			}
		}
	}

	live := make(map[tir.ValueID]bool)
	var worklist []tir.ValueID
	mark := func(v tir.ValueID) {
		if v.IsValid() && !live[v] {
			live[v] = true
			worklist = append(worklist, v)
		}
	}

	for _, b := range fn.Blocks {
		if !reachable[b.ID] {
			continue
		}
		for _, in := range b.Instrs {
			if removed[in] {
				continue
			}
			if in.Op == tir.OpCall || in.Op == tir.OpCallIndirect {
				mark(in.Result)
			}
		}
		if b.Term.Cond.IsValid() {
			mark(b.Term.Cond)
		}
		if b.Term.Kind == tir.TermReturn && b.Term.Value.IsValid() {
			mark(b.Term.Value)
		}
	}

	for len(worklist) > 0 {
		v := worklist[len(worklist)-1]
		worklist = worklist[:len(worklist)-1]
		in, ok := defOf[v]
		if !ok {
			continue // parameter
		}
		for _, a := range in.Args {
			mark(a)
		}
		for _, inc := range in.Incoming {
			mark(inc.Value)
		}
	}
	return live
}

func isEdge(preds []tir.BlockID, from tir.BlockID) bool {
	for _, p := range preds {
		if p == from {
			return true
		}
	}
	return false
}
