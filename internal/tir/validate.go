package tir

import "fmt"

// Validation runs after lowering and enforces the SSA invariants the rest of
// the toolchain relies on: one terminator per block, existing targets, one
// definition per value, no use ahead of its definition on any path, and one
// merge operand per predecessor edge.

// ValidateModule validates every function and returns the first violation.
func ValidateModule(m *Module) error {
	for _, fn := range m.Functions {
		if err := Validate(fn); err != nil {
			return err
		}
	}
	return nil
}

// Validate checks one function's CFG and SSA form.
func Validate(fn *Function) error {
	v := &validator{fn: fn}
	if err := v.checkBlocks(); err != nil {
		return err
	}
	v.collectDefs()
	if v.err != nil {
		return v.err
	}
	v.computeDominators()
	v.checkUses()
	// v.err is a typed pointer; returning it directly would yield a non-nil
	// interface wrapping nil.
	if v.err != nil {
		return v.err
	}
	return nil
}

type validator struct {
	fn  *Function
	err *LoweringError

	preds [][]BlockID

	// defSite locates each value: the defining block and instruction index.
	// Parameters live in the entry block at index -1.
	defSite map[ValueID]site

	reachable []bool
	rpo       []BlockID
	rpoIndex  []int
	idom      []BlockID
}

type site struct {
	block BlockID
	index int
}

func (v *validator) fail(format string, args ...any) {
	if v.err == nil {
		v.err = &LoweringError{Kind: InvalidControlFlow, Function: v.fn.Name,
			Message: fmt.Sprintf(format, args...)}
	}
}

func (v *validator) checkBlocks() error {
	n := len(v.fn.Blocks)
	if n == 0 {
		return &LoweringError{Kind: InvalidControlFlow, Function: v.fn.Name, Message: "function has no blocks"}
	}
	for _, b := range v.fn.Blocks {
		if b.Term.Kind == TermNone {
			v.fail("block %s has no terminator", b.ID)
		}
		for _, succ := range b.Term.Successors() {
			if int(succ) >= n {
				v.fail("block %s targets nonexistent block %s", b.ID, succ)
			}
		}
	}
	if v.err != nil {
		return v.err
	}
	v.preds = predecessors(v.fn)
	return nil
}

func (v *validator) collectDefs() {
	v.defSite = make(map[ValueID]site, v.fn.NumValues())
	for _, p := range v.fn.Params {
		v.defSite[p.Value] = site{block: v.fn.Entry, index: -1}
	}
	for _, b := range v.fn.Blocks {
		for i, in := range b.Instrs {
			if !in.Result.IsValid() {
				v.fail("instruction %d in %s has no result value", i, b.ID)
				return
			}
			if _, dup := v.defSite[in.Result]; dup {
				v.fail("value %s is defined more than once", in.Result)
				return
			}
			v.defSite[in.Result] = site{block: b.ID, index: i}
		}
	}
}

// computeDominators builds immediate dominators over the reachable blocks
// using the iterative reverse-postorder algorithm.
func (v *validator) computeDominators() {
	n := len(v.fn.Blocks)
	v.reachable = make([]bool, n)
	v.rpoIndex = make([]int, n)

	var post []BlockID
	var walk func(BlockID)
	walk = func(id BlockID) {
		v.reachable[id] = true
		for _, succ := range v.fn.Blocks[id].Term.Successors() {
			if !v.reachable[succ] {
				walk(succ)
			}
		}
		post = append(post, id)
	}
	walk(v.fn.Entry)

	v.rpo = make([]BlockID, 0, len(post))
	for i := len(post) - 1; i >= 0; i-- {
		v.rpo = append(v.rpo, post[i])
	}
	for i, id := range v.rpo {
		v.rpoIndex[id] = i
	}

	const undefined = BlockID(^uint32(0))
	v.idom = make([]BlockID, n)
	for i := range v.idom {
		v.idom[i] = undefined
	}
	v.idom[v.fn.Entry] = v.fn.Entry

	changed := true
	for changed {
		changed = false
		for _, b := range v.rpo {
			if b == v.fn.Entry {
				continue
			}
			newIdom := undefined
			for _, p := range v.preds[b] {
				if !v.reachable[p] || v.idom[p] == undefined {
					continue
				}
				if newIdom == undefined {
					newIdom = p
				} else {
					newIdom = v.intersect(p, newIdom)
				}
			}
			if newIdom != undefined && v.idom[b] != newIdom {
				v.idom[b] = newIdom
				changed = true
			}
		}
	}
}

func (v *validator) intersect(a, b BlockID) BlockID {
	for a != b {
		for v.rpoIndex[a] > v.rpoIndex[b] {
			a = v.idom[a]
		}
		for v.rpoIndex[b] > v.rpoIndex[a] {
			b = v.idom[b]
		}
	}
	return a
}

// dominates reports whether block a dominates block b (blocks dominate
// themselves).
func (v *validator) dominates(a, b BlockID) bool {
	for {
		if a == b {
			return true
		}
		if b == v.fn.Entry {
			return false
		}
		b = v.idom[b]
	}
}

// checkUses walks every operand of every reachable block and verifies its
// definition dominates the use.
func (v *validator) checkUses() {
	for _, b := range v.fn.Blocks {
		if !v.reachable[b.ID] {
			continue
		}
		for i, in := range b.Instrs {
			if in.Op == OpMerge {
				if len(in.Incoming) != len(v.preds[b.ID]) {
					v.fail("merge %s in %s has %d operands for %d predecessors",
						in.Result, b.ID, len(in.Incoming), len(v.preds[b.ID]))
					return
				}
				for _, inc := range in.Incoming {
					if !v.isPred(b.ID, inc.Pred) {
						v.fail("merge %s in %s names non-predecessor %s", in.Result, b.ID, inc.Pred)
						return
					}
					// The operand must reach the end of its edge's source.
					v.checkUse(inc.Value, inc.Pred, len(v.fn.Blocks[inc.Pred].Instrs))
				}
				continue
			}
			for _, a := range in.Args {
				v.checkUse(a, b.ID, i)
			}
		}
		if b.Term.Cond.IsValid() {
			v.checkUse(b.Term.Cond, b.ID, len(b.Instrs))
		}
		if b.Term.Kind == TermReturn && b.Term.Value.IsValid() {
			v.checkUse(b.Term.Value, b.ID, len(b.Instrs))
		}
		if v.err != nil {
			return
		}
	}
}

func (v *validator) isPred(block, cand BlockID) bool {
	for _, p := range v.preds[block] {
		if p == cand {
			return true
		}
	}
	return false
}

// checkUse verifies the value's definition reaches a use at the given
// position: same block and earlier, or a dominating block.
func (v *validator) checkUse(val ValueID, block BlockID, index int) {
	if v.err != nil {
		return
	}
	def, ok := v.defSite[val]
	if !ok {
		v.fail("use of undefined value %s in %s", val, block)
		return
	}
	if def.block == block {
		if def.index >= index {
			v.fail("value %s is used in %s before its definition", val, block)
		}
		return
	}
	if !v.reachable[def.block] || !v.dominates(def.block, block) {
		v.fail("value %s does not dominate its use in %s", val, block)
	}
}
