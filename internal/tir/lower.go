package tir

import (
	"fmt"

	"github.com/DrTomLLC/T-Programming-Language/internal/ast"
	"github.com/DrTomLLC/T-Programming-Language/internal/diag"
	"github.com/DrTomLLC/T-Programming-Language/internal/sema"
	"github.com/DrTomLLC/T-Programming-Language/internal/types"
)

// Lower converts a resolved, type-checked tree into an SSA module. User
// mistakes that only lowering can see (a stray break, a non-constant
// initializer) come back as diagnostics; structural failures come back as a
// *LoweringError and indicate a bug in an earlier stage. The returned module
// has been validated.
func Lower(tree *ast.Tree, res *sema.Resolution, info *types.Info) (*Module, []diag.Diagnostic, error) {
	l := &Lowerer{
		tree:      tree,
		res:       res,
		info:      info,
		module:    &Module{},
		itemSyms:  make(map[ast.ItemID]sema.SymbolID),
		paramSyms: make(map[ast.ItemID][]sema.SymbolID),
		stmtSyms:  make(map[ast.StmtID]sema.SymbolID),
		patSyms:   make(map[ast.PatID]sema.SymbolID),
	}
	l.buildDefIndex()

	for _, itemID := range tree.Items {
		item := tree.Item(itemID)
		switch item.Kind {
		case ast.ItemConst:
			l.lowerConst(itemID)
		case ast.ItemFn:
			l.lowerFn(itemID)
		}
		if l.err != nil {
			return nil, l.diags, l.err
		}
	}

	if err := ValidateModule(l.module); err != nil {
		return nil, l.diags, err
	}
	return l.module, l.diags, nil
}

// Lowerer holds the per-module state of a lowering run.
type Lowerer struct {
	tree   *ast.Tree
	res    *sema.Resolution
	info   *types.Info
	module *Module
	diags  []diag.Diagnostic
	err    *LoweringError

	// Reverse index from defining nodes to their symbols.
	itemSyms  map[ast.ItemID]sema.SymbolID
	paramSyms map[ast.ItemID][]sema.SymbolID
	stmtSyms  map[ast.StmtID]sema.SymbolID
	patSyms   map[ast.PatID]sema.SymbolID

	// Per-function state, reset by lowerFn.
	fn   *Function
	cur  BlockID
	defs []map[sema.SymbolID]ValueID // local value map per block

	pendingVars  []pendingVar
	pendingExprs []pendingExpr
	replace      map[ValueID]ValueID

	loops []loopFrame
}

// pendingVar is a placeholder merge for a variable read with no local
// definition; its operands are the variable's reaching definition along each
// predecessor edge.
type pendingVar struct {
	block BlockID
	sym   sema.SymbolID
	typ   types.Type
	instr *Instr
}

// pendingExpr is a placeholder merge for an expression that converges from
// several branches; sources maps each branch's end block to its value.
type pendingExpr struct {
	block   BlockID
	instr   *Instr
	sources map[BlockID]ValueID
}

type loopFrame struct {
	continueTo BlockID
	breakTo    BlockID
}

func (l *Lowerer) buildDefIndex() {
	for i := 1; i <= l.res.NumSymbols(); i++ {
		id := sema.SymbolID(i)
		sym := l.res.Symbol(id)
		switch sym.Kind {
		case sema.SymFn, sema.SymStruct, sema.SymEnum, sema.SymConst, sema.SymImport:
			l.itemSyms[sym.Item] = id
		case sema.SymParam:
			params := l.paramSyms[sym.Item]
			for len(params) <= sym.Index {
				params = append(params, sema.NoSymbol)
			}
			params[sym.Index] = id
			l.paramSyms[sym.Item] = params
		case sema.SymLocal, sema.SymLoopVar:
			l.stmtSyms[sym.Stmt] = id
		case sema.SymPatBinding:
			l.patSyms[sym.Pat] = id
		}
	}
}

func (l *Lowerer) fail(kind LoweringErrorKind, format string, args ...any) {
	if l.err != nil {
		return
	}
	name := ""
	if l.fn != nil {
		name = l.fn.Name
	}
	l.err = &LoweringError{Kind: kind, Function: name, Message: fmt.Sprintf(format, args...)}
}

func (l *Lowerer) errorf(code diag.Code, span diag.Span, format string, args ...any) {
	l.diags = append(l.diags, diag.Errorf(diag.StageLower, code, span, format, args...))
}

// typeOf returns the checked type of an expression, substituted to its final
// form. Unrecorded expressions are poison.
func (l *Lowerer) typeOf(id ast.ExprID) types.Type {
	if t := l.info.Type(id); t != nil {
		return t
	}
	return types.TypeError
}

func (l *Lowerer) symType(sym sema.SymbolID) types.Type {
	if t, ok := l.info.SymTypes[sym]; ok {
		return t
	}
	return types.TypeError
}

func isUnit(t types.Type) bool {
	p, ok := t.(*types.Primitive)
	return ok && p.Kind == types.Unit
}

// --- function lowering -----------------------------------------------------

func (l *Lowerer) lowerFn(itemID ast.ItemID) {
	item := l.tree.Item(itemID)

	fnSym := l.itemSyms[itemID]
	sig, _ := l.symType(fnSym).(*types.Function)
	ret := types.Type(types.TypeUnit)
	if sig != nil {
		ret = sig.Return
	}

	l.fn = &Function{
		Name:       item.Name.Name,
		Return:     ret,
		ValueTypes: make([]types.Type, 1),
	}
	l.defs = nil
	l.pendingVars = nil
	l.pendingExprs = nil
	l.replace = make(map[ValueID]ValueID)
	l.loops = nil

	l.cur = l.newBlock("entry")

	// Parameters are values defined at function entry.
	for i, p := range item.Params {
		pt := types.Type(types.TypeError)
		if sig != nil && i < len(sig.Params) {
			pt = sig.Params[i]
		}
		v := l.newValue(pt)
		l.fn.Params = append(l.fn.Params, Param{Name: p.Name.Name, Type: pt, Value: v})
		if syms := l.paramSyms[itemID]; i < len(syms) && syms[i].IsValid() {
			l.defs[l.cur][syms[i]] = v
		}
	}

	tail := l.lowerBlockExpr(item.Body)
	if !l.terminated() {
		if isUnit(ret) {
			l.setReturn(NoValue)
		} else {
			l.setReturn(tail)
		}
	}

	l.resolveMerges()
	l.applyReplacements()

	l.module.Functions = append(l.module.Functions, l.fn)
}

func (l *Lowerer) lowerConst(itemID ast.ItemID) {
	item := l.tree.Item(itemID)
	val, ok := l.foldConst(item.Value)
	if !ok {
		l.fail(UnsupportedConstruct,
			"initializer of constant '%s' does not fold to a literal", item.Name.Name)
		return
	}
	l.module.Globals = append(l.module.Globals, &Global{
		Name:  item.Name.Name,
		Type:  l.symType(l.itemSyms[itemID]),
		Value: val,
	})
}

// --- blocks and values -----------------------------------------------------

func (l *Lowerer) newBlock(label string) BlockID {
	id := BlockID(len(l.fn.Blocks))
	l.fn.Blocks = append(l.fn.Blocks, &BasicBlock{ID: id, Label: label})
	l.defs = append(l.defs, make(map[sema.SymbolID]ValueID))
	return id
}

func (l *Lowerer) newValue(t types.Type) ValueID {
	l.fn.ValueTypes = append(l.fn.ValueTypes, t)
	return ValueID(len(l.fn.ValueTypes) - 1)
}

func (l *Lowerer) block() *BasicBlock { return l.fn.Blocks[l.cur] }

func (l *Lowerer) terminated() bool { return l.block().Term.Kind != TermNone }

// emit appends an instruction to the current block, giving it a fresh result
// value. Instructions after a terminator fall into an unreachable
// continuation block.
func (l *Lowerer) emit(in *Instr) ValueID {
	if l.terminated() {
		l.cur = l.newBlock("dead")
	}
	in.Result = l.newValue(in.Type)
	b := l.block()
	b.Instrs = append(b.Instrs, in)
	return in.Result
}

func (l *Lowerer) setJump(to BlockID) {
	if l.terminated() {
		return
	}
	l.block().Term = Terminator{Kind: TermJump, To: to}
}

func (l *Lowerer) setBranch(cond ValueID, then, els BlockID) {
	if l.terminated() {
		return
	}
	l.block().Term = Terminator{Kind: TermBranch, Cond: cond, Then: then, Else: els}
}

func (l *Lowerer) setReturn(val ValueID) {
	if l.terminated() {
		return
	}
	l.block().Term = Terminator{Kind: TermReturn, Value: val}
}

// --- variables and merges --------------------------------------------------

func (l *Lowerer) writeVar(sym sema.SymbolID, val ValueID) {
	if l.terminated() {
		l.cur = l.newBlock("dead")
	}
	l.defs[l.cur][sym] = val
}

// readVar returns the variable's value in the current block. A read with no
// local definition gets a placeholder merge at the block start; pass two
// fills its operands once all predecessor edges are known.
func (l *Lowerer) readVar(sym sema.SymbolID) ValueID {
	if l.terminated() {
		l.cur = l.newBlock("dead")
	}
	if v, ok := l.defs[l.cur][sym]; ok {
		return v
	}
	return l.placeholderMerge(l.cur, sym, l.symType(sym))
}

func (l *Lowerer) placeholderMerge(block BlockID, sym sema.SymbolID, t types.Type) ValueID {
	in := &Instr{Op: OpMerge, Type: t}
	in.Result = l.newValue(t)
	b := l.fn.Blocks[block]
	b.Instrs = append([]*Instr{in}, b.Instrs...)
	l.defs[block][sym] = in.Result
	l.pendingVars = append(l.pendingVars, pendingVar{block: block, sym: sym, typ: t, instr: in})
	return in.Result
}

// exprMerge inserts a placeholder merge for a branch reconvergence; sources
// are filled against the block's final predecessor set in pass two.
func (l *Lowerer) exprMerge(block BlockID, t types.Type, sources map[BlockID]ValueID) ValueID {
	in := &Instr{Op: OpMerge, Type: t}
	in.Result = l.newValue(t)
	b := l.fn.Blocks[block]
	b.Instrs = append([]*Instr{in}, b.Instrs...)
	l.pendingExprs = append(l.pendingExprs, pendingExpr{block: block, instr: in, sources: sources})
	return in.Result
}

// resolveMerges is the second pass: with every terminator in place the
// predecessor set of each block is final, so each placeholder merge gets one
// operand per predecessor edge. Merges in single-predecessor blocks are
// trivial and collapse to the reaching value itself.
func (l *Lowerer) resolveMerges() {
	preds := predecessors(l.fn)

	// The worklist grows as reaching-definition lookups create merges in
	// intermediate blocks.
	for i := 0; i < len(l.pendingVars); i++ {
		p := l.pendingVars[i]
		ps := preds[p.block]
		if len(ps) == 1 {
			l.replace[p.instr.Result] = l.valueAtEnd(ps[0], p.sym, p.typ, preds)
			p.instr.dead = true
			continue
		}
		for _, pb := range ps {
			p.instr.Incoming = append(p.instr.Incoming, Incoming{
				Pred:  pb,
				Value: l.valueAtEnd(pb, p.sym, p.typ, preds),
			})
		}
	}

	for _, p := range l.pendingExprs {
		ps := preds[p.block]
		if len(ps) == 1 {
			v, ok := p.sources[ps[0]]
			if !ok {
				l.fail(InvalidControlFlow, "merge in %s has no value for predecessor %s", p.block, ps[0])
				continue
			}
			l.replace[p.instr.Result] = v
			p.instr.dead = true
			continue
		}
		for _, pb := range ps {
			v, ok := p.sources[pb]
			if !ok {
				l.fail(InvalidControlFlow, "merge in %s has no value for predecessor %s", p.block, pb)
				continue
			}
			p.instr.Incoming = append(p.instr.Incoming, Incoming{Pred: pb, Value: v})
		}
	}
}

// valueAtEnd returns the variable's reaching definition at the end of a
// block, creating further placeholder merges up the CFG as needed. The merge
// is registered in defs before recursing so loop back edges terminate.
func (l *Lowerer) valueAtEnd(block BlockID, sym sema.SymbolID, t types.Type, preds [][]BlockID) ValueID {
	if v, ok := l.defs[block][sym]; ok {
		return v
	}
	if len(preds[block]) == 0 {
		l.fail(InvalidControlFlow, "no reaching definition for symbol %d in %s", sym, block)
		return NoValue
	}
	return l.placeholderMerge(block, sym, t)
}

func (l *Lowerer) follow(v ValueID) ValueID {
	for {
		r, ok := l.replace[v]
		if !ok {
			return v
		}
		v = r
	}
}

// applyReplacements rewrites every operand through the trivial-merge
// replacement map and drops the dead placeholders.
func (l *Lowerer) applyReplacements() {
	for _, b := range l.fn.Blocks {
		kept := b.Instrs[:0]
		for _, in := range b.Instrs {
			if in.dead {
				continue
			}
			for i, a := range in.Args {
				in.Args[i] = l.follow(a)
			}
			for i := range in.Incoming {
				in.Incoming[i].Value = l.follow(in.Incoming[i].Value)
			}
			kept = append(kept, in)
		}
		b.Instrs = kept
		b.Term.Cond = l.follow(b.Term.Cond)
		b.Term.Value = l.follow(b.Term.Value)
	}
}
