package tir_test

import (
	"strings"
	"testing"

	"github.com/DrTomLLC/T-Programming-Language/internal/tir"
	"github.com/DrTomLLC/T-Programming-Language/internal/types"
)

// testFn assembles a function by hand so the validator can be exercised on
// shapes the lowerer never produces.
func testFn(blocks ...*tir.BasicBlock) *tir.Function {
	fn := &tir.Function{
		Name:       "f",
		Return:     types.TypeI32,
		Blocks:     blocks,
		ValueTypes: make([]types.Type, 16),
	}
	for i, b := range blocks {
		b.ID = tir.BlockID(i)
	}
	return fn
}

func TestValidateAcceptsStraightLine(t *testing.T) {
	c := &tir.Instr{Op: tir.OpConst, Result: 1, Type: types.TypeI32, Value: int64(1)}
	fn := testFn(&tir.BasicBlock{
		Instrs: []*tir.Instr{c},
		Term:   tir.Terminator{Kind: tir.TermReturn, Value: 1},
	})

	if err := tir.Validate(fn); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidateRejectsMissingTerminator(t *testing.T) {
	fn := testFn(&tir.BasicBlock{})

	err := tir.Validate(fn)
	if err == nil || !strings.Contains(err.Error(), "no terminator") {
		t.Fatalf("expected missing-terminator error, got %v", err)
	}
}

func TestValidateRejectsDanglingTarget(t *testing.T) {
	fn := testFn(&tir.BasicBlock{
		Term: tir.Terminator{Kind: tir.TermJump, To: 7},
	})

	err := tir.Validate(fn)
	if err == nil || !strings.Contains(err.Error(), "nonexistent") {
		t.Fatalf("expected dangling-target error, got %v", err)
	}
}

func TestValidateRejectsUseBeforeDefinition(t *testing.T) {
	use := &tir.Instr{Op: tir.OpNeg, Result: 1, Type: types.TypeI32, Args: []tir.ValueID{2}}
	def := &tir.Instr{Op: tir.OpConst, Result: 2, Type: types.TypeI32, Value: int64(1)}
	fn := testFn(&tir.BasicBlock{
		Instrs: []*tir.Instr{use, def},
		Term:   tir.Terminator{Kind: tir.TermReturn, Value: 1},
	})

	err := tir.Validate(fn)
	if err == nil || !strings.Contains(err.Error(), "before its definition") {
		t.Fatalf("expected use-before-def error, got %v", err)
	}
}

func TestValidateRejectsDoubleDefinition(t *testing.T) {
	a := &tir.Instr{Op: tir.OpConst, Result: 1, Type: types.TypeI32, Value: int64(1)}
	b := &tir.Instr{Op: tir.OpConst, Result: 1, Type: types.TypeI32, Value: int64(2)}
	fn := testFn(&tir.BasicBlock{
		Instrs: []*tir.Instr{a, b},
		Term:   tir.Terminator{Kind: tir.TermReturn, Value: 1},
	})

	err := tir.Validate(fn)
	if err == nil || !strings.Contains(err.Error(), "more than once") {
		t.Fatalf("expected double-definition error, got %v", err)
	}
}

func TestValidateRejectsMergeOperandMismatch(t *testing.T) {
	// b2 has two predecessors but the merge carries a single operand.
	c := &tir.Instr{Op: tir.OpConst, Result: 1, Type: types.TypeBool, Value: true}
	v2 := &tir.Instr{Op: tir.OpConst, Result: 2, Type: types.TypeI32, Value: int64(1)}
	merge := &tir.Instr{Op: tir.OpMerge, Result: 4, Type: types.TypeI32,
		Incoming: []tir.Incoming{{Pred: 1, Value: 2}}}

	fn := testFn(
		&tir.BasicBlock{
			Instrs: []*tir.Instr{c},
			Term:   tir.Terminator{Kind: tir.TermBranch, Cond: 1, Then: 1, Else: 2},
		},
		&tir.BasicBlock{
			Instrs: []*tir.Instr{v2},
			Term:   tir.Terminator{Kind: tir.TermJump, To: 2},
		},
		&tir.BasicBlock{
			Instrs: []*tir.Instr{merge},
			Term:   tir.Terminator{Kind: tir.TermReturn, Value: 4},
		},
	)

	err := tir.Validate(fn)
	if err == nil || !strings.Contains(err.Error(), "predecessors") {
		t.Fatalf("expected merge-arity error, got %v", err)
	}
}

func TestValidateRejectsValueThatDoesNotDominateUse(t *testing.T) {
	// The value is defined only on the then path but used after the join.
	c := &tir.Instr{Op: tir.OpConst, Result: 1, Type: types.TypeBool, Value: true}
	v2 := &tir.Instr{Op: tir.OpConst, Result: 2, Type: types.TypeI32, Value: int64(1)}

	fn := testFn(
		&tir.BasicBlock{
			Instrs: []*tir.Instr{c},
			Term:   tir.Terminator{Kind: tir.TermBranch, Cond: 1, Then: 1, Else: 2},
		},
		&tir.BasicBlock{
			Instrs: []*tir.Instr{v2},
			Term:   tir.Terminator{Kind: tir.TermJump, To: 2},
		},
		&tir.BasicBlock{
			Term: tir.Terminator{Kind: tir.TermReturn, Value: 2},
		},
	)

	err := tir.Validate(fn)
	if err == nil || !strings.Contains(err.Error(), "dominate") {
		t.Fatalf("expected dominance error, got %v", err)
	}
}

func TestValidateAcceptsLoopWithBackEdgeMerge(t *testing.T) {
	// x = merge(init from b0, next from b1); next = x + 1; loop while cond.
	init := &tir.Instr{Op: tir.OpConst, Result: 1, Type: types.TypeI32, Value: int64(0)}
	merge := &tir.Instr{Op: tir.OpMerge, Result: 2, Type: types.TypeI32,
		Incoming: []tir.Incoming{{Pred: 0, Value: 1}, {Pred: 1, Value: 4}}}
	one := &tir.Instr{Op: tir.OpConst, Result: 3, Type: types.TypeI32, Value: int64(1)}
	next := &tir.Instr{Op: tir.OpAdd, Result: 4, Type: types.TypeI32, Args: []tir.ValueID{2, 3}}
	cond := &tir.Instr{Op: tir.OpLt, Result: 5, Type: types.TypeBool, Args: []tir.ValueID{4, 3}}

	fn := testFn(
		&tir.BasicBlock{
			Instrs: []*tir.Instr{init},
			Term:   tir.Terminator{Kind: tir.TermJump, To: 1},
		},
		&tir.BasicBlock{
			Instrs: []*tir.Instr{merge, one, next, cond},
			Term:   tir.Terminator{Kind: tir.TermBranch, Cond: 5, Then: 1, Else: 2},
		},
		&tir.BasicBlock{
			Term: tir.Terminator{Kind: tir.TermReturn, Value: 2},
		},
	)

	err := tir.Validate(fn)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidateModuleAcceptsCleanFunctions(t *testing.T) {
	// The nil result must be a true nil interface, not a typed nil pointer.
	c := &tir.Instr{Op: tir.OpConst, Result: 1, Type: types.TypeI32, Value: int64(7)}
	fn := testFn(&tir.BasicBlock{
		Instrs: []*tir.Instr{c},
		Term:   tir.Terminator{Kind: tir.TermReturn, Value: 1},
	})

	if err := tir.Validate(fn); err != nil {
		t.Fatalf("clean function rejected: %v", err)
	}
	if err := tir.ValidateModule(&tir.Module{Functions: []*tir.Function{fn}}); err != nil {
		t.Fatalf("clean module rejected: %v", err)
	}
}

func TestValidateModuleStopsAtFirstBrokenFunction(t *testing.T) {
	good := testFn(&tir.BasicBlock{
		Term: tir.Terminator{Kind: tir.TermReturn},
	})
	bad := testFn(&tir.BasicBlock{})
	bad.Name = "broken"

	err := tir.ValidateModule(&tir.Module{Functions: []*tir.Function{good, bad}})
	if err == nil || !strings.Contains(err.Error(), "broken") {
		t.Fatalf("expected the broken function to be named, got %v", err)
	}
}
