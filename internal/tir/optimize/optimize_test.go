package optimize_test

import (
	"testing"

	"github.com/DrTomLLC/T-Programming-Language/internal/parser"
	"github.com/DrTomLLC/T-Programming-Language/internal/sema"
	"github.com/DrTomLLC/T-Programming-Language/internal/tir"
	"github.com/DrTomLLC/T-Programming-Language/internal/tir/optimize"
	"github.com/DrTomLLC/T-Programming-Language/internal/types"
)

func lowerAndOptimize(t *testing.T, src string) *tir.Module {
	t.Helper()
	tree, parseDiags := parser.ParseSource(src, "test.t")
	if len(parseDiags) != 0 {
		t.Fatalf("unexpected parse diagnostics: %+v", parseDiags)
	}
	res, resolveDiags := sema.Resolve(tree)
	if len(resolveDiags) != 0 {
		t.Fatalf("unexpected resolve diagnostics: %+v", resolveDiags)
	}
	info, checkDiags := types.Check(tree, res)
	if len(checkDiags) != 0 {
		t.Fatalf("unexpected check diagnostics: %+v", checkDiags)
	}
	module, diags, err := tir.Lower(tree, res, info)
	if err != nil || len(diags) != 0 {
		t.Fatalf("lowering failed: %v %+v", err, diags)
	}

	optimize.Run(module)

	// Passes must leave well-formed SSA behind.
	if err := tir.ValidateModule(module); err != nil {
		t.Fatalf("optimized module fails validation: %v\n%s", err, module.PrettyPrint())
	}
	return module
}

func fnByName(t *testing.T, m *tir.Module, name string) *tir.Function {
	t.Helper()
	for _, fn := range m.Functions {
		if fn.Name == name {
			return fn
		}
	}
	t.Fatalf("no function named %s", name)
	return nil
}

func countOp(fn *tir.Function, op tir.Opcode) int {
	n := 0
	for _, b := range fn.Blocks {
		for _, in := range b.Instrs {
			if in.Op == op {
				n++
			}
		}
	}
	return n
}

func TestConstantArithmeticFolds(t *testing.T) {
	m := lowerAndOptimize(t, `
fn f() -> i32 { 2 + 3 * 4 }
`)

	fn := fnByName(t, m, "f")
	if countOp(fn, tir.OpAdd) != 0 || countOp(fn, tir.OpMul) != 0 {
		t.Fatalf("arithmetic on constants should fold:\n%s", fn.PrettyPrint())
	}
	entry := fn.Block(fn.Entry)
	if len(entry.Instrs) != 1 || entry.Instrs[0].Op != tir.OpConst {
		t.Fatalf("expected a single folded constant:\n%s", fn.PrettyPrint())
	}
	if v, ok := entry.Instrs[0].Value.(int64); !ok || v != 14 {
		t.Fatalf("expected 14, got %v", entry.Instrs[0].Value)
	}
}

func TestConstantBranchRemovesDeadArm(t *testing.T) {
	m := lowerAndOptimize(t, `
fn pick() -> i32 {
    if true { 1 } else { 2 }
}
`)

	fn := fnByName(t, m, "pick")
	// The else arm is unreachable once the branch folds, and the join merge
	// collapses onto the surviving edge.
	if len(fn.Blocks) != 3 {
		t.Fatalf("expected 3 blocks after pruning, got %d:\n%s", len(fn.Blocks), fn.PrettyPrint())
	}
	if countOp(fn, tir.OpMerge) != 0 {
		t.Fatalf("expected the join merge to collapse:\n%s", fn.PrettyPrint())
	}
	for _, b := range fn.Blocks {
		if b.Term.Kind == tir.TermBranch {
			t.Fatalf("constant branch should fold to a jump:\n%s", fn.PrettyPrint())
		}
	}
}

func TestUnusedPureValueIsRemoved(t *testing.T) {
	m := lowerAndOptimize(t, `
fn f(x: i32) -> i32 {
    let y = x + 1;
    x
}
`)

	fn := fnByName(t, m, "f")
	if countOp(fn, tir.OpAdd) != 0 {
		t.Fatalf("unused addition should be swept:\n%s", fn.PrettyPrint())
	}
}

func TestCallIsKeptForItsEffects(t *testing.T) {
	m := lowerAndOptimize(t, `
fn g() -> i32 { 1 }

fn f() -> i32 {
    g();
    7
}
`)

	fn := fnByName(t, m, "f")
	if countOp(fn, tir.OpCall) != 1 {
		t.Fatalf("call with unused result must survive:\n%s", fn.PrettyPrint())
	}
}

func TestLoopCarriedMergeSurvives(t *testing.T) {
	m := lowerAndOptimize(t, `
fn count() -> i32 {
    let mut x = 0;
    while x < 10 {
        x = x + 1;
    }
    x
}
`)

	fn := fnByName(t, m, "count")
	found := false
	for _, b := range fn.Blocks {
		for _, in := range b.Instrs {
			if in.Op == tir.OpMerge {
				found = true
				if len(in.Incoming) != 2 {
					t.Fatalf("loop merge lost an edge:\n%s", fn.PrettyPrint())
				}
			}
		}
	}
	if !found {
		t.Fatalf("the loop-carried merge must survive:\n%s", fn.PrettyPrint())
	}
}

func TestFoldingPropagatesThroughMerges(t *testing.T) {
	// Both arms produce the same constant, so the merge itself folds and the
	// comparison below it does too.
	m := lowerAndOptimize(t, `
fn f(c: bool) -> bool {
    let v = if c { 3 } else { 3 };
    v == 3
}
`)

	fn := fnByName(t, m, "f")
	if countOp(fn, tir.OpEq) != 0 {
		t.Fatalf("comparison against a folded merge should fold:\n%s", fn.PrettyPrint())
	}
}

func TestDivisionByZeroIsNotFolded(t *testing.T) {
	m := lowerAndOptimize(t, `
fn f() -> i32 { 1 / 0 }
`)

	fn := fnByName(t, m, "f")
	if countOp(fn, tir.OpDiv) != 1 {
		t.Fatalf("division by zero must stay for the runtime to trap:\n%s", fn.PrettyPrint())
	}
}
