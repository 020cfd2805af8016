package tir_test

import (
	"strings"
	"testing"

	"github.com/DrTomLLC/T-Programming-Language/internal/diag"
	"github.com/DrTomLLC/T-Programming-Language/internal/parser"
	"github.com/DrTomLLC/T-Programming-Language/internal/sema"
	"github.com/DrTomLLC/T-Programming-Language/internal/tir"
	"github.com/DrTomLLC/T-Programming-Language/internal/types"
)

func lowerSource(t *testing.T, src string) (*tir.Module, []diag.Diagnostic) {
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
	if err != nil {
		t.Fatalf("lowering failed: %v", err)
	}
	return module, diags
}

func lowerNoErrors(t *testing.T, src string) *tir.Module {
	t.Helper()
	module, diags := lowerSource(t, src)
	if len(diags) != 0 {
		t.Fatalf("unexpected lowering diagnostics: %+v", diags)
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

func TestAddLowersToSingleBlock(t *testing.T) {
	m := lowerNoErrors(t, `
fn add(a: i32, b: i32) -> i32 { a + b }
`)

	fn := fnByName(t, m, "add")
	if len(fn.Blocks) != 1 {
		t.Fatalf("expected 1 block, got %d:\n%s", len(fn.Blocks), fn.PrettyPrint())
	}
	entry := fn.Block(fn.Entry)
	if len(entry.Instrs) != 1 || entry.Instrs[0].Op != tir.OpAdd {
		t.Fatalf("expected a single add instruction, got:\n%s", fn.PrettyPrint())
	}
	if entry.Term.Kind != tir.TermReturn || entry.Term.Value != entry.Instrs[0].Result {
		t.Fatalf("expected return of the sum, got %s", entry.Term)
	}
}

func TestIfElseLowersToFourBlocks(t *testing.T) {
	m := lowerNoErrors(t, `
fn pick() -> i32 {
    if true { 1 } else { 2 }
}
`)

	fn := fnByName(t, m, "pick")
	if len(fn.Blocks) != 4 {
		t.Fatalf("expected 4 blocks (entry, then, else, exit), got %d:\n%s",
			len(fn.Blocks), fn.PrettyPrint())
	}
	exit := fn.Blocks[3]
	if len(exit.Instrs) == 0 || exit.Instrs[0].Op != tir.OpMerge {
		t.Fatalf("expected a merge in the exit block, got:\n%s", fn.PrettyPrint())
	}
	if got := len(exit.Instrs[0].Incoming); got != 2 {
		t.Fatalf("expected 2 merge operands, got %d", got)
	}
	if exit.Term.Kind != tir.TermReturn || exit.Term.Value != exit.Instrs[0].Result {
		t.Fatalf("expected return of the merged value, got %s", exit.Term)
	}
}

func TestWhileLoopCarriesVariableThroughHeaderMerge(t *testing.T) {
	m := lowerNoErrors(t, `
fn count() -> i32 {
    let mut x = 0;
    while x < 10 {
        x = x + 1;
    }
    x
}
`)

	fn := fnByName(t, m, "count")
	merges := 0
	for _, b := range fn.Blocks {
		for _, in := range b.Instrs {
			if in.Op == tir.OpMerge {
				merges++
				if len(in.Incoming) != 2 {
					t.Fatalf("loop-carried merge should have 2 operands, got %d:\n%s",
						len(in.Incoming), fn.PrettyPrint())
				}
			}
		}
	}
	if merges == 0 {
		t.Fatalf("expected a merge for the loop-carried variable:\n%s", fn.PrettyPrint())
	}
}

func TestForLoopBuildsHeaderBodyStepExit(t *testing.T) {
	m := lowerNoErrors(t, `
fn sum() -> i32 {
    let mut s = 0;
    for i in 0..10 {
        s = s + i;
    }
    s
}
`)

	fn := fnByName(t, m, "sum")
	var labels []string
	for _, b := range fn.Blocks {
		labels = append(labels, b.Label)
	}
	joined := strings.Join(labels, " ")
	for _, want := range []string{"for.head", "for.body", "for.step", "for.end"} {
		if !strings.Contains(joined, want) {
			t.Fatalf("expected a %s block, got %v", want, labels)
		}
	}
	if countOp(fn, tir.OpMerge) == 0 {
		t.Fatalf("expected loop-carried merges:\n%s", fn.PrettyPrint())
	}
}

func TestEarlyReturnLeavesNoMerge(t *testing.T) {
	// The then branch returns, so the join has a single live edge and the
	// placeholder merge collapses away.
	m := lowerNoErrors(t, `
fn clamp(c: bool, x: i32) -> i32 {
    if c {
        return 0;
    }
    x
}
`)

	fn := fnByName(t, m, "clamp")
	if n := countOp(fn, tir.OpMerge); n != 0 {
		t.Fatalf("expected no merges, got %d:\n%s", n, fn.PrettyPrint())
	}
}

func TestMatchLowersToTagComparisonChain(t *testing.T) {
	m := lowerNoErrors(t, `
enum Color { Red, Green, Blue }

fn describe(c: Color) -> i32 {
    match c {
        Color::Red => 0,
        Color::Green => 1,
        Color::Blue => 2,
    }
}
`)

	fn := fnByName(t, m, "describe")
	if countOp(fn, tir.OpEnumTag) != 3 {
		t.Fatalf("expected 3 tag reads, got %d:\n%s", countOp(fn, tir.OpEnumTag), fn.PrettyPrint())
	}
	found := false
	for _, b := range fn.Blocks {
		for _, in := range b.Instrs {
			if in.Op == tir.OpMerge && len(in.Incoming) == 3 {
				found = true
			}
		}
	}
	if !found {
		t.Fatalf("expected a 3-way merge of arm values:\n%s", fn.PrettyPrint())
	}
}

func TestMatchPayloadBindingExtraction(t *testing.T) {
	m := lowerNoErrors(t, `
enum Option[T] { Some(T), None }

fn unwrap_or_zero(o: Option[i32]) -> i32 {
    match o {
        Option::Some(v) => v,
        Option::None => 0,
    }
}
`)

	fn := fnByName(t, m, "unwrap_or_zero")
	if countOp(fn, tir.OpEnumPayload) == 0 {
		t.Fatalf("expected payload extraction:\n%s", fn.PrettyPrint())
	}
}

func TestShortCircuitAnd(t *testing.T) {
	m := lowerNoErrors(t, `
fn both(a: bool, b: bool) -> bool { a && b }
`)

	fn := fnByName(t, m, "both")
	if len(fn.Blocks) != 3 {
		t.Fatalf("expected 3 blocks (entry, rhs, exit), got %d:\n%s", len(fn.Blocks), fn.PrettyPrint())
	}
	exit := fn.Blocks[2]
	if len(exit.Instrs) == 0 || exit.Instrs[0].Op != tir.OpMerge || len(exit.Instrs[0].Incoming) != 2 {
		t.Fatalf("expected a 2-way merge, got:\n%s", fn.PrettyPrint())
	}
}

func TestConstItemBecomesGlobal(t *testing.T) {
	m := lowerNoErrors(t, `
const LIMIT: i64 = 1000;

fn f() -> i64 { LIMIT }
`)

	if len(m.Globals) != 1 || m.Globals[0].Name != "LIMIT" {
		t.Fatalf("expected one global, got %+v", m.Globals)
	}
	if v, ok := m.Globals[0].Value.(int64); !ok || v != 1000 {
		t.Fatalf("expected folded value 1000, got %v", m.Globals[0].Value)
	}
	fn := fnByName(t, m, "f")
	if countOp(fn, tir.OpGlobal) != 1 {
		t.Fatalf("expected a global read:\n%s", fn.PrettyPrint())
	}
}

func TestBreakOutsideLoopIsDiagnosed(t *testing.T) {
	_, diags := lowerSource(t, `
fn f() {
    break;
}
`)

	if len(diags) != 1 || diags[0].Code != diag.CodeLowerInvalidJump {
		t.Fatalf("expected one invalid-jump diagnostic, got %+v", diags)
	}
}

func TestBreakAndContinueTargetLoopBlocks(t *testing.T) {
	m := lowerNoErrors(t, `
fn f() -> i32 {
    let mut x = 0;
    while true {
        x = x + 1;
        if x > 5 {
            break;
        }
        continue;
    }
    x
}
`)

	fn := fnByName(t, m, "f")
	if len(fn.Blocks) < 4 {
		t.Fatalf("expected loop control flow, got:\n%s", fn.PrettyPrint())
	}
}

func TestStructAndTupleLowering(t *testing.T) {
	m := lowerNoErrors(t, `
struct Point { x: i32, y: i32 }

fn norm(p: Point) -> i32 {
    let q = Point { x: p.x, y: 0 };
    let pair = (q.x, q.y);
    pair.0 + pair.1
}
`)

	fn := fnByName(t, m, "norm")
	if countOp(fn, tir.OpMakeStruct) != 1 {
		t.Fatalf("expected a struct construction:\n%s", fn.PrettyPrint())
	}
	if countOp(fn, tir.OpMakeTuple) != 1 || countOp(fn, tir.OpTupleGet) != 2 {
		t.Fatalf("expected tuple construction and projection:\n%s", fn.PrettyPrint())
	}
}

func TestCallsLowerDirect(t *testing.T) {
	m := lowerNoErrors(t, `
fn add(a: i32, b: i32) -> i32 { a + b }
fn twice(x: i32) -> i32 { add(x, x) }
`)

	fn := fnByName(t, m, "twice")
	entry := fn.Block(fn.Entry)
	var call *tir.Instr
	for _, in := range entry.Instrs {
		if in.Op == tir.OpCall {
			call = in
		}
	}
	if call == nil || call.Callee != "add" || len(call.Args) != 2 {
		t.Fatalf("expected a direct call to add:\n%s", fn.PrettyPrint())
	}
}

func TestGuardedArmFallsThroughToNextTest(t *testing.T) {
	m := lowerNoErrors(t, `
enum Color { Red, Green, Blue }

fn f(c: Color, dark: bool) -> i32 {
    match c {
        Color::Red if dark => 0,
        _ => 1,
    }
}
`)

	fn := fnByName(t, m, "f")
	// The guard must branch, so there are at least entry, arm, guard body,
	// second arm, and exit blocks.
	if len(fn.Blocks) < 5 {
		t.Fatalf("expected guard control flow, got:\n%s", fn.PrettyPrint())
	}
}

func TestPrettyPrintMentionsBlocksAndValues(t *testing.T) {
	m := lowerNoErrors(t, `
fn pick() -> i32 {
    if true { 1 } else { 2 }
}
`)

	out := m.PrettyPrint()
	for _, want := range []string{"fn pick()", "b0:", "br ", "merge", "ret"} {
		if !strings.Contains(out, want) {
			t.Fatalf("printed module missing %q:\n%s", want, out)
		}
	}
}
