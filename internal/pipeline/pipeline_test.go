package pipeline_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/DrTomLLC/T-Programming-Language/internal/ast"
	"github.com/DrTomLLC/T-Programming-Language/internal/diag"
	"github.com/DrTomLLC/T-Programming-Language/internal/lexer"
	"github.com/DrTomLLC/T-Programming-Language/internal/pipeline"
	"github.com/DrTomLLC/T-Programming-Language/internal/sema"
	"github.com/DrTomLLC/T-Programming-Language/internal/source"
	"github.com/DrTomLLC/T-Programming-Language/internal/tir"
	"github.com/DrTomLLC/T-Programming-Language/internal/types"
)

const goodUnit = `
fn add(a: i32, b: i32) -> i32 { a + b }

fn main() -> i32 { add(1, 2) }
`

func TestCompileCleanUnitProducesTIR(t *testing.T) {
	r := pipeline.Compile(pipeline.Unit{Filename: "main.t", Source: goodUnit}, pipeline.Hooks{}, nil)

	if r.HasErrors() {
		t.Fatalf("unexpected diagnostics: %+v", r.Diagnostics)
	}
	if r.Err != nil {
		t.Fatalf("unexpected lowering error: %v", r.Err)
	}
	if r.TIR == nil || len(r.TIR.Functions) != 2 {
		t.Fatalf("expected a lowered module with 2 functions, got %+v", r.TIR)
	}
}

func TestHooksFireInStageOrder(t *testing.T) {
	var order []string
	hooks := pipeline.Hooks{
		OnTokens: func(unit string, tokens []lexer.Token) {
			if len(tokens) == 0 {
				t.Error("no tokens delivered")
			}
			order = append(order, "tokens")
		},
		OnAST: func(unit string, tree *ast.Tree) {
			if tree.NumItems() == 0 {
				t.Error("no items delivered")
			}
			order = append(order, "ast")
		},
		OnTyped: func(unit string, tree *ast.Tree, res *sema.Resolution, info *types.Info) {
			order = append(order, "typed")
		},
		OnTIR: func(unit string, module *tir.Module) {
			order = append(order, "tir")
		},
	}

	r := pipeline.Compile(pipeline.Unit{Filename: "main.t", Source: goodUnit}, hooks, nil)
	if r.HasErrors() || r.Err != nil {
		t.Fatalf("unexpected failure: %+v %v", r.Diagnostics, r.Err)
	}

	want := []string{"tokens", "ast", "typed", "tir"}
	if len(order) != len(want) {
		t.Fatalf("expected hooks %v, got %v", want, order)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("expected hooks %v, got %v", want, order)
		}
	}
}

func TestUnterminatedStringStillParses(t *testing.T) {
	// The scanner reports the broken literal once, closes it, and the parser
	// keeps going on the recovered token stream.
	src := "fn main() {\n    let s = \"abc;\n}\n"
	r := pipeline.Compile(pipeline.Unit{Filename: "main.t", Source: src}, pipeline.Hooks{}, nil)

	var scanErrs []diag.Diagnostic
	for _, d := range r.Diagnostics {
		if d.Stage == diag.StageScan {
			scanErrs = append(scanErrs, d)
		}
	}
	if len(scanErrs) != 1 || scanErrs[0].Code != diag.CodeLexUnterminatedLiteral {
		t.Fatalf("expected exactly one unterminated-literal diagnostic, got %+v", r.Diagnostics)
	}
	if r.Tree == nil || r.Tree.NumItems() == 0 {
		t.Fatalf("expected the parse to still produce the fn item")
	}
	if r.TIR != nil {
		t.Fatalf("lowering must not run on a unit with errors")
	}
}

func TestErroredUnitSkipsLowering(t *testing.T) {
	src := `
fn main() -> i32 {
    x = 1;
    let x = 0;
    x
}
`
	var tirCalled bool
	hooks := pipeline.Hooks{
		OnTIR: func(unit string, module *tir.Module) { tirCalled = true },
	}

	r := pipeline.Compile(pipeline.Unit{Filename: "main.t", Source: src}, hooks, nil)
	if !r.HasErrors() {
		t.Fatalf("expected a name error, got none")
	}
	if r.TIR != nil || tirCalled {
		t.Fatalf("lowering must be skipped when earlier stages report errors")
	}
	// The resolver and checker still ran on the broken unit.
	if r.Resolution == nil || r.Info == nil {
		t.Fatalf("resolution and checking should still run")
	}
}

func TestCompileAllSharesOneInterner(t *testing.T) {
	units := make([]pipeline.Unit, 8)
	for i := range units {
		// Every unit declares the same helper plus one unique function, so
		// the shared interner ends up with exactly 9 distinct names.
		units[i] = pipeline.Unit{
			Filename: fmt.Sprintf("u%d.t", i),
			Source:   fmt.Sprintf("fn helper() -> i32 { 1 }\nfn f%d() -> i32 { helper() }\n", i),
		}
	}

	in := source.NewInterner()
	results, err := pipeline.CompileAll(context.Background(), units, pipeline.Hooks{}, in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i, r := range results {
		if r == nil || r.Filename != units[i].Filename {
			t.Fatalf("result %d out of order: %+v", i, r)
		}
		if r.HasErrors() || r.TIR == nil {
			t.Fatalf("unit %s failed: %+v", units[i].Filename, r.Diagnostics)
		}
	}
	if got := in.Len(); got != 9 {
		t.Fatalf("expected 9 interned names (helper + 8 uniques), got %d", got)
	}
}

func TestCompileAllKeepsPerUnitDiagnostics(t *testing.T) {
	units := []pipeline.Unit{
		{Filename: "good.t", Source: "fn ok() -> i32 { 1 }\n"},
		{Filename: "bad.t", Source: "fn broken() -> i32 { missing }\n"},
	}

	results, err := pipeline.CompileAll(context.Background(), units, pipeline.Hooks{}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if results[0].HasErrors() {
		t.Fatalf("good unit should be clean: %+v", results[0].Diagnostics)
	}
	if !results[1].HasErrors() {
		t.Fatalf("bad unit should carry its name error")
	}
	found := false
	for _, d := range results[1].Diagnostics {
		if d.Code == diag.CodeNameUndefined {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected NAME_UNDEFINED on the bad unit, got %+v", results[1].Diagnostics)
	}
}

func TestCompileAllHooksSeeEveryUnit(t *testing.T) {
	units := []pipeline.Unit{
		{Filename: "a.t", Source: "fn a() -> i32 { 1 }\n"},
		{Filename: "b.t", Source: "fn b() -> i32 { 2 }\n"},
		{Filename: "c.t", Source: "fn c() -> i32 { 3 }\n"},
	}

	var mu sync.Mutex
	seen := map[string]bool{}
	hooks := pipeline.Hooks{
		OnTIR: func(unit string, module *tir.Module) {
			mu.Lock()
			seen[unit] = true
			mu.Unlock()
		},
	}

	if _, err := pipeline.CompileAll(context.Background(), units, hooks, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, u := range units {
		if !seen[u.Filename] {
			t.Fatalf("hook never saw unit %s", u.Filename)
		}
	}
}
