package sema_test

import (
	"strings"
	"testing"

	"github.com/DrTomLLC/T-Programming-Language/internal/ast"
	"github.com/DrTomLLC/T-Programming-Language/internal/diag"
	"github.com/DrTomLLC/T-Programming-Language/internal/parser"
	"github.com/DrTomLLC/T-Programming-Language/internal/sema"
)

func resolveSource(t *testing.T, src string) (*ast.Tree, *sema.Resolution, []diag.Diagnostic) {
	t.Helper()
	tree, parseDiags := parser.ParseSource(src, "test.t")
	if len(parseDiags) != 0 {
		t.Fatalf("unexpected parse diagnostics: %+v", parseDiags)
	}
	res, diags := sema.Resolve(tree)
	return tree, res, diags
}

func resolveNoErrors(t *testing.T, src string) (*ast.Tree, *sema.Resolution) {
	t.Helper()
	tree, res, diags := resolveSource(t, src)
	if len(diags) != 0 {
		t.Fatalf("unexpected resolve diagnostics: %+v", diags)
	}
	return tree, res
}

func TestResolveBindsParamsAndLocals(t *testing.T) {
	tree, res := resolveNoErrors(t, `
fn add(a: i32, b: i32) -> i32 {
    let sum = a + b;
    sum
}
`)

	bound := 0
	for id, sym := range res.ExprSyms {
		if tree.Expr(id).Kind != ast.ExprIdent {
			continue
		}
		switch res.Symbol(sym).Kind {
		case sema.SymParam, sema.SymLocal:
			bound++
		}
	}
	// a, b in the initializer plus sum in the tail.
	if bound != 3 {
		t.Fatalf("expected 3 bound identifier uses, got %d", bound)
	}
}

func TestUseBeforeLetReportsAtUseSite(t *testing.T) {
	_, _, diags := resolveSource(t, `
fn f() -> i32 {
    let y = x + 1;
    let x = 2;
    y
}
`)

	if len(diags) != 1 {
		t.Fatalf("expected exactly 1 diagnostic, got %d: %+v", len(diags), diags)
	}
	d := diags[0]
	if d.Code != diag.CodeNameUndefined {
		t.Fatalf("expected %q, got %q", diag.CodeNameUndefined, d.Code)
	}
	if !strings.Contains(d.Message, "'x'") {
		t.Fatalf("expected message to name 'x', got %q", d.Message)
	}
	// The use site is on line 3; the later definition must not rescue it.
	if d.Span.Line != 3 {
		t.Fatalf("expected diagnostic at the use on line 3, got line %d", d.Span.Line)
	}
}

func TestForwardReferenceBetweenItems(t *testing.T) {
	resolveNoErrors(t, `
fn first() -> i32 { second() }
fn second() -> i32 { 1 }
`)
}

func TestLetShadowingIsAllowed(t *testing.T) {
	resolveNoErrors(t, `
fn f() -> i32 {
    let x = 1;
    let x = x + 1;
    x
}
`)
}

func TestDuplicateParam(t *testing.T) {
	_, _, diags := resolveSource(t, `fn f(a: i32, a: i32) -> i32 { a }`)

	if len(diags) != 1 || diags[0].Code != diag.CodeNameDuplicateBinding {
		t.Fatalf("expected one duplicate-binding diagnostic, got %+v", diags)
	}
	if len(diags[0].Labels) == 0 {
		t.Fatal("expected a label pointing at the previous definition")
	}
}

func TestDuplicateTopLevelItem(t *testing.T) {
	_, _, diags := resolveSource(t, `
fn f() {}
struct f { x: i32 }
`)

	if len(diags) != 1 || diags[0].Code != diag.CodeNameDuplicateBinding {
		t.Fatalf("expected one duplicate-binding diagnostic, got %+v", diags)
	}
}

func TestImportConflictIsAmbiguous(t *testing.T) {
	_, _, diags := resolveSource(t, `
use std::mem::swap;
use core::mem::swap;
`)

	if len(diags) != 1 || diags[0].Code != diag.CodeNameAmbiguousImport {
		t.Fatalf("expected one ambiguous-import diagnostic, got %+v", diags)
	}
}

func TestImportAliasAvoidsConflict(t *testing.T) {
	resolveNoErrors(t, `
use std::mem::swap;
use core::mem::swap as core_swap;
`)
}

func TestEnumPathResolves(t *testing.T) {
	tree, res := resolveNoErrors(t, `
enum Color { Red, Green, Blue }

fn pick() -> Color { Color::Red }
`)

	var pathBound bool
	for id, sym := range res.ExprSyms {
		if tree.Expr(id).Kind == ast.ExprPath {
			if res.Symbol(sym).Kind == sema.SymEnum {
				pathBound = true
			}
		}
	}
	if !pathBound {
		t.Fatal("expected Color::Red to bind to the enum")
	}
}

func TestUnknownVariantInPath(t *testing.T) {
	_, _, diags := resolveSource(t, `
enum Color { Red, Green }

fn pick() -> Color { Color::Purple }
`)

	if len(diags) != 1 || diags[0].Code != diag.CodeNameUndefined {
		t.Fatalf("expected one undefined diagnostic, got %+v", diags)
	}
	if !strings.Contains(diags[0].Message, "Purple") {
		t.Fatalf("expected message to name the variant, got %q", diags[0].Message)
	}
}

func TestMatchArmBindingsScopedToArm(t *testing.T) {
	_, _, diags := resolveSource(t, `
enum Option { Some(i32), None }

fn f(o: Option) -> i32 {
    match o {
        Option::Some(v) => v,
        Option::None => v,
    }
}
`)

	// The second arm must not see the first arm's binding.
	if len(diags) != 1 || diags[0].Code != diag.CodeNameUndefined {
		t.Fatalf("expected one undefined diagnostic for the leaked binding, got %+v", diags)
	}
}

func TestDuplicateBindingInOnePattern(t *testing.T) {
	_, _, diags := resolveSource(t, `
enum Pairy { Two(i32, i32) }

fn f(p: Pairy) -> i32 {
    match p {
        Pairy::Two(a, a) => a,
    }
}
`)

	if len(diags) != 1 || diags[0].Code != diag.CodeNameDuplicateBinding {
		t.Fatalf("expected one duplicate-binding diagnostic, got %+v", diags)
	}
}

func TestLoopVariableScope(t *testing.T) {
	_, _, diags := resolveSource(t, `
fn f() -> i32 {
    let mut total = 0;
    for i in 0..10 {
        total = total + i;
    }
    i
}
`)

	// i is not visible after the loop.
	if len(diags) != 1 || diags[0].Code != diag.CodeNameUndefined {
		t.Fatalf("expected one undefined diagnostic, got %+v", diags)
	}
}

func TestUnknownTypeAnnotation(t *testing.T) {
	_, _, diags := resolveSource(t, `fn f(x: Widget) {}`)

	if len(diags) != 1 || diags[0].Code != diag.CodeNameUndefined {
		t.Fatalf("expected one undefined diagnostic, got %+v", diags)
	}
}

func TestPrimitiveTypeNamesAreNotSymbols(t *testing.T) {
	resolveNoErrors(t, `
fn f(a: i32, b: f64, c: bool, d: str, e: char, g: i64) {}
`)
}

func TestTypeParamVisibleInSignatureAndBody(t *testing.T) {
	resolveNoErrors(t, `
fn id[T](x: T) -> T {
    let y: T = x;
    y
}
`)
}

func TestStructLiteralTargetMustBeStruct(t *testing.T) {
	_, _, diags := resolveSource(t, `
enum Color { Red }

fn f() {
    let c = Color { x: 1 };
}
`)

	if len(diags) != 1 || diags[0].Code != diag.CodeNameUndefined {
		t.Fatalf("expected one diagnostic, got %+v", diags)
	}
	if !strings.Contains(diags[0].Message, "not a struct") {
		t.Fatalf("unexpected message: %q", diags[0].Message)
	}
}
