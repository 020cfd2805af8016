package types_test

import (
	"strings"
	"testing"

	"github.com/DrTomLLC/T-Programming-Language/internal/diag"
	"github.com/DrTomLLC/T-Programming-Language/internal/types"
)

func TestGenericFunctionInstantiation(t *testing.T) {
	tree, info := checkNoErrors(t, `
fn id[T](x: T) -> T { x }

fn f() -> i32 { id(7) }
`)

	tail := fnTail(t, tree, "f")
	if got := info.Type(tail).String(); got != "i32" {
		t.Fatalf("expected i32, got %s", got)
	}
}

func TestGenericInstantiationIsPerCallSite(t *testing.T) {
	checkNoErrors(t, `
fn id[T](x: T) -> T { x }

fn f() {
    id(1);
    id(true);
    id("s");
}
`)
}

func TestGenericEnumConstructorAndMatch(t *testing.T) {
	tree, info := checkNoErrors(t, `
enum Option[T] { Some(T), None }

fn unwrap_or_zero() -> i32 {
    match Option::Some(41) {
        Option::Some(v) => v + 1,
        Option::None => 0,
    }
}
`)

	tail := fnTail(t, tree, "unwrap_or_zero")
	if got := info.Type(tail).String(); got != "i32" {
		t.Fatalf("expected i32, got %s", got)
	}
}

func TestGenericStructAnnotation(t *testing.T) {
	checkNoErrors(t, `
struct Box[T] { value: T }

fn f() -> i32 {
    let b: Box[i32] = Box { value: 7 };
    b.value
}
`)
}

func TestTypeArgumentArity(t *testing.T) {
	_, _, diags := checkSource(t, `
struct Box[T] { value: T }

fn f(b: Box[i32, bool]) {}
`)

	if len(diags) != 1 || diags[0].Code != diag.CodeTypeArityMismatch {
		t.Fatalf("expected one arity diagnostic, got %+v", diags)
	}
}

func TestRigidParamsDoNotLeak(t *testing.T) {
	// Inside the generic body T stays abstract: it cannot be used as i32.
	_, _, diags := checkSource(t, `
fn bad[T](x: T) -> i32 { x + 1 }
`)

	if len(diags) != 1 || diags[0].Code != diag.CodeTypeMismatch {
		t.Fatalf("expected one mismatch diagnostic, got %+v", diags)
	}
}

func TestLiteralVariablesRejectNonNumericTypes(t *testing.T) {
	u := types.NewUnifier()

	v := u.FreshDefault(types.TypeI32)
	if err := u.Unify(v, types.TypeBool); err == nil {
		t.Fatal("expected a unify error binding a literal variable to bool")
	}

	w := u.FreshDefault(types.TypeI32)
	if err := u.Unify(w, types.TypeI64); err != nil {
		t.Fatalf("unexpected unify error: %v", err)
	}
	if got := u.Apply(w).String(); got != "i64" {
		t.Fatalf("expected binding to i64, got %s", got)
	}
}

func TestLiteralRestrictionFollowsTheBinding(t *testing.T) {
	// The restriction travels with the literal's variable into x, so the
	// annotation on y cannot capture it.
	_, _, diags := checkSource(t, `
fn f() {
    let x = 1;
    let y: str = x;
}
`)

	if len(diags) != 1 || diags[0].Code != diag.CodeTypeMismatch {
		t.Fatalf("expected one mismatch diagnostic, got %+v", diags)
	}
}

func TestUnifierBindsVariables(t *testing.T) {
	u := types.NewUnifier()
	v := u.Fresh()

	if err := u.Unify(v, types.TypeI64); err != nil {
		t.Fatalf("unexpected unify error: %v", err)
	}
	if got := u.Apply(v).String(); got != "i64" {
		t.Fatalf("expected binding to i64, got %s", got)
	}
}

func TestUnifierOccursCheck(t *testing.T) {
	u := types.NewUnifier()
	v := u.Fresh()

	err := u.Unify(v, &types.Array{Elem: v})
	if err == nil {
		t.Fatal("expected occurs-check failure")
	}
	if !err.Occurs {
		t.Fatalf("expected occurs flag, got %v", err)
	}
	if !strings.Contains(err.Error(), "infinite type") {
		t.Fatalf("unexpected message: %q", err.Error())
	}
}

func TestUnifierStructuralTypes(t *testing.T) {
	u := types.NewUnifier()
	a := u.Fresh()
	b := u.Fresh()

	left := &types.Tuple{Elems: []types.Type{a, types.TypeBool}}
	right := &types.Tuple{Elems: []types.Type{types.TypeStr, b}}

	if err := u.Unify(left, right); err != nil {
		t.Fatalf("unexpected unify error: %v", err)
	}
	if u.Apply(a).String() != "str" || u.Apply(b).String() != "bool" {
		t.Fatalf("expected str/bool, got %s/%s", u.Apply(a), u.Apply(b))
	}
}

func TestUnifierRejectsShapeMismatch(t *testing.T) {
	u := types.NewUnifier()

	err := u.Unify(&types.Array{Elem: types.TypeI32}, types.TypeI32)
	if err == nil || err.Occurs {
		t.Fatalf("expected plain mismatch, got %v", err)
	}
}

func TestErrorTypeUnifiesQuietly(t *testing.T) {
	u := types.NewUnifier()

	if err := u.Unify(types.TypeError, types.TypeBool); err != nil {
		t.Fatalf("error type should unify with anything, got %v", err)
	}
}
