package types_test

import (
	"strings"
	"testing"

	"github.com/DrTomLLC/T-Programming-Language/internal/diag"
)

func TestMissingVariantIsNamed(t *testing.T) {
	_, _, diags := checkSource(t, `
enum Color { Red, Green, Blue }

fn describe(c: Color) -> i32 {
    match c {
        Color::Red => 0,
        Color::Green => 1,
    }
}
`)

	if len(diags) != 1 {
		t.Fatalf("expected 1 diagnostic, got %d: %+v", len(diags), diags)
	}
	d := diags[0]
	if d.Code != diag.CodeTypeNonExhaustiveMatch {
		t.Fatalf("expected %q, got %q", diag.CodeTypeNonExhaustiveMatch, d.Code)
	}
	if !strings.Contains(d.Message, "'Blue'") {
		t.Fatalf("expected the missing variant to be named, got %q", d.Message)
	}
}

func TestGuardedArmDoesNotCount(t *testing.T) {
	_, _, diags := checkSource(t, `
enum Color { Red, Green, Blue }

fn f(c: Color, dark: bool) -> i32 {
    match c {
        Color::Red => 0,
        Color::Green => 1,
        Color::Blue if dark => 2,
    }
}
`)

	if len(diags) != 1 || diags[0].Code != diag.CodeTypeNonExhaustiveMatch {
		t.Fatalf("expected one non-exhaustive diagnostic, got %+v", diags)
	}
	if !strings.Contains(diags[0].Message, "'Blue'") {
		t.Fatalf("unexpected message: %q", diags[0].Message)
	}
}

func TestWildcardArmExhausts(t *testing.T) {
	checkNoErrors(t, `
enum Color { Red, Green, Blue }

fn f(c: Color) -> i32 {
    match c {
        Color::Red => 0,
        _ => 1,
    }
}
`)
}

func TestBindingArmExhausts(t *testing.T) {
	checkNoErrors(t, `
fn f(n: i32) -> i32 {
    match n {
        0 => 0,
        other => other,
    }
}
`)
}

func TestAllVariantsCovered(t *testing.T) {
	checkNoErrors(t, `
enum Color { Red, Green, Blue }

fn f(c: Color) -> i32 {
    match c {
        Color::Red => 0,
        Color::Green => 1,
        Color::Blue => 2,
    }
}
`)
}

func TestRefutablePayloadDoesNotCover(t *testing.T) {
	// Some(0) can fail to match even when the variant is Some, so the
	// variant is not fully covered.
	_, _, diags := checkSource(t, `
enum Option[T] { Some(T), None }

fn f(o: Option[i32]) -> i32 {
    match o {
        Option::Some(0) => 0,
        Option::None => 1,
    }
}
`)

	if len(diags) != 1 || diags[0].Code != diag.CodeTypeNonExhaustiveMatch {
		t.Fatalf("expected one non-exhaustive diagnostic, got %+v", diags)
	}
	if !strings.Contains(diags[0].Message, "'Some'") {
		t.Fatalf("unexpected message: %q", diags[0].Message)
	}
}

func TestBindingPayloadCovers(t *testing.T) {
	checkNoErrors(t, `
enum Option[T] { Some(T), None }

fn f(o: Option[i32]) -> i32 {
    match o {
        Option::Some(v) => v,
        Option::None => 0,
    }
}
`)
}

func TestBoolMatchNeedsBothValues(t *testing.T) {
	_, _, diags := checkSource(t, `
fn f(b: bool) -> i32 {
    match b {
        true => 1,
    }
}
`)

	if len(diags) != 1 || diags[0].Code != diag.CodeTypeNonExhaustiveMatch {
		t.Fatalf("expected one non-exhaustive diagnostic, got %+v", diags)
	}
	if !strings.Contains(diags[0].Message, "'false'") {
		t.Fatalf("unexpected message: %q", diags[0].Message)
	}
}

func TestBoolMatchWithBothValues(t *testing.T) {
	checkNoErrors(t, `
fn f(b: bool) -> i32 {
    match b {
        true => 1,
        false => 0,
    }
}
`)
}

func TestIntegerMatchNeedsWildcard(t *testing.T) {
	_, _, diags := checkSource(t, `
fn f(n: i32) -> i32 {
    match n {
        0 => 0,
        1 => 1,
    }
}
`)

	if len(diags) != 1 || diags[0].Code != diag.CodeTypeNonExhaustiveMatch {
		t.Fatalf("expected one non-exhaustive diagnostic, got %+v", diags)
	}
	if !strings.Contains(diags[0].Message, "wildcard") {
		t.Fatalf("unexpected message: %q", diags[0].Message)
	}
}
