package ast_test

import (
	"strings"
	"testing"

	"github.com/DrTomLLC/T-Programming-Language/internal/ast"
	"github.com/DrTomLLC/T-Programming-Language/internal/diag"
	"github.com/DrTomLLC/T-Programming-Language/internal/lexer"
)

func diagSpan(start, end int) diag.Span {
	return diag.Span{Line: 9, Column: 1, Start: start, End: end}
}

func TestArenaReservesNullSlot(t *testing.T) {
	tree := ast.NewTree("test.t")

	if ast.NoExpr.IsValid() || ast.NoStmt.IsValid() || ast.NoItem.IsValid() ||
		ast.NoType.IsValid() || ast.NoPat.IsValid() {
		t.Fatal("zero IDs must be invalid")
	}

	first := tree.AddExpr(ast.Expr{Kind: ast.ExprInt, Text: "1"})
	if first != ast.ExprID(1) {
		t.Fatalf("first allocation should be ID 1, got %d", first)
	}
	if !first.IsValid() {
		t.Fatal("allocated ID should be valid")
	}
	if tree.NumExprs() != 1 {
		t.Fatalf("expected 1 expr, got %d", tree.NumExprs())
	}
}

func TestArenaAccessorsReturnStoredNodes(t *testing.T) {
	tree := ast.NewTree("test.t")

	lhs := tree.AddExpr(ast.Expr{Kind: ast.ExprIdent, Name: ast.Ident{Name: "a"}})
	rhs := tree.AddExpr(ast.Expr{Kind: ast.ExprInt, Text: "2"})
	sum := tree.AddExpr(ast.Expr{Kind: ast.ExprBinary, Op: lexer.PLUS, X: lhs, Y: rhs})

	node := tree.Expr(sum)
	if node.Op != lexer.PLUS || node.X != lhs || node.Y != rhs {
		t.Fatalf("stored node does not match: %+v", node)
	}
	if tree.Expr(node.X).Name.Name != "a" {
		t.Fatal("child lookup through IDs failed")
	}
}

// buildReturnFn assembles fn <name>() { return <lit>; } by hand.
func buildReturnFn(name, lit string) *ast.Tree {
	tree := ast.NewTree("test.t")
	value := tree.AddExpr(ast.Expr{Kind: ast.ExprInt, Text: lit})
	ret := tree.AddStmt(ast.Stmt{Kind: ast.StmtReturn, Value: value})
	body := tree.AddExpr(ast.Expr{Kind: ast.ExprBlock, Stmts: []ast.StmtID{ret}})
	item := tree.AddItem(ast.Item{
		Kind: ast.ItemFn,
		Name: ast.Ident{Name: name},
		Body: body,
	})
	tree.Items = append(tree.Items, item)
	return tree
}

func TestPrintRendersSource(t *testing.T) {
	printed := ast.Print(buildReturnFn("f", "42"))

	for _, want := range []string{"fn f()", "return 42;"} {
		if !strings.Contains(printed, want) {
			t.Errorf("expected output to contain %q, got:\n%s", want, printed)
		}
	}
}

func TestEqualIgnoresSpans(t *testing.T) {
	a := buildReturnFn("f", "42")
	b := buildReturnFn("f", "42")
	b.Expr(b.Item(b.Items[0]).Body).Span = diagSpan(9, 99)

	if !ast.Equal(a, b) {
		t.Fatal("trees differing only in spans should be equal")
	}
}

func TestEqualDetectsStructuralDifference(t *testing.T) {
	a := buildReturnFn("f", "42")

	if ast.Equal(a, buildReturnFn("g", "42")) {
		t.Fatal("different names should not be equal")
	}
	if ast.Equal(a, buildReturnFn("f", "43")) {
		t.Fatal("different literals should not be equal")
	}
}
