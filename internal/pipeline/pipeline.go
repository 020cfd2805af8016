// Package pipeline wires the compilation stages together: scan, parse,
// resolve, check, lower. Stages run strictly in order for one unit;
// independent units share nothing but the string interner and may run on
// parallel workers.
package pipeline

import (
	"github.com/DrTomLLC/T-Programming-Language/internal/ast"
	"github.com/DrTomLLC/T-Programming-Language/internal/diag"
	"github.com/DrTomLLC/T-Programming-Language/internal/lexer"
	"github.com/DrTomLLC/T-Programming-Language/internal/parser"
	"github.com/DrTomLLC/T-Programming-Language/internal/sema"
	"github.com/DrTomLLC/T-Programming-Language/internal/source"
	"github.com/DrTomLLC/T-Programming-Language/internal/tir"
	"github.com/DrTomLLC/T-Programming-Language/internal/types"
)

// Unit is one compilation unit: fully materialized source text plus the
// identifier used in diagnostic spans.
type Unit struct {
	Filename string
	Source   string
}

// Hooks is an explicit capability table of per-stage callbacks, passed per
// invocation. A nil hook is skipped; there is no process-global registry.
type Hooks struct {
	OnTokens func(unit string, tokens []lexer.Token)
	OnAST    func(unit string, tree *ast.Tree)
	OnTyped  func(unit string, tree *ast.Tree, res *sema.Resolution, info *types.Info)
	OnTIR    func(unit string, module *tir.Module)
}

// Result carries everything one unit's compilation produced. Later stages are
// nil when an earlier stage reported errors that made their input
// structurally meaningless.
type Result struct {
	Filename    string
	Tokens      []lexer.Token
	Tree        *ast.Tree
	Resolution  *sema.Resolution
	Info        *types.Info
	TIR         *tir.Module
	Diagnostics []diag.Diagnostic

	// Err is an internal lowering failure, never a user mistake.
	Err error
}

// HasErrors reports whether any stage emitted an error diagnostic.
func (r *Result) HasErrors() bool { return diag.HasErrors(r.Diagnostics) }

// Parse scans and parses one unit. The tree is always non-nil; syntax
// problems come back as diagnostics alongside a tree with placeholder nodes.
func Parse(unit Unit, hooks Hooks) (*ast.Tree, []lexer.Token, []diag.Diagnostic) {
	tokens, scanDiags := lexer.Scan(unit.Source, unit.Filename)
	if hooks.OnTokens != nil {
		hooks.OnTokens(unit.Filename, tokens)
	}

	tree, parseDiags := parser.Parse(tokens, unit.Filename)
	if hooks.OnAST != nil {
		hooks.OnAST(unit.Filename, tree)
	}

	diags := append(scanDiags, parseDiags...)
	return tree, tokens, diags
}

// ResolveAndCheck binds names and infers types over a parsed tree. Both run
// even when parsing reported errors; placeholder nodes are skipped without
// cascading.
func ResolveAndCheck(unit Unit, tree *ast.Tree, hooks Hooks) (*sema.Resolution, *types.Info, []diag.Diagnostic) {
	res, resolveDiags := sema.Resolve(tree)
	info, checkDiags := types.Check(tree, res)
	if hooks.OnTyped != nil {
		hooks.OnTyped(unit.Filename, tree, res, info)
	}
	return res, info, append(resolveDiags, checkDiags...)
}

// Lower converts a clean, typed tree to TIR. The returned error is an
// internal-invariant violation; user problems arrive as diagnostics.
func Lower(unit Unit, tree *ast.Tree, res *sema.Resolution, info *types.Info, hooks Hooks) (*tir.Module, []diag.Diagnostic, error) {
	module, diags, err := tir.Lower(tree, res, info)
	if err != nil {
		return nil, diags, err
	}
	if hooks.OnTIR != nil {
		hooks.OnTIR(unit.Filename, module)
	}
	return module, diags, nil
}

// Compile runs the full pipeline for one unit. Lowering only runs when the
// front half produced no errors; its preconditions assume a clean tree.
func Compile(unit Unit, hooks Hooks, interner *source.Interner) *Result {
	r := &Result{Filename: unit.Filename}

	tree, tokens, diags := Parse(unit, hooks)
	r.Tree = tree
	r.Tokens = tokens
	r.Diagnostics = diags

	res, info, semaDiags := ResolveAndCheck(unit, tree, hooks)
	r.Resolution = res
	r.Info = info
	r.Diagnostics = append(r.Diagnostics, semaDiags...)

	if interner != nil {
		internItemNames(interner, tree)
	}

	if diag.HasErrors(r.Diagnostics) {
		return r
	}

	module, lowerDiags, err := Lower(unit, tree, res, info, hooks)
	r.Diagnostics = append(r.Diagnostics, lowerDiags...)
	r.Err = err
	if err == nil && !diag.HasErrors(lowerDiags) {
		r.TIR = module
	}
	return r
}

// internItemNames records every top-level name in the shared interner so
// cross-unit consumers compare symbols by ID rather than by string.
func internItemNames(in *source.Interner, tree *ast.Tree) {
	for _, itemID := range tree.Items {
		item := tree.Item(itemID)
		if item.Name.IsValid() {
			in.Intern(item.Name.Name)
		}
	}
}
