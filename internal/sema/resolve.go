package sema

import (
	"github.com/DrTomLLC/T-Programming-Language/internal/ast"
	"github.com/DrTomLLC/T-Programming-Language/internal/diag"
)

// Resolver binds names to symbols over a parsed tree. Resolution is
// two-phase: item names are collected into the module scope first, so bodies
// may reference items declared later in the file; block-level bindings only
// become visible after their own statement.
type Resolver struct {
	tree   *ast.Tree
	res    *Resolution
	scopes []scope
	errors []diag.Diagnostic
}

// Resolve binds every name in the tree and returns the resolution tables
// together with all name errors, in source order per function.
func Resolve(tree *ast.Tree) (*Resolution, []diag.Diagnostic) {
	r := &Resolver{
		tree:   tree,
		res:    newResolution(),
		scopes: make([]scope, 1), // slot 0 reserved
	}

	module := r.pushScope(ScopeModule, NoScope)
	r.collectItems(module)
	r.resolveItems(module)

	return r.res, r.errors
}

func (r *Resolver) pushScope(kind ScopeKind, parent ScopeID) ScopeID {
	r.scopes = append(r.scopes, scope{
		kind:   kind,
		parent: parent,
		names:  make(map[string]SymbolID),
	})
	return ScopeID(len(r.scopes) - 1)
}

func (r *Resolver) lookup(sc ScopeID, name string) SymbolID {
	for sc != NoScope {
		s := &r.scopes[sc]
		if id, ok := s.names[name]; ok {
			return id
		}
		sc = s.parent
	}
	return NoSymbol
}

// declare inserts a symbol, reporting a duplicate when the name already
// exists in the same scope. Shadowing an outer scope is always allowed.
func (r *Resolver) declare(sc ScopeID, sym Symbol) SymbolID {
	s := &r.scopes[sc]
	if prevID, ok := s.names[sym.Name]; ok {
		prev := r.res.Symbol(prevID)
		if prev.Kind == SymImport || sym.Kind == SymImport {
			r.errors = append(r.errors, diag.Errorf(diag.StageResolve, diag.CodeNameAmbiguousImport, sym.Span,
				"'%s' conflicts with an import of the same name", sym.Name).
				WithLabel(prev.Span, "first introduced here"))
		} else {
			r.errors = append(r.errors, diag.Errorf(diag.StageResolve, diag.CodeNameDuplicateBinding, sym.Span,
				"'%s' is already defined as a %s in this scope", sym.Name, prev.Kind).
				WithLabel(prev.Span, "previous definition here"))
		}
		return prevID
	}

	id := r.res.addSymbol(sym)
	s.names[sym.Name] = id
	return id
}

// shadow inserts a symbol unconditionally, replacing any same-scope binding.
// Used for let rebinding, which is legal shadowing rather than a duplicate.
func (r *Resolver) shadow(sc ScopeID, sym Symbol) SymbolID {
	id := r.res.addSymbol(sym)
	r.scopes[sc].names[sym.Name] = id
	return id
}

func (r *Resolver) undefined(name string, span diag.Span) {
	r.errors = append(r.errors, diag.Errorf(diag.StageResolve, diag.CodeNameUndefined, span,
		"cannot find '%s' in this scope", name))
}

// collectItems is the declaration pass over top-level items.
func (r *Resolver) collectItems(module ScopeID) {
	for _, itemID := range r.tree.Items {
		item := r.tree.Item(itemID)

		var kind SymbolKind
		name := item.Name
		switch item.Kind {
		case ast.ItemFn:
			kind = SymFn
		case ast.ItemStruct:
			kind = SymStruct
		case ast.ItemEnum:
			kind = SymEnum
		case ast.ItemConst:
			kind = SymConst
		case ast.ItemUse:
			kind = SymImport
			if item.Alias.IsValid() {
				name = item.Alias
			}
		default:
			continue
		}

		r.declare(module, Symbol{
			Kind: kind,
			Name: name.Name,
			Span: name.Span,
			Item: itemID,
		})
	}
}

// resolveItems is the body pass.
func (r *Resolver) resolveItems(module ScopeID) {
	for _, itemID := range r.tree.Items {
		item := r.tree.Item(itemID)
		switch item.Kind {
		case ast.ItemFn:
			r.resolveFn(module, itemID)
		case ast.ItemStruct:
			sc := r.typeParamScope(module, itemID, item.TypeParams)
			for _, f := range item.Fields {
				r.resolveTypeExpr(sc, f.Type)
			}
		case ast.ItemEnum:
			sc := r.typeParamScope(module, itemID, item.TypeParams)
			for _, v := range item.Variants {
				for _, ty := range v.Payload {
					r.resolveTypeExpr(sc, ty)
				}
			}
		case ast.ItemConst:
			if item.Type.IsValid() {
				r.resolveTypeExpr(module, item.Type)
			}
			r.resolveExpr(module, item.Value)
		}
	}
}

func (r *Resolver) typeParamScope(parent ScopeID, itemID ast.ItemID, params []ast.Ident) ScopeID {
	if len(params) == 0 {
		return parent
	}
	sc := r.pushScope(ScopeFunction, parent)
	for i, tp := range params {
		r.declare(sc, Symbol{
			Kind:  SymTypeParam,
			Name:  tp.Name,
			Span:  tp.Span,
			Item:  itemID,
			Index: i,
		})
	}
	return sc
}

func (r *Resolver) resolveFn(module ScopeID, itemID ast.ItemID) {
	item := r.tree.Item(itemID)

	sc := r.pushScope(ScopeFunction, r.typeParamScope(module, itemID, item.TypeParams))
	for i, param := range item.Params {
		r.resolveTypeExpr(sc, param.Type)
		r.declare(sc, Symbol{
			Kind:  SymParam,
			Name:  param.Name.Name,
			Span:  param.Name.Span,
			Item:  itemID,
			Index: i,
		})
	}
	if item.Result.IsValid() {
		r.resolveTypeExpr(sc, item.Result)
	}

	r.resolveBlock(sc, item.Body)
}

func (r *Resolver) resolveTypeExpr(sc ScopeID, typeID ast.TypeID) {
	if !typeID.IsValid() {
		return
	}
	ty := r.tree.Type(typeID)
	switch ty.Kind {
	case ast.TypeName:
		if !IsPrimitiveName(ty.Name.Name) {
			sym := r.lookup(sc, ty.Name.Name)
			if !sym.IsValid() {
				r.undefined(ty.Name.Name, ty.Name.Span)
			} else {
				r.res.TypeSyms[typeID] = sym
			}
		}
		for _, arg := range ty.Args {
			r.resolveTypeExpr(sc, arg)
		}
	case ast.TypeFn:
		for _, arg := range ty.Args {
			r.resolveTypeExpr(sc, arg)
		}
		r.resolveTypeExpr(sc, ty.Elem)
	case ast.TypeArray:
		r.resolveTypeExpr(sc, ty.Elem)
	case ast.TypeTuple:
		for _, arg := range ty.Args {
			r.resolveTypeExpr(sc, arg)
		}
	}
}

// resolveBlock resolves a block expression in a fresh child scope.
func (r *Resolver) resolveBlock(parent ScopeID, blockID ast.ExprID) {
	sc := r.pushScope(ScopeBlock, parent)
	block := r.tree.Expr(blockID)

	for _, stmtID := range block.Stmts {
		r.resolveStmt(sc, stmtID)
	}
	if block.Tail.IsValid() {
		r.resolveExpr(sc, block.Tail)
	}
}

func (r *Resolver) resolveStmt(sc ScopeID, stmtID ast.StmtID) {
	stmt := r.tree.Stmt(stmtID)
	switch stmt.Kind {
	case ast.StmtLet:
		// The initializer sees the outer binding, not the new one.
		if stmt.Type.IsValid() {
			r.resolveTypeExpr(sc, stmt.Type)
		}
		r.resolveExpr(sc, stmt.Value)
		r.shadow(sc, Symbol{
			Kind:    SymLocal,
			Name:    stmt.Name.Name,
			Span:    stmt.Name.Span,
			Stmt:    stmtID,
			Mutable: stmt.Mutable,
		})

	case ast.StmtExpr, ast.StmtReturn:
		r.resolveExpr(sc, stmt.Value)

	case ast.StmtWhile:
		r.resolveExpr(sc, stmt.Cond)
		r.resolveBlock(sc, stmt.Body)

	case ast.StmtFor:
		r.resolveExpr(sc, stmt.From)
		r.resolveExpr(sc, stmt.To)
		loop := r.pushScope(ScopeBlock, sc)
		r.declare(loop, Symbol{
			Kind: SymLoopVar,
			Name: stmt.Name.Name,
			Span: stmt.Name.Span,
			Stmt: stmtID,
		})
		r.resolveBlock(loop, stmt.Body)
	}
}

func (r *Resolver) resolveExpr(sc ScopeID, exprID ast.ExprID) {
	if !exprID.IsValid() {
		return
	}
	expr := r.tree.Expr(exprID)

	switch expr.Kind {
	case ast.ExprIdent:
		sym := r.lookup(sc, expr.Name.Name)
		if !sym.IsValid() {
			r.undefined(expr.Name.Name, expr.Name.Span)
			return
		}
		r.res.ExprSyms[exprID] = sym

	case ast.ExprPath:
		r.resolvePath(sc, exprID)

	case ast.ExprStructLit:
		sym := r.lookup(sc, expr.Name.Name)
		switch {
		case !sym.IsValid():
			r.undefined(expr.Name.Name, expr.Name.Span)
		case r.res.Symbol(sym).Kind != SymStruct:
			r.errors = append(r.errors, diag.Errorf(diag.StageResolve, diag.CodeNameUndefined, expr.Name.Span,
				"'%s' is a %s, not a struct", expr.Name.Name, r.res.Symbol(sym).Kind))
		default:
			r.res.ExprSyms[exprID] = sym
		}
		for _, f := range expr.Fields {
			r.resolveExpr(sc, f.Value)
		}

	case ast.ExprUnary:
		r.resolveExpr(sc, expr.X)

	case ast.ExprBinary, ast.ExprAssign, ast.ExprIndex:
		r.resolveExpr(sc, expr.X)
		r.resolveExpr(sc, expr.Y)

	case ast.ExprField:
		// Field names resolve against the target's type during checking.
		r.resolveExpr(sc, expr.X)

	case ast.ExprCall:
		r.resolveExpr(sc, expr.X)
		for _, arg := range expr.List {
			r.resolveExpr(sc, arg)
		}

	case ast.ExprArray, ast.ExprTuple:
		for _, el := range expr.List {
			r.resolveExpr(sc, el)
		}

	case ast.ExprIf:
		r.resolveExpr(sc, expr.X)
		r.resolveBlock(sc, expr.Y)
		if expr.Else.IsValid() {
			if r.tree.Expr(expr.Else).Kind == ast.ExprBlock {
				r.resolveBlock(sc, expr.Else)
			} else {
				r.resolveExpr(sc, expr.Else)
			}
		}

	case ast.ExprMatch:
		r.resolveExpr(sc, expr.X)
		for _, arm := range expr.Arms {
			armScope := r.pushScope(ScopeBlock, sc)
			r.resolvePattern(armScope, arm.Pat)
			r.resolveExpr(armScope, arm.Guard)
			if r.tree.Expr(arm.Body).Kind == ast.ExprBlock {
				r.resolveBlock(armScope, arm.Body)
			} else {
				r.resolveExpr(armScope, arm.Body)
			}
		}

	case ast.ExprBlock:
		r.resolveBlock(sc, exprID)
	}
}

// resolvePath binds "Enum::Variant". The enum must resolve here; the variant
// must exist on it.
func (r *Resolver) resolvePath(sc ScopeID, exprID ast.ExprID) {
	expr := r.tree.Expr(exprID)

	sym := r.lookup(sc, expr.Qual.Name)
	if !sym.IsValid() {
		r.undefined(expr.Qual.Name, expr.Qual.Span)
		return
	}
	if r.res.Symbol(sym).Kind != SymEnum {
		r.errors = append(r.errors, diag.Errorf(diag.StageResolve, diag.CodeNameUndefined, expr.Qual.Span,
			"'%s' is a %s, not an enum", expr.Qual.Name, r.res.Symbol(sym).Kind))
		return
	}

	enum := r.tree.Item(r.res.Symbol(sym).Item)
	for _, v := range enum.Variants {
		if v.Name.Name == expr.Name.Name {
			r.res.ExprSyms[exprID] = sym
			return
		}
	}
	r.errors = append(r.errors, diag.Errorf(diag.StageResolve, diag.CodeNameUndefined, expr.Name.Span,
		"enum '%s' has no variant '%s'", expr.Qual.Name, expr.Name.Name))
}

// resolvePattern declares the bindings a pattern introduces. Two bindings of
// the same name inside one arm's pattern collide.
func (r *Resolver) resolvePattern(sc ScopeID, patID ast.PatID) {
	if !patID.IsValid() {
		return
	}
	pat := r.tree.Pat(patID)

	switch pat.Kind {
	case ast.PatBinding:
		id := r.declare(sc, Symbol{
			Kind: SymPatBinding,
			Name: pat.Name.Name,
			Span: pat.Name.Span,
			Pat:  patID,
		})
		r.res.PatSyms[patID] = id

	case ast.PatVariant:
		if pat.Qual.IsValid() {
			sym := r.lookup(sc, pat.Qual.Name)
			switch {
			case !sym.IsValid():
				r.undefined(pat.Qual.Name, pat.Qual.Span)
			case r.res.Symbol(sym).Kind != SymEnum:
				r.errors = append(r.errors, diag.Errorf(diag.StageResolve, diag.CodeNameUndefined, pat.Qual.Span,
					"'%s' is a %s, not an enum", pat.Qual.Name, r.res.Symbol(sym).Kind))
			default:
				enum := r.tree.Item(r.res.Symbol(sym).Item)
				found := false
				for _, v := range enum.Variants {
					if v.Name.Name == pat.Name.Name {
						found = true
						break
					}
				}
				if found {
					r.res.PatSyms[patID] = sym
				} else {
					r.errors = append(r.errors, diag.Errorf(diag.StageResolve, diag.CodeNameUndefined, pat.Name.Span,
						"enum '%s' has no variant '%s'", pat.Qual.Name, pat.Name.Name))
				}
			}
		}
		for _, el := range pat.Elems {
			r.resolvePattern(sc, el)
		}

	case ast.PatTuple:
		for _, el := range pat.Elems {
			r.resolvePattern(sc, el)
		}
	}
}
