package types

import (
	"github.com/DrTomLLC/T-Programming-Language/internal/ast"
	"github.com/DrTomLLC/T-Programming-Language/internal/diag"
	"github.com/DrTomLLC/T-Programming-Language/internal/sema"
)

// Info is the result of type checking: the solved type of every expression
// and symbol, plus the constraint log the solver worked through.
type Info struct {
	ExprTypes   map[ast.ExprID]Type
	SymTypes    map[sema.SymbolID]Type
	Constraints []Constraint
}

// Type returns the solved type of an expression, or the error type when the
// expression never produced one.
func (i *Info) Type(id ast.ExprID) Type {
	if t, ok := i.ExprTypes[id]; ok {
		return t
	}
	return TypeError
}

// Checker performs Hindley-Milner style type inference over a resolved tree.
// Each named item is checked independently; one error poisons the offending
// expression with the error type instead of cascading.
type Checker struct {
	tree *ast.Tree
	res  *sema.Resolution
	uni  *Unifier

	info   *Info
	errors []diag.Diagnostic

	// Generic templates per declaring item. Template Args hold rigid Param
	// types named after the declaration's type parameters.
	structs map[ast.ItemID]*Struct
	enums   map[ast.ItemID]*Enum

	// Reverse index from defining nodes to their symbols.
	itemSyms  map[ast.ItemID]sema.SymbolID
	paramSyms map[ast.ItemID][]sema.SymbolID
	stmtSyms  map[ast.StmtID]sema.SymbolID
	patSyms   map[ast.PatID]sema.SymbolID

	// Current function's declared return type.
	fnRet     Type
	fnRetSpan diag.Span
}

// Check infers and validates types for the whole tree. It expects the
// resolution produced by sema.Resolve on the same tree.
func Check(tree *ast.Tree, res *sema.Resolution) (*Info, []diag.Diagnostic) {
	c := &Checker{
		tree: tree,
		res:  res,
		uni:  NewUnifier(),
		info: &Info{
			ExprTypes: make(map[ast.ExprID]Type),
			SymTypes:  make(map[sema.SymbolID]Type),
		},
		structs:   make(map[ast.ItemID]*Struct),
		enums:     make(map[ast.ItemID]*Enum),
		itemSyms:  make(map[ast.ItemID]sema.SymbolID),
		paramSyms: make(map[ast.ItemID][]sema.SymbolID),
		stmtSyms:  make(map[ast.StmtID]sema.SymbolID),
		patSyms:   make(map[ast.PatID]sema.SymbolID),
	}

	c.buildDefIndex()
	c.collectTypes()
	c.collectSignatures()
	c.checkBodies()
	c.finish()

	return c.info, c.errors
}

func (c *Checker) buildDefIndex() {
	for i := 1; i <= c.res.NumSymbols(); i++ {
		id := sema.SymbolID(i)
		sym := c.res.Symbol(id)
		switch sym.Kind {
		case sema.SymFn, sema.SymStruct, sema.SymEnum, sema.SymConst, sema.SymImport:
			c.itemSyms[sym.Item] = id
		case sema.SymParam:
			params := c.paramSyms[sym.Item]
			for len(params) <= sym.Index {
				params = append(params, sema.NoSymbol)
			}
			params[sym.Index] = id
			c.paramSyms[sym.Item] = params
		case sema.SymLocal, sema.SymLoopVar:
			c.stmtSyms[sym.Stmt] = id
		case sema.SymPatBinding:
			c.patSyms[sym.Pat] = id
		}
	}
}

// collectTypes creates the struct and enum templates in two steps so that
// fields may reference types declared later in the file, including the
// declaring type itself.
func (c *Checker) collectTypes() {
	for _, itemID := range c.tree.Items {
		item := c.tree.Item(itemID)
		switch item.Kind {
		case ast.ItemStruct:
			c.structs[itemID] = &Struct{Name: item.Name.Name, Args: paramTypes(item.TypeParams)}
		case ast.ItemEnum:
			c.enums[itemID] = &Enum{Name: item.Name.Name, Args: paramTypes(item.TypeParams)}
		}
	}

	for _, itemID := range c.tree.Items {
		item := c.tree.Item(itemID)
		switch item.Kind {
		case ast.ItemStruct:
			tmpl := c.structs[itemID]
			for _, f := range item.Fields {
				tmpl.Fields = append(tmpl.Fields, Field{Name: f.Name.Name, Type: c.resolveTypeExpr(f.Type)})
			}
		case ast.ItemEnum:
			tmpl := c.enums[itemID]
			for _, v := range item.Variants {
				variant := Variant{Name: v.Name.Name}
				for _, p := range v.Payload {
					variant.Payload = append(variant.Payload, c.resolveTypeExpr(p))
				}
				tmpl.Variants = append(tmpl.Variants, variant)
			}
		}
	}
}

func paramTypes(params []ast.Ident) []Type {
	if len(params) == 0 {
		return nil
	}
	out := make([]Type, len(params))
	for i, p := range params {
		out[i] = &Param{Name: p.Name}
	}
	return out
}

// collectSignatures assigns every top-level symbol its declared type before
// any body is checked, so items may call each other in any order.
func (c *Checker) collectSignatures() {
	for _, itemID := range c.tree.Items {
		item := c.tree.Item(itemID)
		sym, ok := c.itemSyms[itemID]
		if !ok {
			continue
		}

		switch item.Kind {
		case ast.ItemFn:
			fn := &Function{Return: TypeUnit}
			for _, tp := range item.TypeParams {
				fn.TypeParams = append(fn.TypeParams, tp.Name)
			}
			for _, p := range item.Params {
				fn.Params = append(fn.Params, c.resolveTypeExpr(p.Type))
			}
			if item.Result.IsValid() {
				fn.Return = c.resolveTypeExpr(item.Result)
			}
			c.info.SymTypes[sym] = fn

		case ast.ItemStruct:
			c.info.SymTypes[sym] = c.structs[itemID]

		case ast.ItemEnum:
			c.info.SymTypes[sym] = c.enums[itemID]

		case ast.ItemConst:
			if item.Type.IsValid() {
				c.info.SymTypes[sym] = c.resolveTypeExpr(item.Type)
			}

		case ast.ItemUse:
			// Imported names are opaque to single-unit checking.
			c.info.SymTypes[sym] = TypeError
		}
	}
}

func (c *Checker) checkBodies() {
	// Constants first, so functions see inferred constant types.
	for _, itemID := range c.tree.Items {
		item := c.tree.Item(itemID)
		if item.Kind != ast.ItemConst {
			continue
		}
		sym := c.itemSyms[itemID]
		vt := c.checkExpr(item.Value)
		if declared, ok := c.info.SymTypes[sym]; ok {
			c.constrain(Constraint{
				Left: declared, Right: vt,
				LeftSpan:  c.tree.Type(item.Type).Span,
				RightSpan: c.tree.Expr(item.Value).Span,
				Reason:    "constant initializer must match its annotation",
			})
		} else {
			c.info.SymTypes[sym] = vt
		}
	}

	for _, itemID := range c.tree.Items {
		if c.tree.Item(itemID).Kind == ast.ItemFn {
			c.checkFn(itemID)
		}
	}
}

func (c *Checker) checkFn(itemID ast.ItemID) {
	item := c.tree.Item(itemID)
	sym := c.itemSyms[itemID]
	fn := c.info.SymTypes[sym].(*Function)

	for i, psym := range c.paramSyms[itemID] {
		if psym.IsValid() && i < len(fn.Params) {
			c.info.SymTypes[psym] = fn.Params[i]
		}
	}

	c.fnRet = fn.Return
	c.fnRetSpan = item.Name.Span
	if item.Result.IsValid() {
		c.fnRetSpan = c.tree.Type(item.Result).Span
	}

	bodyType := c.checkBlock(item.Body)

	// A body whose last statement returns never falls through to a tail
	// value, so the implicit-unit result does not constrain the signature.
	if !c.blockReturns(item.Body) {
		c.constrain(Constraint{
			Left: c.fnRet, Right: bodyType,
			LeftSpan:  c.fnRetSpan,
			RightSpan: c.tree.Expr(item.Body).Span,
			Reason:    "function body must produce the declared return type",
		})
	}

	c.uni.ApplyDefaults()
}

// blockReturns reports whether the block's control flow always leaves through
// an explicit return.
func (c *Checker) blockReturns(blockID ast.ExprID) bool {
	block := c.tree.Expr(blockID)
	if block.Tail.IsValid() || len(block.Stmts) == 0 {
		return false
	}
	return c.tree.Stmt(block.Stmts[len(block.Stmts)-1]).Kind == ast.StmtReturn
}

// resolveTypeExpr converts a syntactic type annotation into a semantic type,
// using the resolver's binding of type names.
func (c *Checker) resolveTypeExpr(typeID ast.TypeID) Type {
	if !typeID.IsValid() {
		return TypeUnit
	}
	ty := c.tree.Type(typeID)

	switch ty.Kind {
	case ast.TypeName:
		sym, bound := c.res.TypeSyms[typeID]
		if !bound {
			if prim, ok := PrimitiveByName(ty.Name.Name); ok {
				return prim
			}
			// Unresolved names already carry a resolve diagnostic.
			return TypeError
		}

		args := make([]Type, len(ty.Args))
		for i, a := range ty.Args {
			args[i] = c.resolveTypeExpr(a)
		}

		symbol := c.res.Symbol(sym)
		switch symbol.Kind {
		case sema.SymTypeParam:
			return &Param{Name: symbol.Name}
		case sema.SymStruct:
			return c.instantiateStruct(c.structs[symbol.Item], args, ty.Span)
		case sema.SymEnum:
			return c.instantiateEnum(c.enums[symbol.Item], args, ty.Span)
		default:
			c.errorf(diag.CodeTypeMismatch, ty.Span, "'%s' is a %s, not a type", symbol.Name, symbol.Kind)
			return TypeError
		}

	case ast.TypeFn:
		fn := &Function{Return: TypeUnit}
		for _, a := range ty.Args {
			fn.Params = append(fn.Params, c.resolveTypeExpr(a))
		}
		if ty.Elem.IsValid() {
			fn.Return = c.resolveTypeExpr(ty.Elem)
		}
		return fn

	case ast.TypeArray:
		return &Array{Elem: c.resolveTypeExpr(ty.Elem)}

	case ast.TypeTuple:
		if len(ty.Args) == 0 {
			return TypeUnit
		}
		tup := &Tuple{Elems: make([]Type, len(ty.Args))}
		for i, a := range ty.Args {
			tup.Elems[i] = c.resolveTypeExpr(a)
		}
		return tup
	}

	return TypeError
}

// instantiateStruct substitutes a template's type parameters with args. Arity
// errors poison the result.
func (c *Checker) instantiateStruct(tmpl *Struct, args []Type, span diag.Span) Type {
	subst, ok := c.paramSubst(tmpl.Name, tmpl.Args, args, span)
	if !ok {
		return TypeError
	}
	if subst == nil {
		return tmpl
	}
	return Substitute(tmpl, subst)
}

func (c *Checker) instantiateEnum(tmpl *Enum, args []Type, span diag.Span) Type {
	subst, ok := c.paramSubst(tmpl.Name, tmpl.Args, args, span)
	if !ok {
		return TypeError
	}
	if subst == nil {
		return tmpl
	}
	return Substitute(tmpl, subst)
}

// paramSubst builds the substitution for a template's parameters. A nil map
// with ok=true means the template is not generic and can be shared.
func (c *Checker) paramSubst(name string, params, args []Type, span diag.Span) (map[string]Type, bool) {
	if len(params) == 0 && len(args) == 0 {
		return nil, true
	}
	if len(args) == 0 {
		// Bare use of a generic type; arguments become fresh variables.
		args = make([]Type, len(params))
		for i := range args {
			args[i] = c.uni.Fresh()
		}
	}
	if len(args) != len(params) {
		c.errorf(diag.CodeTypeArityMismatch, span,
			"'%s' expects %d type arguments, found %d", name, len(params), len(args))
		return nil, false
	}
	subst := make(map[string]Type, len(params))
	for i, p := range params {
		subst[p.(*Param).Name] = args[i]
	}
	return subst, true
}

// instantiateFn replaces a generic function's type parameters with fresh
// inference variables for one call site.
func (c *Checker) instantiateFn(fn *Function) *Function {
	if len(fn.TypeParams) == 0 {
		return fn
	}
	subst := make(map[string]Type, len(fn.TypeParams))
	for _, name := range fn.TypeParams {
		subst[name] = c.uni.Fresh()
	}
	return Substitute(fn, subst).(*Function)
}

// finish applies the final substitution to every recorded type.
func (c *Checker) finish() {
	c.uni.ApplyDefaults()
	for id, t := range c.info.ExprTypes {
		c.info.ExprTypes[id] = c.uni.Apply(t)
	}
	for id, t := range c.info.SymTypes {
		c.info.SymTypes[id] = c.uni.Apply(t)
	}
}
