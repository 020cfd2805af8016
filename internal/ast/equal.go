package ast

// Equal reports whether two trees are structurally equal, ignoring spans.
// It is the comparison used by the print/re-parse round-trip property.
func Equal(a, b *Tree) bool {
	if len(a.Items) != len(b.Items) {
		return false
	}
	for i := range a.Items {
		if !equalItem(a, b, a.Items[i], b.Items[i]) {
			return false
		}
	}
	return true
}

func equalIdent(x, y Ident) bool {
	return x.Name == y.Name
}

func equalIdents(x, y []Ident) bool {
	if len(x) != len(y) {
		return false
	}
	for i := range x {
		if !equalIdent(x[i], y[i]) {
			return false
		}
	}
	return true
}

func equalItem(a, b *Tree, ai, bi ItemID) bool {
	x, y := a.Item(ai), b.Item(bi)
	if x.Kind != y.Kind || !equalIdent(x.Name, y.Name) || !equalIdents(x.TypeParams, y.TypeParams) {
		return false
	}
	switch x.Kind {
	case ItemFn:
		if len(x.Params) != len(y.Params) {
			return false
		}
		for i := range x.Params {
			if !equalIdent(x.Params[i].Name, y.Params[i].Name) ||
				!equalType(a, b, x.Params[i].Type, y.Params[i].Type) {
				return false
			}
		}
		return equalType(a, b, x.Result, y.Result) && equalExpr(a, b, x.Body, y.Body)
	case ItemStruct:
		if len(x.Fields) != len(y.Fields) {
			return false
		}
		for i := range x.Fields {
			if !equalIdent(x.Fields[i].Name, y.Fields[i].Name) ||
				!equalType(a, b, x.Fields[i].Type, y.Fields[i].Type) {
				return false
			}
		}
		return true
	case ItemEnum:
		if len(x.Variants) != len(y.Variants) {
			return false
		}
		for i := range x.Variants {
			xv, yv := x.Variants[i], y.Variants[i]
			if !equalIdent(xv.Name, yv.Name) || len(xv.Payload) != len(yv.Payload) {
				return false
			}
			for j := range xv.Payload {
				if !equalType(a, b, xv.Payload[j], yv.Payload[j]) {
					return false
				}
			}
		}
		return true
	case ItemConst:
		return equalType(a, b, x.Type, y.Type) && equalExpr(a, b, x.Value, y.Value)
	case ItemUse:
		return equalIdents(x.Path, y.Path) && equalIdent(x.Alias, y.Alias)
	}
	return true
}

func equalStmt(a, b *Tree, as, bs StmtID) bool {
	x, y := a.Stmt(as), b.Stmt(bs)
	if x.Kind != y.Kind {
		return false
	}
	switch x.Kind {
	case StmtLet:
		return equalIdent(x.Name, y.Name) && x.Mutable == y.Mutable &&
			equalType(a, b, x.Type, y.Type) && equalExpr(a, b, x.Value, y.Value)
	case StmtExpr, StmtReturn:
		return equalExpr(a, b, x.Value, y.Value)
	case StmtWhile:
		return equalExpr(a, b, x.Cond, y.Cond) && equalExpr(a, b, x.Body, y.Body)
	case StmtFor:
		return equalIdent(x.Name, y.Name) && equalExpr(a, b, x.From, y.From) &&
			equalExpr(a, b, x.To, y.To) && equalExpr(a, b, x.Body, y.Body)
	}
	return true
}

func equalExpr(a, b *Tree, ae, be ExprID) bool {
	if ae.IsValid() != be.IsValid() {
		return false
	}
	if !ae.IsValid() {
		return true
	}
	x, y := a.Expr(ae), b.Expr(be)
	if x.Kind != y.Kind || x.Op != y.Op || x.Text != y.Text ||
		!equalIdent(x.Name, y.Name) || !equalIdent(x.Qual, y.Qual) {
		return false
	}
	if !equalExpr(a, b, x.X, y.X) || !equalExpr(a, b, x.Y, y.Y) ||
		!equalExpr(a, b, x.Else, y.Else) || !equalExpr(a, b, x.Tail, y.Tail) {
		return false
	}
	if len(x.List) != len(y.List) || len(x.Stmts) != len(y.Stmts) ||
		len(x.Arms) != len(y.Arms) || len(x.Fields) != len(y.Fields) {
		return false
	}
	for i := range x.List {
		if !equalExpr(a, b, x.List[i], y.List[i]) {
			return false
		}
	}
	for i := range x.Stmts {
		if !equalStmt(a, b, x.Stmts[i], y.Stmts[i]) {
			return false
		}
	}
	for i := range x.Arms {
		xa, ya := x.Arms[i], y.Arms[i]
		if !equalPat(a, b, xa.Pat, ya.Pat) ||
			!equalExpr(a, b, xa.Guard, ya.Guard) ||
			!equalExpr(a, b, xa.Body, ya.Body) {
			return false
		}
	}
	for i := range x.Fields {
		if !equalIdent(x.Fields[i].Name, y.Fields[i].Name) ||
			!equalExpr(a, b, x.Fields[i].Value, y.Fields[i].Value) {
			return false
		}
	}
	return true
}

func equalPat(a, b *Tree, ap, bp PatID) bool {
	if ap.IsValid() != bp.IsValid() {
		return false
	}
	if !ap.IsValid() {
		return true
	}
	x, y := a.Pat(ap), b.Pat(bp)
	if x.Kind != y.Kind || x.Tok != y.Tok || x.Text != y.Text ||
		!equalIdent(x.Name, y.Name) || !equalIdent(x.Qual, y.Qual) {
		return false
	}
	if len(x.Elems) != len(y.Elems) {
		return false
	}
	for i := range x.Elems {
		if !equalPat(a, b, x.Elems[i], y.Elems[i]) {
			return false
		}
	}
	return true
}

func equalType(a, b *Tree, at, bt TypeID) bool {
	if at.IsValid() != bt.IsValid() {
		return false
	}
	if !at.IsValid() {
		return true
	}
	x, y := a.Type(at), b.Type(bt)
	if x.Kind != y.Kind || !equalIdent(x.Name, y.Name) {
		return false
	}
	if !equalType(a, b, x.Elem, y.Elem) || len(x.Args) != len(y.Args) {
		return false
	}
	for i := range x.Args {
		if !equalType(a, b, x.Args[i], y.Args[i]) {
			return false
		}
	}
	return true
}
