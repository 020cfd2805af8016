package ast

import (
	"github.com/DrTomLLC/T-Programming-Language/internal/diag"
	"github.com/DrTomLLC/T-Programming-Language/internal/lexer"
)

// Ident is a name with its source span. It is embedded in nodes rather than
// allocated in an arena because it has no children.
type Ident struct {
	Name string
	Span diag.Span
}

// IsValid reports whether the identifier is present.
func (i Ident) IsValid() bool { return i.Name != "" }

// ItemKind tags the variant of a top-level item.
type ItemKind uint8

const (
	ItemInvalid ItemKind = iota
	ItemFn
	ItemStruct
	ItemEnum
	ItemConst
	ItemUse
)

// Param is a function parameter.
type Param struct {
	Name Ident
	Type TypeID
	Span diag.Span
}

// FieldDef is a struct field declaration.
type FieldDef struct {
	Name Ident
	Type TypeID
	Span diag.Span
}

// VariantDef is an enum variant declaration, with an optional payload.
type VariantDef struct {
	Name    Ident
	Payload []TypeID
	Span    diag.Span
}

// Item is a top-level declaration. Field usage by kind:
//
//	ItemFn:     Name, TypeParams, Params, Result (NoType = unit), Body (block)
//	ItemStruct: Name, TypeParams, Fields
//	ItemEnum:   Name, TypeParams, Variants
//	ItemConst:  Name, Type, Value
//	ItemUse:    Path, Alias (zero = last path segment)
type Item struct {
	Kind ItemKind
	Span diag.Span
	Name Ident

	TypeParams []Ident
	Params     []Param
	Result     TypeID
	Body       ExprID

	Fields   []FieldDef
	Variants []VariantDef

	Type  TypeID
	Value ExprID

	Path  []Ident
	Alias Ident
}

// StmtKind tags the variant of a statement.
type StmtKind uint8

const (
	StmtInvalid StmtKind = iota
	StmtLet
	StmtExpr
	StmtWhile
	StmtFor
	StmtReturn
	StmtBreak
	StmtContinue
)

// Stmt is a statement. Field usage by kind:
//
//	StmtLet:    Name, Mutable, Type (annotation, may be NoType), Value
//	StmtExpr:   Value
//	StmtWhile:  Cond, Body (block)
//	StmtFor:    Name (loop variable), From, To, Body (block)
//	StmtReturn: Value (NoExpr = bare return)
//	StmtBreak, StmtContinue: span only
type Stmt struct {
	Kind StmtKind
	Span diag.Span
	Name Ident

	Mutable bool
	Type    TypeID
	Value   ExprID

	Cond     ExprID
	From, To ExprID
	Body     ExprID
}

// ExprKind tags the variant of an expression.
type ExprKind uint8

const (
	ExprInvalid ExprKind = iota
	ExprIdent
	ExprInt
	ExprFloat
	ExprString
	ExprChar
	ExprBool
	ExprUnary
	ExprBinary
	ExprAssign
	ExprCall
	ExprIndex
	ExprField
	ExprPath
	ExprStructLit
	ExprArray
	ExprTuple
	ExprIf
	ExprMatch
	ExprBlock
	// ExprError is the placeholder produced when recovery discarded the
	// expression; later stages skip it without cascading.
	ExprError
)

// MatchArm is one arm of a match expression.
type MatchArm struct {
	Pat   PatID
	Guard ExprID // NoExpr when unguarded
	Body  ExprID
	Span  diag.Span
}

// FieldInit is one field initializer of a struct literal.
type FieldInit struct {
	Name  Ident
	Value ExprID
	Span  diag.Span
}

// Expr is an expression. Field usage by kind:
//
//	ExprIdent:     Name
//	ExprInt, ExprFloat: Text (raw literal, preserving base prefixes)
//	ExprString, ExprChar: Text (decoded value)
//	ExprBool:      Text ("true"/"false")
//	ExprUnary:     Op, X
//	ExprBinary:    Op, X, Y
//	ExprAssign:    X (target), Y (value)
//	ExprCall:      X (callee), List (arguments)
//	ExprIndex:     X (target), Y (index)
//	ExprField:     X (target), Name (field)
//	ExprPath:      Qual (enum name), Name (variant)
//	ExprStructLit: Name (struct name), Fields
//	ExprArray:     List (elements)
//	ExprTuple:     List (elements)
//	ExprIf:        X (condition), Y (then block), Else (block, if, or NoExpr)
//	ExprMatch:     X (scrutinee), Arms
//	ExprBlock:     Stmts, Tail (NoExpr = unit-valued block)
type Expr struct {
	Kind ExprKind
	Span diag.Span

	Text string
	Name Ident
	Qual Ident
	Op   lexer.TokenType

	X, Y  ExprID
	Else  ExprID
	List  []ExprID
	Stmts []StmtID
	Tail  ExprID

	Arms   []MatchArm
	Fields []FieldInit
}

// TypeKind tags the variant of a type annotation.
type TypeKind uint8

const (
	TypeInvalid TypeKind = iota
	TypeName
	TypeFn
	TypeArray
	TypeTuple
)

// TypeExpr is a type annotation. Field usage by kind:
//
//	TypeName:  Name, Args (generic arguments, may be empty)
//	TypeFn:    Args (parameter types), Elem (return type, NoType = unit)
//	TypeArray: Elem
//	TypeTuple: Args
type TypeExpr struct {
	Kind TypeKind
	Span diag.Span
	Name Ident
	Args []TypeID
	Elem TypeID
}

// PatKind tags the variant of a pattern.
type PatKind uint8

const (
	PatInvalid PatKind = iota
	PatWildcard
	PatBinding
	PatLiteral
	PatVariant
	PatTuple
)

// Pattern is a match pattern. Field usage by kind:
//
//	PatWildcard: span only
//	PatBinding:  Name
//	PatLiteral:  Tok (INT/FLOAT/STRING/CHAR/TRUE/FALSE), Text
//	PatVariant:  Qual (enum name, optional), Name (variant), Elems (payload)
//	PatTuple:    Elems
type Pattern struct {
	Kind  PatKind
	Span  diag.Span
	Name  Ident
	Qual  Ident
	Tok   lexer.TokenType
	Text  string
	Elems []PatID
}

// Tree owns a parsed compilation unit: flat arenas of nodes addressed by
// integer index. Nodes are immutable once parsing completes; later stages
// attach information in side tables keyed by ID.
type Tree struct {
	Filename string
	Span     diag.Span
	Items    []ItemID // top-level declaration order

	items []Item
	stmts []Stmt
	exprs []Expr
	types []TypeExpr
	pats  []Pattern
}

// NewTree constructs an empty tree. Slot 0 of every arena is reserved so the
// zero ID stays null.
func NewTree(filename string) *Tree {
	return &Tree{
		Filename: filename,
		items:    make([]Item, 1),
		stmts:    make([]Stmt, 1),
		exprs:    make([]Expr, 1),
		types:    make([]TypeExpr, 1),
		pats:     make([]Pattern, 1),
	}
}

// AddItem appends an item node and returns its ID.
func (t *Tree) AddItem(n Item) ItemID {
	t.items = append(t.items, n)
	return ItemID(len(t.items) - 1)
}

// AddStmt appends a statement node and returns its ID.
func (t *Tree) AddStmt(n Stmt) StmtID {
	t.stmts = append(t.stmts, n)
	return StmtID(len(t.stmts) - 1)
}

// AddExpr appends an expression node and returns its ID.
func (t *Tree) AddExpr(n Expr) ExprID {
	t.exprs = append(t.exprs, n)
	return ExprID(len(t.exprs) - 1)
}

// AddType appends a type annotation node and returns its ID.
func (t *Tree) AddType(n TypeExpr) TypeID {
	t.types = append(t.types, n)
	return TypeID(len(t.types) - 1)
}

// AddPat appends a pattern node and returns its ID.
func (t *Tree) AddPat(n Pattern) PatID {
	t.pats = append(t.pats, n)
	return PatID(len(t.pats) - 1)
}

// Item returns the node for a valid item ID. The pointer is only stable until
// the next Add call; stages after parsing may hold it freely.
func (t *Tree) Item(id ItemID) *Item { return &t.items[id] }

// Stmt returns the node for a valid statement ID.
func (t *Tree) Stmt(id StmtID) *Stmt { return &t.stmts[id] }

// Expr returns the node for a valid expression ID.
func (t *Tree) Expr(id ExprID) *Expr { return &t.exprs[id] }

// Type returns the node for a valid type ID.
func (t *Tree) Type(id TypeID) *TypeExpr { return &t.types[id] }

// Pat returns the node for a valid pattern ID.
func (t *Tree) Pat(id PatID) *Pattern { return &t.pats[id] }

// NumExprs returns the number of expression nodes (excluding the null slot).
func (t *Tree) NumExprs() int { return len(t.exprs) - 1 }

// NumItems returns the number of item nodes (excluding the null slot).
func (t *Tree) NumItems() int { return len(t.items) - 1 }
