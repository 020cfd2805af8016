package ast

// Node identifiers index into the per-kind arenas of a Tree. Child
// relationships in the syntax tree are expressed through these indices, never
// through pointers, so the whole tree is a handful of flat slices. Zero is the
// null ID for every kind.

// ItemID identifies a top-level item.
type ItemID uint32

// StmtID identifies a statement.
type StmtID uint32

// ExprID identifies an expression.
type ExprID uint32

// TypeID identifies a type annotation expression.
type TypeID uint32

// PatID identifies a pattern.
type PatID uint32

// Null ID constants.
const (
	NoItem ItemID = 0
	NoStmt StmtID = 0
	NoExpr ExprID = 0
	NoType TypeID = 0
	NoPat  PatID  = 0
)

// IsValid reports whether the ID refers to a node.
func (id ItemID) IsValid() bool { return id != NoItem }
func (id StmtID) IsValid() bool { return id != NoStmt }
func (id ExprID) IsValid() bool { return id != NoExpr }
func (id TypeID) IsValid() bool { return id != NoType }
func (id PatID) IsValid() bool  { return id != NoPat }
