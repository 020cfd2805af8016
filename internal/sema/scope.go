package sema

import (
	"github.com/DrTomLLC/T-Programming-Language/internal/ast"
	"github.com/DrTomLLC/T-Programming-Language/internal/diag"
)

// SymbolID indexes into the resolution's symbol arena. Zero is the null ID.
type SymbolID uint32

// NoSymbol is the null symbol ID.
const NoSymbol SymbolID = 0

// IsValid reports whether the ID refers to a symbol.
func (id SymbolID) IsValid() bool { return id != NoSymbol }

// ScopeID indexes into the resolver's scope arena. Zero is the null ID.
type ScopeID uint32

// NoScope is the null scope ID, used as the module scope's parent.
const NoScope ScopeID = 0

// SymbolKind classifies what a name refers to.
type SymbolKind uint8

const (
	SymInvalid SymbolKind = iota
	SymFn
	SymStruct
	SymEnum
	SymConst
	SymImport
	SymParam
	SymLocal
	SymLoopVar
	SymTypeParam
	SymPatBinding
)

func (k SymbolKind) String() string {
	switch k {
	case SymFn:
		return "function"
	case SymStruct:
		return "struct"
	case SymEnum:
		return "enum"
	case SymConst:
		return "constant"
	case SymImport:
		return "import"
	case SymParam:
		return "parameter"
	case SymLocal:
		return "local binding"
	case SymLoopVar:
		return "loop variable"
	case SymTypeParam:
		return "type parameter"
	case SymPatBinding:
		return "pattern binding"
	default:
		return "symbol"
	}
}

// Symbol is a named entity introduced by a declaration. The defining node is
// referenced by arena ID; which field is set depends on the kind.
type Symbol struct {
	Kind SymbolKind
	Name string
	Span diag.Span // span of the defining occurrence

	Item ast.ItemID // fn/struct/enum/const/import definitions
	Stmt ast.StmtID // let and for-loop definitions
	Pat  ast.PatID  // match pattern bindings

	// Index is the parameter or type parameter position within Item.
	Index int

	Mutable bool
}

// ScopeKind distinguishes the nesting levels name lookup walks through.
type ScopeKind uint8

const (
	ScopeModule ScopeKind = iota
	ScopeFunction
	ScopeBlock
)

type scope struct {
	kind   ScopeKind
	parent ScopeID
	names  map[string]SymbolID
}

// Resolution holds the symbol arena and the side tables produced by Resolve.
// The tables are keyed by the tree's node IDs; a missing entry means the node
// did not resolve and already carries a diagnostic.
type Resolution struct {
	symbols []Symbol

	// ExprSyms maps identifier and path expressions to their definitions.
	ExprSyms map[ast.ExprID]SymbolID
	// TypeSyms maps named type annotations to struct/enum/type-parameter
	// definitions. Primitive type names stay unmapped; the checker owns them.
	TypeSyms map[ast.TypeID]SymbolID
	// PatSyms maps binding patterns to the symbol they introduce and
	// qualified variant patterns to their enum.
	PatSyms map[ast.PatID]SymbolID
}

func newResolution() *Resolution {
	return &Resolution{
		symbols:  make([]Symbol, 1), // slot 0 reserved
		ExprSyms: make(map[ast.ExprID]SymbolID),
		TypeSyms: make(map[ast.TypeID]SymbolID),
		PatSyms:  make(map[ast.PatID]SymbolID),
	}
}

// Symbol returns the symbol for a valid ID.
func (r *Resolution) Symbol(id SymbolID) *Symbol { return &r.symbols[id] }

// NumSymbols returns the number of symbols (excluding the null slot).
func (r *Resolution) NumSymbols() int { return len(r.symbols) - 1 }

func (r *Resolution) addSymbol(sym Symbol) SymbolID {
	r.symbols = append(r.symbols, sym)
	return SymbolID(len(r.symbols) - 1)
}

// primitiveNames are type names the resolver leaves for the checker; they are
// not declarations and cannot be shadowed by items.
var primitiveNames = map[string]bool{
	"i32":  true,
	"i64":  true,
	"f64":  true,
	"bool": true,
	"str":  true,
	"char": true,
	"unit": true,
}

// IsPrimitiveName reports whether name denotes a built-in primitive type.
func IsPrimitiveName(name string) bool { return primitiveNames[name] }
