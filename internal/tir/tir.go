// Package tir defines the typed intermediate representation produced by
// lowering: SSA-form functions made of basic blocks, instructions, and
// terminators. Values are defined exactly once and referenced by id.
package tir

import (
	"fmt"

	"github.com/DrTomLLC/T-Programming-Language/internal/types"
)

// ValueID names one SSA value. Zero is the null value.
type ValueID uint32

// NoValue is the null ValueID.
const NoValue ValueID = 0

// IsValid reports whether the id refers to a value.
func (id ValueID) IsValid() bool { return id != NoValue }

func (id ValueID) String() string { return fmt.Sprintf("v%d", uint32(id)) }

// BlockID indexes a function's block list. The entry block is always 0.
type BlockID uint32

func (id BlockID) String() string { return fmt.Sprintf("b%d", uint32(id)) }

// Module is an ordered collection of lowered functions and globals.
type Module struct {
	Functions []*Function
	Globals   []*Global
}

// Global is a module-level constant with a folded initializer.
type Global struct {
	Name  string
	Type  types.Type
	Value any // int64, float64, bool, string, or rune
}

// Param is a function parameter. Its value is defined at function entry,
// before any block runs.
type Param struct {
	Name  string
	Type  types.Type
	Value ValueID
}

// Function is a lowered function: a name, a signature, and a control-flow
// graph of basic blocks. Blocks is indexed by BlockID; Entry is always 0.
type Function struct {
	Name   string
	Params []Param
	Return types.Type
	Entry  BlockID
	Blocks []*BasicBlock

	// ValueTypes maps every ValueID to its type. Index 0 is unused.
	ValueTypes []types.Type
}

// Block returns the block for a valid id.
func (f *Function) Block(id BlockID) *BasicBlock { return f.Blocks[id] }

// NumValues returns the number of SSA values the function defines.
func (f *Function) NumValues() int { return len(f.ValueTypes) - 1 }

// BasicBlock is an ordered instruction list closed by exactly one terminator.
type BasicBlock struct {
	ID     BlockID
	Label  string
	Instrs []*Instr
	Term   Terminator
}

// Opcode identifies what an instruction computes.
type Opcode uint8

const (
	OpInvalid Opcode = iota

	OpConst

	OpAdd
	OpSub
	OpMul
	OpDiv
	OpRem
	OpEq
	OpNe
	OpLt
	OpLe
	OpGt
	OpGe
	OpNot
	OpNeg

	OpCall
	OpCallIndirect
	OpFuncRef
	OpGlobal

	OpMakeStruct
	OpGetField
	OpSetField

	OpMakeArray
	OpIndex
	OpSetIndex

	OpMakeTuple
	OpTupleGet
	OpTupleSet

	OpMakeEnum
	OpEnumTag
	OpEnumPayload

	// OpMerge joins one value per predecessor edge at a control-flow join.
	// Lowering inserts it as a placeholder and fills Incoming in a second
	// pass once every predecessor edge is known.
	OpMerge
)

var opcodeNames = map[Opcode]string{
	OpConst:        "const",
	OpAdd:          "add",
	OpSub:          "sub",
	OpMul:          "mul",
	OpDiv:          "div",
	OpRem:          "rem",
	OpEq:           "eq",
	OpNe:           "ne",
	OpLt:           "lt",
	OpLe:           "le",
	OpGt:           "gt",
	OpGe:           "ge",
	OpNot:          "not",
	OpNeg:          "neg",
	OpCall:         "call",
	OpCallIndirect: "call_indirect",
	OpFuncRef:      "func_ref",
	OpGlobal:       "global",
	OpMakeStruct:   "make_struct",
	OpGetField:     "get_field",
	OpSetField:     "set_field",
	OpMakeArray:    "make_array",
	OpIndex:        "index",
	OpSetIndex:     "set_index",
	OpMakeTuple:    "make_tuple",
	OpTupleGet:     "tuple_get",
	OpTupleSet:     "tuple_set",
	OpMakeEnum:     "make_enum",
	OpEnumTag:      "enum_tag",
	OpEnumPayload:  "enum_payload",
	OpMerge:        "merge",
}

func (op Opcode) String() string {
	if s, ok := opcodeNames[op]; ok {
		return s
	}
	return fmt.Sprintf("opcode(%d)", uint8(op))
}

// Incoming is one merge operand: the value flowing in along one
// predecessor edge.
type Incoming struct {
	Pred  BlockID
	Value ValueID
}

// Instr is one instruction: an opcode, operand value ids, and at most one
// result value id. Field usage by opcode:
//
//	OpConst:       Value (int64, float64, bool, string, rune, or nil for unit)
//	OpCall:        Callee, Args
//	OpCallIndirect: Args (Args[0] is the callee value)
//	OpFuncRef:     Callee
//	OpGlobal:      Global
//	OpMakeStruct:  Struct, Fields (names parallel to Args), Args
//	OpGetField, OpSetField: Field, Args
//	OpTupleGet, OpTupleSet: Index, Args
//	OpMakeEnum:    Enum, Variant, Tag, Args (payload)
//	OpEnumPayload: Tag, Index, Args (subject)
//	OpMerge:       Incoming
type Instr struct {
	Op     Opcode
	Result ValueID
	Type   types.Type
	Args   []ValueID

	Value    any
	Callee   string
	Global   string
	Struct   string
	Fields   []string
	Field    string
	Index    int
	Enum     string
	Variant  string
	Tag      int
	Incoming []Incoming

	dead bool
}

// TermKind tags the variant of a terminator.
type TermKind uint8

const (
	TermNone TermKind = iota
	TermJump
	TermBranch
	TermReturn
)

// Terminator closes a basic block. Field usage by kind:
//
//	TermJump:   To
//	TermBranch: Cond, Then, Else
//	TermReturn: Value (NoValue for unit)
type Terminator struct {
	Kind       TermKind
	To         BlockID
	Cond       ValueID
	Then, Else BlockID
	Value      ValueID
}

// Successors returns the blocks this terminator may transfer control to.
func (t Terminator) Successors() []BlockID {
	switch t.Kind {
	case TermJump:
		return []BlockID{t.To}
	case TermBranch:
		return []BlockID{t.Then, t.Else}
	default:
		return nil
	}
}

// LoweringErrorKind classifies internal lowering failures.
type LoweringErrorKind uint8

const (
	// InvalidControlFlow marks a structurally broken CFG: a missing
	// terminator, a dangling target, an SSA violation. It indicates a bug
	// in an earlier stage, never a user mistake.
	InvalidControlFlow LoweringErrorKind = iota
	// UnsupportedConstruct marks input the lowerer cannot express.
	UnsupportedConstruct
)

func (k LoweringErrorKind) String() string {
	if k == UnsupportedConstruct {
		return "unsupported construct"
	}
	return "invalid control flow"
}

// LoweringError is an internal-invariant violation. A correctly resolved and
// type-checked program must always lower, so these surface as Go errors
// rather than user diagnostics.
type LoweringError struct {
	Kind     LoweringErrorKind
	Function string
	Message  string
}

func (e *LoweringError) Error() string {
	if e.Function != "" {
		return fmt.Sprintf("%s in function %s: %s", e.Kind, e.Function, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// predecessors maps every block to the blocks that branch into it, in block
// order.
func predecessors(fn *Function) [][]BlockID {
	preds := make([][]BlockID, len(fn.Blocks))
	for _, b := range fn.Blocks {
		for _, succ := range b.Term.Successors() {
			if int(succ) < len(preds) {
				preds[succ] = append(preds[succ], b.ID)
			}
		}
	}
	return preds
}
