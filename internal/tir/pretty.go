package tir

import (
	"fmt"
	"strings"
)

// PrettyPrint returns a human-readable listing of the module.
func (m *Module) PrettyPrint() string {
	var b strings.Builder
	for _, g := range m.Globals {
		fmt.Fprintf(&b, "const %s: %s = %s\n", g.Name, g.Type, constString(g.Value))
	}
	if len(m.Globals) > 0 && len(m.Functions) > 0 {
		b.WriteString("\n")
	}
	for i, fn := range m.Functions {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(fn.PrettyPrint())
	}
	return b.String()
}

// PrettyPrint returns a human-readable listing of the function's CFG.
func (f *Function) PrettyPrint() string {
	var b strings.Builder

	params := make([]string, len(f.Params))
	for i, p := range f.Params {
		params[i] = fmt.Sprintf("%s %s: %s", p.Value, p.Name, p.Type)
	}
	fmt.Fprintf(&b, "fn %s(%s) -> %s {\n", f.Name, strings.Join(params, ", "), f.Return)

	for _, block := range f.Blocks {
		b.WriteString(block.PrettyPrint())
	}

	b.WriteString("}\n")
	return b.String()
}

// PrettyPrint returns a human-readable listing of one block.
func (bb *BasicBlock) PrettyPrint() string {
	var b strings.Builder
	if bb.Label != "" {
		fmt.Fprintf(&b, "%s: ; %s\n", bb.ID, bb.Label)
	} else {
		fmt.Fprintf(&b, "%s:\n", bb.ID)
	}
	for _, in := range bb.Instrs {
		fmt.Fprintf(&b, "    %s\n", in.String())
	}
	fmt.Fprintf(&b, "    %s\n", bb.Term.String())
	return b.String()
}

func (in *Instr) String() string {
	switch in.Op {
	case OpConst:
		return fmt.Sprintf("%s = const %s : %s", in.Result, constString(in.Value), in.Type)
	case OpCall:
		return fmt.Sprintf("%s = call %s(%s)", in.Result, in.Callee, valueList(in.Args))
	case OpCallIndirect:
		return fmt.Sprintf("%s = call_indirect %s(%s)", in.Result, in.Args[0], valueList(in.Args[1:]))
	case OpFuncRef:
		return fmt.Sprintf("%s = func_ref %s", in.Result, in.Callee)
	case OpGlobal:
		return fmt.Sprintf("%s = global %s", in.Result, in.Global)
	case OpMakeStruct:
		parts := make([]string, len(in.Args))
		for i, a := range in.Args {
			parts[i] = fmt.Sprintf("%s: %s", in.Fields[i], a)
		}
		return fmt.Sprintf("%s = make_struct %s { %s }", in.Result, in.Struct, strings.Join(parts, ", "))
	case OpGetField:
		return fmt.Sprintf("%s = get_field %s.%s", in.Result, in.Args[0], in.Field)
	case OpSetField:
		return fmt.Sprintf("%s = set_field %s.%s <- %s", in.Result, in.Args[0], in.Field, in.Args[1])
	case OpTupleGet:
		return fmt.Sprintf("%s = tuple_get %s.%d", in.Result, in.Args[0], in.Index)
	case OpTupleSet:
		return fmt.Sprintf("%s = tuple_set %s.%d <- %s", in.Result, in.Args[0], in.Index, in.Args[1])
	case OpMakeEnum:
		if len(in.Args) == 0 {
			return fmt.Sprintf("%s = make_enum %s::%s #%d", in.Result, in.Enum, in.Variant, in.Tag)
		}
		return fmt.Sprintf("%s = make_enum %s::%s #%d (%s)", in.Result, in.Enum, in.Variant, in.Tag, valueList(in.Args))
	case OpEnumTag:
		return fmt.Sprintf("%s = enum_tag %s", in.Result, in.Args[0])
	case OpEnumPayload:
		return fmt.Sprintf("%s = enum_payload %s #%d.%d", in.Result, in.Args[0], in.Tag, in.Index)
	case OpMerge:
		parts := make([]string, len(in.Incoming))
		for i, inc := range in.Incoming {
			parts[i] = fmt.Sprintf("[%s: %s]", inc.Pred, inc.Value)
		}
		return fmt.Sprintf("%s = merge %s", in.Result, strings.Join(parts, ", "))
	default:
		return fmt.Sprintf("%s = %s %s", in.Result, in.Op, valueList(in.Args))
	}
}

func (t Terminator) String() string {
	switch t.Kind {
	case TermJump:
		return fmt.Sprintf("jump %s", t.To)
	case TermBranch:
		return fmt.Sprintf("br %s, %s, %s", t.Cond, t.Then, t.Else)
	case TermReturn:
		if t.Value.IsValid() {
			return fmt.Sprintf("ret %s", t.Value)
		}
		return "ret"
	default:
		return "<no terminator>"
	}
}

func constString(v any) string {
	switch c := v.(type) {
	case nil:
		return "()"
	case string:
		return fmt.Sprintf("%q", c)
	case rune:
		return fmt.Sprintf("%q", c)
	default:
		return fmt.Sprintf("%v", c)
	}
}

func valueList(vals []ValueID) string {
	parts := make([]string, len(vals))
	for i, v := range vals {
		parts[i] = v.String()
	}
	return strings.Join(parts, ", ")
}
