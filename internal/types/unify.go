package types

import "fmt"

// Unifier owns the inference variables of one checking run and the bindings
// the solver accumulates for them.
type Unifier struct {
	next     int
	bindings map[int]Type
	defaults []*Var // variables carrying a literal default, in creation order
}

// NewUnifier returns an empty unifier.
func NewUnifier() *Unifier {
	return &Unifier{bindings: make(map[int]Type)}
}

// Fresh allocates a new unbound inference variable.
func (u *Unifier) Fresh() *Var {
	u.next++
	return &Var{ID: u.next}
}

// FreshDefault allocates a variable that collapses to def when solving leaves
// it unconstrained. A numeric default restricts the variable to numeric types.
func (u *Unifier) FreshDefault(def Type) *Var {
	v := u.Fresh()
	v.Default = def
	v.Numeric = IsNumeric(def)
	u.defaults = append(u.defaults, v)
	return v
}

// Resolve follows variable bindings until it reaches a non-variable type or
// an unbound variable. Bindings are path-compressed along the way.
func (u *Unifier) Resolve(t Type) Type {
	for {
		v, ok := t.(*Var)
		if !ok {
			return t
		}
		bound, ok := u.bindings[v.ID]
		if !ok {
			return v
		}
		if inner, ok := bound.(*Var); ok {
			if final, ok := u.bindings[inner.ID]; ok {
				u.bindings[v.ID] = final
			}
		}
		t = bound
	}
}

// ApplyDefaults binds every still-unbound defaulted variable to its default.
// Called once after a function body has been fully constrained.
func (u *Unifier) ApplyDefaults() {
	for _, v := range u.defaults {
		if _, bound := u.bindings[v.ID]; !bound {
			u.bindings[v.ID] = v.Default
		}
	}
	u.defaults = u.defaults[:0]
}

// Apply substitutes all bound variables in t, deeply. Unbound variables are
// returned as-is.
func (u *Unifier) Apply(t Type) Type {
	switch t := u.Resolve(t).(type) {
	case *Var, *Primitive, *Param, *ErrorType:
		return t
	case *Array:
		return &Array{Elem: u.Apply(t.Elem)}
	case *Tuple:
		elems := make([]Type, len(t.Elems))
		for i, e := range t.Elems {
			elems[i] = u.Apply(e)
		}
		return &Tuple{Elems: elems}
	case *Function:
		params := make([]Type, len(t.Params))
		for i, p := range t.Params {
			params[i] = u.Apply(p)
		}
		return &Function{TypeParams: t.TypeParams, Params: params, Return: u.Apply(t.Return)}
	case *Struct:
		out := &Struct{Name: t.Name, Args: applyAll(u, t.Args), Fields: make([]Field, len(t.Fields))}
		for i, f := range t.Fields {
			out.Fields[i] = Field{Name: f.Name, Type: u.Apply(f.Type)}
		}
		return out
	case *Enum:
		out := &Enum{Name: t.Name, Args: applyAll(u, t.Args), Variants: make([]Variant, len(t.Variants))}
		for i, v := range t.Variants {
			out.Variants[i] = Variant{Name: v.Name, Payload: applyAll(u, v.Payload)}
		}
		return out
	default:
		return t
	}
}

func applyAll(u *Unifier, ts []Type) []Type {
	if len(ts) == 0 {
		return nil
	}
	out := make([]Type, len(ts))
	for i, t := range ts {
		out[i] = u.Apply(t)
	}
	return out
}

// UnifyError describes why two types failed to unify. Occurs marks an
// occurs-check failure (an infinite type), which callers report differently
// from a plain shape mismatch.
type UnifyError struct {
	Left, Right Type
	Occurs      bool
}

func (e *UnifyError) Error() string {
	if e.Occurs {
		return fmt.Sprintf("cannot construct the infinite type %s = %s", e.Left, e.Right)
	}
	return fmt.Sprintf("type mismatch: %s vs %s", e.Left, e.Right)
}

// Unify makes a and b equal under the current bindings, or explains why it
// cannot. The error type unifies with anything so poisoned expressions stay
// quiet.
func (u *Unifier) Unify(a, b Type) *UnifyError {
	a = u.Resolve(a)
	b = u.Resolve(b)

	if a == b {
		return nil
	}

	if _, ok := a.(*ErrorType); ok {
		return nil
	}
	if _, ok := b.(*ErrorType); ok {
		return nil
	}

	if av, ok := a.(*Var); ok {
		return u.bindVar(av, b)
	}
	if bv, ok := b.(*Var); ok {
		return u.bindVar(bv, a)
	}

	switch at := a.(type) {
	case *Primitive:
		if bt, ok := b.(*Primitive); ok && at.Kind == bt.Kind {
			return nil
		}

	case *Param:
		if bt, ok := b.(*Param); ok && at.Name == bt.Name {
			return nil
		}

	case *Array:
		if bt, ok := b.(*Array); ok {
			return u.Unify(at.Elem, bt.Elem)
		}

	case *Tuple:
		if bt, ok := b.(*Tuple); ok && len(at.Elems) == len(bt.Elems) {
			for i := range at.Elems {
				if err := u.Unify(at.Elems[i], bt.Elems[i]); err != nil {
					return err
				}
			}
			return nil
		}

	case *Function:
		if bt, ok := b.(*Function); ok && len(at.Params) == len(bt.Params) {
			for i := range at.Params {
				if err := u.Unify(at.Params[i], bt.Params[i]); err != nil {
					return err
				}
			}
			return u.Unify(at.Return, bt.Return)
		}

	case *Struct:
		if bt, ok := b.(*Struct); ok && at.Name == bt.Name && len(at.Args) == len(bt.Args) {
			for i := range at.Args {
				if err := u.Unify(at.Args[i], bt.Args[i]); err != nil {
					return err
				}
			}
			return nil
		}

	case *Enum:
		if bt, ok := b.(*Enum); ok && at.Name == bt.Name && len(at.Args) == len(bt.Args) {
			for i := range at.Args {
				if err := u.Unify(at.Args[i], bt.Args[i]); err != nil {
					return err
				}
			}
			return nil
		}
	}

	return &UnifyError{Left: a, Right: b}
}

func (u *Unifier) bindVar(v *Var, t Type) *UnifyError {
	if u.occurs(v, t) {
		return &UnifyError{Left: v, Right: t, Occurs: true}
	}
	if v.Numeric {
		switch r := u.Resolve(t).(type) {
		case *Var:
			r.Numeric = r.Numeric || v.Numeric
		case *Param:
			// Rigid parameters are checked at their use sites.
		case *Primitive:
			if !IsNumeric(r) {
				return &UnifyError{Left: v, Right: t}
			}
		default:
			return &UnifyError{Left: v, Right: t}
		}
	}
	u.bindings[v.ID] = t
	return nil
}

// occurs reports whether v appears inside t, which would make the binding an
// infinite type.
func (u *Unifier) occurs(v *Var, t Type) bool {
	switch t := u.Resolve(t).(type) {
	case *Var:
		return t.ID == v.ID
	case *Array:
		return u.occurs(v, t.Elem)
	case *Tuple:
		for _, e := range t.Elems {
			if u.occurs(v, e) {
				return true
			}
		}
	case *Function:
		for _, p := range t.Params {
			if u.occurs(v, p) {
				return true
			}
		}
		return u.occurs(v, t.Return)
	case *Struct:
		for _, a := range t.Args {
			if u.occurs(v, a) {
				return true
			}
		}
		for _, f := range t.Fields {
			if u.occurs(v, f.Type) {
				return true
			}
		}
	case *Enum:
		for _, a := range t.Args {
			if u.occurs(v, a) {
				return true
			}
		}
		for _, vv := range t.Variants {
			for _, p := range vv.Payload {
				if u.occurs(v, p) {
					return true
				}
			}
		}
	}
	return false
}

// Substitute replaces rigid type parameters by name, deeply. It is how
// generic definitions are instantiated.
func Substitute(t Type, subst map[string]Type) Type {
	switch t := t.(type) {
	case *Param:
		if r, ok := subst[t.Name]; ok {
			return r
		}
		return t
	case *Array:
		return &Array{Elem: Substitute(t.Elem, subst)}
	case *Tuple:
		elems := make([]Type, len(t.Elems))
		for i, e := range t.Elems {
			elems[i] = Substitute(e, subst)
		}
		return &Tuple{Elems: elems}
	case *Function:
		params := make([]Type, len(t.Params))
		for i, p := range t.Params {
			params[i] = Substitute(p, subst)
		}
		return &Function{Params: params, Return: Substitute(t.Return, subst)}
	case *Struct:
		out := &Struct{Name: t.Name, Args: substituteAll(t.Args, subst), Fields: make([]Field, len(t.Fields))}
		for i, f := range t.Fields {
			out.Fields[i] = Field{Name: f.Name, Type: Substitute(f.Type, subst)}
		}
		return out
	case *Enum:
		out := &Enum{Name: t.Name, Args: substituteAll(t.Args, subst), Variants: make([]Variant, len(t.Variants))}
		for i, v := range t.Variants {
			out.Variants[i] = Variant{Name: v.Name, Payload: substituteAll(v.Payload, subst)}
		}
		return out
	default:
		return t
	}
}

func substituteAll(ts []Type, subst map[string]Type) []Type {
	if len(ts) == 0 {
		return nil
	}
	out := make([]Type, len(ts))
	for i, t := range ts {
		out[i] = Substitute(t, subst)
	}
	return out
}
