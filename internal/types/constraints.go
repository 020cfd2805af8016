package types

import (
	"fmt"

	"github.com/DrTomLLC/T-Programming-Language/internal/diag"
)

// Constraint is one equality the inference engine must satisfy, with enough
// provenance to explain a failure: both sides' source spans and the reason
// the constraint exists.
type Constraint struct {
	Left, Right Type
	LeftSpan    diag.Span
	RightSpan   diag.Span
	Reason      string
}

// constrain records the constraint and unifies it immediately. Failures
// become diagnostics carrying both spans; occurs-check failures are reported
// as unification failures rather than plain mismatches.
func (c *Checker) constrain(con Constraint) bool {
	c.info.Constraints = append(c.info.Constraints, con)

	err := c.uni.Unify(con.Left, con.Right)
	if err == nil {
		return true
	}

	code := diag.CodeTypeMismatch
	msg := fmt.Sprintf("expected '%s', found '%s'", c.uni.Apply(con.Left), c.uni.Apply(con.Right))
	if err.Occurs {
		code = diag.CodeTypeUnificationFailure
		msg = err.Error()
	}

	d := diag.Errorf(diag.StageTypeCheck, code, con.RightSpan, "%s", msg)
	if con.LeftSpan.IsValid() && con.LeftSpan != con.RightSpan {
		d = d.WithLabel(con.LeftSpan, fmt.Sprintf("'%s' expected due to this", c.uni.Apply(con.Left)))
	}
	if con.Reason != "" {
		d = d.WithNote(con.Reason)
	}
	c.errors = append(c.errors, d)
	return false
}

func (c *Checker) errorf(code diag.Code, span diag.Span, format string, args ...any) {
	c.errors = append(c.errors, diag.Errorf(diag.StageTypeCheck, code, span, format, args...))
}

// requireNumeric reports a mismatch when t has already resolved to a
// non-numeric concrete type. Unbound variables pass; defaulting settles them.
func (c *Checker) requireNumeric(t Type, span diag.Span, op string) {
	switch r := c.uni.Resolve(t).(type) {
	case *Var, *Param, *ErrorType:
	case *Primitive:
		if !IsNumeric(r) {
			c.errorf(diag.CodeTypeMismatch, span, "operator '%s' requires a numeric operand, found '%s'", op, r)
		}
	default:
		c.errorf(diag.CodeTypeMismatch, span, "operator '%s' requires a numeric operand, found '%s'", op, r)
	}
}

// requireBool constrains t to bool.
func (c *Checker) requireBool(t Type, span diag.Span, reason string) {
	c.constrain(Constraint{
		Left: TypeBool, Right: t,
		LeftSpan: span, RightSpan: span,
		Reason: reason,
	})
}
