package types

import (
	"github.com/DrTomLLC/T-Programming-Language/internal/ast"
	"github.com/DrTomLLC/T-Programming-Language/internal/diag"
	"github.com/DrTomLLC/T-Programming-Language/internal/lexer"
)

// checkExhaustive verifies that a match covers every possible value of its
// scrutinee. Guarded arms never count toward coverage: a guard can fail at
// runtime, so only unconditional arms guarantee a value is handled.
func (c *Checker) checkExhaustive(match *ast.Expr, scrutinee Type) {
	var unconditional []ast.PatID
	for _, arm := range match.Arms {
		if !arm.Guard.IsValid() {
			unconditional = append(unconditional, arm.Pat)
		}
	}

	// A catch-all arm settles any scrutinee type.
	for _, patID := range unconditional {
		switch c.tree.Pat(patID).Kind {
		case ast.PatWildcard, ast.PatBinding:
			return
		}
	}

	switch t := c.uni.Resolve(scrutinee).(type) {
	case *Enum:
		c.checkEnumCoverage(match, t, unconditional)
	case *Primitive:
		if t.Kind == Bool {
			c.checkBoolCoverage(match, unconditional)
			return
		}
		c.errorf(diag.CodeTypeNonExhaustiveMatch, match.Span,
			"match on '%s' is not exhaustive; add a wildcard arm", t)
	case *ErrorType:
		// Already reported upstream.
	default:
		c.errorf(diag.CodeTypeNonExhaustiveMatch, match.Span,
			"match on '%s' is not exhaustive; add a wildcard arm", c.uni.Apply(scrutinee))
	}
}

func (c *Checker) checkEnumCoverage(match *ast.Expr, enum *Enum, unconditional []ast.PatID) {
	covered := make(map[string]bool, len(enum.Variants))
	for _, patID := range unconditional {
		pat := c.tree.Pat(patID)
		if pat.Kind != ast.PatVariant {
			continue
		}
		// Payload sub-patterns must themselves be irrefutable to count.
		if c.irrefutableElems(pat) {
			covered[pat.Name.Name] = true
		}
	}

	for _, v := range enum.Variants {
		if !covered[v.Name] {
			c.errorf(diag.CodeTypeNonExhaustiveMatch, match.Span,
				"match on '%s' is not exhaustive; variant '%s' is not covered", enum.Name, v.Name)
			return
		}
	}
}

func (c *Checker) checkBoolCoverage(match *ast.Expr, unconditional []ast.PatID) {
	var sawTrue, sawFalse bool
	for _, patID := range unconditional {
		pat := c.tree.Pat(patID)
		if pat.Kind != ast.PatLiteral {
			continue
		}
		switch pat.Tok {
		case lexer.TRUE:
			sawTrue = true
		case lexer.FALSE:
			sawFalse = true
		}
	}
	if !sawTrue || !sawFalse {
		missing := "true"
		if sawTrue {
			missing = "false"
		}
		c.errorf(diag.CodeTypeNonExhaustiveMatch, match.Span,
			"match on 'bool' is not exhaustive; '%s' is not covered", missing)
	}
}

// irrefutableElems reports whether every payload sub-pattern always matches.
func (c *Checker) irrefutableElems(pat *ast.Pattern) bool {
	for _, el := range pat.Elems {
		sub := c.tree.Pat(el)
		switch sub.Kind {
		case ast.PatWildcard, ast.PatBinding:
		case ast.PatTuple:
			if !c.irrefutableElems(sub) {
				return false
			}
		default:
			return false
		}
	}
	return true
}
