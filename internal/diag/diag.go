package diag

import "fmt"

// Stage identifies which compiler phase produced the diagnostic.
type Stage string

const (
	StageScan      Stage = "scan"
	StageParse     Stage = "parse"
	StageResolve   Stage = "resolve"
	StageTypeCheck Stage = "typecheck"
	StageLower     Stage = "lower"
)

// Severity captures how impactful the diagnostic is.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityNote    Severity = "note"
)

// Code is a stable identifier for a diagnostic.
type Code string

const (
	// Scanner errors
	CodeLexInvalidCharacter    Code = "LEX_INVALID_CHARACTER"
	CodeLexUnterminatedLiteral Code = "LEX_UNTERMINATED_LITERAL"

	// Parser errors
	CodeParseUnexpectedToken Code = "PARSE_UNEXPECTED_TOKEN"
	CodeParseMissingToken    Code = "PARSE_MISSING_TOKEN"

	// Resolver errors
	CodeNameUndefined        Code = "NAME_UNDEFINED"
	CodeNameDuplicateBinding Code = "NAME_DUPLICATE_BINDING"
	CodeNameAmbiguousImport  Code = "NAME_AMBIGUOUS_IMPORT"

	// Type checker errors
	CodeTypeMismatch           Code = "TYPE_MISMATCH"
	CodeTypeUnificationFailure Code = "TYPE_UNIFICATION_FAILURE"
	CodeTypeNonExhaustiveMatch Code = "TYPE_NON_EXHAUSTIVE_MATCH"
	CodeTypeArityMismatch      Code = "TYPE_ARITY_MISMATCH"

	// Lowering errors
	CodeLowerInvalidJump Code = "LOWER_INVALID_JUMP"
)

// Span represents a half-open byte range in source code, with 1-based
// line/column of its start. Spans carry location only; they never own text.
type Span struct {
	Filename string
	Line     int
	Column   int
	Start    int
	End      int
}

// String returns a human-readable representation of the span.
func (s Span) String() string {
	if s.Filename != "" {
		return fmt.Sprintf("%s:%d:%d", s.Filename, s.Line, s.Column)
	}
	return fmt.Sprintf("%d:%d", s.Line, s.Column)
}

// IsValid reports whether the span has usable location information.
func (s Span) IsValid() bool {
	return s.Line > 0 && s.Column > 0
}

// Merge returns a span covering both s and other. The receiver is expected to
// start no later than other; only the end is extended.
func (s Span) Merge(other Span) Span {
	out := s
	if out.Filename == "" {
		out.Filename = other.Filename
	}
	if out.Line == 0 && other.Line != 0 {
		out.Line = other.Line
		out.Column = other.Column
		out.Start = other.Start
	}
	if other.End > out.End {
		out.End = other.End
	}
	return out
}

// LabeledSpan is a secondary span with an optional explanatory label.
type LabeledSpan struct {
	Span  Span
	Label string
}

// Diagnostic is a compiler diagnostic surfaced to end-users.
type Diagnostic struct {
	Stage    Stage
	Severity Severity
	Code     Code
	Message  string
	Span     Span          // primary span
	Labels   []LabeledSpan // secondary spans with labels
	Notes    []string
	Help     string // optional fix-it text for IDE-style consumers
}

// Errorf constructs an error diagnostic for the given stage.
func Errorf(stage Stage, code Code, span Span, format string, args ...any) Diagnostic {
	return Diagnostic{
		Stage:    stage,
		Severity: SeverityError,
		Code:     code,
		Message:  fmt.Sprintf(format, args...),
		Span:     span,
	}
}

// WithLabel returns a new diagnostic with the given secondary span added.
func (d Diagnostic) WithLabel(span Span, label string) Diagnostic {
	d.Labels = append(d.Labels, LabeledSpan{Span: span, Label: label})
	return d
}

// WithNote adds a note to the diagnostic.
func (d Diagnostic) WithNote(note string) Diagnostic {
	d.Notes = append(d.Notes, note)
	return d
}

// WithHelp adds fix-it help text to the diagnostic.
func (d Diagnostic) WithHelp(help string) Diagnostic {
	d.Help = help
	return d
}

// HasErrors reports whether any diagnostic in the list is an error.
func HasErrors(list []Diagnostic) bool {
	for _, d := range list {
		if d.Severity == SeverityError {
			return true
		}
	}
	return false
}

// Count returns the number of errors and warnings in the list.
func Count(list []Diagnostic) (errors, warnings int) {
	for _, d := range list {
		switch d.Severity {
		case SeverityError:
			errors++
		case SeverityWarning:
			warnings++
		}
	}
	return errors, warnings
}
