// Package diag defines the single diagnostic type every compiler stage
// reports through. zppc has no warnings and no recovery: the first
// diagnostic produced by any stage is fatal and aborts the run.
package diag

import "fmt"

// Stage identifies which compiler phase produced the diagnostic.
type Stage string

const (
	StageLexer    Stage = "lexer"
	StageParser   Stage = "parser"
	StageMapper   Stage = "mapper"
	StageType     Stage = "type"
	StageSemantic Stage = "semantic"
)

// Severity captures how impactful the diagnostic is. zppc only ever
// produces SeverityError; the field exists so the type isn't hardcoded
// to a single value some future caller has to work around.
type Severity string

const (
	SeverityError Severity = "error"
)

// Code is a stable identifier for a diagnostic, distinct from Message so
// tests can assert on error kind without depending on exact wording.
type Code string

const (
	CodeLexerIllegalTab          Code = "LEXER_ILLEGAL_TAB"
	CodeLexerUnterminatedString Code = "LEXER_UNTERMINATED_STRING"
	CodeLexerUnterminatedChar   Code = "LEXER_UNTERMINATED_CHAR"
	CodeLexerMalformedNumber    Code = "LEXER_MALFORMED_NUMBER"
	CodeLexerStrayBackslash     Code = "LEXER_STRAY_BACKSLASH"
	CodeLexerUnknownEscape      Code = "LEXER_UNKNOWN_ESCAPE"

	CodeParserUnexpectedToken Code = "PARSER_UNEXPECTED_TOKEN"
	CodeParserBadIndent       Code = "PARSER_BAD_INDENT"

	CodeMapDuplicateDeclaration Code = "MAP_DUPLICATE_DECLARATION"
	CodeMapReservedIdentifier  Code = "MAP_RESERVED_IDENTIFIER"
	CodeMapUnresolvedImport    Code = "MAP_UNRESOLVED_IMPORT"

	CodeTypeUnknown          Code = "TYPE_UNKNOWN"
	CodeTypeWrongArity       Code = "TYPE_WRONG_ARITY"
	CodeTypeInfiniteLayout   Code = "TYPE_INFINITE_LAYOUT"
	CodeTypeVoidDisallowed   Code = "TYPE_VOID_DISALLOWED"

	CodeSemUndeclaredIdentifier Code = "SEM_UNDECLARED_IDENTIFIER"
	CodeSemWrongSymbolKind      Code = "SEM_WRONG_SYMBOL_KIND"
	CodeSemArityMismatch        Code = "SEM_ARITY_MISMATCH"
	CodeSemTypeMismatch          Code = "SEM_TYPE_MISMATCH"
	CodeSemNotMutable            Code = "SEM_NOT_MUTABLE"
	CodeSemBreakContinueOutsideLoop Code = "SEM_BREAK_CONTINUE_OUTSIDE_LOOP"
	CodeSemUnreachableCode        Code = "SEM_UNREACHABLE_CODE"
	CodeSemAmbiguousType          Code = "SEM_AMBIGUOUS_TYPE"
	CodeSemInvalidCast            Code = "SEM_INVALID_CAST"
	CodeSemInvalidMainSignature   Code = "SEM_INVALID_MAIN_SIGNATURE"
	CodeSemUndiscardedExpression  Code = "SEM_UNDISCARDED_EXPRESSION"
)

// Span is a single-point source location: a file path plus the line and
// column of the offending token.
type Span struct {
	Path   string
	Line   int
	Column int
}

func (s Span) String() string {
	return fmt.Sprintf("%s:%d:%d", s.Path, s.Line, s.Column)
}

// Diagnostic is the fatal error surfaced to the end user. It carries no
// recovery information and no related spans: the compiler reports one
// of these and stops.
type Diagnostic struct {
	Stage    Stage
	Severity Severity
	Code     Code
	Message  string
	Span     Span
}

func New(stage Stage, code Code, span Span, format string, args ...any) *Diagnostic {
	return &Diagnostic{
		Stage:    stage,
		Severity: SeverityError,
		Code:     code,
		Message:  fmt.Sprintf(format, args...),
		Span:     span,
	}
}

// Error implements the error interface so a Diagnostic can travel
// through ordinary Go error-handling paths (errors.As/errors.Is,
// github.com/pkg/errors wrapping) before the driver prints it.
func (d *Diagnostic) Error() string {
	return fmt.Sprintf("%s: %s: %s", d.Span, d.Stage, d.Message)
}
