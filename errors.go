package dynquery

import (
	"errors"
	"fmt"
)

// Error families. Every ParseError matches exactly one family with errors.Is.
var (
	// ErrLex indicates the tokenizer could not produce a token.
	ErrLex = errors.New("lexical error")
	// ErrSyntax indicates an unexpected token or missing punctuation.
	ErrSyntax = errors.New("syntax error")
	// ErrUnknownIdentifier indicates an identifier that is not bound in any scope.
	ErrUnknownIdentifier = errors.New("unknown identifier")
	// ErrDuplicateIdentifier indicates the same symbol was declared twice.
	ErrDuplicateIdentifier = errors.New("duplicate identifier")
	// ErrNoApplicableOverload indicates no operator, method, constructor or indexer accepts the arguments.
	ErrNoApplicableOverload = errors.New("no applicable overload")
	// ErrAmbiguousOverload indicates more than one best candidate remained.
	ErrAmbiguousOverload = errors.New("ambiguous overload")
	// ErrType is the family of static typing failures.
	ErrType = errors.New("type error")
	// ErrMissingAsClause indicates a projection member whose name cannot be inferred.
	ErrMissingAsClause = errors.New("missing as clause")
	// ErrArgumentNull indicates a required argument of the query API was nil or empty.
	ErrArgumentNull = errors.New("argument is null")
	// ErrLiteralFormat indicates numeric literal text that cannot be converted.
	ErrLiteralFormat = errors.New("invalid literal format")
)

// Lexical error kinds
var (
	// ErrInvalidCharacter indicates a character outside of the expression alphabet.
	ErrInvalidCharacter = errors.New("invalid character")
	// ErrUnterminatedString indicates a string literal without its closing quote.
	ErrUnterminatedString = errors.New("unterminated string literal")
	// ErrDigitExpected indicates a real literal with a dangling '.' or exponent.
	ErrDigitExpected = errors.New("digit expected")
)

// Type error kinds
var (
	// ErrIncompatibleOperands indicates operand types that no operator signature accepts.
	ErrIncompatibleOperands = errors.New("incompatible operands")
	// ErrTypeMismatch indicates the expression does not produce the requested result type.
	ErrTypeMismatch = errors.New("expression type mismatch")
	// ErrCannotConvert indicates an explicit conversion between unrelated types.
	ErrCannotConvert = errors.New("cannot convert value")
	// ErrConditionalTestNotBoolean indicates a ?: or iif test of non-boolean type.
	ErrConditionalTestNotBoolean = errors.New("conditional test must be boolean")
	// ErrAmbiguousConditionalType indicates both conditional branches convert to each other.
	ErrAmbiguousConditionalType = errors.New("ambiguous conditional type")
	// ErrIncompatibleConditionalTypes indicates neither conditional branch converts to the other.
	ErrIncompatibleConditionalTypes = errors.New("incompatible conditional types")
)

var familyOf = map[error]error{
	ErrInvalidCharacter:             ErrLex,
	ErrUnterminatedString:           ErrLex,
	ErrDigitExpected:                ErrLex,
	ErrIncompatibleOperands:         ErrType,
	ErrTypeMismatch:                 ErrType,
	ErrCannotConvert:                ErrType,
	ErrConditionalTestNotBoolean:    ErrType,
	ErrAmbiguousConditionalType:     ErrType,
	ErrIncompatibleConditionalTypes: ErrType,
}

// ParseError is the only error produced while tokenizing or parsing an expression.
// Position is the rune offset of the offending token within the expression text.
type ParseError struct {
	Kind     error
	Position int
	Message  string
}

// NewParseError creates a ParseError with a formatted message.
func NewParseError(kind error, pos int, format string, args ...any) *ParseError {
	return &ParseError{
		Kind:     kind,
		Position: pos,
		Message:  fmt.Sprintf(format, args...),
	}
}

// Error implements the error interface
func (e *ParseError) Error() string {
	return fmt.Sprintf("%s (at index %d)", e.Message, e.Position)
}

// Unwrap exposes both the specific kind and its family to errors.Is.
func (e *ParseError) Unwrap() []error {
	if family, ok := familyOf[e.Kind]; ok {
		return []error{e.Kind, family}
	}

	return []error{e.Kind}
}

// ArgumentNullError reports a missing argument of the query API.
type ArgumentNullError struct {
	Name string
}

// Error implements the error interface
func (e *ArgumentNullError) Error() string {
	return fmt.Sprintf("value cannot be null: %s", e.Name)
}

// Unwrap returns ErrArgumentNull.
func (e *ArgumentNullError) Unwrap() error {
	return ErrArgumentNull
}
