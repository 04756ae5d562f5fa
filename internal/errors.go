package internal

import "fmt"

// Position is a location in DSL source, tracked the same way the lexer
// tracks it: byte offset plus 1-indexed line/column.
type Position struct {
	Offset int
	Line   int
	Column int
}

func (p Position) String() string {
	return fmt.Sprintf("line %d, column %d", p.Line, p.Column)
}

// ErrorKind distinguishes the parse-time failure modes from spec.md §4.1/§7.
type ErrorKind string

const (
	ErrKindUnclosedTag         ErrorKind = "unclosed_tag"
	ErrKindQuoteError          ErrorKind = "quote_error"
	ErrKindEmptyAngleAttr      ErrorKind = "empty_angle_attr"
	ErrKindNoRoleForSpan       ErrorKind = "no_role_for_span"
	ErrKindMaxDepthExceeded    ErrorKind = "max_depth_exceeded"
	ErrKindClassNotFound       ErrorKind = "class_not_found"
	ErrKindEmptyClassSpan      ErrorKind = "empty_class_span"
	ErrKindInstantiationFailed ErrorKind = "instantiation_failed"
)

// ParseError is the internal representation of a parse-time failure; the
// root package wraps it into a go-cuserr error carrying the same metadata.
type ParseError struct {
	Kind      ErrorKind
	Message   string
	Pos       Position
	ClassName string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: %s at %s", e.Kind, e.Message, e.Pos)
}

func NewParseError(kind ErrorKind, message string, pos Position) *ParseError {
	return &ParseError{Kind: kind, Message: message, Pos: pos}
}

// NewClassSpanError is NewParseError plus the offending span's class name,
// carried through so the root package can attach it as error metadata.
func NewClassSpanError(kind ErrorKind, message, className string, pos Position) *ParseError {
	return &ParseError{Kind: kind, Message: message, Pos: pos, ClassName: className}
}
