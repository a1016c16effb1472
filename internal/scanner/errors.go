package scanner

import "fmt"

// ParseError reports malformed YAML grammar. It carries the byte offset
// and the 1-based line/column where scanning stopped; the Reader does
// not attempt recovery mid-document.
type ParseError struct {
	Msg    string
	Offset int
	Line   int
	Column int
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("yaml: parse error at line %d, column %d (offset %d): %s",
		e.Line, e.Column, e.Offset, e.Msg)
}

// DepthError reports that nesting exceeded the configured ceiling. The
// dispatch layer converts it to its public depth error type.
type DepthError struct {
	Limit int
}

func (e *DepthError) Error() string {
	return fmt.Sprintf("yaml: nesting exceeds configured maximum depth %d", e.Limit)
}
