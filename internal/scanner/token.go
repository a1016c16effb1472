// Package scanner implements a pull-style tokenizer/parser for the YAML
// subset needed to round-trip typed object graphs.
//
// The Reader walks a byte buffer and produces a lazy, forward-only
// sequence of structural tokens. Indentation is handled with an
// explicit stack of (context-kind, indent-column) frames rather than
// recursive descent, so nesting depth is measured directly against the
// configured ceiling instead of risking unbounded call stacks.
package scanner

import (
	"github.com/shapestone/shape-codec/internal/coreschema"
)

// Kind identifies the structural meaning of a token.
type Kind int

const (
	KindNone Kind = iota
	KindStreamStart
	KindStreamEnd
	KindDocumentStart
	KindDocumentEnd
	KindMappingStart
	KindMappingEnd
	KindSequenceStart
	KindSequenceEnd
	KindScalar
	KindAlias
	KindComment
)

// String returns a short name for diagnostics and tests.
func (k Kind) String() string {
	switch k {
	case KindStreamStart:
		return "StreamStart"
	case KindStreamEnd:
		return "StreamEnd"
	case KindDocumentStart:
		return "DocumentStart"
	case KindDocumentEnd:
		return "DocumentEnd"
	case KindMappingStart:
		return "MappingStart"
	case KindMappingEnd:
		return "MappingEnd"
	case KindSequenceStart:
		return "SequenceStart"
	case KindSequenceEnd:
		return "SequenceEnd"
	case KindScalar:
		return "Scalar"
	case KindAlias:
		return "Alias"
	case KindComment:
		return "Comment"
	default:
		return "None"
	}
}

// Style is the textual form a scalar was written in (or should be
// written in, on the emitter side).
type Style int

const (
	StylePlain Style = iota
	StyleSingleQuoted
	StyleDoubleQuoted
	StyleLiteral
	StyleFolded
)

// String returns a short name for diagnostics and tests.
func (s Style) String() string {
	switch s {
	case StyleSingleQuoted:
		return "single"
	case StyleDoubleQuoted:
		return "double"
	case StyleLiteral:
		return "literal"
	case StyleFolded:
		return "folded"
	default:
		return "plain"
	}
}

// Token is one structural event in the document stream. Tokens form a
// well-nested sequence: every *Start has a matching *End. A token is
// immutable once produced and valid only until the next Advance call.
type Token struct {
	Kind Kind

	// Value holds the decoded scalar text for KindScalar, the referenced
	// anchor name for KindAlias, and the comment text for KindComment.
	Value string

	// Tag is the inferred (plain scalars, via the active schema) or
	// declared (!!tag) scalar tag. Quoted and block scalars are always
	// strings unless explicitly tagged.
	Tag coreschema.Tag

	// TagName is the raw declared tag text ("!!str", "!dog"), empty when
	// the tag was inferred.
	TagName string

	// Style records how the scalar was written.
	Style Style

	// Anchor is the &name bound to this node, if any. The scanner only
	// reports the name; resolution happens in the dispatch layer.
	Anchor string
}
