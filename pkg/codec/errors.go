package codec

import (
	"fmt"

	"github.com/shapestone/shape-codec/internal/scanner"
)

// ParseError reports malformed YAML input. It carries the byte offset
// and 1-based line/column where reading stopped.
type ParseError = scanner.ParseError

// MaxDepthExceededError reports that a document or object graph nests
// deeper than the configured ceiling. It is returned by both serialize
// and deserialize paths; hitting it during serialization usually means
// the graph contains a cycle and reference handling is disabled.
type MaxDepthExceededError struct {
	// Limit is the configured maximum nesting depth.
	Limit int
}

func (e *MaxDepthExceededError) Error() string {
	return fmt.Sprintf("codec: nesting exceeds configured maximum depth %d", e.Limit)
}

// MissingTypeMetadataError reports that no type metadata is registered
// for a type the engine needed to walk.
type MissingTypeMetadataError struct {
	// TypeName names the type as well as the engine can: the registered
	// name when known, otherwise the runtime %T rendering.
	TypeName string
}

func (e *MissingTypeMetadataError) Error() string {
	return fmt.Sprintf("codec: no type metadata registered for %s", e.TypeName)
}

// MissingRequiredPropertyError reports that a document omitted a
// property marked required in the target type's metadata.
type MissingRequiredPropertyError struct {
	TypeName string
	Property string
}

func (e *MissingRequiredPropertyError) Error() string {
	return fmt.Sprintf("codec: document is missing required property %q of type %s",
		e.Property, e.TypeName)
}

// ReferenceNotFoundError reports an alias that names an anchor not yet
// defined at the point of use.
type ReferenceNotFoundError struct {
	Anchor string
}

func (e *ReferenceNotFoundError) Error() string {
	return fmt.Sprintf("codec: reference to undefined anchor %q", e.Anchor)
}

// ReadOnlyConfigurationError reports a mutation attempted on an Options
// value after it has been used by a serialize or deserialize call.
type ReadOnlyConfigurationError struct {
	Setting string
}

func (e *ReadOnlyConfigurationError) Error() string {
	return fmt.Sprintf("codec: options are frozen; %s cannot be changed after first use", e.Setting)
}

// InvalidConfigurationError reports a setting value outside its
// permitted range.
type InvalidConfigurationError struct {
	Setting string
	Reason  string
}

func (e *InvalidConfigurationError) Error() string {
	return fmt.Sprintf("codec: invalid %s: %s", e.Setting, e.Reason)
}
