package codec

import (
	"sync"
	"sync/atomic"

	"github.com/shapestone/shape-codec/internal/coreschema"
)

const (
	// DefaultMaxDepth is the nesting ceiling applied when none is
	// configured.
	DefaultMaxDepth = 64

	// MaxDepthLimit is the hard upper bound a configured ceiling may
	// not exceed.
	MaxDepthLimit = 1000

	// DefaultIndent is the indentation width applied when none is
	// configured.
	DefaultIndent = 2
)

// ScalarStyle selects the textual form for emitted string scalars.
// StyleAny lets the writer pick the cheapest safe style per scalar.
type ScalarStyle int

const (
	StyleAny ScalarStyle = iota
	StylePlain
	StyleSingleQuoted
	StyleDoubleQuoted
	StyleLiteral
	StyleFolded
)

// EmptyCollectionHandling controls how a null-valued collection
// property deserializes.
type EmptyCollectionHandling int

const (
	// EmptyCollectionsDefault leaves a null collection property null.
	EmptyCollectionsDefault EmptyCollectionHandling = iota

	// PreferEmptyCollection turns a null collection property into an
	// empty collection on deserialize.
	PreferEmptyCollection
)

// ReferenceHandling selects the cycle/sharing policy for one
// serialize or deserialize pass.
type ReferenceHandling int

const (
	// ReferencesNone performs no identity tracking. Cyclic graphs
	// eventually fail with MaxDepthExceededError.
	ReferencesNone ReferenceHandling = iota

	// ReferencesIgnoreCycles tracks identity and silently skips nodes
	// already emitted during the pass. Lossy for true graph sharing.
	ReferencesIgnoreCycles

	// ReferencesPreserve emits an anchor on the first occurrence of a
	// shared node and an alias on every re-encounter, so sharing and
	// cycles survive a round trip.
	ReferencesPreserve
)

// Options is the configuration bundle for serialize and deserialize
// calls. A new Options is mutable; the first call that uses it freezes
// it, after which every setter fails with ReadOnlyConfigurationError.
// A frozen Options is immutable and safe to share across goroutines.
type Options struct {
	frozen atomic.Bool

	maxDepth            int
	indent              int
	indentSequenceItems bool
	preferFlowStyle     bool
	defaultStyle        ScalarStyle
	emptyCollections    EmptyCollectionHandling
	naming              NamingPolicy
	references          ReferenceHandling
	ignoreNull          bool
	ignoreEmptyObjects  bool
	ignoreReadOnly      bool
	includeFields       bool
	allowTrailingCommas bool
	readComments        bool
	writeComments       bool
	schema              coreschema.Schema

	isDefault bool
	sourceMu  sync.Mutex
	source    *Registry
}

// NewOptions returns a mutable Options with defaults: depth ceiling 64,
// two-space indent, indented sequence items, block style, kebab-case
// naming, no reference tracking.
func NewOptions() *Options {
	return &Options{
		maxDepth:            DefaultMaxDepth,
		indent:              DefaultIndent,
		indentSequenceItems: true,
		naming:              NamingKebab,
		schema:              coreschema.Default,
	}
}

var (
	defaultOptions     *Options
	defaultOptionsOnce sync.Once
)

// Default returns the process-wide default Options. It follows the
// usual freeze rule, with one extra restriction: the metadata source
// may be assigned exactly once, and only before first use. The
// assignment is serialized internally so concurrent initializers
// cannot both believe they were first.
func Default() *Options {
	defaultOptionsOnce.Do(func() {
		defaultOptions = NewOptions()
		defaultOptions.isDefault = true
	})
	return defaultOptions
}

// freezeForUse marks the options as in use. Invoked by every top-level
// engine entry point before the first read of a setting.
func (o *Options) freezeForUse() {
	o.frozen.Store(true)
}

// Frozen reports whether the options have been used and can no longer
// be mutated.
func (o *Options) Frozen() bool {
	return o.frozen.Load()
}

func (o *Options) set(setting string, assign func()) error {
	if o.frozen.Load() {
		return &ReadOnlyConfigurationError{Setting: setting}
	}
	assign()
	return nil
}

// SetMaxDepth sets the nesting ceiling. Valid range is 1..1000.
func (o *Options) SetMaxDepth(n int) error {
	if n < 1 || n > MaxDepthLimit {
		return &InvalidConfigurationError{Setting: "max depth", Reason: "must be between 1 and 1000"}
	}
	return o.set("max depth", func() { o.maxDepth = n })
}

// SetIndent sets the indentation width in spaces. Valid range is 2..8.
func (o *Options) SetIndent(n int) error {
	if n < 2 || n > 8 {
		return &InvalidConfigurationError{Setting: "indent", Reason: "must be between 2 and 8"}
	}
	return o.set("indent", func() { o.indent = n })
}

// SetIndentSequenceItems controls whether block sequence items are
// indented one level past their parent key (true, the default) or
// aligned with it.
func (o *Options) SetIndentSequenceItems(v bool) error {
	return o.set("indent sequence items", func() { o.indentSequenceItems = v })
}

// SetPreferFlowStyle makes the writer emit all collections in flow
// form.
func (o *Options) SetPreferFlowStyle(v bool) error {
	return o.set("prefer flow style", func() { o.preferFlowStyle = v })
}

// SetDefaultScalarStyle requests a scalar style for emitted strings.
// The writer upgrades the style per scalar when the text cannot be
// represented safely in the requested one.
func (o *Options) SetDefaultScalarStyle(s ScalarStyle) error {
	if s < StyleAny || s > StyleFolded {
		return &InvalidConfigurationError{Setting: "default scalar style", Reason: "unknown style"}
	}
	return o.set("default scalar style", func() { o.defaultStyle = s })
}

// SetEmptyCollectionHandling controls whether null collection
// properties deserialize to null or to an empty collection.
func (o *Options) SetEmptyCollectionHandling(h EmptyCollectionHandling) error {
	if h != EmptyCollectionsDefault && h != PreferEmptyCollection {
		return &InvalidConfigurationError{Setting: "empty collection handling", Reason: "unknown policy"}
	}
	return o.set("empty collection handling", func() { o.emptyCollections = h })
}

// SetNamingPolicy selects the wire-name convention for properties that
// do not declare an explicit wire name. The default is kebab-case.
func (o *Options) SetNamingPolicy(p NamingPolicy) error {
	if p < NamingKebab || p > NamingSnake {
		return &InvalidConfigurationError{Setting: "naming policy", Reason: "unknown policy"}
	}
	return o.set("naming policy", func() { o.naming = p })
}

// SetReferenceHandling selects the cycle/sharing policy.
func (o *Options) SetReferenceHandling(h ReferenceHandling) error {
	if h < ReferencesNone || h > ReferencesPreserve {
		return &InvalidConfigurationError{Setting: "reference handling", Reason: "unknown policy"}
	}
	return o.set("reference handling", func() { o.references = h })
}

// SetIgnoreNull suppresses properties whose value is null on
// serialize, as if every property declared IgnoreWhenNull.
func (o *Options) SetIgnoreNull(v bool) error {
	return o.set("ignore null", func() { o.ignoreNull = v })
}

// SetIgnoreEmptyObjects suppresses object-valued properties whose
// mapping would contain no entries.
func (o *Options) SetIgnoreEmptyObjects(v bool) error {
	return o.set("ignore empty objects", func() { o.ignoreEmptyObjects = v })
}

// SetIgnoreReadOnlyProperties skips properties that have a getter but
// no setter on serialize.
func (o *Options) SetIgnoreReadOnlyProperties(v bool) error {
	return o.set("ignore read-only properties", func() { o.ignoreReadOnly = v })
}

// SetIncludeFields makes field-backed properties participate in
// serialize and deserialize. They are excluded by default.
func (o *Options) SetIncludeFields(v bool) error {
	return o.set("include fields", func() { o.includeFields = v })
}

// SetAllowTrailingCommas permits a trailing comma before the closer of
// a flow collection on deserialize.
func (o *Options) SetAllowTrailingCommas(v bool) error {
	return o.set("allow trailing commas", func() { o.allowTrailingCommas = v })
}

// SetReadComments makes the reader surface comment tokens instead of
// skipping them.
func (o *Options) SetReadComments(v bool) error {
	return o.set("read comments", func() { o.readComments = v })
}

// SetWriteComments enables comment emission on serialize.
func (o *Options) SetWriteComments(v bool) error {
	return o.set("write comments", func() { o.writeComments = v })
}

// SetSchema substitutes the scalar tag-inference schema consulted by
// both reader and writer. The core schema is the default.
func (o *Options) SetSchema(s coreschema.Schema) error {
	if s == nil {
		return &InvalidConfigurationError{Setting: "schema", Reason: "must not be nil"}
	}
	return o.set("schema", func() { o.schema = s })
}

// SetMetadataSource assigns the registry consulted when a call does
// not supply type metadata explicitly. On the process-wide default
// options this is the single permitted post-construction assignment,
// and it is allowed exactly once.
func (o *Options) SetMetadataSource(r *Registry) error {
	if r == nil {
		return &InvalidConfigurationError{Setting: "metadata source", Reason: "must not be nil"}
	}
	if o.isDefault {
		o.sourceMu.Lock()
		defer o.sourceMu.Unlock()
		if o.frozen.Load() || o.source != nil {
			return &ReadOnlyConfigurationError{Setting: "metadata source"}
		}
		o.source = r
		return nil
	}
	return o.set("metadata source", func() { o.source = r })
}

// MetadataSource returns the assigned registry, or nil.
func (o *Options) MetadataSource() *Registry {
	if o.isDefault {
		o.sourceMu.Lock()
		defer o.sourceMu.Unlock()
		return o.source
	}
	return o.source
}

// MaxDepth returns the configured nesting ceiling.
func (o *Options) MaxDepth() int { return o.maxDepth }

// Indent returns the configured indentation width.
func (o *Options) Indent() int { return o.indent }
