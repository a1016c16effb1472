package codec

import (
	"fmt"
	"sort"
)

// IgnoreCondition controls when a property is skipped on serialize.
type IgnoreCondition int

const (
	IgnoreNever IgnoreCondition = iota
	IgnoreAlways
	IgnoreWhenNull
	IgnoreWhenDefault
)

// PropertyMeta describes one property of an object type. Get and Set
// operate on the opaque owner handle the enclosing TypeMeta's New
// function produces; a nil Set marks the property read-only.
type PropertyMeta struct {
	// Name is the declared property name. The active naming policy
	// derives the wire name from it unless WireName is set.
	Name string

	// WireName, when non-empty, is used verbatim on the wire and
	// exempts the property from the naming policy.
	WireName string

	// Type is the property value's own metadata node.
	Type *TypeMeta

	// Required makes deserialize fail with
	// MissingRequiredPropertyError when the document omits the
	// property.
	Required bool

	// Order is an explicit order key consulted by the
	// OrderedThenAlphabetical strategy. HasOrder distinguishes an
	// explicit zero from an unset key.
	Order    int
	HasOrder bool

	Ignore IgnoreCondition

	// IsField marks a property backed by a plain field rather than an
	// accessor pair. Field-backed properties participate only when the
	// include-fields option is enabled.
	IsField bool

	Get func(owner any) any
	Set func(owner any, value any)

	// IsDefault reports whether a value equals the property's default,
	// for IgnoreWhenDefault. When nil, only null counts as default.
	IsDefault func(value any) bool
}

// wireName resolves the effective wire name under the given policy.
func (p *PropertyMeta) wireName(policy NamingPolicy) string {
	if p.WireName != "" {
		return p.WireName
	}
	return policy.Apply(p.Name)
}

// sortName is the name ordering strategies compare by. Explicit wire
// names win; otherwise the declared name normalizes to kebab so that
// ordering does not depend on the per-call naming policy.
func (p *PropertyMeta) sortName() string {
	if p.WireName != "" {
		return p.WireName
	}
	return NamingKebab.Apply(p.Name)
}

// DiscriminatorPosition controls where the discriminator property is
// written within the mapping.
type DiscriminatorPosition int

const (
	// PositionOrdered writes the discriminator in normal property
	// order.
	PositionOrdered DiscriminatorPosition = iota

	// PositionFirst writes the discriminator before every other
	// property.
	PositionFirst
)

// Variant binds one discriminator value to a concrete type.
type Variant struct {
	// Value is the discriminator scalar identifying this variant.
	Value string

	// Meta is the concrete type's metadata node.
	Meta *TypeMeta

	// Is probes whether a runtime value belongs to this variant.
	Is func(value any) bool
}

// Discriminator describes polymorphic resolution for a base type:
// which property carries the variant tag and which concrete types the
// tag values map to.
type Discriminator struct {
	// Property is the wire name of the discriminator property.
	Property string

	Position DiscriminatorPosition

	Variants []Variant
}

// variantFor resolves the runtime value to its variant via the Is
// probes, in declaration order.
func (d *Discriminator) variantFor(value any) (*Variant, bool) {
	for i := range d.Variants {
		if d.Variants[i].Is != nil && d.Variants[i].Is(value) {
			return &d.Variants[i], true
		}
	}
	return nil, false
}

// metaFor resolves a discriminator scalar to the concrete type.
func (d *Discriminator) metaFor(value string) (*TypeMeta, bool) {
	for i := range d.Variants {
		if d.Variants[i].Value == value {
			return d.Variants[i].Meta, true
		}
	}
	return nil, false
}

// Converter is an opaque read/write pair that takes over serialization
// for a type. Either function may chain back into engine-generated
// logic through the Encoder/Decoder it receives.
type Converter struct {
	Write func(enc *Encoder, value any) error
	Read  func(dec *Decoder) (any, error)
}

// SeqOps is the vtable for sequence-shaped types. The collection is
// handled as an opaque value; Append returns the (possibly
// reallocated) collection.
type SeqOps struct {
	Elem   *TypeMeta
	New    func() any
	Append func(coll any, item any) any
	Len    func(coll any) int
	At     func(coll any, i int) any
}

// MapOps is the vtable for mapping-shaped types with string keys.
// Keys must return a deterministic order.
type MapOps struct {
	Elem *TypeMeta
	New  func() any
	Set  func(coll any, key string, value any) any
	Keys func(coll any) []string
	Get  func(coll any, key string) any
}

// TypeMeta is one node of the type-metadata graph. Exactly one of
// Converter, Properties, Seq, or Map describes how values of the type
// are walked; the engine pattern-matches in that order. A node is
// built once, registered, and never mutated afterwards.
type TypeMeta struct {
	// Name identifies the type within a Registry.
	Name string

	// New constructs an empty instance for deserialize. Required for
	// property-list nodes without a converter.
	New func() any

	Converter *Converter

	Properties []*PropertyMeta

	Seq *SeqOps

	Map *MapOps

	// Discriminator, when set, makes this node polymorphic: values are
	// resolved to a concrete variant before being walked.
	Discriminator *Discriminator
}

// Ordering selects how a registry arranges properties at registration
// time. Ordering affects serialize output only; deserialize matches
// keys in any order.
type Ordering int

const (
	// OrderDeclaration keeps properties in declaration order.
	OrderDeclaration Ordering = iota

	// OrderAlphabetical sorts properties by wire name.
	OrderAlphabetical

	// OrderedThenAlphabetical puts properties with explicit order keys
	// first, sorted by key with alphabetical tie-break, followed by
	// the remainder in alphabetical order.
	OrderedThenAlphabetical
)

// Registry is the type-metadata source handed to serialize and
// deserialize calls. Register applies the configured ordering strategy
// and validates each node once; lookups afterwards are read-only and
// safe for concurrent use.
type Registry struct {
	ordering Ordering
	types    map[string]*TypeMeta
}

// NewRegistry returns an empty registry using the given ordering
// strategy.
func NewRegistry(ordering Ordering) *Registry {
	return &Registry{ordering: ordering, types: make(map[string]*TypeMeta)}
}

// Register validates the node and adds it to the registry, resolving
// its property order per the registry's strategy.
func (r *Registry) Register(m *TypeMeta) error {
	if m == nil || m.Name == "" {
		return &InvalidConfigurationError{Setting: "type metadata", Reason: "node must have a name"}
	}
	if _, dup := r.types[m.Name]; dup {
		return &InvalidConfigurationError{Setting: "type metadata",
			Reason: fmt.Sprintf("type %q is already registered", m.Name)}
	}
	if err := r.validate(m); err != nil {
		return err
	}
	orderProperties(m.Properties, r.ordering)
	r.types[m.Name] = m
	return nil
}

// MustRegister is Register for static initialization; it panics on an
// invalid node.
func (r *Registry) MustRegister(m *TypeMeta) {
	if err := r.Register(m); err != nil {
		panic(err)
	}
}

// Lookup returns the node registered under name.
func (r *Registry) Lookup(name string) (*TypeMeta, bool) {
	m, ok := r.types[name]
	return m, ok
}

func (r *Registry) validate(m *TypeMeta) error {
	shapes := 0
	if m.Converter != nil {
		shapes++
	}
	if m.Properties != nil {
		shapes++
	}
	if m.Seq != nil {
		shapes++
	}
	if m.Map != nil {
		shapes++
	}
	if shapes > 1 {
		return &InvalidConfigurationError{Setting: "type metadata",
			Reason: fmt.Sprintf("type %q declares more than one shape", m.Name)}
	}
	seen := make(map[string]bool, len(m.Properties))
	for _, p := range m.Properties {
		if p.Name == "" {
			return &InvalidConfigurationError{Setting: "type metadata",
				Reason: fmt.Sprintf("type %q has a property without a name", m.Name)}
		}
		n := p.sortName()
		if seen[n] {
			return &InvalidConfigurationError{Setting: "type metadata",
				Reason: fmt.Sprintf("type %q has duplicate wire name %q", m.Name, n)}
		}
		seen[n] = true
	}
	if d := m.Discriminator; d != nil {
		if d.Property == "" {
			return &InvalidConfigurationError{Setting: "type metadata",
				Reason: fmt.Sprintf("type %q has a discriminator without a property name", m.Name)}
		}
		values := make(map[string]bool, len(d.Variants))
		for _, v := range d.Variants {
			if v.Meta == nil {
				return &InvalidConfigurationError{Setting: "type metadata",
					Reason: fmt.Sprintf("type %q maps discriminator value %q to no type", m.Name, v.Value)}
			}
			if values[v.Value] {
				return &InvalidConfigurationError{Setting: "type metadata",
					Reason: fmt.Sprintf("type %q has duplicate discriminator value %q", m.Name, v.Value)}
			}
			values[v.Value] = true
		}
	}
	return nil
}

// orderProperties resolves the final serialize order in place.
// Explicit-order ties fall back to alphabetical by wire name.
func orderProperties(props []*PropertyMeta, ordering Ordering) {
	switch ordering {
	case OrderAlphabetical:
		sort.SliceStable(props, func(i, j int) bool {
			return props[i].sortName() < props[j].sortName()
		})
	case OrderedThenAlphabetical:
		sort.SliceStable(props, func(i, j int) bool {
			a, b := props[i], props[j]
			switch {
			case a.HasOrder && !b.HasOrder:
				return true
			case !a.HasOrder && b.HasOrder:
				return false
			case a.HasOrder && b.HasOrder && a.Order != b.Order:
				return a.Order < b.Order
			default:
				return a.sortName() < b.sortName()
			}
		})
	}
}

// Property builds a PropertyMeta from typed accessor functions. The
// owner handle is asserted to O; a null value reaches set as V's zero
// value.
func Property[O any, V any](name string, typ *TypeMeta, get func(O) V, set func(O, V)) *PropertyMeta {
	p := &PropertyMeta{Name: name, Type: typ}
	if get != nil {
		p.Get = func(owner any) any { return get(owner.(O)) }
	}
	if set != nil {
		p.Set = func(owner any, value any) {
			var v V
			if value != nil {
				v = value.(V)
			}
			set(owner.(O), v)
		}
	}
	return p
}

// ObjectMeta builds a property-list node for an object type.
func ObjectMeta[O any](name string, newFn func() O, props ...*PropertyMeta) *TypeMeta {
	if props == nil {
		props = []*PropertyMeta{}
	}
	return &TypeMeta{
		Name:       name,
		New:        func() any { return newFn() },
		Properties: props,
	}
}

// SliceMeta builds a sequence node over []E.
func SliceMeta[E any](name string, elem *TypeMeta) *TypeMeta {
	return &TypeMeta{
		Name: name,
		Seq: &SeqOps{
			Elem: elem,
			New:  func() any { return []E{} },
			Append: func(coll any, item any) any {
				s, _ := coll.([]E)
				var e E
				if item != nil {
					e = item.(E)
				}
				return append(s, e)
			},
			Len: func(coll any) int {
				if coll == nil {
					return 0
				}
				return len(coll.([]E))
			},
			At: func(coll any, i int) any { return coll.([]E)[i] },
		},
	}
}

// MapMeta builds a mapping node over map[string]V. Keys are reported
// in sorted order so output is deterministic.
func MapMeta[V any](name string, elem *TypeMeta) *TypeMeta {
	return &TypeMeta{
		Name: name,
		Map: &MapOps{
			Elem: elem,
			New:  func() any { return map[string]V{} },
			Set: func(coll any, key string, value any) any {
				m, _ := coll.(map[string]V)
				if m == nil {
					m = map[string]V{}
				}
				var v V
				if value != nil {
					v = value.(V)
				}
				m[key] = v
				return m
			},
			Keys: func(coll any) []string {
				if coll == nil {
					return nil
				}
				m := coll.(map[string]V)
				keys := make([]string, 0, len(m))
				for k := range m {
					keys = append(keys, k)
				}
				sort.Strings(keys)
				return keys
			},
			Get: func(coll any, key string) any { return coll.(map[string]V)[key] },
		},
	}
}

// VariantOf builds a Variant whose probe matches runtime values of
// type T.
func VariantOf[T any](value string, meta *TypeMeta) Variant {
	return Variant{
		Value: value,
		Meta:  meta,
		Is: func(v any) bool {
			_, ok := v.(T)
			return ok
		},
	}
}
