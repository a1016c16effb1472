package codec

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/shapestone/shape-codec/internal/emitter"
	"github.com/shapestone/shape-codec/internal/scanner"
)

// Encoder drives the YAML writer for one serialize call. Converters
// receive it to emit their own representation and may chain back into
// engine-generated logic through Encode.
type Encoder struct {
	w     *emitter.Writer
	opts  *Options
	refs  *refTable
	depth int
}

func newEncoder(opts *Options) *Encoder {
	var style scanner.Style
	forced := false
	switch opts.defaultStyle {
	case StylePlain:
		style, forced = scanner.StylePlain, true
	case StyleSingleQuoted:
		style, forced = scanner.StyleSingleQuoted, true
	case StyleDoubleQuoted:
		style, forced = scanner.StyleDoubleQuoted, true
	case StyleLiteral:
		style, forced = scanner.StyleLiteral, true
	case StyleFolded:
		style, forced = scanner.StyleFolded, true
	}
	return &Encoder{
		w: emitter.NewWriter(emitter.Config{
			Indent:              opts.indent,
			IndentSequenceItems: opts.indentSequenceItems,
			PreferFlowStyle:     opts.preferFlowStyle,
			ForceStyle:          style,
			HasForcedStyle:      forced,
			WriteComments:       opts.writeComments,
			Schema:              opts.schema,
		}),
		opts: opts,
		refs: newRefTable(opts.references),
	}
}

// WriteNull emits a null scalar.
func (e *Encoder) WriteNull() { e.w.WriteNull() }

// WriteString emits a string scalar, quoted as needed to survive
// re-inference.
func (e *Encoder) WriteString(s string) { e.w.WriteString(s) }

// WriteInt emits an integer scalar.
func (e *Encoder) WriteInt(i int64) { e.w.WriteRaw(strconv.FormatInt(i, 10)) }

// WriteFloat emits a float scalar in a form that re-infers as a float.
func (e *Encoder) WriteFloat(f float64) { e.w.WriteRaw(formatFloat(f)) }

// WriteBool emits a boolean scalar.
func (e *Encoder) WriteBool(b bool) {
	if b {
		e.w.WriteRaw("true")
	} else {
		e.w.WriteRaw("false")
	}
}

// WriteComment emits a comment line when comment writing is enabled.
func (e *Encoder) WriteComment(text string) { e.w.WriteComment(text) }

// BeginMapping opens a mapping for converter-driven structured output.
func (e *Encoder) BeginMapping() { e.w.BeginMapping(false) }

// EndMapping closes the innermost mapping.
func (e *Encoder) EndMapping() { e.w.EndMapping() }

// WriteKey emits a mapping key.
func (e *Encoder) WriteKey(name string) { e.w.WriteKey(name) }

// BeginSequence opens a sequence for converter-driven structured
// output.
func (e *Encoder) BeginSequence() { e.w.BeginSequence(false) }

// EndSequence closes the innermost sequence.
func (e *Encoder) EndSequence() { e.w.EndSequence() }

// Encode serializes value against its metadata node, recursively. This
// is the chaining point for converters.
func (e *Encoder) Encode(value any, meta *TypeMeta) error {
	return e.encodeValue(value, meta)
}

func (e *Encoder) encodeValue(value any, meta *TypeMeta) error {
	if value == nil {
		e.w.WriteNull()
		return nil
	}
	if meta == nil {
		return &MissingTypeMetadataError{TypeName: fmt.Sprintf("%T", value)}
	}
	if meta.Discriminator != nil {
		variant, ok := meta.Discriminator.variantFor(value)
		if !ok {
			return &MissingTypeMetadataError{TypeName: fmt.Sprintf("%T", value)}
		}
		return e.encodeObject(value, variant.Meta, meta.Discriminator, variant)
	}
	switch {
	case meta.Converter != nil:
		if meta.Converter.Write == nil {
			return &MissingTypeMetadataError{TypeName: meta.Name}
		}
		return meta.Converter.Write(e, value)
	case meta.Seq != nil:
		return e.encodeSequence(value, meta)
	case meta.Map != nil:
		return e.encodeMapping(value, meta)
	case meta.Properties != nil:
		return e.encodeObject(value, meta, nil, nil)
	default:
		return &MissingTypeMetadataError{TypeName: meta.Name}
	}
}

func (e *Encoder) encodeSequence(value any, meta *TypeMeta) error {
	if err := e.enter(); err != nil {
		return err
	}
	defer e.leave()
	n := meta.Seq.Len(value)
	if n == 0 {
		// Empty collections always render in flow form.
		e.w.BeginSequence(true)
		e.w.EndSequence()
		return nil
	}
	e.w.BeginSequence(false)
	for i := 0; i < n; i++ {
		if err := e.encodeValue(meta.Seq.At(value, i), meta.Seq.Elem); err != nil {
			return err
		}
	}
	e.w.EndSequence()
	return nil
}

func (e *Encoder) encodeMapping(value any, meta *TypeMeta) error {
	if err := e.enter(); err != nil {
		return err
	}
	defer e.leave()
	keys := meta.Map.Keys(value)
	if len(keys) == 0 {
		e.w.BeginMapping(true)
		e.w.EndMapping()
		return nil
	}
	e.w.BeginMapping(false)
	for _, k := range keys {
		e.w.WriteKey(k)
		if err := e.encodeValue(meta.Map.Get(value, k), meta.Map.Elem); err != nil {
			return err
		}
	}
	e.w.EndMapping()
	return nil
}

// encodeObject writes a property-list node. When the value was reached
// through a discriminated base type, disc and variant identify the tag
// property to emit alongside the concrete type's own properties.
func (e *Encoder) encodeObject(value any, meta *TypeMeta, disc *Discriminator, variant *Variant) error {
	if meta == nil {
		return &MissingTypeMetadataError{TypeName: fmt.Sprintf("%T", value)}
	}
	if meta.Converter != nil {
		return meta.Converter.Write(e, value)
	}
	anchor, alias, skip := e.refs.visit(value)
	if skip {
		// Already emitted during this pass; suppress the cyclic branch.
		e.w.WriteNull()
		return nil
	}
	if alias != "" {
		e.w.WriteAlias(alias)
		return nil
	}
	if err := e.enter(); err != nil {
		return err
	}
	defer e.leave()

	props := e.emittable(value, meta)
	discProp, discValue := e.discriminatorEntry(meta, disc, variant)
	if len(props) == 0 && discProp == "" {
		if anchor != "" {
			e.w.SetAnchor(anchor)
		}
		e.w.BeginMapping(true)
		e.w.EndMapping()
		return nil
	}
	if anchor != "" {
		e.w.SetAnchor(anchor)
	}
	e.w.BeginMapping(false)
	if discProp != "" {
		e.w.WriteKey(discProp)
		e.w.WriteString(discValue)
	}
	for _, pv := range props {
		if disc != nil && disc.Position == PositionFirst &&
			pv.prop.wireName(e.opts.naming) == disc.Property {
			// Already written first from the variant tag.
			continue
		}
		e.w.WriteKey(pv.prop.wireName(e.opts.naming))
		if err := e.encodeValue(pv.value, pv.prop.Type); err != nil {
			return err
		}
	}
	e.w.EndMapping()
	return nil
}

// discriminatorEntry decides whether a discriminator property must be
// written explicitly before the normal property pass. A concrete type
// that declares the discriminator as one of its own properties carries
// the value itself unless PositionFirst hoists it.
func (e *Encoder) discriminatorEntry(meta *TypeMeta, disc *Discriminator, variant *Variant) (string, string) {
	if disc == nil {
		return "", ""
	}
	declared := false
	for _, p := range meta.Properties {
		if p.wireName(e.opts.naming) == disc.Property {
			declared = true
			break
		}
	}
	if declared && disc.Position != PositionFirst {
		return "", ""
	}
	return disc.Property, variant.Value
}

type propValue struct {
	prop  *PropertyMeta
	value any
}

// emittable evaluates ignore conditions and returns the properties to
// write, in resolved order, paired with their current values.
func (e *Encoder) emittable(value any, meta *TypeMeta) []propValue {
	out := make([]propValue, 0, len(meta.Properties))
	for _, p := range meta.Properties {
		if p.Ignore == IgnoreAlways || p.Get == nil {
			continue
		}
		if p.IsField && !e.opts.includeFields {
			continue
		}
		if e.opts.ignoreReadOnly && p.Set == nil {
			continue
		}
		v := p.Get(value)
		if v == nil && (p.Ignore == IgnoreWhenNull || e.opts.ignoreNull) {
			continue
		}
		if p.Ignore == IgnoreWhenDefault && isDefaultValue(p, v) {
			continue
		}
		if e.opts.ignoreEmptyObjects && v != nil && emptyObject(v, p.Type) {
			continue
		}
		out = append(out, propValue{prop: p, value: v})
	}
	return out
}

func isDefaultValue(p *PropertyMeta, v any) bool {
	if p.IsDefault != nil {
		return p.IsDefault(v)
	}
	return v == nil
}

// emptyObject reports whether a value would serialize to an empty
// mapping, for the ignore-empty-objects option.
func emptyObject(v any, meta *TypeMeta) bool {
	if meta == nil || meta.Converter != nil || meta.Properties == nil {
		return false
	}
	for _, p := range meta.Properties {
		if p.Ignore == IgnoreAlways || p.Get == nil {
			continue
		}
		if p.Get(v) != nil {
			return false
		}
	}
	return true
}

// encodeAny emits an untyped tree: map[string]any, []any, and the
// scalar types DecodeAny and JSON decoding produce. Mapping keys are
// sorted so output is deterministic.
func (e *Encoder) encodeAny(v any) error {
	switch x := v.(type) {
	case nil:
		e.WriteNull()
	case string:
		e.WriteString(x)
	case bool:
		e.WriteBool(x)
	case int:
		e.WriteInt(int64(x))
	case int64:
		e.WriteInt(x)
	case float64:
		// JSON decoding widens every number; keep integral values as
		// ints so they re-infer with the same tag.
		if x == math.Trunc(x) && !math.IsInf(x, 0) && math.Abs(x) < 1<<53 {
			e.WriteInt(int64(x))
		} else {
			e.WriteFloat(x)
		}
	case map[string]any:
		if err := e.enter(); err != nil {
			return err
		}
		defer e.leave()
		if len(x) == 0 {
			e.w.BeginMapping(true)
			e.w.EndMapping()
			return nil
		}
		keys := make([]string, 0, len(x))
		for k := range x {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		e.w.BeginMapping(false)
		for _, k := range keys {
			e.w.WriteKey(k)
			if err := e.encodeAny(x[k]); err != nil {
				return err
			}
		}
		e.w.EndMapping()
	case []any:
		if err := e.enter(); err != nil {
			return err
		}
		defer e.leave()
		if len(x) == 0 {
			e.w.BeginSequence(true)
			e.w.EndSequence()
			return nil
		}
		e.w.BeginSequence(false)
		for _, item := range x {
			if err := e.encodeAny(item); err != nil {
				return err
			}
		}
		e.w.EndSequence()
	default:
		return fmt.Errorf("codec: cannot encode untyped %T", v)
	}
	return nil
}

func (e *Encoder) enter() error {
	e.depth++
	if e.depth > e.opts.maxDepth {
		return &MaxDepthExceededError{Limit: e.opts.maxDepth}
	}
	return nil
}

func (e *Encoder) leave() { e.depth-- }

// formatFloat renders a float so the core schema re-infers it as a
// float, never an int.
func formatFloat(f float64) string {
	switch {
	case math.IsInf(f, 1):
		return ".inf"
	case math.IsInf(f, -1):
		return "-.inf"
	case math.IsNaN(f):
		return ".nan"
	}
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}
