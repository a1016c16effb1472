package codec

import (
	"errors"
	"fmt"

	"github.com/shapestone/shape-codec/internal/coreschema"
	"github.com/shapestone/shape-codec/internal/scanner"
)

// tokenSource feeds structural tokens to the Decoder. It wraps the
// scanner with a replay queue so the engine can buffer a mapping,
// search it for a discriminator, and then re-consume it from the top.
type tokenSource struct {
	r     *scanner.Reader
	queue []scanner.Token
}

func newTokenSource(src []byte, opts *Options) *tokenSource {
	return &tokenSource{
		r: scanner.New(src, scanner.Config{
			MaxDepth:            opts.maxDepth,
			ReadComments:        opts.readComments,
			AllowTrailingCommas: opts.allowTrailingCommas,
			Schema:              opts.schema,
		}),
	}
}

func (s *tokenSource) next() (scanner.Token, error) {
	for {
		if len(s.queue) > 0 {
			t := s.queue[0]
			s.queue = s.queue[1:]
			return t, nil
		}
		if !s.r.Advance() {
			if err := s.r.Err(); err != nil {
				return scanner.Token{}, convertScanError(err)
			}
			return scanner.Token{}, &ParseError{Msg: "unexpected end of stream"}
		}
		t := s.r.Token()
		if t.Kind == scanner.KindComment {
			continue
		}
		return t, nil
	}
}

func (s *tokenSource) peek() (scanner.Token, error) {
	t, err := s.next()
	if err != nil {
		return t, err
	}
	s.pushBack([]scanner.Token{t})
	return t, nil
}

// pushBack prepends tokens so they are consumed again before anything
// still in the scanner.
func (s *tokenSource) pushBack(tokens []scanner.Token) {
	if len(tokens) == 0 {
		return
	}
	s.queue = append(append([]scanner.Token{}, tokens...), s.queue...)
}

func convertScanError(err error) error {
	var de *scanner.DepthError
	if errors.As(err, &de) {
		return &MaxDepthExceededError{Limit: de.Limit}
	}
	return err
}

// Decoder drives deserialization for one call. Converters receive it
// to read their own representation and may chain back into
// engine-generated logic through Decode.
type Decoder struct {
	src  *tokenSource
	opts *Options
	refs *refTable
}

func newDecoder(src []byte, opts *Options) *Decoder {
	return &Decoder{
		src:  newTokenSource(src, opts),
		opts: opts,
		refs: newRefTable(opts.references),
	}
}

// String reads a scalar as a string. Quoted scalars keep their exact
// content; a null scalar reads as the empty string.
func (d *Decoder) String() (string, error) {
	t, err := d.scalar()
	if err != nil {
		return "", err
	}
	return t.Value, nil
}

// Int reads a scalar as an integer, accepting decimal, hex (0x) and
// octal (0o) forms.
func (d *Decoder) Int() (int64, error) {
	t, err := d.scalar()
	if err != nil {
		return 0, err
	}
	return coreschema.ParseInt(t.Value)
}

// Float reads a scalar as a float, accepting .inf/.nan forms. An
// integer-shaped scalar widens.
func (d *Decoder) Float() (float64, error) {
	t, err := d.scalar()
	if err != nil {
		return 0, err
	}
	if t.Tag == coreschema.TagInt {
		i, err := coreschema.ParseInt(t.Value)
		return float64(i), err
	}
	return coreschema.ParseFloat(t.Value)
}

// Bool reads a scalar as a boolean, accepting the core-schema keyword
// variants.
func (d *Decoder) Bool() (bool, error) {
	t, err := d.scalar()
	if err != nil {
		return false, err
	}
	v, ok := coreschema.ParseBool(t.Value)
	if !ok {
		return false, fmt.Errorf("codec: cannot read %q as a boolean", t.Value)
	}
	return v, nil
}

// Decode deserializes the next value against its metadata node,
// recursively. This is the chaining point for converters.
func (d *Decoder) Decode(meta *TypeMeta) (any, error) {
	return d.decodeValue(meta)
}

// scalar consumes the next token and requires it to be a scalar,
// registering its anchor if present.
func (d *Decoder) scalar() (scanner.Token, error) {
	t, err := d.src.next()
	if err != nil {
		return t, err
	}
	if t.Kind != scanner.KindScalar {
		return t, fmt.Errorf("codec: expected a scalar, found %s", t.Kind)
	}
	return t, nil
}

func (d *Decoder) decodeValue(meta *TypeMeta) (any, error) {
	t, err := d.src.peek()
	if err != nil {
		return nil, err
	}
	switch t.Kind {
	case scanner.KindAlias:
		d.src.queue = d.src.queue[1:]
		return d.refs.lookup(t.Value)
	case scanner.KindScalar:
		if t.Tag == coreschema.TagNull && t.TagName == "" {
			d.src.queue = d.src.queue[1:]
			v := d.nullValue(meta)
			if t.Anchor != "" {
				d.refs.define(t.Anchor, v)
			}
			return v, nil
		}
	}
	if meta == nil {
		return nil, &MissingTypeMetadataError{TypeName: "(unregistered)"}
	}
	if meta.Discriminator != nil {
		return d.decodeDiscriminated(meta)
	}
	switch {
	case meta.Converter != nil:
		if meta.Converter.Read == nil {
			return nil, &MissingTypeMetadataError{TypeName: meta.Name}
		}
		v, err := meta.Converter.Read(d)
		if err != nil {
			return nil, err
		}
		if t.Anchor != "" {
			d.refs.define(t.Anchor, v)
		}
		return v, nil
	case meta.Seq != nil:
		return d.decodeSequence(meta)
	case meta.Map != nil:
		return d.decodeMapping(meta)
	case meta.Properties != nil:
		return d.decodeObject(meta)
	default:
		return nil, &MissingTypeMetadataError{TypeName: meta.Name}
	}
}

// nullValue maps a null scalar to the target type: collections become
// empty under PreferEmptyCollection, everything else stays nil.
func (d *Decoder) nullValue(meta *TypeMeta) any {
	if meta == nil || d.opts.emptyCollections != PreferEmptyCollection {
		return nil
	}
	switch {
	case meta.Seq != nil:
		return meta.Seq.New()
	case meta.Map != nil:
		return meta.Map.New()
	default:
		return nil
	}
}

func (d *Decoder) decodeSequence(meta *TypeMeta) (any, error) {
	t, err := d.src.next()
	if err != nil {
		return nil, err
	}
	if t.Kind != scanner.KindSequenceStart {
		return nil, fmt.Errorf("codec: expected a sequence for %s, found %s", meta.Name, t.Kind)
	}
	coll := meta.Seq.New()
	for {
		nxt, err := d.src.peek()
		if err != nil {
			return nil, err
		}
		if nxt.Kind == scanner.KindSequenceEnd {
			d.src.queue = d.src.queue[1:]
			break
		}
		item, err := d.decodeValue(meta.Seq.Elem)
		if err != nil {
			return nil, err
		}
		coll = meta.Seq.Append(coll, item)
	}
	if t.Anchor != "" {
		d.refs.define(t.Anchor, coll)
	}
	return coll, nil
}

func (d *Decoder) decodeMapping(meta *TypeMeta) (any, error) {
	t, err := d.src.next()
	if err != nil {
		return nil, err
	}
	if t.Kind != scanner.KindMappingStart {
		return nil, fmt.Errorf("codec: expected a mapping for %s, found %s", meta.Name, t.Kind)
	}
	coll := meta.Map.New()
	for {
		key, err := d.src.next()
		if err != nil {
			return nil, err
		}
		if key.Kind == scanner.KindMappingEnd {
			break
		}
		if key.Kind != scanner.KindScalar {
			return nil, fmt.Errorf("codec: expected a mapping key, found %s", key.Kind)
		}
		val, err := d.decodeValue(meta.Map.Elem)
		if err != nil {
			return nil, err
		}
		coll = meta.Map.Set(coll, key.Value, val)
	}
	if t.Anchor != "" {
		d.refs.define(t.Anchor, coll)
	}
	return coll, nil
}

// decodeObject populates a property-list node from a mapping. Keys
// with no matching property, including a discriminator the concrete
// type does not declare, are skipped.
func (d *Decoder) decodeObject(meta *TypeMeta) (any, error) {
	if meta.Converter != nil {
		if meta.Converter.Read == nil {
			return nil, &MissingTypeMetadataError{TypeName: meta.Name}
		}
		return meta.Converter.Read(d)
	}
	t, err := d.src.next()
	if err != nil {
		return nil, err
	}
	if t.Kind != scanner.KindMappingStart {
		return nil, fmt.Errorf("codec: expected a mapping for %s, found %s", meta.Name, t.Kind)
	}
	if meta.New == nil {
		return nil, &MissingTypeMetadataError{TypeName: meta.Name}
	}
	instance := meta.New()
	// Register the anchor before populating nested content so cyclic
	// aliases inside resolve to this instance.
	if t.Anchor != "" {
		d.refs.define(t.Anchor, instance)
	}
	set := make(map[string]bool, len(meta.Properties))
	for {
		key, err := d.src.next()
		if err != nil {
			return nil, err
		}
		if key.Kind == scanner.KindMappingEnd {
			break
		}
		if key.Kind != scanner.KindScalar {
			return nil, fmt.Errorf("codec: expected a mapping key, found %s", key.Kind)
		}
		prop := d.matchProperty(meta, key.Value)
		if prop == nil {
			// Unknown keys are tolerated; their values are skipped.
			if err := d.skipValue(); err != nil {
				return nil, err
			}
			continue
		}
		val, err := d.decodeValue(prop.Type)
		if err != nil {
			return nil, err
		}
		if prop.Set != nil {
			prop.Set(instance, val)
		}
		set[prop.Name] = true
	}
	for _, p := range meta.Properties {
		if p.IsField && !d.opts.includeFields {
			continue
		}
		if p.Required && !set[p.Name] {
			return nil, &MissingRequiredPropertyError{TypeName: meta.Name, Property: p.wireName(d.opts.naming)}
		}
	}
	return instance, nil
}

// matchProperty resolves a wire key to a property. The key is compared
// against each property's effective wire name; key order in the
// document never matters.
func (d *Decoder) matchProperty(meta *TypeMeta, key string) *PropertyMeta {
	for _, p := range meta.Properties {
		if p.IsField && !d.opts.includeFields {
			continue
		}
		if p.wireName(d.opts.naming) == key {
			return p
		}
	}
	return nil
}

// decodeDiscriminated buffers the mapping, locates the discriminator
// key among its top-level entries, and replays the mapping against the
// resolved concrete type. Lookahead is required because key order is
// not guaranteed to place the discriminator first.
func (d *Decoder) decodeDiscriminated(meta *TypeMeta) (any, error) {
	disc := meta.Discriminator
	first, err := d.src.peek()
	if err != nil {
		return nil, err
	}
	if first.Kind != scanner.KindMappingStart {
		return nil, fmt.Errorf("codec: expected a mapping for %s, found %s", meta.Name, first.Kind)
	}
	buffered, tag, err := d.bufferMapping(disc.Property)
	if err != nil {
		return nil, err
	}
	if tag == "" {
		return nil, &MissingRequiredPropertyError{TypeName: meta.Name, Property: disc.Property}
	}
	concrete, ok := disc.metaFor(tag)
	if !ok {
		return nil, &MissingTypeMetadataError{
			TypeName: fmt.Sprintf("%s[%s=%s]", meta.Name, disc.Property, tag)}
	}
	d.src.pushBack(buffered)
	return d.decodeObject(concrete)
}

// bufferMapping consumes one complete mapping into a token slice while
// scanning its top-level keys for the discriminator. It returns the
// buffered tokens and the discriminator's scalar value, if found.
func (d *Decoder) bufferMapping(discKey string) ([]scanner.Token, string, error) {
	var buf []scanner.Token
	var tag string
	depth := 0
	expectKey := false
	for {
		t, err := d.src.next()
		if err != nil {
			return nil, "", err
		}
		buf = append(buf, t)
		switch t.Kind {
		case scanner.KindMappingStart, scanner.KindSequenceStart:
			depth++
			expectKey = depth == 1
		case scanner.KindMappingEnd, scanner.KindSequenceEnd:
			depth--
			if depth == 0 {
				return buf, tag, nil
			}
			expectKey = depth == 1
		case scanner.KindScalar:
			if depth == 1 && expectKey {
				if t.Value == discKey && tag == "" {
					val, err := d.src.peek()
					if err != nil {
						return nil, "", err
					}
					if val.Kind == scanner.KindScalar {
						tag = val.Value
					}
				}
				expectKey = false
			} else if depth == 1 {
				expectKey = true
			}
		case scanner.KindAlias:
			if depth == 1 {
				expectKey = !expectKey
			}
		}
	}
}

// skipValue consumes one complete value subtree.
func (d *Decoder) skipValue() error {
	depth := 0
	for {
		t, err := d.src.next()
		if err != nil {
			return err
		}
		switch t.Kind {
		case scanner.KindMappingStart, scanner.KindSequenceStart:
			depth++
		case scanner.KindMappingEnd, scanner.KindSequenceEnd:
			depth--
		}
		if depth == 0 {
			return nil
		}
	}
}

// decodeAny builds an untyped tree: mappings become map[string]any,
// sequences []any, scalars their inferred Go value.
func (d *Decoder) decodeAny() (any, error) {
	t, err := d.src.next()
	if err != nil {
		return nil, err
	}
	switch t.Kind {
	case scanner.KindAlias:
		return d.refs.lookup(t.Value)
	case scanner.KindScalar:
		v, err := scalarValue(t)
		if err != nil {
			return nil, err
		}
		if t.Anchor != "" {
			d.refs.define(t.Anchor, v)
		}
		return v, nil
	case scanner.KindMappingStart:
		m := map[string]any{}
		if t.Anchor != "" {
			d.refs.define(t.Anchor, m)
		}
		for {
			key, err := d.src.next()
			if err != nil {
				return nil, err
			}
			if key.Kind == scanner.KindMappingEnd {
				return m, nil
			}
			if key.Kind != scanner.KindScalar {
				return nil, fmt.Errorf("codec: expected a mapping key, found %s", key.Kind)
			}
			val, err := d.decodeAny()
			if err != nil {
				return nil, err
			}
			m[key.Value] = val
		}
	case scanner.KindSequenceStart:
		var s []any
		for {
			nxt, err := d.src.peek()
			if err != nil {
				return nil, err
			}
			if nxt.Kind == scanner.KindSequenceEnd {
				d.src.queue = d.src.queue[1:]
				if t.Anchor != "" {
					d.refs.define(t.Anchor, s)
				}
				return s, nil
			}
			item, err := d.decodeAny()
			if err != nil {
				return nil, err
			}
			s = append(s, item)
		}
	default:
		return nil, fmt.Errorf("codec: unexpected %s", t.Kind)
	}
}

// scalarValue converts a scalar token to its Go value per its tag.
func scalarValue(t scanner.Token) (any, error) {
	switch t.Tag {
	case coreschema.TagNull:
		return nil, nil
	case coreschema.TagBool:
		v, _ := coreschema.ParseBool(t.Value)
		return v, nil
	case coreschema.TagInt:
		return coreschema.ParseInt(t.Value)
	case coreschema.TagFloat:
		return coreschema.ParseFloat(t.Value)
	default:
		return t.Value, nil
	}
}
