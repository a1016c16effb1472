// Package codec serializes typed values to YAML and back without
// reflection. Traversal is driven entirely by a precomputed
// type-metadata graph: each type registers a converter, a property
// list, or collection vtables, and the engine walks values through
// those tables, so the package stays compatible with ahead-of-time
// compilation.
package codec

import (
	"fmt"

	"github.com/shapestone/shape-codec/internal/scanner"
)

// Serialize renders value as a YAML document.
func Serialize(value any, meta *TypeMeta, opts *Options) ([]byte, error) {
	opts = effective(opts)
	opts.freezeForUse()
	enc := newEncoder(opts)
	if err := enc.Encode(value, meta); err != nil {
		return nil, err
	}
	return enc.w.Bytes(), nil
}

// SerializeString is Serialize returning a string.
func SerializeString(value any, meta *TypeMeta, opts *Options) (string, error) {
	b, err := Serialize(value, meta, opts)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// SerializeDocuments renders each value as its own document in one
// multi-document stream, separated by --- markers.
func SerializeDocuments(values []any, meta *TypeMeta, opts *Options) ([]byte, error) {
	opts = effective(opts)
	opts.freezeForUse()
	enc := newEncoder(opts)
	for i, v := range values {
		if i > 0 {
			enc.w.BeginDocument()
		}
		// Anchor scope is one document.
		enc.refs = newRefTable(opts.references)
		if err := enc.Encode(v, meta); err != nil {
			return nil, err
		}
	}
	return enc.w.Bytes(), nil
}

// SerializeNamed resolves the type metadata from the options' metadata
// source by name.
func SerializeNamed(value any, typeName string, opts *Options) ([]byte, error) {
	meta, err := namedMeta(typeName, effective(opts))
	if err != nil {
		return nil, err
	}
	return Serialize(value, meta, opts)
}

// Deserialize reads exactly one YAML document into a value of the
// metadata node's type. Documents after the first are ignored.
func Deserialize(data []byte, meta *TypeMeta, opts *Options) (any, error) {
	opts = effective(opts)
	opts.freezeForUse()
	d := newDecoder(data, opts)
	ok, err := d.beginDocument()
	if err != nil {
		return nil, err
	}
	if !ok {
		// Empty stream reads as a null document.
		return d.nullValue(meta), nil
	}
	var v any
	if content, err := d.docHasContent(); err != nil {
		return nil, err
	} else if content {
		if v, err = d.decodeValue(meta); err != nil {
			return nil, err
		}
	} else {
		v = d.nullValue(meta)
	}
	if err := d.endDocument(); err != nil {
		return nil, err
	}
	return v, nil
}

// DeserializeString is Deserialize over a string.
func DeserializeString(text string, meta *TypeMeta, opts *Options) (any, error) {
	return Deserialize([]byte(text), meta, opts)
}

// DeserializeDocuments reads every document in a multi-document stream
// against the same metadata node. Anchor scope is one document.
func DeserializeDocuments(data []byte, meta *TypeMeta, opts *Options) ([]any, error) {
	opts = effective(opts)
	opts.freezeForUse()
	d := newDecoder(data, opts)
	var out []any
	for {
		ok, err := d.beginDocument()
		if err != nil {
			return nil, err
		}
		if !ok {
			return out, nil
		}
		d.refs = newRefTable(opts.references)
		var v any
		if content, err := d.docHasContent(); err != nil {
			return nil, err
		} else if content {
			if v, err = d.decodeValue(meta); err != nil {
				return nil, err
			}
		} else {
			v = d.nullValue(meta)
		}
		if err := d.endDocument(); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
}

// DeserializeNamed resolves the type metadata from the options'
// metadata source by name.
func DeserializeNamed(data []byte, typeName string, opts *Options) (any, error) {
	meta, err := namedMeta(typeName, effective(opts))
	if err != nil {
		return nil, err
	}
	return Deserialize(data, meta, opts)
}

// DecodeAny reads one document into an untyped tree: mappings become
// map[string]any, sequences []any, scalars their inferred Go values.
func DecodeAny(data []byte, opts *Options) (any, error) {
	opts = effective(opts)
	opts.freezeForUse()
	d := newDecoder(data, opts)
	ok, err := d.beginDocument()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	var v any
	if content, err := d.docHasContent(); err != nil {
		return nil, err
	} else if content {
		if v, err = d.decodeAny(); err != nil {
			return nil, err
		}
	}
	if err := d.endDocument(); err != nil {
		return nil, err
	}
	return v, nil
}

// Validate scans the input to the end of the stream, reporting the
// first grammar error without building any values.
func Validate(data []byte, opts *Options) error {
	opts = effective(opts)
	opts.freezeForUse()
	r := scanner.New(data, scanner.Config{
		MaxDepth:            opts.maxDepth,
		AllowTrailingCommas: opts.allowTrailingCommas,
		Schema:              opts.schema,
	})
	for r.Advance() {
	}
	return convertScanError(r.Err())
}

func effective(opts *Options) *Options {
	if opts == nil {
		return Default()
	}
	return opts
}

func namedMeta(typeName string, opts *Options) (*TypeMeta, error) {
	src := opts.MetadataSource()
	if src == nil {
		return nil, &MissingTypeMetadataError{TypeName: typeName}
	}
	meta, ok := src.Lookup(typeName)
	if !ok {
		return nil, &MissingTypeMetadataError{TypeName: typeName}
	}
	return meta, nil
}

// beginDocument consumes stream and document prologue tokens. It
// reports false at the end of the stream.
func (d *Decoder) beginDocument() (bool, error) {
	for {
		t, err := d.src.peek()
		if err != nil {
			return false, err
		}
		switch t.Kind {
		case scanner.KindStreamStart, scanner.KindDocumentStart:
			d.src.queue = d.src.queue[1:]
		case scanner.KindStreamEnd:
			d.src.queue = d.src.queue[1:]
			return false, nil
		default:
			return true, nil
		}
	}
}

// docHasContent reports whether the current document has a root value,
// or closes immediately (an explicit "---" with nothing under it).
func (d *Decoder) docHasContent() (bool, error) {
	t, err := d.src.peek()
	if err != nil {
		return false, err
	}
	return t.Kind != scanner.KindDocumentEnd, nil
}

// endDocument consumes the document epilogue after a root value.
func (d *Decoder) endDocument() error {
	t, err := d.src.peek()
	if err != nil {
		return err
	}
	if t.Kind != scanner.KindDocumentEnd {
		return fmt.Errorf("codec: unexpected %s after document root", t.Kind)
	}
	d.src.queue = d.src.queue[1:]
	return nil
}
