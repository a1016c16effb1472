package codec

// Built-in metadata nodes for scalar leaves. They are plain converter
// nodes, so user-defined converters and these follow one dispatch
// path.
var (
	// StringMeta handles string values.
	StringMeta = &TypeMeta{
		Name: "string",
		Converter: &Converter{
			Write: func(enc *Encoder, v any) error {
				enc.WriteString(v.(string))
				return nil
			},
			Read: func(dec *Decoder) (any, error) {
				return dec.String()
			},
		},
	}

	// IntMeta handles int values.
	IntMeta = &TypeMeta{
		Name: "int",
		Converter: &Converter{
			Write: func(enc *Encoder, v any) error {
				enc.WriteInt(int64(v.(int)))
				return nil
			},
			Read: func(dec *Decoder) (any, error) {
				i, err := dec.Int()
				return int(i), err
			},
		},
	}

	// Int64Meta handles int64 values.
	Int64Meta = &TypeMeta{
		Name: "int64",
		Converter: &Converter{
			Write: func(enc *Encoder, v any) error {
				enc.WriteInt(v.(int64))
				return nil
			},
			Read: func(dec *Decoder) (any, error) {
				return dec.Int()
			},
		},
	}

	// Float64Meta handles float64 values.
	Float64Meta = &TypeMeta{
		Name: "float64",
		Converter: &Converter{
			Write: func(enc *Encoder, v any) error {
				enc.WriteFloat(v.(float64))
				return nil
			},
			Read: func(dec *Decoder) (any, error) {
				return dec.Float()
			},
		},
	}

	// BoolMeta handles bool values.
	BoolMeta = &TypeMeta{
		Name: "bool",
		Converter: &Converter{
			Write: func(enc *Encoder, v any) error {
				enc.WriteBool(v.(bool))
				return nil
			},
			Read: func(dec *Decoder) (any, error) {
				return dec.Bool()
			},
		},
	}
)
