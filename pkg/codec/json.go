package codec

import (
	json "github.com/goccy/go-json"
)

// ToJSON converts one YAML document to its JSON rendering. The YAML is
// decoded to an untyped tree first, so tags, styles and comments do
// not survive; values and structure do.
func ToJSON(data []byte, opts *Options) ([]byte, error) {
	v, err := DecodeAny(data, opts)
	if err != nil {
		return nil, err
	}
	return json.Marshal(v)
}

// FromJSON converts a JSON document to YAML. The JSON is decoded to an
// untyped tree and re-emitted through the writer, so output follows
// the active style options.
func FromJSON(data []byte, opts *Options) ([]byte, error) {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, err
	}
	opts = effective(opts)
	opts.freezeForUse()
	enc := newEncoder(opts)
	if err := enc.encodeAny(v); err != nil {
		return nil, err
	}
	return enc.w.Bytes(), nil
}
