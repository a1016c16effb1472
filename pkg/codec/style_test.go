package codec

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestDefaultScalarStyle_RoundTrip drives every configurable style
// through Serialize and checks the content survives re-reading, including
// strings the requested style cannot represent as written.
func TestDefaultScalarStyle_RoundTrip(t *testing.T) {
	meta := newPersonMeta()
	in := &testPerson{
		Name: "Ada",
		Age:  36,
		Tags: []string{"line1\nline2", "plain text", "123"},
	}

	styles := []struct {
		name  string
		style ScalarStyle
	}{
		{"any", StyleAny},
		{"plain", StylePlain},
		{"single quoted", StyleSingleQuoted},
		{"double quoted", StyleDoubleQuoted},
		{"literal", StyleLiteral},
		{"folded", StyleFolded},
	}
	for _, tt := range styles {
		t.Run(tt.name, func(t *testing.T) {
			opts := NewOptions()
			require.NoError(t, opts.SetDefaultScalarStyle(tt.style))

			out, err := Serialize(in, meta, opts)
			require.NoError(t, err)

			back, err := Deserialize(out, meta, opts)
			require.NoError(t, err)
			assert.Equal(t, in, back, "output:\n%s", out)
		})
	}
}

// TestDefaultScalarStyle_FoldedMultiLine pins the upgrade applied to
// folded output: folding joins lines with spaces, so text with interior
// breaks goes out in literal form and the breaks survive a round trip.
func TestDefaultScalarStyle_FoldedMultiLine(t *testing.T) {
	meta := newPersonMeta()
	opts := NewOptions()
	require.NoError(t, opts.SetDefaultScalarStyle(StyleFolded))

	in := &testPerson{Name: "Ada", Tags: []string{"line1\nline2"}}
	out, err := Serialize(in, meta, opts)
	require.NoError(t, err)
	assert.Contains(t, string(out), "|-", "multi-line text must use the literal form")

	back, err := Deserialize(out, meta, opts)
	require.NoError(t, err)
	assert.Equal(t, []string{"line1\nline2"}, back.(*testPerson).Tags)
}

// TestDefaultScalarStyle_FoldedSingleLine checks single-line strings do
// use the requested folded form on the wire.
func TestDefaultScalarStyle_FoldedSingleLine(t *testing.T) {
	meta := newPersonMeta()
	opts := NewOptions()
	require.NoError(t, opts.SetDefaultScalarStyle(StyleFolded))

	out, err := Serialize(&testPerson{Name: "Ada", Tags: []string{"alpha"}}, meta, opts)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(out), "name: >-\n  Ada\n"), "output:\n%s", out)

	back, err := Deserialize(out, meta, opts)
	require.NoError(t, err)
	assert.Equal(t, "Ada", back.(*testPerson).Name)
	assert.Equal(t, []string{"alpha"}, back.(*testPerson).Tags)
}

func TestPreferFlowStyle_Serialize(t *testing.T) {
	meta := newPersonMeta()
	opts := NewOptions()
	require.NoError(t, opts.SetPreferFlowStyle(true))

	in := &testPerson{Name: "Ada", Age: 36, Tags: []string{"x", "y"}}
	out, err := Serialize(in, meta, opts)
	require.NoError(t, err)
	assert.Equal(t, "{name: Ada, age: 36, tags: [x, y]}\n", string(out))

	back, err := Deserialize(out, meta, opts)
	require.NoError(t, err)
	assert.Equal(t, in, back)
}

// TestWriteComments_Serialize checks converter comments reach the output
// only when comment writing is enabled.
func TestWriteComments_Serialize(t *testing.T) {
	meta := &TypeMeta{
		Name: "noted",
		Converter: &Converter{
			Write: func(enc *Encoder, v any) error {
				enc.WriteComment("degrees celsius")
				enc.WriteString(v.(string))
				return nil
			},
			Read: func(dec *Decoder) (any, error) { return dec.String() },
		},
	}

	opts := NewOptions()
	require.NoError(t, opts.SetWriteComments(true))
	out, err := Serialize("warm", meta, opts)
	require.NoError(t, err)
	assert.Equal(t, "# degrees celsius\nwarm\n", string(out))

	back, err := Deserialize(out, meta, opts)
	require.NoError(t, err)
	assert.Equal(t, "warm", back)

	quiet, err := Serialize("warm", meta, NewOptions())
	require.NoError(t, err)
	assert.Equal(t, "warm\n", string(quiet))
}
