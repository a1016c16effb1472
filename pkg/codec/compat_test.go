package codec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	yamlv3 "gopkg.in/yaml.v3"
)

// yaml.v3 is a test-only dependency used to cross-check output and
// inference against the reference parser. The 1.1 boolean extensions
// (yes/no/on/off) are deliberately absent from these fixtures: yaml.v3
// follows the strict 1.2 core schema there.

// normalizeTree maps yaml.v3's decoded shapes onto ours so trees
// compare directly: ints widen to int64.
func normalizeTree(v any) any {
	switch x := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, e := range x {
			out[k] = normalizeTree(e)
		}
		return out
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = normalizeTree(e)
		}
		return out
	case int:
		return int64(x)
	default:
		return v
	}
}

func TestCompat_DecodeAgreesWithYAMLv3(t *testing.T) {
	docs := []struct {
		name string
		src  string
	}{
		{"flat mapping", "name: app\nport: 8080\nratio: 0.5\ndebug: true\nnote: ~\n"},
		{"nested blocks", "server:\n  host: localhost\n  tags:\n    - a\n    - b\nlimits:\n  max: 10\n"},
		{"flow collections", "point: {x: 1, y: 2}\nlist: [1, two, 3.0]\n"},
		{"quoted scalars", "a: '123'\nb: \"true\"\nc: 'null'\n"},
		{"sequence of mappings", "items:\n  - id: 1\n    name: first\n  - id: 2\n    name: second\n"},
		{"block scalar", "text: |\n  line one\n  line two\n"},
		{"anchors and aliases", "base: &b\n  x: 1\nother: *b\n"},
		{"special floats", "big: 1.5e10\nneg: -0.25\n"},
		{"hex and octal ints", "h: 0x1F\no: 0o17\n"},
	}
	for _, doc := range docs {
		t.Run(doc.name, func(t *testing.T) {
			ours, err := DecodeAny([]byte(doc.src), NewOptions())
			require.NoError(t, err)

			var theirs any
			require.NoError(t, yamlv3.Unmarshal([]byte(doc.src), &theirs))

			assert.Equal(t, normalizeTree(theirs), ours)
		})
	}
}

func TestCompat_OutputParsesUnderYAMLv3(t *testing.T) {
	out, err := Serialize(&testPerson{Name: "yes", Age: 8080, Tags: []string{"123", "plain"}},
		newPersonMeta(), NewOptions())
	require.NoError(t, err)

	var cfg struct {
		Name string   `yaml:"name"`
		Age  int      `yaml:"age"`
		Tags []string `yaml:"tags"`
	}
	require.NoError(t, yamlv3.Unmarshal(out, &cfg))
	assert.Equal(t, "yes", cfg.Name, "quoting must protect boolean-like strings")
	assert.Equal(t, 8080, cfg.Age)
	assert.Equal(t, []string{"123", "plain"}, cfg.Tags)
}

func TestCompat_UntypedTreeSurvivesYAMLv3RoundTrip(t *testing.T) {
	tree := map[string]any{
		"name":  "app",
		"count": int64(42),
		"ratio": 0.5,
		"list":  []any{"a", int64(1)},
	}

	enc := newEncoder(NewOptions())
	enc.opts.freezeForUse()
	require.NoError(t, enc.encodeAny(tree))
	out := enc.w.Bytes()

	var theirs any
	require.NoError(t, yamlv3.Unmarshal(out, &theirs))
	assert.Equal(t, tree, normalizeTree(theirs))
}
