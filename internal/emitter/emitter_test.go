package emitter

import (
	"strings"
	"testing"

	"github.com/shapestone/shape-codec/internal/scanner"
)

// TestWriter_Mappings tests block mapping layout
func TestWriter_Mappings(t *testing.T) {
	w := NewWriter(Config{Indent: 2, IndentSequenceItems: true})
	w.BeginMapping(false)
	w.WriteKey("name")
	w.WriteString("app")
	w.WriteKey("port")
	w.WriteRaw("8080")
	w.WriteKey("nested")
	w.BeginMapping(false)
	w.WriteKey("x")
	w.WriteRaw("1")
	w.EndMapping()
	w.EndMapping()

	want := "name: app\nport: 8080\nnested:\n  x: 1\n"
	if got := string(w.Bytes()); got != want {
		t.Errorf("output = %q, want %q", got, want)
	}
}

// TestWriter_SequenceIndentation tests both sequence indentation modes
func TestWriter_SequenceIndentation(t *testing.T) {
	build := func(cfg Config) string {
		w := NewWriter(cfg)
		w.BeginMapping(false)
		w.WriteKey("items")
		w.BeginSequence(false)
		w.WriteString("a")
		w.WriteString("b")
		w.EndSequence()
		w.EndMapping()
		return string(w.Bytes())
	}

	indented := build(Config{Indent: 2, IndentSequenceItems: true})
	if want := "items:\n  - a\n  - b\n"; indented != want {
		t.Errorf("indented = %q, want %q", indented, want)
	}

	aligned := build(Config{Indent: 2, IndentSequenceItems: false})
	if want := "items:\n- a\n- b\n"; aligned != want {
		t.Errorf("aligned = %q, want %q", aligned, want)
	}
}

// TestWriter_SequenceOfMappings tests the compact dash form
func TestWriter_SequenceOfMappings(t *testing.T) {
	w := NewWriter(Config{Indent: 2, IndentSequenceItems: true})
	w.BeginSequence(false)
	for _, name := range []string{"a", "b"} {
		w.BeginMapping(false)
		w.WriteKey("name")
		w.WriteString(name)
		w.WriteKey("ok")
		w.WriteRaw("true")
		w.EndMapping()
	}
	w.EndSequence()

	want := "- name: a\n  ok: true\n- name: b\n  ok: true\n"
	if got := string(w.Bytes()); got != want {
		t.Errorf("output = %q, want %q", got, want)
	}
}

// TestWriter_StringQuoting tests style selection against re-inference
func TestWriter_StringQuoting(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  string // rendered scalar
	}{
		{"plain word", "hello", "hello"},
		{"word with spaces", "hello world", "hello world"},
		{"boolean-like", "true", "'true'"},
		{"yes variant", "yes", "'yes'"},
		{"number-like", "123", "'123'"},
		{"float-like", "3.14", "'3.14'"},
		{"null-like", "null", "'null'"},
		{"tilde", "~", "'~'"},
		{"empty string", "", `""`},
		{"leading indicator", "#comment", "'#comment'"},
		{"colon space", "key: value", "'key: value'"},
		{"single quote inside", "it's fine", "it's fine"},
		{"quote-like and indicator", "'quoted'", `"'quoted'"`},
		{"trailing colon", "end:", "'end:'"},
		{"dash alone", "-", "'-'"},
		{"tab escape", "a\tb", `"a\tb"`},
		{"control byte", "a\x01b", `"a\x01b"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := NewWriter(Config{Indent: 2})
			w.BeginMapping(false)
			w.WriteKey("v")
			w.WriteString(tt.value)
			w.EndMapping()
			got := string(w.Bytes())
			want := "v: " + tt.want + "\n"
			if got != want {
				t.Errorf("output = %q, want %q", got, want)
			}
		})
	}
}

// TestWriter_BlockScalarChomping tests the indicator chosen per
// trailing-newline shape
func TestWriter_BlockScalarChomping(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"no trailing newline strips", "a\nb", "v: |-\n  a\n  b\n"},
		{"single trailing newline clips", "a\nb\n", "v: |\n  a\n  b\n"},
		{"double trailing newline keeps", "a\n\n", "v: |+\n  a\n\n"},
		{"interior blank line", "a\n\nb\n", "v: |\n  a\n\n  b\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := NewWriter(Config{Indent: 2})
			w.BeginMapping(false)
			w.WriteKey("v")
			w.WriteString(tt.text)
			w.EndMapping()
			if got := string(w.Bytes()); got != tt.want {
				t.Errorf("output = %q, want %q", got, tt.want)
			}
		})
	}
}

// TestWriter_ForcedStyles tests the configured default style and the
// upgrades applied when the text cannot survive the requested form
func TestWriter_ForcedStyles(t *testing.T) {
	tests := []struct {
		name  string
		style scanner.Style
		text  string
		want  string
	}{
		{"folded single line", scanner.StyleFolded, "hello", "v: >-\n  hello\n"},
		{"folded multi-line becomes literal", scanner.StyleFolded, "line1\nline2", "v: |-\n  line1\n  line2\n"},
		{"folded trailing newline becomes literal", scanner.StyleFolded, "a\nb\n", "v: |\n  a\n  b\n"},
		{"literal multi-line", scanner.StyleLiteral, "a\nb", "v: |-\n  a\n  b\n"},
		{"single quoted", scanner.StyleSingleQuoted, "hello", "v: 'hello'\n"},
		{"single quoted with break upgrades", scanner.StyleSingleQuoted, "a\nb", "v: \"a\\nb\"\n"},
		{"double quoted", scanner.StyleDoubleQuoted, "hello", "v: \"hello\"\n"},
		{"plain unsafe text upgrades", scanner.StylePlain, "true", "v: 'true'\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := NewWriter(Config{Indent: 2, HasForcedStyle: true, ForceStyle: tt.style})
			w.BeginMapping(false)
			w.WriteKey("v")
			w.WriteString(tt.text)
			w.EndMapping()
			if got := string(w.Bytes()); got != tt.want {
				t.Errorf("output = %q, want %q", got, tt.want)
			}
		})
	}
}

// TestWriter_FlowStyle tests flow collection output
func TestWriter_FlowStyle(t *testing.T) {
	w := NewWriter(Config{Indent: 2, PreferFlowStyle: true})
	w.BeginMapping(false)
	w.WriteKey("a")
	w.WriteRaw("1")
	w.WriteKey("items")
	w.BeginSequence(false)
	w.WriteRaw("1")
	w.WriteRaw("2")
	w.EndSequence()
	w.EndMapping()

	want := "{a: 1, items: [1, 2]}\n"
	if got := string(w.Bytes()); got != want {
		t.Errorf("output = %q, want %q", got, want)
	}
}

// TestWriter_EmptyCollections tests the flow fallback for empties
func TestWriter_EmptyCollections(t *testing.T) {
	w := NewWriter(Config{Indent: 2})
	w.BeginMapping(false)
	w.WriteKey("list")
	w.BeginSequence(true)
	w.EndSequence()
	w.WriteKey("map")
	w.BeginMapping(true)
	w.EndMapping()
	w.EndMapping()

	want := "list: []\nmap: {}\n"
	if got := string(w.Bytes()); got != want {
		t.Errorf("output = %q, want %q", got, want)
	}
}

// TestWriter_Nulls tests null rendering in each context
func TestWriter_Nulls(t *testing.T) {
	w := NewWriter(Config{Indent: 2})
	w.BeginMapping(false)
	w.WriteKey("a")
	w.WriteNull()
	w.WriteKey("b")
	w.WriteRaw("1")
	w.EndMapping()
	if got, want := string(w.Bytes()), "a:\nb: 1\n"; got != want {
		t.Errorf("mapping nulls = %q, want %q", got, want)
	}

	w = NewWriter(Config{Indent: 2})
	w.BeginSequence(false)
	w.WriteNull()
	w.WriteRaw("1")
	w.EndSequence()
	if got, want := string(w.Bytes()), "-\n- 1\n"; got != want {
		t.Errorf("sequence nulls = %q, want %q", got, want)
	}
}

// TestWriter_AnchorsAndAliases tests anchor placement and alias output
func TestWriter_AnchorsAndAliases(t *testing.T) {
	w := NewWriter(Config{Indent: 2})
	w.BeginMapping(false)
	w.WriteKey("first")
	w.SetAnchor("o1")
	w.BeginMapping(false)
	w.WriteKey("x")
	w.WriteRaw("1")
	w.EndMapping()
	w.WriteKey("second")
	w.WriteAlias("o1")
	w.EndMapping()

	want := "first: &o1\n  x: 1\nsecond: *o1\n"
	if got := string(w.Bytes()); got != want {
		t.Errorf("output = %q, want %q", got, want)
	}
}

// TestWriter_Documents tests multi-document markers
func TestWriter_Documents(t *testing.T) {
	w := NewWriter(Config{Indent: 2})
	w.BeginMapping(false)
	w.WriteKey("a")
	w.WriteRaw("1")
	w.EndMapping()
	w.BeginDocument()
	w.BeginMapping(false)
	w.WriteKey("b")
	w.WriteRaw("2")
	w.EndMapping()

	want := "a: 1\n---\nb: 2\n"
	if got := string(w.Bytes()); got != want {
		t.Errorf("output = %q, want %q", got, want)
	}
}

// TestWriter_Comments tests comment emission gating
func TestWriter_Comments(t *testing.T) {
	w := NewWriter(Config{Indent: 2, WriteComments: true})
	w.BeginMapping(false)
	w.WriteKey("a")
	w.WriteRaw("1")
	w.WriteComment("section")
	w.WriteKey("b")
	w.WriteRaw("2")
	w.EndMapping()
	want := "a: 1\n# section\nb: 2\n"
	if got := string(w.Bytes()); got != want {
		t.Errorf("output = %q, want %q", got, want)
	}

	w = NewWriter(Config{Indent: 2})
	w.BeginMapping(false)
	w.WriteKey("a")
	w.WriteRaw("1")
	w.WriteComment("dropped")
	w.EndMapping()
	if got := string(w.Bytes()); strings.Contains(got, "dropped") {
		t.Errorf("comment emitted while disabled: %q", got)
	}
}

// TestWriter_ContractViolations tests fail-fast sequencing panics
func TestWriter_ContractViolations(t *testing.T) {
	tests := []struct {
		name string
		fn   func(w *Writer)
	}{
		{"end without begin", func(w *Writer) { w.EndMapping() }},
		{"mismatched end", func(w *Writer) { w.BeginSequence(false); w.EndMapping() }},
		{"value without key", func(w *Writer) { w.BeginMapping(false); w.WriteString("x") }},
		{"close with pending key", func(w *Writer) {
			w.BeginMapping(false)
			w.WriteKey("a")
			w.EndMapping()
		}},
		{"key outside mapping", func(w *Writer) { w.WriteKey("a") }},
		{"bytes with open collection", func(w *Writer) { w.BeginMapping(false); w.Bytes() }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			defer func() {
				if recover() == nil {
					t.Error("expected panic")
				}
			}()
			tt.fn(NewWriter(Config{Indent: 2}))
		})
	}
}

// TestWriter_RoundTrip feeds emitted output back through the scanner
// and checks the scalar values and string tags survive
func TestWriter_RoundTrip(t *testing.T) {
	w := NewWriter(Config{Indent: 2, IndentSequenceItems: true})
	w.BeginMapping(false)
	w.WriteKey("name")
	w.WriteString("yes") // must stay a string
	w.WriteKey("count")
	w.WriteRaw("42")
	w.WriteKey("notes")
	w.WriteString("line1\nline2\n")
	w.WriteKey("tags")
	w.BeginSequence(false)
	w.WriteString("x")
	w.WriteString("123")
	w.EndSequence()
	w.EndMapping()
	out := w.Bytes()

	r := scanner.New(out, scanner.Config{})
	var scalars []scanner.Token
	for r.Advance() {
		if r.Token().Kind == scanner.KindScalar {
			scalars = append(scalars, r.Token())
		}
	}
	if err := r.Err(); err != nil {
		t.Fatalf("emitted output does not re-parse: %v\noutput:\n%s", err, out)
	}

	byKey := map[string]scanner.Token{}
	for i := 0; i+1 < len(scalars); i += 2 {
		byKey[scalars[i].Value] = scalars[i+1]
	}
	if got := byKey["name"]; got.Value != "yes" || got.Tag.String() != "!!str" {
		t.Errorf("name = (%q, %s), want (\"yes\", !!str)", got.Value, got.Tag)
	}
	if got := byKey["count"]; got.Value != "42" || got.Tag.String() != "!!int" {
		t.Errorf("count = (%q, %s), want (\"42\", !!int)", got.Value, got.Tag)
	}
	if got := byKey["notes"]; got.Value != "line1\nline2\n" {
		t.Errorf("notes = %q, want %q", got.Value, "line1\nline2\n")
	}
}
