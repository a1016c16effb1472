// Package emitter produces YAML bytes from explicit structural calls.
//
// The Writer mirrors the scanner's indentation model, maintaining the
// same (context-kind, indent-column) stack, so anything it emits is
// guaranteed to be re-parseable by the scanner. Caller sequencing
// violations (ending a mapping that was never started, writing a value
// without a key) are programming-contract violations and panic rather
// than returning recoverable errors.
package emitter

import (
	"strings"

	"github.com/shapestone/shape-codec/internal/coreschema"
	"github.com/shapestone/shape-codec/internal/scanner"
)

// Config carries the emitter-relevant slice of the options snapshot.
type Config struct {
	// Indent is the number of spaces per nesting level (minimum 2).
	Indent int

	// IndentSequenceItems indents sequence dashes one level past the
	// parent key; when false they align with the parent key's column.
	IndentSequenceItems bool

	// PreferFlowStyle emits all collections in flow form.
	PreferFlowStyle bool

	// ForceStyle, when set, requests a specific scalar style for
	// strings; it is upgraded when the text cannot be represented in
	// that style.
	ForceStyle     scanner.Style
	HasForcedStyle bool

	// WriteComments enables WriteComment output; otherwise comments are
	// dropped silently.
	WriteComments bool

	// Schema decides when a string would be mis-inferred as another tag
	// and therefore needs quoting. Defaults to the core schema.
	Schema coreschema.Schema
}

type frameKind int

const (
	fMapping frameKind = iota
	fSequence
)

type frame struct {
	kind     frameKind
	flow     bool
	indent   int  // column of this context's entries
	n        int  // entries emitted so far
	afterKey bool // mapping: key written, value pending
	compact  bool // first entry continues the "- " line
}

// Writer emits YAML to an in-memory buffer.
type Writer struct {
	buf    []byte
	cfg    Config
	stack  []frame
	anchor string // pending &name for the next node
	doc    bool   // a document marker or content was emitted
}

// NewWriter constructs a Writer with the given configuration.
func NewWriter(cfg Config) *Writer {
	if cfg.Indent < 2 {
		cfg.Indent = 2
	}
	if cfg.Schema == nil {
		cfg.Schema = coreschema.Default
	}
	return &Writer{cfg: cfg}
}

// Bytes returns the emitted document. All collections must be closed.
func (w *Writer) Bytes() []byte {
	if len(w.stack) != 0 {
		panic("yaml: Bytes called with unclosed collections")
	}
	if len(w.buf) > 0 && w.buf[len(w.buf)-1] != '\n' {
		w.buf = append(w.buf, '\n')
	}
	return w.buf
}

// Reset clears the buffer and state so the Writer can be reused.
func (w *Writer) Reset() {
	w.buf = w.buf[:0]
	w.stack = w.stack[:0]
	w.anchor = ""
	w.doc = false
}

// BeginDocument emits an explicit document start marker. It is optional
// for the first document and required between documents.
func (w *Writer) BeginDocument() {
	if len(w.stack) != 0 {
		panic("yaml: BeginDocument inside an open collection")
	}
	w.newlineIfNeeded()
	w.buf = append(w.buf, "---\n"...)
}

// EndDocument emits an explicit document end marker.
func (w *Writer) EndDocument() {
	if len(w.stack) != 0 {
		panic("yaml: EndDocument inside an open collection")
	}
	w.newlineIfNeeded()
	w.buf = append(w.buf, "...\n"...)
}

// SetAnchor attaches &name to the next node emitted.
func (w *Writer) SetAnchor(name string) { w.anchor = name }

// BeginMapping opens a mapping. Empty mappings should be opened with
// flow=true so they render as {} deterministically.
func (w *Writer) BeginMapping(flow bool) {
	w.beginCollection(fMapping, flow)
}

// EndMapping closes the innermost mapping.
func (w *Writer) EndMapping() {
	w.endCollection(fMapping, '}')
}

// BeginSequence opens a sequence. Empty sequences should be opened with
// flow=true so they render as [] deterministically.
func (w *Writer) BeginSequence(flow bool) {
	w.beginCollection(fSequence, flow)
}

// EndSequence closes the innermost sequence.
func (w *Writer) EndSequence() {
	w.endCollection(fSequence, ']')
}

func (w *Writer) beginCollection(kind frameKind, flow bool) {
	flow = flow || w.cfg.PreferFlowStyle || w.inFlow()
	anchor := w.takeAnchor()
	indent := w.childIndent(kind)
	compact := w.nodePrefix(!flow, anchor)
	if flow {
		if kind == fMapping {
			w.buf = append(w.buf, '{')
		} else {
			w.buf = append(w.buf, '[')
		}
	}
	w.stack = append(w.stack, frame{kind: kind, flow: flow, indent: indent, compact: compact && !flow})
}

func (w *Writer) endCollection(kind frameKind, closer byte) {
	f := w.top()
	if f == nil || f.kind != kind {
		if kind == fMapping {
			panic("yaml: EndMapping without matching BeginMapping")
		}
		panic("yaml: EndSequence without matching BeginSequence")
	}
	if f.kind == fMapping && f.afterKey {
		panic("yaml: mapping closed with a key awaiting its value")
	}
	if f.flow {
		w.buf = append(w.buf, closer)
	} else if f.n == 0 {
		// A block collection with no entries has no representation;
		// callers are expected to open empty collections in flow form.
		if n := len(w.buf); n > 0 && (w.buf[n-1] == ':' || w.buf[n-1] == '-') {
			w.buf = append(w.buf, ' ')
		}
		if f.kind == fMapping {
			w.buf = append(w.buf, "{}"...)
		} else {
			w.buf = append(w.buf, "[]"...)
		}
	}
	w.stack = w.stack[:len(w.stack)-1]
}

// WriteKey emits a mapping key. Keys are styled like string scalars so
// a key such as "true" or "123" survives re-reading as a string.
func (w *Writer) WriteKey(name string) {
	f := w.top()
	if f == nil || f.kind != fMapping {
		panic("yaml: WriteKey outside a mapping")
	}
	if f.afterKey {
		panic("yaml: WriteKey while the previous key awaits its value")
	}
	if f.flow {
		if f.n > 0 {
			w.buf = append(w.buf, ", "...)
		}
	} else {
		w.entryPrefix(f)
	}
	// Keys take the heuristic flow-safe style; a forced default style
	// applies to values only, and block scalars cannot be keys.
	w.writeStyled(name, w.heuristicStyle(name, true), f.indent)
	w.buf = append(w.buf, ':')
	f.afterKey = true
	f.n++
}

// WriteString emits a string scalar, choosing a style that preserves
// the exact content and its string tag across a round trip.
func (w *Writer) WriteString(text string) {
	style := w.pickStyle(text, w.inFlow())
	w.writeScalar(text, style)
}

// WriteStyled emits a scalar in the requested style, upgrading it when
// the text cannot be represented that way.
func (w *Writer) WriteStyled(text string, style scanner.Style) {
	w.writeScalar(text, w.upgradeStyle(text, style, w.inFlow()))
}

// WriteRaw emits pre-formatted scalar text (numbers, booleans) in plain
// style with no quoting checks.
func (w *Writer) WriteRaw(text string) {
	w.writeScalar(text, scanner.StylePlain)
}

// WriteNull emits a null as an empty scalar: a key with nothing after
// the colon, a bare dash in block sequences, and the null literal where
// emptiness would be ambiguous.
func (w *Writer) WriteNull() {
	anchor := w.takeAnchor()
	f := w.top()
	if f == nil {
		w.newlineIfNeeded()
		w.buf = append(w.buf, "null"...)
		w.doc = true
		return
	}
	if f.flow {
		w.flowValuePrefix(f, anchor)
		w.buf = append(w.buf, "null"...)
		return
	}
	switch f.kind {
	case fMapping:
		if !f.afterKey {
			panic("yaml: value written without a key")
		}
		if anchor != "" {
			w.buf = append(w.buf, " &"...)
			w.buf = append(w.buf, anchor...)
		}
		f.afterKey = false
	case fSequence:
		w.entryPrefix(f)
		w.buf = append(w.buf, '-')
		if anchor != "" {
			w.buf = append(w.buf, " &"...)
			w.buf = append(w.buf, anchor...)
		}
		f.n++
	}
}

// WriteAlias emits *name referencing a previously anchored node.
func (w *Writer) WriteAlias(name string) {
	w.nodePrefix(false, w.takeAnchor())
	w.buf = append(w.buf, '*')
	w.buf = append(w.buf, name...)
}

// WriteComment emits a comment line at the current indentation. It is a
// no-op unless comment writing is enabled.
func (w *Writer) WriteComment(text string) {
	if !w.cfg.WriteComments {
		return
	}
	f := w.top()
	if f != nil && f.kind == fMapping && f.afterKey {
		panic("yaml: comment written between a key and its value")
	}
	indent := 0
	if f != nil {
		indent = f.indent
	}
	w.newlineIfNeeded()
	w.pad(indent)
	w.buf = append(w.buf, "# "...)
	w.buf = append(w.buf, text...)
	w.buf = append(w.buf, '\n')
}

func (w *Writer) writeScalar(text string, style scanner.Style) {
	anchor := w.takeAnchor()
	f := w.top()
	indent := 0
	if f != nil {
		indent = f.indent
	}
	if style == scanner.StyleLiteral || style == scanner.StyleFolded {
		// Block scalars only exist in block context.
		if w.inFlow() {
			style = scanner.StyleDoubleQuoted
		}
	}
	w.nodePrefix(false, anchor)
	w.writeStyled(text, style, indent)
	w.doc = true
}

// nodePrefix writes whatever must precede the next node: separators,
// dashes, the pending anchor, and line breaks for block children. It
// reports whether a block collection child may render its first entry
// compactly on the current line.
func (w *Writer) nodePrefix(blockChild bool, anchor string) (compact bool) {
	f := w.top()
	if f == nil {
		w.newlineIfNeeded()
		if anchor != "" {
			w.buf = append(w.buf, '&')
			w.buf = append(w.buf, anchor...)
			if blockChild {
				w.buf = append(w.buf, '\n')
			} else {
				w.buf = append(w.buf, ' ')
			}
		}
		w.doc = true
		return false
	}
	if f.flow {
		w.flowValuePrefix(f, anchor)
		return false
	}
	switch f.kind {
	case fMapping:
		if !f.afterKey {
			panic("yaml: value written without a key")
		}
		f.afterKey = false
		if anchor != "" {
			w.buf = append(w.buf, " &"...)
			w.buf = append(w.buf, anchor...)
			if !blockChild {
				w.buf = append(w.buf, ' ')
			}
			return false // anchored block children go on their own lines
		}
		if !blockChild {
			w.buf = append(w.buf, ' ')
		}
		// Block collection children start on their own line, never
		// compact after a key.
		return false
	default: // sequence item
		w.entryPrefix(f)
		w.buf = append(w.buf, '-')
		f.n++
		if anchor != "" {
			w.buf = append(w.buf, " &"...)
			w.buf = append(w.buf, anchor...)
			if !blockChild {
				w.buf = append(w.buf, ' ')
			}
			return false
		}
		if blockChild {
			w.pad(w.cfg.Indent - 1)
			return true
		}
		w.buf = append(w.buf, ' ')
		return false
	}
}

func (w *Writer) flowValuePrefix(f *frame, anchor string) {
	if f.kind == fMapping {
		if !f.afterKey {
			panic("yaml: value written without a key")
		}
		f.afterKey = false
		w.buf = append(w.buf, ' ')
	} else {
		if f.n > 0 {
			w.buf = append(w.buf, ", "...)
		}
		f.n++
	}
	if anchor != "" {
		w.buf = append(w.buf, '&')
		w.buf = append(w.buf, anchor...)
		w.buf = append(w.buf, ' ')
	}
}

// entryPrefix starts a fresh entry line inside a block collection,
// honoring the compact form after a sequence dash.
func (w *Writer) entryPrefix(f *frame) {
	if f.compact && f.n == 0 {
		return
	}
	w.newlineIfNeeded()
	w.pad(f.indent)
}

func (w *Writer) newlineIfNeeded() {
	if len(w.buf) > 0 && w.buf[len(w.buf)-1] != '\n' {
		w.buf = append(w.buf, '\n')
	}
}

func (w *Writer) pad(n int) {
	for i := 0; i < n; i++ {
		w.buf = append(w.buf, ' ')
	}
}

func (w *Writer) top() *frame {
	if len(w.stack) == 0 {
		return nil
	}
	return &w.stack[len(w.stack)-1]
}

func (w *Writer) inFlow() bool {
	f := w.top()
	return f != nil && f.flow
}

func (w *Writer) takeAnchor() string {
	a := w.anchor
	w.anchor = ""
	return a
}

// childIndent computes the entry column for a collection opened at the
// current position.
func (w *Writer) childIndent(kind frameKind) int {
	f := w.top()
	if f == nil {
		return 0
	}
	switch {
	case f.kind == fMapping:
		if kind == fSequence && !w.cfg.IndentSequenceItems {
			// Dashes align with the parent key's column; this stays
			// unambiguous because '-' is not a valid key start.
			return f.indent
		}
		return f.indent + w.cfg.Indent
	default:
		return f.indent + w.cfg.Indent
	}
}

// pickStyle chooses the style for a string scalar: plain unless the
// text would be re-inferred as a different tag, contains structural
// characters, or contains line breaks.
func (w *Writer) pickStyle(text string, inFlow bool) scanner.Style {
	if w.cfg.HasForcedStyle {
		return w.upgradeStyle(text, w.cfg.ForceStyle, inFlow)
	}
	return w.heuristicStyle(text, inFlow)
}

func (w *Writer) heuristicStyle(text string, inFlow bool) scanner.Style {
	switch {
	case text == "":
		return scanner.StyleDoubleQuoted
	case strings.ContainsAny(text, "\n\r"):
		if !inFlow && literalSafe(text) {
			return scanner.StyleLiteral
		}
		return scanner.StyleDoubleQuoted
	case hasControlBytes(text):
		return scanner.StyleDoubleQuoted
	case !plainSafe(text, inFlow) || w.cfg.Schema.Infer(text) != coreschema.TagString:
		if strings.Contains(text, "'") {
			return scanner.StyleDoubleQuoted
		}
		return scanner.StyleSingleQuoted
	default:
		return scanner.StylePlain
	}
}

// upgradeStyle keeps a requested style when the text survives it and
// otherwise moves to the nearest style that preserves content exactly.
func (w *Writer) upgradeStyle(text string, style scanner.Style, inFlow bool) scanner.Style {
	switch style {
	case scanner.StylePlain:
		if text == "" || strings.ContainsAny(text, "\n\r") || hasControlBytes(text) ||
			!plainSafe(text, inFlow) || w.cfg.Schema.Infer(text) != coreschema.TagString {
			return w.upgradeStyle(text, scanner.StyleSingleQuoted, inFlow)
		}
		return scanner.StylePlain
	case scanner.StyleSingleQuoted:
		if strings.ContainsAny(text, "\n\r") || hasControlBytes(text) {
			return scanner.StyleDoubleQuoted
		}
		return scanner.StyleSingleQuoted
	case scanner.StyleLiteral, scanner.StyleFolded:
		if inFlow || !literalSafe(text) {
			return scanner.StyleDoubleQuoted
		}
		if style == scanner.StyleFolded && strings.Contains(text, "\n") {
			// Folding joins adjacent lines with a space; interior breaks
			// only survive the literal form.
			return scanner.StyleLiteral
		}
		return style
	default:
		return scanner.StyleDoubleQuoted
	}
}

func (w *Writer) writeStyled(text string, style scanner.Style, indent int) {
	switch style {
	case scanner.StyleSingleQuoted:
		w.buf = append(w.buf, '\'')
		w.buf = append(w.buf, strings.ReplaceAll(text, "'", "''")...)
		w.buf = append(w.buf, '\'')
	case scanner.StyleDoubleQuoted:
		w.buf = appendDoubleQuoted(w.buf, text)
	case scanner.StyleLiteral, scanner.StyleFolded:
		w.writeBlockScalar(text, style, indent)
	default:
		w.buf = append(w.buf, text...)
	}
}

// writeBlockScalar emits a literal or folded scalar with the chomping
// indicator that reproduces the text's trailing newlines exactly.
func (w *Writer) writeBlockScalar(text string, style scanner.Style, indent int) {
	if style == scanner.StyleFolded {
		w.buf = append(w.buf, '>')
	} else {
		w.buf = append(w.buf, '|')
	}
	var body string
	switch {
	case !strings.HasSuffix(text, "\n"):
		w.buf = append(w.buf, '-')
		body = text
	case strings.HasSuffix(text, "\n\n"):
		w.buf = append(w.buf, '+')
		body = strings.TrimSuffix(text, "\n")
	default:
		body = strings.TrimSuffix(text, "\n")
	}
	contentIndent := indent + w.cfg.Indent
	for _, ln := range strings.Split(body, "\n") {
		w.buf = append(w.buf, '\n')
		if ln != "" {
			w.pad(contentIndent)
			w.buf = append(w.buf, ln...)
		}
	}
	// Terminate the final content line so trailing blank lines survive
	// and the next entry starts cleanly.
	w.buf = append(w.buf, '\n')
}

// literalSafe reports whether text survives a literal block scalar:
// every line printable, no line starting with a space (which would
// disturb indentation detection), no carriage returns.
func literalSafe(text string) bool {
	if strings.Contains(text, "\r") {
		return false
	}
	if strings.Trim(text, "\n") == "" {
		// All-break content cannot survive chomping.
		return false
	}
	for _, ln := range strings.Split(strings.TrimSuffix(text, "\n"), "\n") {
		if strings.HasPrefix(ln, " ") || strings.HasPrefix(ln, "\t") {
			return false
		}
		for i := 0; i < len(ln); i++ {
			if ln[i] < 0x20 {
				return false
			}
		}
	}
	return true
}

func hasControlBytes(text string) bool {
	for i := 0; i < len(text); i++ {
		if text[i] < 0x20 {
			return true
		}
	}
	return false
}

// plainSafe reports whether text can be written unquoted without
// changing meaning when read back.
func plainSafe(text string, inFlow bool) bool {
	if text == "" {
		return false
	}
	first := text[0]
	switch first {
	case '?', ':', ',', '[', ']', '{', '}', '#', '&', '*', '!', '|', '>', '\'', '"', '%', '@', '`', ' ', '\t':
		return false
	case '-':
		if len(text) == 1 || text[1] == ' ' || text[1] == '\t' {
			return false
		}
	}
	if text[len(text)-1] == ' ' || text[len(text)-1] == '\t' || text[len(text)-1] == ':' {
		return false
	}
	if strings.Contains(text, ": ") || strings.Contains(text, " #") {
		return false
	}
	if inFlow && strings.ContainsAny(text, ",[]{}") {
		return false
	}
	if strings.Contains(text, ":\t") {
		return false
	}
	return true
}

// appendDoubleQuoted writes text with backslash escapes, keeping
// printable UTF-8 as-is.
func appendDoubleQuoted(buf []byte, text string) []byte {
	buf = append(buf, '"')
	for i := 0; i < len(text); i++ {
		c := text[i]
		switch c {
		case '"':
			buf = append(buf, '\\', '"')
		case '\\':
			buf = append(buf, '\\', '\\')
		case '\n':
			buf = append(buf, '\\', 'n')
		case '\t':
			buf = append(buf, '\\', 't')
		case '\r':
			buf = append(buf, '\\', 'r')
		default:
			if c < 0x20 {
				buf = append(buf, '\\', 'x', hexDigit(c>>4), hexDigit(c&0x0f))
			} else {
				buf = append(buf, c)
			}
		}
	}
	return append(buf, '"')
}

func hexDigit(v byte) byte {
	if v < 10 {
		return '0' + v
	}
	return 'a' + v - 10
}
