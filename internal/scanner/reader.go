package scanner

import (
	"github.com/shapestone/shape-codec/internal/coreschema"
)

// Config carries the scanner-relevant slice of the options snapshot.
type Config struct {
	// MaxDepth bounds the (context-kind, indent) stack. Zero means the
	// default of 64.
	MaxDepth int

	// ReadComments makes comments surface as tokens; otherwise they are
	// skipped silently.
	ReadComments bool

	// AllowTrailingCommas permits a ',' directly before a flow closer.
	AllowTrailingCommas bool

	// Schema infers tags for untagged plain scalars. Defaults to the
	// core schema.
	Schema coreschema.Schema
}

// DefaultMaxDepth is the nesting ceiling applied when none is
// configured.
const DefaultMaxDepth = 64

type frameKind int

const (
	fBlockMap frameKind = iota
	fBlockSeq
	fFlowMap
	fFlowSeq
)

type frameState int

const (
	stMapKey    frameState = iota // block map: expecting a key
	stMapValue                    // block map: key emitted, value pending
	stSeqItem                     // block seq: '-' consumed, item pending
	stSeqDash                     // block seq: expecting next '-' or dedent
	stFlowFirst                   // flow: before the first entry
	stFlowEntry                   // flow: after ',', entry pending
	stFlowColon                   // flow map: key emitted, ':' pending
	stFlowValue                   // flow map: ':' consumed, value pending
	stFlowComma                   // flow: entry done, ',' or closer pending
)

type frame struct {
	kind   frameKind
	indent int
	state  frameState
}

// Reader is a pull-style tokenizer/parser over a byte buffer. Advance
// moves to the next token; Token returns it. After Advance reports
// false, Err distinguishes end-of-input (nil) from a parse failure.
//
// The Reader reads one document per DocumentStart/DocumentEnd pair and
// keeps going across documents until the stream ends; callers decide
// how many documents to consume.
type Reader struct {
	src       []byte
	pos       int
	line      int // 1-based
	lineStart int // offset of the current line's first byte
	cfg       Config

	stack   []frame
	pending []Token
	tok     Token
	err     error

	started      bool // StreamStart emitted
	ended        bool // StreamEnd emitted
	docOpen      bool
	rootDone     bool // the document's root node is complete
	afterDocEnd  bool // saw "...", next content must be "---"
	sawDirective bool

	anchor  string // pending &name, attaches to the next node
	tagName string // pending !tag, attaches to the next node
	keyLine int    // line of the most recent block mapping key
}

// New constructs a Reader over src.
func New(src []byte, cfg Config) *Reader {
	if cfg.MaxDepth <= 0 {
		cfg.MaxDepth = DefaultMaxDepth
	}
	if cfg.Schema == nil {
		cfg.Schema = coreschema.Default
	}
	return &Reader{src: src, line: 1, cfg: cfg}
}

// Advance moves to the next token. It returns false at end of stream or
// on error; check Err afterwards.
func (r *Reader) Advance() bool {
	if r.err != nil {
		return false
	}
	for len(r.pending) == 0 {
		if r.ended {
			return false
		}
		r.step()
		if r.err != nil {
			return false
		}
	}
	r.tok = r.pending[0]
	r.pending = r.pending[1:]
	return true
}

// Token returns the current token. It is valid until the next Advance.
func (r *Reader) Token() Token { return r.tok }

// Err returns the error that stopped the Reader, if any.
func (r *Reader) Err() error { return r.err }

func (r *Reader) emit(t Token) { r.pending = append(r.pending, t) }

func (r *Reader) top() *frame {
	if len(r.stack) == 0 {
		return nil
	}
	return &r.stack[len(r.stack)-1]
}

func (r *Reader) push(k frameKind, indent int, s frameState) bool {
	if len(r.stack) >= r.cfg.MaxDepth {
		r.err = &DepthError{Limit: r.cfg.MaxDepth}
		return false
	}
	r.stack = append(r.stack, frame{kind: k, indent: indent, state: s})
	return true
}

func (r *Reader) pop() { r.stack = r.stack[:len(r.stack)-1] }

func (r *Reader) fail(msg string) {
	r.failAt(msg, r.line, r.pos-r.lineStart)
}

func (r *Reader) failAt(msg string, line, col int) {
	if r.err == nil {
		r.err = &ParseError{Msg: msg, Offset: r.pos, Line: line, Column: col + 1}
	}
}

func (r *Reader) eof() bool { return r.pos >= len(r.src) }

// step makes one unit of parsing progress, appending at least one token
// unless it only consumed ignorable input.
func (r *Reader) step() {
	if !r.started {
		r.started = true
		r.emit(Token{Kind: KindStreamStart})
		return
	}

	if f := r.top(); f != nil && (f.kind == fFlowMap || f.kind == fFlowSeq) {
		if r.skipFlowBlank() {
			return // comment token emitted
		}
		if r.eof() {
			r.fail("unterminated flow collection")
			return
		}
		r.stepFlow()
		return
	}

	if r.skipBlockBlank() {
		return // comment token emitted
	}
	if r.err != nil {
		return
	}
	if r.eof() {
		r.finish()
		return
	}
	r.stepBlock()
}

// skipBlockBlank skips spaces, line breaks and comments in block
// context. It reports true when a comment token was emitted.
func (r *Reader) skipBlockBlank() bool {
	for !r.eof() {
		c := r.src[r.pos]
		switch c {
		case ' ':
			r.pos++
		case '\t':
			if r.indentationSoFar() {
				r.fail("tab character used for indentation")
				return false
			}
			r.pos++
		case '\n', '\r':
			r.consumeBreak()
		case '#':
			text := r.skipCommentLine()
			if r.cfg.ReadComments {
				r.emit(Token{Kind: KindComment, Value: text})
				return true
			}
		default:
			return false
		}
	}
	return false
}

// indentationSoFar reports whether everything on the current line up to
// the cursor is spaces, i.e. the cursor still sits in the indentation.
func (r *Reader) indentationSoFar() bool {
	for i := r.lineStart; i < r.pos; i++ {
		if r.src[i] != ' ' {
			return false
		}
	}
	return true
}

// skipFlowBlank is skipBlockBlank for flow context, where tabs and line
// breaks are plain separation.
func (r *Reader) skipFlowBlank() bool {
	for !r.eof() {
		c := r.src[r.pos]
		switch c {
		case ' ', '\t':
			r.pos++
		case '\n', '\r':
			r.consumeBreak()
		case '#':
			text := r.skipCommentLine()
			if r.cfg.ReadComments {
				r.emit(Token{Kind: KindComment, Value: text})
				return true
			}
		default:
			return false
		}
	}
	return false
}

// finish unwinds everything at end of input.
func (r *Reader) finish() {
	for len(r.stack) > 0 {
		r.closeTop()
		if r.err != nil {
			return
		}
	}
	if r.docOpen {
		r.emit(Token{Kind: KindDocumentEnd})
		r.docOpen = false
		return
	}
	r.emit(Token{Kind: KindStreamEnd})
	r.ended = true
}

// closeTop ends the innermost context, emitting a null scalar first if
// the context still owes a value.
func (r *Reader) closeTop() {
	f := r.top()
	switch f.kind {
	case fBlockMap:
		if f.state == stMapValue {
			r.emitNull()
		}
		r.emit(Token{Kind: KindMappingEnd})
	case fBlockSeq:
		if f.state == stSeqItem {
			r.emitNull()
		}
		r.emit(Token{Kind: KindSequenceEnd})
	default:
		r.fail("unterminated flow collection")
		return
	}
	r.pop()
	if len(r.stack) == 0 {
		r.rootDone = true
	}
}

// emitNull produces the implicit null owed by an empty value position.
// A pending anchor or tag belongs to that null, not to whatever node
// comes next, so it is attached and cleared here.
func (r *Reader) emitNull() {
	r.emit(r.scalarToken("", StylePlain, true))
}

// stepBlock handles one decision point in block context. The cursor is
// at a content byte.
func (r *Reader) stepBlock() {
	col := r.pos - r.lineStart
	c := r.src[r.pos]

	// Document markers and directives only exist at column zero.
	if col == 0 {
		if r.matchMarker("---") {
			r.handleDocStart()
			return
		}
		if r.matchMarker("...") {
			r.handleDocEnd()
			return
		}
		if c == '%' {
			if r.docOpen {
				r.fail("directives are only allowed before a document")
				return
			}
			r.scanDirective()
			return
		}
	}
	if r.sawDirective {
		r.fail("expected '---' after directives")
		return
	}
	if r.afterDocEnd {
		r.fail("expected '---' to begin a new document")
		return
	}

	// Dedent: close contexts this column no longer continues.
	if r.closeByColumn(col, c) || r.err != nil {
		return
	}

	if !r.docOpen {
		r.emit(Token{Kind: KindDocumentStart})
		r.docOpen = true
		r.rootDone = false
		return
	}
	if r.rootDone && len(r.stack) == 0 {
		r.fail("unexpected content after document root")
		return
	}

	switch {
	case c == '-' && r.dashIsIndicator():
		r.stepDash(col)
	case c == '?' && r.indicatorAt(r.pos):
		r.fail("explicit complex mapping keys are not supported")
	case c == '&':
		name, ok := r.scanAnchorName()
		if ok {
			r.anchor = name
		}
	case c == '*':
		name, ok := r.scanAnchorName()
		if !ok {
			return
		}
		if !r.beginValue() {
			return
		}
		r.emit(Token{Kind: KindAlias, Value: name})
	case c == '!':
		name, ok := r.scanTagName()
		if ok {
			r.tagName = name
		}
	case c == '[':
		if !r.beginValue() || !r.push(fFlowSeq, col, stFlowFirst) {
			return
		}
		r.emit(r.containerToken(KindSequenceStart))
		r.pos++
	case c == '{':
		if !r.beginValue() || !r.push(fFlowMap, col, stFlowFirst) {
			return
		}
		r.emit(r.containerToken(KindMappingStart))
		r.pos++
	case c == '|' || c == '>':
		parent := 0
		if f := r.top(); f != nil {
			parent = f.indent
		}
		text, style, ok := r.scanBlockScalar(parent)
		if !ok || !r.beginValue() {
			return
		}
		r.emit(r.scalarToken(text, style, false))
	case c == '@' || c == '`':
		r.fail("reserved indicator '" + string(c) + "' cannot start a plain scalar")
	default:
		r.stepBlockScalarOrKey(col)
	}
}

// stepDash handles a '-' sequence-entry indicator at column col.
func (r *Reader) stepDash(col int) {
	f := r.top()
	if f != nil && f.kind == fBlockSeq && f.indent == col {
		if f.state == stSeqItem {
			// The previous entry was empty.
			r.emitNull()
		}
		f.state = stSeqItem
		r.pos++
		return
	}
	if f != nil && f.kind == fBlockMap && f.state == stMapValue && r.keyLine == r.line {
		r.fail("block sequences are not allowed on the same line as a mapping key")
		return
	}
	if !r.beginValue() || !r.push(fBlockSeq, col, stSeqItem) {
		return
	}
	r.emit(r.containerToken(KindSequenceStart))
	r.pos++
}

// stepBlockScalarOrKey scans a scalar and decides whether it is a
// mapping key (a ':' indicator follows) or a plain value.
func (r *Reader) stepBlockScalarOrKey(col int) {
	c := r.src[r.pos]
	if c == ':' && r.colonIsIndicator(false) {
		r.fail("unexpected ':'")
		return
	}

	var text string
	var style Style
	var ok bool
	switch c {
	case '"':
		text, ok = r.scanDoubleQuoted()
		style = StyleDoubleQuoted
	case '\'':
		text, ok = r.scanSingleQuoted()
		style = StyleSingleQuoted
	default:
		text = r.scanPlain(false)
		style = StylePlain
		ok = true
	}
	if !ok {
		return
	}

	// A ':' indicator directly after (modulo spaces) makes it a key.
	save := r.pos
	r.skipIndentSpaces()
	if !r.eof() && r.src[r.pos] == ':' && r.colonIsIndicator(false) {
		r.stepKey(col, text, style)
		return
	}
	r.pos = save

	if !r.beginValue() {
		return
	}
	r.emit(r.scalarToken(text, style, style == StylePlain))
}

// stepKey emits the key scalar, opening a mapping first when this is
// the mapping's first entry.
func (r *Reader) stepKey(col int, text string, style Style) {
	f := r.top()
	if f != nil && f.kind == fBlockMap && f.indent == col {
		if f.state == stMapValue {
			// The previous key's value was empty.
			r.emitNull()
			f.state = stMapKey
		}
	} else {
		if f != nil && f.kind == fBlockMap && f.state == stMapValue && r.keyLine == r.line {
			r.fail("mapping values are not allowed in this context")
			return
		}
		if !r.beginValue() || !r.push(fBlockMap, col, stMapKey) {
			return
		}
		r.emit(r.containerToken(KindMappingStart))
		f = r.top()
	}
	if f.state != stMapKey {
		r.fail("unexpected mapping key")
		return
	}
	r.emit(r.scalarToken(text, style, style == StylePlain))
	f.state = stMapValue
	r.keyLine = r.line
	r.pos++ // ':'
}

// closeByColumn pops block frames that content at column col no longer
// continues. It reports true when tokens were emitted so the caller
// re-enters with a clean stack.
func (r *Reader) closeByColumn(col int, c byte) bool {
	closed := false
	for {
		f := r.top()
		if f == nil {
			break
		}
		if col > f.indent {
			break
		}
		if col == f.indent {
			dash := c == '-' && r.dashIsIndicator()
			if f.kind == fBlockSeq && dash {
				break
			}
			if f.kind == fBlockMap {
				if f.state == stMapValue && dash {
					// A sequence value may align with its parent key.
					break
				}
				if !dash {
					break
				}
				// '-' where a key belongs: the sequence continues an
				// outer context, so this mapping is done.
			}
		}
		r.closeTop()
		if r.err != nil {
			return true
		}
		closed = true
	}
	return closed
}

// beginValue records that a node is starting at the current position
// and advances the enclosing context's expectation.
func (r *Reader) beginValue() bool {
	f := r.top()
	if f == nil {
		if r.rootDone {
			r.fail("unexpected content after document root")
			return false
		}
		r.rootDone = true
		return true
	}
	switch f.kind {
	case fBlockMap:
		if f.state != stMapValue {
			r.fail("could not find expected ':'")
			return false
		}
		f.state = stMapKey
	case fBlockSeq:
		if f.state != stSeqItem {
			r.fail("unexpected node in block sequence")
			return false
		}
		f.state = stSeqDash
	case fFlowSeq:
		if f.state != stFlowFirst && f.state != stFlowEntry {
			r.fail("unexpected node in flow sequence")
			return false
		}
		f.state = stFlowComma
	case fFlowMap:
		if f.state != stFlowValue {
			r.fail("unexpected node in flow mapping")
			return false
		}
		f.state = stFlowComma
	}
	return true
}

// stepFlow handles one decision point inside a flow collection.
func (r *Reader) stepFlow() {
	f := r.top()
	c := r.src[r.pos]
	switch c {
	case ',':
		if f.kind == fFlowMap && (f.state == stFlowColon || f.state == stFlowValue) {
			r.emitNull() // valueless entry such as {a, b} or {a: , b: 1}
			f.state = stFlowComma
		}
		if f.state != stFlowComma {
			r.fail("unexpected ',' in flow collection")
			return
		}
		f.state = stFlowEntry
		r.pos++
	case ']':
		if f.kind != fFlowSeq {
			r.fail("unexpected ']'")
			return
		}
		if f.state == stFlowEntry && !r.cfg.AllowTrailingCommas {
			r.fail("unexpected ']' after ','")
			return
		}
		r.emit(Token{Kind: KindSequenceEnd})
		r.pop()
		r.markRootIfDone()
		r.pos++
	case '}':
		if f.kind != fFlowMap {
			r.fail("unexpected '}'")
			return
		}
		switch f.state {
		case stFlowColon, stFlowValue:
			r.emitNull()
		case stFlowEntry:
			if !r.cfg.AllowTrailingCommas {
				r.fail("unexpected '}' after ','")
				return
			}
		}
		r.emit(Token{Kind: KindMappingEnd})
		r.pop()
		r.markRootIfDone()
		r.pos++
	case ':':
		if f.kind == fFlowMap && f.state == stFlowColon {
			f.state = stFlowValue
			r.pos++
			return
		}
		r.fail("unexpected ':' in flow collection")
	case '[':
		if !r.beginValue() || !r.push(fFlowSeq, f.indent, stFlowFirst) {
			return
		}
		r.emit(r.containerToken(KindSequenceStart))
		r.pos++
	case '{':
		if !r.beginValue() || !r.push(fFlowMap, f.indent, stFlowFirst) {
			return
		}
		r.emit(r.containerToken(KindMappingStart))
		r.pos++
	case '&':
		name, ok := r.scanAnchorName()
		if ok {
			r.anchor = name
		}
	case '*':
		name, ok := r.scanAnchorName()
		if !ok {
			return
		}
		if !r.beginValue() {
			return
		}
		r.emit(Token{Kind: KindAlias, Value: name})
	case '!':
		name, ok := r.scanTagName()
		if ok {
			r.tagName = name
		}
	default:
		r.stepFlowScalar(f)
	}
}

// stepFlowScalar scans a scalar inside a flow collection, which is a
// key when the enclosing flow mapping expects one.
func (r *Reader) stepFlowScalar(f *frame) {
	var text string
	var style Style
	var ok bool
	switch r.src[r.pos] {
	case '"':
		text, ok = r.scanDoubleQuoted()
		style = StyleDoubleQuoted
	case '\'':
		text, ok = r.scanSingleQuoted()
		style = StyleSingleQuoted
	default:
		text = r.scanPlain(true)
		style = StylePlain
		ok = true
		if text == "" {
			r.fail("unexpected character in flow collection")
			return
		}
	}
	if !ok {
		return
	}

	if f.kind == fFlowMap && (f.state == stFlowFirst || f.state == stFlowEntry) {
		r.emit(r.scalarToken(text, style, style == StylePlain))
		f.state = stFlowColon
		return
	}
	if !r.beginValue() {
		return
	}
	r.emit(r.scalarToken(text, style, style == StylePlain))
}

// markRootIfDone flags root completion after a flow frame pops back to
// an empty stack.
func (r *Reader) markRootIfDone() {
	if len(r.stack) == 0 {
		r.rootDone = true
	}
}

// dashIsIndicator reports whether the '-' at the cursor is a sequence
// entry indicator (followed by separation or end of input) rather than
// the start of a plain scalar such as -17.
func (r *Reader) dashIsIndicator() bool {
	return r.indicatorAt(r.pos)
}

func (r *Reader) indicatorAt(pos int) bool {
	if pos+1 >= len(r.src) {
		return true
	}
	n := r.src[pos+1]
	return n == ' ' || n == '\t' || n == '\n' || n == '\r'
}

// matchMarker reports and consumes a document marker ("---" or "...")
// when it stands alone at the cursor.
func (r *Reader) matchMarker(m string) bool {
	if r.pos+len(m) > len(r.src) {
		return false
	}
	if string(r.src[r.pos:r.pos+len(m)]) != m {
		return false
	}
	if r.pos+len(m) < len(r.src) {
		n := r.src[r.pos+len(m)]
		if n != ' ' && n != '\t' && n != '\n' && n != '\r' {
			return false
		}
	}
	r.pos += len(m)
	return true
}

func (r *Reader) handleDocStart() {
	r.sawDirective = false
	r.afterDocEnd = false
	for len(r.stack) > 0 {
		r.closeTop()
		if r.err != nil {
			return
		}
	}
	if r.docOpen {
		r.emit(Token{Kind: KindDocumentEnd})
	}
	r.emit(Token{Kind: KindDocumentStart})
	r.docOpen = true
	r.rootDone = false
}

func (r *Reader) handleDocEnd() {
	for len(r.stack) > 0 {
		r.closeTop()
		if r.err != nil {
			return
		}
	}
	if r.docOpen {
		r.emit(Token{Kind: KindDocumentEnd})
		r.docOpen = false
	}
	r.afterDocEnd = true
}

// scanDirective consumes a %YAML or %TAG directive line.
func (r *Reader) scanDirective() {
	line := r.scanToLineEnd()
	switch {
	case line == "%YAML 1.1" || line == "%YAML 1.2":
		// accepted and ignored
	case len(line) >= 5 && line[:5] == "%YAML":
		r.fail("unsupported YAML version directive")
		return
	case len(line) >= 4 && line[:4] == "%TAG":
		// tag handles are accepted and ignored
	default:
		r.fail("unknown directive")
		return
	}
	r.sawDirective = true
}

// containerToken builds a *Start token, attaching any pending anchor
// and clearing the pending tag (collection tags are accepted but carry
// no meaning for the engine).
func (r *Reader) containerToken(k Kind) Token {
	t := Token{Kind: k, Anchor: r.anchor, TagName: r.tagName}
	r.anchor = ""
	r.tagName = ""
	return t
}

// scalarToken builds a scalar token, resolving its tag: a declared tag
// wins, plain scalars are inferred through the schema, quoted and block
// scalars default to string.
func (r *Reader) scalarToken(text string, style Style, infer bool) Token {
	t := Token{Kind: KindScalar, Value: text, Style: style, Anchor: r.anchor}
	switch {
	case r.tagName != "":
		t.TagName = r.tagName
		t.Tag = declaredTag(r.tagName)
	case infer:
		t.Tag = r.cfg.Schema.Infer(text)
	default:
		t.Tag = coreschema.TagString
	}
	r.anchor = ""
	r.tagName = ""
	return t
}

// declaredTag maps the core shorthand tags onto schema tags; custom
// tags resolve to string and keep their raw name on the token.
func declaredTag(name string) coreschema.Tag {
	switch name {
	case "!!null":
		return coreschema.TagNull
	case "!!bool":
		return coreschema.TagBool
	case "!!int":
		return coreschema.TagInt
	case "!!float":
		return coreschema.TagFloat
	default:
		return coreschema.TagString
	}
}
