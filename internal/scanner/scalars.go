package scanner

import (
	"strings"
	"unicode/utf8"
)

// scanPlain scans a plain (unquoted) scalar starting at the current
// position. Plain scalars are single-line; they end at a newline, at a
// ':' indicator, at ' #' (comment), and in flow context additionally at
// any flow indicator.
//
// Grammar (subset):
//
//	Plain     = PlainFirst { PlainChar } ;
//	PlainChar = any byte except Newline, ":" Indicator, " #" ;
//
// Trailing spaces are not part of the scalar.
func (r *Reader) scanPlain(inFlow bool) string {
	start := r.pos
	for r.pos < len(r.src) {
		c := r.src[r.pos]
		if c == '\n' || c == '\r' {
			break
		}
		if c == ':' && r.colonIsIndicator(inFlow) {
			break
		}
		if inFlow && (c == ',' || c == '[' || c == ']' || c == '{' || c == '}') {
			break
		}
		if c == '#' && r.pos > start && (r.src[r.pos-1] == ' ' || r.src[r.pos-1] == '\t') {
			break
		}
		r.pos++
	}
	text := string(r.src[start:r.pos])
	return strings.TrimRight(text, " \t")
}

// colonIsIndicator reports whether the ':' at the current position acts
// as a mapping-value indicator rather than scalar content.
func (r *Reader) colonIsIndicator(inFlow bool) bool {
	if r.pos+1 >= len(r.src) {
		return true
	}
	n := r.src[r.pos+1]
	if n == ' ' || n == '\t' || n == '\n' || n == '\r' {
		return true
	}
	if inFlow && (n == ',' || n == '[' || n == ']' || n == '{' || n == '}') {
		return true
	}
	return false
}

// scanDoubleQuoted scans a double-quoted scalar, processing backslash
// escapes and folding interior line breaks.
func (r *Reader) scanDoubleQuoted() (string, bool) {
	startLine, startCol := r.line, r.pos-r.lineStart
	r.pos++ // opening quote
	var buf []byte
	for {
		if r.pos >= len(r.src) {
			r.failAt("unterminated double-quoted scalar", startLine, startCol)
			return "", false
		}
		c := r.src[r.pos]
		switch {
		case c == '"':
			r.pos++
			return string(buf), true
		case c == '\\':
			r.pos++
			if r.pos >= len(r.src) {
				r.failAt("unterminated double-quoted scalar", startLine, startCol)
				return "", false
			}
			esc, cont, ok := r.scanEscape()
			if !ok {
				return "", false
			}
			if !cont {
				buf = append(buf, esc...)
			}
		case c == '\n' || c == '\r':
			buf = r.foldQuotedBreaks(buf)
		default:
			buf = append(buf, c)
			r.pos++
		}
	}
}

// scanEscape decodes one escape sequence after the backslash has been
// consumed. cont is true for an escaped line break (continuation: no
// character is produced).
func (r *Reader) scanEscape() (text []byte, cont bool, ok bool) {
	c := r.src[r.pos]
	if c == '\n' || c == '\r' {
		r.consumeBreak()
		r.skipIndentSpaces()
		return nil, true, true
	}
	r.pos++
	switch c {
	case '0':
		return []byte{0x00}, false, true
	case 'a':
		return []byte{0x07}, false, true
	case 'b':
		return []byte{0x08}, false, true
	case 't':
		return []byte{'\t'}, false, true
	case 'n':
		return []byte{'\n'}, false, true
	case 'v':
		return []byte{0x0b}, false, true
	case 'f':
		return []byte{0x0c}, false, true
	case 'r':
		return []byte{'\r'}, false, true
	case 'e':
		return []byte{0x1b}, false, true
	case ' ':
		return []byte{' '}, false, true
	case '"':
		return []byte{'"'}, false, true
	case '/':
		return []byte{'/'}, false, true
	case '\\':
		return []byte{'\\'}, false, true
	case 'N':
		return appendRune(nil, 0x85), false, true
	case '_':
		return appendRune(nil, 0xA0), false, true
	case 'L':
		return appendRune(nil, 0x2028), false, true
	case 'P':
		return appendRune(nil, 0x2029), false, true
	case 'x':
		return r.scanHexEscape(2)
	case 'u':
		return r.scanHexEscape(4)
	case 'U':
		return r.scanHexEscape(8)
	}
	r.fail("unknown escape character '\\" + string(c) + "'")
	return nil, false, false
}

func (r *Reader) scanHexEscape(digits int) ([]byte, bool, bool) {
	var v rune
	for i := 0; i < digits; i++ {
		if r.pos >= len(r.src) {
			r.fail("unterminated hexadecimal escape")
			return nil, false, false
		}
		d, ok := hexVal(r.src[r.pos])
		if !ok {
			r.fail("invalid hexadecimal escape digit")
			return nil, false, false
		}
		v = v<<4 | rune(d)
		r.pos++
	}
	return appendRune(nil, v), false, true
}

func hexVal(b byte) (int, bool) {
	switch {
	case b >= '0' && b <= '9':
		return int(b - '0'), true
	case b >= 'a' && b <= 'f':
		return int(b-'a') + 10, true
	case b >= 'A' && b <= 'F':
		return int(b-'A') + 10, true
	}
	return 0, false
}

func appendRune(b []byte, r rune) []byte {
	var tmp [utf8.UTFMax]byte
	n := utf8.EncodeRune(tmp[:], r)
	return append(b, tmp[:n]...)
}

// scanSingleQuoted scans a single-quoted scalar. The only escape is the
// doubled quote; interior line breaks fold like double-quoted scalars.
func (r *Reader) scanSingleQuoted() (string, bool) {
	startLine, startCol := r.line, r.pos-r.lineStart
	r.pos++ // opening quote
	var buf []byte
	for {
		if r.pos >= len(r.src) {
			r.failAt("unterminated single-quoted scalar", startLine, startCol)
			return "", false
		}
		c := r.src[r.pos]
		switch {
		case c == '\'':
			if r.pos+1 < len(r.src) && r.src[r.pos+1] == '\'' {
				buf = append(buf, '\'')
				r.pos += 2
				continue
			}
			r.pos++
			return string(buf), true
		case c == '\n' || c == '\r':
			buf = r.foldQuotedBreaks(buf)
		default:
			buf = append(buf, c)
			r.pos++
		}
	}
}

// foldQuotedBreaks handles one or more line breaks inside a quoted
// scalar: trailing spaces on the broken line are dropped, a single
// break folds to one space, and each additional break contributes a
// literal newline.
func (r *Reader) foldQuotedBreaks(buf []byte) []byte {
	for len(buf) > 0 && (buf[len(buf)-1] == ' ' || buf[len(buf)-1] == '\t') {
		buf = buf[:len(buf)-1]
	}
	breaks := 0
	for r.pos < len(r.src) {
		c := r.src[r.pos]
		if c == '\n' || c == '\r' {
			r.consumeBreak()
			breaks++
			continue
		}
		if c == ' ' || c == '\t' {
			r.pos++
			continue
		}
		break
	}
	if breaks <= 1 {
		return append(buf, ' ')
	}
	for i := 1; i < breaks; i++ {
		buf = append(buf, '\n')
	}
	return buf
}

// skipIndentSpaces skips spaces and tabs at the current position.
func (r *Reader) skipIndentSpaces() {
	for r.pos < len(r.src) && (r.src[r.pos] == ' ' || r.src[r.pos] == '\t') {
		r.pos++
	}
}

// scanBlockScalar scans a literal (|) or folded (>) block scalar whose
// indicator sits at the current position. parentIndent is the indent
// column of the enclosing block context (0 at document root); content
// must be indented past it.
//
// Header:
//
//	BlockHeader = ( "|" | ">" ) [ Chomping ] [ IndentDigit ]
//	            | ( "|" | ">" ) [ IndentDigit ] [ Chomping ] ;
//	Chomping    = "-" | "+" ;
//	IndentDigit = "1".."9" ;
//
// Chomping: "-" strips all trailing newlines, default clips to exactly
// one, "+" keeps them all.
func (r *Reader) scanBlockScalar(parentIndent int) (text string, style Style, ok bool) {
	style = StyleLiteral
	if r.src[r.pos] == '>' {
		style = StyleFolded
	}
	r.pos++

	chomp := byte(0) // 0 = clip
	explicit := 0
	for i := 0; i < 2 && r.pos < len(r.src); i++ {
		c := r.src[r.pos]
		switch {
		case (c == '-' || c == '+') && chomp == 0:
			chomp = c
			r.pos++
		case c >= '1' && c <= '9' && explicit == 0:
			explicit = int(c - '0')
			r.pos++
		default:
			i = 2
		}
	}

	// Rest of the header line: optional spaces and comment only.
	r.skipIndentSpaces()
	if r.pos < len(r.src) && r.src[r.pos] == '#' {
		r.skipCommentLine()
	}
	if r.pos < len(r.src) {
		c := r.src[r.pos]
		if c != '\n' && c != '\r' {
			r.fail("unexpected characters after block scalar indicator")
			return "", style, false
		}
		r.consumeBreak()
	}

	contentIndent := -1
	if explicit > 0 {
		contentIndent = parentIndent + explicit
	}

	var lines []string
	for r.pos < len(r.src) {
		lineStart := r.pos
		indent := 0
		for r.pos < len(r.src) && r.src[r.pos] == ' ' {
			r.pos++
			indent++
		}
		if r.pos >= len(r.src) {
			lines = append(lines, "")
			break
		}
		c := r.src[r.pos]
		if c == '\n' || c == '\r' {
			// Blank line: belongs to the scalar regardless of indent.
			r.consumeBreak()
			lines = append(lines, "")
			continue
		}
		if contentIndent < 0 {
			// First non-blank line fixes the content indentation.
			if indent <= parentIndent {
				r.pos = lineStart
				r.lineStart = lineStart
				break
			}
			contentIndent = indent
		}
		if indent < contentIndent {
			r.pos = lineStart
			r.lineStart = lineStart
			break
		}
		// Keep indentation beyond the content indent.
		rest := r.scanToLineEnd()
		lines = append(lines, strings.Repeat(" ", indent-contentIndent)+rest)
	}

	var joined string
	if style == StyleLiteral {
		joined = strings.Join(lines, "\n")
	} else {
		joined = foldLines(lines)
	}
	if len(lines) > 0 {
		joined += "\n"
	}

	var content string
	switch chomp {
	case '-':
		content = strings.TrimRight(joined, "\n")
	case '+':
		content = joined
	default:
		content = strings.TrimRight(joined, "\n")
		if content != "" {
			content += "\n"
		}
	}
	return content, style, true
}

// foldLines implements folded-style joining: adjacent text lines join
// with a single space, each blank line contributes one literal
// newline, and more-indented lines keep their surrounding breaks.
func foldLines(lines []string) string {
	var b strings.Builder
	prevIndented := false
	blanks := 0
	wrote := false
	for _, ln := range lines {
		if ln == "" {
			blanks++
			continue
		}
		switch {
		case !wrote || blanks > 0:
			for i := 0; i < blanks; i++ {
				b.WriteByte('\n')
			}
		case prevIndented || isIndented(ln):
			b.WriteByte('\n')
		default:
			b.WriteByte(' ')
		}
		blanks = 0
		b.WriteString(ln)
		wrote = true
		prevIndented = isIndented(ln)
	}
	for i := 0; i < blanks; i++ {
		b.WriteByte('\n')
	}
	return b.String()
}

func isIndented(ln string) bool {
	return len(ln) > 0 && (ln[0] == ' ' || ln[0] == '\t')
}

// scanToLineEnd returns the text from the current position to the end
// of the line and consumes the trailing break.
func (r *Reader) scanToLineEnd() string {
	start := r.pos
	for r.pos < len(r.src) && r.src[r.pos] != '\n' && r.src[r.pos] != '\r' {
		r.pos++
	}
	text := string(r.src[start:r.pos])
	if r.pos < len(r.src) {
		r.consumeBreak()
	}
	return text
}

// scanAnchorName scans the identifier after a '&' or '*' indicator.
func (r *Reader) scanAnchorName() (string, bool) {
	r.pos++ // '&' or '*'
	start := r.pos
	for r.pos < len(r.src) && isAnchorChar(r.src[r.pos]) {
		r.pos++
	}
	if r.pos == start {
		r.fail("anchor name is missing")
		return "", false
	}
	return string(r.src[start:r.pos]), true
}

func isAnchorChar(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') ||
		(b >= '0' && b <= '9') || b == '_' || b == '-'
}

// scanTagName scans a !tag, !!tag or !<verbatim> token.
func (r *Reader) scanTagName() (string, bool) {
	start := r.pos
	r.pos++ // '!'
	if r.pos < len(r.src) && r.src[r.pos] == '<' {
		for r.pos < len(r.src) {
			c := r.src[r.pos]
			if c == '\n' || c == '\r' {
				break
			}
			r.pos++
			if c == '>' {
				return string(r.src[start:r.pos]), true
			}
		}
		r.fail("unterminated verbatim tag")
		return "", false
	}
	if r.pos < len(r.src) && r.src[r.pos] == '!' {
		r.pos++
	}
	for r.pos < len(r.src) && isTagChar(r.src[r.pos]) {
		r.pos++
	}
	if r.pos-start <= 1 {
		r.fail("tag name is missing")
		return "", false
	}
	return string(r.src[start:r.pos]), true
}

func isTagChar(b byte) bool {
	return isAnchorChar(b) || b == '.' || b == '/' || b == ':' || b == ','
}

// skipCommentLine consumes a comment up to (not including) the line
// break, returning the trimmed comment text.
func (r *Reader) skipCommentLine() string {
	r.pos++ // '#'
	start := r.pos
	for r.pos < len(r.src) && r.src[r.pos] != '\n' && r.src[r.pos] != '\r' {
		r.pos++
	}
	return strings.TrimSpace(string(r.src[start:r.pos]))
}

// consumeBreak consumes a \n, \r or \r\n and updates line accounting.
func (r *Reader) consumeBreak() {
	if r.src[r.pos] == '\r' {
		r.pos++
		if r.pos < len(r.src) && r.src[r.pos] == '\n' {
			r.pos++
		}
	} else {
		r.pos++
	}
	r.line++
	r.lineStart = r.pos
}
