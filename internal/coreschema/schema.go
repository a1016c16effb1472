// Package coreschema implements YAML core-schema tag inference for
// untagged plain scalars.
//
// The same ruleset is consulted by the scanner (to assign a default tag
// to an untagged plain scalar) and by the emitter (to decide when a
// string must be quoted so it is not re-inferred as a different tag on
// the next read). Inference is a pure function of the scalar text; the
// package holds no state.
package coreschema

import (
	"math"
	"strconv"
	"strings"
)

// Tag identifies the inferred (or declared) kind of a scalar.
type Tag int

const (
	// TagString is the fallback tag: any text not matched by a more
	// specific rule resolves to a string.
	TagString Tag = iota
	TagNull
	TagBool
	TagInt
	TagFloat
)

// String returns the YAML short-hand tag name.
func (t Tag) String() string {
	switch t {
	case TagNull:
		return "!!null"
	case TagBool:
		return "!!bool"
	case TagInt:
		return "!!int"
	case TagFloat:
		return "!!float"
	default:
		return "!!str"
	}
}

// Schema resolves an untagged plain scalar's text to a tag. Core is the
// default; alternate schemas may be substituted, but must remain exactly
// reversible with the emitter's quoting rules.
type Schema interface {
	Infer(text string) Tag
}

// Core implements the YAML core schema with the common 1.1 boolean
// extensions (yes/no/on/off), matching what most config files in the
// wild rely on.
type Core struct{}

// Default is the schema used when none is configured.
var Default Schema = Core{}

// Infer applies the core-schema literal rules:
//
//	Null   = "" | "~" | ci("null") ;
//	Bool   = ci("true" | "false" | "yes" | "no" | "on" | "off") ;
//	Int    = [ Sign ] Digit+ | "0x" HexDigit+ | "0o" OctalDigit+ ;
//	Float  = [ Sign ] ( Digit+ [ Frac ] [ Exp ] | Frac [ Exp ] )
//	       | [ Sign ] ci(".inf") | ci(".nan") ;
//
// where ci() is case-insensitive. Anything else is a string.
func (Core) Infer(text string) Tag {
	if IsNull(text) {
		return TagNull
	}
	if _, ok := ParseBool(text); ok {
		return TagBool
	}
	if isInt(text) {
		return TagInt
	}
	if isFloat(text) {
		return TagFloat
	}
	return TagString
}

// IsNull reports whether text is one of the null literals.
func IsNull(text string) bool {
	switch text {
	case "", "~":
		return true
	}
	return equalFold(text, "null")
}

// ParseBool resolves text against the boolean literal set. The second
// result is false when text is not a boolean literal at all.
func ParseBool(text string) (value, ok bool) {
	switch {
	case equalFold(text, "true"), equalFold(text, "yes"), equalFold(text, "on"):
		return true, true
	case equalFold(text, "false"), equalFold(text, "no"), equalFold(text, "off"):
		return false, true
	}
	return false, false
}

// ParseInt parses an integer literal, accepting decimal, 0x hex and 0o
// octal forms.
func ParseInt(text string) (int64, error) {
	s := text
	neg := false
	if len(s) > 0 && (s[0] == '+' || s[0] == '-') {
		neg = s[0] == '-'
		s = s[1:]
	}
	var v int64
	var err error
	switch {
	case strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X"):
		v, err = strconv.ParseInt(s[2:], 16, 64)
	case strings.HasPrefix(s, "0o") || strings.HasPrefix(s, "0O"):
		v, err = strconv.ParseInt(s[2:], 8, 64)
	default:
		v, err = strconv.ParseInt(s, 10, 64)
	}
	if err != nil {
		return 0, err
	}
	if neg {
		v = -v
	}
	return v, nil
}

// ParseFloat parses a float literal, including the .inf/.nan spellings.
func ParseFloat(text string) (float64, error) {
	switch {
	case equalFold(text, ".inf"), equalFold(text, "+.inf"):
		return inf(1), nil
	case equalFold(text, "-.inf"):
		return inf(-1), nil
	case equalFold(text, ".nan"):
		return nan(), nil
	}
	return strconv.ParseFloat(text, 64)
}

// isInt matches the integer lexical grammar without allocating.
func isInt(s string) bool {
	if len(s) == 0 {
		return false
	}
	if s[0] == '+' || s[0] == '-' {
		s = s[1:]
	}
	if len(s) == 0 {
		return false
	}
	if len(s) > 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		return allHex(s[2:])
	}
	if len(s) > 2 && s[0] == '0' && (s[1] == 'o' || s[1] == 'O') {
		return allOctal(s[2:])
	}
	return allDigits(s)
}

// isFloat matches the float lexical grammar, requiring at least one
// digit and either a fraction, an exponent, or an inf/nan spelling so
// that plain integers stay integers.
func isFloat(s string) bool {
	switch {
	case equalFold(s, ".inf"), equalFold(s, "+.inf"), equalFold(s, "-.inf"), equalFold(s, ".nan"):
		return true
	}
	if len(s) == 0 {
		return false
	}
	if s[0] == '+' || s[0] == '-' {
		s = s[1:]
	}
	if len(s) == 0 {
		return false
	}
	i := 0
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	intDigits := i
	fracDigits := 0
	if i < len(s) && s[i] == '.' {
		i++
		for i < len(s) && s[i] >= '0' && s[i] <= '9' {
			i++
			fracDigits++
		}
	}
	if intDigits == 0 && fracDigits == 0 {
		return false
	}
	hasMark := fracDigits > 0 || (i < len(s) && (s[i] == 'e' || s[i] == 'E'))
	if i < len(s) && (s[i] == 'e' || s[i] == 'E') {
		i++
		if i < len(s) && (s[i] == '+' || s[i] == '-') {
			i++
		}
		expDigits := 0
		for i < len(s) && s[i] >= '0' && s[i] <= '9' {
			i++
			expDigits++
		}
		if expDigits == 0 {
			return false
		}
	}
	// "1." style floats are accepted by many emitters; require the dot
	// to have been present for integer-digit-only forms.
	if intDigits > 0 && fracDigits == 0 && !hasMark && !strings.Contains(s[:i], ".") {
		return false
	}
	return i == len(s)
}

func allDigits(s string) bool {
	if len(s) == 0 {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

func allHex(s string) bool {
	if len(s) == 0 {
		return false
	}
	for i := 0; i < len(s); i++ {
		b := s[i]
		if !((b >= '0' && b <= '9') || (b >= 'a' && b <= 'f') || (b >= 'A' && b <= 'F')) {
			return false
		}
	}
	return true
}

func allOctal(s string) bool {
	if len(s) == 0 {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '7' {
			return false
		}
	}
	return true
}

// equalFold is an ASCII-only case-insensitive comparison; scalar
// keywords are all ASCII so the unicode tables are never needed.
func equalFold(s, t string) bool {
	if len(s) != len(t) {
		return false
	}
	for i := 0; i < len(s); i++ {
		a, b := s[i], t[i]
		if a >= 'A' && a <= 'Z' {
			a += 'a' - 'A'
		}
		if b >= 'A' && b <= 'Z' {
			b += 'a' - 'A'
		}
		if a != b {
			return false
		}
	}
	return true
}

func inf(sign int) float64 { return math.Inf(sign) }

func nan() float64 { return math.NaN() }
