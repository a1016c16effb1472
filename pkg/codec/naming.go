package codec

import "strings"

// NamingPolicy converts a declared property name to its wire form.
// Policies apply only to properties without an explicit wire name;
// an explicit name always wins.
type NamingPolicy int

const (
	// NamingKebab writes lowerCamel or UpperCamel names as kebab-case
	// ("firstName" becomes "first-name"). This is the default.
	NamingKebab NamingPolicy = iota

	// NamingIdentity writes the declared name unchanged.
	NamingIdentity

	// NamingCamel writes names as lowerCamelCase.
	NamingCamel

	// NamingSnake writes names as snake_case.
	NamingSnake
)

// String returns a short name for diagnostics and tests.
func (p NamingPolicy) String() string {
	switch p {
	case NamingIdentity:
		return "identity"
	case NamingCamel:
		return "camel"
	case NamingSnake:
		return "snake"
	default:
		return "kebab"
	}
}

// Apply converts name according to the policy. Conversion splits on
// case boundaries, underscores and hyphens, so any of the supported
// conventions round-trip through any other.
func (p NamingPolicy) Apply(name string) string {
	switch p {
	case NamingIdentity:
		return name
	case NamingCamel:
		return joinCamel(splitWords(name))
	case NamingSnake:
		return strings.Join(splitWords(name), "_")
	default:
		return strings.Join(splitWords(name), "-")
	}
}

// splitWords breaks an identifier into lowercase words. Boundaries are
// underscores, hyphens, and lower-to-upper case transitions. Runs of
// uppercase letters stay together until the final letter of the run
// starts a new word ("HTTPServer" yields "http", "server").
func splitWords(name string) []string {
	var words []string
	var cur []byte
	flush := func() {
		if len(cur) > 0 {
			words = append(words, string(cur))
			cur = cur[:0]
		}
	}
	for i := 0; i < len(name); i++ {
		c := name[i]
		switch {
		case c == '_' || c == '-' || c == ' ':
			flush()
		case c >= 'A' && c <= 'Z':
			prevUpper := i > 0 && name[i-1] >= 'A' && name[i-1] <= 'Z'
			nextLower := i+1 < len(name) && name[i+1] >= 'a' && name[i+1] <= 'z'
			if !prevUpper || nextLower {
				flush()
			}
			cur = append(cur, c+('a'-'A'))
		default:
			cur = append(cur, c)
		}
	}
	flush()
	return words
}

func joinCamel(words []string) string {
	if len(words) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString(words[0])
	for _, w := range words[1:] {
		if w == "" {
			continue
		}
		if w[0] >= 'a' && w[0] <= 'z' {
			b.WriteByte(w[0] - ('a' - 'A'))
			b.WriteString(w[1:])
		} else {
			b.WriteString(w)
		}
	}
	return b.String()
}
