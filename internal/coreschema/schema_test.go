package coreschema

import (
	"math"
	"testing"
)

// TestInfer_Tags tests the core-schema inference rules
func TestInfer_Tags(t *testing.T) {
	tests := []struct {
		name string
		text string
		want Tag
	}{
		{"empty is null", "", TagNull},
		{"tilde is null", "~", TagNull},
		{"null keyword", "null", TagNull},
		{"null uppercase", "NULL", TagNull},
		{"null mixed case", "Null", TagNull},
		{"true", "true", TagBool},
		{"false", "false", TagBool},
		{"yes variant", "yes", TagBool},
		{"no variant", "no", TagBool},
		{"on variant", "On", TagBool},
		{"off variant", "OFF", TagBool},
		{"decimal int", "42", TagInt},
		{"negative int", "-17", TagInt},
		{"explicit positive int", "+3", TagInt},
		{"hex int", "0x1F", TagInt},
		{"octal int", "0o17", TagInt},
		{"plain float", "3.14", TagFloat},
		{"negative float", "-0.5", TagFloat},
		{"exponent float", "1e10", TagFloat},
		{"full exponent float", "6.02e23", TagFloat},
		{"leading dot float", ".5", TagFloat},
		{"trailing dot float", "1.", TagFloat},
		{"positive infinity", ".inf", TagFloat},
		{"negative infinity", "-.inf", TagFloat},
		{"not a number", ".nan", TagFloat},
		{"plain word", "hello", TagString},
		{"word with digits", "abc123", TagString},
		{"version-like", "1.2.3", TagString},
		{"lone sign", "-", TagString},
		{"lone dot", ".", TagString},
		{"hex without digits", "0x", TagString},
		{"exponent without digits", "1e", TagString},
		{"int with spaces", " 42", TagString},
		{"yaml 1.1 sexagesimal is a string", "1:30", TagString},
		{"truthy word", "truely", TagString},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Default.Infer(tt.text); got != tt.want {
				t.Errorf("Infer(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}

// TestParseInt tests integer parsing across the accepted bases
func TestParseInt(t *testing.T) {
	tests := []struct {
		text string
		want int64
	}{
		{"0", 0},
		{"42", 42},
		{"-17", -17},
		{"+8", 8},
		{"0x1F", 31},
		{"-0x10", -16},
		{"0o17", 15},
		{"0O7", 7},
	}
	for _, tt := range tests {
		got, err := ParseInt(tt.text)
		if err != nil {
			t.Errorf("ParseInt(%q) returned error: %v", tt.text, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseInt(%q) = %d, want %d", tt.text, got, tt.want)
		}
	}

	if _, err := ParseInt("abc"); err == nil {
		t.Error("ParseInt(\"abc\") should fail")
	}
}

// TestParseFloat tests float parsing including the special spellings
func TestParseFloat(t *testing.T) {
	tests := []struct {
		text string
		want float64
	}{
		{"3.14", 3.14},
		{"-0.5", -0.5},
		{"1e3", 1000},
		{".inf", math.Inf(1)},
		{"+.inf", math.Inf(1)},
		{"-.inf", math.Inf(-1)},
	}
	for _, tt := range tests {
		got, err := ParseFloat(tt.text)
		if err != nil {
			t.Errorf("ParseFloat(%q) returned error: %v", tt.text, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseFloat(%q) = %g, want %g", tt.text, got, tt.want)
		}
	}

	nan, err := ParseFloat(".nan")
	if err != nil {
		t.Fatalf("ParseFloat(.nan) returned error: %v", err)
	}
	if !math.IsNaN(nan) {
		t.Errorf("ParseFloat(.nan) = %g, want NaN", nan)
	}
}

// TestParseBool tests the boolean keyword set
func TestParseBool(t *testing.T) {
	for _, text := range []string{"true", "True", "yes", "on", "ON"} {
		v, ok := ParseBool(text)
		if !ok || !v {
			t.Errorf("ParseBool(%q) = (%v, %v), want (true, true)", text, v, ok)
		}
	}
	for _, text := range []string{"false", "no", "Off"} {
		v, ok := ParseBool(text)
		if !ok || v {
			t.Errorf("ParseBool(%q) = (%v, %v), want (false, true)", text, v, ok)
		}
	}
	if _, ok := ParseBool("maybe"); ok {
		t.Error("ParseBool(\"maybe\") should not match")
	}
}

// TestTagString tests the short-hand tag names
func TestTagString(t *testing.T) {
	tests := []struct {
		tag  Tag
		want string
	}{
		{TagString, "!!str"},
		{TagNull, "!!null"},
		{TagBool, "!!bool"},
		{TagInt, "!!int"},
		{TagFloat, "!!float"},
	}
	for _, tt := range tests {
		if got := tt.tag.String(); got != tt.want {
			t.Errorf("Tag(%d).String() = %q, want %q", tt.tag, got, tt.want)
		}
	}
}
