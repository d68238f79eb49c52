// Package keycodec parses and builds compound OData-style entity keys of
// the form Name(k1='v1',k2='v2'). Parse failures are the
// caller's responsibility to log and treat as "skip this control event";
// this package only ever returns ("", false) on failure, it never panics
// or logs.
package keycodec

import "strings"

// DummyKey is the sentinel substituted for a literal null key component so
// that compound keys with nullable parts round-trip through parsing. Used
// by the control subscriber's link/unlink handling to build an
// "unlinked" rule key.
const DummyKey = "__dummy__"

// FirstKey extracts the inner key text of the first Entity(key) fragment
// in s, e.g. "Rule('R1')/_Box" -> "'R1'". Returns ("", false) if s has no
// balanced parenthesis pair.
func FirstKey(s string) (string, bool) {
	return nthKey(s, 0)
}

// SecondKey extracts the inner key text of the second Entity(key) fragment
// in a nested "A(k1)(k2)" or "A(k1)/B(k2)" fragment.
func SecondKey(s string) (string, bool) {
	return nthKey(s, 1)
}

// nthKey returns the text inside the (n+1)-th balanced "(...)" pair found
// in s, substituting literal "null" with DummyKey first so nullable
// components parse like any other value.
func nthKey(s string, n int) (string, bool) {
	s = substituteNull(s)
	count := 0
	depth := 0
	start := -1
	for i, r := range s {
		switch r {
		case '(':
			if depth == 0 {
				start = i + 1
			}
			depth++
		case ')':
			depth--
			if depth == 0 && start >= 0 {
				if count == n {
					return s[start:i], true
				}
				count++
				start = -1
			}
			if depth < 0 {
				return "", false
			}
		}
	}
	return "", false
}

func substituteNull(s string) string {
	return strings.ReplaceAll(s, "=null", "='"+DummyKey+"'")
}

// Single parses a bare single-quoted key, e.g. "'R1'" -> "R1".
func Single(key string) (string, bool) {
	key = strings.TrimSpace(key)
	if len(key) < 2 || key[0] != '\'' || key[len(key)-1] != '\'' {
		return "", false
	}
	return key[1 : len(key)-1], true
}

// Complex parses a comma-separated "name='value'" list and returns the
// requested field.
func Complex(key string, fieldName string) (string, bool) {
	for _, part := range splitTopLevelCommas(key) {
		part = strings.TrimSpace(part)
		eq := strings.IndexByte(part, '=')
		if eq < 0 {
			continue
		}
		name := strings.TrimSpace(part[:eq])
		if name != fieldName {
			continue
		}
		value := strings.TrimSpace(part[eq+1:])
		return Single(value)
	}
	return "", false
}

// ComplexValue parses key as either a single bare value (only useful
// when fieldName is the sole component) or a complex comma list,
// returning nil (ok=false) on any parse failure so the caller skips the
// event.
func ComplexValue(key string, fieldName string) (string, bool) {
	if value, ok := Complex(key, fieldName); ok {
		return value, true
	}
	return Single(key)
}

// BuildComplex builds a compound key fragment "name='value',name2='value2'"
// from ordered field/value pairs, substituting DummyKey back to the
// literal null token so registration can detect unlinked boxes explicitly.
func BuildComplex(fields ...[2]string) string {
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		name, value := f[0], f[1]
		parts = append(parts, name+"='"+value+"'")
	}
	return strings.Join(parts, ",")
}

func splitTopLevelCommas(s string) []string {
	var parts []string
	inQuote := false
	last := 0
	for i, r := range s {
		switch r {
		case '\'':
			inQuote = !inQuote
		case ',':
			if !inQuote {
				parts = append(parts, s[last:i])
				last = i + 1
			}
		}
	}
	parts = append(parts, s[last:])
	return parts
}
