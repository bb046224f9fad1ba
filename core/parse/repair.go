package parse

import (
	"encoding/json"
	"strings"
)

// Repair attempts to complete a truncated JSON fragment, such as a tool-call
// argument buffer whose stream was cut off mid-object. It never fails: the
// result is either a completed fragment that parses as JSON, or the original
// text unchanged.
//
// The routine is intentionally best-effort. It counts unmatched braces and
// brackets outside string literals and appends the deficit of closing
// characters, brackets before braces, then re-checks validity. Malformed
// (non-truncation) JSON is left alone; deeper recovery is the job of
// [ParseStringAs].
//
// Repair is idempotent: a value it returns passes through unchanged on a
// second call.
func Repair(text string) string {
	if json.Valid([]byte(text)) {
		return text
	}

	openBraces, openBrackets := countUnclosed(text)
	if openBraces == 0 && openBrackets == 0 {
		return text
	}

	var b strings.Builder
	b.Grow(len(text) + openBraces + openBrackets)
	b.WriteString(text)
	for i := 0; i < openBrackets; i++ {
		b.WriteByte(']')
	}
	for i := 0; i < openBraces; i++ {
		b.WriteByte('}')
	}

	candidate := b.String()
	if json.Valid([]byte(candidate)) {
		return candidate
	}
	return text
}

// countUnclosed counts braces and brackets opened but never closed, ignoring
// characters inside string literals so an argument value like "a{b" does not
// skew the balance. An unterminated trailing string literal leaves the text
// unrepairable; the counts still reflect the structural nesting outside it.
func countUnclosed(text string) (openBraces, openBrackets int) {
	inString := false
	escaped := false

	for i := 0; i < len(text); i++ {
		ch := text[i]

		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}

		switch ch {
		case '"':
			inString = true
		case '{':
			openBraces++
		case '}':
			if openBraces > 0 {
				openBraces--
			}
		case '[':
			openBrackets++
		case ']':
			if openBrackets > 0 {
				openBrackets--
			}
		}
	}
	return openBraces, openBrackets
}

// EnsureJSON returns a parseable JSON form of text along with whether it
// succeeded. It tries the text as-is, then truncation repair, then the deep
// jsonrepair pass used by ParseStringAs. The deep pass is only accepted when
// it yields an object or array, since callers feed it tool-call argument
// buffers and a bare coerced scalar would mask real corruption. On failure
// the original text comes back with false, so the caller can surface it raw.
func EnsureJSON(text string) (string, bool) {
	if json.Valid([]byte(text)) {
		return text, true
	}

	if repaired := Repair(text); repaired != text && json.Valid([]byte(repaired)) {
		return repaired, true
	}

	if deep, err := deepRepair(text); err == nil {
		trimmed := strings.TrimSpace(deep)
		if len(trimmed) > 0 && (trimmed[0] == '{' || trimmed[0] == '[') && json.Valid([]byte(trimmed)) {
			return trimmed, true
		}
	}

	return text, false
}
