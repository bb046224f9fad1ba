package utils

import (
	"strings"
	"testing"
)

// TestJSONToString covers compact output, indented output, and the
// marshal-failure sentinel.
func TestJSONToString(t *testing.T) {
	t.Run("compact by default", func(t *testing.T) {
		result := JSONToString(map[string]int{"a": 1, "b": 2})
		if strings.Contains(result, "\n") {
			t.Errorf("compact mode should not contain newlines, got: %q", result)
		}
		if !strings.Contains(result, `"a"`) {
			t.Errorf("result missing key 'a': %q", result)
		}
	})

	t.Run("indented on request", func(t *testing.T) {
		result := JSONToString(map[string]int{"x": 42}, true)
		if !strings.Contains(result, "\n") {
			t.Errorf("indent=true should contain newlines, got: %q", result)
		}
		if !strings.Contains(result, "  ") {
			t.Errorf("indent=true should use two-space indentation, got: %q", result)
		}
	})

	t.Run("marshal error returns sentinel not panic", func(t *testing.T) {
		// Channels cannot be marshaled to JSON.
		result := JSONToString(make(chan int))
		if !strings.HasPrefix(result, `{"error":`) {
			t.Errorf("unmarshalable value should return error JSON, got: %q", result)
		}
	})
}

// TestToString verifies that ToString is a thin wrapper returning the same
// compact JSON as JSONToString with no indentation flag.
func TestToString(t *testing.T) {
	input := struct{ Name string }{"alice"}
	want := `{"Name":"alice"}`

	if got := ToString(input); got != want {
		t.Errorf("ToString() = %q, want %q", got, want)
	}
}

// TestTruncateString covers the boundary cases around maxLen, including the
// fallback to DefaultMaxStringLength for zero and negative limits.
func TestTruncateString(t *testing.T) {
	testCases := []struct {
		name          string
		input         string
		maxLen        int
		wantTruncated bool
	}{
		{"shorter than maxLen returns unchanged", "hello", 10, false},
		{"exactly at maxLen returns unchanged", "hello", 5, false},
		{"longer than maxLen gets truncated", "hello world", 5, true},
		{"zero maxLen uses default", strings.Repeat("a", DefaultMaxStringLength+1), 0, true},
		{"negative maxLen uses default", strings.Repeat("b", DefaultMaxStringLength+1), -1, true},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			got := TruncateString(testCase.input, testCase.maxLen)

			hasSuffix := strings.Contains(got, "... (truncated, total:")
			if hasSuffix != testCase.wantTruncated {
				t.Errorf("TruncateString(%q, %d) truncated=%v, want truncated=%v; got %q",
					testCase.input, testCase.maxLen, hasSuffix, testCase.wantTruncated, got)
			}
		})
	}
}

// TestTruncateString_ContentPreserved verifies that the prefix before the
// ellipsis exactly matches the first maxLen characters of the input, and that
// the suffix records the original length so error raws stay diagnosable.
func TestTruncateString_ContentPreserved(t *testing.T) {
	got := TruncateString("abcdefghij", 4)

	if !strings.HasPrefix(got, "abcd") {
		t.Errorf("should start with first 4 chars, got: %q", got)
	}
	if !strings.Contains(got, "total: 10 chars") {
		t.Errorf("should record the original length, got: %q", got)
	}
}

// TestTruncateStringDefault exercises the shorthand used when attaching raw
// backend payloads to typed errors.
func TestTruncateStringDefault(t *testing.T) {
	short := "short"
	if got := TruncateStringDefault(short); got != short {
		t.Errorf("TruncateStringDefault(%q) = %q, want unchanged", short, got)
	}

	long := strings.Repeat("x", DefaultMaxStringLength+10)
	got := TruncateStringDefault(long)
	if !strings.Contains(got, "... (truncated, total:") {
		t.Errorf("long input should be truncated, got: %q", got[:50])
	}
	if len(got) >= len(long) {
		t.Errorf("truncated output should be shorter than input")
	}
}
