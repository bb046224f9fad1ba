package slogobs

import "testing"

func TestParseFormat(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  Format
	}{
		{"compact lowercase", "compact", FormatCompact},
		{"compact uppercase", "COMPACT", FormatCompact},
		{"pretty lowercase", "pretty", FormatPretty},
		{"pretty mixed case", "Pretty", FormatPretty},
		{"json lowercase", "json", FormatJSON},
		{"json uppercase", "JSON", FormatJSON},
		{"surrounding whitespace", " json ", FormatJSON},
		{"unknown defaults to compact", "yaml", FormatCompact},
		{"empty defaults to compact", "", FormatCompact},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParseFormat(tt.input); got != tt.want {
				t.Errorf("ParseFormat(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestGetFormatFromEnv(t *testing.T) {
	tests := []struct {
		name          string
		llmwireFormat string
		genericFormat string
		want          Format
	}{
		{"LLMWIRE_LOG_FORMAT wins over LOG_FORMAT", "pretty", "json", FormatPretty},
		{"falls back to LOG_FORMAT", "", "json", FormatJSON},
		{"defaults to compact when neither is set", "", "", FormatCompact},
		{"LLMWIRE_LOG_FORMAT alone", "pretty", "", FormatPretty},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("LLMWIRE_LOG_FORMAT", tt.llmwireFormat)
			t.Setenv("LOG_FORMAT", tt.genericFormat)

			if got := GetFormatFromEnv(); got != tt.want {
				t.Errorf("GetFormatFromEnv() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFormatString(t *testing.T) {
	for _, tt := range []struct {
		format Format
		want   string
	}{
		{FormatCompact, "compact"},
		{FormatPretty, "pretty"},
		{FormatJSON, "json"},
	} {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.format.String(); got != tt.want {
				t.Errorf("Format.String() = %q, want %q", got, tt.want)
			}
		})
	}
}
