package errors

import (
	"strings"
	"testing"
)

func TestValidateMarkdown(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr string
	}{
		{"simple", "# Title\n## A\n- x", ""},
		{"header later", "intro\n\n## Section", ""},
		{"deep header", "###### Six", ""},

		{"empty", "", "empty"},
		{"blank", "  \n\t\n", "empty"},
		{"no header", "- a\n- b", "header"},
		{"hash without space", "#hashtag only", "header"},
		{"indented hash", "  # not a header", "header"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateMarkdown(tt.input)
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("ValidateMarkdown(%q) unexpected error: %v", tt.input, err)
				}
				return
			}
			if err == nil {
				t.Fatalf("ValidateMarkdown(%q) expected error containing %q", tt.input, tt.wantErr)
			}
			if !Is(err, ErrCodeInvalidInput) {
				t.Errorf("wrong code: %v", err)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestValidateQuality(t *testing.T) {
	for _, q := range []string{"", "low", "medium", "high", "ultra"} {
		if err := ValidateQuality(q); err != nil {
			t.Errorf("ValidateQuality(%q) = %v", q, err)
		}
	}
	for _, q := range []string{"HIGH", "best", " low"} {
		if err := ValidateQuality(q); err == nil {
			t.Errorf("ValidateQuality(%q) should fail", q)
		}
	}
}

func TestValidateDate(t *testing.T) {
	d, err := ValidateDate("2025-03-09")
	if err != nil {
		t.Fatalf("ValidateDate: %v", err)
	}
	if d.Year() != 2025 || d.Month() != 3 || d.Day() != 9 {
		t.Errorf("parsed %v", d)
	}

	for _, s := range []string{"", "2025/03/09", "09-03-2025", "2025-13-01"} {
		if _, err := ValidateDate(s); err == nil {
			t.Errorf("ValidateDate(%q) should fail", s)
		}
	}
}

func TestValidatePath(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"date partitioned", "2025/01/02/map.png", false},
		{"filename only", "map.png", false},
		{"dots inside a name", "v1..2.png", false},

		{"empty", "", true},
		{"too long", string(make([]byte, 600)), true},
		{"absolute path", "/etc/passwd", true},
		{"path traversal", "../../../etc/passwd", true},
		{"path traversal middle", "2025/../bar", true},
		{"null byte", "foo\x00bar", true},
		{"backslash", "foo\\bar", true},
		{"newline", "foo\nbar", true},
		{"empty segment", "2025//map.png", true},
		{"dot segment", "./map.png", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePath(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidatePath(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil && !Is(err, ErrCodeInvalidPath) {
				t.Errorf("ValidatePath(%q) returned wrong error code: %v", tt.input, err)
			}
		})
	}
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Mind Map", "Mind_Map"},
		{"roadmap-2025.v2", "roadmap-2025.v2"},
		{"a/b\\c", "a_b_c"},
		{"../../etc/passwd", "etc_passwd"},
		{"思维导图 计划", "思维导图_计划"},
		{"  spaced  out  ", "spaced_out"},
		{"...", ""},
		{"", ""},
		{"a..b", "a.b"},
	}

	for _, tt := range tests {
		if got := SanitizeFilename(tt.in); got != tt.want {
			t.Errorf("SanitizeFilename(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}

	long := strings.Repeat("x", 500)
	if got := SanitizeFilename(long); len([]rune(got)) != maxFilenameRunes {
		t.Errorf("long name not truncated: %d runes", len([]rune(got)))
	}
}
