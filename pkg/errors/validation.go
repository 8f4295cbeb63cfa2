package errors

import (
	"regexp"
	"strings"
	"time"
	"unicode"
)

// headerRe matches a Markdown ATX header line such as "# Title" or "### Item".
var headerRe = regexp.MustCompile(`(?m)^#+\s+`)

// ValidateMarkdown checks that content can be turned into a mind map.
// Content must be non-blank and contain at least one header line, which
// becomes the root of the map.
func ValidateMarkdown(content string) error {
	if strings.TrimSpace(content) == "" {
		return New(ErrCodeInvalidInput, "markdown content cannot be empty")
	}
	if !headerRe.MatchString(content) {
		return New(ErrCodeInvalidInput, "markdown content should contain at least one header (# Title)")
	}
	return nil
}

// validQualities lists the accepted quality hints. The empty string selects
// the configured default.
var validQualities = map[string]bool{
	"":       true,
	"low":    true,
	"medium": true,
	"high":   true,
	"ultra":  true,
}

// ValidateQuality checks a quality hint.
func ValidateQuality(q string) error {
	if !validQualities[q] {
		return New(ErrCodeInvalidInput, "invalid quality: %q (must be one of: low, medium, high, ultra)", q)
	}
	return nil
}

// DateLayout is the accepted layout for listing dates.
const DateLayout = "2006-01-02"

// ValidateDate parses a YYYY-MM-DD date string.
func ValidateDate(s string) (time.Time, error) {
	d, err := time.ParseInLocation(DateLayout, s, time.Local)
	if err != nil {
		return time.Time{}, New(ErrCodeInvalidInput, "invalid date format: %s (use YYYY-MM-DD)", s)
	}
	return d, nil
}

// maxPathLength bounds paths into the output tree.
const maxPathLength = 500

// ValidatePath accepts a slash-separated path relative to the output root,
// such as "2025/01/02/Roadmap_0193....png". Each segment must be a plain
// name: not empty, not "." or "..", and free of control characters and
// backslashes.
func ValidatePath(path string) error {
	switch {
	case path == "":
		return New(ErrCodeInvalidPath, "path cannot be empty")
	case len(path) > maxPathLength:
		return New(ErrCodeInvalidPath, "path too long (max %d characters)", maxPathLength)
	case strings.HasPrefix(path, "/"):
		return New(ErrCodeInvalidPath, "path must be relative")
	case strings.ContainsFunc(path, unicode.IsControl):
		return New(ErrCodeInvalidPath, "path contains control characters")
	case strings.ContainsRune(path, '\\'):
		return New(ErrCodeInvalidPath, "path cannot contain backslashes")
	}
	for _, seg := range strings.Split(path, "/") {
		switch seg {
		case "":
			return New(ErrCodeInvalidPath, "path has an empty segment")
		case ".", "..":
			return New(ErrCodeInvalidPath, "path cannot contain %q segments", seg)
		}
	}
	return nil
}

// maxFilenameRunes bounds sanitized filenames well below common filesystem limits.
const maxFilenameRunes = 120

// SanitizeFilename turns a free-form title into a single path segment.
// Letters and digits of any script are kept, as are '-', '_' and '.'.
// Everything else collapses into a single '_'. Leading dots are dropped so
// the result is never hidden or a traversal sequence. Returns "" when nothing
// usable remains.
func SanitizeFilename(title string) string {
	var b strings.Builder
	lastUnderscore := false
	n := 0
	for _, r := range strings.TrimSpace(title) {
		if n >= maxFilenameRunes {
			break
		}
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' || r == '.':
			b.WriteRune(r)
			lastUnderscore = false
		default:
			if lastUnderscore {
				continue
			}
			b.WriteRune('_')
			lastUnderscore = true
		}
		n++
	}
	out := strings.TrimLeft(b.String(), "._")
	out = strings.TrimRight(out, "_")
	for strings.Contains(out, "..") {
		out = strings.ReplaceAll(out, "..", ".")
	}
	return out
}
