package render

import (
	"fmt"
	"os"
	"regexp"
	"strings"
)

var commentRe = regexp.MustCompile(`(?s)<!--.*?-->`)

// HTMLPostProcessor injects font overrides and branding suppression into a
// markmap HTML document.
type HTMLPostProcessor struct {
	Branding Branding
}

// Process rewrites the HTML file at path in place.
func (h HTMLPostProcessor) Process(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read html: %w", err)
	}
	out := h.Apply(string(data))
	if err := os.WriteFile(path, []byte(out), 0o644); err != nil {
		return fmt.Errorf("write html: %w", err)
	}
	return nil
}

// Apply returns html with the injection added before </head>, or prepended
// when the document has no head, and attribution comments removed.
func (h HTMLPostProcessor) Apply(html string) string {
	inject := h.Branding.css() + h.Branding.script()

	if i := strings.Index(html, "</head>"); i >= 0 {
		html = html[:i] + inject + html[i:]
	} else {
		html = inject + html
	}

	if len(h.Branding.Comments) == 0 {
		return html
	}
	return commentRe.ReplaceAllStringFunc(html, func(c string) string {
		for _, re := range h.Branding.Comments {
			if re.MatchString(c) {
				return ""
			}
		}
		return c
	})
}
