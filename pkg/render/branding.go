package render

import (
	"encoding/json"
	"regexp"
	"strings"
)

// Branding lists what markmap adds to its output that should not appear in
// the rendered image.
type Branding struct {
	// Selectors are CSS selectors hidden by CSS and removed from the DOM.
	Selectors []string `json:"selectors"`
	// HrefPatterns are substrings of link targets that mark attribution links.
	HrefPatterns []string `json:"hrefPatterns"`
	// TextPatterns are lower-case substrings of link text that mark attribution.
	TextPatterns []string `json:"textPatterns"`
	// Comments match the body of HTML comments that are stripped from the
	// markup.
	Comments []*regexp.Regexp `json:"-"`
}

// DefaultBranding matches markmap-cli 0.15 through 0.18.
var DefaultBranding = Branding{
	Selectors: []string{
		".markmap-toolbar",
		".mm-toolbar",
		".markmap-brand",
		".mm-brand",
		`[class*="toolbar"]`,
		`[class*="brand"]`,
	},
	HrefPatterns: []string{"markmap", "github.com/gera2ld"},
	TextPatterns: []string{"markmap"},
	Comments: []*regexp.Regexp{
		regexp.MustCompile(`(?i)markmap`),
		regexp.MustCompile(`(?i)powered by`),
	},
}

// fontStack renders non-Latin scripts, CJK in particular, on common Linux,
// macOS and Windows installs.
const fontStack = `'Noto Sans CJK SC', 'Microsoft YaHei', '微软雅黑', 'WenQuanYi Zen Hei', '文泉驿正黑', 'SimHei', '黑体', Arial, Helvetica, sans-serif`

// removeBrandingJS removes branded elements from the live document. It is
// injected into the page and evaluated again from the rasterizer.
const removeBrandingJS = `function (b) {
  b.selectors.forEach(function (s) {
    document.querySelectorAll(s).forEach(function (el) { el.remove(); });
  });
  var hrefOf = function (el) {
    return el.getAttribute('href') || el.getAttribute('xlink:href') || '';
  };
  var branded = function (href) {
    return b.hrefPatterns.some(function (p) { return href.indexOf(p) !== -1; });
  };
  document.querySelectorAll('a').forEach(function (a) {
    var text = (a.textContent || '').toLowerCase();
    if (branded(hrefOf(a)) || b.textPatterns.some(function (p) { return text.indexOf(p) !== -1; })) {
      a.remove();
    }
  });
  document.querySelectorAll('text').forEach(function (t) {
    if (branded(hrefOf(t))) { t.remove(); }
  });
}`

// finalCleanupJS runs just before the screenshot. It drops faint overlay
// elements and any links left inside the SVG.
const finalCleanupJS = `function () {
  document.querySelectorAll('[opacity]').forEach(function (el) {
    var o = parseFloat(el.getAttribute('opacity'));
    if (!(o < 0.5)) { return; }
    var parent = el.parentElement;
    if (parent && parent.tagName.toLowerCase() === 'g' && parent.children.length === 1) {
      parent.remove();
    } else {
      el.remove();
    }
  });
  document.querySelectorAll('svg a').forEach(function (a) { a.remove(); });
}`

// css returns the style block injected into the document head.
func (b Branding) css() string {
	var sb strings.Builder
	sb.WriteString("<style>\n")
	sb.WriteString("* { font-family: " + fontStack + " !important; }\n")
	sb.WriteString("svg text { text-rendering: optimizeLegibility; shape-rendering: geometricPrecision; }\n")
	sb.WriteString("svg { shape-rendering: geometricPrecision; }\n")
	if len(b.Selectors) > 0 {
		sb.WriteString(strings.Join(b.Selectors, ",\n"))
		sb.WriteString(" { display: none !important; }\n")
	}
	sb.WriteString("</style>\n")
	return sb.String()
}

// script returns the load-time script injected into the document head. The
// removal runs twice, 500ms apart, to catch nodes markmap adds late.
func (b Branding) script() string {
	cfg, _ := json.Marshal(b.jsArg())
	return "<script>\nwindow.addEventListener('load', function () {\n" +
		"  var clean = " + removeBrandingJS + ";\n" +
		"  var cfg = " + string(cfg) + ";\n" +
		"  clean(cfg);\n" +
		"  setTimeout(function () { clean(cfg); }, 500);\n" +
		"});\n</script>\n"
}

// jsArg is the value handed to removeBrandingJS. Nil slices are replaced so
// the script never sees null.
func (b Branding) jsArg() Branding {
	out := Branding{
		Selectors:    b.Selectors,
		HrefPatterns: b.HrefPatterns,
		TextPatterns: b.TextPatterns,
	}
	if out.Selectors == nil {
		out.Selectors = []string{}
	}
	if out.HrefPatterns == nil {
		out.HrefPatterns = []string{}
	}
	if out.TextPatterns == nil {
		out.TextPatterns = []string{}
	}
	return out
}
