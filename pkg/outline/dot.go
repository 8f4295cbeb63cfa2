package outline

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/goccy/go-graphviz"
)

// Options configures DOT generation.
type Options struct {
	// Scale multiplies the 96 DPI base resolution of the raster.
	Scale float64
	// FontName is the Graphviz font list used for labels.
	FontName string
}

// DefaultFontName covers CJK and Latin scripts on common systems.
const DefaultFontName = "Noto Sans CJK SC,Microsoft YaHei,WenQuanYi Zen Hei,Helvetica,Arial,sans-serif"

// branchColors cycles per top-level branch.
var branchColors = []string{
	"#4e79a7", "#f28e2b", "#e15759", "#76b7b2",
	"#59a14f", "#edc948", "#b07aa1", "#ff9da7",
}

// ToDOT renders the tree as a left-to-right Graphviz digraph. Each top-level
// branch gets its own edge colour, like a markmap.
func ToDOT(root *Node, opts Options) string {
	if opts.Scale <= 0 {
		opts.Scale = 1
	}
	if opts.FontName == "" {
		opts.FontName = DefaultFontName
	}

	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  rankdir=LR;\n")
	buf.WriteString("  bgcolor=\"white\";\n")
	fmt.Fprintf(&buf, "  dpi=%d;\n", int(96*opts.Scale))
	buf.WriteString("  ranksep=0.4;\n")
	buf.WriteString("  nodesep=0.15;\n")
	fmt.Fprintf(&buf, "  node [shape=plain, fontname=%q, fontsize=14, margin=\"0.1,0.05\"];\n", opts.FontName)
	buf.WriteString("  edge [arrowhead=none, penwidth=2];\n")
	buf.WriteString("\n")

	id := 0
	var walk func(n *Node, parent int, color string, depth int)
	walk = func(n *Node, parent int, color string, depth int) {
		me := id
		id++
		attrs := []string{fmt.Sprintf("label=%q", n.Title)}
		if depth == 0 {
			attrs = append(attrs, "fontsize=20", "shape=box", "style=\"rounded\"", "margin=\"0.2,0.1\"")
		}
		fmt.Fprintf(&buf, "  n%d [%s];\n", me, strings.Join(attrs, ", "))
		if parent >= 0 {
			fmt.Fprintf(&buf, "  n%d -> n%d [color=%q];\n", parent, me, color)
		}
		for i, ch := range n.Children {
			c := color
			if depth == 0 {
				c = branchColors[i%len(branchColors)]
			}
			walk(ch, me, c, depth+1)
		}
	}
	walk(root, -1, "", 0)

	buf.WriteString("}\n")
	return buf.String()
}

// RenderPNG renders DOT source to PNG bytes using the embedded Graphviz.
func RenderPNG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.PNG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return buf.Bytes(), nil
}
