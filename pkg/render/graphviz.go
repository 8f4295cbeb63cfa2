package render

import (
	"context"
	"fmt"
	"os"
	"regexp"

	"github.com/matzehuels/mindmapper/pkg/errors"
	"github.com/matzehuels/mindmapper/pkg/outline"
)

// OutlineTransformer writes a Graphviz DOT document for a Markdown outline.
type OutlineTransformer struct {
	// Fallback titles the root when the outline has several top-level
	// headings.
	Fallback string
}

// Transform parses src with goldmark and writes DOT to dst.
func (o OutlineTransformer) Transform(ctx context.Context, src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return errors.Wrap(errors.ErrCodeExternalTool, err, "read markdown source")
	}
	fallback := o.Fallback
	if fallback == "" {
		fallback = "Mind Map"
	}
	root := outline.Parse(data, fallback)
	if len(root.Children) == 0 && root.Title == "" {
		return errors.New(errors.ErrCodeExternalTool, "outline is empty")
	}
	dot := outline.ToDOT(root, outline.Options{})
	if err := os.WriteFile(dst, []byte(dot), 0o644); err != nil {
		return errors.Wrap(errors.ErrCodeExternalTool, err, "write DOT")
	}
	return nil
}

// GraphvizRasterizer renders DOT documents with the embedded Graphviz.
// Surface width and height are ignored; Graphviz sizes the image to fit.
type GraphvizRasterizer struct{}

var dpiRe = regexp.MustCompile(`dpi=\d+;`)

// Rasterize renders the DOT file at src to a PNG at dst, applying the
// surface's device scale as DPI.
func (GraphvizRasterizer) Rasterize(ctx context.Context, src, dst string, s Surface) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return errors.Wrap(errors.ErrCodeRender, err, "read DOT")
	}
	scale := s.DeviceScale
	if scale <= 0 {
		scale = 1
	}
	dot := dpiRe.ReplaceAllString(string(data), fmt.Sprintf("dpi=%d;", int(96*scale)))

	png, err := outline.RenderPNG(ctx, dot)
	if err != nil {
		return errors.Wrap(errors.ErrCodeRender, err, "graphviz")
	}
	if err := os.WriteFile(dst, png, 0o644); err != nil {
		return errors.Wrap(errors.ErrCodeRender, err, "write PNG")
	}
	return nil
}
