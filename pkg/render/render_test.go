package render

import (
	"bytes"
	"context"
	stderrors "errors"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/mindmapper/pkg/artifact"
	"github.com/matzehuels/mindmapper/pkg/complexity"
	"github.com/matzehuels/mindmapper/pkg/config"
	"github.com/matzehuels/mindmapper/pkg/errors"
	"github.com/matzehuels/mindmapper/pkg/observability"
)

var quiet = log.New(io.Discard)

var testViewport = complexity.Viewport{Width: 1200, Height: 800, Scale: 1, Level: complexity.LevelLow}

// fakePNG returns n bytes starting with the PNG signature.
func fakePNG(n int) []byte {
	b := make([]byte, n)
	copy(b, pngSignature)
	return b
}

type fakeTransformer struct {
	err   error
	calls int
}

func (f *fakeTransformer) Transform(_ context.Context, src, dst string) error {
	f.calls++
	if f.err != nil {
		return f.err
	}
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	return os.WriteFile(dst, append([]byte("<html><head></head><body>"), data...), 0o644)
}

type fakeRasterizer struct {
	size    int
	err     error
	calls   int
	surface Surface
}

func (f *fakeRasterizer) Rasterize(_ context.Context, _, dst string, s Surface) error {
	f.calls++
	f.surface = s
	if f.err != nil {
		return f.err
	}
	return os.WriteFile(dst, fakePNG(f.size), 0o644)
}

type failingPostProcessor struct{ calls int }

func (f *failingPostProcessor) Process(string) error {
	f.calls++
	return stderrors.New("disk full")
}

func newTestPipeline(t *testing.T, tr Transformer, rz Rasterizer) *Pipeline {
	t.Helper()
	return &Pipeline{
		Engine:      "fake",
		TempDir:     t.TempDir(),
		Ext:         ".html",
		Transformer: tr,
		Rasterizer:  rz,
		Logger:      quiet,
	}
}

func TestRenderSuccess(t *testing.T) {
	tr := &fakeTransformer{}
	rz := &fakeRasterizer{size: 4096}
	p := newTestPipeline(t, tr, rz)

	out, err := p.Render(context.Background(), "# Title\n- x", "Title", testViewport, Options{DeviceScale: 2})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}

	if out.Size != 4096 {
		t.Errorf("Size = %d, want 4096", out.Size)
	}
	src, err := os.ReadFile(out.Artifact.Source)
	if err != nil || string(src) != "# Title\n- x" {
		t.Errorf("source = %q, %v", src, err)
	}
	if rz.surface != (Surface{Width: 1200, Height: 800, DeviceScale: 2}) {
		t.Errorf("surface = %+v", rz.surface)
	}
	if !strings.HasPrefix(filepath.Base(out.Artifact.Raster), artifact.Prefix) {
		t.Errorf("raster name = %s", out.Artifact.Raster)
	}
}

func TestRenderUndersizedRaster(t *testing.T) {
	p := newTestPipeline(t, &fakeTransformer{}, &fakeRasterizer{size: 500})

	_, err := p.Render(context.Background(), "# T", "T", testViewport, Options{})
	if !errors.Is(err, errors.ErrCodeArtifactInvalid) {
		t.Fatalf("err = %v, want ARTIFACT_INVALID", err)
	}
	if !strings.Contains(err.Error(), "corrupt or undersized") {
		t.Errorf("err = %v, want mention of corrupt or undersized", err)
	}
}

func TestRenderTransformFailureStops(t *testing.T) {
	tr := &fakeTransformer{err: errors.New(errors.ErrCodeExternalTool, "failed to generate HTML: parse error")}
	rz := &fakeRasterizer{size: 4096}
	p := newTestPipeline(t, tr, rz)

	_, err := p.Render(context.Background(), "# T", "T", testViewport, Options{})
	if !errors.Is(err, errors.ErrCodeExternalTool) {
		t.Fatalf("err = %v, want EXTERNAL_TOOL", err)
	}
	if rz.calls != 0 {
		t.Errorf("rasterizer ran %d times after transform failure", rz.calls)
	}
}

func TestRenderRasterizeFailure(t *testing.T) {
	rz := &fakeRasterizer{err: errors.New(errors.ErrCodeRender, "navigate: boom")}
	p := newTestPipeline(t, &fakeTransformer{}, rz)

	_, err := p.Render(context.Background(), "# T", "T", testViewport, Options{})
	if !errors.Is(err, errors.ErrCodeRender) {
		t.Fatalf("err = %v, want RENDER", err)
	}
}

func TestRenderPostProcessFailureIsIgnored(t *testing.T) {
	pp := &failingPostProcessor{}
	p := newTestPipeline(t, &fakeTransformer{}, &fakeRasterizer{size: 2048})
	p.PostProcessor = pp

	if _, err := p.Render(context.Background(), "# T", "T", testViewport, Options{}); err != nil {
		t.Fatalf("Render: %v", err)
	}
	if pp.calls != 1 {
		t.Errorf("post-processor calls = %d, want 1", pp.calls)
	}
}

func TestRenderCleansUpStaleFiles(t *testing.T) {
	p := newTestPipeline(t, &fakeTransformer{}, &fakeRasterizer{size: 2048})
	p.CleanupMaxAge = time.Hour

	stale := filepath.Join(p.TempDir, artifact.Prefix+"stale.png")
	if err := os.WriteFile(stale, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	old := time.Now().Add(-2 * time.Hour)
	if err := os.Chtimes(stale, old, old); err != nil {
		t.Fatal(err)
	}

	if _, err := p.Render(context.Background(), "# T", "T", testViewport, Options{}); err != nil {
		t.Fatalf("Render: %v", err)
	}
	if _, err := os.Stat(stale); !os.IsNotExist(err) {
		t.Error("stale file should have been removed")
	}
}

type stageRecorder struct {
	observability.NoopPipelineHooks
	mu     sync.Mutex
	stages []string
}

func (r *stageRecorder) OnStageComplete(_ context.Context, stage string, _ time.Duration, _ error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stages = append(r.stages, stage)
}

func TestRenderReportsStages(t *testing.T) {
	rec := &stageRecorder{}
	observability.SetPipelineHooks(rec)
	defer observability.Reset()

	p := newTestPipeline(t, &fakeTransformer{}, &fakeRasterizer{size: 2048})
	if _, err := p.Render(context.Background(), "# T", "T", testViewport, Options{}); err != nil {
		t.Fatal(err)
	}

	want := []string{StageIn, StageTransform, StagePostProcess, StageRasterize, StageValidate}
	if strings.Join(rec.stages, ",") != strings.Join(want, ",") {
		t.Errorf("stages = %v, want %v", rec.stages, want)
	}
}

func writeScript(t *testing.T, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell scripts not supported on windows")
	}
	path := filepath.Join(t.TempDir(), "markmap")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0o755); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestMarkmapTransformerFailure(t *testing.T) {
	bin := writeScript(t, "echo 'parse error' >&2\nexit 1\n")
	dir := t.TempDir()

	err := MarkmapTransformer{Bin: bin}.Transform(context.Background(),
		filepath.Join(dir, "in.md"), filepath.Join(dir, "out.html"))
	if !errors.Is(err, errors.ErrCodeExternalTool) {
		t.Fatalf("err = %v, want EXTERNAL_TOOL", err)
	}
	if !strings.Contains(errors.UserMessage(err), "parse error") {
		t.Errorf("message %q should contain stderr", errors.UserMessage(err))
	}
}

func TestMarkmapTransformerArgs(t *testing.T) {
	// $1 source, $2 --no-open, $3 -o, $4 output
	bin := writeScript(t, `[ "$2" = "--no-open" ] && [ "$3" = "-o" ] || exit 2
cp "$1" "$4"
`)
	dir := t.TempDir()
	src := filepath.Join(dir, "in.md")
	dst := filepath.Join(dir, "out.html")
	if err := os.WriteFile(src, []byte("# Hi"), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := (MarkmapTransformer{Bin: bin}).Transform(context.Background(), src, dst); err != nil {
		t.Fatalf("Transform: %v", err)
	}
	got, _ := os.ReadFile(dst)
	if string(got) != "# Hi" {
		t.Errorf("output = %q", got)
	}
}

func TestMarkmapTransformerMissingBinary(t *testing.T) {
	err := MarkmapTransformer{Bin: "definitely-not-markmap-xyz"}.Transform(context.Background(), "a", "b")
	if !errors.Is(err, errors.ErrCodeExternalTool) {
		t.Fatalf("err = %v, want EXTERNAL_TOOL", err)
	}
}

func TestPostProcessApply(t *testing.T) {
	h := HTMLPostProcessor{Branding: DefaultBranding}

	in := "<html><head><title>x</title><!-- generated by markmap --></head><body><!-- keep me --><svg></svg><!--\nPowered By something\n--></body></html>"
	out := h.Apply(in)

	if strings.Contains(out, "generated by markmap") {
		t.Error("markmap comment not stripped")
	}
	if strings.Contains(strings.ToLower(out), "powered by") {
		t.Error("powered-by comment not stripped")
	}
	if !strings.Contains(out, "<!-- keep me -->") {
		t.Error("unrelated comment removed")
	}

	styleAt := strings.Index(out, "<style>")
	headEnd := strings.Index(out, "</head>")
	if styleAt < 0 || styleAt > headEnd {
		t.Errorf("style not injected before </head>:\n%s", out)
	}
	for _, want := range []string{"Noto Sans CJK SC", ".markmap-toolbar", "display: none", "addEventListener('load'", "setTimeout", "github.com/gera2ld"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q", want)
		}
	}
}

func TestPostProcessWithoutHead(t *testing.T) {
	out := HTMLPostProcessor{Branding: DefaultBranding}.Apply("<svg></svg>")
	if !strings.HasPrefix(out, "<style>") {
		t.Errorf("injection should be prepended, got %q", out[:min(40, len(out))])
	}
	if !strings.HasSuffix(out, "<svg></svg>") {
		t.Error("original content lost")
	}
}

func TestPostProcessFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "m.html")
	if err := os.WriteFile(path, []byte("<html><head></head></html>"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := (HTMLPostProcessor{Branding: DefaultBranding}).Process(path); err != nil {
		t.Fatalf("Process: %v", err)
	}
	data, _ := os.ReadFile(path)
	if !bytes.Contains(data, []byte("<script>")) {
		t.Error("script not injected")
	}

	if err := (HTMLPostProcessor{}).Process(filepath.Join(t.TempDir(), "missing.html")); err == nil {
		t.Error("missing file should fail")
	}
}

func TestQualityScale(t *testing.T) {
	tests := []struct {
		q    string
		want float64
	}{
		{"", 1.75},
		{QualityLow, 1.0},
		{QualityMedium, 1.5},
		{QualityHigh, 2.0},
		{QualityUltra, 2.5},
	}
	for _, tt := range tests {
		got, err := QualityScale(tt.q, 1.75)
		if err != nil || got != tt.want {
			t.Errorf("QualityScale(%q) = %v, %v; want %v", tt.q, got, err, tt.want)
		}
	}

	if _, err := QualityScale("max", 2); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("unknown quality err = %v", err)
	}
}

func TestValidateRaster(t *testing.T) {
	dir := t.TempDir()
	write := func(name string, data []byte) string {
		p := filepath.Join(dir, name)
		if err := os.WriteFile(p, data, 0o644); err != nil {
			t.Fatal(err)
		}
		return p
	}

	if _, err := ValidateRaster(filepath.Join(dir, "missing.png")); !errors.Is(err, errors.ErrCodeArtifactInvalid) {
		t.Errorf("missing: %v", err)
	}
	if _, err := ValidateRaster(write("small.png", fakePNG(999))); !errors.Is(err, errors.ErrCodeArtifactInvalid) {
		t.Errorf("small: %v", err)
	}
	if _, err := ValidateRaster(write("text.png", bytes.Repeat([]byte("a"), 2000))); !errors.Is(err, errors.ErrCodeArtifactInvalid) {
		t.Errorf("not png: %v", err)
	}
	size, err := ValidateRaster(write("ok.png", fakePNG(1000)))
	if err != nil || size != 1000 {
		t.Errorf("ok: size=%d err=%v", size, err)
	}
}

func TestGraphvizPipeline(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.Temp = t.TempDir()
	p := NewGraphviz(cfg, quiet)

	md := `# Release plan
## Build
- Compile binaries
- Sign artifacts
## Test
- Unit
- Integration
  - Storage providers
  - Browser rendering
## Ship
1. Tag
2. Publish
`
	out, err := p.Render(context.Background(), md, "Release plan", testViewport, Options{DeviceScale: 2})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if out.Size < MinRasterBytes {
		t.Errorf("size = %d", out.Size)
	}
	dot, err := os.ReadFile(out.Artifact.Intermediate)
	if err != nil || !bytes.Contains(dot, []byte("Storage providers")) {
		t.Errorf("intermediate DOT missing content: %v", err)
	}
}

func TestNewSelectsEngine(t *testing.T) {
	cfg := config.Default()

	p, err := New(cfg, quiet)
	if err != nil || p.Engine != EngineMarkmap || p.Ext != ".html" {
		t.Errorf("default engine = %+v, %v", p, err)
	}

	cfg.Render.Engine = EngineGraphviz
	p, err = New(cfg, quiet)
	if err != nil || p.Engine != EngineGraphviz || p.Ext != ".dot" {
		t.Errorf("graphviz engine = %+v, %v", p, err)
	}

	cfg.Render.Engine = "mermaid"
	if _, err := New(cfg, quiet); err == nil {
		t.Error("unknown engine should fail")
	}
}

func TestFileURL(t *testing.T) {
	u, err := fileURL(filepath.Join(t.TempDir(), "a b.html"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(u, "file://") || !strings.Contains(u, "a%20b.html") {
		t.Errorf("fileURL = %s", u)
	}
}
