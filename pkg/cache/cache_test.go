package cache

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/matzehuels/mindmapper/pkg/config"
)

func TestNullCache(t *testing.T) {
	ctx := context.Background()
	c := NewNullCache()
	defer c.Close()

	if err := c.Set(ctx, "key", []byte("value"), time.Hour); err != nil {
		t.Errorf("Set error: %v", err)
	}
	data, hit, err := c.Get(ctx, "key")
	if err != nil || hit || data != nil {
		t.Errorf("Get = %v, %v, %v; want miss", data, hit, err)
	}
	if n, err := c.Clear(ctx); n != 0 || err != nil {
		t.Errorf("Clear = %d, %v", n, err)
	}
}

func TestFileCache(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	if _, hit, _ := c.Get(ctx, "missing"); hit {
		t.Error("empty cache should miss")
	}

	png := []byte("\x89PNG fake image")
	if err := c.Set(ctx, "render:a", png, time.Hour); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, hit, err := c.Get(ctx, "render:a")
	if err != nil || !hit || string(got) != string(png) {
		t.Errorf("Get = %q, %v, %v", got, hit, err)
	}

	if err := c.Delete(ctx, "render:a"); err != nil {
		t.Errorf("Delete: %v", err)
	}
	if _, hit, _ := c.Get(ctx, "render:a"); hit {
		t.Error("deleted entry should miss")
	}
	if err := c.Delete(ctx, "render:a"); err != nil {
		t.Errorf("deleting a missing key should not fail: %v", err)
	}
}

func TestFileCacheExpiry(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	if err := c.Set(ctx, "k", []byte("v"), time.Nanosecond); err != nil {
		t.Fatal(err)
	}
	time.Sleep(5 * time.Millisecond)
	if _, hit, _ := c.Get(ctx, "k"); hit {
		t.Error("expired entry should miss")
	}
	if _, err := os.Stat(c.path("k")); !os.IsNotExist(err) {
		t.Error("expired entry should be removed")
	}
}

func TestFileCacheCorruptEntry(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	p := c.path("k")
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(p, []byte("garbage"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, hit, err := c.Get(ctx, "k"); hit || err != nil {
		t.Errorf("corrupt entry: hit=%v err=%v", hit, err)
	}
}

func TestFileCacheClear(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	for _, k := range []string{"a", "b", "c"} {
		if err := c.Set(ctx, k, []byte(k), 0); err != nil {
			t.Fatal(err)
		}
	}

	n, err := c.Clear(ctx)
	if err != nil || n != 3 {
		t.Errorf("Clear = %d, %v; want 3", n, err)
	}
	if _, hit, _ := c.Get(ctx, "a"); hit {
		t.Error("cleared entry should miss")
	}
	entries, _ := os.ReadDir(c.Dir())
	if len(entries) != 0 {
		t.Errorf("shard directories left behind: %d", len(entries))
	}
}

func TestHash(t *testing.T) {
	h1 := Hash([]byte("hello"))
	if h1 != Hash([]byte("hello")) {
		t.Error("Hash should be deterministic")
	}
	if h1 == Hash([]byte("world")) {
		t.Error("different inputs should produce different hashes")
	}
	if len(h1) != 64 {
		t.Errorf("Hash length = %d, want 64", len(h1))
	}
}

func TestRenderKey(t *testing.T) {
	k := NewDefaultKeyer()
	base := RenderKeyOpts{Engine: "markmap", Width: 1200, Height: 800, Scale: 2}

	k1 := k.RenderKey("# A", base)
	if !strings.HasPrefix(k1, "render:") {
		t.Errorf("key = %s", k1)
	}
	if k1 != k.RenderKey("# A", base) {
		t.Error("RenderKey should be deterministic")
	}

	variants := []struct {
		md   string
		opts RenderKeyOpts
	}{
		{"# B", base},
		{"# A", RenderKeyOpts{Engine: "graphviz", Width: 1200, Height: 800, Scale: 2}},
		{"# A", RenderKeyOpts{Engine: "markmap", Width: 1440, Height: 800, Scale: 2}},
		{"# A", RenderKeyOpts{Engine: "markmap", Width: 1200, Height: 880, Scale: 2}},
		{"# A", RenderKeyOpts{Engine: "markmap", Width: 1200, Height: 800, Scale: 2.5}},
	}
	for _, v := range variants {
		if k.RenderKey(v.md, v.opts) == k1 {
			t.Errorf("key collision for %q %+v", v.md, v.opts)
		}
	}
}

func TestScopedKeyer(t *testing.T) {
	scoped := NewScopedKeyer(nil, "mindmapper:v1:")
	key := scoped.RenderKey("# A", RenderKeyOpts{})
	want := "mindmapper:v1:" + NewDefaultKeyer().RenderKey("# A", RenderKeyOpts{})
	if key != want {
		t.Errorf("key = %s, want %s", key, want)
	}
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	c, err := Open(ctx, config.Cache{Backend: config.CacheNone})
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := c.(NullCache); !ok {
		t.Errorf("none backend = %T", c)
	}

	dir := t.TempDir()
	c, err = Open(ctx, config.Cache{Backend: config.CacheFile, Dir: dir})
	if err != nil {
		t.Fatal(err)
	}
	if fc, ok := c.(*FileCache); !ok || fc.Dir() != dir {
		t.Errorf("file backend = %T", c)
	}

	if _, err := Open(ctx, config.Cache{Backend: "memcached"}); err == nil {
		t.Error("unknown backend should fail")
	}
	if _, err := Open(ctx, config.Cache{Backend: config.CacheRedis}); err == nil {
		t.Error("redis without address should fail")
	}
}

func TestDefaultDir(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", "/tmp/xdg")
	dir, err := DefaultDir()
	if err != nil || dir != filepath.Join("/tmp/xdg", "mindmapper") {
		t.Errorf("DefaultDir = %s, %v", dir, err)
	}
}

func TestEntryEncoding(t *testing.T) {
	expires := time.Unix(1700000000, 5)
	data, got, ok := decodeEntry(encodeEntry([]byte("\x89PNG"), expires))
	if !ok || string(data) != "\x89PNG" || !got.Equal(expires) {
		t.Errorf("decode = %q, %v, %v", data, got, ok)
	}

	_, got, ok = decodeEntry(encodeEntry(nil, time.Time{}))
	if !ok || !got.IsZero() {
		t.Errorf("no-expiry entry = %v, %v", got, ok)
	}

	if _, _, ok := decodeEntry([]byte("MMC1")); ok {
		t.Error("truncated header decoded")
	}
}
