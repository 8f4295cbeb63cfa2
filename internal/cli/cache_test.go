package cli

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/matzehuels/mindmapper/pkg/config"
)

func TestCachePathCommand(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "renders")
	cfg, _ := writeConfig(t, "\n[cache]\nbackend = \"file\"\ndir = \""+filepath.ToSlash(dir)+"\"\n")

	out, err := execute(t, "", "cache", "path", "--config", cfg)
	if err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(out) != filepath.ToSlash(dir) {
		t.Errorf("cache path = %q, want %q", strings.TrimSpace(out), dir)
	}
}

func TestCacheDirForBackends(t *testing.T) {
	if _, err := cacheDir(config.Cache{Backend: config.CacheRedis, RedisAddr: "x:6379"}); err == nil {
		t.Error("redis cache has no directory")
	}
	if dir, err := cacheDir(config.Cache{Backend: config.CacheFile, Dir: "/tmp/c"}); err != nil || dir != "/tmp/c" {
		t.Errorf("cacheDir = %q, %v", dir, err)
	}
	t.Setenv("XDG_CACHE_HOME", "/xdg")
	if dir, err := cacheDir(config.Cache{}); err != nil || dir != filepath.Join("/xdg", "mindmapper") {
		t.Errorf("default cacheDir = %q, %v", dir, err)
	}
}
