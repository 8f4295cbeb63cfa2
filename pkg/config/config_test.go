package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func env(m map[string]string) LookupFunc {
	return func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	}
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 1200, cfg.Viewport.BaseWidth)
	assert.Equal(t, 800, cfg.Viewport.BaseHeight)
	assert.Equal(t, 2400, cfg.Viewport.MaxWidth)
	assert.Equal(t, 1600, cfg.Viewport.MaxHeight)
	assert.Equal(t, "high", cfg.Viewport.Quality)
	assert.Equal(t, "local", cfg.Storage.Type)
	assert.Equal(t, "http://127.0.0.1:8090/output", cfg.Storage.Local.URLPrefix)
	assert.Equal(t, time.Hour, cfg.Render.CleanupMaxAge)
	assert.Equal(t, 15*time.Second, cfg.Render.ReadinessTimeout)
}

func TestLoadWithoutFile(t *testing.T) {
	cfg, err := LoadWithEnv("", env(nil))
	require.NoError(t, err)
	assert.Equal(t, "./output", cfg.Storage.Local.Root, "local root defaults to output path")
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "mindmapper.toml")
	data := `
[paths]
output = "/srv/maps"

[viewport]
base_width = 1000
quality = "ultra"

[render]
engine = "graphviz"
readiness_timeout = "30s"

[storage]
type = "minio"

[storage.minio]
endpoint = "${MINIO_HOST}:9000"
bucket = "maps"
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	cfg, err := LoadWithEnv(path, env(map[string]string{"MINIO_HOST": "minio.internal"}))
	require.NoError(t, err)

	assert.Equal(t, "/srv/maps", cfg.Paths.Output)
	assert.Equal(t, "/srv/maps", cfg.Storage.Local.Root)
	assert.Equal(t, 1000, cfg.Viewport.BaseWidth)
	assert.Equal(t, 800, cfg.Viewport.BaseHeight, "unset keys keep defaults")
	assert.Equal(t, "ultra", cfg.Viewport.Quality)
	assert.Equal(t, EngineGraphviz, cfg.Render.Engine)
	assert.Equal(t, 30*time.Second, cfg.Render.ReadinessTimeout)
	assert.Equal(t, "minio", cfg.Storage.Type)
	assert.Equal(t, "minio.internal:9000", cfg.Storage.MinIO.Endpoint)
	assert.Equal(t, "maps", cfg.Storage.MinIO.Bucket)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := LoadWithEnv(filepath.Join(t.TempDir(), "nope.toml"), env(nil))
	assert.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	cfg, err := LoadWithEnv("", env(map[string]string{
		"STORAGE_TYPE":             "amazon_s3",
		"BASE_VIEWPORT_WIDTH":      "1400",
		"DEVICE_SCALE_FACTOR":      "1.5",
		"MINIO_SECURE":             "yes",
		"AWS_S3_BUCKET_NAME":       "bucket",
		"HOST_OUTPUT_PATH":         "/data/out",
		"LOCAL_STORAGE_URL_PREFIX": "http://${PUBLIC_HOST}/output",
		"PUBLIC_HOST":              "maps.example.com",
		"TEMP_MAX_AGE":             "2h",
	}))
	require.NoError(t, err)

	assert.Equal(t, "amazon_s3", cfg.Storage.Type)
	assert.Equal(t, 1400, cfg.Viewport.BaseWidth)
	assert.Equal(t, 1.5, cfg.Viewport.DeviceScaleFactor)
	assert.True(t, cfg.Storage.MinIO.Secure)
	assert.Equal(t, "bucket", cfg.Storage.S3.Bucket)
	assert.Equal(t, "/data/out", cfg.Storage.Local.Root)
	assert.Equal(t, "http://maps.example.com/output", cfg.Storage.Local.URLPrefix)
	assert.Equal(t, 2*time.Hour, cfg.Render.CleanupMaxAge)
}

func TestEnvOverrideInvalidNumber(t *testing.T) {
	_, err := LoadWithEnv("", env(map[string]string{"BASE_VIEWPORT_WIDTH": "wide"}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "BASE_VIEWPORT_WIDTH")
}

func TestExpand(t *testing.T) {
	lookup := env(map[string]string{"HOST": "localhost", "PORT": "9000"})

	tests := []struct {
		in, want string
	}{
		{"http://${HOST}:${PORT}/x", "http://localhost:9000/x"},
		{"${MISSING}/x", "${MISSING}/x"},
		{"plain", "plain"},
		{"$HOST", "$HOST"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Expand(tt.in, lookup), tt.in)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero base", func(c *Config) { c.Viewport.BaseWidth = 0 }},
		{"max below minimum", func(c *Config) { c.Viewport.MaxHeight = 500 }},
		{"bad quality", func(c *Config) { c.Viewport.Quality = "best" }},
		{"bad scale", func(c *Config) { c.Viewport.DeviceScaleFactor = 0 }},
		{"bad engine", func(c *Config) { c.Render.Engine = "mermaid" }},
		{"redis without addr", func(c *Config) { c.Cache.Backend = CacheRedis }},
		{"unknown cache", func(c *Config) { c.Cache.Backend = "memcached" }},
		{"mongo without uri", func(c *Config) { c.History.Backend = HistoryMongo }},
		{"no concurrency", func(c *Config) { c.Server.MaxConcurrent = 0 }},
		{"empty temp", func(c *Config) { c.Paths.Temp = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestUnknownStorageTypeIsNotAConfigError(t *testing.T) {
	// Unknown providers fall back to local at selection time.
	cfg, err := LoadWithEnv("", env(map[string]string{"STORAGE_TYPE": "dropbox"}))
	require.NoError(t, err)
	assert.Equal(t, "dropbox", cfg.Storage.Type)
}

func TestEnvNames(t *testing.T) {
	names := EnvNames()
	assert.Contains(t, names, "STORAGE_TYPE")
	assert.Contains(t, names, "GCS_CREDENTIALS_JSON")

	seen := map[string]bool{}
	for _, n := range names {
		assert.False(t, seen[n], "duplicate env var %s", n)
		seen[n] = true
	}
}

func TestExampleConfigLoads(t *testing.T) {
	cfg, err := LoadWithEnv(filepath.Join("..", "..", "examples", "mindmapper.toml"), env(nil))
	require.NoError(t, err)
	assert.Equal(t, EngineMarkmap, cfg.Render.Engine)
	assert.Equal(t, 168*time.Hour, cfg.Cache.TTL)
	assert.Equal(t, 500*time.Millisecond, cfg.Render.Settle)
	assert.Equal(t, "./output", cfg.Storage.Local.Root)
}
