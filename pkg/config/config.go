// Package config loads mindmapper's configuration.
//
// Configuration is assembled once at startup in three layers:
//  1. built-in defaults ([Default])
//  2. an optional TOML file
//  3. environment variables (STORAGE_TYPE, BASE_VIEWPORT_WIDTH, ...)
//
// String values may reference other environment variables with ${VAR}
// syntax; unknown variables are left as written. The resulting [Config] is
// validated and then treated as read-only.
//
// # Example file
//
//	[paths]
//	temp = "./temp"
//	output = "./output"
//
//	[render]
//	engine = "markmap"
//	no_sandbox = true
//
//	[storage]
//	type = "minio"
//
//	[storage.minio]
//	endpoint = "${MINIO_HOST}:9000"
//	bucket = "mindmaps"
package config

import (
	"fmt"
	"os"
	"regexp"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/mindmapper/pkg/storage"
)

// Render engines.
const (
	EngineMarkmap  = "markmap"
	EngineGraphviz = "graphviz"
)

// Cache backends.
const (
	CacheFile  = "file"
	CacheRedis = "redis"
	CacheNone  = "none"
)

// History backends.
const (
	HistoryNone  = "none"
	HistoryMongo = "mongo"
)

// Minimum viewport dimensions; DeriveViewport never goes below these.
const (
	MinViewportWidth  = 800
	MinViewportHeight = 600
)

// Config is the complete runtime configuration.
type Config struct {
	Paths    Paths          `toml:"paths"`
	Viewport Viewport       `toml:"viewport"`
	Render   Render         `toml:"render"`
	Storage  storage.Config `toml:"storage"`
	Cache    Cache          `toml:"cache"`
	History  History        `toml:"history"`
	Server   Server         `toml:"server"`
}

// Paths holds the working directories.
type Paths struct {
	Temp   string `toml:"temp"`
	Output string `toml:"output"`
}

// Viewport holds the sizing bounds used to derive per-request viewports.
type Viewport struct {
	BaseWidth         int     `toml:"base_width"`
	BaseHeight        int     `toml:"base_height"`
	MaxWidth          int     `toml:"max_width"`
	MaxHeight         int     `toml:"max_height"`
	Quality           string  `toml:"quality"`
	DeviceScaleFactor float64 `toml:"device_scale_factor"`
}

// Render configures the render engines.
type Render struct {
	Engine           string        `toml:"engine"`
	MarkmapBin       string        `toml:"markmap_bin"`
	BrowserBin       string        `toml:"browser_bin"`
	NoSandbox        bool          `toml:"no_sandbox"`
	ReadinessTimeout time.Duration `toml:"readiness_timeout"`
	Settle           time.Duration `toml:"settle"`
	CleanupMaxAge    time.Duration `toml:"cleanup_max_age"`
}

// Cache configures the render cache.
type Cache struct {
	Backend       string        `toml:"backend"`
	Dir           string        `toml:"dir"`
	TTL           time.Duration `toml:"ttl"`
	RedisAddr     string        `toml:"redis_addr"`
	RedisPassword string        `toml:"redis_password"`
	RedisDB       int           `toml:"redis_db"`
}

// History configures the generation history store.
type History struct {
	Backend    string `toml:"backend"`
	URI        string `toml:"uri"`
	Database   string `toml:"database"`
	Collection string `toml:"collection"`
}

// Server configures the HTTP server.
type Server struct {
	Addr          string `toml:"addr"`
	MaxConcurrent int    `toml:"max_concurrent"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Paths: Paths{
			Temp:   "./temp",
			Output: "./output",
		},
		Viewport: Viewport{
			BaseWidth:         1200,
			BaseHeight:        800,
			MaxWidth:          2400,
			MaxHeight:         1600,
			Quality:           "high",
			DeviceScaleFactor: 2.0,
		},
		Render: Render{
			Engine:           EngineMarkmap,
			MarkmapBin:       "markmap",
			ReadinessTimeout: 15 * time.Second,
			Settle:           500 * time.Millisecond,
			CleanupMaxAge:    time.Hour,
		},
		Storage: storage.Config{
			Type: "local",
			Local: storage.LocalConfig{
				URLPrefix: "http://127.0.0.1:8090/output",
			},
			MinIO: storage.MinIOConfig{
				Endpoint:  "127.0.0.1:9000",
				URLPrefix: "http://127.0.0.1:9000/mindmaps",
			},
		},
		Cache: Cache{
			Backend: CacheFile,
			TTL:     7 * 24 * time.Hour,
		},
		History: History{
			Backend:    HistoryNone,
			Database:   "mindmapper",
			Collection: "generations",
		},
		Server: Server{
			Addr:          ":8090",
			MaxConcurrent: 2,
		},
	}
}

// Load builds a Config from defaults, the TOML file at path (skipped when
// path is empty) and the process environment.
func Load(path string) (Config, error) {
	return LoadWithEnv(path, os.LookupEnv)
}

// LookupFunc resolves an environment variable.
type LookupFunc func(key string) (string, bool)

// LoadWithEnv is Load with an explicit environment, for tests.
func LoadWithEnv(path string, lookup LookupFunc) (Config, error) {
	cfg := Default()

	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	if err := applyEnv(&cfg, lookup); err != nil {
		return Config{}, err
	}

	for _, p := range cfg.expandable() {
		*p = Expand(*p, lookup)
	}

	if cfg.Storage.Local.Root == "" {
		cfg.Storage.Local.Root = cfg.Paths.Output
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

var envRef = regexp.MustCompile(`\$\{([^}]+)\}`)

// Expand replaces ${VAR} references in s. References to unset variables are
// kept verbatim.
func Expand(s string, lookup LookupFunc) string {
	return envRef.ReplaceAllStringFunc(s, func(m string) string {
		if v, ok := lookup(m[2 : len(m)-1]); ok {
			return v
		}
		return m
	})
}

// expandable lists the string fields that accept ${VAR} references.
func (c *Config) expandable() []*string {
	s := &c.Storage
	return []*string{
		&c.Paths.Temp, &c.Paths.Output,
		&s.Local.Root, &s.Local.URLPrefix,
		&s.OSS.Endpoint, &s.OSS.URLPrefix,
		&s.OBS.Endpoint, &s.OBS.URLPrefix,
		&s.MinIO.Endpoint, &s.MinIO.URLPrefix,
		&s.S3.URLPrefix,
		&s.Azure.URLPrefix,
		&s.GCS.CredentialsFile, &s.GCS.URLPrefix,
		&c.Cache.Dir, &c.Cache.RedisAddr,
		&c.History.URI,
	}
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	v := c.Viewport
	switch {
	case v.BaseWidth <= 0 || v.BaseHeight <= 0:
		return fmt.Errorf("viewport: base size must be positive, got %dx%d", v.BaseWidth, v.BaseHeight)
	case v.MaxWidth < MinViewportWidth || v.MaxHeight < MinViewportHeight:
		return fmt.Errorf("viewport: max size must be at least %dx%d, got %dx%d",
			MinViewportWidth, MinViewportHeight, v.MaxWidth, v.MaxHeight)
	case v.DeviceScaleFactor <= 0:
		return fmt.Errorf("viewport: device_scale_factor must be positive, got %g", v.DeviceScaleFactor)
	}
	switch v.Quality {
	case "low", "medium", "high", "ultra":
	default:
		return fmt.Errorf("viewport: invalid quality %q", v.Quality)
	}

	switch c.Render.Engine {
	case EngineMarkmap, EngineGraphviz:
	default:
		return fmt.Errorf("render: unknown engine %q (must be %s or %s)", c.Render.Engine, EngineMarkmap, EngineGraphviz)
	}
	if c.Render.ReadinessTimeout <= 0 {
		return fmt.Errorf("render: readiness_timeout must be positive")
	}
	if c.Render.CleanupMaxAge <= 0 {
		return fmt.Errorf("render: cleanup_max_age must be positive")
	}

	if c.Paths.Temp == "" || c.Paths.Output == "" {
		return fmt.Errorf("paths: temp and output are required")
	}

	switch c.Cache.Backend {
	case CacheFile, CacheNone:
	case CacheRedis:
		if c.Cache.RedisAddr == "" {
			return fmt.Errorf("cache: redis backend requires redis_addr")
		}
	default:
		return fmt.Errorf("cache: unknown backend %q", c.Cache.Backend)
	}

	switch c.History.Backend {
	case HistoryNone:
	case HistoryMongo:
		if c.History.URI == "" {
			return fmt.Errorf("history: mongo backend requires uri")
		}
	default:
		return fmt.Errorf("history: unknown backend %q", c.History.Backend)
	}

	if c.Server.MaxConcurrent < 1 {
		return fmt.Errorf("server: max_concurrent must be at least 1")
	}
	return nil
}
