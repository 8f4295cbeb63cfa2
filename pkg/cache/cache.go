// Package cache stores rendered mind maps keyed by everything that affects
// the pixels: the Markdown text, the render engine, the viewport and the
// device scale.
//
// Three backends implement [Cache]: [FileCache] for the CLI, [RedisCache]
// for servers sharing renders between replicas, and [NullCache] to disable
// caching. [Open] picks one from configuration.
package cache

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/matzehuels/mindmapper/pkg/config"
)

// TTLRender is how long a cached render stays valid when the configuration
// does not say otherwise.
const TTLRender = 7 * 24 * time.Hour

// Cache is a byte-oriented key/value store with expiry.
type Cache interface {
	// Get returns the value and true on a hit. A miss is not an error.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores data for ttl. A ttl of zero never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	// Clear removes every entry and returns how many were removed.
	Clear(ctx context.Context) (int, error)
	Close() error
}

// RenderKeyOpts are the render parameters that change the output image.
type RenderKeyOpts struct {
	Engine string  `json:"engine"`
	Width  int     `json:"width"`
	Height int     `json:"height"`
	Scale  float64 `json:"scale"`
}

// Keyer builds cache keys.
type Keyer interface {
	RenderKey(markdown string, opts RenderKeyOpts) string
}

// DefaultKeyer hashes the Markdown together with the options.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the standard keyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

// RenderKey returns "render:<sha256>".
func (DefaultKeyer) RenderKey(markdown string, opts RenderKeyOpts) string {
	return hashKey("render", Hash([]byte(markdown)), opts)
}

// Open builds the cache selected by cfg.Backend.
func Open(ctx context.Context, cfg config.Cache) (Cache, error) {
	switch cfg.Backend {
	case config.CacheNone:
		return NewNullCache(), nil
	case config.CacheFile, "":
		dir := cfg.Dir
		if dir == "" {
			d, err := DefaultDir()
			if err != nil {
				return nil, err
			}
			dir = d
		}
		return NewFileCache(dir)
	case config.CacheRedis:
		return NewRedisCache(ctx, RedisOptions{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
	}
	return nil, fmt.Errorf("unknown cache backend %q", cfg.Backend)
}

// DefaultDir returns $XDG_CACHE_HOME/mindmapper, or ~/.cache/mindmapper.
func DefaultDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, "mindmapper"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("locate cache dir: %w", err)
	}
	return filepath.Join(home, ".cache", "mindmapper"), nil
}
