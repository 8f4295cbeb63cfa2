// Package history records every generation attempt so operators can see
// what was rendered, where it was stored and how long it took.
//
// The mongo backend is meant for servers. The CLI defaults to [NullStore].
package history

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/matzehuels/mindmapper/pkg/config"
)

// Record is one generation attempt.
type Record struct {
	ID         string        `bson:"_id" json:"id"`
	Title      string        `bson:"title" json:"title"`
	Quality    string        `bson:"quality,omitempty" json:"quality,omitempty"`
	Engine     string        `bson:"engine" json:"engine"`
	Success    bool          `bson:"success" json:"success"`
	Code       string        `bson:"code,omitempty" json:"code,omitempty"`
	Error      string        `bson:"error,omitempty" json:"error,omitempty"`
	Warning    string        `bson:"warning,omitempty" json:"warning,omitempty"`
	ImageURL   string        `bson:"image_url,omitempty" json:"image_url,omitempty"`
	RemotePath string        `bson:"remote_path,omitempty" json:"remote_path,omitempty"`
	Provider   string        `bson:"provider,omitempty" json:"provider,omitempty"`
	SizeBytes  int64         `bson:"size_bytes" json:"size_bytes"`
	Score      float64       `bson:"score" json:"score"`
	Level      string        `bson:"level" json:"level"`
	Width      int           `bson:"width" json:"width"`
	Height     int           `bson:"height" json:"height"`
	CacheHit   bool          `bson:"cache_hit" json:"cache_hit"`
	Duration   time.Duration `bson:"duration" json:"duration"`
	CreatedAt  time.Time     `bson:"created_at" json:"created_at"`
}

// Store persists records.
type Store interface {
	// Add stores r, assigning ID and CreatedAt when they are empty.
	Add(ctx context.Context, r Record) error
	// Recent returns up to limit records, newest first.
	Recent(ctx context.Context, limit int) ([]Record, error)
	Close(ctx context.Context) error
}

// Open builds the store selected by cfg.Backend.
func Open(ctx context.Context, cfg config.History) (Store, error) {
	switch cfg.Backend {
	case config.HistoryNone, "":
		return NullStore{}, nil
	case config.HistoryMongo:
		return NewMongoStore(ctx, cfg.URI, cfg.Database, cfg.Collection)
	}
	return nil, fmt.Errorf("unknown history backend %q", cfg.Backend)
}

func fill(r *Record) error {
	if r.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return fmt.Errorf("generate record id: %w", err)
		}
		r.ID = id.String()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
	return nil
}

// NullStore discards records.
type NullStore struct{}

func (NullStore) Add(context.Context, Record) error             { return nil }
func (NullStore) Recent(context.Context, int) ([]Record, error) { return nil, nil }
func (NullStore) Close(context.Context) error                   { return nil }

// MemoryStore keeps records in memory. It backs tests and short-lived
// servers that want the history endpoint without a database.
type MemoryStore struct {
	mu      sync.Mutex
	records []Record
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore { return &MemoryStore{} }

func (s *MemoryStore) Add(_ context.Context, r Record) error {
	if err := fill(&r); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, r)
	return nil
}

func (s *MemoryStore) Recent(_ context.Context, limit int) ([]Record, error) {
	s.mu.Lock()
	out := make([]Record, len(s.records))
	copy(out, s.records)
	s.mu.Unlock()

	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *MemoryStore) Close(context.Context) error { return nil }
