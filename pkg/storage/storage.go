// Package storage persists rendered images to a local directory or a cloud
// object store.
//
// Every provider stores objects under a date-partitioned key,
// YYYY/MM/DD/<name>.png (see [RemotePath]), and reports each upload as a
// [Result]. Upload failures never panic or return an error: a failed upload
// is a Result with Success set to false, and callers decide whether that is
// fatal.
//
// Use [Open] rather than [New] when storage misconfiguration must not block
// rendering. Open falls back to the local provider and says why in the
// returned [Selection].
package storage

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/mindmapper/pkg/errors"
	"github.com/matzehuels/mindmapper/pkg/observability"
)

// Type identifies a storage provider.
type Type string

// Provider types. The string values are the configuration names.
const (
	TypeLocal     Type = "local"
	TypeAliyunOSS Type = "aliyun_oss"
	TypeHuaweiOBS Type = "huawei_obs"
	TypeMinIO     Type = "minio"
	TypeS3        Type = "amazon_s3"
	TypeAzure     Type = "azure_blob"
	TypeGCS       Type = "google_cloud_storage"
)

// Types lists every provider type in display order.
var Types = []Type{TypeLocal, TypeAliyunOSS, TypeHuaweiOBS, TypeMinIO, TypeS3, TypeAzure, TypeGCS}

var aliases = map[string]Type{
	"huawei_oceanstor": TypeHuaweiOBS,
	"s3":               TypeS3,
	"gcs":              TypeGCS,
}

var descriptions = map[Type]string{
	TypeLocal:     "Local file system storage",
	TypeAliyunOSS: "Aliyun Object Storage Service",
	TypeHuaweiOBS: "Huawei OceanStor / OBS cloud storage",
	TypeMinIO:     "MinIO object storage",
	TypeS3:        "Amazon S3 cloud storage",
	TypeAzure:     "Azure Blob Storage",
	TypeGCS:       "Google Cloud Storage",
}

// ParseType resolves a configured provider name, accepting the legacy
// aliases. Matching is case-insensitive and an empty name means local.
func ParseType(s string) (Type, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	if name == "" {
		return TypeLocal, nil
	}
	if t, ok := aliases[name]; ok {
		return t, nil
	}
	for _, t := range Types {
		if string(t) == name {
			return t, nil
		}
	}
	return "", errors.New(errors.ErrCodeUnknownProvider, "unknown storage type %q", s)
}

// Describe returns a human-readable name for t.
func Describe(t Type) string {
	if d, ok := descriptions[t]; ok {
		return d
	}
	return "Unknown storage type"
}

// Provider stores files and maps stored keys to public URLs.
// Implementations are safe for concurrent use.
type Provider interface {
	// Upload stores the file at localPath under remotePath. It never
	// returns an error; failures are reported in the Result.
	Upload(ctx context.Context, localPath, remotePath string) Result
	// URLFor returns the public URL of remotePath.
	URLFor(remotePath string) string
	// Type reports which provider this is.
	Type() Type
}

// Result is the outcome of one upload attempt.
type Result struct {
	Success    bool   `json:"success"`
	URL        string `json:"url,omitempty"`
	Message    string `json:"message"`
	Provider   Type   `json:"provider"`
	RemotePath string `json:"remote_path"`
}

// New constructs the provider selected by cfg.Type. Errors carry one of the
// codes UNKNOWN_PROVIDER, PROVIDER_MISCONFIGURED or PROVIDER_UNREACHABLE.
func New(ctx context.Context, cfg Config) (Provider, error) {
	t, err := ParseType(cfg.Type)
	if err != nil {
		return nil, err
	}
	switch t {
	case TypeLocal:
		return NewLocal(cfg.Local)
	case TypeAliyunOSS:
		return NewOSS(cfg.OSS)
	case TypeHuaweiOBS:
		return NewOBS(cfg.OBS)
	case TypeMinIO:
		return NewMinIO(ctx, cfg.MinIO)
	case TypeS3:
		return NewS3(ctx, cfg.S3)
	case TypeAzure:
		return NewAzure(ctx, cfg.Azure)
	case TypeGCS:
		return NewGCS(ctx, cfg.GCS)
	}
	return nil, errors.New(errors.ErrCodeUnknownProvider, "unknown storage type %q", cfg.Type)
}

// Selection describes the provider Open settled on.
type Selection struct {
	Provider Provider
	// Requested is the configured type name as written.
	Requested string
	// Fallback is true when the requested provider could not be built and
	// local storage is used instead.
	Fallback bool
	// Reason explains the fallback.
	Reason string
}

// Open builds the configured provider and falls back to local storage with a
// warning when that fails. It only returns an error when local storage
// itself cannot be used.
func Open(ctx context.Context, cfg Config, logger *log.Logger) (Selection, error) {
	if logger == nil {
		logger = log.Default()
	}
	sel := Selection{Requested: cfg.Type}

	p, err := New(ctx, cfg)
	if err == nil {
		sel.Provider = p
		logger.Debug("storage provider ready", "type", p.Type())
		return sel, nil
	}

	sel.Fallback = true
	sel.Reason = errors.UserMessage(err)
	logger.Warn("storage provider unavailable, falling back to local storage",
		"requested", cfg.Type, "code", errors.GetCode(err), "error", sel.Reason)

	local, lerr := NewLocal(cfg.Local)
	if lerr != nil {
		return sel, lerr
	}
	sel.Provider = local
	return sel, nil
}

// RemotePath returns the object key for name on the day of now:
// YYYY/MM/DD/<name>.png. The name is sanitized and defaults to
// mindmap_<unix seconds>.
func RemotePath(now time.Time, name string) string {
	name = strings.TrimSuffix(name, ".png")
	name = errors.SanitizeFilename(name)
	if name == "" {
		name = fmt.Sprintf("mindmap_%d", now.Unix())
	}
	return now.Format("2006/01/02") + "/" + name + ".png"
}

func joinURL(prefix, remotePath string) string {
	return strings.TrimRight(prefix, "/") + "/" + remotePath
}

func misconfigured(t Type, missing ...string) error {
	return errors.New(errors.ErrCodeProviderMisconfigured,
		"%s: missing %s", Describe(t), strings.Join(missing, ", "))
}

// missingFields returns the names whose values are empty, given name/value pairs.
func missingFields(pairs ...string) []string {
	var missing []string
	for i := 0; i+1 < len(pairs); i += 2 {
		if strings.TrimSpace(pairs[i+1]) == "" {
			missing = append(missing, pairs[i])
		}
	}
	return missing
}

// uploadFunc performs the provider-specific transfer of an open file.
type uploadFunc func(ctx context.Context, f *os.File, size int64) error

// upload opens localPath, runs fn and turns the outcome into a Result. It
// reports the attempt to the storage hooks.
func upload(ctx context.Context, p Provider, localPath, remotePath string, fn uploadFunc) Result {
	start := time.Now()
	res := Result{Provider: p.Type(), RemotePath: remotePath}

	var size int64
	err := func() error {
		f, err := os.Open(localPath)
		if err != nil {
			return err
		}
		defer f.Close()
		info, err := f.Stat()
		if err != nil {
			return err
		}
		size = info.Size()
		return fn(ctx, f, size)
	}()

	observability.Storage().OnUpload(ctx, string(p.Type()), size, time.Since(start), err)

	if err != nil {
		res.Message = fmt.Sprintf("%s error: %v", Describe(p.Type()), err)
		return res
	}
	res.Success = true
	res.URL = p.URLFor(remotePath)
	res.Message = fmt.Sprintf("File uploaded to %s: %s", Describe(p.Type()), remotePath)
	return res
}
