package storage

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/matzehuels/mindmapper/pkg/errors"
)

// Local copies files into a directory tree served by a static file server.
type Local struct {
	root      string
	urlPrefix string
}

// NewLocal creates the root directory if needed.
func NewLocal(cfg LocalConfig) (*Local, error) {
	if cfg.Root == "" {
		return nil, misconfigured(TypeLocal, "root")
	}
	if err := os.MkdirAll(cfg.Root, 0o755); err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "create output directory %s", cfg.Root)
	}
	return &Local{root: cfg.Root, urlPrefix: cfg.URLPrefix}, nil
}

// Root returns the output directory.
func (l *Local) Root() string { return l.root }

// Path returns the filesystem path of remotePath.
func (l *Local) Path(remotePath string) string {
	return filepath.Join(l.root, filepath.FromSlash(remotePath))
}

func (l *Local) Type() Type { return TypeLocal }

func (l *Local) URLFor(remotePath string) string { return joinURL(l.urlPrefix, remotePath) }

// Upload copies localPath to root/remotePath, preserving its modification
// time. Each call writes its own temp file and renames it into place, so
// concurrent uploads to one path leave the last complete copy.
func (l *Local) Upload(ctx context.Context, localPath, remotePath string) Result {
	target := l.Path(remotePath)
	res := upload(ctx, l, localPath, remotePath, func(_ context.Context, src *os.File, _ int64) error {
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return err
		}
		dst, err := os.CreateTemp(filepath.Dir(target), "."+filepath.Base(target)+".*.tmp")
		if err != nil {
			return err
		}
		tmp := dst.Name()
		if _, err := io.Copy(dst, src); err != nil {
			dst.Close()
			os.Remove(tmp)
			return err
		}
		if err := dst.Close(); err != nil {
			os.Remove(tmp)
			return err
		}
		if err := os.Chmod(tmp, 0o644); err != nil {
			os.Remove(tmp)
			return err
		}
		if info, err := src.Stat(); err == nil {
			_ = os.Chtimes(tmp, info.ModTime(), info.ModTime())
		}
		if err := os.Rename(tmp, target); err != nil {
			os.Remove(tmp)
			return err
		}
		return nil
	})
	if res.Success {
		res.Message = "File saved locally: " + target
	}
	return res
}
