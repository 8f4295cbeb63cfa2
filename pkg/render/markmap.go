package render

import (
	"bytes"
	"context"
	"os/exec"
	"strings"

	"github.com/matzehuels/mindmapper/pkg/errors"
)

// MarkmapTransformer runs the markmap CLI (markmap-cli on npm).
type MarkmapTransformer struct {
	// Bin is the executable name or path. Defaults to "markmap".
	Bin string
}

func (m MarkmapTransformer) bin() string {
	if m.Bin == "" {
		return "markmap"
	}
	return m.Bin
}

// Transform runs `markmap <src> --no-open -o <dst>`. A non-zero exit is an
// EXTERNAL_TOOL error carrying the tool's stderr.
func (m MarkmapTransformer) Transform(ctx context.Context, src, dst string) error {
	bin := m.bin()
	if _, err := exec.LookPath(bin); err != nil {
		return errors.Wrap(errors.ErrCodeExternalTool, err,
			"markmap CLI not found. Install with:\n  npm install -g markmap-cli")
	}

	cmd := exec.CommandContext(ctx, bin, src, "--no-open", "-o", dst)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		detail := strings.TrimSpace(stderr.String())
		if detail == "" {
			detail = err.Error()
		}
		return errors.New(errors.ErrCodeExternalTool, "failed to generate HTML: %s", detail)
	}
	return nil
}

// Version returns the output of `markmap --version`.
func (m MarkmapTransformer) Version(ctx context.Context) (string, error) {
	out, err := exec.CommandContext(ctx, m.bin(), "--version").Output()
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeExternalTool, err, "run %s --version", m.bin())
	}
	return strings.TrimSpace(string(out)), nil
}
