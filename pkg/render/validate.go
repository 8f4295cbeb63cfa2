package render

import (
	"bytes"
	"io"
	"os"

	"github.com/matzehuels/mindmapper/pkg/errors"
)

// MinRasterBytes is the smallest PNG accepted as a real render. Anything
// smaller is a blank or truncated capture.
const MinRasterBytes = 1000

var pngSignature = []byte("\x89PNG\r\n\x1a\n")

// ValidateRaster checks that path holds a plausible PNG and returns its size.
func ValidateRaster(path string) (int64, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, errors.Wrap(errors.ErrCodeArtifactInvalid, err, "raster was not created")
	}
	if info.Size() < MinRasterBytes {
		return info.Size(), errors.New(errors.ErrCodeArtifactInvalid,
			"raster too small (%d bytes), corrupt or undersized", info.Size())
	}

	f, err := os.Open(path)
	if err != nil {
		return info.Size(), errors.Wrap(errors.ErrCodeArtifactInvalid, err, "open raster")
	}
	defer f.Close()

	head := make([]byte, len(pngSignature))
	if _, err := io.ReadFull(f, head); err != nil {
		return info.Size(), errors.Wrap(errors.ErrCodeArtifactInvalid, err, "read raster header")
	}
	if !bytes.Equal(head, pngSignature) {
		return info.Size(), errors.New(errors.ErrCodeArtifactInvalid, "raster is not a PNG, corrupt output")
	}
	return info.Size(), nil
}
