package fileutil

import (
	"io"
	"os"

	"github.com/thoreinstein/rombak/internal/errors"
)

// ErrFileTooLarge indicates that a file exceeded the read limit.
var ErrFileTooLarge = errors.New("file exceeds maximum size")

// ReadFileWithLimit reads a file of at most limit bytes.
func ReadFileWithLimit(path string, limit int64) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "opening file")
	}
	defer f.Close()

	// Fail fast when the size is already known to be too large
	if info, err := f.Stat(); err == nil && info.Size() > limit {
		return nil, errors.Wrapf(ErrFileTooLarge, "%s is %d bytes, limit %d", path, info.Size(), limit)
	}

	data, err := io.ReadAll(io.LimitReader(f, limit+1))
	if err != nil {
		return nil, errors.Wrap(err, "reading file")
	}
	if int64(len(data)) > limit {
		return nil, errors.Wrapf(ErrFileTooLarge, "%s exceeds limit %d", path, limit)
	}
	return data, nil
}
