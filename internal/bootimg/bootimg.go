// Package bootimg stamps a ROM id into Android boot images so the boot menu
// can tell which ROM a kernel belongs to.
package bootimg

import (
	"bytes"
	"log/slog"

	"github.com/thoreinstein/rombak/internal/errors"
	"github.com/thoreinstein/rombak/pkg/fileutil"
)

const (
	// Magic starts every Android boot image header.
	Magic = "ANDROID!"
	// BoardOffset is the byte offset of the board name field.
	BoardOffset = 48
	// BoardSize is the length of the board name field, NUL terminator
	// included.
	BoardSize = 16
	// MaxImageSize bounds how much of an input is read into memory.
	MaxImageSize = 256 << 20
)

// ErrTruncatedHeader is returned for an image with the boot magic but a
// header too short to hold the board name.
var ErrTruncatedHeader = errors.New("boot image header truncated")

// Patcher rewrites boot image identity fields.
type Patcher struct {
	Logger *slog.Logger
}

// Patch writes a copy of input to output with romID in the board name field.
// Inputs without the boot magic are copied unchanged. output is replaced
// atomically.
func (p *Patcher) Patch(input, output, romID string) error {
	data, err := fileutil.ReadFileWithLimit(input, MaxImageSize)
	if err != nil {
		return errors.Wrapf(err, "reading %s", input)
	}

	if bytes.HasPrefix(data, []byte(Magic)) {
		if err := stamp(data, romID); err != nil {
			return errors.Wrapf(err, "patching %s", input)
		}
		p.logger().Debug("stamped boot image", "input", input, "rom", romID)
	} else {
		p.logger().Debug("not an Android boot image, copying verbatim", "input", input)
	}

	if err := fileutil.AtomicWriteFile(output, data, 0o644); err != nil {
		return errors.Wrapf(err, "writing %s", output)
	}
	return nil
}

func (p *Patcher) logger() *slog.Logger {
	if p.Logger == nil {
		return slog.Default()
	}
	return p.Logger
}

// stamp overwrites the board name with id, NUL-padded and truncated so the
// field stays terminated.
func stamp(data []byte, id string) error {
	if len(data) < BoardOffset+BoardSize {
		return ErrTruncatedHeader
	}
	field := data[BoardOffset : BoardOffset+BoardSize]
	clear(field)
	copy(field[:BoardSize-1], id)
	return nil
}

// BoardName returns the board name stored in a boot image header, or false
// if data is not a boot image.
func BoardName(data []byte) (string, bool) {
	if !bytes.HasPrefix(data, []byte(Magic)) || len(data) < BoardOffset+BoardSize {
		return "", false
	}
	field := data[BoardOffset : BoardOffset+BoardSize]
	if i := bytes.IndexByte(field, 0); i >= 0 {
		field = field[:i]
	}
	return string(field), true
}
