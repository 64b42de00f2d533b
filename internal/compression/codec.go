package compression

import (
	"io"

	"github.com/klauspost/compress/gzip"
	"github.com/pierrec/lz4/v4"
	"github.com/ulikunitz/xz"

	"github.com/thoreinstein/rombak/internal/errors"
)

// ErrUnknownKind is returned by the codec constructors for an invalid Kind.
var ErrUnknownKind = errors.New("unknown compression kind")

// NewWriter wraps w so that bytes written are compressed with k. Closing the
// returned writer flushes the compressor but does not close w.
func NewWriter(k Kind, w io.Writer) (io.WriteCloser, error) {
	switch k {
	case None:
		return nopWriteCloser{w}, nil
	case LZ4:
		return lz4.NewWriter(w), nil
	case Gzip:
		return gzip.NewWriter(w), nil
	case XZ:
		xw, err := xz.NewWriter(w)
		if err != nil {
			return nil, errors.Wrap(err, "creating xz writer")
		}
		return xw, nil
	default:
		return nil, errors.Wrapf(ErrUnknownKind, "%d", int(k))
	}
}

// NewReader wraps r so that reads return data decompressed with k. Closing
// the returned reader does not close r.
func NewReader(k Kind, r io.Reader) (io.ReadCloser, error) {
	switch k {
	case None:
		return io.NopCloser(r), nil
	case LZ4:
		return io.NopCloser(lz4.NewReader(r)), nil
	case Gzip:
		gr, err := gzip.NewReader(r)
		if err != nil {
			return nil, errors.Wrap(err, "reading gzip header")
		}
		return gr, nil
	case XZ:
		xr, err := xz.NewReader(r)
		if err != nil {
			return nil, errors.Wrap(err, "reading xz header")
		}
		return io.NopCloser(xr), nil
	default:
		return nil, errors.Wrapf(ErrUnknownKind, "%d", int(k))
	}
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }
