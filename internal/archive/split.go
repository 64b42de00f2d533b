package archive

import (
	"io"
	"os"
	"strconv"

	"github.com/thoreinstein/rombak/internal/errors"
)

// chunkPath returns the path of chunk i of the archive at base.
func chunkPath(base string, i int) string {
	return base + "." + strconv.Itoa(i)
}

// removeChunks deletes base and every consecutive chunk base.0, base.1, ...
// so a rewritten archive never picks up chunks from an older one.
func removeChunks(base string) error {
	if err := os.Remove(base); err != nil && !os.IsNotExist(err) {
		return errors.Wrapf(err, "removing %s", base)
	}
	for i := 0; ; i++ {
		err := os.Remove(chunkPath(base, i))
		if os.IsNotExist(err) {
			return nil
		}
		if err != nil {
			return errors.Wrapf(err, "removing %s", chunkPath(base, i))
		}
	}
}

// splitWriter writes to base until limit bytes have been written. When more
// data arrives, base is renamed to base.0 and output continues in base.1,
// base.2, ... each holding at most limit bytes. A limit of 0 disables
// splitting.
type splitWriter struct {
	base    string
	limit   uint64
	f       *os.File
	written uint64
	index   int
	split   bool
}

func newSplitWriter(base string, limit uint64) (*splitWriter, error) {
	f, err := os.OpenFile(base, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, errors.Wrapf(err, "creating %s", base)
	}
	return &splitWriter{base: base, limit: limit, f: f}, nil
}

func (w *splitWriter) Write(p []byte) (int, error) {
	total := 0
	for len(p) > 0 {
		if w.limit > 0 && w.written >= w.limit {
			if err := w.next(); err != nil {
				return total, err
			}
		}
		n := len(p)
		if w.limit > 0 && uint64(n) > w.limit-w.written {
			n = int(w.limit - w.written)
		}
		m, err := w.f.Write(p[:n])
		total += m
		w.written += uint64(m)
		if err != nil {
			return total, errors.Wrapf(err, "writing %s", w.f.Name())
		}
		p = p[m:]
	}
	return total, nil
}

// next closes the current chunk and opens the following one.
func (w *splitWriter) next() error {
	if err := w.f.Close(); err != nil {
		return errors.Wrapf(err, "closing %s", w.f.Name())
	}
	if !w.split {
		if err := os.Rename(w.base, chunkPath(w.base, 0)); err != nil {
			return errors.Wrap(err, "renaming first chunk")
		}
		w.split = true
	}
	w.index++
	path := chunkPath(w.base, w.index)
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return errors.Wrapf(err, "creating %s", path)
	}
	w.f = f
	w.written = 0
	return nil
}

// Chunks reports how many files the archive occupies.
func (w *splitWriter) Chunks() int {
	return w.index + 1
}

func (w *splitWriter) Close() error {
	if err := w.f.Close(); err != nil {
		return errors.Wrapf(err, "closing %s", w.f.Name())
	}
	return nil
}

// chunkReader reads base.0, base.1, ... as one stream, stopping at the first
// missing index.
type chunkReader struct {
	base  string
	index int
	f     *os.File
}

func openChunks(base string) (*chunkReader, error) {
	f, err := os.Open(chunkPath(base, 0))
	if err != nil {
		return nil, errors.Wrap(err, "opening first chunk")
	}
	return &chunkReader{base: base, f: f}, nil
}

func (r *chunkReader) Read(p []byte) (int, error) {
	for {
		n, err := r.f.Read(p)
		if err != io.EOF {
			return n, err
		}
		if n > 0 {
			return n, nil
		}
		nextPath := chunkPath(r.base, r.index+1)
		next, openErr := os.Open(nextPath)
		if os.IsNotExist(openErr) {
			return 0, io.EOF
		}
		if openErr != nil {
			return 0, errors.Wrapf(openErr, "opening %s", nextPath)
		}
		r.f.Close()
		r.f = next
		r.index++
	}
}

func (r *chunkReader) Close() error {
	return r.f.Close()
}
