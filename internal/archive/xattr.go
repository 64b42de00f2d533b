package archive

import (
	"bytes"

	"golang.org/x/sys/unix"
)

// readXattrs returns the extended attributes of path without following
// symlinks.
func readXattrs(path string) (map[string]string, error) {
	size, err := unix.Llistxattr(path, nil)
	if err != nil || size == 0 {
		return nil, err
	}
	buf := make([]byte, size)
	size, err = unix.Llistxattr(path, buf)
	if err != nil {
		return nil, err
	}

	out := make(map[string]string)
	for _, name := range bytes.Split(buf[:size], []byte{0}) {
		if len(name) == 0 {
			continue
		}
		key := string(name)
		vsize, err := unix.Lgetxattr(path, key, nil)
		if err != nil {
			continue
		}
		val := make([]byte, vsize)
		vsize, err = unix.Lgetxattr(path, key, val)
		if err != nil {
			continue
		}
		out[key] = string(val[:vsize])
	}
	return out, nil
}

func writeXattr(path, key, value string) error {
	return unix.Lsetxattr(path, key, []byte(value), 0)
}
