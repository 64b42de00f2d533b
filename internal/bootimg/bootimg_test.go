package bootimg

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/thoreinstein/rombak/internal/logging"
)

func bootImage(board string) []byte {
	data := make([]byte, 2048)
	copy(data, Magic)
	copy(data[BoardOffset:], board)
	copy(data[1024:], "kernel")
	return data
}

func TestPatch(t *testing.T) {
	tests := []struct {
		name  string
		board string
		romID string
		want  string
	}{
		{"stamp", "", "dual", "dual"},
		{"replace", "oldboardname", "multi-slot-1", "multi-slot-1"},
		{"truncate", "", "data-slot-averylongname", "data-slot-avery"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			in := filepath.Join(dir, "boot.img")
			out := filepath.Join(dir, "patched.img")
			require.NoError(t, os.WriteFile(in, bootImage(tt.board), 0o644))

			p := &Patcher{Logger: logging.ForTest(t)}
			require.NoError(t, p.Patch(in, out, tt.romID))

			got, err := os.ReadFile(out)
			require.NoError(t, err)
			name, ok := BoardName(got)
			require.True(t, ok)
			require.Equal(t, tt.want, name)
			require.Equal(t, byte(0), got[BoardOffset+BoardSize-1])
			require.Equal(t, "kernel", string(got[1024:1030]))
			require.Len(t, got, 2048)
		})
	}
}

func TestPatch_NonBootImageCopiedVerbatim(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "boot.img")
	out := filepath.Join(dir, "copy.img")
	payload := []byte("not a boot image at all, just bytes")
	require.NoError(t, os.WriteFile(in, payload, 0o644))

	require.NoError(t, (&Patcher{}).Patch(in, out, "primary"))

	got, err := os.ReadFile(out)
	require.NoError(t, err)
	require.Equal(t, payload, got)
}

func TestPatch_Errors(t *testing.T) {
	dir := t.TempDir()
	p := &Patcher{Logger: logging.ForTest(t)}

	require.Error(t, p.Patch(filepath.Join(dir, "missing"), filepath.Join(dir, "out"), "dual"))

	short := filepath.Join(dir, "short.img")
	require.NoError(t, os.WriteFile(short, []byte(Magic+"tiny"), 0o644))
	err := p.Patch(short, filepath.Join(dir, "out"), "dual")
	require.ErrorIs(t, err, ErrTruncatedHeader)
	_, statErr := os.Stat(filepath.Join(dir, "out"))
	require.True(t, os.IsNotExist(statErr))
}
