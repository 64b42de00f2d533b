package fileutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/thoreinstein/rombak/internal/errors"
)

func TestReadFileWithLimit(t *testing.T) {
	const limit = 4096
	tempDir := t.TempDir()

	tests := []struct {
		name    string
		size    int64
		wantErr bool
	}{
		{"small file", 100, false},
		{"exact limit", limit, false},
		{"too large", limit + 1, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(tempDir, tt.name)
			f, err := os.Create(path)
			if err != nil {
				t.Fatal(err)
			}
			if err := f.Truncate(tt.size); err != nil {
				t.Fatal(err)
			}
			f.Close()

			data, err := ReadFileWithLimit(path, limit)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ReadFileWithLimit() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				if !errors.Is(err, ErrFileTooLarge) {
					t.Errorf("expected ErrFileTooLarge, got %v", err)
				}
				return
			}
			if int64(len(data)) != tt.size {
				t.Errorf("read %d bytes, want %d", len(data), tt.size)
			}
		})
	}
}
