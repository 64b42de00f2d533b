package compression

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"
)

func TestRegistryBijection(t *testing.T) {
	seenExt := map[string]Kind{}
	for _, k := range Kinds() {
		name := k.Name()
		got, ok := Lookup(name)
		if !ok || got != k {
			t.Errorf("Lookup(%q) = %v, %v; want %v", name, got, ok, k)
		}
		if got.Extension() != k.Extension() {
			t.Errorf("extension mismatch for %v", k)
		}
		if prev, dup := seenExt[k.Extension()]; dup {
			t.Errorf("extension %q shared by %v and %v", k.Extension(), prev, k)
		}
		seenExt[k.Extension()] = k
	}
}

func TestTable(t *testing.T) {
	tests := []struct {
		kind Kind
		name string
		ext  string
	}{
		{None, "none", ".tar"},
		{LZ4, "lz4", ".tar.lz4"},
		{Gzip, "gzip", ".tar.gz"},
		{XZ, "xz", ".tar.xz"},
	}
	for _, tt := range tests {
		if tt.kind.Name() != tt.name || tt.kind.Extension() != tt.ext {
			t.Errorf("%v: got (%q, %q), want (%q, %q)", tt.kind, tt.kind.Name(), tt.kind.Extension(), tt.name, tt.ext)
		}
	}
}

func TestProbeOrder(t *testing.T) {
	want := []Kind{None, LZ4, Gzip, XZ}
	got := Kinds()
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Kinds() = %v, want %v", got, want)
		}
	}
	if strings.Join(Names(), ",") != "none,lz4,gzip,xz" {
		t.Errorf("Names() = %v", Names())
	}
}

func TestUnknown(t *testing.T) {
	if _, ok := Lookup("zstd"); ok {
		t.Error("Lookup(zstd) should fail")
	}
	bad := Kind(99)
	if bad.Valid() || bad.Name() != "" || bad.Extension() != "" || bad.String() != "unknown" {
		t.Errorf("unknown kind should have empty name/extension, got %q %q", bad.Name(), bad.Extension())
	}
	if _, err := NewWriter(bad, io.Discard); !errors.Is(err, ErrUnknownKind) {
		t.Errorf("NewWriter(bad) error = %v", err)
	}
	if _, err := NewReader(bad, strings.NewReader("")); !errors.Is(err, ErrUnknownKind) {
		t.Errorf("NewReader(bad) error = %v", err)
	}
}

func TestCodecRoundTrip(t *testing.T) {
	payload := bytes.Repeat([]byte("multiboot rom backup payload\n"), 512)

	for _, k := range Kinds() {
		t.Run(k.Name(), func(t *testing.T) {
			var buf bytes.Buffer
			w, err := NewWriter(k, &buf)
			if err != nil {
				t.Fatalf("NewWriter: %v", err)
			}
			if _, err := w.Write(payload); err != nil {
				t.Fatalf("Write: %v", err)
			}
			if err := w.Close(); err != nil {
				t.Fatalf("Close: %v", err)
			}
			if k != None && buf.Len() >= len(payload) {
				t.Errorf("%v output (%d bytes) not smaller than input (%d)", k, buf.Len(), len(payload))
			}

			r, err := NewReader(k, &buf)
			if err != nil {
				t.Fatalf("NewReader: %v", err)
			}
			defer r.Close()
			got, err := io.ReadAll(r)
			if err != nil {
				t.Fatalf("ReadAll: %v", err)
			}
			if !bytes.Equal(got, payload) {
				t.Errorf("round trip mismatch: got %d bytes, want %d", len(got), len(payload))
			}
		})
	}
}
