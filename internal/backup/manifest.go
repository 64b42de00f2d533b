package backup

import (
	"encoding/json"
	"path/filepath"
	"time"

	"github.com/thoreinstein/rombak/internal/compression"
	"github.com/thoreinstein/rombak/internal/errors"
	"github.com/thoreinstein/rombak/internal/target"
	"github.com/thoreinstein/rombak/pkg/fileutil"
)

// ManifestVersion is the manifest format version.
const ManifestVersion = 1

// Manifest records how a backup was made. It is informational; restore
// works from the archives alone.
type Manifest struct {
	Version       int       `json:"version"`
	CreatedAt     time.Time `json:"created_at"`
	ROM           string    `json:"rom"`
	Targets       []string  `json:"targets"`
	Compression   string    `json:"compression"`
	SplitSize     uint64    `json:"split_size"`
	RombakVersion string    `json:"rombak_version"`
}

func (e *Engine) writeManifest(dir, romID string, targets target.Set, kind compression.Kind, splitSize uint64) error {
	names := make([]string, 0, 5)
	for _, t := range targets.Targets() {
		names = append(names, t.String())
	}
	m := Manifest{
		Version:       ManifestVersion,
		CreatedAt:     time.Now().UTC(),
		ROM:           romID,
		Targets:       names,
		Compression:   kind.Name(),
		SplitSize:     splitSize,
		RombakVersion: e.version,
	}
	return fileutil.AtomicWriteJSON(filepath.Join(dir, ManifestName), m)
}

// ReadManifest loads the manifest of the backup in dir.
func ReadManifest(dir string) (*Manifest, error) {
	data, err := fileutil.ReadFileWithLimit(filepath.Join(dir, ManifestName), 1<<20)
	if err != nil {
		return nil, err
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, errors.Wrap(err, "parsing manifest")
	}
	return &m, nil
}
