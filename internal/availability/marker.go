// Package availability tracks which backing files are materialized
// locally and which are remote-only on a cloud-synced volume, and drives
// on-demand materialization with a bounded wait.
package availability

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/Halewood/shoebox/internal/common"
	"github.com/Halewood/shoebox/internal/model"
)

// markerExt follows the synced-volume convention for evicted files: the
// real file is replaced by a hidden ".<name>.icloud" stub until its bytes
// are materialized again.
const markerExt = ".icloud"

// MarkerPath returns the eviction-marker path for a file path.
// Example: "/root/2024/w2.pdf" -> "/root/2024/.w2.pdf.icloud"
func MarkerPath(path string) string {
	dir, name := filepath.Split(path)
	return filepath.Join(dir, "."+name+markerExt)
}

// IsMarker reports whether the entry name is an eviction marker.
func IsMarker(name string) bool {
	return strings.HasPrefix(name, ".") && strings.HasSuffix(name, markerExt)
}

// MarkerTarget returns the real file name an eviction marker stands for.
func MarkerTarget(name string) string {
	return strings.TrimSuffix(strings.TrimPrefix(name, "."), markerExt)
}

// Prober determines where a file's bytes currently live.
type Prober interface {
	Probe(path string) (model.Availability, error)
}

// Materializer requests that a remote-only file be downloaded. The actual
// transfer is driven by the sync agent owning the volume; the tracker
// only observes completion through filesystem events.
type Materializer interface {
	RequestDownload(path string) error
}

// MarkerProber resolves availability from the eviction-marker convention.
type MarkerProber struct{}

// Probe reports Current when the real file exists, NotDownloaded when
// only its eviction marker does, and ErrNotFound when neither is present.
func (MarkerProber) Probe(path string) (model.Availability, error) {
	if _, err := os.Stat(path); err == nil {
		return model.AvailabilityCurrent, nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return 0, common.WrapIO("probe", path, err)
	}

	if _, err := os.Stat(MarkerPath(path)); err == nil {
		return model.AvailabilityNotDownloaded, nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return 0, common.WrapIO("probe marker", path, err)
	}

	return 0, common.ErrNotFound
}

// OpenMaterializer nudges the sync agent by opening the file path; synced
// volumes materialize on first read. Errors from the open are ignored:
// an evicted file may not be openable until the agent creates it.
type OpenMaterializer struct{}

// RequestDownload asks the sync agent to materialize the file.
func (OpenMaterializer) RequestDownload(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	return f.Close()
}
