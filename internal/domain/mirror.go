package domain

import (
	"path/filepath"
	"strings"
	"time"
)

// MirrorStats contains statistics from a mirror sync.
type MirrorStats struct {
	Uploaded int `json:"uploaded"`
	Skipped  int `json:"skipped"`
	Failed   int `json:"failed"`
}

// MirrorStatus describes the state of the mirror for status reporting.
type MirrorStatus struct {
	Target     string      `json:"target"`
	LocalDir   string      `json:"local_dir"`
	LastSync   time.Time   `json:"last_sync,omitempty"`
	LastStats  MirrorStats `json:"last_stats"`
	LastError  string      `json:"last_error,omitempty"`
	TotalFiles int         `json:"total_uploaded"`
}

// PartSuffix marks in-progress downloads.
const PartSuffix = ".part"

// IsMirrorable reports whether a file in the download directory should be
// mirrored. Hidden files and partial downloads are excluded.
func IsMirrorable(path string) bool {
	name := filepath.Base(path)
	if name == "" || name == "." || strings.HasPrefix(name, ".") {
		return false
	}
	return !strings.HasSuffix(name, PartSuffix)
}
