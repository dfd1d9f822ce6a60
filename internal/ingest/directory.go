package ingest

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// DirStats summarizes a directory listing.
type DirStats struct {
	Scanned uint32
	Matched uint32
	Skipped uint32
}

// ListCandidates returns the regular, non-hidden files directly inside root
// whose extension is in exts. Subdirectories are not descended into.
// os.ReadDir sorts by name, so the order is deterministic.
func ListCandidates(root string, exts map[string]struct{}) ([]string, DirStats, error) {
	var stats DirStats
	if strings.TrimSpace(root) == "" {
		return nil, stats, errors.New("root path is required")
	}
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, stats, fmt.Errorf("read dir: %w", err)
	}

	var out []string
	for _, d := range entries {
		stats.Scanned++
		if d.IsDir() || IsHidden(d.Name()) || !d.Type().IsRegular() {
			stats.Skipped++
			continue
		}
		path := filepath.Join(root, d.Name())
		if !AllowedExt(path, exts) {
			stats.Skipped++
			continue
		}
		stats.Matched++
		out = append(out, path)
	}
	return out, stats, nil
}

// EnsureDir creates root if it does not exist.
func EnsureDir(root string) (created bool, err error) {
	st, err := os.Stat(root)
	if err == nil {
		if !st.IsDir() {
			return false, fmt.Errorf("%s exists and is not a directory", root)
		}
		return false, nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return false, err
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return false, err
	}
	return true, nil
}
