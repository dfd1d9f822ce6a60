package ingest

import (
	"path/filepath"
	"strings"

	"github.com/joseph-ayodele/invoice-watch/constants"
)

// AllowedExt checks a path's extension against a set built by constants.ExtensionSet.
func AllowedExt(path string, exts map[string]struct{}) bool {
	ext := constants.NormalizeExt(filepath.Ext(path))
	if ext == "" {
		return false
	}
	_, ok := exts[ext]
	return ok
}

// IsHidden checks if a file or directory is hidden (starts with '.').
func IsHidden(path string) bool {
	base := filepath.Base(path)
	return strings.HasPrefix(base, ".")
}
