package constants

import "strings"

// DefaultExtensions holds the file extensions watched when none are configured.
var DefaultExtensions = []string{".pdf"}

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
}

// ExtensionSet builds a lookup set of normalized extensions.
// An empty input falls back to DefaultExtensions.
func ExtensionSet(exts []string) map[string]struct{} {
	if len(exts) == 0 {
		exts = DefaultExtensions
	}
	set := make(map[string]struct{}, len(exts))
	for _, e := range exts {
		if n := NormalizeExt(e); n != "" {
			set[n] = struct{}{}
		}
	}
	return set
}
