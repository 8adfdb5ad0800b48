package gate

import "strings"

var (
	excludedPrefixes   = []string{"/static", "/_next/static", "/_next/image", "/favicon.ico"}
	excludedExtensions = []string{".svg", ".png", ".jpg", ".jpeg", ".gif", ".webp"}
)

// Excluded reports whether path is a static asset that bypasses the gate.
func Excluded(path string) bool {
	if hasAnyPrefix(path, excludedPrefixes) {
		return true
	}
	for _, ext := range excludedExtensions {
		if strings.HasSuffix(path, ext) {
			return true
		}
	}
	return false
}
