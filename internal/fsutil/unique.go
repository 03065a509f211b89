package fsutil

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// UniqueName returns path if nothing exists there, otherwise the first
// "<base>_N<ext>" variant that does not exist yet. Existing files are never
// overwritten by callers using this helper.
func UniqueName(path string) string {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return path
	}
	ext := filepath.Ext(path)
	base := strings.TrimSuffix(path, ext)
	for i := 1; ; i++ {
		candidate := fmt.Sprintf("%s_%d%s", base, i, ext)
		if _, err := os.Stat(candidate); os.IsNotExist(err) {
			return candidate
		}
	}
}
