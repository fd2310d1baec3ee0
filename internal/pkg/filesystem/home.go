// Package filesystem resolves the per-user paths SHAI reads and writes.
package filesystem

import (
	"os"
	"path/filepath"
	"strings"
)

// DataDirName is the directory under $HOME holding config, history, cache
// and engine state.
const DataDirName = ".shai"

// UserHomeDir returns the current user's home directory.
// If the home directory cannot be determined, it returns "." as a fallback.
func UserHomeDir() string {
	if home, err := os.UserHomeDir(); err == nil {
		return home
	}
	return "."
}

// DataPath joins elem under ~/.shai.
func DataPath(elem ...string) string {
	return filepath.Join(append([]string{UserHomeDir(), DataDirName}, elem...)...)
}

// ExpandHome resolves a leading "~" or "~/" and cleans the result.
func ExpandHome(path string) string {
	path = strings.TrimSpace(path)
	switch {
	case path == "":
		return ""
	case path == "~":
		return UserHomeDir()
	case strings.HasPrefix(path, "~/"):
		return filepath.Join(UserHomeDir(), path[2:])
	default:
		return filepath.Clean(path)
	}
}
