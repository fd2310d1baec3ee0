// Package history persists the audit log of generated commands.
//
// The default store is a SQLite database at ~/.shai/history/history.db; a
// path ending in .jsonl selects the append-only JSON lines store instead.
package history

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/doeshing/shai-go/internal/domain"
	"github.com/doeshing/shai-go/internal/pkg/filesystem"
	"github.com/doeshing/shai-go/internal/ports"
)

// DefaultPath is the SQLite database location.
func DefaultPath() string {
	return filesystem.DataPath("history", "history.db")
}

// Open returns the store for path. An empty path uses DefaultPath. When the
// SQLite database cannot be opened the JSON lines store next to it is used.
func Open(path string, logger ports.Logger) ports.HistoryRepository {
	path = expandPath(path)
	if strings.EqualFold(filepath.Ext(path), ".jsonl") {
		return NewFileStore(path)
	}
	store, err := NewSQLiteStore(path)
	if err != nil {
		fallback := strings.TrimSuffix(path, filepath.Ext(path)) + ".jsonl"
		if logger != nil {
			logger.Warn("sqlite history unavailable, using jsonl", map[string]interface{}{
				"path":     path,
				"fallback": fallback,
				"error":    err.Error(),
			})
		}
		return NewFileStore(fallback)
	}
	return store
}

func expandPath(path string) string {
	if path = filesystem.ExpandHome(path); path == "" {
		return DefaultPath()
	}
	return path
}

// prepare fills the fields the store owns.
func prepare(entry domain.HistoryEntry) domain.HistoryEntry {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}
	entry.Timestamp = entry.Timestamp.UTC()
	return entry
}

func matches(entry domain.HistoryEntry, search string) bool {
	if search == "" {
		return true
	}
	search = strings.ToLower(search)
	for _, field := range []string{entry.Prompt, entry.Command, entry.Notes} {
		if strings.Contains(strings.ToLower(field), search) {
			return true
		}
	}
	return false
}

// writeJSONL exports entries oldest first, one JSON object per line.
func writeJSONL(dest string, entries []domain.HistoryEntry) error {
	if err := os.MkdirAll(filepath.Dir(dest), domain.DirectoryPermissions); err != nil {
		return err
	}
	file, err := os.OpenFile(dest, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, domain.SecureFilePermissions)
	if err != nil {
		return err
	}
	defer file.Close()
	enc := json.NewEncoder(file)
	for i := len(entries) - 1; i >= 0; i-- {
		if err := enc.Encode(entries[i]); err != nil {
			return err
		}
	}
	return nil
}
