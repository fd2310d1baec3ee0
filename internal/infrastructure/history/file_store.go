package history

import (
	"bufio"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/doeshing/shai-go/internal/domain"
	"github.com/doeshing/shai-go/internal/ports"
)

// FileStore appends history records to a jsonl file.
type FileStore struct {
	path string
	mu   sync.Mutex
}

// NewFileStore creates a history store backed by the jsonl file at path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Save implements ports.HistoryRepository.
func (f *FileStore) Save(entry domain.HistoryEntry) error {
	entry = prepare(entry)
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := os.MkdirAll(filepath.Dir(f.path), domain.DirectoryPermissions); err != nil {
		return err
	}
	file, err := os.OpenFile(f.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, domain.SecureFilePermissions)
	if err != nil {
		return err
	}
	defer file.Close()
	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	_, err = file.Write(append(data, '\n'))
	return err
}

// Path returns the backing file path.
func (f *FileStore) Path() string {
	return f.path
}

// Clear removes the history file.
func (f *FileStore) Clear() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := os.Remove(f.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// Records loads history entries newest first. Malformed lines are skipped.
func (f *FileStore) Records(limit int, search string) ([]domain.HistoryEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	file, err := os.Open(f.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	defer file.Close()

	var all []domain.HistoryEntry
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var entry domain.HistoryEntry
		if err := json.Unmarshal(line, &entry); err == nil && matches(entry, search) {
			all = append(all, entry)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	var entries []domain.HistoryEntry
	for i := len(all) - 1; i >= 0; i-- {
		entries = append(entries, all[i])
		if limit > 0 && len(entries) == limit {
			break
		}
	}
	return entries, nil
}

// ExportJSON copies the entries to dest as jsonl.
func (f *FileStore) ExportJSON(dest string) error {
	entries, err := f.Records(0, "")
	if err != nil {
		return err
	}
	return writeJSONL(dest, entries)
}

var _ ports.HistoryRepository = (*FileStore)(nil)
