package history

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/doeshing/shai-go/internal/domain"
	"github.com/doeshing/shai-go/internal/ports"
)

const schema = `CREATE TABLE IF NOT EXISTS commands (
	id TEXT PRIMARY KEY,
	timestamp TEXT NOT NULL,
	prompt TEXT,
	command TEXT,
	provider TEXT,
	executed INTEGER,
	dangerous INTEGER,
	matched_pattern TEXT,
	exit_code INTEGER,
	notes TEXT
);
CREATE INDEX IF NOT EXISTS idx_commands_timestamp ON commands(timestamp);`

// timestampLayout has a fixed width so text ordering is chronological.
const timestampLayout = "2006-01-02T15:04:05.000000000Z07:00"

const selectColumns = "SELECT id, timestamp, prompt, command, provider, executed, dangerous, matched_pattern, exit_code, notes FROM commands"

// SQLiteStore persists history in a SQLite database.
type SQLiteStore struct {
	db   *sql.DB
	path string
	mu   sync.Mutex
}

// NewSQLiteStore creates (or opens) the database at path.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), domain.DirectoryPermissions); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open history db: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init history db: %w", err)
	}
	return &SQLiteStore{db: db, path: path}, nil
}

// Save inserts a new record.
func (s *SQLiteStore) Save(entry domain.HistoryEntry) error {
	entry = prepare(entry)
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.Exec(`INSERT INTO commands
		(id, timestamp, prompt, command, provider, executed, dangerous, matched_pattern, exit_code, notes)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.ID,
		entry.Timestamp.Format(timestampLayout),
		entry.Prompt,
		entry.Command,
		entry.Provider,
		boolToInt(entry.Executed),
		boolToInt(entry.Dangerous),
		entry.MatchedPattern,
		entry.ExitCode,
		entry.Notes,
	)
	return err
}

// Records returns history entries newest first (limit/search optional).
func (s *SQLiteStore) Records(limit int, search string) ([]domain.HistoryEntry, error) {
	builder := strings.Builder{}
	builder.WriteString(selectColumns)
	var args []interface{}
	if search != "" {
		like := "%" + strings.ToLower(search) + "%"
		builder.WriteString(" WHERE lower(prompt) LIKE ? OR lower(command) LIKE ? OR lower(notes) LIKE ?")
		args = append(args, like, like, like)
	}
	builder.WriteString(" ORDER BY timestamp DESC")
	if limit > 0 {
		builder.WriteString(" LIMIT ?")
		args = append(args, limit)
	}

	rows, err := s.db.Query(builder.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []domain.HistoryEntry
	for rows.Next() {
		var entry domain.HistoryEntry
		var ts string
		var executed, dangerous int
		if err := rows.Scan(&entry.ID, &ts, &entry.Prompt, &entry.Command, &entry.Provider,
			&executed, &dangerous, &entry.MatchedPattern, &entry.ExitCode, &entry.Notes); err != nil {
			return nil, err
		}
		if t, err := time.Parse(timestampLayout, ts); err == nil {
			entry.Timestamp = t
		}
		entry.Executed = executed == 1
		entry.Dangerous = dangerous == 1
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// Clear deletes all history entries.
func (s *SQLiteStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.Exec("DELETE FROM commands")
	return err
}

// ExportJSON writes the command table to a jsonl file.
func (s *SQLiteStore) ExportJSON(dest string) error {
	entries, err := s.Records(0, "")
	if err != nil {
		return err
	}
	return writeJSONL(dest, entries)
}

// Path returns the sqlite database path.
func (s *SQLiteStore) Path() string {
	return s.path
}

// Close releases the database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

var _ ports.HistoryRepository = (*SQLiteStore)(nil)
