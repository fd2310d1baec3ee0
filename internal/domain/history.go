package domain

import "time"

// HistoryEntry is the audit record for one invocation.
// The core fills Command and Notes; persistence belongs to the history store.
type HistoryEntry struct {
	ID             string    `json:"id"`
	Timestamp      time.Time `json:"timestamp"`
	Prompt         string    `json:"prompt"`
	Command        string    `json:"command"`
	Executed       bool      `json:"executed"`
	Provider       string    `json:"provider"`
	Dangerous      bool      `json:"dangerous"`
	MatchedPattern string    `json:"matched_pattern,omitempty"`
	ExitCode       int       `json:"exit_code"`
	Notes          string    `json:"notes,omitempty"`
}

// CacheEntry stores a raw backend reply.
type CacheEntry struct {
	Key       string    `json:"key"`
	Raw       string    `json:"raw"`
	Provider  string    `json:"provider"`
	Model     string    `json:"model"`
	CreatedAt time.Time `json:"created_at"`
}
