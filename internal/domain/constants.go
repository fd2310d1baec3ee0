package domain

import "time"

// File permissions constants
const (
	// DirectoryPermissions is the default permission for directories (rwxr-xr-x)
	DirectoryPermissions = 0o755
	// SecureFilePermissions is the permission for sensitive files (rw-------)
	SecureFilePermissions = 0o600
)

// Timeout and duration constants
const (
	// DefaultCommandTimeout bounds helper commands run while collecting context
	DefaultCommandTimeout = 2 * time.Second
	// DefaultHTTPClientTimeout is the timeout for hosted backend requests
	DefaultHTTPClientTimeout = 60 * time.Second
	// DefaultCacheTTL is how long a cached raw reply stays valid
	DefaultCacheTTL = time.Hour
)

// Limit constants
const (
	// DefaultMaxCacheEntries is the maximum number of cache entries
	DefaultMaxCacheEntries = 100
)

// History constants
const (
	// DefaultHistoryLimit is the default number of history records to display
	DefaultHistoryLimit = 20
	// DefaultHistorySearchLimit is the default number of search results to return
	DefaultHistorySearchLimit = 50
)

// Backend defaults
const (
	DefaultMaxTokens   = 512
	DefaultOpenAIModel = "gpt-4o-mini"
	DefaultGeminiModel = "gemini-2.0-flash"
	DefaultLocalModel  = "qwen2.5-coder:1.5b"
	DefaultLocalHost   = "http://127.0.0.1:11434"
	DefaultOpenAIURL   = "https://api.openai.com/v1/chat/completions"
)

// Preview modes
const (
	PreviewAlways = "always"
	PreviewNever  = "never"
)

// Time formats
const (
	// TimestampFormat is the standard timestamp format
	TimestampFormat = time.RFC3339
)
