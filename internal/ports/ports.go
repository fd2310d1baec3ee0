// Package ports defines the interfaces (ports) for the hexagonal architecture.
//
// This package establishes the contract between the application core and external
// adapters (infrastructure). The response parser and safety classifier are pure
// functions behind small interfaces; backends, storage and the terminal are
// adapters plugged in by the container.
package ports

import (
	"context"

	"github.com/doeshing/shai-go/internal/domain"
)

// ConfigProvider loads the latest configuration from persistent storage.
// Implementations typically read from ~/.shai/config.yaml.
type ConfigProvider interface {
	Load(context.Context) (domain.Config, error)
}

// ConfigStore persists configuration changes made from the CLI.
type ConfigStore interface {
	ConfigProvider
	Save(context.Context, domain.Config) error
	Path() string
}

// ContextCollector gathers environmental context (os, shell, files, tools).
type ContextCollector interface {
	Collect(context.Context, domain.Config) (domain.ContextSnapshot, error)
}

// Backend turns a task description into raw response text.
// Failures are reported as *domain.TransportError (or engine errors for the local backend).
type Backend interface {
	Name() string
	Model() string
	Generate(context.Context, domain.GenerateRequest) (string, error)
}

// BackendFactory selects the backend named by configuration.
type BackendFactory interface {
	ForConfig(domain.Config) (Backend, error)
}

// ResponseParser extracts a command/explanation pair from raw text.
type ResponseParser interface {
	Parse(raw string, explainMode bool) (domain.ParsedCommand, error)
}

// SafetyClassifier decides whether a command is too dangerous to auto-run.
type SafetyClassifier interface {
	Classify(command string) domain.DangerVerdict
}

// CommandExecutor runs shell commands in the configured shell environment.
type CommandExecutor interface {
	Execute(ctx context.Context, command string) (domain.ExecutionResult, error)
}

// ConfirmationPrompter handles interactive user confirmations before execution.
// ConfirmDangerous must demand more than a single keystroke.
type ConfirmationPrompter interface {
	Confirm(command string, explanation string) (bool, error)
	ConfirmDangerous(command string, verdict domain.DangerVerdict) (bool, error)
	Enabled() bool
}

// Clipboard provides cross-platform clipboard integration for copying commands.
type Clipboard interface {
	Copy(text string) error
	Enabled() bool
}

// HistoryRepository persists audit entries.
type HistoryRepository interface {
	Save(domain.HistoryEntry) error
	Records(limit int, search string) ([]domain.HistoryEntry, error)
	Clear() error
	ExportJSON(dest string) error
	Path() string
}

// CacheRepository stores raw replies.
type CacheRepository interface {
	Get(key string) (domain.CacheEntry, bool, error)
	Set(domain.CacheEntry) error
	Clear() error
}

// EngineStatus exposes the local engine lifecycle to diagnostics.
type EngineStatus interface {
	State() domain.EngineState
	LastError() error
}

// Logger provides structured logging abstraction for the application layer.
// Implementations can route to different backends (stdout, files, external services).
type Logger interface {
	Debug(msg string, fields map[string]interface{})
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, err error, fields map[string]interface{})
}
