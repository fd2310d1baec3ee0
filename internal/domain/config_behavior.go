package domain

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// ProviderKind resolves the configured provider name.
func (c *Config) ProviderKind() (ProviderKind, error) {
	return ParseProviderKind(c.Provider.Name)
}

// SetProvider switches the active backend. Model and endpoint are reset to the
// provider defaults unless given.
func (c *Config) SetProvider(name, model string) error {
	kind, err := ParseProviderKind(name)
	if err != nil {
		return err
	}
	if kind != c.mustKind() {
		c.Provider.Endpoint = ""
		c.Provider.AuthEnvVar = ""
		c.Provider.Model = ""
	}
	c.Provider.Name = string(kind)
	if model != "" {
		c.Provider.Model = model
	}
	return nil
}

func (c *Config) mustKind() ProviderKind {
	kind, _ := c.ProviderKind()
	return kind
}

// ResolveAPIKey returns the configured key, falling back to the auth env var and
// then to the provider's conventional variable.
func (c *Config) ResolveAPIKey() string {
	if key := strings.TrimSpace(c.Provider.APIKey); key != "" {
		return key
	}
	if c.Provider.AuthEnvVar != "" {
		if value := os.Getenv(c.Provider.AuthEnvVar); value != "" {
			return value
		}
	}
	switch c.mustKind() {
	case ProviderOpenAI:
		return os.Getenv("OPENAI_API_KEY")
	case ProviderGemini:
		if value := os.Getenv("GEMINI_API_KEY"); value != "" {
			return value
		}
		return os.Getenv("GOOGLE_API_KEY")
	default:
		return ""
	}
}

// RequiresAPIKey reports whether the active provider is a hosted API.
func (c *Config) RequiresAPIKey() bool {
	kind := c.mustKind()
	return kind == ProviderOpenAI || kind == ProviderGemini
}

// GetModel returns the model for the active provider with per-provider defaults.
func (c *Config) GetModel() string {
	if c.mustKind() == ProviderLocal {
		if c.LocalEngine.Model != "" {
			return c.LocalEngine.Model
		}
		return DefaultLocalModel
	}
	if c.Provider.Model != "" {
		return c.Provider.Model
	}
	switch c.mustKind() {
	case ProviderGemini:
		return DefaultGeminiModel
	default:
		return DefaultOpenAIModel
	}
}

// GetLocalHost returns the local engine base URL.
func (c *Config) GetLocalHost() string {
	if c.LocalEngine.Host == "" {
		return DefaultLocalHost
	}
	return strings.TrimRight(c.LocalEngine.Host, "/")
}

// IsSecurityEnabled reports whether a dangerous command needs a typed "yes".
// Commands are classified and withheld from auto-run either way.
func (c *Config) IsSecurityEnabled() bool {
	return c.Security.Enabled
}

// GetMatchMode returns the classifier match mode, prefix by default.
func (c *Config) GetMatchMode() MatchMode {
	if c.Security.MatchMode == MatchSubstring {
		return MatchSubstring
	}
	return MatchPrefix
}

// ShouldConfirmBeforeExecution checks if user confirmation is required before execution
func (c *Config) ShouldConfirmBeforeExecution() bool {
	return c.Execution.ConfirmBeforeExecute
}

// ShouldAutoConfirmSafe checks if safe commands run without a prompt.
func (c *Config) ShouldAutoConfirmSafe() bool {
	return c.Preferences.AutoConfirmSafe
}

// GetExecutionShell returns the configured shell for command execution.
// "auto" and empty both defer to $SHELL.
func (c *Config) GetExecutionShell() string {
	if c.Execution.Shell == "" || c.Execution.Shell == "auto" {
		return ""
	}
	return c.Execution.Shell
}

// GetMaxContextFiles returns the maximum number of files to include in context
func (c *Config) GetMaxContextFiles() int {
	const defaultMaxFiles = 5
	if c.Context.MaxFiles <= 0 {
		return defaultMaxFiles
	}
	return c.Context.MaxFiles
}

// GetCacheMaxEntries returns the maximum number of cache entries
func (c *Config) GetCacheMaxEntries() int {
	if c.Cache.MaxEntries <= 0 {
		return DefaultMaxCacheEntries
	}
	return c.Cache.MaxEntries
}

// GetCacheTTL returns how long a cached reply stays valid.
func (c *Config) GetCacheTTL() time.Duration {
	if c.Cache.TTLMinutes <= 0 {
		return DefaultCacheTTL
	}
	return time.Duration(c.Cache.TTLMinutes) * time.Minute
}

// GetTimeout returns the backend request timeout.
func (c *Config) GetTimeout() time.Duration {
	const defaultTimeoutSeconds = 60
	if c.Preferences.TimeoutSeconds <= 0 {
		return defaultTimeoutSeconds * time.Second
	}
	return time.Duration(c.Preferences.TimeoutSeconds) * time.Second
}

// ValidateConsistency checks the internal consistency of the configuration.
func (c *Config) ValidateConsistency() error {
	if _, err := c.ProviderKind(); err != nil {
		return err
	}
	switch c.Security.MatchMode {
	case "", MatchPrefix, MatchSubstring:
	default:
		return fmt.Errorf("security.match_mode %q must be %q or %q", c.Security.MatchMode, MatchPrefix, MatchSubstring)
	}
	switch c.Preferences.PreviewMode {
	case "", PreviewAlways, PreviewNever:
	default:
		return fmt.Errorf("preferences.preview_mode %q must be %q or %q", c.Preferences.PreviewMode, PreviewAlways, PreviewNever)
	}
	if c.Provider.MaxTokens < 0 {
		return fmt.Errorf("provider.max_tokens must be >= 0")
	}
	return nil
}
