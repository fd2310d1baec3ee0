package domain_test

import (
	"testing"
	"time"

	"github.com/doeshing/shai-go/internal/domain"
)

// TestConfig_ProviderKind tests resolving the configured provider name
func TestConfig_ProviderKind(t *testing.T) {
	tests := []struct {
		name      string
		provider  string
		want      domain.ProviderKind
		wantError bool
	}{
		{name: "local", provider: "local", want: domain.ProviderLocal},
		{name: "openai like spelling", provider: "openaiLike", want: domain.ProviderOpenAI},
		{name: "gemini like spelling", provider: "geminiLike", want: domain.ProviderGemini},
		{name: "case and whitespace", provider: "  OpenAI ", want: domain.ProviderOpenAI},
		{name: "unknown provider", provider: "anthropic", wantError: true},
		{name: "empty provider", provider: "", wantError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := domain.Config{Provider: domain.ProviderConfig{Name: tt.provider}}
			kind, err := cfg.ProviderKind()
			if tt.wantError {
				if err == nil {
					t.Error("expected error but got none")
				}
				return
			}
			if err != nil {
				t.Errorf("unexpected error: %v", err)
				return
			}
			if kind != tt.want {
				t.Errorf("got %s, want %s", kind, tt.want)
			}
		})
	}
}

// TestConfig_SetProvider tests switching the active backend
func TestConfig_SetProvider(t *testing.T) {
	cfg := domain.Config{
		Provider: domain.ProviderConfig{
			Name:     "openai",
			Model:    "gpt-4o",
			Endpoint: "https://example.test/v1/chat/completions",
		},
	}

	if err := cfg.SetProvider("gemini", ""); err != nil {
		t.Fatalf("SetProvider error: %v", err)
	}
	if cfg.Provider.Name != "gemini" {
		t.Errorf("expected provider gemini, got %s", cfg.Provider.Name)
	}
	if cfg.Provider.Endpoint != "" || cfg.Provider.Model != "" {
		t.Errorf("expected endpoint and model reset, got %+v", cfg.Provider)
	}
	if cfg.GetModel() != domain.DefaultGeminiModel {
		t.Errorf("expected default gemini model, got %s", cfg.GetModel())
	}

	if err := cfg.SetProvider("gemini", "gemini-1.5-pro"); err != nil {
		t.Fatalf("SetProvider error: %v", err)
	}
	if cfg.GetModel() != "gemini-1.5-pro" {
		t.Errorf("expected explicit model, got %s", cfg.GetModel())
	}

	if err := cfg.SetProvider("bogus", ""); err == nil {
		t.Error("expected error for unsupported provider")
	}
}

// TestConfig_ResolveAPIKey tests key resolution order
func TestConfig_ResolveAPIKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "env-default")
	t.Setenv("SHAI_TEST_KEY", "env-custom")

	cfg := domain.Config{Provider: domain.ProviderConfig{Name: "openai"}}
	if got := cfg.ResolveAPIKey(); got != "env-default" {
		t.Errorf("expected conventional env var, got %q", got)
	}

	cfg.Provider.AuthEnvVar = "SHAI_TEST_KEY"
	if got := cfg.ResolveAPIKey(); got != "env-custom" {
		t.Errorf("expected auth_env_var value, got %q", got)
	}

	cfg.Provider.APIKey = "inline"
	if got := cfg.ResolveAPIKey(); got != "inline" {
		t.Errorf("expected inline key, got %q", got)
	}

	local := domain.Config{Provider: domain.ProviderConfig{Name: "local"}}
	if local.RequiresAPIKey() {
		t.Error("local provider should not require an API key")
	}
}

// TestConfig_Defaults tests fallback values
func TestConfig_Defaults(t *testing.T) {
	var cfg domain.Config

	if cfg.GetMatchMode() != domain.MatchPrefix {
		t.Errorf("expected prefix match mode, got %s", cfg.GetMatchMode())
	}
	if cfg.GetTimeout() != 60*time.Second {
		t.Errorf("expected 60s timeout, got %s", cfg.GetTimeout())
	}
	if cfg.GetCacheTTL() != domain.DefaultCacheTTL {
		t.Errorf("expected default cache ttl, got %s", cfg.GetCacheTTL())
	}
	if cfg.GetLocalHost() != domain.DefaultLocalHost {
		t.Errorf("expected default local host, got %s", cfg.GetLocalHost())
	}
	if cfg.GetExecutionShell() != "" {
		t.Errorf("expected empty shell, got %s", cfg.GetExecutionShell())
	}

	cfg.LocalEngine.Host = "http://localhost:9999/"
	if cfg.GetLocalHost() != "http://localhost:9999" {
		t.Errorf("expected trailing slash trimmed, got %s", cfg.GetLocalHost())
	}
}

// TestConfig_ValidateConsistency tests configuration consistency validation
func TestConfig_ValidateConsistency(t *testing.T) {
	tests := []struct {
		name      string
		config    domain.Config
		wantError bool
	}{
		{
			name: "valid configuration",
			config: domain.Config{
				Provider: domain.ProviderConfig{Name: "local"},
				Security: domain.SecuritySettings{MatchMode: domain.MatchSubstring},
			},
			wantError: false,
		},
		{
			name: "invalid: unknown provider",
			config: domain.Config{
				Provider: domain.ProviderConfig{Name: "nonexistent"},
			},
			wantError: true,
		},
		{
			name: "invalid: match mode",
			config: domain.Config{
				Provider: domain.ProviderConfig{Name: "openai"},
				Security: domain.SecuritySettings{MatchMode: "fuzzy"},
			},
			wantError: true,
		},
		{
			name: "invalid: preview mode",
			config: domain.Config{
				Provider:    domain.ProviderConfig{Name: "openai"},
				Preferences: domain.Preferences{PreviewMode: "sometimes"},
			},
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.ValidateConsistency()

			if tt.wantError {
				if err == nil {
					t.Error("expected error but got none")
				}
			} else {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
			}
		})
	}
}
