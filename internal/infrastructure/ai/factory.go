// Package ai provides the text-generation backends and the factory that picks
// one from configuration.
//
// Three backends share one capability, ports.Backend:
//   - openai: any OpenAI-compatible chat completions endpoint, shaped by APIFormat
//   - gemini: the Gemini API through the genai SDK
//   - local: a locally hosted engine gated by the engine lifecycle
//
// Prompts are rendered from Go templates, either the provider's configured
// prompt or a default system/user pair.
package ai

import (
	"net/http"

	"github.com/doeshing/shai-go/internal/domain"
	"github.com/doeshing/shai-go/internal/infrastructure/engine"
	"github.com/doeshing/shai-go/internal/ports"
)

// Factory creates backends. It shares one HTTP client across hosted backends.
type Factory struct {
	httpClient *http.Client
	engine     EngineGate
	progress   engine.ProgressFunc
}

// NewFactory creates a factory. gate may be nil when no local engine is wired.
func NewFactory(gate EngineGate, progress engine.ProgressFunc) *Factory {
	return &Factory{
		httpClient: &http.Client{Timeout: domain.DefaultHTTPClientTimeout},
		engine:     gate,
		progress:   progress,
	}
}

// WithHTTPClient replaces the hosted backends' HTTP client.
func (f *Factory) WithHTTPClient(client *http.Client) *Factory {
	f.httpClient = client
	return f
}

// ForConfig returns the backend named by cfg.Provider.Name.
func (f *Factory) ForConfig(cfg domain.Config) (ports.Backend, error) {
	kind, err := cfg.ProviderKind()
	if err != nil {
		return nil, err
	}
	switch kind {
	case domain.ProviderOpenAI:
		return newOpenAIBackend(cfg, f.httpClient), nil
	case domain.ProviderGemini:
		return newGeminiBackend(cfg), nil
	default:
		return newLocalBackend(cfg, f.engine, f.progress), nil
	}
}

var _ ports.BackendFactory = (*Factory)(nil)
