package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/doeshing/shai-go/internal/domain"
	"github.com/doeshing/shai-go/internal/ports"
)

// openAIBackend talks to any OpenAI-compatible chat completions endpoint.
// Header names and the response path come from the provider's APIFormat.
type openAIBackend struct {
	cfg        domain.Config
	apiKey     string
	httpClient *http.Client
}

func newOpenAIBackend(cfg domain.Config, client *http.Client) *openAIBackend {
	return &openAIBackend{
		cfg:        cfg,
		apiKey:     cfg.ResolveAPIKey(),
		httpClient: client,
	}
}

func (b *openAIBackend) Name() string {
	return string(domain.ProviderOpenAI)
}

func (b *openAIBackend) Model() string {
	return b.cfg.GetModel()
}

func (b *openAIBackend) Generate(ctx context.Context, req domain.GenerateRequest) (string, error) {
	if b.apiKey == "" {
		return "", b.transport(errors.New("missing API key: set provider.api_key, provider.auth_env_var or OPENAI_API_KEY"))
	}

	messages, err := renderPromptMessages(b.cfg.Provider.Prompt, req)
	if err != nil {
		return "", fmt.Errorf("render prompt: %w", err)
	}

	body, err := b.buildRequestBody(messages)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, b.endpoint(), bytes.NewReader(body))
	if err != nil {
		return "", b.transport(fmt.Errorf("create HTTP request: %w", err))
	}
	httpReq.Header.Set("Content-Type", "application/json")
	b.setHeaders(httpReq)

	resp, err := b.httpClient.Do(httpReq)
	if err != nil {
		return "", b.transport(fmt.Errorf("HTTP request failed: %w", err))
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", b.transport(fmt.Errorf("read response body: %w", err))
	}
	if resp.StatusCode >= 400 {
		return "", b.transport(fmt.Errorf("HTTP %d: %s", resp.StatusCode, errorMessage(data, resp.Status)))
	}

	content, err := b.parseResponse(data)
	if err != nil {
		return "", b.transport(fmt.Errorf("parse response: %w", err))
	}
	return content, nil
}

func (b *openAIBackend) endpoint() string {
	return valueOrDefault(b.cfg.Provider.Endpoint, domain.DefaultOpenAIURL)
}

func (b *openAIBackend) buildRequestBody(messages []domain.PromptMessage) ([]byte, error) {
	chat := make([]map[string]string, 0, len(messages))
	for _, msg := range messages {
		chat = append(chat, map[string]string{"role": msg.Role, "content": msg.Content})
	}
	request := map[string]interface{}{
		"model":    b.Model(),
		"messages": chat,
	}
	maxTokens := b.cfg.Provider.MaxTokens
	if maxTokens <= 0 {
		maxTokens = domain.DefaultMaxTokens
	}
	request["max_tokens"] = maxTokens
	return json.Marshal(request)
}

func (b *openAIBackend) setHeaders(req *http.Request) {
	format := b.cfg.Provider.APIFormat
	req.Header.Set(format.GetAuthHeaderName(), format.GetAuthHeaderPrefix()+b.apiKey)

	orgVar := valueOrDefault(b.cfg.Provider.OrgEnvVar, "OPENAI_ORG_ID")
	if org := os.Getenv(orgVar); org != "" {
		req.Header.Set("OpenAI-Organization", org)
	}
	for key, value := range format.ExtraHeaders {
		req.Header.Set(key, value)
	}
}

func (b *openAIBackend) parseResponse(body []byte) (string, error) {
	var doc interface{}
	if err := json.Unmarshal(body, &doc); err != nil {
		return "", fmt.Errorf("unmarshal JSON: %w", err)
	}
	path := b.cfg.Provider.APIFormat.GetResponseJSONPath()
	content, err := extractJSONPath(doc, path)
	if err != nil {
		return "", fmt.Errorf("extract from path '%s': %w", path, err)
	}
	return strings.TrimSpace(content), nil
}

func (b *openAIBackend) transport(err error) error {
	return &domain.TransportError{Provider: b.Name(), Cause: err}
}

// errorMessage pulls "error.message" out of an API error body when present.
func errorMessage(body []byte, fallback string) string {
	var doc interface{}
	if json.Unmarshal(body, &doc) == nil {
		if msg, err := extractJSONPath(doc, "error.message"); err == nil && msg != "" {
			return msg
		}
	}
	if text := strings.TrimSpace(string(body)); text != "" && len(text) < 300 {
		return text
	}
	return fallback
}

var _ ports.Backend = (*openAIBackend)(nil)
