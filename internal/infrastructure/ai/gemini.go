package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/doeshing/shai-go/internal/domain"
	"github.com/doeshing/shai-go/internal/ports"
)

// generateContentFunc matches (*genai.Models).GenerateContent.
type generateContentFunc func(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)

// geminiBackend calls the Gemini API through the genai SDK.
type geminiBackend struct {
	cfg      domain.Config
	apiKey   string
	generate generateContentFunc
}

func newGeminiBackend(cfg domain.Config) *geminiBackend {
	return &geminiBackend{cfg: cfg, apiKey: cfg.ResolveAPIKey()}
}

func (b *geminiBackend) Name() string {
	return string(domain.ProviderGemini)
}

func (b *geminiBackend) Model() string {
	return b.cfg.GetModel()
}

func (b *geminiBackend) Generate(ctx context.Context, req domain.GenerateRequest) (string, error) {
	generate, err := b.client(ctx)
	if err != nil {
		return "", b.transport(err)
	}

	messages, err := renderPromptMessages(b.cfg.Provider.Prompt, req)
	if err != nil {
		return "", fmt.Errorf("render prompt: %w", err)
	}
	system, chat := systemPrompt(messages)

	config := &genai.GenerateContentConfig{}
	if system != "" {
		config.SystemInstruction = genai.NewContentFromText(system, genai.RoleUser)
	}
	if maxTokens := b.cfg.Provider.MaxTokens; maxTokens > 0 {
		config.MaxOutputTokens = int32(maxTokens)
	} else {
		config.MaxOutputTokens = domain.DefaultMaxTokens
	}

	contents := make([]*genai.Content, 0, len(chat))
	for _, msg := range chat {
		role := genai.Role(genai.RoleUser)
		if msg.Role == "assistant" || msg.Role == "model" {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(msg.Content, role))
	}

	resp, err := generate(ctx, b.Model(), contents, config)
	if err != nil {
		return "", b.transport(err)
	}
	if resp == nil || len(resp.Candidates) == 0 {
		reason := "no candidates"
		if resp != nil && resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
			reason = "prompt blocked: " + string(resp.PromptFeedback.BlockReason)
		}
		return "", b.transport(errors.New(reason))
	}
	return strings.TrimSpace(resp.Text()), nil
}

func (b *geminiBackend) client(ctx context.Context) (generateContentFunc, error) {
	if b.generate != nil {
		return b.generate, nil
	}
	if b.apiKey == "" {
		return nil, errors.New("missing API key: set provider.api_key, provider.auth_env_var or GEMINI_API_KEY")
	}
	clientConfig := &genai.ClientConfig{
		APIKey:  b.apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if endpoint := strings.TrimSpace(b.cfg.Provider.Endpoint); endpoint != "" {
		clientConfig.HTTPOptions = genai.HTTPOptions{BaseURL: endpoint}
	}
	client, err := genai.NewClient(ctx, clientConfig)
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	b.generate = client.Models.GenerateContent
	return b.generate, nil
}

func (b *geminiBackend) transport(err error) error {
	return &domain.TransportError{Provider: b.Name(), Cause: err}
}

var _ ports.Backend = (*geminiBackend)(nil)
