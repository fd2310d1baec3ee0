package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"github.com/doeshing/shai-go/internal/domain"
	"github.com/doeshing/shai-go/internal/infrastructure/engine"
)

func TestFactoryForConfig(t *testing.T) {
	f := NewFactory(nil, nil)

	tests := []struct {
		provider string
		name     string
		model    string
	}{
		{provider: "openaiLike", name: "openai", model: domain.DefaultOpenAIModel},
		{provider: "geminiLike", name: "gemini", model: domain.DefaultGeminiModel},
		{provider: "local", name: "local", model: domain.DefaultLocalModel},
	}
	for _, tt := range tests {
		t.Run(tt.provider, func(t *testing.T) {
			backend, err := f.ForConfig(domain.Config{Provider: domain.ProviderConfig{Name: tt.provider}})
			require.NoError(t, err)
			assert.Equal(t, tt.name, backend.Name())
			assert.Equal(t, tt.model, backend.Model())
		})
	}

	_, err := f.ForConfig(domain.Config{Provider: domain.ProviderConfig{Name: "bard"}})
	assert.Error(t, err)
}

func TestOpenAIBackendGenerate(t *testing.T) {
	t.Setenv("OPENAI_ORG_ID", "org-123")

	var captured map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		assert.Equal(t, "org-123", r.Header.Get("OpenAI-Organization"))
		assert.Equal(t, "yes", r.Header.Get("X-Extra"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		fmt.Fprint(w, `{"choices":[{"message":{"role":"assistant","content":"  `+"```bash\\nls -la\\n```"+`  "}}]}`)
	}))
	defer srv.Close()

	cfg := domain.Config{Provider: domain.ProviderConfig{
		Name:      "openai",
		APIKey:    "sk-test",
		Endpoint:  srv.URL,
		MaxTokens: 77,
		APIFormat: domain.APIFormat{ExtraHeaders: map[string]string{"X-Extra": "yes"}},
	}}
	backend, err := NewFactory(nil, nil).WithHTTPClient(srv.Client()).ForConfig(cfg)
	require.NoError(t, err)

	raw, err := backend.Generate(context.Background(), domain.GenerateRequest{Task: "list files", OSContext: "linux", ShellContext: "bash"})
	require.NoError(t, err)
	assert.Equal(t, "```bash\nls -la\n```", raw)

	assert.Equal(t, domain.DefaultOpenAIModel, captured["model"])
	assert.EqualValues(t, 77, captured["max_tokens"])
	messages, ok := captured["messages"].([]interface{})
	require.True(t, ok)
	require.Len(t, messages, 2)
	assert.Equal(t, "system", messages[0].(map[string]interface{})["role"])
	assert.Equal(t, "list files", messages[1].(map[string]interface{})["content"])
}

func TestOpenAIBackendCustomResponsePath(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "key-1", r.Header.Get("X-Api-Key"))
		fmt.Fprint(w, `{"content":[{"type":"text","text":"pwd"}]}`)
	}))
	defer srv.Close()

	cfg := domain.Config{Provider: domain.ProviderConfig{
		Name:     "openai",
		APIKey:   "key-1",
		Endpoint: srv.URL,
		APIFormat: domain.APIFormat{
			AuthHeaderName:   "X-Api-Key",
			ResponseJSONPath: "content[0].text",
		},
	}}
	backend := newOpenAIBackend(cfg, srv.Client())
	raw, err := backend.Generate(context.Background(), domain.GenerateRequest{Task: "where am i"})
	require.NoError(t, err)
	assert.Equal(t, "pwd", raw)
}

func TestOpenAIBackendTransportErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"error":{"message":"Incorrect API key provided"}}`)
	}))
	defer srv.Close()

	cfg := domain.Config{Provider: domain.ProviderConfig{Name: "openai", APIKey: "bad", Endpoint: srv.URL}}
	_, err := newOpenAIBackend(cfg, srv.Client()).Generate(context.Background(), domain.GenerateRequest{Task: "x"})

	var transport *domain.TransportError
	require.True(t, errors.As(err, &transport))
	assert.Equal(t, "openai", transport.Provider)
	assert.Contains(t, err.Error(), "HTTP 401")
	assert.Contains(t, err.Error(), "Incorrect API key provided")

	t.Setenv("OPENAI_API_KEY", "")
	_, err = newOpenAIBackend(domain.Config{Provider: domain.ProviderConfig{Name: "openai"}}, srv.Client()).
		Generate(context.Background(), domain.GenerateRequest{Task: "x"})
	require.True(t, errors.As(err, &transport))
	assert.Contains(t, err.Error(), "missing API key")

	malformed := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"choices":[]}`)
	}))
	defer malformed.Close()
	cfg.Provider.Endpoint = malformed.URL
	_, err = newOpenAIBackend(cfg, malformed.Client()).Generate(context.Background(), domain.GenerateRequest{Task: "x"})
	require.True(t, errors.As(err, &transport))
	assert.Contains(t, err.Error(), "out of bounds")
}

func TestGeminiBackendGenerate(t *testing.T) {
	cfg := domain.Config{Provider: domain.ProviderConfig{Name: "gemini", Model: "gemini-test", MaxTokens: 99}}
	backend := newGeminiBackend(cfg)

	var gotModel string
	var gotConfig *genai.GenerateContentConfig
	var gotContents []*genai.Content
	backend.generate = func(_ context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
		gotModel, gotContents, gotConfig = model, contents, config
		return &genai.GenerateContentResponse{
			Candidates: []*genai.Candidate{{Content: genai.NewContentFromText("```sh\ndf -h\n```", genai.RoleModel)}},
		}, nil
	}

	raw, err := backend.Generate(context.Background(), domain.GenerateRequest{Task: "disk usage", OSContext: "darwin", ShellContext: "zsh"})
	require.NoError(t, err)
	assert.Equal(t, "```sh\ndf -h\n```", raw)
	assert.Equal(t, "gemini-test", gotModel)
	assert.EqualValues(t, 99, gotConfig.MaxOutputTokens)
	require.NotNil(t, gotConfig.SystemInstruction)
	assert.Contains(t, gotConfig.SystemInstruction.Parts[0].Text, "zsh")
	assert.Contains(t, gotConfig.SystemInstruction.Parts[0].Text, "darwin")
	require.Len(t, gotContents, 1)
	assert.Equal(t, "disk usage", gotContents[0].Parts[0].Text)
}

func TestGeminiBackendErrors(t *testing.T) {
	backend := newGeminiBackend(domain.Config{Provider: domain.ProviderConfig{Name: "gemini"}})
	backend.generate = func(context.Context, string, []*genai.Content, *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
		return &genai.GenerateContentResponse{}, nil
	}
	_, err := backend.Generate(context.Background(), domain.GenerateRequest{Task: "x"})
	var transport *domain.TransportError
	require.True(t, errors.As(err, &transport))
	assert.Equal(t, "gemini", transport.Provider)

	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("GOOGLE_API_KEY", "")
	_, err = newGeminiBackend(domain.Config{Provider: domain.ProviderConfig{Name: "gemini"}}).
		Generate(context.Background(), domain.GenerateRequest{Task: "x"})
	require.True(t, errors.As(err, &transport))
	assert.Contains(t, err.Error(), "missing API key")
}

type stubGate struct {
	handle engine.Handle
	err    error
	calls  int
}

func (g *stubGate) EnsureReady(context.Context, engine.ProgressFunc) (engine.Handle, error) {
	g.calls++
	return g.handle, g.err
}

type stubHandle struct {
	reply    string
	err      error
	messages []domain.PromptMessage
}

func (h *stubHandle) Chat(_ context.Context, messages []domain.PromptMessage) (string, error) {
	h.messages = messages
	return h.reply, h.err
}

func TestLocalBackendGenerate(t *testing.T) {
	handle := &stubHandle{reply: "```\nuptime\n```"}
	gate := &stubGate{handle: handle}
	backend, err := NewFactory(gate, nil).ForConfig(domain.Config{Provider: domain.ProviderConfig{Name: "local"}})
	require.NoError(t, err)

	raw, err := backend.Generate(context.Background(), domain.GenerateRequest{Task: "how long has this box been up", ExplainMode: true})
	require.NoError(t, err)
	assert.Equal(t, "```\nuptime\n```", raw)
	assert.Equal(t, 1, gate.calls)
	require.Len(t, handle.messages, 2)
	assert.Contains(t, handle.messages[0].Content, "describe what the command does")
}

func TestLocalBackendErrors(t *testing.T) {
	engineErr := &domain.EngineError{Kind: domain.ErrAlreadyInErrorState}
	backend := newLocalBackend(domain.Config{}, &stubGate{err: engineErr}, nil)
	_, err := backend.Generate(context.Background(), domain.GenerateRequest{Task: "x"})
	require.ErrorIs(t, err, domain.ErrAlreadyInErrorState)

	backend = newLocalBackend(domain.Config{}, &stubGate{handle: &stubHandle{err: errors.New("connection refused")}}, nil)
	_, err = backend.Generate(context.Background(), domain.GenerateRequest{Task: "x"})
	var transport *domain.TransportError
	require.True(t, errors.As(err, &transport))
	assert.Equal(t, "local", transport.Provider)

	backend = newLocalBackend(domain.Config{}, nil, nil)
	_, err = backend.Generate(context.Background(), domain.GenerateRequest{Task: "x"})
	require.ErrorIs(t, err, domain.ErrLoadFailed)
}
