package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doeshing/shai-go/internal/domain"
)

func newOllamaServer(t *testing.T, pull []string) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/api/tags", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"models":[{"name":"qwen2.5-coder:1.5b","model":"qwen2.5-coder:1.5b"},{"name":"llama3:latest"}]}`)
	})
	mux.HandleFunc("/api/pull", func(w http.ResponseWriter, r *http.Request) {
		for _, line := range pull {
			fmt.Fprintln(w, line)
		}
	})
	mux.HandleFunc("/api/generate", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]interface{}
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["model"] == "missing" {
			w.WriteHeader(http.StatusNotFound)
			fmt.Fprint(w, `{"error":"model 'missing' not found"}`)
			return
		}
		fmt.Fprint(w, `{"model":"x","response":"","done":true}`)
	})
	mux.HandleFunc("/api/chat", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Messages []chatMessage  `json:"messages"`
			Stream   bool           `json:"stream"`
			Options  map[string]int `json:"options"`
		}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.False(t, body.Stream)
		assert.Equal(t, 128, body.Options["num_predict"])
		reply := "```bash\nls -la\n```"
		if len(body.Messages) > 0 {
			reply += "\n" + body.Messages[len(body.Messages)-1].Content
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"message": map[string]string{"role": "assistant", "content": reply},
			"done":    true,
		})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestOllamaCached(t *testing.T) {
	srv := newOllamaServer(t, nil)

	for model, want := range map[string]bool{
		"qwen2.5-coder:1.5b": true,
		"llama3":             true,
		"mistral":            false,
	} {
		o := NewOllama(OllamaConfig{Host: srv.URL + "/", Model: model}, srv.Client())
		got, err := o.Cached(context.Background())
		require.NoError(t, err)
		assert.Equal(t, want, got, model)
	}
}

func TestOllamaDownloadReportsProgress(t *testing.T) {
	srv := newOllamaServer(t, []string{
		`{"status":"pulling manifest"}`,
		`{"status":"pulling a","digest":"sha256:a","total":100,"completed":50}`,
		`{"status":"pulling b","digest":"sha256:b","total":100,"completed":0}`,
		`{"status":"pulling a","digest":"sha256:a","total":100,"completed":100}`,
		`{"status":"pulling b","digest":"sha256:b","total":100,"completed":100}`,
		`{"status":"verifying sha256 digest"}`,
		`{"status":"success"}`,
	})
	o := NewOllama(OllamaConfig{Host: srv.URL, Model: "m"}, srv.Client())

	var got []int
	require.NoError(t, o.Download(context.Background(), func(p int) { got = append(got, p) }))
	assert.Equal(t, []int{50, 25, 50, 100}, got)
}

func TestOllamaDownloadErrors(t *testing.T) {
	srv := newOllamaServer(t, []string{`{"error":"pull model manifest: file does not exist"}`})
	o := NewOllama(OllamaConfig{Host: srv.URL, Model: "m"}, srv.Client())
	err := o.Download(context.Background(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "file does not exist")

	truncated := newOllamaServer(t, []string{`{"status":"pulling manifest"}`})
	o = NewOllama(OllamaConfig{Host: truncated.URL, Model: "m"}, truncated.Client())
	assert.Error(t, o.Download(context.Background(), nil))
}

func TestOllamaLoadAndChat(t *testing.T) {
	srv := newOllamaServer(t, nil)
	o := NewOllama(OllamaConfig{Host: srv.URL, Model: "qwen2.5-coder:1.5b", KeepAlive: "5m", MaxTokens: 128}, srv.Client())

	handle, err := o.Load(context.Background(), nil)
	require.NoError(t, err)

	reply, err := handle.Chat(context.Background(), []domain.PromptMessage{
		{Role: "System", Content: "be brief"},
		{Role: "user", Content: "list files"},
	})
	require.NoError(t, err)
	assert.Equal(t, "```bash\nls -la\n```\nlist files", reply)
}

func TestOllamaLoadMissingModel(t *testing.T) {
	srv := newOllamaServer(t, nil)
	o := NewOllama(OllamaConfig{Host: srv.URL, Model: "missing"}, srv.Client())

	_, err := o.Load(context.Background(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HTTP 404")
	assert.Contains(t, err.Error(), "not found")
}

func TestFromConfig(t *testing.T) {
	cfg := domain.Config{
		Provider:    domain.ProviderConfig{Name: "local", MaxTokens: 64},
		LocalEngine: domain.LocalEngineConfig{Host: "http://gpu-box:11434/", KeepAlive: "10m"},
	}
	got := FromConfig(cfg)
	assert.Equal(t, "http://gpu-box:11434", got.Host)
	assert.Equal(t, domain.DefaultLocalModel, got.Model)
	assert.Equal(t, "10m", got.KeepAlive)
	assert.Equal(t, 64, got.MaxTokens)
}
