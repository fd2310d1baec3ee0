package engine

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/doeshing/shai-go/internal/domain"
)

// OllamaConfig addresses one model on an Ollama server.
type OllamaConfig struct {
	Host      string
	Model     string
	KeepAlive string
	MaxTokens int
}

// Ollama implements AssetStore and Loader on top of the Ollama HTTP API.
type Ollama struct {
	cfg    OllamaConfig
	client *http.Client
}

// NewOllama creates an adapter. A nil client uses one without a timeout, since
// pulls can run for minutes; requests are bounded by their context.
func NewOllama(cfg OllamaConfig, client *http.Client) *Ollama {
	if client == nil {
		client = &http.Client{}
	}
	cfg.Host = strings.TrimRight(cfg.Host, "/")
	return &Ollama{cfg: cfg, client: client}
}

// FromConfig derives the adapter settings from the user configuration.
func FromConfig(cfg domain.Config) OllamaConfig {
	model := cfg.LocalEngine.Model
	if model == "" {
		model = domain.DefaultLocalModel
	}
	return OllamaConfig{
		Host:      cfg.GetLocalHost(),
		Model:     model,
		KeepAlive: cfg.LocalEngine.KeepAlive,
		MaxTokens: cfg.Provider.MaxTokens,
	}
}

type tagsResponse struct {
	Models []struct {
		Name  string `json:"name"`
		Model string `json:"model"`
	} `json:"models"`
}

// Cached reports whether the model is present in the server's local store.
func (o *Ollama) Cached(ctx context.Context) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, o.cfg.Host+"/api/tags", nil)
	if err != nil {
		return false, err
	}
	resp, err := o.client.Do(req)
	if err != nil {
		return false, fmt.Errorf("reach local engine at %s: %w", o.cfg.Host, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return false, apiError(resp)
	}

	var tags tagsResponse
	if err := json.NewDecoder(resp.Body).Decode(&tags); err != nil {
		return false, fmt.Errorf("decode model list: %w", err)
	}
	want := canonicalModel(o.cfg.Model)
	for _, m := range tags.Models {
		if canonicalModel(m.Name) == want || canonicalModel(m.Model) == want {
			return true, nil
		}
	}
	return false, nil
}

type pullEvent struct {
	Status    string `json:"status"`
	Digest    string `json:"digest"`
	Total     int64  `json:"total"`
	Completed int64  `json:"completed"`
	Error     string `json:"error"`
}

// Download pulls the model, streaming layer progress as an aggregate percentage.
func (o *Ollama) Download(ctx context.Context, progress ProgressFunc) error {
	body, err := json.Marshal(map[string]interface{}{"model": o.cfg.Model, "stream": true})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.cfg.Host+"/api/pull", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.client.Do(req)
	if err != nil {
		return fmt.Errorf("reach local engine at %s: %w", o.cfg.Host, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return apiError(resp)
	}

	totals := map[string]int64{}
	completed := map[string]int64{}
	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var event pullEvent
		if err := json.Unmarshal(line, &event); err != nil {
			return fmt.Errorf("decode pull progress: %w", err)
		}
		if event.Error != "" {
			return errors.New(event.Error)
		}
		if event.Status == "success" {
			return nil
		}
		if event.Digest != "" && event.Total > 0 {
			totals[event.Digest] = event.Total
			completed[event.Digest] = event.Completed
			if progress != nil {
				progress(percentOf(completed, totals))
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read pull progress: %w", err)
	}
	return errors.New("pull ended before the model was ready")
}

// Load asks the server to bring the model into memory. An empty generate
// request only loads the model.
func (o *Ollama) Load(ctx context.Context, progress ProgressFunc) (Handle, error) {
	payload := map[string]interface{}{"model": o.cfg.Model, "stream": false}
	if o.cfg.KeepAlive != "" {
		payload["keep_alive"] = o.cfg.KeepAlive
	}
	if progress != nil {
		progress(10)
	}
	var out struct {
		Done bool `json:"done"`
	}
	if err := o.post(ctx, "/api/generate", payload, &out); err != nil {
		return nil, err
	}
	if !out.Done {
		return nil, errors.New("local engine did not finish loading the model")
	}
	return &ollamaHandle{o: o}, nil
}

type ollamaHandle struct {
	o *Ollama
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Chat sends a non-streaming chat request.
func (h *ollamaHandle) Chat(ctx context.Context, messages []domain.PromptMessage) (string, error) {
	chat := make([]chatMessage, 0, len(messages))
	for _, msg := range messages {
		chat = append(chat, chatMessage{Role: strings.ToLower(msg.Role), Content: msg.Content})
	}
	payload := map[string]interface{}{
		"model":    h.o.cfg.Model,
		"messages": chat,
		"stream":   false,
	}
	if h.o.cfg.KeepAlive != "" {
		payload["keep_alive"] = h.o.cfg.KeepAlive
	}
	if h.o.cfg.MaxTokens > 0 {
		payload["options"] = map[string]interface{}{"num_predict": h.o.cfg.MaxTokens}
	}

	var out struct {
		Message chatMessage `json:"message"`
	}
	if err := h.o.post(ctx, "/api/chat", payload, &out); err != nil {
		return "", err
	}
	return strings.TrimSpace(out.Message.Content), nil
}

func (o *Ollama) post(ctx context.Context, path string, payload interface{}, out interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.cfg.Host+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.client.Do(req)
	if err != nil {
		return fmt.Errorf("reach local engine at %s: %w", o.cfg.Host, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return apiError(resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}

func apiError(resp *http.Response) error {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	var body struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(data, &body) == nil && body.Error != "" {
		return fmt.Errorf("HTTP %d: %s", resp.StatusCode, body.Error)
	}
	return fmt.Errorf("HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
}

func percentOf(completed, totals map[string]int64) int {
	var done, total int64
	for digest, size := range totals {
		total += size
		done += completed[digest]
	}
	if total == 0 {
		return 0
	}
	return int(done * 100 / total)
}

// canonicalModel treats "name" and "name:latest" as the same model.
func canonicalModel(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	if name != "" && !strings.Contains(name, ":") {
		name += ":latest"
	}
	return name
}

var (
	_ AssetStore = (*Ollama)(nil)
	_ Loader     = (*Ollama)(nil)
)
