package ai

import (
	"context"
	"errors"
	"fmt"

	"github.com/doeshing/shai-go/internal/domain"
	"github.com/doeshing/shai-go/internal/infrastructure/engine"
	"github.com/doeshing/shai-go/internal/ports"
)

// EngineGate hands out a ready local engine.
type EngineGate interface {
	EnsureReady(ctx context.Context, progress engine.ProgressFunc) (engine.Handle, error)
}

// localBackend runs inference on the locally hosted engine. Engine lifecycle
// errors pass through unchanged; inference failures become transport errors.
type localBackend struct {
	cfg      domain.Config
	gate     EngineGate
	progress engine.ProgressFunc
}

func newLocalBackend(cfg domain.Config, gate EngineGate, progress engine.ProgressFunc) *localBackend {
	return &localBackend{cfg: cfg, gate: gate, progress: progress}
}

func (b *localBackend) Name() string {
	return string(domain.ProviderLocal)
}

func (b *localBackend) Model() string {
	return b.cfg.GetModel()
}

func (b *localBackend) Generate(ctx context.Context, req domain.GenerateRequest) (string, error) {
	if b.gate == nil {
		return "", &domain.EngineError{Kind: domain.ErrLoadFailed, Cause: errors.New("local engine is not configured")}
	}
	handle, err := b.gate.EnsureReady(ctx, b.progress)
	if err != nil {
		return "", err
	}

	messages, err := renderPromptMessages(b.cfg.Provider.Prompt, req)
	if err != nil {
		return "", fmt.Errorf("render prompt: %w", err)
	}

	reply, err := handle.Chat(ctx, messages)
	if err != nil {
		return "", &domain.TransportError{Provider: b.Name(), Cause: err}
	}
	return reply, nil
}

var _ ports.Backend = (*localBackend)(nil)
