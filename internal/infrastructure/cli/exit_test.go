package cli

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/doeshing/shai-go/internal/domain"
	"github.com/doeshing/shai-go/internal/infrastructure/cli/helpers"
)

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "nil", err: nil, want: ExitOK},
		{name: "generic", err: errors.New("boom"), want: ExitGeneral},
		{name: "no command", err: &domain.NoCommandFoundError{Raw: "hello"}, want: ExitNoCommandFound},
		{name: "blocked", err: fmt.Errorf("%w: rm", domain.ErrCommandBlocked), want: ExitBlocked},
		{name: "transport", err: &domain.TransportError{Provider: "openai", Cause: errors.New("401")}, want: ExitTransport},
		{name: "wrapped transport", err: fmt.Errorf("generate: %w", &domain.TransportError{Provider: "gemini"}), want: ExitTransport},
		{name: "engine", err: &domain.EngineError{Kind: domain.ErrDownloadFailed, Cause: errors.New("disk full")}, want: ExitEngine},
		{name: "silent", err: helpers.ExitError{Code: ExitBlocked}, want: ExitBlocked},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExitCode(tt.err))
		})
	}
	assert.True(t, IsSilent(helpers.ExitError{Code: 1}))
	assert.False(t, IsSilent(errors.New("x")))
}
