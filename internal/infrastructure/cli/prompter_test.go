package cli

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doeshing/shai-go/internal/domain"
)

func TestPrompterConfirm(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{input: "y\n", want: true},
		{input: "YES\n", want: true},
		{input: "n\n", want: false},
		{input: "\n", want: false},
		{input: "y", want: true},
	}
	for _, tt := range tests {
		var out bytes.Buffer
		p := NewPrompter(strings.NewReader(tt.input), &out)
		got, err := p.Confirm("ls -la", "")
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "input %q", tt.input)
		assert.Contains(t, out.String(), "ls -la")
		assert.True(t, p.Shown())
	}
}

func TestPrompterConfirmDangerousRequiresWord(t *testing.T) {
	verdict := domain.DangerVerdict{Dangerous: true, Category: "filesystem_wipe", MatchedPattern: "rm -rf ~", Segment: "rm -rf ~"}

	for input, want := range map[string]bool{"yes\n": true, "y\n": false, "YES\n": false, "\n": false} {
		var out bytes.Buffer
		p := NewPrompter(strings.NewReader(input), &out)
		got, err := p.ConfirmDangerous("rm -rf ~", verdict)
		require.NoError(t, err)
		assert.Equal(t, want, got, "input %q", input)
		assert.Contains(t, out.String(), "DANGEROUS COMMAND")
	}
}

func TestPrompterEOF(t *testing.T) {
	p := NewPrompter(strings.NewReader(""), io.Discard)
	_, err := p.Confirm("ls", "")
	assert.ErrorIs(t, err, io.EOF)
	assert.False(t, p.Enabled())
}

func TestPrompterBeforePrompt(t *testing.T) {
	calls := 0
	p := NewPrompter(strings.NewReader("n\n"), io.Discard)
	p.BeforePrompt = func() { calls++ }
	_, err := p.Confirm("ls", "")
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}
