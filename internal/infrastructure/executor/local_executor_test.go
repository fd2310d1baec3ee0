//go:build !windows

package executor

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecuteCapturesOutput(t *testing.T) {
	var mirrored bytes.Buffer
	exec := NewLocalExecutor("/bin/sh", WithStreams(nil, &mirrored, nil))

	result, err := exec.Execute(context.Background(), "echo hello && echo oops 1>&2")
	require.NoError(t, err)
	assert.True(t, result.Ran)
	assert.Equal(t, 0, result.ExitCode)
	assert.Equal(t, "hello\n", result.Stdout)
	assert.Equal(t, "oops\n", result.Stderr)
	assert.Equal(t, "hello\n", mirrored.String())
}

func TestExecuteNonZeroExit(t *testing.T) {
	result, err := NewLocalExecutor("/bin/sh").Execute(context.Background(), "exit 3")
	require.NoError(t, err)
	assert.True(t, result.Ran)
	assert.Equal(t, 3, result.ExitCode)
	assert.Error(t, result.Err)
}

func TestExecuteMissingShell(t *testing.T) {
	result, err := NewLocalExecutor(filepath.Join(t.TempDir(), "nosh")).Execute(context.Background(), "true")
	require.Error(t, err)
	assert.False(t, result.Ran)
}

func TestResolveShell(t *testing.T) {
	t.Setenv("SHELL", "/bin/zsh")
	assert.Equal(t, "/bin/bash", ResolveShell("/bin/bash"))
	assert.Equal(t, "/bin/zsh", ResolveShell(""))
	t.Setenv("SHELL", "")
	assert.Equal(t, "/bin/sh", ResolveShell(""))
}
