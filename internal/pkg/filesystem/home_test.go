package filesystem

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPaths(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	assert.Equal(t, filepath.Join(home, ".shai", "cache", "responses"), DataPath("cache", "responses"))

	tests := map[string]string{
		"":                "",
		"~":               home,
		"~/rules.yaml":    filepath.Join(home, "rules.yaml"),
		" /etc//x.yaml ":  "/etc/x.yaml",
		"relative/./file": "relative/file",
	}
	for in, want := range tests {
		assert.Equal(t, want, ExpandHome(in), "input %q", in)
	}
}
