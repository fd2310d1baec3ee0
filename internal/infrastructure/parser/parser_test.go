package parser

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doeshing/shai-go/internal/domain"
)

func TestParseFencedBlockWithExplanation(t *testing.T) {
	raw := "Finds every .tmp file below the current directory and deletes it.\n\n```bash\nfind . -name '*.tmp' -delete\n```"

	got, err := Parse(raw, true)
	require.NoError(t, err)
	assert.Equal(t, "find . -name '*.tmp' -delete", got.Command)
	assert.Equal(t, "Finds every .tmp file below the current directory and deletes it.", got.Explanation)
	assert.True(t, got.HasExplanation())
}

func TestParseExplanationOnlyInExplainMode(t *testing.T) {
	raw := "Lists files by size.\n```sh\nls -lS\n```"

	got, err := Parse(raw, false)
	require.NoError(t, err)
	assert.Equal(t, "ls -lS", got.Command)
	assert.Empty(t, got.Explanation)
}

func TestParseRefusalIsNoCommandFound(t *testing.T) {
	raw := "I can't help with that request."

	_, err := Parse(raw, false)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrNoCommandFound))

	var nf *domain.NoCommandFoundError
	require.True(t, errors.As(err, &nf))
	assert.Equal(t, raw, nf.Raw)
}

func TestParseFencePrecedence(t *testing.T) {
	raw := "ls -la\nBut the better option is:\n```\ndu -sh *\n```\n```\necho second\n```"

	got, err := Parse(raw, false)
	require.NoError(t, err)
	assert.Equal(t, "du -sh *", got.Command)
}

func TestParseCases(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		explain bool
		want    string
		wantExp string
		wantErr bool
	}{
		{name: "plain command", raw: "ls -la", want: "ls -la"},
		{name: "prompt marker", raw: "$ git status", want: "git status"},
		{name: "root prompt marker", raw: "```\n# systemctl restart nginx\n```", want: "systemctl restart nginx"},
		{name: "backtick wrapped", raw: "`df -h`", want: "df -h"},
		{name: "quoted inner args survive", raw: "echo 'hi there'", want: "echo 'hi there'"},
		{name: "greeting then command", raw: "Sure! Here is the command:\ngrep -rn TODO .", want: "grep -rn TODO ."},
		{name: "labeled command", raw: "Command: tar -czf out.tgz src", want: "tar -czf out.tgz src"},
		{name: "trailing commentary cut", raw: "ps aux | grep nginx\nThis command lists nginx processes.", want: "ps aux | grep nginx"},
		{name: "multi-line sequence kept", raw: "cd /tmp\nls", want: "cd /tmp\nls"},
		{name: "blank line ends line scan", raw: "ls -la\n\nThe -a flag shows hidden files.", want: "ls -la"},
		{name: "prose lead-in with colon", raw: "To list all files including hidden ones:\nls -la", want: "ls -la"},
		{name: "four backtick fence", raw: "````bash\nls -la\n````", want: "ls -la"},
		{name: "tilde fence", raw: "~~~bash\nls -la\n~~~", want: "ls -la"},
		{name: "tilde fence keeps backticks", raw: "~~~\necho `date`\n~~~", want: "echo `date`"},
		{name: "unterminated fence", raw: "```bash\nuname -a\n", want: "uname -a"},
		{name: "crlf line endings", raw: "```bash\r\npwd\r\n```", want: "pwd"},
		{name: "fenced comments dropped", raw: "```bash\n# show disk usage\ndu -h\n```", want: "du -h"},
		{name: "fenced prompt markers", raw: "```\n$ cd src\n$ make\n```", want: "cd src\nmake"},
		{name: "language hint is command", raw: "```uptime\n```", want: "uptime"},
		{name: "empty fence", raw: "```bash\n```", wantErr: true},
		{name: "fenced prose", raw: "```\nSorry, I cannot do that.\n```", wantErr: true},
		{name: "empty reply", raw: "", wantErr: true},
		{name: "markdown heading only", raw: "# Answer\nYou can use the ls command.", wantErr: true},
		{
			name:    "line scan explanation",
			raw:     "- Shows the ten largest files.\ndu -ah . | sort -rh | head -n 10",
			explain: true,
			want:    "du -ah . | sort -rh | head -n 10",
			wantExp: "- Shows the ten largest files.",
		},
		{
			name:    "explanation trimmed at opener",
			raw:     "Counts lines in Go files.\nNote: this may be slow.\n```\nfind . -name '*.go' | xargs wc -l\n```",
			explain: true,
			want:    "find . -name '*.go' | xargs wc -l",
			wantExp: "Counts lines in Go files.",
		},
		{
			name:    "explanation fully conversational",
			raw:     "Sure, here you go:\n```\nwhoami\n```",
			explain: true,
			want:    "whoami",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.raw, tt.explain)
			if tt.wantErr {
				require.ErrorIs(t, err, domain.ErrNoCommandFound)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.Command)
			assert.Equal(t, tt.wantExp, got.Explanation)
		})
	}
}

func TestParseIsIdempotentOnCommands(t *testing.T) {
	inputs := []string{
		"```bash\nfind . -name '*.tmp' -delete\n```",
		"$ `git log --oneline`",
		"Here you go:\nkubectl get pods -A",
		"\"echo done\"",
		"```\n# build\n$ go build ./...\n```",
	}
	for _, raw := range inputs {
		first, err := Parse(raw, false)
		require.NoError(t, err, raw)

		second, err := Parse(first.Command, false)
		require.NoError(t, err, raw)
		assert.Equal(t, first.Command, second.Command, raw)
	}
}

func TestCleanIsIdempotent(t *testing.T) {
	inputs := []string{
		"  `ls`  ",
		"'ls -la'",
		"$ $ echo hi",
		"`echo \"x\"",
		"# rm foo",
		"echo 'a' 'b'",
	}
	for _, in := range inputs {
		once := Clean(in)
		assert.Equal(t, once, Clean(once), in)
	}
}

func TestExtraOpeners(t *testing.T) {
	p, err := New(`^voila\b`)
	require.NoError(t, err)

	assert.True(t, p.IsConversational("Voila, the command"))
	assert.False(t, defaultParser.IsConversational("voila"))

	_, err = New(`(unclosed`)
	assert.Error(t, err)
}

func TestIsConversational(t *testing.T) {
	p := defaultParser
	for _, line := range []string{
		"Hello!",
		"Sure, here's how.",
		"I'm sorry, I can't do that.",
		"As an AI language model, I cannot run commands.",
		"Here is the command:",
		"Explanation: it lists files",
		"1. Open a terminal",
		"You can run the following.",
		"To list all files including hidden ones:",
	} {
		assert.True(t, p.IsConversational(line), line)
	}
	for _, line := range []string{
		"ls -la",
		"find . -type f",
		"sudo apt update",
		"git commit -m 'hello'",
		"ls -la:",
		"",
	} {
		assert.False(t, p.IsConversational(line), line)
	}
}
