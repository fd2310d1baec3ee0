package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"
)

// ParsedCommand is the structured result extracted from a raw backend reply.
type ParsedCommand struct {
	Explanation string
	Command     string
}

// HasExplanation reports whether an explanation survived trimming.
func (p ParsedCommand) HasExplanation() bool {
	return p.Explanation != ""
}

// GenerateRequest is everything a backend needs to propose a command.
type GenerateRequest struct {
	Task         string
	OSContext    string
	ShellContext string
	ExplainMode  bool
	Context      ContextSnapshot
}

// CacheKey hashes everything that shapes a backend's reply to this request.
func (r GenerateRequest) CacheKey(provider, model string) string {
	h := sha256.New()
	for _, part := range []string{
		provider,
		model,
		strings.TrimSpace(r.Task),
		r.OSContext,
		r.ShellContext,
		strconv.FormatBool(r.ExplainMode),
		r.Context.WorkingDir,
	} {
		h.Write([]byte(part))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}
