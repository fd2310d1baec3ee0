// Package parser turns a raw backend reply into a command/explanation pair.
//
// Extraction degrades from a fenced code block, to an explicit "command:" label,
// to a plain line scan, and finally to an explicit NoCommandFound failure. The
// parser never returns prose as an executable command.
package parser

import (
	"regexp"
	"strings"

	"github.com/doeshing/shai-go/internal/domain"
	"github.com/doeshing/shai-go/internal/ports"
)

// Parser holds the compiled conversational opener table.
type Parser struct {
	openers []*regexp.Regexp
}

// New builds a parser with the default opener table plus any extra patterns.
func New(extraOpeners ...string) (*Parser, error) {
	patterns := append(append([]string{}, defaultOpeners...), extraOpeners...)
	openers, err := compileOpeners(patterns)
	if err != nil {
		return nil, err
	}
	return &Parser{openers: openers}, nil
}

var defaultParser = mustNew()

func mustNew() *Parser {
	p, err := New()
	if err != nil {
		panic(err)
	}
	return p
}

// Parse extracts a command with the default opener table.
func Parse(raw string, explainMode bool) (domain.ParsedCommand, error) {
	return defaultParser.Parse(raw, explainMode)
}

// Parse implements ports.ResponseParser.
func (p *Parser) Parse(raw string, explainMode bool) (domain.ParsedCommand, error) {
	text := strings.ReplaceAll(raw, "\r\n", "\n")

	if before, block, ok := splitFence(text); ok {
		return p.finish(raw, block, before, explainMode)
	}

	lines := strings.Split(text, "\n")

	if idx, command, ok := findLabeled(lines); ok {
		return p.finish(raw, command, strings.Join(lines[:idx], "\n"), explainMode)
	}

	idx := p.firstCommandLine(lines)
	if idx < 0 {
		return domain.ParsedCommand{}, &domain.NoCommandFoundError{Raw: raw}
	}
	end := p.commandEnd(lines, idx)
	command := strings.Join(lines[idx:end], "\n")
	return p.finish(raw, command, strings.Join(lines[:idx], "\n"), explainMode)
}

// IsConversational reports whether a single line reads as prose.
func (p *Parser) IsConversational(line string) bool {
	line = strings.TrimSpace(line)
	if line == "" {
		return false
	}
	for _, re := range p.openers {
		if re.MatchString(line) {
			return true
		}
	}
	return false
}

func (p *Parser) finish(raw, command, explanation string, explainMode bool) (domain.ParsedCommand, error) {
	command = Clean(command)
	if command == "" || strings.HasPrefix(command, "#") || p.IsConversational(firstLine(command)) {
		return domain.ParsedCommand{}, &domain.NoCommandFoundError{Raw: raw}
	}
	result := domain.ParsedCommand{Command: command}
	if explainMode {
		result.Explanation = p.trimExplanation(explanation)
	}
	return result, nil
}

// firstCommandLine returns the index of the first line that starts like a
// command and is not prose, or -1.
func (p *Parser) firstCommandLine(lines []string) int {
	for i, line := range lines {
		if p.isCommandLine(line) {
			return i
		}
	}
	return -1
}

func (p *Parser) isCommandLine(line string) bool {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" || fenceOpen.MatchString(trimmed) || strings.HasPrefix(trimmed, "#") {
		return false
	}
	candidate := Clean(trimmed)
	if candidate == "" {
		return false
	}
	return commandStart.MatchString(candidate) && !p.IsConversational(candidate)
}

// commandEnd keeps every line after the command start up to the first blank
// or prose line.
func (p *Parser) commandEnd(lines []string, start int) int {
	for i := start + 1; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) == "" || p.IsConversational(lines[i]) {
			return i
		}
	}
	return len(lines)
}

// trimExplanation drops the first conversational line and everything after it.
func (p *Parser) trimExplanation(text string) string {
	var kept []string
	for _, line := range strings.Split(text, "\n") {
		if p.IsConversational(line) {
			break
		}
		kept = append(kept, line)
	}
	return strings.TrimSpace(strings.Join(kept, "\n"))
}

// splitFence returns the text before the first fenced block and the block body
// with any language hint removed. A fence opens with three or more backticks
// or tildes and closes on the same run. An unterminated fence runs to the end
// of text.
func splitFence(text string) (before, block string, ok bool) {
	loc := fenceOpen.FindStringIndex(text)
	if loc == nil {
		return "", "", false
	}
	delim := text[loc[0]:loc[1]]
	rest := text[loc[1]:]
	if end := strings.Index(rest, delim); end >= 0 {
		rest = rest[:end]
	}
	return text[:loc[0]], stripLanguageHint(rest), true
}

func stripLanguageHint(block string) string {
	nl := strings.IndexByte(block, '\n')
	if nl < 0 {
		return block
	}
	hint := strings.TrimSpace(block[:nl])
	body := block[nl+1:]
	if !languageHint.MatchString(hint) {
		return block
	}
	if strings.TrimSpace(body) == "" && !shellHints[strings.ToLower(hint)] {
		return hint
	}
	return body
}

func findLabeled(lines []string) (int, string, bool) {
	for i, line := range lines {
		if m := labeledCommand.FindStringSubmatch(strings.TrimSpace(line)); m != nil {
			return i, m[1], true
		}
	}
	return -1, "", false
}

func firstLine(text string) string {
	if idx := strings.IndexByte(text, '\n'); idx >= 0 {
		return text[:idx]
	}
	return text
}

var _ ports.ResponseParser = (*Parser)(nil)
