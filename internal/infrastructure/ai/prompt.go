package ai

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"

	"github.com/doeshing/shai-go/internal/domain"
)

// renderPromptMessages expands the configured prompt templates, or the default
// pair, and guarantees a user message.
//
// Template variables:
//   - {{.Task}}: the user's task description
//   - {{.Prompt}}: the task followed by a context summary
//   - {{.OS}}, {{.Shell}}: the OS and shell contexts
//   - {{.Explain}}: whether an explanation was requested
//   - {{.WorkingDir}}, {{.User}}, {{.Files}}, {{.AvailableTools}}
func renderPromptMessages(templates []domain.PromptMessage, req domain.GenerateRequest) ([]domain.PromptMessage, error) {
	data := buildTemplateData(req)
	if len(templates) == 0 {
		templates = defaultTemplateMessages()
	}

	rendered := make([]domain.PromptMessage, 0, len(templates)+1)
	for i, msg := range templates {
		content, err := executeTemplate(fmt.Sprintf("prompt-%d", i), msg.Content, data)
		if err != nil {
			return nil, err
		}
		rendered = append(rendered, domain.PromptMessage{
			Role:    strings.ToLower(msg.Role),
			Content: strings.TrimSpace(content),
		})
	}

	if !hasUserMessage(rendered) {
		rendered = append(rendered, domain.PromptMessage{Role: "user", Content: data.Prompt})
	}
	return rendered, nil
}

type templateData struct {
	Task           string
	Prompt         string
	OS             string
	Shell          string
	Explain        bool
	WorkingDir     string
	User           string
	Files          string
	AvailableTools string
}

func buildTemplateData(req domain.GenerateRequest) templateData {
	task := strings.TrimSpace(req.Task)
	snippet := contextSnippet(req)
	prompt := task
	if snippet != "" {
		prompt = task + "\n\n" + snippet
	}
	return templateData{
		Task:           task,
		Prompt:         prompt,
		OS:             valueOrDefault(req.OSContext, req.Context.OSContext()),
		Shell:          valueOrDefault(req.ShellContext, req.Context.ShellContext()),
		Explain:        req.ExplainMode,
		WorkingDir:     req.Context.WorkingDir,
		User:           req.Context.User,
		Files:          filesSummary(req.Context.Files),
		AvailableTools: strings.Join(req.Context.AvailableTools, ", "),
	}
}

func contextSnippet(req domain.GenerateRequest) string {
	var lines []string
	if req.Context.WorkingDir != "" {
		lines = append(lines, "Directory: "+req.Context.WorkingDir)
	}
	if files := filesSummary(req.Context.Files); files != "" {
		lines = append(lines, "Files: "+files)
	}
	return strings.Join(lines, "\n")
}

func filesSummary(files []domain.FileInfo) string {
	names := make([]string, 0, len(files))
	for _, file := range files {
		names = append(names, file.Path)
	}
	return strings.Join(names, ", ")
}

func executeTemplate(name, raw string, data templateData) (string, error) {
	tmpl, err := template.New(name).Option("missingkey=error").Parse(raw)
	if err != nil {
		return "", fmt.Errorf("parse prompt template: %w", err)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render prompt template: %w", err)
	}
	return buf.String(), nil
}

func hasUserMessage(messages []domain.PromptMessage) bool {
	for _, msg := range messages {
		if msg.Role == "user" {
			return true
		}
	}
	return false
}

// systemPrompt splits system messages from the conversation.
func systemPrompt(messages []domain.PromptMessage) (string, []domain.PromptMessage) {
	var system []string
	var chat []domain.PromptMessage
	for _, msg := range messages {
		if msg.Role == "system" {
			system = append(system, msg.Content)
			continue
		}
		chat = append(chat, msg)
	}
	return strings.TrimSpace(strings.Join(system, "\n\n")), chat
}

func defaultTemplateMessages() []domain.PromptMessage {
	return []domain.PromptMessage{
		{
			Role: "system",
			Content: `You are SHAI, a cautious shell assistant.
Answer with exactly one {{.Shell}} command for {{.OS}} inside a fenced code block.
{{if .Explain}}Before the code block, describe what the command does in one or two plain sentences that start with a verb. Do not greet, apologize or add labels.{{else}}Do not write anything outside the code block.{{end}}
If the task cannot be done with a shell command, say so in one sentence and do not output a code block.
Environment:
- Directory: {{.WorkingDir}}
- Shell: {{.Shell}}
- OS: {{.OS}}
{{if .AvailableTools}}- Tools: {{.AvailableTools}}{{end}}`,
		},
		{
			Role:    "user",
			Content: "{{.Prompt}}",
		},
	}
}

func valueOrDefault(value string, def string) string {
	if strings.TrimSpace(value) == "" {
		return def
	}
	return value
}
