package helpers

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/doeshing/shai-go/internal/domain"
)

const (
	colorPrimary = "39"
	colorDanger  = "196"
	colorMuted   = "245"
	colorOK      = "42"
	colorWarn    = "214"
)

var (
	labelStyle   = lipgloss.NewStyle().Bold(true)
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color(colorMuted))
	commandStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color(colorPrimary)).
			Padding(0, 1)
	dangerStyle = lipgloss.NewStyle().
			Border(lipgloss.ThickBorder()).
			BorderForeground(lipgloss.Color(colorDanger)).
			Foreground(lipgloss.Color(colorDanger)).
			Padding(0, 1)
	statusStyles = map[domain.HealthStatus]lipgloss.Style{
		domain.HealthOK:    lipgloss.NewStyle().Foreground(lipgloss.Color(colorOK)).Bold(true),
		domain.HealthWarn:  lipgloss.NewStyle().Foreground(lipgloss.Color(colorWarn)).Bold(true),
		domain.HealthError: lipgloss.NewStyle().Foreground(lipgloss.Color(colorDanger)).Bold(true),
	}
)

// RenderCommand prints the proposed command with its explanation, backend
// and verdict.
func RenderCommand(out io.Writer, resp domain.QueryResponse) {
	RenderCommandBody(out, resp)
	var notes []string
	if resp.Provider != "" {
		notes = append(notes, "via "+resp.Provider)
	}
	if resp.FromCache {
		notes = append(notes, "cached reply")
	}
	if len(notes) > 0 {
		fmt.Fprintln(out, mutedStyle.Render(strings.Join(notes, ", ")))
	}
}

// RenderCommandBody prints the explanation, the command box and, for a
// dangerous verdict, the banner.
func RenderCommandBody(out io.Writer, resp domain.QueryResponse) {
	if resp.Parsed.HasExplanation() {
		fmt.Fprintln(out, RenderMarkdown(resp.Parsed.Explanation, TerminalWidth(out, 80)))
		fmt.Fprintln(out)
	}
	fmt.Fprintln(out, commandStyle.Render(resp.Parsed.Command))
	if resp.Verdict.Dangerous {
		fmt.Fprintln(out)
		RenderVerdict(out, resp.Verdict)
	}
}

// RenderVerdict prints the danger banner for a flagged command.
func RenderVerdict(out io.Writer, verdict domain.DangerVerdict) {
	if !verdict.Dangerous {
		fmt.Fprintln(out, statusStyles[domain.HealthOK].Render("safe")+" no catalogue entry matched")
		return
	}
	lines := []string{
		"DANGEROUS COMMAND: " + verdict.Category,
		verdict.Reason,
		fmt.Sprintf("matched %q in %q", verdict.MatchedPattern, verdict.Segment),
	}
	fmt.Fprintln(out, dangerStyle.Render(strings.Join(nonEmpty(lines), "\n")))
}

// RenderExecution prints the outcome of a command run. Output itself was
// already streamed to the terminal.
func RenderExecution(out io.Writer, resp domain.QueryResponse) {
	result := resp.ExecutionResult
	switch {
	case result == nil:
		fmt.Fprintln(out, mutedStyle.Render("Command was not executed."))
	case !result.Ran:
		fmt.Fprintf(out, "%s %v\n", statusStyles[domain.HealthError].Render("failed to start:"), result.Err)
	case result.ExitCode != 0:
		fmt.Fprintln(out, statusStyles[domain.HealthWarn].Render(fmt.Sprintf("exit %d", result.ExitCode))+mutedStyle.Render(fmt.Sprintf(" after %dms", result.DurationMS)))
	default:
		fmt.Fprintln(out, mutedStyle.Render(fmt.Sprintf("done in %dms", result.DurationMS)))
	}
}

// RenderRaw shows a reply the parser could not use.
func RenderRaw(out io.Writer, raw string) {
	fmt.Fprintln(out, labelStyle.Render("No command found in the reply. Raw response:"))
	fmt.Fprintln(out, raw)
}

// RenderHealthReport prints doctor results.
func RenderHealthReport(out io.Writer, report domain.HealthReport) {
	for _, check := range report.Checks {
		style, ok := statusStyles[check.Status]
		if !ok {
			style = mutedStyle
		}
		status := style.Render(fmt.Sprintf("[%s]", strings.ToUpper(string(check.Status))))
		fmt.Fprintf(out, "%-8s %s - %s\n", status, labelStyle.Render(check.Name), check.Details)
	}
}

// RenderMarkdown renders text for the terminal, falling back to the input.
func RenderMarkdown(text string, width int) string {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return text
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStylePath("ascii"),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return trimmed
	}
	rendered, err := r.Render(trimmed)
	if err != nil {
		return trimmed
	}
	return strings.Trim(rendered, "\n")
}

func nonEmpty(lines []string) []string {
	var out []string
	for _, line := range lines {
		if strings.TrimSpace(line) != "" {
			out = append(out, line)
		}
	}
	return out
}
