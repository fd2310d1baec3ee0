package helpers

import (
	"fmt"
	"io"
	"strings"

	"github.com/doeshing/shai-go/internal/domain"
)

// MsgNoHistoryRecorded is printed for an empty result.
const MsgNoHistoryRecorded = "No history recorded yet."

// RenderHistory prints entries one per line, newest first.
func RenderHistory(out io.Writer, entries []domain.HistoryEntry) {
	if len(entries) == 0 {
		fmt.Fprintln(out, MsgNoHistoryRecorded)
		return
	}
	for _, entry := range entries {
		status := "preview"
		switch {
		case entry.Executed && entry.ExitCode == 0:
			status = "ran"
		case entry.Executed:
			status = fmt.Sprintf("exit %d", entry.ExitCode)
		case entry.Dangerous:
			status = "dangerous"
		}
		fmt.Fprintf(out, "%s  %-9s %-8s %s\n",
			entry.Timestamp.Local().Format("2006-01-02 15:04"),
			status,
			entry.Provider,
			labelStyle.Render(entry.Prompt))
		if entry.Command != "" {
			fmt.Fprintf(out, "    $ %s\n", firstLine(entry.Command))
		}
		if entry.Notes != "" {
			fmt.Fprintln(out, "    "+mutedStyle.Render(entry.Notes))
		}
	}
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i] + " ..."
	}
	return s
}
