package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/doeshing/shai-go/internal/domain"
	"github.com/doeshing/shai-go/internal/infrastructure/cli/helpers"
	"github.com/doeshing/shai-go/internal/ports"
)

// Prompter implements ConfirmationPrompter using stdin/stdout.
type Prompter struct {
	in          *bufio.Reader
	out         io.Writer
	interactive bool
	// BeforePrompt runs before anything is printed, e.g. to stop a spinner.
	BeforePrompt func()
	shown        bool
}

// NewPrompter constructs a prompter referencing stdio. It is interactive
// only when stdin is a terminal.
func NewPrompter(in io.Reader, out io.Writer) *Prompter {
	if in == nil {
		in = os.Stdin
	}
	if out == nil {
		out = os.Stdout
	}
	return &Prompter{
		in:          bufio.NewReader(in),
		out:         out,
		interactive: helpers.IsTerminal(in),
	}
}

// Enabled reports whether the user can be asked anything.
func (p *Prompter) Enabled() bool {
	return p.interactive
}

// Shown reports whether the command was already printed by a prompt.
func (p *Prompter) Shown() bool {
	return p.shown
}

// Confirm shows the command and asks for a y/N answer.
func (p *Prompter) Confirm(command string, explanation string) (bool, error) {
	p.show(domain.QueryResponse{Parsed: domain.ParsedCommand{Command: command, Explanation: explanation}})
	return p.ask("Run it? [y/N]: ")
}

// ConfirmDangerous shows the danger banner and requires the literal word "yes".
func (p *Prompter) ConfirmDangerous(command string, verdict domain.DangerVerdict) (bool, error) {
	p.show(domain.QueryResponse{Parsed: domain.ParsedCommand{Command: command}, Verdict: verdict})
	fmt.Fprint(p.out, "Type 'yes' to run this command (anything else cancels): ")
	line, err := p.readLine()
	if err != nil {
		return false, err
	}
	return strings.TrimSpace(line) == "yes", nil
}

// Announce shows a command that is about to run without a prompt.
func (p *Prompter) Announce(resp domain.QueryResponse) {
	p.show(resp)
}

func (p *Prompter) show(resp domain.QueryResponse) {
	if p.BeforePrompt != nil {
		p.BeforePrompt()
	}
	if p.shown {
		return
	}
	helpers.RenderCommandBody(p.out, resp)
	p.shown = true
}

func (p *Prompter) ask(prompt string) (bool, error) {
	fmt.Fprint(p.out, prompt)
	line, err := p.readLine()
	if err != nil {
		return false, err
	}
	line = strings.ToLower(strings.TrimSpace(line))
	return line == "y" || line == "yes", nil
}

func (p *Prompter) readLine() (string, error) {
	line, err := p.in.ReadString('\n')
	if err == io.EOF && line != "" {
		return line, nil
	}
	return line, err
}

var _ ports.ConfirmationPrompter = (*Prompter)(nil)
