package cli

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"runtime"

	"github.com/doeshing/shai-go/internal/ports"
)

// Clipboard implements ports.Clipboard using platform-specific tools.
type Clipboard struct{}

// NewClipboard builds the clipboard helper.
func NewClipboard() *Clipboard {
	return &Clipboard{}
}

func (c *Clipboard) Enabled() bool {
	switch runtime.GOOS {
	case "darwin", "linux", "windows":
		return true
	default:
		return false
	}
}

// Copy copies text to the system clipboard.
func (c *Clipboard) Copy(text string) error {
	if !c.Enabled() {
		return fmt.Errorf("clipboard not supported on %s", runtime.GOOS)
	}
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("pbcopy")
	case "windows":
		cmd = exec.Command("clip")
	default: // linux
		if _, err := exec.LookPath("wl-copy"); err == nil && os.Getenv("WAYLAND_DISPLAY") != "" {
			cmd = exec.Command("wl-copy")
		} else if _, err := exec.LookPath("xclip"); err == nil {
			cmd = exec.Command("xclip", "-selection", "clipboard")
		} else if _, err := exec.LookPath("xsel"); err == nil {
			cmd = exec.Command("xsel", "--clipboard", "--input")
		} else {
			return fmt.Errorf("no clipboard utility found (install wl-copy, xclip or xsel)")
		}
	}
	cmd.Stdin = bytes.NewBufferString(text)
	return cmd.Run()
}

var _ ports.Clipboard = (*Clipboard)(nil)
