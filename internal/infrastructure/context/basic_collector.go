// Package contextcollector snapshots the environment a command will run in.
package contextcollector

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"github.com/doeshing/shai-go/internal/domain"
	"github.com/doeshing/shai-go/internal/ports"
)

// BasicCollector implements ContextCollector with filesystem + tool detection.
type BasicCollector struct {
	toolsToCheck []string
	lookPath     func(string) (string, error)
	getwd        func() (string, error)
}

func NewBasicCollector() *BasicCollector {
	return &BasicCollector{
		toolsToCheck: []string{"docker", "kubectl", "git", "npm", "yarn", "pnpm", "python", "python3", "go", "node", "cargo", "make", "jq", "curl", "rsync"},
		lookPath:     exec.LookPath,
		getwd:        os.Getwd,
	}
}

// Collect gathers context data. It never fails: missing pieces are left empty
// and the snapshot accessors supply defaults.
func (c *BasicCollector) Collect(ctx context.Context, cfg domain.Config) (domain.ContextSnapshot, error) {
	wd, _ := c.getwd()
	snapshot := domain.ContextSnapshot{
		WorkingDir: wd,
		Shell:      detectShell(cfg.GetExecutionShell()),
		OS:         runtime.GOOS,
		User:       currentUser(),
	}
	if cfg.Context.IncludeFiles && wd != "" {
		snapshot.Files = listFiles(wd, cfg.GetMaxContextFiles())
	}
	if cfg.Context.IncludeTools {
		snapshot.AvailableTools = c.detectTools(ctx)
	}
	return snapshot, nil
}

func (c *BasicCollector) detectTools(ctx context.Context) []string {
	var available []string
	for _, tool := range c.toolsToCheck {
		if ctx.Err() != nil {
			break
		}
		if _, err := c.lookPath(tool); err == nil {
			available = append(available, tool)
		}
	}
	sort.Strings(available)
	return available
}

func listFiles(dir string, limit int) []domain.FileInfo {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	var files []domain.FileInfo
	for _, entry := range entries {
		if strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		if len(files) >= limit {
			break
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		files = append(files, domain.FileInfo{
			Path: entry.Name(),
			Size: info.Size(),
			Type: toFileType(info),
		})
	}
	return files
}

func toFileType(info os.FileInfo) domain.FileType {
	switch {
	case info.Mode().IsDir():
		return domain.FileTypeDir
	case info.Mode()&os.ModeSymlink != 0:
		return domain.FileTypeSymlink
	case info.Mode().IsRegular():
		return domain.FileTypeFile
	default:
		return domain.FileTypeUnknown
	}
}

// detectShell prefers the configured execution shell, then $SHELL.
func detectShell(configured string) string {
	if configured != "" {
		return filepath.Base(configured)
	}
	if shell := os.Getenv("SHELL"); shell != "" {
		return filepath.Base(shell)
	}
	if runtime.GOOS == "windows" {
		return "powershell"
	}
	return ""
}

func currentUser() string {
	for _, key := range []string{"USER", "USERNAME", "LOGNAME"} {
		if value := os.Getenv(key); value != "" {
			return value
		}
	}
	return ""
}

var _ ports.ContextCollector = (*BasicCollector)(nil)
