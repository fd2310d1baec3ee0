package domain

// ContextSnapshot holds environment data injected into prompts and logs.
type ContextSnapshot struct {
	WorkingDir     string
	Shell          string
	OS             string
	User           string
	Files          []FileInfo
	AvailableTools []string
}

// OSContext is the short operating system description handed to backends.
func (s ContextSnapshot) OSContext() string {
	if s.OS == "" {
		return "unknown"
	}
	return s.OS
}

// ShellContext is the shell name handed to backends.
func (s ContextSnapshot) ShellContext() string {
	if s.Shell == "" {
		return "sh"
	}
	return s.Shell
}

// FileInfo is a minimal representation of discovered files.
type FileInfo struct {
	Path string
	Size int64
	Type FileType
}

// FileType describes the type of file entry.
type FileType string

const (
	FileTypeUnknown FileType = "unknown"
	FileTypeFile    FileType = "file"
	FileTypeDir     FileType = "dir"
	FileTypeSymlink FileType = "symlink"
)
