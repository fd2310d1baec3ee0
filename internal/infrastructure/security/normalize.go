package security

import (
	"regexp"
	"strings"
)

var whitespaceRun = regexp.MustCompile(`\s+`)

// separators split a normalized command into sub-statements. Longer tokens come
// first so "&&" and "||" are consumed before "&" and "|".
var separators = []string{"&&", "||", ";", "|", "&", "(", ")", "{", "}", "`"}

// wrappers run the rest of the sub-statement as a command of its own.
var wrappers = map[string]bool{
	"sudo":    true,
	"doas":    true,
	"nohup":   true,
	"exec":    true,
	"command": true,
	"env":     true,
	"time":    true,
	"nice":    true,
	"xargs":   true,
}

// normalize lowercases the command, turns newlines into statement separators
// and collapses whitespace runs to one space.
func normalize(command string) string {
	command = strings.ToLower(command)
	command = strings.ReplaceAll(command, "\r\n", "\n")
	command = strings.ReplaceAll(command, "\n", ";")
	command = whitespaceRun.ReplaceAllString(command, " ")
	return strings.TrimSpace(command)
}

// SplitCommand normalizes a raw command and returns its sub-statements.
func SplitCommand(command string) []string {
	return Segments(normalize(command))
}

// Segments splits normalized text into trimmed, non-empty sub-statements in
// source order.
func Segments(normalized string) []string {
	parts := []string{normalized}
	for _, sep := range separators {
		var next []string
		for _, part := range parts {
			next = append(next, strings.Split(part, sep)...)
		}
		parts = next
	}
	segments := make([]string, 0, len(parts))
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			segments = append(segments, part)
		}
	}
	return segments
}

// stripWrappers drops leading wrapper words, their flags and env assignments,
// so "sudo -u root rm -rf /" is matched as "rm -rf /".
func stripWrappers(segment string) string {
	fields := strings.Fields(segment)
	i := 0
	for i < len(fields) {
		word := fields[i]
		if !wrappers[word] {
			break
		}
		i++
		for i < len(fields) && (strings.HasPrefix(fields[i], "-") || isAssignment(fields[i])) {
			if optionTakesValue(word, fields[i]) && i+1 < len(fields) {
				i++
			}
			i++
		}
	}
	for i < len(fields) && isAssignment(fields[i]) {
		i++
	}
	if i == 0 {
		return segment
	}
	return strings.Join(fields[i:], " ")
}

func isAssignment(field string) bool {
	eq := strings.IndexByte(field, '=')
	if eq <= 0 || strings.HasPrefix(field, "-") {
		return false
	}
	for _, r := range field[:eq] {
		if !(r == '_' || r >= 'a' && r <= 'z' || r >= '0' && r <= '9') {
			return false
		}
	}
	return true
}

// optionTakesValue reports wrapper flags whose value is a separate word.
func optionTakesValue(wrapper, flag string) bool {
	switch wrapper {
	case "sudo", "doas":
		return flag == "-u" || flag == "-g" || flag == "-c"
	case "nice":
		return flag == "-n"
	case "xargs":
		return flag == "-i" || flag == "-n" || flag == "-p" || flag == "-d"
	}
	return false
}
