package parser

import "strings"

const wrapChars = "`'\""

// Clean strips wrapping quotes and backticks, surrounding whitespace and a
// leading prompt marker. It is idempotent.
func Clean(command string) string {
	for {
		next := cleanOnce(command)
		if next == command {
			return next
		}
		command = next
	}
}

func cleanOnce(command string) string {
	command = strings.TrimSpace(command)
	command = unwrap(command)
	command = stripPromptMarkers(command)
	command = dropLeadingComments(command)
	return strings.TrimSpace(command)
}

// unwrap removes a wrapping pair of identical quote characters that do not occur
// inside, or a single stray one when its count is odd.
func unwrap(s string) string {
	for _, c := range wrapChars {
		q := string(c)
		count := strings.Count(s, q)
		if count == 0 {
			continue
		}
		if count == 2 && len(s) >= 2 && strings.HasPrefix(s, q) && strings.HasSuffix(s, q) {
			return s[1 : len(s)-1]
		}
		if count%2 == 1 {
			if strings.HasPrefix(s, q) {
				return s[1:]
			}
			if strings.HasSuffix(s, q) {
				return s[:len(s)-1]
			}
		}
	}
	return s
}

// stripPromptMarkers removes "$ " or "# " from every line when all lines carry
// it, otherwise a single leading "$ ", or "# " on a one-line command.
func stripPromptMarkers(s string) string {
	lines := strings.Split(s, "\n")
	if len(lines) > 1 {
		for _, marker := range []string{"$ ", "# "} {
			if allPrefixed(lines, marker) {
				for i, line := range lines {
					lines[i] = strings.TrimPrefix(strings.TrimSpace(line), marker)
				}
				return strings.Join(lines, "\n")
			}
		}
	}
	if strings.HasPrefix(s, "$ ") {
		return s[2:]
	}
	if len(lines) == 1 && strings.HasPrefix(s, "# ") {
		return s[2:]
	}
	return s
}

// dropLeadingComments removes full-line comments and shebangs in front of a
// multi-line command body.
func dropLeadingComments(s string) string {
	lines := strings.Split(s, "\n")
	i := 0
	for i < len(lines)-1 && strings.HasPrefix(strings.TrimSpace(lines[i]), "#") {
		i++
	}
	return strings.Join(lines[i:], "\n")
}

func allPrefixed(lines []string, prefix string) bool {
	seen := false
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if !strings.HasPrefix(line, prefix) {
			return false
		}
		seen = true
	}
	return seen
}
