package parser

import "regexp"

// defaultOpeners flag a line as prose rather than a command. Order is irrelevant;
// any match demotes the line. Matching is case-insensitive.
var defaultOpeners = []string{
	// greetings and acknowledgements
	`^(hi|hello|hey|greetings)\b`,
	`^(sure|certainly|absolutely|of course|okay|ok|alright|great|no problem)\b`,
	// apologies and refusals
	`^(sorry|apologies|unfortunately)\b`,
	`^i(['’]m| am| can| cannot| can['’]t| could| will| won['’]t| would| think| recommend| suggest| understand| apologi[sz]e| hope)\b`,
	`^as an? (ai|language model|assistant)\b`,
	// meta-commentary
	`^(here\b|below is|the following|the command|the above)`,
	`^(run|use|try|execute|type)\s+(this|these|the following|it)\b`,
	`^(this|that|these|those|it)\s+(command|commands|will|is|should|would|can|lists|shows|finds|deletes|removes|creates|prints|searches|uses|displays|runs)\b`,
	`^(you can|you could|you may|you should|if you|please|let me|let['’]s|to do this|in order to)\b`,
	`^(explanation|note|answer|output|result|solution|example|usage|response|warning|tip|command)\s*:`,
	`^\d+[.)]\s`,
	// prose lead-in ending in a colon
	`^[a-z]+([ ,]+[a-z'’()]+)+\s*:$`,
}

// commandStart accepts a word character, path-ish characters, a variable or a
// shell operator as the first character of a command line.
var commandStart = regexp.MustCompile(`^[\w./~$|&;<>(){}\[\]!:]`)

// labeledCommand matches an explicit "command: <text>" line.
var labeledCommand = regexp.MustCompile(`(?i)^command\s*:\s*(\S.*)$`)

// fenceOpen matches a markdown fence delimiter.
var fenceOpen = regexp.MustCompile("`{3,}|~{3,}")

// languageHint matches the tag on an opening fence line.
var languageHint = regexp.MustCompile(`^[A-Za-z0-9_+.#-]*$`)

// shellHints are fence tags that never double as a command.
var shellHints = map[string]bool{
	"":           true,
	"bash":       true,
	"sh":         true,
	"shell":      true,
	"zsh":        true,
	"fish":       true,
	"console":    true,
	"terminal":   true,
	"powershell": true,
	"ps1":        true,
	"cmd":        true,
	"text":       true,
	"plaintext":  true,
}

func compileOpeners(patterns []string) ([]*regexp.Regexp, error) {
	compiled := make([]*regexp.Regexp, 0, len(patterns))
	for _, pattern := range patterns {
		re, err := regexp.Compile("(?i)" + pattern)
		if err != nil {
			return nil, err
		}
		compiled = append(compiled, re)
	}
	return compiled, nil
}
