package domain

// DangerVerdict is the classifier outcome for one command string.
type DangerVerdict struct {
	Dangerous bool
	// MatchedPattern is the catalogue entry that fired.
	MatchedPattern string
	// Segment is the normalized sub-statement the entry fired on.
	Segment  string
	Category string
	Reason   string
}

// Safe is the verdict for a command nothing in the catalogue matched.
func Safe() DangerVerdict {
	return DangerVerdict{}
}
