// Package security classifies proposed shell commands as safe to offer for
// execution or too dangerous to run automatically.
package security

import (
	"github.com/doeshing/shai-go/internal/domain"
	"github.com/doeshing/shai-go/internal/ports"
)

// Classifier implements the SafetyClassifier port.
type Classifier struct {
	mode    domain.MatchMode
	segment []compiledRule
	command []compiledRule
}

// NewClassifier loads the catalogue at path (embedded defaults when empty) and
// compiles it for the given match mode.
func NewClassifier(path string, mode domain.MatchMode) (*Classifier, error) {
	cat, err := LoadCatalogue(path)
	if err != nil {
		return nil, err
	}
	return FromRules(cat.Rules, mode)
}

// FromRules compiles an explicit rule list.
func FromRules(rules []Rule, mode domain.MatchMode) (*Classifier, error) {
	if mode != domain.MatchSubstring {
		mode = domain.MatchPrefix
	}
	segment, command, err := compile(rules, mode)
	if err != nil {
		return nil, err
	}
	return &Classifier{mode: mode, segment: segment, command: command}, nil
}

var defaultClassifier = mustDefault()

func mustDefault() *Classifier {
	c, err := NewClassifier("", domain.MatchPrefix)
	if err != nil {
		panic(err)
	}
	return c
}

// Classify checks a command against the embedded catalogue in prefix mode.
func Classify(command string) domain.DangerVerdict {
	return defaultClassifier.Classify(command)
}

// Mode reports the match mode the classifier was compiled for.
func (c *Classifier) Mode() domain.MatchMode {
	return c.mode
}

// Rules reports the number of compiled catalogue entries.
func (c *Classifier) Rules() int {
	return len(c.segment) + len(c.command)
}

// Classify implements ports.SafetyClassifier. Segment entries are tried on
// every sub-statement in order, then command entries on the whole normalized
// text. The first hit wins.
func (c *Classifier) Classify(command string) domain.DangerVerdict {
	normalized := normalize(command)
	if normalized == "" {
		return domain.Safe()
	}
	for _, segment := range Segments(normalized) {
		target := stripWrappers(segment)
		for _, rule := range c.segment {
			if rule.match(target) {
				return verdict(rule, segment)
			}
		}
	}
	for _, rule := range c.command {
		if rule.match(normalized) {
			return verdict(rule, normalized)
		}
	}
	return domain.Safe()
}

func verdict(rule compiledRule, segment string) domain.DangerVerdict {
	return domain.DangerVerdict{
		Dangerous:      true,
		MatchedPattern: rule.rule.Pattern,
		Segment:        segment,
		Category:       rule.rule.Category,
		Reason:         rule.rule.Message,
	}
}

var _ ports.SafetyClassifier = (*Classifier)(nil)
