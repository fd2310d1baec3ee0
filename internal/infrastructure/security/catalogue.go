package security

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/doeshing/shai-go/assets"
	"github.com/doeshing/shai-go/internal/domain"
	"github.com/doeshing/shai-go/internal/pkg/filesystem"
)

// Rule kinds.
const (
	KindPrefix = "prefix"
	KindRegex  = "regex"
)

// Rule scopes.
const (
	ScopeSegment = "segment"
	ScopeCommand = "command"
)

// Rule is one danger catalogue entry.
type Rule struct {
	Pattern  string `yaml:"pattern"`
	Kind     string `yaml:"kind"`
	Scope    string `yaml:"scope"`
	Category string `yaml:"category"`
	Message  string `yaml:"message"`
}

// Catalogue is the YAML schema root.
type Catalogue struct {
	Version int    `yaml:"version"`
	Rules   []Rule `yaml:"rules"`
	// IncludeDefaults appends the embedded catalogue to a user file.
	IncludeDefaults bool `yaml:"include_defaults"`
}

type compiledRule struct {
	rule   Rule
	prefix string
	re     *regexp.Regexp
}

func (c compiledRule) match(text string) bool {
	if c.re != nil {
		return c.re.MatchString(text)
	}
	return strings.HasPrefix(text, c.prefix)
}

// DefaultCatalogue parses the embedded catalogue.
func DefaultCatalogue() (Catalogue, error) {
	var cat Catalogue
	if err := yaml.Unmarshal(assets.DefaultDangerCatalogueYAML, &cat); err != nil {
		return Catalogue{}, fmt.Errorf("parse embedded danger catalogue: %w", err)
	}
	return cat, nil
}

// LoadCatalogue reads a catalogue from path. An empty path, or a path that does
// not exist, yields the embedded catalogue.
func LoadCatalogue(path string) (Catalogue, error) {
	defaults, err := DefaultCatalogue()
	if err != nil {
		return Catalogue{}, err
	}
	if strings.TrimSpace(path) == "" {
		return defaults, nil
	}
	data, err := os.ReadFile(expandPath(path))
	if err != nil {
		if os.IsNotExist(err) {
			return defaults, nil
		}
		return Catalogue{}, fmt.Errorf("read danger catalogue: %w", err)
	}
	var cat Catalogue
	if err := yaml.Unmarshal(data, &cat); err != nil {
		return Catalogue{}, fmt.Errorf("parse danger catalogue %s: %w", path, err)
	}
	if len(cat.Rules) == 0 {
		return defaults, nil
	}
	if cat.IncludeDefaults {
		cat.Rules = append(cat.Rules, defaults.Rules...)
	}
	return cat, nil
}

// compile splits rules by scope. Segment rules are anchored in prefix mode;
// command rules are always unanchored regular expressions.
func compile(rules []Rule, mode domain.MatchMode) (segment, command []compiledRule, err error) {
	for i, rule := range rules {
		pattern := rule.Pattern
		if strings.TrimSpace(pattern) == "" {
			return nil, nil, fmt.Errorf("rule %d: empty pattern", i)
		}
		kind := strings.ToLower(defaultString(rule.Kind, KindPrefix))
		scope := strings.ToLower(defaultString(rule.Scope, ScopeSegment))

		var compiled compiledRule
		compiled.rule = rule
		switch kind {
		case KindPrefix:
			literal := normalize(pattern)
			if scope == ScopeCommand || mode == domain.MatchSubstring {
				compiled.re = regexp.MustCompile(regexp.QuoteMeta(literal))
			} else {
				compiled.prefix = literal
			}
		case KindRegex:
			expr := "(?:" + pattern + ")"
			if scope == ScopeSegment && mode != domain.MatchSubstring {
				expr = "^" + expr
			}
			re, err := regexp.Compile(expr)
			if err != nil {
				return nil, nil, fmt.Errorf("rule %d (%s): %w", i, pattern, err)
			}
			compiled.re = re
		default:
			return nil, nil, fmt.Errorf("rule %d (%s): unknown kind %q", i, pattern, rule.Kind)
		}

		switch scope {
		case ScopeSegment:
			segment = append(segment, compiled)
		case ScopeCommand:
			command = append(command, compiled)
		default:
			return nil, nil, fmt.Errorf("rule %d (%s): unknown scope %q", i, pattern, rule.Scope)
		}
	}
	return segment, command, nil
}

func defaultString(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}

// expandPath resolves "~" and treats a bare relative name as living in ~/.shai.
func expandPath(path string) string {
	path = filesystem.ExpandHome(path)
	if filepath.IsAbs(path) {
		return path
	}
	return filesystem.DataPath(path)
}
