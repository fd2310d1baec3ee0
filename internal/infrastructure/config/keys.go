package config

import (
	"bytes"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/doeshing/shai-go/internal/domain"
)

// Get returns the value at a dotted key such as "security.match_mode".
// Sections are returned as YAML.
func Get(cfg domain.Config, key string) (string, error) {
	root, err := toNode(cfg)
	if err != nil {
		return "", err
	}
	node, err := lookup(root, splitKey(key), false)
	if err != nil {
		return "", err
	}
	if node.Kind == yaml.ScalarNode {
		return node.Value, nil
	}
	raw, err := yaml.Marshal(node)
	if err != nil {
		return "", err
	}
	return strings.TrimRight(string(raw), "\n"), nil
}

// Set assigns a scalar at a dotted key and returns the updated config.
// Unknown keys and values of the wrong type are rejected.
func Set(cfg domain.Config, key, value string) (domain.Config, error) {
	root, err := toNode(cfg)
	if err != nil {
		return cfg, err
	}
	node, err := lookup(root, splitKey(key), true)
	if err != nil {
		return cfg, err
	}
	if node.Kind != yaml.ScalarNode {
		return cfg, fmt.Errorf("%s is a section, set one of its keys instead", key)
	}
	node.Value = value
	node.Style = 0

	raw, err := yaml.Marshal(root)
	if err != nil {
		return cfg, err
	}
	var updated domain.Config
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(&updated); err != nil {
		return cfg, fmt.Errorf("set %s: %w", key, err)
	}
	if err := updated.ValidateConsistency(); err != nil {
		return cfg, err
	}
	return updated, nil
}

func toNode(cfg domain.Config) (*yaml.Node, error) {
	raw, err := yaml.Marshal(cfg)
	if err != nil {
		return nil, err
	}
	var doc yaml.Node
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil, fmt.Errorf("unexpected config document")
	}
	return doc.Content[0], nil
}

func splitKey(key string) []string {
	var parts []string
	for _, part := range strings.Split(strings.TrimSpace(key), ".") {
		if part != "" {
			parts = append(parts, part)
		}
	}
	return parts
}

// lookup walks mapping nodes. With create set, a missing leaf is appended to
// its parent mapping so omitempty fields can be assigned.
func lookup(node *yaml.Node, path []string, create bool) (*yaml.Node, error) {
	if len(path) == 0 {
		return nil, fmt.Errorf("empty key")
	}
	current := node
	for i, part := range path {
		if current.Kind != yaml.MappingNode {
			return nil, fmt.Errorf("unknown key %q", strings.Join(path[:i+1], "."))
		}
		var next *yaml.Node
		for j := 0; j+1 < len(current.Content); j += 2 {
			if current.Content[j].Value == part {
				next = current.Content[j+1]
				break
			}
		}
		if next == nil {
			if !create || i != len(path)-1 {
				return nil, fmt.Errorf("unknown key %q", strings.Join(path[:i+1], "."))
			}
			next = &yaml.Node{Kind: yaml.ScalarNode}
			current.Content = append(current.Content, &yaml.Node{Kind: yaml.ScalarNode, Value: part}, next)
		}
		current = next
	}
	return current, nil
}
