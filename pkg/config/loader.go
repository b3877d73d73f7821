package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"gopkg.in/yaml.v3"
)

// ParseRules parses YAML rule data. The document root may be a single rule
// mapping, a sequence of rules, or a mapping with a top-level "rules" list.
func ParseRules(data []byte) ([]RuleConfig, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("parsing YAML: %w", err)
	}
	if len(root.Content) == 0 {
		return nil, errors.New("empty document")
	}

	doc := root.Content[0]
	switch doc.Kind {
	case yaml.SequenceNode:
		var rules []RuleConfig
		if err := doc.Decode(&rules); err != nil {
			return nil, fmt.Errorf("parsing YAML: %w", err)
		}
		return rules, nil
	case yaml.MappingNode:
		// A "rules:" wrapper, or a bare single rule.
		var wrapper struct {
			Rules []RuleConfig `yaml:"rules"`
		}
		if err := doc.Decode(&wrapper); err == nil && len(wrapper.Rules) > 0 {
			return wrapper.Rules, nil
		}
		var single RuleConfig
		if err := doc.Decode(&single); err != nil {
			return nil, fmt.Errorf("parsing YAML: %w", err)
		}
		return []RuleConfig{single}, nil
	default:
		return nil, fmt.Errorf("unexpected YAML document kind %d", doc.Kind)
	}
}

// LoadFile loads rule configurations from a single YAML file. The file
// contents go through environment-variable expansion before parsing.
func LoadFile(path string) ([]RuleConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("file not found: %s", path)
		}
		return nil, fmt.Errorf("reading file: %w", err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("file is empty: %s", path)
	}

	rules, err := ParseRules([]byte(ExpandEnvVars(string(data))))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return rules, nil
}

// LoadGlob loads rule configurations from every file matching the glob
// pattern, in sorted path order. Supports ** for recursive matching.
// An empty match set is not an error.
func LoadGlob(pattern string) ([]RuleConfig, error) {
	matches, err := ExpandGlob(pattern)
	if err != nil {
		return nil, fmt.Errorf("expanding glob pattern: %w", err)
	}
	sort.Strings(matches)

	var result []RuleConfig
	for _, match := range matches {
		rules, err := LoadFile(match)
		if err != nil {
			return nil, err
		}
		result = append(result, rules...)
	}
	return result, nil
}

// ExpandGlob expands a glob pattern to a list of matching file paths.
// Uses doublestar for ** support, falls back to filepath.Glob otherwise.
// A plain file path is a pattern matching itself.
func ExpandGlob(pattern string) ([]string, error) {
	if strings.Contains(pattern, "**") {
		return doublestar.FilepathGlob(pattern)
	}
	return filepath.Glob(pattern)
}

// ResolvePath resolves a potentially relative path against a base directory.
func ResolvePath(baseDir, targetPath string) string {
	if targetPath == "" || filepath.IsAbs(targetPath) {
		return targetPath
	}
	if strings.HasPrefix(targetPath, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, targetPath[2:])
		}
	}
	return filepath.Join(baseDir, targetPath)
}
