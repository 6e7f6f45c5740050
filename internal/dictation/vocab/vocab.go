// ============================================================================
// dikta - Desktop Voice Dictation
// ============================================================================
//
// Package:     vocab
// Description: Custom vocabulary replacement rules
// Author:      The dikta Authors
// Created:     2026-08-15
// License:     MIT
// ============================================================================

package vocab

import (
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"
)

// Rule rewrites one recognized phrase. Providers tend to spell domain
// terms phonetically ("kubernetes" as "cooper netties"); rules fix the
// recurring ones.
type Rule struct {
	// Match is the phrase to replace. Matching is case-insensitive and
	// bounded at word edges unless Regex is set.
	Match string `yaml:"match"`

	// Replace is the replacement text
	Replace string `yaml:"replace"`

	// Regex treats Match as a regular expression
	Regex bool `yaml:"regex,omitempty"`
}

// ruleFile is the YAML document structure
type ruleFile struct {
	Rules []Rule `yaml:"rules"`
}

// Rules is a compiled set of replacement rules, applied in file order
type Rules struct {
	rules    []Rule
	patterns []*regexp.Regexp
}

// Load reads and compiles rules from a YAML file
func Load(path string) (*Rules, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read vocabulary file: %w", err)
	}
	return Parse(data)
}

// Parse compiles rules from YAML data
func Parse(data []byte) (*Rules, error) {
	var file ruleFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse vocabulary file: %w", err)
	}
	return Compile(file.Rules)
}

// Compile builds a rule set from parsed rules
func Compile(rules []Rule) (*Rules, error) {
	r := &Rules{
		rules:    rules,
		patterns: make([]*regexp.Regexp, 0, len(rules)),
	}

	for i, rule := range rules {
		if rule.Match == "" {
			return nil, fmt.Errorf("rule %d: match must not be empty", i)
		}

		expr := rule.Match
		if !rule.Regex {
			expr = `\b` + regexp.QuoteMeta(rule.Match) + `\b`
		}

		pattern, err := regexp.Compile(`(?i)` + expr)
		if err != nil {
			return nil, fmt.Errorf("rule %d (%q): %w", i, rule.Match, err)
		}
		r.patterns = append(r.patterns, pattern)
	}

	return r, nil
}

// Apply runs all rules over the text in order
func (r *Rules) Apply(text string) string {
	if r == nil {
		return text
	}
	for i, pattern := range r.patterns {
		text = pattern.ReplaceAllString(text, r.rules[i].Replace)
	}
	return text
}

// Len returns the number of rules
func (r *Rules) Len() int {
	if r == nil {
		return 0
	}
	return len(r.rules)
}
