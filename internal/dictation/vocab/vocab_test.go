// ============================================================================
// dikta - Desktop Voice Dictation
// ============================================================================
//
// Package:     vocab
// Description: Tests for vocabulary replacement rules
// Author:      The dikta Authors
// Created:     2026-08-15
// License:     MIT
// ============================================================================

package vocab

import (
	"os"
	"path/filepath"
	"testing"
)

func TestRules_Apply(t *testing.T) {
	rules, err := Compile([]Rule{
		{Match: "cooper netties", Replace: "Kubernetes"},
		{Match: "get hub", Replace: "GitHub"},
	})
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"simple", "deploy to cooper netties", "deploy to Kubernetes"},
		{"case insensitive", "Cooper Netties and GET HUB", "Kubernetes and GitHub"},
		{"word boundary", "get hubcap", "get hubcap"},
		{"no match", "nothing to do here", "nothing to do here"},
		{"multiple", "get hub plus get hub", "GitHub plus GitHub"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := rules.Apply(tt.in); got != tt.want {
				t.Errorf("Apply(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestRules_RegexRule(t *testing.T) {
	rules, err := Compile([]Rule{
		{Match: `version (\d+) dot (\d+)`, Replace: "v$1.$2", Regex: true},
	})
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}

	if got := rules.Apply("release version 2 dot 7 now"); got != "release v2.7 now" {
		t.Errorf("Apply() = %q, want %q", got, "release v2.7 now")
	}
}

func TestCompile_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		rules []Rule
	}{
		{"empty match", []Rule{{Match: "", Replace: "x"}}},
		{"bad regex", []Rule{{Match: "(unclosed", Replace: "x", Regex: true}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Compile(tt.rules); err == nil {
				t.Error("Compile() = nil error, want error")
			}
		})
	}
}

func TestLoad_YAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vocab.yaml")
	content := `rules:
  - match: "post gress"
    replace: "PostgreSQL"
  - match: "version (\\d+) dot (\\d+)"
    replace: "v$1.$2"
    regex: true
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	rules, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if rules.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", rules.Len())
	}
	if got := rules.Apply("post gress version 16 dot 2"); got != "PostgreSQL v16.2" {
		t.Errorf("Apply() = %q, want %q", got, "PostgreSQL v16.2")
	}
}

func TestNilRules_Apply(t *testing.T) {
	var rules *Rules
	if got := rules.Apply("unchanged"); got != "unchanged" {
		t.Errorf("Apply() on nil = %q, want unchanged", got)
	}
}
