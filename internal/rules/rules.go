// Package rules holds the deterministic emotional-pattern classification
// table. The table is configuration: operators can point the service at a
// custom YAML file, otherwise the embedded default applies.
package rules

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed default_rules.yaml
var defaultRulesYAML []byte

// Rule maps free-text keywords and structured response values to one pattern.
type Rule struct {
	Name      string              `yaml:"name"`
	Keywords  []string            `yaml:"keywords"`
	Responses map[string][]string `yaml:"responses"`
}

type ruleFile struct {
	Patterns []Rule `yaml:"patterns"`
}

// RuleSet classifies sources into pattern tags, in stable table order.
type RuleSet struct {
	rules []Rule
}

// Default returns the embedded rule table.
func Default() (*RuleSet, error) {
	return parse(defaultRulesYAML)
}

// Load reads a rule table from path; empty path falls back to the default.
func Load(path string) (*RuleSet, error) {
	if path == "" {
		return Default()
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rules file: %w", err)
	}
	return parse(raw)
}

func parse(raw []byte) (*RuleSet, error) {
	var f ruleFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse rules: %w", err)
	}
	if len(f.Patterns) == 0 {
		return nil, fmt.Errorf("rules table has no patterns")
	}
	seen := map[string]bool{}
	for _, r := range f.Patterns {
		if r.Name == "" {
			return nil, fmt.Errorf("rules table has a pattern without a name")
		}
		if seen[r.Name] {
			return nil, fmt.Errorf("duplicate pattern %q in rules table", r.Name)
		}
		seen[r.Name] = true
	}
	return &RuleSet{rules: f.Patterns}, nil
}

// Patterns returns the pattern names in table order.
func (rs *RuleSet) Patterns() []string {
	out := make([]string, 0, len(rs.rules))
	for _, r := range rs.rules {
		out = append(out, r.Name)
	}
	return out
}

// Classify returns the pattern tags matching a source, in table order.
// A rule matches when any keyword occurs in the free text or any structured
// response carries one of the rule's values for that question key.
func (rs *RuleSet) Classify(responses map[string]string, freeText string) []string {
	text := strings.ToLower(freeText)
	var out []string
	for _, r := range rs.rules {
		if rs.matches(r, responses, text) {
			out = append(out, r.Name)
		}
	}
	return out
}

func (rs *RuleSet) matches(r Rule, responses map[string]string, text string) bool {
	for _, kw := range r.Keywords {
		if kw != "" && strings.Contains(text, strings.ToLower(kw)) {
			return true
		}
	}
	for key, vals := range r.Responses {
		got, ok := responses[key]
		if !ok {
			continue
		}
		got = strings.ToLower(strings.TrimSpace(got))
		for _, v := range vals {
			if got == strings.ToLower(v) {
				return true
			}
		}
	}
	// Keywords also apply to structured answers so a free-form response
	// field ("anything else?") still classifies.
	for _, answer := range responses {
		la := strings.ToLower(answer)
		for _, kw := range r.Keywords {
			if kw != "" && strings.Contains(la, strings.ToLower(kw)) {
				return true
			}
		}
	}
	return false
}
