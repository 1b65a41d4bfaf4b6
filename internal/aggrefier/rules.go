package aggrefier

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/tidwall/jsonc"

	"jhove2/internal/fault"
	"jhove2/internal/format"
)

//go:embed builtin_rules.jsonc
var builtinRules []byte

// RuleSet is the document shape of a rule file.
type RuleSet struct {
	Rules []Rule `json:"rules"`
}

// Rule describes one multi-file format: sibling sources whose base names
// share a key form a clump when every required member is present.
type Rule struct {
	Name string `json:"name"`
	// Format is a registered format name or short identifier.
	Format     string `json:"format"`
	Confidence string `json:"confidence,omitempty"`
	// Key is a regular expression with a named group "key" applied to
	// base names; siblings with equal keys are grouped.
	Key        string       `json:"key"`
	IgnoreCase bool         `json:"ignore_case,omitempty"`
	Members    []MemberRule `json:"members"`
	// MinMembers defaults to the larger of 2 and the required member count.
	MinMembers int `json:"min_members,omitempty"`
}

// MemberRule matches one role within a clump by base name.
type MemberRule struct {
	Name     string `json:"name"`
	Pattern  string `json:"pattern"`
	Required bool   `json:"required,omitempty"`
}

type compiledRule struct {
	name       string
	format     format.Format
	confidence format.Confidence
	key        *regexp.Regexp
	keyGroup   int
	ignoreCase bool
	members    []compiledMember
	minMembers int
}

type compiledMember struct {
	name     string
	pattern  *regexp.Regexp
	required bool
}

// ParseRules decodes a JSONC rule document.
func ParseRules(data []byte) ([]Rule, error) {
	var set RuleSet
	if err := json.Unmarshal(jsonc.ToJSON(data), &set); err != nil {
		return nil, fault.Wrap(fault.ErrConfiguration, "aggrefier", "parse rules", "malformed rule document", err)
	}
	return set.Rules, nil
}

// ReadRules reads a JSONC rule file from disk.
func ReadRules(path string) ([]Rule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fault.Wrap(fault.ErrConfiguration, "aggrefier", "read rules", path, err)
	}
	rules, err := ParseRules(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return rules, nil
}

// BuiltinRules returns the rules shipped with the binary.
func BuiltinRules() []Rule {
	rules, err := ParseRules(builtinRules)
	if err != nil {
		panic(fmt.Sprintf("builtin clump rules: %v", err))
	}
	return rules
}

func compileRule(r Rule, registry *format.Registry) (compiledRule, error) {
	fail := func(msg string, err error) (compiledRule, error) {
		return compiledRule{}, fault.Wrap(fault.ErrConfiguration, "aggrefier", "compile rule",
			fmt.Sprintf("rule %q: %s", r.Name, msg), err)
	}
	if strings.TrimSpace(r.Name) == "" {
		return fail("name is required", nil)
	}
	f, ok := registry.ByName(r.Format)
	if !ok {
		return fail(fmt.Sprintf("unknown format %q", r.Format), nil)
	}
	confidence := format.PositiveGeneric
	if r.Confidence != "" {
		c, err := format.ParseConfidence(r.Confidence)
		if err != nil {
			return fail("bad confidence", err)
		}
		confidence = c
	}
	prefix := ""
	if r.IgnoreCase {
		prefix = "(?i)"
	}
	key, err := regexp.Compile(prefix + r.Key)
	if err != nil {
		return fail("bad key pattern", err)
	}
	group := key.SubexpIndex("key")
	if group < 0 {
		return fail("key pattern has no (?P<key>...) group", nil)
	}
	if len(r.Members) == 0 {
		return fail("at least one member is required", nil)
	}
	out := compiledRule{
		name:       r.Name,
		format:     f,
		confidence: confidence,
		key:        key,
		keyGroup:   group,
		ignoreCase: r.IgnoreCase,
		minMembers: r.MinMembers,
	}
	required := 0
	for _, m := range r.Members {
		pattern, err := regexp.Compile(prefix + m.Pattern)
		if err != nil {
			return fail(fmt.Sprintf("member %q: bad pattern", m.Name), err)
		}
		if m.Required {
			required++
		}
		out.members = append(out.members, compiledMember{name: m.Name, pattern: pattern, required: m.Required})
	}
	out.minMembers = max(out.minMembers, required, 2)
	return out, nil
}
