package aggrefier

import (
	"context"
	"strings"

	"jhove2/internal/format"
	"jhove2/internal/identifier"
	"jhove2/internal/module"
	"jhove2/internal/source"
)

var globInfo = module.Info{
	Name:        "GlobRecognizer",
	Version:     "1.0.0",
	ReleaseDate: "2026-10-01",
	Rights:      "BSD-3-Clause",
	Developers:  []module.Agent{{Name: "jhove2 maintainers"}},
	Note:        "Groups sibling files by base name pattern",
}

// GlobRecognizer proposes clumps from rules that match sibling base names.
type GlobRecognizer struct {
	*RecognizerBase
	rules []compiledRule
}

// NewGlobRecognizer compiles rules against registry. The recognizer id is
// derived from name.
func NewGlobRecognizer(name string, rules []Rule, registry *format.Registry) (*GlobRecognizer, error) {
	g := &GlobRecognizer{}
	info := globInfo
	info.Name = name
	g.RecognizerBase = NewRecognizerBase(g, identifier.JHOVE2Term("module", "recognizer", name), info)
	for _, r := range rules {
		compiled, err := compileRule(r, registry)
		if err != nil {
			return nil, err
		}
		g.rules = append(g.rules, compiled)
	}
	return g, nil
}

// Rules returns the names of the compiled rules in evaluation order.
func (g *GlobRecognizer) Rules() []string {
	names := make([]string, len(g.rules))
	for i, r := range g.rules {
		names[i] = r.name
	}
	return names
}

type group struct {
	key     string
	members []source.Source
}

// Recognize groups content-bearing direct children of s by rule key. A
// group becomes a candidate when every required member role is present
// and it has at least the rule's minimum member count. Rules are evaluated
// in order and a child claimed by an earlier rule is not offered to later
// ones in the same call.
func (g *GlobRecognizer) Recognize(ctx context.Context, s source.Source) ([]Candidate, error) {
	children := s.Children()
	claimed := make(map[source.ID]bool)
	var out []Candidate
	for _, rule := range g.rules {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		var groups []*group
		index := make(map[string]*group)
		for _, child := range children {
			if claimed[child.ID()] || !child.Kind().HasContent() {
				continue
			}
			base := child.BaseName()
			m := rule.key.FindStringSubmatch(base)
			if m == nil || m[rule.keyGroup] == "" {
				continue
			}
			if rule.memberRole(base) < 0 {
				continue
			}
			key := m[rule.keyGroup]
			if rule.ignoreCase {
				key = strings.ToLower(key)
			}
			grp, ok := index[key]
			if !ok {
				grp = &group{key: m[rule.keyGroup]}
				index[key] = grp
				groups = append(groups, grp)
			}
			grp.members = append(grp.members, child)
		}
		for _, grp := range groups {
			if !rule.complete(grp.members) {
				continue
			}
			cand := Candidate{
				Name:       grp.key,
				Format:     rule.format,
				Confidence: rule.confidence,
			}
			for _, m := range grp.members {
				cand.Members = append(cand.Members, m.ID())
				claimed[m.ID()] = true
			}
			out = append(out, cand)
		}
	}
	return out, nil
}

func (r compiledRule) memberRole(base string) int {
	for i, m := range r.members {
		if m.pattern.MatchString(base) {
			return i
		}
	}
	return -1
}

func (r compiledRule) complete(members []source.Source) bool {
	if len(members) < r.minMembers {
		return false
	}
	present := make([]bool, len(r.members))
	for _, m := range members {
		present[r.memberRole(m.BaseName())] = true
	}
	for i, m := range r.members {
		if m.required && !present[i] {
			return false
		}
	}
	return true
}
