package domain

import (
	"sort"

	"webtally/internal/platform/hostmatch"
)

type Decision string

const (
	Allow Decision = "allow"
	Block Decision = "block"
)

const (
	ActionRedirect    = "redirect"
	ResourceMainFrame = "main_frame"
)

// Rule is one installed redirect rule. IDs are 1-based positions in the
// sorted rule set.
type Rule struct {
	ID            int      `json:"id"`
	Domain        string   `json:"domain"`
	URLFilter     string   `json:"urlFilter"`
	Action        string   `json:"action"`
	RedirectURL   string   `json:"redirectUrl"`
	ResourceTypes []string `json:"resourceTypes"`
}

type RuleSet struct {
	Rules []Rule `json:"rules"`
}

// BuildRuleSet derives the rule set for a blocked list. The result depends
// only on the set of normalized sites.
func BuildRuleSet(sites []string, redirectURL string) RuleSet {
	seen := map[string]bool{}
	domains := make([]string, 0, len(sites))
	for _, raw := range sites {
		site := hostmatch.Normalize(raw)
		if site == "" || seen[site] {
			continue
		}
		seen[site] = true
		domains = append(domains, site)
	}
	sort.Strings(domains)
	rules := make([]Rule, 0, len(domains))
	for i, site := range domains {
		rules = append(rules, Rule{
			ID:            i + 1,
			Domain:        site,
			URLFilter:     "*://*." + site + "/*",
			Action:        ActionRedirect,
			RedirectURL:   redirectURL,
			ResourceTypes: []string{ResourceMainFrame},
		})
	}
	return RuleSet{Rules: rules}
}

func (r RuleSet) Domains() []string {
	out := make([]string, 0, len(r.Rules))
	for _, rule := range r.Rules {
		out = append(out, rule.Domain)
	}
	return out
}

func (r RuleSet) Empty() bool {
	return len(r.Rules) == 0
}

// Equal compares domain sets only.
func (r RuleSet) Equal(other RuleSet) bool {
	a, b := r.Domains(), other.Domains()
	if len(a) != len(b) {
		return false
	}
	sort.Strings(a)
	sort.Strings(b)
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

type State struct {
	ManualEnabled bool `json:"manualEnabled"`
	FocusActive   bool `json:"focusActive"`
}

func (s State) Active() bool {
	return s.ManualEnabled || s.FocusActive
}

// Snapshot is the effective policy used for navigation decisions. It only
// changes after a rule set has been installed successfully.
type Snapshot struct {
	Active      bool
	Domains     []string
	RedirectURL string
}

func (s Snapshot) Decide(rawURL string) Decision {
	if !s.Active {
		return Allow
	}
	host, ok := hostmatch.Host(rawURL)
	if !ok {
		return Allow
	}
	for _, site := range s.Domains {
		if hostmatch.Either(host, site) {
			return Block
		}
	}
	return Allow
}
