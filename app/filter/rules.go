package filter

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// DefaultRuleSet is the built-in global rule set. A rules file can replace
// or extend it so operators can tune admission without a rebuild.
func DefaultRuleSet() *RuleSet {
	return &RuleSet{
		Default: Rule{
			Forbidden: []string{
				`sportsbook promo`,
				`promo code`,
				`betting bonus`,
				`casino`,
				`sweepstakes`,
			},
			PathDeny: []string{
				`^/videos?/`,
				`^/podcasts?/`,
				`^/gallery/`,
				`^/photos/`,
				`^/shop/`,
			},
			Leagues: []string{LeagueNFL, LeagueUnknown},
		},
		Domains: map[string]Rule{},
		Sources: map[int64]Rule{},
	}
}

type rulesFile struct {
	Admission *RuleSet `yaml:"admission"`
}

// LoadRuleSet returns the defaults, overlaid with the admission section of
// the rules file when one is configured. Per-domain and per-source entries
// from the file are merged over the defaults; a default section in the
// file replaces the built-in global rule wholesale.
func LoadRuleSet(path string) (*RuleSet, error) {
	rs := DefaultRuleSet()
	if path == "" {
		return rs, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rules file: %w", err)
	}

	var file rulesFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse rules file: %w", err)
	}
	if file.Admission == nil {
		return rs, nil
	}

	if !emptyRule(file.Admission.Default) {
		rs.Default = file.Admission.Default
	}
	for domain, rule := range file.Admission.Domains {
		rs.Domains[domain] = rule
	}
	for id, rule := range file.Admission.Sources {
		rs.Sources[id] = rule
	}

	return rs, nil
}

func emptyRule(r Rule) bool {
	return len(r.Forbidden) == 0 && len(r.PathDeny) == 0 &&
		len(r.PathAllow) == 0 && len(r.RequiredAny) == 0 && len(r.Leagues) == 0
}
