package filter

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/jdotsteets/fantasy-report-sub002/app/database"
	"github.com/jdotsteets/fantasy-report-sub002/app/feed"
)

type compiledRule struct {
	forbidden   []*regexp.Regexp
	pathDeny    []*regexp.Regexp
	pathAllow   []*regexp.Regexp
	requiredAny []*regexp.Regexp
	leagues     map[string]bool
}

// Engine evaluates admission rules for discovered items.
type Engine struct {
	def     compiledRule
	domains map[string]compiledRule
	sources map[int64]compiledRule
}

func NewEngine(rs *RuleSet) (*Engine, error) {
	def, err := compileRule(rs.Default)
	if err != nil {
		return nil, fmt.Errorf("invalid default rule: %w", err)
	}

	e := &Engine{
		def:     def,
		domains: make(map[string]compiledRule, len(rs.Domains)),
		sources: make(map[int64]compiledRule, len(rs.Sources)),
	}

	for domain, rule := range rs.Domains {
		compiled, err := compileRule(rule)
		if err != nil {
			return nil, fmt.Errorf("invalid rule for domain %s: %w", domain, err)
		}
		e.domains[strings.ToLower(domain)] = compiled
	}

	for id, rule := range rs.Sources {
		compiled, err := compileRule(rule)
		if err != nil {
			return nil, fmt.Errorf("invalid rule for source %d: %w", id, err)
		}
		e.sources[id] = compiled
	}

	return e, nil
}

func compileRule(r Rule) (compiledRule, error) {
	compiled := compiledRule{leagues: make(map[string]bool, len(r.Leagues))}

	for _, league := range r.Leagues {
		compiled.leagues[strings.ToLower(league)] = true
	}

	for _, group := range []struct {
		patterns []string
		target   *[]*regexp.Regexp
	}{
		{r.Forbidden, &compiled.forbidden},
		{r.PathDeny, &compiled.pathDeny},
		{r.PathAllow, &compiled.pathAllow},
		{r.RequiredAny, &compiled.requiredAny},
	} {
		for _, pattern := range group.patterns {
			re, err := regexp.Compile("(?i)" + pattern)
			if err != nil {
				return compiledRule{}, fmt.Errorf("bad pattern %q: %w", pattern, err)
			}
			*group.target = append(*group.target, re)
		}
	}

	return compiled, nil
}

// ruleFor picks the most specific rule: source id beats domain beats
// default.
func (e *Engine) ruleFor(domain string, sourceID int64) compiledRule {
	if rule, ok := e.sources[sourceID]; ok {
		return rule
	}
	if rule, ok := e.domains[strings.ToLower(domain)]; ok {
		return rule
	}
	return e.def
}

// Admit decides whether a discovered item becomes an article candidate.
// Evaluation short-circuits in fixed order: forbidden, path-deny,
// path-allow, required-any, league gate. Deny wins over allow whenever
// both are configured.
func (e *Engine) Admit(item feed.RawItem, domain string, sourceID int64) Decision {
	rule := e.ruleFor(domain, sourceID)

	text := item.Title + " " + item.Description + " " + item.Link
	path := urlPath(item.Link)

	if re := matchAny(rule.forbidden, text); re != nil {
		return reject(database.ReasonBlockedByFilter, "forbidden pattern: "+re.String())
	}
	if re := matchAny(rule.forbidden, path); re != nil {
		return reject(database.ReasonBlockedByFilter, "forbidden path pattern: "+re.String())
	}
	if re := matchAny(rule.pathDeny, path); re != nil {
		return reject(database.ReasonBlockedByFilter, "denied path: "+re.String())
	}
	if len(rule.pathAllow) > 0 && matchAny(rule.pathAllow, path) == nil {
		return reject(database.ReasonFilteredOut, "path matched no allow pattern")
	}
	if len(rule.requiredAny) > 0 && matchAny(rule.requiredAny, text) == nil {
		return reject(database.ReasonFilteredOut, "no required keyword matched")
	}

	league := DetectLeague(text)
	if len(rule.leagues) > 0 && !rule.leagues[league] {
		return reject(database.ReasonNonNFLLeague, "league "+league+" not in allow-list")
	}

	return Decision{
		Allowed:  true,
		League:   league,
		Category: DetectCategory(text),
	}
}

func reject(reason, detail string) Decision {
	return Decision{Allowed: false, Reason: reason, Detail: detail}
}

func matchAny(patterns []*regexp.Regexp, text string) *regexp.Regexp {
	for _, re := range patterns {
		if re.MatchString(text) {
			return re
		}
	}
	return nil
}

func urlPath(link string) string {
	u, err := url.Parse(link)
	if err != nil {
		return ""
	}
	return u.Path
}
