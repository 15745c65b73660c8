package filter

// Rule is one admission rule set. All patterns are regular expressions
// compiled case-insensitively.
type Rule struct {
	// Forbidden hard-rejects when matched against title/description/URL
	// text or the URL path.
	Forbidden []string `yaml:"forbidden"`
	// PathDeny rejects when the URL path matches. Deny always wins.
	PathDeny []string `yaml:"path_deny"`
	// PathAllow, when non-empty, requires the URL path to match at least
	// one pattern.
	PathAllow []string `yaml:"path_allow"`
	// RequiredAny, when non-empty, requires at least one match in the
	// combined title/description/URL text.
	RequiredAny []string `yaml:"required_any"`
	// Leagues is the league allow-list ("nfl", "unknown", ...). Empty
	// means no league gate.
	Leagues []string `yaml:"leagues"`
}

// RuleSet merges a global default with per-domain and per-source-id
// overrides. A source-id rule beats a domain rule; either beats the
// default.
type RuleSet struct {
	Default Rule            `yaml:"default"`
	Domains map[string]Rule `yaml:"domains"`
	Sources map[int64]Rule  `yaml:"sources"`
}

// Decision is the admission verdict for one item. Reason and Detail are
// only meaningful on rejection; League and Category are set on admission.
type Decision struct {
	Allowed  bool
	Reason   string
	Detail   string
	League   string
	Category string
}
