package classify

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Topic buckets, in the fixed order used for deterministic iteration and
// tie-breaking.
const (
	TopicWaiverWire = "waiver-wire"
	TopicRankings   = "rankings"
	TopicStartSit   = "start-sit"
	TopicInjury     = "injury"
	TopicDFS        = "dfs"
	TopicAdvice     = "advice"
)

var bucketOrder = []string{
	TopicWaiverWire, TopicRankings, TopicStartSit, TopicInjury, TopicDFS, TopicAdvice,
}

// ScoreRule is one (pattern, bucket, weight, dampener) tuple consumed by
// the generic weighted scorer. Dampeners subtract their weight when the
// pattern co-occurs with a bucket's positive signal.
type ScoreRule struct {
	Pattern  string  `yaml:"pattern"`
	Bucket   string  `yaml:"bucket"`
	Weight   float64 `yaml:"weight"`
	Dampener bool    `yaml:"dampener"`
}

// SecondaryRule is one entry of the ordered explicit-keyword list used for
// secondary-topic selection; the first match in title or URL wins.
type SecondaryRule struct {
	Pattern string `yaml:"pattern"`
	Topic   string `yaml:"topic"`
}

// Tables is the full externally tunable classifier configuration.
type Tables struct {
	Rules          []ScoreRule                   `yaml:"rules"`
	SecondaryRules []SecondaryRule               `yaml:"secondary_rules"`
	SourceBonuses  map[string]map[string]float64 `yaml:"source_bonuses"`
}

// Reference weights: 1.0 for primary keyword families, 0.9 for secondary
// signals, 0.6 for trade talk feeding advice.
const (
	primaryFamilyWeight   = 1.0
	secondarySignalWeight = 0.9
	tradeTalkWeight       = 0.6
)

// DefaultTables is the built-in pattern/weight configuration. A rules file
// can replace it so operators can tune scoring without a rebuild.
func DefaultTables() *Tables {
	return &Tables{
		Rules: []ScoreRule{
			{Pattern: `waiver[ -]wire|\bwaivers?\b|free agent pickups?|pickups? of the week|adds? and drops|\bfaab\b`, Bucket: TopicWaiverWire, Weight: primaryFamilyWeight},
			{Pattern: `\brankings?\b|\btiers?\b|\btop \d+\b|positional ranks`, Bucket: TopicRankings, Weight: primaryFamilyWeight},
			{Pattern: `start\s*['’]?em\b|sit\s*['’]?em\b|start/sit|start or sit|who to start|lineup decisions`, Bucket: TopicStartSit, Weight: primaryFamilyWeight},
			{Pattern: `\bsleepers?\b`, Bucket: TopicStartSit, Weight: secondarySignalWeight},
			{Pattern: `injur(y|ies|ed)|\bquestionable\b|\bdoubtful\b|injured reserve|concussion|hamstring|\bacl\b|\bmcl\b`, Bucket: TopicInjury, Weight: primaryFamilyWeight},
			{Pattern: `\bdfs\b|draftkings|fanduel|daily fantasy|cash game|\bgpp\b|salary|value plays?`, Bucket: TopicDFS, Weight: primaryFamilyWeight},
			{Pattern: `buy[ -]low|sell[ -]high|trade targets?|\bdynasty\b|\bredraft\b|rest[ -]of[ -]season|\bstrategy\b`, Bucket: TopicAdvice, Weight: primaryFamilyWeight},
			{Pattern: `trade (talk|rumors?|value|bait)`, Bucket: TopicAdvice, Weight: tradeTalkWeight},

			// Dampeners: a waiver hit is not fantasy advice when the text
			// announces a real roster transaction; DFS language inside
			// betting promos is promotional; injury status outranks advice.
			{Pattern: `signs? with|re-sign|released|waived by|claimed off waivers|roster move|\btransaction\b`, Bucket: TopicWaiverWire, Weight: 0.8, Dampener: true},
			{Pattern: `\bbetting\b|\bodds\b|promo code|sportsbook|\bparlay\b`, Bucket: TopicDFS, Weight: 0.8, Dampener: true},
			{Pattern: `injur(y|ies|ed)|\bquestionable\b|\bdoubtful\b`, Bucket: TopicAdvice, Weight: 0.5, Dampener: true},
		},
		SecondaryRules: []SecondaryRule{
			{Pattern: `waiver`, Topic: TopicWaiverWire},
			{Pattern: `ranking|tiers`, Topic: TopicRankings},
			{Pattern: `start|sit-em|sleeper`, Topic: TopicStartSit},
			{Pattern: `injur|questionable`, Topic: TopicInjury},
			{Pattern: `dfs|draftkings|fanduel`, Topic: TopicDFS},
			{Pattern: `dynasty|buy-low|trade-target`, Topic: TopicAdvice},
		},
		SourceBonuses: map[string]map[string]float64{
			"fantasypros": {TopicRankings: 0.25},
			"rotoballer":  {TopicWaiverWire: 0.25},
			"rotowire":    {TopicInjury: 0.2},
			"numberfire":  {TopicDFS: 0.2},
		},
	}
}

type tablesFile struct {
	Classifier *Tables `yaml:"classifier"`
}

// LoadTables returns the defaults, replaced by the classifier section of
// the rules file when one is configured.
func LoadTables(path string) (*Tables, error) {
	if path == "" {
		return DefaultTables(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rules file: %w", err)
	}

	var file tablesFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse rules file: %w", err)
	}
	if file.Classifier == nil {
		return DefaultTables(), nil
	}

	t := DefaultTables()
	if len(file.Classifier.Rules) > 0 {
		t.Rules = file.Classifier.Rules
	}
	if len(file.Classifier.SecondaryRules) > 0 {
		t.SecondaryRules = file.Classifier.SecondaryRules
	}
	if len(file.Classifier.SourceBonuses) > 0 {
		t.SourceBonuses = file.Classifier.SourceBonuses
	}

	return t, nil
}
