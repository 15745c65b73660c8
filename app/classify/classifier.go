package classify

import (
	"fmt"
	"regexp"
	"strings"
)

// Empirical thresholds carried over from production tuning; no deeper
// derivation exists, so they stay named and overridable rather than
// hard-wired into the selection logic.
const (
	PrimaryThreshold   = 1.0
	SecondaryThreshold = 0.75
	SecondaryCloseness = 0.70

	minConfidence = 0.10
	maxConfidence = 0.99
)

// Input is everything classification may look at.
type Input struct {
	Title      string
	Summary    string
	URL        string
	SourceName string
	Week       *int
}

// Result is a classification outcome. Primary is empty when no bucket
// clears the minimum threshold; that is the deliberate general-news
// outcome, not an error.
type Result struct {
	Primary    string
	Secondary  string
	Topics     []string
	Confidence float64
	Week       *int
}

type compiledScoreRule struct {
	re       *regexp.Regexp
	bucket   string
	weight   float64
	dampener bool
}

type compiledSecondaryRule struct {
	re    *regexp.Regexp
	topic string
}

// Classifier is a pure, deterministic weighted scorer over configurable
// pattern tables. Identical input always yields identical output, so
// re-running ingestion over seen content cannot flap stored labels.
type Classifier struct {
	rules         []compiledScoreRule
	secondary     []compiledSecondaryRule
	sourceBonuses map[string]map[string]float64

	primaryThreshold   float64
	secondaryThreshold float64
	secondaryCloseness float64
}

func New(tables *Tables) (*Classifier, error) {
	c := &Classifier{
		sourceBonuses:      make(map[string]map[string]float64, len(tables.SourceBonuses)),
		primaryThreshold:   PrimaryThreshold,
		secondaryThreshold: SecondaryThreshold,
		secondaryCloseness: SecondaryCloseness,
	}

	for _, rule := range tables.Rules {
		re, err := regexp.Compile("(?i)" + rule.Pattern)
		if err != nil {
			return nil, fmt.Errorf("bad score pattern %q: %w", rule.Pattern, err)
		}
		c.rules = append(c.rules, compiledScoreRule{
			re: re, bucket: rule.Bucket, weight: rule.Weight, dampener: rule.Dampener,
		})
	}

	for _, rule := range tables.SecondaryRules {
		re, err := regexp.Compile("(?i)" + rule.Pattern)
		if err != nil {
			return nil, fmt.Errorf("bad secondary pattern %q: %w", rule.Pattern, err)
		}
		c.secondary = append(c.secondary, compiledSecondaryRule{re: re, topic: rule.Topic})
	}

	for source, bonuses := range tables.SourceBonuses {
		c.sourceBonuses[strings.ToLower(source)] = bonuses
	}

	return c, nil
}

// MustDefault builds a classifier from the built-in tables.
func MustDefault() *Classifier {
	c, err := New(DefaultTables())
	if err != nil {
		panic(fmt.Sprintf("default classifier tables do not compile: %v", err))
	}
	return c
}

// Classify scores every bucket against the item text, applies per-source
// bonuses and dampeners, and selects primary/secondary topics with the
// threshold and closeness policy.
func (c *Classifier) Classify(in Input) Result {
	text := in.Title + " " + in.Summary

	scores := make(map[string]float64, len(bucketOrder))
	for _, rule := range c.rules {
		if !rule.re.MatchString(text) {
			continue
		}
		if rule.dampener {
			// A dampener only suppresses an existing positive signal.
			if scores[rule.bucket] > 0 {
				scores[rule.bucket] -= rule.weight
			}
		} else {
			scores[rule.bucket] += rule.weight
		}
	}

	if bonuses, ok := c.sourceBonuses[strings.ToLower(in.SourceName)]; ok {
		for bucket, bonus := range bonuses {
			if scores[bucket] > 0 {
				scores[bucket] += bonus
			}
		}
	}

	primary, top, runnerUp, second := "", 0.0, "", 0.0
	for _, bucket := range bucketOrder {
		score := scores[bucket]
		if score > top {
			runnerUp, second = primary, top
			primary, top = bucket, score
		} else if score > second {
			runnerUp, second = bucket, score
		}
	}

	if top < c.primaryThreshold {
		primary = ""
	}

	secondary := ""
	if primary != "" {
		keyword := in.Title + " " + in.URL
		for _, rule := range c.secondary {
			if rule.re.MatchString(keyword) && rule.topic != primary {
				secondary = rule.topic
				break
			}
		}
		if secondary == "" && runnerUp != "" &&
			second >= c.secondaryThreshold && second >= top*c.secondaryCloseness {
			secondary = runnerUp
		}
	}

	topics := make([]string, 0, len(bucketOrder)+2)
	for _, bucket := range bucketOrder {
		if scores[bucket] > 0 {
			topics = append(topics, bucket)
		}
	}
	topics = append(topics, "nfl")
	if in.Week != nil {
		topics = append(topics, fmt.Sprintf("week:%d", *in.Week))
	}

	return Result{
		Primary:    primary,
		Secondary:  secondary,
		Topics:     topics,
		Confidence: confidence(top),
		Week:       in.Week,
	}
}

// confidence derives a [0.10, 0.99] value from the winning score.
func confidence(top float64) float64 {
	conf := top / 3.0
	if conf < minConfidence {
		conf = minConfidence
	}
	if conf > maxConfidence {
		conf = maxConfidence
	}
	return conf
}
