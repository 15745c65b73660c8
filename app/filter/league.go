package filter

import (
	"regexp"
)

// League classification values.
const (
	LeagueNFL     = "nfl"
	LeagueOther   = "other"
	LeagueUnknown = "unknown"
)

// Category values assigned by the lightweight keyword heuristic.
const (
	CategoryNews       = "news"
	CategoryDepthChart = "depth-chart"
	CategoryStartSit   = "start-sit"
	CategoryRankings   = "rankings"
	CategoryInjury     = "injury"
	CategoryDFS        = "dfs"
	CategoryScoreboard = "scoreboard"
	CategoryRumor      = "rumor"
	CategoryAdvice     = "advice"
)

var (
	nflRe = regexp.MustCompile(`(?i)\bnfl\b|\bfantasy football\b`)

	otherSportRe = regexp.MustCompile(`(?i)\bnba\b|\bmlb\b|\bnhl\b|\bwnba\b|\bmls\b|` +
		`\bcollege basketball\b|\bmarch madness\b|\bpremier league\b|\bsoccer\b|` +
		`\bgolf\b|\bnascar\b|\bf1\b|\btennis\b|\bufc\b|\bboxing\b|\bcricket\b`)
)

// DetectLeague is a keyword heuristic: NFL when the league name or its
// fantasy variant appears, OTHER when a disjoint other-sport keyword
// appears, UNKNOWN otherwise.
func DetectLeague(text string) string {
	if nflRe.MatchString(text) {
		return LeagueNFL
	}
	if otherSportRe.MatchString(text) {
		return LeagueOther
	}
	return LeagueUnknown
}

// Category patterns in fixed precedence order; the first hit wins.
var categoryRules = []struct {
	re       *regexp.Regexp
	category string
}{
	{regexp.MustCompile(`(?i)depth chart|roster move|signs? with|re-sign|released|waived|claimed off waivers|promoted to|elevated from`), CategoryDepthChart},
	{regexp.MustCompile(`(?i)start\s*['’]?em\b|sit\s*['’]?em\b|start/sit|start or sit|who to start|lineup decisions`), CategoryStartSit},
	{regexp.MustCompile(`(?i)\brankings?\b|\btiers?\b|\btop \d+\b`), CategoryRankings},
	{regexp.MustCompile(`(?i)injur(y|ies|ed)|questionable|doubtful|out for the season|injured reserve|concussion protocol`), CategoryInjury},
	{regexp.MustCompile(`(?i)\bdfs\b|draftkings|fanduel|daily fantasy|gpp|cash game`), CategoryDFS},
	{regexp.MustCompile(`(?i)final score|recap\b|box score|scoreboard|highlights\b`), CategoryScoreboard},
	{regexp.MustCompile(`(?i)\brumors?\b|reportedly|sources say|per source`), CategoryRumor},
}

// DetectCategory buckets an item's text. Trade routing takes precedence
// over the generic keyword pass; the default bucket is News.
func DetectCategory(text string) string {
	if category, ok := routeTrade(text); ok {
		return category
	}
	for _, rule := range categoryRules {
		if rule.re.MatchString(text) {
			return rule.category
		}
	}
	return CategoryNews
}

var (
	tradeWordRe = regexp.MustCompile(`(?i)\btrade[ds]?\b`)

	transactionVerbRe = regexp.MustCompile(`(?i)\b(trades?|traded|acquires?|acquired|sends?|sent|` +
		`deals?|dealt|swaps?|swapped|ships?|shipped)\b`)

	fantasyTradeRe = regexp.MustCompile(`(?i)buy[ -]low|sell[ -]high|trade (targets?|candidates?|` +
		`advice|values?|bait)|\bdynasty\b|\bredraft\b|rest[ -]of[ -]season`)
)

// routeTrade disambiguates trade language. Two distinct team mentions plus
// a transaction verb means a real transaction (News) regardless of any
// fantasy phrasing also present; otherwise fantasy-advice phrasing routes
// to Advice.
func routeTrade(text string) (string, bool) {
	if !tradeWordRe.MatchString(text) {
		return "", false
	}
	if countTeamMentions(text) >= 2 && transactionVerbRe.MatchString(text) {
		return CategoryNews, true
	}
	if fantasyTradeRe.MatchString(text) {
		return CategoryAdvice, true
	}
	return "", false
}

// One pattern per franchise: nickname matched case-insensitively,
// abbreviation matched exactly to avoid false hits inside ordinary words.
var teamPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i:\bcardinals\b)|\bARI\b`),
	regexp.MustCompile(`(?i:\bfalcons\b)|\bATL\b`),
	regexp.MustCompile(`(?i:\bravens\b)|\bBAL\b`),
	regexp.MustCompile(`(?i:\bbills\b)|\bBUF\b`),
	regexp.MustCompile(`(?i:\bpanthers\b)|\bCAR\b`),
	regexp.MustCompile(`(?i:\bbears\b)|\bCHI\b`),
	regexp.MustCompile(`(?i:\bbengals\b)|\bCIN\b`),
	regexp.MustCompile(`(?i:\bbrowns\b)|\bCLE\b`),
	regexp.MustCompile(`(?i:\bcowboys\b)|\bDAL\b`),
	regexp.MustCompile(`(?i:\bbroncos\b)|\bDEN\b`),
	regexp.MustCompile(`(?i:\blions\b)|\bDET\b`),
	regexp.MustCompile(`(?i:\bpackers\b)|\bGB\b`),
	regexp.MustCompile(`(?i:\btexans\b)|\bHOU\b`),
	regexp.MustCompile(`(?i:\bcolts\b)|\bIND\b`),
	regexp.MustCompile(`(?i:\bjaguars\b)|\bJAX\b`),
	regexp.MustCompile(`(?i:\bchiefs\b)|\bKC\b`),
	regexp.MustCompile(`(?i:\braiders\b)|\bLV\b`),
	regexp.MustCompile(`(?i:\bchargers\b)|\bLAC\b`),
	regexp.MustCompile(`(?i:\brams\b)|\bLAR\b`),
	regexp.MustCompile(`(?i:\bdolphins\b)|\bMIA\b`),
	regexp.MustCompile(`(?i:\bvikings\b)|\bMIN\b`),
	regexp.MustCompile(`(?i:\bpatriots\b)|\bNE\b`),
	regexp.MustCompile(`(?i:\bsaints\b)|\bNO\b`),
	regexp.MustCompile(`(?i:\bgiants\b)|\bNYG\b`),
	regexp.MustCompile(`(?i:\bjets\b)|\bNYJ\b`),
	regexp.MustCompile(`(?i:\beagles\b)|\bPHI\b`),
	regexp.MustCompile(`(?i:\bsteelers\b)|\bPIT\b`),
	regexp.MustCompile(`(?i:\b49ers\b|\bniners\b)|\bSF\b`),
	regexp.MustCompile(`(?i:\bseahawks\b)|\bSEA\b`),
	regexp.MustCompile(`(?i:\bbuccaneers\b|\bbucs\b)|\bTB\b`),
	regexp.MustCompile(`(?i:\btitans\b)|\bTEN\b`),
	regexp.MustCompile(`(?i:\bcommanders\b)|\bWAS\b`),
}

func countTeamMentions(text string) int {
	count := 0
	for _, re := range teamPatterns {
		if re.MatchString(text) {
			count++
		}
	}
	return count
}
