package normalize

import (
	"regexp"
	"strconv"
)

const (
	minWeek = 1
	maxWeek = 18
)

var weekRe = regexp.MustCompile(`(?i)\bw(?:eek|k)\s*#?\s*(\d{1,2})\b`)

// ExtractWeek pulls a season week number ("Week 5", "wk #12") out of text.
// Values outside the NFL season range are treated as absent.
func ExtractWeek(text string) *int {
	m := weekRe.FindStringSubmatch(text)
	if m == nil {
		return nil
	}
	n, err := strconv.Atoi(m[1])
	if err != nil || n < minWeek || n > maxWeek {
		return nil
	}
	return &n
}
