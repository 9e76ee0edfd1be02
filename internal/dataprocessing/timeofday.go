package dataprocessing

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"sharkclean/pkg/contracts/domain"
)

// timeSentinels are raw cell texts that carry no time information.
// Matching is done on the trimmed, lower-cased text.
var timeSentinels = []string{
	"",
	"unknown",
	"fatal  (wire netting installed at local beaches after this incident.)",
}

// ClassificationRule pairs a predicate over normalized text with the category
// it yields. Rules are tried in order and the first match wins.
type ClassificationRule struct {
	Name     string
	Match    func(normalized string) bool
	Category domain.TimeCategory
}

// keywordRule builds a rule that matches any of words on word boundaries.
// RE2's \b only knows ASCII, so the boundary is spelled out to treat any
// letter or digit as part of a word.
func keywordRule(name string, category domain.TimeCategory, words ...string) ClassificationRule {
	quoted := make([]string, len(words))
	for i, w := range words {
		quoted[i] = regexp.QuoteMeta(w)
	}
	re := regexp.MustCompile(`(?:^|[^\p{L}\p{N}_])(?:` + strings.Join(quoted, "|") + `)(?:$|[^\p{L}\p{N}_])`)
	return ClassificationRule{
		Name:     name,
		Match:    re.MatchString,
		Category: category,
	}
}

var hourToken = regexp.MustCompile(`\d{1,2}`)

// TimeClassifier buckets free-text incident times into morning, afternoon,
// night or unknown. It is safe for concurrent use.
type TimeClassifier struct {
	rules     []ClassificationRule
	sentinels map[string]struct{}
}

// NewTimeClassifier returns a classifier with the GSAF keyword vocabulary
func NewTimeClassifier() *TimeClassifier {
	sentinels := make(map[string]struct{}, len(timeSentinels))
	for _, s := range timeSentinels {
		sentinels[s] = struct{}{}
	}
	return &TimeClassifier{
		rules: []ClassificationRule{
			keywordRule("morning", domain.TimeMorning,
				"morning", "early morning", "midday", "before", "am", "dawn"),
			keywordRule("afternoon", domain.TimeAfternoon,
				"afternoon", "evening", "pm", "dusk", "sunset", "late afternoon"),
			keywordRule("night", domain.TimeNight,
				"night", "midnight", "after midnight"),
		},
		sentinels: sentinels,
	}
}

// Classify returns the bucket for a single cell. It never fails: anything it
// cannot place is Unknown.
func (c *TimeClassifier) Classify(v domain.Value) domain.TimeCategory {
	if v.IsAbsent() {
		return domain.TimeUnknown
	}

	text := strings.ToLower(strings.TrimSpace(v.String()))
	if _, ok := c.sentinels[text]; ok {
		return domain.TimeUnknown
	}

	for _, rule := range c.rules {
		if rule.Match(text) {
			return rule.Category
		}
	}

	return classifyHour(text)
}

// classifyHour reads the first one or two digit token as an hour of day.
// The token may come from narrative text rather than a clock time.
func classifyHour(text string) domain.TimeCategory {
	token := hourToken.FindString(foldDigits(text))
	if token == "" {
		return domain.TimeUnknown
	}
	hour, err := strconv.Atoi(token)
	if err != nil {
		return domain.TimeUnknown
	}
	switch {
	case hour >= 5 && hour < 12:
		return domain.TimeMorning
	case hour >= 12 && hour < 18:
		return domain.TimeAfternoon
	default:
		return domain.TimeNight
	}
}

// foldDigits rewrites non-ASCII decimal digits such as "１４" to their ASCII
// form so hourToken and strconv can read them.
func foldDigits(s string) string {
	return strings.Map(func(r rune) rune {
		if r > unicode.MaxASCII && unicode.Is(unicode.Nd, r) {
			return '0' + digitValue(r)
		}
		return r
	}, s)
}

// digitValue relies on every Nd run being a whole number of 0-9 sequences.
func digitValue(r rune) rune {
	start := r
	for unicode.Is(unicode.Nd, start-1) {
		start--
	}
	return (r - start) % 10
}

var defaultTimeClassifier = NewTimeClassifier()

// ClassifyTime classifies v with the shared default classifier
func ClassifyTime(v domain.Value) domain.TimeCategory {
	return defaultTimeClassifier.Classify(v)
}
