package classifier

import (
	"strings"

	"github.com/turtacn/Musaid-NLQ/internal/intelligence/textnorm"
)

// Timeframe ids.
const (
	TimeframeUnspecified = "unspecified"
	TimeframeToday       = "today"
	TimeframeYesterday   = "yesterday"
	TimeframeNow         = "now"
	TimeframeTomorrow    = "tomorrow"
	TimeframeThisWeek    = "this_week"
	TimeframeLastWeek    = "last_week"
	TimeframeThisMonth   = "this_month"
	TimeframeLastMonth   = "last_month"
	TimeframeThisYear    = "this_year"
	TimeframeLastYear    = "last_year"
)

type temporalPhrase struct {
	phrase     string
	timeframe  string
	historical bool
	realTime   bool
}

func tp(phrase, timeframe string, historical, realTime bool) temporalPhrase {
	return temporalPhrase{textnorm.Normalize(phrase), timeframe, historical, realTime}
}

// temporalPhrases lists multi-word phrases before single words so the most
// specific timeframe is reported first.
var temporalPhrases = []temporalPhrase{
	tp("الشهر الماضي", TimeframeLastMonth, true, false),
	tp("الشهر السابق", TimeframeLastMonth, true, false),
	tp("هذا الشهر", TimeframeThisMonth, false, false),
	tp("الشهر الحالي", TimeframeThisMonth, false, false),
	tp("الأسبوع الماضي", TimeframeLastWeek, true, false),
	tp("هذا الأسبوع", TimeframeThisWeek, false, false),
	tp("السنة الماضية", TimeframeLastYear, true, false),
	tp("العام الماضي", TimeframeLastYear, true, false),
	tp("هذه السنة", TimeframeThisYear, false, false),
	tp("هذا العام", TimeframeThisYear, false, false),
	tp("اليوم", TimeframeToday, false, true),
	tp("أمس", TimeframeYesterday, true, false),
	tp("البارحة", TimeframeYesterday, true, false),
	tp("الآن", TimeframeNow, false, true),
	tp("حاليا", TimeframeNow, false, true),
	tp("غدا", TimeframeTomorrow, false, false),
	tp("today", TimeframeToday, false, true),
	tp("yesterday", TimeframeYesterday, true, false),
	tp("now", TimeframeNow, false, true),
}

// TemporalAnalyzer finds time references.
type TemporalAnalyzer struct{}

// Analyze never fails; without any phrase the timeframe is unspecified.
func (TemporalAnalyzer) Analyze(text string) Temporal {
	out := Temporal{Timeframe: TimeframeUnspecified}
	for _, p := range temporalPhrases {
		if !mentions(text, p.phrase) {
			continue
		}
		if out.Timeframe == TimeframeUnspecified {
			out.Timeframe = p.timeframe
		}
		out.Phrases = append(out.Phrases, p.phrase)
		if !out.Has(p.timeframe) {
			out.Timeframes = append(out.Timeframes, p.timeframe)
		}
		out.IsHistorical = out.IsHistorical || p.historical
		out.IsRealTime = out.IsRealTime || p.realTime
	}
	return out
}

// mentions matches single words through clitics ("وأمس") and phrases on
// token boundaries.
func mentions(text, phrase string) bool {
	if strings.Contains(phrase, " ") {
		return textnorm.ContainsPhrase(text, phrase)
	}
	return textnorm.ContainsToken(text, phrase)
}

// TemporalPhrases reports the timeframe ids referenced in text.
func TemporalPhrases(text string) []string {
	return TemporalAnalyzer{}.Analyze(text).Timeframes
}

//Personal.AI order the ending
