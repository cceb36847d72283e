package numerical

import (
	"sort"
	"time"

	"github.com/turtacn/Musaid-NLQ/internal/intelligence/classifier"
)

// periodRange resolves a timeframe id to a date range in now's location.
// Weeks start on Saturday.
func periodRange(timeframe string, now time.Time) (DateRange, bool) {
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	weekStart := day.AddDate(0, 0, -int((day.Weekday()+1)%7))
	month := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	year := time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, now.Location())

	switch timeframe {
	case classifier.TimeframeToday:
		return DateRange{day, day.AddDate(0, 0, 1)}, true
	case classifier.TimeframeYesterday:
		return DateRange{day.AddDate(0, 0, -1), day}, true
	case classifier.TimeframeThisWeek:
		return DateRange{weekStart, weekStart.AddDate(0, 0, 7)}, true
	case classifier.TimeframeLastWeek:
		return DateRange{weekStart.AddDate(0, 0, -7), weekStart}, true
	case classifier.TimeframeThisMonth:
		return DateRange{month, month.AddDate(0, 1, 0)}, true
	case classifier.TimeframeLastMonth:
		return DateRange{month.AddDate(0, -1, 0), month}, true
	case classifier.TimeframeThisYear:
		return DateRange{year, year.AddDate(1, 0, 0)}, true
	case classifier.TimeframeLastYear:
		return DateRange{year.AddDate(-1, 0, 0), year}, true
	}
	return DateRange{}, false
}

func sortedKeys(m map[string]interface{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

//Personal.AI order the ending
