package classifier

import (
	"regexp"

	"github.com/turtacn/Musaid-NLQ/internal/intelligence/textnorm"
)

// StatisticalType names the kind of aggregate a statistical query asks for.
type StatisticalType string

const (
	StatCount      StatisticalType = "count"
	StatSum        StatisticalType = "sum"
	StatPercentage StatisticalType = "percentage"
	StatTrend      StatisticalType = "trend"
	StatComparison StatisticalType = "comparison"
)

// StatisticalClassification says whether a query asks for an aggregate.
type StatisticalClassification struct {
	IsStatistical     bool            `json:"is_statistical"`
	Category          string          `json:"category,omitempty"`
	Type              StatisticalType `json:"type,omitempty"`
	VisualizationHint string          `json:"visualization_hint,omitempty"`
	Confidence        float64         `json:"confidence"`
	MatchedPattern    string          `json:"matched_pattern,omitempty"`
}

const (
	statBaseConfidence    = 0.7
	statOverlapWeight     = 0.25
	statMaxConfidence     = 0.95
	statGenericConfidence = 0.6
	statNoMatchConfidence = 0.1
)

type statisticalPattern struct {
	name     string
	re       *regexp.Regexp
	category string
	statType StatisticalType
	hint     string
	keywords []string
}

var (
	quantifiers = textnorm.Words("كم", "عدد")
	aggregates  = textnorm.Words("اجمالي", "إجمالي", "مجموع", "قيمة", "مبلغ")
)

func statPattern(name, category string, t StatisticalType, hint string, keywords []string, parts ...string) statisticalPattern {
	return statisticalPattern{
		name:     name,
		re:       textnorm.MustCompileSequence(parts...),
		category: category,
		statType: t,
		hint:     hint,
		keywords: textnorm.NormalizeAll(keywords...),
	}
}

// statisticalPatterns are tried in order; the first match wins.
var statisticalPatterns = []statisticalPattern{
	statPattern("customers_count", "customers", StatCount, "kpi_card",
		[]string{"كم", "عدد", "عميل", "عملاء", "محظور"},
		quantifiers, textnorm.Nouns("عميل", "عملاء", "زبون", "زبائن", "مستأجر", "مستأجرين")),
	statPattern("contracts_count", "contracts", StatCount, "kpi_card",
		[]string{"كم", "عدد", "عقد", "عقود", "نشط", "منتهي"},
		quantifiers, textnorm.Nouns("عقد", "عقود", "اتفاقية", "اتفاقيات")),
	statPattern("invoices_count", "invoices", StatCount, "kpi_card",
		[]string{"كم", "عدد", "فاتورة", "فواتير", "مدفوعة", "متأخرة"},
		quantifiers, textnorm.Nouns("فاتورة", "فواتير")),
	statPattern("vehicles_count", "vehicles", StatCount, "kpi_card",
		[]string{"كم", "عدد", "سيارة", "سيارات", "متاحة"},
		quantifiers, textnorm.Nouns("سيارة", "سيارات", "مركبة", "مركبات")),
	statPattern("cases_count", "cases", StatCount, "kpi_card",
		[]string{"كم", "عدد", "قضية", "قضايا", "دعوى"},
		quantifiers, textnorm.Nouns("قضية", "قضايا", "دعوى", "دعاوى")),
	statPattern("payments_sum", "payments", StatSum, "currency_card",
		[]string{"اجمالي", "مجموع", "مدفوعات", "دفعات"},
		aggregates, textnorm.Nouns("مدفوعات", "دفعات", "دفعة", "سداد", "تحصيل")),
	statPattern("invoices_sum", "invoices", StatSum, "currency_card",
		[]string{"اجمالي", "مجموع", "فاتورة", "فواتير"},
		aggregates, textnorm.Nouns("فاتورة", "فواتير")),
	statPattern("revenue_sum", "revenue", StatSum, "currency_card",
		[]string{"اجمالي", "مجموع", "ايرادات", "مبيعات"},
		aggregates, textnorm.Nouns("إيرادات", "إيراد", "مبيعات", "دخل")),
	statPattern("percentage", "general", StatPercentage, "pie_chart",
		[]string{"نسبة", "معدل", "مئوية"},
		textnorm.Nouns("نسبة", "معدل", "percentage", "rate")),
	statPattern("trend", "general", StatTrend, "line_chart",
		[]string{"تطور", "اتجاه", "نمو", "شهري"},
		textnorm.Nouns("تطور", "اتجاه", "نمو", "تغير", "trend")),
	statPattern("comparison", "general", StatComparison, "bar_chart",
		[]string{"مقارنة", "قارن", "مقابل"},
		textnorm.Nouns("مقارنة", "قارن", "مقابل", "compare")),
}

var genericStatKeywords = textnorm.NormalizeAll("كم", "عدد", "اجمالي", "مجموع", "متوسط", "total", "count", "sum", "average")

// StatisticalClassifier detects aggregate queries by ordered pattern table.
type StatisticalClassifier struct {
	patterns []statisticalPattern
}

// NewStatisticalClassifier returns a classifier over the built-in table.
func NewStatisticalClassifier() *StatisticalClassifier {
	return &StatisticalClassifier{patterns: statisticalPatterns}
}

// Classify never fails. An empty query yields confidence 0.
func (s *StatisticalClassifier) Classify(text string) *StatisticalClassification {
	if text == "" {
		return &StatisticalClassification{}
	}
	padded := textnorm.Padded(text)
	for _, p := range s.patterns {
		if !p.re.MatchString(padded) {
			continue
		}
		conf := statBaseConfidence + statOverlapWeight*keywordOverlap(text, p.keywords)
		if conf > statMaxConfidence {
			conf = statMaxConfidence
		}
		return &StatisticalClassification{
			IsStatistical:     true,
			Category:          p.category,
			Type:              p.statType,
			VisualizationHint: p.hint,
			Confidence:        conf,
			MatchedPattern:    p.name,
		}
	}
	if kw := textnorm.MatchToken(text, genericStatKeywords...); kw != "" {
		t := StatCount
		if textnorm.ContainsToken(text, textnorm.NormalizeAll("اجمالي", "مجموع", "total", "sum")...) {
			t = StatSum
		}
		return &StatisticalClassification{
			IsStatistical:     true,
			Category:          "general",
			Type:              t,
			VisualizationHint: "kpi_card",
			Confidence:        statGenericConfidence,
			MatchedPattern:    "generic",
		}
	}
	return &StatisticalClassification{Confidence: statNoMatchConfidence}
}

// keywordOverlap is the share of keywords present in text as tokens.
func keywordOverlap(text string, keywords []string) float64 {
	if len(keywords) == 0 {
		return 0
	}
	hits := 0
	for _, kw := range keywords {
		if textnorm.ContainsToken(text, kw) {
			hits++
		}
	}
	return float64(hits) / float64(len(keywords))
}

//Personal.AI order the ending
