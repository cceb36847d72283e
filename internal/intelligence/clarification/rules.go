package clarification

import (
	"github.com/turtacn/Musaid-NLQ/internal/intelligence/classifier"
	"github.com/turtacn/Musaid-NLQ/internal/intelligence/textnorm"
)

const (
	severityHighWeight     = 0.30
	severityMediumWeight   = 0.20
	severityLowWeight      = 0.10
	interpretationWeight   = 0.15
	unclearIntentWeight    = 0.25
	incompleteDataWeight   = 0.15
	unclearIntentMaxTokens = 2
)

// Question keys.
const (
	KeyDomain           = "domain"
	KeyEntity           = "entity"
	KeyShowTarget       = "show_target"
	KeyPaymentType      = "payment_type"
	KeyConfirmTotal     = "confirm_total"
	KeyReportCategories = "report_categories"
	KeyIntent           = "intent"
	KeyTimeRange        = "time_range"
	KeyComparisonTarget = "comparison_target"

	comparisonPlaceholder = "{target}"
)

var (
	quantifierWords    = set("كم", "عدد", "اجمالي", "مجموع", "how", "many", "count", "total")
	showVerbs          = set("اعرض", "أظهر", "عرض", "ابحث", "show", "list")
	paymentWords       = textnorm.NormalizeAll("دفعة", "دفعات", "مدفوعات", "سداد", "تسديد")
	paymentQualifiers  = textnorm.NormalizeAll("نقدي", "نقدا", "كاش", "شيك", "شيكات", "تحويل", "بطاقة", "متأخرة", "مستحقة", "مقدمة")
	customerQualifiers = textnorm.NormalizeAll("محظور", "محظورين", "جديد", "جدد", "نشط", "نشطين", "متأخر", "متأخرين", "متعثر", "غير")
	reportWords        = textnorm.NormalizeAll("تقرير", "تقارير")
	reportTypes        = textnorm.NormalizeAll("مالي", "شهري", "سنوي", "يومي", "قانوني", "تشغيلي", "أسبوعي")
	requestMarkers     = textnorm.NormalizeAll("أريد", "اريد", "أعطني", "اعطني", "أبغى", "ممكن", "لو", "please", "need")
	aggregationWords   = textnorm.NormalizeAll("اجمالي", "إجمالي", "مجموع", "متوسط", "total", "sum", "average")
	comparisonWords    = textnorm.NormalizeAll("قارن", "مقارنة", "مقابل", "compare")

	countCustomerRe = textnorm.MustCompileSequence(
		textnorm.Words("كم", "عدد"),
		textnorm.Nouns("عميل", "عملاء", "زبون", "زبائن", "مستأجر", "مستأجرين"),
	)
)

func set(words ...string) map[string]bool {
	out := make(map[string]bool, len(words))
	for _, w := range textnorm.NormalizeAll(words...) {
		out[w] = true
	}
	return out
}

// detection is one rule hit: its score contribution plus the question and
// interpretations it contributes to a request.
type detection struct {
	source          Source
	question        Question
	interpretations []Interpretation
	hint            string
}

var (
	domainQuestion = Question{
		Key:  KeyDomain,
		Text: "ما المجال الذي تقصده؟",
		Type: QuestionSingleChoice,
		Options: []Choice{
			{Value: string(classifier.DomainLegal), Label: "قانوني"},
			{Value: string(classifier.DomainFinancial), Label: "مالي"},
			{Value: string(classifier.DomainFleet), Label: "الأسطول"},
			{Value: string(classifier.DomainOperations), Label: "العمليات"},
		},
	}
	showTargetQuestion = Question{
		Key:  KeyShowTarget,
		Text: "ماذا تريد أن تعرض؟",
		Type: QuestionSingleChoice,
		Options: []Choice{
			{Value: "customers", Label: "العملاء"},
			{Value: "contracts", Label: "العقود"},
			{Value: "invoices", Label: "الفواتير"},
			{Value: "payments", Label: "المدفوعات"},
			{Value: "vehicles", Label: "السيارات"},
		},
	}
	paymentTypeQuestion = Question{
		Key:  KeyPaymentType,
		Text: "أي نوع من المدفوعات تقصد؟",
		Type: QuestionSingleChoice,
		Options: []Choice{
			{Value: "cash", Label: "نقدي"},
			{Value: "cheque", Label: "شيك"},
			{Value: "transfer", Label: "تحويل بنكي"},
			{Value: "overdue", Label: "متأخرة"},
			{Value: "all", Label: "جميع المدفوعات"},
		},
	}
	confirmTotalQuestion = Question{
		Key:  KeyConfirmTotal,
		Text: "هل تقصد العدد الإجمالي للعملاء؟",
		Type: QuestionConfirmation,
	}
	reportCategoriesQuestion = Question{
		Key:  KeyReportCategories,
		Text: "ما أنواع التقارير المطلوبة؟",
		Type: QuestionMultipleChoice,
		Options: []Choice{
			{Value: "financial", Label: "مالي"},
			{Value: "legal", Label: "قانوني"},
			{Value: "fleet", Label: "الأسطول"},
			{Value: "operations", Label: "تشغيلي"},
		},
	}
	intentQuestion = Question{
		Key:  KeyIntent,
		Text: "ماذا تريد أن تفعل؟",
		Type: QuestionSingleChoice,
		Options: []Choice{
			{Value: string(classifier.IntentInformation), Label: "الاستعلام عن معلومات"},
			{Value: string(classifier.IntentAnalysis), Label: "تحليل البيانات"},
			{Value: string(classifier.IntentCreation), Label: "إنشاء سجل جديد"},
			{Value: string(classifier.IntentModification), Label: "تعديل سجل"},
			{Value: string(classifier.IntentAction), Label: "تنفيذ إجراء"},
		},
	}
	timeRangeQuestion = Question{
		Key:  KeyTimeRange,
		Text: "ما الفترة الزمنية المطلوبة؟",
		Type: QuestionSingleChoice,
		Options: []Choice{
			{Value: classifier.TimeframeToday, Label: "اليوم"},
			{Value: classifier.TimeframeThisWeek, Label: "هذا الأسبوع"},
			{Value: classifier.TimeframeThisMonth, Label: "هذا الشهر"},
			{Value: classifier.TimeframeLastMonth, Label: "الشهر الماضي"},
			{Value: classifier.TimeframeThisYear, Label: "هذه السنة"},
		},
	}
	comparisonTargetQuestion = Question{
		Key:         KeyComparisonTarget,
		Text:        "مع ماذا تريد المقارنة؟",
		Type:        QuestionTextInput,
		Placeholder: comparisonPlaceholder,
	}

	customerInterpretations = []Interpretation{
		{Query: "كم عدد العملاء الإجمالي", Description: "العدد الإجمالي لجميع العملاء", Confidence: 0.5},
		{Query: "كم عدد العملاء غير المسددين", Description: "العملاء الذين لديهم فواتير غير مدفوعة", Confidence: 0.3},
		{Query: "كم عدد العملاء الجدد", Description: "العملاء المسجلون خلال هذا الشهر", Confidence: 0.2},
	}
)

func entityQuestion(pronoun string) Question {
	return Question{
		Key:         KeyEntity,
		Text:        "من أو ماذا تقصد بـ \"" + pronoun + "\"؟",
		Type:        QuestionTextInput,
		Placeholder: pronoun,
	}
}

// detect runs every rule in a fixed order: missing context, multiple
// interpretations, unclear intent, incomplete data.
func (e *Engine) detect(text string, c *Context) []detection {
	tokens := textnorm.Tokenize(text)
	if len(tokens) == 0 {
		return nil
	}
	var out []detection

	quantifierOnly := true
	for _, t := range tokens {
		if !quantifierWords[t] {
			quantifierOnly = false
			break
		}
	}
	if quantifierOnly {
		out = append(out, detection{
			source:   Source{Type: AmbiguityMissingContext, Subtype: "domain_selection", Severity: SeverityHigh, Contribution: severityHighWeight, Evidence: text},
			question: domainQuestion,
			hint:     "حدد ما تريد عده: العملاء، العقود، الفواتير أو المدفوعات",
		})
	}

	entities := e.extractor.Extract(text)
	if c == nil || len(c.Entities) == 0 {
		for _, ent := range entities {
			if ent.Type != classifier.EntityReference {
				continue
			}
			out = append(out, detection{
				source:   Source{Type: AmbiguityMissingContext, Subtype: "entity_identification", Severity: SeverityMedium, Contribution: severityMediumWeight, Evidence: ent.Text},
				question: entityQuestion(ent.Text),
				hint:     "لا توجد محادثة سابقة يمكن ربط \"" + ent.Text + "\" بها",
			})
			break
		}
	}

	if len(tokens) == 1 && showVerbs[tokens[0]] {
		out = append(out, detection{
			source:   Source{Type: AmbiguityMissingContext, Subtype: "show_target", Severity: SeverityLow, Contribution: severityLowWeight, Evidence: tokens[0]},
			question: showTargetQuestion,
		})
	}

	if w := textnorm.MatchToken(text, paymentWords...); w != "" && !textnorm.ContainsToken(text, paymentQualifiers...) {
		out = append(out, detection{
			source:   Source{Type: AmbiguityMultipleInterpretations, Subtype: "payment_type", Contribution: interpretationWeight, Evidence: w},
			question: paymentTypeQuestion,
		})
	}

	if countCustomerRe.MatchString(textnorm.Padded(text)) && !textnorm.ContainsToken(text, customerQualifiers...) {
		out = append(out, detection{
			source:          Source{Type: AmbiguityMultipleInterpretations, Subtype: "customer_count", Contribution: interpretationWeight, Evidence: text},
			question:        confirmTotalQuestion,
			interpretations: customerInterpretations,
		})
	}

	if w := textnorm.MatchToken(text, reportWords...); w != "" && !textnorm.ContainsToken(text, reportTypes...) {
		out = append(out, detection{
			source:   Source{Type: AmbiguityMultipleInterpretations, Subtype: "report_type", Contribution: interpretationWeight, Evidence: w},
			question: reportCategoriesQuestion,
		})
	}

	if len(tokens) <= unclearIntentMaxTokens {
		if _, matched := e.intent.Classify(text); !matched && !textnorm.ContainsToken(text, requestMarkers...) {
			out = append(out, detection{
				source:   Source{Type: AmbiguityUnclearIntent, Subtype: "intent_selection", Contribution: unclearIntentWeight, Evidence: text},
				question: intentQuestion,
			})
		}
	}

	if w := textnorm.MatchToken(text, aggregationWords...); w != "" && len(classifier.TemporalPhrases(text)) == 0 {
		out = append(out, detection{
			source:   Source{Type: AmbiguityIncompleteData, Subtype: "time_range", Contribution: incompleteDataWeight, Evidence: w},
			question: timeRangeQuestion,
		})
	}

	if w := textnorm.MatchToken(text, comparisonWords...); w != "" && countOperands(entities) < 2 {
		out = append(out, detection{
			source:   Source{Type: AmbiguityIncompleteData, Subtype: "comparison_operand", Contribution: incompleteDataWeight, Evidence: w},
			question: comparisonTargetQuestion,
		})
	}
	return out
}

func countOperands(entities []classifier.Entity) int {
	n := 0
	for _, e := range entities {
		if e.Type != classifier.EntityReference {
			n++
		}
	}
	return n
}

//Personal.AI order the ending
