package query

import (
	"fmt"
	"strings"

	"github.com/turtacn/Musaid-NLQ/internal/intelligence/clarification"
	"github.com/turtacn/Musaid-NLQ/internal/intelligence/classifier"
	"github.com/turtacn/Musaid-NLQ/internal/intelligence/generative"
	"github.com/turtacn/Musaid-NLQ/internal/intelligence/textnorm"
)

const (
	helpAnswer = "أنا مساعدك للاستفسارات القانونية والمالية وإدارة الأسطول. " +
		"يمكنك سؤالي عن أعداد العملاء والعقود والفواتير والمدفوعات، " +
		"أو طلب استشارة قانونية حول العقود والمخالفات والقضايا."
	greetingAnswer = "وعليكم السلام، أهلاً بك. كيف يمكنني مساعدتك اليوم؟"
	fallbackIntro  = "عذراً، تعذر إعداد إجابة في الوقت الحالي. يمكنك تجربة أحد الأسئلة التالية:"
	conceptsLabel  = "المفاهيم المكتشفة: "
	relatedLabel   = "مفاهيم ذات صلة: "

	maxLocalTokens = 4
)

var (
	greetingRe = textnorm.MustCompileSequence(textnorm.Words("مرحبا", "اهلا", "السلام", "صباح", "مساء", "هلا"))
	helpRe     = textnorm.MustCompileSequence(textnorm.Words("مساعده", "ساعدني", "مساعدتي", "تستطيع", "تقدر", "help"))
)

// localAnswer answers short greetings and help requests without the
// generative backend.
func localAnswer(normalized string) (string, bool) {
	if len(textnorm.Tokenize(normalized)) > maxLocalTokens {
		return "", false
	}
	padded := textnorm.Padded(normalized)
	switch {
	case helpRe.MatchString(padded):
		return helpAnswer, true
	case greetingRe.MatchString(padded):
		return greetingAnswer, true
	}
	return "", false
}

func fallbackAnswer(suggestions []string) string {
	var b strings.Builder
	b.WriteString(fallbackIntro)
	for _, s := range suggestions {
		b.WriteString("\n- ")
		b.WriteString(s)
	}
	return b.String()
}

// clarificationAnswer renders the request questions as the turn answer.
func clarificationAnswer(req *clarification.Request) string {
	var b strings.Builder
	b.WriteString("أحتاج إلى توضيح قبل الإجابة:")
	for i, q := range req.Questions {
		fmt.Fprintf(&b, "\n%d. %s", i+1, q.Text)
		if len(q.Options) > 0 {
			labels := make([]string, len(q.Options))
			for j, o := range q.Options {
				labels[j] = o.Label
			}
			fmt.Fprintf(&b, " (%s)", strings.Join(labels, " / "))
		}
	}
	return b.String()
}

// ----------------------------------------------------------------------------
// Prompt Builders
// ----------------------------------------------------------------------------

var domainRoles = map[classifier.Domain]string{
	classifier.DomainLegal:      "أنت مستشار قانوني متخصص في قوانين الكويت وعقود تأجير السيارات.",
	classifier.DomainFinancial:  "أنت محاسب خبير في الشؤون المالية لشركات تأجير السيارات.",
	classifier.DomainFleet:      "أنت خبير في إدارة أساطيل السيارات والصيانة والتأمين.",
	classifier.DomainOperations: "أنت مدير عمليات في شركة تأجير سيارات.",
	classifier.DomainGeneral:    "أنت مساعد ذكي لشركة تأجير سيارات.",
}

// buildMessages assembles the system role, the recent history (oldest first)
// and the query tagged with its domain and timeframe.
func buildMessages(a *AdvancedContext) []generative.Message {
	cls := a.Classification
	role, ok := domainRoles[cls.Domain]
	if !ok {
		role = domainRoles[classifier.DomainGeneral]
	}
	system := role + " أجب باللغة العربية بإيجاز ودقة."
	if topics := a.RelevantContext.SessionSummary.MainTopics; len(topics) > 0 {
		system += " مواضيع المحادثة: " + strings.Join(topics, "، ") + "."
	}
	msgs := []generative.Message{{Role: generative.RoleSystem, Content: system}}

	turns := a.RelevantContext.RecentTurns
	for i := len(turns) - 1; i >= 0; i-- {
		msgs = append(msgs,
			generative.Message{Role: generative.RoleUser, Content: turns[i].UserMessage},
			generative.Message{Role: generative.RoleAssistant, Content: turns[i].AIResponse})
	}

	var tags strings.Builder
	fmt.Fprintf(&tags, "[المجال: %s]", cls.Domain)
	if tf := cls.Temporal.Timeframe; tf != "" && tf != classifier.TimeframeUnspecified {
		fmt.Fprintf(&tags, "[الفترة: %s]", tf)
	}
	if cls.Domain == classifier.DomainLegal && cls.Legal != nil && cls.Legal.IsLegal {
		fmt.Fprintf(&tags, "[المجال القانوني: %s]", cls.Legal.Area)
	}
	for _, amb := range a.EntityResolution.Ambiguous {
		if len(amb.Candidates) > 0 {
			fmt.Fprintf(&tags, "[%s قد يشير إلى: %s]", amb.Entity.Text, strings.Join(amb.Candidates, "، "))
		}
	}
	msgs = append(msgs, generative.Message{Role: generative.RoleUser, Content: tags.String() + " " + a.Query.Original})
	return msgs
}

//Personal.AI order the ending
