package query

import (
	"regexp"
	"strings"

	"github.com/turtacn/Musaid-NLQ/internal/intelligence/textnorm"
)

var injectionPhrases = []string{
	"ignore previous",
	"ignore all previous",
	"system prompt",
	"forget instructions",
	"forget your instructions",
	"you are now",
	"act as",
	"developer mode",
	"jailbreak",
}

// Arabic phrases are matched on normalized text.
var injectionPatterns = []*regexp.Regexp{
	textnorm.MustCompileSequence(textnorm.Words("تجاهل", "انس", "انسى"), textnorm.Nouns("تعليمات", "اوامر", "تعليماتك", "اوامرك")),
	textnorm.MustCompileSequence(textnorm.Words("اظهر", "اعرض", "اكشف"), textnorm.Nouns("تعليمات", "موجه"), textnorm.Nouns("نظام")),
}

// checkPromptInjection reports whether query tries to override the assistant
// instructions.
func checkPromptInjection(query string) bool {
	lower := strings.ToLower(query)
	for _, p := range injectionPhrases {
		if strings.Contains(lower, p) {
			return true
		}
	}
	padded := textnorm.Padded(textnorm.Normalize(query))
	for _, re := range injectionPatterns {
		if re.MatchString(padded) {
			return true
		}
	}
	return false
}

//Personal.AI order the ending
