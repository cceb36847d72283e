package classifier

import (
	"unicode/utf8"

	"github.com/turtacn/Musaid-NLQ/internal/intelligence/textnorm"
)

var (
	analyticalVerbs = textnorm.NormalizeAll(
		"حلل", "تحليل", "قارن", "مقارنة", "قيم", "تقييم", "توقع", "تنبأ", "استنتج", "فسر", "analyze", "compare")
	connectives = textnorm.NormalizeAll(
		"أو", "لكن", "بينما", "إذا", "ثم", "بالإضافة", "كذلك", "أيضا", "مع")
)

// ScoreComplexity returns the additive complexity score and its bucket.
func ScoreComplexity(text string, entityCount int) (int, Complexity) {
	score := 0
	switch n := utf8.RuneCountInString(text); {
	case n > 100:
		score += 2
	case n >= 50:
		score++
	}
	switch {
	case entityCount > 5:
		score += 2
	case entityCount > 2:
		score++
	}
	if textnorm.ContainsToken(text, analyticalVerbs...) {
		score += 2
	}
	if textnorm.ContainsToken(text, connectives...) {
		score++
	}

	switch {
	case score >= 4:
		return score, ComplexityHigh
	case score >= 2:
		return score, ComplexityMedium
	default:
		return score, ComplexityLow
	}
}

//Personal.AI order the ending
