package classifier

import (
	"regexp"

	"github.com/turtacn/Musaid-NLQ/internal/intelligence/semantic"
	"github.com/turtacn/Musaid-NLQ/internal/intelligence/textnorm"
)

const legalRootBonus = 0.25

type domainBonus struct {
	domain Domain
	re     *regexp.Regexp
	bonus  float64
}

// domainBonuses add a fixed amount once per domain whose pattern matches.
var domainBonuses = []domainBonus{
	{DomainLegal, textnorm.MustCompileSequence(textnorm.Nouns(
		"قانون", "قانوني", "قانونية", "محكمة", "محاكم", "قضية", "قضايا", "دعوى", "محامي", "لائحة")), 0.5},
	{DomainFinancial, textnorm.MustCompileSequence(textnorm.Nouns(
		"دينار", "ريال", "مبلغ", "حساب", "حسابات", "محاسبة", "ضريبة", "ضرائب", "vat")), 0.4},
	{DomainFleet, textnorm.MustCompileSequence(textnorm.Nouns(
		"سيارة", "سيارات", "مركبة", "مركبات", "أسطول", "لوحة", "كيلومتر", "عداد")), 0.4},
	{DomainOperations, textnorm.MustCompileSequence(textnorm.Nouns(
		"حجز", "حجوزات", "فرع", "فروع", "موظف", "موظفين", "تسليم", "استلام")), 0.3},
}

// DomainResult carries the domain decision and its evidence.
type DomainResult struct {
	Domain   Domain
	Scores   map[Domain]float64
	Concepts []semantic.Concept
	Legal    *LegalClassification
}

// Share is the winning domain's fraction of the total score.
func (r DomainResult) Share() float64 {
	total := 0.0
	for _, s := range r.Scores {
		total += s
	}
	if total == 0 {
		return 0
	}
	return r.Scores[r.Domain] / total
}

// DomainClassifier scores domains from dictionary concepts, keyword bonuses
// and legal roots.
type DomainClassifier struct {
	dict  *semantic.Dictionary
	legal *LegalClassifier
}

// NewDomainClassifier wires the dictionary and legal sub-classifier.
func NewDomainClassifier(dict *semantic.Dictionary, legal *LegalClassifier) *DomainClassifier {
	if dict == nil {
		dict = semantic.NewDictionary()
	}
	if legal == nil {
		legal = NewLegalClassifier(nil)
	}
	return &DomainClassifier{dict: dict, legal: legal}
}

// Classify picks the highest scoring domain. Ties go to the domain earliest
// in DomainOrder; no evidence at all yields general.
func (c *DomainClassifier) Classify(text string) DomainResult {
	res := DomainResult{Domain: DomainGeneral, Scores: make(map[Domain]float64)}
	if text == "" {
		return res
	}

	res.Concepts = c.dict.MatchAll(text)
	for _, concept := range res.Concepts {
		res.Scores[Domain(concept.Category)] += concept.Weight
	}

	padded := textnorm.Padded(text)
	for _, b := range domainBonuses {
		if b.re.MatchString(padded) {
			res.Scores[b.domain] += b.bonus
		}
	}

	res.Legal = c.legal.Classify(text)
	res.Scores[DomainLegal] += legalRootBonus * float64(len(res.Legal.Roots))

	best := 0.0
	for _, d := range DomainOrder {
		if s := res.Scores[d]; s > best {
			best = s
			res.Domain = d
		}
	}
	for d, s := range res.Scores {
		if s == 0 {
			delete(res.Scores, d)
		}
	}
	return res
}

//Personal.AI order the ending
