package classifier

import (
	"regexp"

	"github.com/turtacn/Musaid-NLQ/internal/intelligence/textnorm"
)

const (
	lexiconEntityConfidence   = 0.9
	referenceEntityConfidence = 0.6
	patternEntityConfidence   = 0.95
)

type lexiconEntry struct {
	typ   EntityType
	value string
}

func entityLexicon() map[string]lexiconEntry {
	groups := []struct {
		typ   EntityType
		value string
		forms []string
	}{
		{EntityCustomer, "عميل", []string{"عميل", "عملاء", "زبون", "زبائن", "مستأجر", "مستأجرين"}},
		{EntityContract, "عقد", []string{"عقد", "عقود", "اتفاقية", "اتفاقيات"}},
		{EntityInvoice, "فاتورة", []string{"فاتورة", "فواتير"}},
		{EntityPayment, "دفعة", []string{"دفعة", "دفعات", "مدفوعات", "سداد", "سند", "سندات"}},
		{EntityVehicle, "سيارة", []string{"سيارة", "سيارات", "مركبة", "مركبات"}},
		{EntityCase, "قضية", []string{"قضية", "قضايا", "دعوى", "دعاوى"}},
		{EntityDocument, "مستند", []string{"مستند", "مستندات", "وثيقة", "وثائق", "ملف", "ملفات"}},
		{EntityEmployee, "موظف", []string{"موظف", "موظفين", "سائق", "سائقين"}},
	}
	lex := make(map[string]lexiconEntry)
	for _, g := range groups {
		v := textnorm.Normalize(g.value)
		for _, f := range g.forms {
			lex[textnorm.Normalize(f)] = lexiconEntry{typ: g.typ, value: v}
		}
	}
	return lex
}

var (
	referencePronouns = toSet(textnorm.NormalizeAll(
		"هو", "هي", "هم", "هما", "هذا", "هذه", "ذلك", "تلك", "هؤلاء", "أولئك", "نفسه", "له", "لها", "لهم"))
	demonstratives = toSet(textnorm.NormalizeAll("هذا", "هذه", "ذلك", "تلك"))
	timeNouns      = toSet(textnorm.NormalizeAll("الشهر", "الأسبوع", "العام", "السنة", "اليوم", "الربع"))

	amountRe = regexp.MustCompile(`(\d+(?:[.,]\d+)?)\s*(دينار|د\.ك|ريال|درهم|kwd|sar|usd|\$)`)
	dateRe   = regexp.MustCompile(`\d{1,4}[/-]\d{1,2}[/-]\d{1,4}`)
)

func toSet(words []string) map[string]bool {
	out := make(map[string]bool, len(words))
	for _, w := range words {
		out[w] = true
	}
	return out
}

// EntityExtractor recognises domain nouns, referential pronouns, amounts and
// dates.
type EntityExtractor struct {
	lexicon map[string]lexiconEntry
}

// NewEntityExtractor returns an extractor over the built-in lexicon.
func NewEntityExtractor() *EntityExtractor {
	return &EntityExtractor{lexicon: entityLexicon()}
}

// Extract returns entities in token order followed by amounts and dates.
// Duplicate (text, type) pairs are reported once. A demonstrative directly
// followed by a time noun ("هذا الشهر") is temporal, not a reference.
func (e *EntityExtractor) Extract(text string) []Entity {
	out := make([]Entity, 0)
	if text == "" {
		return out
	}
	seen := make(map[string]bool)
	add := func(ent Entity) {
		key := string(ent.Type) + "|" + ent.Text
		if seen[key] {
			return
		}
		seen[key] = true
		out = append(out, ent)
	}

	tokens := textnorm.Tokenize(text)
	for i, tok := range tokens {
		if referencePronouns[tok] {
			if demonstratives[tok] && i+1 < len(tokens) && timeNouns[tokens[i+1]] {
				continue
			}
			add(Entity{Text: tok, Type: EntityReference, Value: tok, Confidence: referenceEntityConfidence})
			continue
		}
		for _, cand := range textnorm.StemCandidates(tok) {
			if entry, ok := e.lexicon[cand]; ok {
				add(Entity{Text: tok, Type: entry.typ, Value: entry.value, Confidence: lexiconEntityConfidence})
				break
			}
		}
	}

	for _, m := range amountRe.FindAllStringSubmatch(text, -1) {
		add(Entity{Text: m[0], Type: EntityAmount, Value: m[1], Confidence: patternEntityConfidence})
	}
	for _, m := range dateRe.FindAllString(text, -1) {
		add(Entity{Text: m, Type: EntityDate, Value: m, Confidence: patternEntityConfidence})
	}
	return out
}

//Personal.AI order the ending
