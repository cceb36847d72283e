// Package morphology extracts triliteral Arabic roots from canonical tokens by
// clitic/suffix stripping and template (wazn) matching, and maps the roots of
// legal vocabulary to legal concepts.
package morphology

import (
	"strings"

	"github.com/turtacn/Musaid-NLQ/internal/intelligence/textnorm"
)

// Root placeholders used by templates: ف ع ل stand for the three radicals.
const (
	radical1 = 'ف'
	radical2 = 'ع'
	radical3 = 'ل'
)

// Confidence levels of an analysis.
const (
	ConfidenceLexicon  = 0.9
	ConfidencePattern  = 0.7
	ConfidenceFallback = 0.4
)

// Analysis is the result of analysing one word.
type Analysis struct {
	Word         string  `json:"word"`
	Stem         string  `json:"stem"`
	Root         string  `json:"root"`
	Pattern      string  `json:"pattern"`
	LegalConcept string  `json:"legal_concept,omitempty"`
	Confidence   float64 `json:"confidence"`
}

// IsLegal reports whether the root belongs to the legal lexicon.
func (a Analysis) IsLegal() bool {
	return a.LegalConcept != ""
}

// templates are tried in order; the first template matching a candidate stem
// yields the root. All are canonical (taa marbuta already folded to ه).
var templates = []string{
	"فعل",
	"فاعل", "فعال", "فعيل", "فعول", "مفعل", "افعل",
	"مفعول", "مفاعل", "مفعله", "تفعيل", "تفاعل", "افعال", "فعاله",
	"مفاعله", "افتعال", "انفعال", "تفعيله", "مفاعيل",
	"استفعال",
}

// suffixes are stripped before template matching, longest first.
var suffixes = []string{"ات", "ون", "ين", "ان", "يه", "ها", "هم", "ه", "ي"}

// legalRoots maps roots (radicals without separators) to legal concepts.
var legalRoots = map[string]string{
	"قضي": "judiciary",
	"حكم": "judgment",
	"عقد": "contract",
	"شرع": "legislation",
	"دعو": "lawsuit",
	"دعي": "lawsuit",
	"خلف": "violation",
	"عوض": "compensation",
	"نذر": "notice",
	"طلب": "claim",
	"حمي": "advocacy",
	"جرم": "crime",
	"عقب": "penalty",
	"حقق": "rights",
	"وكل": "agency",
	"نزع": "dispute",
	"غرم": "fine",
	"شكو": "complaint",
	"شكي": "complaint",
	"بطل": "nullity",
	"فسخ": "termination",
	"ضمن": "guarantee",
	"كفل": "surety",
}

// Analyzer extracts roots. The zero value is not usable; use NewAnalyzer.
type Analyzer struct {
	lexicon map[string]string
}

// NewAnalyzer returns an Analyzer over the built-in legal root lexicon plus
// extra (root → concept) entries.
func NewAnalyzer(extra map[string]string) *Analyzer {
	lex := make(map[string]string, len(legalRoots)+len(extra))
	for k, v := range legalRoots {
		lex[k] = v
	}
	for k, v := range extra {
		lex[textnorm.Normalize(k)] = v
	}
	return &Analyzer{lexicon: lex}
}

// Analyze returns the root analysis of word. Candidates are generated by
// clitic and suffix stripping; the first candidate whose root is in the legal
// lexicon wins, else the first template match, else a consonant fallback.
func (a *Analyzer) Analyze(word string) Analysis {
	word = textnorm.Normalize(word)
	result := Analysis{Word: word}
	if word == "" {
		return result
	}

	var firstPattern *Analysis
	for _, stem := range candidates(word) {
		for _, tpl := range templates {
			root, ok := matchTemplate(stem, tpl)
			if !ok {
				continue
			}
			if concept, legal := a.lexicon[root]; legal {
				return Analysis{Word: word, Stem: stem, Root: root, Pattern: tpl, LegalConcept: concept, Confidence: ConfidenceLexicon}
			}
			if firstPattern == nil {
				firstPattern = &Analysis{Word: word, Stem: stem, Root: root, Pattern: tpl, Confidence: ConfidencePattern}
			}
		}
	}
	if firstPattern != nil {
		return *firstPattern
	}

	stem := textnorm.StripPrefixes(word)
	root := dropWeakLetters(stem)
	result.Stem = stem
	result.Root = root
	result.Confidence = ConfidenceFallback
	if concept, ok := a.lexicon[root]; ok {
		result.LegalConcept = concept
	}
	return result
}

// AnalyzeText analyses every token of text.
func (a *Analyzer) AnalyzeText(text string) []Analysis {
	tokens := textnorm.Tokenize(textnorm.Normalize(text))
	out := make([]Analysis, 0, len(tokens))
	for _, tok := range tokens {
		out = append(out, a.Analyze(tok))
	}
	return out
}

// LegalRoots returns the distinct legal roots found in text, in text order.
func (a *Analyzer) LegalRoots(text string) []string {
	var out []string
	seen := map[string]bool{}
	for _, an := range a.AnalyzeText(text) {
		if an.IsLegal() && !seen[an.Root] {
			seen[an.Root] = true
			out = append(out, an.Root)
		}
	}
	return out
}

// Concept returns the legal concept for root.
func (a *Analyzer) Concept(root string) (string, bool) {
	c, ok := a.lexicon[root]
	return c, ok
}

// candidates lists stems to try: the word, prefix-stripped forms, and each of
// those with one suffix removed. Stems shorter than three letters are skipped.
func candidates(word string) []string {
	var out []string
	seen := map[string]bool{}
	add := func(s string) {
		if len([]rune(s)) >= 3 && !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	prefixed := textnorm.StemCandidates(word)
	for _, p := range prefixed {
		add(p)
	}
	for _, p := range prefixed {
		for _, suf := range suffixes {
			if strings.HasSuffix(p, suf) {
				add(strings.TrimSuffix(p, suf))
			}
		}
	}
	return out
}

// matchTemplate aligns stem with tpl letter by letter. Non-radical template
// letters must match exactly; the three radicals are captured.
func matchTemplate(stem, tpl string) (string, bool) {
	s := []rune(stem)
	t := []rune(tpl)
	if len(s) != len(t) {
		return "", false
	}
	var root [3]rune
	var filled [3]bool
	for i, tr := range t {
		idx := -1
		switch tr {
		case radical1:
			idx = 0
		case radical2:
			idx = 1
		case radical3:
			idx = 2
		}
		if idx < 0 {
			if s[i] != tr {
				return "", false
			}
			continue
		}
		if filled[idx] && root[idx] != s[i] {
			return "", false
		}
		root[idx] = s[i]
		filled[idx] = true
	}
	return string(root[:]), true
}

// dropWeakLetters removes long vowels from the middle of stem when that
// leaves exactly three consonants; otherwise it returns the first three
// letters (or the stem itself when shorter).
func dropWeakLetters(stem string) string {
	r := []rune(stem)
	if len(r) <= 3 {
		return stem
	}
	var kept []rune
	for i, c := range r {
		if i > 0 && i < len(r)-1 && (c == 'ا' || c == 'و' || c == 'ي') {
			continue
		}
		kept = append(kept, c)
	}
	if len(kept) == 3 {
		return string(kept)
	}
	return string(r[:3])
}

//Personal.AI order the ending
