// Package textnorm canonicalizes Arabic query text before any rule table sees
// it. Every rule table in the intelligence packages is written against the
// output of Normalize, so the folding rules here are the single source of truth
// for spelling variants.
package textnorm

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// NormalizedQuery pairs the raw input with its canonical form. It is produced
// once per input and never mutated.
type NormalizedQuery struct {
	Original   string `json:"original"`
	Normalized string `json:"normalized"`
}

// IsEmpty reports whether the canonical form has no content.
func (q NormalizedQuery) IsEmpty() bool {
	return q.Normalized == ""
}

// Tokens returns the whitespace tokens of the canonical form.
func (q NormalizedQuery) Tokens() []string {
	return Tokenize(q.Normalized)
}

// NewQuery normalizes text and keeps the original alongside.
func NewQuery(text string) NormalizedQuery {
	return NormalizedQuery{Original: text, Normalized: Normalize(text)}
}

// letterFolds maps Arabic letter variants to their canonical letter.
var letterFolds = map[rune]rune{
	'أ': 'ا', // alef with hamza above
	'إ': 'ا', // alef with hamza below
	'آ': 'ا', // alef with madda
	'ٱ': 'ا', // alef wasla
	'ى': 'ي', // alef maqsura
	'ی': 'ي', // farsi yeh
	'ئ': 'ي', // yeh with hamza
	'ة': 'ه', // taa marbuta
	'ؤ': 'و', // waw with hamza
	'ک': 'ك', // keheh
	'٠': '0', '١': '1', '٢': '2', '٣': '3', '٤': '4',
	'٥': '5', '٦': '6', '٧': '7', '٨': '8', '٩': '9',
	'۰': '0', '۱': '1', '۲': '2', '۳': '3', '۴': '4',
	'۵': '5', '۶': '6', '۷': '7', '۸': '8', '۹': '9',
	'؟': '?',
	'،': ',',
	'؛': ';',
}

const tatweel = 'ـ'

// isArabicMark covers the harakat block U+064B–U+0652 plus the hamza and
// madda combining marks U+0653–U+0655 and the superscript alef U+0670.
func isArabicMark(r rune) bool {
	return (r >= 0x064B && r <= 0x0655) || r == 0x0670
}

// maxPasses bounds the fixpoint loop in Normalize.
const maxPasses = 3

// Normalize returns the canonical form of text. It is total and idempotent:
// Normalize(Normalize(s)) == Normalize(s).
func Normalize(text string) string {
	out := pass(text)
	for i := 0; i < maxPasses; i++ {
		next := pass(out)
		if next == out {
			break
		}
		out = next
	}
	return out
}

func pass(text string) string {
	if text == "" {
		return ""
	}
	composed := norm.NFKC.String(text)

	var b strings.Builder
	b.Grow(len(composed))
	pendingSpace := false
	for _, r := range composed {
		if isArabicMark(r) || r == tatweel {
			continue
		}
		if folded, ok := letterFolds[r]; ok {
			r = folded
		}
		if unicode.IsSpace(r) {
			pendingSpace = b.Len() > 0
			continue
		}
		if pendingSpace {
			b.WriteByte(' ')
			pendingSpace = false
		}
		b.WriteRune(unicode.ToLower(r))
	}
	return norm.NFKC.String(b.String())
}

// Tokenize splits canonical text into word tokens, dropping punctuation.
func Tokenize(text string) []string {
	return strings.FieldsFunc(text, func(r rune) bool {
		return unicode.IsSpace(r) || (unicode.IsPunct(r) && r != '/' && r != '.')
	})
}

// clitics are proclitics stripped by StripPrefixes, longest first.
var clitics = []string{"وبال", "وال", "بال", "كال", "فال", "لل", "ال", "و", "ف", "ب", "ل", "ك"}

// minStemRunes is the shortest stem StripPrefixes will leave behind.
const minStemRunes = 2

// StripPrefixes removes one leading conjunction/preposition/article cluster from
// a canonical token ("والعقود" → "عقود"). Tokens that would become shorter than
// two letters are returned unchanged.
func StripPrefixes(token string) string {
	for _, p := range clitics {
		if strings.HasPrefix(token, p) {
			rest := strings.TrimPrefix(token, p)
			if len([]rune(rest)) >= minStemRunes {
				return rest
			}
		}
	}
	return token
}

// StemCandidates returns token followed by each distinct prefix-stripped form,
// shortest stripping first. Lexicon lookups try them in order.
func StemCandidates(token string) []string {
	out := []string{token}
	seen := map[string]bool{token: true}
	for _, p := range clitics {
		if !strings.HasPrefix(token, p) {
			continue
		}
		rest := strings.TrimPrefix(token, p)
		if len([]rune(rest)) < minStemRunes || seen[rest] {
			continue
		}
		seen[rest] = true
		out = append(out, rest)
	}
	return out
}

// ContainsToken reports whether any token of text, or its prefix-stripped
// form, equals one of words. words must already be canonical.
func ContainsToken(text string, words ...string) bool {
	return MatchToken(text, words...) != ""
}

// MatchToken returns the first token of text matching one of words (directly
// or after prefix stripping), or "" when none match.
func MatchToken(text string, words ...string) string {
	if len(words) == 0 {
		return ""
	}
	set := make(map[string]bool, len(words))
	for _, w := range words {
		set[w] = true
	}
	for _, tok := range Tokenize(text) {
		for _, cand := range StemCandidates(tok) {
			if set[cand] {
				return tok
			}
		}
	}
	return ""
}

// ContainsPhrase reports whether the canonical text contains phrase on token
// boundaries.
func ContainsPhrase(text, phrase string) bool {
	if phrase == "" {
		return false
	}
	padded := " " + strings.Join(Tokenize(text), " ") + " "
	return strings.Contains(padded, " "+phrase+" ")
}

// NormalizeAll normalizes every element of words.
func NormalizeAll(words ...string) []string {
	out := make([]string, len(words))
	for i, w := range words {
		out[i] = Normalize(w)
	}
	return out
}

//Personal.AI order the ending
