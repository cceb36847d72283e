package textnorm

import (
	"regexp"
	"strings"
)

// Go's \b is ASCII-only, so Arabic rule tables match against Padded text with
// explicit whitespace boundaries built by the helpers below.

// Padded returns the tokens of canonical text joined by single spaces with a
// leading and trailing space, punctuation removed.
func Padded(text string) string {
	return " " + strings.Join(Tokenize(text), " ") + " "
}

// Words is an alternation of bare canonical words.
func Words(words ...string) string {
	quoted := make([]string, len(words))
	for i, w := range words {
		quoted[i] = regexp.QuoteMeta(Normalize(w))
	}
	return "(?:" + strings.Join(quoted, "|") + ")"
}

// Nouns is Words allowing an optional proclitic and definite article.
func Nouns(words ...string) string {
	return "(?:[وفبل])?(?:ال)?" + Words(words...)
}

// Sequence joins parts so that each must appear as a whole token (or token
// run), in order, with any number of tokens between them.
func Sequence(parts ...string) string {
	return `\s` + strings.Join(parts, `\s(?:.*\s)?`) + `\s`
}

// MustCompileSequence compiles Sequence(parts...).
func MustCompileSequence(parts ...string) *regexp.Regexp {
	return regexp.MustCompile(Sequence(parts...))
}

//Personal.AI order the ending
