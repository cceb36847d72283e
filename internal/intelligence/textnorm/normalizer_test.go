package textnorm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize_LetterFolding(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"alef variants", "أإآٱ", "اااا"},
		{"alef maqsura", "دعوى", "دعوي"},
		{"taa marbuta", "محكمة", "محكمه"},
		{"waw hamza", "مؤسسة", "موسسه"},
		{"yeh hamza", "مسائل", "مسايل"},
		{"diacritics stripped", "العَقْدُ", "العقد"},
		{"shadda stripped", "محامٍّ", "محام"},
		{"tatweel stripped", "عـــقد", "عقد"},
		{"arabic digits", "٣ عملاء", "3 عملاء"},
		{"whitespace collapsed", "  كم   عميل\tمحظور \n", "كم عميل محظور"},
		{"latin lowercased", "Total INVOICES", "total invoices"},
		{"arabic question mark", "كم عميل؟", "كم عميل?"},
		{"empty", "", ""},
		{"only spaces", "   \t ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.in))
		})
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	inputs := []string{
		"كم عميلٍ محظورٍ في الشهرِ الماضي؟",
		"إجمالي المدفوعات لهذه السنة",
		"أ",
		"aٔ́",
		"ﻻ ﷲ",
		"Ｆｕｌｌｗｉｄｔｈ",
		"İstanbul",
		"  مرحبا‏",
		"ـــ",
	}
	for _, in := range inputs {
		once := Normalize(in)
		assert.Equal(t, once, Normalize(once), "input %q", in)
	}
}

func TestNewQuery_KeepsOriginal(t *testing.T) {
	q := NewQuery("  كم فاتورة؟ ")
	assert.Equal(t, "  كم فاتورة؟ ", q.Original)
	assert.Equal(t, "كم فاتوره?", q.Normalized)
	assert.Equal(t, []string{"كم", "فاتوره"}, q.Tokens())
	assert.False(t, q.IsEmpty())
	assert.True(t, NewQuery(" ").IsEmpty())
}

func TestStripPrefixes(t *testing.T) {
	assert.Equal(t, "عقود", StripPrefixes("والعقود"))
	assert.Equal(t, "عميل", StripPrefixes("العميل"))
	assert.Equal(t, "فواتير", StripPrefixes("بالفواتير"))
	assert.Equal(t, "ال", StripPrefixes("ال"), "too short to strip")
	assert.Equal(t, "كم", StripPrefixes("كم"))
}

func TestStemCandidates_OrderAndDedup(t *testing.T) {
	got := StemCandidates("والمحكمه")
	assert.Equal(t, "والمحكمه", got[0])
	assert.Contains(t, got, "محكمه")
	assert.Contains(t, got, "المحكمه")
}

func TestMatchToken(t *testing.T) {
	text := Normalize("كم عدد العملاء المحظورين")
	assert.Equal(t, "العملاء", MatchToken(text, "عملاء"))
	assert.True(t, ContainsToken(text, "كم"))
	assert.False(t, ContainsToken(Normalize("حكم المحكمة"), "كم"), "substring of another word must not match")
	assert.Equal(t, "", MatchToken(text))
}

func TestContainsPhrase(t *testing.T) {
	text := Normalize("إجمالي المدفوعات هذا الشهر")
	assert.True(t, ContainsPhrase(text, "هذا الشهر"))
	assert.False(t, ContainsPhrase(text, "الشهر الماضي"))
	assert.False(t, ContainsPhrase(text, ""))
}

//Personal.AI order the ending

func TestSequencePatterns(t *testing.T) {
	re := MustCompileSequence(Words("كم", "عدد"), Nouns("عميل", "عملاء"), Words("محظور", "محظورين"))

	assert.True(t, re.MatchString(Padded(Normalize("كم عميل محظور؟"))))
	assert.False(t, re.MatchString(Padded(Normalize("كم عدد العملاء المحظورين"))), "Words does not allow the article")
	assert.True(t, re.MatchString(Padded(Normalize("عدد العملاء محظورين"))))
	assert.False(t, re.MatchString(Padded(Normalize("حكم عميل محظور"))), "كم inside حكم is not a token")
	assert.Equal(t, " كم عميل ", Padded("كم, عميل?"))
}

//Personal.AI order the ending
