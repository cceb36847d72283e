package classifier

import "github.com/turtacn/Musaid-NLQ/internal/intelligence/textnorm"

type intentFamily struct {
	intent Intent
	words  []string
}

// intentFamilies are checked in order; the first family with a token in the
// query wins.
var intentFamilies = []intentFamily{
	{IntentInformation, textnorm.NormalizeAll(
		"ما", "ماذا", "ماهو", "ماهي", "كم", "هل", "متى", "أين", "كيف", "لماذا",
		"اعرض", "أظهر", "ابحث", "عرض", "معلومات", "تفاصيل", "قائمة", "وضح", "اشرح",
		"what", "how", "show", "list", "find")},
	{IntentAction, textnorm.NormalizeAll(
		"نفذ", "أرسل", "ارسل", "احجز", "ألغ", "الغ", "إلغاء", "أوقف", "ايقاف", "اعتمد", "وافق", "حول", "طبق",
		"send", "cancel", "approve")},
	{IntentAnalysis, textnorm.NormalizeAll(
		"حلل", "تحليل", "قارن", "مقارنة", "قيم", "تقييم", "توقع", "analyze", "compare")},
	{IntentCreation, textnorm.NormalizeAll(
		"أنشئ", "انشاء", "إنشاء", "أضف", "اضف", "إضافة", "سجل", "تسجيل", "أصدر", "create", "add")},
	{IntentModification, textnorm.NormalizeAll(
		"عدل", "تعديل", "حدث", "تحديث", "غير", "تغيير", "صحح", "update", "edit", "change")},
}

// IntentClassifier maps imperative and interrogative markers to intents.
type IntentClassifier struct{}

// Classify returns the detected intent and whether any marker matched. An
// unmatched query defaults to information.
func (IntentClassifier) Classify(text string) (Intent, bool) {
	if text == "" {
		return IntentInformation, false
	}
	for _, fam := range intentFamilies {
		if textnorm.ContainsToken(text, fam.words...) {
			return fam.intent, true
		}
	}
	return IntentInformation, false
}

//Personal.AI order the ending
