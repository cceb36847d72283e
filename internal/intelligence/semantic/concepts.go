package semantic

// Context tags shared across concepts.
const (
	TagContract   = "contract"
	TagLitigation = "litigation"
	TagTraffic    = "traffic"
	TagBilling    = "billing"
	TagAccounting = "accounting"
	TagVehicle    = "vehicle"
	TagCustomer   = "customer"
	TagRental     = "rental"
	TagStaff      = "staff"
	TagReporting  = "reporting"
)

// DefaultConcepts returns the static base table in its documented iteration
// order. Keys are written in ordinary spelling and normalized on load.
func DefaultConcepts() []Concept {
	return []Concept{
		// legal
		{Primary: "قانون", Synonyms: []string{"تشريع", "قوانين", "لائحة", "نظام قانوني"}, Category: CategoryLegal, ContextTags: []string{TagLitigation}, Weight: 1.0},
		{Primary: "محكمة", Synonyms: []string{"قضاء", "قاضي", "محاكم", "جلسة"}, Category: CategoryLegal, ContextTags: []string{TagLitigation}, Weight: 1.0},
		{Primary: "قضية", Synonyms: []string{"دعوى", "قضايا", "دعاوى", "نزاع"}, Category: CategoryLegal, ContextTags: []string{TagLitigation}, Weight: 0.9},
		{Primary: "محامي", Synonyms: []string{"محامون", "مستشار قانوني", "وكيل قانوني"}, Category: CategoryLegal, ContextTags: []string{TagLitigation}, Weight: 0.8},
		{Primary: "حكم", Synonyms: []string{"أحكام", "قرار قضائي"}, Category: CategoryLegal, ContextTags: []string{TagLitigation}, Weight: 0.8},
		{Primary: "إنذار", Synonyms: []string{"إخطار", "إنذارات", "إشعار قانوني"}, Category: CategoryLegal, ContextTags: []string{TagLitigation, TagContract}, Weight: 0.7},
		{Primary: "تعويض", Synonyms: []string{"تعويضات", "ضرر", "أضرار"}, Category: CategoryLegal, ContextTags: []string{TagLitigation}, Weight: 0.7},
		{Primary: "مخالفة", Synonyms: []string{"مخالفات", "غرامة", "غرامات", "مخالفة مرورية"}, Category: CategoryLegal, ContextTags: []string{TagTraffic}, Weight: 0.7},
		{Primary: "عقد", Synonyms: []string{"عقود", "اتفاقية", "تعاقد", "اتفاقيات"}, Category: CategoryLegal, ContextTags: []string{TagContract, TagRental}, Weight: 0.6},
		{Primary: "شكوى", Synonyms: []string{"شكاوى", "بلاغ"}, Category: CategoryLegal, ContextTags: []string{TagLitigation, TagCustomer}, Weight: 0.6},

		// financial
		{Primary: "فاتورة", Synonyms: []string{"فواتير"}, Category: CategoryFinancial, ContextTags: []string{TagBilling}, Weight: 1.0},
		{Primary: "دفعة", Synonyms: []string{"دفعات", "مدفوعات", "سداد", "تسديد"}, Category: CategoryFinancial, ContextTags: []string{TagBilling}, Weight: 1.0},
		{Primary: "إيراد", Synonyms: []string{"إيرادات", "دخل", "مبيعات"}, Category: CategoryFinancial, ContextTags: []string{TagAccounting}, Weight: 0.9},
		{Primary: "مصروف", Synonyms: []string{"مصروفات", "مصاريف", "نفقات"}, Category: CategoryFinancial, ContextTags: []string{TagAccounting}, Weight: 0.9},
		{Primary: "رصيد", Synonyms: []string{"أرصدة", "الرصيد المستحق"}, Category: CategoryFinancial, ContextTags: []string{TagAccounting, TagBilling}, Weight: 0.8},
		{Primary: "قيد", Synonyms: []string{"قيود", "قيد يومية", "قيود يومية"}, Category: CategoryFinancial, ContextTags: []string{TagAccounting}, Weight: 0.8},
		{Primary: "سند", Synonyms: []string{"سندات", "سند قبض", "سند صرف"}, Category: CategoryFinancial, ContextTags: []string{TagAccounting}, Weight: 0.8},
		{Primary: "مستحقات", Synonyms: []string{"متأخرات", "ديون", "مديونية"}, Category: CategoryFinancial, ContextTags: []string{TagBilling, TagCustomer}, Weight: 0.8},
		{Primary: "ربح", Synonyms: []string{"أرباح", "خسارة", "خسائر"}, Category: CategoryFinancial, ContextTags: []string{TagAccounting}, Weight: 0.7},
		{Primary: "ميزانية", Synonyms: []string{"ميزانيات", "موازنة"}, Category: CategoryFinancial, ContextTags: []string{TagAccounting, TagReporting}, Weight: 0.7},

		// fleet
		{Primary: "سيارة", Synonyms: []string{"سيارات", "مركبة", "مركبات", "أسطول"}, Category: CategoryFleet, ContextTags: []string{TagVehicle, TagRental}, Weight: 1.0},
		{Primary: "صيانة", Synonyms: []string{"إصلاح", "ورشة", "قطع غيار"}, Category: CategoryFleet, ContextTags: []string{TagVehicle}, Weight: 0.9},
		{Primary: "تأمين", Synonyms: []string{"بوليصة", "وثيقة تأمين"}, Category: CategoryFleet, ContextTags: []string{TagVehicle, TagContract}, Weight: 0.7},
		{Primary: "وقود", Synonyms: []string{"بنزين", "ديزل"}, Category: CategoryFleet, ContextTags: []string{TagVehicle}, Weight: 0.7},
		{Primary: "حادث", Synonyms: []string{"حوادث", "تصادم"}, Category: CategoryFleet, ContextTags: []string{TagVehicle, TagTraffic}, Weight: 0.8},
		{Primary: "لوحة", Synonyms: []string{"رقم اللوحة", "لوحات"}, Category: CategoryFleet, ContextTags: []string{TagVehicle}, Weight: 0.6},

		// operations
		{Primary: "عميل", Synonyms: []string{"عملاء", "زبون", "زبائن", "مستأجر", "مستأجرين"}, Category: CategoryOperations, ContextTags: []string{TagCustomer, TagRental}, Weight: 0.8},
		{Primary: "إيجار", Synonyms: []string{"تأجير", "استئجار", "حجز", "حجوزات"}, Category: CategoryOperations, ContextTags: []string{TagRental, TagContract}, Weight: 0.8},
		{Primary: "موظف", Synonyms: []string{"موظفين", "موظفون", "سائق", "سائقين"}, Category: CategoryOperations, ContextTags: []string{TagStaff}, Weight: 0.7},
		{Primary: "فرع", Synonyms: []string{"فروع", "مكتب"}, Category: CategoryOperations, ContextTags: []string{TagStaff}, Weight: 0.6},
		{Primary: "تقرير", Synonyms: []string{"تقارير", "ملخص"}, Category: CategoryOperations, ContextTags: []string{TagReporting}, Weight: 0.5},

		// general
		{Primary: "مساعدة", Synonyms: []string{"مساعده", "ساعدني"}, Category: CategoryGeneral, Weight: 0.3},
	}
}

//Personal.AI order the ending
