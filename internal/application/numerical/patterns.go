package numerical

import (
	"regexp"

	"github.com/turtacn/Musaid-NLQ/internal/intelligence/textnorm"
)

// numericalKeywords mark a query as numerical when any of them appears as a
// token (clitics allowed).
var numericalKeywords = textnorm.NormalizeAll(
	"كم", "عدد", "إجمالي", "اجمالي", "مجموع", "اعرض", "عرض", "أظهر", "اظهر", "قائمة",
	"count", "total", "sum", "show", "list",
)

var (
	quantifier = textnorm.Words("كم", "عدد", "count")
	aggregate  = textnorm.Words("اجمالي", "إجمالي", "مجموع", "total", "sum")
	showVerb   = textnorm.Words("اعرض", "عرض", "أظهر", "اظهر", "قائمة", "show", "list")

	customers = textnorm.Nouns("عميل", "عملاء", "زبون", "زبائن", "مستأجر", "مستأجرين", "customers")
	contracts = textnorm.Nouns("عقد", "عقود", "اتفاقية", "اتفاقيات", "contracts")
	invoices  = textnorm.Nouns("فاتورة", "فواتير", "invoices")
	payments  = textnorm.Nouns("دفعة", "دفعات", "مدفوعات", "سداد", "payments")
	revenue   = textnorm.Nouns("إيرادات", "ايرادات", "دخل", "revenue")
	vehicles  = textnorm.Nouns("سيارة", "سيارات", "مركبة", "مركبات", "vehicles")

	blacklisted = textnorm.Nouns("محظور", "محظورين", "محظورة", "blacklisted")
	active      = textnorm.Nouns("نشط", "نشطين", "نشطة", "فعال", "فعالة", "سارية", "ساري", "active")
	expired     = textnorm.Nouns("منتهي", "منتهية", "منتهيه", "expired")
	overdue     = textnorm.Nouns("متأخر", "متأخرة", "متأخرات", "مستحقة", "overdue")
	unpaid      = textnorm.Words("غير") + `\s` + textnorm.Nouns("مدفوع", "مدفوعة", "مسددة")
	paid        = textnorm.Nouns("مدفوعة", "مسددة", "paid")
	available   = textnorm.Nouns("متاح", "متاحة", "متوفرة", "available")
)

// negationWord negates the qualifier that directly follows it.
const negationWord = "غير"

// not prefixes a qualifier with a negation token. Negated forms must be
// listed before the positive pattern of the same qualifier, which would
// otherwise match across the negation.
func not(qualifier string) string {
	return textnorm.Words(negationWord, "not", "non") + `\s` + qualifier
}

type numericalPattern struct {
	name      string
	re        *regexp.Regexp
	entity    EntityType
	operation  Operation
	filters    map[string]interface{}
	exclusions map[string]interface{}
}

func np(name string, entity EntityType, op Operation, filters map[string]interface{}, parts ...string) numericalPattern {
	return numericalPattern{
		name:      name,
		re:        textnorm.MustCompileSequence(parts...),
		entity:    entity,
		operation: op,
		filters:   filters,
	}
}

// npExcept builds a pattern whose qualifier is negated.
func npExcept(name string, entity EntityType, op Operation, exclusions map[string]interface{}, parts ...string) numericalPattern {
	p := np(name, entity, op, nil, parts...)
	p.exclusions = exclusions
	return p
}

func eq(column string, v interface{}) map[string]interface{} {
	return map[string]interface{}{column: v}
}

// numericalPatterns are tried in order against padded canonical text; the
// first match wins. Qualified forms precede their bare counterparts.
var numericalPatterns = []numericalPattern{
	npExcept("non_blacklisted_customers_count", EntityCustomers, OpCount, eq("blacklisted", true), quantifier, customers, not(blacklisted)),
	npExcept("inactive_customers_count", EntityCustomers, OpCount, eq("status", "active"), quantifier, customers, not(active)),
	np("blacklisted_customers_count", EntityCustomers, OpCount, eq("blacklisted", true), quantifier, customers, blacklisted),
	np("active_customers_count", EntityCustomers, OpCount, eq("status", "active"), quantifier, customers, active),
	np("customers_count", EntityCustomers, OpCount, nil, quantifier, customers),

	npExcept("inactive_contracts_count", EntityContracts, OpCount, eq("status", "active"), quantifier, contracts, not(active)),
	npExcept("unexpired_contracts_count", EntityContracts, OpCount, eq("status", "expired"), quantifier, contracts, not(expired)),
	np("active_contracts_count", EntityContracts, OpCount, eq("status", "active"), quantifier, contracts, active),
	np("expired_contracts_count", EntityContracts, OpCount, eq("status", "expired"), quantifier, contracts, expired),
	np("contracts_count", EntityContracts, OpCount, nil, quantifier, contracts),

	np("unpaid_invoices_sum", EntityInvoices, OpSum, eq("status", "unpaid"), aggregate, invoices, unpaid),
	np("invoices_sum", EntityInvoices, OpSum, nil, aggregate, invoices),
	npExcept("non_overdue_invoices_count", EntityInvoices, OpCount, eq("status", "overdue"), quantifier, invoices, not(overdue)),
	np("overdue_invoices_count", EntityInvoices, OpCount, eq("status", "overdue"), quantifier, invoices, overdue),
	np("unpaid_invoices_count", EntityInvoices, OpCount, eq("status", "unpaid"), quantifier, invoices, unpaid),
	np("paid_invoices_count", EntityInvoices, OpCount, eq("status", "paid"), quantifier, invoices, paid),
	np("invoices_count", EntityInvoices, OpCount, nil, quantifier, invoices),

	np("payments_sum", EntityPayments, OpSum, nil, aggregate, payments),
	np("revenue_sum", EntityPayments, OpSum, nil, aggregate, revenue),
	np("payments_count", EntityPayments, OpCount, nil, quantifier, payments),

	npExcept("unavailable_vehicles_count", EntityVehicles, OpCount, eq("status", "available"), quantifier, vehicles, not(available)),
	np("available_vehicles_count", EntityVehicles, OpCount, eq("status", "available"), quantifier, vehicles, available),
	np("vehicles_count", EntityVehicles, OpCount, nil, quantifier, vehicles),

	npExcept("list_non_blacklisted_customers", EntityCustomers, OpList, eq("blacklisted", true), showVerb, customers, not(blacklisted)),
	np("list_blacklisted_customers", EntityCustomers, OpList, eq("blacklisted", true), showVerb, customers, blacklisted),
	np("list_customers", EntityCustomers, OpList, nil, showVerb, customers),
	npExcept("list_inactive_contracts", EntityContracts, OpList, eq("status", "active"), showVerb, contracts, not(active)),
	np("list_active_contracts", EntityContracts, OpList, eq("status", "active"), showVerb, contracts, active),
	np("list_contracts", EntityContracts, OpList, nil, showVerb, contracts),
	npExcept("list_non_overdue_invoices", EntityInvoices, OpList, eq("status", "overdue"), showVerb, invoices, not(overdue)),
	np("list_overdue_invoices", EntityInvoices, OpList, eq("status", "overdue"), showVerb, invoices, overdue),
	np("list_invoices", EntityInvoices, OpList, nil, showVerb, invoices),
	np("list_payments", EntityPayments, OpList, nil, showVerb, payments),
}

//Personal.AI order the ending
