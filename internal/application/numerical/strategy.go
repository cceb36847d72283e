package numerical

import (
	"fmt"
	"sort"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// DefaultCurrency is appended to every sum.
const (
	DefaultCurrency         = "د.ك"
	DefaultCurrencyDecimals = 2
)

// Strategy describes how one entity type is stored and described. Qualifiers
// map "column=value" to the adjective used in descriptions.
type Strategy struct {
	Table        string
	AmountColumn string
	DateColumn   string
	Noun         string
	SumLabel     string
	Qualifiers   map[string]string
	ListColumns  []string
}

// DefaultStrategies covers the car-rental tables.
func DefaultStrategies() map[EntityType]Strategy {
	return map[EntityType]Strategy{
		EntityCustomers: {
			Table:      "customers",
			DateColumn: "created_at",
			Noun:       "عميل",
			Qualifiers: map[string]string{
				"blacklisted=true": "محظور",
				"status=active":    "نشط",
			},
			ListColumns: []string{"id", "name", "phone"},
		},
		EntityContracts: {
			Table:        "contracts",
			AmountColumn: "contract_amount",
			DateColumn:   "start_date",
			Noun:         "عقد",
			SumLabel:     "إجمالي قيمة العقود",
			Qualifiers: map[string]string{
				"status=active":  "نشط",
				"status=expired": "منتهي",
			},
			ListColumns: []string{"id", "contract_number", "customer_id", "status"},
		},
		EntityInvoices: {
			Table:        "invoices",
			AmountColumn: "total_amount",
			DateColumn:   "invoice_date",
			Noun:         "فاتورة",
			SumLabel:     "إجمالي الفواتير",
			Qualifiers: map[string]string{
				"status=overdue": "متأخرة",
				"status=unpaid":  "غير مدفوعة",
				"status=paid":    "مدفوعة",
			},
			ListColumns: []string{"id", "invoice_number", "total_amount", "status"},
		},
		EntityPayments: {
			Table:        "payments",
			AmountColumn: "amount",
			DateColumn:   "payment_date",
			Noun:         "دفعة",
			SumLabel:     "إجمالي المدفوعات",
			ListColumns:  []string{"id", "payment_number", "amount", "payment_date"},
		},
		EntityVehicles: {
			Table:      "vehicles",
			DateColumn: "created_at",
			Noun:       "مركبة",
			Qualifiers: map[string]string{
				"status=available": "متاحة",
			},
			ListColumns: []string{"id", "plate_number", "status"},
		},
	}
}

// Schema lists, per table, every column the strategies may reference: the
// amount and date columns, list columns and qualifier columns. SQL stores
// use it as their identifier allow-list.
func Schema(strategies map[EntityType]Strategy) map[string][]string {
	out := make(map[string][]string, len(strategies))
	for _, s := range strategies {
		seen := map[string]bool{}
		for _, c := range out[s.Table] {
			seen[c] = true
		}
		add := func(c string) {
			if c != "" && !seen[c] {
				seen[c] = true
				out[s.Table] = append(out[s.Table], c)
			}
		}
		add(s.AmountColumn)
		add(s.DateColumn)
		for _, c := range s.ListColumns {
			add(c)
		}
		for q := range s.Qualifiers {
			add(strings.SplitN(q, "=", 2)[0])
		}
		sort.Strings(out[s.Table])
	}
	return out
}

// timeframeLabels are appended to descriptions of period-filtered queries.
var timeframeLabels = map[string]string{
	"today":      "اليوم",
	"yesterday":  "أمس",
	"this_week":  "هذا الأسبوع",
	"last_week":  "الأسبوع الماضي",
	"this_month": "هذا الشهر",
	"last_month": "الشهر الماضي",
	"this_year":  "هذه السنة",
	"last_year":  "السنة الماضية",
}

// describer renders result descriptions with locale-aware digit grouping.
type describer struct {
	printer  *message.Printer
	currency string
	decimals int
}

func newDescriber(tag language.Tag, currency string, decimals int) describer {
	if currency == "" {
		currency = DefaultCurrency
	}
	if decimals < 0 {
		decimals = DefaultCurrencyDecimals
	}
	return describer{printer: message.NewPrinter(tag), currency: currency, decimals: decimals}
}

// qualifier returns the adjectives for the query's filters in column order,
// followed by the negated adjectives of its exclusions.
func (s Strategy) qualifier(q Query) string {
	if len(s.Qualifiers) == 0 {
		return ""
	}
	parts := s.adjectives(q.Filters, "")
	parts = append(parts, s.adjectives(q.Exclusions, negationWord+" ")...)
	return strings.Join(parts, " ")
}

func (s Strategy) adjectives(filters map[string]interface{}, prefix string) []string {
	cols := make([]string, 0, len(filters))
	for c := range filters {
		cols = append(cols, c)
	}
	sort.Strings(cols)
	var parts []string
	for _, c := range cols {
		if adj, ok := s.Qualifiers[fmt.Sprintf("%s=%v", c, filters[c])]; ok {
			parts = append(parts, prefix+adj)
		}
	}
	return parts
}

func (d describer) count(s Strategy, q Query, n int64) string {
	out := d.printer.Sprintf("%d %s", n, s.Noun)
	if adj := s.qualifier(q); adj != "" {
		out += " " + adj
	}
	return withPeriod(out, q.Timeframe)
}

func (d describer) sum(s Strategy, q Query, v float64) string {
	label := s.SumLabel
	if adj := s.qualifier(q); adj != "" {
		label += " " + adj
	}
	out := d.printer.Sprintf(fmt.Sprintf("%%s: %%.%df %%s", d.decimals), label, v, d.currency)
	return withPeriod(out, q.Timeframe)
}

func withPeriod(desc, timeframe string) string {
	if label, ok := timeframeLabels[timeframe]; ok {
		return desc + " (" + label + ")"
	}
	return desc
}

//Personal.AI order the ending
