package query

import (
	"context"
	"sort"

	"github.com/turtacn/Musaid-NLQ/internal/intelligence/classifier"
)

// Roles understood by SuggestQuestions.
const (
	RoleManager    = "manager"
	RoleAccountant = "accountant"
	RoleLegal      = "legal_advisor"
	RoleFleet      = "fleet_supervisor"
)

var questionTemplates = []questionTemplate{
	{Question: "كم عدد العملاء النشطين؟", Domain: classifier.DomainOperations, TargetRoles: []string{RoleManager}, Priority: 1},
	{Question: "ما إجمالي المدفوعات هذا الشهر؟", Domain: classifier.DomainFinancial, TargetRoles: []string{RoleManager, RoleAccountant}, Priority: 1},
	{Question: "كم عدد الفواتير غير المدفوعة؟", Domain: classifier.DomainFinancial, TargetRoles: []string{RoleAccountant}, Priority: 1},
	{Question: "ما متوسط قيمة العقود هذه السنة؟", Domain: classifier.DomainFinancial, TargetRoles: []string{RoleAccountant, RoleManager}, Priority: 2},
	{Question: "ما الإجراءات القانونية ضد العميل المتأخر في الدفع؟", Domain: classifier.DomainLegal, TargetRoles: []string{RoleLegal, RoleManager}, Priority: 1},
	{Question: "كيف أفسخ عقد إيجار سيارة؟", Domain: classifier.DomainLegal, TargetRoles: []string{RoleLegal}, Priority: 2},
	{Question: "من يتحمل المخالفات المرورية أثناء مدة الإيجار؟", Domain: classifier.DomainLegal, TargetRoles: []string{RoleLegal, RoleFleet}, Priority: 2},
	{Question: "كم عدد المركبات المتاحة؟", Domain: classifier.DomainFleet, TargetRoles: []string{RoleFleet, RoleManager}, Priority: 1},
	{Question: "ما المركبات التي تحتاج إلى صيانة؟", Domain: classifier.DomainFleet, TargetRoles: []string{RoleFleet}, Priority: 2},
	{Question: "كم عدد العقود النشطة اليوم؟", Domain: classifier.DomainOperations, TargetRoles: []string{RoleManager, RoleFleet}, Priority: 2},
	{Question: "ما هي الخدمات التي يمكنك مساعدتي فيها؟", Domain: classifier.DomainGeneral, Priority: 3},
}

// SuggestQuestions returns starter questions ordered by priority. Role and
// Domain filter the templates when set; templates without target roles suit
// every role.
func (s *serviceImpl) SuggestQuestions(ctx context.Context, req *SuggestRequest) (*SuggestResponse, error) {
	count := req.Count
	if count <= 0 {
		count = DefaultSuggestionCount
	}

	matches := make([]questionTemplate, 0, len(questionTemplates))
	for _, t := range questionTemplates {
		if req.Domain != "" && t.Domain != req.Domain {
			continue
		}
		if req.Role != "" && !t.targets(req.Role) {
			continue
		}
		matches = append(matches, t)
	}
	sort.SliceStable(matches, func(i, j int) bool { return matches[i].Priority < matches[j].Priority })

	out := &SuggestResponse{Questions: []SuggestedQuestion{}}
	for _, t := range matches {
		if len(out.Questions) == count {
			break
		}
		out.Questions = append(out.Questions, SuggestedQuestion{
			Question:  t.Question,
			Domain:    t.Domain,
			Relevance: t.relevance(req.Role),
		})
	}
	return out, nil
}

func (t questionTemplate) targets(role string) bool {
	if len(t.TargetRoles) == 0 {
		return true
	}
	for _, r := range t.TargetRoles {
		if r == role {
			return true
		}
	}
	return false
}

func (t questionTemplate) relevance(role string) float64 {
	r := 1.0 - 0.1*float64(t.Priority-1)
	if role != "" && len(t.TargetRoles) == 0 {
		r -= 0.2
	}
	return r
}

// suggestionsFor lists the starter questions of domain, falling back to the
// general ones.
func (s *serviceImpl) suggestionsFor(domain classifier.Domain) []string {
	var out []string
	for _, t := range questionTemplates {
		if t.Domain == domain && len(out) < 3 {
			out = append(out, t.Question)
		}
	}
	if len(out) == 0 {
		for _, t := range questionTemplates {
			if t.Priority == 1 && len(out) < 3 {
				out = append(out, t.Question)
			}
		}
	}
	return out
}

//Personal.AI order the ending
