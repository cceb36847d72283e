package classifier

import (
	"github.com/turtacn/Musaid-NLQ/internal/intelligence/morphology"
	"github.com/turtacn/Musaid-NLQ/internal/intelligence/textnorm"
)

// LegalArea narrows a legal query.
type LegalArea string

const (
	LegalAreaContract     LegalArea = "contract_law"
	LegalAreaLitigation   LegalArea = "litigation"
	LegalAreaTraffic      LegalArea = "traffic_violations"
	LegalAreaCompensation LegalArea = "compensation"
	LegalAreaGeneral      LegalArea = "general_legal"
)

// LegalClassification is the legal sub-classification of a query.
type LegalClassification struct {
	IsLegal    bool      `json:"is_legal"`
	Area       LegalArea `json:"area,omitempty"`
	Roots      []string  `json:"roots,omitempty"`
	Keywords   []string  `json:"keywords,omitempty"`
	Confidence float64   `json:"confidence"`
}

var rootAreas = map[string]LegalArea{
	"عقد": LegalAreaContract,
	"فسخ": LegalAreaContract,
	"بطل": LegalAreaContract,
	"ضمن": LegalAreaContract,
	"كفل": LegalAreaContract,
	"خلف": LegalAreaTraffic,
	"غرم": LegalAreaTraffic,
	"عوض": LegalAreaCompensation,
	"قضي": LegalAreaLitigation,
	"دعو": LegalAreaLitigation,
	"دعي": LegalAreaLitigation,
	"حكم": LegalAreaLitigation,
	"حمي": LegalAreaLitigation,
	"نزع": LegalAreaLitigation,
}

var legalKeywords = textnorm.NormalizeAll(
	"قانون", "قانوني", "قانونية", "محكمة", "محامي", "قضية", "دعوى", "حكم", "مخالفة",
	"تعويض", "إنذار", "شكوى", "نظام", "لائحة", "مادة",
)

// LegalClassifier combines root analysis with a legal keyword list.
type LegalClassifier struct {
	analyzer *morphology.Analyzer
}

// NewLegalClassifier uses analyzer for root extraction.
func NewLegalClassifier(analyzer *morphology.Analyzer) *LegalClassifier {
	if analyzer == nil {
		analyzer = morphology.NewAnalyzer(nil)
	}
	return &LegalClassifier{analyzer: analyzer}
}

// Classify never fails. The area comes from the first legal root in text
// order that maps to an area.
func (l *LegalClassifier) Classify(text string) *LegalClassification {
	if text == "" {
		return &LegalClassification{}
	}
	out := &LegalClassification{Roots: l.analyzer.LegalRoots(text)}
	for _, tok := range textnorm.Tokenize(text) {
		if kw := textnorm.MatchToken(tok, legalKeywords...); kw != "" {
			out.Keywords = append(out.Keywords, kw)
		}
	}
	out.IsLegal = len(out.Roots) > 0 || len(out.Keywords) > 0
	if !out.IsLegal {
		out.Confidence = 0.1
		return out
	}
	out.Area = LegalAreaGeneral
	for _, r := range out.Roots {
		if area, ok := rootAreas[r]; ok {
			out.Area = area
			break
		}
	}
	out.Confidence = 0.5 + 0.15*float64(len(out.Roots)) + 0.1*float64(len(out.Keywords))
	if out.Confidence > 0.95 {
		out.Confidence = 0.95
	}
	return out
}

//Personal.AI order the ending
