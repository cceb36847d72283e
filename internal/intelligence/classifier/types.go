// Package classifier holds the rule-based query classifiers: statistical,
// intent, domain (with its legal sub-classifier), entity, temporal and
// complexity. Every classifier is a pure function of the canonical text and
// returns a result whose confidence lies in [0,1]; none of them fail.
package classifier

import (
	"github.com/turtacn/Musaid-NLQ/internal/intelligence/textnorm"
)

// Domain is the subject-matter bucket a query is routed to.
type Domain string

const (
	DomainLegal      Domain = "legal"
	DomainFinancial  Domain = "financial"
	DomainFleet      Domain = "fleet_management"
	DomainOperations Domain = "operations"
	DomainGeneral    Domain = "general"
)

// DomainOrder is the enumeration order used to break score ties.
var DomainOrder = []Domain{DomainLegal, DomainFinancial, DomainFleet, DomainOperations, DomainGeneral}

// Intent is what the user wants done.
type Intent string

const (
	IntentInformation  Intent = "information"
	IntentAction       Intent = "action"
	IntentAnalysis     Intent = "analysis"
	IntentCreation     Intent = "creation"
	IntentModification Intent = "modification"
)

// Complexity buckets the additive complexity score.
type Complexity string

const (
	ComplexityLow    Complexity = "low"
	ComplexityMedium Complexity = "medium"
	ComplexityHigh   Complexity = "high"
)

// EntityType classifies an extracted entity.
type EntityType string

const (
	EntityCustomer  EntityType = "customer"
	EntityContract  EntityType = "contract"
	EntityInvoice   EntityType = "invoice"
	EntityPayment   EntityType = "payment"
	EntityVehicle   EntityType = "vehicle"
	EntityCase      EntityType = "case"
	EntityDocument  EntityType = "document"
	EntityEmployee  EntityType = "employee"
	EntityAmount    EntityType = "amount"
	EntityDate      EntityType = "date"
	EntityReference EntityType = "reference"
)

// Entity is a recognised noun phrase. Text is the canonical surface form as it
// appeared in the query; Value is the canonical lexicon key.
type Entity struct {
	Text       string     `json:"text"`
	Type       EntityType `json:"type"`
	Value      string     `json:"value"`
	Confidence float64    `json:"confidence"`
}

// Temporal describes the time reference of a query.
type Temporal struct {
	Timeframe    string   `json:"timeframe"`
	Timeframes   []string `json:"timeframes,omitempty"`
	Phrases      []string `json:"phrases,omitempty"`
	IsHistorical bool     `json:"is_historical"`
	IsRealTime   bool     `json:"is_real_time"`
}

// Has reports whether the timeframe id was referenced.
func (t Temporal) Has(timeframe string) bool {
	for _, tf := range t.Timeframes {
		if tf == timeframe {
			return true
		}
	}
	return false
}

// QueryClassification is the merged per-query classification.
type QueryClassification struct {
	Domain          Domain               `json:"domain"`
	DomainScores    map[Domain]float64   `json:"domain_scores,omitempty"`
	Intent          Intent               `json:"intent"`
	IntentMatched   bool                 `json:"intent_matched"`
	Entities        []Entity             `json:"entities"`
	Temporal        Temporal             `json:"temporal"`
	Complexity      Complexity           `json:"complexity"`
	ComplexityScore int                  `json:"complexity_score"`
	Legal           *LegalClassification `json:"legal,omitempty"`
	Concepts        []string             `json:"concepts,omitempty"`
	ConfidenceScore float64              `json:"confidence_score"`
}

// Classifier is the swappable classification contract. The rule-based
// implementation can be replaced by a statistical one behind it.
type Classifier interface {
	Classify(q textnorm.NormalizedQuery) *QueryClassification
	ClassifyStatistical(q textnorm.NormalizedQuery) *StatisticalClassification
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

//Personal.AI order the ending
