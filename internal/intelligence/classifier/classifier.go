package classifier

import (
	"github.com/turtacn/Musaid-NLQ/internal/intelligence/morphology"
	"github.com/turtacn/Musaid-NLQ/internal/intelligence/semantic"
	"github.com/turtacn/Musaid-NLQ/internal/intelligence/textnorm"
)

const (
	baseConfidence      = 0.2
	domainShareWeight   = 0.4
	intentMatchBonus    = 0.2
	perEntityBonus      = 0.05
	maxEntitiesForBonus = 4
)

// RuleBasedClassifier composes the rule classifiers into one
// QueryClassification.
type RuleBasedClassifier struct {
	domain      *DomainClassifier
	intent      IntentClassifier
	entities    *EntityExtractor
	temporal    TemporalAnalyzer
	statistical *StatisticalClassifier
}

var _ Classifier = (*RuleBasedClassifier)(nil)

// NewRuleBasedClassifier builds a classifier over dict and analyzer. Nil
// arguments select the built-in tables.
func NewRuleBasedClassifier(dict *semantic.Dictionary, analyzer *morphology.Analyzer) *RuleBasedClassifier {
	return &RuleBasedClassifier{
		domain:      NewDomainClassifier(dict, NewLegalClassifier(analyzer)),
		entities:    NewEntityExtractor(),
		statistical: NewStatisticalClassifier(),
	}
}

// Classify is total: an empty query is general, information, low, with zero
// confidence.
func (c *RuleBasedClassifier) Classify(q textnorm.NormalizedQuery) *QueryClassification {
	if q.IsEmpty() {
		return &QueryClassification{
			Domain:     DomainGeneral,
			Intent:     IntentInformation,
			Entities:   []Entity{},
			Temporal:   Temporal{Timeframe: TimeframeUnspecified},
			Complexity: ComplexityLow,
		}
	}
	text := q.Normalized

	dom := c.domain.Classify(text)
	intent, matched := c.intent.Classify(text)
	entities := c.entities.Extract(text)
	score, complexity := ScoreComplexity(text, len(entities))

	out := &QueryClassification{
		Domain:          dom.Domain,
		DomainScores:    dom.Scores,
		Intent:          intent,
		IntentMatched:   matched,
		Entities:        entities,
		Temporal:        c.temporal.Analyze(text),
		Complexity:      complexity,
		ComplexityScore: score,
	}
	if dom.Legal != nil && dom.Legal.IsLegal {
		out.Legal = dom.Legal
	}
	for _, concept := range dom.Concepts {
		out.Concepts = append(out.Concepts, concept.Primary)
	}

	conf := baseConfidence
	if dom.Domain != DomainGeneral {
		conf += domainShareWeight * dom.Share()
	}
	if matched {
		conf += intentMatchBonus
	}
	n := len(entities)
	if n > maxEntitiesForBonus {
		n = maxEntitiesForBonus
	}
	conf += perEntityBonus * float64(n)
	out.ConfidenceScore = clamp01(conf)
	return out
}

// ClassifyStatistical delegates to the statistical pattern table.
func (c *RuleBasedClassifier) ClassifyStatistical(q textnorm.NormalizedQuery) *StatisticalClassification {
	return c.statistical.Classify(q.Normalized)
}

// Entities exposes the entity extractor for callers that only need entities.
func (c *RuleBasedClassifier) Entities(text string) []Entity {
	return c.entities.Extract(text)
}

// Temporal exposes the temporal analyzer.
func (c *RuleBasedClassifier) Temporal(text string) Temporal {
	return c.temporal.Analyze(text)
}

//Personal.AI order the ending
