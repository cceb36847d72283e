// Package query is the orchestrator of the NL query pipeline: it composes
// normalization, classification, conversation context, clarification,
// numerical execution and the generative fallback into one call.
package query

import (
	"context"
	"time"

	"github.com/turtacn/Musaid-NLQ/internal/application/conversation"
	"github.com/turtacn/Musaid-NLQ/internal/application/numerical"
	"github.com/turtacn/Musaid-NLQ/internal/intelligence/clarification"
	"github.com/turtacn/Musaid-NLQ/internal/intelligence/classifier"
	"github.com/turtacn/Musaid-NLQ/internal/intelligence/textnorm"
)

// ============================================================================
// Enums & Constants
// ============================================================================

// Route is the path a query took through the pipeline.
type Route string

const (
	RouteClarification Route = "clarification"
	RouteNumerical     Route = "numerical"
	RouteLocal         Route = "local"
	RouteGenerative    Route = "generative"
	RouteFallback      Route = "fallback"
)

// InsightType tags a generated insight.
type InsightType string

const (
	InsightEntityAmbiguity     InsightType = "entity_ambiguity"
	InsightContextShift        InsightType = "context_shift"
	InsightTemporalConfusion   InsightType = "temporal_confusion"
	InsightIntentEvolution     InsightType = "intent_evolution"
	InsightClarificationNeeded InsightType = "clarification_needed"
)

const (
	MaxQueryLength              = 1000
	DefaultStatisticalThreshold = 0.7
	DefaultTemperature          = 0.3
	DefaultSuggestionCount      = 5

	initialCoherence    = 1.0
	coherencePenalty    = 0.2
	minCoherence        = 0.3
	maxShiftsBeforeNote = 2
	lowCoherence        = 0.6
	lowIntentConfidence = 0.5
	lowClassification   = 0.4
	maxPronounCandidate = 3
)

// ============================================================================
// DTOs
// ============================================================================

// EnhancedRequest is one user query. An empty SessionID starts a new session.
type EnhancedRequest struct {
	Query     string `json:"query"`
	SessionID string `json:"session_id,omitempty"`
	CompanyID string `json:"company_id,omitempty"`
	UserID    string `json:"user_id,omitempty"`
}

// EnhancedResponse is the pipeline outcome for one query.
type EnhancedResponse struct {
	SessionID      string                                `json:"session_id"`
	TurnID         string                                `json:"turn_id,omitempty"`
	Route          Route                                 `json:"route"`
	Answer         string                                `json:"answer"`
	Confidence     float64                               `json:"confidence"`
	Classification *classifier.QueryClassification       `json:"classification,omitempty"`
	Statistical    *classifier.StatisticalClassification `json:"statistical,omitempty"`
	Context        *AdvancedContext                      `json:"context,omitempty"`
	Clarification  *clarification.Request                `json:"clarification,omitempty"`
	Numerical      *numerical.Result                     `json:"numerical,omitempty"`
	Concepts       []string                              `json:"concepts,omitempty"`
	Suggestions    []string                              `json:"suggestions,omitempty"`
	ProcessingTime time.Duration                         `json:"processing_time"`
}

// ResolvedEntity is a current entity matched against entity memory.
type ResolvedEntity struct {
	Entity classifier.Entity             `json:"entity"`
	Memory conversation.RememberedEntity `json:"memory"`
}

// AmbiguousReference is a pronoun whose referent is unknown. Candidates are
// the most recently active remembered entities.
type AmbiguousReference struct {
	Entity     classifier.Entity `json:"entity"`
	Candidates []string          `json:"candidates,omitempty"`
}

// EntityResolution partitions the query entities.
type EntityResolution struct {
	Resolved  []ResolvedEntity     `json:"resolved_entities"`
	Ambiguous []AmbiguousReference `json:"ambiguous_pronouns"`
	New       []classifier.Entity  `json:"new_entities"`
}

// TemporalCoherence scores agreement between the query's time references and
// the recent history.
type TemporalCoherence struct {
	TimelineCoherence float64  `json:"timeline_coherence"`
	Conflicts         int      `json:"conflicts"`
	Timeframe         string   `json:"timeframe"`
	HistoryTimeframes []string `json:"history_timeframes,omitempty"`
}

// IntentEvolution summarizes the intents of the retrieved history.
type IntentEvolution struct {
	PrimaryIntent    classifier.Intent   `json:"primary_intent"`
	IntentConfidence float64             `json:"intent_confidence"`
	History          []classifier.Intent `json:"history,omitempty"`
}

// Insight is one rule-generated observation about the analysis.
type Insight struct {
	Type       InsightType `json:"type"`
	Message    string      `json:"message"`
	Confidence float64     `json:"confidence"`
}

// AdvancedContext is the result of AnalyzeWithConversationContext.
type AdvancedContext struct {
	SessionID        string                                `json:"session_id"`
	Query            textnorm.NormalizedQuery              `json:"query"`
	Classification   *classifier.QueryClassification       `json:"classification"`
	Statistical      *classifier.StatisticalClassification `json:"statistical"`
	RelevantContext  conversation.RelevantContext          `json:"relevant_context"`
	EntityResolution EntityResolution                      `json:"entity_resolution"`
	Temporal         TemporalCoherence                     `json:"temporal_coherence"`
	IntentEvolution  IntentEvolution                       `json:"intent_evolution"`
	ContextShifts    int                                   `json:"context_shifts"`
	DomainSequence   []classifier.Domain                   `json:"domain_sequence,omitempty"`
	Insights         []Insight                             `json:"insights"`
}

// ClarificationResult is the outcome of ResolveClarification.
type ClarificationResult struct {
	Refinement *clarification.Refinement `json:"refinement"`
	Response   *EnhancedResponse         `json:"response"`
}

// SuggestRequest asks for starter questions.
type SuggestRequest struct {
	Role   string            `json:"role,omitempty"`
	Domain classifier.Domain `json:"domain,omitempty"`
	Count  int               `json:"count"`
}

type SuggestedQuestion struct {
	Question  string            `json:"question"`
	Domain    classifier.Domain `json:"domain"`
	Relevance float64           `json:"relevance"`
}

type SuggestResponse struct {
	Questions []SuggestedQuestion `json:"questions"`
}

type ExplainRequest struct {
	Question  string `json:"question"`
	SessionID string `json:"session_id,omitempty"`
}

// ExplainStep is one pipeline stage with its input, output and timing.
type ExplainStep struct {
	StepName string        `json:"step_name"`
	Input    interface{}   `json:"input"`
	Output   interface{}   `json:"output"`
	Duration time.Duration `json:"duration"`
}

type ExplainResponse struct {
	Steps      []ExplainStep `json:"steps"`
	Route      Route         `json:"route"`
	Confidence float64       `json:"confidence"`
}

// questionTemplate is a canned starter question.
type questionTemplate struct {
	Question    string
	Domain      classifier.Domain
	TargetRoles []string
	Priority    int
}

// TurnEvent is published after every completed turn.
type TurnEvent struct {
	EventID     string            `json:"event_id"`
	SessionID   string            `json:"session_id"`
	TurnID      string            `json:"turn_id"`
	Route       Route             `json:"route"`
	Domain      classifier.Domain `json:"domain"`
	Intent      classifier.Intent `json:"intent"`
	Confidence  float64           `json:"confidence"`
	EntityCount int               `json:"entity_count"`
	OccurredAt  time.Time         `json:"occurred_at"`
}

// ============================================================================
// External Interfaces (Dependencies)
// ============================================================================

// Clarifier is the ambiguity engine contract.
type Clarifier interface {
	AssessClarificationNeed(q textnorm.NormalizedQuery, c *clarification.Context) *clarification.Assessment
	Score(q textnorm.NormalizedQuery, c *clarification.Context) (float64, []clarification.Source)
	Threshold() float64
	ProcessClarificationResponse(resp clarification.Response) (*clarification.Refinement, error)
	PendingCount() int
}

// NumericalHandler is the numerical query contract.
type NumericalHandler interface {
	IsNumericalQuery(text string) bool
	ParseNumericalQuery(text string) *numerical.Query
	Execute(ctx context.Context, q numerical.Query) (*numerical.Result, error)
}

// TurnPublisher ships turn events to downstream consumers.
type TurnPublisher interface {
	PublishTurn(ctx context.Context, event TurnEvent) error
}

//Personal.AI order the ending
