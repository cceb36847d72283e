// Package clarification detects ambiguous queries, builds structured
// clarification requests and applies the user's answers to produce a refined
// query.
package clarification

import "time"

// AmbiguityType is the detected source of ambiguity.
type AmbiguityType string

const (
	AmbiguityMissingContext          AmbiguityType = "missing_context"
	AmbiguityMultipleInterpretations AmbiguityType = "multiple_interpretations"
	AmbiguityUnclearIntent           AmbiguityType = "unclear_intent"
	AmbiguityIncompleteData          AmbiguityType = "incomplete_data"
)

// Severity weights missing-context matches.
type Severity string

const (
	SeverityHigh   Severity = "high"
	SeverityMedium Severity = "medium"
	SeverityLow    Severity = "low"
)

// QuestionType decides how an answer is applied.
type QuestionType string

const (
	QuestionSingleChoice   QuestionType = "single_choice"
	QuestionMultipleChoice QuestionType = "multiple_choice"
	QuestionTextInput      QuestionType = "text_input"
	QuestionConfirmation   QuestionType = "confirmation"
)

// RefinementType tags what the applied answers did to the query.
type RefinementType string

const (
	RefinementDisambiguation      RefinementType = "disambiguation"
	RefinementScopeNarrowing      RefinementType = "scope_narrowing"
	RefinementIntentClarification RefinementType = "intent_clarification"
	RefinementContextAddition     RefinementType = "context_addition"
)

// Choice is one option of a choice question.
type Choice struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// Question is one clarification question. Placeholder is set on text_input
// questions whose answer substitutes a token of the query.
type Question struct {
	Key         string       `json:"key"`
	Text        string       `json:"text"`
	Type        QuestionType `json:"type"`
	Options     []Choice     `json:"options,omitempty"`
	Placeholder string       `json:"placeholder,omitempty"`
}

func (q Question) choice(value string) (Choice, bool) {
	for _, o := range q.Options {
		if o.Value == value {
			return o, true
		}
	}
	return Choice{}, false
}

// Interpretation is a canned reading of a compound query.
type Interpretation struct {
	Query       string  `json:"query"`
	Description string  `json:"description"`
	Confidence  float64 `json:"confidence"`
}

// Source is one detected ambiguity with its score contribution.
type Source struct {
	Type         AmbiguityType `json:"type"`
	Subtype      string        `json:"subtype"`
	Severity     Severity      `json:"severity,omitempty"`
	Contribution float64       `json:"contribution"`
	Evidence     string        `json:"evidence,omitempty"`
}

// Request is a pending clarification. ConfidenceScore is the confidence in
// the query as asked, 1 minus the ambiguity score.
type Request struct {
	ID                       string           `json:"id"`
	SessionID                string           `json:"session_id,omitempty"`
	OriginalQuery            string           `json:"original_query"`
	AmbiguityType            AmbiguityType    `json:"ambiguity_type"`
	ConfidenceScore          float64          `json:"confidence_score"`
	Questions                []Question       `json:"clarification_questions"`
	SuggestedInterpretations []Interpretation `json:"suggested_interpretations,omitempty"`
	ContextHints             []string         `json:"context_hints,omitempty"`
	CreatedAt                time.Time        `json:"created_at"`
}

func (r *Request) question(key string) (Question, bool) {
	for _, q := range r.Questions {
		if q.Key == key {
			return q, true
		}
	}
	return Question{}, false
}

// Assessment is the result of AssessClarificationNeed.
type Assessment struct {
	NeedsClarification bool     `json:"needs_clarification"`
	Score              float64  `json:"ambiguity_score"`
	Sources            []Source `json:"sources,omitempty"`
	Request            *Request `json:"request,omitempty"`
}

// Context is what the caller knows from the conversation so far.
type Context struct {
	SessionID string
	Entities  []string
	Domain    string
}

// Answer answers one question. Value is used by single_choice and
// text_input, Values by multiple_choice, Confirmed by confirmation.
type Answer struct {
	Key       string   `json:"key"`
	Value     string   `json:"value,omitempty"`
	Values    []string `json:"values,omitempty"`
	Confirmed bool     `json:"confirmed,omitempty"`
}

// Response resolves a pending Request.
type Response struct {
	RequestID string   `json:"request_id"`
	SessionID string   `json:"session_id,omitempty"`
	Answers   []Answer `json:"answers"`
}

// Refinement is the outcome of applying a Response.
type Refinement struct {
	RequestID        string          `json:"request_id"`
	OriginalQuery    string          `json:"original_query"`
	RefinedQuery     string          `json:"refined_query"`
	Scope            []string        `json:"scope,omitempty"`
	Categories       []string        `json:"categories,omitempty"`
	Flags            map[string]bool `json:"flags,omitempty"`
	AppliedKeys      []string        `json:"applied_keys,omitempty"`
	IgnoredKeys      []string        `json:"ignored_keys,omitempty"`
	ConfidenceBefore float64         `json:"confidence_before"`
	ConfidenceAfter  float64         `json:"confidence_after"`
	Type             RefinementType  `json:"refinement_type"`
}

//Personal.AI order the ending
