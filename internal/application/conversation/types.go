// Package conversation keeps per-session turn history, entity memory and
// contextual references, and answers relevance queries over them.
package conversation

import (
	"time"

	"github.com/turtacn/Musaid-NLQ/internal/intelligence/classifier"
	"github.com/turtacn/Musaid-NLQ/pkg/errors"
)

// ---------------------------------------------------------------------------
// Session state
// ---------------------------------------------------------------------------

// SessionStatus is the lifecycle state of a session.
type SessionStatus string

const (
	StatusActive    SessionStatus = "active"
	StatusPaused    SessionStatus = "paused"
	StatusCompleted SessionStatus = "completed"
)

// ReferenceKind distinguishes contextual references.
type ReferenceKind string

const (
	ReferenceEntity   ReferenceKind = "entity"
	ReferenceTopic    ReferenceKind = "topic"
	ReferenceTemporal ReferenceKind = "temporal"
)

// Relevance scores per reference kind.
const (
	EntityRelevance   = 0.8
	TopicRelevance    = 0.9
	TemporalRelevance = 0.7
)

// Settings tunes retention and relevance defaults.
type Settings struct {
	CleanupInterval    time.Duration
	EntityRetention    time.Duration
	ActiveWindow       time.Duration
	MaxTurns           int
	RelevantTurns      int
	RelevantReferences int
}

// DefaultSettings mirrors the configuration defaults.
func DefaultSettings() Settings {
	return Settings{
		CleanupInterval:    30 * time.Minute,
		EntityRetention:    time.Hour,
		ActiveWindow:       30 * time.Minute,
		MaxTurns:           20,
		RelevantTurns:      5,
		RelevantReferences: 10,
	}
}

func (s Settings) withDefaults() Settings {
	d := DefaultSettings()
	if s.CleanupInterval <= 0 {
		s.CleanupInterval = d.CleanupInterval
	}
	if s.EntityRetention <= 0 {
		s.EntityRetention = d.EntityRetention
	}
	if s.ActiveWindow <= 0 {
		s.ActiveWindow = d.ActiveWindow
	}
	if s.MaxTurns <= 0 {
		s.MaxTurns = d.MaxTurns
	}
	if s.RelevantTurns <= 0 {
		s.RelevantTurns = d.RelevantTurns
	}
	if s.RelevantReferences <= 0 {
		s.RelevantReferences = d.RelevantReferences
	}
	return s
}

// ---------------------------------------------------------------------------
// Turn metadata
// ---------------------------------------------------------------------------

// TurnKind tags the shape of TurnMetadata.
type TurnKind string

const (
	TurnClassified    TurnKind = "classified"
	TurnNumerical     TurnKind = "numerical"
	TurnClarification TurnKind = "clarification"
)

// TurnMetadata is the classification context recorded with a turn. Kind
// decides which of the optional fields must be set; use the constructors.
type TurnMetadata struct {
	Kind            TurnKind            `json:"kind"`
	Intent          classifier.Intent   `json:"intent"`
	Domain          classifier.Domain   `json:"domain"`
	Entities        []classifier.Entity `json:"entities,omitempty"`
	Timeframes      []string            `json:"timeframes,omitempty"`
	TemporalPhrases []string            `json:"temporal_phrases,omitempty"`
	Confidence      float64             `json:"confidence"`
	NumericalEntity string              `json:"numerical_entity,omitempty"`
	ClarificationID string              `json:"clarification_id,omitempty"`
}

func metadataFrom(kind TurnKind, c *classifier.QueryClassification) TurnMetadata {
	m := TurnMetadata{Kind: kind, Intent: classifier.IntentInformation, Domain: classifier.DomainGeneral}
	if c == nil {
		return m
	}
	m.Intent = c.Intent
	m.Domain = c.Domain
	m.Entities = append([]classifier.Entity(nil), c.Entities...)
	m.Timeframes = append([]string(nil), c.Temporal.Timeframes...)
	m.TemporalPhrases = append([]string(nil), c.Temporal.Phrases...)
	m.Confidence = c.ConfidenceScore
	return m
}

// ClassifiedTurn records a turn answered by local rules or the generative
// backend.
func ClassifiedTurn(c *classifier.QueryClassification) (TurnMetadata, error) {
	m := metadataFrom(TurnClassified, c)
	return m, m.Validate()
}

// NumericalTurn records a turn answered by the numerical handler.
func NumericalTurn(c *classifier.QueryClassification, entityType string) (TurnMetadata, error) {
	m := metadataFrom(TurnNumerical, c)
	m.NumericalEntity = entityType
	return m, m.Validate()
}

// ClarificationTurn records a turn that produced a clarification request.
func ClarificationTurn(c *classifier.QueryClassification, requestID string) (TurnMetadata, error) {
	m := metadataFrom(TurnClarification, c)
	m.ClarificationID = requestID
	return m, m.Validate()
}

// Validate checks the Kind-specific invariants.
func (m TurnMetadata) Validate() error {
	if m.Confidence < 0 || m.Confidence > 1 {
		return errors.Newf(errors.ErrCodeInvalidTurn, "confidence %.2f out of range", m.Confidence)
	}
	if m.Domain == "" || m.Intent == "" {
		return errors.New(errors.ErrCodeInvalidTurn, "domain and intent are required")
	}
	switch m.Kind {
	case TurnClassified:
	case TurnNumerical:
		if m.NumericalEntity == "" {
			return errors.New(errors.ErrCodeInvalidTurn, "numerical turn without entity type")
		}
	case TurnClarification:
		if m.ClarificationID == "" {
			return errors.New(errors.ErrCodeInvalidTurn, "clarification turn without request id")
		}
	default:
		return errors.Newf(errors.ErrCodeInvalidTurn, "unknown turn kind %q", m.Kind)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Records
// ---------------------------------------------------------------------------

// Turn is one immutable user message / response pair.
type Turn struct {
	ID          string       `json:"id"`
	SessionID   string       `json:"session_id"`
	UserMessage string       `json:"user_message"`
	AIResponse  string       `json:"ai_response"`
	Timestamp   time.Time    `json:"timestamp"`
	Context     TurnMetadata `json:"context"`
}

// ContextSummary aggregates a session. MainTopics and KeyEntities keep first
// mention order. ArchivedTurns counts turns dropped by cleanup so that
// len(turns)+ArchivedTurns == ResolvedQueries always holds.
type ContextSummary struct {
	MainTopics      []string `json:"main_topics"`
	KeyEntities     []string `json:"key_entities"`
	ResolvedQueries int      `json:"resolved_queries"`
	ArchivedTurns   int      `json:"archived_turns"`
}

// RememberedEntity is one entry of the session's entity memory.
type RememberedEntity struct {
	Text          string                `json:"text"`
	Type          classifier.EntityType `json:"type"`
	Value         string                `json:"value"`
	Confidence    float64               `json:"confidence"`
	LastMentioned time.Time             `json:"last_mentioned"`
	Mentions      int                   `json:"mentions"`
}

// Reference is a contextual reference derived from a turn.
type Reference struct {
	Text      string        `json:"text"`
	Kind      ReferenceKind `json:"kind"`
	Relevance float64       `json:"relevance"`
	Timestamp time.Time     `json:"timestamp"`
	TurnID    string        `json:"turn_id"`
}

// Summary is the session overview returned with relevant context.
type Summary struct {
	SessionID       string        `json:"session_id"`
	Name            string        `json:"name,omitempty"`
	Status          SessionStatus `json:"status"`
	TurnCount       int           `json:"turn_count"`
	ResolvedQueries int           `json:"resolved_queries"`
	MainTopics      []string      `json:"main_topics"`
	KeyEntities     []string      `json:"key_entities"`
	ActiveEntities  int           `json:"active_entities"`
	StartedAt       time.Time     `json:"started_at"`
	LastActivity    time.Time     `json:"last_activity"`
}

// RelevantContext is the result of GetRelevantContext.
type RelevantContext struct {
	RecentTurns        []Turn      `json:"recent_turns"`
	RelevantReferences []Reference `json:"relevant_references"`
	SessionSummary     Summary     `json:"session_summary"`
}

// Snapshot is the serialisable form of a session.
type Snapshot struct {
	ID           string              `json:"id"`
	Name         string              `json:"name,omitempty"`
	CompanyID    string              `json:"company_id,omitempty"`
	UserID       string              `json:"user_id,omitempty"`
	Status       SessionStatus       `json:"status"`
	StartedAt    time.Time           `json:"started_at"`
	LastActivity time.Time           `json:"last_activity"`
	Turns        []Turn              `json:"turns"`
	Summary      ContextSummary      `json:"summary"`
	Entities     []RememberedEntity  `json:"entities"`
	References   []Reference         `json:"references"`
	Domains      []classifier.Domain `json:"domains"`
	DomainShifts int                 `json:"domain_shifts"`
}

//Personal.AI order the ending
