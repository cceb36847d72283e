package query

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/turtacn/Musaid-NLQ/internal/application/conversation"
	"github.com/turtacn/Musaid-NLQ/internal/application/numerical"
	"github.com/turtacn/Musaid-NLQ/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/Musaid-NLQ/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/Musaid-NLQ/internal/intelligence/clarification"
	"github.com/turtacn/Musaid-NLQ/internal/intelligence/classifier"
	"github.com/turtacn/Musaid-NLQ/internal/intelligence/generative"
	"github.com/turtacn/Musaid-NLQ/internal/intelligence/semantic"
	"github.com/turtacn/Musaid-NLQ/internal/intelligence/textnorm"
	"github.com/turtacn/Musaid-NLQ/pkg/errors"
)

// ============================================================================
// Service Interface & Implementation
// ============================================================================

// Service is the query pipeline entry point.
type Service interface {
	AnalyzeWithConversationContext(ctx context.Context, sessionID, query string) (*AdvancedContext, error)
	ProcessEnhancedQuery(ctx context.Context, req *EnhancedRequest) (*EnhancedResponse, error)
	ResolveClarification(ctx context.Context, sessionID string, resp clarification.Response) (*ClarificationResult, error)
	SuggestQuestions(ctx context.Context, req *SuggestRequest) (*SuggestResponse, error)
	ExplainQuery(ctx context.Context, req *ExplainRequest) (*ExplainResponse, error)
}

// Config tunes the pipeline.
type Config struct {
	Model                string
	Temperature          float64
	StatisticalThreshold float64
	GenerativeTimeout    time.Duration
	PersistTimeout       time.Duration
}

func (c Config) withDefaults() Config {
	if c.Temperature <= 0 {
		c.Temperature = DefaultTemperature
	}
	if c.StatisticalThreshold <= 0 {
		c.StatisticalThreshold = DefaultStatisticalThreshold
	}
	if c.GenerativeTimeout <= 0 {
		c.GenerativeTimeout = generative.DefaultTimeout
	}
	if c.PersistTimeout <= 0 {
		c.PersistTimeout = 2 * time.Second
	}
	return c
}

// Dependencies are the collaborators of the service. Classifier, Clarifier
// and Sessions are required.
type Dependencies struct {
	Classifier classifier.Classifier
	Dictionary *semantic.Dictionary
	Clarifier  Clarifier
	Numerical  NumericalHandler
	Sessions   *conversation.Manager
	Generative generative.Backend
	Publisher  TurnPublisher
	Metrics    *prometheus.AppMetrics
	Logger     logging.Logger
}

type serviceImpl struct {
	classifier classifier.Classifier
	dict       *semantic.Dictionary
	clarifier  Clarifier
	numerical  NumericalHandler
	sessions   *conversation.Manager
	llm        generative.Backend
	publisher  TurnPublisher
	metrics    *prometheus.AppMetrics
	logger     logging.Logger
	cfg        Config
	now        func() time.Time
}

// Option configures the service.
type Option func(*serviceImpl)

// WithClock overrides time.Now for event timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *serviceImpl) { s.now = now }
}

// NewService wires the pipeline.
func NewService(deps Dependencies, cfg Config, opts ...Option) (Service, error) {
	if deps.Classifier == nil || deps.Clarifier == nil || deps.Sessions == nil {
		return nil, errors.New(errors.ErrCodeInvalidParam, "classifier, clarifier and sessions are required")
	}
	if deps.Logger == nil {
		deps.Logger = logging.NewNopLogger()
	}
	if deps.Dictionary == nil {
		deps.Dictionary = semantic.NewDictionary()
	}
	if deps.Generative == nil {
		deps.Generative = generative.Disabled{}
	}
	s := &serviceImpl{
		classifier: deps.Classifier,
		dict:       deps.Dictionary,
		clarifier:  deps.Clarifier,
		numerical:  deps.Numerical,
		sessions:   deps.Sessions,
		llm:        deps.Generative,
		publisher:  deps.Publisher,
		metrics:    deps.Metrics,
		logger:     deps.Logger.Named("query"),
		cfg:        cfg.withDefaults(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// ----------------------------------------------------------------------------
// Core Pipeline: ProcessEnhancedQuery
// ----------------------------------------------------------------------------

// ProcessEnhancedQuery runs the whole pipeline for one query and records the
// turn. Generative failures degrade to a fallback answer; data store failures
// and invalid input are returned as errors.
func (s *serviceImpl) ProcessEnhancedQuery(ctx context.Context, req *EnhancedRequest) (*EnhancedResponse, error) {
	return s.process(ctx, req, true)
}

func (s *serviceImpl) process(ctx context.Context, req *EnhancedRequest, allowClarification bool) (*EnhancedResponse, error) {
	start := time.Now()
	if err := s.validate(req.Query); err != nil {
		return nil, err
	}

	session, err := s.session(ctx, req)
	if err != nil {
		return nil, err
	}

	analysis := s.analyze(session, req.Query)
	cls := analysis.Classification
	s.metrics.RecordClassification(string(cls.Domain), string(cls.Intent))

	resp := &EnhancedResponse{
		SessionID:      session.ID(),
		Classification: cls,
		Statistical:    analysis.Statistical,
		Context:        analysis,
		Confidence:     cls.ConfidenceScore,
		Concepts:       cls.Concepts,
	}

	// Empty input gets the help text and is not recorded as a turn.
	if analysis.Query.IsEmpty() {
		resp.Route = RouteLocal
		resp.Answer = helpAnswer
		resp.Suggestions = s.suggestionsFor(classifier.DomainGeneral)
		resp.ProcessingTime = time.Since(start)
		s.metrics.RecordQuery(string(resp.Route))
		return resp, nil
	}

	var meta conversation.TurnMetadata
	switch {
	case allowClarification && s.needsClarification(session, analysis, resp):
		meta, err = conversation.ClarificationTurn(cls, resp.Clarification.ID)

	default:
		var handled bool
		handled, err = s.tryNumerical(ctx, analysis, resp)
		if err != nil {
			return nil, err
		}
		if handled {
			meta, err = conversation.NumericalTurn(cls, string(resp.Numerical.Query.EntityType))
			break
		}
		if answer, ok := localAnswer(analysis.Query.Normalized); ok {
			resp.Route = RouteLocal
			resp.Answer = answer
			resp.Suggestions = s.suggestionsFor(cls.Domain)
		} else {
			s.generate(ctx, analysis, resp)
		}
		meta, err = conversation.ClassifiedTurn(cls)
	}
	if err != nil {
		return nil, err
	}

	turn, err := session.AddConversationTurn(req.Query, resp.Answer, meta)
	if err != nil {
		return nil, err
	}
	resp.TurnID = turn.ID
	s.afterTurn(ctx, session, turn, resp)

	resp.ProcessingTime = time.Since(start)
	s.metrics.RecordQuery(string(resp.Route))
	s.logger.Info("query routed",
		logging.String("session_id", session.ID()),
		logging.String("route", string(resp.Route)),
		logging.String("domain", string(cls.Domain)),
		logging.String("intent", string(cls.Intent)),
		logging.Float64("confidence", resp.Confidence),
		logging.Duration("elapsed", resp.ProcessingTime))
	return resp, nil
}

func (s *serviceImpl) validate(query string) error {
	if utf8.RuneCountInString(query) > MaxQueryLength {
		return errors.Newf(errors.ErrCodeQueryTooLong, "query exceeds %d characters", MaxQueryLength)
	}
	if checkPromptInjection(query) {
		s.metrics.RecordPromptInjection()
		s.logger.Warn("prompt injection rejected", logging.Int("length", len(query)))
		return errors.New(errors.ErrCodePromptInjection, "query contains disallowed instructions, please rephrase")
	}
	return nil
}

// session returns the request session, restoring it from the snapshot store
// when it is not live, or starts a new one.
func (s *serviceImpl) session(ctx context.Context, req *EnhancedRequest) (*conversation.Session, error) {
	if req.SessionID == "" {
		return s.sessions.InitializeSession(conversation.SessionOptions{CompanyID: req.CompanyID, UserID: req.UserID}), nil
	}
	return s.sessions.Resume(ctx, req.SessionID)
}

// needsClarification asks the engine and fills resp when a request was
// created.
func (s *serviceImpl) needsClarification(session *conversation.Session, analysis *AdvancedContext, resp *EnhancedResponse) bool {
	assessment := s.clarifier.AssessClarificationNeed(analysis.Query, clarificationContext(session, analysis))
	if !assessment.NeedsClarification || assessment.Request == nil {
		return false
	}
	req := assessment.Request
	resp.Route = RouteClarification
	resp.Clarification = req
	resp.Answer = clarificationAnswer(req)
	resp.Confidence = req.ConfidenceScore
	s.metrics.RecordClarification(string(req.AmbiguityType), s.clarifier.PendingCount())
	s.logger.Info("clarification requested",
		logging.String("request_id", req.ID),
		logging.String("ambiguity_type", string(req.AmbiguityType)),
		logging.Float64("score", assessment.Score))
	return true
}

func clarificationContext(session *conversation.Session, analysis *AdvancedContext) *clarification.Context {
	c := &clarification.Context{SessionID: session.ID()}
	for _, e := range session.ActiveEntities() {
		c.Entities = append(c.Entities, e.Text)
	}
	if turns := analysis.RelevantContext.RecentTurns; len(turns) > 0 {
		c.Domain = string(turns[0].Context.Domain)
	}
	return c
}

// tryNumerical short-circuits confident statistical queries to the numerical
// handler. It reports false when the query is not confident enough or no
// numerical pattern matches.
func (s *serviceImpl) tryNumerical(ctx context.Context, analysis *AdvancedContext, resp *EnhancedResponse) (bool, error) {
	stat := analysis.Statistical
	if s.numerical == nil || !stat.IsStatistical || stat.Confidence <= s.cfg.StatisticalThreshold {
		return false, nil
	}
	text := analysis.Query.Normalized
	if !s.numerical.IsNumericalQuery(text) {
		return false, nil
	}
	q := s.numerical.ParseNumericalQuery(text)
	if q == nil {
		s.logger.Debug("statistical query without numerical pattern", logging.String("query", text))
		return false, nil
	}

	start := time.Now()
	result, err := s.numerical.Execute(ctx, *q)
	s.metrics.RecordNumericalQuery(string(q.EntityType), string(q.Operation), time.Since(start))
	if err != nil {
		s.logger.Error("numerical query failed",
			logging.String("entity_type", string(q.EntityType)),
			logging.String("operation", string(q.Operation)),
			logging.Err(err))
		return false, err
	}
	resp.Route = RouteNumerical
	resp.Numerical = result
	resp.Answer = result.Description
	resp.Confidence = stat.Confidence
	return true, nil
}

// generate forwards the enriched prompt to the generative backend. Any
// failure becomes the fallback answer.
func (s *serviceImpl) generate(ctx context.Context, analysis *AdvancedContext, resp *EnhancedResponse) {
	domain := analysis.Classification.Domain
	resp.Suggestions = s.suggestionsFor(domain)

	callCtx, cancel := context.WithTimeout(ctx, s.cfg.GenerativeTimeout)
	defer cancel()

	start := time.Now()
	text, err := s.llm.Complete(callCtx, buildMessages(analysis), s.cfg.Model, s.cfg.Temperature)
	s.metrics.RecordGenerativeCall(s.llm.Name(), err == nil, time.Since(start))
	if err != nil {
		s.logger.Warn("generative backend failed, using fallback",
			logging.String("provider", s.llm.Name()),
			logging.Err(err))
		resp.Route = RouteFallback
		resp.Answer = fallbackAnswer(resp.Suggestions)
		return
	}
	resp.Route = RouteGenerative
	resp.Answer = s.annotate(text, analysis.Classification)
}

// afterTurn persists the session and publishes the turn event. Both are
// best effort.
func (s *serviceImpl) afterTurn(ctx context.Context, session *conversation.Session, turn conversation.Turn, resp *EnhancedResponse) {
	sideCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.PersistTimeout)
	defer cancel()

	if err := s.sessions.Persist(sideCtx, session); err != nil {
		s.metrics.RecordPersistenceFailure("session")
		s.logger.Warn("session persist failed", logging.String("session_id", session.ID()), logging.Err(err))
	}
	s.metrics.SetActiveSessions(s.sessions.ActiveCount())

	if s.publisher == nil {
		return
	}
	event := TurnEvent{
		EventID:     uuid.NewString(),
		SessionID:   session.ID(),
		TurnID:      turn.ID,
		Route:       resp.Route,
		Domain:      turn.Context.Domain,
		Intent:      turn.Context.Intent,
		Confidence:  resp.Confidence,
		EntityCount: len(turn.Context.Entities),
		OccurredAt:  s.now().UTC(),
	}
	if err := s.publisher.PublishTurn(sideCtx, event); err != nil {
		s.metrics.RecordPersistenceFailure("events")
		s.logger.Warn("turn event publish failed", logging.String("turn_id", turn.ID), logging.Err(err))
	}
}

// ----------------------------------------------------------------------------
// ResolveClarification
// ----------------------------------------------------------------------------

// ResolveClarification applies the answers to a pending request and runs the
// refined query without asking again. Only the session that raised the
// request may resolve it.
func (s *serviceImpl) ResolveClarification(ctx context.Context, sessionID string, resp clarification.Response) (*ClarificationResult, error) {
	resp.SessionID = sessionID
	ref, err := s.clarifier.ProcessClarificationResponse(resp)
	if err != nil {
		return nil, err
	}
	s.metrics.RecordClarification("", s.clarifier.PendingCount())

	query := ref.RefinedQuery
	if len(ref.Categories) > 0 {
		query = strings.TrimSpace(query + " " + strings.Join(ref.Categories, " "))
	}
	answer, err := s.process(ctx, &EnhancedRequest{Query: query, SessionID: sessionID}, false)
	if err != nil {
		return nil, err
	}
	if answer.Confidence < ref.ConfidenceAfter {
		answer.Confidence = ref.ConfidenceAfter
	}
	return &ClarificationResult{Refinement: ref, Response: answer}, nil
}

// annotate appends the related concepts of the detected concepts.
func (s *serviceImpl) annotate(text string, cls *classifier.QueryClassification) string {
	text = strings.TrimSpace(text)
	if len(cls.Concepts) == 0 {
		return text
	}
	seen := make(map[string]bool, len(cls.Concepts))
	for _, c := range cls.Concepts {
		seen[c] = true
	}
	var related []string
	for _, c := range cls.Concepts {
		for _, r := range s.dict.RelatedConcepts(c, 2) {
			if !seen[r.Primary] {
				seen[r.Primary] = true
				related = append(related, r.Primary)
			}
		}
	}
	var b strings.Builder
	b.WriteString(text)
	b.WriteString("\n\n")
	b.WriteString(conceptsLabel)
	b.WriteString(strings.Join(cls.Concepts, "، "))
	if len(related) > 0 {
		b.WriteString("\n")
		b.WriteString(relatedLabel)
		b.WriteString(strings.Join(related, "، "))
	}
	return b.String()
}

var _ NumericalHandler = (*numerical.Handler)(nil)
var _ Clarifier = (*clarification.Engine)(nil)

// normalize is the first pipeline stage.
func normalize(query string) textnorm.NormalizedQuery {
	return textnorm.NewQuery(query)
}

//Personal.AI order the ending
