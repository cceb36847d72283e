package clarification

import (
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/turtacn/Musaid-NLQ/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/Musaid-NLQ/internal/intelligence/classifier"
	"github.com/turtacn/Musaid-NLQ/internal/intelligence/textnorm"
	"github.com/turtacn/Musaid-NLQ/pkg/errors"
)

// DefaultThreshold is the ambiguity score above which clarification is needed.
const DefaultThreshold = 0.2

// DefaultPendingTTL is how long an unanswered request stays resolvable.
const DefaultPendingTTL = 30 * time.Minute

const answerConfidenceGain = 0.2

// Engine assesses ambiguity and tracks pending clarification requests. It is
// safe for concurrent use.
type Engine struct {
	threshold  float64
	pendingTTL time.Duration
	logger     logging.Logger
	extractor *classifier.EntityExtractor
	intent    classifier.IntentClassifier
	now       func() time.Time
	newID     func() string

	mu      sync.Mutex
	pending map[string]*Request
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithClock overrides time.Now.
func WithClock(now func() time.Time) EngineOption {
	return func(e *Engine) { e.now = now }
}

// WithPendingTTL sets how long a request may wait for its answers. A
// non-positive ttl keeps DefaultPendingTTL.
func WithPendingTTL(ttl time.Duration) EngineOption {
	return func(e *Engine) {
		if ttl > 0 {
			e.pendingTTL = ttl
		}
	}
}

// WithIDGenerator overrides the request id generator.
func WithIDGenerator(gen func() string) EngineOption {
	return func(e *Engine) { e.newID = gen }
}

// NewEngine returns an Engine. A non-positive threshold selects
// DefaultThreshold.
func NewEngine(threshold float64, logger logging.Logger, opts ...EngineOption) *Engine {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	e := &Engine{
		threshold:  threshold,
		pendingTTL: DefaultPendingTTL,
		logger:     logger.Named("clarification"),
		extractor:  classifier.NewEntityExtractor(),
		now:        time.Now,
		newID:      uuid.NewString,
		pending:    make(map[string]*Request),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// SetThreshold replaces the clarification threshold.
func (e *Engine) SetThreshold(threshold float64) {
	if threshold <= 0 {
		return
	}
	e.mu.Lock()
	e.threshold = threshold
	e.mu.Unlock()
}

// Threshold returns the current clarification threshold.
func (e *Engine) Threshold() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.threshold
}

// Score returns the clamped ambiguity score and its sources without creating
// a request.
func (e *Engine) Score(q textnorm.NormalizedQuery, c *Context) (float64, []Source) {
	dets := e.detect(q.Normalized, c)
	return scoreOf(dets), sourcesOf(dets)
}

// AssessClarificationNeed scores q and, when the score exceeds the threshold,
// stores and returns a pending Request.
func (e *Engine) AssessClarificationNeed(q textnorm.NormalizedQuery, c *Context) *Assessment {
	dets := e.detect(q.Normalized, c)
	a := &Assessment{Score: scoreOf(dets), Sources: sourcesOf(dets)}

	e.mu.Lock()
	threshold := e.threshold
	e.mu.Unlock()

	a.NeedsClarification = a.Score > threshold
	e.logger.Debug("ambiguity assessed",
		logging.String("query", q.Normalized),
		logging.Float64("score", a.Score),
		logging.Int("sources", len(a.Sources)),
		logging.Bool("needs_clarification", a.NeedsClarification))
	if !a.NeedsClarification {
		return a
	}

	req := e.buildRequest(q, dets, c)
	e.mu.Lock()
	e.sweepLocked()
	e.pending[req.ID] = req
	e.mu.Unlock()
	a.Request = req
	return a
}

func (e *Engine) buildRequest(q textnorm.NormalizedQuery, dets []detection, c *Context) *Request {
	req := &Request{
		ID:              e.newID(),
		OriginalQuery:   q.Original,
		ConfidenceScore: 1 - scoreOf(dets),
		CreatedAt:       e.now(),
	}
	if c != nil {
		req.SessionID = c.SessionID
	}
	best := -1.0
	seen := make(map[string]bool)
	for _, d := range dets {
		if d.source.Contribution > best {
			best = d.source.Contribution
			req.AmbiguityType = d.source.Type
		}
		if !seen[d.question.Key] {
			seen[d.question.Key] = true
			req.Questions = append(req.Questions, d.question)
		}
		req.SuggestedInterpretations = append(req.SuggestedInterpretations, d.interpretations...)
		if d.hint != "" {
			req.ContextHints = append(req.ContextHints, d.hint)
		}
	}
	if c != nil && c.Domain != "" {
		req.ContextHints = append(req.ContextHints, "آخر مجال في المحادثة: "+c.Domain)
	}
	return req
}

// Pending returns a copy of the pending request with id.
func (e *Engine) Pending(id string) (Request, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.sweepLocked()
	req, ok := e.pending[id]
	if !ok {
		return Request{}, false
	}
	return *req, true
}

// PendingCount is the number of unresolved, unexpired requests.
func (e *Engine) PendingCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.sweepLocked()
	return len(e.pending)
}

// sweepLocked drops requests older than the pending TTL. e.mu must be held.
func (e *Engine) sweepLocked() {
	now := e.now()
	expired := 0
	for id, req := range e.pending {
		if now.Sub(req.CreatedAt) > e.pendingTTL {
			delete(e.pending, id)
			expired++
		}
	}
	if expired > 0 {
		e.logger.Debug("expired clarification requests dropped",
			logging.Int("expired", expired),
			logging.Int("pending", len(e.pending)))
	}
}

// ProcessClarificationResponse applies resp to its pending request and
// removes it. Answers whose key is not a question of the request, or whose
// value is not one of the offered choices, are skipped and reported in
// IgnoredKeys. An unknown, expired or already resolved id fails with
// ErrCodeClarificationNotFound, as does a request raised in another session;
// the latter stays pending for its own session.
func (e *Engine) ProcessClarificationResponse(resp Response) (*Refinement, error) {
	e.mu.Lock()
	e.sweepLocked()
	req, ok := e.pending[resp.RequestID]
	owned := ok && (req.SessionID == "" || req.SessionID == resp.SessionID)
	if owned {
		delete(e.pending, resp.RequestID)
	}
	e.mu.Unlock()
	if ok && !owned {
		e.logger.Warn("clarification answered from another session",
			logging.String("request_id", resp.RequestID),
			logging.String("session_id", resp.SessionID))
	}
	if !owned {
		return nil, errors.New(errors.ErrCodeClarificationNotFound, "request not found").
			WithDetail("id=" + resp.RequestID)
	}

	ref := &Refinement{
		RequestID:        req.ID,
		OriginalQuery:    req.OriginalQuery,
		RefinedQuery:     textnorm.Normalize(req.OriginalQuery),
		ConfidenceBefore: req.ConfidenceScore,
		Type:             RefinementDisambiguation,
	}
	for _, ans := range resp.Answers {
		q, found := req.question(ans.Key)
		if !found || !e.apply(ref, q, ans) {
			ref.IgnoredKeys = append(ref.IgnoredKeys, ans.Key)
			e.logger.Warn("clarification answer ignored",
				logging.String("request_id", req.ID),
				logging.String("key", ans.Key),
				logging.Bool("known_key", found))
			continue
		}
		ref.AppliedKeys = append(ref.AppliedKeys, ans.Key)
	}
	ref.ConfidenceAfter = ref.ConfidenceBefore + answerConfidenceGain*float64(len(ref.AppliedKeys))
	if ref.ConfidenceAfter > 1 {
		ref.ConfidenceAfter = 1
	}
	e.logger.Info("clarification resolved",
		logging.String("request_id", req.ID),
		logging.String("refinement_type", string(ref.Type)),
		logging.Int("applied", len(ref.AppliedKeys)))
	return ref, nil
}

// apply mutates ref for one answer and reports whether it was applied.
func (e *Engine) apply(ref *Refinement, q Question, ans Answer) bool {
	switch q.Type {
	case QuestionSingleChoice:
		choice, ok := q.choice(ans.Value)
		if !ok {
			return false
		}
		ref.RefinedQuery = strings.TrimSpace(ref.RefinedQuery + " " + choice.Label)
		ref.Scope = append(ref.Scope, choice.Value)
		if q.Key == KeyIntent {
			ref.Type = RefinementIntentClarification
		} else {
			ref.Type = RefinementScopeNarrowing
		}
	case QuestionMultipleChoice:
		var labels []string
		for _, v := range ans.Values {
			if choice, ok := q.choice(v); ok {
				ref.Categories = append(ref.Categories, choice.Value)
				labels = append(labels, choice.Label)
			}
		}
		if len(labels) == 0 {
			return false
		}
		ref.RefinedQuery = ref.RefinedQuery + " (" + strings.Join(labels, "، ") + ")"
		ref.Type = RefinementContextAddition
	case QuestionTextInput:
		value := textnorm.Normalize(ans.Value)
		if value == "" {
			return false
		}
		ref.RefinedQuery = substitute(ref.RefinedQuery, q.Placeholder, value)
		ref.Type = RefinementContextAddition
	case QuestionConfirmation:
		if ref.Flags == nil {
			ref.Flags = make(map[string]bool)
		}
		ref.Flags[q.Key] = ans.Confirmed
		ref.Type = RefinementIntentClarification
	default:
		return false
	}
	return true
}

// substitute replaces the placeholder token in query with value, or appends
// value when the placeholder does not occur.
func substitute(query, placeholder, value string) string {
	tokens := strings.Fields(query)
	replaced := false
	for i, t := range tokens {
		if placeholder != "" && t == placeholder {
			tokens[i] = value
			replaced = true
		}
	}
	if !replaced {
		tokens = append(tokens, value)
	}
	return strings.Join(tokens, " ")
}

func scoreOf(dets []detection) float64 {
	total := 0.0
	for _, d := range dets {
		total += d.source.Contribution
	}
	if total > 1 {
		return 1
	}
	return total
}

func sourcesOf(dets []detection) []Source {
	out := make([]Source, 0, len(dets))
	for _, d := range dets {
		out = append(out, d.source)
	}
	return out
}

//Personal.AI order the ending
