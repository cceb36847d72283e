package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/turtacn/Musaid-NLQ/internal/application/conversation"
	"github.com/turtacn/Musaid-NLQ/internal/application/query"
	"github.com/turtacn/Musaid-NLQ/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/Musaid-NLQ/internal/intelligence/clarification"
	"github.com/turtacn/Musaid-NLQ/internal/intelligence/classifier"
	"github.com/turtacn/Musaid-NLQ/internal/intelligence/textnorm"
	"github.com/turtacn/Musaid-NLQ/internal/interfaces/http/middleware"
	"github.com/turtacn/Musaid-NLQ/pkg/errors"
)

// QueryHandler exposes the query pipeline and the conversation sessions.
type QueryHandler struct {
	svc        query.Service
	sessions   *conversation.Manager
	classifier classifier.Classifier
	logger     logging.Logger
}

// NewQueryHandler creates a QueryHandler.
func NewQueryHandler(svc query.Service, sessions *conversation.Manager, cls classifier.Classifier, logger logging.Logger) *QueryHandler {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &QueryHandler{svc: svc, sessions: sessions, classifier: cls, logger: logger.Named("query_handler")}
}

// ----------------------------------------------------------------------------
// Request / response bodies
// ----------------------------------------------------------------------------

type AnalyzeRequest struct {
	SessionID string `json:"session_id"`
	Query     string `json:"query"`
}

type ClassifyRequest struct {
	Query string `json:"query"`
}

type ClassifyResponse struct {
	Query          textnorm.NormalizedQuery              `json:"query"`
	Classification *classifier.QueryClassification       `json:"classification"`
	Statistical    *classifier.StatisticalClassification `json:"statistical"`
}

type ResolveClarificationRequest struct {
	SessionID string                 `json:"session_id"`
	Answers   []clarification.Answer `json:"answers"`
}

type CreateSessionRequest struct {
	Name      string `json:"name,omitempty"`
	CompanyID string `json:"company_id,omitempty"`
	UserID    string `json:"user_id,omitempty"`
}

type SessionContextResponse struct {
	SessionID string                       `json:"session_id"`
	Status    conversation.SessionStatus   `json:"status"`
	Summary   conversation.ContextSummary  `json:"summary"`
	Context   conversation.RelevantContext `json:"context"`
}

// ----------------------------------------------------------------------------
// Handlers
// ----------------------------------------------------------------------------

// Process handles POST /api/v1/query.
func (h *QueryHandler) Process(w http.ResponseWriter, r *http.Request) {
	var req query.EnhancedRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeAppError(w, h.logger, err)
		return
	}
	fillCaller(r, &req.CompanyID, &req.UserID)

	resp, err := h.svc.ProcessEnhancedQuery(r.Context(), &req)
	if err != nil {
		writeAppError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// Analyze handles POST /api/v1/query/analyze.
func (h *QueryHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	var req AnalyzeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeAppError(w, h.logger, err)
		return
	}
	if strings.TrimSpace(req.SessionID) == "" {
		writeAppError(w, h.logger, errors.New(errors.ErrCodeInvalidParam, "session_id is required"))
		return
	}

	resp, err := h.svc.AnalyzeWithConversationContext(r.Context(), req.SessionID, req.Query)
	if err != nil {
		writeAppError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// Explain handles POST /api/v1/query/explain.
func (h *QueryHandler) Explain(w http.ResponseWriter, r *http.Request) {
	var req query.ExplainRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeAppError(w, h.logger, err)
		return
	}
	resp, err := h.svc.ExplainQuery(r.Context(), &req)
	if err != nil {
		writeAppError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// Classify handles POST /api/v1/classify. It runs the classifiers only:
// no session is touched and nothing is executed.
func (h *QueryHandler) Classify(w http.ResponseWriter, r *http.Request) {
	var req ClassifyRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeAppError(w, h.logger, err)
		return
	}
	nq := textnorm.NewQuery(req.Query)
	writeJSON(w, http.StatusOK, ClassifyResponse{
		Query:          nq,
		Classification: h.classifier.Classify(nq),
		Statistical:    h.classifier.ClassifyStatistical(nq),
	})
}

// Suggestions handles GET /api/v1/query/suggestions?role=&domain=&count=.
func (h *QueryHandler) Suggestions(w http.ResponseWriter, r *http.Request) {
	count, err := queryInt(r, "count", 0)
	if err != nil {
		writeAppError(w, h.logger, err)
		return
	}
	resp, err := h.svc.SuggestQuestions(r.Context(), &query.SuggestRequest{
		Role:   r.URL.Query().Get("role"),
		Domain: classifier.Domain(r.URL.Query().Get("domain")),
		Count:  count,
	})
	if err != nil {
		writeAppError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// ResolveClarification handles POST /api/v1/clarifications/{id}/resolve.
func (h *QueryHandler) ResolveClarification(w http.ResponseWriter, r *http.Request) {
	var req ResolveClarificationRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeAppError(w, h.logger, err)
		return
	}
	resp, err := h.svc.ResolveClarification(r.Context(), req.SessionID, clarification.Response{
		RequestID: chi.URLParam(r, "id"),
		Answers:   req.Answers,
	})
	if err != nil {
		writeAppError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// CreateSession handles POST /api/v1/sessions. An empty body is allowed.
func (h *QueryHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	var req CreateSessionRequest
	if r.ContentLength != 0 {
		if err := decodeJSON(w, r, &req); err != nil {
			writeAppError(w, h.logger, err)
			return
		}
	}
	fillCaller(r, &req.CompanyID, &req.UserID)

	s := h.sessions.InitializeSession(conversation.SessionOptions{
		Name:      req.Name,
		CompanyID: req.CompanyID,
		UserID:    req.UserID,
	})
	if err := h.sessions.Persist(r.Context(), s); err != nil {
		h.logger.Warn("session snapshot not stored", logging.String("session_id", s.ID()), logging.Err(err))
	}
	writeJSON(w, http.StatusCreated, s.Summary())
}

// SessionContext handles GET /api/v1/sessions/{id}/context?query=&turns=.
func (h *QueryHandler) SessionContext(w http.ResponseWriter, r *http.Request) {
	settings := h.sessions.Settings()
	turns, err := queryInt(r, "turns", settings.RelevantTurns)
	if err != nil {
		writeAppError(w, h.logger, err)
		return
	}

	s, err := h.sessions.Resume(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeAppError(w, h.logger, err)
		return
	}
	q := textnorm.NewQuery(r.URL.Query().Get("query"))
	writeJSON(w, http.StatusOK, SessionContextResponse{
		SessionID: s.ID(),
		Status:    s.Status(),
		Summary:   s.ContextSummary(),
		Context:   s.GetRelevantContext(q.Normalized, turns, settings.RelevantReferences),
	})
}

// EndSession handles DELETE /api/v1/sessions/{id}.
func (h *QueryHandler) EndSession(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.End(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeAppError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// fillCaller defaults body identifiers to the caller headers.
func fillCaller(r *http.Request, companyID, userID *string) {
	c, ok := middleware.CallerFromContext(r.Context())
	if !ok {
		return
	}
	if *companyID == "" {
		*companyID = c.CompanyID
	}
	if *userID == "" {
		*userID = c.UserID
	}
}

//Personal.AI order the ending
