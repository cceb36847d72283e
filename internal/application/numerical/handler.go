package numerical

import (
	"context"
	"time"

	"golang.org/x/text/language"

	"github.com/turtacn/Musaid-NLQ/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/Musaid-NLQ/internal/intelligence/classifier"
	"github.com/turtacn/Musaid-NLQ/internal/intelligence/textnorm"
	"github.com/turtacn/Musaid-NLQ/pkg/errors"
)

const (
	DefaultListLimit = 10
	MaxListLimit     = 100
)

// Handler parses and executes numerical queries.
type Handler struct {
	store      DataStore
	strategies map[EntityType]Strategy
	describe   describer
	temporal   classifier.TemporalAnalyzer
	listLimit  int
	now        func() time.Time
	logger     logging.Logger
}

// HandlerOption configures a Handler.
type HandlerOption func(*Handler)

// WithStrategy registers or replaces the strategy for an entity type.
func WithStrategy(entity EntityType, s Strategy) HandlerOption {
	return func(h *Handler) { h.strategies[entity] = s }
}

// WithoutStrategy unregisters an entity type.
func WithoutStrategy(entity EntityType) HandlerOption {
	return func(h *Handler) { delete(h.strategies, entity) }
}

// WithCurrency sets the unit suffix of sums.
func WithCurrency(currency string) HandlerOption {
	return func(h *Handler) { h.describe.currency = currency }
}

// WithCurrencyDecimals sets the fraction digits of sums.
func WithCurrencyDecimals(n int) HandlerOption {
	return func(h *Handler) {
		if n >= 0 {
			h.describe.decimals = n
		}
	}
}

// WithLocale sets the number formatting locale.
func WithLocale(tag language.Tag) HandlerOption {
	return func(h *Handler) { h.describe = newDescriber(tag, h.describe.currency, h.describe.decimals) }
}

// WithListLimit bounds list results.
func WithListLimit(n int) HandlerOption {
	return func(h *Handler) {
		if n > 0 {
			h.listLimit = n
		}
	}
}

// WithClock overrides the clock used for period filters.
func WithClock(now func() time.Time) HandlerOption {
	return func(h *Handler) { h.now = now }
}

// NewHandler builds a handler over store with the default strategies.
func NewHandler(store DataStore, logger logging.Logger, opts ...HandlerOption) *Handler {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	h := &Handler{
		store:      store,
		strategies: DefaultStrategies(),
		describe:   newDescriber(language.English, DefaultCurrency, DefaultCurrencyDecimals),
		listLimit:  DefaultListLimit,
		now:        time.Now,
		logger:     logger.Named("numerical"),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// IsNumericalQuery reports whether text contains a count, total or list
// keyword.
func (h *Handler) IsNumericalQuery(text string) bool {
	return textnorm.ContainsToken(textnorm.Normalize(text), numericalKeywords...)
}

// ParseNumericalQuery returns the query built from the first matching
// pattern, or nil when none matches.
func (h *Handler) ParseNumericalQuery(text string) *Query {
	normalized := textnorm.Normalize(text)
	if normalized == "" {
		return nil
	}
	padded := textnorm.Padded(normalized)
	for _, p := range numericalPatterns {
		if !p.re.MatchString(padded) {
			continue
		}
		q := &Query{
			EntityType: p.entity,
			Operation:  p.operation,
			Filters:    make(map[string]interface{}, len(p.filters)),
			Pattern:    p.name,
		}
		for k, v := range p.filters {
			q.Filters[k] = v
		}
		if len(p.exclusions) > 0 {
			q.Exclusions = make(map[string]interface{}, len(p.exclusions))
			for k, v := range p.exclusions {
				q.Exclusions[k] = v
			}
		}
		if tf := h.temporal.Analyze(normalized).Timeframe; tf != classifier.TimeframeUnspecified {
			if _, ok := periodRange(tf, h.now()); ok {
				q.Timeframe = tf
			}
		}
		if p.operation == OpList {
			q.Limit = h.listLimit
		}
		h.logger.Debug("numerical query parsed",
			logging.String("pattern", p.name),
			logging.String("entity_type", string(q.EntityType)),
			logging.String("operation", string(q.Operation)),
			logging.String("timeframe", q.Timeframe))
		return q
	}
	return nil
}

// Execute runs q against the data store through the entity's strategy.
func (h *Handler) Execute(ctx context.Context, q Query) (*Result, error) {
	s, ok := h.strategies[q.EntityType]
	if !ok {
		return nil, errors.New(errors.ErrCodeUnsupportedEntity, "unsupported entity type").WithDetail("entity_type=" + string(q.EntityType))
	}
	if h.store == nil {
		return nil, errors.New(errors.ErrCodeDataStore, "no data store configured")
	}
	preds, err := h.predicates(s, q)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	res := &Result{Query: q}
	switch q.Operation {
	case OpCount:
		n, err := h.store.Count(ctx, s.Table, preds)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeDataStore, "count failed")
		}
		res.Value = float64(n)
		res.Description = h.describe.count(s, q, n)
	case OpSum:
		if s.AmountColumn == "" {
			return nil, errors.New(errors.ErrCodeUnsupportedOperation, "entity type has no amount column").WithDetail("entity_type=" + string(q.EntityType))
		}
		v, err := h.store.Sum(ctx, s.Table, s.AmountColumn, preds)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeDataStore, "sum failed")
		}
		res.Value = v
		res.Description = h.describe.sum(s, q, v)
	case OpList:
		limit := q.Limit
		if limit <= 0 {
			limit = h.listLimit
		}
		if limit > MaxListLimit {
			limit = MaxListLimit
		}
		rows, err := h.store.Query(ctx, s.Table, preds, limit)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeDataStore, "query failed")
		}
		res.Rows = project(rows, s.ListColumns)
		res.Value = float64(len(rows))
		res.Description = h.describe.count(s, q, int64(len(rows)))
	default:
		return nil, errors.New(errors.ErrCodeUnsupportedOperation, "unsupported operation").WithDetail("operation=" + string(q.Operation))
	}

	h.logger.Info("numerical query executed",
		logging.String("entity_type", string(q.EntityType)),
		logging.String("operation", string(q.Operation)),
		logging.Float64("value", res.Value),
		logging.Duration("took", time.Since(start)))
	return res, nil
}

func (h *Handler) predicates(s Strategy, q Query) ([]Predicate, error) {
	preds := make([]Predicate, 0, len(q.Filters)+len(q.Exclusions)+2)
	for _, col := range sortedKeys(q.Filters) {
		preds = append(preds, Predicate{Column: col, Operator: FilterEq, Value: q.Filters[col]})
	}
	for _, col := range sortedKeys(q.Exclusions) {
		preds = append(preds, Predicate{Column: col, Operator: FilterNe, Value: q.Exclusions[col]})
	}
	if q.Timeframe == "" {
		return preds, nil
	}
	r, ok := periodRange(q.Timeframe, h.now())
	if !ok {
		return nil, errors.New(errors.ErrCodeInvalidFilter, "unsupported timeframe").WithDetail("timeframe=" + q.Timeframe)
	}
	if s.DateColumn == "" {
		return nil, errors.New(errors.ErrCodeInvalidFilter, "entity type has no date column").WithDetail("entity_type=" + string(q.EntityType))
	}
	return append(preds,
		Predicate{Column: s.DateColumn, Operator: FilterGte, Value: r.From},
		Predicate{Column: s.DateColumn, Operator: FilterLt, Value: r.To},
	), nil
}

// project keeps only cols of each row; an empty cols keeps everything.
func project(rows []Row, cols []string) []Row {
	if len(cols) == 0 {
		return rows
	}
	out := make([]Row, len(rows))
	for i, r := range rows {
		p := make(Row, len(cols))
		for _, c := range cols {
			if v, ok := r[c]; ok {
				p[c] = v
			}
		}
		out[i] = p
	}
	return out
}

//Personal.AI order the ending
