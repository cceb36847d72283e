package query

import (
	"context"
	"time"

	"github.com/turtacn/Musaid-NLQ/internal/config"
	"github.com/turtacn/Musaid-NLQ/internal/intelligence/clarification"
	"github.com/turtacn/Musaid-NLQ/internal/intelligence/textnorm"
)

// Explain step names.
const (
	StepNormalize   = "normalize"
	StepClassify    = "classify"
	StepStatistical = "statistical"
	StepAmbiguity   = "ambiguity"
	StepNumerical   = "numerical_parse"
	StepRoute       = "route"
)

type ambiguityOutput struct {
	Score     float64                `json:"score"`
	Threshold float64                `json:"threshold"`
	Sources   []clarification.Source `json:"sources"`
}

// ExplainQuery runs the decision stages of the pipeline and reports each one
// with its timing. It records no turn and creates no clarification request.
func (s *serviceImpl) ExplainQuery(ctx context.Context, req *ExplainRequest) (*ExplainResponse, error) {
	if err := s.validate(req.Question); err != nil {
		return nil, err
	}
	out := &ExplainResponse{}
	step := func(name string, input interface{}, fn func() interface{}) {
		start := time.Now()
		output := fn()
		out.Steps = append(out.Steps, ExplainStep{StepName: name, Input: input, Output: output, Duration: time.Since(start)})
	}

	var nq textnorm.NormalizedQuery
	step(StepNormalize, req.Question, func() interface{} {
		nq = normalize(req.Question)
		return nq.Normalized
	})

	var analysis *AdvancedContext
	if req.SessionID != "" {
		session, err := s.sessions.Resume(ctx, req.SessionID)
		if err != nil {
			return nil, err
		}
		analysis = s.analyze(session, req.Question)
	}

	cls := s.classifier.Classify(nq)
	stat := s.classifier.ClassifyStatistical(nq)
	if analysis != nil {
		cls, stat = analysis.Classification, analysis.Statistical
	}
	step(StepClassify, nq.Normalized, func() interface{} { return cls })
	step(StepStatistical, nq.Normalized, func() interface{} { return stat })

	var amb ambiguityOutput
	step(StepAmbiguity, nq.Normalized, func() interface{} {
		var c *clarification.Context
		if analysis != nil && len(analysis.RelevantContext.RecentTurns) > 0 {
			c = &clarification.Context{Domain: string(analysis.RelevantContext.RecentTurns[0].Context.Domain)}
		}
		amb.Score, amb.Sources = s.clarifier.Score(nq, c)
		amb.Threshold = s.clarifier.Threshold()
		return amb
	})

	numericalOK := false
	step(StepNumerical, nq.Normalized, func() interface{} {
		if s.numerical == nil || !s.numerical.IsNumericalQuery(nq.Normalized) {
			return nil
		}
		q := s.numerical.ParseNumericalQuery(nq.Normalized)
		numericalOK = q != nil
		return q
	})

	step(StepRoute, nil, func() interface{} {
		switch {
		case nq.IsEmpty():
			out.Route = RouteLocal
		case amb.Score > amb.Threshold:
			out.Route = RouteClarification
		case numericalOK && stat.IsStatistical && stat.Confidence > s.cfg.StatisticalThreshold:
			out.Route = RouteNumerical
		default:
			if _, ok := localAnswer(nq.Normalized); ok {
				out.Route = RouteLocal
			} else if s.llm.Name() == config.ProviderNone {
				out.Route = RouteFallback
			} else {
				out.Route = RouteGenerative
			}
		}
		return out.Route
	})

	out.Confidence = cls.ConfidenceScore
	if out.Route == RouteNumerical {
		out.Confidence = stat.Confidence
	}
	return out, nil
}

//Personal.AI order the ending
