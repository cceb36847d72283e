package query

import (
	"context"
	"fmt"

	"github.com/turtacn/Musaid-NLQ/internal/application/conversation"
	"github.com/turtacn/Musaid-NLQ/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/Musaid-NLQ/internal/intelligence/classifier"
	"github.com/turtacn/Musaid-NLQ/internal/intelligence/textnorm"
)

// ambiguousPronouns are the references that cannot be resolved without a
// referent.
var ambiguousPronouns = toSet(textnorm.NormalizeAll(
	"هو", "هي", "هم", "هما", "هن", "هذا", "هذه", "ذلك", "تلك", "هؤلاء", "أولئك",
	"نفسه", "له", "لها", "لهم",
))

func toSet(words []string) map[string]bool {
	out := make(map[string]bool, len(words))
	for _, w := range words {
		out[w] = true
	}
	return out
}

// AnalyzeWithConversationContext runs the analysis stages against the
// session without recording a turn.
func (s *serviceImpl) AnalyzeWithConversationContext(ctx context.Context, sessionID, query string) (*AdvancedContext, error) {
	if err := s.validate(query); err != nil {
		return nil, err
	}
	session, err := s.sessions.Resume(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return s.analyze(session, query), nil
}

// analyze runs, in order: normalize, classify, relevant context, entity
// resolution, temporal coherence, intent evolution, insights. Each stage
// consumes the output of the previous ones.
func (s *serviceImpl) analyze(session *conversation.Session, query string) *AdvancedContext {
	nq := normalize(query)
	cls := s.classifier.Classify(nq)
	stat := s.classifier.ClassifyStatistical(nq)
	s.logger.Debug("query classified",
		logging.String("domain", string(cls.Domain)),
		logging.String("intent", string(cls.Intent)),
		logging.Float64("confidence", cls.ConfidenceScore),
		logging.Bool("statistical", stat.IsStatistical),
		logging.Float64("statistical_confidence", stat.Confidence))

	settings := s.sessions.Settings()
	relevant := session.GetRelevantContext(nq.Normalized, settings.RelevantTurns, settings.RelevantReferences)

	out := &AdvancedContext{
		SessionID:       session.ID(),
		Query:           nq,
		Classification:  cls,
		Statistical:     stat,
		RelevantContext: relevant,
	}
	out.EntityResolution = resolveEntities(session, cls.Entities)
	out.Temporal = analyzeTemporalCoherence(cls.Temporal, relevant.RecentTurns)
	out.IntentEvolution = analyzeIntentEvolution(relevant.RecentTurns, cls.Intent)

	shifts, domains := session.DomainShifts()
	if !nq.IsEmpty() {
		if n := len(domains); n > 0 && domains[n-1] != cls.Domain {
			shifts++
		}
		domains = append(domains, cls.Domain)
	}
	out.DomainSequence = domains
	out.ContextShifts = shifts
	out.Insights = generateInsights(out)
	return out
}

// resolveEntities classifies each current entity as resolved (known to the
// session's entity memory), an ambiguous pronoun, or new.
func resolveEntities(session *conversation.Session, entities []classifier.Entity) EntityResolution {
	out := EntityResolution{
		Resolved:  []ResolvedEntity{},
		Ambiguous: []AmbiguousReference{},
		New:       []classifier.Entity{},
	}
	var candidates []string
	for i, e := range session.ActiveEntities() {
		if i == maxPronounCandidate {
			break
		}
		candidates = append(candidates, e.Text)
	}

	for _, e := range entities {
		if e.Type == classifier.EntityReference && ambiguousPronouns[e.Text] {
			out.Ambiguous = append(out.Ambiguous, AmbiguousReference{Entity: e, Candidates: candidates})
			continue
		}
		if mem, ok := session.LookupEntity(e.Text); ok {
			out.Resolved = append(out.Resolved, ResolvedEntity{Entity: e, Memory: mem})
			continue
		}
		out.New = append(out.New, e)
	}
	return out
}

// analyzeTemporalCoherence only checks the today/yesterday pair: one conflict
// when the query itself mentions both, and one per recent turn that mentions
// the opposite day.
func analyzeTemporalCoherence(current classifier.Temporal, turns []conversation.Turn) TemporalCoherence {
	out := TemporalCoherence{TimelineCoherence: initialCoherence, Timeframe: current.Timeframe}
	today := current.Has(classifier.TimeframeToday)
	yesterday := current.Has(classifier.TimeframeYesterday)
	if today && yesterday {
		out.Conflicts++
	}

	seen := map[string]bool{}
	for _, t := range turns {
		var turnToday, turnYesterday bool
		for _, tf := range t.Context.Timeframes {
			if !seen[tf] {
				seen[tf] = true
				out.HistoryTimeframes = append(out.HistoryTimeframes, tf)
			}
			turnToday = turnToday || tf == classifier.TimeframeToday
			turnYesterday = turnYesterday || tf == classifier.TimeframeYesterday
		}
		if (today && turnYesterday) || (yesterday && turnToday) {
			out.Conflicts++
		}
	}

	out.TimelineCoherence -= coherencePenalty * float64(out.Conflicts)
	if out.TimelineCoherence < minCoherence {
		out.TimelineCoherence = minCoherence
	}
	return out
}

// analyzeIntentEvolution takes the mode of the recent intents (newest first)
// as primary intent. Ties go to the intent seen most recently. Without
// history the current intent is primary with full confidence.
func analyzeIntentEvolution(turns []conversation.Turn, current classifier.Intent) IntentEvolution {
	if len(turns) == 0 {
		return IntentEvolution{PrimaryIntent: current, IntentConfidence: 1}
	}
	counts := make(map[classifier.Intent]int)
	history := make([]classifier.Intent, 0, len(turns))
	for _, t := range turns {
		counts[t.Context.Intent]++
		history = append(history, t.Context.Intent)
	}
	primary, best := history[0], 0
	for _, intent := range history {
		if counts[intent] > best {
			primary, best = intent, counts[intent]
		}
	}
	return IntentEvolution{
		PrimaryIntent:    primary,
		IntentConfidence: float64(best) / float64(len(turns)),
		History:          history,
	}
}

// generateInsights applies the fixed insight rules in order.
func generateInsights(a *AdvancedContext) []Insight {
	out := []Insight{}
	if n := len(a.EntityResolution.Ambiguous); n > 0 {
		out = append(out, Insight{
			Type:       InsightEntityAmbiguity,
			Message:    fmt.Sprintf("%d ضمير غير محدد المرجع في السؤال", n),
			Confidence: 0.8,
		})
	}
	if a.ContextShifts > maxShiftsBeforeNote {
		out = append(out, Insight{
			Type:       InsightContextShift,
			Message:    fmt.Sprintf("تغير موضوع المحادثة %d مرات", a.ContextShifts),
			Confidence: 0.7,
		})
	}
	if a.Temporal.TimelineCoherence < lowCoherence {
		out = append(out, Insight{
			Type:       InsightTemporalConfusion,
			Message:    "المراجع الزمنية في المحادثة متعارضة",
			Confidence: 1 - a.Temporal.TimelineCoherence,
		})
	}
	if a.IntentEvolution.IntentConfidence < lowIntentConfidence {
		out = append(out, Insight{
			Type:       InsightIntentEvolution,
			Message:    "هدف المستخدم يتغير عبر المحادثة",
			Confidence: 1 - a.IntentEvolution.IntentConfidence,
		})
	}
	if a.Classification.ConfidenceScore < lowClassification {
		out = append(out, Insight{
			Type:       InsightClarificationNeeded,
			Message:    "ثقة التصنيف منخفضة وقد يلزم توضيح السؤال",
			Confidence: 1 - a.Classification.ConfidenceScore,
		})
	}
	return out
}

//Personal.AI order the ending
