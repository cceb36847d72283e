package conversation

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/turtacn/Musaid-NLQ/internal/intelligence/classifier"
	"github.com/turtacn/Musaid-NLQ/internal/intelligence/textnorm"
	"github.com/turtacn/Musaid-NLQ/pkg/errors"
)

// topicLabels are the Arabic surface forms used for topic references so that
// they can overlap query tokens.
var topicLabels = map[classifier.Domain]string{
	classifier.DomainLegal:      "قانوني",
	classifier.DomainFinancial:  "مالي",
	classifier.DomainFleet:      "اسطول",
	classifier.DomainOperations: "عمليات",
	classifier.DomainGeneral:    "عام",
}

// minOverlapRunes is the shortest query token considered for reference
// overlap.
const minOverlapRunes = 2

// Session is one conversation. All methods are safe for concurrent use; a
// session-level mutex serialises turn appends against cleanup.
type Session struct {
	mu sync.RWMutex

	id           string
	name         string
	companyID    string
	userID       string
	status       SessionStatus
	startedAt    time.Time
	lastActivity time.Time

	turns      []Turn
	summary    ContextSummary
	entities   map[string]*RememberedEntity
	references []Reference
	// domains holds the domains of the retained turns; shifts counts domain
	// changes over the whole history.
	domains []classifier.Domain
	shifts  int

	settings Settings
	now      func() time.Time
	newID    func() string

	cancel context.CancelFunc
	done   chan struct{}
}

func newSession(id, name, companyID, userID string, settings Settings, now func() time.Time, newID func() string) *Session {
	ts := now()
	return &Session{
		id:           id,
		name:         name,
		companyID:    companyID,
		userID:       userID,
		status:       StatusActive,
		startedAt:    ts,
		lastActivity: ts,
		entities:     make(map[string]*RememberedEntity),
		summary:      ContextSummary{MainTopics: []string{}, KeyEntities: []string{}},
		settings:     settings,
		now:          now,
		newID:        newID,
	}
}

// ID returns the session id.
func (s *Session) ID() string { return s.id }

// Status returns the lifecycle state.
func (s *Session) Status() SessionStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

// AddConversationTurn appends a turn and updates the summary, entity memory
// and contextual references in one critical section. A completed session
// rejects new turns; a paused one becomes active again.
func (s *Session) AddConversationTurn(userMessage, aiResponse string, meta TurnMetadata) (Turn, error) {
	if err := meta.Validate(); err != nil {
		return Turn{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status == StatusCompleted {
		return Turn{}, errors.New(errors.ErrCodeSessionClosed, "session is completed").WithDetail("id=" + s.id)
	}

	ts := s.now()
	turn := Turn{
		ID:          s.newID(),
		SessionID:   s.id,
		UserMessage: userMessage,
		AIResponse:  aiResponse,
		Timestamp:   ts,
		Context:     meta,
	}
	s.turns = append(s.turns, turn)
	s.lastActivity = ts
	s.status = StatusActive
	s.summary.ResolvedQueries++
	s.summary.MainTopics = appendUnique(s.summary.MainTopics, string(meta.Domain))
	if n := len(s.domains); n > 0 && s.domains[n-1] != meta.Domain {
		s.shifts++
	}
	s.domains = append(s.domains, meta.Domain)

	for _, ent := range meta.Entities {
		if ent.Type == classifier.EntityReference {
			continue
		}
		key, known := s.findEntityLocked(ent.Text)
		s.summary.KeyEntities = appendUnique(s.summary.KeyEntities, key)
		if mem := s.entities[key]; known {
			mem.LastMentioned = ts
			mem.Mentions++
			if ent.Confidence > mem.Confidence {
				mem.Confidence = ent.Confidence
			}
		} else {
			s.entities[key] = &RememberedEntity{
				Text:          ent.Text,
				Type:          ent.Type,
				Value:         ent.Value,
				Confidence:    ent.Confidence,
				LastMentioned: ts,
				Mentions:      1,
			}
		}
		s.references = append(s.references, Reference{Text: ent.Text, Kind: ReferenceEntity, Relevance: EntityRelevance, Timestamp: ts, TurnID: turn.ID})
	}
	s.references = append(s.references, Reference{Text: topicLabels[meta.Domain], Kind: ReferenceTopic, Relevance: TopicRelevance, Timestamp: ts, TurnID: turn.ID})
	for _, phrase := range meta.TemporalPhrases {
		s.references = append(s.references, Reference{Text: phrase, Kind: ReferenceTemporal, Relevance: TemporalRelevance, Timestamp: ts, TurnID: turn.ID})
	}
	return turn, nil
}

// GetRelevantContext returns the maxTurns most recent turns (newest first)
// and up to maxReferences references whose text overlaps a query token,
// ranked by relevance then recency. Non-positive limits use the session
// settings.
func (s *Session) GetRelevantContext(query string, maxTurns, maxReferences int) RelevantContext {
	if maxTurns <= 0 {
		maxTurns = s.settings.RelevantTurns
	}
	if maxReferences <= 0 {
		maxReferences = s.settings.RelevantReferences
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := RelevantContext{RecentTurns: []Turn{}, RelevantReferences: []Reference{}}
	for i := len(s.turns) - 1; i >= 0 && len(out.RecentTurns) < maxTurns; i-- {
		out.RecentTurns = append(out.RecentTurns, s.turns[i])
	}

	var tokens []string
	for _, t := range textnorm.Tokenize(textnorm.Normalize(query)) {
		if utf8.RuneCountInString(t) >= minOverlapRunes {
			tokens = append(tokens, t)
		}
	}
	latest := make(map[string]Reference)
	for _, ref := range s.references {
		if !overlaps(ref.Text, tokens) {
			continue
		}
		key := string(ref.Kind) + "|" + ref.Text
		if prev, ok := latest[key]; !ok || !ref.Timestamp.Before(prev.Timestamp) {
			latest[key] = ref
		}
	}
	for _, ref := range latest {
		out.RelevantReferences = append(out.RelevantReferences, ref)
	}
	sort.SliceStable(out.RelevantReferences, func(i, j int) bool {
		a, b := out.RelevantReferences[i], out.RelevantReferences[j]
		if a.Relevance != b.Relevance {
			return a.Relevance > b.Relevance
		}
		if !a.Timestamp.Equal(b.Timestamp) {
			return a.Timestamp.After(b.Timestamp)
		}
		return a.Text < b.Text
	})
	if len(out.RelevantReferences) > maxReferences {
		out.RelevantReferences = out.RelevantReferences[:maxReferences]
	}
	out.SessionSummary = s.summaryLocked()
	return out
}

func overlaps(text string, tokens []string) bool {
	if text == "" {
		return false
	}
	for _, t := range tokens {
		if strings.Contains(text, t) || strings.Contains(t, text) {
			return true
		}
	}
	return false
}

// ActiveEntities returns remembered entities mentioned within the active
// window, most recent first.
func (s *Session) ActiveEntities() []RememberedEntity {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.activeEntitiesLocked(s.now())
}

func (s *Session) activeEntitiesLocked(now time.Time) []RememberedEntity {
	out := make([]RememberedEntity, 0, len(s.entities))
	for _, e := range s.entities {
		if now.Sub(e.LastMentioned) <= s.settings.ActiveWindow {
			out = append(out, *e)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].LastMentioned.Equal(out[j].LastMentioned) {
			return out[i].LastMentioned.After(out[j].LastMentioned)
		}
		return out[i].Text < out[j].Text
	})
	return out
}

// LookupEntity finds a remembered entity by surface text, ignoring clitics.
func (s *Session) LookupEntity(text string) (RememberedEntity, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	key, ok := s.findEntityLocked(text)
	if !ok {
		return RememberedEntity{}, false
	}
	return *s.entities[key], true
}

// findEntityLocked resolves text to a memory key. An exact normalized match
// wins; otherwise two forms match when they share a prefix-stripped stem. The
// returned key is the normalized text when nothing matches.
func (s *Session) findEntityLocked(text string) (string, bool) {
	key := entityKey(text)
	if _, ok := s.entities[key]; ok {
		return key, true
	}
	keys := make([]string, 0, len(s.entities))
	for k := range s.entities {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, cand := range textnorm.StemCandidates(key) {
		for _, k := range keys {
			for _, stored := range textnorm.StemCandidates(k) {
				if stored == cand {
					return k, true
				}
			}
		}
	}
	return key, false
}

// DomainShifts returns the number of domain changes between consecutive
// turns over the whole history, archived turns included, and the domains of
// the retained turns, oldest first.
func (s *Session) DomainShifts() (int, []classifier.Domain) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.shifts, append([]classifier.Domain(nil), s.domains...)
}

// CountShifts counts positions where a domain differs from its predecessor.
func CountShifts(domains []classifier.Domain) int {
	n := 0
	for i := 1; i < len(domains); i++ {
		if domains[i] != domains[i-1] {
			n++
		}
	}
	return n
}

// Cleanup drops entities and references not mentioned within the retention
// window and truncates history to the newest MaxTurns turns. It returns the
// number of entities and turns removed.
func (s *Session) Cleanup() (removedEntities, archivedTurns int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for key, e := range s.entities {
		if now.Sub(e.LastMentioned) > s.settings.EntityRetention {
			delete(s.entities, key)
			removedEntities++
		}
	}
	kept := s.references[:0]
	for _, ref := range s.references {
		if now.Sub(ref.Timestamp) <= s.settings.EntityRetention {
			kept = append(kept, ref)
		}
	}
	s.references = kept

	if over := len(s.turns) - s.settings.MaxTurns; over > 0 {
		s.turns = append([]Turn(nil), s.turns[over:]...)
		s.summary.ArchivedTurns += over
		archivedTurns = over
	}
	if over := len(s.domains) - s.settings.MaxTurns; over > 0 {
		s.domains = append([]classifier.Domain(nil), s.domains[over:]...)
	}
	return removedEntities, archivedTurns
}

// Turns returns a copy of the retained turns, oldest first.
func (s *Session) Turns() []Turn {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Turn(nil), s.turns...)
}

// ContextSummary returns a copy of the aggregate counters.
func (s *Session) ContextSummary() ContextSummary {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := s.summary
	out.MainTopics = append([]string{}, s.summary.MainTopics...)
	out.KeyEntities = append([]string{}, s.summary.KeyEntities...)
	return out
}

// Summary returns the session overview.
func (s *Session) Summary() Summary {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.summaryLocked()
}

func (s *Session) summaryLocked() Summary {
	return Summary{
		SessionID:       s.id,
		Name:            s.name,
		Status:          s.status,
		TurnCount:       len(s.turns),
		ResolvedQueries: s.summary.ResolvedQueries,
		MainTopics:      append([]string{}, s.summary.MainTopics...),
		KeyEntities:     append([]string{}, s.summary.KeyEntities...),
		ActiveEntities:  len(s.activeEntitiesLocked(s.now())),
		StartedAt:       s.startedAt,
		LastActivity:    s.lastActivity,
	}
}

func (s *Session) setStatus(status SessionStatus) {
	s.mu.Lock()
	s.status = status
	s.mu.Unlock()
}

// Snapshot captures the session for persistence.
func (s *Session) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap := Snapshot{
		ID:           s.id,
		Name:         s.name,
		CompanyID:    s.companyID,
		UserID:       s.userID,
		Status:       s.status,
		StartedAt:    s.startedAt,
		LastActivity: s.lastActivity,
		Turns:        append([]Turn{}, s.turns...),
		Summary:      s.summary,
		References:   append([]Reference{}, s.references...),
		Domains:      append([]classifier.Domain{}, s.domains...),
		DomainShifts: s.shifts,
		Entities:     make([]RememberedEntity, 0, len(s.entities)),
	}
	snap.Summary.MainTopics = append([]string{}, s.summary.MainTopics...)
	snap.Summary.KeyEntities = append([]string{}, s.summary.KeyEntities...)
	for _, e := range s.entities {
		snap.Entities = append(snap.Entities, *e)
	}
	sort.Slice(snap.Entities, func(i, j int) bool { return snap.Entities[i].Text < snap.Entities[j].Text })
	return snap
}

func sessionFromSnapshot(snap *Snapshot, settings Settings, now func() time.Time, newID func() string) *Session {
	s := newSession(snap.ID, snap.Name, snap.CompanyID, snap.UserID, settings, now, newID)
	s.status = snap.Status
	s.startedAt = snap.StartedAt
	s.lastActivity = snap.LastActivity
	s.turns = append([]Turn(nil), snap.Turns...)
	s.summary = snap.Summary
	if s.summary.MainTopics == nil {
		s.summary.MainTopics = []string{}
	}
	if s.summary.KeyEntities == nil {
		s.summary.KeyEntities = []string{}
	}
	s.references = append([]Reference(nil), snap.References...)
	s.domains = append([]classifier.Domain(nil), snap.Domains...)
	s.shifts = snap.DomainShifts
	if s.shifts == 0 {
		s.shifts = CountShifts(s.domains)
	}
	for i := range snap.Entities {
		e := snap.Entities[i]
		s.entities[entityKey(e.Text)] = &e
	}
	return s
}

// startCleanup runs Cleanup every CleanupInterval until stopCleanup.
func (s *Session) startCleanup(onTick func(removed, archived int)) {
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.done = make(chan struct{})
	go func() {
		defer close(s.done)
		ticker := time.NewTicker(s.settings.CleanupInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				removed, archived := s.Cleanup()
				if onTick != nil {
					onTick(removed, archived)
				}
			}
		}
	}()
}

func (s *Session) stopCleanup() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	<-s.done
	s.cancel = nil
}

func entityKey(text string) string {
	return textnorm.Normalize(text)
}

func appendUnique(list []string, v string) []string {
	if v == "" {
		return list
	}
	for _, x := range list {
		if x == v {
			return list
		}
	}
	return append(list, v)
}

//Personal.AI order the ending
