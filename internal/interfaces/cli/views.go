package cli

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/fatih/color"

	"github.com/turtacn/Musaid-NLQ/internal/application/query"
	"github.com/turtacn/Musaid-NLQ/internal/intelligence/clarification"
	"github.com/turtacn/Musaid-NLQ/internal/intelligence/classifier"
	"github.com/turtacn/Musaid-NLQ/internal/intelligence/textnorm"
)

// normalizeView is the output of the normalize command.
type normalizeView struct {
	textnorm.NormalizedQuery
	Tokens   []string `json:"tokens"`
	Stripped []string `json:"stripped"`
}

func (v normalizeView) String() string {
	return fmt.Sprintf("original:   %s\nnormalized: %s\ntokens:     %s\n",
		v.Original, v.Normalized, strings.Join(v.Tokens, " | "))
}

func (v normalizeView) TableHeaders() []string { return []string{"#", "Token", "Stripped"} }

func (v normalizeView) TableRows() [][]string {
	rows := make([][]string, len(v.Tokens))
	for i, t := range v.Tokens {
		rows[i] = []string{fmt.Sprint(i + 1), t, v.Stripped[i]}
	}
	return rows
}

// classifyView is the output of the classify command.
type classifyView struct {
	Query          textnorm.NormalizedQuery              `json:"query"`
	Classification *classifier.QueryClassification       `json:"classification"`
	Statistical    *classifier.StatisticalClassification `json:"statistical"`

	verbose bool
}

func (v classifyView) fields() [][]string {
	c := v.Classification
	rows := [][]string{
		{"normalized", v.Query.Normalized},
		{"domain", string(c.Domain)},
	}
	if v.verbose {
		rows = append(rows, domainScores(c.DomainScores)...)
	}
	rows = append(rows, [][]string{
		{"intent", string(c.Intent)},
		{"confidence", colorizeConfidence(c.ConfidenceScore)},
		{"complexity", fmt.Sprintf("%s (%d)", c.Complexity, c.ComplexityScore)},
	}...)
	if c.Temporal.Timeframe != "" {
		rows = append(rows, []string{"timeframe", c.Temporal.Timeframe})
	}
	if len(c.Entities) > 0 {
		ents := make([]string, len(c.Entities))
		for i, e := range c.Entities {
			ents[i] = fmt.Sprintf("%s:%s", e.Type, e.Text)
		}
		rows = append(rows, []string{"entities", strings.Join(ents, ", ")})
	}
	if c.Legal != nil && c.Legal.IsLegal {
		rows = append(rows, []string{"legal", fmt.Sprintf("%s (%.2f)", c.Legal.Area, c.Legal.Confidence)})
	}
	if len(c.Concepts) > 0 {
		rows = append(rows, []string{"concepts", strings.Join(c.Concepts, ", ")})
	}
	s := v.Statistical
	if s != nil && s.IsStatistical {
		rows = append(rows, []string{"statistical", fmt.Sprintf("%s/%s (%s) %s", s.Category, s.Type, s.VisualizationHint, colorizeConfidence(s.Confidence))})
	}
	return rows
}

func (v classifyView) String() string {
	var sb strings.Builder
	for _, row := range v.fields() {
		fmt.Fprintf(&sb, "%-12s %s\n", row[0]+":", row[1])
	}
	return sb.String()
}

func (v classifyView) TableHeaders() []string { return []string{"Field", "Value"} }
func (v classifyView) TableRows() [][]string  { return v.fields() }

// answerView renders one pipeline response.
type answerView struct {
	resp *query.EnhancedResponse
}

func (v answerView) MarshalJSON() ([]byte, error) { return json.Marshal(v.resp) }

func (v answerView) String() string {
	r := v.resp
	var sb strings.Builder
	sb.WriteString(r.Answer)
	sb.WriteString("\n")
	if r.Clarification != nil {
		sb.WriteString(formatQuestions(r.Clarification))
	}
	for _, s := range r.Suggestions {
		fmt.Fprintf(&sb, "  %s %s\n", color.CyanString("»"), s)
	}
	fmt.Fprintf(&sb, "%s route=%s confidence=%s session=%s\n",
		color.HiBlackString("--"), r.Route, colorizeConfidence(r.Confidence), r.SessionID)
	return sb.String()
}

func (v answerView) TableHeaders() []string { return []string{"Field", "Value"} }

func (v answerView) TableRows() [][]string {
	r := v.resp
	rows := [][]string{
		{"answer", r.Answer},
		{"route", string(r.Route)},
		{"confidence", colorizeConfidence(r.Confidence)},
		{"session", r.SessionID},
	}
	if r.Classification != nil {
		rows = append(rows,
			[]string{"domain", string(r.Classification.Domain)},
			[]string{"intent", string(r.Classification.Intent)})
	}
	if r.Numerical != nil {
		rows = append(rows, []string{"value", fmt.Sprintf("%g", r.Numerical.Value)})
	}
	if r.Clarification != nil {
		rows = append(rows, []string{"clarification", r.Clarification.ID})
		for _, q := range r.Clarification.Questions {
			rows = append(rows, []string{"  " + q.Key, q.Text})
		}
	}
	rows = append(rows, []string{"elapsed", r.ProcessingTime.String()})
	return rows
}

// formatQuestions lists the clarification questions with their choices in
// the key=value form the clarify command accepts.
func formatQuestions(req *clarification.Request) string {
	var sb strings.Builder
	for i, q := range req.Questions {
		fmt.Fprintf(&sb, "  %d. %s %s\n", i+1, q.Text, color.HiBlackString("[%s]", q.Key))
		for _, o := range q.Options {
			fmt.Fprintf(&sb, "       %s=%s  %s\n", q.Key, o.Value, o.Label)
		}
	}
	return sb.String()
}

// clarifyView renders a resolved clarification.
type clarifyView struct {
	result *query.ClarificationResult
}

func (v clarifyView) MarshalJSON() ([]byte, error) { return json.Marshal(v.result) }

func (v clarifyView) String() string {
	ref := v.result.Refinement
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s %s\n", color.HiBlackString("refined:"), ref.RefinedQuery)
	if len(ref.IgnoredKeys) > 0 {
		fmt.Fprintf(&sb, "%s %s\n", color.YellowString("ignored:"), strings.Join(ref.IgnoredKeys, ", "))
	}
	sb.WriteString(answerView{resp: v.result.Response}.String())
	return sb.String()
}

func (v clarifyView) TableHeaders() []string { return []string{"Field", "Value"} }

func (v clarifyView) TableRows() [][]string {
	ref := v.result.Refinement
	rows := [][]string{
		{"refined", ref.RefinedQuery},
		{"confidence before", fmt.Sprintf("%.2f", ref.ConfidenceBefore)},
		{"confidence after", fmt.Sprintf("%.2f", ref.ConfidenceAfter)},
	}
	return append(rows, answerView{resp: v.result.Response}.TableRows()...)
}

// explainView renders the pipeline trace.
type explainView struct {
	resp *query.ExplainResponse
}

func (v explainView) MarshalJSON() ([]byte, error) { return json.Marshal(v.resp) }

func (v explainView) String() string {
	var sb strings.Builder
	for i, step := range v.resp.Steps {
		fmt.Fprintf(&sb, "%d. %-14s %10s  %s\n", i+1, step.StepName, step.Duration, summarize(step.Output, 80))
	}
	fmt.Fprintf(&sb, "route=%s confidence=%s\n", v.resp.Route, colorizeConfidence(v.resp.Confidence))
	return sb.String()
}

func (v explainView) TableHeaders() []string { return []string{"#", "Step", "Duration", "Output"} }

func (v explainView) TableRows() [][]string {
	rows := make([][]string, len(v.resp.Steps))
	for i, step := range v.resp.Steps {
		rows[i] = []string{fmt.Sprint(i + 1), step.StepName, step.Duration.String(), summarize(step.Output, 60)}
	}
	return rows
}

// summarize renders a step output as compact JSON.
func summarize(v interface{}, maxRunes int) string {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return truncateString(string(data), maxRunes)
}

// suggestView renders starter questions.
type suggestView struct {
	resp *query.SuggestResponse
}

func (v suggestView) MarshalJSON() ([]byte, error) { return json.Marshal(v.resp) }

func (v suggestView) String() string {
	var sb strings.Builder
	for i, q := range v.resp.Questions {
		fmt.Fprintf(&sb, "%d. %s %s\n", i+1, q.Question, color.HiBlackString("(%s)", q.Domain))
	}
	return sb.String()
}

func (v suggestView) TableHeaders() []string { return []string{"#", "Question", "Domain", "Relevance"} }

func (v suggestView) TableRows() [][]string {
	rows := make([][]string, len(v.resp.Questions))
	for i, q := range v.resp.Questions {
		rows[i] = []string{fmt.Sprint(i + 1), q.Question, string(q.Domain), fmt.Sprintf("%.2f", q.Relevance)}
	}
	return rows
}

// turnEventView is one line of the events tail stream.
type turnEventView struct {
	query.TurnEvent
	Partition int   `json:"partition"`
	Offset    int64 `json:"offset"`
}

func (v turnEventView) String() string {
	return fmt.Sprintf("%s %-13s %-16s %-14s conf=%s session=%s turn=%s\n",
		v.OccurredAt.Format("15:04:05"), v.Route, v.Domain, v.Intent,
		colorizeConfidence(v.Confidence), v.SessionID, v.TurnID)
}

func (v turnEventView) TableHeaders() []string {
	return []string{"Time", "Route", "Domain", "Intent", "Confidence", "Session", "Entities"}
}

func (v turnEventView) TableRows() [][]string {
	return [][]string{{
		v.OccurredAt.Format("15:04:05"), string(v.Route), string(v.Domain), string(v.Intent),
		colorizeConfidence(v.Confidence), v.SessionID, fmt.Sprint(v.EntityCount),
	}}
}

// domainScores lists scores highest first.
func domainScores(scores map[classifier.Domain]float64) [][]string {
	domains := make([]classifier.Domain, 0, len(scores))
	for d := range scores {
		domains = append(domains, d)
	}
	sort.Slice(domains, func(i, j int) bool {
		if scores[domains[i]] != scores[domains[j]] {
			return scores[domains[i]] > scores[domains[j]]
		}
		return domains[i] < domains[j]
	})
	rows := make([][]string, len(domains))
	for i, d := range domains {
		rows[i] = []string{"  " + string(d), fmt.Sprintf("%.2f", scores[d])}
	}
	return rows
}

//Personal.AI order the ending
