package cli

import (
	"bufio"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/turtacn/Musaid-NLQ/internal/application/query"
	"github.com/turtacn/Musaid-NLQ/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/Musaid-NLQ/internal/intelligence/clarification"
	"github.com/turtacn/Musaid-NLQ/internal/intelligence/classifier"
	"github.com/turtacn/Musaid-NLQ/internal/intelligence/morphology"
	"github.com/turtacn/Musaid-NLQ/internal/intelligence/semantic"
	"github.com/turtacn/Musaid-NLQ/internal/intelligence/textnorm"
	"github.com/turtacn/Musaid-NLQ/pkg/errors"
)

func joinArgs(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}

func newNormalizeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "normalize <text>",
		Short: "Show the canonical form and tokens of an Arabic query",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			nq := textnorm.NewQuery(joinArgs(args))
			tokens := textnorm.Tokenize(nq.Normalized)
			stripped := make([]string, len(tokens))
			for i, t := range tokens {
				stripped[i] = textnorm.StripPrefixes(t)
			}
			return PrintResult(cmd, normalizeView{NormalizedQuery: nq, Tokens: tokens, Stripped: stripped})
		},
	}
}

func newClassifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "classify <text>",
		Short: "Classify a query without answering it",
		Long:  "Runs the rule-based and statistical classifiers. No session is created and nothing is executed.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			cls := classifier.NewRuleBasedClassifier(semantic.NewDictionary(), morphology.NewAnalyzer(nil))
			nq := textnorm.NewQuery(joinArgs(args))
			return PrintResult(cmd, classifyView{
				Query:          nq,
				Classification: cls.Classify(nq),
				Statistical:    cls.ClassifyStatistical(nq),
				verbose:        cliCtx.Verbose,
			})
		},
	}
}

type askOptions struct {
	sessionID string
	companyID string
	userID    string
}

func (o *askOptions) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&o.sessionID, "session", "", "continue an existing session (needs redis to survive between runs)")
	cmd.Flags().StringVar(&o.companyID, "company", "", "company id recorded on a new session")
	cmd.Flags().StringVar(&o.userID, "user", "", "user id recorded on a new session")
}

func (o *askOptions) request(text string) *query.EnhancedRequest {
	return &query.EnhancedRequest{Query: text, SessionID: o.sessionID, CompanyID: o.companyID, UserID: o.userID}
}

func newAskCmd() *cobra.Command {
	opts := &askOptions{}
	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "Answer one question through the full pipeline",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			ctx, cancel := commandContext(cmd, cliCtx)
			defer cancel()

			rt, err := cliCtx.Runtime(ctx)
			if err != nil {
				return err
			}
			resp, err := rt.Service.ProcessEnhancedQuery(ctx, opts.request(joinArgs(args)))
			if err != nil {
				return err
			}
			cliCtx.Logger.Debug("query answered", logging.String("route", string(resp.Route)), logging.Duration("elapsed", resp.ProcessingTime))
			return PrintResult(cmd, answerView{resp: resp})
		},
	}
	opts.register(cmd)
	return cmd
}

func newClarifyCmd() *cobra.Command {
	opts := &askOptions{}
	var answers []string
	cmd := &cobra.Command{
		Use:   "clarify <question> --answer key=value...",
		Short: "Ask a question and answer its clarification in one run",
		Long: "Pending clarifications live in the process that asked them, so clarify asks the\n" +
			"question and resolves the clarification with the given answers in the same run.\n" +
			"Multiple-choice answers take comma-separated values; confirmations take yes or no.",
		Example: `  nlq clarify "كم" --answer domain=financial`,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			ctx, cancel := commandContext(cmd, cliCtx)
			defer cancel()

			rt, err := cliCtx.Runtime(ctx)
			if err != nil {
				return err
			}
			first, err := rt.Service.ProcessEnhancedQuery(ctx, opts.request(joinArgs(args)))
			if err != nil {
				return err
			}
			if first.Clarification == nil {
				fmt.Fprintln(cmd.ErrOrStderr(), "no clarification needed")
				return PrintResult(cmd, answerView{resp: first})
			}
			parsed, err := parseAnswers(first.Clarification, answers)
			if err != nil {
				return err
			}
			result, err := rt.Service.ResolveClarification(ctx, first.SessionID, clarification.Response{
				RequestID: first.Clarification.ID,
				Answers:   parsed,
			})
			if err != nil {
				return err
			}
			return PrintResult(cmd, clarifyView{result: result})
		},
	}
	opts.register(cmd)
	cmd.Flags().StringArrayVarP(&answers, "answer", "a", nil, "clarification answer as key=value (repeatable)")
	_ = cmd.MarkFlagRequired("answer")
	return cmd
}

// parseAnswers converts key=value flags into answers shaped for the question
// each key belongs to. Keys the request did not ask are passed through so the
// engine reports them as ignored.
func parseAnswers(req *clarification.Request, raw []string) ([]clarification.Answer, error) {
	questions := make(map[string]clarification.Question, len(req.Questions))
	for _, q := range req.Questions {
		questions[q.Key] = q
	}
	out := make([]clarification.Answer, 0, len(raw))
	for _, r := range raw {
		key, value, ok := strings.Cut(r, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, errors.New(errors.ErrCodeInvalidParam, "answers must look like key=value").WithDetail(r)
		}
		out = append(out, answerFor(questions[key], key, strings.TrimSpace(value)))
	}
	return out, nil
}

func answerFor(q clarification.Question, key, value string) clarification.Answer {
	ans := clarification.Answer{Key: key}
	switch q.Type {
	case clarification.QuestionMultipleChoice:
		for _, v := range strings.Split(value, ",") {
			if v = strings.TrimSpace(v); v != "" {
				ans.Values = append(ans.Values, v)
			}
		}
	case clarification.QuestionConfirmation:
		switch strings.ToLower(value) {
		case "y", "yes", "true", "1", "نعم":
			ans.Confirmed = true
		}
	default:
		ans.Value = value
	}
	return ans
}

func newChatCmd() *cobra.Command {
	opts := &askOptions{}
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Interactive session: one question per line, clarifications asked inline",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			rt, err := cliCtx.Runtime(cmd.Context())
			if err != nil {
				return err
			}
			return runChat(cmd, rt.Service, opts)
		},
	}
	opts.register(cmd)
	return cmd
}

// runChat reads questions until EOF or "exit". A clarification is answered
// on the following lines, one per question, before the next question.
func runChat(cmd *cobra.Command, svc query.Service, opts *askOptions) error {
	in := bufio.NewScanner(cmd.InOrStdin())
	out := cmd.OutOrStdout()
	prompt := func(p string) (string, bool) {
		fmt.Fprint(out, p)
		if !in.Scan() {
			return "", false
		}
		return strings.TrimSpace(in.Text()), true
	}

	sessionID := opts.sessionID
	for {
		line, ok := prompt("> ")
		if !ok || line == "exit" || line == "خروج" {
			fmt.Fprintln(out)
			return in.Err()
		}
		if line == "" {
			continue
		}
		req := opts.request(line)
		req.SessionID = sessionID
		resp, err := svc.ProcessEnhancedQuery(cmd.Context(), req)
		if err != nil {
			PrintError(cmd, err)
			continue
		}
		sessionID = resp.SessionID

		if resp.Clarification != nil {
			if err := PrintResult(cmd, answerView{resp: resp}); err != nil {
				return err
			}
			answers, ok := askQuestions(resp.Clarification, prompt)
			if !ok {
				return in.Err()
			}
			result, err := svc.ResolveClarification(cmd.Context(), sessionID, clarification.Response{
				RequestID: resp.Clarification.ID,
				Answers:   answers,
			})
			if err != nil {
				PrintError(cmd, err)
				continue
			}
			if err := PrintResult(cmd, clarifyView{result: result}); err != nil {
				return err
			}
			continue
		}
		if err := PrintResult(cmd, answerView{resp: resp}); err != nil {
			return err
		}
	}
}

// askQuestions prompts for each clarification question. A choice can be
// given by its number or its value; blank skips the question.
func askQuestions(req *clarification.Request, prompt func(string) (string, bool)) ([]clarification.Answer, bool) {
	var answers []clarification.Answer
	for _, q := range req.Questions {
		line, ok := prompt(fmt.Sprintf("%s ? ", q.Key))
		if !ok {
			return nil, false
		}
		if line == "" {
			continue
		}
		answers = append(answers, answerFor(q, q.Key, resolveChoices(q, line)))
	}
	return answers, true
}

// resolveChoices maps 1-based option numbers onto option values.
func resolveChoices(q clarification.Question, line string) string {
	if len(q.Options) == 0 {
		return line
	}
	parts := strings.Split(line, ",")
	for i, p := range parts {
		p = strings.TrimSpace(p)
		if n, err := strconv.Atoi(p); err == nil && n >= 1 && n <= len(q.Options) {
			p = q.Options[n-1].Value
		}
		parts[i] = p
	}
	return strings.Join(parts, ",")
}

func newExplainCmd() *cobra.Command {
	var sessionID string
	cmd := &cobra.Command{
		Use:   "explain <question>",
		Short: "Trace the pipeline stages for a question without answering it",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			ctx, cancel := commandContext(cmd, cliCtx)
			defer cancel()

			rt, err := cliCtx.Runtime(ctx)
			if err != nil {
				return err
			}
			resp, err := rt.Service.ExplainQuery(ctx, &query.ExplainRequest{Question: joinArgs(args), SessionID: sessionID})
			if err != nil {
				return err
			}
			return PrintResult(cmd, explainView{resp: resp})
		},
	}
	cmd.Flags().StringVar(&sessionID, "session", "", "explain against an existing session")
	return cmd
}

func newSuggestCmd() *cobra.Command {
	var (
		role   string
		domain string
		count  int
	)
	cmd := &cobra.Command{
		Use:   "suggest",
		Short: "List starter questions for a role or domain",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			ctx, cancel := commandContext(cmd, cliCtx)
			defer cancel()

			rt, err := cliCtx.Runtime(ctx)
			if err != nil {
				return err
			}
			resp, err := rt.Service.SuggestQuestions(ctx, &query.SuggestRequest{
				Role:   role,
				Domain: classifier.Domain(domain),
				Count:  count,
			})
			if err != nil {
				return err
			}
			return PrintResult(cmd, suggestView{resp: resp})
		},
	}
	cmd.Flags().StringVar(&role, "role", "", "target role, e.g. manager, accountant, legal")
	cmd.Flags().StringVar(&domain, "domain", "", "restrict to one domain (legal, financial, fleet_management, operations)")
	cmd.Flags().IntVarP(&count, "count", "n", 5, "number of questions")
	return cmd
}

//Personal.AI order the ending
