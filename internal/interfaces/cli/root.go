package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/turtacn/Musaid-NLQ/internal/bootstrap"
	"github.com/turtacn/Musaid-NLQ/internal/config"
	"github.com/turtacn/Musaid-NLQ/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/Musaid-NLQ/pkg/errors"
)

// Build-time variables injected via ldflags.
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// cliContextKey is the context key for CLIContext.
type cliContextKey struct{}

// RuntimeBuilder assembles the query pipeline for commands that need it.
type RuntimeBuilder func(ctx context.Context, cfg *config.Config, logger logging.Logger) (*bootstrap.Runtime, error)

// DefaultRuntimeBuilder connects whatever the configuration enables.
func DefaultRuntimeBuilder(ctx context.Context, cfg *config.Config, logger logging.Logger) (*bootstrap.Runtime, error) {
	return bootstrap.Build(ctx, cfg, logger, bootstrap.Options{SkipMetrics: true})
}

// RootOptions holds global CLI flags.
type RootOptions struct {
	ConfigPath   string
	LogLevel     string
	OutputFormat string
	Verbose      bool
	NoColor      bool
	Timeout      time.Duration
}

// CLIContext carries initialized dependencies through the command tree.
type CLIContext struct {
	Config       *config.Config
	Logger       logging.Logger
	OutputFormat string
	Verbose      bool
	NoColor      bool
	Timeout      time.Duration

	build   RuntimeBuilder
	runtime *bootstrap.Runtime
}

// Runtime builds the pipeline on first use. Commands that only normalize or
// classify never open a connection.
func (c *CLIContext) Runtime(ctx context.Context) (*bootstrap.Runtime, error) {
	if c.runtime != nil {
		return c.runtime, nil
	}
	rt, err := c.build(ctx, c.Config, c.Logger)
	if err != nil {
		return nil, err
	}
	c.runtime = rt
	return rt, nil
}

func (c *CLIContext) close() {
	if c.runtime != nil {
		_ = c.runtime.Close()
		c.runtime = nil
	}
	_ = c.Logger.Sync()
}

// NewRootCommand creates the nlq command tree over the default builder.
func NewRootCommand() *cobra.Command {
	return newRootCommand(DefaultRuntimeBuilder)
}

func newRootCommand(build RuntimeBuilder) *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "nlq",
		Short: "Arabic natural-language query assistant for car-rental operations",
		Long: "nlq normalizes, classifies and answers Arabic business questions about\n" +
			"customers, contracts, invoices, payments and the fleet. Numerical questions\n" +
			"run against the data store; the rest go to the configured generative backend.",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", Version, GitCommit, BuildDate),
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return persistentPreRun(cmd, opts, build)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if cliCtx, err := GetCLIContext(cmd); err == nil {
				cliCtx.close()
			}
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := cmd.PersistentFlags()
	pf.StringVarP(&opts.ConfigPath, "config", "c", "", "config file path (default: ./nlq.yaml)")
	pf.StringVar(&opts.LogLevel, "log-level", "warn", "log level (debug, info, warn, error)")
	pf.StringVarP(&opts.OutputFormat, "output", "o", "text", "output format (text, json, table)")
	pf.BoolVarP(&opts.Verbose, "verbose", "v", false, "enable verbose output")
	pf.BoolVar(&opts.NoColor, "no-color", false, "disable colored output")
	pf.DurationVar(&opts.Timeout, "timeout", 60*time.Second, "global operation timeout")

	cmd.AddCommand(
		newNormalizeCmd(),
		newClassifyCmd(),
		newAskCmd(),
		newClarifyCmd(),
		newChatCmd(),
		newExplainCmd(),
		newSuggestCmd(),
		newEventsCmd(),
		newVersionCmd(),
	)
	return cmd
}

// persistentPreRun initializes config and logger, then stores CLIContext.
func persistentPreRun(cmd *cobra.Command, opts *RootOptions, build RuntimeBuilder) error {
	switch strings.ToLower(opts.OutputFormat) {
	case "text", "json", "table":
	default:
		return errors.New(errors.ErrCodeInvalidParam, "unsupported output format").WithDetail(opts.OutputFormat)
	}

	cfg, err := initConfig(cmd, opts)
	if err != nil {
		return fmt.Errorf("config initialization failed: %w", err)
	}

	logger, err := initLogger(opts)
	if err != nil {
		return fmt.Errorf("logger initialization failed: %w", err)
	}

	if opts.NoColor || strings.ToLower(opts.OutputFormat) == "json" {
		color.NoColor = true
	}

	cliCtx := &CLIContext{
		Config:       cfg,
		Logger:       logger,
		OutputFormat: strings.ToLower(opts.OutputFormat),
		Verbose:      opts.Verbose,
		NoColor:      opts.NoColor,
		Timeout:      opts.Timeout,
		build:        build,
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	cmd.SetContext(context.WithValue(ctx, cliContextKey{}, cliCtx))
	return nil
}

// initConfig loads configuration with priority: env > file > defaults.
func initConfig(cmd *cobra.Command, opts *RootOptions) (*config.Config, error) {
	if opts.ConfigPath != "" {
		return config.Load(opts.ConfigPath)
	}

	searchPaths := []string{"./nlq.yaml"}
	if homeDir, err := os.UserHomeDir(); err == nil {
		searchPaths = append(searchPaths, filepath.Join(homeDir, ".nlq", "config.yaml"))
	}
	searchPaths = append(searchPaths, "/etc/nlq/config.yaml")

	for _, p := range searchPaths {
		if _, statErr := os.Stat(p); statErr == nil {
			return config.Load(p)
		}
	}

	if opts.Verbose {
		fmt.Fprintln(cmd.ErrOrStderr(), "no config file found, using environment and defaults")
	}
	return config.LoadFromEnv()
}

// initLogger creates a logger configured for CLI usage (output to stderr).
func initLogger(opts *RootOptions) (logging.Logger, error) {
	level := strings.ToLower(opts.LogLevel)
	if opts.Verbose {
		level = "debug"
	}
	return logging.NewLogger(logging.LogConfig{
		Level:            level,
		Format:           "console",
		OutputPaths:      []string{"stderr"},
		ErrorOutputPaths: []string{"stderr"},
	})
}

// GetCLIContext extracts CLIContext from a cobra command's context.
func GetCLIContext(cmd *cobra.Command) (*CLIContext, error) {
	ctx := cmd.Context()
	if ctx == nil {
		return nil, errors.New(errors.ErrCodeInternal, "command context is nil")
	}
	cliCtx, ok := ctx.Value(cliContextKey{}).(*CLIContext)
	if !ok || cliCtx == nil {
		return nil, errors.New(errors.ErrCodeInternal, "CLIContext not found in command context")
	}
	return cliCtx, nil
}

// commandContext bounds the command by the --timeout flag.
func commandContext(cmd *cobra.Command, cliCtx *CLIContext) (context.Context, context.CancelFunc) {
	if cliCtx.Timeout <= 0 {
		return context.WithCancel(cmd.Context())
	}
	return context.WithTimeout(cmd.Context(), cliCtx.Timeout)
}

// Execute is the main entry point for the CLI application.
func Execute() error {
	rootCmd := NewRootCommand()
	if err := rootCmd.Execute(); err != nil {
		PrintError(rootCmd, err)
		return err
	}
	return nil
}

// tableProvider is implemented by results that render as a table.
type tableProvider interface {
	TableHeaders() []string
	TableRows() [][]string
}

// PrintResult outputs data in the format specified by CLIContext.
func PrintResult(cmd *cobra.Command, data interface{}) error {
	cliCtx, err := GetCLIContext(cmd)
	if err != nil {
		return printJSON(cmd, data)
	}

	switch cliCtx.OutputFormat {
	case "json":
		return printJSON(cmd, data)
	case "table":
		return printTable(cmd, data)
	default:
		return printText(cmd, data)
	}
}

func printJSON(cmd *cobra.Command, data interface{}) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(data)
}

func printText(cmd *cobra.Command, data interface{}) error {
	switch v := data.(type) {
	case string:
		fmt.Fprintln(cmd.OutOrStdout(), v)
	case fmt.Stringer:
		fmt.Fprint(cmd.OutOrStdout(), v.String())
	default:
		fmt.Fprintf(cmd.OutOrStdout(), "%+v\n", v)
	}
	return nil
}

func printTable(cmd *cobra.Command, data interface{}) error {
	if tp, ok := data.(tableProvider); ok {
		fmt.Fprint(cmd.OutOrStdout(), FormatTable(tp.TableHeaders(), tp.TableRows()))
		return nil
	}
	return printText(cmd, data)
}

// PrintError writes a formatted error message to stderr. Application errors
// show their code.
func PrintError(cmd *cobra.Command, err error) {
	if err == nil {
		return
	}
	prefix := color.RedString("Error:")
	if code := errors.GetCode(err); code != errors.CodeUnknown && code != errors.CodeOK {
		prefix = color.RedString("Error [%s]:", code)
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "%s %s\n", prefix, err.Error())
}

// FormatTable renders headers and rows with tablewriter.
func FormatTable(headers []string, rows [][]string) string {
	if len(headers) == 0 {
		return ""
	}
	var sb strings.Builder
	table := tablewriter.NewWriter(&sb)
	table.Header(headers)
	for _, row := range rows {
		_ = table.Append(row)
	}
	_ = table.Render()
	return sb.String()
}

// colorizeConfidence greens confident scores and reds weak ones.
func colorizeConfidence(score float64) string {
	s := fmt.Sprintf("%.2f", score)
	switch {
	case score >= 0.8:
		return color.GreenString(s)
	case score >= 0.5:
		return color.YellowString(s)
	default:
		return color.RedString(s)
	}
}

func truncateString(s string, maxRunes int) string {
	r := []rune(s)
	if len(r) <= maxRunes {
		return s
	}
	return string(r[:maxRunes-1]) + "…"
}

//Personal.AI order the ending
