// Package app wires the routing engine behind its CLI surface.
package app

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"io"
	"os"
	"strings"
	"time"

	"github.com/ggonzalez94/defi-router/internal/budget"
	"github.com/ggonzalez94/defi-router/internal/config"
	clierr "github.com/ggonzalez94/defi-router/internal/errors"
	"github.com/ggonzalez94/defi-router/internal/execution"
	"github.com/ggonzalez94/defi-router/internal/httpx"
	"github.com/ggonzalez94/defi-router/internal/log"
	"github.com/ggonzalez94/defi-router/internal/model"
	"github.com/ggonzalez94/defi-router/internal/out"
	"github.com/ggonzalez94/defi-router/internal/policy"
	"github.com/ggonzalez94/defi-router/internal/quote"
	"github.com/ggonzalez94/defi-router/internal/registry"
	"github.com/ggonzalez94/defi-router/internal/route"
	"github.com/ggonzalez94/defi-router/internal/schema"
	"github.com/ggonzalez94/defi-router/internal/version"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type Runner struct {
	stdout io.Writer
	stderr io.Writer
	now    func() time.Time
}

func NewRunner() *Runner {
	return NewRunnerWithWriters(os.Stdout, os.Stderr)
}

func NewRunnerWithWriters(stdout, stderr io.Writer) *Runner {
	return &Runner{stdout: stdout, stderr: stderr, now: time.Now}
}

type runtimeState struct {
	runner   *Runner
	flags    config.GlobalFlags
	settings config.Settings
	logger   *zap.Logger
	root     *cobra.Command

	registry     *registry.Registry
	quotes       quote.Provider
	budgetSQLite *budget.SQLiteStore
	budgets      *budget.Store
	router       *route.Router
	recordStore  *execution.Store

	lastCommand  string
	lastWarnings []string
}

func (r *Runner) Run(args []string) int {
	state := &runtimeState{runner: r}
	root := state.newRootCommand()
	state.root = root
	root.SetArgs(args)
	root.SetOut(r.stdout)
	root.SetErr(r.stderr)
	root.SilenceUsage = true
	root.SilenceErrors = true

	err := root.Execute()
	state.shutdown()
	if err == nil {
		return 0
	}
	state.renderError(err)
	return clierr.ExitCode(err)
}

func (s *runtimeState) newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   version.CLIName,
		Short: "Cross-venue execution routing engine",
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "help" {
				return nil
			}
			settings, err := config.Load(s.flags)
			if err != nil {
				return clierr.Wrap(clierr.CodeUsage, "load configuration", err)
			}
			s.settings = settings

			path := trimRootPath(cmd.CommandPath())
			s.lastCommand = path
			if err := policy.CheckCommandAllowed(settings.EnableCommands, path); err != nil {
				return err
			}

			if s.logger == nil {
				logger, err := log.New(log.Config{Level: settings.LogLevel, Encoding: settings.LogEncoding})
				if err != nil {
					return clierr.Wrap(clierr.CodeUsage, "configure logging", err)
				}
				s.logger = logger
			}
			return s.ensureEngine()
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	cmd.PersistentFlags().StringVar(&s.flags.ConfigPath, "config", "", "Path to config file")
	cmd.PersistentFlags().BoolVar(&s.flags.Plain, "plain", false, "Plain text output instead of JSON")
	cmd.PersistentFlags().StringVar(&s.flags.EnableCommands, "enable-commands", "", "Comma-separated command allow-list")
	cmd.PersistentFlags().StringVar(&s.flags.Timeout, "timeout", "", "Per-command timeout (e.g. 10s)")
	cmd.PersistentFlags().IntVar(&s.flags.Retries, "retries", -1, "HTTP retry count for quote requests")
	cmd.PersistentFlags().StringVar(&s.flags.QuoteURL, "quote-url", "", "Quote service base URL (defaults to built-in tables)")
	cmd.PersistentFlags().StringVar(&s.flags.VenueFile, "venue-file", "", "YAML venue configuration override")
	cmd.PersistentFlags().StringVar(&s.flags.LogLevel, "log-level", "", "Log level (debug|info|warn|error)")

	s.addBudgetCommands(cmd)
	s.addRouteCommands(cmd)
	s.addRegistryCommands(cmd)
	s.addSchemaCommand(cmd)
	s.addVersionCommand(cmd)
	return cmd
}

// ensureEngine builds the registry, quote provider, budget store, and router
// once per process.
func (s *runtimeState) ensureEngine() error {
	if s.router != nil {
		return nil
	}

	reg := registry.Default()
	if path := strings.TrimSpace(s.settings.VenueFilePath); path != "" {
		loaded, err := registry.FromFile(path)
		if err != nil {
			return clierr.Wrap(clierr.CodeUsage, "load venue file", err)
		}
		reg = loaded
	}
	if s.settings.ReferenceFeeSet {
		reg.SetReferenceFeePercent(s.settings.ReferenceFeePercent)
	}
	s.registry = reg

	if url := strings.TrimSpace(s.settings.QuoteServiceURL); url != "" {
		s.quotes = quote.NewHTTP(httpx.New(s.settings.Timeout, s.settings.Retries), url)
	} else {
		s.quotes = quote.NewStatic(reg)
	}

	var persister budget.Persister
	sqlite, err := budget.OpenSQLite(s.settings.BudgetDBPath, s.settings.BudgetLockPath)
	if err != nil {
		// Budgets degrade to in-memory presets when storage is unreachable.
		s.logger.Warn("open budget store failed, budgets will not persist", zap.Error(err))
	} else {
		s.budgetSQLite = sqlite
		persister = sqlite
	}
	s.budgets = budget.NewStore(persister, s.logger)

	gen := route.NewGenerator(s.quotes, reg, s.logger)
	scorer := route.NewScorer(reg)
	s.router = route.NewRouter(s.budgets, gen, scorer, s.logger)
	return nil
}

func (s *runtimeState) ensureRecordStore() error {
	if s.recordStore != nil {
		return nil
	}
	store, err := execution.OpenStore(s.settings.RecordDBPath, s.settings.RecordLockPath)
	if err != nil {
		return clierr.Wrap(clierr.CodeInternal, "open execution record store", err)
	}
	s.recordStore = store
	return nil
}

func (s *runtimeState) shutdown() {
	if s.budgets != nil {
		s.budgets.Flush()
	}
	if s.budgetSQLite != nil {
		_ = s.budgetSQLite.Close()
	}
	if s.recordStore != nil {
		_ = s.recordStore.Close()
	}
	if s.logger != nil {
		_ = s.logger.Sync()
	}
}

func (s *runtimeState) emitSuccess(data any) error {
	env := model.Envelope{
		Version:   model.EnvelopeVersion,
		Success:   true,
		Data:      data,
		Warnings:  s.lastWarnings,
		RequestID: newRequestID(),
		Command:   s.lastCommand,
		Timestamp: s.runner.now().UTC(),
	}
	return out.Render(s.runner.stdout, env, s.settings)
}

func (s *runtimeState) renderError(err error) {
	code := clierr.CodeInternal
	if typed, ok := clierr.As(err); ok {
		code = typed.Code
	}
	env := model.Envelope{
		Version:   model.EnvelopeVersion,
		Success:   false,
		Error:     &model.ErrorBody{Code: int(code), Message: err.Error()},
		Warnings:  s.lastWarnings,
		RequestID: newRequestID(),
		Command:   s.lastCommand,
		Timestamp: s.runner.now().UTC(),
	}
	settings := s.settings
	if settings.OutputMode == "" {
		settings.OutputMode = "json"
	}
	_ = out.Render(s.runner.stdout, env, settings)
}

func (s *runtimeState) addSchemaCommand(root *cobra.Command) {
	schemaCmd := &cobra.Command{
		Use:   "schema [command path]",
		Short: "Describe the CLI surface as JSON",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			built, err := schema.Build(s.root, strings.Join(args, " "))
			if err != nil {
				return clierr.Wrap(clierr.CodeUsage, "build schema", err)
			}
			return s.emitSuccess(built)
		},
	}
	root.AddCommand(schemaCmd)
}

func (s *runtimeState) addVersionCommand(root *cobra.Command) {
	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return s.emitSuccess(map[string]string{
				"name":    version.CLIName,
				"version": version.Long(),
			})
		},
	}
	root.AddCommand(versionCmd)
}

func (s *runtimeState) commandContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	return context.WithTimeout(parent, s.settings.Timeout)
}

func trimRootPath(commandPath string) string {
	parts := strings.Fields(commandPath)
	if len(parts) <= 1 {
		return ""
	}
	return strings.Join(parts[1:], " ")
}

func newRequestID() string { return newID("req") }

func newID(prefix string) string {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		return prefix + "-unknown"
	}
	return prefix + "-" + hex.EncodeToString(buf)
}
