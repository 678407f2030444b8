// cmd/cfpgen/main.go
//
// This is the entry point for the cfpgen CLI.
// Running `cfpgen` with no subcommand starts the terminal wizard; the
// subcommands cover the line-oriented prompt, one-shot generation, the HTTP
// API and a few read-only listings.

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kingrea/cfpgen/internal/assistant"
	"github.com/kingrea/cfpgen/internal/config"
	"github.com/kingrea/cfpgen/internal/history"
	"github.com/kingrea/cfpgen/internal/logging"
	"github.com/kingrea/cfpgen/internal/workbench"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "❌ Error: %v\n", err)
		os.Exit(1)
	}
}

// env is the state shared by every command once PersistentPreRunE has run.
type env struct {
	dir     string
	verbose bool

	cfg     *config.Config
	logger  *zap.Logger
	journal *history.Journal
}

func newRootCmd() *cobra.Command {
	e := &env{}
	root := &cobra.Command{
		Use:   "cfpgen",
		Short: "Generate conference talk ideas from your experience",
		Long: `cfpgen turns your expertise, recent projects and interests into
call-for-papers ideas with draft abstracts, takeaways and fit notes for the
conference and track you are targeting.

Run without arguments to start the interactive terminal wizard.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return e.setup(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if e.logger != nil {
				_ = e.logger.Sync()
			}
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(cmd, e)
		},
	}
	root.PersistentFlags().StringVarP(&e.dir, "dir", "C", "", "project directory holding .cfpgen (default: current directory)")
	root.PersistentFlags().BoolVarP(&e.verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(
		newPromptCmd(e),
		newGenerateCmd(e),
		newServeCmd(e),
		newConferencesCmd(e),
		newHistoryCmd(e),
	)
	return root
}

// setup prepares the .cfpgen directory, configuration, logger and journal.
func (e *env) setup(cmd *cobra.Command) error {
	dir := e.dir
	if dir == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("resolve working directory: %w", err)
		}
		dir = cwd
	}
	if err := config.InitDir(dir); err != nil {
		return err
	}
	cfg, err := config.Load(dir)
	if err != nil {
		return err
	}
	e.cfg = cfg

	logger, err := logging.New(cfg.LogsDir(), logging.Options{
		Verbose: e.verbose,
		Console: cmd.Name() == "serve",
	})
	if err != nil {
		return err
	}
	e.logger = logger.With(zap.String("command", cmd.Name()))

	journal, err := history.New(cfg.HistoryPath())
	if err != nil {
		return err
	}
	e.journal = journal
	e.logger.Debug("configuration loaded",
		zap.String("project", cfg.ProjectDir),
		zap.String("config", cfg.Path()),
		zap.String("log", logging.Path(cfg.LogsDir())),
		zap.Bool("assistant", cfg.APIKey != ""))
	return nil
}

// workbench builds a workbench wired to the shared journal, logger and, when
// an API key is present, the chat assistant.
func (e *env) workbench(opts ...workbench.Option) *workbench.Workbench {
	base := []workbench.Option{
		workbench.WithJournal(e.journal),
		workbench.WithLogger(e.logger),
		workbench.WithTTL(e.cfg.File.Sessions.TTL),
	}
	if e.cfg.APIKey != "" {
		client := assistant.NewClient(e.cfg.AssistantConfig(), assistant.WithLogger(e.logger))
		e.logger.Debug("assistant enabled", zap.String("model", client.Model()))
		base = append(base, workbench.WithAssistant(client))
	}
	return workbench.New(append(base, opts...)...)
}
