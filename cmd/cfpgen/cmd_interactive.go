package main

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kingrea/cfpgen/internal/export"
	"github.com/kingrea/cfpgen/internal/ideas"
	"github.com/kingrea/cfpgen/internal/prompt"
	"github.com/kingrea/cfpgen/internal/tui"
	"github.com/kingrea/cfpgen/internal/workbench"
)

// runTUI starts the bubbletea wizard on the alternate screen.
func runTUI(cmd *cobra.Command, e *env) error {
	ctx := cmd.Context()
	bench := e.workbench(workbench.WithDefaultTopics())
	app, err := tui.NewApp(bench,
		tui.WithContext(ctx),
		tui.WithCatalog(e.cfg.Catalog()),
		tui.WithJournal(e.journal),
		tui.WithExportsDir(e.cfg.ExportsDir()),
		tui.WithDefaults(e.cfg.DefaultAudience(), e.cfg.File.Defaults.IdeaCount),
		tui.WithLogger(e.logger),
	)
	if err != nil {
		return err
	}
	e.logger.Info("tui started")
	p := tea.NewProgram(app, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("run tui: %w", err)
	}
	return nil
}

func newPromptCmd(e *env) *cobra.Command {
	var outputDir string
	cmd := &cobra.Command{
		Use:   "prompt",
		Short: "Answer a few questions on the command line and print ideas",
		Long: `prompt asks the questions one line at a time, prints the generated ideas
with a draft abstract each and offers to save them as a text file.
Blank answers take the default shown in brackets.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPrompt(cmd, e, outputDir)
		},
	}
	cmd.Flags().StringVarP(&outputDir, "output-dir", "o", ".", "directory the saved ideas file is written to")
	return cmd
}

func runPrompt(cmd *cobra.Command, e *env, outputDir string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()
	bench := e.workbench(workbench.WithDefaultTopics())
	goodbye := func() error {
		fmt.Fprintln(out, "\n\nGoodbye! 👋")
		return nil
	}

	p := prompt.New(cmd.InOrStdin(), out, e.cfg.Catalog(),
		prompt.WithContext(ctx),
		prompt.WithDefaults(e.cfg.DefaultAudience(), e.cfg.File.Defaults.IdeaCount),
	)
	speaker := p.CollectProfile()
	count := p.AskCount()
	if p.Cancelled() {
		return goodbye()
	}
	if err := p.Err(); err != nil {
		return err
	}

	sess, err := bench.Generate(ctx, speaker, count)
	if err != nil {
		e.journal.Error("generation failed for %q: %v", speaker.Name, err)
		return err
	}
	prompt.Display(out, sess.Ideas, sess.Profile, detailAbstracts(cmd, bench, sess.ID))

	save := p.AskSave()
	if p.Cancelled() {
		return goodbye()
	}
	if !save {
		return p.Err()
	}
	path, err := saveText(ctx, bench, sess.ID, outputDir)
	if err != nil {
		e.journal.Warn("save failed for session %s: %v", sess.ID, err)
		return err
	}
	e.logger.Info("ideas saved", zap.String("path", path), zap.String("session", sess.ID))
	fmt.Fprintf(out, "✅ Saved to %s\n", path)
	return nil
}

func saveText(ctx context.Context, bench *workbench.Workbench, id, dir string) (string, error) {
	doc, err := bench.Export(ctx, id, export.FormatText)
	if err != nil {
		return "", err
	}
	path := filepath.Join(dir, doc.Filename)
	return path, export.WriteFile(path, doc.Body)
}

// detailAbstracts drafts abstracts through the workbench so the saved file
// matches what was printed.
func detailAbstracts(cmd *cobra.Command, bench *workbench.Workbench, id string) export.AbstractFunc {
	return func(i int, _ ideas.Idea) string {
		view, err := bench.Detail(cmd.Context(), id, i)
		if err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "draft abstract %d: %v\n", i+1, err)
			return ""
		}
		return view.Abstract
	}
}
