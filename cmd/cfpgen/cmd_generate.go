package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kingrea/cfpgen/internal/export"
	"github.com/kingrea/cfpgen/internal/ideas"
	"github.com/kingrea/cfpgen/internal/profile"
	"github.com/kingrea/cfpgen/internal/workbench"
)

type generateOptions struct {
	profileFile string
	name        string
	expertise   []string
	projects    []string
	interests   []string
	audience    string
	conference  string
	track       string
	format      string
	count       int
	seed        uint64
	output      string
	outFormat   string
}

func newGenerateCmd(e *env) *cobra.Command {
	opts := &generateOptions{}
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate ideas from flags without prompting",
		Example: `  cfpgen generate --name "Jane Doe" --expertise Go,Kubernetes \
    --projects "migrated billing to Go" --conference KubeCon --track Observability
  cfpgen generate --expertise Python --output-format json --output ideas.json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(cmd, e, opts)
		},
	}
	f := cmd.Flags()
	f.StringVar(&opts.profileFile, "profile", "", "load the speaker from a YAML file or a markdown export; other flags override it")
	f.StringVar(&opts.name, "name", "", "speaker name (default \"Speaker\")")
	f.StringSliceVar(&opts.expertise, "expertise", nil, "areas of expertise, comma separated")
	f.StringSliceVar(&opts.projects, "projects", nil, "recent projects or experiences, comma separated")
	f.StringSliceVar(&opts.interests, "interests", nil, "topics you are passionate about, comma separated")
	f.StringVar(&opts.audience, "audience", "", "beginners, intermediate, advanced or mixed (default from config)")
	f.StringVar(&opts.conference, "conference", "", "conference name from `cfpgen conferences` (default custom)")
	f.StringVar(&opts.track, "track", "", "conference track, or a free-form theme for custom conferences")
	f.StringVar(&opts.format, "format", "", "session format (default: the conference's first format)")
	f.IntVarP(&opts.count, "count", "n", 0, fmt.Sprintf("number of ideas, %d-%d (default from config)", ideas.MinCount, ideas.MaxCount))
	f.Uint64Var(&opts.seed, "seed", 0, "seed for repeatable output (0 picks a random seed)")
	f.StringVarP(&opts.output, "output", "o", "", "write to this file instead of stdout")
	f.StringVar(&opts.outFormat, "output-format", string(export.FormatText), "text, markdown or json")
	return cmd
}

func runGenerate(cmd *cobra.Command, e *env, opts *generateOptions) error {
	ctx := cmd.Context()
	outFormat, err := export.ParseFormat(opts.outFormat)
	if err != nil {
		return err
	}
	speaker, err := opts.profile(cmd, e)
	if err != nil {
		return err
	}
	count := opts.count
	if count == 0 {
		count = e.cfg.File.Defaults.IdeaCount
	}

	benchOpts := []workbench.Option{workbench.WithDefaultTopics()}
	if opts.seed != 0 {
		benchOpts = append(benchOpts, workbench.WithGenerator(ideas.NewSeededGenerator(opts.seed)))
	}
	bench := e.workbench(benchOpts...)
	sess, err := bench.Generate(ctx, speaker, count)
	if err != nil {
		return err
	}
	doc, err := bench.Export(ctx, sess.ID, outFormat)
	if err != nil {
		return err
	}
	if opts.output == "" || opts.output == "-" {
		_, err := cmd.OutOrStdout().Write(doc.Body)
		return err
	}
	if err := export.WriteFile(opts.output, doc.Body); err != nil {
		return err
	}
	e.logger.Info("ideas saved", zap.String("path", opts.output), zap.String("session", sess.ID))
	fmt.Fprintf(cmd.ErrOrStderr(), "✅ Saved %d idea(s) to %s\n", len(sess.Ideas), opts.output)
	return nil
}

// profile validates the flags against the catalogue and fills in the
// configured defaults. Values from --profile apply unless the matching flag
// was set.
func (o *generateOptions) profile(cmd *cobra.Command, e *env) (profile.Profile, error) {
	base := profile.Profile{}
	if o.profileFile != "" {
		loaded, err := export.ReadProfile(o.profileFile)
		if err != nil {
			return profile.Profile{}, err
		}
		base = loaded
	}
	changed := cmd.Flags().Changed
	pick := func(flag, value, fallback string) string {
		if changed(flag) || fallback == "" {
			return value
		}
		return fallback
	}
	pickList := func(flag string, value, fallback []string) []string {
		if changed(flag) || len(fallback) == 0 {
			return value
		}
		return fallback
	}

	conference := pick("conference", o.conference, base.Conference)
	track := pick("track", o.track, base.Track)
	format := pick("format", o.format, string(base.Format))
	if changed("conference") {
		// The loaded track and format belong to the old conference.
		track, format = o.track, o.format
	}
	if format == "" && conference == "" {
		format = string(e.cfg.DefaultFormat())
	}
	sel, err := e.cfg.Catalog().Resolve(conference, track, format)
	if err != nil {
		return profile.Profile{}, err
	}
	audience := e.cfg.DefaultAudience()
	if base.Audience != "" {
		audience = base.Audience
	}
	if changed("audience") && strings.TrimSpace(o.audience) != "" {
		audience = profile.Audience(strings.ToLower(strings.TrimSpace(o.audience)))
		if profile.ParseAudience(string(audience)) != audience {
			return profile.Profile{}, fmt.Errorf("unknown audience %q", o.audience)
		}
	}
	p := profile.Profile{
		Name:       pick("name", o.name, base.Name),
		Expertise:  pickList("expertise", o.expertise, base.Expertise),
		Projects:   pickList("projects", o.projects, base.Projects),
		Interests:  pickList("interests", o.interests, base.Interests),
		Audience:   audience,
		Conference: sel.Conference,
		Track:      sel.Track,
		Format:     sel.Format,
	}
	p.Normalize()
	return p, nil
}
