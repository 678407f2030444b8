// Package prompt runs the line-oriented question and answer flow used by
// `cfpgen prompt`. Every answer is read as one line; end of input counts as an
// empty answer so piped or truncated input still reaches the defaults. Once
// the context is cancelled the remaining questions are skipped.
package prompt

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/kingrea/cfpgen/internal/catalog"
	"github.com/kingrea/cfpgen/internal/export"
	"github.com/kingrea/cfpgen/internal/ideas"
	"github.com/kingrea/cfpgen/internal/profile"
)

const (
	bannerWidth = 60
	ruleWidth   = 40
	ideaWidth   = 50
)

// Prompter asks questions on out and reads answers from in.
type Prompter struct {
	in      *bufio.Reader
	out     io.Writer
	catalog *catalog.Catalog
	ctx     context.Context
	err     error

	defaultAudience profile.Audience
	defaultCount    int
}

// Option customizes a Prompter.
type Option func(*Prompter)

// WithContext stops the flow when ctx is cancelled, even while waiting for
// an answer.
func WithContext(ctx context.Context) Option {
	return func(p *Prompter) {
		if ctx != nil {
			p.ctx = ctx
		}
	}
}

// WithDefaults sets the answers used when the audience or count question is
// left empty.
func WithDefaults(audience profile.Audience, count int) Option {
	return func(p *Prompter) {
		if audience != "" {
			p.defaultAudience = profile.ParseAudience(string(audience))
		}
		if count > 0 {
			p.defaultCount = ideas.ClampCount(count)
		}
	}
}

// New builds a prompter over the given streams. A nil catalogue means the
// built-in one.
func New(in io.Reader, out io.Writer, cat *catalog.Catalog, opts ...Option) *Prompter {
	if cat == nil {
		cat = catalog.Default()
	}
	p := &Prompter{
		in:              bufio.NewReader(in),
		out:             out,
		catalog:         cat,
		ctx:             context.Background(),
		defaultAudience: profile.AudienceMixed,
		defaultCount:    ideas.DefaultCount,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(p)
		}
	}
	return p
}

// Err reports the first read failure other than end of input.
func (p *Prompter) Err() error {
	return p.err
}

// Cancelled reports whether the flow was interrupted.
func (p *Prompter) Cancelled() bool {
	return p.ctx.Err() != nil
}

// SelectConference walks the conference, track and format menus.
func (p *Prompter) SelectConference() catalog.Selection {
	p.println("\n📋 Select a conference (or choose 'Other' for custom):\n")
	confs := p.catalog.All()
	for i, conf := range confs {
		p.printf("  %d. %s\n", i+1, conf.Name)
	}
	conf := p.catalog.Custom()
	choice := p.ask(fmt.Sprintf("\nChoose (1-%d) [%d]: ", len(confs), len(confs)))
	if choice != "" {
		if idx, ok := menuIndex(choice, len(confs)); ok {
			conf = confs[idx]
		}
	}

	var sel catalog.Selection
	if !conf.IsCustom() {
		sel.Conference = conf.Name
	}
	if len(conf.Tracks) > 0 {
		p.printf("\n🎯 Select a track for %s:\n\n", conf.Name)
		for i, t := range conf.Tracks {
			p.printf("  %d. %s\n", i+1, t)
		}
		p.printf("  %d. No specific track\n", len(conf.Tracks)+1)
		choice := p.ask(fmt.Sprintf("\nChoose (1-%d): ", len(conf.Tracks)+1))
		if idx, ok := menuIndex(choice, len(conf.Tracks)); ok {
			sel.Track = conf.Tracks[idx]
		}
	} else {
		p.println("\nEnter your conference theme/track (optional):")
		sel.Track = p.ask("> ")
	}

	formats := conf.Formats
	if len(formats) == 0 {
		formats = []profile.Format{profile.FormatTalk}
	}
	p.println("\n📝 Select talk format:\n")
	for i, f := range formats {
		p.printf("  %d. %s\n", i+1, f.Label())
	}
	sel.Format = formats[0]
	choice = p.ask(fmt.Sprintf("\nChoose (1-%d) [1]: ", len(formats)))
	if idx, ok := menuIndex(choice, len(formats)); ok {
		sel.Format = formats[idx]
	}
	return sel
}

// CollectProfile asks for the speaker's name, target event and background.
func (p *Prompter) CollectProfile() profile.Profile {
	p.println("\n" + strings.Repeat("=", bannerWidth))
	p.println("🎤 CFP Idea Generator - Let's create some talk ideas!")
	p.println(strings.Repeat("=", bannerWidth))

	var out profile.Profile
	out.Name = p.ask("\nYour name: ")
	sel := p.SelectConference()
	out.Conference, out.Track, out.Format = sel.Conference, sel.Track, sel.Format

	p.println("\n" + strings.Repeat("-", ruleWidth))
	p.println("Now tell us about yourself...")
	p.println(strings.Repeat("-", ruleWidth))

	p.println("\nEnter your areas of expertise (comma-separated):")
	p.println("  Example: Python, machine learning, DevOps, databases")
	out.Expertise = profile.ParseList(p.ask("> "))

	p.println("\nRecent projects or experiences you could talk about (comma-separated):")
	p.println("  Example: migrated to microservices, built a CLI tool, led a team")
	out.Projects = profile.ParseList(p.ask("> "))

	p.println("\nTopics you're passionate about (comma-separated):")
	p.println("  Example: open source, mentoring, performance optimization")
	out.Interests = profile.ParseList(p.ask("> "))

	p.println("\nTarget audience level:")
	p.println("  1. Beginners")
	p.println("  2. Intermediate")
	p.println("  3. Advanced")
	p.println("  4. Mixed/All levels")
	out.Audience = p.defaultAudience
	if answer := p.ask(fmt.Sprintf("Choose (1-4) [%d]: ", audienceNumber(p.defaultAudience))); answer != "" {
		out.Audience = profile.AudienceFromChoice(answer)
	}

	out.Normalize()
	return out
}

// AskCount asks how many ideas to generate. Anything that is not a plain
// number falls back to the default; numbers are clamped to the allowed range.
func (p *Prompter) AskCount() int {
	p.printf("\nHow many ideas would you like? (default: %d)\n", p.defaultCount)
	return ParseCount(p.ask("> "), p.defaultCount)
}

// ParseCount applies the count question's rules to a raw answer. Empty or
// non-numeric answers yield fallback.
func ParseCount(answer string, fallback int) int {
	answer = strings.TrimSpace(answer)
	if answer == "" || strings.TrimLeft(answer, "0123456789") != "" {
		return fallback
	}
	n, err := strconv.Atoi(answer)
	if err != nil {
		// Only overflow gets here.
		return ideas.MaxCount
	}
	return ideas.ClampCount(n)
}

// AskSave asks whether to write the ideas to a file. Only "y" confirms.
func (p *Prompter) AskSave() bool {
	p.println("Would you like to save these ideas to a file? (y/N)")
	return strings.EqualFold(p.ask("> "), "y")
}

// Display prints the generated ideas with a draft abstract each, followed by
// refinement tips.
func Display(w io.Writer, list []ideas.Idea, p profile.Profile, abstractFor export.AbstractFunc) {
	banner := strings.Repeat("=", bannerWidth)
	fmt.Fprintln(w, "\n"+banner)
	fmt.Fprintf(w, "🎯 Generated CFP Ideas for %s\n", p.Name)
	fmt.Fprintf(w, "   Format: %s | Audience: %s\n", p.Format.Label(), p.Audience.Label())
	if p.Conference != "" {
		fmt.Fprintf(w, "   Conference: %s\n", p.Conference)
	}
	if p.Track != "" {
		fmt.Fprintf(w, "   Track: %s\n", p.Track)
	}
	fmt.Fprintln(w, banner)

	for i, idea := range list {
		fmt.Fprintf(w, "\n%s\n", strings.Repeat("─", ideaWidth))
		fmt.Fprintf(w, "💡 Idea #%d: %s\n", i+1, idea.Title)
		fmt.Fprintf(w, "   Type: %s | Core topic: %s\n", idea.Type, idea.Topic)
		fmt.Fprintln(w, "\n   📝 Draft abstract:")
		abstract := ""
		if abstractFor != nil {
			abstract = abstractFor(i, idea)
		}
		fmt.Fprintf(w, "   %s\n", abstract)
	}

	fmt.Fprintln(w, "\n"+banner)
	fmt.Fprintln(w, "✨ Tips for refining your CFP:")
	fmt.Fprintln(w, "   • Add a personal story or specific example")
	fmt.Fprintln(w, "   • Include 3-5 key takeaways attendees will learn")
	fmt.Fprintln(w, "   • Mention any demos or hands-on components")
	if p.Conference != "" {
		fmt.Fprintf(w, "   • Tailor language to %s's audience\n", p.Conference)
	}
	fmt.Fprintln(w, banner+"\n")
}

// menuIndex converts a 1-based answer into an index below n.
func menuIndex(answer string, n int) (int, bool) {
	choice, err := strconv.Atoi(strings.TrimSpace(answer))
	if err != nil || choice < 1 || choice > n {
		return 0, false
	}
	return choice - 1, true
}

func audienceNumber(a profile.Audience) int {
	for i, level := range profile.Audiences {
		if level == a {
			return i + 1
		}
	}
	return len(profile.Audiences)
}

type answer struct {
	line string
	err  error
}

// ask prints label and waits for one line. The read runs on its own
// goroutine so a cancelled context is noticed while stdin blocks; after
// cancellation nothing is read again.
func (p *Prompter) ask(label string) string {
	if p.Cancelled() {
		return ""
	}
	p.printf("%s", label)
	ch := make(chan answer, 1)
	go func() {
		line, err := p.in.ReadString('\n')
		ch <- answer{line: line, err: err}
	}()
	select {
	case <-p.ctx.Done():
		return ""
	case a := <-ch:
		if a.err != nil && !errors.Is(a.err, io.EOF) && p.err == nil {
			p.err = fmt.Errorf("prompt: read answer: %w", a.err)
		}
		return strings.TrimSpace(a.line)
	}
}

func (p *Prompter) println(s string) {
	if p.Cancelled() {
		return
	}
	fmt.Fprintln(p.out, s)
}

func (p *Prompter) printf(format string, args ...any) {
	if p.Cancelled() {
		return
	}
	fmt.Fprintf(p.out, format, args...)
}
