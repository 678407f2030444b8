// Package ideas turns a speaker profile into CFP title ideas and drafts the
// supporting text (abstract, takeaways, fit reasons) for each one.
package ideas

import (
	"fmt"
	"math/rand/v2"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/kingrea/cfpgen/internal/profile"
)

// Kind names the strategy that produced an idea.
type Kind string

const (
	KindAngle      Kind = "angle-based"
	KindCross      Kind = "cross-pollination"
	KindExperience Kind = "experience-based"
	KindFormat     Kind = "format-specific"
	KindAudience   Kind = "audience-targeted"
	KindTrack      Kind = "track-aligned"
)

// Kinds lists every strategy in generation order.
var Kinds = []Kind{KindAngle, KindCross, KindExperience, KindFormat, KindAudience, KindTrack}

const (
	// MinCount and MaxCount bound how many ideas one request may produce.
	MinCount = 1
	MaxCount = 20
	// DefaultCount is used when the caller does not ask for a specific number.
	DefaultCount = 8

	maxTrackTopics       = 3
	maxProjectIdeas      = 3
	topUpAttemptsPerIdea = 25
)

// Idea is a single CFP title suggestion.
type Idea struct {
	Title string `json:"title"`
	Type  Kind   `json:"type"`
	Topic string `json:"topic"`
}

// ClampCount forces n into [MinCount, MaxCount].
func ClampCount(n int) int {
	return min(max(n, MinCount), MaxCount)
}

// Generator produces ideas from a seeded random source. It is safe for
// concurrent use.
type Generator struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewGenerator returns a generator seeded from the clock.
func NewGenerator() *Generator {
	return NewSeededGenerator(uint64(time.Now().UnixNano()))
}

// NewSeededGenerator returns a deterministic generator for the given seed.
func NewSeededGenerator(seed uint64) *Generator {
	return &Generator{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

// Generate returns up to count unique ideas for the profile. count is
// clamped to [MinCount, MaxCount].
func (g *Generator) Generate(p profile.Profile, count int) []Idea {
	count = ClampCount(count)
	g.mu.Lock()
	defer g.mu.Unlock()

	topics := p.Topics()
	if len(topics) == 0 {
		topics = defaultTopics
	}
	out := g.candidates(p, topics, count)
	g.rng.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })

	seen := make(map[string]struct{}, len(out))
	unique := make([]Idea, 0, len(out))
	add := func(idea Idea) {
		key := strings.ToLower(idea.Title)
		if _, dup := seen[key]; dup {
			return
		}
		seen[key] = struct{}{}
		unique = append(unique, idea)
	}
	for _, idea := range out {
		add(idea)
	}
	for attempt := 0; len(unique) < count && attempt < count*topUpAttemptsPerIdea; attempt++ {
		if attempt%2 == 0 {
			add(g.angleIdea(topics))
		} else {
			add(g.formatIdea(topics, p.Format))
		}
	}
	if len(unique) > count {
		unique = unique[:count]
	}
	return unique
}

// candidates builds the unshuffled pool every strategy contributes to.
// Callers hold g.mu.
func (g *Generator) candidates(p profile.Profile, topics []string, count int) []Idea {
	var out []Idea
	for range count/3 + 1 {
		out = append(out, g.angleIdea(topics))
	}
	if len(topics) >= 2 {
		for range count/3 + 1 {
			out = append(out, g.crossIdea(topics))
		}
	}
	for _, project := range p.Projects[:min(len(p.Projects), maxProjectIdeas)] {
		out = append(out, Idea{
			Title: g.pick(storyOpeners) + " " + project,
			Type:  KindExperience,
			Topic: project,
		})
	}
	for range count/4 + 1 {
		out = append(out, g.formatIdea(topics, p.Format))
	}
	hooks, ok := audienceHooks[p.Audience]
	if !ok {
		hooks = audienceHooks[profile.AudienceMixed]
	}
	for range count/4 + 1 {
		topic := g.pick(topics)
		out = append(out, Idea{
			Title: titleCase(topic) + ": " + titleCase(g.pick(hooks)),
			Type:  KindAudience,
			Topic: topic,
		})
	}
	if p.Track != "" {
		for _, topic := range topics[:min(len(topics), maxTrackTopics)] {
			out = append(out,
				Idea{Title: fmt.Sprintf("%s for %s", titleCase(topic), p.Track), Type: KindTrack, Topic: topic},
				Idea{Title: fmt.Sprintf("%s: A %s Perspective", p.Track, titleCase(topic)), Type: KindTrack, Topic: topic},
			)
		}
	}
	return out
}

func (g *Generator) angleIdea(topics []string) Idea {
	topic := g.pick(topics)
	return Idea{Title: titleCase(g.pick(angles)) + " " + topic, Type: KindAngle, Topic: topic}
}

func (g *Generator) crossIdea(topics []string) Idea {
	perm := g.rng.Perm(len(topics))
	a, b := topics[perm[0]], topics[perm[1]]
	return Idea{
		Title: fmt.Sprintf("%s %s %s", titleCase(a), g.pick(connectors), b),
		Type:  KindCross,
		Topic: a + " + " + b,
	}
}

func (g *Generator) formatIdea(topics []string, format profile.Format) Idea {
	templates, ok := formatTemplates[format]
	if !ok {
		templates = formatTemplates[profile.FormatTalk]
	}
	topic := g.pick(topics)
	duration := otherDuration
	if format == profile.FormatTalk {
		duration = talkDurations[g.rng.IntN(len(talkDurations))]
	}
	title := strings.NewReplacer(
		"{topic}", topic,
		"{duration}", strconv.Itoa(duration),
		"{artifact}", topic+" project",
	).Replace(g.pick(templates))
	return Idea{Title: title, Type: KindFormat, Topic: topic}
}

func (g *Generator) pick(items []string) string {
	return items[g.rng.IntN(len(items))]
}

// titleCase upper-cases the first letter of every word and lowers the rest.
func titleCase(s string) string {
	return cases.Title(language.English).String(s)
}
