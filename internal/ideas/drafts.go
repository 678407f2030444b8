package ideas

import (
	"fmt"
	"strings"

	"github.com/kingrea/cfpgen/internal/profile"
)

const takeawayCount = 5
const fitReasonCount = 5

// Abstract drafts a short abstract for the title. Conference and track are
// only mentioned when the profile names them.
func (g *Generator) Abstract(title string, p profile.Profile) string {
	lower := strings.ToLower(title)
	var trackMention, confMention string
	if p.Track != "" {
		trackMention = fmt.Sprintf(" in the %s space", p.Track)
	}
	if p.Conference != "" {
		confMention = " at " + p.Conference
	}
	options := []string{
		fmt.Sprintf("In this %s, we'll explore %s%s and share practical insights from real-world experience.", p.Format, lower, trackMention),
		fmt.Sprintf("Join us for an engaging session on %s. Perfect for %s%s.", lower, p.Audience, confMention),
		fmt.Sprintf("This %s covers %s, with actionable takeaways you can apply immediately.", p.Format, lower),
		fmt.Sprintf("Discover the key concepts behind %s and learn how to apply them in your own projects%s.", lower, trackMention),
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.pick(options)
}

// Takeaways samples five distinct learning outcomes for the title.
func (g *Generator) Takeaways(title string, p profile.Profile) []string {
	topic := strings.ToLower(title)
	pool := []string{
		"Understand the core principles of " + topic,
		"Learn practical techniques for implementing " + topic,
		"Identify common pitfalls and how to avoid them",
		"Gain hands-on experience with real-world examples",
		"Develop a framework for evaluating " + topic + " solutions",
		"Discover best practices used by industry leaders",
		"Walk away with actionable steps to apply immediately",
		"Build confidence in working with " + topic,
	}
	switch p.Audience {
	case profile.AudienceBeginners:
		pool = append(pool,
			"Get a solid foundation in fundamental concepts",
			"Learn the essential vocabulary and mental models",
		)
	case profile.AudienceAdvanced:
		pool = append(pool,
			"Explore edge cases and advanced optimization techniques",
			"Deep dive into internals and architecture decisions",
		)
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	perm := g.rng.Perm(len(pool))
	out := make([]string, 0, takeawayCount)
	for _, idx := range perm[:min(takeawayCount, len(pool))] {
		out = append(out, pool[idx])
	}
	return out
}

// FitReasons explains why the idea suits the target event. Conference and
// track reasons come first, then the generic ones, then the format reason.
// Only the first fitReasonCount survive, so the format reason never outranks
// a generic one.
func (g *Generator) FitReasons(_ string, p profile.Profile) []string {
	var reasons []string
	if p.Conference != "" {
		reasons = append(reasons, fmt.Sprintf("Aligns with %s's focus on practical, actionable content", p.Conference))
	}
	if p.Track != "" {
		reasons = append(reasons, fmt.Sprintf("Directly relevant to the %s track", p.Track))
	}
	reasons = append(reasons,
		"Addresses current industry trends and challenges",
		"Provides unique insights from hands-on experience",
		fmt.Sprintf("Suitable for %s audience with clear learning outcomes", p.Audience),
		"Combines theoretical foundation with practical application",
		"Fills a gap in existing conference content",
	)
	switch p.Format {
	case profile.FormatWorkshop, profile.FormatTutorial:
		reasons = append(reasons, "Hands-on format ensures attendees leave with real skills")
	case profile.FormatLightning:
		reasons = append(reasons, "Concise format delivers high-impact insights quickly")
	}
	return reasons[:fitReasonCount]
}
