package ideas

import "github.com/kingrea/cfpgen/internal/profile"

var defaultTopics = []string{"technology", "software development", "best practices"}

var angles = []string{
	"lessons learned from",
	"the unexpected benefits of",
	"common mistakes in",
	"a beginner's journey into",
	"scaling challenges with",
	"the future of",
	"demystifying",
	"beyond the basics of",
	"real-world applications of",
	"the hidden complexity of",
	"rethinking",
	"what nobody tells you about",
	"a deep dive into",
	"practical tips for",
	"the evolution of",
}

// Placeholders: {topic}, {duration}, {artifact}.
var formatTemplates = map[profile.Format][]string{
	profile.FormatTalk: {
		"A {duration}-minute exploration of {topic}",
		"Case study: {topic}",
		"From zero to hero: {topic}",
		"{topic}: A practitioner's perspective",
		"The art and science of {topic}",
	},
	profile.FormatWorkshop: {
		"Hands-on {topic}: Build your first {artifact}",
		"Workshop: Mastering {topic} in 90 minutes",
		"Interactive session: {topic} for teams",
		"From theory to practice: {topic} workshop",
		"Build, break, learn: {topic}",
	},
	profile.FormatTutorial: {
		"Tutorial: {topic} from scratch",
		"Step-by-step guide to {topic}",
		"Building with {topic}: A hands-on tutorial",
		"{topic} bootcamp",
	},
	profile.FormatLightning: {
		"5 things I wish I knew about {topic}",
		"{topic} in 5 minutes",
		"Quick wins with {topic}",
		"The one thing about {topic} that changed everything",
		"{topic}: A lightning tour",
	},
	profile.FormatChalkTalk: {
		"Architecture deep dive: {topic}",
		"Whiteboard session: Designing {topic}",
		"Interactive discussion: {topic} patterns",
	},
	profile.FormatPoster: {
		"Visualizing {topic}",
		"{topic}: A visual guide",
	},
}

var connectors = []string{
	"meets",
	"for",
	"in the age of",
	"through the lens of",
	"powered by",
	"without",
	"beyond",
	"reimagined with",
}

var storyOpeners = []string{"How we", "Why we", "What we learned when we", "The story of how we"}

var audienceHooks = map[profile.Audience][]string{
	profile.AudienceBeginners:    {"getting started", "fundamentals", "first steps", "introduction to"},
	profile.AudienceIntermediate: {"leveling up", "best practices", "patterns and antipatterns", "practical"},
	profile.AudienceAdvanced:     {"deep dive", "internals", "edge cases", "advanced techniques"},
	profile.AudienceMixed:        {"for everyone", "from basics to advanced", "comprehensive guide", "all levels"},
}

var talkDurations = []int{30, 45}

const otherDuration = 90
