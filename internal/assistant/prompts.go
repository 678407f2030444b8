package assistant

import (
	"fmt"
	"strings"

	"github.com/kingrea/cfpgen/internal/profile"
)

const notSpecified = "Not specified"

// SystemPrompt frames the assistant as a CFP coach for this idea and speaker.
func SystemPrompt(title string, p profile.Profile) string {
	conference := p.Conference
	if conference == "" {
		conference = notSpecified
	}
	track := p.Track
	if track == "" {
		track = notSpecified
	}
	expertise := strings.Join(p.Expertise, ", ")
	if expertise == "" {
		expertise = notSpecified
	}
	return fmt.Sprintf(`You are a helpful CFP (Call for Papers) writing assistant.
You're helping a speaker named %s develop their conference talk idea.

Talk Details:
- Title: %s
- Format: %s
- Target Audience: %s
- Conference: %s
- Track: %s
- Speaker's Expertise: %s

Help them refine their abstract, develop talking points, suggest examples,
and improve their submission. Be encouraging but also provide constructive feedback.`,
		p.Name, title, p.Format, p.Audience, conference, track, expertise)
}

// QuickKind names a canned request.
type QuickKind string

const (
	QuickImproveAbstract QuickKind = "improve-abstract"
	QuickSuggestExamples QuickKind = "suggest-examples"
	QuickSharpenFocus    QuickKind = "sharpen-focus"
	QuickAnticipateQA    QuickKind = "anticipate-qa"
)

// QuickKinds lists the canned requests in menu order.
var QuickKinds = []QuickKind{QuickImproveAbstract, QuickSuggestExamples, QuickSharpenFocus, QuickAnticipateQA}

// Label is the button text for the request.
func (k QuickKind) Label() string {
	switch k {
	case QuickImproveAbstract:
		return "Improve my abstract"
	case QuickSuggestExamples:
		return "Suggest examples"
	case QuickSharpenFocus:
		return "Sharpen the focus"
	case QuickAnticipateQA:
		return "Anticipate Q&A"
	}
	return string(k)
}

// ParseQuickKind validates a quick prompt name.
func ParseQuickKind(value string) (QuickKind, bool) {
	value = strings.ToLower(strings.TrimSpace(value))
	for _, k := range QuickKinds {
		if string(k) == value {
			return k, true
		}
	}
	return "", false
}

// QuickPrompt renders the user message for a canned request.
func QuickPrompt(kind QuickKind, title, abstract string) (string, error) {
	switch kind {
	case QuickImproveAbstract:
		return fmt.Sprintf("Please help me improve this abstract for my talk '%s': %s", title, abstract), nil
	case QuickSuggestExamples:
		return fmt.Sprintf("What are some good real-world examples or case studies I could include in my talk about '%s'?", title), nil
	case QuickSharpenFocus:
		return fmt.Sprintf("How can I make my talk '%s' more focused and impactful? What should I cut or emphasize?", title), nil
	case QuickAnticipateQA:
		return fmt.Sprintf("What questions might the audience ask after my talk on '%s'? How should I prepare to answer them?", title), nil
	}
	return "", fmt.Errorf("assistant: unknown quick prompt %q", kind)
}
