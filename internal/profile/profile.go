// Package profile describes the speaker the ideas are generated for.
package profile

import (
	"strings"
)

// Format is the session format a speaker is pitching.
type Format string

const (
	FormatTalk      Format = "talk"
	FormatWorkshop  Format = "workshop"
	FormatTutorial  Format = "tutorial"
	FormatLightning Format = "lightning"
	FormatChalkTalk Format = "chalk talk"
	FormatPoster    Format = "poster"
)

// Formats lists every known format in display order.
var Formats = []Format{FormatTalk, FormatWorkshop, FormatTutorial, FormatLightning, FormatChalkTalk, FormatPoster}

// ParseFormat matches a format name case-insensitively. Hyphens and underscores
// are accepted in place of the space in "chalk talk".
func ParseFormat(value string) (Format, bool) {
	norm := strings.ToLower(strings.TrimSpace(value))
	norm = strings.NewReplacer("-", " ", "_", " ").Replace(norm)
	for _, f := range Formats {
		if string(f) == norm {
			return f, true
		}
	}
	return "", false
}

// Label returns the capitalised form used in menus ("Chalk Talk").
func (f Format) Label() string {
	return titleWords(string(f))
}

// Audience is the experience level a talk targets.
type Audience string

const (
	AudienceBeginners    Audience = "beginners"
	AudienceIntermediate Audience = "intermediate"
	AudienceAdvanced     Audience = "advanced"
	AudienceMixed        Audience = "mixed"
)

// Audiences lists the levels in menu order (1-4).
var Audiences = []Audience{AudienceBeginners, AudienceIntermediate, AudienceAdvanced, AudienceMixed}

// ParseAudience returns the audience named by value, falling back to mixed.
func ParseAudience(value string) Audience {
	norm := Audience(strings.ToLower(strings.TrimSpace(value)))
	for _, a := range Audiences {
		if a == norm {
			return a
		}
	}
	return AudienceMixed
}

// AudienceFromChoice maps a 1-based menu choice to an audience. Empty input
// and anything out of range yield mixed.
func AudienceFromChoice(choice string) Audience {
	switch strings.TrimSpace(choice) {
	case "1":
		return AudienceBeginners
	case "2":
		return AudienceIntermediate
	case "3":
		return AudienceAdvanced
	default:
		return AudienceMixed
	}
}

// Label returns the capitalised audience name.
func (a Audience) Label() string {
	return titleWords(string(a))
}

// DefaultName is used when the speaker leaves their name blank.
const DefaultName = "Speaker"

// Profile is everything the generator knows about the speaker and target event.
type Profile struct {
	Name       string   `json:"name" yaml:"name"`
	Expertise  []string `json:"expertise" yaml:"expertise"`
	Projects   []string `json:"projects" yaml:"projects"`
	Interests  []string `json:"interests" yaml:"interests"`
	Audience   Audience `json:"audience" yaml:"audience"`
	Conference string   `json:"conference,omitempty" yaml:"conference,omitempty"`
	Track      string   `json:"track,omitempty" yaml:"track,omitempty"`
	Format     Format   `json:"format" yaml:"format"`
}

// Normalize trims every field and fills in the defaults.
func (p *Profile) Normalize() {
	p.Name = strings.TrimSpace(p.Name)
	if p.Name == "" {
		p.Name = DefaultName
	}
	p.Expertise = cleanList(p.Expertise)
	p.Projects = cleanList(p.Projects)
	p.Interests = cleanList(p.Interests)
	p.Audience = ParseAudience(string(p.Audience))
	p.Conference = strings.TrimSpace(p.Conference)
	p.Track = strings.TrimSpace(p.Track)
	if f, ok := ParseFormat(string(p.Format)); ok {
		p.Format = f
	} else if strings.TrimSpace(string(p.Format)) == "" {
		p.Format = FormatTalk
	}
}

// Topics returns expertise areas followed by interests.
func (p Profile) Topics() []string {
	out := make([]string, 0, len(p.Expertise)+len(p.Interests))
	out = append(out, p.Expertise...)
	out = append(out, p.Interests...)
	return out
}

// HasTopics reports whether the speaker entered any expertise or interests.
func (p Profile) HasTopics() bool {
	return len(p.Expertise)+len(p.Interests) > 0
}

// ParseList splits comma separated input, trimming entries and dropping empties.
func ParseList(input string) []string {
	parts := strings.Split(input, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// Slug lowercases the name and replaces spaces with underscores.
func Slug(name string) string {
	return strings.ReplaceAll(strings.ToLower(name), " ", "_")
}

func cleanList(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if trimmed := strings.TrimSpace(v); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func titleWords(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
