// Package catalog holds the conferences a speaker can target, with their
// tracks and accepted session formats.
package catalog

import (
	"fmt"
	"strings"

	"github.com/kingrea/cfpgen/internal/profile"
)

// CustomName is the catch-all entry for conferences not in the catalogue.
const CustomName = "Other / Custom"

// Conference is one catalogue entry.
type Conference struct {
	Name    string           `json:"name" yaml:"name"`
	Tracks  []string         `json:"tracks" yaml:"tracks"`
	Formats []profile.Format `json:"formats" yaml:"formats"`
}

// IsCustom reports whether this is the free-form entry.
func (c Conference) IsCustom() bool {
	return strings.EqualFold(c.Name, CustomName)
}

// HasTrack reports whether track is one of the conference's tracks.
func (c Conference) HasTrack(track string) bool {
	for _, t := range c.Tracks {
		if strings.EqualFold(t, strings.TrimSpace(track)) {
			return true
		}
	}
	return false
}

// SupportsFormat reports whether the conference accepts the format.
func (c Conference) SupportsFormat(f profile.Format) bool {
	for _, candidate := range c.Formats {
		if candidate == f {
			return true
		}
	}
	return false
}

// DefaultFormat is the first listed format.
func (c Conference) DefaultFormat() profile.Format {
	if len(c.Formats) == 0 {
		return profile.FormatTalk
	}
	return c.Formats[0]
}

// Catalog is an ordered list of conferences. The custom entry is always last.
type Catalog struct {
	conferences []Conference
}

// New builds a catalogue from the given entries, appending the custom entry
// when it is missing.
func New(entries ...Conference) *Catalog {
	c := &Catalog{}
	var custom *Conference
	for _, e := range entries {
		e := e
		if e.IsCustom() {
			custom = &e
			continue
		}
		c.conferences = append(c.conferences, e)
	}
	if custom == nil {
		custom = &Conference{Name: CustomName, Formats: []profile.Format{profile.FormatTalk, profile.FormatWorkshop, profile.FormatLightning}}
	}
	c.conferences = append(c.conferences, *custom)
	return c
}

// Default returns the built-in catalogue.
func Default() *Catalog {
	return New(builtin()...)
}

// Merge returns a new catalogue with extra entries added before the custom
// entry. Entries sharing a name with an existing conference replace it.
func (c *Catalog) Merge(extra ...Conference) *Catalog {
	merged := make([]Conference, 0, len(c.conferences)+len(extra))
	merged = append(merged, c.conferences...)
	for _, e := range extra {
		e.Name = strings.TrimSpace(e.Name)
		if e.Name == "" {
			continue
		}
		if len(e.Formats) == 0 {
			e.Formats = []profile.Format{profile.FormatTalk}
		}
		replaced := false
		for i := range merged {
			if strings.EqualFold(merged[i].Name, e.Name) {
				merged[i] = e
				replaced = true
				break
			}
		}
		if !replaced {
			merged = append(merged, e)
		}
	}
	return New(merged...)
}

// Len returns the number of entries, custom included.
func (c *Catalog) Len() int { return len(c.conferences) }

// At returns the entry at index i.
func (c *Catalog) At(i int) Conference { return c.conferences[i] }

// All returns a copy of the entries in menu order.
func (c *Catalog) All() []Conference {
	out := make([]Conference, len(c.conferences))
	copy(out, c.conferences)
	return out
}

// Names lists conference names in menu order.
func (c *Catalog) Names() []string {
	names := make([]string, len(c.conferences))
	for i, conf := range c.conferences {
		names[i] = conf.Name
	}
	return names
}

// Custom returns the free-form entry.
func (c *Catalog) Custom() Conference {
	return c.conferences[len(c.conferences)-1]
}

// Lookup finds a conference by name, ignoring case.
func (c *Catalog) Lookup(name string) (Conference, bool) {
	name = strings.TrimSpace(name)
	for _, conf := range c.conferences {
		if strings.EqualFold(conf.Name, name) {
			return conf, true
		}
	}
	return Conference{}, false
}

// Selection is a validated conference/track/format triple. Conference is
// empty when the speaker chose the custom entry.
type Selection struct {
	Conference string
	Track      string
	Format     profile.Format
}

// Resolve validates a conference, track and format. An empty conference
// means the custom entry; an empty format means the conference default.
func (c *Catalog) Resolve(conference, track, format string) (Selection, error) {
	conf := c.Custom()
	if strings.TrimSpace(conference) != "" {
		found, ok := c.Lookup(conference)
		if !ok {
			return Selection{}, fmt.Errorf("catalog: unknown conference %q", conference)
		}
		conf = found
	}
	sel := Selection{Track: strings.TrimSpace(track)}
	if !conf.IsCustom() {
		sel.Conference = conf.Name
		if sel.Track != "" {
			if !conf.HasTrack(sel.Track) {
				return Selection{}, fmt.Errorf("catalog: %s has no track %q", conf.Name, sel.Track)
			}
			for _, t := range conf.Tracks {
				if strings.EqualFold(t, sel.Track) {
					sel.Track = t
				}
			}
		}
	}
	if strings.TrimSpace(format) == "" {
		sel.Format = conf.DefaultFormat()
		return sel, nil
	}
	f, ok := profile.ParseFormat(format)
	if !ok {
		return Selection{}, fmt.Errorf("catalog: unknown format %q", format)
	}
	if !conf.SupportsFormat(f) {
		return Selection{}, fmt.Errorf("catalog: %s does not accept %s sessions", conf.Name, f)
	}
	sel.Format = f
	return sel, nil
}

func builtin() []Conference {
	return []Conference{
		{
			Name: "PyCon US",
			Tracks: []string{
				"Python Language",
				"Web Development",
				"Data Science & ML",
				"DevOps & Infrastructure",
				"Testing & Quality",
				"Community & Education",
				"Security",
			},
			Formats: []profile.Format{profile.FormatTalk, profile.FormatTutorial, profile.FormatLightning, profile.FormatPoster},
		},
		{
			Name: "KubeCon",
			Tracks: []string{
				"Application Development",
				"CI/CD & GitOps",
				"Customization & Extensibility",
				"Observability",
				"Operations & Performance",
				"Platform Engineering",
				"Security & Identity",
				"Serverless & Edge",
			},
			Formats: []profile.Format{profile.FormatTalk, profile.FormatTutorial, profile.FormatLightning},
		},
		{
			Name: "AWS re:Invent",
			Tracks: []string{
				"Architecture",
				"Compute",
				"Containers",
				"Data & Analytics",
				"Databases",
				"DevOps",
				"Machine Learning",
				"Networking",
				"Security",
				"Serverless",
			},
			Formats: []profile.Format{profile.FormatTalk, profile.FormatWorkshop, profile.FormatChalkTalk},
		},
		{
			Name: "Google Cloud Next",
			Tracks: []string{
				"AI & Machine Learning",
				"Application Development",
				"Data Analytics",
				"Infrastructure & Operations",
				"Security",
				"Collaboration & Productivity",
			},
			Formats: []profile.Format{profile.FormatTalk, profile.FormatWorkshop, profile.FormatLightning},
		},
		{
			Name: "Strange Loop",
			Tracks: []string{
				"Programming Languages",
				"Distributed Systems",
				"Databases",
				"Security",
				"Developer Experience",
				"Emerging Technology",
			},
			Formats: []profile.Format{profile.FormatTalk, profile.FormatLightning},
		},
		{
			Name: "DjangoCon",
			Tracks: []string{
				"Django Internals",
				"Web Development",
				"APIs & Services",
				"Testing & Debugging",
				"Deployment & DevOps",
				"Community & Career",
			},
			Formats: []profile.Format{profile.FormatTalk, profile.FormatTutorial, profile.FormatLightning},
		},
		{
			Name: "ReactConf",
			Tracks: []string{
				"React Core",
				"State Management",
				"Performance",
				"Testing",
				"React Native",
				"Tooling & DX",
			},
			Formats: []profile.Format{profile.FormatTalk, profile.FormatLightning},
		},
		{
			Name: "DockerCon",
			Tracks: []string{
				"Container Fundamentals",
				"Docker Compose & Swarm",
				"CI/CD Pipelines",
				"Security & Compliance",
				"Developer Workflows",
				"Production Best Practices",
			},
			Formats: []profile.Format{profile.FormatTalk, profile.FormatWorkshop, profile.FormatLightning},
		},
		{
			Name:    CustomName,
			Formats: []profile.Format{profile.FormatTalk, profile.FormatWorkshop, profile.FormatLightning},
		},
	}
}
