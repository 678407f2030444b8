// Package export renders generated ideas into downloadable documents.
package export

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/renameio/v2"

	"github.com/kingrea/cfpgen/internal/ideas"
	"github.com/kingrea/cfpgen/internal/profile"
)

// Format selects the document type.
type Format string

const (
	FormatText     Format = "text"
	FormatMarkdown Format = "markdown"
	FormatJSON     Format = "json"
)

// Formats lists the supported document types.
var Formats = []Format{FormatText, FormatMarkdown, FormatJSON}

// ParseFormat accepts the format name or its file extension.
func ParseFormat(value string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "text", "txt":
		return FormatText, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	case "json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("export: unknown format %q", value)
	}
}

// Ext returns the file extension without the dot.
func (f Format) Ext() string {
	switch f {
	case FormatMarkdown:
		return "md"
	case FormatJSON:
		return "json"
	default:
		return "txt"
	}
}

// ContentType returns the MIME type served for the format.
func (f Format) ContentType() string {
	switch f {
	case FormatMarkdown:
		return "text/markdown; charset=utf-8"
	case FormatJSON:
		return "application/json"
	default:
		return "text/plain; charset=utf-8"
	}
}

// AbstractFunc returns the abstract to print for idea i.
type AbstractFunc func(i int, idea ideas.Idea) string

// Render produces the document for the given format.
func Render(format Format, list []ideas.Idea, p profile.Profile, abstractFor AbstractFunc) ([]byte, error) {
	switch format {
	case FormatText, "":
		return Text(list, p, abstractFor), nil
	case FormatMarkdown:
		return Markdown(list, p, abstractFor)
	case FormatJSON:
		return JSON(list, p, abstractFor)
	default:
		return nil, fmt.Errorf("export: unknown format %q", format)
	}
}

// Text is the plain text layout used by both the terminal save and the
// HTTP download.
func Text(list []ideas.Idea, p profile.Profile, abstractFor AbstractFunc) []byte {
	var b bytes.Buffer
	fmt.Fprintf(&b, "CFP Ideas for %s\n", p.Name)
	fmt.Fprintf(&b, "Format: %s | Audience: %s\n", p.Format, p.Audience)
	if p.Conference != "" {
		fmt.Fprintf(&b, "Conference: %s\n", p.Conference)
	}
	if p.Track != "" {
		fmt.Fprintf(&b, "Track: %s\n", p.Track)
	}
	b.WriteString(strings.Repeat("=", 50) + "\n\n")
	for i, idea := range list {
		fmt.Fprintf(&b, "Idea #%d: %s\n", i+1, idea.Title)
		fmt.Fprintf(&b, "Type: %s | Topic: %s\n", idea.Type, idea.Topic)
		fmt.Fprintf(&b, "Abstract: %s\n\n", abstract(abstractFor, i, idea))
	}
	return b.Bytes()
}

// Markdown renders the ideas as a markdown document. The speaker profile is
// kept in a YAML front matter block so the file can seed a later run.
func Markdown(list []ideas.Idea, p profile.Profile, abstractFor AbstractFunc) ([]byte, error) {
	var b bytes.Buffer
	fmt.Fprintf(&b, "# CFP Ideas for %s\n\n", p.Name)
	fmt.Fprintf(&b, "- **Format:** %s\n", p.Format.Label())
	fmt.Fprintf(&b, "- **Audience:** %s\n", p.Audience.Label())
	if p.Conference != "" {
		fmt.Fprintf(&b, "- **Conference:** %s\n", p.Conference)
	}
	if p.Track != "" {
		fmt.Fprintf(&b, "- **Track:** %s\n", p.Track)
	}
	for i, idea := range list {
		fmt.Fprintf(&b, "\n## %d. %s\n\n", i+1, idea.Title)
		fmt.Fprintf(&b, "_%s · %s_\n\n", idea.Type, idea.Topic)
		fmt.Fprintf(&b, "%s\n", abstract(abstractFor, i, idea))
	}
	return WriteFrontMatter(Meta{Profile: p, Ideas: len(list)}, b.Bytes())
}

type jsonIdea struct {
	Index    int        `json:"index"`
	Title    string     `json:"title"`
	Type     ideas.Kind `json:"type"`
	Topic    string     `json:"topic"`
	Abstract string     `json:"abstract"`
}

type jsonDocument struct {
	Speaker    string           `json:"speaker"`
	Format     profile.Format   `json:"format"`
	Audience   profile.Audience `json:"audience"`
	Conference string           `json:"conference,omitempty"`
	Track      string           `json:"track,omitempty"`
	Ideas      []jsonIdea       `json:"ideas"`
}

// JSON renders the ideas as an indented JSON document.
func JSON(list []ideas.Idea, p profile.Profile, abstractFor AbstractFunc) ([]byte, error) {
	doc := jsonDocument{
		Speaker:    p.Name,
		Format:     p.Format,
		Audience:   p.Audience,
		Conference: p.Conference,
		Track:      p.Track,
		Ideas:      make([]jsonIdea, 0, len(list)),
	}
	for i, idea := range list {
		doc.Ideas = append(doc.Ideas, jsonIdea{
			Index:    i + 1,
			Title:    idea.Title,
			Type:     idea.Type,
			Topic:    idea.Topic,
			Abstract: abstract(abstractFor, i, idea),
		})
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("export: encode json: %w", err)
	}
	return append(data, '\n'), nil
}

// Filename returns cfp_ideas_<speaker>.<ext>.
func Filename(name string, format Format) string {
	return fmt.Sprintf("cfp_ideas_%s.%s", profile.Slug(name), format.Ext())
}

// WriteFile atomically replaces path with data, creating parent directories.
func WriteFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("export: ensure dir: %w", err)
	}
	pending, err := renameio.NewPendingFile(path, renameio.WithPermissions(0o644))
	if err != nil {
		return fmt.Errorf("export: create pending file: %w", err)
	}
	defer func() { _ = pending.Cleanup() }()
	if _, err := pending.Write(data); err != nil {
		return fmt.Errorf("export: write %s: %w", path, err)
	}
	if err := pending.CloseAtomicallyReplace(); err != nil {
		return fmt.Errorf("export: replace %s: %w", path, err)
	}
	return nil
}

func abstract(fn AbstractFunc, i int, idea ideas.Idea) string {
	if fn == nil {
		return ""
	}
	return fn(i, idea)
}
