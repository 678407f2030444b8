package export

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/kingrea/cfpgen/internal/profile"
)

var (
	// ErrMissingFrontMatter indicates the document did not start with a YAML fence.
	ErrMissingFrontMatter = errors.New("export: missing frontmatter")
	// ErrMalformedFrontMatter indicates the YAML block was not closed.
	ErrMalformedFrontMatter = errors.New("export: malformed frontmatter")
)

// Meta is the front matter of a markdown export.
type Meta struct {
	Profile profile.Profile `yaml:"profile"`
	Ideas   int             `yaml:"ideas"`
}

type envelope struct {
	CFPGen Meta `yaml:"cfpgen"`
}

// WriteFrontMatter renders meta + body with YAML fences.
func WriteFrontMatter(meta Meta, body []byte) ([]byte, error) {
	data, err := yaml.Marshal(envelope{CFPGen: meta})
	if err != nil {
		return nil, fmt.Errorf("export: encode frontmatter: %w", err)
	}
	var buf bytes.Buffer
	buf.WriteString("---\n")
	buf.Write(bytes.TrimRight(data, "\n"))
	buf.WriteString("\n---\n\n")
	buf.Write(body)
	return buf.Bytes(), nil
}

// ParseFrontMatter extracts the metadata block and body from a document that
// starts with `---` YAML fences.
func ParseFrontMatter(content []byte) (Meta, []byte, error) {
	normalized := bytes.ReplaceAll(content, []byte("\r\n"), []byte("\n"))
	if !bytes.HasPrefix(normalized, []byte("---\n")) {
		return Meta{}, nil, ErrMissingFrontMatter
	}
	parts := bytes.SplitN(normalized[4:], []byte("\n---\n"), 2)
	if len(parts) < 2 {
		return Meta{}, nil, ErrMalformedFrontMatter
	}
	var env envelope
	if err := yaml.Unmarshal(parts[0], &env); err != nil {
		return Meta{}, nil, fmt.Errorf("export: parse frontmatter: %w", err)
	}
	return env.CFPGen, bytes.TrimLeft(parts[1], "\n"), nil
}

// ReadProfile loads a speaker profile from path. The file is either a
// markdown export carrying front matter or a plain YAML profile.
func ReadProfile(path string) (profile.Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return profile.Profile{}, fmt.Errorf("export: read profile: %w", err)
	}
	meta, _, err := ParseFrontMatter(data)
	switch {
	case err == nil:
		meta.Profile.Normalize()
		return meta.Profile, nil
	case !errors.Is(err, ErrMissingFrontMatter):
		return profile.Profile{}, err
	}
	var p profile.Profile
	if err := yaml.Unmarshal(data, &p); err != nil {
		return profile.Profile{}, fmt.Errorf("export: parse profile %s: %w", path, err)
	}
	p.Normalize()
	return p, nil
}
