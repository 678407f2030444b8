// Package session persists the working state of a generation run: the
// profile, the generated ideas and per-idea drafts and chat history.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/kingrea/cfpgen/internal/assistant"
	"github.com/kingrea/cfpgen/internal/ideas"
	"github.com/kingrea/cfpgen/internal/profile"
)

// ErrNotFound is returned for unknown session IDs.
var ErrNotFound = errors.New("session: not found")

// Backend names.
const (
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
)

// Detail caches the drafts for one idea. Nil slices mean "not drafted yet".
type Detail struct {
	Abstract   string              `json:"abstract,omitempty"`
	Edited     bool                `json:"edited,omitempty"`
	Takeaways  []string            `json:"takeaways,omitempty"`
	FitReasons []string            `json:"fit_reasons,omitempty"`
	Chat       []assistant.Message `json:"chat,omitempty"`
}

// Session is one generation run.
type Session struct {
	ID        string          `json:"id"`
	Profile   profile.Profile `json:"profile"`
	Ideas     []ideas.Idea    `json:"ideas"`
	Details   map[int]*Detail `json:"details,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// Detail returns the cache for idea i, creating it when missing.
func (s *Session) Detail(i int) *Detail {
	if s.Details == nil {
		s.Details = map[int]*Detail{}
	}
	d, ok := s.Details[i]
	if !ok {
		d = &Detail{}
		s.Details[i] = d
	}
	return d
}

// Clone returns a deep copy so stores never share memory with callers.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	out := *s
	out.Profile.Expertise = append([]string(nil), s.Profile.Expertise...)
	out.Profile.Projects = append([]string(nil), s.Profile.Projects...)
	out.Profile.Interests = append([]string(nil), s.Profile.Interests...)
	out.Ideas = append([]ideas.Idea(nil), s.Ideas...)
	if s.Details != nil {
		out.Details = make(map[int]*Detail, len(s.Details))
		for k, d := range s.Details {
			if d == nil {
				continue
			}
			cp := *d
			cp.Takeaways = append([]string(nil), d.Takeaways...)
			cp.FitReasons = append([]string(nil), d.FitReasons...)
			cp.Chat = append([]assistant.Message(nil), d.Chat...)
			out.Details[k] = &cp
		}
	}
	return &out
}

// Summary is the listing view of a session.
type Summary struct {
	ID         string    `json:"id"`
	Speaker    string    `json:"speaker"`
	Conference string    `json:"conference,omitempty"`
	IdeaCount  int       `json:"idea_count"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Summarize builds the listing view.
func (s *Session) Summarize() Summary {
	return Summary{
		ID:         s.ID,
		Speaker:    s.Profile.Name,
		Conference: s.Profile.Conference,
		IdeaCount:  len(s.Ideas),
		UpdatedAt:  s.UpdatedAt,
	}
}

// Store persists sessions.
type Store interface {
	Create(ctx context.Context, s *Session) error
	Get(ctx context.Context, id string) (*Session, error)
	Update(ctx context.Context, s *Session) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]Summary, error)
	// Prune deletes sessions last updated before the cutoff and reports how many were removed.
	Prune(ctx context.Context, before time.Time) (int, error)
	Close() error
}

// Open returns the store for the named backend. path is only used by sqlite.
func Open(ctx context.Context, backend, path string) (Store, error) {
	switch backend {
	case "", BackendMemory:
		return NewMemoryStore(), nil
	case BackendSQLite:
		return OpenSQLite(ctx, path)
	default:
		return nil, fmt.Errorf("session: unsupported backend %q", backend)
	}
}

func encode(s *Session) ([]byte, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("session: encode %s: %w", s.ID, err)
	}
	return data, nil
}

func decode(data []byte) (*Session, error) {
	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("session: decode: %w", err)
	}
	return &s, nil
}
