// Package workbench ties the idea generator, the session store and the chat
// assistant together. Both the terminal UI and the HTTP API drive a
// generation run through it.
package workbench

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kingrea/cfpgen/internal/assistant"
	"github.com/kingrea/cfpgen/internal/export"
	"github.com/kingrea/cfpgen/internal/history"
	"github.com/kingrea/cfpgen/internal/ideas"
	"github.com/kingrea/cfpgen/internal/metrics"
	"github.com/kingrea/cfpgen/internal/profile"
	"github.com/kingrea/cfpgen/internal/session"
)

var (
	// ErrNoTopics rejects profiles without any expertise or interests.
	ErrNoTopics = errors.New("workbench: add at least one area of expertise or interest")
	// ErrIdeaIndex reports an idea index outside the session's list.
	ErrIdeaIndex = errors.New("workbench: idea index out of range")
	// ErrEmptyMessage rejects blank chat messages.
	ErrEmptyMessage = errors.New("workbench: message is empty")
	// ErrAssistant wraps failures reported by the chat backend.
	ErrAssistant = errors.New("workbench: assistant request failed")
)

// DefaultTTL is how long an untouched session is kept.
const DefaultTTL = 24 * time.Hour

// Workbench coordinates one or more generation sessions.
type Workbench struct {
	generator     *ideas.Generator
	store         session.Store
	assistant     assistant.Chatter
	journal       *history.Journal
	metrics       *metrics.Metrics
	logger        *zap.Logger
	clock         func() time.Time
	newID         func() string
	ttl           time.Duration
	defaultTopics bool

	chatTimeout time.Duration

	locksMu sync.Mutex
	locks   map[string]*sessionLock
}

// Option customizes a Workbench.
type Option func(*Workbench)

// WithGenerator sets the idea generator, typically a seeded one in tests.
func WithGenerator(g *ideas.Generator) Option {
	return func(w *Workbench) {
		if g != nil {
			w.generator = g
		}
	}
}

// WithStore sets the session store.
func WithStore(s session.Store) Option {
	return func(w *Workbench) {
		if s != nil {
			w.store = s
		}
	}
}

// WithAssistant sets the chat backend. Without one, Chat reports
// assistant.ErrNoAPIKey.
func WithAssistant(c assistant.Chatter) Option {
	return func(w *Workbench) {
		w.assistant = c
	}
}

// WithJournal records every generation in the history journal.
func WithJournal(j *history.Journal) Option {
	return func(w *Workbench) {
		w.journal = j
	}
}

// WithMetrics attaches Prometheus collectors.
func WithMetrics(m *metrics.Metrics) Option {
	return func(w *Workbench) {
		w.metrics = m
	}
}

// WithLogger attaches a logger.
func WithLogger(l *zap.Logger) Option {
	return func(w *Workbench) {
		if l != nil {
			w.logger = l
		}
	}
}

// WithClock allows tests to control timestamps.
func WithClock(clock func() time.Time) Option {
	return func(w *Workbench) {
		if clock != nil {
			w.clock = clock
		}
	}
}

// WithTTL sets how long sessions survive without updates. Zero disables pruning.
func WithTTL(ttl time.Duration) Option {
	return func(w *Workbench) {
		w.ttl = ttl
	}
}

// WithChatTimeout bounds one assistant exchange, retries included. Zero
// leaves it to the caller's context.
func WithChatTimeout(d time.Duration) Option {
	return func(w *Workbench) {
		if d >= 0 {
			w.chatTimeout = d
		}
	}
}

// WithDefaultTopics lets profiles without topics fall back to the generic
// topic list instead of failing with ErrNoTopics.
func WithDefaultTopics() Option {
	return func(w *Workbench) {
		w.defaultTopics = true
	}
}

// New builds a workbench backed by an in-memory store unless told otherwise.
func New(opts ...Option) *Workbench {
	w := &Workbench{
		generator: ideas.NewGenerator(),
		store:     session.NewMemoryStore(),
		logger:    zap.NewNop(),
		clock:     time.Now,
		newID:     uuid.NewString,
		ttl:       DefaultTTL,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(w)
		}
	}
	return w
}

// IdeaView is one idea together with its drafts and conversation.
type IdeaView struct {
	Index      int                 `json:"index"`
	Idea       ideas.Idea          `json:"idea"`
	Abstract   string              `json:"abstract"`
	Edited     bool                `json:"edited"`
	Takeaways  []string            `json:"takeaways"`
	FitReasons []string            `json:"fit_reasons"`
	Chat       []assistant.Message `json:"chat"`
}

// Document is a rendered export.
type Document struct {
	Filename    string
	ContentType string
	Body        []byte
}

// Generate creates a session holding count freshly generated ideas.
func (w *Workbench) Generate(ctx context.Context, p profile.Profile, count int) (*session.Session, error) {
	p.Normalize()
	if !p.HasTopics() && !w.defaultTopics {
		return nil, ErrNoTopics
	}
	list := w.generator.Generate(p, count)
	now := w.now()
	sess := &session.Session{
		ID:        w.newID(),
		Profile:   p,
		Ideas:     list,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := w.store.Create(ctx, sess); err != nil {
		return nil, fmt.Errorf("workbench: save session: %w", err)
	}

	types := make([]string, 0, len(list))
	for _, idea := range list {
		types = append(types, string(idea.Type))
	}
	w.metrics.Generated(types)
	w.journal.Generated(sess.ID, p, len(list))
	w.logger.Info("ideas generated",
		zap.String("session", sess.ID),
		zap.String("conference", p.Conference),
		zap.String("track", p.Track),
		zap.String("format", string(p.Format)),
		zap.Int("requested", count),
		zap.Int("count", len(list)))
	return sess, nil
}

// Session loads a session.
func (w *Workbench) Session(ctx context.Context, id string) (*session.Session, error) {
	return w.store.Get(ctx, id)
}

// Sessions lists stored sessions, most recently updated first.
func (w *Workbench) Sessions(ctx context.Context) ([]session.Summary, error) {
	return w.store.List(ctx)
}

// Delete removes a session.
func (w *Workbench) Delete(ctx context.Context, id string) error {
	unlock := w.lock(id)
	defer unlock()
	return w.store.Delete(ctx, id)
}

// Detail returns idea i with its drafts, drafting whatever is missing.
func (w *Workbench) Detail(ctx context.Context, id string, i int) (IdeaView, error) {
	var view IdeaView
	err := w.withIdea(ctx, id, i, func(s *session.Session, idea ideas.Idea, d *session.Detail) (bool, error) {
		changed := w.ensureDrafts(s.Profile, idea, d)
		view = newView(i, idea, d)
		return changed, nil
	})
	return view, err
}

// RegenerateAbstract replaces the abstract with a fresh draft, discarding edits.
func (w *Workbench) RegenerateAbstract(ctx context.Context, id string, i int) (string, error) {
	var out string
	err := w.withIdea(ctx, id, i, func(s *session.Session, idea ideas.Idea, d *session.Detail) (bool, error) {
		d.Abstract = w.generator.Abstract(idea.Title, s.Profile)
		d.Edited = false
		out = d.Abstract
		return true, nil
	})
	return out, err
}

// SetAbstract stores a user edited abstract.
func (w *Workbench) SetAbstract(ctx context.Context, id string, i int, text string) error {
	return w.withIdea(ctx, id, i, func(_ *session.Session, _ ideas.Idea, d *session.Detail) (bool, error) {
		d.Abstract = strings.TrimSpace(text)
		d.Edited = true
		return true, nil
	})
}

// RegenerateTakeaways draws a new set of takeaways.
func (w *Workbench) RegenerateTakeaways(ctx context.Context, id string, i int) ([]string, error) {
	var out []string
	err := w.withIdea(ctx, id, i, func(s *session.Session, idea ideas.Idea, d *session.Detail) (bool, error) {
		d.Takeaways = w.generator.Takeaways(idea.Title, s.Profile)
		out = append([]string(nil), d.Takeaways...)
		return true, nil
	})
	return out, err
}

// RegenerateFit rebuilds the fit reasons.
func (w *Workbench) RegenerateFit(ctx context.Context, id string, i int) ([]string, error) {
	var out []string
	err := w.withIdea(ctx, id, i, func(s *session.Session, idea ideas.Idea, d *session.Detail) (bool, error) {
		d.FitReasons = w.generator.FitReasons(idea.Title, s.Profile)
		out = append([]string(nil), d.FitReasons...)
		return true, nil
	})
	return out, err
}

// Chat sends message about idea i to the assistant. The exchange is kept in
// the idea's history only when the assistant answers.
func (w *Workbench) Chat(ctx context.Context, id string, i int, message string) (string, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return "", ErrEmptyMessage
	}
	var reply string
	err := w.withIdea(ctx, id, i, func(s *session.Session, idea ideas.Idea, d *session.Detail) (bool, error) {
		var err error
		reply, err = w.ask(ctx, s, idea, d, message)
		return err == nil, err
	})
	return reply, err
}

// Quick sends one of the canned prompts for idea i.
func (w *Workbench) Quick(ctx context.Context, id string, i int, kind assistant.QuickKind) (string, error) {
	var reply string
	err := w.withIdea(ctx, id, i, func(s *session.Session, idea ideas.Idea, d *session.Detail) (bool, error) {
		drafted := w.ensureDrafts(s.Profile, idea, d)
		prompt, err := assistant.QuickPrompt(kind, idea.Title, d.Abstract)
		if err != nil {
			return false, err
		}
		reply, err = w.ask(ctx, s, idea, d, prompt)
		if err != nil {
			return drafted, err
		}
		return true, nil
	})
	return reply, err
}

// Export renders the session's ideas. Cached or edited abstracts are used
// where present; other ideas get a fresh draft.
func (w *Workbench) Export(ctx context.Context, id string, format export.Format) (Document, error) {
	s, err := w.store.Get(ctx, id)
	if err != nil {
		return Document{}, err
	}
	abstractFor := func(i int, idea ideas.Idea) string {
		if d, ok := s.Details[i]; ok && d != nil && d.Abstract != "" {
			return d.Abstract
		}
		return w.generator.Abstract(idea.Title, s.Profile)
	}
	body, err := export.Render(format, s.Ideas, s.Profile, abstractFor)
	if err != nil {
		return Document{}, err
	}
	return Document{
		Filename:    export.Filename(s.Profile.Name, format),
		ContentType: format.ContentType(),
		Body:        body,
	}, nil
}

// Prune removes sessions that have not been touched within the TTL.
func (w *Workbench) Prune(ctx context.Context) (int, error) {
	if w.ttl <= 0 {
		return 0, nil
	}
	removed, err := w.store.Prune(ctx, w.now().Add(-w.ttl))
	if err != nil {
		return 0, fmt.Errorf("workbench: prune: %w", err)
	}
	if removed > 0 {
		w.metrics.Pruned(removed)
		w.logger.Info("expired sessions pruned", zap.Int("removed", removed))
	}
	return removed, nil
}

func (w *Workbench) ask(ctx context.Context, s *session.Session, idea ideas.Idea, d *session.Detail, message string) (string, error) {
	if w.assistant == nil {
		w.metrics.AssistantRequest(metrics.OutcomeNoAPIKey, 0)
		return "", assistant.ErrNoAPIKey
	}
	turns := make([]assistant.Message, 0, len(d.Chat)+1)
	turns = append(turns, d.Chat...)
	turns = append(turns, assistant.Message{Role: assistant.RoleUser, Content: message})

	if w.chatTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, w.chatTimeout)
		defer cancel()
	}
	start := w.now()
	reply, err := w.assistant.Chat(ctx, assistant.SystemPrompt(idea.Title, s.Profile), turns)
	elapsed := w.now().Sub(start)
	if err != nil {
		outcome := metrics.OutcomeError
		if errors.Is(err, assistant.ErrNoAPIKey) {
			outcome = metrics.OutcomeNoAPIKey
		}
		w.metrics.AssistantRequest(outcome, elapsed)
		w.logger.Warn("assistant request failed", zap.String("session", s.ID), zap.Error(err))
		return "", fmt.Errorf("%w: %w", ErrAssistant, err)
	}
	w.metrics.AssistantRequest(metrics.OutcomeOK, elapsed)
	d.Chat = append(turns, assistant.Message{Role: assistant.RoleAssistant, Content: reply})
	return reply, nil
}

func (w *Workbench) ensureDrafts(p profile.Profile, idea ideas.Idea, d *session.Detail) bool {
	changed := false
	if d.Abstract == "" && !d.Edited {
		d.Abstract = w.generator.Abstract(idea.Title, p)
		changed = true
	}
	if d.Takeaways == nil {
		d.Takeaways = w.generator.Takeaways(idea.Title, p)
		changed = true
	}
	if d.FitReasons == nil {
		d.FitReasons = w.generator.FitReasons(idea.Title, p)
		changed = true
	}
	return changed
}

// withIdea runs fn against idea i of session id under the session lock and
// persists the session when fn reports a change.
func (w *Workbench) withIdea(ctx context.Context, id string, i int, fn func(*session.Session, ideas.Idea, *session.Detail) (bool, error)) error {
	unlock := w.lock(id)
	defer unlock()
	s, err := w.store.Get(ctx, id)
	if err != nil {
		return err
	}
	if i < 0 || i >= len(s.Ideas) {
		return fmt.Errorf("%w: %d of %d", ErrIdeaIndex, i, len(s.Ideas))
	}
	changed, fnErr := fn(s, s.Ideas[i], s.Detail(i))
	if changed {
		s.UpdatedAt = w.now()
		if err := w.store.Update(ctx, s); err != nil {
			return fmt.Errorf("workbench: save session: %w", err)
		}
	}
	return fnErr
}

// sessionLock serialises work on one session. Entries live only while a
// caller holds or waits for them.
type sessionLock struct {
	mu   sync.Mutex
	refs int
}

func (w *Workbench) lock(id string) func() {
	w.locksMu.Lock()
	if w.locks == nil {
		w.locks = make(map[string]*sessionLock)
	}
	l, ok := w.locks[id]
	if !ok {
		l = &sessionLock{}
		w.locks[id] = l
	}
	l.refs++
	w.locksMu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		w.locksMu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(w.locks, id)
		}
		w.locksMu.Unlock()
	}
}

func (w *Workbench) now() time.Time {
	return w.clock().UTC()
}

func newView(i int, idea ideas.Idea, d *session.Detail) IdeaView {
	return IdeaView{
		Index:      i,
		Idea:       idea,
		Abstract:   d.Abstract,
		Edited:     d.Edited,
		Takeaways:  append([]string(nil), d.Takeaways...),
		FitReasons: append([]string(nil), d.FitReasons...),
		Chat:       append([]assistant.Message(nil), d.Chat...),
	}
}
