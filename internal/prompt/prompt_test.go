package prompt

import (
	"bytes"
	"context"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kingrea/cfpgen/internal/catalog"
	"github.com/kingrea/cfpgen/internal/ideas"
	"github.com/kingrea/cfpgen/internal/profile"
)

func answers(lines ...string) *strings.Reader {
	return strings.NewReader(strings.Join(lines, "\n") + "\n")
}

func TestSelectConference(t *testing.T) {
	tests := []struct {
		name  string
		input []string
		want  catalog.Selection
	}{
		{
			name:  "conference track and format",
			input: []string{"1", "2", "2"},
			want:  catalog.Selection{Conference: "PyCon US", Track: "Web Development", Format: profile.FormatTutorial},
		},
		{
			name:  "kubecon track",
			input: []string{"2", "2", "1"},
			want:  catalog.Selection{Conference: "KubeCon", Track: "CI/CD & GitOps", Format: profile.FormatTalk},
		},
		{
			name:  "empty answers pick custom",
			input: []string{"", "", ""},
			want:  catalog.Selection{Format: profile.FormatTalk},
		},
		{
			name:  "no specific track",
			input: []string{"1", "8", "1"},
			want:  catalog.Selection{Conference: "PyCon US", Format: profile.FormatTalk},
		},
		{
			name:  "invalid conference falls back to custom theme",
			input: []string{"invalid", "custom theme", "1"},
			want:  catalog.Selection{Track: "custom theme", Format: profile.FormatTalk},
		},
		{
			name:  "out of range format uses first",
			input: []string{"3", "1", "9"},
			want:  catalog.Selection{Conference: "AWS re:Invent", Track: "Architecture", Format: profile.FormatTalk},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			p := New(answers(tt.input...), &out, nil)
			got := p.SelectConference()
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Fatalf("selection mismatch (-want +got):\n%s", diff)
			}
			require.NoError(t, p.Err())
		})
	}
}

func TestSelectConferenceListsMenus(t *testing.T) {
	var out bytes.Buffer
	New(answers("1", "8", "1"), &out, nil).SelectConference()
	text := out.String()
	assert.Contains(t, text, "  1. PyCon US")
	assert.Contains(t, text, "  9. Other / Custom")
	assert.Contains(t, text, "Choose (1-9) [9]: ")
	assert.Contains(t, text, "  8. No specific track")
	assert.Contains(t, text, "  4. Poster")
}

func TestCollectProfile(t *testing.T) {
	input := answers(
		"Jane Doe",
		"3", "2", "1",
		"Python, AWS, serverless",
		"migrated to lambda, built data pipeline",
		"cloud architecture, open source",
		"2",
	)
	got := New(input, &bytes.Buffer{}, nil).CollectProfile()
	want := profile.Profile{
		Name:       "Jane Doe",
		Expertise:  []string{"Python", "AWS", "serverless"},
		Projects:   []string{"migrated to lambda", "built data pipeline"},
		Interests:  []string{"cloud architecture", "open source"},
		Audience:   profile.AudienceIntermediate,
		Conference: "AWS re:Invent",
		Track:      "Compute",
		Format:     profile.FormatTalk,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("profile mismatch (-want +got):\n%s", diff)
	}
}

func TestCollectProfileDefaults(t *testing.T) {
	t.Run("blank name", func(t *testing.T) {
		got := New(answers("", "1", "1", "1", "Python", "project", "coding", "4"), &bytes.Buffer{}, nil).CollectProfile()
		assert.Equal(t, profile.DefaultName, got.Name)
		assert.Equal(t, profile.AudienceMixed, got.Audience)
	})
	t.Run("whitespace around entries", func(t *testing.T) {
		got := New(answers("Test User", "1", "1", "1", "  Python  ,  Django  ,  REST APIs  ", "  built app  ", "  testing  ", "1"), &bytes.Buffer{}, nil).CollectProfile()
		assert.Equal(t, []string{"Python", "Django", "REST APIs"}, got.Expertise)
		assert.Equal(t, []string{"built app"}, got.Projects)
		assert.Equal(t, []string{"testing"}, got.Interests)
		assert.Equal(t, profile.AudienceBeginners, got.Audience)
	})
	t.Run("invalid audience", func(t *testing.T) {
		got := New(answers("User", "1", "1", "1", "Python", "project", "coding", "99"), &bytes.Buffer{}, nil).CollectProfile()
		assert.Equal(t, profile.AudienceMixed, got.Audience)
	})
	t.Run("end of input", func(t *testing.T) {
		p := New(strings.NewReader(""), &bytes.Buffer{}, nil)
		got := p.CollectProfile()
		require.NoError(t, p.Err())
		assert.Equal(t, profile.DefaultName, got.Name)
		assert.Empty(t, got.Conference)
		assert.Equal(t, profile.FormatTalk, got.Format)
		assert.False(t, got.HasTopics())
	})
}

func TestParseCount(t *testing.T) {
	tests := map[string]int{
		"":                     ideas.DefaultCount,
		"5":                    5,
		" 12 ":                 12,
		"0":                    1,
		"50":                   20,
		"-3":                   ideas.DefaultCount,
		"five":                 ideas.DefaultCount,
		"99999999999999999999": 20,
	}
	for input, want := range tests {
		assert.Equal(t, want, ParseCount(input, ideas.DefaultCount), "input %q", input)
	}
	assert.Equal(t, 5, ParseCount("lots", 5))
}

func TestAskCountAndSave(t *testing.T) {
	var out bytes.Buffer
	p := New(answers("3", "Y", "n"), &out, nil)
	assert.Equal(t, 3, p.AskCount())
	assert.True(t, p.AskSave())
	assert.False(t, p.AskSave())
	assert.False(t, p.AskSave())
	assert.Contains(t, out.String(), "How many ideas would you like? (default: 8)")
}

func TestDisplay(t *testing.T) {
	p := profile.Profile{
		Name:       "Jane",
		Audience:   profile.AudienceAdvanced,
		Format:     profile.FormatChalkTalk,
		Conference: "AWS re:Invent",
		Track:      "Compute",
	}
	list := []ideas.Idea{
		{Title: "Lambda Deep Dive", Type: ideas.KindAngle, Topic: "Lambda"},
		{Title: "Go Meets Rust", Type: ideas.KindCross, Topic: "Go + Rust"},
	}
	var out bytes.Buffer
	Display(&out, list, p, func(i int, idea ideas.Idea) string { return "about " + idea.Title })
	text := out.String()

	assert.Contains(t, text, "🎯 Generated CFP Ideas for Jane\n")
	assert.Contains(t, text, "   Format: Chalk Talk | Audience: Advanced\n")
	assert.Contains(t, text, "   Conference: AWS re:Invent\n   Track: Compute\n")
	assert.Contains(t, text, "💡 Idea #2: Go Meets Rust\n   Type: cross-pollination | Core topic: Go + Rust\n")
	assert.Contains(t, text, "   📝 Draft abstract:\n   about Lambda Deep Dive\n")
	assert.Contains(t, text, "Tailor language to AWS re:Invent's audience")
	assert.Equal(t, 2, strings.Count(text, strings.Repeat("─", 50)))
	assert.True(t, strings.HasSuffix(text, strings.Repeat("=", 60)+"\n\n"))
}

func TestDisplayWithoutConference(t *testing.T) {
	var out bytes.Buffer
	Display(&out, nil, profile.Profile{Name: "Sam", Audience: profile.AudienceMixed, Format: profile.FormatTalk}, nil)
	text := out.String()
	assert.NotContains(t, text, "Conference:")
	assert.NotContains(t, text, "Track:")
	assert.NotContains(t, text, "Tailor language")
}

type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestCancelWhileWaitingForAnswer(t *testing.T) {
	in, feed := io.Pipe()
	defer feed.Close()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	out := &lockedBuffer{}
	p := New(in, out, nil, WithContext(ctx))
	done := make(chan profile.Profile, 1)
	go func() { done <- p.CollectProfile() }()

	_, err := io.WriteString(feed, "Jane\n")
	require.NoError(t, err)
	require.Eventually(t, func() bool {
		return strings.Contains(out.String(), "Select a conference")
	}, 2*time.Second, 10*time.Millisecond)
	cancel()

	select {
	case got := <-done:
		assert.True(t, p.Cancelled())
		assert.NoError(t, p.Err())
		assert.Equal(t, "Jane", got.Name)
	case <-time.After(2 * time.Second):
		t.Fatal("CollectProfile kept waiting after cancel")
	}
	assert.NotContains(t, out.String(), "Now tell us about yourself")
	assert.Equal(t, ideas.DefaultCount, p.AskCount())
	assert.False(t, p.AskSave())
}

func TestConfiguredDefaults(t *testing.T) {
	var out bytes.Buffer
	p := New(strings.NewReader(""), &out, nil, WithDefaults(profile.AudienceAdvanced, 5))
	got := p.CollectProfile()
	assert.Equal(t, profile.AudienceAdvanced, got.Audience)
	assert.Contains(t, out.String(), "Choose (1-4) [3]: ")

	assert.Equal(t, 5, p.AskCount())
	assert.Contains(t, out.String(), "How many ideas would you like? (default: 5)")

	// An explicit answer still wins over the configured default.
	p = New(answers("", "", "", "", "Go", "", "", "4"), &bytes.Buffer{}, nil, WithDefaults(profile.AudienceAdvanced, 5))
	assert.Equal(t, profile.AudienceMixed, p.CollectProfile().Audience)
}
