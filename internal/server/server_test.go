package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/kingrea/cfpgen/internal/assistant"
	"github.com/kingrea/cfpgen/internal/config"
	"github.com/kingrea/cfpgen/internal/ideas"
	"github.com/kingrea/cfpgen/internal/metrics"
	"github.com/kingrea/cfpgen/internal/profile"
	"github.com/kingrea/cfpgen/internal/session"
	"github.com/kingrea/cfpgen/internal/workbench"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type stubChatter struct {
	mu    sync.Mutex
	reply string
	err   error
	last  []assistant.Message
}

func (s *stubChatter) Chat(_ context.Context, _ string, history []assistant.Message) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.last = history
	return s.reply, s.err
}

func testSettings() Settings {
	s := DefaultSettings()
	s.Port = 0
	s.PruneInterval = 0
	s.MaxBodyBytes = 2048
	return s
}

func newTestServer(t *testing.T, settings Settings, chat assistant.Chatter) *Server {
	t.Helper()
	opts := []workbench.Option{workbench.WithGenerator(ideas.NewSeededGenerator(3))}
	if chat != nil {
		opts = append(opts, workbench.WithAssistant(chat))
	}
	return New(settings, workbench.New(opts...), WithMetrics(metrics.New()))
}

func do(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = strings.NewReader(b)
	default:
		data, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	req.RemoteAddr = "192.0.2.1:1234"
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func createSession(t *testing.T, h http.Handler) session.Session {
	t.Helper()
	rec := do(t, h, http.MethodPost, "/api/sessions", map[string]any{
		"name":       "Jane Doe",
		"expertise":  []string{"Go", "Kubernetes"},
		"interests":  []string{"observability"},
		"audience":   "advanced",
		"conference": "kubecon",
		"track":      "observability",
		"count":      5,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decodeBody[session.Session](t, rec)
}

func TestSettingsFromConfigHonorsEnv(t *testing.T) {
	t.Setenv("CFPGEN_PORT", "9001")
	t.Setenv("CFPGEN_HOST", "0.0.0.0")
	cfg := &config.Config{}
	cfg.File.Server.Port = 8000
	cfg.File.Server.RateLimit = 5
	settings := SettingsFromConfig(cfg)
	assert.Equal(t, 9001, settings.Port)
	assert.Equal(t, "0.0.0.0", settings.Host)
	assert.Equal(t, 5, settings.RateLimit)
	assert.Equal(t, DefaultMaxBodyBytes, settings.MaxBodyBytes)
	assert.Equal(t, "http://0.0.0.0:9001", settings.URL())
}

func TestSettingsFromConfigIgnoresBadPort(t *testing.T) {
	t.Setenv("CFPGEN_PORT", "not-a-port")
	settings := SettingsFromConfig(nil)
	assert.Equal(t, DefaultPort, settings.Port)
	assert.Equal(t, DefaultHost, settings.Host)
}

func TestCreateAndFetchSession(t *testing.T) {
	h := newTestServer(t, testSettings(), nil).Handler()
	sess := createSession(t, h)
	assert.Len(t, sess.Ideas, 5)
	assert.Equal(t, "KubeCon", sess.Profile.Conference)
	assert.Equal(t, "Observability", sess.Profile.Track)
	assert.Equal(t, "talk", string(sess.Profile.Format))

	rec := do(t, h, http.MethodGet, "/api/sessions/"+sess.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	got := decodeBody[session.Session](t, rec)
	assert.Equal(t, sess.Ideas, got.Ideas)

	rec = do(t, h, http.MethodGet, "/api/sessions", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decodeBody[map[string][]session.Summary](t, rec)
	require.Len(t, list["sessions"], 1)
	assert.Equal(t, sess.ID, list["sessions"][0].ID)
}

func TestCreateSessionValidation(t *testing.T) {
	h := newTestServer(t, testSettings(), nil).Handler()
	cases := map[string]any{
		"no topics":     map[string]any{"name": "x"},
		"bad count":     map[string]any{"expertise": []string{"Go"}, "count": 50},
		"bad format":    map[string]any{"expertise": []string{"Go"}, "conference": "KubeCon", "format": "workshop"},
		"unknown track": map[string]any{"expertise": []string{"Go"}, "conference": "KubeCon", "track": "Cooking"},
		"invalid json":  "{",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			rec := do(t, h, http.MethodPost, "/api/sessions", body)
			assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
			assert.NotEmpty(t, decodeBody[map[string]string](t, rec)["error"])
		})
	}
}

func TestPayloadLimit(t *testing.T) {
	h := newTestServer(t, testSettings(), nil).Handler()
	rec := do(t, h, http.MethodPost, "/api/sessions", map[string]any{
		"expertise": []string{strings.Repeat("a", 4096)},
	})
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestIdeaDetailAndDrafts(t *testing.T) {
	h := newTestServer(t, testSettings(), nil).Handler()
	sess := createSession(t, h)
	base := "/api/sessions/" + sess.ID + "/ideas/2"

	rec := do(t, h, http.MethodGet, base, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	view := decodeBody[workbench.IdeaView](t, rec)
	assert.Equal(t, 2, view.Index)
	assert.Equal(t, sess.Ideas[1], view.Idea)
	assert.Len(t, view.Takeaways, 5)

	rec = do(t, h, http.MethodPut, base+"/abstract", map[string]string{"abstract": "Mine."})
	require.Equal(t, http.StatusOK, rec.Code)
	rec = do(t, h, http.MethodGet, base, nil)
	view = decodeBody[workbench.IdeaView](t, rec)
	assert.Equal(t, "Mine.", view.Abstract)
	assert.True(t, view.Edited)

	rec = do(t, h, http.MethodPost, base+"/abstract/regenerate", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEqual(t, "Mine.", decodeBody[map[string]string](t, rec)["abstract"])

	rec = do(t, h, http.MethodPost, base+"/takeaways/regenerate", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeBody[map[string][]string](t, rec)["takeaways"], 5)

	rec = do(t, h, http.MethodPost, base+"/fit/regenerate", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	fit := decodeBody[map[string][]string](t, rec)["fit_reasons"]
	require.Len(t, fit, 5)
	assert.Contains(t, fit[0], "KubeCon")
}

func TestNotFoundMapping(t *testing.T) {
	h := newTestServer(t, testSettings(), nil).Handler()
	sess := createSession(t, h)

	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodGet, "/api/sessions/missing", nil).Code)
	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodGet, "/api/sessions/"+sess.ID+"/ideas/6", nil).Code)
	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodGet, "/api/sessions/"+sess.ID+"/ideas/0", nil).Code)
	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodGet, "/nope", nil).Code)
	assert.Equal(t, http.StatusMethodNotAllowed, do(t, h, http.MethodPatch, "/api/sessions/"+sess.ID, nil).Code)

	assert.Equal(t, http.StatusNoContent, do(t, h, http.MethodDelete, "/api/sessions/"+sess.ID, nil).Code)
	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodDelete, "/api/sessions/"+sess.ID, nil).Code)
}

func TestChatEndpoints(t *testing.T) {
	chat := &stubChatter{reply: "Open with a demo."}
	h := newTestServer(t, testSettings(), chat).Handler()
	sess := createSession(t, h)
	base := "/api/sessions/" + sess.ID + "/ideas/1"

	rec := do(t, h, http.MethodPost, base+"/chat", map[string]string{"message": "How should I open?"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "Open with a demo.", decodeBody[map[string]string](t, rec)["reply"])

	rec = do(t, h, http.MethodPost, base+"/chat/quick/anticipate-qa", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Len(t, chat.last, 3)
	assert.Contains(t, chat.last[2].Content, "What questions might the audience ask")

	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodPost, base+"/chat/quick/nope", nil).Code)
	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodPost, base+"/chat", map[string]string{"message": " "}).Code)

	chat.err = &assistant.StatusError{StatusCode: http.StatusUnauthorized, Body: "bad key"}
	assert.Equal(t, http.StatusBadGateway, do(t, h, http.MethodPost, base+"/chat", map[string]string{"message": "hi"}).Code)
	chat.err = errors.New("connection reset")
	assert.Equal(t, http.StatusBadGateway, do(t, h, http.MethodPost, base+"/chat", map[string]string{"message": "hi"}).Code)
}

func TestChatWithoutAPIKey(t *testing.T) {
	h := newTestServer(t, testSettings(), assistant.NewClient(assistant.Config{})).Handler()
	sess := createSession(t, h)
	rec := do(t, h, http.MethodPost, "/api/sessions/"+sess.ID+"/ideas/1/chat", map[string]string{"message": "hi"})
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, assistant.MissingKeyMessage, decodeBody[map[string]string](t, rec)["error"])
}

func TestExportEndpoint(t *testing.T) {
	h := newTestServer(t, testSettings(), nil).Handler()
	sess := createSession(t, h)

	rec := do(t, h, http.MethodGet, "/api/sessions/"+sess.ID+"/export", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, `attachment; filename="cfp_ideas_jane_doe.txt"`, rec.Header().Get("Content-Disposition"))
	assert.True(t, strings.HasPrefix(rec.Body.String(), "CFP Ideas for Jane Doe\nFormat: talk | Audience: advanced\nConference: KubeCon\nTrack: Observability\n"))

	rec = do(t, h, http.MethodGet, "/api/sessions/"+sess.ID+"/export?format=json", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodGet, "/api/sessions/"+sess.ID+"/export?format=pdf", nil).Code)
}

func TestConferencesAndMetrics(t *testing.T) {
	h := newTestServer(t, testSettings(), nil).Handler()
	rec := do(t, h, http.MethodGet, "/api/conferences", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Conferences []conferenceResponse `json:"conferences"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Conferences, 9)
	assert.True(t, body.Conferences[8].Custom)

	rec = do(t, h, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `cfpgen_http_requests_total{code="200",method="GET",route="/api/conferences"} 1`)
}

func TestRateLimit(t *testing.T) {
	settings := testSettings()
	settings.RateLimit = 2
	h := newTestServer(t, settings, nil).Handler()
	for i := 0; i < 2; i++ {
		require.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/api/conferences", nil).Code)
	}
	rec := do(t, h, http.MethodGet, "/api/conferences", nil)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))
	assert.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/health", nil).Code, "health is not rate limited")
}

func TestServerLifecycle(t *testing.T) {
	settings := testSettings()
	settings.PruneInterval = 10 * time.Millisecond
	srv := newTestServer(t, settings, nil)
	require.NoError(t, srv.Start(context.Background()))
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })
	assert.Equal(t, StatusReady, srv.Status())
	assert.Error(t, srv.Start(context.Background()), "second start must fail")

	client := &http.Client{Transport: &http.Transport{DisableKeepAlives: true}}
	resp, err := client.Get(srv.BaseURL() + "/health")
	require.NoError(t, err)
	var health healthResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&health))
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, string(StatusReady), health.Status)
	assert.Equal(t, APIVersion, health.Version)

	time.Sleep(30 * time.Millisecond)
	require.NoError(t, srv.Shutdown(context.Background()))
	assert.Equal(t, StatusDraining, srv.Status())
	assert.Empty(t, srv.Addr())
	require.NoError(t, srv.Shutdown(context.Background()), "shutdown is idempotent")
}

func TestCreateSessionUsesConfiguredDefaults(t *testing.T) {
	bench := workbench.New(workbench.WithGenerator(ideas.NewSeededGenerator(3)))
	h := New(testSettings(), bench, WithDefaults(profile.AudienceBeginners, 4)).Handler()

	rec := do(t, h, http.MethodPost, "/api/sessions", map[string]any{"expertise": []string{"Go"}})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	sess := decodeBody[session.Session](t, rec)
	assert.Len(t, sess.Ideas, 4)
	assert.Equal(t, profile.AudienceBeginners, sess.Profile.Audience)

	rec = do(t, h, http.MethodPost, "/api/sessions", map[string]any{"expertise": []string{"Go"}, "audience": "advanced", "count": 2})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	sess = decodeBody[session.Session](t, rec)
	assert.Len(t, sess.Ideas, 2)
	assert.Equal(t, profile.AudienceAdvanced, sess.Profile.Audience)
}

func TestChatBudgetFitsWriteTimeout(t *testing.T) {
	settings := DefaultSettings()
	assert.Less(t, settings.ChatBudget(), settings.WriteTimeout)
	assert.Equal(t, DefaultWriteTimeout-5*time.Second, settings.ChatBudget())

	settings.WriteTimeout = 4 * time.Second
	assert.Equal(t, 2*time.Second, settings.ChatBudget())
}
