package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"go.uber.org/zap"

	"github.com/kingrea/cfpgen/internal/assistant"
	"github.com/kingrea/cfpgen/internal/export"
	"github.com/kingrea/cfpgen/internal/ideas"
	"github.com/kingrea/cfpgen/internal/profile"
	"github.com/kingrea/cfpgen/internal/session"
	"github.com/kingrea/cfpgen/internal/workbench"
)

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.observe)
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	r.Get("/health", s.handleHealth)
	r.Head("/health", s.handleHealth)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	}

	r.Route("/api", func(r chi.Router) {
		if s.settings.RateLimit > 0 {
			r.Use(rateLimit(s.settings.RateLimit, s.settings.RateWindow))
		}
		r.Get("/conferences", s.handleConferences)
		r.Route("/sessions", func(r chi.Router) {
			r.Get("/", s.handleListSessions)
			r.Post("/", s.handleCreateSession)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.handleGetSession)
				r.Delete("/", s.handleDeleteSession)
				r.Get("/export", s.handleExport)
				r.Route("/ideas/{n}", func(r chi.Router) {
					r.Get("/", s.handleIdea)
					r.Put("/abstract", s.handleSetAbstract)
					r.Post("/abstract/regenerate", s.handleRegenerateAbstract)
					r.Post("/takeaways/regenerate", s.handleRegenerateTakeaways)
					r.Post("/fit/regenerate", s.handleRegenerateFit)
					r.Post("/chat", s.handleChat)
					r.Post("/chat/quick/{kind}", s.handleQuick)
				})
			})
		})
	})
	return r
}

// observe logs and counts every request by its route pattern.
func (s *Server) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := s.clock()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		route := ""
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			route = rctx.RoutePattern()
		}
		s.metrics.HTTPRequest(route, r.Method, status)
		s.logger.Debug("http request",
			zap.String("method", r.Method),
			zap.String("route", route),
			zap.Int("status", status),
			zap.Duration("elapsed", s.clock().Sub(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())))
	})
}

func rateLimit(limit int, window time.Duration) func(http.Handler) http.Handler {
	return httprate.Limit(
		limit,
		window,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Retry-After", strconv.Itoa(int(window.Seconds())))
			writeError(w, http.StatusTooManyRequests, "too many requests, please try again later")
		}),
	)
}

type healthResponse struct {
	Status        string `json:"status"`
	Version       string `json:"version"`
	UptimeSeconds int64  `json:"uptime_seconds"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status:        string(s.Status()),
		Version:       APIVersion,
		UptimeSeconds: s.uptimeSeconds(),
	})
}

type conferenceResponse struct {
	Name    string           `json:"name"`
	Tracks  []string         `json:"tracks"`
	Formats []profile.Format `json:"formats"`
	Custom  bool             `json:"custom,omitempty"`
}

func (s *Server) handleConferences(w http.ResponseWriter, _ *http.Request) {
	all := s.catalog.All()
	out := make([]conferenceResponse, 0, len(all))
	for _, c := range all {
		tracks := c.Tracks
		if tracks == nil {
			tracks = []string{}
		}
		out = append(out, conferenceResponse{Name: c.Name, Tracks: tracks, Formats: c.Formats, Custom: c.IsCustom()})
	}
	writeJSON(w, http.StatusOK, map[string]any{"conferences": out})
}

type createSessionRequest struct {
	Name       string   `json:"name"`
	Expertise  []string `json:"expertise"`
	Projects   []string `json:"projects"`
	Interests  []string `json:"interests"`
	Audience   string   `json:"audience"`
	Conference string   `json:"conference"`
	Track      string   `json:"track"`
	Format     string   `json:"format"`
	Count      int      `json:"count"`
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if !s.decode(w, r, &req) {
		return
	}
	sel, err := s.catalog.Resolve(req.Conference, req.Track, req.Format)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Count == 0 {
		req.Count = s.defaultCount
	}
	audience := s.defaultAudience
	if strings.TrimSpace(req.Audience) != "" {
		audience = profile.ParseAudience(req.Audience)
	}
	if req.Count < ideas.MinCount || req.Count > ideas.MaxCount {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("count must be between %d and %d", ideas.MinCount, ideas.MaxCount))
		return
	}
	p := profile.Profile{
		Name:       req.Name,
		Expertise:  req.Expertise,
		Projects:   req.Projects,
		Interests:  req.Interests,
		Audience:   audience,
		Conference: sel.Conference,
		Track:      sel.Track,
		Format:     sel.Format,
	}
	sess, err := s.bench.Generate(r.Context(), p, req.Count)
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, sess)
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	list, err := s.bench.Sessions(r.Context())
	if err != nil {
		s.fail(w, err)
		return
	}
	if list == nil {
		list = []session.Summary{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"sessions": list})
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.bench.Session(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := s.bench.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleIdea(w http.ResponseWriter, r *http.Request) {
	i, ok := ideaIndex(w, r)
	if !ok {
		return
	}
	view, err := s.bench.Detail(r.Context(), chi.URLParam(r, "id"), i)
	if err != nil {
		s.fail(w, err)
		return
	}
	view.Index = i + 1
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleSetAbstract(w http.ResponseWriter, r *http.Request) {
	i, ok := ideaIndex(w, r)
	if !ok {
		return
	}
	var req struct {
		Abstract string `json:"abstract"`
	}
	if !s.decode(w, r, &req) {
		return
	}
	if err := s.bench.SetAbstract(r.Context(), chi.URLParam(r, "id"), i, req.Abstract); err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"abstract": strings.TrimSpace(req.Abstract)})
}

func (s *Server) handleRegenerateAbstract(w http.ResponseWriter, r *http.Request) {
	i, ok := ideaIndex(w, r)
	if !ok {
		return
	}
	abstract, err := s.bench.RegenerateAbstract(r.Context(), chi.URLParam(r, "id"), i)
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"abstract": abstract})
}

func (s *Server) handleRegenerateTakeaways(w http.ResponseWriter, r *http.Request) {
	i, ok := ideaIndex(w, r)
	if !ok {
		return
	}
	takeaways, err := s.bench.RegenerateTakeaways(r.Context(), chi.URLParam(r, "id"), i)
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]string{"takeaways": takeaways})
}

func (s *Server) handleRegenerateFit(w http.ResponseWriter, r *http.Request) {
	i, ok := ideaIndex(w, r)
	if !ok {
		return
	}
	reasons, err := s.bench.RegenerateFit(r.Context(), chi.URLParam(r, "id"), i)
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]string{"fit_reasons": reasons})
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	i, ok := ideaIndex(w, r)
	if !ok {
		return
	}
	var req struct {
		Message string `json:"message"`
	}
	if !s.decode(w, r, &req) {
		return
	}
	reply, err := s.bench.Chat(r.Context(), chi.URLParam(r, "id"), i, req.Message)
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"reply": reply})
}

func (s *Server) handleQuick(w http.ResponseWriter, r *http.Request) {
	i, ok := ideaIndex(w, r)
	if !ok {
		return
	}
	kind, ok := assistant.ParseQuickKind(chi.URLParam(r, "kind"))
	if !ok {
		writeError(w, http.StatusNotFound, "unknown quick prompt")
		return
	}
	reply, err := s.bench.Quick(r.Context(), chi.URLParam(r, "id"), i, kind)
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"reply": reply})
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	format, err := export.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	doc, err := s.bench.Export(r.Context(), chi.URLParam(r, "id"), format)
	if err != nil {
		s.fail(w, err)
		return
	}
	w.Header().Set("Content-Type", doc.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", doc.Filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(doc.Body)
}

// decode reads a JSON body within the configured size limit. It writes the
// error response itself and reports whether decoding succeeded.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if r.Body == nil || r.Body == http.NoBody {
		writeError(w, http.StatusBadRequest, "empty body")
		return false
	}
	reader := http.MaxBytesReader(w, r.Body, s.settings.MaxBodyBytes)
	defer reader.Close()
	if err := json.NewDecoder(reader).Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeError(w, http.StatusRequestEntityTooLarge, "payload exceeds limit")
			return false
		}
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return false
	}
	return true
}

// fail maps workbench and assistant errors onto HTTP status codes.
func (s *Server) fail(w http.ResponseWriter, err error) {
	var statusErr *assistant.StatusError
	switch {
	case errors.Is(err, session.ErrNotFound):
		writeError(w, http.StatusNotFound, "session not found")
	case errors.Is(err, workbench.ErrIdeaIndex):
		writeError(w, http.StatusNotFound, "idea not found")
	case errors.Is(err, workbench.ErrNoTopics), errors.Is(err, workbench.ErrEmptyMessage):
		writeError(w, http.StatusBadRequest, strings.TrimPrefix(err.Error(), "workbench: "))
	case errors.Is(err, assistant.ErrNoAPIKey):
		writeError(w, http.StatusServiceUnavailable, assistant.MissingKeyMessage)
	case errors.As(err, &statusErr):
		s.logger.Warn("assistant rejected request", zap.Int("status", statusErr.StatusCode))
		writeError(w, http.StatusBadGateway, "assistant request failed")
	case errors.Is(err, workbench.ErrAssistant):
		s.logger.Warn("assistant unavailable", zap.Error(err))
		writeError(w, http.StatusBadGateway, "assistant request failed")
	default:
		s.logger.Error("request failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

// ideaIndex parses the 1-based {n} path parameter into a slice index.
func ideaIndex(w http.ResponseWriter, r *http.Request) (int, bool) {
	n, err := strconv.Atoi(chi.URLParam(r, "n"))
	if err != nil || n < 1 {
		writeError(w, http.StatusBadRequest, "idea number must be a positive integer")
		return 0, false
	}
	return n - 1, true
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
