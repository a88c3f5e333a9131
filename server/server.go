package server

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"sketch2web/generator"
	"sketch2web/imaging"
	"sketch2web/preview"
)

//go:embed web
var embeddedStatic embed.FS

const defaultMaxUpload = 10 << 20

// Options configures a Server. Agent and Store are required.
type Options struct {
	Agent           *generator.Agent
	Store           SessionStore
	Defaults        preview.Defaults
	Logger          *zap.Logger
	Metrics         *prometheus.Registry
	GenerateTimeout time.Duration
	MaxUploadBytes  int64
}

type Server struct {
	agent     *generator.Agent
	store     SessionStore
	defaults  preview.Defaults
	logger    *zap.Logger
	registry  *prometheus.Registry
	metrics   *metrics
	timeout   time.Duration
	maxUpload int64
	staticFS  http.Handler
}

func New(opts Options) (*Server, error) {
	if opts.Agent == nil {
		return nil, errors.New("generator agent required")
	}
	if opts.Store == nil {
		return nil, errors.New("session store required")
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Metrics == nil {
		opts.Metrics = prometheus.NewRegistry()
	}
	if opts.Defaults == (preview.Defaults{}) {
		opts.Defaults = preview.DefaultDefaults
	}
	if opts.GenerateTimeout <= 0 {
		opts.GenerateTimeout = 90 * time.Second
	}
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = defaultMaxUpload
	}

	sub, err := fs.Sub(embeddedStatic, "web")
	if err != nil {
		return nil, err
	}

	return &Server{
		agent:     opts.Agent,
		store:     opts.Store,
		defaults:  opts.Defaults,
		logger:    opts.Logger,
		registry:  opts.Metrics,
		metrics:   newMetrics(opts.Metrics),
		timeout:   opts.GenerateTimeout,
		maxUpload: opts.MaxUploadBytes,
		staticFS:  http.FileServer(http.FS(sub)),
	}, nil
}

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	useMiddleware(r, s.logger)

	r.Get("/health", s.handleHealth)
	r.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))

	r.Route("/api", func(r chi.Router) {
		r.Get("/providers", s.handleProviders)
		r.Post("/sessions", s.handleSessionCreate)
		r.Get("/sessions/{id}", s.handleSessionGet)
		r.Post("/sessions/{id}/generate", s.handleGenerate)
		r.Get("/sessions/{id}/preview", s.handlePreview)
	})

	r.Handle("/*", s.staticFS)
	return r
}

// --- Handlers ---

type sessionResp struct {
	SessionID string                  `json:"session_id"`
	State     generator.State         `json:"state"`
	Code      generator.ExtractedCode `json:"code"`
	NotesHTML string                  `json:"notes_html,omitempty"`
	History   []generator.Turn        `json:"history"`
}

type providersResp struct {
	Default   string                   `json:"default"`
	Providers []generator.ProviderInfo `json:"providers"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleProviders(w http.ResponseWriter, _ *http.Request) {
	reg := s.agent.Registry()
	writeJSON(w, http.StatusOK, providersResp{Default: reg.DefaultName(), Providers: reg.Providers()})
}

func (s *Server) handleSessionCreate(w http.ResponseWriter, r *http.Request) {
	sess := generator.NewSession(uuid.NewString())
	if err := s.store.Save(r.Context(), sess); err != nil {
		s.logger.Error("session save failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "could not create session")
		return
	}
	writeJSON(w, http.StatusCreated, s.sessionResponse(sess))
}

func (s *Server) handleSessionGet(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.loadSession(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, s.sessionResponse(sess))
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.loadSession(w, r)
	if !ok {
		return
	}

	req, err := s.parseGenerateRequest(w, r)
	var tooBig *http.MaxBytesError
	switch {
	case errors.As(err, &tooBig):
		writeError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("upload exceeds %d bytes", tooBig.Limit))
		return
	case err != nil:
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	provider := s.providerLabel(req.Provider)

	ctx, cancel := context.WithTimeout(r.Context(), s.timeout)
	defer cancel()
	start := time.Now()
	_, err = s.agent.Generate(ctx, sess, req)
	s.metrics.observe(provider, sess.State(), err, time.Since(start))
	if err != nil {
		writeError(w, generateStatus(err), err.Error())
		return
	}

	if err := s.store.Save(r.Context(), sess); err != nil {
		s.logger.Error("session save failed", zap.String("session_id", sess.ID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "could not save session")
		return
	}
	writeJSON(w, http.StatusOK, s.sessionResponse(sess))
}

func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.loadSession(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = io.WriteString(w, preview.RenderSession(sess, s.defaults))
}

// --- Helpers ---

func (s *Server) loadSession(w http.ResponseWriter, r *http.Request) (*generator.Session, bool) {
	id := chi.URLParam(r, "id")
	sess, err := s.store.Get(r.Context(), id)
	if errors.Is(err, ErrSessionNotFound) {
		writeError(w, http.StatusNotFound, "session not found")
		return nil, false
	}
	if err != nil {
		s.logger.Error("session load failed", zap.String("session_id", id), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "could not load session")
		return nil, false
	}
	return sess, true
}

// parseGenerateRequest 读取 multipart 表单：image（可选）、source、instructions、provider。
func (s *Server) parseGenerateRequest(w http.ResponseWriter, r *http.Request) (generator.GenerationRequest, error) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload)
	if err := r.ParseMultipartForm(s.maxUpload); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		return generator.GenerationRequest{}, err
	}

	req := generator.GenerationRequest{
		Instructions: strings.TrimSpace(r.FormValue("instructions")),
		Provider:     strings.TrimSpace(r.FormValue("provider")),
		Source:       generator.SourceUpload,
	}
	if generator.ImageSource(r.FormValue("source")) == generator.SourceCanvas {
		req.Source = generator.SourceCanvas
	}

	file, _, err := r.FormFile("image")
	switch {
	case errors.Is(err, http.ErrMissingFile), errors.Is(err, http.ErrNotMultipart):
		return req, nil
	case err != nil:
		return req, err
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil {
		return req, err
	}
	req.Image = data
	return req, nil
}

func (s *Server) sessionResponse(sess *generator.Session) sessionResp {
	notes, err := preview.RenderNotes(sess.Notes)
	if err != nil {
		s.logger.Warn("notes render failed", zap.String("session_id", sess.ID), zap.Error(err))
	}
	history := sess.History
	if history == nil {
		history = []generator.Turn{}
	}
	return sessionResp{
		SessionID: sess.ID,
		State:     sess.State(),
		Code:      sess.Code,
		NotesHTML: notes,
		History:   history,
	}
}

// providerLabel 只把已知 provider 作为 metrics label，避免任意表单值产生新的时间序列。
func (s *Server) providerLabel(name string) string {
	reg := s.agent.Registry()
	if name == "" {
		return reg.DefaultName()
	}
	if reg.Has(name) {
		return name
	}
	return "unknown"
}

func generateStatus(err error) int {
	switch {
	case errors.Is(err, generator.ErrMissingCredential), errors.Is(err, generator.ErrUnknownProvider):
		return http.StatusBadRequest
	case errors.Is(err, imaging.ErrImageTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, generator.ErrInvalidImage):
		return http.StatusBadRequest
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, generator.ErrUpstream):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
