// Package httpapi is the control surface: the message protocol, settings
// forms, the annotated feed and operational endpoints.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"LinkedLens/internal/domain"
	"LinkedLens/internal/infrastructure/dom"
	"LinkedLens/internal/usecase"
)

// Deps are the collaborators behind the endpoints. Metrics may be nil.
type Deps struct {
	Router   *usecase.Router
	Settings *usecase.Settings
	Page     *dom.Page
	Metrics  http.Handler
	Logger   *slog.Logger
}

// Server exposes Deps over HTTP.
type Server struct {
	deps   Deps
	logger *slog.Logger
	srv    *http.Server
}

// NewServer builds the server; call ListenAndServe to accept connections.
func NewServer(addr string, deps Deps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{deps: deps, logger: logger}
	s.srv = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

// Handler returns the routed handler wrapped with request logging.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.health)
	mux.HandleFunc("POST /api/message", s.message)
	mux.HandleFunc("GET /api/settings", s.getSettings)
	mux.HandleFunc("PUT /api/settings", s.putSettings)
	mux.HandleFunc("GET /feed", s.feed)
	if s.deps.Metrics != nil {
		mux.Handle("GET /metrics", s.deps.Metrics)
	}
	return logRequest(s.logger, mux)
}

// ListenAndServe blocks until the server stops; a graceful Shutdown returns nil.
func (s *Server) ListenAndServe() error {
	s.logger.Info("control surface listening", "addr", s.srv.Addr)
	if err := s.srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Serve accepts connections on l.
func (s *Server) Serve(l net.Listener) error {
	if err := s.srv.Serve(l); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting connections and waits for in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// message carries the control protocol. Toggle values are persisted before
// they are dispatched, so a restart keeps what the user chose.
func (s *Server) message(w http.ResponseWriter, r *http.Request) {
	var req usecase.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Action == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid payload"})
		return
	}

	if err := s.persistToggle(r.Context(), req); err != nil {
		s.logger.Error("persist toggle failed", "action", req.Action, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]any{"success": false, "error": err.Error()})
		return
	}

	select {
	case resp := <-s.deps.Router.Dispatch(r.Context(), req):
		writeJSON(w, http.StatusOK, resp)
	case <-r.Context().Done():
		// The requester left; a reanalyze run keeps going on its own.
	}
}

func (s *Server) persistToggle(ctx context.Context, req usecase.Request) error {
	if s.deps.Settings == nil {
		return nil
	}
	switch {
	case req.Action == usecase.ActionToggleAutoHide && req.Payload.AutoHide != nil:
		return s.deps.Settings.SaveAutoHide(ctx, *req.Payload.AutoHide)
	case req.Action == usecase.ActionToggleExtension && req.Payload.Enabled != nil:
		return s.deps.Settings.SaveExtensionEnabled(ctx, *req.Payload.Enabled)
	}
	return nil
}

type settingsView struct {
	Provider         string `json:"apiProvider"`
	GeminiAPIKey     string `json:"geminiApiKey"`
	GeminiKeySet     bool   `json:"geminiKeySet"`
	OpenRouterAPIKey string `json:"openRouterApiKey"`
	OpenRouterKeySet bool   `json:"openRouterKeySet"`
	OpenRouterModel  string `json:"openRouterModel"`
}

type settingsForm struct {
	Provider         string `json:"apiProvider"`
	GeminiAPIKey     string `json:"geminiApiKey"`
	OpenRouterAPIKey string `json:"openRouterApiKey"`
	OpenRouterModel  string `json:"openRouterModel"`
}

func (s *Server) getSettings(w http.ResponseWriter, r *http.Request) {
	ps, err := s.deps.Settings.ProviderSettings(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, settingsView{
		Provider:         ps.Provider,
		GeminiAPIKey:     MaskGeminiKey(ps.GeminiAPIKey),
		GeminiKeySet:     ps.GeminiAPIKey != "",
		OpenRouterAPIKey: MaskOpenRouterKey(ps.OpenRouterAPIKey),
		OpenRouterKeySet: ps.OpenRouterAPIKey != "",
		OpenRouterModel:  ps.OpenRouterModel,
	})
}

// putSettings saves provider selection, keys and model. Blank fields and keys
// echoed back in their masked form leave the stored value alone.
func (s *Server) putSettings(w http.ResponseWriter, r *http.Request) {
	var form settingsForm
	if err := json.NewDecoder(r.Body).Decode(&form); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid payload"})
		return
	}

	form.Provider = strings.TrimSpace(form.Provider)
	switch form.Provider {
	case "", domain.ProviderGemini, domain.ProviderOpenRouter:
	default:
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "unknown provider " + form.Provider})
		return
	}

	current, err := s.deps.Settings.ProviderSettings(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if current.GeminiAPIKey != "" && form.GeminiAPIKey == MaskGeminiKey(current.GeminiAPIKey) {
		form.GeminiAPIKey = ""
	}
	if current.OpenRouterAPIKey != "" && form.OpenRouterAPIKey == MaskOpenRouterKey(current.OpenRouterAPIKey) {
		form.OpenRouterAPIKey = ""
	}

	err = s.deps.Settings.SaveProviderSettings(r.Context(), domain.ProviderSettings{
		Provider:         form.Provider,
		GeminiAPIKey:     form.GeminiAPIKey,
		OpenRouterAPIKey: form.OpenRouterAPIKey,
		OpenRouterModel:  form.OpenRouterModel,
	})
	if err != nil {
		s.logger.Error("save settings failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (s *Server) feed(w http.ResponseWriter, _ *http.Request) {
	out, err := s.deps.Page.HTML()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(out))
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func logRequest(l *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		l.Debug("request served", "method", r.Method, "path", r.URL.Path, "duration", time.Since(start))
	})
}
