// Package api — HTTP JSON API движка: последний кадр, лучи каналов, метрики качества,
// чтение и замена настроек, включение/выключение инъекции, список записанных сессий.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/shiwa/gaze-error-injector/internal/engine"
	"github.com/shiwa/gaze-error-injector/internal/gaze"
	"github.com/shiwa/gaze-error-injector/internal/hostclock"
	"github.com/shiwa/gaze-error-injector/internal/logger"
	"github.com/shiwa/gaze-error-injector/internal/quality"
	"github.com/shiwa/gaze-error-injector/internal/recorder"
)

// maxBody — предел тела PUT /api/settings
const maxBody = 64 << 10

// SessionLister — источник списка сессий записи
type SessionLister interface {
	Sessions() ([]recorder.Session, error)
}

// Server — HTTP сервер API
type Server struct {
	engine   *engine.Engine
	quality  *quality.Monitor
	sessions SessionLister
	tracker  func() string
}

// Option настраивает Server
type Option func(*Server)

// WithQuality подключает метрики качества (GET /api/quality)
func WithQuality(m *quality.Monitor) Option {
	return func(s *Server) { s.quality = m }
}

// WithSessions подключает список сессий записи (GET /api/sessions)
func WithSessions(l SessionLister) Option {
	return func(s *Server) { s.sessions = l }
}

// WithTracker задаёт функцию имени активного трекера для /api/status
func WithTracker(fn func() string) Option {
	return func(s *Server) { s.tracker = fn }
}

// New создаёт сервер поверх движка
func New(e *engine.Engine, opts ...Option) *Server {
	s := &Server{engine: e}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Handler возвращает маршрутизатор API
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/frame", s.handleFrame)
	mux.HandleFunc("GET /api/ray", s.handleRay)
	mux.HandleFunc("GET /api/quality", s.handleQuality)
	mux.HandleFunc("GET /api/status", s.handleStatus)
	mux.HandleFunc("GET /api/settings", s.handleGetSettings)
	mux.HandleFunc("PUT /api/settings", s.handlePutSettings)
	mux.HandleFunc("POST /api/active", s.handleActive)
	mux.HandleFunc("GET /api/sessions", s.handleSessions)
	return mux
}

// ListenAndServe слушает addr до отмены ctx
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
	logger.Info("api: listening on %s", ln.Addr())
	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// envelope — формат ответа: {"type": ..., "data": ...}
type envelope struct {
	Type  string `json:"type,omitempty"`
	Data  any    `json:"data,omitempty"`
	Error string `json:"error,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, typ string, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(envelope{Type: typ, Data: data})
}

func writeError(w http.ResponseWriter, status int, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(envelope{Error: err.Error()})
}

func (s *Server) handleFrame(w http.ResponseWriter, _ *http.Request) {
	f, ok := s.engine.Latest()
	if !ok {
		writeError(w, http.StatusNotFound, errors.New("no frame yet"))
		return
	}
	writeJSON(w, http.StatusOK, "frame", f)
}

func (s *Server) handleRay(w http.ResponseWriter, r *http.Request) {
	eye, err := parseEye(r.URL.Query().Get("eye"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	kind := gaze.DataError
	switch r.URL.Query().Get("kind") {
	case "", "error":
	case "original":
		kind = gaze.DataOriginal
	default:
		writeError(w, http.StatusBadRequest, errors.New("kind must be error or original"))
		return
	}
	f, ok := s.engine.Latest()
	if !ok {
		writeError(w, http.StatusNotFound, errors.New("no frame yet"))
		return
	}
	ray, valid := f.Ray(eye, kind), f.Channel(eye).Valid(kind)
	writeJSON(w, http.StatusOK, "ray", struct {
		Ray   gaze.Ray `json:"ray"`
		Valid bool     `json:"valid"`
		Seq   uint64   `json:"seq"`
	}{ray, valid, f.Seq})
}

func parseEye(s string) (gaze.Eye, error) {
	for _, e := range gaze.Eyes {
		if e.String() == s {
			return e, nil
		}
	}
	if s == "" {
		return gaze.EyeGaze, nil
	}
	return gaze.EyeGaze, errors.New("eye must be gaze, left or right")
}

func (s *Server) handleQuality(w http.ResponseWriter, _ *http.Request) {
	if s.quality == nil {
		writeError(w, http.StatusNotFound, errors.New("quality monitor disabled"))
		return
	}
	writeJSON(w, http.StatusOK, "quality", s.quality.Report())
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	name := ""
	if s.tracker != nil {
		name = s.tracker()
	}
	writeJSON(w, http.StatusOK, "status", struct {
		Active          bool         `json:"active"`
		Tracker         string       `json:"tracker"`
		Stats           engine.Stats `json:"stats"`
		ClockResolution int64        `json:"clock_resolution_ns"`
	}{s.engine.Active(), name, s.engine.Stats(), hostclock.Resolution().Nanoseconds()})
}

func (s *Server) handleGetSettings(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, "settings", s.engine.Settings().Load())
}

func (s *Server) handlePutSettings(w http.ResponseWriter, r *http.Request) {
	var in engine.Settings
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := s.engine.Settings().Store(in); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, gaze.ErrInvalidSettings) {
			status = http.StatusUnprocessableEntity
		}
		writeError(w, status, err)
		return
	}
	if s.quality != nil {
		s.quality.Reset()
	}
	logger.Info("api: settings replaced (mode=%s)", in.Mode)
	writeJSON(w, http.StatusOK, "settings", s.engine.Settings().Load())
}

func (s *Server) handleActive(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Active *bool `json:"active"`
	}
	// пустое тело (в том числе chunked) — переключение
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBody)).Decode(&in); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	var active bool
	if in.Active == nil {
		active = s.engine.Toggle()
	} else {
		s.engine.SetActive(*in.Active)
		active = *in.Active
	}
	writeJSON(w, http.StatusOK, "active", struct {
		Active bool `json:"active"`
	}{active})
}

func (s *Server) handleSessions(w http.ResponseWriter, _ *http.Request) {
	if s.sessions == nil {
		writeError(w, http.StatusNotFound, errors.New("recorder disabled"))
		return
	}
	list, err := s.sessions.Sessions()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, "sessions", list)
}
