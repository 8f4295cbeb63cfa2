// Package server exposes mind-map generation over HTTP.
//
// Routes:
//
//	POST /api/mindmaps              generate from a JSON pipeline.Request
//	GET  /api/mindmaps?date=&name=  list stored images for a day
//	GET  /output/*                  serve files from the local output tree
//	GET  /healthz                   liveness and build version
//
// Generations are bounded by a weighted semaphore so a burst of requests
// cannot start more headless browsers than configured. Waiting requests give
// up when their context is cancelled.
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/semaphore"

	"github.com/matzehuels/mindmapper/pkg/buildinfo"
	"github.com/matzehuels/mindmapper/pkg/errors"
	"github.com/matzehuels/mindmapper/pkg/pipeline"
	"github.com/matzehuels/mindmapper/pkg/storage"
)

// maxRequestBytes caps the size of a generation request body.
const maxRequestBytes = 4 << 20

// Generator is the part of *pipeline.Coordinator the server needs.
type Generator interface {
	Generate(ctx context.Context, req pipeline.Request) *pipeline.Result
	ListArtifacts(date, nameFilter string) ([]storage.Entry, error)
}

// Options configure a Server.
type Options struct {
	// OutputDir is served under /output/. Empty disables the route.
	OutputDir string
	// MaxConcurrent bounds simultaneous generations. Values below 1 mean 1.
	MaxConcurrent int
	Logger        *log.Logger
}

// Server routes HTTP requests to a Generator.
type Server struct {
	gen    Generator
	opts   Options
	sem    *semaphore.Weighted
	logger *log.Logger
	router chi.Router
}

// New creates a server for gen.
func New(gen Generator, opts Options) *Server {
	if opts.MaxConcurrent < 1 {
		opts.MaxConcurrent = 1
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	s := &Server{
		gen:    gen,
		opts:   opts,
		sem:    semaphore.NewWeighted(int64(opts.MaxConcurrent)),
		logger: logger,
	}
	s.router = s.routes()
	return s
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Get("/healthz", s.handleHealth)
	r.Route("/api/mindmaps", func(r chi.Router) {
		r.Post("/", s.handleGenerate)
		r.Get("/", s.handleList)
	})
	if s.opts.OutputDir != "" {
		r.Get("/output/*", s.handleOutput)
	}
	return r
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down,
// giving in-flight requests up to 30 seconds to finish.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	s.logger.Info("listening", "addr", addr, "max_concurrent", s.opts.MaxConcurrent)

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	s.logger.Info("server stopped")
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": buildinfo.Version,
	})
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var req pipeline.Request
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes))
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "could not parse JSON request body")
		return
	}

	if err := s.sem.Acquire(r.Context(), 1); err != nil {
		writeError(w, http.StatusServiceUnavailable, errors.ErrCodeInternal, "request cancelled while waiting for a render slot")
		return
	}
	res := s.gen.Generate(r.Context(), req)
	s.sem.Release(1)

	writeJSON(w, statusFor(res), res)
}

type listResponse struct {
	Date   string          `json:"date"`
	Count  int             `json:"count"`
	Images []storage.Entry `json:"images"`
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	date := r.URL.Query().Get("date")
	entries, err := s.gen.ListArtifacts(date, r.URL.Query().Get("name"))
	if err != nil {
		code := errors.GetCode(err)
		writeError(w, code.HTTPStatus(), code, errors.UserMessage(err))
		return
	}
	if date == "" {
		date = time.Now().Format(errors.DateLayout)
	}
	if entries == nil {
		entries = []storage.Entry{}
	}
	writeJSON(w, http.StatusOK, listResponse{Date: date, Count: len(entries), Images: entries})
}

func (s *Server) handleOutput(w http.ResponseWriter, r *http.Request) {
	// chi matches on the escaped path when one exists.
	rel, err := url.PathUnescape(chi.URLParam(r, "*"))
	if err != nil {
		writeError(w, http.StatusBadRequest, errors.ErrCodeInvalidPath, "malformed path")
		return
	}
	if err := errors.ValidatePath(rel); err != nil {
		writeError(w, http.StatusBadRequest, errors.GetCode(err), errors.UserMessage(err))
		return
	}
	path := filepath.Join(s.opts.OutputDir, filepath.FromSlash(rel))
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		writeError(w, http.StatusNotFound, errors.ErrCodeNotFound, "file not found")
		return
	}
	http.ServeFile(w, r, path)
}

// logRequests logs one line per request at debug level, and at warn level
// for server errors.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		fields := []any{
			"method", r.Method,
			"path", r.URL.Path,
			"status", status,
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start).Round(time.Millisecond),
			"request_id", middleware.GetReqID(r.Context()),
		}
		if status >= 500 {
			s.logger.Warn("request failed", fields...)
			return
		}
		s.logger.Debug("request", fields...)
	})
}

// statusFor maps a generation result to an HTTP status. The body is the
// Result either way.
func statusFor(res *pipeline.Result) int {
	if res.Success {
		return http.StatusOK
	}
	return errors.Code(res.Code).HTTPStatus()
}

type errorResponse struct {
	Success bool   `json:"success"`
	Code    string `json:"code"`
	Error   string `json:"error"`
}

func writeError(w http.ResponseWriter, status int, code errors.Code, msg string) {
	if code == "" {
		code = errors.ErrCodeInternal
	}
	writeJSON(w, status, errorResponse{Code: string(code), Error: msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
