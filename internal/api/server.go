// Package api exposes the federation service over a JSON HTTP surface.
// Handlers stay thin: parse, dispatch, map typed errors to status codes.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/TenKdoToLami/UpNext/internal/apperrors"
	"github.com/TenKdoToLami/UpNext/internal/config"
	"github.com/TenKdoToLami/UpNext/internal/federation"
)

type Server struct {
	service *federation.Service
	http    *http.Server
	log     zerolog.Logger
}

func NewServer(service *federation.Service, address string, port int) *Server {
	s := &Server{
		service: service,
		log:     config.GetLogger(),
	}
	s.http = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", address, port),
		Handler:           s.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Routes builds the router. Exposed for handler tests.
func (s *Server) Routes() chi.Router {
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Recoverer)

	router.Get("/health", s.health)
	router.Route("/api/external", func(r chi.Router) {
		r.Get("/search", s.search)
		r.Get("/details", s.details)
		r.Put("/credentials/{provider}", s.setCredential)
	})
	return router
}

func (s *Server) ListenAndServe() error {
	s.log.Info().Str("address", s.http.Addr).Msg("API server listening")
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	results, err := s.service.Search(r.Context(), q.Get("query"), q.Get("category"), q.Get("source"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"results": results})
}

func (s *Server) details(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	id := q.Get("id")
	if id == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("missing id parameter"))
		return
	}
	record, err := s.service.Details(r.Context(), id, q.Get("category"), q.Get("source"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	if record == nil {
		writeJSON(w, http.StatusNotFound, errorBody("record not found"))
		return
	}
	writeJSON(w, http.StatusOK, record)
}

func (s *Server) setCredential(w http.ResponseWriter, r *http.Request) {
	var body struct {
		APIKey string `json:"api_key"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	provider := chi.URLParam(r, "provider")
	if err := s.service.SetCredential(provider, body.APIKey); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "updated", "provider": provider})
}

// writeError maps the typed error taxonomy onto HTTP status codes.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, &apperrors.ErrInvalidCategory{}), errors.Is(err, &apperrors.ErrInvalidSource{}):
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
	case errors.Is(err, &apperrors.ErrCredentialMissing{}):
		writeJSON(w, http.StatusUnauthorized, errorBody(err.Error()))
	case errors.Is(err, &apperrors.ErrUpstream{}):
		s.log.Error().Err(err).Msg("Upstream failure")
		writeJSON(w, http.StatusBadGateway, errorBody(err.Error()))
	default:
		s.log.Error().Err(err).Msg("Unhandled error")
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
	}
}

func errorBody(message string) map[string]string {
	return map[string]string{"error": message}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
