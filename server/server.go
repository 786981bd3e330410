package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"recall/domain"
	"recall/store"
	"recall/tracing"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

type Server struct {
	mu  sync.RWMutex
	st  *store.Store
	hub *Hub
}

func New(st *store.Store) *Server {
	s := &Server{hub: NewHub()}
	s.SetStore(st)

	return s
}

// SetStore swaps the backing store, re-wiring the event feed, and returns
// the previous store so the caller can close it.  Used by config reload.
func (s *Server) SetStore(st *store.Store) *store.Store {
	s.mu.Lock()
	old := s.st
	s.st = st
	s.mu.Unlock()

	st.OnEvent(s.hub.Broadcast)
	return old
}

func (s *Server) store() *store.Store {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.st
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.Handle("POST /v1/memories", route(s.handleAdd))
	mux.Handle("GET /v1/memories", route(s.handleGetAll))
	mux.Handle("GET /v1/memories/{id}", route(s.handleGet))
	mux.Handle("PUT /v1/memories/{id}", route(s.handleUpdate))
	mux.Handle("DELETE /v1/memories/{id}", route(s.handleDelete))
	mux.Handle("GET /v1/memories/{id}/history", route(s.handleHistory))
	mux.Handle("POST /v1/search", route(s.handleSearch))
	mux.Handle("GET /v1/events", route(s.handleEvents))

	return otelhttp.NewHandler(mux, "recall.server")
}

// route renames the request's span after the mux has matched, so spans are
// named per operation ("POST /v1/memories") rather than all sharing the
// handler-wide name.
func route(h http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		span := trace.SpanFromContext(r.Context())
		span.SetName(r.Pattern)
		span.SetAttributes(semconv.HTTPRoute(r.Pattern))

		h(w, r)
	})
}

func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:    addr,
		Handler: s.Handler(),
	}

	wg, ctx := errgroup.WithContext(ctx)

	wg.Go(func() error {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	wg.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	return wg.Wait()
}

type addRequest struct {
	UserID   string          `json:"user_id"`
	Content  string          `json:"content"`
	Metadata domain.Metadata `json:"metadata,omitempty"`
}

func (s *Server) handleAdd(w http.ResponseWriter, r *http.Request) {
	req := addRequest{}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, r, fmt.Errorf("%w: %s", domain.ErrInvalid, err))
		return
	}

	mem, err := s.store().Add(r.Context(), req.UserID, req.Content, req.Metadata)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	respondJson(w, http.StatusCreated, mem)
}

type updateRequest struct {
	Content  string          `json:"content"`
	Metadata domain.Metadata `json:"metadata,omitempty"`
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	req := updateRequest{}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, r, fmt.Errorf("%w: %s", domain.ErrInvalid, err))
		return
	}

	id, err := s.store().Resolve(r.Context(), r.PathValue("id"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	mem, err := s.store().Update(r.Context(), id, req.Content, req.Metadata)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	respondJson(w, http.StatusOK, mem)
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	id, err := s.store().Resolve(r.Context(), r.PathValue("id"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	mem, err := s.store().Get(r.Context(), id)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	respondJson(w, http.StatusOK, mem)
}

func (s *Server) handleGetAll(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	if strings.TrimSpace(userID) == "" {
		s.respondError(w, r, fmt.Errorf("%w: a user_id query parameter is required", domain.ErrInvalid))
		return
	}

	memories, err := s.store().GetAll(r.Context(), userID)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	respondJson(w, http.StatusOK, memories)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := s.store().Resolve(r.Context(), r.PathValue("id"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	if err := s.store().Delete(r.Context(), id); err != nil {
		s.respondError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	id, err := s.store().Resolve(r.Context(), r.PathValue("id"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	entries, err := s.store().History(r.Context(), id)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	respondJson(w, http.StatusOK, entries)
}

type searchRequest struct {
	UserID string `json:"user_id"`
	Query  string `json:"query"`
	Limit  int    `json:"limit,omitempty"`
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	req := searchRequest{}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, r, fmt.Errorf("%w: %s", domain.ErrInvalid, err))
		return
	}
	if strings.TrimSpace(req.UserID) == "" {
		s.respondError(w, r, fmt.Errorf("%w: a user_id is required", domain.ErrInvalid))
		return
	}

	results, err := s.store().Search(r.Context(), req.UserID, req.Query, req.Limit)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	respondJson(w, http.StatusOK, results)
}

// respondError marks the request's span as failed before writing the http
// error, so the trace carries the failure even though the error itself
// leaves via the response.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error) {
	tracing.ErrorCtx(r.Context(), err)

	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrInvalid):
		status = http.StatusBadRequest
	}

	http.Error(w, err.Error(), status)
}

func respondJson(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
