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
	"github.com/sirupsen/logrus"

	"github.com/theirongolddev/cadence/internal/budget"
	"github.com/theirongolddev/cadence/internal/cadence"
	"github.com/theirongolddev/cadence/internal/model"
	"github.com/theirongolddev/cadence/internal/report"
)

// ErrorResponse is the body of every non-2xx JSON response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// ItemRequest is the body of item create and update calls. Frequency and
// Type accept the same lenient spellings as budget files.
type ItemRequest struct {
	ID        string  `json:"id,omitempty"`
	Name      string  `json:"name"`
	Amount    float64 `json:"amount"`
	Category  string  `json:"category"`
	Frequency string  `json:"frequency"`
	Type      string  `json:"type"`
}

// Handler returns the HTTP API.
func (s *Service) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)

	r.Route("/v1", func(r chi.Router) {
		r.Get("/status", s.handleStatus)
		r.Get("/convert", s.handleConvert)

		r.Route("/sessions", func(r chi.Router) {
			r.Post("/", s.handleCreateSession)

			r.Route("/{sid}", func(r chi.Router) {
				r.Get("/", s.withSession(s.handleGetSession))
				r.Delete("/", s.handleDeleteSession)

				r.Get("/items", s.withSession(s.handleListItems))
				r.Post("/items", s.withSession(s.handleAddItem))
				r.Put("/items/{id}", s.withSession(s.handleUpdateItem))
				r.Delete("/items/{id}", s.withSession(s.handleRemoveItem))

				r.Put("/frequency", s.withSession(s.handleSetFrequency))

				r.Get("/export.csv", s.withSession(s.handleExportCSV))
				r.Post("/export", s.withSession(s.handleExport))

				r.Get("/events", s.withSession(s.handleEvents))
				r.Get("/stream", s.withSession(s.handleStream))
			})
		})
	})

	return r
}

func (s *Service) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		defer func() {
			s.log.WithFields(logrus.Fields{
				"method":     r.Method,
				"path":       r.URL.Path,
				"status":     ww.Status(),
				"bytes":      ww.BytesWritten(),
				"duration":   time.Since(start).String(),
				"request_id": middleware.GetReqID(r.Context()),
			}).Debug("Request handled")
		}()
		next.ServeHTTP(ww, r)
	})
}

type sessionHandler func(http.ResponseWriter, *http.Request, *session)

func (s *Service) withSession(h sessionHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sid := chi.URLParam(r, "sid")
		sess, ok := s.sessions.get(sid)
		if !ok {
			writeJSONError(w, http.StatusNotFound, "not_found", fmt.Sprintf("session %q not found", sid))
			return
		}
		h(w, r, sess)
	}
}

func (s *Service) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok\n"))
}

func (s *Service) handleStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.snapshotStatus())
}

func (s *Service) handleConvert(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	amount, err := strconv.ParseFloat(q.Get("amount"), 64)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_parameter", "amount must be a number")
		return
	}
	from, err := cadence.Parse(q.Get("from"))
	if err != nil {
		writeLookupError(w, err)
		return
	}
	to, err := cadence.Parse(q.Get("to"))
	if err != nil {
		writeLookupError(w, err)
		return
	}

	result, err := cadence.Convert(amount, from, to)
	if err != nil {
		writeLookupError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"amount": amount,
		"from":   from,
		"to":     to,
		"result": result,
	})
}

func (s *Service) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Seed      *bool  `json:"seed"`
		Frequency string `json:"frequency"`
	}
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeJSONError(w, http.StatusBadRequest, "invalid_body", err.Error())
			return
		}
	}

	seed := s.cfg.SeedDefaults
	if body.Seed != nil {
		seed = *body.Seed
	}
	var freq model.Frequency
	if body.Frequency != "" {
		f, err := cadence.Parse(body.Frequency)
		if err != nil {
			writeLookupError(w, err)
			return
		}
		freq = f
	}

	id, err := s.CreateSession(seed, freq)
	if err != nil {
		writeLookupError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"id": id})
}

func (s *Service) handleGetSession(w http.ResponseWriter, _ *http.Request, sess *session) {
	writeJSON(w, http.StatusOK, sess.view())
}

func (s *Service) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	sid := chi.URLParam(r, "sid")
	if sid == DefaultSessionID && s.store != nil {
		writeJSONError(w, http.StatusConflict, "persistent_session", "the stored session cannot be deleted")
		return
	}
	if !s.sessions.remove(sid) {
		writeJSONError(w, http.StatusNotFound, "not_found", fmt.Sprintf("session %q not found", sid))
		return
	}
	s.log.WithField("session", sid).Info("Session deleted")
	w.WriteHeader(http.StatusNoContent)
}

func (s *Service) handleListItems(w http.ResponseWriter, r *http.Request, sess *session) {
	sess.mu.Lock()
	var items []model.LineItem
	if t := r.URL.Query().Get("type"); t != "" {
		typ, err := model.ParseItemType(t)
		if err != nil {
			sess.mu.Unlock()
			writeJSONError(w, http.StatusBadRequest, "invalid_parameter", err.Error())
			return
		}
		items = sess.state.ItemsOfType(typ)
	} else {
		items = sess.state.Items()
	}
	sess.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]any{"items": nonNil(items)})
}

func (s *Service) handleAddItem(w http.ResponseWriter, r *http.Request, sess *session) {
	item, ok := decodeItem(w, r)
	if !ok {
		return
	}

	sess.mu.Lock()
	added, err := sess.state.AddItem(item)
	sess.mu.Unlock()
	if err != nil {
		writeItemError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, added)
}

func (s *Service) handleUpdateItem(w http.ResponseWriter, r *http.Request, sess *session) {
	item, ok := decodeItem(w, r)
	if !ok {
		return
	}
	item.ID = chi.URLParam(r, "id")

	sess.mu.Lock()
	updated, err := sess.state.UpdateItem(item)
	sess.mu.Unlock()
	if err != nil {
		writeItemError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"updated": updated})
}

func (s *Service) handleRemoveItem(w http.ResponseWriter, r *http.Request, sess *session) {
	sess.mu.Lock()
	removed := sess.state.RemoveItem(chi.URLParam(r, "id"))
	sess.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]bool{"removed": removed})
}

func (s *Service) handleSetFrequency(w http.ResponseWriter, r *http.Request, sess *session) {
	var body struct {
		Frequency string `json:"frequency"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_body", err.Error())
		return
	}
	f, err := cadence.Parse(body.Frequency)
	if err != nil {
		writeLookupError(w, err)
		return
	}

	sess.mu.Lock()
	err = sess.state.SetFrequency(f)
	totals := sess.state.Totals()
	sess.mu.Unlock()
	if err != nil {
		writeLookupError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"frequency": f, "totals": totals})
}

func (s *Service) handleExportCSV(w http.ResponseWriter, _ *http.Request, sess *session) {
	sess.mu.Lock()
	items := sess.state.Items()
	sess.mu.Unlock()

	r, err := report.Build(items)
	if err != nil {
		writeLookupError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", report.FileName(s.now())))
	if err := report.WriteCSV(w, r); err != nil {
		s.log.WithError(err).Warn("Failed to stream export")
	}
}

func (s *Service) handleExport(w http.ResponseWriter, r *http.Request, sess *session) {
	path, err := s.exportSession(r.Context(), sess)
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, "export_failed", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"path": path})
}

func (s *Service) handleEvents(w http.ResponseWriter, _ *http.Request, sess *session) {
	sess.evMu.Lock()
	events := sess.log.snapshot()
	sess.evMu.Unlock()

	writeJSON(w, http.StatusOK, events)
}

func (s *Service) handleStream(w http.ResponseWriter, r *http.Request, sess *session) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch := make(chan Event, 16)
	sess.evMu.Lock()
	id := sess.log.subscribe(ch)
	sess.evMu.Unlock()
	defer func() {
		sess.evMu.Lock()
		sess.log.unsubscribe(id)
		sess.evMu.Unlock()
	}()

	// Send current totals immediately.
	writeSSE(w, sess.currentEvent())
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case ev := <-ch:
			writeSSE(w, ev)
			flusher.Flush()
		}
	}
}

func decodeItem(w http.ResponseWriter, r *http.Request) (model.LineItem, bool) {
	var req ItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_body", err.Error())
		return model.LineItem{}, false
	}

	if strings.TrimSpace(req.Name) == "" {
		writeJSONError(w, http.StatusBadRequest, "invalid_item", "name is required")
		return model.LineItem{}, false
	}
	if req.Amount < 0 {
		writeJSONError(w, http.StatusBadRequest, "invalid_item", "amount must not be negative")
		return model.LineItem{}, false
	}
	freq, err := cadence.Parse(req.Frequency)
	if err != nil {
		writeLookupError(w, err)
		return model.LineItem{}, false
	}
	typ, err := model.ParseItemType(req.Type)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_item", err.Error())
		return model.LineItem{}, false
	}

	return model.LineItem{
		ID:        req.ID,
		Name:      strings.TrimSpace(req.Name),
		Amount:    req.Amount,
		Category:  strings.TrimSpace(req.Category),
		Frequency: freq,
		Type:      typ,
	}, true
}

func writeItemError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, cadence.ErrUnknownFrequency):
		writeLookupError(w, err)
	case errors.Is(err, budget.ErrDuplicateID):
		writeJSONError(w, http.StatusConflict, "duplicate_id", err.Error())
	default:
		writeJSONError(w, http.StatusBadRequest, "invalid_item", err.Error())
	}
}

func writeLookupError(w http.ResponseWriter, err error) {
	if errors.Is(err, cadence.ErrUnknownFrequency) {
		writeJSONError(w, http.StatusBadRequest, "unknown_frequency", err.Error())
		return
	}
	writeJSONError(w, http.StatusInternalServerError, "server_error", err.Error())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeJSONError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{Error: code, Message: message})
}
