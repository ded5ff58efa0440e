package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/glossa-project/tbta-review/internal/review"
	"github.com/glossa-project/tbta-review/internal/store"
	"github.com/glossa-project/tbta-review/internal/workflow"
)

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := store.RunFilter{
		Verse:  q.Get("verse"),
		Limit:  queryInt(q.Get("limit")),
		Offset: queryInt(q.Get("offset")),
	}

	runs, err := s.store.ListRuns(r.Context(), filter)
	if err != nil {
		s.respondStoreError(w, err)
		return
	}
	if runs == nil {
		runs = []store.Run{}
	}
	respondJSON(w, http.StatusOK, runs)
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	run, err := s.store.GetRun(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.respondStoreError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, run)
}

func (s *Server) handleRunSummary(w http.ResponseWriter, r *http.Request) {
	run, err := s.store.GetRun(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.respondStoreError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, run.Summary)
}

func (s *Server) handleListItems(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	status := q.Get("status")
	if status != "" && !review.ValidStatus(status) {
		respondError(w, http.StatusBadRequest, "unknown status "+strconv.Quote(status))
		return
	}
	reason := q.Get("reason")
	if reason != "" && !review.ValidReason(reason) {
		respondError(w, http.StatusBadRequest, "unknown reason "+strconv.Quote(reason))
		return
	}

	filter := store.ItemFilter{
		RunID:  q.Get("run"),
		Verse:  q.Get("verse"),
		Status: review.Status(status),
		Reason: review.Reason(reason),
		Limit:  queryInt(q.Get("limit")),
		Offset: queryInt(q.Get("offset")),
	}

	items, err := s.store.ListItems(r.Context(), filter)
	if err != nil {
		s.respondStoreError(w, err)
		return
	}
	if items == nil {
		items = []store.Item{}
	}
	respondJSON(w, http.StatusOK, items)
}

func (s *Server) handleGetItem(w http.ResponseWriter, r *http.Request) {
	item, err := s.store.GetItem(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.respondStoreError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, item)
}

// decisionRequest is the POST body for /api/items/{id}/decision.
type decisionRequest struct {
	Status         string `json:"status"`
	ReviewedBy     string `json:"reviewed_by"`
	CorrectedValue string `json:"corrected_value,omitempty"`
}

func (s *Server) handleDecision(w http.ResponseWriter, r *http.Request) {
	var req decisionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	d := workflow.Decision{
		Status:         review.Status(req.Status),
		ReviewedBy:     req.ReviewedBy,
		CorrectedValue: req.CorrectedValue,
	}
	if err := d.Validate(); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	item, err := s.store.ApplyDecision(r.Context(), chi.URLParam(r, "id"), d)
	if err != nil {
		s.respondStoreError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, item)
}

// respondStoreError maps store errors onto HTTP statuses.
func (s *Server) respondStoreError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		respondError(w, http.StatusNotFound, "not found")
	case errors.Is(err, store.ErrAlreadyDecided):
		respondError(w, http.StatusConflict, "item already decided")
	default:
		zap.L().Error("server: store error", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "internal error")
	}
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Error("server: encode response", zap.Error(err))
	}
}

func respondError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, map[string]string{"error": msg})
}

// queryInt parses a numeric query parameter, treating anything
// unparseable as unset.
func queryInt(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0
	}
	return n
}
