package conversations

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/wolfman30/contractor-sms-triage/pkg/logging"
)

// Handler serves read-only views of the conversation audit log.
type Handler struct {
	store  Store
	logger *logging.Logger
}

// NewHandler creates a conversations handler.
func NewHandler(store Store, logger *logging.Logger) *Handler {
	if store == nil {
		panic("conversations: store cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{store: store, logger: logger}
}

// ListResponse is the body returned by the list endpoints.
type ListResponse struct {
	Conversations []Record `json:"conversations"`
	Count         int      `json:"count"`
	Limit         int      `json:"limit"`
}

// ListByProject handles GET /admin/projects/{projectID}/conversations.
func (h *Handler) ListByProject(w http.ResponseWriter, r *http.Request) {
	projectID := chi.URLParam(r, "projectID")
	if projectID == "" {
		http.Error(w, "missing project_id", http.StatusBadRequest)
		return
	}
	limit := parseLimit(r)
	records, err := h.store.ListByProject(r.Context(), projectID, limit)
	if err != nil {
		h.logger.Error("failed to list conversations", "error", err, "project_id", projectID)
		http.Error(w, "failed to list conversations", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, ListResponse{Conversations: nonNil(records), Count: len(records), Limit: limit})
}

// ListNeedingAttention handles GET /admin/conversations/attention.
func (h *Handler) ListNeedingAttention(w http.ResponseWriter, r *http.Request) {
	limit := parseLimit(r)
	records, err := h.store.ListNeedingAttention(r.Context(), limit)
	if err != nil {
		h.logger.Error("failed to list conversations needing attention", "error", err)
		http.Error(w, "failed to list conversations", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, ListResponse{Conversations: nonNil(records), Count: len(records), Limit: limit})
}

func parseLimit(r *http.Request) int {
	limit := defaultListLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 && v <= 100 {
			limit = v
		}
	}
	return limit
}

func nonNil(records []Record) []Record {
	if records == nil {
		return []Record{}
	}
	return records
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
