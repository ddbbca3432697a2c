package conversations

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/contractor-sms-triage/pkg/logging"
)

func TestHandler_ListByProject(t *testing.T) {
	store := NewInMemoryStore()
	require.NoError(t, store.Append(context.Background(), &Record{
		ProjectID: strPtr("proj-1"), From: "+15551234567", Channel: "sms", HandledBy: HandledByPending, NeedsAttention: true,
	}))
	handler := NewHandler(store, logging.Default())

	r := chi.NewRouter()
	r.Get("/admin/projects/{projectID}/conversations", handler.ListByProject)

	req := httptest.NewRequest(http.MethodGet, "/admin/projects/proj-1/conversations?limit=5", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var resp ListResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, 1, resp.Count)
	assert.Equal(t, 5, resp.Limit)
	assert.Equal(t, HandledByPending, resp.Conversations[0].HandledBy)
}

func TestHandler_ListNeedingAttentionEmpty(t *testing.T) {
	handler := NewHandler(NewInMemoryStore(), nil)

	req := httptest.NewRequest(http.MethodGet, "/admin/conversations/attention?limit=999", nil)
	w := httptest.NewRecorder()
	handler.ListNeedingAttention(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var resp ListResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.NotNil(t, resp.Conversations)
	assert.Equal(t, 0, resp.Count)
	assert.Equal(t, defaultListLimit, resp.Limit)
}
