package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpoPushSenderBatchesTokens(t *testing.T) {
	var got []expoMessage
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"data":[{"status":"ok","id":"a"},{"status":"error","message":"gone","details":{"error":"DeviceNotRegistered"}}]}`))
	}))
	defer srv.Close()

	sender := NewExpoPushSender(srv.URL, "expo-token", nil)
	err := sender.Push(context.Background(), PushMessage{
		Tokens: []string{"ExponentPushToken[a]", "ExponentPushToken[b]"},
		Title:  "Kitchen remodel",
		Body:   "Can we talk about the invoice?",
		Data:   map[string]string{"projectId": "proj-1"},
	})
	require.NoError(t, err)

	assert.Equal(t, "Bearer expo-token", auth)
	require.Len(t, got, 2)
	assert.Equal(t, "ExponentPushToken[b]", got[1].To)
	assert.Equal(t, "proj-1", got[0].Data["projectId"])
}

func TestExpoPushSenderFailures(t *testing.T) {
	cases := map[string]struct {
		status int
		body   string
	}{
		"all tickets rejected": {http.StatusOK, `{"data":[{"status":"error","message":"gone"}]}`},
		"request error":        {http.StatusOK, `{"errors":[{"code":"VALIDATION_ERROR","message":"bad"}]}`},
		"server error":         {http.StatusBadGateway, ``},
		"garbage":              {http.StatusOK, `not json`},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			}))
			defer srv.Close()

			err := NewExpoPushSender(srv.URL, "", nil).Push(context.Background(), PushMessage{Tokens: []string{"t"}})
			assert.Error(t, err)
		})
	}
}

func TestExpoPushSenderRequiresTokens(t *testing.T) {
	err := NewExpoPushSender("", "", nil).Push(context.Background(), PushMessage{})
	assert.Error(t, err)
}
