package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendMessage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/chat", r.URL.Path)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body struct {
			Message string `json:"message"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "What is anemia?", body.Message)

		json.NewEncoder(w).Encode(map[string]string{
			"response": "Anemia is a shortage of red blood cells.",
		})
	}))
	defer server.Close()

	c, err := New(server.URL)
	require.NoError(t, err)

	reply, err := c.SendMessage(context.Background(), "What is anemia?")
	require.NoError(t, err)
	assert.Equal(t, "Anemia is a shortage of red blood cells.", reply)
}

func TestSendMessageServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{"error": "Message cannot be empty"})
	}))
	defer server.Close()

	c, err := New(server.URL)
	require.NoError(t, err)

	_, err = c.SendMessage(context.Background(), "")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
	assert.Equal(t, "Message cannot be empty", apiErr.Message)
	assert.Equal(t, "Message cannot be empty", apiErr.Error())
}

func TestSendMessageTransportFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	c, err := New(server.URL)
	require.NoError(t, err)

	_, err = c.SendMessage(context.Background(), "hello")
	require.Error(t, err)
	var apiErr *APIError
	assert.False(t, errors.As(err, &apiErr), "transport failure must not be an APIError")
}

func TestFetchHistory(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodGet, r.Method)
		require.Equal(t, "/api/history", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]any{
			"history": []map[string]string{
				{"role": "user", "message": "hi"},
				{"role": "bot", "message": "Hello! How can I help?"},
			},
		})
	}))
	defer server.Close()

	c, err := New(server.URL)
	require.NoError(t, err)

	history, err := c.FetchHistory(context.Background())
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "user", history[0].Role)
	assert.Equal(t, "bot", history[1].Role)
	assert.Equal(t, "Hello! How can I help?", history[1].Message)
}

func TestClearHistory(t *testing.T) {
	cleared := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/clear", r.URL.Path)
		cleared = true
		json.NewEncoder(w).Encode(map[string]string{"status": "cleared"})
	}))
	defer server.Close()

	c, err := New(server.URL)
	require.NoError(t, err)

	require.NoError(t, c.ClearHistory(context.Background()))
	assert.True(t, cleared)
}

func TestSessionCookiePersistsAcrossCalls(t *testing.T) {
	var seenCookie string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ck, err := r.Cookie("chat_session"); err == nil {
			seenCookie = ck.Value
		} else {
			http.SetCookie(w, &http.Cookie{Name: "chat_session", Value: "abc123", Path: "/"})
		}
		json.NewEncoder(w).Encode(map[string]any{"history": []any{}})
	}))
	defer server.Close()

	c, err := New(server.URL)
	require.NoError(t, err)

	_, err = c.FetchHistory(context.Background())
	require.NoError(t, err)
	_, err = c.FetchHistory(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "abc123", seenCookie)
}

func TestNewRejectsEmptyURL(t *testing.T) {
	_, err := New("   ")
	require.Error(t, err)
}
