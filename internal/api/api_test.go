package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quotepilot/quotepilot/internal/flow"
	"github.com/quotepilot/quotepilot/internal/genai"
	"github.com/quotepilot/quotepilot/internal/store"
	"github.com/quotepilot/quotepilot/internal/tools"
)

func newTestServer(t *testing.T) http.Handler {
	t.Helper()
	dispatcher := tools.NewDispatcher(
		tools.NewBuiltinPricer(), tools.NewBuiltinSearch(),
		tools.NewBuiltinClaims(), tools.NewBuiltinHandoff())
	engine := flow.NewEngine(store.NewInMemoryStore(), genai.NewTemplateClient(), dispatcher)
	return NewServer(engine, ":0").Handler()
}

func doJSON(t *testing.T, handler http.Handler, method, path string, payload any) *httptest.ResponseRecorder {
	t.Helper()
	var body bytes.Buffer
	if payload != nil {
		require.NoError(t, json.NewEncoder(&body).Encode(payload))
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func decodeResult(t *testing.T, rec *httptest.ResponseRecorder, out any) {
	t.Helper()
	var envelope struct {
		Status string          `json:"status"`
		Result json.RawMessage `json:"result"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	require.Equal(t, "ok", envelope.Status)
	require.NoError(t, json.Unmarshal(envelope.Result, out))
}

func TestHealth(t *testing.T) {
	handler := newTestServer(t)
	rec := doJSON(t, handler, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCreateSessionAndSendMessage(t *testing.T) {
	handler := newTestServer(t)

	rec := doJSON(t, handler, http.MethodPost, "/sessions", map[string]string{"user_id": "user-1"})
	require.Equal(t, http.StatusCreated, rec.Code)

	var sess struct {
		SessionID string `json:"session_id"`
		UserID    string `json:"user_id"`
	}
	decodeResult(t, rec, &sess)
	require.NotEmpty(t, sess.SessionID)
	assert.Equal(t, "user-1", sess.UserID)

	rec = doJSON(t, handler, http.MethodPost, "/sessions/"+sess.SessionID+"/messages",
		map[string]string{"message": "I need travel insurance"})
	require.Equal(t, http.StatusOK, rec.Code)

	var turn struct {
		SessionID     string `json:"session_id"`
		Message       string `json:"message"`
		RequiresHuman bool   `json:"requires_human"`
	}
	decodeResult(t, rec, &turn)
	assert.Equal(t, sess.SessionID, turn.SessionID)
	assert.NotEmpty(t, turn.Message)
	assert.False(t, turn.RequiresHuman)

	// diagnostic read returns the persisted state
	rec = doJSON(t, handler, http.MethodGet, "/sessions/"+sess.SessionID, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var state struct {
		CurrentIntent string `json:"current_intent"`
	}
	decodeResult(t, rec, &state)
	assert.Equal(t, "quote", state.CurrentIntent)
}

func TestSendMessageMalformedSessionID(t *testing.T) {
	handler := newTestServer(t)
	rec := doJSON(t, handler, http.MethodPost, "/sessions/not-a-uuid/messages",
		map[string]string{"message": "hello"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSendMessageEmptyMessage(t *testing.T) {
	handler := newTestServer(t)

	rec := doJSON(t, handler, http.MethodPost, "/sessions", nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	var sess struct {
		SessionID string `json:"session_id"`
	}
	decodeResult(t, rec, &sess)

	rec = doJSON(t, handler, http.MethodPost, "/sessions/"+sess.SessionID+"/messages",
		map[string]string{"message": ""})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetSessionNotFound(t *testing.T) {
	handler := newTestServer(t)
	rec := doJSON(t, handler, http.MethodGet, "/sessions/"+store.NewSessionID(), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSendMessageImplicitSession(t *testing.T) {
	// absence of stored state is not an error: a well-formed id that was never
	// created still gets a fresh state
	handler := newTestServer(t)
	rec := doJSON(t, handler, http.MethodPost, "/sessions/"+store.NewSessionID()+"/messages",
		map[string]string{"message": "I need travel insurance"})
	assert.Equal(t, http.StatusOK, rec.Code)
}
