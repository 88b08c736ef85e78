package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwebster45206/fairytale-engine/internal/bot"
	"github.com/jwebster45206/fairytale-engine/internal/engine"
	"github.com/jwebster45206/fairytale-engine/internal/resources"
	"github.com/jwebster45206/fairytale-engine/internal/services"
	"github.com/jwebster45206/fairytale-engine/internal/storage"
	"github.com/jwebster45206/fairytale-engine/pkg/profile"
	"github.com/jwebster45206/fairytale-engine/pkg/story"
)

const testStructure = "exposition\n- a\nclimax\n- b\nresolution\n- c\n"

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelError, // Reduce noise in tests
	}))
}

func newTestEngine(t *testing.T, store storage.ProfileStore, responses ...string) *engine.Engine {
	t.Helper()
	res, err := resources.Default()
	require.NoError(t, err)
	e, err := engine.New(engine.DefaultConfig(), store, storage.NewMemoryLocker(), services.NewMockCompletionService(responses...), res, testLogger())
	require.NoError(t, err)
	return e
}

func postCommand(t *testing.T, h http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/v1/commands", strings.NewReader(body))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestCommandHandler(t *testing.T) {
	e := newTestEngine(t, storage.NewMemoryStore(), testStructure, "Once.")
	h := NewCommandHandler(bot.NewRouter(e, "fairybot", testLogger()), testLogger())

	for _, cmd := range []string{"/set_topic a lost map", "/set_moral be brave", "/set_author Grimm"} {
		rr := postCommand(t, h, `{"user_id":"alice","chat_id":"7","text":"`+cmd+`"}`)
		require.Equal(t, http.StatusOK, rr.Code)
	}

	rr := postCommand(t, h, `{"user_id":"alice","text":"/continue"}`)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))

	var reply bot.Reply
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &reply))
	assert.Equal(t, []string{story.Banner + "Once." + bot.ContinueHint}, reply.Messages)
	assert.True(t, reply.Typing)
	assert.Nil(t, reply.Attachment)
}

func TestCommandHandler_BadRequests(t *testing.T) {
	e := newTestEngine(t, storage.NewMemoryStore())
	h := NewCommandHandler(bot.NewRouter(e, "", testLogger()), testLogger())

	tests := []struct {
		name           string
		method         string
		body           string
		expectedStatus int
	}{
		{"wrong method", http.MethodGet, "", http.StatusMethodNotAllowed},
		{"invalid json", http.MethodPost, "{", http.StatusBadRequest},
		{"missing user", http.MethodPost, `{"text":"/help"}`, http.StatusBadRequest},
		{"blank user", http.MethodPost, `{"user_id":"  ","text":"/help"}`, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/v1/commands", bytes.NewBufferString(tt.body))
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, req)

			assert.Equal(t, tt.expectedStatus, rr.Code)
			var resp ErrorResponse
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
			assert.NotEmpty(t, resp.Error)
		})
	}
}

func TestProfileHandler(t *testing.T) {
	e := newTestEngine(t, storage.NewMemoryStore())
	h := NewProfileHandler(e, testLogger())

	_, err := e.SetTopic(t.Context(), "alice", "a lost map")
	require.NoError(t, err)

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/profiles/alice", nil))
	require.Equal(t, http.StatusOK, rr.Code)

	var view ProfileView
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &view))
	assert.Equal(t, "alice", view.ID)
	assert.Equal(t, profile.StateUninitialized, view.State)
	assert.Equal(t, "a lost map", view.Params.Topic)
	assert.Equal(t, profile.TierDefault, view.Settings.Tier)
	assert.Equal(t, story.CompressionFewLines, view.Settings.CompressionMode)
	assert.Equal(t, 0, view.TotalStages)
}

func TestProfileHandler_UnknownUserIsNotCreated(t *testing.T) {
	store := storage.NewMemoryStore()
	h := NewProfileHandler(newTestEngine(t, store), testLogger())

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/profiles/nobody", nil))

	assert.Equal(t, http.StatusNotFound, rr.Code)
	var body ErrorResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, "Profile not found.", body.Error)
	assert.Equal(t, 0, store.Len())
}

func TestProfileHandler_Errors(t *testing.T) {
	store := storage.NewMockStore()
	h := NewProfileHandler(newTestEngine(t, store), testLogger())

	tests := []struct {
		name           string
		method         string
		path           string
		setup          func()
		expectedStatus int
	}{
		{"wrong method", http.MethodPost, "/v1/profiles/alice", nil, http.StatusMethodNotAllowed},
		{"missing id", http.MethodGet, "/v1/profiles/", nil, http.StatusBadRequest},
		{"nested path", http.MethodGet, "/v1/profiles/alice/archive", nil, http.StatusBadRequest},
		{"unknown user", http.MethodGet, "/v1/profiles/nobody", nil, http.StatusNotFound},
		{"store failure", http.MethodGet, "/v1/profiles/alice", func() { store.SetGetError(errors.New("down")) }, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.setup != nil {
				tt.setup()
			}
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, httptest.NewRequest(tt.method, tt.path, nil))
			assert.Equal(t, tt.expectedStatus, rr.Code)
		})
	}
}

func TestHealthHandler_ServeHTTP(t *testing.T) {
	tests := []struct {
		name           string
		setupStore     func() storage.ProfileStore
		expectedStatus int
		expectedHealth string
		expectedStore  string
	}{
		{
			name: "all healthy",
			setupStore: func() storage.ProfileStore {
				store := storage.NewMockStore()
				store.SetPingSuccess()
				return store
			},
			expectedStatus: http.StatusOK,
			expectedHealth: "healthy",
			expectedStore:  "healthy",
		},
		{
			name: "unhealthy store",
			setupStore: func() storage.ProfileStore {
				store := storage.NewMockStore()
				store.SetPingError(errors.New("connection failed"))
				return store
			},
			expectedStatus: http.StatusServiceUnavailable,
			expectedHealth: "degraded",
			expectedStore:  "unhealthy",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := NewHealthHandler(tt.setupStore(), services.NewMockCompletionService(), testLogger())

			req := httptest.NewRequest(http.MethodGet, "/health", nil)
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)

			assert.Equal(t, tt.expectedStatus, rr.Code)

			var response HealthResponse
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &response))
			assert.Equal(t, tt.expectedHealth, response.Status)
			assert.Equal(t, "fairytale-engine", response.Service)
			assert.Equal(t, tt.expectedStore, response.Components["store"])
			assert.Equal(t, "mock", response.Components["llm_provider"])
		})
	}
}
