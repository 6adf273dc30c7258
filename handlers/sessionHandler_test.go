package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"studybuddy/models"
	"studybuddy/prompts"
	"studybuddy/services/llm/llmtest"
	"studybuddy/services/retriever/retrievertest"
	"studybuddy/services/session"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRouter(t *testing.T, fake *llmtest.Fake) *mux.Router {
	t.Helper()
	manager := session.NewManager(session.Deps{
		LLM:      fake,
		Prompts:  prompts.MustLoad(),
		Embedder: &retrievertest.Embedder{},
		MaxTurns: 10,
	})

	router := mux.NewRouter()
	NewSessionHandler(manager).RegisterRoutes(router)
	return router
}

func do(t *testing.T, router http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(method, path, &buf))
	return rec
}

func createSession(t *testing.T, router http.Handler) string {
	t.Helper()
	rec := do(t, router, http.MethodPost, "/sessions", nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp models.CreateSessionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.SessionID)
	return resp.SessionID
}

func TestSessionLifecycle(t *testing.T) {
	fake := llmtest.New()
	fake.Default = "Mitochondria are the powerhouse of the cell."
	router := newRouter(t, fake)
	id := createSession(t, router)

	rec := do(t, router, http.MethodPost, "/sessions/"+id+"/messages", models.MessageRequest{Message: "explain mitochondria", Mode: "explain"})
	require.Equal(t, http.StatusOK, rec.Code)

	var msg models.MessageResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &msg))
	assert.Equal(t, "Mitochondria are the powerhouse of the cell.", msg.Response)
	assert.Equal(t, []models.ToolID{models.ToolConceptExplainer}, msg.ToolsUsed)

	rec = do(t, router, http.MethodGet, "/sessions/"+id+"/summary", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var summary models.SummaryResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &summary))
	assert.Equal(t, 1, summary.Summary.TotalInteractions)

	rec = do(t, router, http.MethodPost, "/sessions/"+id+"/new", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, router, http.MethodDelete, "/sessions/"+id, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(t, router, http.MethodGet, "/sessions/"+id+"/summary", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAgentMessage(t *testing.T) {
	fake := llmtest.New("not a plan", "Osmosis is diffusion of water.")
	router := newRouter(t, fake)
	id := createSession(t, router)

	rec := do(t, router, http.MethodPost, "/sessions/"+id+"/messages", models.MessageRequest{Message: "what is osmosis"})
	require.Equal(t, http.StatusOK, rec.Code)

	var msg models.MessageResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &msg))
	assert.True(t, strings.HasPrefix(msg.Response, "Osmosis is diffusion of water."))
	assert.Equal(t, []string{"Would you like a quiz on this topic?"}, msg.Suggestions)
	assert.NotEmpty(t, msg.Trace)
}

func TestDocumentUploadAndReset(t *testing.T) {
	router := newRouter(t, llmtest.New())
	id := createSession(t, router)

	text := strings.Repeat("The French Revolution began in 1789 and reshaped European politics. ", 30)
	rec := do(t, router, http.MethodPost, "/sessions/"+id+"/document", models.DocumentRequest{Text: text})
	require.Equal(t, http.StatusOK, rec.Code)

	var doc models.DocumentResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &doc))
	assert.True(t, doc.RAGEnabled)
	assert.Positive(t, doc.ChunkCount)
	assert.Contains(t, doc.Status, "RAG enabled")

	rec = do(t, router, http.MethodDelete, "/sessions/"+id+"/document", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestBadRequests(t *testing.T) {
	router := newRouter(t, llmtest.New())
	id := createSession(t, router)

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		want   int
	}{
		{"unknown session", http.MethodPost, "/sessions/nope/messages", `{"message": "hi"}`, http.StatusNotFound},
		{"invalid json", http.MethodPost, "/sessions/" + id + "/messages", `{"message":`, http.StatusBadRequest},
		{"unknown mode", http.MethodPost, "/sessions/" + id + "/messages", `{"message": "hi", "mode": "sing"}`, http.StatusBadRequest},
		{"empty message", http.MethodPost, "/sessions/" + id + "/messages", `{"message": "  "}`, http.StatusBadRequest},
		{"empty document", http.MethodPost, "/sessions/" + id + "/document", `{"text": ""}`, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body)))
			assert.Equal(t, tt.want, rec.Code)

			var body map[string]string
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.NotEmpty(t, body["error"])
		})
	}
}
