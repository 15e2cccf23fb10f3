package infra_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gestorcoop/gestorcoop-bff-go/internal/chat/domain"
	"github.com/gestorcoop/gestorcoop-bff-go/internal/chat/infra"
	maindomain "github.com/gestorcoop/gestorcoop-bff-go/internal/domain"
	"github.com/gestorcoop/gestorcoop-bff-go/internal/infra/resilience"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newGemini(t *testing.T, handler http.HandlerFunc) *infra.GeminiClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	cfg := resilience.Config{MaxRetries: 2, InitialBackoff: time.Millisecond, MaxConcurrency: 2}
	return infra.NewGeminiClient(srv.Client(), srv.URL+"/", "test-key", "gemini-test",
		resilience.NewCircuitBreaker("gemini-test", zap.NewNop()), cfg, resilience.NewBulkhead(cfg.MaxConcurrency))
}

const okResponse = `{
	"candidates": [{"content": {"role": "model", "parts": [{"text": "Olá, "}, {"text": "tudo certo."}]}, "finishReason": "STOP"}],
	"usageMetadata": {"promptTokenCount": 42, "candidatesTokenCount": 7, "totalTokenCount": 49}
}`

func TestGeminiClient_Generate(t *testing.T) {
	var body map[string]any
	client := newGemini(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1beta/models/gemini-test:generateContent", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("x-goog-api-key"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(okResponse))
	})

	resp, err := client.Generate(context.Background(), &domain.ModelRequest{
		SystemInstruction: "Você é Sofia",
		History: []domain.Turn{
			{Role: "user", Text: "oi"},
			{Role: "model", Text: "olá!"},
		},
		Prompt: "como está a carteira?",
	})
	require.NoError(t, err)

	assert.Equal(t, "Olá, tudo certo.", resp.Text)
	assert.Equal(t, "gemini-test", resp.Model)
	assert.Equal(t, 42, resp.PromptTokens)
	assert.Equal(t, 7, resp.CompletionTokens)

	contents := body["contents"].([]any)
	require.Len(t, contents, 3)
	assert.Equal(t, "model", contents[1].(map[string]any)["role"])
	last := contents[2].(map[string]any)
	assert.Equal(t, "user", last["role"])
	assert.Equal(t, "como está a carteira?", last["parts"].([]any)[0].(map[string]any)["text"])
	assert.Contains(t, body, "systemInstruction")
}

func TestGeminiClient_ClientErrorIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	client := newGemini(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, `{"error":{"message":"bad"}}`, http.StatusBadRequest)
	})

	_, err := client.Generate(context.Background(), &domain.ModelRequest{Prompt: "x"})

	var ext *maindomain.ErrExternalService
	require.ErrorAs(t, err, &ext)
	assert.Equal(t, int32(1), calls.Load())
}

func TestGeminiClient_ClientErrorsKeepBreakerClosed(t *testing.T) {
	var calls atomic.Int32
	client := newGemini(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) <= 5 {
			http.Error(w, `{"error":{"message":"bad"}}`, http.StatusBadRequest)
			return
		}
		_, _ = w.Write([]byte(okResponse))
	})

	for i := 0; i < 5; i++ {
		_, err := client.Generate(context.Background(), &domain.ModelRequest{Prompt: "x"})
		var ext *maindomain.ErrExternalService
		require.ErrorAs(t, err, &ext)
	}

	resp, err := client.Generate(context.Background(), &domain.ModelRequest{Prompt: "x"})
	require.NoError(t, err)
	assert.Equal(t, "Olá, tudo certo.", resp.Text)
}

func TestGeminiClient_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	client := newGemini(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(okResponse))
	})

	resp, err := client.Generate(context.Background(), &domain.ModelRequest{Prompt: "x"})

	require.NoError(t, err)
	assert.Equal(t, "Olá, tudo certo.", resp.Text)
	assert.Equal(t, int32(3), calls.Load())
}

func TestGeminiClient_BlockedPrompt(t *testing.T) {
	client := newGemini(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"candidates": [], "promptFeedback": {"blockReason": "SAFETY"}}`))
	})

	_, err := client.Generate(context.Background(), &domain.ModelRequest{Prompt: "x"})

	var ext *maindomain.ErrExternalService
	require.ErrorAs(t, err, &ext)
	assert.Contains(t, err.Error(), "blocked: SAFETY")
}
