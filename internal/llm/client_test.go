package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(url string) *Config {
	return &Config{
		APIKey:      "test-key",
		APIURL:      url,
		Model:       "test-model",
		Temperature: 0.2,
		TopP:        0.8,
		TopK:        40,
		Timeout:     5,
	}
}

func TestNewClientValidatesConfig(t *testing.T) {
	_, err := NewClient(&Config{})
	require.Error(t, err)

	_, err = NewClient(testConfig("http://localhost"))
	require.NoError(t, err)
}

func TestCompleteSendsParametersOpaquely(t *testing.T) {
	var gotRequest ChatRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &gotRequest))

		_ = json.NewEncoder(w).Encode(ChatResponse{
			Choices: []Choice{{Message: Message{Role: "assistant", Content: "translated"}}},
		})
	}))
	defer server.Close()

	cfg := testConfig(server.URL)
	cfg.ThinkingBudget = 512
	client, err := NewClient(cfg)
	require.NoError(t, err)

	got, err := client.Complete(context.Background(), "hello", "system prompt")
	require.NoError(t, err)
	assert.Equal(t, "translated", got)

	assert.Equal(t, "test-model", gotRequest.Model)
	assert.Equal(t, 512, gotRequest.ThinkingBudget)
	assert.Equal(t, 40, gotRequest.TopK)
	require.Len(t, gotRequest.Messages, 2)
	assert.Equal(t, "system", gotRequest.Messages[0].Role)
	assert.Equal(t, "hello", gotRequest.Messages[1].Content)
}

func TestCompleteRateLimitIsRetryable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		fmt.Fprint(w, `{"error":{"message":"quota exceeded"}}`)
	}))
	defer server.Close()

	client, err := NewClient(testConfig(server.URL))
	require.NoError(t, err)

	_, err = client.Complete(context.Background(), "x", "")
	require.Error(t, err)
	assert.True(t, IsRetryable(err))
}

func TestCompleteBadRequestIsNotRetryable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"error":{"message":"invalid model","type":"invalid_request_error"}}`)
	}))
	defer server.Close()

	client, err := NewClient(testConfig(server.URL))
	require.NoError(t, err)

	_, err = client.Complete(context.Background(), "x", "")
	require.Error(t, err)
	assert.False(t, IsRetryable(err))
}

func TestCompleteServerErrorIsRetryable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		fmt.Fprint(w, "upstream down")
	}))
	defer server.Close()

	client, err := NewClient(testConfig(server.URL))
	require.NoError(t, err)

	_, err = client.Complete(context.Background(), "x", "")
	require.Error(t, err)
	assert.True(t, IsRetryable(err))
}

func TestStreamingAccumulatesDeltas(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req ChatRequest
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &req))
		assert.True(t, req.Stream)

		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{\"content\":\"Hal\"}}]}\n\n")
		fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{\"content\":\"lo\"},\"finish_reason\":\"stop\"}]}\n\n")
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
	defer server.Close()

	cfg := testConfig(server.URL)
	cfg.Stream = true
	client, err := NewClient(cfg)
	require.NoError(t, err)

	got, err := client.Complete(context.Background(), "Hello", "")
	require.NoError(t, err)
	assert.Equal(t, "Hallo", got)
}

func TestStreamingTruncatedStreamFails(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{\"content\":\"partial\"}}]}\n\n")
		// connection closes without finish_reason or [DONE]
	}))
	defer server.Close()

	cfg := testConfig(server.URL)
	cfg.Stream = true
	client, err := NewClient(cfg)
	require.NoError(t, err)

	_, err = client.Complete(context.Background(), "Hello", "")
	require.Error(t, err)
	assert.True(t, IsRetryable(err))
}
