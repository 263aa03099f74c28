package ollama

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nerdneilsfield/go-textai/pkg/pipeline"
	"github.com/nerdneilsfield/go-textai/pkg/providers"
	"github.com/nerdneilsfield/go-textai/pkg/providers/retry"
)

func testConfig(endpoint string) Config {
	config := DefaultConfig()
	config.APIEndpoint = endpoint
	config.Timeout = 5 * time.Second
	config.RetryConfig = retry.Config{MaxRetries: 3, InitialDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond}
	return config
}

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	assert.Equal(t, "llama3", config.Model)
	assert.Equal(t, float32(0.3), config.Temperature)
	assert.Equal(t, 1024, config.MaxTokens)
	assert.Equal(t, "http://localhost:11434", config.APIEndpoint)
	assert.Equal(t, 3, config.MaxRetries)
	assert.Equal(t, time.Second, config.RetryDelay)
}

func TestNewTrimsEndpoint(t *testing.T) {
	config := DefaultConfig()
	config.APIEndpoint = "http://custom-ollama:8080/"

	provider := New(config, nil)
	assert.Equal(t, "http://custom-ollama:8080", provider.config.APIEndpoint)
	assert.Equal(t, "ollama", provider.Name())
	assert.False(t, provider.Capabilities().RequiresAPIKey)
}

func TestTranslateChunk(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/generate", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req GenerateRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		assert.Equal(t, "llama3", req.Model)
		assert.Contains(t, req.System, "professional translator")
		assert.Contains(t, req.Prompt, "Hello, world!")
		assert.Contains(t, req.Prompt, "from English to Arabic")
		assert.False(t, req.Stream)
		assert.Equal(t, 1024, int(req.Options["num_predict"].(float64)))

		json.NewEncoder(w).Encode(GenerateResponse{Model: "llama3", Response: " مرحبا بالعالم! ", Done: true})
	}))
	defer server.Close()

	provider := New(testConfig(server.URL), nil)
	out, err := provider.TranslateChunk(context.Background(), "Hello, world!", pipeline.EnglishToArabic)
	require.NoError(t, err)
	assert.Equal(t, "مرحبا بالعالم!", out)
}

func TestSummarizeChunk(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req GenerateRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Contains(t, req.Prompt, "in 20 to 80 words")
		assert.Equal(t, 0.7, req.Options["temperature"].(float64))

		json.NewEncoder(w).Encode(GenerateResponse{Response: "Summary.", Done: true})
	}))
	defer server.Close()

	config := testConfig(server.URL)
	config.Temperature = 0.7
	provider := New(config, nil)

	out, err := provider.SummarizeChunk(context.Background(), "Long text.", 20, 80)
	require.NoError(t, err)
	assert.Equal(t, "Summary.", out)
}

func TestServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error": "model 'llama3' not found"}`))
	}))
	defer server.Close()

	provider := New(testConfig(server.URL), nil)
	_, err := provider.TranslateChunk(context.Background(), "text", pipeline.EnglishToArabic)

	var perr *providers.Error
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, http.StatusNotFound, perr.StatusCode)
	assert.Equal(t, "model 'llama3' not found", perr.Message)
}

func TestRetryOnRateLimit(t *testing.T) {
	var attempts int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req GenerateRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		if atomic.AddInt32(&attempts, 1) < 3 {
			w.WriteHeader(http.StatusTooManyRequests)
			w.Write([]byte(`{"error": "Rate limited"}`))
			return
		}
		json.NewEncoder(w).Encode(GenerateResponse{Response: "ok", Done: true})
	}))
	defer server.Close()

	provider := New(testConfig(server.URL), nil)
	out, err := provider.TranslateChunk(context.Background(), "text", pipeline.ArabicToEnglish)
	require.NoError(t, err)
	assert.Equal(t, "ok", out)
	assert.Equal(t, int32(3), atomic.LoadInt32(&attempts))
}

func TestContextCancellation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		json.NewEncoder(w).Encode(GenerateResponse{Response: "late", Done: true})
	}))
	defer server.Close()

	provider := New(testConfig(server.URL), nil)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := provider.TranslateChunk(ctx, "text", pipeline.EnglishToArabic)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestHealthCheck(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/tags", r.URL.Path)
		w.Write([]byte(`{"models": [{"name": "mistral:latest"}, {"name": "llama3:latest"}]}`))
	}))
	defer server.Close()

	config := testConfig(server.URL)
	assert.NoError(t, New(config, nil).HealthCheck(context.Background()))

	config.Model = "qwen2"
	err := New(config, nil).HealthCheck(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ollama pull qwen2")
}
