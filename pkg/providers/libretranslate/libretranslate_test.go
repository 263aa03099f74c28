package libretranslate

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
	config.RetryConfig = retry.Config{MaxRetries: 2, InitialDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond}
	return config
}

func TestTranslateChunk(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/translate", r.URL.Path)

		var req TranslateRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "ar", req.Source)
		assert.Equal(t, "en", req.Target)
		assert.Equal(t, "text", req.Format)
		assert.Equal(t, "secret", req.APIKey)

		json.NewEncoder(w).Encode(TranslateResponse{TranslatedText: "Hello"})
	}))
	defer server.Close()

	config := testConfig(server.URL)
	config.RequiresAPIKey = true
	config.APIKey = "secret"

	provider := New(config, nil)
	out, err := provider.TranslateChunk(context.Background(), "مرحبا", pipeline.ArabicToEnglish)
	require.NoError(t, err)
	assert.Equal(t, "Hello", out)
}

func TestTranslateChunkOmitsKeyWhenNotRequired(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req TranslateRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Empty(t, req.APIKey)
		json.NewEncoder(w).Encode(TranslateResponse{TranslatedText: "مرحبا"})
	}))
	defer server.Close()

	config := testConfig(server.URL)
	config.APIKey = "unused"

	out, err := New(config, nil).TranslateChunk(context.Background(), "Hello", pipeline.EnglishToArabic)
	require.NoError(t, err)
	assert.Equal(t, "مرحبا", out)
}

func TestErrorResponse(t *testing.T) {
	var attempts int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&attempts, 1)
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error": "ar is not supported"}`))
	}))
	defer server.Close()

	_, err := New(testConfig(server.URL), nil).TranslateChunk(context.Background(), "x", pipeline.EnglishToArabic)

	var perr *providers.Error
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, providers.ErrCodeBadRequest, perr.Code)
	assert.Equal(t, "ar is not supported", perr.Message)
	assert.Equal(t, int32(1), atomic.LoadInt32(&attempts))
}

func TestRetryOnServerError(t *testing.T) {
	var attempts int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&attempts, 1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		json.NewEncoder(w).Encode(TranslateResponse{TranslatedText: "done"})
	}))
	defer server.Close()

	out, err := New(testConfig(server.URL), nil).TranslateChunk(context.Background(), "x", pipeline.EnglishToArabic)
	require.NoError(t, err)
	assert.Equal(t, "done", out)
	assert.Equal(t, int32(2), atomic.LoadInt32(&attempts))
}

func TestHealthCheck(t *testing.T) {
	var languages atomic.Value
	languages.Store(`[{"code":"en","name":"English"},{"code":"ar","name":"Arabic"}]`)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/languages", r.URL.Path)
		w.Write([]byte(languages.Load().(string)))
	}))
	defer server.Close()

	provider := New(testConfig(server.URL), nil)
	require.NoError(t, provider.HealthCheck(context.Background()))

	cached, err := provider.Languages(context.Background())
	require.NoError(t, err)
	assert.Len(t, cached, 2)

	languages.Store(`[{"code":"en","name":"English"},{"code":"fr","name":"French"}]`)
	err = provider.HealthCheck(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"ar"`)
}

func TestCapabilities(t *testing.T) {
	caps := New(DefaultConfig(), nil).Capabilities()
	assert.False(t, caps.Summarize)
	assert.True(t, caps.Translate)
	assert.True(t, caps.SupportsDirection(pipeline.ArabicToEnglish))
}
