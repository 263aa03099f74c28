package google

import (
	"context"
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
	config.APIKey = "gkey"
	config.Timeout = 5 * time.Second
	config.RetryConfig = retry.Config{MaxRetries: 2, InitialDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond}
	return config
}

func TestTranslateChunk(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "gkey", r.URL.Query().Get("key"))
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "Tom &amp; Jerry", r.PostForm.Get("q"))
		assert.Equal(t, "en", r.PostForm.Get("source"))
		assert.Equal(t, "ar", r.PostForm.Get("target"))
		assert.Equal(t, "text", r.PostForm.Get("format"))

		w.Write([]byte(`{"data":{"translations":[{"translatedText":"توم &amp; جيري"}]}}`))
	}))
	defer server.Close()

	out, err := New(testConfig(server.URL), nil).TranslateChunk(context.Background(), "Tom &amp; Jerry", pipeline.EnglishToArabic)
	require.NoError(t, err)
	assert.Equal(t, "توم & جيري", out)
}

func TestTranslateChunkAPIError(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":{"code":400,"message":"API key not valid"}}`))
	}))
	defer server.Close()

	_, err := New(testConfig(server.URL), nil).TranslateChunk(context.Background(), "Hello", pipeline.EnglishToArabic)
	var perr *providers.Error
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, providers.ErrCodeBadRequest, perr.Code)
	assert.Contains(t, perr.Message, "API key not valid")
	assert.EqualValues(t, 1, attempts.Load())
}

func TestTranslateChunkRetriesRateLimit(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if attempts.Add(1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(`{"data":{"translations":[{"translatedText":"Hello"}]}}`))
	}))
	defer server.Close()

	out, err := New(testConfig(server.URL), nil).TranslateChunk(context.Background(), "مرحبا", pipeline.ArabicToEnglish)
	require.NoError(t, err)
	assert.Equal(t, "Hello", out)
	assert.EqualValues(t, 2, attempts.Load())
}

func TestTranslateChunkNoTranslations(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":{"translations":[]}}`))
	}))
	defer server.Close()

	_, err := New(testConfig(server.URL), nil).TranslateChunk(context.Background(), "Hello", pipeline.EnglishToArabic)
	var perr *providers.Error
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, providers.ErrCodeBadResponse, perr.Code)
}

func TestHealthCheck(t *testing.T) {
	var languages atomic.Value
	languages.Store(`[{"language":"en"},{"language":"ar"},{"language":"fr"}]`)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/languages", r.URL.Path)
		w.Write([]byte(`{"data":{"languages":` + languages.Load().(string) + `}}`))
	}))
	defer server.Close()

	provider := New(testConfig(server.URL), nil)
	require.NoError(t, provider.HealthCheck(context.Background()))

	languages.Store(`[{"language":"en"}]`)
	err := provider.HealthCheck(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"ar"`)
}

func TestDefaults(t *testing.T) {
	provider := New(Config{}, nil)
	assert.Equal(t, defaultEndpoint, provider.config.APIEndpoint)
	assert.Equal(t, "google", provider.Name())

	caps := provider.Capabilities()
	assert.True(t, caps.Translate)
	assert.False(t, caps.Summarize)
	assert.True(t, caps.SupportsDirection(pipeline.EnglishToArabic))
}
