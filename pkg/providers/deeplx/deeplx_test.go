package deeplx

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
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
	config.RetryConfig = retry.Config{MaxRetries: 1, InitialDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond}
	return config
}

func TestTranslateChunk(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer token", r.Header.Get("Authorization"))

		var req TranslateRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "Hello", req.Text)
		assert.Equal(t, "EN", req.SourceLang)
		assert.Equal(t, "AR", req.TargetLang)

		json.NewEncoder(w).Encode(TranslateResponse{Code: 200, Data: "مرحبا"})
	}))
	defer server.Close()

	config := testConfig(server.URL)
	config.APIKey = "token"

	out, err := New(config, nil).TranslateChunk(context.Background(), "Hello", pipeline.EnglishToArabic)
	require.NoError(t, err)
	assert.Equal(t, "مرحبا", out)
}

func TestBusinessErrorInBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(TranslateResponse{Code: 429, Message: "Too many requests"})
	}))
	defer server.Close()

	_, err := New(testConfig(server.URL), nil).TranslateChunk(context.Background(), "Hello", pipeline.EnglishToArabic)
	var perr *providers.Error
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, providers.ErrCodeRateLimit, perr.Code)
	assert.Equal(t, "Too many requests", perr.Message)
}

func TestHTTPErrorWithoutBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	_, err := New(testConfig(server.URL), nil).TranslateChunk(context.Background(), "Hello", pipeline.EnglishToArabic)
	var perr *providers.Error
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, http.StatusNotFound, perr.StatusCode)
}

func TestHealthCheck(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(TranslateResponse{Code: 200, Data: "مرحبا"})
	}))
	defer server.Close()

	provider := New(testConfig(server.URL), nil)
	assert.NoError(t, provider.HealthCheck(context.Background()))
	assert.Equal(t, "deeplx", provider.Name())
	assert.False(t, provider.Capabilities().RequiresAPIKey)
}
