package openai

import (
	"context"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nerdneilsfield/go-textai/internal/test"
	"github.com/nerdneilsfield/go-textai/pkg/pipeline"
)

func newTestProvider(server *test.MockChatServer) *Provider {
	config := DefaultConfig()
	config.APIKey = "sk-test"
	config.APIEndpoint = server.URL + "/v1/"
	config.Timeout = 5 * time.Second
	config.MaxRetries = 0
	return New(config)
}

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	assert.Equal(t, "gpt-4o-mini", config.Model)
	assert.Equal(t, float32(0.3), config.Temperature)
	assert.Equal(t, 1024, config.MaxTokens)
}

func TestSummarizeChunk(t *testing.T) {
	server := test.NewMockChatServer(t, func(req test.ChatRequest) string {
		return "  The short version.  "
	})
	provider := newTestProvider(server)

	summary, err := provider.SummarizeChunk(context.Background(), "A long article about Go.", 30, 120)
	require.NoError(t, err)
	assert.Equal(t, "The short version.", summary)

	requests := server.Requests()
	require.Len(t, requests, 1)
	assert.Equal(t, "gpt-4o-mini", requests[0].Model)
	assert.Contains(t, requests[0].System, "summarization engine")
	assert.Contains(t, requests[0].User, "30 to 120 words")
	assert.Contains(t, requests[0].User, "A long article about Go.")
}

func TestTranslateChunk(t *testing.T) {
	server := test.NewMockChatServer(t, func(req test.ChatRequest) string {
		if strings.Contains(req.User, "from English to Arabic") {
			return "مرحبا بالعالم"
		}
		return "Hello world"
	})
	provider := newTestProvider(server)

	out, err := provider.TranslateChunk(context.Background(), "Hello world", pipeline.EnglishToArabic)
	require.NoError(t, err)
	assert.Equal(t, "مرحبا بالعالم", out)

	out, err = provider.TranslateChunk(context.Background(), "مرحبا بالعالم", pipeline.ArabicToEnglish)
	require.NoError(t, err)
	assert.Equal(t, "Hello world", out)
}

func TestAPIError(t *testing.T) {
	server := test.NewMockChatServer(t, nil)
	server.FailWith(http.StatusBadRequest, "bad model")
	provider := newTestProvider(server)

	_, err := provider.SummarizeChunk(context.Background(), "text", 1, 10)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "openai chat completion failed")
}

func TestHealthCheck(t *testing.T) {
	server := test.NewMockChatServer(t, nil)
	provider := newTestProvider(server)

	require.NoError(t, provider.HealthCheck(context.Background()))
	requests := server.Requests()
	require.Len(t, requests, 1)
	assert.Equal(t, "Hello", requests[0].User)
	assert.Equal(t, 10, requests[0].MaxTokens)
}

func TestCapabilities(t *testing.T) {
	provider := New(DefaultConfig())
	caps := provider.Capabilities()

	assert.Equal(t, "openai", provider.Name())
	assert.True(t, caps.Summarize)
	assert.True(t, caps.SupportsDirection(pipeline.ArabicToEnglish))
	assert.True(t, caps.RequiresAPIKey)
}
