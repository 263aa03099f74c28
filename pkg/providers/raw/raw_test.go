package raw

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nerdneilsfield/go-textai/pkg/pipeline"
)

func TestSummarizeChunkTakesLeadingWords(t *testing.T) {
	p := New()

	out, err := p.SummarizeChunk(context.Background(), "one two  three\nfour five", 1, 3)
	require.NoError(t, err)
	assert.Equal(t, "one two three", out)

	out, err = p.SummarizeChunk(context.Background(), "short text", 1, 10)
	require.NoError(t, err)
	assert.Equal(t, "short text", out)
}

func TestTranslateChunkPassthrough(t *testing.T) {
	out, err := New().TranslateChunk(context.Background(), "  Hello\nworld ", pipeline.EnglishToArabic)
	require.NoError(t, err)
	assert.Equal(t, "  Hello\nworld ", out)
}

func TestCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New().TranslateChunk(ctx, "Hello", pipeline.EnglishToArabic)
	assert.ErrorIs(t, err, context.Canceled)
	_, err = New().SummarizeChunk(ctx, "Hello", 1, 2)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestWithPipeline(t *testing.T) {
	svc, err := pipeline.New(pipeline.DefaultConfig(),
		pipeline.WithSummarizer(New()),
		pipeline.WithTranslator(New()))
	require.NoError(t, err)

	outcome, err := svc.Translate(context.Background(), "First paragraph.\n\nSecond paragraph.", pipeline.TranslateTask{Source: "en", Target: "ar"})
	require.NoError(t, err)
	assert.Equal(t, "First paragraph.\n\nSecond paragraph.", outcome.Text)

	assert.NoError(t, New().HealthCheck(context.Background()))
	assert.True(t, New().Capabilities().Summarize)
}
