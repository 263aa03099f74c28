package stats

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nerdneilsfield/go-textai/pkg/pipeline"
	"github.com/nerdneilsfield/go-textai/pkg/providers"
)

type fakeBackend struct {
	err error
}

func (f *fakeBackend) Name() string { return "fake" }
func (f *fakeBackend) Capabilities() providers.Capabilities {
	return providers.Capabilities{Summarize: true, Translate: true}
}
func (f *fakeBackend) HealthCheck(ctx context.Context) error { return f.err }

func (f *fakeBackend) SummarizeChunk(ctx context.Context, text string, minLength, maxLength int) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return "short", nil
}

func (f *fakeBackend) TranslateChunk(ctx context.Context, text string, dir pipeline.Direction) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return text, nil
}

type translateOnly struct{}

func (translateOnly) Name() string { return "only" }
func (translateOnly) Capabilities() providers.Capabilities {
	return providers.Capabilities{Translate: true}
}
func (translateOnly) HealthCheck(ctx context.Context) error { return nil }
func (translateOnly) TranslateChunk(ctx context.Context, text string, dir pipeline.Direction) (string, error) {
	return "ok", nil
}

func TestRecordRequest(t *testing.T) {
	m := NewManager("", nil)

	m.RecordRequest("hf", "bart", RequestResult{Operation: OpSummarize, Success: true, Latency: 10 * time.Millisecond, CharsIn: 100, CharsOut: 20})
	m.RecordRequest("hf", "bart", RequestResult{Operation: OpSummarize, Success: true, Latency: 30 * time.Millisecond, CharsIn: 100, CharsOut: 30})
	m.RecordRequest("hf", "bart", RequestResult{Operation: OpTranslate, Success: false, Latency: 20 * time.Millisecond, CharsIn: 50, ErrorType: "rate_limit"})

	s := m.GetStats("hf", "bart")
	require.NotNil(t, s)
	assert.Equal(t, int64(3), s.TotalRequests)
	assert.Equal(t, int64(2), s.SuccessfulRequests)
	assert.Equal(t, int64(1), s.FailedRequests)
	assert.Equal(t, int64(2), s.SummarizeRequests)
	assert.Equal(t, int64(1), s.TranslateRequests)
	assert.Equal(t, int64(250), s.TotalCharsIn)
	assert.Equal(t, int64(50), s.TotalCharsOut)
	assert.Equal(t, 10*time.Millisecond, s.MinLatency)
	assert.Equal(t, 30*time.Millisecond, s.MaxLatency)
	assert.Equal(t, 20*time.Millisecond, s.AverageLatency)
	assert.Equal(t, int64(1), s.ErrorTypes["rate_limit"])
	assert.InDelta(t, 66.67, s.SuccessRate(), 0.01)
	assert.InDelta(t, 0.2, s.CompressionRatio(), 0.001)

	assert.Nil(t, m.GetStats("hf", "other"))
}

func TestGetStatsReturnsCopy(t *testing.T) {
	m := NewManager("", nil)
	m.RecordRequest("a", "b", RequestResult{Success: false, ErrorType: "timeout"})

	s := m.GetStats("a", "b")
	s.ErrorTypes["timeout"] = 100

	assert.Equal(t, int64(1), m.GetStats("a", "b").ErrorTypes["timeout"])
}

func TestConcurrentRecord(t *testing.T) {
	m := NewManager("", nil)

	var wg sync.WaitGroup
	for i := range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.RecordRequest(fmt.Sprintf("p%d", i%3), "m", RequestResult{Success: true, Latency: time.Millisecond})
		}()
	}
	wg.Wait()

	var total int64
	for _, s := range m.GetAllStats() {
		total += s.TotalRequests
	}
	assert.Equal(t, int64(50), total)
}

func TestSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "stats.json")

	m := NewManager(path, nil)
	m.RecordRequest("ollama", "llama3", RequestResult{Operation: OpTranslate, Success: true, CharsIn: 5, CharsOut: 7})
	require.NoError(t, m.Save())

	_, err := os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err))

	loaded := NewManager(path, nil)
	require.NoError(t, loaded.Load())

	s := loaded.GetStats("ollama", "llama3")
	require.NotNil(t, s)
	assert.Equal(t, int64(1), s.TranslateRequests)
	assert.Equal(t, int64(7), s.TotalCharsOut)
	assert.NotNil(t, s.ErrorTypes)
}

func TestLoadMissingFile(t *testing.T) {
	m := NewManager(filepath.Join(t.TempDir(), "missing.json"), nil)
	assert.NoError(t, m.Load())
	assert.Empty(t, m.GetAllStats())
}

func TestNoPath(t *testing.T) {
	m := NewManager("", nil)
	assert.NoError(t, m.Save())
	assert.NoError(t, m.Load())
}

func TestRender(t *testing.T) {
	m := NewManager("", nil)

	var buf bytes.Buffer
	m.Render(&buf)
	assert.Contains(t, buf.String(), "No statistics available.")

	m.RecordRequest("huggingface", "facebook/bart-large-cnn", RequestResult{Operation: OpSummarize, Success: true})
	buf.Reset()
	m.Render(&buf)
	assert.Contains(t, buf.String(), "huggingface")
	assert.Contains(t, buf.String(), "facebook/bart-large-cnn")

	m.Reset()
	assert.Empty(t, m.GetAllStats())
}

func TestMiddleware(t *testing.T) {
	m := NewManager("", nil)
	mw := Wrap(&fakeBackend{}, m, "model-x")

	out, err := mw.SummarizeChunk(context.Background(), "a long input text", 1, 5)
	require.NoError(t, err)
	assert.Equal(t, "short", out)

	// 后端原样返回输入，视为未翻译
	_, err = mw.TranslateChunk(context.Background(), "This sentence stays the same.", pipeline.EnglishToArabic)
	require.NoError(t, err)

	s := m.GetStats("fake", "model-x")
	require.NotNil(t, s)
	assert.Equal(t, int64(2), s.SuccessfulRequests)
	assert.Equal(t, int64(1), s.UntranslatedOutputs)
	assert.Equal(t, "fake", mw.Name())
	assert.True(t, mw.Capabilities().Summarize)
	assert.NoError(t, mw.HealthCheck(context.Background()))
}

func TestMiddlewareRecordsErrors(t *testing.T) {
	m := NewManager("", nil)
	mw := Wrap(&fakeBackend{err: providers.NewError(providers.ErrCodeRateLimit, "slow down")}, m, "x")

	_, err := mw.TranslateChunk(context.Background(), "hi", pipeline.EnglishToArabic)
	require.Error(t, err)

	s := m.GetStats("fake", "x")
	assert.Equal(t, int64(1), s.FailedRequests)
	assert.Equal(t, int64(1), s.ErrorTypes[providers.ErrCodeRateLimit])
}

func TestMiddlewareUnsupported(t *testing.T) {
	mw := Wrap(translateOnly{}, NewManager("", nil), "")

	_, err := mw.SummarizeChunk(context.Background(), "text", 1, 2)
	var perr *providers.Error
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, providers.ErrCodeUnsupported, perr.Code)
	assert.Equal(t, "only", mw.Unwrap().Name())
}

func TestClassifyError(t *testing.T) {
	assert.Equal(t, "timeout", ClassifyError(context.DeadlineExceeded))
	assert.Equal(t, "context_canceled", ClassifyError(fmt.Errorf("wrapped: %w", context.Canceled)))
	assert.Equal(t, "auth_error", ClassifyError(providers.StatusError(401, "bad key")))
	assert.Equal(t, "unknown_error", ClassifyError(errors.New("boom")))
}

func TestIsUntranslated(t *testing.T) {
	assert.True(t, isUntranslated("Hello world, friends", "hello world, friends"))
	assert.False(t, isUntranslated("Hello world, friends", "مرحبا بالعالم يا أصدقاء"))
	assert.False(t, isUntranslated("Hi", "Hi"))
}

func TestAutoSaveWritesOnShutdown(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stats.json")
	m := NewManager(path, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		m.AutoSave(ctx, time.Hour)
	}()

	m.RecordRequest("libretranslate", "", RequestResult{Operation: OpTranslate, Success: true, CharsIn: 5, CharsOut: 5})
	cancel()
	<-done

	loaded := NewManager(path, nil)
	require.NoError(t, loaded.Load())
	s := loaded.GetStats("libretranslate", "")
	require.NotNil(t, s)
	assert.Equal(t, int64(1), s.TotalRequests)
}
