package stats

import (
	"context"
	"errors"
	"net"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/nerdneilsfield/go-textai/pkg/pipeline"
	"github.com/nerdneilsfield/go-textai/pkg/providers"
)

// Middleware 统计中间件，包装任意后端并记录每次片段调用
type Middleware struct {
	next    providers.Backend
	manager *Manager
	model   string
}

var (
	_ providers.SummarizationBackend = (*Middleware)(nil)
	_ providers.TranslationBackend   = (*Middleware)(nil)
)

// Wrap 创建统计中间件
func Wrap(next providers.Backend, manager *Manager, model string) *Middleware {
	return &Middleware{
		next:    next,
		manager: manager,
		model:   model,
	}
}

// Unwrap 返回被包装的后端
func (m *Middleware) Unwrap() providers.Backend {
	return m.next
}

// SummarizeChunk 带统计的摘要
func (m *Middleware) SummarizeChunk(ctx context.Context, text string, minLength, maxLength int) (string, error) {
	s, ok := m.next.(pipeline.Summarizer)
	if !ok {
		return "", providers.NewError(providers.ErrCodeUnsupported, m.next.Name()+" does not support summarization")
	}

	start := time.Now()
	out, err := s.SummarizeChunk(ctx, text, minLength, maxLength)
	m.record(OpSummarize, text, out, err, time.Since(start))
	return out, err
}

// TranslateChunk 带统计的翻译
func (m *Middleware) TranslateChunk(ctx context.Context, text string, dir pipeline.Direction) (string, error) {
	t, ok := m.next.(pipeline.Translator)
	if !ok {
		return "", providers.NewError(providers.ErrCodeUnsupported, m.next.Name()+" does not support translation")
	}

	start := time.Now()
	out, err := t.TranslateChunk(ctx, text, dir)
	m.record(OpTranslate, text, out, err, time.Since(start))
	return out, err
}

func (m *Middleware) record(op Operation, in, out string, err error, latency time.Duration) {
	result := RequestResult{
		Operation: op,
		Success:   err == nil,
		Latency:   latency,
		CharsIn:   utf8.RuneCountInString(in),
	}
	if err != nil {
		result.ErrorType = ClassifyError(err)
	} else {
		result.CharsOut = utf8.RuneCountInString(out)
		result.Untranslated = op == OpTranslate && isUntranslated(in, out)
	}
	m.manager.RecordRequest(m.next.Name(), m.model, result)
}

// isUntranslated 译文与原文几乎一致时认为模型没有翻译
func isUntranslated(original, translated string) bool {
	a := strings.ToLower(strings.TrimSpace(original))
	b := strings.ToLower(strings.TrimSpace(translated))

	n := max(utf8.RuneCountInString(a), utf8.RuneCountInString(b))
	if n < 10 {
		return false
	}
	return float64(fuzzy.LevenshteinDistance(a, b))/float64(n) < 0.05
}

// ClassifyError 将错误归类为统计用的错误类型
func ClassifyError(err error) string {
	var perr *providers.Error
	switch {
	case errors.As(err, &perr):
		return perr.Code
	case errors.Is(err, context.DeadlineExceeded):
		return providers.ErrCodeTimeout
	case errors.Is(err, context.Canceled):
		return "context_canceled"
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return providers.ErrCodeTimeout
		}
		return "network_error"
	}
	return "unknown_error"
}

// Name 被包装后端的名称
func (m *Middleware) Name() string {
	return m.next.Name()
}

// Capabilities 被包装后端的能力
func (m *Middleware) Capabilities() providers.Capabilities {
	return m.next.Capabilities()
}

// HealthCheck 被包装后端的健康检查
func (m *Middleware) HealthCheck(ctx context.Context) error {
	return m.next.HealthCheck(ctx)
}
