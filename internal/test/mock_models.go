package test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/nerdneilsfield/go-textai/pkg/pipeline"
)

// ErrMockModel 模拟的模型错误
var ErrMockModel = errors.New("mock model error")

// SummarizeCall 记录一次摘要调用
type SummarizeCall struct {
	Text      string
	MinLength int
	MaxLength int
}

// MockSummarizer 模拟的摘要模型，输出为 "S(<text>)"
type MockSummarizer struct {
	// FailOn 输入包含该子串时返回 ErrMockModel
	FailOn string
	// Delay 根据输入返回调用延迟，用于打乱完成顺序
	Delay func(text string) time.Duration

	mu    sync.Mutex
	calls []SummarizeCall
}

// SummarizeChunk 实现 pipeline.Summarizer
func (m *MockSummarizer) SummarizeChunk(ctx context.Context, text string, minLength, maxLength int) (string, error) {
	m.mu.Lock()
	m.calls = append(m.calls, SummarizeCall{Text: text, MinLength: minLength, MaxLength: maxLength})
	m.mu.Unlock()

	if err := wait(ctx, m.Delay, text); err != nil {
		return "", err
	}
	if m.FailOn != "" && strings.Contains(text, m.FailOn) {
		return "", ErrMockModel
	}
	return fmt.Sprintf("S(%s)", text), nil
}

// Calls 返回调用记录的拷贝
func (m *MockSummarizer) Calls() []SummarizeCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]SummarizeCall(nil), m.calls...)
}

// MockTranslator 模拟的翻译模型，输出为 "<dir>:<text>"
type MockTranslator struct {
	FailOn string
	Delay  func(text string) time.Duration

	mu    sync.Mutex
	calls []string
}

// TranslateChunk 实现 pipeline.Translator
func (m *MockTranslator) TranslateChunk(ctx context.Context, text string, dir pipeline.Direction) (string, error) {
	m.mu.Lock()
	m.calls = append(m.calls, text)
	m.mu.Unlock()

	if err := wait(ctx, m.Delay, text); err != nil {
		return "", err
	}
	if m.FailOn != "" && strings.Contains(text, m.FailOn) {
		return "", ErrMockModel
	}
	return fmt.Sprintf("%s:%s", dir, text), nil
}

// Calls 返回调用过的输入
func (m *MockTranslator) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

func wait(ctx context.Context, delay func(string) time.Duration, text string) error {
	if delay == nil {
		return ctx.Err()
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(delay(text)):
		return nil
	}
}
