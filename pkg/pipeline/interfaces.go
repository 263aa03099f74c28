package pipeline

import (
	"context"
)

// Summarizer 摘要模型服务，每次处理一个长度受限的片段
type Summarizer interface {
	// SummarizeChunk 返回长度在 [minLength, maxLength] 范围内的摘要
	SummarizeChunk(ctx context.Context, text string, minLength, maxLength int) (string, error)
}

// Translator 翻译模型服务，每次处理一个长度受限的片段
type Translator interface {
	// TranslateChunk 按方向翻译片段
	TranslateChunk(ctx context.Context, text string, dir Direction) (string, error)
}

// SummarizerFunc 函数适配器
type SummarizerFunc func(ctx context.Context, text string, minLength, maxLength int) (string, error)

// SummarizeChunk 调用函数本身
func (f SummarizerFunc) SummarizeChunk(ctx context.Context, text string, minLength, maxLength int) (string, error) {
	return f(ctx, text, minLength, maxLength)
}

// TranslatorFunc 函数适配器
type TranslatorFunc func(ctx context.Context, text string, dir Direction) (string, error)

// TranslateChunk 调用函数本身
func (f TranslatorFunc) TranslateChunk(ctx context.Context, text string, dir Direction) (string, error) {
	return f(ctx, text, dir)
}
