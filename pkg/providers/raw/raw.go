package raw

import (
	"context"
	"strings"

	"github.com/nerdneilsfield/go-textai/pkg/pipeline"
	"github.com/nerdneilsfield/go-textai/pkg/providers"
)

// Provider Raw 后端，不调用任何服务：翻译直接返回原文，摘要截取片段开头的 max_length 个词。
// 用于在没有模型的环境下检查分块与聚合结果。
type Provider struct{}

var (
	_ providers.SummarizationBackend = (*Provider)(nil)
	_ providers.TranslationBackend   = (*Provider)(nil)
)

// New 创建新的 Raw 后端
func New() *Provider {
	return &Provider{}
}

// Name 获取后端名称
func (p *Provider) Name() string {
	return "raw"
}

// Capabilities 获取后端能力
func (p *Provider) Capabilities() providers.Capabilities {
	return providers.Capabilities{
		Summarize:  true,
		Translate:  true,
		Directions: []pipeline.Direction{pipeline.EnglishToArabic, pipeline.ArabicToEnglish},
	}
}

// SummarizeChunk 返回片段开头不超过 maxLength 个词
func (p *Provider) SummarizeChunk(ctx context.Context, text string, minLength, maxLength int) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	words := strings.Fields(text)
	if maxLength > 0 && len(words) > maxLength {
		words = words[:maxLength]
	}
	return strings.Join(words, " "), nil
}

// TranslateChunk 直接返回原文
func (p *Provider) TranslateChunk(ctx context.Context, text string, dir pipeline.Direction) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return text, nil
}

// HealthCheck 总是可用
func (p *Provider) HealthCheck(ctx context.Context) error {
	return nil
}
