package openai

import (
	"context"
	"fmt"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/nerdneilsfield/go-textai/pkg/pipeline"
	"github.com/nerdneilsfield/go-textai/pkg/providers"
)

// Config OpenAI配置（使用官方SDK）
type Config struct {
	providers.BaseConfig
	Model       string  `json:"model"`
	Temperature float32 `json:"temperature"`
	MaxTokens   int     `json:"max_tokens"`
	OrgID       string  `json:"org_id,omitempty"` // 可选的组织ID
}

// DefaultConfig 返回默认配置
func DefaultConfig() Config {
	return Config{
		BaseConfig:  providers.DefaultConfig(),
		Model:       "gpt-4o-mini",
		Temperature: 0.3,
		MaxTokens:   1024,
	}
}

// Provider OpenAI 聊天模型后端，通过提示词完成摘要和翻译
type Provider struct {
	config Config
	client openai.Client
}

var (
	_ providers.SummarizationBackend = (*Provider)(nil)
	_ providers.TranslationBackend   = (*Provider)(nil)
)

// New 创建新的OpenAI后端
func New(config Config) *Provider {
	opts := []option.RequestOption{
		option.WithAPIKey(config.APIKey),
		option.WithMaxRetries(config.MaxRetries),
	}

	if config.APIEndpoint != "" {
		opts = append(opts, option.WithBaseURL(config.APIEndpoint))
	}
	if config.OrgID != "" {
		opts = append(opts, option.WithOrganization(config.OrgID))
	}
	for k, v := range config.Headers {
		opts = append(opts, option.WithHeader(k, v))
	}
	if config.Timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(config.Timeout))
	}

	return &Provider{
		config: config,
		client: openai.NewClient(opts...),
	}
}

// Name 获取后端名称
func (p *Provider) Name() string {
	return "openai"
}

// Capabilities 获取后端能力
func (p *Provider) Capabilities() providers.Capabilities {
	return providers.Capabilities{
		Summarize:      true,
		Translate:      true,
		Directions:     []pipeline.Direction{pipeline.EnglishToArabic, pipeline.ArabicToEnglish},
		MaxTextLength:  8000,
		RequiresAPIKey: true,
	}
}

// SummarizeChunk 摘要单个片段
func (p *Provider) SummarizeChunk(ctx context.Context, text string, minLength, maxLength int) (string, error) {
	system, user := providers.SummaryPrompt(text, minLength, maxLength)
	return p.complete(ctx, system, user, p.config.MaxTokens)
}

// TranslateChunk 翻译单个片段
func (p *Provider) TranslateChunk(ctx context.Context, text string, dir pipeline.Direction) (string, error) {
	system, user := providers.TranslationPrompt(text, dir)
	return p.complete(ctx, system, user, p.config.MaxTokens)
}

// HealthCheck 健康检查
func (p *Provider) HealthCheck(ctx context.Context) error {
	_, err := p.complete(ctx, "", "Hello", 10)
	return err
}

func (p *Provider) complete(ctx context.Context, system, user string, maxTokens int) (string, error) {
	var messages []openai.ChatCompletionMessageParamUnion
	if system != "" {
		messages = append(messages, openai.SystemMessage(system))
	}
	messages = append(messages, openai.UserMessage(user))

	params := openai.ChatCompletionNewParams{
		Messages: messages,
		Model:    openai.ChatModel(p.config.Model),
	}
	if p.config.Temperature > 0 {
		params.Temperature = openai.Float(float64(p.config.Temperature))
	}
	if maxTokens > 0 {
		params.MaxTokens = openai.Int(int64(maxTokens))
	}

	completion, err := p.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("openai chat completion failed: %w", err)
	}
	if len(completion.Choices) == 0 {
		return "", providers.NewError(providers.ErrCodeBadResponse, "no choices returned from OpenAI")
	}

	return strings.TrimSpace(completion.Choices[0].Message.Content), nil
}
