package compat

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/nerdneilsfield/go-textai/pkg/pipeline"
	"github.com/nerdneilsfield/go-textai/pkg/providers"
)

// Config OpenAI 兼容接口配置（DeepSeek、vLLM、LM Studio 等）
type Config struct {
	providers.BaseConfig
	Model       string  `json:"model"`
	Temperature float32 `json:"temperature"`
	MaxTokens   int     `json:"max_tokens"`
}

// DefaultConfig 返回默认配置
func DefaultConfig() Config {
	config := Config{
		BaseConfig:  providers.DefaultConfig(),
		Model:       "deepseek-chat",
		Temperature: 0.3,
		MaxTokens:   1024,
	}
	config.APIEndpoint = "https://api.deepseek.com/v1"
	return config
}

// Provider 基于 go-openai 的兼容后端
type Provider struct {
	config Config
	client *openai.Client
	logger *zap.Logger
}

var (
	_ providers.SummarizationBackend = (*Provider)(nil)
	_ providers.TranslationBackend   = (*Provider)(nil)
)

// New 创建新的兼容后端
func New(config Config, logger *zap.Logger) *Provider {
	if logger == nil {
		logger = zap.NewNop()
	}

	clientConfig := openai.DefaultConfig(config.APIKey)
	clientConfig.HTTPClient = &http.Client{
		Timeout:   config.Timeout,
		Transport: &headerRoundTripper{base: http.DefaultTransport, headers: config.Headers},
	}
	if config.APIEndpoint != "" {
		// go-openai 的路径后缀以斜杠开头
		clientConfig.BaseURL = strings.TrimSuffix(config.APIEndpoint, "/")
	}

	logger.Debug("创建 OpenAI 兼容客户端",
		zap.String("base_url", clientConfig.BaseURL),
		zap.String("model", config.Model))

	return &Provider{
		config: config,
		client: openai.NewClientWithConfig(clientConfig),
		logger: logger,
	}
}

// Name 获取后端名称
func (p *Provider) Name() string {
	return "openai-compatible"
}

// Capabilities 获取后端能力
func (p *Provider) Capabilities() providers.Capabilities {
	return providers.Capabilities{
		Summarize:      true,
		Translate:      true,
		Directions:     []pipeline.Direction{pipeline.EnglishToArabic, pipeline.ArabicToEnglish},
		MaxTextLength:  8000,
		RequiresAPIKey: p.config.APIKey != "",
	}
}

// SummarizeChunk 摘要单个片段
func (p *Provider) SummarizeChunk(ctx context.Context, text string, minLength, maxLength int) (string, error) {
	system, user := providers.SummaryPrompt(text, minLength, maxLength)
	return p.complete(ctx, system, user)
}

// TranslateChunk 翻译单个片段
func (p *Provider) TranslateChunk(ctx context.Context, text string, dir pipeline.Direction) (string, error) {
	system, user := providers.TranslationPrompt(text, dir)
	return p.complete(ctx, system, user)
}

// HealthCheck 列出模型作为健康检查
func (p *Provider) HealthCheck(ctx context.Context) error {
	_, err := p.client.ListModels(ctx)
	return p.wrapError(err)
}

func (p *Provider) complete(ctx context.Context, system, user string) (string, error) {
	req := openai.ChatCompletionRequest{
		Model: p.config.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
		Temperature: p.config.Temperature,
		MaxTokens:   p.config.MaxTokens,
	}

	resp, err := p.client.CreateChatCompletion(ctx, req)
	if err != nil {
		p.logger.Debug("API 调用失败", zap.String("model", p.config.Model), zap.Error(err))
		return "", p.wrapError(err)
	}
	if len(resp.Choices) == 0 {
		return "", providers.NewError(providers.ErrCodeBadResponse, "no choices returned")
	}

	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// wrapError 将 go-openai 的错误转换为 providers.Error
func (p *Provider) wrapError(err error) error {
	if err == nil {
		return nil
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return providers.StatusError(apiErr.HTTPStatusCode, apiErr.Message)
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return providers.StatusError(reqErr.HTTPStatusCode, reqErr.Error())
	}

	return fmt.Errorf("openai-compatible request failed: %w", err)
}

// headerRoundTripper 为每个请求附加自定义头部
type headerRoundTripper struct {
	base    http.RoundTripper
	headers map[string]string
}

func (h *headerRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	if len(h.headers) > 0 {
		req = req.Clone(req.Context())
		for k, v := range h.headers {
			req.Header.Set(k, v)
		}
	}
	return h.base.RoundTrip(req)
}
