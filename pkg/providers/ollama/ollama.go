package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/nerdneilsfield/go-textai/pkg/pipeline"
	"github.com/nerdneilsfield/go-textai/pkg/providers"
	"github.com/nerdneilsfield/go-textai/pkg/providers/retry"
)

// Config Ollama配置
type Config struct {
	providers.BaseConfig
	Model       string       `json:"model"`
	Temperature float32      `json:"temperature"`
	MaxTokens   int          `json:"max_tokens"`
	RetryConfig retry.Config `json:"retry_config"`
}

// DefaultConfig 返回默认配置
func DefaultConfig() Config {
	config := Config{
		BaseConfig:  providers.DefaultConfig(),
		Model:       "llama3",
		Temperature: 0.3,
		MaxTokens:   1024,
		RetryConfig: retry.DefaultConfig(),
	}
	config.APIEndpoint = "http://localhost:11434"
	return config
}

// Provider 本地 Ollama 后端
type Provider struct {
	config      Config
	retryClient *retry.Client
}

var (
	_ providers.SummarizationBackend = (*Provider)(nil)
	_ providers.TranslationBackend   = (*Provider)(nil)
)

// New 创建新的Ollama后端
func New(config Config, logger *zap.Logger) *Provider {
	if config.APIEndpoint == "" {
		config.APIEndpoint = "http://localhost:11434"
	}
	config.APIEndpoint = strings.TrimSuffix(config.APIEndpoint, "/")

	httpClient := &http.Client{
		Timeout: config.Timeout,
	}

	return &Provider{
		config:      config,
		retryClient: retry.New(config.RetryConfig, logger).WrapHTTPClient(httpClient),
	}
}

// Name 获取后端名称
func (p *Provider) Name() string {
	return "ollama"
}

// Capabilities 获取后端能力
func (p *Provider) Capabilities() providers.Capabilities {
	return providers.Capabilities{
		Summarize:      true,
		Translate:      true,
		Directions:     []pipeline.Direction{pipeline.EnglishToArabic, pipeline.ArabicToEnglish},
		MaxTextLength:  8000, // 取决于模型的上下文长度
		RequiresAPIKey: false,
	}
}

// SummarizeChunk 摘要单个片段
func (p *Provider) SummarizeChunk(ctx context.Context, text string, minLength, maxLength int) (string, error) {
	system, prompt := providers.SummaryPrompt(text, minLength, maxLength)
	return p.complete(ctx, system, prompt)
}

// TranslateChunk 翻译单个片段
func (p *Provider) TranslateChunk(ctx context.Context, text string, dir pipeline.Direction) (string, error) {
	system, prompt := providers.TranslationPrompt(text, dir)
	return p.complete(ctx, system, prompt)
}

// HealthCheck 检查服务可达且模型已拉取
func (p *Provider) HealthCheck(ctx context.Context) error {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, p.config.APIEndpoint+"/api/tags", nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	var tags TagsResponse
	if err := p.do(httpReq, &tags); err != nil {
		return err
	}

	for _, m := range tags.Models {
		if m.Name == p.config.Model || strings.TrimSuffix(m.Name, ":latest") == p.config.Model {
			return nil
		}
	}
	return providers.NewError(providers.ErrCodeUnsupported, fmt.Sprintf("model %s is not available, run `ollama pull %s`", p.config.Model, p.config.Model))
}

func (p *Provider) complete(ctx context.Context, system, prompt string) (string, error) {
	generateReq := GenerateRequest{
		Model:  p.config.Model,
		System: system,
		Prompt: prompt,
		Stream: false,
		Options: map[string]interface{}{
			"temperature": p.config.Temperature,
		},
	}
	if p.config.MaxTokens > 0 {
		generateReq.Options["num_predict"] = p.config.MaxTokens
	}

	body, err := json.Marshal(generateReq)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		p.config.APIEndpoint+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	var resp GenerateResponse
	if err := p.do(httpReq, &resp); err != nil {
		return "", err
	}
	return strings.TrimSpace(resp.Response), nil
}

// do 执行请求并解码 JSON 响应
func (p *Provider) do(httpReq *http.Request, out interface{}) error {
	for k, v := range p.config.Headers {
		httpReq.Header.Set(k, v)
	}

	resp, err := p.retryClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		errBody, _ := io.ReadAll(resp.Body)

		message := resp.Status
		var apiErr APIError
		if json.Unmarshal(errBody, &apiErr) == nil && apiErr.ErrorMsg != "" {
			message = apiErr.ErrorMsg
		}
		return providers.StatusError(resp.StatusCode, message)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return providers.NewError(providers.ErrCodeBadResponse, fmt.Sprintf("failed to decode response: %v", err))
	}
	return nil
}

// GenerateRequest 生成请求
type GenerateRequest struct {
	Model   string                 `json:"model"`
	System  string                 `json:"system,omitempty"`
	Prompt  string                 `json:"prompt"`
	Stream  bool                   `json:"stream"`
	Options map[string]interface{} `json:"options,omitempty"`
}

// GenerateResponse 生成响应
type GenerateResponse struct {
	Model           string    `json:"model"`
	CreatedAt       time.Time `json:"created_at"`
	Response        string    `json:"response"`
	Done            bool      `json:"done"`
	TotalDuration   int64     `json:"total_duration"`
	PromptEvalCount int       `json:"prompt_eval_count"`
	EvalCount       int       `json:"eval_count"`
}

// TagsResponse 本地模型列表
type TagsResponse struct {
	Models []struct {
		Name string `json:"name"`
	} `json:"models"`
}

// APIError API错误
type APIError struct {
	ErrorMsg string `json:"error"`
}

func (e *APIError) Error() string {
	return e.ErrorMsg
}
