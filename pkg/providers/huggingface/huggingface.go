package huggingface

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/nerdneilsfield/go-textai/pkg/pipeline"
	"github.com/nerdneilsfield/go-textai/pkg/providers"
	"github.com/nerdneilsfield/go-textai/pkg/providers/retry"
)

// 默认模型
const (
	DefaultEndpoint           = "https://api-inference.huggingface.co"
	DefaultSummarizationModel = "facebook/bart-large-cnn"
	DefaultModelEnglishArabic = "Helsinki-NLP/opus-mt-en-ar"
	DefaultModelArabicEnglish = "Helsinki-NLP/opus-mt-ar-en"
)

// Config Hugging Face Inference API 配置
type Config struct {
	providers.BaseConfig
	SummarizationModel string                        `json:"summarization_model"`
	TranslationModels  map[pipeline.Direction]string `json:"translation_models"`
	WaitForModel       bool                          `json:"wait_for_model"`
	RetryConfig        retry.Config                  `json:"retry_config"`
}

// DefaultConfig 返回默认配置
func DefaultConfig() Config {
	config := Config{
		BaseConfig:         providers.DefaultConfig(),
		SummarizationModel: DefaultSummarizationModel,
		TranslationModels: map[pipeline.Direction]string{
			pipeline.EnglishToArabic: DefaultModelEnglishArabic,
			pipeline.ArabicToEnglish: DefaultModelArabicEnglish,
		},
		WaitForModel: true,
		RetryConfig:  retry.DefaultConfig(),
	}
	config.APIEndpoint = DefaultEndpoint
	return config
}

// Provider Hugging Face 推理后端，摘要与双向翻译各使用一个模型
type Provider struct {
	config      Config
	retryClient *retry.Client
	logger      *zap.Logger
}

var (
	_ providers.SummarizationBackend = (*Provider)(nil)
	_ providers.TranslationBackend   = (*Provider)(nil)
)

// New 创建新的 Hugging Face 后端
func New(config Config, logger *zap.Logger) *Provider {
	if config.APIEndpoint == "" {
		config.APIEndpoint = DefaultEndpoint
	}
	config.APIEndpoint = strings.TrimSuffix(config.APIEndpoint, "/")
	if config.SummarizationModel == "" {
		config.SummarizationModel = DefaultSummarizationModel
	}
	if config.TranslationModels == nil {
		config.TranslationModels = DefaultConfig().TranslationModels
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	httpClient := &http.Client{
		Timeout: config.Timeout,
	}
	retryClient := retry.New(config.RetryConfig, logger).WrapHTTPClient(httpClient)

	return &Provider{
		config:      config,
		retryClient: retryClient,
		logger:      logger,
	}
}

// Name 获取后端名称
func (p *Provider) Name() string {
	return "huggingface"
}

// Capabilities 获取后端能力
func (p *Provider) Capabilities() providers.Capabilities {
	dirs := make([]pipeline.Direction, 0, len(p.config.TranslationModels))
	for _, dir := range []pipeline.Direction{pipeline.EnglishToArabic, pipeline.ArabicToEnglish} {
		if p.config.TranslationModels[dir] != "" {
			dirs = append(dirs, dir)
		}
	}
	return providers.Capabilities{
		Summarize:      p.config.SummarizationModel != "",
		Translate:      len(dirs) > 0,
		Directions:     dirs,
		MaxTextLength:  pipeline.DefaultSummarizeChunkLength,
		RequiresAPIKey: true,
	}
}

// SummarizeChunk 调用摘要模型
func (p *Provider) SummarizeChunk(ctx context.Context, text string, minLength, maxLength int) (string, error) {
	req := InferenceRequest{
		Inputs: text,
		Parameters: map[string]interface{}{
			"min_length": minLength,
			"max_length": maxLength,
			"do_sample":  false,
		},
	}

	var out []SummarizationOutput
	if err := p.infer(ctx, p.config.SummarizationModel, req, &out); err != nil {
		return "", err
	}
	if len(out) == 0 {
		return "", providers.NewError(providers.ErrCodeBadResponse, "empty summarization output")
	}
	return strings.TrimSpace(out[0].SummaryText), nil
}

// TranslateChunk 按方向选择翻译模型
func (p *Provider) TranslateChunk(ctx context.Context, text string, dir pipeline.Direction) (string, error) {
	model := p.config.TranslationModels[dir]
	if model == "" {
		return "", providers.NewError(providers.ErrCodeUnsupported, fmt.Sprintf("no translation model configured for %s", dir))
	}

	var out []TranslationOutput
	if err := p.infer(ctx, model, InferenceRequest{Inputs: text}, &out); err != nil {
		return "", err
	}
	if len(out) == 0 {
		return "", providers.NewError(providers.ErrCodeBadResponse, "empty translation output")
	}
	return strings.TrimSpace(out[0].TranslationText), nil
}

// HealthCheck 用一个很短的输入探测摘要模型，未配置摘要模型时探测翻译模型
func (p *Provider) HealthCheck(ctx context.Context) error {
	if p.config.SummarizationModel != "" {
		_, err := p.SummarizeChunk(ctx, "Health check.", 1, 5)
		return err
	}
	for _, dir := range p.Capabilities().Directions {
		_, err := p.TranslateChunk(ctx, "Hello", dir)
		return err
	}
	return providers.NewError(providers.ErrCodeUnsupported, "no models configured")
}

// infer 调用 POST /models/{model}
func (p *Provider) infer(ctx context.Context, model string, req InferenceRequest, out interface{}) error {
	if p.config.WaitForModel {
		req.Options = &InferenceOptions{WaitForModel: true}
	}

	body, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		p.config.APIEndpoint+"/models/"+model, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	if p.config.APIKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+p.config.APIKey)
	}
	for k, v := range p.config.Headers {
		httpReq.Header.Set(k, v)
	}

	resp, err := p.retryClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var apiErr APIError
		message := resp.Status
		if json.Unmarshal(respBody, &apiErr) == nil && apiErr.Error != "" {
			message = apiErr.Error
		}
		perr := providers.StatusError(resp.StatusCode, message)
		if apiErr.EstimatedTime > 0 {
			perr.Details = map[string]interface{}{"estimated_time": apiErr.EstimatedTime}
		}
		p.logger.Debug("推理请求失败",
			zap.String("model", model),
			zap.Int("status", resp.StatusCode),
			zap.String("message", message))
		return perr
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return providers.NewError(providers.ErrCodeBadResponse, fmt.Sprintf("failed to decode response: %v", err))
	}
	return nil
}

// InferenceRequest 推理请求
type InferenceRequest struct {
	Inputs     string                 `json:"inputs"`
	Parameters map[string]interface{} `json:"parameters,omitempty"`
	Options    *InferenceOptions      `json:"options,omitempty"`
}

// InferenceOptions 推理选项
type InferenceOptions struct {
	WaitForModel bool `json:"wait_for_model"`
}

// SummarizationOutput 摘要输出
type SummarizationOutput struct {
	SummaryText string `json:"summary_text"`
}

// TranslationOutput 翻译输出
type TranslationOutput struct {
	TranslationText string `json:"translation_text"`
}

// APIError API错误
type APIError struct {
	Error         string  `json:"error"`
	EstimatedTime float64 `json:"estimated_time,omitempty"`
}
