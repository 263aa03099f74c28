package deeplx

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

const defaultEndpoint = "http://localhost:1188/translate"

// Config DeepLX配置
type Config struct {
	providers.BaseConfig
	RetryConfig retry.Config `json:"retry_config"`
}

// DefaultConfig 返回默认配置
func DefaultConfig() Config {
	config := Config{
		BaseConfig:  providers.DefaultConfig(),
		RetryConfig: retry.DefaultConfig(),
	}
	config.APIEndpoint = defaultEndpoint
	return config
}

// Provider DeepLX 翻译后端。DeepLX 在 HTTP 200 中用 code 字段表示业务错误。
type Provider struct {
	config      Config
	retryClient *retry.Client
}

var _ providers.TranslationBackend = (*Provider)(nil)

// New 创建新的DeepLX后端
func New(config Config, logger *zap.Logger) *Provider {
	if config.APIEndpoint == "" {
		config.APIEndpoint = defaultEndpoint
	}

	return &Provider{
		config: config,
		retryClient: retry.New(config.RetryConfig, logger).WrapHTTPClient(&http.Client{
			Timeout: config.Timeout,
		}),
	}
}

// Name 获取后端名称
func (p *Provider) Name() string {
	return "deeplx"
}

// Capabilities 获取后端能力
func (p *Provider) Capabilities() providers.Capabilities {
	return providers.Capabilities{
		Translate:     true,
		Directions:    []pipeline.Direction{pipeline.EnglishToArabic, pipeline.ArabicToEnglish},
		MaxTextLength: 5000,
	}
}

// TranslateChunk 翻译单个片段
func (p *Provider) TranslateChunk(ctx context.Context, text string, dir pipeline.Direction) (string, error) {
	source, target := dir.Languages()

	body, err := json.Marshal(TranslateRequest{
		Text:       text,
		SourceLang: strings.ToUpper(source),
		TargetLang: strings.ToUpper(target),
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.config.APIEndpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
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
		return "", fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	var translateResp TranslateResponse
	if err := json.Unmarshal(respBody, &translateResp); err != nil {
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return "", providers.StatusError(resp.StatusCode, resp.Status)
		}
		return "", providers.NewError(providers.ErrCodeBadResponse, fmt.Sprintf("failed to decode response: %v", err))
	}

	// 业务错误码优先于 HTTP 状态码
	code := translateResp.Code
	if code == 0 {
		code = resp.StatusCode
	}
	if code != http.StatusOK {
		message := translateResp.Message
		if message == "" {
			message = http.StatusText(code)
		}
		return "", providers.StatusError(code, message)
	}

	return translateResp.Data, nil
}

// HealthCheck 翻译一个单词作为健康检查
func (p *Provider) HealthCheck(ctx context.Context) error {
	_, err := p.TranslateChunk(ctx, "Hello", pipeline.EnglishToArabic)
	return err
}

// TranslateRequest 翻译请求
type TranslateRequest struct {
	Text       string `json:"text"`
	SourceLang string `json:"source_lang"`
	TargetLang string `json:"target_lang"`
}

// TranslateResponse 翻译响应
type TranslateResponse struct {
	Code         int      `json:"code"`
	Message      string   `json:"message,omitempty"`
	Data         string   `json:"data"`
	SourceLang   string   `json:"source_lang,omitempty"`
	Alternatives []string `json:"alternatives,omitempty"`
}
