package google

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"io"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/nerdneilsfield/go-textai/pkg/pipeline"
	"github.com/nerdneilsfield/go-textai/pkg/providers"
	"github.com/nerdneilsfield/go-textai/pkg/providers/retry"
)

const defaultEndpoint = "https://translation.googleapis.com/language/translate/v2"

// Config Google Translate配置
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

// Provider Google Cloud Translation (v2) 翻译后端
type Provider struct {
	config      Config
	retryClient *retry.Client
	logger      *zap.Logger
}

var _ providers.TranslationBackend = (*Provider)(nil)

// New 创建新的Google Translate后端
func New(config Config, logger *zap.Logger) *Provider {
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.APIEndpoint == "" {
		config.APIEndpoint = defaultEndpoint
	}
	config.APIEndpoint = strings.TrimSuffix(config.APIEndpoint, "/")

	return &Provider{
		config: config,
		retryClient: retry.New(config.RetryConfig, logger).WrapHTTPClient(&http.Client{
			Timeout: config.Timeout,
		}),
		logger: logger,
	}
}

// Name 获取后端名称
func (p *Provider) Name() string {
	return "google"
}

// Capabilities 获取后端能力
func (p *Provider) Capabilities() providers.Capabilities {
	return providers.Capabilities{
		Translate:      true,
		Directions:     []pipeline.Direction{pipeline.EnglishToArabic, pipeline.ArabicToEnglish},
		MaxTextLength:  30000, // 单次请求建议上限
		RequiresAPIKey: true,
	}
}

// TranslateChunk 翻译单个片段
func (p *Provider) TranslateChunk(ctx context.Context, text string, dir pipeline.Direction) (string, error) {
	source, target := dir.Languages()

	params := url.Values{}
	params.Set("q", text)
	params.Set("source", source)
	params.Set("target", target)
	params.Set("format", "text")

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		p.config.APIEndpoint, strings.NewReader(params.Encode()))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	var resp TranslateResponse
	if err := p.do(httpReq, &resp); err != nil {
		return "", err
	}
	if len(resp.Data.Translations) == 0 {
		return "", providers.NewError(providers.ErrCodeBadResponse, "no translation returned")
	}

	// format=text 时服务端仍可能返回 HTML 实体
	return html.UnescapeString(resp.Data.Translations[0].TranslatedText), nil
}

// HealthCheck 查询支持的语言，并确认包含英语和阿拉伯语
func (p *Provider) HealthCheck(ctx context.Context) error {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, p.config.APIEndpoint+"/languages", nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	var resp LanguagesResponse
	if err := p.do(httpReq, &resp); err != nil {
		return err
	}

	found := map[string]bool{}
	for _, l := range resp.Data.Languages {
		found[l.Language] = true
	}
	for _, code := range []string{"en", "ar"} {
		if !found[code] {
			return providers.NewError(providers.ErrCodeUnsupported,
				fmt.Sprintf("language %q is not available", code))
		}
	}
	return nil
}

func (p *Provider) do(httpReq *http.Request, out interface{}) error {
	query := httpReq.URL.Query()
	query.Set("key", p.config.APIKey)
	httpReq.URL.RawQuery = query.Encode()
	for k, v := range p.config.Headers {
		httpReq.Header.Set(k, v)
	}

	resp, err := p.retryClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		message := resp.Status
		var apiErr APIError
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Error.Message != "" {
			message = "Google API error: " + apiErr.Error.Message
		}
		p.logger.Debug("Google API 调用失败", zap.Int("status", resp.StatusCode), zap.String("message", message))
		return providers.StatusError(resp.StatusCode, message)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return providers.NewError(providers.ErrCodeBadResponse, fmt.Sprintf("failed to decode response: %v", err))
	}
	return nil
}

// TranslateResponse 翻译响应
type TranslateResponse struct {
	Data struct {
		Translations []struct {
			TranslatedText         string `json:"translatedText"`
			DetectedSourceLanguage string `json:"detectedSourceLanguage,omitempty"`
		} `json:"translations"`
	} `json:"data"`
}

// LanguagesResponse 语言列表响应
type LanguagesResponse struct {
	Data struct {
		Languages []struct {
			Language string `json:"language"`
		} `json:"languages"`
	} `json:"data"`
}

// APIError API错误
type APIError struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}
