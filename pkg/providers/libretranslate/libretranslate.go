package libretranslate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/nerdneilsfield/go-textai/pkg/pipeline"
	"github.com/nerdneilsfield/go-textai/pkg/providers"
	"github.com/nerdneilsfield/go-textai/pkg/providers/retry"
)

// Config LibreTranslate配置
type Config struct {
	providers.BaseConfig
	RequiresAPIKey bool         `json:"requires_api_key"` // 服务器是否需要API密钥
	RetryConfig    retry.Config `json:"retry_config"`
}

// DefaultConfig 返回默认配置
func DefaultConfig() Config {
	config := Config{
		BaseConfig:     providers.DefaultConfig(),
		RequiresAPIKey: false,
		RetryConfig:    retry.DefaultConfig(),
	}
	// 默认使用官方演示服务器
	config.APIEndpoint = "https://libretranslate.com"
	return config
}

// Provider LibreTranslate 翻译后端，不提供摘要
type Provider struct {
	config      Config
	retryClient *retry.Client

	mu        sync.Mutex
	languages []Language // 缓存支持的语言
}

var _ providers.TranslationBackend = (*Provider)(nil)

// New 创建新的LibreTranslate后端
func New(config Config, logger *zap.Logger) *Provider {
	if config.APIEndpoint == "" {
		config.APIEndpoint = "https://libretranslate.com"
	}
	config.APIEndpoint = strings.TrimSuffix(config.APIEndpoint, "/")

	return &Provider{
		config: config,
		retryClient: retry.New(config.RetryConfig, logger).WrapHTTPClient(&http.Client{
			Timeout: config.Timeout,
		}),
	}
}

// Name 获取后端名称
func (p *Provider) Name() string {
	return "libretranslate"
}

// Capabilities 获取后端能力
func (p *Provider) Capabilities() providers.Capabilities {
	return providers.Capabilities{
		Translate:      true,
		Directions:     []pipeline.Direction{pipeline.EnglishToArabic, pipeline.ArabicToEnglish},
		MaxTextLength:  5000, // LibreTranslate限制
		RequiresAPIKey: p.config.RequiresAPIKey,
	}
}

// TranslateChunk 翻译单个片段
func (p *Provider) TranslateChunk(ctx context.Context, text string, dir pipeline.Direction) (string, error) {
	source, target := dir.Languages()

	translateReq := TranslateRequest{
		Q:      text,
		Source: source,
		Target: target,
		Format: "text",
	}
	if p.config.RequiresAPIKey && p.config.APIKey != "" {
		translateReq.APIKey = p.config.APIKey
	}

	body, err := json.Marshal(translateReq)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		p.config.APIEndpoint+"/translate", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	var resp TranslateResponse
	if err := p.do(httpReq, &resp); err != nil {
		return "", err
	}
	return resp.TranslatedText, nil
}

// HealthCheck 获取语言列表，并确认服务器同时支持英语和阿拉伯语
func (p *Provider) HealthCheck(ctx context.Context) error {
	languages, err := p.fetchLanguages(ctx)
	if err != nil {
		return err
	}

	found := map[string]bool{}
	for _, l := range languages {
		found[l.Code] = true
	}
	for _, code := range []string{"en", "ar"} {
		if !found[code] {
			return providers.NewError(providers.ErrCodeUnsupported,
				fmt.Sprintf("server does not support language %q", code))
		}
	}
	return nil
}

// Languages 返回缓存的语言列表，首次调用时从服务器获取
func (p *Provider) Languages(ctx context.Context) ([]Language, error) {
	p.mu.Lock()
	cached := p.languages
	p.mu.Unlock()
	if cached != nil {
		return cached, nil
	}
	return p.fetchLanguages(ctx)
}

func (p *Provider) fetchLanguages(ctx context.Context) ([]Language, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, p.config.APIEndpoint+"/languages", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	var languages []Language
	if err := p.do(httpReq, &languages); err != nil {
		return nil, err
	}

	p.mu.Lock()
	p.languages = languages
	p.mu.Unlock()
	return languages, nil
}

func (p *Provider) do(httpReq *http.Request, out interface{}) error {
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
		message := resp.Status
		var errorResp ErrorResponse
		if json.Unmarshal(respBody, &errorResp) == nil && errorResp.Error != "" {
			message = errorResp.Error
		}
		return providers.StatusError(resp.StatusCode, message)
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return providers.NewError(providers.ErrCodeBadResponse, fmt.Sprintf("failed to decode response: %v", err))
	}
	return nil
}

// Language 语言信息
type Language struct {
	Code    string   `json:"code"`
	Name    string   `json:"name"`
	Targets []string `json:"targets,omitempty"`
}

// TranslateRequest 翻译请求
type TranslateRequest struct {
	Q      string `json:"q"`                 // 要翻译的文本
	Source string `json:"source"`            // 源语言
	Target string `json:"target"`            // 目标语言
	Format string `json:"format"`            // 文本格式
	APIKey string `json:"api_key,omitempty"` // API密钥（如果需要）
}

// TranslateResponse 翻译响应
type TranslateResponse struct {
	TranslatedText   string `json:"translatedText"`
	DetectedLanguage *struct {
		Confidence float64 `json:"confidence"`
		Language   string  `json:"language"`
	} `json:"detectedLanguage,omitempty"`
}

// ErrorResponse 错误响应
type ErrorResponse struct {
	Error string `json:"error"`
}
