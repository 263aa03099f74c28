package deepl

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/nerdneilsfield/go-textai/pkg/pipeline"
	"github.com/nerdneilsfield/go-textai/pkg/providers"
	"github.com/nerdneilsfield/go-textai/pkg/providers/retry"
)

const (
	proEndpoint  = "https://api.deepl.com/v2"
	freeEndpoint = "https://api-free.deepl.com/v2"
)

// Config DeepL配置
type Config struct {
	providers.BaseConfig
	UseFreeAPI  bool         `json:"use_free_api"` // 是否使用免费API
	Formality   string       `json:"formality,omitempty"`
	RetryConfig retry.Config `json:"retry_config"`
}

// DefaultConfig 返回默认配置
func DefaultConfig() Config {
	return Config{
		BaseConfig:  providers.DefaultConfig(),
		RetryConfig: retry.DefaultConfig(),
	}
}

// Provider DeepL 翻译后端
type Provider struct {
	config      Config
	retryClient *retry.Client
	logger      *zap.Logger
}

var _ providers.TranslationBackend = (*Provider)(nil)

// New 创建新的DeepL后端。未指定端点时，免费密钥（以 ":fx" 结尾）使用免费 API。
func New(config Config, logger *zap.Logger) *Provider {
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.APIEndpoint == "" {
		if config.UseFreeAPI || strings.HasSuffix(config.APIKey, ":fx") {
			config.APIEndpoint = freeEndpoint
		} else {
			config.APIEndpoint = proEndpoint
		}
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
	return "deepl"
}

// Capabilities 获取后端能力
func (p *Provider) Capabilities() providers.Capabilities {
	return providers.Capabilities{
		Translate:      true,
		Directions:     []pipeline.Direction{pipeline.EnglishToArabic, pipeline.ArabicToEnglish},
		MaxTextLength:  130000, // DeepL Pro限制
		RequiresAPIKey: true,
	}
}

// TranslateChunk 翻译单个片段
func (p *Provider) TranslateChunk(ctx context.Context, text string, dir pipeline.Direction) (string, error) {
	source, target := dir.Languages()

	params := url.Values{}
	params.Set("text", text)
	params.Set("source_lang", languageCode(source, true))
	params.Set("target_lang", languageCode(target, false))
	if p.config.Formality != "" {
		params.Set("formality", p.config.Formality)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		p.config.APIEndpoint+"/translate", strings.NewReader(params.Encode()))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	var resp TranslateResponse
	if err := p.do(httpReq, &resp); err != nil {
		return "", err
	}
	if len(resp.Translations) == 0 {
		return "", providers.NewError(providers.ErrCodeBadResponse, "no translation returned")
	}

	p.logger.Debug("DeepL 翻译完成",
		zap.String("detected_source", resp.Translations[0].DetectedSourceLanguage),
		zap.Int("chars", len([]rune(text))))

	return resp.Translations[0].Text, nil
}

// HealthCheck 查询用量，额度用尽时视为不可用
func (p *Provider) HealthCheck(ctx context.Context) error {
	usage, err := p.Usage(ctx)
	if err != nil {
		return err
	}
	if usage.CharacterLimit > 0 && usage.CharacterCount >= usage.CharacterLimit {
		return providers.NewError(providers.ErrCodeRateLimit,
			fmt.Sprintf("quota exceeded: %d of %d characters used", usage.CharacterCount, usage.CharacterLimit))
	}
	return nil
}

// Usage 获取当前计费周期的字符用量
func (p *Provider) Usage(ctx context.Context) (*UsageResponse, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, p.config.APIEndpoint+"/usage", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	var usage UsageResponse
	if err := p.do(httpReq, &usage); err != nil {
		return nil, err
	}
	return &usage, nil
}

func (p *Provider) do(httpReq *http.Request, out interface{}) error {
	httpReq.Header.Set("Authorization", "DeepL-Auth-Key "+p.config.APIKey)
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
		return statusError(resp.StatusCode, body)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return providers.NewError(providers.ErrCodeBadResponse, fmt.Sprintf("failed to decode response: %v", err))
	}
	return nil
}

// statusError 处理 DeepL 特有的状态码
func statusError(status int, body []byte) *providers.Error {
	message := http.StatusText(status)
	var errResp ErrorResponse
	if json.Unmarshal(body, &errResp) == nil && errResp.Message != "" {
		message = errResp.Message
	}

	switch status {
	case http.StatusForbidden:
		return providers.StatusError(status, "authentication failed: "+message)
	case http.StatusRequestEntityTooLarge:
		return providers.StatusError(status, "request size exceeded")
	case 456:
		// 456 表示额度用尽，重试无意义
		return &providers.Error{Code: providers.ErrCodeRateLimit, Message: "quota exceeded", StatusCode: status}
	default:
		return providers.StatusError(status, message)
	}
}

// languageCode DeepL 使用大写语言代码，英语作为目标语言时需要指定变体
func languageCode(lang string, isSource bool) string {
	upper := strings.ToUpper(lang)
	if !isSource && upper == "EN" {
		return "EN-US"
	}
	return upper
}

// TranslateResponse 翻译响应
type TranslateResponse struct {
	Translations []struct {
		DetectedSourceLanguage string `json:"detected_source_language"`
		Text                   string `json:"text"`
	} `json:"translations"`
}

// UsageResponse 用量响应
type UsageResponse struct {
	CharacterCount int64 `json:"character_count"`
	CharacterLimit int64 `json:"character_limit"`
}

// ErrorResponse 错误响应
type ErrorResponse struct {
	Message string `json:"message"`
}
