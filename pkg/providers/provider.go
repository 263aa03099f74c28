package providers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nerdneilsfield/go-textai/pkg/pipeline"
)

// BaseConfig 基础配置
type BaseConfig struct {
	// API配置
	APIKey      string `json:"api_key,omitempty"`
	APIEndpoint string `json:"api_endpoint,omitempty"`

	// 超时和重试
	Timeout    time.Duration `json:"timeout"`
	MaxRetries int           `json:"max_retries"`
	RetryDelay time.Duration `json:"retry_delay"`

	// 自定义头部
	Headers map[string]string `json:"headers,omitempty"`
}

// DefaultConfig 返回默认配置
func DefaultConfig() BaseConfig {
	return BaseConfig{
		Timeout:    2 * time.Minute, // 冷启动的模型可能需要较长时间
		MaxRetries: 3,
		RetryDelay: time.Second,
		Headers:    make(map[string]string),
	}
}

// Backend 模型后端的公共接口
type Backend interface {
	// Name 后端名称
	Name() string

	// Capabilities 后端能力
	Capabilities() Capabilities

	// HealthCheck 健康检查
	HealthCheck(ctx context.Context) error
}

// SummarizationBackend 支持摘要的后端
type SummarizationBackend interface {
	Backend
	pipeline.Summarizer
}

// TranslationBackend 支持翻译的后端
type TranslationBackend interface {
	Backend
	pipeline.Translator
}

// Capabilities 后端能力
type Capabilities struct {
	Summarize      bool                 `json:"summarize"`
	Translate      bool                 `json:"translate"`
	Directions     []pipeline.Direction `json:"directions,omitempty"`
	MaxTextLength  int                  `json:"max_text_length"`
	RequiresAPIKey bool                 `json:"requires_api_key"`
}

// SupportsDirection 是否支持指定翻译方向
func (c Capabilities) SupportsDirection(dir pipeline.Direction) bool {
	for _, d := range c.Directions {
		if d == dir {
			return true
		}
	}
	return false
}

// 错误代码
const (
	ErrCodeRateLimit    = "rate_limit"
	ErrCodeTimeout      = "timeout"
	ErrCodeServer       = "server_error"
	ErrCodeModelLoading = "model_loading"
	ErrCodeAuth         = "auth_error"
	ErrCodeBadRequest   = "bad_request"
	ErrCodeBadResponse  = "bad_response"
	ErrCodeUnsupported  = "unsupported"
)

// Error 提供商错误
type Error struct {
	Code       string                 `json:"code"`
	Message    string                 `json:"message"`
	StatusCode int                    `json:"status_code,omitempty"`
	Details    map[string]interface{} `json:"details,omitempty"`
}

func (e *Error) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s (HTTP %d): %s", e.Code, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// IsRetryable 判断错误是否可重试
func (e *Error) IsRetryable() bool {
	switch e.Code {
	case ErrCodeRateLimit, ErrCodeTimeout, ErrCodeServer, ErrCodeModelLoading:
		return true
	default:
		return false
	}
}

// NewError 创建提供商错误
func NewError(code, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
	}
}

// StatusError 根据 HTTP 状态码创建错误
func StatusError(status int, message string) *Error {
	code := ErrCodeBadRequest
	switch {
	case status == 401 || status == 403:
		code = ErrCodeAuth
	case status == 408:
		code = ErrCodeTimeout
	case status == 429:
		code = ErrCodeRateLimit
	case status == 503:
		code = ErrCodeModelLoading
	case status >= 500:
		code = ErrCodeServer
	}
	return &Error{Code: code, Message: message, StatusCode: status}
}

// IsRetryable 判断任意错误是否可重试
func IsRetryable(err error) bool {
	var perr *Error
	if errors.As(err, &perr) {
		return perr.IsRetryable()
	}
	return false
}
