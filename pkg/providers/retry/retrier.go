package retry

import (
	"context"
	"errors"
	"math"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"
)

// Config 重试配置
type Config struct {
	// 最大重试次数，不含第一次请求
	MaxRetries int `json:"max_retries"`

	// 初始延迟时间
	InitialDelay time.Duration `json:"initial_delay"`

	// 最大延迟时间
	MaxDelay time.Duration `json:"max_delay"`

	// 退避因子（指数退避）
	BackoffFactor float64 `json:"backoff_factor"`
}

// DefaultConfig 返回默认重试配置
func DefaultConfig() Config {
	return Config{
		MaxRetries:    3,
		InitialDelay:  500 * time.Millisecond,
		MaxDelay:      20 * time.Second,
		BackoffFactor: 2.0,
	}
}

// ErrorType 错误类型
type ErrorType int

const (
	ErrorTypeNone          ErrorType = iota
	ErrorTypeNetwork                 // 网络瞬时错误
	ErrorTypeRetryableHTTP           // 429 或 503
	ErrorTypeClientError             // 其余 4xx
	ErrorTypeServerError             // 其余 5xx
	ErrorTypePermanent               // 不可恢复的错误
)

// Retrier HTTP 请求重试器
type Retrier struct {
	config Config
	logger *zap.Logger
}

// New 创建重试器，logger 为 nil 时不输出日志
func New(config Config, logger *zap.Logger) *Retrier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Retrier{
		config: config,
		logger: logger,
	}
}

// Func 可重试的请求函数
type Func func() (*http.Response, error)

// Do 执行请求，遇到网络错误、429 与 5xx 时按指数退避重试。
// 重试用尽后返回最后一次的响应（调用方负责关闭并解析错误体）或最后一次的错误。
func (r *Retrier) Do(ctx context.Context, fn Func) (*http.Response, error) {
	for attempt := 0; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		resp, err := fn()
		errorType := Classify(err, resp)
		if errorType == ErrorTypeNone {
			return resp, nil
		}

		if !errorType.Retryable() || attempt >= r.config.MaxRetries {
			return resp, err
		}

		delay := r.delay(attempt, resp)
		r.logger.Warn("请求失败，准备重试",
			zap.Int("attempt", attempt+1),
			zap.Int("max_retries", r.config.MaxRetries),
			zap.Duration("delay", delay),
			zap.Int("status", statusOf(resp)),
			zap.Error(err))

		if resp != nil {
			resp.Body.Close()
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
	}
}

// Retryable 该类错误是否值得重试
func (t ErrorType) Retryable() bool {
	switch t {
	case ErrorTypeNetwork, ErrorTypeRetryableHTTP, ErrorTypeServerError:
		return true
	default:
		return false
	}
}

// Classify 分类错误
func Classify(err error, resp *http.Response) ErrorType {
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return ErrorTypePermanent
		}
		if isNetworkError(err) {
			return ErrorTypeNetwork
		}
		return ErrorTypePermanent
	}

	if resp == nil {
		return ErrorTypePermanent
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests, resp.StatusCode == http.StatusServiceUnavailable:
		return ErrorTypeRetryableHTTP
	case resp.StatusCode >= 500:
		return ErrorTypeServerError
	case resp.StatusCode >= 400:
		return ErrorTypeClientError
	}

	return ErrorTypeNone
}

// isNetworkError 判断是否为网络错误
func isNetworkError(err error) bool {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) && isNetworkError(urlErr.Err) {
		return true
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}

	if errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.EPIPE) {
		return true
	}

	errStr := strings.ToLower(err.Error())
	for _, pattern := range []string{
		"connection refused",
		"connection reset",
		"no such host",
		"broken pipe",
		"i/o timeout",
		"eof",
	} {
		if strings.Contains(errStr, pattern) {
			return true
		}
	}

	return false
}

// delay 计算第 attempt 次失败后的等待时间，优先使用 Retry-After
func (r *Retrier) delay(attempt int, resp *http.Response) time.Duration {
	maxDelay := r.config.MaxDelay
	if maxDelay <= 0 {
		maxDelay = DefaultConfig().MaxDelay
	}

	if resp != nil {
		if seconds, err := strconv.Atoi(resp.Header.Get("Retry-After")); err == nil && seconds >= 0 {
			return min(time.Duration(seconds)*time.Second, maxDelay)
		}
	}

	factor := r.config.BackoffFactor
	if factor <= 1.0 {
		factor = 2.0
	}
	delay := time.Duration(float64(r.config.InitialDelay) * math.Pow(factor, float64(attempt)))

	return min(delay, maxDelay)
}

func statusOf(resp *http.Response) int {
	if resp == nil {
		return 0
	}
	return resp.StatusCode
}

// WrapHTTPClient 包装HTTP客户端，添加重试功能
func (r *Retrier) WrapHTTPClient(client *http.Client) *Client {
	return &Client{
		client:  client,
		retrier: r,
	}
}

// Client 可重试的HTTP客户端
type Client struct {
	client  *http.Client
	retrier *Retrier
}

// Do 执行HTTP请求（带重试）。每次尝试都通过 GetBody 重新获取请求体。
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	return c.retrier.Do(req.Context(), func() (*http.Response, error) {
		attempt := req.Clone(req.Context())
		if req.GetBody != nil {
			body, err := req.GetBody()
			if err != nil {
				return nil, err
			}
			attempt.Body = body
		}
		return c.client.Do(attempt)
	})
}
