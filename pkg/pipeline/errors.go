package pipeline

import (
	"errors"
	"fmt"
)

// 错误代码常量
const (
	ErrCodeInvalidInput    = "INVALID_INPUT"
	ErrCodeUnsupportedPair = "UNSUPPORTED_LANGUAGE_PAIR"
	ErrCodeModel           = "MODEL_INVOCATION"
	ErrCodeAggregation     = "AGGREGATION"
)

// 预定义错误，配合 errors.Is 使用
var (
	// ErrInvalidInput 空文本、长度参数非法、语言对非法
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnsupportedLanguagePair 只支持 en→ar 与 ar→en
	ErrUnsupportedLanguagePair = errors.New("unsupported language pair")

	// ErrModelInvocation 任一片段的模型调用失败
	ErrModelInvocation = errors.New("model invocation failed")

	// ErrAggregation 聚合时结果集为空
	ErrAggregation = errors.New("aggregation failed")

	// ErrNoModelService 未配置对应的模型服务
	ErrNoModelService = errors.New("model service not configured")
)

// Error 流水线错误
type Error struct {
	Code    string // 错误代码
	Message string // 错误消息
	Chunk   int    // 出错的片段序号，-1 表示与片段无关
	Cause   error  // 原因
}

// Error 实现error接口
func (e *Error) Error() string {
	msg := fmt.Sprintf("[%s] %s", e.Code, e.Message)
	if e.Chunk >= 0 {
		msg = fmt.Sprintf("%s (chunk %d)", msg, e.Chunk)
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap 返回原因错误
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is 按错误代码匹配预定义错误
func (e *Error) Is(target error) bool {
	switch target {
	case ErrInvalidInput:
		return e.Code == ErrCodeInvalidInput || e.Code == ErrCodeUnsupportedPair
	case ErrUnsupportedLanguagePair:
		return e.Code == ErrCodeUnsupportedPair
	case ErrModelInvocation:
		return e.Code == ErrCodeModel
	case ErrAggregation:
		return e.Code == ErrCodeAggregation
	}
	return false
}

func invalidInput(format string, args ...interface{}) *Error {
	return &Error{Code: ErrCodeInvalidInput, Message: fmt.Sprintf(format, args...), Chunk: -1}
}

// noModelService 归入 INVALID_INPUT，原因保留为 ErrNoModelService
func noModelService(kind string) *Error {
	return &Error{
		Code:    ErrCodeInvalidInput,
		Message: kind + " service is not configured",
		Chunk:   -1,
		Cause:   ErrNoModelService,
	}
}

func unsupportedPair(source, target string) *Error {
	return &Error{
		Code:    ErrCodeUnsupportedPair,
		Message: fmt.Sprintf("cannot translate %q to %q, use en→ar or ar→en", source, target),
		Chunk:   -1,
	}
}

func modelFailure(chunk int, cause error) *Error {
	return &Error{Code: ErrCodeModel, Message: "model service call failed", Chunk: chunk, Cause: cause}
}

func aggregationFailure(message string) *Error {
	return &Error{Code: ErrCodeAggregation, Message: message, Chunk: -1}
}
