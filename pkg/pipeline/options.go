package pipeline

import "go.uber.org/zap"

// Option 服务配置选项函数
type Option func(*serviceOptions)

// serviceOptions 服务内部选项
type serviceOptions struct {
	summarizer       Summarizer
	translator       Translator
	progressCallback func(*Progress)
	logger           *zap.Logger
}

// WithSummarizer 设置摘要模型服务
func WithSummarizer(s Summarizer) Option {
	return func(o *serviceOptions) {
		o.summarizer = s
	}
}

// WithTranslator 设置翻译模型服务
func WithTranslator(t Translator) Option {
	return func(o *serviceOptions) {
		o.translator = t
	}
}

// WithProgressCallback 设置进度回调函数，回调在每个片段完成后被串行调用
func WithProgressCallback(callback func(*Progress)) Option {
	return func(o *serviceOptions) {
		o.progressCallback = callback
	}
}

// WithLogger 设置logger
func WithLogger(logger *zap.Logger) Option {
	return func(o *serviceOptions) {
		o.logger = logger
	}
}
