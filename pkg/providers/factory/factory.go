package factory

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/nerdneilsfield/go-textai/internal/config"
	"github.com/nerdneilsfield/go-textai/pkg/pipeline"
	"github.com/nerdneilsfield/go-textai/pkg/providers"
	"github.com/nerdneilsfield/go-textai/pkg/providers/compat"
	"github.com/nerdneilsfield/go-textai/pkg/providers/deepl"
	"github.com/nerdneilsfield/go-textai/pkg/providers/deeplx"
	"github.com/nerdneilsfield/go-textai/pkg/providers/glossary"
	"github.com/nerdneilsfield/go-textai/pkg/providers/google"
	"github.com/nerdneilsfield/go-textai/pkg/providers/huggingface"
	"github.com/nerdneilsfield/go-textai/pkg/providers/libretranslate"
	"github.com/nerdneilsfield/go-textai/pkg/providers/ollama"
	"github.com/nerdneilsfield/go-textai/pkg/providers/openai"
	"github.com/nerdneilsfield/go-textai/pkg/providers/raw"
	"github.com/nerdneilsfield/go-textai/pkg/providers/retry"
	"github.com/nerdneilsfield/go-textai/pkg/providers/stats"
)

// ProviderFactory 根据配置创建模型后端
type ProviderFactory struct {
	logger *zap.Logger
	stats  *stats.Manager
}

// New 创建新的后端工厂，statsManager 为 nil 时不记录调用统计
func New(logger *zap.Logger, statsManager *stats.Manager) *ProviderFactory {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProviderFactory{
		logger: logger,
		stats:  statsManager,
	}
}

// CreateBackend 根据配置创建后端，启用统计时返回的后端已被统计中间件包装
func (f *ProviderFactory) CreateBackend(providerConfig config.ProviderConfig) (providers.Backend, error) {
	var backend providers.Backend

	switch providerConfig.Type {
	case config.ProviderHuggingFace:
		backend = f.createHuggingFace(providerConfig)
	case config.ProviderOpenAI:
		backend = f.createOpenAI(providerConfig)
	case config.ProviderOpenAICompatible:
		backend = f.createCompat(providerConfig)
	case config.ProviderOllama:
		backend = f.createOllama(providerConfig)
	case config.ProviderLibreTranslate:
		backend = f.createLibreTranslate(providerConfig)
	case config.ProviderDeepL:
		backend = f.createDeepL(providerConfig)
	case config.ProviderDeepLX:
		backend = f.createDeepLX(providerConfig)
	case config.ProviderGoogle:
		backend = f.createGoogle(providerConfig)
	case config.ProviderRaw:
		backend = raw.New()
	default:
		return nil, fmt.Errorf("unsupported provider type: %s", providerConfig.Type)
	}

	if f.stats != nil {
		return stats.Wrap(backend, f.stats, modelLabel(providerConfig)), nil
	}
	return backend, nil
}

// BuildRegistry 为每个配置的后端创建实例并注册
func (f *ProviderFactory) BuildRegistry(providerConfigs map[string]config.ProviderConfig) (*providers.Registry, error) {
	registry := providers.NewRegistry()

	for name, providerConfig := range providerConfigs {
		backend, err := f.CreateBackend(providerConfig)
		if err != nil {
			return nil, fmt.Errorf("provider %s: %w", name, err)
		}
		if err := registry.Register(name, backend); err != nil {
			return nil, err
		}
		f.logger.Debug("registered backend",
			zap.String("name", name),
			zap.String("type", providerConfig.Type),
			zap.String("model", modelLabel(providerConfig)))
	}

	return registry, nil
}

// Components 组装好的后端
type Components struct {
	Registry   *providers.Registry
	Summarizer providers.SummarizationBackend // 未配置时为 nil
	Translator providers.TranslationBackend   // 未配置时为 nil
	Glossary   *glossary.Glossary             // 未配置时为 nil
}

// Build 创建注册表并解析摘要、翻译角色对应的后端，配置了词汇表时翻译后端会先查询词汇表
func (f *ProviderFactory) Build(cfg *config.Config) (*Components, error) {
	registry, err := f.BuildRegistry(cfg.Providers)
	if err != nil {
		return nil, err
	}

	components := &Components{Registry: registry}

	if cfg.Summarizer != "" {
		components.Summarizer, err = registry.Summarizer(cfg.Summarizer)
		if err != nil {
			return nil, err
		}
	}

	if cfg.Translator != "" {
		components.Translator, err = registry.Translator(cfg.Translator)
		if err != nil {
			return nil, err
		}
	}

	if cfg.GlossaryPath != "" {
		components.Glossary, err = glossary.Load(cfg.GlossaryPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load glossary: %w", err)
		}
		if components.Translator != nil {
			components.Translator = glossary.Wrap(components.Translator, components.Glossary)
		}
		f.logger.Debug("glossary loaded", zap.Int("entries", components.Glossary.Len()))
	}

	return components, nil
}

// PipelineOptions 返回把后端接入流水线的选项
func (c *Components) PipelineOptions() []pipeline.Option {
	var opts []pipeline.Option
	if c.Summarizer != nil {
		opts = append(opts, pipeline.WithSummarizer(c.Summarizer))
	}
	if c.Translator != nil {
		opts = append(opts, pipeline.WithTranslator(c.Translator))
	}
	return opts
}

// GetSupportedProviders 获取支持的后端类型
func (f *ProviderFactory) GetSupportedProviders() []string {
	return config.ProviderTypes
}

func baseConfig(pc config.ProviderConfig) providers.BaseConfig {
	base := providers.DefaultConfig()
	base.APIKey = pc.APIKey()
	base.APIEndpoint = pc.Endpoint
	base.MaxRetries = pc.MaxRetries
	if pc.RetryDelay > 0 {
		base.RetryDelay = pc.RetryDelayDuration()
	}
	if pc.Timeout > 0 {
		base.Timeout = pc.TimeoutDuration()
	}
	for k, v := range pc.Headers {
		base.Headers[k] = v
	}
	return base
}

// retryConfig RetryDelay 作为指数退避的初始延迟
func retryConfig(base providers.BaseConfig) retry.Config {
	rc := retry.DefaultConfig()
	rc.MaxRetries = base.MaxRetries
	if base.RetryDelay > 0 {
		rc.InitialDelay = base.RetryDelay
	}
	if rc.MaxDelay < rc.InitialDelay {
		rc.MaxDelay = rc.InitialDelay
	}
	return rc
}

func modelLabel(pc config.ProviderConfig) string {
	switch {
	case pc.Model != "":
		return pc.Model
	case pc.SummarizationModel != "":
		return pc.SummarizationModel
	default:
		return pc.Type
	}
}

func (f *ProviderFactory) createHuggingFace(pc config.ProviderConfig) providers.Backend {
	cfg := huggingface.DefaultConfig()
	endpoint := cfg.APIEndpoint
	cfg.BaseConfig = baseConfig(pc)
	if cfg.APIEndpoint == "" {
		cfg.APIEndpoint = endpoint
	}
	cfg.RetryConfig = retryConfig(cfg.BaseConfig)
	if pc.SummarizationModel != "" {
		cfg.SummarizationModel = pc.SummarizationModel
	}
	for dir, model := range pc.TranslationModels {
		cfg.TranslationModels[pipeline.Direction(dir)] = model
	}
	return huggingface.New(cfg, f.logger)
}

func (f *ProviderFactory) createOpenAI(pc config.ProviderConfig) providers.Backend {
	cfg := openai.DefaultConfig()
	cfg.BaseConfig = baseConfig(pc)
	if pc.Model != "" {
		cfg.Model = pc.Model
	}
	if pc.Temperature > 0 {
		cfg.Temperature = float32(pc.Temperature)
	}
	if pc.MaxTokens > 0 {
		cfg.MaxTokens = pc.MaxTokens
	}
	return openai.New(cfg)
}

func (f *ProviderFactory) createCompat(pc config.ProviderConfig) providers.Backend {
	cfg := compat.DefaultConfig()
	endpoint := cfg.APIEndpoint
	cfg.BaseConfig = baseConfig(pc)
	if cfg.APIEndpoint == "" {
		cfg.APIEndpoint = endpoint
	}
	if pc.Model != "" {
		cfg.Model = pc.Model
	}
	if pc.Temperature > 0 {
		cfg.Temperature = float32(pc.Temperature)
	}
	if pc.MaxTokens > 0 {
		cfg.MaxTokens = pc.MaxTokens
	}
	return compat.New(cfg, f.logger)
}

func (f *ProviderFactory) createOllama(pc config.ProviderConfig) providers.Backend {
	cfg := ollama.DefaultConfig()
	cfg.BaseConfig = baseConfig(pc)
	cfg.RetryConfig = retryConfig(cfg.BaseConfig)
	if pc.Model != "" {
		cfg.Model = pc.Model
	}
	if pc.Temperature > 0 {
		cfg.Temperature = float32(pc.Temperature)
	}
	if pc.MaxTokens > 0 {
		cfg.MaxTokens = pc.MaxTokens
	}
	return ollama.New(cfg, f.logger)
}

func (f *ProviderFactory) createLibreTranslate(pc config.ProviderConfig) providers.Backend {
	cfg := libretranslate.DefaultConfig()
	cfg.BaseConfig = baseConfig(pc)
	cfg.RetryConfig = retryConfig(cfg.BaseConfig)
	cfg.RequiresAPIKey = pc.RequiresAPIKey || pc.APIKey() != ""
	return libretranslate.New(cfg, f.logger)
}

func (f *ProviderFactory) createDeepL(pc config.ProviderConfig) providers.Backend {
	cfg := deepl.DefaultConfig()
	cfg.BaseConfig = baseConfig(pc)
	cfg.RetryConfig = retryConfig(cfg.BaseConfig)
	cfg.Formality = pc.Formality
	return deepl.New(cfg, f.logger)
}

func (f *ProviderFactory) createDeepLX(pc config.ProviderConfig) providers.Backend {
	cfg := deeplx.DefaultConfig()
	endpoint := cfg.APIEndpoint
	cfg.BaseConfig = baseConfig(pc)
	if cfg.APIEndpoint == "" {
		cfg.APIEndpoint = endpoint
	}
	cfg.RetryConfig = retryConfig(cfg.BaseConfig)
	return deeplx.New(cfg, f.logger)
}

func (f *ProviderFactory) createGoogle(pc config.ProviderConfig) providers.Backend {
	cfg := google.DefaultConfig()
	cfg.BaseConfig = baseConfig(pc)
	cfg.RetryConfig = retryConfig(cfg.BaseConfig)
	return google.New(cfg, f.logger)
}
