package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/nerdneilsfield/go-textai/pkg/pipeline"
)

// 后端类型
const (
	ProviderHuggingFace      = "huggingface"
	ProviderOpenAI           = "openai"
	ProviderOpenAICompatible = "openai-compatible"
	ProviderOllama           = "ollama"
	ProviderLibreTranslate   = "libretranslate"
	ProviderDeepL            = "deepl"
	ProviderDeepLX           = "deeplx"
	ProviderGoogle           = "google"
	ProviderRaw              = "raw" // 不调用模型，用于检查分块
)

// ProviderTypes 所有支持的后端类型
var ProviderTypes = []string{
	ProviderHuggingFace,
	ProviderOpenAI,
	ProviderOpenAICompatible,
	ProviderOllama,
	ProviderLibreTranslate,
	ProviderDeepL,
	ProviderDeepLX,
	ProviderGoogle,
	ProviderRaw,
}

// ProviderConfig 保存单个模型后端的配置
type ProviderConfig struct {
	Type               string            `mapstructure:"type"`
	Endpoint           string            `mapstructure:"endpoint"`
	Key                string            `mapstructure:"key"` // 支持 ${ENV} 形式
	Model              string            `mapstructure:"model"`
	SummarizationModel string            `mapstructure:"summarization_model"` // 仅 huggingface
	TranslationModels  map[string]string `mapstructure:"translation_models"`  // 仅 huggingface，键为 en_to_ar / ar_to_en
	Temperature        float64           `mapstructure:"temperature"`
	MaxTokens          int               `mapstructure:"max_tokens"`
	Timeout            int               `mapstructure:"timeout"` // 秒
	MaxRetries         int               `mapstructure:"max_retries"`
	RetryDelay         int               `mapstructure:"retry_delay"`      // 毫秒，重试的初始退避
	RequiresAPIKey     bool              `mapstructure:"requires_api_key"` // 仅 libretranslate
	Formality          string            `mapstructure:"formality"`        // 仅 deepl: more / less
	Headers            map[string]string `mapstructure:"headers"`
}

// APIKey 返回展开环境变量后的密钥
func (p ProviderConfig) APIKey() string {
	return os.ExpandEnv(p.Key)
}

// TimeoutDuration 请求超时
func (p ProviderConfig) TimeoutDuration() time.Duration {
	return time.Duration(p.Timeout) * time.Second
}

// RetryDelayDuration 重试初始退避
func (p ProviderConfig) RetryDelayDuration() time.Duration {
	return time.Duration(p.RetryDelay) * time.Millisecond
}

// PipelineConfig 流水线参数
type PipelineConfig struct {
	SummarizeChunkLength int     `mapstructure:"summarize_chunk_length"`
	TranslateChunkLength int     `mapstructure:"translate_chunk_length"`
	MinLength            int     `mapstructure:"min_length"`
	MaxLength            int     `mapstructure:"max_length"`
	ReadingSpeedWPM      int     `mapstructure:"reading_speed_wpm"`
	ArabicThreshold      float64 `mapstructure:"arabic_threshold"`
	HighConfidence       float64 `mapstructure:"high_confidence"`
	MediumConfidence     float64 `mapstructure:"medium_confidence"`
	DetectionSampleSize  int     `mapstructure:"detection_sample_size"`
	Concurrency          int     `mapstructure:"concurrency"`   // 并行片段请求数
	ChunkTimeout         int     `mapstructure:"chunk_timeout"` // 单个片段超时（秒），0 表示不限制
}

// Config 保存 textai 的所有配置
type Config struct {
	Debug        bool                      `mapstructure:"debug"`
	LogFile      string                    `mapstructure:"log_file"`   // 日志文件路径，空表示只输出到终端
	Summarizer   string                    `mapstructure:"summarizer"` // 摘要使用的后端名称
	Translator   string                    `mapstructure:"translator"` // 翻译使用的后端名称
	GlossaryPath string                    `mapstructure:"glossary_path"`
	StatsPath    string                    `mapstructure:"stats_path"` // 调用统计文件，空表示不持久化
	Pipeline     PipelineConfig            `mapstructure:"pipeline"`
	Providers    map[string]ProviderConfig `mapstructure:"providers"`
}

// LoadConfig 从文件加载配置
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}

		v.AddConfigPath(home)
		v.AddConfigPath(".")
		v.SetConfigName(".textai")
		v.SetConfigType("yaml")
	}

	// TEXTAI_PIPELINE_CONCURRENCY 对应 pipeline.concurrency
	v.SetEnvPrefix("TEXTAI")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		// 找不到配置文件时使用默认值
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	// 名称中可能带点（如 "qwen2.5"），逐个解析 providers
	providersRaw := v.GetStringMap("providers")
	if len(providersRaw) > 0 {
		config.Providers = make(map[string]ProviderConfig, len(providersRaw))
		for name := range providersRaw {
			var providerCfg ProviderConfig
			if err := v.UnmarshalKey("providers."+name, &providerCfg); err != nil {
				return nil, fmt.Errorf("invalid provider %s: %w", name, err)
			}
			config.Providers[name] = providerCfg
		}
	}

	return &config, nil
}

// SaveConfig 将配置保存到文件
func SaveConfig(config *Config, configPath string) error {
	if configPath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return err
		}
		configPath = filepath.Join(home, ".textai.yaml")
	}

	v := viper.New()
	v.SetConfigFile(configPath)

	if err := v.MergeConfigMap(structToMap(config)); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		return err
	}

	return v.WriteConfig()
}

// NewDefaultConfig 创建一个新的默认配置
func NewDefaultConfig() *Config {
	return &Config{
		Debug:      false,
		Summarizer: "huggingface",
		Translator: "huggingface",
		Pipeline: PipelineConfig{
			SummarizeChunkLength: pipeline.DefaultSummarizeChunkLength,
			TranslateChunkLength: pipeline.DefaultTranslateChunkLength,
			MinLength:            pipeline.DefaultMinLength,
			MaxLength:            pipeline.DefaultMaxLength,
			ReadingSpeedWPM:      pipeline.DefaultReadingSpeedWPM,
			ArabicThreshold:      pipeline.DefaultArabicThreshold,
			HighConfidence:       pipeline.DefaultHighConfidence,
			MediumConfidence:     pipeline.DefaultMediumConfidence,
			DetectionSampleSize:  pipeline.DefaultDetectionSampleSize,
			Concurrency:          1,
		},
		Providers: DefaultProviders(),
	}
}

// DefaultProviders 返回默认后端配置
func DefaultProviders() map[string]ProviderConfig {
	return map[string]ProviderConfig{
		"huggingface": {
			Type:               ProviderHuggingFace,
			Endpoint:           "https://api-inference.huggingface.co",
			Key:                "${HF_API_TOKEN}",
			SummarizationModel: "facebook/bart-large-cnn",
			TranslationModels: map[string]string{
				string(pipeline.EnglishToArabic): "Helsinki-NLP/opus-mt-en-ar",
				string(pipeline.ArabicToEnglish): "Helsinki-NLP/opus-mt-ar-en",
			},
			Timeout:    120,
			MaxRetries: 3,
		},
		"openai": {
			Type:        ProviderOpenAI,
			Key:         "${OPENAI_API_KEY}",
			Model:       "gpt-4o-mini",
			Temperature: 0.3,
			MaxTokens:   1024,
			Timeout:     60,
			MaxRetries:  2,
		},
		"deepseek": {
			Type:        ProviderOpenAICompatible,
			Endpoint:    "https://api.deepseek.com/v1",
			Key:         "${DEEPSEEK_API_KEY}",
			Model:       "deepseek-chat",
			Temperature: 0.3,
			MaxTokens:   1024,
			Timeout:     60,
			MaxRetries:  3,
		},
		"ollama": {
			Type:        ProviderOllama,
			Endpoint:    "http://localhost:11434",
			Model:       "llama3",
			Temperature: 0.3,
			MaxTokens:   1024,
			Timeout:     300,
			MaxRetries:  1,
		},
		"libretranslate": {
			Type:       ProviderLibreTranslate,
			Endpoint:   "https://libretranslate.com",
			Key:        "${LIBRETRANSLATE_API_KEY}",
			Timeout:    30,
			MaxRetries: 3,
		},
	}
}

// Validate 验证配置
func (c *Config) Validate() error {
	if err := c.ToPipelineConfig().Validate(); err != nil {
		return fmt.Errorf("invalid pipeline config: %w", err)
	}

	for name, p := range c.Providers {
		if !isKnownType(p.Type) {
			return fmt.Errorf("provider %s has unknown type %q, expected one of: %s",
				name, p.Type, strings.Join(ProviderTypes, ", "))
		}
		if p.Timeout < 0 || p.MaxRetries < 0 || p.RetryDelay < 0 {
			return fmt.Errorf("provider %s: timeout, max_retries and retry_delay must not be negative", name)
		}
		for dir := range p.TranslationModels {
			if d := pipeline.Direction(dir); d != pipeline.EnglishToArabic && d != pipeline.ArabicToEnglish {
				return fmt.Errorf("provider %s: unknown translation direction %q", name, dir)
			}
		}
	}

	for role, name := range map[string]string{"summarizer": c.Summarizer, "translator": c.Translator} {
		if name == "" {
			continue
		}
		if _, ok := c.Providers[name]; !ok {
			return fmt.Errorf("%s %q is not defined in providers", role, name)
		}
	}
	return nil
}

func isKnownType(t string) bool {
	for _, known := range ProviderTypes {
		if t == known {
			return true
		}
	}
	return false
}

// ToPipelineConfig 转换为流水线配置
func (c *Config) ToPipelineConfig() *pipeline.Config {
	p := c.Pipeline
	return &pipeline.Config{
		SummarizeChunkLength: p.SummarizeChunkLength,
		TranslateChunkLength: p.TranslateChunkLength,
		DefaultMinLength:     p.MinLength,
		DefaultMaxLength:     p.MaxLength,
		ReadingSpeedWPM:      p.ReadingSpeedWPM,
		ArabicThreshold:      p.ArabicThreshold,
		HighConfidence:       p.HighConfidence,
		MediumConfidence:     p.MediumConfidence,
		DetectionSampleSize:  p.DetectionSampleSize,
		MaxConcurrency:       p.Concurrency,
		ChunkTimeout:         time.Duration(p.ChunkTimeout) * time.Second,
	}
}

// setDefaults 设置默认值
func setDefaults(v *viper.Viper) {
	d := NewDefaultConfig()

	v.SetDefault("debug", d.Debug)
	v.SetDefault("log_file", "")
	v.SetDefault("summarizer", d.Summarizer)
	v.SetDefault("translator", d.Translator)
	v.SetDefault("glossary_path", "")
	v.SetDefault("stats_path", "")

	v.SetDefault("pipeline.summarize_chunk_length", d.Pipeline.SummarizeChunkLength)
	v.SetDefault("pipeline.translate_chunk_length", d.Pipeline.TranslateChunkLength)
	v.SetDefault("pipeline.min_length", d.Pipeline.MinLength)
	v.SetDefault("pipeline.max_length", d.Pipeline.MaxLength)
	v.SetDefault("pipeline.reading_speed_wpm", d.Pipeline.ReadingSpeedWPM)
	v.SetDefault("pipeline.arabic_threshold", d.Pipeline.ArabicThreshold)
	v.SetDefault("pipeline.high_confidence", d.Pipeline.HighConfidence)
	v.SetDefault("pipeline.medium_confidence", d.Pipeline.MediumConfidence)
	v.SetDefault("pipeline.detection_sample_size", d.Pipeline.DetectionSampleSize)
	v.SetDefault("pipeline.concurrency", d.Pipeline.Concurrency)
	v.SetDefault("pipeline.chunk_timeout", d.Pipeline.ChunkTimeout)

	v.SetDefault("providers", providersToMap(d.Providers))
}

// structToMap 将结构体转换为map
func structToMap(config *Config) map[string]interface{} {
	return map[string]interface{}{
		"debug":         config.Debug,
		"log_file":      config.LogFile,
		"summarizer":    config.Summarizer,
		"translator":    config.Translator,
		"glossary_path": config.GlossaryPath,
		"stats_path":    config.StatsPath,
		"pipeline": map[string]interface{}{
			"summarize_chunk_length": config.Pipeline.SummarizeChunkLength,
			"translate_chunk_length": config.Pipeline.TranslateChunkLength,
			"min_length":             config.Pipeline.MinLength,
			"max_length":             config.Pipeline.MaxLength,
			"reading_speed_wpm":      config.Pipeline.ReadingSpeedWPM,
			"arabic_threshold":       config.Pipeline.ArabicThreshold,
			"high_confidence":        config.Pipeline.HighConfidence,
			"medium_confidence":      config.Pipeline.MediumConfidence,
			"detection_sample_size":  config.Pipeline.DetectionSampleSize,
			"concurrency":            config.Pipeline.Concurrency,
			"chunk_timeout":          config.Pipeline.ChunkTimeout,
		},
		"providers": providersToMap(config.Providers),
	}
}

func providersToMap(providers map[string]ProviderConfig) map[string]interface{} {
	out := make(map[string]interface{}, len(providers))
	for name, p := range providers {
		m := map[string]interface{}{
			"type":        p.Type,
			"endpoint":    p.Endpoint,
			"key":         p.Key,
			"model":       p.Model,
			"temperature": p.Temperature,
			"max_tokens":  p.MaxTokens,
			"timeout":     p.Timeout,
			"max_retries": p.MaxRetries,
		}
		if p.RetryDelay > 0 {
			m["retry_delay"] = p.RetryDelay
		}
		if p.SummarizationModel != "" {
			m["summarization_model"] = p.SummarizationModel
		}
		if len(p.TranslationModels) > 0 {
			m["translation_models"] = p.TranslationModels
		}
		if p.RequiresAPIKey {
			m["requires_api_key"] = true
		}
		if p.Formality != "" {
			m["formality"] = p.Formality
		}
		if len(p.Headers) > 0 {
			m["headers"] = p.Headers
		}
		out[name] = m
	}
	return out
}
