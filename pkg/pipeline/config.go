package pipeline

import (
	"errors"
	"time"
)

// 默认参数
const (
	DefaultSummarizeChunkLength = 1024
	DefaultTranslateChunkLength = 512
	DefaultReadingSpeedWPM      = 200
	DefaultArabicThreshold      = 0.3
	DefaultHighConfidence       = 0.8
	DefaultMediumConfidence     = 0.5
	DefaultDetectionSampleSize  = 500
	DefaultMinLength            = 30
	DefaultMaxLength            = 250
)

// Config 流水线配置
type Config struct {
	// 分块配置（按字符计）
	SummarizeChunkLength int `json:"summarize_chunk_length"`
	TranslateChunkLength int `json:"translate_chunk_length"`

	// 摘要长度默认值（作用于每个片段）
	DefaultMinLength int `json:"default_min_length"`
	DefaultMaxLength int `json:"default_max_length"`

	// 统计配置
	ReadingSpeedWPM int `json:"reading_speed_wpm"`

	// 语言检测配置
	ArabicThreshold     float64 `json:"arabic_threshold"`
	HighConfidence      float64 `json:"high_confidence"`
	MediumConfidence    float64 `json:"medium_confidence"`
	DetectionSampleSize int     `json:"detection_sample_size"`

	// 并发配置，1 表示顺序调用
	MaxConcurrency int `json:"max_concurrency"`

	// ChunkTimeout 单个片段调用的超时，0 表示不限制
	ChunkTimeout time.Duration `json:"chunk_timeout"`
}

// DefaultConfig 返回默认配置
func DefaultConfig() *Config {
	return &Config{
		SummarizeChunkLength: DefaultSummarizeChunkLength,
		TranslateChunkLength: DefaultTranslateChunkLength,
		DefaultMinLength:     DefaultMinLength,
		DefaultMaxLength:     DefaultMaxLength,
		ReadingSpeedWPM:      DefaultReadingSpeedWPM,
		ArabicThreshold:      DefaultArabicThreshold,
		HighConfidence:       DefaultHighConfidence,
		MediumConfidence:     DefaultMediumConfidence,
		DetectionSampleSize:  DefaultDetectionSampleSize,
		MaxConcurrency:       1,
	}
}

// Validate 验证配置的合法性
func (c *Config) Validate() error {
	if c.SummarizeChunkLength <= 0 {
		return errors.New("summarize chunk length must be positive")
	}
	if c.TranslateChunkLength <= 0 {
		return errors.New("translate chunk length must be positive")
	}
	if c.DefaultMinLength <= 0 || c.DefaultMinLength >= c.DefaultMaxLength {
		return errors.New("default min length must be positive and less than default max length")
	}
	if c.ReadingSpeedWPM <= 0 {
		return errors.New("reading speed must be positive")
	}
	if c.ArabicThreshold <= 0 || c.ArabicThreshold >= 1 {
		return errors.New("arabic threshold must be between 0 and 1")
	}
	if c.MediumConfidence <= 0 || c.MediumConfidence >= c.HighConfidence || c.HighConfidence >= 1 {
		return errors.New("confidence cut-offs must satisfy 0 < medium < high < 1")
	}
	if c.DetectionSampleSize <= 0 {
		return errors.New("detection sample size must be positive")
	}
	if c.MaxConcurrency <= 0 {
		return errors.New("max concurrency must be positive")
	}
	if c.ChunkTimeout < 0 {
		return errors.New("chunk timeout must not be negative")
	}
	return nil
}

// Clone 创建配置的拷贝
func (c *Config) Clone() *Config {
	clone := *c
	return &clone
}
