package pipeline

// Chunk 输入文本的一个有序片段
type Chunk struct {
	// Index 片段序号，从 0 开始连续递增
	Index int `json:"index"`

	// Content 片段内容，按序拼接即为原文
	Content string `json:"content"`
}

// ChunkResult 单个片段的模型输出
type ChunkResult struct {
	Index  int    `json:"index"`
	Output string `json:"output"`
}

// Outcome 流水线的最终结果
type Outcome struct {
	// Text 摘要或译文
	Text string `json:"text"`

	// Bullets 要点列表，仅在摘要且请求要点时非空
	Bullets []string `json:"bullets,omitempty"`

	// ChunkCount 实际调用模型的片段数
	ChunkCount int `json:"chunk_count"`
}

// Mode 聚合模式
type Mode int

const (
	// ModeSummary 摘要：片段输出用单个空格连接
	ModeSummary Mode = iota
	// ModeBullets 摘要并拆分为要点
	ModeBullets
	// ModeTranslation 译文：按片段边界原有的分隔符连接
	ModeTranslation
)

// String 返回模式名称
func (m Mode) String() string {
	switch m {
	case ModeSummary:
		return "summary"
	case ModeBullets:
		return "bullets"
	case ModeTranslation:
		return "translation"
	default:
		return "unknown"
	}
}

// Direction 翻译方向
type Direction string

const (
	EnglishToArabic Direction = "en_to_ar"
	ArabicToEnglish Direction = "ar_to_en"
)

// Task 请求的参数变体，只能是 SummarizeTask 或 TranslateTask
type Task interface {
	isTask()
}

// SummarizeTask 摘要参数
type SummarizeTask struct {
	// MinLength / MaxLength 作用于每个片段的摘要长度，0 表示使用默认值
	MinLength int `json:"min_length"`
	MaxLength int `json:"max_length"`

	// BulletPoints 是否额外返回要点列表
	BulletPoints bool `json:"bullet_points"`
}

// TranslateTask 翻译参数
type TranslateTask struct {
	Source string `json:"source_language"`
	Target string `json:"target_language"`
}

func (SummarizeTask) isTask() {}
func (TranslateTask) isTask() {}

// Language 检测出的语言
type Language string

const (
	LanguageEnglish Language = "English"
	LanguageArabic  Language = "Arabic"
	LanguageUnknown Language = "Unknown"
)

// Confidence 检测置信度
type Confidence string

const (
	ConfidenceLow    Confidence = "low"
	ConfidenceMedium Confidence = "medium"
	ConfidenceHigh   Confidence = "high"
)

// LanguageVerdict 语言检测结果
type LanguageVerdict struct {
	Language   Language   `json:"language"`
	Confidence Confidence `json:"confidence"`
}

// TextStats 文本统计信息
type TextStats struct {
	Characters         int `json:"characters"`
	Words              int `json:"words"`
	Sentences          int `json:"sentences"`
	Paragraphs         int `json:"paragraphs"`
	ReadingTimeSeconds int `json:"reading_time_seconds"`
}

// Progress 片段处理进度
type Progress struct {
	Total     int     `json:"total"`
	Completed int     `json:"completed"`
	Percent   float64 `json:"percent"`
}
