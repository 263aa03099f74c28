package pipeline

import (
	"unicode"
)

// Detector 基于文字脚本比例的轻量语言检测器，不调用任何模型
type Detector struct {
	arabicThreshold  float64
	highConfidence   float64
	mediumConfidence float64
}

// NewDetector 创建语言检测器，参数取自 Config 中的检测阈值
func NewDetector(cfg *Config) *Detector {
	d := &Detector{
		arabicThreshold:  DefaultArabicThreshold,
		highConfidence:   DefaultHighConfidence,
		mediumConfidence: DefaultMediumConfidence,
	}
	if cfg != nil {
		if cfg.ArabicThreshold > 0 {
			d.arabicThreshold = cfg.ArabicThreshold
		}
		if cfg.HighConfidence > 0 {
			d.highConfidence = cfg.HighConfidence
		}
		if cfg.MediumConfidence > 0 {
			d.mediumConfidence = cfg.MediumConfidence
		}
	}
	return d
}

// Detect 统计字母中阿拉伯字母与拉丁字母的占比并给出结论。
// 调用方负责截断输入；没有字母时返回 Unknown/low。
func (d *Detector) Detect(text string) LanguageVerdict {
	var letters, arabic, latin int
	for _, r := range text {
		if !unicode.IsLetter(r) {
			continue
		}
		letters++
		switch {
		case unicode.Is(unicode.Arabic, r):
			arabic++
		case unicode.Is(unicode.Latin, r):
			latin++
		}
	}

	if letters == 0 {
		return LanguageVerdict{Language: LanguageUnknown, Confidence: ConfidenceLow}
	}

	arabicShare := float64(arabic) / float64(letters)
	latinShare := float64(latin) / float64(letters)

	switch {
	case arabicShare > d.arabicThreshold:
		return LanguageVerdict{Language: LanguageArabic, Confidence: d.confidence(arabicShare)}
	case latinShare > 0.5:
		return LanguageVerdict{Language: LanguageEnglish, Confidence: d.confidence(latinShare)}
	default:
		return LanguageVerdict{Language: LanguageUnknown, Confidence: ConfidenceLow}
	}
}

func (d *Detector) confidence(share float64) Confidence {
	switch {
	case share > d.highConfidence:
		return ConfidenceHigh
	case share > d.mediumConfidence:
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}
