package pipeline

import (
	"strings"

	"golang.org/x/text/language"
)

// 语言名称到代码的映射，其余输入按 BCP 47 标签解析
var languageNames = map[string]string{
	"english": "en",
	"arabic":  "ar",
	"العربية": "ar",
}

// NormalizeLanguage 将 "en"、"en-US"、"English"、"ar-EG" 等写法统一为基础语言代码
func NormalizeLanguage(code string) (string, bool) {
	code = strings.TrimSpace(code)
	if code == "" {
		return "", false
	}
	if base, ok := languageNames[strings.ToLower(code)]; ok {
		return base, true
	}

	tag, err := language.Parse(code)
	if err != nil {
		return "", false
	}
	base, confidence := tag.Base()
	if confidence == language.No {
		return "", false
	}
	return base.String(), true
}

// ResolveDirection 校验语言对并返回翻译方向，只接受 en→ar 与 ar→en
func ResolveDirection(source, target string) (Direction, error) {
	src, okSrc := NormalizeLanguage(source)
	dst, okDst := NormalizeLanguage(target)
	if !okSrc || !okDst {
		return "", unsupportedPair(source, target)
	}

	switch {
	case src == "en" && dst == "ar":
		return EnglishToArabic, nil
	case src == "ar" && dst == "en":
		return ArabicToEnglish, nil
	default:
		return "", unsupportedPair(source, target)
	}
}

// Languages 返回方向对应的源语言和目标语言代码
func (d Direction) Languages() (source, target string) {
	switch d {
	case EnglishToArabic:
		return "en", "ar"
	case ArabicToEnglish:
		return "ar", "en"
	default:
		return "", ""
	}
}
