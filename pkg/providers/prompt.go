package providers

import (
	"fmt"

	"github.com/nerdneilsfield/go-textai/pkg/pipeline"
)

var languageNames = map[string]string{
	"en": "English",
	"ar": "Arabic",
}

// LanguageName 返回语言代码对应的英文名称
func LanguageName(code string) string {
	if name, ok := languageNames[code]; ok {
		return name
	}
	return code
}

// SummaryPrompt 构建聊天模型的摘要提示词
func SummaryPrompt(text string, minLength, maxLength int) (system, user string) {
	system = "You are a summarization engine. Reply with the summary only, " +
		"in the same language as the input, without any preamble or commentary."
	user = fmt.Sprintf("Summarize the following text in %d to %d words:\n\n%s", minLength, maxLength, text)
	return system, user
}

// TranslationPrompt 构建聊天模型的翻译提示词
func TranslationPrompt(text string, dir pipeline.Direction) (system, user string) {
	source, target := dir.Languages()
	system = "You are a professional translator. Translate accurately while preserving the original meaning and tone. " +
		"Reply with the translated text only."
	user = fmt.Sprintf("Translate the following text from %s to %s:\n\n%s",
		LanguageName(source), LanguageName(target), text)
	return system, user
}
