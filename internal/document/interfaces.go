// Package document 把输入文件（纯文本、Markdown、HTML）转换为流水线可以处理的纯文本
package document

import "strings"

// Format 输入格式
type Format string

const (
	FormatAuto     Format = "auto"
	FormatText     Format = "text"
	FormatMarkdown Format = "markdown"
	FormatHTML     Format = "html"
)

// ParseFormat 解析格式名称，接受常见别名
func ParseFormat(name string) (Format, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "auto":
		return FormatAuto, true
	case "text", "txt", "plain":
		return FormatText, true
	case "markdown", "md":
		return FormatMarkdown, true
	case "html", "htm":
		return FormatHTML, true
	default:
		return "", false
	}
}

// Document 提取后的文档
type Document struct {
	Format   Format
	Title    string
	Encoding string // 原始编码名称
	// Content 交给流水线的纯文本，段落之间以空行分隔
	Content string
	// Paragraphs 按原文顺序排列的段落，不含代码、公式与脚本
	Paragraphs []string
	Metadata   map[string]interface{}
}

func newDocument(format Format, paragraphs []string) *Document {
	return &Document{
		Format:     format,
		Content:    strings.Join(paragraphs, "\n\n"),
		Paragraphs: paragraphs,
		Metadata:   make(map[string]interface{}),
	}
}

// Extractor 格式提取器
type Extractor interface {
	// Extract 从已解码的 UTF-8 内容中提取文档
	Extract(content string) (*Document, error)

	// Format 提取器支持的格式
	Format() Format
}

// splitParagraphs 按空行切分并去除空段落，段内换行折叠为空格
func splitParagraphs(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")

	var paragraphs []string
	for _, block := range strings.Split(text, "\n\n") {
		p := strings.Join(strings.Fields(block), " ")
		if p != "" {
			paragraphs = append(paragraphs, p)
		}
	}
	return paragraphs
}
