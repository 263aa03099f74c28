package document

import "strings"

// TextExtractor 纯文本提取器，内容原样保留，只统一换行符
type TextExtractor struct{}

// NewTextExtractor 创建纯文本提取器
func NewTextExtractor() *TextExtractor {
	return &TextExtractor{}
}

// Extract 提取纯文本
func (e *TextExtractor) Extract(content string) (*Document, error) {
	content = strings.ReplaceAll(content, "\r\n", "\n")

	doc := newDocument(FormatText, splitParagraphs(content))
	doc.Content = content
	return doc, nil
}

// Format 支持的格式
func (e *TextExtractor) Format() Format {
	return FormatText
}
