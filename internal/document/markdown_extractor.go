package document

import (
	"fmt"
	"strings"

	mathjax "github.com/litao91/goldmark-mathjax"
	"github.com/yuin/goldmark"
	meta "github.com/yuin/goldmark-meta"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	extast "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
)

// MarkdownExtractor Markdown 提取器：去掉 front matter、代码块、HTML 块与数学公式，保留可读文字
type MarkdownExtractor struct {
	md goldmark.Markdown
}

// NewMarkdownExtractor 创建 Markdown 提取器
func NewMarkdownExtractor() *MarkdownExtractor {
	return &MarkdownExtractor{
		md: goldmark.New(
			goldmark.WithExtensions(
				extension.GFM,
				extension.Footnote,
				mathjax.MathJax,
				meta.Meta,
			),
		),
	}
}

// Extract 提取 Markdown 正文
func (e *MarkdownExtractor) Extract(content string) (*Document, error) {
	source := []byte(content)
	pc := parser.NewContext()
	root := e.md.Parser().Parse(text.NewReader(source), parser.WithContext(pc))

	var paragraphs []string
	title := ""

	err := ast.Walk(root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}

		switch n.Kind() {
		case ast.KindFencedCodeBlock, ast.KindCodeBlock, ast.KindHTMLBlock, mathjax.KindMathBlock:
			return ast.WalkSkipChildren, nil
		case ast.KindParagraph, ast.KindTextBlock, ast.KindHeading, extast.KindTableCell:
			p := strings.Join(strings.Fields(inlineText(n, source)), " ")
			if p != "" {
				paragraphs = append(paragraphs, p)
				if title == "" && n.Kind() == ast.KindHeading && n.(*ast.Heading).Level == 1 {
					title = p
				}
			}
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk markdown: %w", err)
	}

	doc := newDocument(FormatMarkdown, paragraphs)
	for k, v := range meta.Get(pc) {
		doc.Metadata[k] = v
	}
	if t, ok := doc.Metadata["title"].(string); ok && t != "" {
		title = t
	}
	doc.Title = title
	return doc, nil
}

// inlineText 拼接节点下的行内文字，跳过行内公式与原始 HTML
func inlineText(n ast.Node, source []byte) string {
	var b strings.Builder

	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		switch c.Kind() {
		case mathjax.KindInlineMath, ast.KindRawHTML:
			continue
		case ast.KindText:
			t := c.(*ast.Text)
			b.Write(t.Segment.Value(source))
			if t.SoftLineBreak() || t.HardLineBreak() {
				b.WriteByte(' ')
			}
		case ast.KindString:
			b.Write(c.(*ast.String).Value)
		case ast.KindAutoLink:
			b.Write(c.(*ast.AutoLink).URL(source))
		default:
			b.WriteString(inlineText(c, source))
		}
	}

	return b.String()
}

// Format 支持的格式
func (e *MarkdownExtractor) Format() Format {
	return FormatMarkdown
}
