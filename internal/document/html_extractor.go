package document

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// 块级元素，在其前后断开段落
var blockElements = map[atom.Atom]bool{
	atom.P: true, atom.Div: true, atom.Section: true, atom.Article: true,
	atom.Header: true, atom.Footer: true, atom.Main: true, atom.Aside: true, atom.Nav: true,
	atom.H1: true, atom.H2: true, atom.H3: true, atom.H4: true, atom.H5: true, atom.H6: true,
	atom.Li: true, atom.Ul: true, atom.Ol: true, atom.Dl: true, atom.Dt: true, atom.Dd: true,
	atom.Blockquote: true, atom.Figcaption: true, atom.Table: true, atom.Tr: true,
	atom.Td: true, atom.Th: true, atom.Caption: true, atom.Hr: true,
}

// 不含可读文字的元素
var skippedElements = map[atom.Atom]bool{
	atom.Script: true, atom.Style: true, atom.Noscript: true, atom.Template: true,
	atom.Pre: true, atom.Svg: true, atom.Math: true,
	atom.Iframe: true, atom.Object: true, atom.Head: true,
}

// HTMLExtractor HTML 提取器，按块级元素切分段落
type HTMLExtractor struct{}

// NewHTMLExtractor 创建 HTML 提取器
func NewHTMLExtractor() *HTMLExtractor {
	return &HTMLExtractor{}
}

// Extract 提取 HTML 可见文字
func (e *HTMLExtractor) Extract(content string) (*Document, error) {
	gqDoc, err := goquery.NewDocumentFromReader(strings.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("failed to parse html: %w", err)
	}

	var paragraphs []string
	var current strings.Builder

	flush := func() {
		p := strings.Join(strings.Fields(current.String()), " ")
		if p != "" {
			paragraphs = append(paragraphs, p)
		}
		current.Reset()
	}

	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			current.WriteString(n.Data)
			return
		case html.ElementNode:
			if skippedElements[n.DataAtom] {
				return
			}
			if n.DataAtom == atom.Br {
				current.WriteByte(' ')
				return
			}
			if blockElements[n.DataAtom] {
				flush()
				defer flush()
			}
		case html.CommentNode:
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}

	body := gqDoc.Find("body")
	if body.Length() == 0 {
		body = gqDoc.Selection
	}
	for _, n := range body.Nodes {
		walk(n)
	}
	flush()

	doc := newDocument(FormatHTML, paragraphs)
	doc.Title = strings.TrimSpace(gqDoc.Find("title").First().Text())

	if lang, ok := gqDoc.Find("html").Attr("lang"); ok {
		doc.Metadata["lang"] = lang
	}
	if dir, ok := gqDoc.Find("html").Attr("dir"); ok {
		doc.Metadata["dir"] = dir
	}
	gqDoc.Find("meta[name]").Each(func(_ int, s *goquery.Selection) {
		name, _ := s.Attr("name")
		if value, ok := s.Attr("content"); ok && name != "" {
			doc.Metadata[strings.ToLower(name)] = value
		}
	})

	return doc, nil
}

// Format 支持的格式
func (e *HTMLExtractor) Format() Format {
	return FormatHTML
}
