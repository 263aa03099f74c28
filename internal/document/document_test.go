package document

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"
	xunicode "golang.org/x/text/encoding/unicode"
)

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in   string
		want Format
		ok   bool
	}{
		{"", FormatAuto, true},
		{"md", FormatMarkdown, true},
		{"HTML", FormatHTML, true},
		{"txt", FormatText, true},
		{"pdf", "", false},
	}
	for _, tt := range tests {
		got, ok := ParseFormat(tt.in)
		assert.Equal(t, tt.want, got, tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
	}
}

func TestDecodeText(t *testing.T) {
	text, enc, err := DecodeText([]byte("hello"))
	require.NoError(t, err)
	assert.Equal(t, "hello", text)
	assert.Equal(t, EncodingUTF8, enc)

	text, enc, err = DecodeText(append([]byte{0xEF, 0xBB, 0xBF}, "مرحبا"...))
	require.NoError(t, err)
	assert.Equal(t, "مرحبا", text)
	assert.Equal(t, EncodingUTF8BOM, enc)

	utf16, err := xunicode.UTF16(xunicode.LittleEndian, xunicode.UseBOM).NewEncoder().Bytes([]byte("Hello مرحبا"))
	require.NoError(t, err)
	text, enc, err = DecodeText(utf16)
	require.NoError(t, err)
	assert.Equal(t, "Hello مرحبا", text)
	assert.Equal(t, EncodingUTF16LE, enc)

	cp1256, err := charmap.Windows1256.NewEncoder().Bytes([]byte("مرحبا بالعالم"))
	require.NoError(t, err)
	text, enc, err = DecodeText(cp1256)
	require.NoError(t, err)
	assert.Equal(t, "مرحبا بالعالم", text)
	assert.Equal(t, EncodingWindows1256, enc)

	cp1252, err := charmap.Windows1252.NewEncoder().Bytes([]byte("Dürer façade"))
	require.NoError(t, err)
	text, enc, err = DecodeText(cp1252)
	require.NoError(t, err)
	assert.Equal(t, "Dürer façade", text)
	assert.Equal(t, EncodingWindows1252, enc)

	text, enc, err = DecodeText(nil)
	require.NoError(t, err)
	assert.Empty(t, text)
	assert.Equal(t, EncodingUTF8, enc)
}

func TestTextExtractor(t *testing.T) {
	doc, err := NewTextExtractor().Extract("First line\r\nstill first.\r\n\r\nSecond.")
	require.NoError(t, err)

	assert.Equal(t, "First line\nstill first.\n\nSecond.", doc.Content)
	assert.Equal(t, []string{"First line still first.", "Second."}, doc.Paragraphs)
}

func TestMarkdownExtractor(t *testing.T) {
	src := `---
title: Field Notes
author: someone
---

# Heading One

Some *emphasis* and ` + "`code`" + ` text
over two lines.

` + "```go\nfunc main() {}\n```" + `

$$
E = mc^2
$$

- first item
- second [link](https://example.com)

| Name | Value |
|------|-------|
| a    | b     |
`

	doc, err := NewMarkdownExtractor().Extract(src)
	require.NoError(t, err)

	assert.Equal(t, FormatMarkdown, doc.Format)
	assert.Equal(t, "Field Notes", doc.Title)
	assert.Equal(t, "someone", doc.Metadata["author"])

	assert.Equal(t, "Heading One", doc.Paragraphs[0])
	assert.Equal(t, "Some emphasis and code text over two lines.", doc.Paragraphs[1])
	assert.Contains(t, doc.Paragraphs, "first item")
	assert.Contains(t, doc.Paragraphs, "second link")
	assert.Contains(t, doc.Paragraphs, "Value")

	assert.NotContains(t, doc.Content, "func main")
	assert.NotContains(t, doc.Content, "mc^2")
	assert.NotContains(t, doc.Content, "author")
}

func TestMarkdownTitleFromHeading(t *testing.T) {
	doc, err := NewMarkdownExtractor().Extract("Intro.\n\n# Real Title\n\nBody.")
	require.NoError(t, err)
	assert.Equal(t, "Real Title", doc.Title)
	assert.Equal(t, "Intro.\n\nReal Title\n\nBody.", doc.Content)
}

func TestHTMLExtractor(t *testing.T) {
	src := `<!DOCTYPE html>
<html lang="ar" dir="rtl">
<head>
  <title> عنوان الصفحة </title>
  <meta name="Description" content="وصف">
  <style>body { color: red; }</style>
</head>
<body>
  <h1>مرحبا</h1>
  <p>هذا <b>نص</b> تجريبي.<br>سطر ثان.</p>
  <script>var x = 1;</script>
  <ul><li>أول</li><li>ثان</li></ul>
  <pre>code block</pre>
  <!-- comment -->
</body>
</html>`

	doc, err := NewHTMLExtractor().Extract(src)
	require.NoError(t, err)

	assert.Equal(t, "عنوان الصفحة", doc.Title)
	assert.Equal(t, "ar", doc.Metadata["lang"])
	assert.Equal(t, "rtl", doc.Metadata["dir"])
	assert.Equal(t, "وصف", doc.Metadata["description"])
	assert.Equal(t, []string{"مرحبا", "هذا نص تجريبي. سطر ثان.", "أول", "ثان"}, doc.Paragraphs)
	assert.NotContains(t, doc.Content, "var x")
	assert.NotContains(t, doc.Content, "color")
	assert.NotContains(t, doc.Content, "code block")
}

func TestRegistryDetectFormat(t *testing.T) {
	r := NewRegistry(nil)

	assert.Equal(t, FormatMarkdown, r.DetectFormat("notes.MD", ""))
	assert.Equal(t, FormatHTML, r.DetectFormat("page.htm", ""))
	assert.Equal(t, FormatText, r.DetectFormat("a.txt", "<html>"))
	assert.Equal(t, FormatHTML, r.DetectFormat("-", "<!DOCTYPE html><html></html>"))
	assert.Equal(t, FormatMarkdown, r.DetectFormat("", "# Title\n\nbody"))
	assert.Equal(t, FormatText, r.DetectFormat("", "plain words"))
}

func TestRegistryLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "page.html")
	require.NoError(t, os.WriteFile(path, []byte("<p>One.</p><p>Two.</p>"), 0o644))

	r := NewRegistry(nil)
	doc, err := r.LoadFile(path, FormatAuto)
	require.NoError(t, err)
	assert.Equal(t, FormatHTML, doc.Format)
	assert.Equal(t, "One.\n\nTwo.", doc.Content)
	assert.Equal(t, EncodingUTF8, doc.Encoding)

	// 显式指定格式时不做检测
	doc, err = r.LoadFile(path, FormatText)
	require.NoError(t, err)
	assert.Equal(t, "<p>One.</p><p>Two.</p>", doc.Content)

	_, err = r.LoadFile(filepath.Join(dir, "missing.txt"), FormatAuto)
	assert.Error(t, err)

	_, err = r.Extract([]byte("x"), "", Format("pdf"))
	assert.ErrorContains(t, err, "no extractor registered")
}

func TestRenderMarkdown(t *testing.T) {
	out, err := RenderMarkdown(Report{
		Title:    "Summary",
		Body:     "The text in short.",
		Bullets:  []string{"First point.", "Second point."},
		Metadata: [][2]string{{"Chunks", "2"}, {"Source", "a|b"}},
	})
	require.NoError(t, err)

	s := string(out)
	assert.True(t, strings.HasPrefix(s, "# Summary"))
	assert.Contains(t, s, "The text in short.")
	assert.Contains(t, s, "## Key points")
	assert.Contains(t, s, "First point.")
	assert.Contains(t, s, "Chunks")
	assert.Contains(t, s, `a\|b`)
}
