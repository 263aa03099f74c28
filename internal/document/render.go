package document

import (
	"fmt"
	"strings"

	"github.com/Kunde21/markdownfmt/v3"
	"github.com/Kunde21/markdownfmt/v3/markdown"
)

// Report 命令结果的 Markdown 报告
type Report struct {
	Title    string
	Body     string
	Bullets  []string
	Metadata [][2]string // 按顺序输出的键值对
}

// RenderMarkdown 生成报告并用 markdownfmt 规范化
func RenderMarkdown(report Report) ([]byte, error) {
	var b strings.Builder

	if report.Title != "" {
		fmt.Fprintf(&b, "# %s\n\n", report.Title)
	}

	if len(report.Metadata) > 0 {
		b.WriteString("| Field | Value |\n|---|---|\n")
		for _, kv := range report.Metadata {
			fmt.Fprintf(&b, "| %s | %s |\n", escapeCell(kv[0]), escapeCell(kv[1]))
		}
		b.WriteString("\n")
	}

	if body := strings.TrimSpace(report.Body); body != "" {
		b.WriteString(body)
		b.WriteString("\n\n")
	}

	if len(report.Bullets) > 0 {
		b.WriteString("## Key points\n\n")
		for _, bullet := range report.Bullets {
			fmt.Fprintf(&b, "- %s\n", bullet)
		}
	}

	formatted, err := markdownfmt.Process("", []byte(b.String()),
		markdown.WithCodeFormatters(markdown.GoCodeFormatter))
	if err != nil {
		return nil, fmt.Errorf("markdown formatting failed: %w", err)
	}
	return formatted, nil
}

func escapeCell(s string) string {
	return strings.ReplaceAll(strings.ReplaceAll(s, "|", `\|`), "\n", " ")
}
