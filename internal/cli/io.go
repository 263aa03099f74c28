package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/mattn/go-runewidth"
	"github.com/nerdneilsfield/go-textai/internal/document"
	"github.com/nerdneilsfield/go-textai/pkg/pipeline"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

// 结果输出格式
const (
	outputText     = "text"
	outputMarkdown = "markdown"
	outputJSON     = "json"
)

var titleColor = color.New(color.FgCyan, color.Bold)

// readDocument 读取文件或标准输入（参数为空或 "-"）并提取纯文本
func readDocument(cmd *cobra.Command, a *app, args []string, formatName string) (*document.Document, error) {
	format, ok := document.ParseFormat(formatName)
	if !ok {
		return nil, fmt.Errorf("不支持的输入格式: %s", formatName)
	}

	if len(args) == 0 || args[0] == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return nil, fmt.Errorf("读取标准输入失败: %w", err)
		}
		return a.documents.Extract(data, "", format)
	}

	return a.documents.LoadFile(args[0], format)
}

// checkOutputFormat 校验 --output 取值
func checkOutputFormat(name string) error {
	switch name {
	case outputText, outputMarkdown, outputJSON:
		return nil
	default:
		return fmt.Errorf("不支持的输出格式: %s (可选 text, markdown, json)", name)
	}
}

// outcomeView 命令结果的 JSON 形式
type outcomeView struct {
	Mode       string   `json:"mode"`
	Source     string   `json:"source_language,omitempty"`
	Target     string   `json:"target_language,omitempty"`
	Text       string   `json:"text"`
	Bullets    []string `json:"bullets,omitempty"`
	ChunkCount int      `json:"chunk_count"`
	Format     string   `json:"input_format"`
	Encoding   string   `json:"input_encoding"`
	Elapsed    string   `json:"elapsed"`
}

// writeOutcome 按输出格式写出结果
func writeOutcome(w io.Writer, output string, title string, view outcomeView) error {
	switch output {
	case outputJSON:
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		encoder.SetEscapeHTML(false)
		return encoder.Encode(view)

	case outputMarkdown:
		metadata := [][2]string{
			{"Mode", view.Mode},
			{"Chunks", fmt.Sprintf("%d", view.ChunkCount)},
			{"Input", fmt.Sprintf("%s (%s)", view.Format, view.Encoding)},
		}
		if view.Source != "" {
			metadata = append(metadata, [2]string{"Direction", view.Source + " → " + view.Target})
		}
		body := view.Text
		if len(view.Bullets) > 0 {
			// 要点已包含摘要全部内容，不再重复输出正文
			body = ""
		}
		out, err := document.RenderMarkdown(document.Report{
			Title:    title,
			Body:     body,
			Bullets:  view.Bullets,
			Metadata: metadata,
		})
		if err != nil {
			return err
		}
		_, err = w.Write(out)
		return err

	default:
		if len(view.Bullets) > 0 {
			for _, bullet := range view.Bullets {
				fmt.Fprintf(w, "• %s\n", bullet)
			}
			return nil
		}
		_, err := fmt.Fprintln(w, view.Text)
		return err
	}
}

// writeFileOrStdout 结果写入文件，path 为空时写到命令输出
func writeFileOrStdout(cmd *cobra.Command, path string, write func(io.Writer) error) error {
	if path == "" {
		return write(cmd.OutOrStdout())
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("创建输出文件失败: %w", err)
	}
	if err := write(f); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// progressBar 终端进度条，第一次回调时才知道片段总数
type progressBar struct {
	mu     sync.Mutex
	title  string
	writer io.Writer
	bar    *pterm.ProgressbarPrinter
}

// newProgressBar 在标准错误是终端时返回进度条，否则返回 nil
func newProgressBar(opts *rootOptions, title string) *progressBar {
	if opts.noProgress || !isatty.IsTerminal(os.Stderr.Fd()) {
		return nil
	}
	return &progressBar{title: title, writer: os.Stderr}
}

func (p *progressBar) update(progress *pipeline.Progress) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.bar == nil {
		bar, err := pterm.DefaultProgressbar.
			WithTotal(progress.Total).
			WithTitle(p.title).
			WithWriter(p.writer).
			WithRemoveWhenDone(true).
			Start()
		if err != nil {
			return
		}
		p.bar = bar
	}

	if delta := progress.Completed - p.bar.Current; delta > 0 {
		p.bar.Add(delta)
	}
}

// callback 供流水线使用，p 为 nil 时返回 nil
func (p *progressBar) callback() func(*pipeline.Progress) {
	if p == nil {
		return nil
	}
	return p.update
}

func (p *progressBar) stop() {
	if p == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.bar != nil {
		_, _ = p.bar.Stop()
	}
}

// preview 把文本压成一行并按显示宽度截断，阿拉伯文和全角字符按实际宽度计算
func preview(text string, width int) string {
	line := strings.Join(strings.Fields(text), " ")
	return runewidth.Truncate(line, width, "…")
}

// formatDuration 格式化时长
func formatDuration(d time.Duration) string {
	if d == 0 {
		return "0s"
	}

	if d < time.Second {
		return fmt.Sprintf("%.0fms", float64(d.Nanoseconds())/1e6)
	}

	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}

	if d < time.Hour {
		return fmt.Sprintf("%.1fm", d.Minutes())
	}

	return fmt.Sprintf("%.1fh", d.Hours())
}

// formatNumber 格式化数字（添加千位分隔符）
func formatNumber(n int) string {
	str := fmt.Sprintf("%d", n)
	if n < 0 || len(str) <= 3 {
		return str
	}

	var result strings.Builder
	for i, char := range str {
		if i > 0 && (len(str)-i)%3 == 0 {
			result.WriteString(",")
		}
		result.WriteRune(char)
	}
	return result.String()
}
