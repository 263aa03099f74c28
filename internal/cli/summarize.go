package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/nerdneilsfield/go-textai/internal/config"
	"github.com/nerdneilsfield/go-textai/pkg/pipeline"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// 摘要长度预设，只用于填充 min/max
var summaryPresets = map[string][2]int{
	"short":  {20, 80},
	"medium": {pipeline.DefaultMinLength, pipeline.DefaultMaxLength},
	"long":   {100, 400},
}

type summarizeOptions struct {
	minLength int
	maxLength int
	bullets   bool
	preset    string
	format    string
	output    string
	outFile   string
	provider  string
}

func newSummarizeCommand(root *rootOptions) *cobra.Command {
	opts := &summarizeOptions{}

	cmd := &cobra.Command{
		Use:   "summarize [file|-]",
		Short: "生成文本摘要",
		Long: `将输入切分为片段后逐段摘要，再按原顺序合并。
长度范围作用于每个片段，而不是合并后的全文。

用法示例:
  textai summarize article.txt
  textai summarize --bullets --preset short report.md
  cat page.html | textai summarize --format html --output json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSummarize(cmd, root, opts, args)
		},
	}

	flags := cmd.Flags()
	flags.IntVar(&opts.minLength, "min", 0, "每个片段摘要的最小长度 (默认 30)")
	flags.IntVar(&opts.maxLength, "max", 0, "每个片段摘要的最大长度 (默认 250)")
	flags.BoolVar(&opts.bullets, "bullets", false, "以要点列表输出")
	flags.StringVar(&opts.preset, "preset", "", "长度预设: short, medium, long")
	flags.StringVar(&opts.format, "format", "auto", "输入格式: auto, text, markdown, html")
	flags.StringVar(&opts.output, "output", outputText, "输出格式: text, markdown, json")
	flags.StringVarP(&opts.outFile, "out", "o", "", "结果写入文件")
	flags.StringVar(&opts.provider, "provider", "", "使用指定名称的后端，覆盖配置中的 summarizer")

	return cmd
}

// resolveLengths 预设先填充 min/max，显式的 --min/--max 优先
func (o *summarizeOptions) resolveLengths(cmd *cobra.Command) (int, int, error) {
	minLength, maxLength := 0, 0
	if o.preset != "" {
		preset, ok := summaryPresets[o.preset]
		if !ok {
			return 0, 0, fmt.Errorf("未知的长度预设: %s (可选 short, medium, long)", o.preset)
		}
		minLength, maxLength = preset[0], preset[1]
	}
	if cmd.Flags().Changed("min") {
		minLength = o.minLength
	}
	if cmd.Flags().Changed("max") {
		maxLength = o.maxLength
	}
	return minLength, maxLength, nil
}

func runSummarize(cmd *cobra.Command, root *rootOptions, opts *summarizeOptions, args []string) error {
	if err := checkOutputFormat(opts.output); err != nil {
		return err
	}
	minLength, maxLength, err := opts.resolveLengths(cmd)
	if err != nil {
		return err
	}

	bar := newProgressBar(root, "摘要进度")
	a, err := root.setup(cmd, func(cfg *config.Config) {
		if opts.provider != "" {
			cfg.Summarizer = opts.provider
		}
	}, bar.callback())
	if err != nil {
		return err
	}
	defer a.close()

	doc, err := readDocument(cmd, a, args, opts.format)
	if err != nil {
		return err
	}

	start := time.Now()
	outcome, err := a.service.Summarize(cmd.Context(), doc.Content, pipeline.SummarizeTask{
		MinLength:    minLength,
		MaxLength:    maxLength,
		BulletPoints: opts.bullets,
	})
	bar.stop()
	if err != nil {
		a.log.Error("摘要失败", zap.Error(err))
		return err
	}
	elapsed := time.Since(start)

	a.log.Info("摘要完成",
		zap.Int("chunks", outcome.ChunkCount),
		zap.Int("bullets", len(outcome.Bullets)),
		zap.Duration("elapsed", elapsed))

	mode := pipeline.ModeSummary
	if opts.bullets {
		mode = pipeline.ModeBullets
	}
	view := outcomeView{
		Mode:       mode.String(),
		Text:       outcome.Text,
		Bullets:    outcome.Bullets,
		ChunkCount: outcome.ChunkCount,
		Format:     string(doc.Format),
		Encoding:   doc.Encoding,
		Elapsed:    formatDuration(elapsed),
	}

	title := "Summary"
	if doc.Title != "" {
		title = "Summary: " + doc.Title
	}
	return writeFileOrStdout(cmd, opts.outFile, func(w io.Writer) error {
		return writeOutcome(w, opts.output, title, view)
	})
}
