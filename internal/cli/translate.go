package cli

import (
	"io"
	"time"

	"github.com/nerdneilsfield/go-textai/internal/config"
	"github.com/nerdneilsfield/go-textai/pkg/pipeline"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type translateOptions struct {
	source   string
	target   string
	format   string
	output   string
	outFile  string
	provider string
	glossary string
}

func newTranslateCommand(root *rootOptions) *cobra.Command {
	opts := &translateOptions{}

	cmd := &cobra.Command{
		Use:   "translate [file|-]",
		Short: "英语与阿拉伯语互译",
		Long: `将输入切分为片段后逐段翻译，再按原有的段落边界拼接译文。
只支持英语 (en) 与阿拉伯语 (ar) 之间的翻译，语言名称也可以写作 english / arabic。

用法示例:
  textai translate notes.txt
  textai translate --source ar --target en article.md
  echo "Hello world" | textai translate -`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTranslate(cmd, root, opts, args)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.source, "source", "en", "源语言")
	flags.StringVar(&opts.target, "target", "ar", "目标语言")
	flags.StringVar(&opts.format, "format", "auto", "输入格式: auto, text, markdown, html")
	flags.StringVar(&opts.output, "output", outputText, "输出格式: text, markdown, json")
	flags.StringVarP(&opts.outFile, "out", "o", "", "结果写入文件")
	flags.StringVar(&opts.provider, "provider", "", "使用指定名称的后端，覆盖配置中的 translator")
	flags.StringVar(&opts.glossary, "glossary", "", "词汇表文件 (TOML)，命中的片段直接使用词汇表译文")

	return cmd
}

func runTranslate(cmd *cobra.Command, root *rootOptions, opts *translateOptions, args []string) error {
	if err := checkOutputFormat(opts.output); err != nil {
		return err
	}

	// 先校验语言对，避免无意义地创建后端
	dir, err := pipeline.ResolveDirection(opts.source, opts.target)
	if err != nil {
		return err
	}
	source, target := dir.Languages()

	bar := newProgressBar(root, "翻译进度")
	a, err := root.setup(cmd, func(cfg *config.Config) {
		if opts.provider != "" {
			cfg.Translator = opts.provider
		}
		if opts.glossary != "" {
			cfg.GlossaryPath = opts.glossary
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
	outcome, err := a.service.Translate(cmd.Context(), doc.Content, pipeline.TranslateTask{
		Source: source,
		Target: target,
	})
	bar.stop()
	if err != nil {
		a.log.Error("翻译失败", zap.Error(err))
		return err
	}
	elapsed := time.Since(start)

	a.log.Info("翻译完成",
		zap.String("direction", string(dir)),
		zap.Int("chunks", outcome.ChunkCount),
		zap.Duration("elapsed", elapsed))

	view := outcomeView{
		Mode:       pipeline.ModeTranslation.String(),
		Source:     source,
		Target:     target,
		Text:       outcome.Text,
		ChunkCount: outcome.ChunkCount,
		Format:     string(doc.Format),
		Encoding:   doc.Encoding,
		Elapsed:    formatDuration(elapsed),
	}

	title := "Translation"
	if doc.Title != "" {
		title = "Translation: " + doc.Title
	}
	return writeFileOrStdout(cmd, opts.outFile, func(w io.Writer) error {
		return writeOutcome(w, opts.output, title, view)
	})
}
