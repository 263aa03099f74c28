package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/nerdneilsfield/go-textai/internal/config"
	"github.com/nerdneilsfield/go-textai/internal/document"
	"github.com/nerdneilsfield/go-textai/internal/logger"
	"github.com/nerdneilsfield/go-textai/pkg/pipeline"
	"github.com/nerdneilsfield/go-textai/pkg/providers/factory"
	"github.com/nerdneilsfield/go-textai/pkg/providers/stats"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// rootOptions 全局标志
type rootOptions struct {
	configPath  string
	debug       bool
	logFile     string
	concurrency int
	noProgress  bool
}

// NewRootCommand 创建根命令
func NewRootCommand(version, commit, buildDate string) *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:   "textai",
		Short: "英语/阿拉伯语文本摘要与翻译工具",
		Long: `textai 将长文本切分为片段，逐段调用模型服务完成摘要或英阿互译，再按原顺序合并结果。
语言检测和文本统计在本地完成，不调用任何模型。

支持的模型后端:
  - huggingface: Hugging Face Inference API (bart-large-cnn, opus-mt-en-ar, opus-mt-ar-en)
  - openai: OpenAI Chat Completions
  - openai-compatible: DeepSeek、vLLM 等兼容接口
  - ollama: Ollama 本地大语言模型
  - libretranslate: LibreTranslate (开源，仅翻译)
  - deepl / deeplx: DeepL 专业翻译及其免费替代 (仅翻译)
  - google: Google Cloud Translation (仅翻译)
  - raw: 不调用模型，原样返回，用于检查分块

支持的输入格式: text, markdown, html`,
		Version:       fmt.Sprintf("%s (commit %s, built %s)", version, commit, buildDate),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	addGlobalFlags(rootCmd, opts)

	rootCmd.AddCommand(newSummarizeCommand(opts))
	rootCmd.AddCommand(newTranslateCommand(opts))
	rootCmd.AddCommand(newDetectCommand(opts))
	rootCmd.AddCommand(newStatsCommand(opts))
	rootCmd.AddCommand(newHealthCommand(opts))
	rootCmd.AddCommand(newProvidersCommand(opts))
	rootCmd.AddCommand(newConfigCommand(opts))
	rootCmd.AddCommand(newGlossaryCommand())

	return rootCmd
}

// addGlobalFlags 添加全局标志
func addGlobalFlags(rootCmd *cobra.Command, opts *rootOptions) {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "", "配置文件路径 (默认 ~/.textai.yaml)")
	flags.BoolVar(&opts.debug, "debug", false, "启用调试日志")
	flags.StringVar(&opts.logFile, "log-file", "", "同时以 JSON 格式写入日志文件")
	flags.IntVar(&opts.concurrency, "concurrency", 0, "并行片段请求数，覆盖配置文件")
	flags.BoolVar(&opts.noProgress, "no-progress", false, "不显示进度条")
}

// app 单次命令执行所需的组件
type app struct {
	cfg        *config.Config
	log        *zap.Logger
	stats      *stats.Manager
	components *factory.Components
	service    *pipeline.Service
	documents  *document.Registry

	stopAutoSave func()
}

// statsAutoSaveInterval 长文档处理期间统计文件的保存间隔
const statsAutoSaveInterval = 30 * time.Second

// loadConfig 加载配置并应用命令行覆盖
func (o *rootOptions) loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.LoadConfig(o.configPath)
	if err != nil {
		if o.configPath != "" {
			return nil, fmt.Errorf("加载配置失败: %w", err)
		}
		cfg = config.NewDefaultConfig()
	}

	if o.debug {
		cfg.Debug = true
	}
	if o.logFile != "" {
		cfg.LogFile = o.logFile
	}
	if cmd.Flags().Changed("concurrency") {
		cfg.Pipeline.Concurrency = o.concurrency
	}

	return cfg, nil
}

// setup 创建日志、统计、后端和流水线。progress 为 nil 时不报告进度。
func (o *rootOptions) setup(cmd *cobra.Command, override func(*config.Config), progress func(*pipeline.Progress)) (*app, error) {
	cfg, err := o.loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	if override != nil {
		override(cfg)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("配置无效: %w", err)
	}

	log, err := logger.New(logger.Options{Debug: cfg.Debug, File: cfg.LogFile})
	if err != nil {
		return nil, err
	}

	manager := stats.NewManager(cfg.StatsPath, log)
	if err := manager.Load(); err != nil {
		log.Warn("failed to load provider statistics", zap.Error(err))
	}

	components, err := factory.New(log, manager).Build(cfg)
	if err != nil {
		_ = log.Sync()
		return nil, err
	}

	pipelineOpts := append(components.PipelineOptions(), pipeline.WithLogger(log))
	if progress != nil {
		pipelineOpts = append(pipelineOpts, pipeline.WithProgressCallback(progress))
	}

	service, err := pipeline.New(cfg.ToPipelineConfig(), pipelineOpts...)
	if err != nil {
		_ = log.Sync()
		return nil, err
	}

	log.Debug("配置加载完成",
		zap.String("summarizer", cfg.Summarizer),
		zap.String("translator", cfg.Translator),
		zap.Int("concurrency", cfg.Pipeline.Concurrency))

	a := &app{
		cfg:        cfg,
		log:        log,
		stats:      manager,
		components: components,
		service:    service,
		documents:  document.NewRegistry(log),
	}
	if cfg.StatsPath != "" {
		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan struct{})
		go func() {
			defer close(done)
			manager.AutoSave(ctx, statsAutoSaveInterval)
		}()
		a.stopAutoSave = func() {
			cancel()
			<-done
		}
	}

	return a, nil
}

// setupLocal 只创建本地组件，用于语言检测和文本统计，不构建任何后端
func (o *rootOptions) setupLocal(cmd *cobra.Command) (*app, error) {
	cfg, err := o.loadConfig(cmd)
	if err != nil {
		return nil, err
	}

	log, err := logger.New(logger.Options{Debug: cfg.Debug, File: cfg.LogFile})
	if err != nil {
		return nil, err
	}

	service, err := pipeline.New(cfg.ToPipelineConfig(), pipeline.WithLogger(log))
	if err != nil {
		_ = log.Sync()
		return nil, err
	}

	return &app{
		cfg:       cfg,
		log:       log,
		stats:     stats.NewManager("", log),
		service:   service,
		documents: document.NewRegistry(log),
	}, nil
}

// close 停止自动保存 (退出前会最后保存一次) 并刷新日志
func (a *app) close() {
	if a.stopAutoSave != nil {
		a.stopAutoSave()
	}
	_ = a.log.Sync()
}
