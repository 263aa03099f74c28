package cli

import (
	"bufio"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/nerdneilsfield/go-textai/pkg/providers/stats"
	"github.com/spf13/cobra"
)

type statsOptions struct {
	format string
	json   bool
	usage  bool
	reset  bool
	yes    bool
}

// newStatsCommand 创建 stats 命令
func newStatsCommand(root *rootOptions) *cobra.Command {
	opts := &statsOptions{}

	cmd := &cobra.Command{
		Use:   "stats [file|-]",
		Short: "统计文本信息或查看后端调用统计",
		Long: `统计文本的字符数、词数、句子数、段落数和预计阅读时间。

使用 --usage 查看各后端的调用统计（需要在配置中设置 stats_path）:
  - 请求数与成功率
  - 摘要/翻译请求数
  - 平均延迟
  - 输入输出字符数
  - 错误数

用法示例:
  textai stats article.txt
  textai stats --json notes.md
  textai stats --usage
  textai stats --usage --reset --yes`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.usage {
				return runUsageStats(cmd, root, opts)
			}
			return runTextStats(cmd, root, opts, args)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.format, "format", "auto", "输入格式: auto, text, markdown, html")
	flags.BoolVar(&opts.json, "json", false, "以 JSON 输出")
	flags.BoolVar(&opts.usage, "usage", false, "显示后端调用统计")
	flags.BoolVar(&opts.reset, "reset", false, "清空后端调用统计 (与 --usage 一起使用)")
	flags.BoolVarP(&opts.yes, "yes", "y", false, "不再确认")

	return cmd
}

func runTextStats(cmd *cobra.Command, root *rootOptions, opts *statsOptions, args []string) error {
	a, err := root.setupLocal(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	doc, err := readDocument(cmd, a, args, opts.format)
	if err != nil {
		return err
	}

	textStats := a.service.ComputeStats(doc.Content)
	out := cmd.OutOrStdout()

	if opts.json {
		encoder := json.NewEncoder(out)
		encoder.SetIndent("", "  ")
		return encoder.Encode(textStats)
	}

	t := table.NewWriter()
	t.SetOutputMirror(out)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Metric", "Value"})
	t.AppendRows([]table.Row{
		{"Characters", formatNumber(textStats.Characters)},
		{"Words", formatNumber(textStats.Words)},
		{"Sentences", formatNumber(textStats.Sentences)},
		{"Paragraphs", formatNumber(textStats.Paragraphs)},
		{"Reading time", formatDuration(time.Duration(textStats.ReadingTimeSeconds) * time.Second)},
	})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, Align: text.AlignRight},
	})

	titleColor.Fprintln(out, "Text statistics")
	t.Render()
	return nil
}

func runUsageStats(cmd *cobra.Command, root *rootOptions, opts *statsOptions) error {
	cfg, err := root.loadConfig(cmd)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	if cfg.StatsPath == "" {
		fmt.Fprintln(out, "Provider statistics are not persisted; set stats_path in the config file.")
		return nil
	}

	manager := stats.NewManager(cfg.StatsPath, nil)
	if err := manager.Load(); err != nil {
		return fmt.Errorf("failed to load statistics: %w", err)
	}

	if opts.reset {
		if !opts.yes {
			fmt.Fprint(out, "Are you sure you want to reset all statistics? This cannot be undone. (y/N): ")
			answer, _ := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
			answer = strings.ToLower(strings.TrimSpace(answer))
			if answer != "y" && answer != "yes" {
				fmt.Fprintln(out, "Statistics reset cancelled.")
				return nil
			}
		}
		manager.Reset()
		if err := manager.Save(); err != nil {
			return err
		}
		fmt.Fprintln(out, "Statistics reset.")
		return nil
	}

	if opts.json {
		encoder := json.NewEncoder(out)
		encoder.SetIndent("", "  ")
		return encoder.Encode(manager.GetAllStats())
	}

	titleColor.Fprintln(out, "Provider usage")
	manager.Render(out)
	return nil
}
