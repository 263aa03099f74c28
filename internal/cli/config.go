package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/nerdneilsfield/go-textai/internal/config"
	"github.com/nerdneilsfield/go-textai/pkg/pipeline"
	"github.com/spf13/cobra"
)

// newConfigCommand 创建 config 命令
func newConfigCommand(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "管理配置文件",
	}

	var force bool
	initCmd := &cobra.Command{
		Use:   "init [path]",
		Short: "写入默认配置文件",
		Long: `写入包含全部默认值的配置文件，默认路径为 --config 或 ~/.textai.yaml。

用法示例:
  textai config init
  textai config init ./textai.yaml --force`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := root.configPath
			if len(args) == 1 {
				path = args[0]
			}
			if path == "" {
				home, err := os.UserHomeDir()
				if err != nil {
					return err
				}
				path = filepath.Join(home, ".textai.yaml")
			}

			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists, use --force to overwrite", path)
			}
			if err := config.SaveConfig(config.NewDefaultConfig(), path); err != nil {
				return fmt.Errorf("failed to write config: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Configuration written to %s\n", path)
			return nil
		},
	}
	initCmd.Flags().BoolVar(&force, "force", false, "覆盖已有文件")

	cmd.AddCommand(initCmd)
	return cmd
}

// newGlossaryCommand 创建 glossary 命令
func newGlossaryCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "glossary",
		Short: "维护预定义译文词汇表 (TOML)",
	}

	var source, target string
	addCmd := &cobra.Command{
		Use:   "add <file> <source-text> <translation>",
		Short: "向词汇表添加或更新一条译文",
		Long: `向词汇表添加一条译文，文件不存在时按 --source/--target 创建。
翻译时与词条完全一致的片段直接使用预定义译文，不调用模型。

用法示例:
  textai glossary add terms.toml "Good morning" "صباح الخير"
  textai translate --glossary terms.toml greeting.txt`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, key, value := args[0], args[1], args[2]

			dir, err := pipeline.ResolveDirection(source, target)
			if err != nil {
				return err
			}
			sourceLang, targetLang := dir.Languages()

			pt := config.NewPredefinedTranslation(sourceLang, targetLang, map[string]string{})
			if _, err := os.Stat(path); err == nil {
				if pt, err = config.LoadPredefinedTranslations(path); err != nil {
					return err
				}
				existing, err := pipeline.ResolveDirection(pt.SourceLang, pt.TargetLang)
				if err != nil {
					return err
				}
				if existing != dir {
					return fmt.Errorf("%s holds %s translations, not %s", path, existing, dir)
				}
			}

			pt.Translations[key] = value
			if err := config.SavePredefinedTranslations(pt, path); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s entries\n", path, formatNumber(len(pt.Translations)))
			return nil
		},
	}
	addCmd.Flags().StringVar(&source, "source", "en", "原文语言")
	addCmd.Flags().StringVar(&target, "target", "ar", "译文语言")

	cmd.AddCommand(addCmd)
	return cmd
}
