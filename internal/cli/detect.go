package cli

import (
	"encoding/json"
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

type detectOptions struct {
	format string
	json   bool
}

func newDetectCommand(root *rootOptions) *cobra.Command {
	opts := &detectOptions{}

	cmd := &cobra.Command{
		Use:   "detect [file|-]",
		Short: "检测文本语言（英语或阿拉伯语）",
		Long: `按阿拉伯字母与拉丁字母的占比判断语言，只取文本开头的样本，不调用任何模型。
结果为 English、Arabic 或 Unknown，并给出 high / medium / low 置信度。`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := root.setupLocal(cmd)
			if err != nil {
				return err
			}
			defer a.close()

			doc, err := readDocument(cmd, a, args, opts.format)
			if err != nil {
				return err
			}

			verdict := a.service.DetectLanguage(doc.Content)
			out := cmd.OutOrStdout()

			if opts.json {
				encoder := json.NewEncoder(out)
				encoder.SetIndent("", "  ")
				encoder.SetEscapeHTML(false)
				return encoder.Encode(verdict)
			}

			t := table.NewWriter()
			t.SetOutputMirror(out)
			t.SetStyle(table.StyleLight)
			t.AppendHeader(table.Row{"Language", "Confidence", "Format", "Encoding", "Sample"})
			t.AppendRow(table.Row{
				verdict.Language,
				verdict.Confidence,
				doc.Format,
				doc.Encoding,
				preview(doc.Content, 40),
			})

			titleColor.Fprintln(out, "Language detection")
			t.Render()
			if doc.Title != "" {
				fmt.Fprintf(out, "Title: %s\n", doc.Title)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.format, "format", "auto", "输入格式: auto, text, markdown, html")
	cmd.Flags().BoolVar(&opts.json, "json", false, "以 JSON 输出")

	return cmd
}
