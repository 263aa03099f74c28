package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/nerdneilsfield/go-textai/pkg/providers"
	"github.com/nerdneilsfield/go-textai/pkg/providers/factory"
	"github.com/spf13/cobra"
)

// providerView providers 命令的一行
type providerView struct {
	Name         string                 `json:"name"`
	Backend      string                 `json:"backend"`
	Roles        []string               `json:"roles,omitempty"`
	Capabilities providers.Capabilities `json:"capabilities"`
}

func newProvidersCommand(root *rootOptions) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "providers",
		Short: "列出已配置的模型后端及其能力",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := root.setup(cmd, nil, nil)
			if err != nil {
				return err
			}
			defer a.close()

			var views []providerView
			for _, name := range a.components.Registry.List() {
				backend, err := a.components.Registry.Get(name)
				if err != nil {
					return err
				}
				view := providerView{
					Name:         name,
					Backend:      backend.Name(),
					Capabilities: backend.Capabilities(),
				}
				if name == a.cfg.Summarizer {
					view.Roles = append(view.Roles, "summarizer")
				}
				if name == a.cfg.Translator {
					view.Roles = append(view.Roles, "translator")
				}
				views = append(views, view)
			}

			out := cmd.OutOrStdout()
			if asJSON {
				encoder := json.NewEncoder(out)
				encoder.SetIndent("", "  ")
				return encoder.Encode(views)
			}

			t := table.NewWriter()
			t.SetOutputMirror(out)
			t.SetStyle(table.StyleLight)
			t.AppendHeader(table.Row{"Name", "Backend", "Summarize", "Translate", "Directions", "Max Text", "API Key", "Role"})
			for _, v := range views {
				directions := make([]string, 0, len(v.Capabilities.Directions))
				for _, d := range v.Capabilities.Directions {
					directions = append(directions, string(d))
				}
				t.AppendRow(table.Row{
					v.Name,
					v.Backend,
					yesNo(v.Capabilities.Summarize),
					yesNo(v.Capabilities.Translate),
					strings.Join(directions, ", "),
					formatNumber(v.Capabilities.MaxTextLength),
					yesNo(v.Capabilities.RequiresAPIKey),
					strings.Join(v.Roles, ", "),
				})
			}

			titleColor.Fprintln(out, "Configured backends")
			t.Render()
			titleColor.Fprintln(out, "Supported backend types")
			for _, typ := range factory.New(a.log, nil).GetSupportedProviders() {
				fmt.Fprintf(out, "  - %s\n", typ)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "以 JSON 输出")

	return cmd
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
