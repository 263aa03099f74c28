package cli

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type healthResult struct {
	name    string
	backend string
	latency time.Duration
	err     error
}

func newHealthCommand(root *rootOptions) *cobra.Command {
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "health [name...]",
		Short: "检查模型后端是否可用",
		Long: `对配置中的每个后端（或指定的后端）执行健康检查，检查并行进行。
任一后端不可用时命令以非零状态退出。`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := root.setup(cmd, nil, nil)
			if err != nil {
				return err
			}
			defer a.close()

			names := args
			if len(names) == 0 {
				names = a.components.Registry.List()
			}

			results := make([]healthResult, len(names))
			var wg sync.WaitGroup
			for i, name := range names {
				wg.Add(1)
				go func(i int, name string) {
					defer wg.Done()
					results[i] = checkBackend(cmd.Context(), a, name, timeout)
				}(i, name)
			}
			wg.Wait()

			out := cmd.OutOrStdout()
			ok := color.New(color.FgGreen).SprintFunc()
			fail := color.New(color.FgRed).SprintFunc()

			t := table.NewWriter()
			t.SetOutputMirror(out)
			t.SetStyle(table.StyleLight)
			t.AppendHeader(table.Row{"Name", "Backend", "Status", "Latency", "Error"})

			unhealthy := 0
			for _, r := range results {
				status, message := ok("OK"), ""
				if r.err != nil {
					unhealthy++
					status, message = fail("FAIL"), preview(r.err.Error(), 60)
				}
				t.AppendRow(table.Row{r.name, r.backend, status, formatDuration(r.latency.Round(time.Millisecond)), message})
			}

			titleColor.Fprintln(out, "Backend health")
			t.Render()

			if unhealthy > 0 {
				return fmt.Errorf("%d of %d backend(s) unhealthy", unhealthy, len(results))
			}
			return nil
		},
	}

	cmd.Flags().DurationVar(&timeout, "timeout", 15*time.Second, "单个后端的检查超时")

	return cmd
}

func checkBackend(ctx context.Context, a *app, name string, timeout time.Duration) healthResult {
	result := healthResult{name: name}

	backend, err := a.components.Registry.Get(name)
	if err != nil {
		result.err = err
		return result
	}
	result.backend = backend.Name()

	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	start := time.Now()
	result.err = backend.HealthCheck(ctx)
	result.latency = time.Since(start)

	if result.err != nil {
		a.log.Warn("health check failed", zap.String("name", name), zap.Error(result.err))
	} else {
		a.log.Debug("health check passed", zap.String("name", name), zap.Duration("latency", result.latency))
	}
	return result
}
