// Command cotask runs a demonstration pipeline on the hostloop event loop:
// a stream of work items processed with bounded parallelism, throttling,
// per-item timeouts and an error report.
package main

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/krellyn/cotask"
	"github.com/krellyn/cotask/hostloop"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "cotask",
		Short:         "cooperative task runtime demos",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newPipelineCmd())
	return root
}

func newPipelineCmd() *cobra.Command {
	var (
		cfgPath  string
		parallel int
		ordered  bool
		throttle time.Duration
		timeout  time.Duration
	)
	cmd := &cobra.Command{
		Use:   "pipeline [item...]",
		Short: "process integer items through a map stage",
		Long: "Each item n sleeps n*10ms and yields n*2. Items exceeding the\n" +
			"per-item timeout are cancelled and end up in the error report.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := hostloop.DefaultConfig()
			if cfgPath != "" {
				var err error
				if cfg, err = hostloop.Load(cfgPath); err != nil {
					return err
				}
			}
			items, err := parseItems(args)
			if err != nil {
				return err
			}
			return runPipeline(cfg, items, cotask.StageOptions{
				Parallel: parallel,
				Ordered:  ordered,
				Throttle: throttle,
				Timeout:  timeout,
			})
		},
	}
	cmd.Flags().StringVar(&cfgPath, "config", "", "hostloop YAML config file")
	cmd.Flags().IntVar(&parallel, "parallel", 2, "max concurrent workers (0 = unbounded)")
	cmd.Flags().BoolVar(&ordered, "ordered", false, "emit in input order")
	cmd.Flags().DurationVar(&throttle, "throttle", 0, "minimum gap between worker starts")
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "per-item timeout (0 = none)")
	return cmd
}

func parseItems(args []string) ([]any, error) {
	if len(args) == 0 {
		args = []string{"3", "1", "4", "1", "5", "9", "2", "6"}
	}
	items := make([]any, len(args))
	for i, a := range args {
		n, err := strconv.Atoi(a)
		if err != nil {
			return nil, fmt.Errorf("item %q is not an integer", a)
		}
		items[i] = n
	}
	return items, nil
}

func runPipeline(cfg hostloop.Config, items []any, opts cotask.StageOptions) error {
	loop := hostloop.New(cfg)
	rt := cotask.New(loop)

	start := time.Now()
	pipe := cotask.FromSlice(rt, items).Map(func(t *cotask.Task, args cotask.Values) (cotask.Values, error) {
		n := args.First().(int)
		t.Sleep(time.Duration(n) * 10 * time.Millisecond)
		return cotask.Vals(n * 2), nil
	}, opts)

	results, err := pipe.ToSlice()
	if err != nil {
		return err
	}
	for _, vals := range results {
		color.Green("item -> %v", vals.First())
	}
	for _, rerr := range pipe.Report() {
		color.Red("error: %v", rerr)
	}
	fmt.Printf("%d of %d items in %v\n", len(results), len(items), time.Since(start).Round(time.Millisecond))
	return nil
}
